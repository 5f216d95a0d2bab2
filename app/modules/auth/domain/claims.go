package authdomain

import (
	"time"

	userdomain "github.com/Black-And-White-Club/dingleup/app/modules/user/domain"
	"github.com/google/uuid"
)

// Claims represents the domain model for authentication claims.
type Claims struct {
	UserUUID  uuid.UUID
	Username  string
	Role      userdomain.Role
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// IsExpired checks if the claims have expired at now.
func (c *Claims) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// IsAdmin reports whether the claims carry the admin role.
func (c *Claims) IsAdmin() bool {
	return c.Role == userdomain.RoleAdmin
}
