// Package events defines the topics and payloads exchanged between modules.
package events

import "time"

const (
	// UserCreatedV1 is published after a profile is stored.
	UserCreatedV1 = "user.created.v1"
)

// UserCreatedPayloadV1 announces a new account.
type UserCreatedPayloadV1 struct {
	UserUUID  string    `json:"user_uuid"`
	Username  string    `json:"username"`
	Guest     bool      `json:"guest"`
	CreatedAt time.Time `json:"created_at"`
}
