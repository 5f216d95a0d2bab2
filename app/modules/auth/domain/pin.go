package authdomain

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	PINLength = 6

	minDeviceIDLength = 8
	maxDeviceIDLength = 128
)

var (
	ErrInvalidPIN         = errors.New("pin must be exactly 6 digits")
	ErrInvalidCredentials = errors.New("invalid username or pin")
	ErrAccountLocked      = errors.New("account locked after too many failed attempts")
	ErrInvalidDeviceID    = errors.New("device id must be 8-128 characters")
)

// ValidatePIN checks that pin is exactly six ASCII digits.
func ValidatePIN(pin string) error {
	if len(pin) != PINLength {
		return ErrInvalidPIN
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return ErrInvalidPIN
		}
	}
	return nil
}

// HashPIN validates and bcrypt-hashes a PIN.
func HashPIN(pin string) (string, error) {
	if err := ValidatePIN(pin); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash pin: %w", err)
	}
	return string(hash), nil
}

// ComparePIN reports whether pin matches hash.
func ComparePIN(hash, pin string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}

// NormalizeDeviceID trims a client supplied device identifier.
func NormalizeDeviceID(deviceID string) (string, error) {
	deviceID = strings.TrimSpace(deviceID)
	if len(deviceID) < minDeviceIDLength || len(deviceID) > maxDeviceIDLength {
		return "", ErrInvalidDeviceID
	}
	return deviceID, nil
}
