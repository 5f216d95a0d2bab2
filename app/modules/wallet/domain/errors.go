package walletdomain

import "errors"

var (
	ErrUnknownBooster       = errors.New("unknown booster type")
	ErrBoosterAlreadyActive = errors.New("a booster is already active")
	ErrInsufficientCoins    = errors.New("insufficient coins")
	ErrNoLives              = errors.New("no lives left")
	ErrInvalidAmount        = errors.New("amounts must not be negative")
)
