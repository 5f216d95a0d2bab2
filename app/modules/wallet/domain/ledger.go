package walletdomain

// Balance is the spendable part of a wallet.
type Balance struct {
	Coins int64
	Lives int
}

// ApplyCredit adds non-negative amounts.
func ApplyCredit(b Balance, coins int64, lives int) (Balance, error) {
	if coins < 0 || lives < 0 {
		return b, ErrInvalidAmount
	}
	b.Coins += coins
	b.Lives += lives
	return b, nil
}

// ApplyDebit subtracts non-negative amounts without letting either balance
// drop below zero.
func ApplyDebit(b Balance, coins int64, lives int) (Balance, error) {
	if coins < 0 || lives < 0 {
		return b, ErrInvalidAmount
	}
	if b.Coins < coins {
		return b, ErrInsufficientCoins
	}
	if b.Lives < lives {
		return b, ErrNoLives
	}
	b.Coins -= coins
	b.Lives -= lives
	return b, nil
}
