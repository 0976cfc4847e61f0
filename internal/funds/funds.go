package funds

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount occurs when a debit is requested for a zero or negative amount.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInsufficientFunds occurs when the card balance cannot cover the requested debit.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Authorize decides whether a debit of amount may be taken from balance.
// It is a pure policy check with no storage access so it can evolve
// (daily limits, fraud scoring) without touching commit atomicity.
func Authorize(balance, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}
