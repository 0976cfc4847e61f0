package funds

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	balance := decimal.RequireFromString("100.00")

	assert.NoError(t, Authorize(balance, decimal.RequireFromString("40.00")))
	assert.NoError(t, Authorize(balance, balance))

	assert.ErrorIs(t, Authorize(balance, decimal.RequireFromString("100.01")), ErrInsufficientFunds)
	assert.ErrorIs(t, Authorize(decimal.Zero, decimal.RequireFromString("0.01")), ErrInsufficientFunds)

	assert.ErrorIs(t, Authorize(balance, decimal.Zero), ErrInvalidAmount)
	assert.ErrorIs(t, Authorize(balance, decimal.RequireFromString("-5")), ErrInvalidAmount)
}
