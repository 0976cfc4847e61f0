package card

import "github.com/shopspring/decimal"

// Network identifies the card scheme a card is issued on.
type Network string

const (
	NetworkHumo   Network = "HUMO"
	NetworkUzCard Network = "UzCard"
)

// Card is a payment card on file. Balance is mutated only by the ledger's
// commit; everything else is read-only from the purchase core's perspective.
type Card struct {
	ID       string
	OwnerID  string
	Network  Network
	BankName string
	Number   string
	Balance  decimal.Decimal
}
