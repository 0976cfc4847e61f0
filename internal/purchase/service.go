package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/uzpay/uzpay/internal/funds"
	"github.com/uzpay/uzpay/internal/ledger"
	"github.com/uzpay/uzpay/internal/merchant"
	"github.com/uzpay/uzpay/internal/notification"
)

var (
	// ErrMissingFields occurs when merchant id, amount, or phone number is absent.
	ErrMissingFields = errors.New("merchant id, amount, and phone number are required")

	// ErrMissingCard occurs when the request names no paying card. The card
	// must be chosen explicitly; there is no "first card" fallback.
	ErrMissingCard = errors.New("card id is required")
)

const (
	maxCommitAttempts = 3
	retryBackoff      = 25 * time.Millisecond
)

// Service orchestrates the purchase workflow: validate, resolve the
// merchant, then delegate the read-check-debit-record sequence to the
// store's atomic commit. It never reads and writes the balance as two
// separate steps itself.
type Service struct {
	store     ledger.Store
	merchants merchant.Repository
	notifier  notification.Notifier
	logger    *slog.Logger
}

// NewService constructs a purchase service.
func NewService(store ledger.Store, merchants merchant.Repository, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{store: store, merchants: merchants, notifier: notifier, logger: logger}
}

// Input captures a purchase request after transport decoding.
type Input struct {
	PayerID        string
	CardID         string
	MerchantID     string
	Amount         decimal.Decimal
	PhoneNumber    string
	DeviceID       string
	OriginIP       string
	IdempotencyKey string
}

// Result describes a committed purchase. Replayed is set when the
// idempotency key matched an earlier commit and no new debit happened.
type Result struct {
	Transaction ledger.Transaction
	Replayed    bool
}

// MakePurchase validates the request and commits the debit plus its
// transaction record. Every non-success outcome is all-or-nothing: no
// transaction row exists and no balance changed.
func (s *Service) MakePurchase(ctx context.Context, input Input) (Result, error) {
	if input.MerchantID == "" || input.PhoneNumber == "" || input.Amount.IsZero() {
		return Result{}, ErrMissingFields
	}
	if input.CardID == "" {
		return Result{}, ErrMissingCard
	}
	if input.Amount.Sign() <= 0 {
		return Result{}, funds.ErrInvalidAmount
	}

	m, err := s.merchants.Get(ctx, input.MerchantID)
	if err != nil {
		return Result{}, err
	}

	key := input.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}

	commit := ledger.CommitInput{
		CardID:         input.CardID,
		PayerID:        input.PayerID,
		MerchantID:     m.ID,
		Amount:         input.Amount,
		PhoneNumber:    input.PhoneNumber,
		DeviceID:       input.DeviceID,
		OriginIP:       input.OriginIP,
		IdempotencyKey: key,
	}

	var tx ledger.Transaction
	for attempt := 1; ; attempt++ {
		tx, err = s.store.CommitPurchase(ctx, commit)
		if err == nil {
			break
		}
		if errors.Is(err, ledger.ErrDuplicatePurchase) {
			return Result{Transaction: tx, Replayed: true}, nil
		}
		if errors.Is(err, ledger.ErrBusy) && attempt < maxCommitAttempts {
			s.logger.Warn("purchase commit contended, retrying",
				slog.String("card_id", input.CardID),
				slog.Int("attempt", attempt),
			)
			select {
			case <-time.After(time.Duration(attempt) * retryBackoff):
			case <-ctx.Done():
				return Result{}, fmt.Errorf("%w: %v", ledger.ErrBusy, ctx.Err())
			}
			continue
		}
		return Result{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindPurchase,
			Destination: input.PhoneNumber,
			Body:        fmt.Sprintf("Paid %s to %s", tx.Amount.StringFixed(2), m.Name),
		})
	}

	return Result{Transaction: tx}, nil
}
