//go:build unit || e2e

package builder

import (
	"time"

	"bookingbot-engine/internal/domain/payment"

	"github.com/google/uuid"
)

type PaymentBuilder struct {
	BookingID  uuid.UUID
	AmountKobo int64
	Provider   string
	Attempt    int
	Now        time.Time
}

func NewPaymentBuilder() *PaymentBuilder {
	return &PaymentBuilder{
		BookingID:  uuid.New(),
		AmountKobo: 500000,
		Provider:   "paystack",
		Attempt:    1,
		Now:        time.Date(2026, 3, 1, 10, 0, 0, 0, lagos()),
	}
}

func (p *PaymentBuilder) With(mutate func(*PaymentBuilder)) *PaymentBuilder {
	mutate(p)
	return p
}

func (p *PaymentBuilder) BuildDomain() (*payment.Record, error) {
	amount, err := payment.NewMoney(p.AmountKobo)
	if err != nil {
		return nil, err
	}
	return payment.NewRecord(p.BookingID, amount, p.Provider, p.Attempt, p.Now)
}
