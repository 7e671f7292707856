package payment

import (
	"errors"
	"fmt"
)

var ErrNegativeAmount = errors.New("amount cannot be negative")

const koboPerNaira = 100

// Money is an NGN amount in kobo; providers (Paystack and friends) settle
// in kobo, so the engine never deals in fractional naira.
type Money struct {
	kobo int64
}

func NewMoney(kobo int64) (Money, error) {
	if kobo < 0 {
		return Money{}, ErrNegativeAmount
	}
	return Money{kobo: kobo}, nil
}

func NairaToKobo(naira int64) int64 {
	return naira * koboPerNaira
}

func (m Money) Kobo() int64 {
	return m.kobo
}

func (m Money) Naira() float64 {
	return float64(m.kobo) / koboPerNaira
}

func (m Money) Equals(other Money) bool {
	return m.kobo == other.kobo
}

func (m Money) String() string {
	return fmt.Sprintf("₦%.2f", m.Naira())
}
