package booking

import (
	"crypto/rand"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrEmptyCustomerName = errors.New("customer name cannot be empty")
	ErrInvalidPhone      = errors.New("invalid customer phone number")
)

// Nigerian numbers: +234XXXXXXXXXX or local 0XXXXXXXXXX.
var phonePattern = regexp.MustCompile(`^(\+234[0-9]{10}|0[0-9]{10})$`)

// Customer identifies who the appointment is for. Phone is the primary
// contact channel; email is optional.
type Customer struct {
	name  string
	phone string
	email string
}

func NewCustomer(name, phone, email string) (Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Customer{}, ErrEmptyCustomerName
	}
	phone = strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
	if !phonePattern.MatchString(phone) {
		return Customer{}, ErrInvalidPhone
	}
	return Customer{
		name:  name,
		phone: phone,
		email: strings.TrimSpace(email),
	}, nil
}

func ReconstructCustomer(name, phone, email string) Customer {
	return Customer{name: name, phone: phone, email: email}
}

func (c Customer) Name() string  { return c.name }
func (c Customer) Phone() string { return c.phone }
func (c Customer) Email() string { return c.email }

const referenceAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// NewReference builds a human-readable booking reference like BB-7KQ2M9XT.
// Ambiguous characters are excluded from the alphabet.
func NewReference() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is unrecoverable for reference generation
		panic(fmt.Errorf("booking reference: %w", err))
	}
	for i, b := range buf {
		buf[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return "BB-" + string(buf)
}
