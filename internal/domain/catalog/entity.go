package catalog

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyServiceName    = errors.New("service name cannot be empty")
	ErrServiceNameTooLong  = errors.New("service name is too long (max 200 characters)")
	ErrInvalidDuration     = errors.New("service duration must be positive")
	ErrNegativeBuffer      = errors.New("buffer minutes cannot be negative")
	ErrInvalidPolicy       = errors.New("invalid payment policy")
	ErrNegativePrice       = errors.New("price cannot be negative")
	ErrPriceRequired       = errors.New("paid services require a positive price")
	ErrNoEligibleResources = errors.New("service has no eligible resources")
)

const MaxServiceNameLength = 200

// PaymentPolicy decides whether a booking must pass through the payment
// gate before confirmation.
type PaymentPolicy string

const (
	PaymentNone     PaymentPolicy = "none"
	PaymentOptional PaymentPolicy = "optional"
	PaymentRequired PaymentPolicy = "required"
)

func (p PaymentPolicy) IsValid() bool {
	switch p {
	case PaymentNone, PaymentOptional, PaymentRequired:
		return true
	default:
		return false
	}
}

func (p PaymentPolicy) String() string {
	return string(p)
}

// Service is a bookable offering owned by exactly one tenant. Buffers widen
// the claimed interval on each side of the appointment, matching prep and
// cleanup time.
type Service struct {
	id                uuid.UUID
	tenantID          uuid.UUID
	name              string
	durationMin       int
	bufferBeforeMin   int
	bufferAfterMin    int
	paymentPolicy     PaymentPolicy
	priceKobo         int64
	eligibleResources []uuid.UUID
	customFields      []CustomField
	active            bool
	createdAt         time.Time
	updatedAt         time.Time
}

func NewService(
	id, tenantID uuid.UUID,
	name string,
	durationMin, bufferBeforeMin, bufferAfterMin int,
	paymentPolicy PaymentPolicy,
	priceKobo int64,
	eligibleResources []uuid.UUID,
	customFields []CustomField,
) (*Service, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyServiceName
	}
	if len(name) > MaxServiceNameLength {
		return nil, ErrServiceNameTooLong
	}
	if durationMin <= 0 {
		return nil, ErrInvalidDuration
	}
	if bufferBeforeMin < 0 || bufferAfterMin < 0 {
		return nil, ErrNegativeBuffer
	}
	if !paymentPolicy.IsValid() {
		return nil, ErrInvalidPolicy
	}
	if priceKobo < 0 {
		return nil, ErrNegativePrice
	}
	if paymentPolicy != PaymentNone && priceKobo == 0 {
		return nil, ErrPriceRequired
	}
	if len(eligibleResources) == 0 {
		return nil, ErrNoEligibleResources
	}
	for _, f := range customFields {
		if err := f.Validate(); err != nil {
			return nil, err
		}
	}

	return &Service{
		id:                id,
		tenantID:          tenantID,
		name:              name,
		durationMin:       durationMin,
		bufferBeforeMin:   bufferBeforeMin,
		bufferAfterMin:    bufferAfterMin,
		paymentPolicy:     paymentPolicy,
		priceKobo:         priceKobo,
		eligibleResources: eligibleResources,
		customFields:      customFields,
		active:            true,
	}, nil
}

// Deactivate takes the service off the booking surface while history keeps
// referencing it.
func (s *Service) Deactivate() {
	s.active = false
}

func (s *Service) Duration() time.Duration {
	return time.Duration(s.durationMin) * time.Minute
}

func (s *Service) BufferBefore() time.Duration {
	return time.Duration(s.bufferBeforeMin) * time.Minute
}

func (s *Service) BufferAfter() time.Duration {
	return time.Duration(s.bufferAfterMin) * time.Minute
}

// ClaimDuration is the full interval a booking occupies on the resource
// calendar: prep buffer + appointment + cleanup buffer.
func (s *Service) ClaimDuration() time.Duration {
	return s.BufferBefore() + s.Duration() + s.BufferAfter()
}

func (s *Service) IsEligibleResource(resourceID uuid.UUID) bool {
	for _, id := range s.eligibleResources {
		if id == resourceID {
			return true
		}
	}
	return false
}

// ValidateFieldValues checks booking-time custom field answers against the
// service's schema.
func (s *Service) ValidateFieldValues(values map[string]any) error {
	return ValidateFieldValues(s.customFields, values)
}

func (s *Service) ID() uuid.UUID                  { return s.id }
func (s *Service) TenantID() uuid.UUID            { return s.tenantID }
func (s *Service) Name() string                   { return s.name }
func (s *Service) DurationMin() int               { return s.durationMin }
func (s *Service) BufferBeforeMin() int           { return s.bufferBeforeMin }
func (s *Service) BufferAfterMin() int            { return s.bufferAfterMin }
func (s *Service) PaymentPolicy() PaymentPolicy   { return s.paymentPolicy }
func (s *Service) PriceKobo() int64               { return s.priceKobo }
func (s *Service) EligibleResources() []uuid.UUID { return s.eligibleResources }
func (s *Service) CustomFields() []CustomField    { return s.customFields }
func (s *Service) IsActive() bool                 { return s.active }
func (s *Service) CreatedAt() time.Time           { return s.createdAt }
func (s *Service) UpdatedAt() time.Time           { return s.updatedAt }
