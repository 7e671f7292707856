package tenant

import (
	"errors"
	"strings"
	"time"

	"bookingbot-engine/internal/domain/schedule"

	"github.com/google/uuid"
)

var (
	ErrEmptyTenantName  = errors.New("tenant name cannot be empty")
	ErrInvalidTimezone  = errors.New("invalid tenant timezone")
	ErrInvalidCurrency  = errors.New("currency must be a 3-letter ISO code")
	ErrInvalidHours     = errors.New("invalid business hours")
	ErrInvalidTimeout   = errors.New("payment timeout cannot be negative")
	ErrInvalidCutoff    = errors.New("cancellation cutoff cannot be negative")
	ErrInvalidSlotGrain = errors.New("slot granularity cannot be negative")
)

// Tenant is one onboarded business. Its identifier is immutable; hours and
// policies change through admin configuration consumed here as read-only
// input. All times for a tenant are interpreted in its timezone.
type Tenant struct {
	id           uuid.UUID
	name         string
	timezone     *time.Location
	currency     string
	hours        schedule.WeekSchedule
	cancelPolicy CancellationPolicy

	paymentTimeout  time.Duration
	slotGranularity time.Duration

	createdAt time.Time
	updatedAt time.Time
}

// CancellationPolicy fixes refund eligibility for confirmed bookings.
// When a tenant has no custom policy the platform default applies;
// a tenant-custom policy always takes precedence.
type CancellationPolicy struct {
	Cutoff time.Duration
}

// RefundEligible is a pure function of the cutoff, the booking start and
// whether the payment actually succeeded.
func (p CancellationPolicy) RefundEligible(now, bookingStart time.Time, paymentSucceeded bool) bool {
	if !paymentSucceeded {
		return false
	}
	return bookingStart.Sub(now) >= p.Cutoff
}

// NewTenant validates the tenant configuration. A zero payment timeout or
// slot granularity means the platform default applies; negative values are
// rejected.
func NewTenant(
	id uuid.UUID,
	name string,
	timezoneName string,
	currency string,
	hours schedule.WeekSchedule,
	cancelPolicy CancellationPolicy,
	paymentTimeout time.Duration,
	slotGranularity time.Duration,
) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyTenantName
	}
	loc, err := time.LoadLocation(timezoneName)
	if err != nil {
		return nil, ErrInvalidTimezone
	}
	if len(currency) != 3 {
		return nil, ErrInvalidCurrency
	}
	if err := hours.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidHours, err)
	}
	if paymentTimeout < 0 {
		return nil, ErrInvalidTimeout
	}
	if cancelPolicy.Cutoff < 0 {
		return nil, ErrInvalidCutoff
	}
	if slotGranularity < 0 {
		return nil, ErrInvalidSlotGrain
	}

	return &Tenant{
		id:              id,
		name:            name,
		timezone:        loc,
		currency:        strings.ToUpper(currency),
		hours:           hours,
		cancelPolicy:    cancelPolicy,
		paymentTimeout:  paymentTimeout,
		slotGranularity: slotGranularity,
	}, nil
}

func (t *Tenant) ID() uuid.UUID                    { return t.id }
func (t *Tenant) Name() string                     { return t.name }
func (t *Tenant) Timezone() *time.Location         { return t.timezone }
func (t *Tenant) Currency() string                 { return t.currency }
func (t *Tenant) Hours() schedule.WeekSchedule     { return t.hours }
func (t *Tenant) CancelPolicy() CancellationPolicy { return t.cancelPolicy }
func (t *Tenant) PaymentTimeout() time.Duration    { return t.paymentTimeout }
func (t *Tenant) SlotGranularity() time.Duration   { return t.slotGranularity }
func (t *Tenant) CreatedAt() time.Time             { return t.createdAt }
func (t *Tenant) UpdatedAt() time.Time             { return t.updatedAt }
