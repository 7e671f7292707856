//go:build unit || e2e

package builder

import (
	"time"

	dombooking "bookingbot-engine/internal/domain/booking"
	"bookingbot-engine/internal/domain/catalog"
	"bookingbot-engine/internal/domain/schedule"
	"bookingbot-engine/internal/usecase/commands"
	"bookingbot-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

// BookingBuilder is the one-stop booking fixture: it emits mutually
// consistent tenant/service/resource snapshots and the matching inputs, so
// a scenario only has to override what it is exercising.
type BookingBuilder struct {
	TenantID   uuid.UUID
	ServiceID  uuid.UUID
	ResourceID uuid.UUID

	Timezone          string
	OpensAt           schedule.ClockTime
	ClosesAt          schedule.ClockTime
	GranularityMin    int
	CancelCutoffMin   int
	PaymentTimeoutMin int

	ServiceName     string
	DurationMin     int
	BufferBeforeMin int
	BufferAfterMin  int
	PaymentPolicy   catalog.PaymentPolicy
	PriceKobo       int64
	CustomFields    []catalog.CustomField
	ServiceActive   bool

	ResourceName   string
	ResourceActive bool

	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	FieldValues   map[string]any

	Start          time.Time
	Now            time.Time
	PayNow         bool
	IdempotencyKey uuid.UUID
}

func NewBookingBuilder() *BookingBuilder {
	loc := lagos()
	// A Monday morning well inside the default hours.
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, loc)
	return &BookingBuilder{
		TenantID:   uuid.New(),
		ServiceID:  uuid.New(),
		ResourceID: uuid.New(),

		Timezone:          "Africa/Lagos",
		OpensAt:           schedule.MustClockTime(8, 0),
		ClosesAt:          schedule.MustClockTime(18, 0),
		GranularityMin:    15,
		CancelCutoffMin:   120,
		PaymentTimeoutMin: 30,

		ServiceName:     "Standard Cut",
		DurationMin:     45,
		BufferBeforeMin: 0,
		BufferAfterMin:  15,
		PaymentPolicy:   catalog.PaymentRequired,
		PriceKobo:       500000, // ₦5,000
		ServiceActive:   true,

		ResourceName:   "Chair 1",
		ResourceActive: true,

		CustomerName:  "Amaka Obi",
		CustomerPhone: "+2348031234567",
		CustomerEmail: "amaka@example.com",

		Start:          start,
		Now:            start.Add(-24 * time.Hour),
		IdempotencyKey: uuid.New(),
	}
}

func (b *BookingBuilder) With(mutate func(*BookingBuilder)) *BookingBuilder {
	mutate(b)
	return b
}

func (b *BookingBuilder) Location() *time.Location {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		panic(err)
	}
	return loc
}

func (b *BookingBuilder) Hours() schedule.WeekSchedule {
	return schedule.FullWeek(b.OpensAt, b.ClosesAt,
		time.Monday, time.Tuesday, time.Wednesday,
		time.Thursday, time.Friday, time.Saturday,
	)
}

func (b *BookingBuilder) Slot() schedule.TimeSlot {
	return schedule.MustTimeSlot(b.Start, b.Start.Add(time.Duration(b.DurationMin)*time.Minute))
}

func (b *BookingBuilder) Claim() schedule.TimeSlot {
	return b.Slot().Extend(
		time.Duration(b.BufferBeforeMin)*time.Minute,
		time.Duration(b.BufferAfterMin)*time.Minute,
	)
}

func (b *BookingBuilder) BuildTenantSnapshot() *shared.TenantSnapshot {
	return &shared.TenantSnapshot{
		ID:                 b.TenantID,
		Name:               "Kemi's Salon",
		Timezone:           b.Timezone,
		Currency:           "NGN",
		Hours:              b.Hours(),
		CancelCutoffMin:    b.CancelCutoffMin,
		PaymentTimeoutMin:  b.PaymentTimeoutMin,
		SlotGranularityMin: b.GranularityMin,
	}
}

func (b *BookingBuilder) BuildServiceSnapshot() *shared.ServiceSnapshot {
	return &shared.ServiceSnapshot{
		ID:              b.ServiceID,
		TenantID:        b.TenantID,
		Name:            b.ServiceName,
		DurationMin:     b.DurationMin,
		BufferBeforeMin: b.BufferBeforeMin,
		BufferAfterMin:  b.BufferAfterMin,
		PaymentPolicy:   b.PaymentPolicy,
		PriceKobo:       b.PriceKobo,
		CustomFields:    b.CustomFields,
		ResourceIDs:     []uuid.UUID{b.ResourceID},
		IsActive:        b.ServiceActive,
	}
}

func (b *BookingBuilder) BuildResourceSnapshot() *shared.ResourceSnapshot {
	return &shared.ResourceSnapshot{
		ID:       b.ResourceID,
		TenantID: b.TenantID,
		Name:     b.ResourceName,
		Kind:     "staff",
		Hours:    b.Hours(),
		IsActive: b.ResourceActive,
	}
}

func (b *BookingBuilder) BuildDomain() (*dombooking.Booking, error) {
	customer, err := dombooking.NewCustomer(b.CustomerName, b.CustomerPhone, b.CustomerEmail)
	if err != nil {
		return nil, err
	}
	return dombooking.New(
		b.TenantID, b.ServiceID, b.ResourceID,
		b.Slot(), b.Claim(), customer, b.FieldValues, b.Now,
	), nil
}

func (b *BookingBuilder) BuildCreateInput() commands.CreateBookingInput {
	return commands.CreateBookingInput{
		TenantID:  b.TenantID,
		ServiceID: b.ServiceID,
		StartTime: b.Start,
		PayNow:    b.PayNow,
		Customer: commands.CustomerInput{
			Name:  b.CustomerName,
			Phone: b.CustomerPhone,
			Email: b.CustomerEmail,
		},
		FieldValues:    b.FieldValues,
		IdempotencyKey: b.IdempotencyKey,
	}
}

// BuildCreateRequestMap is the JSON body for handler tests, shaped to the
// wire contract rather than the typed DTO so field mutations stay easy.
func (b *BookingBuilder) BuildCreateRequestMap() map[string]any {
	m := map[string]any{
		"service_id": b.ServiceID.String(),
		"start_time": b.Start.Format(time.RFC3339),
		"customer": map[string]any{
			"name":  b.CustomerName,
			"phone": b.CustomerPhone,
			"email": b.CustomerEmail,
		},
	}
	if b.PayNow {
		m["pay_now"] = true
	}
	if b.FieldValues != nil {
		m["field_values"] = b.FieldValues
	}
	return m
}

func lagos() *time.Location {
	loc, err := time.LoadLocation("Africa/Lagos")
	if err != nil {
		panic(err)
	}
	return loc
}
