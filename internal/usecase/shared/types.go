package shared

import (
	"time"

	"bookingbot-engine/internal/domain/catalog"
	"bookingbot-engine/internal/domain/schedule"

	"github.com/google/uuid"
)

// Write-side snapshots prevent dependency on read-side query types.

type TenantSnapshot struct {
	ID                 uuid.UUID
	Name               string
	Timezone           string
	Currency           string
	Hours              schedule.WeekSchedule
	CancelCutoffMin    int
	PaymentTimeoutMin  int
	SlotGranularityMin int
}

func (t *TenantSnapshot) Location() (*time.Location, error) {
	return time.LoadLocation(t.Timezone)
}

func (t *TenantSnapshot) PaymentTimeout() time.Duration {
	return time.Duration(t.PaymentTimeoutMin) * time.Minute
}

func (t *TenantSnapshot) CancelCutoff() time.Duration {
	return time.Duration(t.CancelCutoffMin) * time.Minute
}

func (t *TenantSnapshot) SlotGranularity() time.Duration {
	return time.Duration(t.SlotGranularityMin) * time.Minute
}

type ServiceSnapshot struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	Name            string
	DurationMin     int
	BufferBeforeMin int
	BufferAfterMin  int
	PaymentPolicy   catalog.PaymentPolicy
	PriceKobo       int64
	CustomFields    []catalog.CustomField
	ResourceIDs     []uuid.UUID
	IsActive        bool
}

func (s *ServiceSnapshot) Duration() time.Duration {
	return time.Duration(s.DurationMin) * time.Minute
}

func (s *ServiceSnapshot) BufferBefore() time.Duration {
	return time.Duration(s.BufferBeforeMin) * time.Minute
}

func (s *ServiceSnapshot) BufferAfter() time.Duration {
	return time.Duration(s.BufferAfterMin) * time.Minute
}

type ResourceSnapshot struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Name     string
	Kind     string
	Hours    schedule.WeekSchedule
	IsActive bool
}

type IdempotencyRecord struct {
	Key             uuid.UUID
	TenantID        uuid.UUID
	Status          string
	RequestHash     string
	ResultBookingID *uuid.UUID
	ExpiresAt       time.Time
}

type OutboxJob struct {
	ID       uuid.UUID
	Kind     string
	Topic    string
	Payload  []byte
	RunAt    time.Time
	Attempts int32
}
