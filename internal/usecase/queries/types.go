package queries

import (
	"time"

	"github.com/google/uuid"
)

// Read models (DTOs for the read side)

type BookingView struct {
	ID            uuid.UUID      `json:"id"`
	TenantID      uuid.UUID      `json:"tenant_id"`
	ServiceID     uuid.UUID      `json:"service_id"`
	ServiceName   string         `json:"service_name"`
	ResourceID    uuid.UUID      `json:"resource_id"`
	ResourceName  string         `json:"resource_name"`
	Reference     string         `json:"reference"`
	StartTime     time.Time      `json:"start_time"`
	EndTime       time.Time      `json:"end_time"`
	CustomerName  string         `json:"customer_name"`
	CustomerPhone string         `json:"customer_phone"`
	CustomerEmail string         `json:"customer_email,omitempty"`
	FieldValues   map[string]any `json:"field_values,omitempty"`
	Status        string         `json:"status"`
	CancelReason  *string        `json:"cancel_reason,omitempty"`
	Flagged       bool           `json:"flagged"`
	PaymentStatus *string        `json:"payment_status,omitempty"`
	AmountKobo    *int64         `json:"amount_kobo,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type BookingListItem struct {
	ID           uuid.UUID `json:"id"`
	ServiceName  string    `json:"service_name"`
	ResourceName string    `json:"resource_name"`
	Reference    string    `json:"reference"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

type SlotView struct {
	ResourceID uuid.UUID `json:"resource_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}
