package request

import (
	"strings"
	"time"

	"bookingbot-engine/internal/usecase/commands"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	ServiceID  uuid.UUID  `json:"service_id" binding:"required"`
	ResourceID *uuid.UUID `json:"resource_id,omitempty"`
	StartTime  time.Time  `json:"start_time" binding:"required"`
	// PayNow opts into the payment gate on services whose policy is
	// optional; required-policy services always pass through it.
	PayNow   bool `json:"pay_now,omitempty"`
	Customer struct {
		Name  string `json:"name" binding:"required"`
		Phone string `json:"phone" binding:"required"`
		Email string `json:"email,omitempty"`
	} `json:"customer" binding:"required"`
	FieldValues map[string]any `json:"field_values,omitempty"`
}

func (r CreateBookingRequest) ToInput(tenantID, idempotencyKey uuid.UUID) commands.CreateBookingInput {
	return commands.CreateBookingInput{
		TenantID:   tenantID,
		ServiceID:  r.ServiceID,
		ResourceID: r.ResourceID,
		StartTime:  r.StartTime,
		PayNow:     r.PayNow,
		Customer: commands.CustomerInput{
			Name:  strings.TrimSpace(r.Customer.Name),
			Phone: strings.TrimSpace(r.Customer.Phone),
			Email: strings.TrimSpace(r.Customer.Email),
		},
		FieldValues:    r.FieldValues,
		IdempotencyKey: idempotencyKey,
	}
}

type RescheduleBookingRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
}

type CancelBookingRequest struct {
	// Reason defaults to a customer cancellation when omitted.
	Reason string `json:"reason,omitempty"`
}

type ListSlotsQuery struct {
	ServiceID  uuid.UUID  `form:"service_id" binding:"required"`
	ResourceID *uuid.UUID `form:"resource_id"`
	From       time.Time  `form:"from" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	To         time.Time  `form:"to" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}

type ListBookingsQuery struct {
	Limit  int32 `form:"limit"`
	Offset int32 `form:"offset"`
}

// PaymentWebhookRequest mirrors the provider's callback body after the
// gateway adapter has normalized it.
type PaymentWebhookRequest struct {
	Reference  string `json:"reference" binding:"required"`
	Status     string `json:"status" binding:"required"`
	AmountKobo int64  `json:"amount_kobo" binding:"required"`
}
