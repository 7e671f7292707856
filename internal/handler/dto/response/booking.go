package response

import (
	"time"

	"bookingbot-engine/internal/usecase/commands"
	"bookingbot-engine/internal/usecase/queries"

	"github.com/google/uuid"
)

type CreateBookingResponse struct {
	BookingID        uuid.UUID `json:"bookingId"`
	Reference        string    `json:"reference"`
	Status           string    `json:"status"`
	PaymentReference *string   `json:"paymentReference,omitempty"`
	AmountKobo       *int64    `json:"amountKobo,omitempty"`
	Replayed         bool      `json:"replayed,omitempty"`
}

func FromCreateResult(r *commands.CreateBookingResult) *CreateBookingResponse {
	return &CreateBookingResponse{
		BookingID:        r.BookingID,
		Reference:        r.Reference,
		Status:           r.Status.String(),
		PaymentReference: r.PaymentReference,
		AmountKobo:       r.AmountKobo,
		Replayed:         r.Replayed,
	}
}

type RescheduleBookingResponse struct {
	Status    string    `json:"status"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

func FromRescheduleResult(r *commands.RescheduleBookingResult) *RescheduleBookingResponse {
	return &RescheduleBookingResponse{
		Status:    r.Status.String(),
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
	}
}

type CancelBookingResponse struct {
	Status         string `json:"status"`
	RefundEligible bool   `json:"refundEligible"`
}

func FromCancelResult(r *commands.CancelBookingResult) *CancelBookingResponse {
	return &CancelBookingResponse{
		Status:         r.Status.String(),
		RefundEligible: r.RefundEligible,
	}
}

type BookingResponse struct {
	ID            uuid.UUID      `json:"id"`
	ServiceID     uuid.UUID      `json:"serviceId"`
	ServiceName   string         `json:"serviceName"`
	ResourceID    uuid.UUID      `json:"resourceId"`
	ResourceName  string         `json:"resourceName"`
	Reference     string         `json:"reference"`
	StartTime     time.Time      `json:"startTime"`
	EndTime       time.Time      `json:"endTime"`
	CustomerName  string         `json:"customerName"`
	CustomerPhone string         `json:"customerPhone"`
	CustomerEmail string         `json:"customerEmail,omitempty"`
	FieldValues   map[string]any `json:"fieldValues,omitempty"`
	Status        string         `json:"status"`
	CancelReason  *string        `json:"cancelReason,omitempty"`
	Flagged       bool           `json:"flagged"`
	PaymentStatus *string        `json:"paymentStatus,omitempty"`
	AmountKobo    *int64         `json:"amountKobo,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func FromBookingView(v *queries.BookingView) *BookingResponse {
	return &BookingResponse{
		ID:            v.ID,
		ServiceID:     v.ServiceID,
		ServiceName:   v.ServiceName,
		ResourceID:    v.ResourceID,
		ResourceName:  v.ResourceName,
		Reference:     v.Reference,
		StartTime:     v.StartTime,
		EndTime:       v.EndTime,
		CustomerName:  v.CustomerName,
		CustomerPhone: v.CustomerPhone,
		CustomerEmail: v.CustomerEmail,
		FieldValues:   v.FieldValues,
		Status:        v.Status,
		CancelReason:  v.CancelReason,
		Flagged:       v.Flagged,
		PaymentStatus: v.PaymentStatus,
		AmountKobo:    v.AmountKobo,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}

type BookingListResponse struct {
	ID           uuid.UUID `json:"id"`
	ServiceName  string    `json:"serviceName"`
	ResourceName string    `json:"resourceName"`
	Reference    string    `json:"reference"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

func FromBookingListItem(item *queries.BookingListItem) *BookingListResponse {
	return &BookingListResponse{
		ID:           item.ID,
		ServiceName:  item.ServiceName,
		ResourceName: item.ResourceName,
		Reference:    item.Reference,
		StartTime:    item.StartTime,
		EndTime:      item.EndTime,
		Status:       item.Status,
		CreatedAt:    item.CreatedAt,
	}
}

type SlotResponse struct {
	ResourceID uuid.UUID `json:"resourceId"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
}

func FromSlotViews(views []queries.SlotView) []SlotResponse {
	out := make([]SlotResponse, 0, len(views))
	for _, v := range views {
		out = append(out, SlotResponse{
			ResourceID: v.ResourceID,
			StartTime:  v.StartTime,
			EndTime:    v.EndTime,
		})
	}
	return out
}

type WebhookResponse struct {
	BookingID     uuid.UUID `json:"bookingId"`
	BookingStatus string    `json:"bookingStatus"`
	PaymentStatus string    `json:"paymentStatus"`
	Replayed      bool      `json:"replayed,omitempty"`
}

func FromCallbackResult(r *commands.ProviderCallbackResult) *WebhookResponse {
	return &WebhookResponse{
		BookingID:     r.BookingID,
		BookingStatus: r.BookingStatus.String(),
		PaymentStatus: r.PaymentStatus,
		Replayed:      r.Replayed,
	}
}
