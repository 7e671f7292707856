package api

import (
	"errors"
	"net/http"

	"bookingbot-engine/internal/domain/booking"
	"bookingbot-engine/internal/domain/catalog"
	reqdto "bookingbot-engine/internal/handler/dto/request"
	resdto "bookingbot-engine/internal/handler/dto/response"
	"bookingbot-engine/internal/handler/middleware"
	"bookingbot-engine/internal/infra"
	"bookingbot-engine/internal/usecase/commands"
	"bookingbot-engine/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingHandler struct {
	commands commands.BookingCommands
	queries  queries.BookingQueries
}

func NewBookingHandler(cmds commands.BookingCommands, qs queries.BookingQueries) *BookingHandler {
	return &BookingHandler{
		commands: cmds,
		queries:  qs,
	}
}

// @Summary Create booking
// @Description Book a service slot with idempotency key
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string true "Idempotency key for duplicate prevention"
// @Param request body reqdto.CreateBookingRequest true "Booking request"
// @Success 201 {object} resdto.CreateBookingResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	idempotencyKey, err := getIdempotencyKey(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req reqdto.CreateBookingRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result, err := h.commands.CreateBooking(c.Request.Context(), req.ToInput(tenantID, idempotencyKey))
	if err != nil {
		h.respondCreateError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, resdto.FromCreateResult(result))
}

func (h *BookingHandler) respondCreateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, commands.ErrServiceNotFound), errors.Is(err, commands.ErrTenantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Service not found"})
	case errors.Is(err, commands.ErrResourceNotFound), errors.Is(err, commands.ErrResourceIneligible):
		c.JSON(http.StatusNotFound, gin.H{"error": "No resource can provide this service"})
	case errors.Is(err, commands.ErrServiceInactive):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Service is not accepting bookings"})
	case errors.Is(err, commands.ErrSlotBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "Slot is no longer available"})
	case errors.Is(err, commands.ErrStartInPast),
		errors.Is(err, commands.ErrMisalignedStart),
		errors.Is(err, commands.ErrOutsideHours):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, commands.ErrIdempotencyReplayMismatch):
		c.JSON(http.StatusConflict, gin.H{"error": "Idempotency key reused with different parameters"})
	case errors.Is(err, commands.ErrRequestInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "Booking request is currently being processed"})
	case errors.Is(err, booking.ErrInvalidPhone),
		errors.Is(err, booking.ErrEmptyCustomerName),
		errors.Is(err, catalog.ErrFieldNotInSchema),
		errors.Is(err, catalog.ErrRequiredFieldMissing),
		errors.Is(err, catalog.ErrFieldTypeMismatch),
		errors.Is(err, catalog.ErrOptionNotAllowed),
		errors.Is(err, catalog.ErrNumberOutOfRange):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// @Summary Reschedule booking
// @Description Move a live booking to a new start time on the same resource
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.RescheduleBookingRequest true "New start time"
// @Success 200 {object} resdto.RescheduleBookingResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /bookings/{id}/reschedule [post]
func (h *BookingHandler) Reschedule(c *gin.Context) {
	tenantID, bookingID, ok := h.tenantAndBookingID(c)
	if !ok {
		return
	}

	var req reqdto.RescheduleBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result, err := h.commands.Reschedule(c.Request.Context(), commands.RescheduleBookingInput{
		TenantID:  tenantID,
		BookingID: bookingID,
		StartTime: req.StartTime,
	})
	if err != nil {
		h.respondRescheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromRescheduleResult(result))
}

func (h *BookingHandler) respondRescheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, commands.ErrBookingNotFound), errors.Is(err, commands.ErrTenantNotFound),
		errors.Is(err, commands.ErrResourceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
	case errors.Is(err, commands.ErrSlotBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "Slot is no longer available"})
	case errors.Is(err, booking.ErrAlreadyTerminal):
		c.JSON(http.StatusConflict, gin.H{"error": "Booking state does not allow this operation"})
	case errors.Is(err, commands.ErrServiceInactive):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Service is not accepting bookings"})
	case errors.Is(err, commands.ErrStartInPast),
		errors.Is(err, commands.ErrMisalignedStart),
		errors.Is(err, commands.ErrOutsideHours):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// @Summary Cancel booking
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.CancelBookingResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	tenantID, bookingID, ok := h.tenantAndBookingID(c)
	if !ok {
		return
	}

	var req reqdto.CancelBookingRequest
	_ = c.ShouldBindJSON(&req)

	reason := booking.CancelByCustomer
	if role, ok := middleware.GetRole(c); ok && role.CanManage() && req.Reason == string(booking.CancelByAdmin) {
		reason = booking.CancelByAdmin
	}

	result, err := h.commands.CancelBooking(c.Request.Context(), commands.CancelBookingInput{
		TenantID:  tenantID,
		BookingID: bookingID,
		Reason:    reason,
	})
	if err != nil {
		h.respondTransitionError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromCancelResult(result))
}

// @Summary Check in customer
// @Tags bookings
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /bookings/{id}/check-in [post]
func (h *BookingHandler) CheckIn(c *gin.Context) {
	tenantID, bookingID, ok := h.tenantAndBookingID(c)
	if !ok {
		return
	}

	if err := h.commands.CheckIn(c.Request.Context(), tenantID, bookingID); err != nil {
		h.respondTransitionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Complete booking
// @Tags bookings
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /bookings/{id}/complete [post]
func (h *BookingHandler) Complete(c *gin.Context) {
	tenantID, bookingID, ok := h.tenantAndBookingID(c)
	if !ok {
		return
	}

	if err := h.commands.Complete(c.Request.Context(), tenantID, bookingID); err != nil {
		h.respondTransitionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Mark no-show
// @Description Cancel a confirmed booking whose customer never arrived
// @Tags bookings
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /bookings/{id}/no-show [post]
func (h *BookingHandler) NoShow(c *gin.Context) {
	tenantID, bookingID, ok := h.tenantAndBookingID(c)
	if !ok {
		return
	}

	if err := h.commands.MarkNoShow(c.Request.Context(), tenantID, bookingID); err != nil {
		h.respondTransitionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Get booking
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 404 {object} map[string]string
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	tenantID, bookingID, ok := h.tenantAndBookingID(c)
	if !ok {
		return
	}

	view, err := h.queries.GetByID(c.Request.Context(), tenantID, bookingID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, resdto.FromBookingView(view))
}

// @Summary List bookings
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (max 200)"
// @Param offset query int false "Offset"
// @Success 200 {array} resdto.BookingListResponse
// @Router /bookings [get]
func (h *BookingHandler) ListBookings(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var q reqdto.ListBookingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	items, err := h.queries.ListByTenant(c.Request.Context(), tenantID, q.Limit, q.Offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	out := make([]*resdto.BookingListResponse, 0, len(items))
	for _, item := range items {
		out = append(out, resdto.FromBookingListItem(item))
	}
	c.JSON(http.StatusOK, out)
}

func (h *BookingHandler) respondTransitionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, commands.ErrBookingNotFound), errors.Is(err, commands.ErrTenantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
	case errors.Is(err, booking.ErrAlreadyTerminal), errors.Is(err, booking.ErrIllegalTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "Booking state does not allow this operation"})
	case errors.Is(err, booking.ErrNotCheckedIn):
		c.JSON(http.StatusConflict, gin.H{"error": "Booking cannot be completed before check-in"})
	case errors.Is(err, booking.ErrAlreadyCheckedIn):
		c.JSON(http.StatusConflict, gin.H{"error": "Customer has already checked in"})
	case errors.Is(err, booking.ErrNoShowTooEarly):
		c.JSON(http.StatusConflict, gin.H{"error": "Booking has not reached its start time"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func (h *BookingHandler) tenantAndBookingID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return uuid.Nil, uuid.Nil, false
	}
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking id"})
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, bookingID, true
}

func getIdempotencyKey(c *gin.Context) (uuid.UUID, error) {
	raw := c.GetHeader("Idempotency-Key")
	if raw == "" {
		return uuid.Nil, errors.New("Idempotency-Key header is required")
	}
	key, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New("Idempotency-Key must be a valid UUID")
	}
	return key, nil
}
