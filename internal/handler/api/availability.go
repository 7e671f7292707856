package api

import (
	"errors"
	"net/http"

	reqdto "bookingbot-engine/internal/handler/dto/request"
	resdto "bookingbot-engine/internal/handler/dto/response"
	"bookingbot-engine/internal/handler/middleware"
	"bookingbot-engine/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type AvailabilityHandler struct {
	availability queries.AvailabilityQueries
}

func NewAvailabilityHandler(availability queries.AvailabilityQueries) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

// @Summary List available slots
// @Description List bookable slots for a service in a time range
// @Tags availability
// @Produce json
// @Security BearerAuth
// @Param service_id query string true "Service ID"
// @Param resource_id query string false "Restrict to one resource"
// @Param from query string true "Range start (RFC3339)"
// @Param to query string true "Range end (RFC3339)"
// @Success 200 {array} resdto.SlotResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /availability [get]
func (h *AvailabilityHandler) ListSlots(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var q reqdto.ListSlotsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	slots, err := h.availability.ListSlots(c.Request.Context(), tenantID, q.ServiceID, q.ResourceID, q.From, q.To)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrInvalidRange):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Range end must not precede range start"})
		case errors.Is(err, queries.ErrServiceNotFound), errors.Is(err, queries.ErrTenantNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Service not found"})
		case errors.Is(err, queries.ErrNoEligibleResource):
			c.JSON(http.StatusNotFound, gin.H{"error": "No resource can provide this service"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromSlotViews(slots))
}
