package api

import (
	"crypto/subtle"
	"errors"
	"net/http"

	reqdto "bookingbot-engine/internal/handler/dto/request"
	resdto "bookingbot-engine/internal/handler/dto/response"
	"bookingbot-engine/internal/pkg/config"
	"bookingbot-engine/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	payments commands.PaymentCommands
	cfg      config.PaymentConfig
}

func NewPaymentHandler(payments commands.PaymentCommands, cfg config.PaymentConfig) *PaymentHandler {
	return &PaymentHandler{payments: payments, cfg: cfg}
}

// @Summary Payment provider webhook
// @Description Receive a payment status callback from the provider
// @Tags payments
// @Accept json
// @Produce json
// @Param X-Webhook-Secret header string true "Shared webhook secret"
// @Param request body reqdto.PaymentWebhookRequest true "Provider callback"
// @Success 200 {object} resdto.WebhookResponse
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /payments/webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	secret := c.GetHeader("X-Webhook-Secret")
	if subtle.ConstantTimeCompare([]byte(secret), []byte(h.cfg.WebhookSecret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook secret"})
		return
	}

	var req reqdto.PaymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result, err := h.payments.HandleProviderCallback(c.Request.Context(), commands.ProviderCallbackInput{
		Provider:   h.cfg.Provider,
		Reference:  req.Reference,
		Status:     req.Status,
		AmountKobo: req.AmountKobo,
	})
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrPaymentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown payment reference"})
		case errors.Is(err, commands.ErrInvalidCallbackStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unrecognized callback status"})
		case errors.Is(err, commands.ErrAmountMismatch):
			// The booking is flagged for manual review; the provider must
			// not retry this delivery.
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Callback amount does not match the expected charge"})
		case errors.Is(err, commands.ErrCallbackOutOfOrder):
			c.JSON(http.StatusConflict, gin.H{"error": "Callback does not apply to the payment's current state"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromCallbackResult(result))
}
