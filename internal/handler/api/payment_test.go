//go:build unit

package api_test

import (
	"errors"
	"net/http"
	"testing"

	"bookingbot-engine/internal/domain/booking"
	"bookingbot-engine/internal/handler/api"
	resdto "bookingbot-engine/internal/handler/dto/response"
	"bookingbot-engine/internal/pkg/config"
	"bookingbot-engine/internal/usecase/commands"
	"bookingbot-engine/tests/common/httptest"
	"bookingbot-engine/tests/common/testutil"
	commandsmock "bookingbot-engine/tests/mock/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type PaymentHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	cfg          config.PaymentConfig
	mockCtrl     *gomock.Controller
	mockPayments *commandsmock.MockPaymentCommands
	handler      *api.PaymentHandler
}

func (s *PaymentHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.cfg = config.NewTestConfig().Payment

	s.mockCtrl = gomock.NewController(s.T())
	s.mockPayments = commandsmock.NewMockPaymentCommands(s.mockCtrl)
	s.handler = api.NewPaymentHandler(s.mockPayments, s.cfg)

	s.router.POST("/payments/webhook", s.handler.Webhook)
}

func (s *PaymentHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestPaymentHandlerSuite(t *testing.T) {
	suite.Run(t, new(PaymentHandlerTestSuite))
}

func (s *PaymentHandlerTestSuite) secretHeader() map[string]string {
	return map[string]string{"X-Webhook-Secret": s.cfg.WebhookSecret}
}

func webhookBody() map[string]any {
	return map[string]any{
		"reference":   "PAY-0123456789abcdef",
		"status":      "succeeded",
		"amount_kobo": 500000,
	}
}

func (s *PaymentHandlerTestSuite) TestWebhook() {
	url := "/payments/webhook"

	s.Run("success: returns 200 OK and the booking outcome", func() {
		bookingID := uuid.New()
		s.mockPayments.EXPECT().HandleProviderCallback(gomock.Any(), commands.ProviderCallbackInput{
			Provider:   s.cfg.Provider,
			Reference:  "PAY-0123456789abcdef",
			Status:     "succeeded",
			AmountKobo: 500000,
		}).Return(&commands.ProviderCallbackResult{
			BookingID:     bookingID,
			BookingStatus: booking.StatusConfirmed,
			PaymentStatus: "succeeded",
		}, nil).Times(1)

		rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, webhookBody(), "", s.secretHeader())

		var response resdto.WebhookResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal(bookingID, response.BookingID)
		s.Equal("confirmed", response.BookingStatus)
		s.Equal("succeeded", response.PaymentStatus)
	})

	s.Run("success: duplicate delivery replays with 200 OK", func() {
		s.mockPayments.EXPECT().HandleProviderCallback(gomock.Any(), gomock.Any()).
			Return(&commands.ProviderCallbackResult{
				BookingID:     uuid.New(),
				BookingStatus: booking.StatusConfirmed,
				PaymentStatus: "succeeded",
				Replayed:      true,
			}, nil).Times(1)

		rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, webhookBody(), "", s.secretHeader())

		var response resdto.WebhookResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.True(response.Replayed)
	})

	s.Run("error: 401 Unauthorized without the shared secret", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, webhookBody(), "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Invalid webhook secret")
	})

	s.Run("error: 401 Unauthorized for a wrong secret", func() {
		rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, webhookBody(), "",
			map[string]string{"X-Webhook-Secret": "guessed"})
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Invalid webhook secret")
	})

	s.Run("error: 400 Bad Request on binding errors", func() {
		testCases := []struct {
			name   string
			mutate func(m map[string]any)
		}{
			{name: "missing reference", mutate: testutil.Field("reference", nil)},
			{name: "missing status", mutate: testutil.Field("status", nil)},
			{name: "missing amount", mutate: testutil.Field("amount_kobo", nil)},
		}
		for _, tc := range testCases {
			s.Run(tc.name, func() {
				body := webhookBody()
				tc.mutate(body)

				rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, body, "", s.secretHeader())
				httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
			})
		}
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		testCases := []struct {
			name           string
			commandsError  error
			expectedStatus int
		}{
			{name: "unknown reference", commandsError: commands.ErrPaymentNotFound, expectedStatus: http.StatusNotFound},
			{name: "unrecognized status", commandsError: commands.ErrInvalidCallbackStatus, expectedStatus: http.StatusBadRequest},
			{name: "amount mismatch", commandsError: commands.ErrAmountMismatch, expectedStatus: http.StatusUnprocessableEntity},
			{name: "out of order", commandsError: commands.ErrCallbackOutOfOrder, expectedStatus: http.StatusConflict},
			{name: "internal error", commandsError: errors.New("connection refused"), expectedStatus: http.StatusInternalServerError},
		}
		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockPayments.EXPECT().HandleProviderCallback(gomock.Any(), gomock.Any()).
					Return(nil, tc.commandsError).Times(1)

				rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, webhookBody(), "", s.secretHeader())
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, "")
			})
		}
	})
}
