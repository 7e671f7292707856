//go:build unit

package api_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"bookingbot-engine/internal/domain/booking"
	"bookingbot-engine/internal/domain/catalog"
	"bookingbot-engine/internal/domain/identity"
	"bookingbot-engine/internal/handler/api"
	resdto "bookingbot-engine/internal/handler/dto/response"
	"bookingbot-engine/internal/infra"
	"bookingbot-engine/internal/usecase/commands"
	"bookingbot-engine/internal/usecase/queries"
	"bookingbot-engine/tests/common/builder"
	"bookingbot-engine/tests/common/httptest"
	"bookingbot-engine/tests/common/testutil"
	commandsmock "bookingbot-engine/tests/mock/commands"
	queriesmock "bookingbot-engine/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type BookingHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	tenantID     uuid.UUID
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockBookingCommands
	mockQueries  *queriesmock.MockBookingQueries
	handler      *api.BookingHandler
}

func (s *BookingHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.tenantID = uuid.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockBookingCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockBookingQueries(s.mockCtrl)
	s.handler = api.NewBookingHandler(s.mockCommands, s.mockQueries)

	s.registerRoutes(s.router, identity.RoleChannel)
}

// registerRoutes wires the handler behind a stand-in auth middleware that
// injects the suite's tenant with the given role.
func (s *BookingHandlerTestSuite) registerRoutes(router *gin.Engine, role identity.Role) {
	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set("tenant_id", s.tenantID)
		c.Set("tenant_role", role)
		c.Next()
	}

	router.POST("/bookings", authMiddleware, s.handler.CreateBooking)
	router.GET("/bookings", authMiddleware, s.handler.ListBookings)
	router.GET("/bookings/:id", authMiddleware, s.handler.GetBooking)
	router.POST("/bookings/:id/cancel", authMiddleware, s.handler.CancelBooking)
	router.POST("/bookings/:id/reschedule", authMiddleware, s.handler.Reschedule)
	router.POST("/bookings/:id/no-show", authMiddleware, s.handler.NoShow)
	router.POST("/bookings/:id/check-in", authMiddleware, s.handler.CheckIn)
	router.POST("/bookings/:id/complete", authMiddleware, s.handler.Complete)
}

func (s *BookingHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestBookingHandlerSuite(t *testing.T) {
	suite.Run(t, new(BookingHandlerTestSuite))
}

func idempotencyHeader() map[string]string {
	return map[string]string{"Idempotency-Key": uuid.NewString()}
}

// ================================================================================
// TestCreateBooking
// ================================================================================

func (s *BookingHandlerTestSuite) TestCreateBooking() {
	url := "/bookings"
	bldr := builder.NewBookingBuilder()
	reqBody := bldr.BuildCreateRequestMap()

	paymentRef := "PAY-0123456789abcdef"
	amount := int64(500000)
	created := &commands.CreateBookingResult{
		BookingID:        uuid.New(),
		Reference:        "BB-7KQ2M9XF",
		Status:           booking.StatusPendingPayment,
		PaymentReference: &paymentRef,
		AmountKobo:       &amount,
	}

	s.Run("success: returns 201 Created with payment instructions", func() {
		s.mockCommands.EXPECT().CreateBooking(gomock.Any(), gomock.Any()).
			Return(created, nil).Times(1)

		rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token", idempotencyHeader())

		var response resdto.CreateBookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &response)
		s.Equal(created.BookingID, response.BookingID)
		s.Equal("BB-7KQ2M9XF", response.Reference)
		s.Equal("pending_payment", response.Status)
		s.Require().NotNil(response.PaymentReference)
		s.Equal(paymentRef, *response.PaymentReference)
		s.False(response.Replayed)
	})

	s.Run("success: returns 200 OK for an idempotent replay", func() {
		replayed := *created
		replayed.Replayed = true
		s.mockCommands.EXPECT().CreateBooking(gomock.Any(), gomock.Any()).
			Return(&replayed, nil).Times(1)

		rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token", idempotencyHeader())

		var response resdto.CreateBookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.True(response.Replayed)
	})

	s.Run("error: 400 Bad Request without Idempotency-Key", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Idempotency-Key")
	})

	s.Run("error: 400 Bad Request for a malformed Idempotency-Key", func() {
		rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token",
			map[string]string{"Idempotency-Key": "not-a-uuid"})
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Idempotency-Key")
	})

	s.Run("error: 400 Bad Request on binding errors", func() {
		testCases := []struct {
			name   string
			mutate func(m map[string]any)
		}{
			{name: "missing service_id", mutate: testutil.Field("service_id", nil)},
			{name: "missing start_time", mutate: testutil.Field("start_time", nil)},
			{name: "malformed start_time", mutate: testutil.Field("start_time", "tomorrow-ish")},
			{name: "missing customer", mutate: testutil.Field("customer", nil)},
			{name: "missing customer name", mutate: testutil.Field("customer", map[string]any{"phone": "+2348031234567"})},
			{name: "missing customer phone", mutate: testutil.Field("customer", map[string]any{"name": "Amaka Obi"})},
		}
		for _, tc := range testCases {
			s.Run(tc.name, func() {
				requestMap := builder.NewBookingBuilder().BuildCreateRequestMap()
				tc.mutate(requestMap)

				rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, requestMap, "bearer-token", idempotencyHeader())
				httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
			})
		}
	})

	s.Run("error: 401 Unauthorized when unauthenticated", func() {
		rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, reqBody, "", idempotencyHeader())
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		testCases := []struct {
			name           string
			commandsError  error
			expectedStatus int
		}{
			{name: "service not found", commandsError: commands.ErrServiceNotFound, expectedStatus: http.StatusNotFound},
			{name: "tenant not found", commandsError: commands.ErrTenantNotFound, expectedStatus: http.StatusNotFound},
			{name: "resource ineligible", commandsError: commands.ErrResourceIneligible, expectedStatus: http.StatusNotFound},
			{name: "resource not found", commandsError: commands.ErrResourceNotFound, expectedStatus: http.StatusNotFound},
			{name: "service inactive", commandsError: commands.ErrServiceInactive, expectedStatus: http.StatusUnprocessableEntity},
			{name: "slot busy", commandsError: commands.ErrSlotBusy, expectedStatus: http.StatusConflict},
			{name: "start in past", commandsError: commands.ErrStartInPast, expectedStatus: http.StatusUnprocessableEntity},
			{name: "misaligned start", commandsError: commands.ErrMisalignedStart, expectedStatus: http.StatusUnprocessableEntity},
			{name: "outside hours", commandsError: commands.ErrOutsideHours, expectedStatus: http.StatusUnprocessableEntity},
			{name: "idempotency mismatch", commandsError: commands.ErrIdempotencyReplayMismatch, expectedStatus: http.StatusConflict},
			{name: "request in flight", commandsError: commands.ErrRequestInFlight, expectedStatus: http.StatusConflict},
			{name: "invalid phone", commandsError: booking.ErrInvalidPhone, expectedStatus: http.StatusUnprocessableEntity},
			{name: "missing custom field", commandsError: catalog.ErrRequiredFieldMissing, expectedStatus: http.StatusUnprocessableEntity},
			{name: "internal error", commandsError: errors.New("connection refused"), expectedStatus: http.StatusInternalServerError},
		}
		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().CreateBooking(gomock.Any(), gomock.Any()).
					Return(nil, tc.commandsError).Times(1)

				rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token", idempotencyHeader())
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, "")
			})
		}
	})
}

// ================================================================================
// TestCancelBooking
// ================================================================================

func (s *BookingHandlerTestSuite) TestCancelBooking() {
	bookingID := uuid.New()
	url := "/bookings/" + bookingID.String() + "/cancel"

	s.Run("success: returns 200 OK with refund eligibility", func() {
		s.mockCommands.EXPECT().CancelBooking(gomock.Any(), commands.CancelBookingInput{
			TenantID:  s.tenantID,
			BookingID: bookingID,
			Reason:    booking.CancelByCustomer,
		}).Return(&commands.CancelBookingResult{
			Status:         booking.StatusCancelled,
			RefundEligible: true,
		}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")

		var response resdto.CancelBookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal("cancelled", response.Status)
		s.True(response.RefundEligible)
	})

	s.Run("success: channel role cannot claim an admin cancellation", func() {
		s.mockCommands.EXPECT().CancelBooking(gomock.Any(), commands.CancelBookingInput{
			TenantID:  s.tenantID,
			BookingID: bookingID,
			Reason:    booking.CancelByCustomer,
		}).Return(&commands.CancelBookingResult{Status: booking.StatusCancelled}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, map[string]any{"reason": "admin"}, "bearer-token")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("success: staff role cancels as admin", func() {
		staffRouter := gin.New()
		s.registerRoutes(staffRouter, identity.RoleStaff)

		s.mockCommands.EXPECT().CancelBooking(gomock.Any(), commands.CancelBookingInput{
			TenantID:  s.tenantID,
			BookingID: bookingID,
			Reason:    booking.CancelByAdmin,
		}).Return(&commands.CancelBookingResult{Status: booking.StatusCancelled}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), staffRouter, http.MethodPost, url, map[string]any{"reason": "admin"}, "bearer-token")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("error: 400 Bad Request for invalid UUID", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/bookings/invalid-uuid/cancel", nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid booking id")
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		testCases := []struct {
			name           string
			commandsError  error
			expectedStatus int
		}{
			{name: "booking not found", commandsError: commands.ErrBookingNotFound, expectedStatus: http.StatusNotFound},
			{name: "already terminal", commandsError: booking.ErrAlreadyTerminal, expectedStatus: http.StatusConflict},
			{name: "internal error", commandsError: errors.New("connection refused"), expectedStatus: http.StatusInternalServerError},
		}
		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().CancelBooking(gomock.Any(), gomock.Any()).
					Return(nil, tc.commandsError).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, "")
			})
		}
	})
}

// ================================================================================
// TestReschedule / TestNoShow
// ================================================================================

func (s *BookingHandlerTestSuite) TestReschedule() {
	bookingID := uuid.New()
	url := "/bookings/" + bookingID.String() + "/reschedule"
	newStart := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	reqBody := map[string]any{"start_time": newStart.Format(time.RFC3339)}

	s.Run("success: returns 200 OK with the new slot", func() {
		s.mockCommands.EXPECT().Reschedule(gomock.Any(), commands.RescheduleBookingInput{
			TenantID:  s.tenantID,
			BookingID: bookingID,
			StartTime: newStart,
		}).Return(&commands.RescheduleBookingResult{
			Status:    booking.StatusConfirmed,
			StartTime: newStart,
			EndTime:   newStart.Add(45 * time.Minute),
		}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")

		var response resdto.RescheduleBookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal("confirmed", response.Status)
		s.True(response.StartTime.Equal(newStart))
		s.True(response.EndTime.Equal(newStart.Add(45 * time.Minute)))
	})

	s.Run("error: 400 Bad Request without a start time", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, map[string]any{}, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		testCases := []struct {
			name           string
			commandsError  error
			expectedStatus int
		}{
			{name: "booking not found", commandsError: commands.ErrBookingNotFound, expectedStatus: http.StatusNotFound},
			{name: "slot busy", commandsError: commands.ErrSlotBusy, expectedStatus: http.StatusConflict},
			{name: "already terminal", commandsError: booking.ErrAlreadyTerminal, expectedStatus: http.StatusConflict},
			{name: "misaligned start", commandsError: commands.ErrMisalignedStart, expectedStatus: http.StatusUnprocessableEntity},
			{name: "outside hours", commandsError: commands.ErrOutsideHours, expectedStatus: http.StatusUnprocessableEntity},
			{name: "service inactive", commandsError: commands.ErrServiceInactive, expectedStatus: http.StatusUnprocessableEntity},
			{name: "internal error", commandsError: errors.New("connection refused"), expectedStatus: http.StatusInternalServerError},
		}
		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().Reschedule(gomock.Any(), gomock.Any()).
					Return(nil, tc.commandsError).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, "")
			})
		}
	})
}

func (s *BookingHandlerTestSuite) TestNoShow() {
	bookingID := uuid.New()
	url := "/bookings/" + bookingID.String() + "/no-show"

	s.Run("success: returns 204 No Content", func() {
		s.mockCommands.EXPECT().MarkNoShow(gomock.Any(), s.tenantID, bookingID).
			Return(nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("error: 409 Conflict before the start time", func() {
		s.mockCommands.EXPECT().MarkNoShow(gomock.Any(), s.tenantID, bookingID).
			Return(booking.ErrNoShowTooEarly).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "")
	})

	s.Run("error: 409 Conflict when the customer checked in", func() {
		s.mockCommands.EXPECT().MarkNoShow(gomock.Any(), s.tenantID, bookingID).
			Return(booking.ErrAlreadyCheckedIn).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "checked in")
	})

	s.Run("error: 404 Not Found", func() {
		s.mockCommands.EXPECT().MarkNoShow(gomock.Any(), s.tenantID, bookingID).
			Return(commands.ErrBookingNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Booking not found")
	})
}

// ================================================================================
// TestCheckIn / TestComplete
// ================================================================================

func (s *BookingHandlerTestSuite) TestCheckIn() {
	bookingID := uuid.New()
	url := "/bookings/" + bookingID.String() + "/check-in"

	s.Run("success: returns 204 No Content", func() {
		s.mockCommands.EXPECT().CheckIn(gomock.Any(), s.tenantID, bookingID).
			Return(nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("error: 409 Conflict for an unpaid booking", func() {
		s.mockCommands.EXPECT().CheckIn(gomock.Any(), s.tenantID, bookingID).
			Return(booking.ErrIllegalTransition).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "")
	})

	s.Run("error: 404 Not Found", func() {
		s.mockCommands.EXPECT().CheckIn(gomock.Any(), s.tenantID, bookingID).
			Return(commands.ErrBookingNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Booking not found")
	})
}

func (s *BookingHandlerTestSuite) TestComplete() {
	bookingID := uuid.New()
	url := "/bookings/" + bookingID.String() + "/complete"

	s.Run("success: returns 204 No Content", func() {
		s.mockCommands.EXPECT().Complete(gomock.Any(), s.tenantID, bookingID).
			Return(nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("error: 409 Conflict before check-in", func() {
		s.mockCommands.EXPECT().Complete(gomock.Any(), s.tenantID, bookingID).
			Return(booking.ErrNotCheckedIn).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "check-in")
	})
}

// ================================================================================
// TestGetBooking
// ================================================================================

func (s *BookingHandlerTestSuite) TestGetBooking() {
	bookingID := uuid.New()
	url := "/bookings/" + bookingID.String()

	view := &queries.BookingView{
		ID:            bookingID,
		TenantID:      uuid.New(),
		ServiceID:     uuid.New(),
		ServiceName:   "Standard Cut",
		ResourceID:    uuid.New(),
		ResourceName:  "Chair 1",
		Reference:     "BB-7KQ2M9XF",
		StartTime:     time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		EndTime:       time.Date(2026, 3, 2, 9, 45, 0, 0, time.UTC),
		CustomerName:  "Amaka Obi",
		CustomerPhone: "+2348031234567",
		Status:        "confirmed",
	}

	s.Run("success: returns 200 OK with BookingResponse", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), s.tenantID, bookingID).
			Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var response resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal(bookingID, response.ID)
		s.Equal("BB-7KQ2M9XF", response.Reference)
		s.Equal("confirmed", response.Status)
		s.Equal("Standard Cut", response.ServiceName)
	})

	s.Run("error: 404 Not Found for a missing booking", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), s.tenantID, bookingID).
			Return(nil, infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Booking not found")
	})

	s.Run("error: 400 Bad Request for invalid UUID", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/invalid-uuid", nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid booking id")
	})
}

// ================================================================================
// TestListBookings
// ================================================================================

func (s *BookingHandlerTestSuite) TestListBookings() {
	url := "/bookings"

	items := []*queries.BookingListItem{
		{ID: uuid.New(), ServiceName: "Standard Cut", Reference: "BB-AAAA2222", Status: "confirmed"},
		{ID: uuid.New(), ServiceName: "Braids", Reference: "BB-BBBB3333", Status: "pending_payment"},
	}

	s.Run("success: returns 200 OK with bookings", func() {
		s.mockQueries.EXPECT().ListByTenant(gomock.Any(), s.tenantID, int32(0), int32(0)).
			Return(items, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var response []resdto.BookingListResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Len(response, 2)
		s.Equal("BB-AAAA2222", response[0].Reference)
	})

	s.Run("success: forwards pagination parameters", func() {
		s.mockQueries.EXPECT().ListByTenant(gomock.Any(), s.tenantID, int32(10), int32(20)).
			Return(nil, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url+"?limit=10&offset=20", nil, "bearer-token")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("error: 400 Bad Request for malformed pagination", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url+"?limit=lots", nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
	})
}
