//go:build unit

package api_test

import (
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"bookingbot-engine/internal/domain/identity"
	"bookingbot-engine/internal/handler/api"
	resdto "bookingbot-engine/internal/handler/dto/response"
	"bookingbot-engine/internal/usecase/queries"
	"bookingbot-engine/tests/common/httptest"
	queriesmock "bookingbot-engine/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type AvailabilityHandlerTestSuite struct {
	suite.Suite
	router           *gin.Engine
	tenantID         uuid.UUID
	mockCtrl         *gomock.Controller
	mockAvailability *queriesmock.MockAvailabilityQueries
	handler          *api.AvailabilityHandler
}

func (s *AvailabilityHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.tenantID = uuid.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockAvailability = queriesmock.NewMockAvailabilityQueries(s.mockCtrl)
	s.handler = api.NewAvailabilityHandler(s.mockAvailability)

	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set("tenant_id", s.tenantID)
		c.Set("tenant_role", identity.RoleChannel)
		c.Next()
	}
	s.router.GET("/availability", authMiddleware, s.handler.ListSlots)
}

func (s *AvailabilityHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestAvailabilityHandlerSuite(t *testing.T) {
	suite.Run(t, new(AvailabilityHandlerTestSuite))
}

func (s *AvailabilityHandlerTestSuite) TestListSlots() {
	serviceID := uuid.New()
	from := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)

	listURL := func(extra string) string {
		q := url.Values{}
		q.Set("service_id", serviceID.String())
		q.Set("from", from.Format(time.RFC3339))
		q.Set("to", to.Format(time.RFC3339))
		return "/availability?" + q.Encode() + extra
	}

	slots := []queries.SlotView{
		{ResourceID: uuid.New(), StartTime: from, EndTime: from.Add(45 * time.Minute)},
		{ResourceID: uuid.New(), StartTime: from.Add(15 * time.Minute), EndTime: from.Add(time.Hour)},
	}

	s.Run("success: returns 200 OK with slots", func() {
		s.mockAvailability.EXPECT().ListSlots(gomock.Any(), s.tenantID, serviceID, (*uuid.UUID)(nil), from, to).
			Return(slots, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, listURL(""), nil, "bearer-token")

		var response []resdto.SlotResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Len(response, 2)
		s.Equal(slots[0].ResourceID, response[0].ResourceID)
		s.True(response[0].StartTime.Equal(from))
	})

	s.Run("success: forwards the resource filter", func() {
		resourceID := uuid.New()
		s.mockAvailability.EXPECT().ListSlots(gomock.Any(), s.tenantID, serviceID, gomock.Any(), from, to).
			DoAndReturn(func(_ any, _, _ uuid.UUID, filter *uuid.UUID, _, _ time.Time) ([]queries.SlotView, error) {
				s.Require().NotNil(filter)
				s.Equal(resourceID, *filter)
				return nil, nil
			}).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, listURL("&resource_id="+resourceID.String()), nil, "bearer-token")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("error: 400 Bad Request on binding errors", func() {
		testCases := []struct {
			name string
			url  string
		}{
			{name: "missing service_id", url: "/availability?from=" + from.Format(time.RFC3339) + "&to=" + to.Format(time.RFC3339)},
			{name: "missing range", url: "/availability?service_id=" + serviceID.String()},
			{name: "malformed from", url: "/availability?service_id=" + serviceID.String() + "&from=yesterday&to=" + to.Format(time.RFC3339)},
		}
		for _, tc := range testCases {
			s.Run(tc.name, func() {
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, tc.url, nil, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
			})
		}
	})

	s.Run("error: 401 Unauthorized when unauthenticated", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, listURL(""), nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		testCases := []struct {
			name           string
			queriesError   error
			expectedStatus int
		}{
			{name: "inverted range", queriesError: queries.ErrInvalidRange, expectedStatus: http.StatusBadRequest},
			{name: "service not found", queriesError: queries.ErrServiceNotFound, expectedStatus: http.StatusNotFound},
			{name: "tenant not found", queriesError: queries.ErrTenantNotFound, expectedStatus: http.StatusNotFound},
			{name: "no eligible resource", queriesError: queries.ErrNoEligibleResource, expectedStatus: http.StatusNotFound},
			{name: "internal error", queriesError: errors.New("connection refused"), expectedStatus: http.StatusInternalServerError},
		}
		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockAvailability.EXPECT().ListSlots(gomock.Any(), s.tenantID, serviceID, (*uuid.UUID)(nil), from, to).
					Return(nil, tc.queriesError).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, listURL(""), nil, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, "")
			})
		}
	})
}
