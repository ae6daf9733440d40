//go:build unit

package api_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/reservation"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/handler/api"
	resdto "github.com/mukuljibh/airbnb-backend-sub000/internal/handler/dto/response"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/commands"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/queries"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/shared"
	"github.com/mukuljibh/airbnb-backend-sub000/tests/common/builder"
	"github.com/mukuljibh/airbnb-backend-sub000/tests/common/httptest"
	commandsmock "github.com/mukuljibh/airbnb-backend-sub000/tests/mock/commands"
	queriesmock "github.com/mukuljibh/airbnb-backend-sub000/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ReservationHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockReservationCommands
	mockQueries  *queriesmock.MockReservationQueries
	handler      *api.ReservationHandler
	actorID      uuid.UUID
}

func (s *ReservationHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockReservationCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockReservationQueries(s.mockCtrl)
	s.handler = api.NewReservationHandler(s.mockCommands, s.mockQueries)
	s.actorID = uuid.New()

	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set("actor", shared.Actor{UserID: s.actorID, Role: shared.RoleGuest})
		c.Next()
	}

	s.router.POST("/api/reservations/:id/pay", authMiddleware, s.handler.CreateReservation)
	s.router.POST("/api/reservations/:id/block", authMiddleware, s.handler.SelfBlock)
	s.router.GET("/api/reservations", authMiddleware, s.handler.ListReservations)
	s.router.GET("/api/reservations/:id", authMiddleware, s.handler.GetReservation)
	s.router.GET("/api/reservations/:id/retrieve-payment-link", authMiddleware, s.handler.RetrievePaymentLink)
	s.router.POST("/api/reservations/:id/cancel", authMiddleware, s.handler.Cancel)
	s.router.POST("/api/reservations/:id/host-decision", authMiddleware, s.handler.RecordHostDecision)
}

func (s *ReservationHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestReservationHandlerSuite(t *testing.T) {
	suite.Run(t, new(ReservationHandlerTestSuite))
}

func (s *ReservationHandlerTestSuite) TestCreateReservation() {
	b := builder.NewReservationBuilder()
	url := "/api/reservations/" + b.PropertyID.String() + "/pay"
	reqBody := b.BuildCreateRequestDTO()

	expected := &commands.CreateReservationResult{
		ReservationID: b.ID,
		BillingID:     uuid.New(),
		SessionID:     "cs_test_1",
		SessionURL:    "https://pay.example/cs_test_1",
		TotalPrice:    54_360,
		Currency:      "usd",
	}

	s.Run("success: returns 201 with the payment link", func() {
		s.mockCommands.EXPECT().
			CreateReservation(gomock.Any(), gomock.Any(), b.PropertyID, gomock.Any()).
			Return(expected, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "token")

		var body resdto.CreateReservationResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &body)
		s.Equal(expected.ReservationID, body.ReservationID)
		s.Equal(expected.SessionURL, body.PaymentLink)
	})

	s.Run("error: 401 when unauthenticated", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})

	s.Run("error: 400 on malformed property id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/api/reservations/not-a-uuid/pay", reqBody, "token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid property ID")
	})

	s.Run("error: 400 on missing required fields", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, map[string]any{"party_size": 2}, "token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
	})

	s.Run("error: 400 on unparseable dates", func() {
		bad := map[string]any{
			"check_in_date":  "June 10th",
			"check_out_date": "June 13th",
			"party_size":     2,
		}
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, bad, "token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
	})

	s.Run("error: maps usecase errors to statuses", func() {
		testCases := []struct {
			name           string
			commandsError  error
			expectedStatus int
			expectedMsg    string
		}{
			{
				name:           "property not found",
				commandsError:  commands.ErrPropertyNotFound,
				expectedStatus: http.StatusNotFound,
				expectedMsg:    "Property not found",
			},
			{
				name:           "date conflict",
				commandsError:  commands.ErrDateRangeConflict,
				expectedStatus: http.StatusConflict,
				expectedMsg:    "Dates conflict",
			},
			{
				name:           "domain validation",
				commandsError:  errs(commands.ErrDomainValidation, reservation.ErrPartySizeExceedsCapacity),
				expectedStatus: http.StatusBadRequest,
				expectedMsg:    "Validation failed",
			},
			{
				name:           "gateway failure",
				commandsError:  errs(commands.ErrGatewayFailure, errors.New("stripe: 500")),
				expectedStatus: http.StatusBadGateway,
				expectedMsg:    "Payment provider",
			},
			{
				name:           "unexpected error",
				commandsError:  errors.New("connection reset"),
				expectedStatus: http.StatusInternalServerError,
				expectedMsg:    "Internal server error",
			},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().
					CreateReservation(gomock.Any(), gomock.Any(), b.PropertyID, gomock.Any()).
					Return(nil, tc.commandsError).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, tc.expectedMsg)
			})
		}
	})
}

func (s *ReservationHandlerTestSuite) TestSelfBlock() {
	b := builder.NewReservationBuilder()
	url := "/api/reservations/" + b.PropertyID.String() + "/block"
	reqBody := map[string]any{
		"check_in_date":  b.CheckIn.Format("2006-01-02"),
		"check_out_date": b.CheckOut.Format("2006-01-02"),
	}

	s.Run("success: returns 201 with the reservation id", func() {
		s.mockCommands.EXPECT().
			SelfBlock(gomock.Any(), gomock.Any(), b.PropertyID, gomock.Any()).
			Return(b.ID, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "token")

		var body resdto.SelfBlockResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &body)
		s.Equal(b.ID, body.ReservationID)
	})

	s.Run("error: 403 when the actor is not the host", func() {
		s.mockCommands.EXPECT().
			SelfBlock(gomock.Any(), gomock.Any(), b.PropertyID, gomock.Any()).
			Return(uuid.Nil, errs(commands.ErrForbidden)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusForbidden, "Access denied")
	})

	s.Run("error: 409 on overlapping dates", func() {
		s.mockCommands.EXPECT().
			SelfBlock(gomock.Any(), gomock.Any(), b.PropertyID, gomock.Any()).
			Return(uuid.Nil, errs(commands.ErrDateRangeConflict)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "")
	})
}

func (s *ReservationHandlerTestSuite) TestRetrievePaymentLink() {
	id := uuid.New()
	url := "/api/reservations/" + id.String() + "/retrieve-payment-link"

	s.Run("success: returns the open link", func() {
		s.mockCommands.EXPECT().
			RetrievePaymentLink(gomock.Any(), gomock.Any(), id).
			Return("https://pay.example/cs_1", nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "token")

		var body resdto.PaymentLinkResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("https://pay.example/cs_1", body.PaymentLink)
	})

	s.Run("error: 409 when no link is open", func() {
		s.mockCommands.EXPECT().
			RetrievePaymentLink(gomock.Any(), gomock.Any(), id).
			Return("", errs(commands.ErrNoPaymentLink)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "No open payment link")
	})

	s.Run("error: 404 for unknown reservation", func() {
		s.mockCommands.EXPECT().
			RetrievePaymentLink(gomock.Any(), gomock.Any(), id).
			Return("", errs(commands.ErrReservationNotFound)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Reservation not found")
	})
}

func (s *ReservationHandlerTestSuite) TestCancel() {
	id := uuid.New()
	url := "/api/reservations/" + id.String() + "/cancel"

	s.Run("success: returns 202 accepted", func() {
		s.mockCommands.EXPECT().
			Cancel(gomock.Any(), gomock.Any(), id, gomock.Any()).
			Return(nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, map[string]any{"reason": "plans changed"}, "token")

		var body map[string]string
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusAccepted, &body)
		s.Equal("cancellation requested", body["status"])
	})

	s.Run("success: body is optional", func() {
		s.mockCommands.EXPECT().
			Cancel(gomock.Any(), gomock.Any(), id, gomock.Nil()).
			Return(nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "token")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusAccepted, nil)
	})

	s.Run("error: 409 when already cancelled", func() {
		s.mockCommands.EXPECT().
			Cancel(gomock.Any(), gomock.Any(), id, gomock.Any()).
			Return(reservation.ErrAlreadyCancelled).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "state does not allow")
	})

	s.Run("error: 409 when nothing was captured", func() {
		s.mockCommands.EXPECT().
			Cancel(gomock.Any(), gomock.Any(), id, gomock.Any()).
			Return(errs(commands.ErrNothingToRefund)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "No captured payment")
	})
}

func (s *ReservationHandlerTestSuite) TestRecordHostDecision() {
	id := uuid.New()
	url := "/api/reservations/" + id.String() + "/host-decision"

	s.Run("success: decision recorded", func() {
		s.mockCommands.EXPECT().
			RecordHostDecision(gomock.Any(), gomock.Any(), id, gomock.Any()).
			Return(nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, map[string]any{"decision": "approved"}, "token")

		var body map[string]string
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("decision recorded", body["status"])
	})

	s.Run("error: 400 on an unknown decision value", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, map[string]any{"decision": "maybe"}, "token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
	})

	s.Run("error: 409 when a decision was already made", func() {
		s.mockCommands.EXPECT().
			RecordHostDecision(gomock.Any(), gomock.Any(), id, gomock.Any()).
			Return(reservation.ErrDecisionAlreadyMade).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, map[string]any{"decision": "rejected", "reason": "no"}, "token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "")
	})

	s.Run("error: 403 when the actor is not the host", func() {
		s.mockCommands.EXPECT().
			RecordHostDecision(gomock.Any(), gomock.Any(), id, gomock.Any()).
			Return(errs(commands.ErrForbidden)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, map[string]any{"decision": "approved"}, "token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusForbidden, "Access denied")
	})
}

func (s *ReservationHandlerTestSuite) TestGetReservation() {
	b := builder.NewReservationBuilder()
	url := "/api/reservations/" + b.ID.String()

	s.Run("success: returns the view", func() {
		s.mockQueries.EXPECT().
			GetByID(gomock.Any(), gomock.Any(), b.ID).
			Return(b.BuildView(), nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "token")

		var body resdto.ReservationResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(b.ID, body.ID)
		s.Equal(b.CheckIn.Format("2006-01-02"), body.CheckInDate)
	})

	s.Run("error: 404 for unknown reservation", func() {
		s.mockQueries.EXPECT().
			GetByID(gomock.Any(), gomock.Any(), b.ID).
			Return(nil, queries.ErrReservationNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Reservation not found")
	})

	s.Run("error: 403 for an unrelated actor", func() {
		s.mockQueries.EXPECT().
			GetByID(gomock.Any(), gomock.Any(), b.ID).
			Return(nil, queries.ErrForbidden).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusForbidden, "Access denied")
	})
}

func (s *ReservationHandlerTestSuite) TestListReservations() {
	s.Run("default lists as guest", func() {
		items := []*queries.ReservationListItem{builder.NewReservationBuilder().BuildListItem()}
		s.mockQueries.EXPECT().
			ListByUser(gomock.Any(), gomock.Any()).
			Return(items, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/reservations", nil, "token")

		var body []*resdto.ReservationListResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Len(body, 1)
		s.Equal(items[0].ID, body[0].ID)
	})

	s.Run("as=host lists the host's bookings", func() {
		s.mockQueries.EXPECT().
			ListByHost(gomock.Any(), gomock.Any()).
			Return([]*queries.ReservationListItem{}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/reservations?as=host", nil, "token")

		var body []*resdto.ReservationListResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Empty(body)
	})
}

// errs chains markers the way the command layer reports failures.
func errs(markers ...error) error {
	err := errors.New("command failed")
	for _, m := range markers {
		err = errors.Join(err, m)
	}
	return err
}
