package admin_test

//go:generate mockgen -source=handler.go -destination=mocks/handler_mocks.go -package=mocks DashboardService

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"casestatus/internal/admin"
	"casestatus/internal/admin/mocks"
	"casestatus/internal/admin/models"
	"casestatus/internal/audit"
	id "casestatus/pkg/domain"
	dErrors "casestatus/pkg/domain-errors"
)

// HandlerSuite covers the dashboard HTTP contract.
//
// Justification: response envelopes and query validation are not exercised
// by the gate tests.
type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockDashboardService
	router  chi.Router
	admin   *models.AdminRecord
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockDashboardService(s.ctrl)
	s.admin = &models.AdminRecord{ID: id.UserID(uuid.New()), Email: "ops@example.org", Role: models.RoleAdmin}

	h := admin.New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	s.router.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(admin.WithAdmin(r.Context(), s.admin)))
			})
		})
		h.Register(r)
	})
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) get(target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func (s *HandlerSuite) TestDashboard() {
	active := 2
	s.service.EXPECT().GetStats(gomock.Any()).Return(&admin.Stats{
		TotalCases:     4,
		ByStatus:       map[string]int{"pending": 4},
		ActiveSessions: &active,
	}, nil)

	rec := s.get("/admin/dashboard")
	s.Equal(http.StatusOK, rec.Code)

	var body struct {
		Admin struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"admin"`
		Stats struct {
			TotalCases     int            `json:"total_cases"`
			ByStatus       map[string]int `json:"by_status"`
			ActiveSessions *int           `json:"active_sessions"`
		} `json:"stats"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal(s.admin.ID.String(), body.Admin.ID)
	s.Equal(4, body.Stats.TotalCases)
	s.Equal(2, *body.Stats.ActiveSessions)
}

func (s *HandlerSuite) TestDashboard_StatsUnavailable() {
	s.service.EXPECT().GetStats(gomock.Any()).Return(nil, dErrors.Wrap(errors.New("db"), dErrors.CodeUnavailable, "case statistics unavailable"))

	rec := s.get("/admin/dashboard")
	s.Equal(http.StatusServiceUnavailable, rec.Code)
}

func (s *HandlerSuite) TestRecentAudit() {
	s.Run("default limit", func() {
		s.service.EXPECT().GetRecentAuditEvents(gomock.Any(), 50).Return([]audit.Event{{Action: "case_lookup"}}, nil)
		rec := s.get("/admin/audit/recent")
		s.Equal(http.StatusOK, rec.Code)

		var body admin.AuditEventsResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal(1, body.Total)
	})

	s.Run("explicit limit", func() {
		s.service.EXPECT().GetRecentAuditEvents(gomock.Any(), 5).Return(nil, nil)
		rec := s.get("/admin/audit/recent?limit=5")
		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"events":[],"total":0}`, rec.Body.String())
	})

	for _, raw := range []string{"abc", "0", "201"} {
		s.Run("invalid limit "+raw, func() {
			rec := s.get("/admin/audit/recent?limit=" + raw)
			s.Equal(http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandler_WithoutGrantIsForbidden(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := admin.New(mocks.NewMockDashboardService(ctrl), slog.New(slog.NewTextHandler(io.Discard, nil)))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil).WithContext(context.Background())
	h.HandleDashboard(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
