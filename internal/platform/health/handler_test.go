package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
)

type HealthHandlerSuite struct {
	suite.Suite
	handler *Handler
	router  chi.Router
}

func TestHealthHandlerSuite(t *testing.T) {
	suite.Run(t, new(HealthHandlerSuite))
}

func (s *HealthHandlerSuite) SetupTest() {
	s.handler = New("test")
	s.router = chi.NewRouter()
	s.handler.Register(s.router)
}

func (s *HealthHandlerSuite) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func (s *HealthHandlerSuite) TestLiveness() {
	w := s.get("/health/live")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "alive")
}

func (s *HealthHandlerSuite) TestReadiness() {
	s.Run("ready with no checks", func() {
		s.Equal(http.StatusOK, s.get("/health/ready").Code)
	})

	s.Run("not ready when a check fails", func() {
		s.handler.RegisterCheck("postgres", func(context.Context) error { return nil })
		s.handler.RegisterCheck("redis", func(context.Context) error {
			return errors.New("dial tcp 10.1.2.3:6379: refused")
		})

		w := s.get("/health/ready")
		s.Equal(http.StatusServiceUnavailable, w.Code)

		var resp ReadinessResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal("not_ready", resp.Status)
		s.Equal("up", resp.Checks["postgres"])
		s.Equal("down", resp.Checks["redis"])
		s.NotContains(w.Body.String(), "10.1.2.3")
	})
}

func (s *HealthHandlerSuite) TestStatus() {
	w := s.get("/health")
	s.Equal(http.StatusOK, w.Code)

	var resp StatusResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("healthy", resp.Status)
	s.Equal("test", resp.Environment)
}

func (s *HealthHandlerSuite) TestObserverSeesEveryCheck() {
	var (
		mu   sync.Mutex
		seen = map[string]bool{}
	)
	h := New("test",
		WithCheckTimeout(50*time.Millisecond),
		WithObserver(func(name string, up bool) {
			mu.Lock()
			defer mu.Unlock()
			seen[name] = up
		}),
	)
	h.RegisterCheck("postgres", func(context.Context) error { return nil })
	h.RegisterCheck("kafka", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	w := httptest.NewRecorder()
	h.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	s.Equal(http.StatusServiceUnavailable, w.Code)
	s.Equal(map[string]bool{"postgres": true, "kafka": false}, seen)
}
