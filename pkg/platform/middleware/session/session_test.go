package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"casestatus/pkg/requestcontext"
)

// SessionExtractSuite covers token extraction.
//
// Justification: the gate trusts this middleware as the only token source;
// a request without a token must still reach the handler so the gate, not
// the transport, decides.
type SessionExtractSuite struct {
	suite.Suite
	captured context.Context
	called   bool
	handler  http.Handler
}

func TestSessionExtractSuite(t *testing.T) {
	suite.Run(t, new(SessionExtractSuite))
}

func (s *SessionExtractSuite) SetupTest() {
	s.captured = nil
	s.called = false
	s.handler = Extract(Config{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.called = true
		s.captured = r.Context()
	}))
}

func (s *SessionExtractSuite) serve(req *http.Request) string {
	s.handler.ServeHTTP(httptest.NewRecorder(), req)
	s.Require().True(s.called, "next handler must always run")
	return requestcontext.SessionToken(s.captured)
}

func (s *SessionExtractSuite) TestBearerHeader() {
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")

	s.Equal("abc.def.ghi", s.serve(req))
}

func (s *SessionExtractSuite) TestCookieFallback() {
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "cookie-token"})

	s.Equal("cookie-token", s.serve(req))
}

func (s *SessionExtractSuite) TestHeaderWinsOverCookie() {
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "cookie-token"})

	s.Equal("header-token", s.serve(req))
}

func (s *SessionExtractSuite) TestNoTokenPassesThrough() {
	s.Run("no credentials", func() {
		s.SetupTest()
		s.Empty(s.serve(httptest.NewRequest(http.MethodGet, "/cases/lookup", nil)))
	})

	s.Run("non-bearer scheme ignored", func() {
		s.SetupTest()
		req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		s.Empty(s.serve(req))
	})

	s.Run("oversized token dropped", func() {
		s.SetupTest()
		req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
		req.Header.Set("Authorization", "Bearer "+strings.Repeat("x", maxTokenLength+1))
		s.Empty(s.serve(req))
	})
}

func (s *SessionExtractSuite) TestCustomCookieName() {
	s.handler = Extract(Config{CookieName: "sid"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.called = true
		s.captured = r.Context()
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "custom"})

	s.Equal("custom", s.serve(req))
}
