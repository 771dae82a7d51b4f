package httputil

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionRequest struct {
	UserID string `json:"user_id"`
}

func (r *sessionRequest) Sanitize() { r.UserID = strings.TrimSpace(r.UserID) }

func (r *sessionRequest) Validate() error {
	if r.UserID == "" {
		return errors.New("user_id is required")
	}
	return nil
}

func decode(body string) (*sessionRequest, bool, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	req, ok := DecodeAndValidate[sessionRequest](w, r, logger, context.Background(), "req-1")
	return req, ok, w
}

func TestDecodeAndValidate(t *testing.T) {
	t.Run("sanitizes before validating", func(t *testing.T) {
		req, ok, _ := decode(`{"user_id":"  abc  "}`)
		require.True(t, ok)
		assert.Equal(t, "abc", req.UserID)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		_, ok, w := decode(`{"user_id":`)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "bad_request")
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		_, ok, w := decode(`{"user_id":"abc","role":"admin"}`)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("validation failure is reported", func(t *testing.T) {
		_, ok, w := decode(`{"user_id":"   "}`)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "validation_error")
	})
}
