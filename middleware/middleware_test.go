package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	t.Run("should generate an id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/schools", nil))

		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
		assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
	})

	t.Run("should keep the caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/schools", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", rr.Header().Get(RequestIDHeader))
	})
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/schools", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rr.Body.String())
}

func TestAccessLog(t *testing.T) {
	h := AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/schools", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
}
