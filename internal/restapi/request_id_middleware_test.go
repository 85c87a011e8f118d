package restapi

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDMiddleware(t *testing.T) {
	t.Run("generates a request ID when missing", func(t *testing.T) {
		nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := GetRequestID(r.Context())
			assert.NotEmpty(t, reqID, "context should carry a request ID")
		})

		handlerToTest := RequestIDMiddleware(nextHandler)

		req := httptest.NewRequest("GET", "http://example.com/foo", nil)
		rec := httptest.NewRecorder()

		handlerToTest.ServeHTTP(rec, req)

		respID := rec.Header().Get("X-Request-ID")
		assert.NotEmpty(t, respID)
		assert.Regexp(t, `^[0-9a-f-]{36}$`, respID)
	})

	t.Run("preserves an existing valid request ID", func(t *testing.T) {
		existingID := "my-custom-trace-id-123"

		nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, existingID, GetRequestID(r.Context()))
		})

		handlerToTest := RequestIDMiddleware(nextHandler)

		req := httptest.NewRequest("GET", "http://example.com/foo", nil)
		req.Header.Set("X-Request-ID", existingID)
		rec := httptest.NewRecorder()

		handlerToTest.ServeHTTP(rec, req)

		assert.Equal(t, existingID, rec.Header().Get("X-Request-ID"))
	})

	t.Run("replaces an invalid request ID", func(t *testing.T) {
		testCases := []struct {
			name      string
			invalidID string
		}{
			{
				name:      "too long",
				invalidID: strings.Repeat("a", 129),
			},
			{
				name:      "invalid characters",
				invalidID: "bad-id-<script>",
			},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					reqID := GetRequestID(r.Context())
					assert.NotEqual(t, tc.invalidID, reqID)
					assert.Regexp(t, `^[0-9a-f-]{36}$`, reqID)
				})

				handlerToTest := RequestIDMiddleware(nextHandler)

				req := httptest.NewRequest("GET", "http://example.com/foo", nil)
				req.Header.Set("X-Request-ID", tc.invalidID)
				rec := httptest.NewRecorder()

				handlerToTest.ServeHTTP(rec, req)
			})
		}
	})
}

func TestRequestIDLoggingIntegration(t *testing.T) {
	var logBuf bytes.Buffer

	testLogger := slog.New(slog.NewJSONHandler(&logBuf, nil))

	finalHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	loggingMiddleware := NewRequestLoggingMiddleware(testLogger)(finalHandler)
	handlerToTest := RequestIDMiddleware(loggingMiddleware)

	expectedReqID := "integration-test-id-999"
	req := httptest.NewRequest("GET", "http://example.com/test", nil)
	req.Header.Set("X-Request-ID", expectedReqID)
	rec := httptest.NewRecorder()

	handlerToTest.ServeHTTP(rec, req)

	logOutput := logBuf.String()
	assert.Contains(t, logOutput, expectedReqID)
	assert.Contains(t, logOutput, "request_id")
}
