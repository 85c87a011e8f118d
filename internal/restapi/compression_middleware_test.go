package restapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressionMiddleware(t *testing.T) {
	middleware, err := NewCompressionMiddleware()
	require.NoError(t, err)

	large := strings.Repeat(`{"stopId":"811"},`, 200)
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(large))
	}))

	t.Run("compresses large JSON payloads", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v2/stops", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
		assert.Less(t, rec.Body.Len(), len(large))
	})

	t.Run("passes through when the client does not accept gzip", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v2/stops", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Content-Encoding"))
		assert.Equal(t, large, rec.Body.String())
	})
}
