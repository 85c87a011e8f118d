package restapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheControlHeaders(t *testing.T) {
	api := createTestApi(t)

	mux := http.NewServeMux()
	api.SetRoutes(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	tests := []struct {
		name           string
		endpoint       string
		expectedHeader string
	}{
		{
			name:           "static network data gets the long tier",
			endpoint:       "/v2/stops",
			expectedHeader: "public, max-age=300",
		},
		{
			name:           "reconciled arrivals get the short tier",
			endpoint:       "/v2/stops/811/arrivals",
			expectedHeader: "public, max-age=10",
		},
		{
			name:           "cache dump is never cached",
			endpoint:       "/v2/cache",
			expectedHeader: "no-cache, no-store, must-revalidate",
		},
		{
			name:           "error responses are never cached",
			endpoint:       "/v2/stops/nonexistent/arrivals",
			expectedHeader: "no-cache, no-store, must-revalidate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(server.URL + tt.endpoint)
			assert.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			gotHeader := resp.Header.Get("Cache-Control")
			assert.Equal(t, tt.expectedHeader, gotHeader, "Cache-Control header mismatch for %s", tt.endpoint)
		})
	}
}
