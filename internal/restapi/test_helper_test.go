package restapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"paradero.urbanbus.org/internal/app"
	"paradero.urbanbus.org/internal/appconf"
	"paradero.urbanbus.org/internal/clock"
	"paradero.urbanbus.org/internal/gtfs"
	"paradero.urbanbus.org/internal/logging"
	"paradero.urbanbus.org/internal/metrics"
	"paradero.urbanbus.org/internal/models"
	"paradero.urbanbus.org/internal/testutil"
)

// createTestApi builds a RestAPI over the fixture feed with the clock parked
// at Monday 2024-06-17 13:00 Europe/Madrid.
func createTestApi(t *testing.T) *RestAPI {
	t.Helper()

	loc, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)

	clk := clock.NewMockClock(time.Date(2024, 6, 17, 13, 0, 0, 0, loc))
	return createTestApiWithClock(t, clk)
}

func createTestApiWithClock(t *testing.T, clk clock.Clock) *RestAPI {
	t.Helper()

	gtfsConfig := gtfs.Config{
		StaticURL:    testutil.WriteZip(t, testutil.DefaultFeed()),
		GTFSDataPath: ":memory:",
		Timezone:     "Europe/Madrid",
		Env:          appconf.Test,
	}

	m := metrics.New()
	manager, err := gtfs.NewManager(gtfsConfig, clk, m)
	require.NoError(t, err)
	t.Cleanup(manager.Shutdown)

	application := &app.Application{
		Config:      appconf.Config{Env: appconf.Test},
		GtfsConfig:  gtfsConfig,
		Logger:      logging.New(appconf.Test, false),
		GtfsManager: manager,
		Clock:       clk,
		Metrics:     m,
	}

	return NewRestAPI(application)
}

// serveApiAndRetrieveEndpoint performs a GET against the routed mux and
// decodes the response envelope.
func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, path string) (*http.Response, models.ResponseModel) {
	t.Helper()

	mux := http.NewServeMux()
	api.SetRoutes(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var model models.ResponseModel
	require.NoError(t, json.Unmarshal(body, &model), "response body should be a JSON envelope: %s", body)

	return resp, model
}

func serveAndRetrieveEndpoint(t *testing.T, path string) (*RestAPI, *http.Response, models.ResponseModel) {
	t.Helper()

	api := createTestApi(t)
	resp, model := serveApiAndRetrieveEndpoint(t, api, path)
	return api, resp, model
}

// dataAsMap casts the envelope's Data payload to a JSON object.
func dataAsMap(t *testing.T, model models.ResponseModel) map[string]any {
	t.Helper()

	data, ok := model.Data.(map[string]any)
	require.True(t, ok, "expected object data, got %T", model.Data)
	return data
}

// dataAsList casts the envelope's Data payload to a JSON array.
func dataAsList(t *testing.T, model models.ResponseModel) []any {
	t.Helper()

	data, ok := model.Data.([]any)
	require.True(t, ok, "expected array data, got %T", model.Data)
	return data
}
