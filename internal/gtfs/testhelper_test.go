package gtfs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"paradero.urbanbus.org/internal/appconf"
	"paradero.urbanbus.org/internal/clock"
	"paradero.urbanbus.org/internal/metrics"
	"paradero.urbanbus.org/internal/testutil"
)

func madrid(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)
	return loc
}

// newTestManager loads the default fixture feed into an in-memory snapshot
// with the clock parked at Monday 2024-06-17 13:00 local time.
func newTestManager(t *testing.T) (*Manager, *clock.MockClock) {
	t.Helper()

	clk := clock.NewMockClock(time.Date(2024, 6, 17, 13, 0, 0, 0, madrid(t)))

	config := Config{
		StaticURL:    testutil.WriteZip(t, testutil.DefaultFeed()),
		GTFSDataPath: ":memory:",
		Timezone:     "Europe/Madrid",
		Env:          appconf.Test,
	}

	manager, err := NewManager(config, clk, metrics.New())
	require.NoError(t, err)
	t.Cleanup(manager.Shutdown)

	return manager, clk
}

func localTime(t *testing.T, hour, min, sec int) time.Time {
	t.Helper()
	return time.Date(2024, 6, 17, hour, min, sec, 0, madrid(t))
}
