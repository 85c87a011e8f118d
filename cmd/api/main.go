package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3" // CGo-based SQLite driver

	"paradero.urbanbus.org/internal/app"
	"paradero.urbanbus.org/internal/appconf"
	"paradero.urbanbus.org/internal/clock"
	"paradero.urbanbus.org/internal/gtfs"
	"paradero.urbanbus.org/internal/logging"
	"paradero.urbanbus.org/internal/metrics"
	"paradero.urbanbus.org/internal/restapi"
	"paradero.urbanbus.org/internal/webui"
)

func main() {
	cfg, err := appconf.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	gtfsCfg, err := loadGtfsConfig(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	coreApp, err := BuildApplication(cfg, gtfsCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := Run(coreApp, cfg); err != nil {
		logging.LogError(coreApp.Logger, "server exited with error", err)
		os.Exit(1)
	}
}

// loadGtfsConfig reads the GTFS feed settings from the environment.
// GTFS_STATIC_URL is the only required value; without realtime feed URLs the
// server degrades to schedule-only answers.
func loadGtfsConfig(cfg appconf.Config) (gtfs.Config, error) {
	staticURL := os.Getenv("GTFS_STATIC_URL")
	if staticURL == "" {
		return gtfs.Config{}, errors.New("GTFS_STATIC_URL is required")
	}

	pollInterval, err := appconf.GetenvDuration("GTFS_RT_POLL_SECONDS", 10*time.Second)
	if err != nil {
		return gtfs.Config{}, err
	}

	staticRefresh, err := appconf.GetenvDuration("GTFS_STATIC_REFRESH_SECONDS", 12*time.Hour)
	if err != nil {
		return gtfs.Config{}, err
	}

	cacheTTL, err := appconf.GetenvDuration("GTFS_RT_CACHE_TTL_SECONDS", 10*time.Minute)
	if err != nil {
		return gtfs.Config{}, err
	}

	return gtfs.Config{
		StaticURL:               staticURL,
		StaticAuthHeaderKey:     os.Getenv("GTFS_STATIC_AUTH_HEADER"),
		StaticAuthHeaderValue:   os.Getenv("GTFS_STATIC_AUTH_VALUE"),
		TripUpdatesURL:          os.Getenv("GTFS_RT_TRIP_UPDATES_URL"),
		VehiclePositionsURL:     os.Getenv("GTFS_RT_VEHICLE_POSITIONS_URL"),
		ServiceAlertsURL:        os.Getenv("GTFS_RT_SERVICE_ALERTS_URL"),
		RealTimeAuthHeaderKey:   os.Getenv("GTFS_RT_AUTH_HEADER"),
		RealTimeAuthHeaderValue: os.Getenv("GTFS_RT_AUTH_VALUE"),
		GTFSDataPath:            getenvDefault("GTFS_DATA_PATH", "gtfs.db"),
		Timezone:                os.Getenv("GTFS_TIMEZONE"),
		PollInterval:            pollInterval,
		StaticRefreshInterval:   staticRefresh,
		CacheTTL:                cacheTTL,
		Env:                     cfg.Env,
		Verbose:                 cfg.Verbose,
	}, nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// BuildApplication wires the logger, metrics, and GTFS manager together.
func BuildApplication(cfg appconf.Config, gtfsCfg gtfs.Config) (*app.Application, error) {
	logger := logging.New(cfg.Env, cfg.Verbose)
	m := metrics.NewWithLogger(logger)
	clk := clock.RealClock{}

	manager, err := gtfs.NewManager(gtfsCfg, clk, m)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GTFS manager: %w", err)
	}

	return &app.Application{
		Config:      cfg,
		GtfsConfig:  gtfsCfg,
		Logger:      logger,
		GtfsManager: manager,
		Clock:       clk,
		Metrics:     m,
	}, nil
}

// ParseExemptIPs splits a comma-separated list of addresses exempt from
// rate limiting.
func ParseExemptIPs(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ips := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			ips = append(ips, trimmed)
		}
	}
	return ips
}

// CreateServer builds the HTTP server with the full middleware chain. The
// returned rate limiter owns a background goroutine; callers stop it on
// shutdown.
func CreateServer(coreApp *app.Application, cfg appconf.Config) (*http.Server, *restapi.RateLimitMiddleware, error) {
	api := restapi.NewRestAPI(coreApp)

	mux := http.NewServeMux()
	api.SetRoutes(mux)

	if cfg.Env != appconf.Production {
		webui.NewWebUI(coreApp).SetRoutes(mux)
	}

	rateLimiter := restapi.NewRateLimitMiddleware(
		cfg.RatePerSecond,
		time.Second,
		cfg.RateBurst,
		ParseExemptIPs(os.Getenv("RATE_LIMIT_EXEMPT_IPS")),
		coreApp.Clock,
	)

	compression, err := restapi.NewCompressionMiddleware()
	if err != nil {
		rateLimiter.Stop()
		return nil, nil, fmt.Errorf("failed to build compression middleware: %w", err)
	}

	var handler http.Handler = mux
	handler = compression(handler)
	handler = rateLimiter.Handler()(handler)
	handler = restapi.MetricsHandler(coreApp.Metrics)(handler)
	handler = restapi.NewRequestLoggingMiddleware(coreApp.Logger)(handler)
	handler = restapi.RequestIDMiddleware(handler)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return srv, rateLimiter, nil
}

// Run starts the manager's background loops and serves HTTP until the
// process receives SIGINT or SIGTERM, then drains connections.
func Run(coreApp *app.Application, cfg appconf.Config) error {
	srv, rateLimiter, err := CreateServer(coreApp, cfg)
	if err != nil {
		return err
	}
	defer rateLimiter.Stop()

	coreApp.GtfsManager.Start()
	defer coreApp.GtfsManager.Shutdown()

	coreApp.Metrics.StartDBStatsCollector(coreApp.GtfsManager.GtfsDB.DB, 15*time.Second)
	defer coreApp.Metrics.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logging.LogOperation(coreApp.Logger, "server listening",
			"addr", cfg.ListenAddr,
			"env", cfg.Env.String(),
		)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logging.LogOperation(coreApp.Logger, "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
