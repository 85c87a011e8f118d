package gtfs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"paradero.urbanbus.org/gtfsdb"
	"paradero.urbanbus.org/internal/logging"
)

func buildGtfsDB(config Config, isLocalFile bool, dbPath string) (*gtfsdb.Client, error) {
	// If no specific path is provided, use the one from config
	if dbPath == "" {
		dbPath = config.GTFSDataPath
	}
	dbConfig := gtfsdb.NewConfig(dbPath, config.Env, config.Verbose)
	client, err := gtfsdb.NewClient(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create GTFS database client: %w", err)
	}

	ctx := context.Background()

	if isLocalFile {
		err = client.ImportFromFile(ctx, config.StaticURL)
	} else {
		err = client.DownloadAndStore(ctx, config.StaticURL, config.StaticAuthHeaderKey, config.StaticAuthHeaderValue)
	}

	if err != nil {
		logging.SafeCloseWithLogging(client,
			slog.Default().With(slog.String("component", "gtfs_db_builder")), "gtfs_db")
		return nil, err
	}

	return client, nil
}

func (manager *Manager) refreshStaticPeriodically() {
	defer manager.wg.Done()

	logger := slog.Default().With(slog.String("component", "gtfs_static_updater"))

	// A local file is a fixed snapshot; nothing to refresh.
	if manager.isLocalFile {
		logging.LogOperation(logger, "gtfs_source_is_local_file_skipping_periodic_updates",
			slog.String("source", manager.config.StaticURL))
		return
	}

	ticker := time.NewTicker(manager.config.staticRefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			err := manager.RefreshStatic(ctx)
			cancel()

			if err != nil {
				if manager.metrics != nil {
					manager.metrics.StaticImportFailures.Inc()
				}
				logging.LogError(logger, "Error updating GTFS data", err,
					slog.String("source", manager.config.StaticURL))
			}

		case <-manager.shutdownChan:
			logging.LogOperation(logger, "shutting_down_static_gtfs_updates")
			return
		}
	}
}

// RefreshStatic performs a mutex protected hot swap of the snapshot
// database:
//
//  1. Downloads the feed and stages it into a temporary "*.temp.db".
//  2. Builds the stop spatial index from the staged database so the new
//     snapshot is queryable the moment it is swapped in.
//  3. Takes the write lock, closes the old database, renames the staged
//     file over it, and re-opens at the stable path.
//
// Failure before the swap leaves the old snapshot serving. A failed rename
// attempts to re-open the old database; if that also fails the manager is
// marked unhealthy.
func (manager *Manager) RefreshStatic(ctx context.Context) error {
	manager.staticUpdateMutex.Lock()
	defer manager.staticUpdateMutex.Unlock()

	logger := slog.Default().With(slog.String("component", "gtfs_updater"))

	finalDBPath := manager.config.GTFSDataPath
	tempDBPath := strings.TrimSuffix(finalDBPath, ".db") + ".temp.db"

	if err := os.Remove(tempDBPath); err != nil && !os.IsNotExist(err) {
		logging.LogError(logger, "Failed to remove existing temp DB", err)
	}

	newGtfsDB, err := buildGtfsDB(manager.config, manager.isLocalFile, tempDBPath)
	if err != nil {
		logging.LogError(logger, "Error building new GTFS DB", err)
		return err
	}

	cleanupStaged := func() {
		logging.SafeCloseWithLogging(newGtfsDB, logger, "staged_gtfs_db")
		if removeErr := os.Remove(tempDBPath); removeErr != nil && !os.IsNotExist(removeErr) {
			logging.LogError(logger, "Failed to remove temp DB during cleanup", removeErr)
		}
	}

	if err := ctx.Err(); err != nil {
		cleanupStaged()
		return err
	}

	newStopIndex, err := buildStopSpatialIndex(ctx, newGtfsDB.Queries)
	if err != nil {
		logging.LogError(logger, "Error building spatial index", err)
		cleanupStaged()
		return err
	}

	if err := newGtfsDB.Close(); err != nil {
		logging.LogError(logger, "Error closing staged GTFS DB", err)
		return err
	}

	manager.staticMutex.Lock()
	defer manager.staticMutex.Unlock()

	if manager.GtfsDB != nil {
		if err := manager.GtfsDB.Close(); err != nil {
			logging.LogError(logger, "Error closing old GTFS DB, did not swap DB", err)
			return err
		}
	}

	// Rename: finalDBPath is overwritten by tempDBPath
	if err := os.Rename(tempDBPath, finalDBPath); err != nil {
		logging.LogError(logger, "Error renaming temp DB to final DB", err)

		if removeErr := os.Remove(tempDBPath); removeErr != nil && !os.IsNotExist(removeErr) {
			logging.LogError(logger, "Failed to remove temp DB after rename failure", removeErr)
		}

		logging.LogOperation(logger, "attempting_recovery_reopening_old_db")

		dbConfig := gtfsdb.NewConfig(finalDBPath, manager.config.Env, manager.config.Verbose)
		if reopenedClient, reopenErr := gtfsdb.NewClient(dbConfig); reopenErr == nil {
			manager.GtfsDB = reopenedClient
			logging.LogOperation(logger, "recovery_successful_old_db_reopened")
		} else {
			logging.LogError(logger, "CRITICAL: Failed to recover old DB after rename failure", reopenErr)
			manager.GtfsDB = nil
			manager.isHealthy = false
		}

		return err
	}

	dbConfig := gtfsdb.NewConfig(finalDBPath, manager.config.Env, manager.config.Verbose)
	client, err := gtfsdb.NewClient(dbConfig)
	if err != nil {
		logging.LogError(logger, "CRITICAL: Failed to create new GTFS client after database swap", err,
			slog.String("db_path", finalDBPath))
		manager.GtfsDB = nil
		manager.isHealthy = false
		return fmt.Errorf("failed to update GTFS database client: %w", err)
	}

	manager.GtfsDB = client
	manager.stopIndex = newStopIndex
	manager.lastUpdated = manager.clock.Now()
	manager.isHealthy = true

	// Service membership may have changed with the new feed.
	manager.serviceMutex.Lock()
	manager.serviceMemo = make(map[string][]string)
	manager.serviceMutex.Unlock()

	if manager.metrics != nil {
		manager.metrics.StaticImportTimestamp.Set(float64(manager.clock.Now().Unix()))
	}

	logging.LogOperation(logger, "gtfs_static_data_updated_hot_swap",
		slog.String("source", manager.config.StaticURL),
		slog.String("db_path", finalDBPath))

	return nil
}
