package gtfsdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/OneBusAway/go-gtfs"
	"paradero.urbanbus.org/internal/gtfstime"
	"paradero.urbanbus.org/internal/logging"
)

// processAndStoreGTFSData parses a GTFS zip and replaces the database
// contents with it. The whole import runs in one transaction so readers on
// another connection never observe a half-written snapshot. Imports with a
// file hash matching the previous one are skipped.
func (c *Client) processAndStoreGTFSData(ctx context.Context, data []byte, source string) error {
	logger := slog.Default().With(slog.String("component", "gtfs_import"))

	hash := sha256.Sum256(data)
	hashStr := hex.EncodeToString(hash[:])

	if prev, err := c.Queries.GetImportMetadata(ctx); err == nil && prev.FileHash == hashStr {
		logging.LogOperation(logger, "gtfs_import_skipped_unchanged",
			slog.String("hash", hashStr[:8]))
		return nil
	}

	staticData, err := gtfs.ParseStatic(data, gtfs.ParseStaticOptions{})
	if err != nil {
		return fmt.Errorf("error parsing GTFS data: %w", err)
	}

	logging.LogOperation(logger, "starting_database_import",
		slog.Int("agencies", len(staticData.Agencies)),
		slog.Int("routes", len(staticData.Routes)),
		slog.Int("stops", len(staticData.Stops)),
		slog.Int("trips", len(staticData.Trips)),
		slog.Int("warnings", len(staticData.Warnings)))

	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("unable to begin import transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := clearAllGTFSData(ctx, tx); err != nil {
		return err
	}

	if err := insertStatic(ctx, tx, staticData); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO import_metadata (id, file_hash, import_time, file_source)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET file_hash = excluded.file_hash,
		   import_time = excluded.import_time, file_source = excluded.file_source`,
		hashStr, time.Now().Unix(), source); err != nil {
		return fmt.Errorf("error updating import metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("unable to commit import: %w", err)
	}

	logging.LogOperation(logger, "gtfs_import_complete",
		slog.String("hash", hashStr[:8]),
		slog.String("source", source))
	return nil
}

func clearAllGTFSData(ctx context.Context, tx *sql.Tx) error {
	// Reverse dependency order.
	for _, table := range []string{"stop_times", "shapes", "trips", "calendar_dates", "calendar", "stops", "routes", "agencies"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("error clearing %s: %w", table, err)
		}
	}
	return nil
}

func insertStatic(ctx context.Context, tx *sql.Tx, staticData *gtfs.Static) error {
	for _, a := range staticData.Agencies {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO agencies (id, name, url, timezone) VALUES (?, ?, ?, ?)`,
			a.Id, a.Name, a.Url, a.Timezone); err != nil {
			return fmt.Errorf("unable to create agency: %w", err)
		}
	}

	singleAgencyID := ""
	if len(staticData.Agencies) == 1 {
		singleAgencyID = staticData.Agencies[0].Id
	}

	routeStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO routes (id, agency_id, short_name, long_name, "desc", type, color, text_color)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = routeStmt.Close() }()

	for _, r := range staticData.Routes {
		agencyID := singleAgencyID
		if r.Agency != nil && r.Agency.Id != "" {
			agencyID = r.Agency.Id
		}
		if _, err := routeStmt.ExecContext(ctx,
			r.Id, agencyID, toNullString(r.ShortName), toNullString(r.LongName),
			toNullString(r.Description), int64(r.Type),
			toNullString(r.Color), toNullString(r.TextColor)); err != nil {
			return fmt.Errorf("unable to create route: %w", err)
		}
	}

	stopStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO stops (id, code, name, "desc", lat, lon, zone_id, url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stopStmt.Close() }()

	for _, s := range staticData.Stops {
		// Stops without coordinates are station pathway nodes; nothing in
		// this engine can use them and (0,0) would poison the spatial index.
		if s.Latitude == nil || s.Longitude == nil {
			continue
		}
		if _, err := stopStmt.ExecContext(ctx,
			s.Id, toNullString(s.Code), toNullString(s.Name), toNullString(s.Description),
			*s.Latitude, *s.Longitude, toNullString(s.ZoneId), toNullString(s.Url)); err != nil {
			return fmt.Errorf("unable to create stop: %w", err)
		}
	}

	calStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO calendar (service_id, monday, tuesday, wednesday, thursday, friday, saturday, sunday, start_date, end_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = calStmt.Close() }()

	calDateStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO calendar_dates (service_id, date, exception_type) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = calDateStmt.Close() }()

	for _, s := range staticData.Services {
		if _, err := calStmt.ExecContext(ctx,
			s.Id,
			boolToInt(s.Monday), boolToInt(s.Tuesday), boolToInt(s.Wednesday),
			boolToInt(s.Thursday), boolToInt(s.Friday), boolToInt(s.Saturday), boolToInt(s.Sunday),
			s.StartDate.Format("20060102"), s.EndDate.Format("20060102")); err != nil {
			return fmt.Errorf("unable to create calendar: %w", err)
		}
		for _, date := range s.AddedDates {
			if _, err := calDateStmt.ExecContext(ctx, s.Id, date.Format("20060102"), 1); err != nil {
				return fmt.Errorf("unable to create calendar date: %w", err)
			}
		}
		for _, date := range s.RemovedDates {
			if _, err := calDateStmt.ExecContext(ctx, s.Id, date.Format("20060102"), 2); err != nil {
				return fmt.Errorf("unable to create calendar date: %w", err)
			}
		}
	}

	tripStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO trips (id, route_id, service_id, trip_headsign, direction_id, shape_id)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = tripStmt.Close() }()

	stopTimeStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO stop_times (trip_id, arrival_time, departure_time, stop_id, stop_sequence, stop_headsign)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stopTimeStmt.Close() }()

	for _, t := range staticData.Trips {
		var shapeID string
		if t.Shape != nil {
			shapeID = t.Shape.ID
		}
		if _, err := tripStmt.ExecContext(ctx,
			t.ID, t.Route.Id, t.Service.Id, toNullString(t.Headsign),
			int64(t.DirectionId), toNullString(shapeID)); err != nil {
			return fmt.Errorf("unable to create trip: %w", err)
		}

		for _, st := range t.StopTimes {
			if _, err := stopTimeStmt.ExecContext(ctx,
				t.ID,
				gtfstime.FormatServiceTime(st.ArrivalTime),
				gtfstime.FormatServiceTime(st.DepartureTime),
				st.Stop.Id, int64(st.StopSequence), toNullString(st.Headsign)); err != nil {
				return fmt.Errorf("unable to create stop time: %w", err)
			}
		}
	}

	shapeStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO shapes (shape_id, lat, lon, shape_pt_sequence) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = shapeStmt.Close() }()

	for _, s := range staticData.Shapes {
		for idx, pt := range s.Points {
			if _, err := shapeStmt.ExecContext(ctx,
				s.ID, pt.Latitude, pt.Longitude, int64(idx)); err != nil {
				return fmt.Errorf("unable to create shape point: %w", err)
			}
		}
	}

	return nil
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
