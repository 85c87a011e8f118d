// Package testutil builds small GTFS fixtures for tests. Feeds are
// assembled as zips in memory so tests never depend on files checked in
// next to the code under test.
package testutil

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// BuildZip zips the given file name to content mapping.
func BuildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("creating %s in zip: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("writing %s in zip: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

// WriteZip writes a feed zip to a temp file and returns its path.
func WriteZip(t *testing.T, files map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "gtfs.zip")
	if err := os.WriteFile(path, BuildZip(t, files), 0o644); err != nil {
		t.Fatalf("writing feed zip: %v", err)
	}
	return path
}

// DefaultFeed is a compact network used across the engine tests: two routes
// serving stop 811, a weekday service, a calendar-date-only night service,
// and one owl trip with an after-midnight (hour >= 24) arrival.
//
// The "WD" service also carries a removed exception on 2024-06-17, which
// tests rely on to pin down the union-only active-service policy.
func DefaultFeed() map[string]string {
	return map[string]string{
		"agency.txt": "agency_id,agency_name,agency_url,agency_timezone\n" +
			"CITY,City Transit,https://transit.example,Europe/Madrid\n",
		"routes.txt": "route_id,agency_id,route_short_name,route_long_name,route_type,route_color\n" +
			"L3,CITY,3,Las Flores - Giron,3,FF0000\n" +
			"L1,CITY,1,Barrio Espana - Covaresa,3,0000FF\n",
		"stops.txt": "stop_id,stop_code,stop_name,stop_lat,stop_lon\n" +
			"801,801,Plaza Mayor 1,41.6520,-4.7286\n" +
			"802,802,Calle Santiago 5,41.6501,-4.7270\n" +
			"803,803,Paseo Zorrilla 30,41.6440,-4.7330\n" +
			"804,804,Paseo Zorrilla 75,41.6400,-4.7360\n" +
			"811,811,Avenida Segovia 10,41.6350,-4.7200\n" +
			"820,820,Hospital Rio Hortega,41.6290,-4.7110\n",
		"calendar.txt": "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\n" +
			"WD,1,1,1,1,1,1,1,20240101,20261231\n" +
			"SAT,0,0,0,0,0,1,0,20240101,20261231\n",
		"calendar_dates.txt": "service_id,date,exception_type\n" +
			"XN,20240617,1\n" +
			"WD,20240617,2\n",
		"trips.txt": "route_id,service_id,trip_id,trip_headsign,direction_id,shape_id\n" +
			"L3,WD,3A1,Giron,0,sh3\n" +
			"L3,WD,3A2,Giron,0,sh3\n" +
			"L3,WD,3L1,Giron,0,\n" +
			"L3,XN,3N1,Giron Nocturno,0,\n" +
			"L1,WD,1A1,Covaresa,0,\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
			"3A1,12:50:00,12:50:00,801,1\n" +
			"3A1,12:55:00,12:55:00,802,2\n" +
			"3A1,13:00:00,13:00:00,803,3\n" +
			"3A1,13:02:00,13:02:00,804,4\n" +
			"3A1,13:05:00,13:05:00,811,5\n" +
			"3A1,13:10:00,13:10:00,820,6\n" +
			"3A2,13:05:00,13:05:00,801,1\n" +
			"3A2,13:10:00,13:10:00,802,2\n" +
			"3A2,13:15:00,13:15:00,803,3\n" +
			"3A2,13:17:00,13:17:00,804,4\n" +
			"3A2,13:20:00,13:20:00,811,5\n" +
			"3A2,13:25:00,13:25:00,820,6\n" +
			"3L1,25:10:00,25:10:00,811,1\n" +
			"3L1,25:20:00,25:20:00,820,2\n" +
			"3N1,23:45:00,23:45:00,811,1\n" +
			"3N1,23:55:00,23:55:00,820,2\n" +
			"1A1,13:03:00,13:03:00,802,1\n" +
			"1A1,13:07:00,13:07:00,811,2\n",
		"shapes.txt": "shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence\n" +
			"sh3,41.6520,-4.7286,1\n" +
			"sh3,41.6440,-4.7330,2\n" +
			"sh3,41.6350,-4.7200,3\n" +
			"sh3,41.6290,-4.7110,4\n",
	}
}
