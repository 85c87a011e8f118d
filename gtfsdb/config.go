package gtfsdb

import "paradero.urbanbus.org/internal/appconf"

// Config controls where the timetable database lives and how chatty the
// import is.
type Config struct {
	DBPath  string
	Env     appconf.Environment
	verbose bool
}

// NewConfig creates a Config for the given database path and environment.
func NewConfig(dbPath string, env appconf.Environment, verbose bool) Config {
	return Config{
		DBPath:  dbPath,
		Env:     env,
		verbose: verbose,
	}
}
