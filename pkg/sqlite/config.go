package sqlite

import "time"

type Config struct {
	Path         string        `env:"SQLITE_PATH" envDefault:"fsmkit.db"`   // Path is the database file; ":memory:" keeps everything in process.
	BusyTimeout  time.Duration `env:"SQLITE_BUSY_TIMEOUT" envDefault:"5s"`  // BusyTimeout is how long a writer waits for a lock.
	MaxOpenConns int           `env:"SQLITE_MAX_OPEN_CONNS" envDefault:"1"` // MaxOpenConns limits concurrent connections; SQLite has a single writer.
}
