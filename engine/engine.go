package engine

import (
	"database/sql"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

// DriverName is the database/sql driver name registered by modernc.org/sqlite.
const DriverName = "sqlite"

// Open opens a SQLite database using the modernc.org/sqlite driver. Date
// functions are registered first so every connection in the pool sees them.
//
// For file-based databases, pass a path like "./cdm.sqlite". Note that each
// pooled connection to ":memory:" gets its own empty database; use a file (or
// SetMaxOpenConns(1)) when builders run concurrently.
func Open(dsn string) (*sql.DB, error) {
	if err := RegisterFunctions(); err != nil {
		return nil, err
	}
	return sql.Open(DriverName, dsn)
}
