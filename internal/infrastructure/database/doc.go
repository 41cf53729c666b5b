// Package database provides SQLite connection management for the bridge's
// local storage.
//
// The bridge keeps one small SQLite database holding the device
// state-history table (see the history package, which owns its schema).
// This package handles the connection lifecycle only:
//
//   - Opening the database file (creating directory and file as needed)
//   - WAL mode and busy-timeout pragmas
//   - Restrictive file permissions (0600)
//   - Connection verification and health checks
//
// # Usage
//
//	db, err := database.Open(database.Config{
//	    Path:        cfg.Database.Path,
//	    WALMode:     cfg.Database.WALMode,
//	    BusyTimeout: cfg.Database.BusyTimeout,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
// # Concurrency
//
// SQLite allows one writer at a time. The pool is capped at a single
// connection; callers see ordinary database/sql semantics.
package database
