// Package db opens the SQLite deployment ledger and applies its migrations.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
)

// SQLite DSN parameters for production hardening.
const (
	defaultBusyTimeout = "5000" // 5 seconds
	defaultSynchronous = "NORMAL"
	defaultJournalMode = "WAL"
)

// Mode selects how a pool is sized and locked.
type Mode string

const (
	// ModeWrite is one connection whose transactions take the write lock immediately.
	ModeWrite Mode = "write"
	// ModeRead allows up to maxOpen concurrent readers (0 means 4).
	ModeRead Mode = "read"
)

// OpenSQLite opens a *sql.DB pool for the given SQLite file path.
func OpenSQLite(path string, mode Mode, maxOpen int) (*sql.DB, error) {
	if mode != ModeRead && mode != ModeWrite {
		return nil, fmt.Errorf("invalid SQLite mode %q: must be \"read\" or \"write\"", mode)
	}

	db, err := sql.Open("sqlite3", buildDSN(path, mode))
	if err != nil {
		return nil, fmt.Errorf("open sqlite (%s): %w", mode, err)
	}

	switch mode {
	case ModeWrite:
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	case ModeRead:
		if maxOpen <= 0 {
			maxOpen = 4
		}
		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(maxOpen)
	}
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite (%s): %w", mode, err)
	}
	return db, nil
}

// Ledger is the pair of pools used by the deployment repository. Writes go
// through a single connection so that versions are assigned serially.
type Ledger struct {
	Write *sql.DB
	Read  *sql.DB
}

// Open opens the ledger at path and migrates it to the latest schema.
func Open(path string, readMaxOpen int) (*Ledger, error) {
	write, err := OpenSQLite(path, ModeWrite, 0)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(write); err != nil {
		_ = write.Close()
		return nil, err
	}
	read, err := OpenSQLite(path, ModeRead, readMaxOpen)
	if err != nil {
		_ = write.Close()
		return nil, err
	}
	return &Ledger{Write: write, Read: read}, nil
}

// Close closes both pools.
func (l *Ledger) Close() error {
	rerr := l.Read.Close()
	if err := l.Write.Close(); err != nil {
		return err
	}
	return rerr
}

// buildDSN constructs a SQLite DSN with hardened parameters.
func buildDSN(path string, mode Mode) string {
	params := url.Values{}
	params.Set("_journal_mode", defaultJournalMode)
	params.Set("_busy_timeout", defaultBusyTimeout)
	params.Set("_synchronous", defaultSynchronous)
	params.Set("_foreign_keys", "on")
	if mode == ModeWrite {
		params.Set("_txlock", "immediate")
	}
	return path + "?" + params.Encode()
}
