package gallery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteBackend stores the payload as one row in a records table, keyed by
// record name, so several galleries can share a database file.
type SQLiteBackend struct {
	db   *sql.DB
	name string
}

const createRecordsTable = `
CREATE TABLE IF NOT EXISTS records (
	name       TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// OpenSQLite opens (creating if needed) the database at path and prepares
// the schema. Use ":memory:" for an ephemeral database.
func OpenSQLite(ctx context.Context, path, recordName string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, createRecordsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create records table: %w", err)
	}

	if recordName == "" {
		recordName = DefaultRecordName
	}
	return &SQLiteBackend{db: db, name: recordName}, nil
}

func (b *SQLiteBackend) Read(ctx context.Context) ([]byte, bool, error) {
	var payload []byte
	err := b.db.QueryRowContext(ctx, `SELECT payload FROM records WHERE name = ?`, b.name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query record %q: %w", b.name, err)
	}
	return payload, true, nil
}

func (b *SQLiteBackend) Write(ctx context.Context, data []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO records (name, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		b.name, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert record %q: %w", b.name, err)
	}
	return nil
}

func (b *SQLiteBackend) Name() string { return "sqlite" }

// Close releases the database handle.
func (b *SQLiteBackend) Close() error { return b.db.Close() }
