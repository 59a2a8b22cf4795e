// Package journal keeps an audit trail of depot mutations in SQLite.
package journal

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"filedepot/internal/depot"

	_ "github.com/mattn/go-sqlite3"
)

var (
	//go:embed migrations
	migrationsFS embed.FS
)

// DefaultLimit is the number of events Recent returns when no positive
// limit is given.
const DefaultLimit = 50

// Journal records depot events. It implements depot.Journal.
type Journal struct {
	db *sql.DB
}

// initSchema applies all SQL files in the embedded migrations in
// lexicographical order.
func initSchema(ctx context.Context, db *sql.DB) error {
	return fs.WalkDir(migrationsFS, "migrations", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		content, readError := migrationsFS.ReadFile(path)
		if readError != nil {
			return fmt.Errorf("error reading SQL file: %w", readError)
		}

		slog.Debug("Running migration", "path", path)
		if _, execError := db.ExecContext(ctx, string(content)); execError != nil {
			return fmt.Errorf("apply %s: %w", path, execError)
		}
		return nil
	})
}

// Open opens (creating if needed) the journal database at path.
func Open(ctx context.Context, path string) (*Journal, error) {
	if path == "" {
		return nil, errors.New("journal path must not be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// SQLite allows a single writer; serializing here avoids SQLITE_BUSY
	// under concurrent uploads.
	db.SetMaxOpenConns(1)

	if err := initSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Journal{db: db}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) Record(ctx context.Context, e depot.Event) error {
	var newName sql.NullString
	if e.NewName != "" {
		newName = sql.NullString{String: e.NewName, Valid: true}
	}

	var requestID sql.NullString
	if e.RequestID != "" {
		requestID = sql.NullString{String: e.RequestID, Valid: true}
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO events(at, area, op, name, new_name, size, request_id)
		 VALUES(?, ?, ?, ?, ?, ?, ?)`,
		e.At.UTC(), e.Area, e.Op, e.Name, newName, e.Size, requestID,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Recent returns the newest events first. An empty area selects all areas.
func (j *Journal) Recent(ctx context.Context, area string, limit int) ([]depot.Event, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, at, area, op, name, new_name, size, request_id
		 FROM events
		 WHERE ? = '' OR area = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		area, area, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := make([]depot.Event, 0, limit)
	for rows.Next() {
		var (
			e         depot.Event
			newName   sql.NullString
			requestID sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.At, &e.Area, &e.Op, &e.Name, &newName, &e.Size, &requestID); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.NewName = newName.String
		e.RequestID = requestID.String
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
