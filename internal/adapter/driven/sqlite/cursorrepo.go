package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fiscalsync/fiscalsync/internal/domain/model"
	"github.com/fiscalsync/fiscalsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CursorStore = (*CursorRepo)(nil)

// CursorRepo is the SQLite implementation of the CursorStore port.
type CursorRepo struct {
	db *DB
}

// NewCursorRepo creates a new CursorRepo backed by the given DB.
func NewCursorRepo(db *DB) *CursorRepo {
	return &CursorRepo{db: db}
}

// Get retrieves the cursor for a stream. Returns nil, nil when the stream
// has never completed a run.
func (r *CursorRepo) Get(ctx context.Context, stream string) (*model.SyncCursor, error) {
	const query = `SELECT stream, last_seen FROM sync_cursors WHERE stream = ?`
	var c model.SyncCursor
	var lastSeen string
	err := r.db.Reader.QueryRowContext(ctx, query, stream).Scan(&c.Stream, &lastSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cursor %q: %w", stream, err)
	}

	c.LastSeen, err = parseTime(lastSeen)
	if err != nil {
		return nil, fmt.Errorf("parse last_seen for cursor %q: %w", stream, err)
	}
	return &c, nil
}

// Advance moves the cursor forward to the given instant. The MAX() guard
// makes it monotonic: a retry over an older window never rolls it back.
func (r *CursorRepo) Advance(ctx context.Context, stream string, to time.Time) error {
	const query = `
		INSERT INTO sync_cursors (stream, last_seen) VALUES (?, ?)
		ON CONFLICT(stream) DO UPDATE SET
			last_seen = MAX(last_seen, excluded.last_seen)
	`
	if _, err := r.db.Writer.ExecContext(ctx, query, stream, formatTime(to)); err != nil {
		return fmt.Errorf("advance cursor %q: %w", stream, err)
	}
	return nil
}
