package notestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const keyLastSync = "last_sync"

// LastSync returns the completion time of the last successful pass, or the zero time.
func (s *NoteStore) LastSync(ctx context.Context) (time.Time, error) {
	if s.db == nil {
		return time.Time{}, ErrNotOpen
	}

	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM sync_meta WHERE key = ?", keyLastSync)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	} else if err != nil {
		return time.Time{}, fmt.Errorf("failed to read last sync: %w", err)
	}

	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse last sync %q: %w", value, err)
	}
	return time.UnixMilli(ms), nil
}

// SetLastSync records the completion time of a successful pass.
func (s *NoteStore) SetLastSync(ctx context.Context, t time.Time) error {
	if s.db == nil {
		return ErrNotOpen
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO sync_meta (key, value) VALUES (?, ?)",
		keyLastSync, strconv.FormatInt(t.UnixMilli(), 10))
	if err != nil {
		return fmt.Errorf("failed to write last sync: %w", err)
	}
	return nil
}
