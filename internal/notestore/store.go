// Package notestore is the local note database: notes, folders and their content rows,
// plus the bookkeeping columns sync relies on (remote_id, sync_id, local_modified, version).
package notestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/openmined/notesync/internal/db"
)

var (
	ErrNotOpen         = errors.New("notestore: not open")
	ErrAlreadyOpen     = errors.New("notestore: already open")
	ErrNoteNotFound    = errors.New("notestore: note not found")
	ErrFolderNotFound  = errors.New("notestore: folder not found")
	ErrFolderExists    = errors.New("notestore: folder already exists")
	ErrVersionConflict = errors.New("notestore: version conflict")
	ErrReservedFolder  = errors.New("notestore: reserved folder")
	ErrEmptyNote       = errors.New("notestore: note is empty")
)

// NoteStore is the sqlite backed local store.
type NoteStore struct {
	db     *sqlx.DB
	dbPath string
}

// NewNoteStore returns a store for dbPath. Use ":memory:" for an ephemeral store.
func NewNoteStore(dbPath string) *NoteStore {
	return &NoteStore{dbPath: dbPath}
}

// Open opens the database and makes sure the schema, the system folders and the triggers exist.
func (s *NoteStore) Open() error {
	if s.db != nil {
		return ErrAlreadyOpen
	}

	// single connection: sqlite serializes writers anyway, and an in-memory db only lives on one connection
	sqlDB, err := db.NewSqliteDb(db.WithPath(s.dbPath), db.WithMaxOpenConns(1))
	if err != nil {
		return fmt.Errorf("failed to open note store: %w", err)
	}

	for _, stmt := range []string{tablesSchema, systemFoldersSchema, triggersSchema} {
		if _, err := sqlDB.Exec(stmt); err != nil {
			sqlDB.Close()
			return fmt.Errorf("failed to initialize note schema: %w", err)
		}
	}

	s.db = sqlDB
	slog.Debug("note store open", "path", s.dbPath)
	return nil
}

// Close closes the underlying database.
func (s *NoteStore) Close() error {
	if s.db == nil {
		return ErrNotOpen
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return fmt.Errorf("failed to close note store: %w", err)
	}
	return nil
}

func (s *NoteStore) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if s.db == nil {
		return ErrNotOpen
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Warn("note store rollback", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
