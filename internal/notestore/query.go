package notestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/openmined/notesync/internal/notes"
)

// RowFilter selects a set of local rows.
type RowFilter int

const (
	// FilterTrashed selects non-system rows sitting in the trash.
	FilterTrashed RowFilter = iota
	// FilterFolders selects user folders outside the trash.
	FilterFolders
	// FilterNotes selects notes outside the trash.
	FilterNotes
	// FilterSyncable selects every non-system row outside the trash, folders first.
	FilterSyncable
)

const rowColumns = `id, parent_id, type, snippet, modified_date, sync_id, local_modified, remote_id, version`

func (f RowFilter) where() (string, []any) {
	switch f {
	case FilterTrashed:
		return "type <> ? AND parent_id = ?", []any{notes.KindSystem, notes.TrashFolderID}
	case FilterFolders:
		return "type = ? AND parent_id <> ?", []any{notes.KindFolder, notes.TrashFolderID}
	case FilterNotes:
		return "type = ? AND parent_id <> ?", []any{notes.KindNote, notes.TrashFolderID}
	default:
		return "type <> ? AND parent_id <> ?", []any{notes.KindSystem, notes.TrashFolderID}
	}
}

// QueryRows returns the rows matching filter, folders before notes and then by id.
func (s *NoteStore) QueryRows(ctx context.Context, filter RowFilter) ([]*notes.Row, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	where, args := filter.where()
	query := "SELECT " + rowColumns + " FROM note WHERE " + where + " ORDER BY type DESC, id ASC"

	var rows []*notes.Row
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	return rows, nil
}

// Row returns a single row by id.
func (s *NoteStore) Row(ctx context.Context, id int64) (*notes.Row, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	var row notes.Row
	err := s.db.GetContext(ctx, &row, "SELECT "+rowColumns+" FROM note WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNoteNotFound, id)
	} else if err != nil {
		return nil, fmt.Errorf("failed to query row %d: %w", id, err)
	}
	return &row, nil
}

// Children returns the rows directly under parentID.
func (s *NoteStore) Children(ctx context.Context, parentID int64) ([]*notes.Row, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	var rows []*notes.Row
	query := "SELECT " + rowColumns + " FROM note WHERE parent_id = ? AND id <> ? ORDER BY type DESC, modified_date DESC"
	if err := s.db.SelectContext(ctx, &rows, query, parentID, parentID); err != nil {
		return nil, fmt.Errorf("failed to query children of %d: %w", parentID, err)
	}
	return rows, nil
}

// QueryContent returns the structured document of a row. Data rows are only loaded for notes.
func (s *NoteStore) QueryContent(ctx context.Context, id int64) (*notes.NoteDoc, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}
	return queryContent(ctx, s.db, id)
}

func queryContent(ctx context.Context, q sqlx.QueryerContext, id int64) (*notes.NoteDoc, error) {
	var n dbNote
	err := sqlx.GetContext(ctx, q, &n, "SELECT "+noteColumns+" FROM note WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNoteNotFound, id)
	} else if err != nil {
		return nil, fmt.Errorf("failed to query note %d: %w", id, err)
	}

	doc := &notes.NoteDoc{Note: n.info()}
	if n.Type != notes.KindNote {
		return doc, nil
	}

	var data []dbData
	if err := sqlx.SelectContext(ctx, q, &data, "SELECT "+dataColumns+" FROM data WHERE note_id = ? ORDER BY id", id); err != nil {
		return nil, fmt.Errorf("failed to query data of note %d: %w", id, err)
	}
	for i := range data {
		doc.Data = append(doc.Data, data[i].info())
	}
	return doc, nil
}

// NoteExists reports whether a note row with id exists.
func (s *NoteStore) NoteExists(ctx context.Context, id int64) (bool, error) {
	return s.exists(ctx, "SELECT COUNT(1) FROM note WHERE id = ?", id)
}

// DataExists reports whether a data row with id exists.
func (s *NoteStore) DataExists(ctx context.Context, id int64) (bool, error) {
	return s.exists(ctx, "SELECT COUNT(1) FROM data WHERE id = ?", id)
}

func (s *NoteStore) exists(ctx context.Context, query string, id int64) (bool, error) {
	if s.db == nil {
		return false, ErrNotOpen
	}
	var n int
	if err := s.db.GetContext(ctx, &n, query, id); err != nil {
		return false, fmt.Errorf("failed to check existence of %d: %w", id, err)
	}
	return n > 0, nil
}

// PendingChanges counts rows edited locally since the last pass.
func (s *NoteStore) PendingChanges(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, ErrNotOpen
	}
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(1) FROM note WHERE type <> ? AND (local_modified = 1 OR remote_id = '')",
		notes.KindSystem)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending changes: %w", err)
	}
	return n, nil
}
