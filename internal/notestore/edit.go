package notestore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/openmined/notesync/internal/notes"
)

// The methods below are the user-facing edit surface. Every edit marks the row
// as locally modified so the next pass pushes it.

// CreateFolder adds a user folder under the root.
func (s *NoteStore) CreateFolder(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("folder name cannot be empty")
	}

	var id int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var n int
		err := tx.GetContext(ctx, &n,
			"SELECT COUNT(1) FROM note WHERE type = ? AND parent_id <> ? AND snippet = ?",
			notes.KindFolder, notes.TrashFolderID, name)
		if err != nil {
			return fmt.Errorf("failed to check folder name: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("%w: %q", ErrFolderExists, name)
		}

		row := newDbNote(&notes.NoteInfo{Type: notes.KindFolder, Snippet: name})
		row.ParentID = notes.RootFolderID
		row.LocalModified = true
		res, err := tx.NamedExecContext(ctx, insertNoteQuery, row)
		if err != nil {
			return fmt.Errorf("failed to insert folder: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

// RenameFolder changes a user folder's name.
func (s *NoteStore) RenameFolder(ctx context.Context, id int64, name string) error {
	if notes.IsReserved(id) {
		return fmt.Errorf("%w: %d", ErrReservedFolder, id)
	}
	return s.touch(ctx, id, notes.KindFolder, "snippet = ?", strings.TrimSpace(name))
}

// CreateNote adds a plain text note to folderID.
func (s *NoteStore) CreateNote(ctx context.Context, folderID int64, content string) (int64, error) {
	if strings.TrimSpace(content) == "" {
		return 0, ErrEmptyNote
	}

	var id int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := checkFolder(ctx, tx, folderID); err != nil {
			return err
		}

		row := newDbNote(&notes.NoteInfo{Type: notes.KindNote, ParentID: folderID})
		row.LocalModified = true
		res, err := tx.NamedExecContext(ctx, insertNoteQuery, row)
		if err != nil {
			return fmt.Errorf("failed to insert note: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		return insertData(ctx, tx, id, &notes.DataInfo{MimeType: notes.MimeTextNote, Content: content})
	})
	return id, err
}

// UpdateNote replaces the plain text content of a note.
func (s *NoteStore) UpdateNote(ctx context.Context, id int64, content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyNote
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := touchTx(ctx, tx, id, notes.KindNote, ""); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			"UPDATE data SET content = ?, modified_date = ? WHERE note_id = ? AND mime_type = ?",
			content, nowMillis(), id, notes.MimeTextNote)
		if err != nil {
			return fmt.Errorf("failed to update note %d: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return insertData(ctx, tx, id, &notes.DataInfo{MimeType: notes.MimeTextNote, Content: content})
		}
		return nil
	})
}

// MoveNotes moves notes into another folder.
func (s *NoteStore) MoveNotes(ctx context.Context, ids []int64, folderID int64) error {
	return s.BatchMove(ctx, ids, folderID)
}

// DeleteNotes deletes notes or folders. With syncMode the rows are moved to the
// trash so the next pass can propagate the deletion, otherwise they are removed.
func (s *NoteStore) DeleteNotes(ctx context.Context, ids []int64, syncMode bool) error {
	for _, id := range ids {
		if notes.IsReserved(id) {
			return fmt.Errorf("%w: %d", ErrReservedFolder, id)
		}
	}
	if syncMode {
		return s.BatchMove(ctx, ids, notes.TrashFolderID)
	}
	return s.BatchDelete(ctx, ids)
}

func (s *NoteStore) touch(ctx context.Context, id int64, kind notes.Kind, set string, args ...any) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		return touchTx(ctx, tx, id, kind, set, args...)
	})
}

// touchTx marks a row of the given kind as locally modified, applying an extra SET clause if any.
func touchTx(ctx context.Context, tx *sqlx.Tx, id int64, kind notes.Kind, set string, args ...any) error {
	query := "UPDATE note SET local_modified = 1, modified_date = ?, version = version + 1"
	if set != "" {
		query += ", " + set
	}
	query += " WHERE id = ? AND type = ?"

	params := append([]any{nowMillis()}, args...)
	params = append(params, id, kind)
	res, err := tx.ExecContext(ctx, query, params...)
	if err != nil {
		return fmt.Errorf("failed to update %s %d: %w", kind, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s %d", ErrNoteNotFound, kind, id)
	}
	return nil
}

func checkFolder(ctx context.Context, tx *sqlx.Tx, folderID int64) error {
	if folderID == notes.TrashFolderID || folderID == notes.TempFolderID {
		return fmt.Errorf("%w: cannot add notes to %d", ErrReservedFolder, folderID)
	}
	var n int
	err := tx.GetContext(ctx, &n,
		"SELECT COUNT(1) FROM note WHERE id = ? AND type <> ? AND parent_id <> ?",
		folderID, notes.KindNote, notes.TrashFolderID)
	if err != nil {
		return fmt.Errorf("failed to check folder %d: %w", folderID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrFolderNotFound, folderID)
	}
	return nil
}
