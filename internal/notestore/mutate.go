package notestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/jmoiron/sqlx"
	"github.com/openmined/notesync/internal/notes"
)

const insertNoteQuery = `
INSERT INTO note (id, parent_id, alert_date, bg_color_id, created_date, has_attachment, modified_date,
    snippet, type, widget_id, widget_type, sync_id, local_modified, origin_parent_id, remote_id, version)
VALUES (:id, :parent_id, :alert_date, :bg_color_id, :created_date, :has_attachment, :modified_date,
    :snippet, :type, :widget_id, :widget_type, :sync_id, :local_modified, :origin_parent_id, :remote_id, :version)`

const insertDataQuery = `
INSERT INTO data (id, mime_type, note_id, created_date, modified_date, content, data1, data2, data3, data4, data5)
VALUES (:id, :mime_type, :note_id, :created_date, :modified_date, :content, :data1, :data2, :data3, :data4, :data5)`

const updateDataQuery = `
UPDATE data SET mime_type = :mime_type, modified_date = :modified_date, content = :content,
    data1 = :data1, data2 = :data2, data3 = :data3, data4 = :data4, data5 = :data5
WHERE id = :id AND note_id = :note_id`

// RowUpdate describes a sync-originated change to one row. Nil fields are left untouched.
type RowUpdate struct {
	ID int64
	// ExpectVersion makes the update conditional on the row still being at this version.
	ExpectVersion *int64
	Doc           *notes.NoteDoc
	ParentID      *int64
	RemoteID      *string
	// ResetLocalModified marks the row as in sync with the remote side.
	ResetLocalModified bool
}

// Insert creates a row from a document on behalf of sync. The row starts out unmodified.
// An id carried by the document is kept when it is still free.
func (s *NoteStore) Insert(ctx context.Context, doc *notes.NoteDoc, parentID int64, remoteID string) (int64, error) {
	if doc == nil {
		return 0, fmt.Errorf("cannot insert nil document")
	}
	if doc.Note.Type == notes.KindSystem {
		return 0, fmt.Errorf("%w: cannot insert system row", ErrReservedFolder)
	}

	var id int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		n := newDbNote(&doc.Note)
		n.ParentID = parentID
		n.RemoteID = remoteID
		if n.Type == notes.KindNote {
			n.Snippet = doc.Text()
		}

		if n.ID.Valid {
			taken, err := rowExists(ctx, tx, "note", n.ID.Int64)
			if err != nil {
				return err
			}
			if taken || notes.IsReserved(n.ID.Int64) {
				n.ID.Valid = false
			}
		}

		res, err := tx.NamedExecContext(ctx, insertNoteQuery, n)
		if err != nil {
			return fmt.Errorf("failed to insert note: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read note id: %w", err)
		}

		if n.Type != notes.KindNote {
			return nil
		}
		for _, data := range doc.Data {
			if err := insertData(ctx, tx, id, data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Update applies a sync-originated change and bumps the row version.
// ErrVersionConflict is returned when ExpectVersion no longer matches.
func (s *NoteStore) Update(ctx context.Context, u *RowUpdate) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var cur struct {
			Type    notes.Kind `db:"type"`
			Version int64      `db:"version"`
		}
		err := tx.GetContext(ctx, &cur, "SELECT type, version FROM note WHERE id = ?", u.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %d", ErrNoteNotFound, u.ID)
		} else if err != nil {
			return fmt.Errorf("failed to read note %d: %w", u.ID, err)
		}
		if u.ExpectVersion != nil && *u.ExpectVersion != cur.Version {
			return fmt.Errorf("%w: row %d at version %d, expected %d", ErrVersionConflict, u.ID, cur.Version, *u.ExpectVersion)
		}

		sets := []string{"version = version + 1"}
		args := []any{}

		if u.Doc != nil {
			info := u.Doc.Note
			switch cur.Type {
			case notes.KindFolder:
				sets = append(sets, "snippet = ?")
				args = append(args, info.Snippet)
			case notes.KindNote:
				sets = append(sets, "alert_date = ?", "bg_color_id = ?", "has_attachment = ?", "widget_id = ?", "widget_type = ?")
				args = append(args, info.AlertDate, info.BgColorID, info.HasAttachment, info.WidgetID, info.WidgetType)
				if info.ModifiedDate > 0 {
					sets = append(sets, "modified_date = ?")
					args = append(args, info.ModifiedDate)
				}
			}
		}
		if u.ParentID != nil {
			sets = append(sets, "parent_id = ?")
			args = append(args, *u.ParentID)
		}
		if u.RemoteID != nil {
			sets = append(sets, "remote_id = ?")
			args = append(args, *u.RemoteID)
		}
		if u.ResetLocalModified {
			sets = append(sets, "local_modified = 0")
		}

		query := "UPDATE note SET " + strings.Join(sets, ", ") + " WHERE id = ? AND version = ?"
		args = append(args, u.ID, cur.Version)
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update note %d: %w", u.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: row %d", ErrVersionConflict, u.ID)
		}

		if u.Doc == nil || cur.Type != notes.KindNote {
			return nil
		}
		for _, data := range u.Doc.Data {
			if err := upsertData(ctx, tx, u.ID, data); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetSyncID records the remote last-modified value observed for a row.
// It does not bump the version and leaves local_modified alone.
func (s *NoteStore) SetSyncID(ctx context.Context, id int64, syncID int64) error {
	if s.db == nil {
		return ErrNotOpen
	}
	res, err := s.db.ExecContext(ctx, "UPDATE note SET sync_id = ? WHERE id = ?", syncID, id)
	if err != nil {
		return fmt.Errorf("failed to set sync id of %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", ErrNoteNotFound, id)
	}
	return nil
}

// BatchDelete removes rows (and, through triggers, their content and children) in one transaction.
// Reserved folders are skipped.
func (s *NoteStore) BatchDelete(ctx context.Context, ids []int64) error {
	set := mapset.NewThreadUnsafeSet[int64]()
	for _, id := range ids {
		if !notes.IsReserved(id) {
			set.Add(id)
		}
	}
	if set.Cardinality() == 0 {
		return nil
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := sqlx.In("DELETE FROM note WHERE id IN (?)", set.ToSlice())
		if err != nil {
			return fmt.Errorf("failed to build batch delete: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("failed to batch delete %d rows: %w", len(args), err)
		}
		return nil
	})
}

// BatchMove moves rows under dest in one transaction, remembering where they came from.
func (s *NoteStore) BatchMove(ctx context.Context, ids []int64, dest int64) error {
	set := mapset.NewThreadUnsafeSet[int64]()
	for _, id := range ids {
		if id != dest && !notes.IsReserved(id) {
			set.Add(id)
		}
	}
	if set.Cardinality() == 0 {
		return nil
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var destType notes.Kind
		if err := tx.GetContext(ctx, &destType, "SELECT type FROM note WHERE id = ?", dest); err != nil {
			return fmt.Errorf("%w: %d", ErrFolderNotFound, dest)
		}
		if destType == notes.KindNote {
			return fmt.Errorf("%w: %d is a note", ErrFolderNotFound, dest)
		}

		query, args, err := sqlx.In(`
			UPDATE note SET origin_parent_id = parent_id, parent_id = ?, local_modified = 1, version = version + 1
			WHERE id IN (?)`, dest, set.ToSlice())
		if err != nil {
			return fmt.Errorf("failed to build batch move: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("failed to batch move to %d: %w", dest, err)
		}
		return nil
	})
}

func rowExists(ctx context.Context, tx *sqlx.Tx, table string, id int64) (bool, error) {
	var n int
	if err := tx.GetContext(ctx, &n, "SELECT COUNT(1) FROM "+table+" WHERE id = ?", id); err != nil {
		return false, fmt.Errorf("failed to check %s %d: %w", table, id, err)
	}
	return n > 0, nil
}

func insertData(ctx context.Context, tx *sqlx.Tx, noteID int64, info *notes.DataInfo) error {
	d := newDbData(noteID, info)
	if d.ID.Valid {
		taken, err := rowExists(ctx, tx, "data", d.ID.Int64)
		if err != nil {
			return err
		}
		if taken {
			d.ID.Valid = false
		}
	}
	if _, err := tx.NamedExecContext(ctx, insertDataQuery, d); err != nil {
		return fmt.Errorf("failed to insert data for note %d: %w", noteID, err)
	}
	return nil
}

// upsertData updates a content row in place. A row whose id is missing, or
// belongs to another note (ids carried over from another device), replaces
// the note's existing row of the same MIME type, if there is one.
func upsertData(ctx context.Context, tx *sqlx.Tx, noteID int64, info *notes.DataInfo) error {
	if info.ID != nil {
		ok, err := updateData(ctx, tx, noteID, info)
		if err != nil || ok {
			return err
		}
	}

	var existing int64
	err := tx.GetContext(ctx, &existing, "SELECT id FROM data WHERE note_id = ? AND mime_type = ? ORDER BY id LIMIT 1", noteID, info.MimeType)
	if errors.Is(err, sql.ErrNoRows) {
		return insertData(ctx, tx, noteID, info)
	} else if err != nil {
		return fmt.Errorf("failed to look up data of note %d: %w", noteID, err)
	}

	cp := *info
	cp.ID = &existing
	_, err = updateData(ctx, tx, noteID, &cp)
	return err
}

func updateData(ctx context.Context, tx *sqlx.Tx, noteID int64, info *notes.DataInfo) (bool, error) {
	d := newDbData(noteID, info)
	d.ModifiedDate = nowMillis()
	res, err := tx.NamedExecContext(ctx, updateDataQuery, d)
	if err != nil {
		return false, fmt.Errorf("failed to update data %d: %w", *info.ID, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
