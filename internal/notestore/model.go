package notestore

import (
	"database/sql"

	"github.com/openmined/notesync/internal/notes"
)

const noteColumns = `id, parent_id, alert_date, bg_color_id, created_date, has_attachment, modified_date,
notes_count, snippet, type, widget_id, widget_type, sync_id, local_modified, origin_parent_id, remote_id, version`

const dataColumns = `id, mime_type, note_id, created_date, modified_date, content, data1, data2, data3, data4, data5`

// dbNote mirrors a full note row.
type dbNote struct {
	ID             sql.NullInt64 `db:"id"`
	ParentID       int64         `db:"parent_id"`
	AlertDate      int64         `db:"alert_date"`
	BgColorID      int           `db:"bg_color_id"`
	CreatedDate    int64         `db:"created_date"`
	HasAttachment  bool          `db:"has_attachment"`
	ModifiedDate   int64         `db:"modified_date"`
	NotesCount     int           `db:"notes_count"`
	Snippet        string        `db:"snippet"`
	Type           notes.Kind    `db:"type"`
	WidgetID       int64         `db:"widget_id"`
	WidgetType     int           `db:"widget_type"`
	SyncID         int64         `db:"sync_id"`
	LocalModified  bool          `db:"local_modified"`
	OriginParentID int64         `db:"origin_parent_id"`
	RemoteID       string        `db:"remote_id"`
	Version        int64         `db:"version"`
}

func (n *dbNote) info() notes.NoteInfo {
	info := notes.NoteInfo{
		ParentID:       n.ParentID,
		AlertDate:      n.AlertDate,
		BgColorID:      n.BgColorID,
		CreatedDate:    n.CreatedDate,
		HasAttachment:  n.HasAttachment,
		ModifiedDate:   n.ModifiedDate,
		NotesCount:     n.NotesCount,
		Snippet:        n.Snippet,
		Type:           n.Type,
		WidgetID:       n.WidgetID,
		WidgetType:     n.WidgetType,
		OriginParentID: n.OriginParentID,
	}
	if n.ID.Valid {
		info.ID = notes.Int64(n.ID.Int64)
	}
	return info
}

func newDbNote(info *notes.NoteInfo) *dbNote {
	now := nowMillis()
	n := &dbNote{
		ParentID:       info.ParentID,
		AlertDate:      info.AlertDate,
		BgColorID:      info.BgColorID,
		CreatedDate:    info.CreatedDate,
		HasAttachment:  info.HasAttachment,
		ModifiedDate:   info.ModifiedDate,
		Snippet:        info.Snippet,
		Type:           info.Type,
		WidgetID:       info.WidgetID,
		WidgetType:     info.WidgetType,
		OriginParentID: info.OriginParentID,
	}
	if info.ID != nil {
		n.ID = sql.NullInt64{Int64: *info.ID, Valid: true}
	}
	if n.CreatedDate == 0 {
		n.CreatedDate = now
	}
	if n.ModifiedDate == 0 {
		n.ModifiedDate = now
	}
	if n.WidgetType == 0 && n.WidgetID == 0 {
		n.WidgetType = notes.DefaultWidgetType
	}
	return n
}

// dbData mirrors a data row.
type dbData struct {
	ID           sql.NullInt64 `db:"id"`
	MimeType     string        `db:"mime_type"`
	NoteID       int64         `db:"note_id"`
	CreatedDate  int64         `db:"created_date"`
	ModifiedDate int64         `db:"modified_date"`
	Content      string        `db:"content"`
	Data1        int64         `db:"data1"`
	Data2        int64         `db:"data2"`
	Data3        string        `db:"data3"`
	Data4        string        `db:"data4"`
	Data5        string        `db:"data5"`
}

func (d *dbData) info() *notes.DataInfo {
	info := &notes.DataInfo{
		MimeType:     d.MimeType,
		CreatedDate:  d.CreatedDate,
		ModifiedDate: d.ModifiedDate,
		Content:      d.Content,
		Data1:        d.Data1,
		Data2:        d.Data2,
		Data3:        d.Data3,
		Data4:        d.Data4,
		Data5:        d.Data5,
	}
	if d.ID.Valid {
		info.ID = notes.Int64(d.ID.Int64)
	}
	return info
}

func newDbData(noteID int64, info *notes.DataInfo) *dbData {
	now := nowMillis()
	d := &dbData{
		MimeType:     info.MimeType,
		NoteID:       noteID,
		CreatedDate:  info.CreatedDate,
		ModifiedDate: info.ModifiedDate,
		Content:      info.Content,
		Data1:        info.Data1,
		Data2:        info.Data2,
		Data3:        info.Data3,
		Data4:        info.Data4,
		Data5:        info.Data5,
	}
	if d.MimeType == "" {
		d.MimeType = notes.MimeTextNote
	}
	if info.ID != nil {
		d.ID = sql.NullInt64{Int64: *info.ID, Valid: true}
	}
	if d.CreatedDate == 0 {
		d.CreatedDate = now
	}
	if d.ModifiedDate == 0 {
		d.ModifiedDate = now
	}
	return d
}
