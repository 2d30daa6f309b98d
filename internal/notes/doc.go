package notes

import "strings"

// NoteInfo is the note part of a structured document. ID is nil when the
// document was produced remotely without a local origin.
type NoteInfo struct {
	ID             *int64 `json:"id,omitempty" yaml:"id,omitempty"`
	ParentID       int64  `json:"parent_id" yaml:"parent_id"`
	AlertDate      int64  `json:"alert_date" yaml:"alert_date"`
	BgColorID      int    `json:"bg_color_id" yaml:"bg_color_id"`
	CreatedDate    int64  `json:"created_date" yaml:"created_date"`
	HasAttachment  bool   `json:"has_attachment" yaml:"has_attachment"`
	ModifiedDate   int64  `json:"modified_date" yaml:"modified_date"`
	NotesCount     int    `json:"notes_count" yaml:"notes_count"`
	Snippet        string `json:"snippet" yaml:"snippet"`
	Type           Kind   `json:"type" yaml:"type"`
	WidgetID       int64  `json:"widget_id" yaml:"widget_id"`
	WidgetType     int    `json:"widget_type" yaml:"widget_type"`
	OriginParentID int64  `json:"origin_parent_id" yaml:"origin_parent_id"`
}

// DataInfo is one content row of a note.
type DataInfo struct {
	ID           *int64 `json:"id,omitempty" yaml:"id,omitempty"`
	MimeType     string `json:"mime_type" yaml:"mime_type"`
	CreatedDate  int64  `json:"created_date" yaml:"created_date"`
	ModifiedDate int64  `json:"modified_date" yaml:"modified_date"`
	Content      string `json:"content" yaml:"content"`
	Data1        int64  `json:"data1" yaml:"data1"`
	Data2        int64  `json:"data2" yaml:"data2"`
	Data3        string `json:"data3" yaml:"data3"`
	Data4        string `json:"data4" yaml:"data4"`
	Data5        string `json:"data5" yaml:"data5"`
}

// NoteDoc is the structured form of a local row: the note itself plus, for
// notes, its content rows.
type NoteDoc struct {
	Note NoteInfo    `json:"meta_note" yaml:"note"`
	Data []*DataInfo `json:"meta_data,omitempty" yaml:"data,omitempty"`
}

// ShadowDoc is the payload of a shadow record: a NoteDoc tagged with the
// remote id of the task it shadows.
type ShadowDoc struct {
	RemoteID string `json:"meta_gid"`
	NoteDoc
}

// TextData returns the first plain text content row, or nil.
func (d *NoteDoc) TextData() *DataInfo {
	for _, data := range d.Data {
		if data.MimeType == MimeTextNote {
			return data
		}
	}
	return nil
}

// Text returns the note's plain text content.
func (d *NoteDoc) Text() string {
	if data := d.TextData(); data != nil {
		return data.Content
	}
	return ""
}

// Clone returns a deep copy of the document.
func (d *NoteDoc) Clone() *NoteDoc {
	if d == nil {
		return nil
	}
	out := &NoteDoc{Note: d.Note}
	if d.Note.ID != nil {
		id := *d.Note.ID
		out.Note.ID = &id
	}
	for _, data := range d.Data {
		cp := *data
		if data.ID != nil {
			id := *data.ID
			cp.ID = &id
		}
		out.Data = append(out.Data, &cp)
	}
	return out
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 {
	return &v
}

// FolderListName is the remote list name for a user folder.
func FolderListName(name string) string {
	return FolderPrefix + name
}

// TrimFolderPrefix strips the remote folder prefix, if present.
func TrimFolderPrefix(name string) string {
	return strings.TrimPrefix(name, FolderPrefix)
}
