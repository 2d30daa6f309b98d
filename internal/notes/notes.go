// Package notes holds the local note vocabulary shared by the store, the entity
// model and the sync orchestrator.
package notes

// Kind is the type column of a local row.
type Kind int

const (
	KindNote   Kind = 0
	KindFolder Kind = 1
	KindSystem Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindNote:
		return "note"
	case KindFolder:
		return "folder"
	case KindSystem:
		return "system"
	default:
		return "unknown"
	}
}

// Reserved folder ids. These rows exist from schema creation and are never deleted.
const (
	RootFolderID       int64 = 0
	TempFolderID       int64 = -1
	CallRecordFolderID int64 = -2
	TrashFolderID      int64 = -3
)

// IsReserved reports whether id is one of the system folders.
func IsReserved(id int64) bool {
	return id <= RootFolderID && id >= TrashFolderID
}

const (
	MimeTextNote = "vnd.android.cursor.item/text_note"
	MimeCallNote = "vnd.android.cursor.item/call_note"
)

// Remote naming conventions.
const (
	FolderPrefix     = "[MIUI_Notes]"
	FolderDefault    = "Default"
	FolderCallNote   = "Call_Note"
	FolderMeta       = "METADATA"
	MetaListName     = FolderPrefix + FolderMeta
	DefaultListName  = FolderPrefix + FolderDefault
	CallNoteListName = FolderPrefix + FolderCallNote
	MetaNoteName     = "[META INFO] DON'T UPDATE AND DELETE"
)

const DefaultWidgetType = -1

// Row is the projection of a local note row consumed by sync.
type Row struct {
	ID            int64  `db:"id"`
	ParentID      int64  `db:"parent_id"`
	Type          Kind   `db:"type"`
	Snippet       string `db:"snippet"`
	ModifiedDate  int64  `db:"modified_date"`
	SyncID        int64  `db:"sync_id"`
	LocalModified bool   `db:"local_modified"`
	RemoteID      string `db:"remote_id"`
	Version       int64  `db:"version"`
}

func (r *Row) IsNote() bool {
	return r.Type == KindNote
}

// Synced reports whether the row was bound to a remote node by an earlier pass.
func (r *Row) Synced() bool {
	return r.RemoteID != ""
}
