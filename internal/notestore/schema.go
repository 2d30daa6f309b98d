package notestore

import (
	"fmt"

	"github.com/openmined/notesync/internal/notes"
)

const tablesSchema = `
CREATE TABLE IF NOT EXISTS note (
    id INTEGER PRIMARY KEY,
    parent_id INTEGER NOT NULL DEFAULT 0,
    alert_date INTEGER NOT NULL DEFAULT 0,
    bg_color_id INTEGER NOT NULL DEFAULT 0,
    created_date INTEGER NOT NULL DEFAULT 0,
    has_attachment INTEGER NOT NULL DEFAULT 0,
    modified_date INTEGER NOT NULL DEFAULT 0,
    notes_count INTEGER NOT NULL DEFAULT 0,
    snippet TEXT NOT NULL DEFAULT '',
    type INTEGER NOT NULL DEFAULT 0,
    widget_id INTEGER NOT NULL DEFAULT 0,
    widget_type INTEGER NOT NULL DEFAULT -1,
    sync_id INTEGER NOT NULL DEFAULT 0,
    local_modified INTEGER NOT NULL DEFAULT 0,
    origin_parent_id INTEGER NOT NULL DEFAULT 0,
    remote_id TEXT NOT NULL DEFAULT '',
    version INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS data (
    id INTEGER PRIMARY KEY,
    mime_type TEXT NOT NULL,
    note_id INTEGER NOT NULL DEFAULT 0,
    created_date INTEGER NOT NULL DEFAULT 0,
    modified_date INTEGER NOT NULL DEFAULT 0,
    content TEXT NOT NULL DEFAULT '',
    data1 INTEGER NOT NULL DEFAULT 0,
    data2 INTEGER NOT NULL DEFAULT 0,
    data3 TEXT NOT NULL DEFAULT '',
    data4 TEXT NOT NULL DEFAULT '',
    data5 TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS sync_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_note_parent_id ON note(parent_id);
CREATE INDEX IF NOT EXISTS idx_note_remote_id ON note(remote_id);
CREATE INDEX IF NOT EXISTS idx_data_note_id ON data(note_id);
`

// system folders must exist before the count triggers are installed
var systemFoldersSchema = fmt.Sprintf(`
INSERT OR IGNORE INTO note (id, parent_id, type) VALUES (%d, 0, %d);
INSERT OR IGNORE INTO note (id, parent_id, type) VALUES (%d, 0, %d);
INSERT OR IGNORE INTO note (id, parent_id, type) VALUES (%d, 0, %d);
INSERT OR IGNORE INTO note (id, parent_id, type) VALUES (%d, 0, %d);
`,
	notes.RootFolderID, notes.KindSystem,
	notes.TempFolderID, notes.KindSystem,
	notes.CallRecordFolderID, notes.KindSystem,
	notes.TrashFolderID, notes.KindSystem,
)

var triggersSchema = fmt.Sprintf(`
CREATE TRIGGER IF NOT EXISTS increase_folder_count_on_insert
AFTER INSERT ON note
BEGIN
    UPDATE note SET notes_count = notes_count + 1 WHERE id = new.parent_id;
END;

CREATE TRIGGER IF NOT EXISTS decrease_folder_count_on_delete
AFTER DELETE ON note
BEGIN
    UPDATE note SET notes_count = notes_count - 1 WHERE id = old.parent_id AND notes_count > 0;
END;

CREATE TRIGGER IF NOT EXISTS update_folder_count_on_move
AFTER UPDATE OF parent_id ON note
WHEN old.parent_id <> new.parent_id
BEGIN
    UPDATE note SET notes_count = notes_count + 1 WHERE id = new.parent_id;
    UPDATE note SET notes_count = notes_count - 1 WHERE id = old.parent_id AND notes_count > 0;
END;

CREATE TRIGGER IF NOT EXISTS update_note_content_on_insert
AFTER INSERT ON data
WHEN new.mime_type = '%[1]s'
BEGIN
    UPDATE note SET snippet = new.content WHERE id = new.note_id;
END;

CREATE TRIGGER IF NOT EXISTS update_note_content_on_update
AFTER UPDATE ON data
WHEN old.mime_type = '%[1]s'
BEGIN
    UPDATE note SET snippet = new.content WHERE id = new.note_id;
END;

CREATE TRIGGER IF NOT EXISTS update_note_content_on_delete
AFTER DELETE ON data
WHEN old.mime_type = '%[1]s'
BEGIN
    UPDATE note SET snippet = '' WHERE id = old.note_id;
END;

CREATE TRIGGER IF NOT EXISTS delete_data_on_delete
AFTER DELETE ON note
BEGIN
    DELETE FROM data WHERE note_id = old.id;
END;

CREATE TRIGGER IF NOT EXISTS folder_delete_notes_on_delete
AFTER DELETE ON note
BEGIN
    DELETE FROM note WHERE parent_id = old.id;
END;

CREATE TRIGGER IF NOT EXISTS folder_move_notes_on_trash
AFTER UPDATE ON note
WHEN new.parent_id = %[2]d AND old.parent_id <> %[2]d
BEGIN
    UPDATE note SET parent_id = %[2]d WHERE parent_id = old.id;
END;
`, notes.MimeTextNote, notes.TrashFolderID)
