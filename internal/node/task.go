package node

import (
	"log/slog"
	"strings"

	"github.com/goccy/go-json"
	"github.com/openmined/notesync/internal/notes"
	"github.com/openmined/notesync/internal/taskwire"
)

// Task mirrors a local note. Its name is the note's plain text; the note's full
// structure lives in the shadow record attached with SetMeta.
type Task struct {
	item
	meta *notes.ShadowDoc
}

func NewTask() *Task {
	return &Task{}
}

// TaskFromRemote builds a task from an inventory entity.
func TaskFromRemote(e *taskwire.Entity) *Task {
	t := &Task{}
	t.setFromRemote(e)
	return t
}

func (t *Task) CreateAction(actionID int) (*taskwire.Action, error) {
	return t.createAction(t, actionID)
}

// SetMeta attaches the shadow payload carried by m. A nil record or one without
// a payload leaves the current shadow in place; an unreadable payload clears it.
func (t *Task) SetMeta(m *MetaData) {
	if m == nil || m.notes == nil {
		return
	}
	var shadow notes.ShadowDoc
	if err := json.Unmarshal([]byte(*m.notes), &shadow); err != nil {
		slog.Warn("task shadow unreadable", "task", t.remoteID, "error", err)
		t.meta = nil
		return
	}
	t.meta = &shadow
}

// Meta returns the attached shadow payload, or nil.
func (t *Task) Meta() *notes.ShadowDoc {
	return t.meta
}

// IsWorthSaving reports whether the task carries anything a note could hold.
func (t *Task) IsWorthSaving() bool {
	return t.meta != nil || strings.TrimSpace(t.name) != "" || (t.notes != nil && strings.TrimSpace(*t.notes) != "")
}

// LocalDoc renders the task as a note document. Without a shadow the document
// is a bare note holding the task name as its text.
func (t *Task) LocalDoc() *notes.NoteDoc {
	if t.meta == nil {
		return &notes.NoteDoc{
			Note: notes.NoteInfo{Type: notes.KindNote},
			Data: []*notes.DataInfo{{MimeType: notes.MimeTextNote, Content: t.name}},
		}
	}

	doc := t.meta.NoteDoc.Clone()
	doc.Note.Type = notes.KindNote
	if data := doc.TextData(); data != nil {
		data.Content = t.name
	} else {
		doc.Data = append(doc.Data, &notes.DataInfo{MimeType: notes.MimeTextNote, Content: t.name})
	}
	return doc
}

// ApplyLocal copies a note's text into the task name.
func (t *Task) ApplyLocal(doc *notes.NoteDoc) error {
	if doc == nil {
		return nil
	}
	if doc.Note.Type != notes.KindNote {
		return ErrNotANote
	}
	if data := doc.TextData(); data != nil {
		t.name = data.Content
	}
	return nil
}

func (t *Task) syncAction(row *notes.Row) SyncAction {
	if t.meta == nil || t.meta.Note.ID == nil {
		slog.Warn("task shadow missing note id", "task", t.remoteID, "row", row.ID)
		return ActionUpdateLocal
	}
	if *t.meta.Note.ID != row.ID {
		slog.Warn("task shadow bound to another note", "task", t.remoteID, "row", row.ID, "shadow", *t.meta.Note.ID)
		return ActionUpdateLocal
	}
	return compareStamps(row, &t.Base)
}
