package node

import (
	"log/slog"

	"github.com/openmined/notesync/internal/notes"
	"github.com/openmined/notesync/internal/taskwire"
)

// TaskList mirrors a local folder and owns an ordered set of children.
type TaskList struct {
	Base
	index    int
	children []Child
}

func NewTaskList(name string) *TaskList {
	return &TaskList{Base: Base{name: name}, index: 1}
}

// TaskListFromRemote builds a list from an inventory entity.
func TaskListFromRemote(e *taskwire.Entity) *TaskList {
	return &TaskList{
		Base: Base{
			remoteID:     e.ID,
			name:         e.Name,
			lastModified: e.LastModified,
			deleted:      e.Deleted,
		},
		index: 1,
	}
}

func (l *TaskList) CreateAction(actionID int) (*taskwire.Action, error) {
	return &taskwire.Action{
		ActionType: taskwire.ActionCreate,
		ActionID:   actionID,
		Index:      taskwire.Int(l.index),
		EntityDelta: &taskwire.EntityDelta{
			Name:       l.name,
			CreatorID:  taskwire.CreatorNull,
			EntityType: taskwire.EntityTypeGroup,
		},
	}, nil
}

func (l *TaskList) UpdateAction(actionID int) (*taskwire.Action, error) {
	if l.remoteID == "" {
		return nil, ErrNoRemoteID
	}
	return &taskwire.Action{
		ActionType: taskwire.ActionUpdate,
		ActionID:   actionID,
		ID:         l.remoteID,
		EntityDelta: &taskwire.EntityDelta{
			Name:    l.name,
			Deleted: taskwire.Bool(l.deleted),
		},
	}, nil
}

// LocalDoc renders the list as a folder document. The default and call-record
// lists render as their system folders.
func (l *TaskList) LocalDoc() *notes.NoteDoc {
	name := notes.TrimFolderPrefix(l.name)
	doc := &notes.NoteDoc{Note: notes.NoteInfo{Snippet: name, Type: notes.KindFolder}}
	switch name {
	case notes.FolderDefault:
		doc.Note.Type = notes.KindSystem
		doc.Note.ID = notes.Int64(notes.RootFolderID)
	case notes.FolderCallNote:
		doc.Note.Type = notes.KindSystem
		doc.Note.ID = notes.Int64(notes.CallRecordFolderID)
	}
	return doc
}

// ApplyLocal names the list after a folder document.
func (l *TaskList) ApplyLocal(doc *notes.NoteDoc) {
	if doc == nil {
		return
	}
	switch doc.Note.Type {
	case notes.KindFolder:
		l.name = notes.FolderListName(doc.Note.Snippet)
	case notes.KindSystem:
		switch {
		case doc.Note.ID != nil && *doc.Note.ID == notes.RootFolderID:
			l.name = notes.DefaultListName
		case doc.Note.ID != nil && *doc.Note.ID == notes.CallRecordFolderID:
			l.name = notes.CallNoteListName
		default:
			slog.Warn("tasklist unexpected system folder", "list", l.remoteID)
		}
	default:
		slog.Warn("tasklist document is not a folder", "list", l.remoteID, "type", doc.Note.Type)
	}
}

func (l *TaskList) syncAction(row *notes.Row) SyncAction {
	return compareStamps(row, &l.Base)
}

// Children returns the children in order. The slice must not be modified.
func (l *TaskList) Children() []Child {
	return l.children
}

func (l *TaskList) Len() int {
	return len(l.children)
}

// ChildIndex returns the position of c, or -1.
func (l *TaskList) ChildIndex(c Child) int {
	for i, child := range l.children {
		if child == c {
			return i
		}
	}
	return -1
}

// FindChild returns the child with the given remote id, or nil.
func (l *TaskList) FindChild(remoteID string) Child {
	for _, child := range l.children {
		if child.RemoteID() == remoteID {
			return child
		}
	}
	return nil
}

// AddChild appends c. Its prior sibling becomes the previous last child.
func (l *TaskList) AddChild(c Child) bool {
	if c == nil || l.ChildIndex(c) >= 0 {
		return false
	}
	it := c.asItem()
	it.setPriorSibling(nil)
	if n := len(l.children); n > 0 {
		it.setPriorSibling(l.children[n-1])
	}
	it.setParent(l)
	l.children = append(l.children, c)
	return true
}

// InsertChild places c at index, shifting later children back.
func (l *TaskList) InsertChild(c Child, index int) bool {
	if c == nil || index < 0 || index > len(l.children) || l.ChildIndex(c) >= 0 {
		return false
	}

	l.children = append(l.children, nil)
	copy(l.children[index+1:], l.children[index:])
	l.children[index] = c

	it := c.asItem()
	it.setParent(l)
	it.setPriorSibling(nil)
	if index > 0 {
		it.setPriorSibling(l.children[index-1])
	}
	if index+1 < len(l.children) {
		l.children[index+1].asItem().setPriorSibling(c)
	}
	return true
}

// RemoveChild detaches c and relinks its successor.
func (l *TaskList) RemoveChild(c Child) bool {
	index := l.ChildIndex(c)
	if index < 0 {
		return false
	}
	l.children = append(l.children[:index], l.children[index+1:]...)

	it := c.asItem()
	it.setParent(nil)
	it.setPriorSibling(nil)

	if index < len(l.children) {
		var prior Child
		if index > 0 {
			prior = l.children[index-1]
		}
		l.children[index].asItem().setPriorSibling(prior)
	}
	return true
}

// MoveChild repositions an existing child.
func (l *TaskList) MoveChild(c Child, index int) bool {
	if index < 0 || index >= len(l.children) {
		return false
	}
	pos := l.ChildIndex(c)
	if pos < 0 {
		return false
	}
	if pos == index {
		return true
	}
	return l.RemoveChild(c) && l.InsertChild(c, index)
}
