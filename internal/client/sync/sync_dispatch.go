package sync

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/openmined/notesync/internal/node"
	"github.com/openmined/notesync/internal/notes"
	"github.com/openmined/notesync/internal/notestore"
	"github.com/openmined/notesync/internal/tasksdk"
)

// dispatch carries out one classified action. row is nil for ADD_LOCAL and n is
// nil for ADD_REMOTE and DEL_LOCAL.
func (s *session) dispatch(action node.SyncAction, row *notes.Row, n node.Syncable) error {
	if s.cancelled() {
		return nil
	}
	s.counts[action]++

	switch action {
	case node.ActionNone:
		return nil
	case node.ActionAddLocal:
		return s.addLocal(n)
	case node.ActionAddRemote:
		return s.addRemote(row)
	case node.ActionDelLocal:
		if meta := s.metas[row.RemoteID]; meta != nil {
			if err := s.deleteRemote(meta); err != nil {
				return err
			}
		}
		s.localDeletes.Add(row.ID)
		return nil
	case node.ActionDelRemote:
		if meta := s.metas[n.RemoteID()]; meta != nil {
			if err := s.deleteRemote(meta); err != nil {
				return err
			}
		}
		return s.deleteRemote(n)
	case node.ActionUpdateLocal:
		return s.updateLocal(row, n)
	case node.ActionUpdateRemote, node.ActionUpdateConflict:
		// last local write wins; no merge
		return s.updateRemote(row, n)
	default:
		return fmt.Errorf("%w: %s for row %d", ErrUnknownAction, action, row.ID)
	}
}

// deleteRemote removes a node remotely. A rejected delete is logged and the
// pass goes on; transport failures abort it.
func (s *session) deleteRemote(n tasksdk.Updatable) error {
	err := s.remote.DeleteNode(s.ctx, n)
	if err == nil || tasksdk.IsNetworkError(err) {
		return err
	}
	slog.Warn("remote delete rejected", "node", remoteIDOf(n), "error", err)
	return nil
}

func (s *session) addLocal(n node.Syncable) error {
	switch n := n.(type) {
	case *node.TaskList:
		return s.addLocalList(n)
	case *node.Task:
		return s.addLocalTask(n)
	default:
		return fmt.Errorf("%w: cannot add %T locally", ErrNodeMismatch, n)
	}
}

func (s *session) addLocalList(l *node.TaskList) error {
	var id int64
	switch l.Name() {
	case notes.DefaultListName:
		id = notes.RootFolderID
	case notes.CallNoteListName:
		id = notes.CallRecordFolderID
	default:
		rowID, err := s.local.Insert(s.ctx, l.LocalDoc(), notes.RootFolderID, l.RemoteID())
		if err != nil {
			return fmt.Errorf("insert folder for list %s: %w", l.RemoteID(), err)
		}
		s.ids.bind(l.RemoteID(), rowID)
		return nil
	}

	remoteID := l.RemoteID()
	if err := s.local.Update(s.ctx, &notestore.RowUpdate{ID: id, RemoteID: &remoteID}); err != nil {
		return fmt.Errorf("bind system folder %d: %w", id, err)
	}
	s.ids.bind(remoteID, id)
	return nil
}

func (s *session) addLocalTask(t *node.Task) error {
	doc := t.LocalDoc()
	if doc.Note.ID != nil {
		taken, err := s.local.NoteExists(s.ctx, *doc.Note.ID)
		if err != nil {
			return err
		}
		if taken {
			doc.Note.ID = nil
		}
	}
	for _, data := range doc.Data {
		if data.ID == nil {
			continue
		}
		taken, err := s.local.DataExists(s.ctx, *data.ID)
		if err != nil {
			return err
		}
		if taken {
			data.ID = nil
		}
	}

	parent := t.Parent()
	if parent == nil {
		return fmt.Errorf("%w: task %s has no list", ErrParentNotMapped, t.RemoteID())
	}
	parentID, ok := s.ids.local(parent.RemoteID())
	if !ok {
		return fmt.Errorf("%w: list %s of task %s", ErrParentNotMapped, parent.RemoteID(), t.RemoteID())
	}

	id, err := s.local.Insert(s.ctx, doc, parentID, t.RemoteID())
	if err != nil {
		return fmt.Errorf("insert note for task %s: %w", t.RemoteID(), err)
	}
	s.ids.bind(t.RemoteID(), id)
	return s.updateRemoteMeta(t.RemoteID(), id)
}

func (s *session) updateLocal(row *notes.Row, n node.Syncable) error {
	u := &notestore.RowUpdate{
		ID:                 row.ID,
		ExpectVersion:      &row.Version,
		ResetLocalModified: true,
	}

	switch n := n.(type) {
	case *node.Task:
		if !row.IsNote() {
			return fmt.Errorf("%w: task %s matched folder %d", ErrNodeMismatch, n.RemoteID(), row.ID)
		}
		parent := n.Parent()
		if parent == nil {
			return fmt.Errorf("%w: task %s has no list", ErrParentNotMapped, n.RemoteID())
		}
		parentID, ok := s.ids.local(parent.RemoteID())
		if !ok {
			return fmt.Errorf("%w: list %s of task %s", ErrParentNotMapped, parent.RemoteID(), n.RemoteID())
		}
		u.Doc = n.LocalDoc()
		u.ParentID = &parentID
	case *node.TaskList:
		if row.IsNote() {
			return fmt.Errorf("%w: list %s matched note %d", ErrNodeMismatch, n.RemoteID(), row.ID)
		}
		root := notes.RootFolderID
		u.Doc = n.LocalDoc()
		u.ParentID = &root
	default:
		return fmt.Errorf("%w: cannot update row %d from %T", ErrNodeMismatch, row.ID, n)
	}

	if err := s.local.Update(s.ctx, u); err != nil {
		if !errors.Is(err, notestore.ErrVersionConflict) {
			return fmt.Errorf("update row %d: %w", row.ID, err)
		}
		// edited while syncing; the edit is pushed next pass
		slog.Warn("local row changed during sync", "id", row.ID)
		return nil
	}

	if row.IsNote() {
		return s.updateRemoteMeta(n.RemoteID(), row.ID)
	}
	return nil
}

func (s *session) addRemote(row *notes.Row) error {
	var n node.Syncable

	if row.IsNote() {
		doc, err := s.local.QueryContent(s.ctx, row.ID)
		if err != nil {
			return err
		}
		task := node.NewTask()
		if err := task.ApplyLocal(doc); err != nil {
			return fmt.Errorf("render note %d: %w", row.ID, err)
		}

		list, err := s.parentList(row)
		if err != nil {
			return err
		}
		list.AddChild(task)
		if err := s.remote.CreateTask(s.ctx, task); err != nil {
			return fmt.Errorf("create task for note %d: %w", row.ID, err)
		}
		if err := s.updateRemoteMeta(task.RemoteID(), row.ID); err != nil {
			return err
		}
		n = task
	} else {
		name := notes.FolderListName(row.Snippet)
		switch row.ID {
		case notes.RootFolderID:
			name = notes.DefaultListName
		case notes.CallRecordFolderID:
			name = notes.CallNoteListName
		}

		// a same-named list already on the remote side is adopted instead of duplicated
		list := s.freeListByName(name)
		if list != nil {
			s.unmatched.take(list.RemoteID())
		} else {
			list = node.NewTaskList(name)
			if err := s.remote.CreateTaskList(s.ctx, list); err != nil {
				return fmt.Errorf("create list for folder %d: %w", row.ID, err)
			}
			s.trackList(list)
		}
		n = list
	}

	if err := s.bindRow(row, n.RemoteID()); err != nil {
		return err
	}
	s.ids.bind(n.RemoteID(), row.ID)
	return nil
}

// bindRow records a row's remote id and clears its modified flag. When the row
// changed during the pass the flag stays set, so the change goes out next time.
func (s *session) bindRow(row *notes.Row, remoteID string) error {
	err := s.local.Update(s.ctx, &notestore.RowUpdate{
		ID:                 row.ID,
		ExpectVersion:      &row.Version,
		RemoteID:           &remoteID,
		ResetLocalModified: true,
	})
	if errors.Is(err, notestore.ErrVersionConflict) {
		slog.Warn("local row changed during sync", "id", row.ID)
		err = s.local.Update(s.ctx, &notestore.RowUpdate{ID: row.ID, RemoteID: &remoteID})
	}
	if err != nil {
		return fmt.Errorf("bind row %d to %s: %w", row.ID, remoteID, err)
	}
	return nil
}

func (s *session) updateRemote(row *notes.Row, n node.Syncable) error {
	doc, err := s.local.QueryContent(s.ctx, row.ID)
	if err != nil {
		return err
	}

	switch n := n.(type) {
	case *node.Task:
		if err := n.ApplyLocal(doc); err != nil {
			return fmt.Errorf("render note %d: %w", row.ID, err)
		}
		if err := s.remote.QueueUpdate(s.ctx, n); err != nil {
			return fmt.Errorf("update task %s: %w", n.RemoteID(), err)
		}
		if err := s.updateRemoteMeta(n.RemoteID(), row.ID); err != nil {
			return err
		}
		if err := s.moveIfReparented(row, n); err != nil {
			return err
		}
	case *node.TaskList:
		n.ApplyLocal(doc)
		if err := s.remote.QueueUpdate(s.ctx, n); err != nil {
			return fmt.Errorf("update list %s: %w", n.RemoteID(), err)
		}
	default:
		return fmt.Errorf("%w: cannot push row %d to %T", ErrNodeMismatch, row.ID, n)
	}

	err = s.local.Update(s.ctx, &notestore.RowUpdate{
		ID:                 row.ID,
		ExpectVersion:      &row.Version,
		ResetLocalModified: true,
	})
	if errors.Is(err, notestore.ErrVersionConflict) {
		slog.Warn("local row changed during sync", "id", row.ID)
		return nil
	}
	return err
}

// moveIfReparented moves a task when its note now lives in another folder.
func (s *session) moveIfReparented(row *notes.Row, t *node.Task) error {
	dest, err := s.parentList(row)
	if err != nil {
		return err
	}
	src := t.Parent()
	if src == dest {
		return nil
	}

	if src != nil {
		src.RemoveChild(t)
	}
	dest.AddChild(t)

	params := &tasksdk.MoveParams{
		TaskID:     t.RemoteID(),
		DestListID: dest.RemoteID(),
	}
	if src != nil {
		params.SourceListID = src.RemoteID()
	}
	if prior := t.PriorSibling(); prior != nil {
		params.PriorSiblingID = prior.RemoteID()
	}
	if err := s.remote.MoveTask(s.ctx, params); err != nil {
		return fmt.Errorf("move task %s: %w", t.RemoteID(), err)
	}
	return nil
}

// parentList resolves the remote list of a note's folder through the id map.
func (s *session) parentList(row *notes.Row) (*node.TaskList, error) {
	remoteID, ok := s.ids.remote(row.ParentID)
	if !ok {
		return nil, fmt.Errorf("%w: folder %d of note %d", ErrParentNotMapped, row.ParentID, row.ID)
	}
	list := s.lists[remoteID]
	if list == nil {
		return nil, fmt.Errorf("%w: list %s of note %d", ErrParentNotMapped, remoteID, row.ID)
	}
	return list, nil
}

// updateRemoteMeta refreshes the shadow record of a note's task, creating it
// in the meta list the first time.
func (s *session) updateRemoteMeta(remoteID string, rowID int64) error {
	doc, err := s.local.QueryContent(s.ctx, rowID)
	if err != nil {
		return err
	}

	if meta := s.metas[remoteID]; meta != nil {
		if err := meta.SetMeta(remoteID, doc); err != nil {
			return err
		}
		if err := s.remote.QueueUpdate(s.ctx, meta); err != nil {
			return fmt.Errorf("update shadow of %s: %w", remoteID, err)
		}
		return nil
	}

	meta, err := node.NewMetaData(remoteID, doc)
	if err != nil {
		return err
	}
	s.metaList.AddChild(meta)
	s.metas[remoteID] = meta
	if err := s.remote.CreateTask(s.ctx, meta); err != nil {
		return fmt.Errorf("create shadow of %s: %w", remoteID, err)
	}
	return nil
}

func remoteIDOf(n tasksdk.Updatable) string {
	if r, ok := n.(interface{ RemoteID() string }); ok {
		return r.RemoteID()
	}
	return ""
}
