package sync

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/openmined/notesync/internal/node"
	"github.com/openmined/notesync/internal/notes"
	"github.com/openmined/notesync/internal/notestore"
)

// syncContent walks the local rows against the inventory: trash first, then
// folders, then notes, then whatever is left on the remote side.
func (s *session) syncContent() error {
	s.localDeletes.Clear()
	if !s.enter(PhaseTrash) {
		return nil
	}
	trashed, err := s.local.QueryRows(s.ctx, notestore.FilterTrashed)
	if err != nil {
		return fmt.Errorf("query trash: %w", err)
	}
	for _, row := range trashed {
		if s.cancelled() {
			return nil
		}
		if n := s.unmatched.take(row.RemoteID); n != nil {
			if err := s.dispatch(node.ActionDelRemote, row, n); err != nil {
				return err
			}
		}
		s.localDeletes.Add(row.ID)
	}

	if err := s.syncFolders(); err != nil {
		return err
	}

	if !s.enter(PhaseNotes) {
		return nil
	}
	rows, err := s.local.QueryRows(s.ctx, notestore.FilterNotes)
	if err != nil {
		return fmt.Errorf("query notes: %w", err)
	}
	if err := s.syncRows(rows); err != nil {
		return err
	}

	if !s.enter(PhaseResidual) {
		return nil
	}
	for _, n := range s.unmatched.remaining() {
		if s.cancelled() {
			return nil
		}
		s.unmatched.take(n.RemoteID())
		if err := s.dispatch(node.ActionAddLocal, nil, n); err != nil {
			return err
		}
	}

	if !s.enter(PhaseCommit) {
		return nil
	}
	if err := s.local.BatchDelete(s.ctx, s.localDeletes.ToSlice()); err != nil {
		return fmt.Errorf("delete local rows: %w", err)
	}
	if err := s.remote.Flush(s.ctx); err != nil {
		return fmt.Errorf("commit updates: %w", err)
	}

	return s.restamp()
}

var systemLists = []struct {
	id   int64
	name string
}{
	{notes.RootFolderID, notes.DefaultListName},
	{notes.CallRecordFolderID, notes.CallNoteListName},
}

// syncFolders handles the two system folders, then user folders, then pulls
// remote lists nothing local claimed.
func (s *session) syncFolders() error {
	if !s.enter(PhaseFolders) {
		return nil
	}

	for _, sys := range systemLists {
		if s.cancelled() {
			return nil
		}
		row, err := s.local.Row(s.ctx, sys.id)
		if errors.Is(err, notestore.ErrNoteNotFound) {
			slog.Warn("system folder missing", "id", sys.id)
			continue
		} else if err != nil {
			return fmt.Errorf("query system folder %d: %w", sys.id, err)
		}

		n := s.unmatched.take(row.RemoteID)
		if n == nil {
			if err := s.dispatch(node.ActionAddRemote, row, nil); err != nil {
				return err
			}
			continue
		}

		s.ids.bind(row.RemoteID, row.ID)
		if n.Name() != sys.name {
			if err := s.dispatch(node.ActionUpdateRemote, row, n); err != nil {
				return err
			}
		}
	}

	rows, err := s.local.QueryRows(s.ctx, notestore.FilterFolders)
	if err != nil {
		return fmt.Errorf("query folders: %w", err)
	}
	if err := s.syncRows(rows); err != nil {
		return err
	}

	for _, list := range s.unmatched.lists() {
		if s.cancelled() {
			return nil
		}
		s.unmatched.take(list.RemoteID())
		if err := s.dispatch(node.ActionAddLocal, nil, list); err != nil {
			return err
		}
	}

	if s.cancelled() {
		return nil
	}
	if err := s.remote.Flush(s.ctx); err != nil {
		return fmt.Errorf("commit folder updates: %w", err)
	}
	return nil
}

// syncRows classifies and dispatches each row against its matched remote node.
func (s *session) syncRows(rows []*notes.Row) error {
	for _, row := range rows {
		if s.cancelled() {
			return nil
		}

		var action node.SyncAction
		n := s.unmatched.take(row.RemoteID)
		if n != nil {
			s.ids.bind(row.RemoteID, row.ID)
			action = node.Classify(row, n)
		} else {
			action = node.Classify(row, nil)
		}

		if err := s.dispatch(action, row, n); err != nil {
			return err
		}
	}
	return nil
}

// restamp reloads the inventory and records each synced row's remote
// last-modified value, so the next pass starts from a clean baseline.
func (s *session) restamp() error {
	if !s.enter(PhaseRestamp) {
		return nil
	}

	if err := s.loadInventory(); err != nil {
		return fmt.Errorf("reload remote lists: %w", err)
	}

	rows, err := s.local.QueryRows(s.ctx, notestore.FilterSyncable)
	if err != nil {
		return fmt.Errorf("query syncable rows: %w", err)
	}
	for _, row := range rows {
		if s.cancelled() {
			return nil
		}
		if !row.Synced() {
			// created while the pass was running; picked up next time
			slog.Debug("skipping unbound row", "id", row.ID)
			continue
		}

		n := s.unmatched.take(row.RemoteID)
		if n == nil {
			return fmt.Errorf("%w: row %d remote %s", ErrRestampMissing, row.ID, row.RemoteID)
		}
		if err := s.local.SetSyncID(s.ctx, row.ID, n.LastModified()); err != nil {
			return fmt.Errorf("restamp row %d: %w", row.ID, err)
		}
	}
	return nil
}
