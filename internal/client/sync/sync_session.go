package sync

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/openmined/notesync/internal/node"
	"github.com/openmined/notesync/internal/notes"
)

// session is the state of a single pass. Nothing in it outlives Sync.
type session struct {
	ctx    context.Context
	remote RemoteClient
	local  LocalStore
	token  *atomic.Bool
	notify ProgressFunc

	phase  Phase
	counts Counts

	// lists indexes every known remote list by id, including lists created by this pass.
	lists     map[string]*node.TaskList
	listOrder []string
	unmatched *inventory
	metas     map[string]*node.MetaData
	metaList  *node.TaskList

	ids          *idMap
	localDeletes mapset.Set[int64]
}

func newSession(ctx context.Context, se *SyncEngine, token *atomic.Bool) *session {
	return &session{
		ctx:          ctx,
		remote:       se.remote,
		local:        se.local,
		token:        token,
		notify:       se.onProgress,
		counts:       make(Counts),
		ids:          newIDMap(),
		localDeletes: mapset.NewThreadUnsafeSet[int64](),
	}
}

func (s *session) cancelled() bool {
	return s.token.Load() || s.ctx.Err() != nil
}

// enter moves the pass to phase p. It reports false, without entering, once
// the pass is cancelled.
func (s *session) enter(p Phase) bool {
	if s.cancelled() {
		return false
	}
	s.phase = p
	slog.Debug("sync phase", "phase", p)
	if s.notify != nil {
		s.notify(p)
	}
	return true
}

func (s *session) run() error {
	s.remote.ResetQueue()

	if !s.enter(PhaseLogin) {
		return nil
	}
	if err := s.remote.Login(s.ctx); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	if !s.enter(PhaseInventory) {
		return nil
	}
	if err := s.loadInventory(); err != nil {
		return fmt.Errorf("load remote lists: %w", err)
	}

	return s.syncContent()
}

func (s *session) resetInventory() {
	s.lists = make(map[string]*node.TaskList)
	s.listOrder = nil
	s.unmatched = newInventory()
	s.metas = make(map[string]*node.MetaData)
}

func (s *session) trackList(l *node.TaskList) {
	if _, ok := s.lists[l.RemoteID()]; !ok {
		s.listOrder = append(s.listOrder, l.RemoteID())
	}
	s.lists[l.RemoteID()] = l
}

// loadInventory fetches the meta list and every folder list with its tasks.
// The meta list is created when the account has none yet.
func (s *session) loadInventory() error {
	s.resetInventory()
	if s.cancelled() {
		return nil
	}

	entities, err := s.remote.FetchAllLists(s.ctx)
	if err != nil {
		return err
	}

	s.metaList = nil
	for _, e := range entities {
		if e.Name != notes.MetaListName {
			continue
		}
		if s.metaList != nil {
			slog.Warn("ignoring duplicate meta list", "id", e.ID)
			continue
		}

		s.metaList = node.TaskListFromRemote(e)
		items, err := s.remote.FetchListItems(s.ctx, e.ID)
		if err != nil {
			return err
		}
		for _, item := range items {
			meta := node.MetaDataFromRemote(item)
			if !meta.IsWorthSaving() {
				continue
			}
			s.metaList.AddChild(meta)
			if meta.RelatedID() != "" {
				s.metas[meta.RelatedID()] = meta
			}
		}
	}

	if s.metaList == nil {
		s.metaList = node.NewTaskList(notes.MetaListName)
		if err := s.remote.CreateTaskList(s.ctx, s.metaList); err != nil {
			return fmt.Errorf("create meta list: %w", err)
		}
	}

	for _, e := range entities {
		if s.cancelled() {
			return nil
		}
		if !strings.HasPrefix(e.Name, notes.FolderPrefix) || e.Name == notes.MetaListName {
			continue
		}

		list := node.TaskListFromRemote(e)
		s.trackList(list)
		s.unmatched.add(list)

		items, err := s.remote.FetchListItems(s.ctx, e.ID)
		if err != nil {
			return err
		}
		for _, item := range items {
			task := node.TaskFromRemote(item)
			task.SetMeta(s.metas[item.ID])
			if !task.IsWorthSaving() {
				continue
			}
			list.AddChild(task)
			s.unmatched.add(task)
		}
	}

	slog.Debug("remote inventory", "lists", len(s.lists), "nodes", s.unmatched.len(), "metas", len(s.metas))
	return nil
}

// freeListByName returns a known list named name that is neither deleted nor
// bound to another row, scanning in load order.
func (s *session) freeListByName(name string) *node.TaskList {
	for _, id := range s.listOrder {
		l := s.lists[id]
		if l.Name() != name || l.Deleted() {
			continue
		}
		if _, bound := s.ids.local(id); bound {
			continue
		}
		return l
	}
	return nil
}
