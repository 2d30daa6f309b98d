// Package taskstore keeps the lists and tasks of every account in memory and
// applies action lists to them.
package taskstore

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/openmined/notesync/internal/taskwire"
)

var (
	ErrUnknownAction = errors.New("unknown action type")
	ErrListNotFound  = errors.New("list not found")
	ErrTaskNotFound  = errors.New("task not found")
	ErrBadAction     = errors.New("malformed action")
)

type list struct {
	entity *taskwire.Entity
	tasks  []string // task ids in display order
}

type account struct {
	clock int64
	lists []*list
	tasks map[string]*taskwire.Entity
}

// tick returns the next modification stamp. Stamps never repeat within an account.
func (a *account) tick() int64 {
	a.clock++
	return a.clock
}

func (a *account) list(id string) *list {
	for _, l := range a.lists {
		if l.entity.ID == id {
			return l
		}
	}
	return nil
}

type TaskStore struct {
	mu       sync.Mutex
	accounts map[string]*account
}

func New() *TaskStore {
	return &TaskStore{
		accounts: make(map[string]*account),
	}
}

func (s *TaskStore) account(name string) *account {
	acc, ok := s.accounts[name]
	if !ok {
		acc = &account{tasks: make(map[string]*taskwire.Entity)}
		s.accounts[name] = acc
	}
	return acc
}

// Snapshot returns the account's live lists and current version.
func (s *TaskStore) Snapshot(name string) (*taskwire.Bootstrap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.account(name)
	b := &taskwire.Bootstrap{Version: acc.clock, State: taskwire.BootstrapState{Lists: []*taskwire.Entity{}}}
	for _, l := range acc.lists {
		if l.entity.Deleted {
			continue
		}
		cp := *l.entity
		b.State.Lists = append(b.State.Lists, &cp)
	}
	return b, nil
}

// Apply runs the actions of req in order. Actions before a failing one stay applied.
func (s *TaskStore) Apply(name string, req *taskwire.Request) (*taskwire.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.account(name)
	resp := &taskwire.Response{Results: []*taskwire.Result{}}

	for _, action := range req.ActionList {
		result := &taskwire.Result{ActionID: action.ActionID}

		var err error
		switch action.ActionType {
		case taskwire.ActionCreate:
			result.NewID, err = acc.create(action)
		case taskwire.ActionUpdate:
			err = acc.update(action)
		case taskwire.ActionMove:
			err = acc.move(action)
		case taskwire.ActionGetAll:
			var tasks []*taskwire.Entity
			tasks, err = acc.getAll(action)
			resp.Tasks = append(resp.Tasks, tasks...)
		default:
			err = fmt.Errorf("%w: %q", ErrUnknownAction, action.ActionType)
		}
		if err != nil {
			slog.Warn("action failed", "account", name, "actionId", action.ActionID, "type", action.ActionType, "error", err)
			return nil, fmt.Errorf("action %d: %w", action.ActionID, err)
		}
		resp.Results = append(resp.Results, result)
	}

	resp.LatestSyncPoint = acc.clock
	return resp, nil
}

func (a *account) create(action *taskwire.Action) (string, error) {
	delta := action.EntityDelta
	if delta == nil {
		return "", fmt.Errorf("%w: create without entity_delta", ErrBadAction)
	}

	entity := &taskwire.Entity{
		ID:           uuid.NewString(),
		Name:         delta.Name,
		Notes:        delta.Notes,
		EntityType:   delta.EntityType,
		LastModified: a.tick(),
	}

	switch delta.EntityType {
	case taskwire.EntityTypeGroup:
		a.lists = append(a.lists, &list{entity: entity})

	case taskwire.EntityTypeTask:
		listID := action.ListID
		if listID == "" {
			listID = action.ParentID
		}
		l := a.list(listID)
		if l == nil {
			return "", fmt.Errorf("%w: %q", ErrListNotFound, listID)
		}
		entity.ListID = l.entity.ID
		entity.ParentID = l.entity.ID
		a.tasks[entity.ID] = entity
		l.place(entity.ID, action.PriorSiblingID)

	default:
		return "", fmt.Errorf("%w: entity type %q", ErrBadAction, delta.EntityType)
	}

	return entity.ID, nil
}

func (a *account) update(action *taskwire.Action) error {
	delta := action.EntityDelta
	if delta == nil {
		return fmt.Errorf("%w: update without entity_delta", ErrBadAction)
	}

	var entity *taskwire.Entity
	if task, ok := a.tasks[action.ID]; ok {
		entity = task
		if delta.Notes != nil {
			notes := *delta.Notes
			entity.Notes = &notes
		}
	} else if l := a.list(action.ID); l != nil {
		entity = l.entity
	} else {
		return fmt.Errorf("%w: %q", ErrTaskNotFound, action.ID)
	}

	entity.Name = delta.Name
	if delta.Deleted != nil {
		entity.Deleted = *delta.Deleted
	}
	entity.LastModified = a.tick()
	return nil
}

func (a *account) move(action *taskwire.Action) error {
	task, ok := a.tasks[action.ID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTaskNotFound, action.ID)
	}

	src := a.list(task.ListID)
	destID := action.DestList
	if destID == "" {
		destID = action.DestParent
	}
	if destID == "" {
		destID = task.ListID
	}
	dest := a.list(destID)
	if src == nil || dest == nil {
		return fmt.Errorf("%w: %q", ErrListNotFound, destID)
	}

	src.remove(task.ID)
	dest.place(task.ID, action.PriorSiblingID)
	task.ListID = dest.entity.ID
	task.ParentID = dest.entity.ID
	task.LastModified = a.tick()
	return nil
}

func (a *account) getAll(action *taskwire.Action) ([]*taskwire.Entity, error) {
	l := a.list(action.ListID)
	if l == nil {
		return nil, fmt.Errorf("%w: %q", ErrListNotFound, action.ListID)
	}

	withDeleted := action.GetDeleted != nil && *action.GetDeleted
	tasks := make([]*taskwire.Entity, 0, len(l.tasks))
	for _, id := range l.tasks {
		task := a.tasks[id]
		if task.Deleted && !withDeleted {
			continue
		}
		cp := *task
		tasks = append(tasks, &cp)
	}
	return tasks, nil
}

// place inserts id right after prior, or at the top when prior is empty or unknown.
func (l *list) place(id, prior string) {
	index := 0
	if prior != "" {
		if i := slices.Index(l.tasks, prior); i >= 0 {
			index = i + 1
		}
	}
	l.tasks = slices.Insert(l.tasks, index, id)
}

func (l *list) remove(id string) {
	if i := slices.Index(l.tasks, id); i >= 0 {
		l.tasks = slices.Delete(l.tasks, i, i+1)
	}
}
