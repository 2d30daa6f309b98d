package node

import (
	"fmt"

	"github.com/openmined/notesync/internal/taskwire"
)

// Child is a task-shaped node living inside a TaskList: *Task or *MetaData.
type Child interface {
	Node
	asItem() *item
}

// item is the task-shaped part shared by tasks and shadow records.
type item struct {
	Base
	completed    bool
	notes        *string
	parent       *TaskList
	priorSibling Child
}

func (it *item) asItem() *item { return it }

func (it *item) Completed() bool         { return it.completed }
func (it *item) Notes() *string          { return it.notes }
func (it *item) SetNotes(notes *string)  { it.notes = notes }
func (it *item) Parent() *TaskList       { return it.parent }
func (it *item) PriorSibling() Child     { return it.priorSibling }
func (it *item) setParent(l *TaskList)   { it.parent = l }
func (it *item) setPriorSibling(c Child) { it.priorSibling = c }

func (it *item) setFromRemote(e *taskwire.Entity) {
	it.remoteID = e.ID
	it.lastModified = e.LastModified
	it.name = e.Name
	it.notes = e.Notes
	it.deleted = e.Deleted
	it.completed = e.Completed
}

// createAction builds the create document for self, which must be the Child wrapping it.
func (it *item) createAction(self Child, actionID int) (*taskwire.Action, error) {
	if it.parent == nil || it.parent.RemoteID() == "" {
		return nil, ErrNoParent
	}
	index := it.parent.ChildIndex(self)
	if index < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotInParent, it.name)
	}

	action := &taskwire.Action{
		ActionType: taskwire.ActionCreate,
		ActionID:   actionID,
		Index:      taskwire.Int(index),
		EntityDelta: &taskwire.EntityDelta{
			Name:       it.name,
			CreatorID:  taskwire.CreatorNull,
			EntityType: taskwire.EntityTypeTask,
			Notes:      it.notes,
		},
		ParentID:       it.parent.RemoteID(),
		DestParentType: taskwire.EntityTypeGroup,
		ListID:         it.parent.RemoteID(),
	}
	if it.priorSibling != nil {
		action.PriorSiblingID = it.priorSibling.RemoteID()
	}
	return action, nil
}

func (it *item) UpdateAction(actionID int) (*taskwire.Action, error) {
	if it.remoteID == "" {
		return nil, ErrNoRemoteID
	}
	return &taskwire.Action{
		ActionType: taskwire.ActionUpdate,
		ActionID:   actionID,
		ID:         it.remoteID,
		EntityDelta: &taskwire.EntityDelta{
			Name:    it.name,
			Notes:   it.notes,
			Deleted: taskwire.Bool(it.deleted),
		},
	}, nil
}
