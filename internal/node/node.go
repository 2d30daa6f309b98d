// Package node models the remote entities a sync pass works with: task lists,
// tasks and the hidden shadow records that carry a note's full local structure.
//
// The set of node kinds is closed. Every kind can produce create and update
// actions; only tasks and task lists take part in classification against local rows.
package node

import (
	"errors"

	"github.com/openmined/notesync/internal/notes"
	"github.com/openmined/notesync/internal/taskwire"
)

var (
	ErrNoParent    = errors.New("node: parent list has no remote id")
	ErrNotInParent = errors.New("node: not a child of its parent")
	ErrNoRemoteID  = errors.New("node: remote id missing")
	ErrNotANote    = errors.New("node: document is not a note")
	ErrBadShadow   = errors.New("node: malformed shadow payload")
)

// SyncAction is the outcome of classifying a local row against a remote node.
type SyncAction int

const (
	ActionNone SyncAction = iota
	ActionAddRemote
	ActionAddLocal
	ActionDelRemote
	ActionDelLocal
	ActionUpdateRemote
	ActionUpdateLocal
	ActionUpdateConflict
	ActionError
)

var actionNames = [...]string{
	ActionNone:           "NONE",
	ActionAddRemote:      "ADD_REMOTE",
	ActionAddLocal:       "ADD_LOCAL",
	ActionDelRemote:      "DEL_REMOTE",
	ActionDelLocal:       "DEL_LOCAL",
	ActionUpdateRemote:   "UPDATE_REMOTE",
	ActionUpdateLocal:    "UPDATE_LOCAL",
	ActionUpdateConflict: "UPDATE_CONFLICT",
	ActionError:          "ERROR",
}

func (a SyncAction) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "UNKNOWN"
	}
	return actionNames[a]
}

// Base holds what every node kind has in common.
type Base struct {
	remoteID     string
	name         string
	lastModified int64
	deleted      bool
}

func (b *Base) RemoteID() string        { return b.remoteID }
func (b *Base) SetRemoteID(id string)   { b.remoteID = id }
func (b *Base) Name() string            { return b.name }
func (b *Base) SetName(name string)     { b.name = name }
func (b *Base) LastModified() int64     { return b.lastModified }
func (b *Base) SetLastModified(t int64) { b.lastModified = t }
func (b *Base) Deleted() bool           { return b.deleted }
func (b *Base) SetDeleted(deleted bool) { b.deleted = deleted }

func (b *Base) common() *Base { return b }

// Node is one of *Task, *TaskList or *MetaData.
type Node interface {
	RemoteID() string
	SetRemoteID(id string)
	Name() string
	LastModified() int64
	Deleted() bool
	SetDeleted(deleted bool)
	CreateAction(actionID int) (*taskwire.Action, error)
	UpdateAction(actionID int) (*taskwire.Action, error)

	common() *Base
}

// Syncable is a node that can be classified against a local row: *Task or *TaskList.
type Syncable interface {
	Node
	syncAction(row *notes.Row) SyncAction
}

// Classify decides what a pass must do with a local row and its remote counterpart.
// remote is nil when the inventory holds no node with the row's remote id.
func Classify(row *notes.Row, remote Syncable) SyncAction {
	if remote == nil {
		if !row.Synced() {
			return ActionAddRemote
		}
		return ActionDelLocal
	}
	return remote.syncAction(row)
}

// compareStamps applies the timestamp rules shared by tasks and lists.
func compareStamps(row *notes.Row, b *Base) SyncAction {
	if !row.LocalModified {
		if row.SyncID == b.lastModified {
			return ActionNone
		}
		return ActionUpdateLocal
	}

	if row.RemoteID != b.remoteID {
		return ActionError
	}
	if row.SyncID == b.lastModified {
		return ActionUpdateRemote
	}
	return ActionUpdateConflict
}
