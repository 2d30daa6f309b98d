package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/openmined/notesync/internal/node"
	"github.com/openmined/notesync/internal/notes"
	"github.com/openmined/notesync/internal/notestore"
	"github.com/openmined/notesync/internal/tasksdk"
	"github.com/openmined/notesync/internal/taskwire"
)

var (
	ErrSyncInProgress  = errors.New("sync already running")
	ErrUnknownAction   = errors.New("sync: unresolvable sync action")
	ErrParentNotMapped = errors.New("sync: parent has no mapping")
	ErrNodeMismatch    = errors.New("sync: remote node kind does not match local row")
	ErrRestampMissing  = errors.New("sync: synced row has no remote node")
)

// Status is the outcome of one sync pass.
type Status int

const (
	StatusSuccess Status = iota
	StatusNetworkError
	StatusInternalError
	StatusInProgress
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusNetworkError:
		return "network error"
	case StatusInternalError:
		return "internal error"
	case StatusInProgress:
		return "sync in progress"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Phase is a human readable description of what a pass is doing.
type Phase string

const (
	PhaseLogin     Phase = "logging in"
	PhaseInventory Phase = "loading remote lists"
	PhaseTrash     Phase = "syncing deletions"
	PhaseFolders   Phase = "syncing folders"
	PhaseNotes     Phase = "syncing notes"
	PhaseResidual  Phase = "pulling new remote items"
	PhaseCommit    Phase = "committing changes"
	PhaseRestamp   Phase = "refreshing sync ids"
)

// ProgressFunc receives phase changes. It is called on the syncing goroutine.
type ProgressFunc func(Phase)

// Counts tallies the actions dispatched by a pass.
type Counts map[node.SyncAction]int

func (c Counts) String() string {
	parts := make([]string, 0, len(c))
	for action, n := range c {
		if action == node.ActionNone || n == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%d", strings.ToLower(action.String()), n))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

// Result reports how a pass ended.
type Result struct {
	Status Status
	Err    error
	// Phase is the last phase the pass entered.
	Phase  Phase
	Counts Counts
	Took   time.Duration
}

// RemoteClient is the remote task service as seen by the orchestrator.
// *tasksdk.Client satisfies it.
type RemoteClient interface {
	Login(ctx context.Context) error
	ResetQueue()
	FetchAllLists(ctx context.Context) ([]*taskwire.Entity, error)
	FetchListItems(ctx context.Context, listID string) ([]*taskwire.Entity, error)
	CreateTask(ctx context.Context, task tasksdk.Creatable) error
	CreateTaskList(ctx context.Context, list tasksdk.Creatable) error
	QueueUpdate(ctx context.Context, n tasksdk.Updatable) error
	Flush(ctx context.Context) error
	MoveTask(ctx context.Context, p *tasksdk.MoveParams) error
	DeleteNode(ctx context.Context, n tasksdk.Updatable) error
}

// LocalStore is the note store as seen by the orchestrator.
// *notestore.NoteStore satisfies it.
type LocalStore interface {
	QueryRows(ctx context.Context, filter notestore.RowFilter) ([]*notes.Row, error)
	Row(ctx context.Context, id int64) (*notes.Row, error)
	QueryContent(ctx context.Context, id int64) (*notes.NoteDoc, error)
	NoteExists(ctx context.Context, id int64) (bool, error)
	DataExists(ctx context.Context, id int64) (bool, error)
	Insert(ctx context.Context, doc *notes.NoteDoc, parentID int64, remoteID string) (int64, error)
	Update(ctx context.Context, u *notestore.RowUpdate) error
	SetSyncID(ctx context.Context, id int64, syncID int64) error
	BatchDelete(ctx context.Context, ids []int64) error
	SetLastSync(ctx context.Context, t time.Time) error
}
