package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/openmined/notesync/internal/tasksdk"
)

// SyncEngine runs sync passes between a local note store and a remote task service.
// At most one pass runs at a time per engine, and per lock file when one is configured.
type SyncEngine struct {
	remote     RemoteClient
	local      LocalStore
	lock       *flock.Flock
	onProgress ProgressFunc
	muSync     sync.Mutex
	current    atomic.Pointer[atomic.Bool]
}

type Option func(*SyncEngine)

// WithLockFile guards passes with an advisory file lock, so two processes
// sharing a data directory do not sync at the same time.
func WithLockFile(path string) Option {
	return func(se *SyncEngine) {
		se.lock = flock.New(path)
	}
}

func WithProgress(fn ProgressFunc) Option {
	return func(se *SyncEngine) {
		se.onProgress = fn
	}
}

func NewSyncEngine(remote RemoteClient, local LocalStore, opts ...Option) *SyncEngine {
	se := &SyncEngine{
		remote: remote,
		local:  local,
	}
	for _, opt := range opts {
		opt(se)
	}
	return se
}

// Sync runs one full pass. It never returns a nil result.
func (se *SyncEngine) Sync(ctx context.Context) *Result {
	if !se.muSync.TryLock() {
		return &Result{Status: StatusInProgress, Err: ErrSyncInProgress}
	}
	defer se.muSync.Unlock()

	if se.lock != nil {
		locked, err := se.lock.TryLock()
		if err != nil {
			return &Result{Status: StatusInternalError, Err: fmt.Errorf("lock %s: %w", se.lock.Path(), err)}
		}
		if !locked {
			return &Result{Status: StatusInProgress, Err: ErrSyncInProgress}
		}
		defer se.lock.Unlock()
	}

	token := new(atomic.Bool)
	se.current.Store(token)
	defer se.current.Store(nil)

	tStart := time.Now()
	s := newSession(ctx, se, token)
	err := s.run()

	result := &Result{
		Err:    err,
		Phase:  s.phase,
		Counts: s.counts,
		Took:   time.Since(tStart),
	}

	switch {
	case s.cancelled():
		result.Status = StatusCancelled
	case err == nil:
		result.Status = StatusSuccess
	case tasksdk.IsNetworkError(err):
		result.Status = StatusNetworkError
	default:
		result.Status = StatusInternalError
	}

	switch result.Status {
	case StatusSuccess:
		if err := se.local.SetLastSync(ctx, time.Now()); err != nil {
			slog.Warn("failed to record last sync time", "error", err)
		}
		slog.Info("sync pass done", "actions", result.Counts.String(), "took", result.Took)
	case StatusCancelled:
		slog.Info("sync pass cancelled", "phase", result.Phase)
	default:
		slog.Error("sync pass failed", "status", result.Status, "phase", result.Phase, "error", err)
	}

	return result
}

// Cancel asks the running pass, if any, to stop. The pass notices at its
// next phase boundary or loop iteration.
func (se *SyncEngine) Cancel() {
	if token := se.current.Load(); token != nil {
		token.Store(true)
	}
}

// IsSyncing reports whether a pass is running on this engine.
func (se *SyncEngine) IsSyncing() bool {
	return se.current.Load() != nil
}
