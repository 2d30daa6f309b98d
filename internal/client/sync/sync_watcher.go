package sync

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rjeczalik/notify"
)

const (
	DefaultQuietPeriod     = time.Second
	defaultDebounceTimeout = 250 * time.Millisecond
	eventBufferSize        = 64
)

// StoreWatcher reports writes to a note database. Writes to the journal and
// WAL files next to it count too. A burst of writes is reported once.
type StoreWatcher struct {
	dir             string
	base            string
	rawEvents       chan notify.EventInfo
	changes         chan struct{}
	debounceTimeout time.Duration
	done            chan struct{}
	wg              sync.WaitGroup

	mu          sync.Mutex
	timer       *time.Timer
	paused      bool
	ignoreUntil time.Time
}

func NewStoreWatcher(dbPath string) *StoreWatcher {
	return &StoreWatcher{
		dir:             filepath.Dir(dbPath),
		base:            filepath.Base(dbPath),
		changes:         make(chan struct{}, 1),
		debounceTimeout: defaultDebounceTimeout,
		done:            make(chan struct{}),
	}
}

func (w *StoreWatcher) SetDebounceTimeout(timeout time.Duration) {
	w.debounceTimeout = timeout
}

func (w *StoreWatcher) Start(ctx context.Context) error {
	slog.Info("store watcher start", "dir", w.dir, "db", w.base)

	w.rawEvents = make(chan notify.EventInfo, eventBufferSize)
	if err := notify.Watch(w.dir, w.rawEvents, notify.Write, notify.Create, notify.Rename); err != nil {
		return err
	}

	w.wg.Add(1)
	go w.filterEvents(ctx)
	return nil
}

func (w *StoreWatcher) Stop() {
	close(w.done)
	if w.rawEvents != nil {
		notify.Stop(w.rawEvents)
	}
	w.wg.Wait()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	slog.Info("store watcher stopped")
}

// Changes receives one value per debounced burst of writes.
func (w *StoreWatcher) Changes() <-chan struct{} {
	return w.changes
}

// Pause drops events until Resume. The engine's own writes during a pass
// must not trigger the next pass.
func (w *StoreWatcher) Pause() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.paused = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// Resume accepts events again once quiet has passed, and forgets any change
// reported while paused.
func (w *StoreWatcher) Resume(quiet time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.paused = false
	w.ignoreUntil = time.Now().Add(quiet)
	select {
	case <-w.changes:
	default:
	}
}

func (w *StoreWatcher) filterEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.rawEvents:
			if !ok {
				return
			}
			if !strings.HasPrefix(filepath.Base(event.Path()), w.base) {
				continue
			}
			w.debounce()
		}
	}
}

func (w *StoreWatcher) debounce() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.paused || time.Now().Before(w.ignoreUntil) {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounceTimeout, w.flush)
}

func (w *StoreWatcher) flush() {
	w.mu.Lock()
	w.timer = nil
	paused := w.paused
	w.mu.Unlock()
	if paused {
		return
	}

	select {
	case w.changes <- struct{}{}:
		slog.Debug("store watcher", "event", "change", "db", w.base)
	default:
		// a change is already pending
	}
}
