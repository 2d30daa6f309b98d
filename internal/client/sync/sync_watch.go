package sync

import (
	"context"
	"log/slog"
	"time"
)

// Watch runs a pass right away, then again whenever w reports a local change
// and every interval. Either trigger may be disabled with a nil watcher or a
// zero interval. Watch returns when ctx is done. Failed passes are reported to
// onResult and do not stop the loop.
func (se *SyncEngine) Watch(ctx context.Context, w *StoreWatcher, interval time.Duration, onResult func(*Result)) {
	var changes <-chan struct{}
	if w != nil {
		changes = w.Changes()
	}

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	run := func(trigger string) {
		if w != nil {
			w.Pause()
			defer w.Resume(DefaultQuietPeriod)
		}
		slog.Debug("sync watch pass", "trigger", trigger)
		result := se.Sync(ctx)
		if onResult != nil {
			onResult(result)
		}
	}

	run("start")
	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
			run("local change")
		case <-tick:
			run("interval")
		}
	}
}
