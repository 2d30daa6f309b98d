package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/openmined/notesync/internal/client/sync"
	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	var timeout time.Duration
	var watch bool
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass against the task service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadValidConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			client, err := newRemoteClient(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			engine := sync.NewSyncEngine(client, store,
				sync.WithLockFile(cfg.LockPath()),
				sync.WithProgress(func(p sync.Phase) {
					fmt.Fprintln(out, cyan.Render("»"), p)
				}),
			)

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			// SIGINT and the timeout both end up as a cancellation request
			stop := context.AfterFunc(ctx, engine.Cancel)
			defer stop()

			if watch {
				return watchLoop(ctx, engine, cfg.DBPath(), interval, out)
			}

			result := engine.Sync(ctx)
			printResult(out, result)
			return resultError(result)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Give up after this long (0 waits forever)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep running, syncing on local changes and on every interval")
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Minute, "Time between passes in watch mode (0 syncs on local changes only)")
	return cmd
}

// watchLoop syncs until ctx is done. Failed passes are printed and retried on the next trigger.
func watchLoop(ctx context.Context, engine *sync.SyncEngine, dbPath string, interval time.Duration, out io.Writer) error {
	watcher := sync.NewStoreWatcher(dbPath)
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("watch %s: %w", dbPath, err)
	}
	defer watcher.Stop()

	engine.Watch(ctx, watcher, interval, func(r *sync.Result) {
		printResult(out, r)
	})
	return nil
}

func printResult(w io.Writer, r *sync.Result) {
	status := green.Render(r.Status.String())
	if r.Status != sync.StatusSuccess {
		status = red.Render(r.Status.String())
	}

	fmt.Fprintf(w, "%s in %s", status, r.Took.Round(time.Millisecond))
	if counts := r.Counts.String(); counts != "" {
		fmt.Fprintf(w, " %s", gray.Render(counts))
	}
	fmt.Fprintln(w)
}

func resultError(r *sync.Result) error {
	switch {
	case r.Status == sync.StatusSuccess:
		return nil
	case r.Err != nil:
		return fmt.Errorf("sync %s during %q: %w", r.Status, r.Phase, r.Err)
	default:
		return errors.New("sync " + r.Status.String())
	}
}
