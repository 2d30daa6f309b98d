package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/openmined/notesync/internal/client/config"
	"github.com/openmined/notesync/internal/utils"
	"github.com/openmined/notesync/internal/version"
	"github.com/spf13/cobra"
)

var (
	red   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	green = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	cyan  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	gray  = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "notesync",
		Short:         "Sync local notes with a remote task service",
		Version:       version.Detailed(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().SortFlags = false
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "NoteSync config file")
	rootCmd.PersistentFlags().StringP("datadir", "d", config.DefaultDataDir, "NoteSync data directory")
	rootCmd.PersistentFlags().StringP("account", "a", "", "Account email")
	rootCmd.PersistentFlags().StringP("server", "s", config.DefaultServerURL, "Task service URL")

	rootCmd.AddCommand(
		newSyncCmd(),
		newNoteCmd(),
		newFolderCmd(),
		newInspectCmd(),
		newStatusCmd(),
		newLoginCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func main() {
	closeLog, err := setupLogging(config.DefaultLogFilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	// Setup root context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, red.Render("Error:"), err)
		stop()
		closeLog()
		os.Exit(1)
	}
}

// setupLogging logs to stderr (coloured on a terminal) and, at debug level, to logFile.
func setupLogging(logFile string) (func(), error) {
	if err := utils.EnsureParent(logFile); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if os.Getenv("NOTESYNC_DEBUG") != "" {
		level = slog.LevelDebug
	}

	interceptor := utils.NewLogInterceptor(file)
	slog.SetDefault(slog.New(utils.NewMultiLogHandler(
		newTerminalHandler(os.Stderr, level),
		newFileHandler(interceptor),
	)))
	slog.Debug("logging to file", "path", filepath.Clean(logFile))

	return func() {
		interceptor.Close()
		file.Close()
	}, nil
}

func newTerminalHandler(w *os.File, level slog.Level) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(w.Fd()),
	})
}

func newFileHandler(w io.Writer) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		// the interceptor stamps each line
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	})
}
