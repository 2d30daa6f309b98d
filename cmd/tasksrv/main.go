package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/openmined/notesync/internal/server"
	"github.com/openmined/notesync/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "TASKSRV"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "tasksrv",
		Short:        "Development task service for notesync",
		Version:      version.Detailed(),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			srv, err := server.New(cfg)
			if err != nil {
				return err
			}
			defer slog.Info("Bye!")
			return srv.Start(cmd.Context())
		},
	}

	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().StringP("config", "f", "", "Path to a YAML or JSON config file")
	rootCmd.Flags().StringP("bind", "b", server.DefaultAddr, "Address to bind the server")
	rootCmd.Flags().StringP("cert", "c", "", "Path to the certificate file")
	rootCmd.Flags().StringP("key", "k", "", "Path to the key file")
	rootCmd.Flags().String("token-secret", "", "Secret used to sign access tokens")
	rootCmd.Flags().String("token-issuer", server.DefaultTokenIssuer, "Issuer written into access tokens")
	rootCmd.Flags().Duration("token-expiry", server.DefaultTokenExpiry, "Access token lifetime (0 never expires)")
	return rootCmd
}

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.DateTime,
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})))

	// Setup root context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// loadConfig reads the optional config file, then TASKSRV_* variables, then flags.
func loadConfig(cmd *cobra.Command) (*server.Config, error) {
	v := viper.New()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config read '%s': %w", path, err)
		}
	}

	v.SetDefault("http.addr", server.DefaultAddr)
	v.SetDefault("http.cert_file", "")
	v.SetDefault("http.key_file", "")
	v.SetDefault("auth.token_issuer", server.DefaultTokenIssuer)
	v.SetDefault("auth.token_secret", "")
	v.SetDefault("auth.token_expiry", server.DefaultTokenExpiry)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, flag := range map[string]string{
		"http.addr":         "bind",
		"http.cert_file":    "cert",
		"http.key_file":     "key",
		"auth.token_secret": "token-secret",
		"auth.token_issuer": "token-issuer",
		"auth.token_expiry": "token-expiry",
	} {
		f := cmd.Flags().Lookup(flag)
		// defaults live in SetDefault, only explicit flags override
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, err
		}
	}

	var cfg server.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}
	return &cfg, nil
}
