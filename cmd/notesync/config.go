package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/openmined/notesync/internal/client/config"
	"github.com/openmined/notesync/internal/notestore"
	"github.com/openmined/notesync/internal/tasksdk"
	"github.com/openmined/notesync/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "NOTESYNC"

// resolveConfigPath honours, in order, an explicit --config flag, the
// NOTESYNC_CONFIG_PATH environment variable and the default path.
func resolveConfigPath(cmd *cobra.Command) string {
	if f := cmd.Flag("config"); f != nil && f.Changed {
		return f.Value.String()
	}
	if envPath := os.Getenv(envPrefix + "_CONFIG_PATH"); envPath != "" {
		return envPath
	}
	return config.DefaultConfigPath
}

// loadConfig merges the config file, NOTESYNC_* variables (a .env file in the
// working directory included) and flags, in increasing precedence.
// The result is not validated.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	path := resolveConfigPath(cmd)
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		enoent := errors.Is(err, fs.ErrNotExist)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !enoent && !notFound {
			return nil, fmt.Errorf("config read '%s': %w", path, err)
		}
	}

	v.SetDefault("sync_mode", true)
	for key, flag := range map[string]string{
		"data_dir":   "datadir",
		"account":    "account",
		"server_url": "server",
	} {
		if f := cmd.Flag(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	return &config.Config{
		Path:      path,
		DataDir:   v.GetString("data_dir"),
		Account:   v.GetString("account"),
		ServerURL: v.GetString("server_url"),
		AuthToken: v.GetString("auth_token"),
		SyncMode:  v.GetBool("sync_mode"),
	}, nil
}

func loadValidConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*notestore.NoteStore, error) {
	if err := utils.EnsureDir(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	store := notestore.NewNoteStore(cfg.DBPath())
	if err := store.Open(); err != nil {
		return nil, err
	}
	return store, nil
}

func newRemoteClient(cfg *config.Config) (*tasksdk.Client, error) {
	if cfg.AuthToken == "" {
		return nil, fmt.Errorf("not logged in, run `notesync login` first")
	}
	return tasksdk.New(&tasksdk.Config{
		BaseURL:    cfg.ServerURL,
		Account:    cfg.Account,
		AuthToken:  cfg.AuthToken,
		RetryCount: tasksdk.DefaultRetryCount,
	})
}
