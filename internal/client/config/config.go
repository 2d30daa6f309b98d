package config

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/openmined/notesync/internal/utils"
)

var (
	home, _            = os.UserHomeDir()
	DefaultConfigPath  = filepath.Join(home, ".notesync", "config.json")
	DefaultDataDir     = filepath.Join(home, ".notesync")
	DefaultLogFilePath = filepath.Join(home, ".notesync", "logs", "notesync.log")
	DefaultServerURL   = "http://localhost:8080"
)

const (
	dbFileName   = "notes.db"
	lockFileName = "sync.lock"
)

var (
	ErrInvalidAccount   = errors.New("config: invalid account")
	ErrInvalidServerURL = errors.New("config: invalid server url")
	ErrNoDataDir        = errors.New("config: data dir missing")
)

type Config struct {
	DataDir   string `json:"data_dir"`
	Account   string `json:"account"`
	ServerURL string `json:"server_url"`
	AuthToken string `json:"auth_token,omitempty"`
	// SyncMode makes deletes go through the trash so the next pass propagates them.
	SyncMode bool   `json:"sync_mode"`
	Path     string `json:"-"`
}

// Validate normalizes paths and the account, then checks the required fields.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return ErrNoDataDir
	}
	dataDir, err := utils.ResolvePath(c.DataDir)
	if err != nil {
		return fmt.Errorf("data dir: %w", err)
	}
	c.DataDir = dataDir

	if c.Path != "" {
		path, err := utils.ResolvePath(c.Path)
		if err != nil {
			return fmt.Errorf("config path: %w", err)
		}
		c.Path = path
	}

	addr, err := mail.ParseAddress(c.Account)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAccount, c.Account)
	}
	c.Account = strings.ToLower(addr.Address)

	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidServerURL, c.ServerURL)
	}
	c.ServerURL = strings.TrimRight(c.ServerURL, "/")

	return nil
}

// DBPath is the note database inside the data dir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, dbFileName)
}

// LockPath is the file guarding sync passes on the data dir.
func (c *Config) LockPath() string {
	return filepath.Join(c.DataDir, lockFileName)
}

// Save writes the config to c.Path, creating the parent directory.
func (c *Config) Save() error {
	if c.Path == "" {
		return fmt.Errorf("config: no path to save to")
	}
	if err := utils.EnsureParent(c.Path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	// the file carries a token
	return os.WriteFile(c.Path, data, 0o600)
}

func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	cfg.Path = path
	return &cfg, nil
}
