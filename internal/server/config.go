package server

import (
	"fmt"
	"time"

	"github.com/openmined/notesync/internal/server/auth"
)

const (
	DefaultAddr        = "localhost:8080"
	DefaultTokenIssuer = "notesync-dev"
	DefaultTokenExpiry = 24 * time.Hour
)

type Config struct {
	HTTP HTTPConfig  `mapstructure:"http"`
	Auth auth.Config `mapstructure:"auth"`
}

type HTTPConfig struct {
	Addr     string `mapstructure:"addr"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

func (c *Config) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return nil
}

func (c *HTTPConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("http `addr` is required")
	}
	if (c.CertFile == "") != (c.KeyFile == "") {
		return fmt.Errorf("http `cert_file` and `key_file` must be set together")
	}
	return nil
}

// TLS reports whether the server terminates TLS itself.
func (c *HTTPConfig) TLS() bool {
	return c.CertFile != "" && c.KeyFile != ""
}
