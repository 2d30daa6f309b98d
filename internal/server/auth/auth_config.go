package auth

import (
	"fmt"
	"time"
)

type Config struct {
	TokenIssuer string        `mapstructure:"token_issuer"`
	TokenSecret string        `mapstructure:"token_secret"`
	TokenExpiry time.Duration `mapstructure:"token_expiry"` // zero means tokens never expire
}

func (c *Config) Validate() error {
	if c.TokenIssuer == "" {
		return fmt.Errorf("auth `token_issuer` is required")
	}
	if c.TokenSecret == "" {
		return fmt.Errorf("auth `token_secret` is required")
	}
	if c.TokenExpiry < 0 {
		return fmt.Errorf("auth `token_expiry` must not be negative")
	}
	return nil
}
