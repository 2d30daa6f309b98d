package tasksdk

import (
	"net/mail"
	"net/url"
	"time"
)

const (
	DefaultRetryCount = 3
	DefaultTimeout    = 30 * time.Second
)

// Config is the configuration for the task client
type Config struct {
	BaseURL    string        // BaseURL is required
	Account    string        // Account is required, an email address
	AuthToken  string        // AuthToken is required
	RetryCount int           // RetryCount applies to GET requests, 0 disables retries
	Timeout    time.Duration // Timeout per request, DefaultTimeout when zero
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoServerURL
	}
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return ErrNoServerURL
	}
	if _, err := mail.ParseAddress(c.Account); err != nil {
		return ErrInvalidAccount
	}
	if c.AuthToken == "" {
		return ErrNoAuthToken
	}
	return nil
}
