package tasksdk

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/imroc/req/v3"
)

var (
	// config
	ErrNoServerURL    = errors.New("sdk: server url missing")
	ErrInvalidAccount = errors.New("sdk: invalid account")
	ErrNoAuthToken    = errors.New("sdk: auth token missing")

	// session
	ErrNotLoggedIn      = errors.New("sdk: not logged in")
	ErrTokenExpired     = errors.New("sdk: auth token expired")
	ErrNotAuthenticated = errors.New("sdk: not authenticated")

	// protocol
	ErrMissingNewID = errors.New("sdk: create result without new_id")
	ErrBadResponse  = errors.New("sdk: unexpected response")
)

// NetworkError is a transport level failure. Nothing can be assumed about
// which part of the request reached the service.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ActionError is an application or protocol failure: the service answered,
// but not with something usable.
type ActionError struct {
	Op  string
	Err error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action error: %s: %v", e.Op, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

func IsActionError(err error) bool {
	var actErr *ActionError
	return errors.As(err, &actErr)
}

// classify turns a req outcome into a NetworkError or ActionError, or nil on success.
func classify(resp *req.Response, requestErr error, op string) error {
	if requestErr != nil {
		return &NetworkError{Op: op, Err: requestErr}
	}

	switch code := resp.GetStatusCode(); {
	case code >= http.StatusInternalServerError:
		return &NetworkError{Op: op, Err: fmt.Errorf("server returned %s", resp.Status)}
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return &ActionError{Op: op, Err: ErrNotAuthenticated}
	case code >= http.StatusBadRequest:
		return &ActionError{Op: op, Err: fmt.Errorf("%w: %s", ErrBadResponse, resp.Status)}
	}

	return nil
}
