// Package tasksdk is the session client of the remote task service. It logs in,
// reads the remote inventory and submits create, update and move actions,
// batching updates so that fewer round trips are needed.
//
// A Client is meant to be driven by a single sync worker and is not safe for concurrent use.
package tasksdk

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/imroc/req/v3"
	"github.com/openmined/notesync/internal/taskwire"
	"github.com/openmined/notesync/internal/version"
)

const (
	// loginTTL is how long a successful login is reused
	loginTTL = 5 * time.Minute

	// updates are flushed once the queue grows beyond this many entries
	maxPendingUpdates = 10

	sessionCookie = "GTL"
	headerAT      = "AT"
)

var UserAgent = fmt.Sprintf("NoteSync/%s (%s; %s; %s)", version.Version, version.Revision, runtime.GOOS, runtime.GOARCH)

// Creatable is an entity the service can create. The server-assigned id is bound back with SetRemoteID.
type Creatable interface {
	CreateAction(actionID int) (*taskwire.Action, error)
	SetRemoteID(id string)
}

// Updatable is an entity that can be updated. Deletion is an update with the deleted flag set.
type Updatable interface {
	UpdateAction(actionID int) (*taskwire.Action, error)
	SetDeleted(deleted bool)
}

// MoveParams describes a task move. PriorSiblingID is empty when the task goes to the top.
type MoveParams struct {
	TaskID         string
	PriorSiblingID string
	SourceListID   string
	DestListID     string
}

type endpoint struct {
	get  string
	post string
}

type Client struct {
	config   *Config
	http     *req.Client
	jar      http.CookieJar
	sessions *expirable.LRU[string, time.Time]

	endpoint      endpoint
	loggedIn      bool
	clientVersion int64
	actionID      int
	pending       []*taskwire.Action
}

// New creates a client. No request is made until Login.
func New(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := req.C().
		SetTimeout(timeout).
		SetCookieJar(jar).
		SetCommonRetryCount(config.RetryCount).
		SetCommonRetryFixedInterval(1*time.Second).
		SetUserAgent(UserAgent).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)

	return &Client{
		config:   config,
		http:     httpClient,
		jar:      jar,
		sessions: expirable.NewLRU[string, time.Time](16, nil, loginTTL),
	}, nil
}

// Account returns the account the client signs in as.
func (c *Client) Account() string {
	return c.config.Account
}

// ClientVersion returns the version the client currently reports to the service.
func (c *Client) ClientVersion() int64 {
	return c.clientVersion
}

// Login signs in, reusing a login younger than five minutes.
// Accounts on a hosted domain try the domain endpoint first and fall back to the default one.
func (c *Client) Login(ctx context.Context) error {
	if c.loggedIn && c.sessions.Contains(c.config.Account) {
		return nil
	}
	c.loggedIn = false

	if err := checkTokenExpiry(c.config.AuthToken); err != nil {
		return &ActionError{Op: "login", Err: err}
	}

	base := strings.TrimRight(c.config.BaseURL, "/")
	candidates := []endpoint{}
	if domain := hostedDomain(c.config.Account); domain != "" {
		prefix := base + "/tasks/a/" + url.PathEscape(domain)
		candidates = append(candidates, endpoint{get: prefix + "/ig", post: prefix + "/r/ig"})
	}
	candidates = append(candidates, endpoint{get: base + "/tasks/ig", post: base + "/tasks/r/ig"})

	var lastErr error
	for _, ep := range candidates {
		if err := c.loginAt(ctx, ep); err != nil {
			slog.Warn("login attempt failed", "url", ep.get, "error", err)
			lastErr = err
			continue
		}
		c.endpoint = ep
		c.loggedIn = true
		c.sessions.Add(c.config.Account, time.Now())
		slog.Info("logged in", "account", c.config.Account, "clientVersion", c.clientVersion)
		return nil
	}
	return lastErr
}

func (c *Client) loginAt(ctx context.Context, ep endpoint) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("auth", c.config.AuthToken).
		Get(ep.get)
	if err := classify(resp, err, "login"); err != nil {
		return err
	}

	if u, err := url.Parse(ep.get); err == nil && !hasSessionCookie(c.jar.Cookies(u)) {
		slog.Warn("no session cookie after login", "url", ep.get)
	}

	b, err := taskwire.ParseBootstrap(resp.String())
	if err != nil {
		return &ActionError{Op: "login", Err: err}
	}
	c.clientVersion = b.Version
	return nil
}

// FetchAllLists returns every list of the account.
func (c *Client) FetchAllLists(ctx context.Context) ([]*taskwire.Entity, error) {
	if !c.loggedIn {
		return nil, &ActionError{Op: "fetch lists", Err: ErrNotLoggedIn}
	}

	resp, err := c.http.R().SetContext(ctx).Get(c.endpoint.get)
	if err := classify(resp, err, "fetch lists"); err != nil {
		return nil, err
	}

	b, err := taskwire.ParseBootstrap(resp.String())
	if err != nil {
		return nil, &ActionError{Op: "fetch lists", Err: err}
	}
	return b.State.Lists, nil
}

// FetchListItems returns the tasks of one list. Pending updates are flushed first.
func (c *Client) FetchListItems(ctx context.Context, listID string) ([]*taskwire.Entity, error) {
	if err := c.Flush(ctx); err != nil {
		return nil, err
	}

	action := &taskwire.Action{
		ActionType: taskwire.ActionGetAll,
		ActionID:   c.nextActionID(),
		ListID:     listID,
		GetDeleted: taskwire.Bool(false),
	}
	resp, err := c.post(ctx, "fetch list items", action)
	if err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// CreateTask creates a task and binds its new id. Pending updates are flushed first.
func (c *Client) CreateTask(ctx context.Context, task Creatable) error {
	return c.create(ctx, "create task", task)
}

// CreateTaskList creates a list and binds its new id. Pending updates are flushed first.
func (c *Client) CreateTaskList(ctx context.Context, list Creatable) error {
	return c.create(ctx, "create task list", list)
}

func (c *Client) create(ctx context.Context, op string, n Creatable) error {
	if err := c.Flush(ctx); err != nil {
		return err
	}

	action, err := n.CreateAction(c.nextActionID())
	if err != nil {
		return &ActionError{Op: op, Err: err}
	}

	resp, err := c.post(ctx, op, action)
	if err != nil {
		return err
	}
	if len(resp.Results) == 0 || resp.Results[0].NewID == "" {
		return &ActionError{Op: op, Err: ErrMissingNewID}
	}

	n.SetRemoteID(resp.Results[0].NewID)
	return nil
}

// QueueUpdate adds an update to the pending batch. The batch is submitted
// right after the enqueue that takes it past maxPendingUpdates.
func (c *Client) QueueUpdate(ctx context.Context, n Updatable) error {
	action, err := n.UpdateAction(c.nextActionID())
	if err != nil {
		return &ActionError{Op: "queue update", Err: err}
	}

	c.pending = append(c.pending, action)
	if len(c.pending) > maxPendingUpdates {
		return c.Flush(ctx)
	}
	return nil
}

// Pending returns the number of queued updates.
func (c *Client) Pending() int {
	return len(c.pending)
}

// Flush submits the queued updates, if any.
func (c *Client) Flush(ctx context.Context) error {
	if len(c.pending) == 0 {
		return nil
	}

	if _, err := c.post(ctx, "commit update", c.pending...); err != nil {
		return err
	}
	c.pending = nil
	return nil
}

// ResetQueue drops queued updates without submitting them.
func (c *Client) ResetQueue() {
	c.pending = nil
}

// MoveTask moves a task within or across lists. Pending updates are flushed first.
func (c *Client) MoveTask(ctx context.Context, p *MoveParams) error {
	if err := c.Flush(ctx); err != nil {
		return err
	}

	action := &taskwire.Action{
		ActionType:     taskwire.ActionMove,
		ActionID:       c.nextActionID(),
		ID:             p.TaskID,
		PriorSiblingID: p.PriorSiblingID,
		SourceList:     p.SourceListID,
		DestParent:     p.DestListID,
	}
	if p.SourceListID != p.DestListID {
		action.DestList = p.DestListID
	}

	_, err := c.post(ctx, "move task", action)
	return err
}

// DeleteNode marks n deleted and submits it right away.
func (c *Client) DeleteNode(ctx context.Context, n Updatable) error {
	if err := c.Flush(ctx); err != nil {
		return err
	}

	n.SetDeleted(true)
	action, err := n.UpdateAction(c.nextActionID())
	if err != nil {
		return &ActionError{Op: "delete node", Err: err}
	}

	if _, err := c.post(ctx, "delete node", action); err != nil {
		return err
	}
	c.pending = nil
	return nil
}

func (c *Client) nextActionID() int {
	c.actionID++
	return c.actionID
}

func (c *Client) post(ctx context.Context, op string, actions ...*taskwire.Action) (*taskwire.Response, error) {
	if !c.loggedIn {
		return nil, &ActionError{Op: op, Err: ErrNotLoggedIn}
	}

	body, err := jsonMarshal(&taskwire.Request{
		ActionList:    actions,
		ClientVersion: c.clientVersion,
	})
	if err != nil {
		return nil, &ActionError{Op: op, Err: err}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetRetryCount(0).
		SetHeader(headerAT, "1").
		SetFormData(map[string]string{"r": string(body)}).
		Post(c.endpoint.post)
	if err := classify(resp, err, op); err != nil {
		return nil, err
	}

	raw, err := resp.ToBytes()
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}

	var out taskwire.Response
	if err := jsonUnmarshal(raw, &out); err != nil {
		return nil, &ActionError{Op: op, Err: fmt.Errorf("%w: %v", ErrBadResponse, err)}
	}
	if out.LatestSyncPoint > 0 {
		c.clientVersion = out.LatestSyncPoint
	}

	slog.Debug("posted actions", "op", op, "count", len(actions), "clientVersion", c.clientVersion)
	return &out, nil
}

// hostedDomain returns the account's domain unless it is a consumer mail domain.
func hostedDomain(account string) string {
	at := strings.LastIndex(account, "@")
	if at < 0 {
		return ""
	}
	domain := strings.ToLower(account[at+1:])
	if domain == "" || domain == "gmail.com" || domain == "googlemail.com" {
		return ""
	}
	return domain
}

func hasSessionCookie(cookies []*http.Cookie) bool {
	for _, cookie := range cookies {
		if strings.Contains(cookie.Name, sessionCookie) {
			return true
		}
	}
	return false
}

// checkTokenExpiry rejects JWT tokens that are already expired. Opaque tokens are left to the server.
func checkTokenExpiry(token string) error {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return ErrTokenExpired
	}
	return nil
}
