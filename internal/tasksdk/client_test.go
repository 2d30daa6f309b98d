package tasksdk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/openmined/notesync/internal/taskwire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService is a minimal stand-in for the task service.
type fakeService struct {
	mu         sync.Mutex
	gets       map[string]int
	posts      []*taskwire.Request
	postPaths  []string
	atHeaders  []string
	lists      []*taskwire.Entity
	postStatus int
	postBody   string
	domain404  bool
	newID      string
}

func newFakeService() *fakeService {
	return &fakeService{
		gets:  map[string]int{},
		lists: []*taskwire.Entity{{ID: "l1", Name: "[MIUI_Notes]Default", LastModified: 10}},
		newID: "new-1",
	}
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/ig"):
		f.gets[r.URL.Path]++
		if f.domain404 && strings.HasPrefix(r.URL.Path, "/tasks/a/") {
			http.NotFound(w, r)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "GTL", Value: "session", Path: "/"})
		page, _ := taskwire.RenderBootstrap(&taskwire.Bootstrap{
			Version: 42,
			State:   taskwire.BootstrapState{Lists: f.lists},
		})
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write(page)

	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/r/ig"):
		var req taskwire.Request
		if err := json.Unmarshal([]byte(r.FormValue("r")), &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.posts = append(f.posts, &req)
		f.postPaths = append(f.postPaths, r.URL.Path)
		f.atHeaders = append(f.atHeaders, r.Header.Get("AT"))

		if f.postStatus != 0 {
			w.WriteHeader(f.postStatus)
			return
		}
		if f.postBody != "" {
			_, _ = w.Write([]byte(f.postBody))
			return
		}

		resp := taskwire.Response{LatestSyncPoint: int64(100 + len(f.posts))}
		for _, action := range req.ActionList {
			result := &taskwire.Result{ActionID: action.ActionID}
			if action.ActionType == taskwire.ActionCreate {
				result.NewID = f.newID
			}
			resp.Results = append(resp.Results, result)
			if action.ActionType == taskwire.ActionGetAll {
				resp.Tasks = append(resp.Tasks, &taskwire.Entity{ID: "t1", Name: "Buy milk", ListID: action.ListID})
			}
		}
		_ = json.NewEncoder(w).Encode(resp)

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeService) postCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts)
}

func (f *fakeService) getCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets[path]
}

func (f *fakeService) post(i int) *taskwire.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts[i]
}

func (f *fakeService) set(fn func(f *fakeService)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeService) lastPost() *taskwire.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts[len(f.posts)-1]
}

// stubNode records what the client binds back.
type stubNode struct {
	remoteID string
	deleted  bool
}

func (n *stubNode) CreateAction(actionID int) (*taskwire.Action, error) {
	return &taskwire.Action{
		ActionType:  taskwire.ActionCreate,
		ActionID:    actionID,
		EntityDelta: &taskwire.EntityDelta{Name: "stub", CreatorID: taskwire.CreatorNull, EntityType: taskwire.EntityTypeTask},
	}, nil
}

func (n *stubNode) UpdateAction(actionID int) (*taskwire.Action, error) {
	return &taskwire.Action{
		ActionType:  taskwire.ActionUpdate,
		ActionID:    actionID,
		ID:          n.remoteID,
		EntityDelta: &taskwire.EntityDelta{Name: "stub", Deleted: taskwire.Bool(n.deleted)},
	}, nil
}

func (n *stubNode) SetRemoteID(id string)   { n.remoteID = id }
func (n *stubNode) SetDeleted(deleted bool) { n.deleted = deleted }

func newTestClient(t *testing.T, baseURL, account string) *Client {
	t.Helper()
	client, err := New(&Config{
		BaseURL:   baseURL,
		Account:   account,
		AuthToken: "opaque-token",
		Timeout:   5 * time.Second,
	})
	require.NoError(t, err)
	return client
}

func loggedInClient(t *testing.T) (*Client, *fakeService) {
	t.Helper()
	fake := newFakeService()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv.URL, "alice@gmail.com")
	require.NoError(t, client.Login(context.Background()))
	return client, fake
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		err    error
	}{
		{"missing url", Config{Account: "a@b.com", AuthToken: "t"}, ErrNoServerURL},
		{"bad url", Config{BaseURL: "not a url", Account: "a@b.com", AuthToken: "t"}, ErrNoServerURL},
		{"bad account", Config{BaseURL: "http://localhost", Account: "alice", AuthToken: "t"}, ErrInvalidAccount},
		{"missing token", Config{BaseURL: "http://localhost", Account: "a@b.com"}, ErrNoAuthToken},
		{"valid", Config{BaseURL: "http://localhost", Account: "a@b.com", AuthToken: "t"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestLoginReadsBootstrap(t *testing.T) {
	client, fake := loggedInClient(t)

	assert.Equal(t, int64(42), client.ClientVersion())
	assert.Equal(t, 1, fake.getCount("/tasks/ig"))

	lists, err := client.FetchAllLists(context.Background())
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, "l1", lists[0].ID)
}

func TestLoginIsReused(t *testing.T) {
	client, fake := loggedInClient(t)

	require.NoError(t, client.Login(context.Background()))
	require.NoError(t, client.Login(context.Background()))
	assert.Equal(t, 1, fake.getCount("/tasks/ig"))
}

func TestLoginHostedDomain(t *testing.T) {
	fake := newFakeService()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client := newTestClient(t, srv.URL, "bob@example.org")
	require.NoError(t, client.Login(context.Background()))
	assert.Equal(t, 1, fake.getCount("/tasks/a/example.org/ig"))
	assert.Equal(t, 0, fake.getCount("/tasks/ig"))

	require.NoError(t, client.QueueUpdate(context.Background(), &stubNode{remoteID: "t1"}))
	require.NoError(t, client.Flush(context.Background()))
	fake.set(func(f *fakeService) {
		assert.Equal(t, "/tasks/a/example.org/r/ig", f.postPaths[0])
	})
}

func TestLoginHostedDomainFallback(t *testing.T) {
	fake := newFakeService()
	fake.domain404 = true
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client := newTestClient(t, srv.URL, "bob@example.org")
	require.NoError(t, client.Login(context.Background()))
	assert.Equal(t, 1, fake.getCount("/tasks/a/example.org/ig"))
	assert.Equal(t, 1, fake.getCount("/tasks/ig"))
}

func TestLoginRejectsExpiredToken(t *testing.T) {
	fake := newFakeService()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice@gmail.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	client, err := New(&Config{BaseURL: srv.URL, Account: "alice@gmail.com", AuthToken: token})
	require.NoError(t, err)

	err = client.Login(context.Background())
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.True(t, IsActionError(err))
	fake.set(func(f *fakeService) { assert.Empty(t, f.gets) })
}

func TestLoginUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := newTestClient(t, url, "alice@gmail.com")
	err := client.Login(context.Background())
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
}

func TestQueueFlushesAfterEleventhUpdate(t *testing.T) {
	client, fake := loggedInClient(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, client.QueueUpdate(ctx, &stubNode{remoteID: "t1"}))
	}
	assert.Equal(t, 0, fake.postCount())
	assert.Equal(t, 10, client.Pending())

	require.NoError(t, client.QueueUpdate(ctx, &stubNode{remoteID: "t1"}))
	assert.Equal(t, 1, fake.postCount())
	assert.Equal(t, 0, client.Pending())

	req := fake.lastPost()
	assert.Len(t, req.ActionList, 11)
	assert.Equal(t, int64(42), req.ClientVersion)
	assert.Equal(t, 1, req.ActionList[0].ActionID)
	assert.Equal(t, 11, req.ActionList[10].ActionID)
	fake.set(func(f *fakeService) { assert.Equal(t, "1", f.atHeaders[0]) })
	assert.Equal(t, int64(101), client.ClientVersion())
}

func TestCreateFlushesPendingFirst(t *testing.T) {
	client, fake := loggedInClient(t)
	ctx := context.Background()

	require.NoError(t, client.QueueUpdate(ctx, &stubNode{remoteID: "t1"}))
	node := &stubNode{}
	require.NoError(t, client.CreateTask(ctx, node))

	assert.Equal(t, 2, fake.postCount())
	assert.Equal(t, taskwire.ActionUpdate, fake.post(0).ActionList[0].ActionType)
	assert.Equal(t, taskwire.ActionCreate, fake.post(1).ActionList[0].ActionType)
	assert.Equal(t, "new-1", node.remoteID)
	assert.Equal(t, 0, client.Pending())
}

func TestCreateWithoutNewID(t *testing.T) {
	client, fake := loggedInClient(t)
	fake.set(func(f *fakeService) { f.newID = "" })

	err := client.CreateTaskList(context.Background(), &stubNode{})
	assert.ErrorIs(t, err, ErrMissingNewID)
	assert.True(t, IsActionError(err))
}

func TestMoveTask(t *testing.T) {
	client, fake := loggedInClient(t)
	ctx := context.Background()

	require.NoError(t, client.MoveTask(ctx, &MoveParams{TaskID: "t1", SourceListID: "l1", DestListID: "l1"}))
	action := fake.lastPost().ActionList[0]
	assert.Equal(t, taskwire.ActionMove, action.ActionType)
	assert.Equal(t, "t1", action.ID)
	assert.Equal(t, "l1", action.SourceList)
	assert.Equal(t, "l1", action.DestParent)
	assert.Empty(t, action.DestList)
	assert.Empty(t, action.PriorSiblingID)

	require.NoError(t, client.MoveTask(ctx, &MoveParams{TaskID: "t1", PriorSiblingID: "t0", SourceListID: "l1", DestListID: "l2"}))
	action = fake.lastPost().ActionList[0]
	assert.Equal(t, "l2", action.DestParent)
	assert.Equal(t, "l2", action.DestList)
	assert.Equal(t, "t0", action.PriorSiblingID)
}

func TestDeleteNode(t *testing.T) {
	client, fake := loggedInClient(t)
	ctx := context.Background()

	require.NoError(t, client.QueueUpdate(ctx, &stubNode{remoteID: "t1"}))
	node := &stubNode{remoteID: "t2"}
	require.NoError(t, client.DeleteNode(ctx, node))

	assert.True(t, node.deleted)
	assert.Equal(t, 2, fake.postCount())
	action := fake.lastPost().ActionList[0]
	assert.Equal(t, "t2", action.ID)
	assert.True(t, *action.EntityDelta.Deleted)
	assert.Equal(t, 0, client.Pending())
}

func TestFetchListItems(t *testing.T) {
	client, fake := loggedInClient(t)

	tasks, err := client.FetchListItems(context.Background(), "l1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Name)

	action := fake.lastPost().ActionList[0]
	assert.Equal(t, taskwire.ActionGetAll, action.ActionType)
	assert.Equal(t, "l1", action.ListID)
	require.NotNil(t, action.GetDeleted)
	assert.False(t, *action.GetDeleted)
}

func TestPostErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		network bool
		target  error
	}{
		{"server error", http.StatusBadGateway, "", true, nil},
		{"unauthorized", http.StatusUnauthorized, "", false, ErrNotAuthenticated},
		{"forbidden", http.StatusForbidden, "", false, ErrNotAuthenticated},
		{"bad request", http.StatusBadRequest, "", false, ErrBadResponse},
		{"garbage body", 0, "<html>oops</html>", false, ErrBadResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, fake := loggedInClient(t)
			fake.set(func(f *fakeService) {
				f.postStatus = tt.status
				f.postBody = tt.body
			})

			_, err := client.FetchListItems(context.Background(), "l1")
			require.Error(t, err)
			assert.Equal(t, tt.network, IsNetworkError(err))
			assert.Equal(t, !tt.network, IsActionError(err))
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestFailedFlushKeepsQueue(t *testing.T) {
	client, fake := loggedInClient(t)
	ctx := context.Background()

	require.NoError(t, client.QueueUpdate(ctx, &stubNode{remoteID: "t1"}))
	fake.set(func(f *fakeService) { f.postStatus = http.StatusServiceUnavailable })

	err := client.Flush(ctx)
	assert.True(t, IsNetworkError(err))
	assert.Equal(t, 1, client.Pending())

	client.ResetQueue()
	assert.Equal(t, 0, client.Pending())
}

func TestRequiresLogin(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1", "alice@gmail.com")

	_, err := client.FetchAllLists(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	err = client.CreateTask(context.Background(), &stubNode{})
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestHostedDomain(t *testing.T) {
	assert.Equal(t, "", hostedDomain("alice@gmail.com"))
	assert.Equal(t, "", hostedDomain("alice@GoogleMail.com"))
	assert.Equal(t, "example.org", hostedDomain("bob@Example.org"))
	assert.Equal(t, "", hostedDomain("nobody"))
}
