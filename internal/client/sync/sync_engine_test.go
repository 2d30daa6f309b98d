package sync

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofrs/flock"
	"github.com/openmined/notesync/internal/node"
	"github.com/openmined/notesync/internal/notes"
	"github.com/openmined/notesync/internal/notestore"
	"github.com/openmined/notesync/internal/server"
	"github.com/openmined/notesync/internal/server/auth"
	"github.com/openmined/notesync/internal/tasksdk"
	"github.com/openmined/notesync/internal/taskwire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAccount = "alice@example.com"

func newTaskServer(t *testing.T) *httptest.Server {
	t.Helper()
	s, err := server.New(&server.Config{
		HTTP: server.HTTPConfig{Addr: server.DefaultAddr},
		Auth: auth.Config{
			TokenIssuer: server.DefaultTokenIssuer,
			TokenSecret: "test-secret",
			TokenExpiry: time.Hour,
		},
	})
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func issueToken(t *testing.T, baseURL string) string {
	t.Helper()
	body, err := json.Marshal(map[string]string{"account": testAccount})
	require.NoError(t, err)

	resp, err := http.Post(baseURL+"/auth/token", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out.Token
}

func newRemote(t *testing.T, baseURL string) *tasksdk.Client {
	t.Helper()
	client, err := tasksdk.New(&tasksdk.Config{
		BaseURL:   baseURL,
		Account:   testAccount,
		AuthToken: issueToken(t, baseURL),
		Timeout:   5 * time.Second,
	})
	require.NoError(t, err)
	return client
}

func newLocal(t *testing.T) *notestore.NoteStore {
	t.Helper()
	store := notestore.NewNoteStore(":memory:")
	require.NoError(t, store.Open())
	t.Cleanup(func() { store.Close() })
	return store
}

// device is one local store syncing against the shared test server.
type device struct {
	store  *notestore.NoteStore
	remote *countingRemote
	engine *SyncEngine
}

func newDevice(t *testing.T, baseURL string, opts ...Option) *device {
	t.Helper()
	d := &device{
		store:  newLocal(t),
		remote: &countingRemote{RemoteClient: newRemote(t, baseURL)},
	}
	d.engine = NewSyncEngine(d.remote, d.store, opts...)
	return d
}

func (d *device) sync(t *testing.T) *Result {
	t.Helper()
	result := d.engine.Sync(context.Background())
	require.NotNil(t, result)
	require.Equal(t, StatusSuccess, result.Status, "sync failed: %v", result.Err)
	return result
}

// countingRemote records remote calls by name.
type countingRemote struct {
	RemoteClient
	mu     sync.Mutex
	calls  map[string]int
	before func(op string)
}

func (c *countingRemote) record(op string) {
	c.mu.Lock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[op]++
	before := c.before
	c.mu.Unlock()
	if before != nil {
		before(op)
	}
}

func (c *countingRemote) count(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

func (c *countingRemote) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

func (c *countingRemote) mutations() int {
	return c.count("CreateTask") + c.count("CreateTaskList") + c.count("QueueUpdate") + c.count("MoveTask") + c.count("DeleteNode")
}

func (c *countingRemote) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = nil
}

func (c *countingRemote) Login(ctx context.Context) error {
	c.record("Login")
	return c.RemoteClient.Login(ctx)
}

func (c *countingRemote) FetchAllLists(ctx context.Context) ([]*taskwire.Entity, error) {
	c.record("FetchAllLists")
	return c.RemoteClient.FetchAllLists(ctx)
}

func (c *countingRemote) FetchListItems(ctx context.Context, listID string) ([]*taskwire.Entity, error) {
	c.record("FetchListItems")
	return c.RemoteClient.FetchListItems(ctx, listID)
}

func (c *countingRemote) CreateTask(ctx context.Context, task tasksdk.Creatable) error {
	c.record("CreateTask")
	return c.RemoteClient.CreateTask(ctx, task)
}

func (c *countingRemote) CreateTaskList(ctx context.Context, list tasksdk.Creatable) error {
	c.record("CreateTaskList")
	return c.RemoteClient.CreateTaskList(ctx, list)
}

func (c *countingRemote) QueueUpdate(ctx context.Context, n tasksdk.Updatable) error {
	c.record("QueueUpdate")
	return c.RemoteClient.QueueUpdate(ctx, n)
}

func (c *countingRemote) Flush(ctx context.Context) error {
	c.record("Flush")
	return c.RemoteClient.Flush(ctx)
}

func (c *countingRemote) MoveTask(ctx context.Context, p *tasksdk.MoveParams) error {
	c.record("MoveTask")
	return c.RemoteClient.MoveTask(ctx, p)
}

func (c *countingRemote) DeleteNode(ctx context.Context, n tasksdk.Updatable) error {
	c.record("DeleteNode")
	return c.RemoteClient.DeleteNode(ctx, n)
}

// remoteView is a snapshot of the account, lists by name with their live tasks.
type remoteView map[string][]*taskwire.Entity

func fetchRemote(t *testing.T, baseURL string) (remoteView, map[string]*taskwire.Entity) {
	t.Helper()
	ctx := context.Background()
	client := newRemote(t, baseURL)
	require.NoError(t, client.Login(ctx))

	lists, err := client.FetchAllLists(ctx)
	require.NoError(t, err)

	view := make(remoteView)
	byName := make(map[string]*taskwire.Entity)
	for _, l := range lists {
		items, err := client.FetchListItems(ctx, l.ID)
		require.NoError(t, err)
		view[l.Name] = items
		byName[l.Name] = l
	}
	return view, byName
}

func noteText(t *testing.T, store *notestore.NoteStore, id int64) string {
	t.Helper()
	doc, err := store.QueryContent(context.Background(), id)
	require.NoError(t, err)
	return doc.Text()
}

func folderByName(t *testing.T, store *notestore.NoteStore, name string) *notes.Row {
	t.Helper()
	rows, err := store.QueryRows(context.Background(), notestore.FilterFolders)
	require.NoError(t, err)
	for _, row := range rows {
		if row.Snippet == name {
			return row
		}
	}
	t.Fatalf("folder %q not found", name)
	return nil
}

func notesIn(t *testing.T, store *notestore.NoteStore, folderID int64) []*notes.Row {
	t.Helper()
	rows, err := store.Children(context.Background(), folderID)
	require.NoError(t, err)
	return rows
}

func TestSync_PushesNewFolderAndNote(t *testing.T) {
	ts := newTaskServer(t)
	ctx := context.Background()
	d := newDevice(t, ts.URL)

	workID, err := d.store.CreateFolder(ctx, "Work")
	require.NoError(t, err)
	noteID, err := d.store.CreateNote(ctx, workID, "Buy milk")
	require.NoError(t, err)

	var phases []Phase
	d.engine.onProgress = func(p Phase) { phases = append(phases, p) }

	result := d.sync(t)
	assert.Equal(t, 4, result.Counts[node.ActionAddRemote]) // root, call record, Work, note
	assert.Equal(t, PhaseRestamp, result.Phase)
	assert.Equal(t, []Phase{PhaseLogin, PhaseInventory, PhaseTrash, PhaseFolders, PhaseNotes, PhaseResidual, PhaseCommit, PhaseRestamp}, phases)

	view, lists := fetchRemote(t, ts.URL)
	require.Contains(t, lists, notes.DefaultListName)
	require.Contains(t, lists, notes.CallNoteListName)
	require.Contains(t, lists, notes.MetaListName)
	require.Contains(t, lists, "[MIUI_Notes]Work")

	work := view["[MIUI_Notes]Work"]
	require.Len(t, work, 1)
	assert.Equal(t, "Buy milk", work[0].Name)

	metas := view[notes.MetaListName]
	require.Len(t, metas, 1)
	assert.Equal(t, notes.MetaNoteName, metas[0].Name)
	require.NotNil(t, metas[0].Notes)
	var shadow notes.ShadowDoc
	require.NoError(t, json.Unmarshal([]byte(*metas[0].Notes), &shadow))
	assert.Equal(t, work[0].ID, shadow.RemoteID)
	require.NotNil(t, shadow.Note.ID)
	assert.Equal(t, noteID, *shadow.Note.ID)
	assert.Equal(t, "Buy milk", shadow.Text())

	folder, err := d.store.Row(ctx, workID)
	require.NoError(t, err)
	assert.Equal(t, lists["[MIUI_Notes]Work"].ID, folder.RemoteID)
	assert.False(t, folder.LocalModified)
	assert.Equal(t, lists["[MIUI_Notes]Work"].LastModified, folder.SyncID)

	note, err := d.store.Row(ctx, noteID)
	require.NoError(t, err)
	assert.Equal(t, work[0].ID, note.RemoteID)
	assert.False(t, note.LocalModified)
	assert.Equal(t, work[0].LastModified, note.SyncID)

	root, err := d.store.Row(ctx, notes.RootFolderID)
	require.NoError(t, err)
	assert.Equal(t, lists[notes.DefaultListName].ID, root.RemoteID)

	last, err := d.store.LastSync(ctx)
	require.NoError(t, err)
	assert.False(t, last.IsZero())
}

func TestSync_SecondPassIsIdle(t *testing.T) {
	ts := newTaskServer(t)
	ctx := context.Background()
	d := newDevice(t, ts.URL)

	workID, err := d.store.CreateFolder(ctx, "Work")
	require.NoError(t, err)
	_, err = d.store.CreateNote(ctx, workID, "Buy milk")
	require.NoError(t, err)
	d.sync(t)

	d.remote.reset()
	result := d.sync(t)
	assert.Empty(t, result.Counts.String())
	assert.Equal(t, 2, result.Counts[node.ActionNone])
	assert.Zero(t, d.remote.mutations())

	pending, err := d.store.PendingChanges(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestSync_PullsIntoSecondDevice(t *testing.T) {
	ts := newTaskServer(t)
	ctx := context.Background()
	a := newDevice(t, ts.URL)
	b := newDevice(t, ts.URL)

	workID, err := a.store.CreateFolder(ctx, "Work")
	require.NoError(t, err)
	_, err = a.store.CreateNote(ctx, workID, "Buy milk")
	require.NoError(t, err)
	_, err = a.store.CreateNote(ctx, notes.RootFolderID, "Loose note")
	require.NoError(t, err)
	a.sync(t)

	result := b.sync(t)
	assert.Equal(t, 3, result.Counts[node.ActionAddLocal]) // Work, two tasks
	assert.Equal(t, 2, result.Counts[node.ActionAddRemote]) // root and call record adopt existing lists
	assert.Zero(t, b.remote.count("CreateTaskList"))

	work := folderByName(t, b.store, "Work")
	assert.NotEmpty(t, work.RemoteID)
	inWork := notesIn(t, b.store, work.ID)
	require.Len(t, inWork, 1)
	assert.Equal(t, "Buy milk", noteText(t, b.store, inWork[0].ID))
	assert.False(t, inWork[0].LocalModified)

	inRoot := notesIn(t, b.store, notes.RootFolderID)
	var texts []string
	for _, row := range inRoot {
		if row.IsNote() {
			texts = append(texts, noteText(t, b.store, row.ID))
		}
	}
	assert.Equal(t, []string{"Loose note"}, texts)

	// both devices settle
	b.remote.reset()
	b.sync(t)
	assert.Zero(t, b.remote.mutations())
}

func dataByMime(doc *notes.NoteDoc, mime string) *notes.DataInfo {
	for _, data := range doc.Data {
		if data.MimeType == mime {
			return data
		}
	}
	return nil
}

func TestSync_StructuredContentRoundTrip(t *testing.T) {
	ts := newTaskServer(t)
	ctx := context.Background()
	a := newDevice(t, ts.URL)
	b := newDevice(t, ts.URL)

	alert := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC).UnixMilli()
	called := time.Date(2026, 2, 27, 18, 5, 0, 0, time.UTC).UnixMilli()
	_, err := a.store.Insert(ctx, &notes.NoteDoc{
		Note: notes.NoteInfo{Type: notes.KindNote, BgColorID: 3, AlertDate: alert},
		Data: []*notes.DataInfo{
			{MimeType: notes.MimeTextNote, Content: "call back about the invoice"},
			{MimeType: notes.MimeCallNote, Data1: called, Data3: "555-1234"},
		},
	}, notes.CallRecordFolderID, "")
	require.NoError(t, err)
	a.sync(t)
	b.sync(t)

	var pulled []*notes.Row
	for _, row := range notesIn(t, b.store, notes.CallRecordFolderID) {
		if row.IsNote() {
			pulled = append(pulled, row)
		}
	}
	require.Len(t, pulled, 1)

	doc, err := b.store.QueryContent(ctx, pulled[0].ID)
	require.NoError(t, err)
	assert.Equal(t, notes.KindNote, doc.Note.Type)
	assert.Equal(t, 3, doc.Note.BgColorID)
	assert.Equal(t, alert, doc.Note.AlertDate)
	assert.Equal(t, notes.CallRecordFolderID, pulled[0].ParentID)
	assert.Equal(t, "call back about the invoice", doc.Text())

	call := dataByMime(doc, notes.MimeCallNote)
	require.NotNil(t, call)
	assert.Equal(t, called, call.Data1)
	assert.Equal(t, "555-1234", call.Data3)
	assert.Len(t, doc.Data, 2)
}

func TestSync_BlankNoteSurvives(t *testing.T) {
	ts := newTaskServer(t)
	ctx := context.Background()
	d := newDevice(t, ts.URL)

	// only the sync path can store a note without text
	id, err := d.store.Insert(ctx, &notes.NoteDoc{
		Note: notes.NoteInfo{Type: notes.KindNote, BgColorID: 2},
		Data: []*notes.DataInfo{{MimeType: notes.MimeTextNote}},
	}, notes.RootFolderID, "")
	require.NoError(t, err)

	result := d.sync(t)
	assert.Equal(t, 3, result.Counts[node.ActionAddRemote]) // root and call record folders plus the note

	result = d.sync(t)
	assert.Zero(t, result.Counts[node.ActionDelLocal])

	exists, err := d.store.NoteExists(ctx, id)
	require.NoError(t, err)
	assert.True(t, exists)
	row, err := d.store.Row(ctx, id)
	require.NoError(t, err)
	assert.NotEmpty(t, row.RemoteID)
	assert.NotZero(t, row.SyncID)
}

func TestSync_RemoteEditIsPulled(t *testing.T) {
	ts := newTaskServer(t)
	ctx := context.Background()
	a := newDevice(t, ts.URL)
	b := newDevice(t, ts.URL)

	noteID, err := a.store.CreateNote(ctx, notes.RootFolderID, "draft")
	require.NoError(t, err)
	a.sync(t)
	b.sync(t)

	rows := notesIn(t, b.store, notes.RootFolderID)
	require.Len(t, rows, 1)
	require.NoError(t, b.store.UpdateNote(ctx, rows[0].ID, "final"))

	result := b.sync(t)
	assert.Equal(t, 1, result.Counts[node.ActionUpdateRemote])

	result = a.sync(t)
	assert.Equal(t, 1, result.Counts[node.ActionUpdateLocal])
	assert.Equal(t, "final", noteText(t, a.store, noteID))

	row, err := a.store.Row(ctx, noteID)
	require.NoError(t, err)
	assert.False(t, row.LocalModified)

	doc, err := a.store.QueryContent(ctx, noteID)
	require.NoError(t, err)
	assert.Len(t, doc.Data, 1)
}

func TestSync_ConflictKeepsLocalEdit(t *testing.T) {
	ts := newTaskServer(t)
	ctx := context.Background()
	a := newDevice(t, ts.URL)
	b := newDevice(t, ts.URL)

	noteID, err := a.store.CreateNote(ctx, notes.RootFolderID, "v1")
	require.NoError(t, err)
	a.sync(t)
	b.sync(t)

	rows := notesIn(t, b.store, notes.RootFolderID)
	require.Len(t, rows, 1)
	require.NoError(t, b.store.UpdateNote(ctx, rows[0].ID, "from b"))
	b.sync(t)

	require.NoError(t, a.store.UpdateNote(ctx, noteID, "from a"))
	result := a.sync(t)
	assert.Equal(t, 1, result.Counts[node.ActionUpdateConflict])

	view, _ := fetchRemote(t, ts.URL)
	def := view[notes.DefaultListName]
	require.Len(t, def, 1)
	assert.Equal(t, "from a", def[0].Name)
	assert.Equal(t, "from a", noteText(t, a.store, noteID))

	b.sync(t)
	assert.Equal(t, "from a", noteText(t, b.store, rows[0].ID))
}

func TestSync_LocalDeleteReachesRemote(t *testing.T) {
	ts := newTaskServer(t)
	ctx := context.Background()
	d := newDevice(t, ts.URL)

	workID, err := d.store.CreateFolder(ctx, "Work")
	require.NoError(t, err)
	noteID, err := d.store.CreateNote(ctx, workID, "Buy milk")
	require.NoError(t, err)
	d.sync(t)

	require.NoError(t, d.store.DeleteNotes(ctx, []int64{noteID}, true))
	d.remote.reset()
	result := d.sync(t)
	assert.Equal(t, 1, result.Counts[node.ActionDelRemote])
	assert.Equal(t, 2, d.remote.count("DeleteNode")) // shadow and task

	view, _ := fetchRemote(t, ts.URL)
	assert.Empty(t, view["[MIUI_Notes]Work"])
	assert.Empty(t, view[notes.MetaListName])

	_, err = d.store.Row(ctx, noteID)
	assert.ErrorIs(t, err, notestore.ErrNoteNotFound)
}

func TestSync_RemoteDeleteReachesLocal(t *testing.T) {
	ts := newTaskServer(t)
	ctx := context.Background()
	a := newDevice(t, ts.URL)
	b := newDevice(t, ts.URL)

	noteID, err := a.store.CreateNote(ctx, notes.RootFolderID, "short lived")
	require.NoError(t, err)
	a.sync(t)
	b.sync(t)

	rows := notesIn(t, b.store, notes.RootFolderID)
	require.Len(t, rows, 1)
	require.NoError(t, b.store.DeleteNotes(ctx, []int64{rows[0].ID}, true))
	b.sync(t)

	result := a.sync(t)
	assert.Equal(t, 1, result.Counts[node.ActionDelLocal])
	_, err = a.store.Row(ctx, noteID)
	assert.ErrorIs(t, err, notestore.ErrNoteNotFound)
}

func TestSync_MoveBetweenFolders(t *testing.T) {
	ts := newTaskServer(t)
	ctx := context.Background()
	d := newDevice(t, ts.URL)

	workID, err := d.store.CreateFolder(ctx, "Work")
	require.NoError(t, err)
	homeID, err := d.store.CreateFolder(ctx, "Home")
	require.NoError(t, err)
	noteID, err := d.store.CreateNote(ctx, workID, "Call plumber")
	require.NoError(t, err)
	d.sync(t)

	require.NoError(t, d.store.MoveNotes(ctx, []int64{noteID}, homeID))
	result := d.sync(t)
	assert.Equal(t, 1, result.Counts[node.ActionUpdateRemote])
	assert.Equal(t, 1, d.remote.count("MoveTask"))

	view, _ := fetchRemote(t, ts.URL)
	assert.Empty(t, view["[MIUI_Notes]Work"])
	home := view["[MIUI_Notes]Home"]
	require.Len(t, home, 1)
	assert.Equal(t, "Call plumber", home[0].Name)
}

func TestSync_FolderRenamePushed(t *testing.T) {
	ts := newTaskServer(t)
	ctx := context.Background()
	d := newDevice(t, ts.URL)

	workID, err := d.store.CreateFolder(ctx, "Work")
	require.NoError(t, err)
	d.sync(t)

	require.NoError(t, d.store.RenameFolder(ctx, workID, "Office"))
	result := d.sync(t)
	assert.Equal(t, 1, result.Counts[node.ActionUpdateRemote])

	_, lists := fetchRemote(t, ts.URL)
	assert.Contains(t, lists, "[MIUI_Notes]Office")
	assert.NotContains(t, lists, "[MIUI_Notes]Work")
}

func TestSync_CancelStopsRemoteCalls(t *testing.T) {
	ts := newTaskServer(t)
	ctx := context.Background()

	var engine *SyncEngine
	var atCancel int
	remote := &countingRemote{RemoteClient: newRemote(t, ts.URL)}
	store := newLocal(t)
	engine = NewSyncEngine(remote, store, WithProgress(func(p Phase) {
		if p == PhaseNotes {
			engine.Cancel()
			atCancel = remote.total()
		}
	}))

	for _, text := range []string{"one", "two", "three"} {
		_, err := store.CreateNote(ctx, notes.RootFolderID, text)
		require.NoError(t, err)
	}

	result := engine.Sync(ctx)
	assert.Equal(t, StatusCancelled, result.Status)
	assert.Equal(t, PhaseNotes, result.Phase)
	assert.Equal(t, atCancel, remote.total())
	assert.False(t, engine.IsSyncing())

	last, err := store.LastSync(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	// the next pass starts with a fresh token
	engine.onProgress = nil
	result = engine.Sync(ctx)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, 3, result.Counts[node.ActionAddRemote])
}

func TestSync_CancelInsideNotesLoop(t *testing.T) {
	ts := newTaskServer(t)
	ctx := context.Background()
	d := newDevice(t, ts.URL)

	for _, text := range []string{"one", "two", "three"} {
		_, err := d.store.CreateNote(ctx, notes.RootFolderID, text)
		require.NoError(t, err)
	}

	var atCancel int
	d.remote.before = func(op string) {
		if op == "CreateTask" && atCancel == 0 {
			d.engine.Cancel()
			atCancel = d.remote.total()
		}
	}

	result := d.engine.Sync(ctx)
	assert.Equal(t, StatusCancelled, result.Status)
	assert.Equal(t, PhaseNotes, result.Phase)
	// the note being pushed still gets its shadow, then the loop stops
	assert.Equal(t, atCancel+1, d.remote.total())
	assert.Equal(t, 2, d.remote.count("CreateTask"))
	assert.Zero(t, d.remote.count("Flush"))

	pending, err := d.store.PendingChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, pending)
}

func TestSync_CancelWhileLoadingInventory(t *testing.T) {
	ts := newTaskServer(t)
	ctx := context.Background()
	a := newDevice(t, ts.URL)
	b := newDevice(t, ts.URL)

	workID, err := a.store.CreateFolder(ctx, "Work")
	require.NoError(t, err)
	_, err = a.store.CreateNote(ctx, workID, "Buy milk")
	require.NoError(t, err)
	a.sync(t)

	var atCancel int
	b.remote.before = func(op string) {
		if op == "FetchListItems" && atCancel == 0 {
			b.engine.Cancel()
			atCancel = b.remote.total()
		}
	}

	result := b.engine.Sync(ctx)
	assert.Equal(t, StatusCancelled, result.Status)
	assert.Equal(t, PhaseInventory, result.Phase)
	assert.Equal(t, atCancel, b.remote.total())
	assert.Equal(t, 1, b.remote.count("FetchListItems"))

	rows, err := b.store.QueryRows(ctx, notestore.FilterSyncable)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSync_CancelledContext(t *testing.T) {
	ts := newTaskServer(t)
	d := newDevice(t, ts.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := d.engine.Sync(ctx)
	assert.Equal(t, StatusCancelled, result.Status)
	assert.Zero(t, d.remote.total())
}

func TestSync_RejectsConcurrentPass(t *testing.T) {
	ts := newTaskServer(t)
	d := newDevice(t, ts.URL)

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	d.remote.before = func(op string) {
		if op == "Login" {
			once.Do(func() { close(started) })
			<-release
		}
	}

	done := make(chan *Result)
	go func() { done <- d.engine.Sync(context.Background()) }()

	<-started
	assert.True(t, d.engine.IsSyncing())
	result := d.engine.Sync(context.Background())
	assert.Equal(t, StatusInProgress, result.Status)
	assert.ErrorIs(t, result.Err, ErrSyncInProgress)

	close(release)
	assert.Equal(t, StatusSuccess, (<-done).Status)
}

func TestSync_LockFileHeldElsewhere(t *testing.T) {
	ts := newTaskServer(t)
	path := filepath.Join(t.TempDir(), "sync.lock")
	d := newDevice(t, ts.URL, WithLockFile(path))

	other := flock.New(path)
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	result := d.engine.Sync(context.Background())
	assert.Equal(t, StatusInProgress, result.Status)
	assert.Zero(t, d.remote.total())

	require.NoError(t, other.Unlock())
	d.sync(t)
}

func TestSync_NetworkFailure(t *testing.T) {
	ts := newTaskServer(t)
	d := newDevice(t, ts.URL)
	ts.Close()

	result := d.engine.Sync(context.Background())
	assert.Equal(t, StatusNetworkError, result.Status)
	assert.Equal(t, PhaseLogin, result.Phase)
	assert.Error(t, result.Err)
}
