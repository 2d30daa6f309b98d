package taskstore

import (
	"testing"

	"github.com/openmined/notesync/internal/taskwire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const alice = "alice@example.org"

func createList(t *testing.T, s *TaskStore, name string) string {
	t.Helper()
	resp, err := s.Apply(alice, &taskwire.Request{ActionList: []*taskwire.Action{{
		ActionType:  taskwire.ActionCreate,
		ActionID:    1,
		Index:       taskwire.Int(1),
		EntityDelta: &taskwire.EntityDelta{Name: name, CreatorID: taskwire.CreatorNull, EntityType: taskwire.EntityTypeGroup},
	}}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	require.NotEmpty(t, resp.Results[0].NewID)
	return resp.Results[0].NewID
}

func createTask(t *testing.T, s *TaskStore, listID, prior, name string) string {
	t.Helper()
	resp, err := s.Apply(alice, &taskwire.Request{ActionList: []*taskwire.Action{{
		ActionType:     taskwire.ActionCreate,
		ActionID:       1,
		EntityDelta:    &taskwire.EntityDelta{Name: name, CreatorID: taskwire.CreatorNull, EntityType: taskwire.EntityTypeTask},
		ParentID:       listID,
		ListID:         listID,
		DestParentType: taskwire.EntityTypeGroup,
		PriorSiblingID: prior,
	}}})
	require.NoError(t, err)
	return resp.Results[0].NewID
}

func listNames(t *testing.T, s *TaskStore, listID string) []string {
	t.Helper()
	resp, err := s.Apply(alice, &taskwire.Request{ActionList: []*taskwire.Action{{
		ActionType: taskwire.ActionGetAll,
		ActionID:   1,
		ListID:     listID,
		GetDeleted: taskwire.Bool(false),
	}}})
	require.NoError(t, err)

	names := []string{}
	for _, task := range resp.Tasks {
		names = append(names, task.Name)
	}
	return names
}

func TestSnapshotEmptyAccount(t *testing.T) {
	s := New()
	b, err := s.Snapshot(alice)
	require.NoError(t, err)
	assert.Equal(t, int64(0), b.Version)
	assert.Empty(t, b.State.Lists)
}

func TestCreateAndOrder(t *testing.T) {
	s := New()
	listID := createList(t, s, "[MIUI_Notes]Work")

	first := createTask(t, s, listID, "", "first")
	createTask(t, s, listID, first, "second")
	createTask(t, s, listID, "", "top")

	assert.Equal(t, []string{"top", "first", "second"}, listNames(t, s, listID))

	b, err := s.Snapshot(alice)
	require.NoError(t, err)
	require.Len(t, b.State.Lists, 1)
	assert.Equal(t, "[MIUI_Notes]Work", b.State.Lists[0].Name)
	assert.Equal(t, int64(4), b.Version)
}

func TestLastModifiedIncreases(t *testing.T) {
	s := New()
	listID := createList(t, s, "[MIUI_Notes]Work")
	taskID := createTask(t, s, listID, "", "a")

	resp, err := s.Apply(alice, &taskwire.Request{ActionList: []*taskwire.Action{
		{ActionType: taskwire.ActionUpdate, ActionID: 1, ID: taskID, EntityDelta: &taskwire.EntityDelta{Name: "b", Notes: taskwire.String("n")}},
		{ActionType: taskwire.ActionUpdate, ActionID: 2, ID: taskID, EntityDelta: &taskwire.EntityDelta{Name: "c"}},
		{ActionType: taskwire.ActionGetAll, ActionID: 3, ListID: listID},
	}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)
	require.Len(t, resp.Tasks, 1)

	task := resp.Tasks[0]
	assert.Equal(t, "c", task.Name)
	assert.Equal(t, "n", *task.Notes, "notes survive an update without notes")
	assert.Equal(t, int64(4), task.LastModified)
	assert.Equal(t, int64(4), resp.LatestSyncPoint)
}

func TestDeletedHidden(t *testing.T) {
	s := New()
	listID := createList(t, s, "[MIUI_Notes]Work")
	taskID := createTask(t, s, listID, "", "gone")

	_, err := s.Apply(alice, &taskwire.Request{ActionList: []*taskwire.Action{
		{ActionType: taskwire.ActionUpdate, ActionID: 1, ID: taskID, EntityDelta: &taskwire.EntityDelta{Name: "gone", Deleted: taskwire.Bool(true)}},
		{ActionType: taskwire.ActionUpdate, ActionID: 2, ID: listID, EntityDelta: &taskwire.EntityDelta{Name: "[MIUI_Notes]Work", Deleted: taskwire.Bool(true)}},
	}})
	require.NoError(t, err)

	assert.Empty(t, listNames(t, s, listID))

	resp, err := s.Apply(alice, &taskwire.Request{ActionList: []*taskwire.Action{
		{ActionType: taskwire.ActionGetAll, ActionID: 1, ListID: listID, GetDeleted: taskwire.Bool(true)},
	}})
	require.NoError(t, err)
	assert.Len(t, resp.Tasks, 1)

	b, err := s.Snapshot(alice)
	require.NoError(t, err)
	assert.Empty(t, b.State.Lists)
}

func TestMove(t *testing.T) {
	s := New()
	work := createList(t, s, "[MIUI_Notes]Work")
	home := createList(t, s, "[MIUI_Notes]Home")
	a := createTask(t, s, work, "", "a")
	createTask(t, s, work, a, "b")
	c := createTask(t, s, home, "", "c")

	_, err := s.Apply(alice, &taskwire.Request{ActionList: []*taskwire.Action{{
		ActionType:     taskwire.ActionMove,
		ActionID:       1,
		ID:             a,
		SourceList:     work,
		DestParent:     home,
		DestList:       home,
		PriorSiblingID: c,
	}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, listNames(t, s, work))
	assert.Equal(t, []string{"c", "a"}, listNames(t, s, home))

	// reorder within one list
	_, err = s.Apply(alice, &taskwire.Request{ActionList: []*taskwire.Action{{
		ActionType: taskwire.ActionMove,
		ActionID:   2,
		ID:         a,
		SourceList: home,
		DestParent: home,
	}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, listNames(t, s, home))
}

func TestApplyErrors(t *testing.T) {
	s := New()
	listID := createList(t, s, "[MIUI_Notes]Work")

	tests := []struct {
		name   string
		action *taskwire.Action
		err    error
	}{
		{"unknown type", &taskwire.Action{ActionType: "frobnicate"}, ErrUnknownAction},
		{"create without delta", &taskwire.Action{ActionType: taskwire.ActionCreate}, ErrBadAction},
		{"task in unknown list", &taskwire.Action{ActionType: taskwire.ActionCreate, ListID: "nope",
			EntityDelta: &taskwire.EntityDelta{EntityType: taskwire.EntityTypeTask}}, ErrListNotFound},
		{"update unknown", &taskwire.Action{ActionType: taskwire.ActionUpdate, ID: "nope", EntityDelta: &taskwire.EntityDelta{}}, ErrTaskNotFound},
		{"move unknown", &taskwire.Action{ActionType: taskwire.ActionMove, ID: "nope", DestParent: listID}, ErrTaskNotFound},
		{"get_all unknown", &taskwire.Action{ActionType: taskwire.ActionGetAll, ListID: "nope"}, ErrListNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Apply(alice, &taskwire.Request{ActionList: []*taskwire.Action{tt.action}})
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestAccountsAreIsolated(t *testing.T) {
	s := New()
	createList(t, s, "[MIUI_Notes]Work")

	b, err := s.Snapshot("bob@example.org")
	require.NoError(t, err)
	assert.Empty(t, b.State.Lists)
}
