// Package taskwire defines the documents exchanged with the task service.
package taskwire

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionMove   = "move"
	ActionGetAll = "get_all"
)

const (
	EntityTypeTask  = "TASK"
	EntityTypeGroup = "GROUP"
)

// CreatorNull is the literal creator id sent with every create action.
const CreatorNull = "null"

// Action is one entry of an action_list.
type Action struct {
	ActionType     string       `json:"action_type"`
	ActionID       int          `json:"action_id"`
	ID             string       `json:"id,omitempty"`
	Index          *int         `json:"index,omitempty"`
	EntityDelta    *EntityDelta `json:"entity_delta,omitempty"`
	ParentID       string       `json:"parent_id,omitempty"`
	DestParentType string       `json:"dest_parent_type,omitempty"`
	ListID         string       `json:"list_id,omitempty"`
	PriorSiblingID string       `json:"prior_sibling_id,omitempty"`
	SourceList     string       `json:"source_list,omitempty"`
	DestParent     string       `json:"dest_parent,omitempty"`
	DestList       string       `json:"dest_list,omitempty"`
	GetDeleted     *bool        `json:"get_deleted,omitempty"`
}

// EntityDelta carries the fields a create or update sets.
type EntityDelta struct {
	Name       string  `json:"name"`
	CreatorID  string  `json:"creator_id,omitempty"`
	EntityType string  `json:"entity_type,omitempty"`
	Notes      *string `json:"notes,omitempty"`
	Deleted    *bool   `json:"deleted,omitempty"`
}

// Request is the body posted in the "r" form field.
type Request struct {
	ActionList    []*Action `json:"action_list"`
	ClientVersion int64     `json:"client_version"`
}

// Result reports the outcome of one action.
type Result struct {
	ActionID int    `json:"action_id,omitempty"`
	NewID    string `json:"new_id,omitempty"`
}

// Response answers a Request.
type Response struct {
	Results         []*Result `json:"results"`
	Tasks           []*Entity `json:"tasks,omitempty"`
	LatestSyncPoint int64     `json:"latest_sync_point,omitempty"`
}

// Entity is a list or task as the service reports it.
type Entity struct {
	ID           string  `json:"id" yaml:"id"`
	Name         string  `json:"name" yaml:"name"`
	Notes        *string `json:"notes,omitempty" yaml:"notes,omitempty"`
	LastModified int64   `json:"last_modified" yaml:"last_modified"`
	Deleted      bool    `json:"deleted,omitempty" yaml:"deleted,omitempty"`
	Completed    bool    `json:"completed,omitempty" yaml:"completed,omitempty"`
	EntityType   string  `json:"entity_type,omitempty" yaml:"entity_type,omitempty"`
	ListID       string  `json:"list_id,omitempty" yaml:"list_id,omitempty"`
	ParentID     string  `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
}

// Bootstrap is the document embedded in the login page.
type Bootstrap struct {
	Version int64          `json:"v"`
	State   BootstrapState `json:"t"`
}

type BootstrapState struct {
	Lists []*Entity `json:"lists"`
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }
