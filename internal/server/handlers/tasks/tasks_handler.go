package tasks

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/openmined/notesync/internal/server/handlers/api"
	"github.com/openmined/notesync/internal/server/middlewares"
	"github.com/openmined/notesync/internal/server/taskstore"
	"github.com/openmined/notesync/internal/taskwire"
)

const requestField = "r"

type TasksHandler struct {
	store *taskstore.TaskStore
}

func New(store *taskstore.TaskStore) *TasksHandler {
	return &TasksHandler{
		store: store,
	}
}

// Bootstrap renders the page holding the account's lists and current version.
func (h *TasksHandler) Bootstrap(ctx *gin.Context) {
	account := middlewares.Account(ctx)

	snapshot, err := h.store.Snapshot(account)
	if err != nil {
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeInternalError, err)
		return
	}

	page, err := taskwire.RenderBootstrap(snapshot)
	if err != nil {
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeInternalError, err)
		return
	}

	ctx.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// Actions applies the action list posted in the `r` form field.
func (h *TasksHandler) Actions(ctx *gin.Context) {
	account := middlewares.Account(ctx)

	raw, ok := ctx.GetPostForm(requestField)
	if !ok || raw == "" {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeTaskBadRequest, fmt.Errorf("form field %q is required", requestField))
		return
	}

	var req taskwire.Request
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeTaskBadRequest, fmt.Errorf("failed to decode request: %w", err))
		return
	}

	resp, err := h.store.Apply(account, &req)
	if err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeTaskActionFailed, err)
		return
	}

	ctx.PureJSON(http.StatusOK, resp)
}
