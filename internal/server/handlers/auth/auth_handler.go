package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openmined/notesync/internal/server/auth"
	"github.com/openmined/notesync/internal/server/handlers/api"
)

type AuthHandler struct {
	auth *auth.AuthService
}

func New(auth *auth.AuthService) *AuthHandler {
	return &AuthHandler{
		auth: auth,
	}
}

func (h *AuthHandler) Token(ctx *gin.Context) {
	var req TokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, fmt.Errorf("failed to bind json: %w", err))
		return
	}

	token, err := h.auth.IssueToken(ctx, req.Account)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidAccount) {
			api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		} else {
			api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeAuthTokenGenerationFailed, err)
		}
		return
	}

	ctx.PureJSON(http.StatusOK, &TokenResponse{
		Token: token,
	})
}
