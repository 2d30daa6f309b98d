package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/openmined/notesync/internal/server/auth"
	"github.com/openmined/notesync/internal/server/handlers/api"
)

const (
	SessionCookie     = "GTL"
	headerAT          = "AT"
	accountContextKey = "account" // Key to store the signed in account in Gin context
)

var (
	errNoSession = errors.New("session cookie is missing")
	errNoAT      = errors.New("AT header is missing")
)

// Login authenticates the bootstrap page with the `auth` query param, or with an
// existing session cookie, and (re)issues the session cookie.
func Login(authService *auth.AuthService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := ctx.Query("auth")
		if token == "" {
			token, _ = ctx.Cookie(SessionCookie)
		}

		claims, err := authService.ValidateToken(ctx, token)
		if err != nil {
			api.AbortWithError(ctx, http.StatusUnauthorized, api.CodeAuthInvalidCredentials, err)
			return
		}

		ctx.SetSameSite(http.SameSiteLaxMode)
		ctx.SetCookie(SessionCookie, token, 0, "/", "", ctx.Request.TLS != nil, true)
		ctx.Set(accountContextKey, claims.Account())
		ctx.Next()
	}
}

// Session guards the action endpoint: it needs the session cookie and the `AT: 1` header.
func Session(authService *auth.AuthService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie(SessionCookie)
		if err != nil || token == "" {
			api.AbortWithError(ctx, http.StatusUnauthorized, api.CodeAuthInvalidCredentials, errNoSession)
			return
		}

		claims, err := authService.ValidateToken(ctx, token)
		if err != nil {
			api.AbortWithError(ctx, http.StatusUnauthorized, api.CodeAuthInvalidCredentials, err)
			return
		}

		if ctx.GetHeader(headerAT) != "1" {
			api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, errNoAT)
			return
		}

		ctx.Set(accountContextKey, claims.Account())
		ctx.Next()
	}
}

// HostedDomain restricts /tasks/a/:domain routes to accounts of that domain.
// Other accounts get a 404 so that clients fall back to the default routes.
func HostedDomain() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		domain := strings.ToLower(ctx.Param("domain"))
		if domain == "" {
			ctx.Next()
			return
		}

		if !strings.HasSuffix(strings.ToLower(Account(ctx)), "@"+domain) {
			ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error": "not found",
			})
			return
		}
		ctx.Next()
	}
}

// Account returns the account authenticated for this request.
func Account(ctx *gin.Context) string {
	return ctx.GetString(accountContextKey)
}
