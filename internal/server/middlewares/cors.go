package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS lets browser clients on any origin call the token and bootstrap endpoints.
// The action endpoint still needs the session cookie and the AT header, which
// a cross-origin page cannot send without credentials.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", headerAT},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}
