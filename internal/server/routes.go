package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openmined/notesync/internal/server/handlers/auth"
	"github.com/openmined/notesync/internal/server/handlers/tasks"
	"github.com/openmined/notesync/internal/server/middlewares"
	"github.com/openmined/notesync/internal/version"
)

// tokenRateLimit caps /auth/token requests per client IP
const tokenRateLimit = "30-M"

func SetupRoutes(cfg *Config, svc *Services) http.Handler {
	r := gin.New()

	authH := auth.New(svc.Auth)
	tasksH := tasks.New(svc.Tasks)

	r.Use(middlewares.Logger())
	r.Use(gin.Recovery())
	r.Use(middlewares.GZIP())
	r.Use(middlewares.CORS())
	r.Use(middlewares.Secure(cfg.HTTP.TLS()))

	r.GET("/", IndexHandler)
	r.GET("/healthz", HealthHandler)

	r.POST("/auth/token", middlewares.RateLimiter(tokenRateLimit), authH.Token)

	login := middlewares.Login(svc.Auth)
	session := middlewares.Session(svc.Auth)
	hosted := middlewares.HostedDomain()

	for _, prefix := range []string{"/tasks", "/tasks/a/:domain"} {
		g := r.Group(prefix)
		g.GET("/ig", login, hosted, tasksH.Bootstrap)
		g.POST("/r/ig", session, hosted, tasksH.Actions)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "not found",
		})
	})

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error": "method not allowed",
		})
	})

	return r.Handler()
}

func IndexHandler(ctx *gin.Context) {
	ctx.String(http.StatusOK, version.DetailedWithApp())
}

func HealthHandler(ctx *gin.Context) {
	ctx.PureJSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}
