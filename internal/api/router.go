package api

import (
	"github.com/gin-gonic/gin"

	"github.com/coderag/index_go_server/config"
	"github.com/coderag/index_go_server/internal/api/handler"
	"github.com/coderag/index_go_server/internal/api/middleware"
)

type Router struct {
	authHandler      *handler.AuthHandler
	jobHandler       *handler.JobHandler
	websocketHandler *handler.WebSocketHandler
	cfg              *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	jobHandler *handler.JobHandler,
	websocketHandler *handler.WebSocketHandler,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:      authHandler,
		jobHandler:       jobHandler,
		websocketHandler: websocketHandler,
		cfg:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api/v1")
	{
		// WebSocket (token passed as query parameter)
		api.GET("/ws", r.websocketHandler.Handle)

		// Public - token exchange
		api.POST("/auth/token", r.authHandler.Token)

		// Authenticated - job control
		jobs := api.Group("/jobs")
		jobs.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			jobs.POST("", r.jobHandler.Create)
			jobs.GET("", r.jobHandler.List)
			jobs.GET("/:id", r.jobHandler.Get)
			jobs.GET("/:id/files", r.jobHandler.Files)
			jobs.POST("/:id/pause", r.jobHandler.Pause)
			jobs.POST("/:id/resume", r.jobHandler.Resume)
			jobs.POST("/:id/cancel", r.jobHandler.Cancel)
			jobs.DELETE("/:id", r.jobHandler.Delete)
		}
	}

	return engine
}
