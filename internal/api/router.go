package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/manideeprkummitha/team-collab/internal/middleware"
	"github.com/manideeprkummitha/team-collab/internal/observ"
	"github.com/manideeprkummitha/team-collab/internal/service"
	"go.uber.org/zap"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	JWTSecret   string
	CORSOrigins []string
	// RateLimiter throttles mutations when set.
	RateLimiter *middleware.RateLimiter
	// Checks are run by GET /health, keyed by dependency name.
	Checks map[string]HealthCheck
}

// NewRouter wires every handler under /v1 behind the auth middleware.
func NewRouter(svc *service.Services, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(observ.GinLogger(logger))
	r.Use(observ.GinRecovery(logger, true))

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", healthHandler(cfg.Checks))

	workspaces := NewWorkspaceHandler(svc.Workspaces, logger)
	members := NewMemberHandler(svc.Members, logger)
	channels := NewChannelHandler(svc.Channels, logger)
	conversations := NewConversationHandler(svc.Conversations, logger)
	messages := NewMessageHandler(svc.Messages, svc.Reactions, logger)
	users := NewUserHandler(svc.Users, logger)

	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	if cfg.RateLimiter != nil {
		v1.Use(middleware.RateLimitMiddleware(cfg.RateLimiter, logger))
	}
	{
		v1.GET("/users/me", users.Me)
		v1.PUT("/users/me", users.Sync)

		v1.GET("/workspaces", workspaces.List)
		v1.POST("/workspaces", workspaces.Create)
		v1.GET("/workspaces/:id", workspaces.GetByID)
		v1.GET("/workspaces/:id/info", workspaces.Info)
		v1.PATCH("/workspaces/:id", workspaces.Update)
		v1.DELETE("/workspaces/:id", workspaces.Delete)
		v1.POST("/workspaces/:id/join-code", workspaces.RotateJoinCode)
		v1.POST("/workspaces/:id/join", workspaces.Join)

		v1.GET("/workspaces/:id/members", members.List)
		v1.GET("/workspaces/:id/members/current", members.Current)
		v1.GET("/members/:id", members.GetByID)
		v1.PATCH("/members/:id", members.UpdateRole)
		v1.DELETE("/members/:id", members.Delete)

		v1.GET("/workspaces/:id/channels", channels.List)
		v1.POST("/workspaces/:id/channels", channels.Create)
		v1.GET("/channels/:id", channels.GetByID)
		v1.PATCH("/channels/:id", channels.Update)
		v1.DELETE("/channels/:id", channels.Delete)

		v1.POST("/workspaces/:id/conversations", conversations.CreateOrGet)

		v1.GET("/messages", messages.List)
		v1.POST("/messages", messages.Create)
		v1.GET("/messages/:id", messages.GetByID)
		v1.PATCH("/messages/:id", messages.Update)
		v1.DELETE("/messages/:id", messages.Delete)
		v1.POST("/messages/:id/reactions", messages.ToggleReaction)
	}
	return r
}

// healthHandler reports 200 when every check passes and 503 otherwise,
// with the failing dependencies named in the body.
func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				deps[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}
		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{"status": state, "dependencies": deps})
	}
}
