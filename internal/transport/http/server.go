package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/rankchat-server/internal/auth"
	"github.com/vovakirdan/rankchat-server/internal/config"
	"github.com/vovakirdan/rankchat-server/internal/core"
	"github.com/vovakirdan/rankchat-server/internal/metrics"
	"github.com/vovakirdan/rankchat-server/internal/session"
	"github.com/vovakirdan/rankchat-server/internal/store"
)

// NewServer builds the HTTP server with REST, WebSocket and metrics routes.
func NewServer(hub *core.Hub, authService *auth.Service, st store.Store, sessions *session.Registry, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(hub, authService, st, sessions, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter registers every route on a gin engine.
func NewRouter(hub *core.Hub, authService *auth.Service, st store.Store, sessions *session.Registry, cfg *config.Config, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, authService, sessions, cfg, logger)))

	apiHandlers := NewAPIHandlers(authService, hub, logger)
	roomHandlers := NewRoomHandlers(hub, st, sessions, logger)
	userHandlers := NewUserHandlers(st, sessions, logger)

	router.POST("/api/salute", apiHandlers.Salute)

	api := router.Group("/api", AuthMiddleware(authService, logger))
	api.GET("/me", apiHandlers.Me)
	api.GET("/users/:name", userHandlers.GetUser)
	api.GET("/receivers", RequireRank(auth.MaxRank, logger), roomHandlers.ListReceivers)
	api.GET("/messages/:id", RequireRank(auth.MaxRank, logger), roomHandlers.GetMessage)
	api.GET("/rooms", roomHandlers.RoomCounts)
	api.GET("/rooms/:room/members", roomHandlers.ListMembers)
	api.POST("/rooms/:room/subscribe", roomHandlers.Subscribe)
	api.POST("/rooms/:room/messages", roomHandlers.PostMessage)

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
