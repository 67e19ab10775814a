package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/fortune-master/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(logger),
	)

	router.GET("/healthz", handler.Healthz)

	api := router.Group("/api/v1")
	{
		api.GET("/modes", handler.ListModes)
		api.POST("/fortunes", handler.RequestFortune)

		api.POST("/sessions", handler.CreateSession)
		api.GET("/sessions/:id", handler.GetSession)
		api.PUT("/sessions/:id/mode", handler.SwitchMode)
		api.POST("/sessions/:id/submit", handler.SubmitSession)
		api.POST("/sessions/:id/reset", handler.ResetSession)

		api.POST("/chat", handler.Chat)
		api.POST("/chat/sessions", handler.OpenChat)
		api.GET("/chat/sessions/:id", handler.GetChat)
		api.POST("/chat/sessions/:id/messages", handler.SendChat)
		api.GET("/chat/sessions/:id/ws", handler.ChatSocket(newChatUpgrader(cfg.HTTP.AllowedOrigins)))
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
