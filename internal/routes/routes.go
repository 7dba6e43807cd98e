package routes

import (
	"vinivici/internal/handlers"
	"vinivici/internal/logger"
	"vinivici/pkg/apperrors"
	"vinivici/ws"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the HTML pages, the JSON API and the WebSocket.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	wsHandler *ws.WebSocketHandler,
) {
	appHandlers.PageHandler.RegisterRoutes(ginRouter)
	ginRouter.GET("/healthz", appHandlers.HealthHandler.Health)

	api := ginRouter.Group("/api/v1")
	{
		appHandlers.DiscoveryHandler.RegisterRoutes(api)
	}

	ginRouter.NoRoute(func(c *gin.Context) {
		apperrors.HandleError(c, apperrors.NewNotFoundError("Route not found: "+c.Request.Method+" "+c.Request.URL.Path))
	})

	if wsHandler != nil {
		ginRouter.GET("/ws", wsHandler.ServeWS)
		logger.Info("WebSocket route /ws registered")
	}
}
