package routes

import (
	"github.com/gin-gonic/gin"

	"grognon/internal/handlers"
)

type ConnectionRoutes struct {
	handler *handlers.ConnectionHandler
}

func NewConnectionRoutes(handler *handlers.ConnectionHandler) *ConnectionRoutes {
	return &ConnectionRoutes{handler: handler}
}

func (r *ConnectionRoutes) RegisterRoutes(router *gin.RouterGroup) {
	connections := router.Group("/connections")
	{
		connections.GET("", r.handler.ListConnections)
		connections.POST("", r.handler.CreateConnection)
		connections.GET("/:id", r.handler.GetConnection)
		connections.DELETE("/:id", r.handler.DeleteConnection)

		// Schema endpoints
		connections.POST("/:id/reflect", r.handler.ReflectConnection)
		connections.GET("/:id/completions", r.handler.GetCompletions)
		connections.GET("/:id/diagram", r.handler.VisualizeSchema)

		connections.GET("/:id/crons", r.handler.ListConnectionCrons)
	}
}
