package routes

import (
	"github.com/gin-gonic/gin"

	"grognon/internal/handlers"
)

type QueryRoutes struct {
	handler *handlers.QueryHandler
}

func NewQueryRoutes(handler *handlers.QueryHandler) *QueryRoutes {
	return &QueryRoutes{handler: handler}
}

func (r *QueryRoutes) RegisterRoutes(router *gin.RouterGroup) {
	query := router.Group("/connections/:id/query")
	{
		query.POST("", r.handler.ExecuteQuery)
		query.GET("/history", r.handler.GetQueryHistory)
	}
}
