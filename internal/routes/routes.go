package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"grognon/internal/handlers"
)

func RegisterRoutes(router *gin.Engine, connectionHandler *handlers.ConnectionHandler, cronHandler *handlers.CronHandler, queryHandler *handlers.QueryHandler, metaHandler *handlers.MetaHandler) {
	api := router.Group("/api/v1")

	connectionRoutes := NewConnectionRoutes(connectionHandler)
	connectionRoutes.RegisterRoutes(api)

	queryRoutes := NewQueryRoutes(queryHandler)
	queryRoutes.RegisterRoutes(api)

	cronRoutes := NewCronRoutes(cronHandler)
	cronRoutes.RegisterRoutes(api)

	api.GET("/meta", metaHandler.GetMeta)
	api.GET("/flash", metaHandler.GetFlash)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
}
