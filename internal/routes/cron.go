package routes

import (
	"github.com/gin-gonic/gin"

	"grognon/internal/handlers"
)

type CronRoutes struct {
	handler *handlers.CronHandler
}

func NewCronRoutes(handler *handlers.CronHandler) *CronRoutes {
	return &CronRoutes{handler: handler}
}

func (r *CronRoutes) RegisterRoutes(router *gin.RouterGroup) {
	crons := router.Group("/crons")
	{
		crons.GET("", r.handler.ListCrons)
		crons.POST("", r.handler.CreateCron)
		crons.GET("/:id", r.handler.GetCron)
		crons.PUT("/:id", r.handler.UpdateCron)
		crons.DELETE("/:id", r.handler.DeleteCron)
		crons.GET("/:id/data", r.handler.GetCronData)
	}
}
