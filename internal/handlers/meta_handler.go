package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"grognon/internal/middlewares"
	"grognon/internal/models"
	"grognon/internal/responses"
)

type MetaHandler struct{}

func NewMetaHandler() *MetaHandler {
	return &MetaHandler{}
}

// GetMeta handles GET /api/v1/meta
func (h *MetaHandler) GetMeta(c *gin.Context) {
	responses.Success(c, http.StatusOK, gin.H{
		"DbTypes":   models.DbTypes,
		"Schedules": models.Schedules,
	}, "")
}

// GetFlash handles GET /api/v1/flash
func (h *MetaHandler) GetFlash(c *gin.Context) {
	responses.Success(c, http.StatusOK, gin.H{"errors": middlewares.PopFlashErrors(c)}, "")
}
