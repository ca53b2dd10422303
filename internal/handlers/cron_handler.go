package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"grognon/internal/apperrors"
	"grognon/internal/models"
	"grognon/internal/responses"
	"grognon/internal/services"
)

type CronHandler struct {
	crons       *services.CronService
	connections *services.ConnectionService
}

func NewCronHandler(crons *services.CronService, connections *services.ConnectionService) *CronHandler {
	return &CronHandler{
		crons:       crons,
		connections: connections,
	}
}

// ListCrons handles GET /api/v1/crons
func (h *CronHandler) ListCrons(c *gin.Context) {
	crons, err := h.crons.List(c.Request.Context(), nil)
	if err != nil {
		fail(c, err, "Failed to get crons")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"crons": crons}, "Crons retrieved successfully")
}

// CreateCron handles POST /api/v1/crons
func (h *CronHandler) CreateCron(c *gin.Context) {
	var req models.CronCreate
	if !bindJSON(c, &req) {
		return
	}

	cron, err := h.crons.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err, "Failed to create cron")
		return
	}
	responses.Success(c, http.StatusCreated, gin.H{"cron": cron}, "Cron created successfully")
}

// details gathers a cron with its connection and outputs. A removed connection is reported as null.
func (h *CronHandler) details(c *gin.Context, id int64) (gin.H, bool) {
	ctx := c.Request.Context()

	cron, err := h.crons.Get(ctx, id)
	if err != nil {
		fail(c, err, "Failed to get cron")
		return nil, false
	}

	var connection *models.Connection
	connection, err = h.connections.Get(ctx, cron.ConnectionId)
	if err != nil && !apperrors.IsType(err, apperrors.ErrTypeNotFound) {
		fail(c, err, "Failed to get connection")
		return nil, false
	}

	outputs, err := h.crons.Outputs(ctx, id)
	if err != nil {
		fail(c, err, "Failed to get cron outputs")
		return nil, false
	}

	return gin.H{
		"cron":       cron,
		"connection": connection,
		"outputs":    outputs,
	}, true
}

// GetCron handles GET /api/v1/crons/:id
func (h *CronHandler) GetCron(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	data, ok := h.details(c, id)
	if !ok {
		return
	}
	responses.Success(c, http.StatusOK, data, "Cron retrieved successfully")
}

// UpdateCron handles PUT /api/v1/crons/:id
func (h *CronHandler) UpdateCron(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.CronUpdate
	if !bindJSON(c, &req) {
		return
	}

	cron, err := h.crons.Update(c.Request.Context(), id, req.CronCreate())
	if err != nil {
		fail(c, err, "Failed to update cron")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"cron": cron}, "Cron updated successfully")
}

// DeleteCron handles DELETE /api/v1/crons/:id
func (h *CronHandler) DeleteCron(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.crons.Delete(c.Request.Context(), id); err != nil {
		fail(c, err, "Failed to delete cron")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Cron deleted successfully")
}

// GetCronData handles GET /api/v1/crons/:id/data
func (h *CronHandler) GetCronData(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	data, ok := h.details(c, id)
	if !ok {
		return
	}

	rows, err := h.crons.Data(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "Failed to get cron data")
		return
	}
	data["data"] = rows

	responses.Success(c, http.StatusOK, data, "Cron data retrieved successfully")
}
