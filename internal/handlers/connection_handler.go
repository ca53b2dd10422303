package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"grognon/internal/models"
	"grognon/internal/responses"
	"grognon/internal/services"
)

type ConnectionHandler struct {
	connections *services.ConnectionService
	reflection  *services.ReflectionService
	crons       *services.CronService
}

func NewConnectionHandler(connections *services.ConnectionService, reflection *services.ReflectionService, crons *services.CronService) *ConnectionHandler {
	return &ConnectionHandler{
		connections: connections,
		reflection:  reflection,
		crons:       crons,
	}
}

// ListConnections handles GET /api/v1/connections
func (h *ConnectionHandler) ListConnections(c *gin.Context) {
	connections, err := h.connections.List(c.Request.Context())
	if err != nil {
		fail(c, err, "Failed to get connections")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"connections": connections}, "Connections retrieved successfully")
}

// CreateConnection handles POST /api/v1/connections
func (h *ConnectionHandler) CreateConnection(c *gin.Context) {
	var req models.ConnectionCreate
	if !bindJSON(c, &req) {
		return
	}

	con, err := h.connections.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err, "Failed to create connection")
		return
	}
	responses.Success(c, http.StatusCreated, gin.H{"connection": con}, "Connection created successfully")
}

// GetConnection handles GET /api/v1/connections/:id
func (h *ConnectionHandler) GetConnection(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	con, err := h.connections.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "Failed to get connection")
		return
	}

	columns, err := h.reflection.Columns(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "Failed to get columns")
		return
	}

	responses.Success(c, http.StatusOK, gin.H{
		"connectionId": id,
		"connection":   con,
		"columns":      columns,
	}, "Connection retrieved successfully")
}

// DeleteConnection handles DELETE /api/v1/connections/:id
func (h *ConnectionHandler) DeleteConnection(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.connections.Delete(c.Request.Context(), id); err != nil {
		fail(c, err, "Failed to delete connection")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Connection deleted successfully")
}

// ReflectConnection handles POST /api/v1/connections/:id/reflect
func (h *ConnectionHandler) ReflectConnection(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.connections.ReflectConnection(c.Request.Context(), id); err != nil {
		fail(c, err, "Failed to reflect connection")
		return
	}

	columns, err := h.reflection.Columns(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "Failed to get columns")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"columns": columns}, "Connection reflected successfully")
}

// GetCompletions handles GET /api/v1/connections/:id/completions
func (h *ConnectionHandler) GetCompletions(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if _, err := h.connections.Get(c.Request.Context(), id); err != nil {
		fail(c, err, "Failed to get connection")
		return
	}

	ext, err := h.reflection.Completions(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "Failed to build completions")
		return
	}
	responses.Success(c, http.StatusOK, ext, "Completions generated successfully")
}

// VisualizeSchema handles GET /api/v1/connections/:id/diagram
func (h *ConnectionHandler) VisualizeSchema(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if _, err := h.connections.Get(c.Request.Context(), id); err != nil {
		fail(c, err, "Failed to get connection")
		return
	}

	mermaidDiagram, err := h.reflection.Diagram(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "Failed to generate schema visualization")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"diagram": mermaidDiagram}, "Schema visualization generated successfully")
}

// ListConnectionCrons handles GET /api/v1/connections/:id/crons
func (h *ConnectionHandler) ListConnectionCrons(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	con, err := h.connections.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "Failed to get connection")
		return
	}

	crons, err := h.crons.List(c.Request.Context(), &id)
	if err != nil {
		fail(c, err, "Failed to get crons")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{
		"connectionId": id,
		"connection":   con,
		"crons":        crons,
	}, "Crons retrieved successfully")
}
