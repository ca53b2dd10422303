package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"grognon/internal/responses"
	"grognon/internal/services"
)

type QueryHandler struct {
	queryService *services.QueryService
}

func NewQueryHandler(queryService *services.QueryService) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
	}
}

// ExecuteQuery handles POST /api/v1/connections/:id/query
func (h *QueryHandler) ExecuteQuery(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.ExecuteQueryRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.queryService.Preview(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err, "Failed to execute query")
		return
	}

	responses.Success(c, http.StatusOK, gin.H{
		"result":            result,
		"execution_time_ms": result.ExecutionTime,
	}, "Query executed successfully")
}

// GetQueryHistory handles GET /api/v1/connections/:id/query/history
func (h *QueryHandler) GetQueryHistory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil {
		responses.FailWithErrors(c, http.StatusBadRequest, err, "Invalid limit", map[string]string{"limit": "must be an integer"})
		return
	}

	history, err := h.queryService.History(c.Request.Context(), id, limit)
	if err != nil {
		fail(c, err, "Failed to get query history")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"history": history}, "Query history retrieved successfully")
}
