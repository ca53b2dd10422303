package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"grognon/internal/apperrors"
	"grognon/internal/logging"
	"grognon/internal/middlewares"
	"grognon/internal/responses"
	"grognon/internal/utils"
)

// parseID reads a numeric path parameter, answering 400 when it is not one.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := utils.ParseID(c.Param(name))
	if err != nil || id <= 0 {
		responses.FailWithErrors(c, http.StatusBadRequest, err, "Invalid "+name, map[string]string{name: "must be a positive integer"})
		return 0, false
	}
	return id, true
}

// bindJSON decodes the body, answering 400 and flashing the error when it is malformed.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		errs := map[string]string{"body": err.Error()}
		middlewares.FlashErrors(c, errs)
		responses.FailWithErrors(c, http.StatusBadRequest, err, "Invalid request body", errs)
		return false
	}
	return true
}

// fail maps a service error to its status. Validation errors on mutating requests are flashed.
func fail(c *gin.Context, err error, message string) {
	status := apperrors.HTTPStatus(err)

	var errs map[string]string
	var appErr *apperrors.Error
	if errors.As(err, &appErr) && appErr.Field != "" {
		errs = map[string]string{appErr.Field: err.Error()}
		if c.Request.Method != http.MethodGet {
			middlewares.FlashErrors(c, errs)
		}
	}

	if status >= http.StatusInternalServerError {
		slog.Error(message, slog.Any("error", err), slog.Any("request_id", c.Value(logging.RequestIDKey)))
	}

	responses.FailWithErrors(c, status, err, message, errs)
}
