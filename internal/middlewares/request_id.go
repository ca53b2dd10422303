package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"grognon/internal/logging"
)

const RequestIDHeader = "X-Request-ID"

// RequestID tags every request with an id, reusing the caller's when present.
func RequestID(c *gin.Context) {
	id := c.GetHeader(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}

	c.Set(logging.RequestIDKey, id)
	c.Header(RequestIDHeader, id)

	c.Next()
}
