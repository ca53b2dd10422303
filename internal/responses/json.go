package responses

import "github.com/gin-gonic/gin"

type APIResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func Success(c *gin.Context, statusCode int, data interface{}, message string) {
	c.JSON(statusCode, APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

func Fail(c *gin.Context, statusCode int, err error, message string) {
	FailWithErrors(c, statusCode, err, message, nil)
}

// FailWithErrors also reports per-field validation messages.
func FailWithErrors(c *gin.Context, statusCode int, err error, message string, errs map[string]string) {
	resp := APIResponse{
		Status:  "error",
		Message: message,
		Errors:  errs,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(statusCode, resp)
}
