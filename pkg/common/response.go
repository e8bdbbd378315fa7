package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorInfo is the JSON body returned for failed requests
type ErrorInfo struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse sends an error response
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"error": ErrorInfo{Code: statusCode, Message: message}})
}

// AppErrorResponse sends an AppError response, falling back to a 500 for
// plain errors.
func AppErrorResponse(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.Code, gin.H{"error": ErrorInfo{Code: appErr.Code, Message: appErr.Message}})
		return
	}
	ErrorResponse(c, http.StatusInternalServerError, "internal server error")
}
