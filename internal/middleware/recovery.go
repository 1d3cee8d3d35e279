package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/punjabready/portal-api/pkg/apperror"
	"github.com/punjabready/portal-api/pkg/logging"
	"github.com/punjabready/portal-api/pkg/response"
)

// Recovery turns a panic into a 500 envelope.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("path", c.Request.URL.Path).
					Msg("recovered from panic")

				response.ResponseError(c, apperror.New(http.StatusInternalServerError, "", fmt.Errorf("panic: %v", rec)))
			}
		}()
		c.Next()
	}
}

// NotFound answers unmatched routes with the standard envelope.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.ResponseError(c, apperror.NotFound("Route not found"))
	}
}
