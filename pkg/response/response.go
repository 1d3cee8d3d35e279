package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/punjabready/portal-api/pkg/apperror"
	"github.com/punjabready/portal-api/pkg/logging"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
	StatusCode int    `json:"statusCode"`
	Timestamp  string `json:"timestamp"`
}

const debugKey = "response_debug"

// Debug marks every request on the engine so ResponseError exposes the
// underlying error of 500 responses when enabled is true.
func Debug(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(debugKey, enabled)
		c.Next()
	}
}

func New(success bool, message string, data any, status int) Envelope {
	return Envelope{
		Success:    success,
		Message:    message,
		Data:       data,
		StatusCode: status,
		Timestamp:  time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

func Success(c *gin.Context, status int, message string, data any) {
	c.JSON(status, New(true, message, data, status))
}

func OK(c *gin.Context, message string, data any) {
	Success(c, http.StatusOK, message, data)
}

func Created(c *gin.Context, message string, data any) {
	Success(c, http.StatusCreated, message, data)
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)
	message := err.Error()
	var data any

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		message = appErr.Error()
		if len(appErr.Fields) > 0 {
			data = gin.H{"errors": appErr.Fields}
		}
	}

	if code == http.StatusInternalServerError {
		logging.Error().
			Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("internal error")
		sentry.CaptureException(err)

		if !c.GetBool(debugKey) {
			message = "Server Error"
		}
	}

	c.AbortWithStatusJSON(code, New(false, message, data, code))
}
