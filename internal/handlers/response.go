package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/archalign/validation-backend/internal/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondServiceError maps a service error to HTTP. Internal errors are
// sanitized before leaving the process; the original goes to the log at the
// call site.
func RespondServiceError(c *gin.Context, err error) {
	status := apierr.StatusOf(err)
	code := apierr.CodeOf(err)
	if status >= http.StatusInternalServerError {
		c.JSON(status, ErrorEnvelope{Error: APIError{Message: "internal error", Code: code}})
		return
	}
	RespondError(c, status, code, err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
