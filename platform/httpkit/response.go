// Package httpkit holds the gin glue shared by every module: middleware,
// caller identity and the JSON error envelope.
package httpkit

import (
	"errors"
	"net/http"

	"leadgen_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

const msgInternal = "internal error"

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func JSON(c *gin.Context, status int, payload any) { c.JSON(status, payload) }
func OK(c *gin.Context, payload any)               { c.JSON(http.StatusOK, payload) }
func Accepted(c *gin.Context, payload any)         { c.JSON(http.StatusAccepted, payload) }

// Error writes an error envelope. Details may be nil.
func Error(c *gin.Context, status int, message string, details any) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// HandleError writes err and reports whether it did. Errors carrying an
// *apperr.Error keep their kind and message. Anything else becomes a bare 500
// and is logged with the request.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		_ = c.Error(err)
		Error(c, http.StatusInternalServerError, msgInternal, nil)
		return true
	}

	Error(c, appErr.HTTPStatus(), appErr.Message, appErr.Details)
	return true
}
