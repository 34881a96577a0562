package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/homework-backend/internal/platform/apierr"
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

// RespondServiceError maps service-layer errors onto the envelope using
// the apierr status mapping.
func RespondServiceError(c *gin.Context, err error) {
	status := apierr.StatusOf(err)
	code := "internal_error"
	var ae *apierr.Error
	if errors.As(err, &ae) && ae.Code != "" {
		code = ae.Code
	} else if status == http.StatusNotFound {
		code = "not_found"
	} else if status == http.StatusBadRequest {
		code = "invalid_request"
	}
	RespondError(c, status, code, err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
