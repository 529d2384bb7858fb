package httputil

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hms-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithCreated sends a 201 success response
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, err error) {
	kind := errors.KindInternal
	message := "Internal server error"

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && appErr.Kind != errors.KindInternal {
		kind = appErr.Kind
		message = appErr.Message
	} else {
		log.Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetString("request_id")).
			Msg("Unhandled request error")
	}

	statusCode := StatusFor(kind)
	c.AbortWithStatusJSON(statusCode, Response{
		Success: false,
		Error: &Error{
			Code:    statusCode,
			Kind:    string(kind),
			Message: message,
		},
	})
}

// RespondWithBadRequest reports a request that failed binding or parsing.
func RespondWithBadRequest(c *gin.Context, message string) {
	RespondWithError(c, errors.Validation(message))
}

// StatusFor maps an error kind onto an HTTP status code.
func StatusFor(kind errors.Kind) int {
	switch kind {
	case errors.KindSlotConflict, errors.KindDuplicateUsername:
		return http.StatusConflict
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindForbidden:
		return http.StatusForbidden
	case errors.KindInvalidDateTime:
		return http.StatusUnprocessableEntity
	case errors.KindValidation:
		return http.StatusBadRequest
	case errors.KindUnauthorized:
		return http.StatusUnauthorized
	case errors.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
