// Package handler holds helpers shared by the HTTP handlers in its
// subpackages.
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hms-api/internal/middleware"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/httputil"
	"github.com/jwalitptl/hms-api/pkg/validator"
)

// Actor returns the authenticated caller, writing a 401 when absent.
func Actor(c *gin.Context) (model.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
	}
	return actor, ok
}

// ParamID parses a positive integer path parameter, writing a 400 on failure.
func ParamID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		httputil.RespondWithBadRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// BindJSON binds and validates the body, writing the translated error.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		httputil.RespondWithError(c, validator.Translate(err))
		return false
	}
	return true
}
