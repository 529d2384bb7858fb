package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hms-api/internal/handler"
	"github.com/jwalitptl/hms-api/internal/middleware"
	"github.com/jwalitptl/hms-api/internal/model"
	authsvc "github.com/jwalitptl/hms-api/internal/service/auth"
	"github.com/jwalitptl/hms-api/pkg/httputil"
)

type Handler struct {
	service *authsvc.Service
}

func NewHandler(service *authsvc.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts register and login on public and logout on protected.
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	auth := public.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}
	protected.POST("/auth/logout", h.Logout)
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	user, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, user)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	token, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, token)
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.GetString(middleware.ContextToken)); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "logged out"})
}
