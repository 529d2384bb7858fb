package patient

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hms-api/internal/handler"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/service/patient"
	"github.com/jwalitptl/hms-api/pkg/httputil"
)

// Handler serves a doctor's own patient list.
type Handler struct {
	service *patient.Service
}

func NewHandler(service *patient.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/doctor/patients")
	{
		patients.GET("", h.List)
		patients.POST("", h.Create)
	}
}

func (h *Handler) List(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	patients, err := h.service.DoctorPatients(c.Request.Context(), actor.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patients)
}

func (h *Handler) Create(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	var req model.CreatePatientRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	p, err := h.service.CreatePatient(c.Request.Context(), actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, p)
}
