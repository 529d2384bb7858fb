package appointment

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hms-api/internal/handler"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/service/appointment"
	"github.com/jwalitptl/hms-api/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.Book)
		appointments.GET("", h.List)
		appointments.GET("/:id", h.Get)
		appointments.POST("/:id/cancel", h.Cancel)
		appointments.POST("/:id/reschedule", h.Reschedule)
		appointments.POST("/:id/complete", h.Complete)
	}
}

func (h *Handler) Book(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	var req model.BookAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	apt, err := h.service.Book(c.Request.Context(), actor, req.DoctorID, req.PatientID, req.Date, req.Time)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, apt)
}

// List accepts doctor_id, patient_id and status filters; the service pins
// non-admins to their own appointments.
func (h *Handler) List(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	filters := &model.AppointmentFilters{Status: model.AppointmentStatus(c.Query("status"))}
	for param, dst := range map[string]*int64{
		"doctor_id":  &filters.DoctorID,
		"patient_id": &filters.PatientID,
	} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httputil.RespondWithBadRequest(c, "invalid "+param)
			return
		}
		*dst = id
	}

	list, err := h.service.List(c.Request.Context(), actor, filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) Get(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	apt, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) Cancel(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	apt, err := h.service.Cancel(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) Reschedule(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.RescheduleAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	apt, err := h.service.Reschedule(c.Request.Context(), actor, id, req.Date, req.Time)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) Complete(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.CompleteAppointmentRequest
	if c.Request.ContentLength != 0 && !handler.BindJSON(c, &req) {
		return
	}

	apt, err := h.service.Complete(c.Request.Context(), actor, id, req.Diagnosis, req.Prescription)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}
