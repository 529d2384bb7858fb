package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hms-api/internal/handler"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/service/appointment"
	"github.com/jwalitptl/hms-api/internal/service/patient"
	"github.com/jwalitptl/hms-api/internal/service/stats"
	"github.com/jwalitptl/hms-api/internal/service/user"
	"github.com/jwalitptl/hms-api/pkg/httputil"
)

type Handler struct {
	users        *user.Service
	patients     *patient.Service
	appointments *appointment.Service
	stats        *stats.Service
}

func NewHandler(users *user.Service, patients *patient.Service, appointments *appointment.Service, stats *stats.Service) *Handler {
	return &Handler{users: users, patients: patients, appointments: appointments, stats: stats}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin")
	{
		admin.GET("/dashboard", h.Dashboard)
		admin.GET("/stats", h.Stats)

		admin.GET("/doctors", h.ListDoctors)
		admin.POST("/doctors", h.CreateDoctor)
		admin.PUT("/doctors/:id", h.UpdateDoctor)
		admin.DELETE("/doctors/:id", h.DeleteDoctor)
		admin.GET("/doctors/:id/appointments", h.DoctorAppointments)

		admin.GET("/blacklist", h.ListBlacklist)
		admin.POST("/blacklist", h.AddToBlacklist)

		admin.GET("/patients", h.ListPatients)
		admin.DELETE("/patients/:id", h.DeletePatient)
		admin.GET("/patients/:id/appointments", h.PatientAppointments)
	}
}

func (h *Handler) Dashboard(c *gin.Context) {
	counts, err := h.stats.Dashboard(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, counts)
}

func (h *Handler) Stats(c *gin.Context) {
	chart, err := h.stats.DoctorsBySpecialization(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, chart)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	var filter model.UserFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		httputil.RespondWithBadRequest(c, "invalid query parameters")
		return
	}

	doctors, err := h.users.ListDoctors(c.Request.Context(), &filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doctors)
}

func (h *Handler) CreateDoctor(c *gin.Context) {
	var req model.CreateDoctorRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	doctor, err := h.users.CreateDoctor(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, doctor)
}

func (h *Handler) UpdateDoctor(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateDoctorRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	doctor, err := h.users.UpdateDoctor(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doctor)
}

func (h *Handler) DeleteDoctor(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.users.DeleteDoctor(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"id": id})
}

func (h *Handler) ListBlacklist(c *gin.Context) {
	entries, err := h.users.ListBlacklist(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, entries)
}

func (h *Handler) AddToBlacklist(c *gin.Context) {
	var entry model.BlacklistEntry
	if !handler.BindJSON(c, &entry) {
		return
	}

	created, err := h.users.AddToBlacklist(c.Request.Context(), &entry)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) ListPatients(c *gin.Context) {
	var filter model.UserFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		httputil.RespondWithBadRequest(c, "invalid query parameters")
		return
	}

	patients, err := h.patients.ListPatients(c.Request.Context(), &filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patients)
}

func (h *Handler) DeletePatient(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.patients.DeletePatient(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"id": id})
}

// DoctorAppointments lists one doctor's calendar, ordered by date and time.
func (h *Handler) DoctorAppointments(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	list, err := h.appointments.ListForDoctor(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) PatientAppointments(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	list, err := h.appointments.ListForPatient(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}
