package doctor

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hms-api/internal/handler"
	"github.com/jwalitptl/hms-api/internal/service/slot"
	"github.com/jwalitptl/hms-api/internal/service/user"
	"github.com/jwalitptl/hms-api/pkg/httputil"
)

// Handler serves the doctor directory and the slot views.
type Handler struct {
	users *user.Service
	slots *slot.Service
}

func NewHandler(users *user.Service, slots *slot.Service) *Handler {
	return &Handler{users: users, slots: slots}
}

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/doctors", h.Directory)
	protected.GET("/doctors/:id/availability", h.Availability)
	protected.GET("/schedule", h.Schedule)
}

func (h *Handler) Directory(c *gin.Context) {
	doctors, err := h.users.DoctorDirectory(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doctors)
}

// Availability is the patient view, starting tomorrow.
func (h *Handler) Availability(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	schedule, err := h.slots.PatientAvailability(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, schedule)
}

// Schedule is the calling doctor's own calendar, starting today.
func (h *Handler) Schedule(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	schedule, err := h.slots.DoctorSchedule(c.Request.Context(), actor.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, schedule)
}
