package history

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hms-api/internal/handler"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/service/history"
	"github.com/jwalitptl/hms-api/pkg/httputil"
)

type Handler struct {
	service *history.Service
}

func NewHandler(service *history.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/patients/:id/history", h.ListForPatient)

	records := r.Group("/history")
	{
		records.POST("", h.Save)
		records.GET("/:id", h.Get)
		records.PUT("/:id", h.Update)
	}
}

func (h *Handler) ListForPatient(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	patientID, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	records, err := h.service.List(c.Request.Context(), actor, patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, records)
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

	record, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, record)
}

// Save creates a record, or updates one when the body carries an id.
func (h *Handler) Save(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	var input model.HistoryInput
	if !handler.BindJSON(c, &input) {
		return
	}

	record, err := h.service.Save(c.Request.Context(), actor, &input)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if input.ID == nil {
		httputil.RespondWithCreated(c, record)
		return
	}
	httputil.RespondWithSuccess(c, record)
}

func (h *Handler) Update(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var input model.HistoryInput
	if !handler.BindJSON(c, &input) {
		return
	}

	record, err := h.service.Update(c.Request.Context(), actor, id, &input)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, record)
}
