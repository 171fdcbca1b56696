package appointment

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/citamed/scheduling-api/internal/model"
	"github.com/citamed/scheduling-api/internal/service/appointment"
	apperrors "github.com/citamed/scheduling-api/pkg/errors"
	"github.com/citamed/scheduling-api/pkg/httputil"
	"github.com/citamed/scheduling-api/pkg/validator"
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
		appointments.GET("/availability", h.Availability)
		appointments.GET("/:id", h.Get)
		appointments.POST("/:id/confirm", h.Confirm)
		appointments.POST("/:id/cancel", h.Cancel)
		appointments.POST("/:id/no-show", h.MarkNoShow)
	}
}

func (h *Handler) Book(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid request body", err))
		return
	}

	date, err := validator.Date(req.Date)
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest(err.Error(), err))
		return
	}
	slotTime, err := validator.ClockTime(req.Time)
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest(err.Error(), err))
		return
	}

	appt := &model.Appointment{
		PatientID:      uuid.MustParse(req.PatientID),
		ProfessionalID: uuid.MustParse(req.ProfessionalID),
		Date:           date,
		Time:           slotTime,
	}

	if err := h.service.Book(c.Request.Context(), appt); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrProfessionalUnavailable):
			httputil.RespondWithError(c, apperrors.NewConflict("professional is not active", err))
		case errors.Is(err, sql.ErrNoRows):
			httputil.RespondWithError(c, apperrors.NewNotFound("patient or professional", err))
		default:
			httputil.RespondWithError(c, err)
		}
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, appt)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid appointment id", err))
		return
	}

	appt, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.RespondWithError(c, apperrors.NewNotFound("appointment", err))
			return
		}
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, appt)
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.AppointmentFilters{}

	if raw := c.Query("professional_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.NewBadRequest("invalid professional_id", err))
			return
		}
		filters.ProfessionalID = id
	}
	if raw := c.Query("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.NewBadRequest("invalid patient_id", err))
			return
		}
		filters.PatientID = id
	}
	if raw := c.Query("status"); raw != "" {
		filters.Status = model.AppointmentStatus(raw)
	}
	if raw := c.Query("date"); raw != "" {
		date, err := validator.Date(raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.NewBadRequest(err.Error(), err))
			return
		}
		filters.Date = &date
	}

	appointments, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, appointments)
}

// Availability is an advisory pre-check; booking re-validates inside
// its own transaction.
func (h *Handler) Availability(c *gin.Context) {
	professionalID, err := uuid.Parse(c.Query("professional_id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid professional_id", err))
		return
	}
	date, err := validator.Date(c.Query("date"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest(err.Error(), err))
		return
	}
	slotTime, err := validator.ClockTime(c.Query("time"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest(err.Error(), err))
		return
	}

	available, err := h.service.SlotAvailable(c.Request.Context(), model.Slot{
		ProfessionalID: professionalID,
		Date:           date,
		Time:           slotTime,
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"available": available})
}

func (h *Handler) Confirm(c *gin.Context) {
	h.transition(c, func(id uuid.UUID) error {
		return h.service.Confirm(c.Request.Context(), id)
	}, "appointment confirmed")
}

func (h *Handler) Cancel(c *gin.Context) {
	// Body is optional for cancellations.
	var req model.CancelAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Reason = ""
	}

	h.transition(c, func(id uuid.UUID) error {
		return h.service.Cancel(c.Request.Context(), id, req.Reason)
	}, "appointment cancelled")
}

func (h *Handler) MarkNoShow(c *gin.Context) {
	h.transition(c, func(id uuid.UUID) error {
		return h.service.MarkNoShow(c.Request.Context(), id)
	}, "appointment marked as no-show")
}

func (h *Handler) transition(c *gin.Context, fn func(id uuid.UUID) error, message string) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid appointment id", err))
		return
	}

	if err := fn(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.RespondWithError(c, apperrors.NewNotFound("appointment", err))
			return
		}
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, message)
}
