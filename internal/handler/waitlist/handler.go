package waitlist

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/citamed/scheduling-api/internal/model"
	"github.com/citamed/scheduling-api/internal/repository"
	apperrors "github.com/citamed/scheduling-api/pkg/errors"
	"github.com/citamed/scheduling-api/pkg/httputil"
)

type Handler struct {
	waitlist repository.WaitlistRepository
	patients repository.PatientRepository
}

func NewHandler(waitlist repository.WaitlistRepository, patients repository.PatientRepository) *Handler {
	return &Handler{waitlist: waitlist, patients: patients}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	waitlist := r.Group("/waitlist")
	{
		waitlist.POST("", h.Create)
		waitlist.GET("", h.List)
		waitlist.GET("/:id", h.Get)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateWaitlistEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid request body", err))
		return
	}

	patientID := uuid.MustParse(req.PatientID)
	if _, err := h.patients.Get(c.Request.Context(), patientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.RespondWithError(c, apperrors.NewNotFound("patient", err))
			return
		}
		httputil.RespondWithError(c, err)
		return
	}

	entry := &model.WaitlistEntry{
		PatientID:        patientID,
		SpecialtyID:      uuid.MustParse(req.SpecialtyID),
		PreferredChannel: model.ChannelWhatsApp,
		PriorityTier:     req.PriorityTier,
	}
	if req.ProfessionalID != "" {
		id := uuid.MustParse(req.ProfessionalID)
		entry.ProfessionalID = &id
	}
	if req.PreferredChannel != "" {
		entry.PreferredChannel = model.NotificationChannel(req.PreferredChannel)
	}
	if entry.PriorityTier == 0 {
		entry.PriorityTier = 3
	}

	if err := h.waitlist.Create(c.Request.Context(), entry); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, entry)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid entry id", err))
		return
	}

	entry, err := h.waitlist.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.RespondWithError(c, apperrors.NewNotFound("waitlist entry", err))
			return
		}
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, entry)
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.WaitlistFilters{
		OnlyWaiting: c.Query("only_waiting") == "true",
	}
	if raw := c.Query("specialty_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.NewBadRequest("invalid specialty_id", err))
			return
		}
		filters.SpecialtyID = id
	}

	entries, err := h.waitlist.List(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, entries)
}
