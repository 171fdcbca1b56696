package professional

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
	professionals repository.ProfessionalRepository
	specialties   repository.SpecialtyRepository
}

func NewHandler(professionals repository.ProfessionalRepository, specialties repository.SpecialtyRepository) *Handler {
	return &Handler{professionals: professionals, specialties: specialties}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	professionals := r.Group("/professionals")
	{
		professionals.POST("", h.Create)
		professionals.GET("", h.List)
		professionals.GET("/:id", h.Get)
		professionals.PATCH("/:id/status", h.UpdateStatus)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateProfessionalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid request body", err))
		return
	}

	specialtyID := uuid.MustParse(req.SpecialtyID)
	if _, err := h.specialties.Get(c.Request.Context(), specialtyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.RespondWithError(c, apperrors.NewNotFound("specialty", err))
			return
		}
		httputil.RespondWithError(c, err)
		return
	}

	professional := &model.Professional{
		Name:        req.Name,
		SpecialtyID: specialtyID,
		Status:      model.ProfessionalStatusActive,
	}
	if err := h.professionals.Create(c.Request.Context(), professional); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, professional)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid professional id", err))
		return
	}

	professional, err := h.professionals.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.RespondWithError(c, apperrors.NewNotFound("professional", err))
			return
		}
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, professional)
}

func (h *Handler) List(c *gin.Context) {
	var specialtyID uuid.UUID
	if raw := c.Query("specialty_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.NewBadRequest("invalid specialty_id", err))
			return
		}
		specialtyID = id
	}

	professionals, err := h.professionals.List(c.Request.Context(), specialtyID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, professionals)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid professional id", err))
		return
	}

	var req model.UpdateProfessionalStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid request body", err))
		return
	}

	if err := h.professionals.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "professional status updated")
}
