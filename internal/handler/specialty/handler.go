package specialty

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
	specialties repository.SpecialtyRepository
}

func NewHandler(specialties repository.SpecialtyRepository) *Handler {
	return &Handler{specialties: specialties}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	specialties := r.Group("/specialties")
	{
		specialties.POST("", h.Create)
		specialties.GET("", h.List)
		specialties.GET("/:id", h.Get)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateSpecialtyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid request body", err))
		return
	}

	specialty := &model.Specialty{Name: req.Name}
	if err := h.specialties.Create(c.Request.Context(), specialty); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, specialty)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid specialty id", err))
		return
	}

	specialty, err := h.specialties.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.RespondWithError(c, apperrors.NewNotFound("specialty", err))
			return
		}
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, specialty)
}

func (h *Handler) List(c *gin.Context) {
	specialties, err := h.specialties.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, specialties)
}
