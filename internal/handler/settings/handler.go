package settings

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/citamed/scheduling-api/internal/model"
	"github.com/citamed/scheduling-api/internal/repository"
	"github.com/citamed/scheduling-api/internal/service/settings"
	apperrors "github.com/citamed/scheduling-api/pkg/errors"
	"github.com/citamed/scheduling-api/pkg/httputil"
)

type Handler struct {
	repo     repository.SettingRepository
	provider *settings.Service
}

func NewHandler(repo repository.SettingRepository, provider *settings.Service) *Handler {
	return &Handler{repo: repo, provider: provider}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/settings")
	{
		group.GET("", h.List)
		group.GET("/:key", h.Get)
		group.PUT("/:key", h.Upsert)
	}
}

func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, list)
}

func (h *Handler) Get(c *gin.Context) {
	setting, err := h.repo.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.RespondWithError(c, apperrors.NewNotFound("setting", err))
			return
		}
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, setting)
}

// Upsert writes the value and drops the provider cache so the engine
// reads the new value on its next decision.
func (h *Handler) Upsert(c *gin.Context) {
	var req model.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid request body", err))
		return
	}

	if err := h.repo.Upsert(c.Request.Context(), c.Param("key"), req.Value); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	h.provider.Invalidate()
	httputil.RespondWithMessage(c, "setting updated")
}
