package webhook

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/citamed/scheduling-api/internal/service/waitlist"
	apperrors "github.com/citamed/scheduling-api/pkg/errors"
	"github.com/citamed/scheduling-api/pkg/httputil"
	"github.com/citamed/scheduling-api/pkg/logger"
)

// InboundMessageRequest is the payload the messaging gateway posts for
// each patient reply.
type InboundMessageRequest struct {
	From string `json:"from" binding:"required"`
	Body string `json:"body" binding:"required"`
}

// InboundMessageResponse tells the gateway what to answer back to the
// patient on the same channel.
type InboundMessageResponse struct {
	Result string `json:"result"`
	Reply  string `json:"reply"`
}

// ReplyRouter matches an inbound reply to its offer and applies it.
type ReplyRouter interface {
	RouteReply(ctx context.Context, from, text string) (*waitlist.RouteResult, error)
}

type Handler struct {
	router ReplyRouter
	logger *logger.Logger
}

func NewHandler(router ReplyRouter, logger *logger.Logger) *Handler {
	return &Handler{router: router, logger: logger}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/webhooks/messages", h.HandleInbound)
}

// HandleInbound routes a patient reply to its offer. Unmatched and
// unreadable replies still return 200 with a help message; the gateway
// only sees an error when storage fails.
func (h *Handler) HandleInbound(c *gin.Context) {
	var req InboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid request body", err))
		return
	}

	result, err := h.router.RouteReply(c.Request.Context(), req.From, req.Body)
	if err != nil {
		h.logger.Error(err, "failed to route inbound reply")
		httputil.RespondWithError(c, apperrors.NewInternal(err))
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, InboundMessageResponse{
		Result: string(result.Kind),
		Reply:  result.ReplyText,
	})
}
