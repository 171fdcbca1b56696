package waitlist

import (
	"context"
	"strings"
	"time"

	"github.com/citamed/scheduling-api/internal/model"
	"github.com/citamed/scheduling-api/internal/repository"
	"github.com/citamed/scheduling-api/pkg/logger"
	"github.com/citamed/scheduling-api/pkg/metrics"
	"github.com/citamed/scheduling-api/pkg/phone"
)

// RouteResultKind classifies what happened to an inbound reply.
type RouteResultKind string

const (
	RouteAccepted     RouteResultKind = "accept"
	RouteDeclined     RouteResultKind = "decline"
	RouteUnrecognized RouteResultKind = "unrecognized"
	RouteNotFound     RouteResultKind = "not_found"
	RouteExpired      RouteResultKind = "expired"
	RouteSlotGone     RouteResultKind = "slot_gone"
)

// RouteResult carries the routing outcome plus the patient-facing
// reply text for the channel to send back.
type RouteResult struct {
	Kind       RouteResultKind
	ReplyText  string
	Resolution *Resolution
}

const (
	replyAccepted = "¡Listo {paciente}! Tu cita quedó reservada para el {fecha} a las {hora}. Te esperamos."
	replyDeclined = "Entendido, sigues en lista de espera. Te avisaremos cuando se libere otro cupo."
	replySlotGone = "Lo sentimos, el cupo ya fue tomado. Sigues en lista de espera y te avisaremos del próximo."
	replyExpired  = "La oferta ya venció. Sigues en lista de espera y te avisaremos cuando se libere otro cupo."
	replyNotFound = "No encontramos una oferta activa para este número. Si crees que es un error, comunícate con la clínica."
	replyUnknown  = "No entendimos tu respuesta. Responde ACEPTAR para tomar el cupo o RECHAZAR para seguir en espera."
)

// Router matches inbound channel replies to their active offer by
// canonical phone key and hands the classified answer to the
// OfferManager. It never creates state on its own; an unmatched or
// unreadable reply only produces a help message.
type Router struct {
	waitlist repository.WaitlistRepository
	offers   *OfferManager
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewRouter(
	waitlist repository.WaitlistRepository,
	offers *OfferManager,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Router {
	return &Router{
		waitlist: waitlist,
		offers:   offers,
		logger:   logger,
		metrics:  metrics,
	}
}

// RouteReply resolves the sender's active offer and applies their
// answer. Offers are matched within the grace window past expiry; a
// match outside it gets the expired message instead of silence so the
// patient is never left guessing.
func (r *Router) RouteReply(ctx context.Context, from, text string) (*RouteResult, error) {
	key := phone.Key(from)
	now := time.Now()

	candidate, err := r.waitlist.ActiveOfferByPhoneKey(ctx, key, now.Add(-GraceWindow))
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		// Distinguish "offer lapsed" from "never had one".
		lapsed, err := r.waitlist.ActiveOfferByPhoneKey(ctx, key, time.Time{})
		if err != nil {
			return nil, err
		}
		r.metrics.RepliesRouted.WithLabelValues("not_found").Inc()
		if lapsed != nil {
			return &RouteResult{Kind: RouteExpired, ReplyText: replyExpired}, nil
		}
		return &RouteResult{Kind: RouteNotFound, ReplyText: replyNotFound}, nil
	}

	outcome, ok := classify(text)
	if !ok {
		r.metrics.RepliesRouted.WithLabelValues("unrecognized").Inc()
		return &RouteResult{Kind: RouteUnrecognized, ReplyText: replyUnknown}, nil
	}

	resolution, err := r.offers.Resolve(ctx, candidate, outcome)
	if err != nil {
		return nil, err
	}

	switch resolution.Status {
	case ResolutionAccepted:
		r.metrics.RepliesRouted.WithLabelValues("accept").Inc()
		return &RouteResult{
			Kind:       RouteAccepted,
			ReplyText:  renderAccepted(candidate, resolution.Appointment),
			Resolution: resolution,
		}, nil
	case ResolutionDeclined:
		r.metrics.RepliesRouted.WithLabelValues("decline").Inc()
		return &RouteResult{Kind: RouteDeclined, ReplyText: replyDeclined, Resolution: resolution}, nil
	default:
		// Slot or professional disappeared between offer and answer.
		r.metrics.RepliesRouted.WithLabelValues("accept").Inc()
		r.logger.Info("accepted offer could not be booked",
			"entry_id", candidate.ID.String(),
			"status", string(resolution.Status))
		return &RouteResult{Kind: RouteSlotGone, ReplyText: replySlotGone, Resolution: resolution}, nil
	}
}

func renderAccepted(candidate *model.Candidate, appointment *model.Appointment) string {
	return strings.NewReplacer(
		"{paciente}", candidate.PatientName,
		"{fecha}", appointment.Date.Format("02/01/2006"),
		"{hora}", appointment.Time,
	).Replace(replyAccepted)
}

// classify maps free-form reply text to an offer outcome. Long
// keywords match anywhere in the message ("sí, ACEPTO la cita");
// short tokens only match as a whole word so "si no puedo mañana"
// is not read as an answer.
func classify(text string) (model.OfferOutcome, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(text))

	for _, kw := range []string{"ACEPTAR", "ACEPTO", "CONFIRMO"} {
		if strings.Contains(normalized, kw) {
			return model.OfferOutcomeAccept, true
		}
	}
	for _, kw := range []string{"RECHAZAR", "RECHAZO", "CANCELAR"} {
		if strings.Contains(normalized, kw) {
			return model.OfferOutcomeDecline, true
		}
	}

	switch normalized {
	case "SI", "SÍ", "1":
		return model.OfferOutcomeAccept, true
	case "NO", "2":
		return model.OfferOutcomeDecline, true
	}
	return "", false
}
