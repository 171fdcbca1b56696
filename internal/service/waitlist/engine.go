package waitlist

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/citamed/scheduling-api/internal/model"
	"github.com/citamed/scheduling-api/internal/repository"
	"github.com/citamed/scheduling-api/internal/service/settings"
	apperrors "github.com/citamed/scheduling-api/pkg/errors"
	"github.com/citamed/scheduling-api/pkg/logger"
	"github.com/citamed/scheduling-api/pkg/metrics"
)

// Engine ties selection, offers and expiry together. It reacts to
// released slots and periodically reclaims offers nobody answered.
type Engine struct {
	waitlist repository.WaitlistRepository
	patients repository.PatientRepository
	selector *Selector
	offers   *OfferManager
	settings *settings.Service
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewEngine(
	waitlist repository.WaitlistRepository,
	patients repository.PatientRepository,
	selector *Selector,
	offers *OfferManager,
	settings *settings.Service,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Engine {
	return &Engine{
		waitlist: waitlist,
		patients: patients,
		selector: selector,
		offers:   offers,
		settings: settings,
		logger:   logger,
		metrics:  metrics,
	}
}

// HandleSlotReleased offers a freed slot to the best-ranked waiting
// patient. It is a no-op when the auto-offer toggle is off or the
// pool is empty; losing the race to mark the entry offered falls
// through to the next candidate on the following release.
func (e *Engine) HandleSlotReleased(ctx context.Context, slot model.Slot) error {
	return e.offerSlot(ctx, slot)
}

func (e *Engine) offerSlot(ctx context.Context, slot model.Slot, exclude ...uuid.UUID) error {
	if !e.settings.Bool(ctx, model.SettingAutoOfferEnabled, true) {
		e.metrics.OffersSkipped.WithLabelValues("auto_offer_disabled").Inc()
		return nil
	}

	candidate, err := e.selector.SelectCandidate(ctx, slot, exclude...)
	if err != nil {
		return err
	}
	if candidate == nil {
		e.metrics.OffersSkipped.WithLabelValues("no_candidate").Inc()
		e.logger.Info("slot released with empty waitlist",
			"professional_id", slot.ProfessionalID.String(),
			"date", slot.Date.Format("2006-01-02"),
			"time", slot.Time)
		return nil
	}

	err = e.offers.CreateOffer(ctx, candidate, slot)
	if errors.Is(err, apperrors.ErrOfferActive) {
		e.metrics.OffersSkipped.WithLabelValues("candidate_raced").Inc()
		e.logger.Info("selected candidate was offered concurrently",
			"entry_id", candidate.ID.String())
		return nil
	}
	return err
}

// SweepExpired reclaims every offer whose grace window lapsed,
// notifies the patients and re-releases the freed slots. It returns
// the number of offers reclaimed. Errors on individual entries are
// logged and skipped so one bad row never stalls the sweep.
func (e *Engine) SweepExpired(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() {
		e.metrics.SweepRuns.Inc()
		e.metrics.SweepLatency.Observe(time.Since(start).Seconds())
	}()

	stale, err := e.waitlist.StaleOffers(ctx, start.Add(-GraceWindow))
	if err != nil {
		return 0, err
	}

	reclaimed := 0
	for _, entry := range stale {
		slot, hadSlot := entry.OfferedSlot()

		cleared, err := e.offers.Expire(ctx, entry)
		if err != nil {
			e.logger.Error(err, "failed to expire offer", "entry_id", entry.ID.String())
			continue
		}
		if !cleared {
			// Answered between listing and clearing.
			continue
		}
		reclaimed++

		e.notifyExpired(ctx, entry)

		if hadSlot {
			// Skip the entry that just let this offer lapse.
			if err := e.offerSlot(ctx, slot, entry.ID); err != nil {
				e.logger.Error(err, "failed to re-release slot after expiry",
					"entry_id", entry.ID.String())
			}
		}
	}
	return reclaimed, nil
}

func (e *Engine) notifyExpired(ctx context.Context, entry *model.WaitlistEntry) {
	patient, err := e.patients.Get(ctx, entry.PatientID)
	if err != nil {
		e.logger.Error(err, "failed to load patient for expiry notice",
			"entry_id", entry.ID.String())
		return
	}

	candidate := &model.Candidate{
		WaitlistEntry: *entry,
		PatientName:   patient.Name,
		PatientPhone:  patient.Phone,
		PatientEmail:  patient.Email,
	}
	if err := e.offers.notifier.NotifyExpired(ctx, candidate); err != nil {
		e.logger.Error(err, "failed to send expiry notice",
			"entry_id", entry.ID.String())
	}
}
