package waitlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/citamed/scheduling-api/internal/model"
	"github.com/citamed/scheduling-api/internal/repository"
	"github.com/citamed/scheduling-api/internal/service/settings"
	apperrors "github.com/citamed/scheduling-api/pkg/errors"
	"github.com/citamed/scheduling-api/pkg/logger"
	"github.com/citamed/scheduling-api/pkg/metrics"
)

const (
	// GraceWindow is how long past its nominal expiry a reply is still
	// honored, tolerating clock and delivery skew. The sweeper reclaims
	// offers only after this same window, so there is a single owner
	// for both cutoffs; the slot re-check at resolution covers the
	// remaining races.
	GraceWindow = 30 * time.Minute

	// DefaultOfferTTLMinutes applies when tiempo_max_oferta is unset.
	DefaultOfferTTLMinutes = 30
)

// ResolutionStatus is the outcome of resolving an offer.
type ResolutionStatus string

const (
	ResolutionAccepted         ResolutionStatus = "accepted"
	ResolutionDeclined         ResolutionStatus = "declined"
	ResolutionSlotGone         ResolutionStatus = "slot_gone"
	ResolutionProfessionalGone ResolutionStatus = "professional_gone"
)

// Resolution reports what happened to an offer. Appointment is set
// only for ResolutionAccepted.
type Resolution struct {
	Status      ResolutionStatus
	Appointment *model.Appointment
}

// Notifier is the dispatch capability the offer lifecycle needs.
type Notifier interface {
	NotifyOffer(ctx context.Context, candidate *model.Candidate, slot model.Slot, ttlMinutes int) (string, error)
	NotifyExpired(ctx context.Context, candidate *model.Candidate) error
}

// OfferManager owns the offer lifecycle of a waitlist entry:
// none -> active -> accepted | declined | expired. Declined and
// expired return the entry to the pool; accepted converts it into an
// appointment and retires it permanently.
type OfferManager struct {
	waitlist      repository.WaitlistRepository
	appointments  repository.AppointmentRepository
	professionals repository.ProfessionalRepository
	settings      *settings.Service
	notifier      Notifier
	logger        *logger.Logger
	metrics       *metrics.Metrics
}

func NewOfferManager(
	waitlist repository.WaitlistRepository,
	appointments repository.AppointmentRepository,
	professionals repository.ProfessionalRepository,
	settings *settings.Service,
	notifier Notifier,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *OfferManager {
	return &OfferManager{
		waitlist:      waitlist,
		appointments:  appointments,
		professionals: professionals,
		settings:      settings,
		notifier:      notifier,
		logger:        logger,
		metrics:       metrics,
	}
}

// CreateOffer stamps the offer sub-state on the entry and dispatches
// the notification. The TTL is read from configuration per offer so
// operators can tune it without redeploying. A dispatch failure never
// rolls the offer back; the offer can still be answered or expire.
func (m *OfferManager) CreateOffer(ctx context.Context, candidate *model.Candidate, slot model.Slot) error {
	ttl := m.settings.Int(ctx, model.SettingOfferTTLMinutes, DefaultOfferTTLMinutes)
	expiresAt := time.Now().Add(time.Duration(ttl) * time.Minute)

	marked, err := m.waitlist.MarkOffered(ctx, candidate.ID, slot, expiresAt)
	if err != nil {
		return err
	}
	if !marked {
		return apperrors.ErrOfferActive
	}
	m.metrics.OffersCreated.Inc()

	if _, err := m.notifier.NotifyOffer(ctx, candidate, slot, ttl); err != nil {
		m.logger.Error(err, "failed to dispatch offer notification",
			"entry_id", candidate.ID.String())
	}

	m.logger.Info("offer created",
		"entry_id", candidate.ID.String(),
		"professional_id", slot.ProfessionalID.String(),
		"expires_at", expiresAt.Format(time.RFC3339))
	return nil
}

// Resolve finalizes an active offer with the patient's answer.
// Accepting re-validates the professional and books through the
// conflict-guarded insert; a lost slot voids the offer but keeps the
// entry in the pool for the next release.
func (m *OfferManager) Resolve(ctx context.Context, candidate *model.Candidate, outcome model.OfferOutcome) (*Resolution, error) {
	if !candidate.OfferActive || candidate.OfferExpiresAt == nil {
		return nil, apperrors.ErrOfferNotFound
	}
	if time.Now().After(candidate.OfferExpiresAt.Add(GraceWindow)) {
		return nil, apperrors.ErrOfferNotFound
	}

	if outcome == model.OfferOutcomeDecline {
		if _, err := m.waitlist.ClearOffer(ctx, candidate.ID); err != nil {
			return nil, err
		}
		m.metrics.OffersResolved.WithLabelValues("declined").Inc()
		return &Resolution{Status: ResolutionDeclined}, nil
	}

	slot, ok := candidate.OfferedSlot()
	if !ok {
		return nil, fmt.Errorf("active offer for entry %s has no slot", candidate.ID)
	}

	professional, err := m.professionals.Get(ctx, slot.ProfessionalID)
	if err != nil {
		return nil, err
	}
	if !professional.IsActive() {
		if _, err := m.waitlist.ClearOffer(ctx, candidate.ID); err != nil {
			return nil, err
		}
		m.metrics.OffersResolved.WithLabelValues("voided").Inc()
		return &Resolution{Status: ResolutionProfessionalGone}, nil
	}

	appointment := &model.Appointment{
		PatientID:      candidate.PatientID,
		ProfessionalID: slot.ProfessionalID,
		Date:           slot.Date,
		Time:           slot.Time,
		Status:         model.AppointmentStatusPending,
	}

	err = m.appointments.CreateIfSlotFree(ctx, appointment)
	if errors.Is(err, apperrors.ErrSlotTaken) {
		if _, clearErr := m.waitlist.ClearOffer(ctx, candidate.ID); clearErr != nil {
			return nil, clearErr
		}
		m.metrics.OffersResolved.WithLabelValues("voided").Inc()
		return &Resolution{Status: ResolutionSlotGone}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := m.waitlist.MarkAssigned(ctx, candidate.ID, time.Now()); err != nil {
		// The appointment exists; the entry must not be re-selected.
		return nil, fmt.Errorf("appointment %s created but entry not retired: %w", appointment.ID, err)
	}

	m.metrics.OffersResolved.WithLabelValues("accepted").Inc()
	m.logger.Info("offer accepted",
		"entry_id", candidate.ID.String(),
		"appointment_id", appointment.ID.String())
	return &Resolution{Status: ResolutionAccepted, Appointment: appointment}, nil
}

// Expire reclaims an offer whose grace window elapsed. The conditional
// update makes repeated runs on the same entry a no-op.
func (m *OfferManager) Expire(ctx context.Context, entry *model.WaitlistEntry) (bool, error) {
	cleared, err := m.waitlist.ClearOffer(ctx, entry.ID)
	if err != nil {
		return false, err
	}
	if cleared {
		m.metrics.OffersResolved.WithLabelValues("expired").Inc()
		m.logger.Info("offer expired", "entry_id", entry.ID.String())
	}
	return cleared, nil
}
