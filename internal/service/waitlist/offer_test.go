package waitlist

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citamed/scheduling-api/internal/model"
	apperrors "github.com/citamed/scheduling-api/pkg/errors"
)

type offerFixture struct {
	offers        *OfferManager
	waitlistRepo  *fakeWaitlistRepo
	appointments  *fakeAppointmentRepo
	professionals *fakeProfessionalRepo
	notifier      *fakeNotifier
	professional  *model.Professional
	slot          model.Slot
}

func newOfferFixture(t *testing.T, settingValues map[string]string) *offerFixture {
	t.Helper()

	waitlistRepo := newFakeWaitlistRepo()
	appointments := newFakeAppointmentRepo()
	professionals := newFakeProfessionalRepo()
	notifier := &fakeNotifier{}

	professional := &model.Professional{
		Base:        model.Base{ID: uuid.New()},
		Name:        "Dr. Huamán",
		SpecialtyID: uuid.New(),
		Status:      model.ProfessionalStatusActive,
	}
	professionals.add(professional)

	offers := NewOfferManager(
		waitlistRepo, appointments, professionals,
		newTestSettings(settingValues), notifier,
		newTestLogger(), newTestMetrics())

	return &offerFixture{
		offers:        offers,
		waitlistRepo:  waitlistRepo,
		appointments:  appointments,
		professionals: professionals,
		notifier:      notifier,
		professional:  professional,
		slot: model.Slot{
			ProfessionalID: professional.ID,
			Date:           time.Now().AddDate(0, 0, 2),
			Time:           "11:30",
		},
	}
}

func (f *offerFixture) addCandidate() *model.Candidate {
	c := waitingCandidate(f.professional.SpecialtyID, 24*time.Hour)
	f.waitlistRepo.add(c)
	return c
}

// activeOffer reloads the candidate with its current offer state, the
// way the reply router hands it to Resolve.
func (f *offerFixture) activeOffer(t *testing.T, id uuid.UUID) *model.Candidate {
	t.Helper()
	c, ok := f.waitlistRepo.entries[id]
	require.True(t, ok)
	copied := *c
	return &copied
}

func TestCreateOfferStampsStateAndNotifies(t *testing.T) {
	f := newOfferFixture(t, map[string]string{model.SettingOfferTTLMinutes: "45"})
	candidate := f.addCandidate()

	err := f.offers.CreateOffer(context.Background(), candidate, f.slot)
	require.NoError(t, err)

	stored := f.activeOffer(t, candidate.ID)
	assert.True(t, stored.OfferActive)
	require.NotNil(t, stored.OfferExpiresAt)
	assert.WithinDuration(t, time.Now().Add(45*time.Minute), *stored.OfferExpiresAt, 5*time.Second)

	require.Len(t, f.notifier.offers, 1)
	assert.Equal(t, candidate.ID, f.notifier.offers[0].entryID)
	assert.Equal(t, 45, f.notifier.offers[0].ttl)
}

func TestCreateOfferDefaultTTL(t *testing.T) {
	f := newOfferFixture(t, nil)
	candidate := f.addCandidate()

	require.NoError(t, f.offers.CreateOffer(context.Background(), candidate, f.slot))

	stored := f.activeOffer(t, candidate.ID)
	require.NotNil(t, stored.OfferExpiresAt)
	assert.WithinDuration(t, time.Now().Add(DefaultOfferTTLMinutes*time.Minute), *stored.OfferExpiresAt, 5*time.Second)
}

func TestCreateOfferRejectsSecondOffer(t *testing.T) {
	f := newOfferFixture(t, nil)
	candidate := f.addCandidate()

	require.NoError(t, f.offers.CreateOffer(context.Background(), candidate, f.slot))

	err := f.offers.CreateOffer(context.Background(), candidate, f.slot)
	assert.ErrorIs(t, err, apperrors.ErrOfferActive)
}

func TestCreateOfferSurvivesNotificationFailure(t *testing.T) {
	f := newOfferFixture(t, nil)
	f.notifier.fail = true
	candidate := f.addCandidate()

	err := f.offers.CreateOffer(context.Background(), candidate, f.slot)
	require.NoError(t, err)
	assert.True(t, f.activeOffer(t, candidate.ID).OfferActive)
}

func TestResolveAcceptBooksAppointment(t *testing.T) {
	f := newOfferFixture(t, nil)
	candidate := f.addCandidate()
	require.NoError(t, f.offers.CreateOffer(context.Background(), candidate, f.slot))

	resolution, err := f.offers.Resolve(context.Background(), f.activeOffer(t, candidate.ID), model.OfferOutcomeAccept)
	require.NoError(t, err)
	assert.Equal(t, ResolutionAccepted, resolution.Status)
	require.NotNil(t, resolution.Appointment)
	assert.Equal(t, model.AppointmentStatusPending, resolution.Appointment.Status)
	assert.Equal(t, candidate.PatientID, resolution.Appointment.PatientID)

	stored := f.activeOffer(t, candidate.ID)
	assert.False(t, stored.OfferActive)
	assert.NotNil(t, stored.AssignedAt)
}

func TestResolveDeclineReturnsEntryToPool(t *testing.T) {
	f := newOfferFixture(t, nil)
	candidate := f.addCandidate()
	require.NoError(t, f.offers.CreateOffer(context.Background(), candidate, f.slot))

	resolution, err := f.offers.Resolve(context.Background(), f.activeOffer(t, candidate.ID), model.OfferOutcomeDecline)
	require.NoError(t, err)
	assert.Equal(t, ResolutionDeclined, resolution.Status)

	stored := f.activeOffer(t, candidate.ID)
	assert.False(t, stored.OfferActive)
	assert.Nil(t, stored.AssignedAt)
	assert.Empty(t, f.appointments.created)
}

func TestResolveHonorsGraceWindow(t *testing.T) {
	f := newOfferFixture(t, nil)
	candidate := f.addCandidate()
	require.NoError(t, f.offers.CreateOffer(context.Background(), candidate, f.slot))

	// Offer nominally expired 29 minutes ago, still inside grace.
	stored := f.waitlistRepo.entries[candidate.ID]
	lapsed := time.Now().Add(-29 * time.Minute)
	stored.OfferExpiresAt = &lapsed

	resolution, err := f.offers.Resolve(context.Background(), f.activeOffer(t, candidate.ID), model.OfferOutcomeAccept)
	require.NoError(t, err)
	assert.Equal(t, ResolutionAccepted, resolution.Status)
}

func TestResolveRejectsPastGraceWindow(t *testing.T) {
	f := newOfferFixture(t, nil)
	candidate := f.addCandidate()
	require.NoError(t, f.offers.CreateOffer(context.Background(), candidate, f.slot))

	stored := f.waitlistRepo.entries[candidate.ID]
	lapsed := time.Now().Add(-45 * time.Minute)
	stored.OfferExpiresAt = &lapsed

	_, err := f.offers.Resolve(context.Background(), f.activeOffer(t, candidate.ID), model.OfferOutcomeAccept)
	assert.ErrorIs(t, err, apperrors.ErrOfferNotFound)
}

func TestResolveRejectsInactiveOffer(t *testing.T) {
	f := newOfferFixture(t, nil)
	candidate := f.addCandidate()

	_, err := f.offers.Resolve(context.Background(), candidate, model.OfferOutcomeAccept)
	assert.ErrorIs(t, err, apperrors.ErrOfferNotFound)
}

func TestResolveAcceptSlotTaken(t *testing.T) {
	f := newOfferFixture(t, nil)
	candidate := f.addCandidate()
	require.NoError(t, f.offers.CreateOffer(context.Background(), candidate, f.slot))

	// Someone books the slot directly before the patient answers.
	f.appointments.occupy(f.slot)

	resolution, err := f.offers.Resolve(context.Background(), f.activeOffer(t, candidate.ID), model.OfferOutcomeAccept)
	require.NoError(t, err)
	assert.Equal(t, ResolutionSlotGone, resolution.Status)

	stored := f.activeOffer(t, candidate.ID)
	assert.False(t, stored.OfferActive)
	assert.Nil(t, stored.AssignedAt)
}

func TestResolveAcceptProfessionalDeactivated(t *testing.T) {
	f := newOfferFixture(t, nil)
	candidate := f.addCandidate()
	require.NoError(t, f.offers.CreateOffer(context.Background(), candidate, f.slot))

	f.professional.Status = model.ProfessionalStatusInactive

	resolution, err := f.offers.Resolve(context.Background(), f.activeOffer(t, candidate.ID), model.OfferOutcomeAccept)
	require.NoError(t, err)
	assert.Equal(t, ResolutionProfessionalGone, resolution.Status)
	assert.False(t, f.activeOffer(t, candidate.ID).OfferActive)
}

func TestExpireIsIdempotent(t *testing.T) {
	f := newOfferFixture(t, nil)
	candidate := f.addCandidate()
	require.NoError(t, f.offers.CreateOffer(context.Background(), candidate, f.slot))

	entry, err := f.waitlistRepo.Get(context.Background(), candidate.ID)
	require.NoError(t, err)

	cleared, err := f.offers.Expire(context.Background(), entry)
	require.NoError(t, err)
	assert.True(t, cleared)

	cleared, err = f.offers.Expire(context.Background(), entry)
	require.NoError(t, err)
	assert.False(t, cleared)
}
