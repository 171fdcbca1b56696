package waitlist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citamed/scheduling-api/internal/model"
)

type engineFixture struct {
	*offerFixture
	engine   *Engine
	patients *fakePatientRepo
}

func newEngineFixture(t *testing.T, settingValues map[string]string) *engineFixture {
	f := newOfferFixture(t, settingValues)
	patients := newFakePatientRepo()

	provider := newTestSettings(settingValues)
	selector := NewSelector(f.waitlistRepo, f.professionals, provider)
	engine := NewEngine(
		f.waitlistRepo, patients, selector, f.offers, provider,
		newTestLogger(), newTestMetrics())

	return &engineFixture{offerFixture: f, engine: engine, patients: patients}
}

func (f *engineFixture) addCandidateWithPatient(t *testing.T, registeredAgo time.Duration) *model.Candidate {
	t.Helper()
	candidate := waitingCandidate(f.professional.SpecialtyID, registeredAgo)
	f.waitlistRepo.add(candidate)
	f.patients.add(&model.Patient{
		Base:  model.Base{ID: candidate.PatientID},
		Name:  candidate.PatientName,
		Phone: candidate.PatientPhone,
	})
	return candidate
}

func TestHandleSlotReleasedOffersToBestCandidate(t *testing.T) {
	f := newEngineFixture(t, nil)
	older := f.addCandidateWithPatient(t, 72*time.Hour)
	f.addCandidateWithPatient(t, time.Hour)

	require.NoError(t, f.engine.HandleSlotReleased(context.Background(), f.slot))

	assert.True(t, f.activeOffer(t, older.ID).OfferActive)
	require.Len(t, f.notifier.offers, 1)
	assert.Equal(t, older.ID, f.notifier.offers[0].entryID)
}

func TestHandleSlotReleasedDisabledToggle(t *testing.T) {
	f := newEngineFixture(t, map[string]string{model.SettingAutoOfferEnabled: "false"})
	candidate := f.addCandidateWithPatient(t, time.Hour)

	require.NoError(t, f.engine.HandleSlotReleased(context.Background(), f.slot))

	assert.False(t, f.activeOffer(t, candidate.ID).OfferActive)
	assert.Empty(t, f.notifier.offers)
}

func TestHandleSlotReleasedEmptyPool(t *testing.T) {
	f := newEngineFixture(t, nil)

	require.NoError(t, f.engine.HandleSlotReleased(context.Background(), f.slot))
	assert.Empty(t, f.notifier.offers)
}

func TestSweepExpiredReclaimsAndReoffers(t *testing.T) {
	f := newEngineFixture(t, nil)
	first := f.addCandidateWithPatient(t, 72*time.Hour)
	second := f.addCandidateWithPatient(t, time.Hour)

	require.NoError(t, f.engine.HandleSlotReleased(context.Background(), f.slot))
	require.True(t, f.activeOffer(t, first.ID).OfferActive)

	// Push the first offer past its grace window.
	stored := f.waitlistRepo.entries[first.ID]
	lapsed := time.Now().Add(-GraceWindow - time.Minute)
	stored.OfferExpiresAt = &lapsed

	reclaimed, err := f.engine.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, reclaimed)

	// First entry is back in the pool, patient was told, and the slot
	// moved on to the next candidate.
	assert.False(t, f.activeOffer(t, first.ID).OfferActive)
	assert.Contains(t, f.notifier.expired, first.ID)
	assert.True(t, f.activeOffer(t, second.ID).OfferActive)
}

func TestSweepExpiredIgnoresOffersInsideGrace(t *testing.T) {
	f := newEngineFixture(t, nil)
	candidate := f.addCandidateWithPatient(t, time.Hour)

	require.NoError(t, f.engine.HandleSlotReleased(context.Background(), f.slot))

	// Expired nominally but still inside the grace window.
	stored := f.waitlistRepo.entries[candidate.ID]
	lapsed := time.Now().Add(-5 * time.Minute)
	stored.OfferExpiresAt = &lapsed

	reclaimed, err := f.engine.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, reclaimed)
	assert.True(t, f.activeOffer(t, candidate.ID).OfferActive)
}

func TestSweepExpiredSecondRunIsNoop(t *testing.T) {
	f := newEngineFixture(t, nil)
	candidate := f.addCandidateWithPatient(t, time.Hour)

	require.NoError(t, f.engine.HandleSlotReleased(context.Background(), f.slot))
	stored := f.waitlistRepo.entries[candidate.ID]
	lapsed := time.Now().Add(-GraceWindow - time.Minute)
	stored.OfferExpiresAt = &lapsed

	reclaimed, err := f.engine.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, reclaimed)

	reclaimed, err = f.engine.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, reclaimed)
}
