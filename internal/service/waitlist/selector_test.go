package waitlist

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citamed/scheduling-api/internal/model"
)

func birthDate(age int) *time.Time {
	d := time.Now().AddDate(-age, 0, -1)
	return &d
}

func waitingCandidate(specialtyID uuid.UUID, registeredAgo time.Duration) *model.Candidate {
	return &model.Candidate{
		WaitlistEntry: model.WaitlistEntry{
			Base:         model.Base{ID: uuid.New()},
			PatientID:    uuid.New(),
			SpecialtyID:  specialtyID,
			PriorityTier: 3,
			RegisteredAt: time.Now().Add(-registeredAgo),
		},
		PatientName:  "Paciente",
		PatientPhone: "943958912",
	}
}

func newSelectorFixture(settingValues map[string]string) (*Selector, *fakeWaitlistRepo, *fakeProfessionalRepo, model.Slot) {
	waitlistRepo := newFakeWaitlistRepo()
	professionalRepo := newFakeProfessionalRepo()

	specialtyID := uuid.New()
	professional := &model.Professional{
		Base:        model.Base{ID: uuid.New()},
		Name:        "Dra. Quispe",
		SpecialtyID: specialtyID,
		Status:      model.ProfessionalStatusActive,
	}
	professionalRepo.add(professional)

	slot := model.Slot{
		ProfessionalID: professional.ID,
		Date:           time.Now().AddDate(0, 0, 3),
		Time:           "10:00",
	}

	selector := NewSelector(waitlistRepo, professionalRepo, newTestSettings(settingValues))
	return selector, waitlistRepo, professionalRepo, slot
}

func TestSelectCandidateEmptyPool(t *testing.T) {
	selector, _, _, slot := newSelectorFixture(nil)

	candidate, err := selector.SelectCandidate(context.Background(), slot)
	require.NoError(t, err)
	assert.Nil(t, candidate)
}

func TestSelectCandidatePrefersExactProfessionalMatch(t *testing.T) {
	selector, waitlistRepo, _, slot := newSelectorFixture(nil)
	specialtyID := waitingSpecialty(t, selector, slot)

	anyProfessional := waitingCandidate(specialtyID, 72*time.Hour)
	exactMatch := waitingCandidate(specialtyID, time.Hour)
	exactMatch.ProfessionalID = &slot.ProfessionalID
	otherID := uuid.New()
	otherProfessional := waitingCandidate(specialtyID, 100*time.Hour)
	otherProfessional.ProfessionalID = &otherID

	waitlistRepo.add(anyProfessional)
	waitlistRepo.add(exactMatch)
	waitlistRepo.add(otherProfessional)

	candidate, err := selector.SelectCandidate(context.Background(), slot)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, exactMatch.ID, candidate.ID)
}

func TestSelectCandidateAnyProfessionalBeatsMismatch(t *testing.T) {
	selector, waitlistRepo, _, slot := newSelectorFixture(nil)
	specialtyID := waitingSpecialty(t, selector, slot)

	otherID := uuid.New()
	mismatch := waitingCandidate(specialtyID, 100*time.Hour)
	mismatch.ProfessionalID = &otherID
	anyProfessional := waitingCandidate(specialtyID, time.Hour)

	waitlistRepo.add(mismatch)
	waitlistRepo.add(anyProfessional)

	candidate, err := selector.SelectCandidate(context.Background(), slot)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, anyProfessional.ID, candidate.ID)
}

func TestSelectCandidateElderlyToggle(t *testing.T) {
	selector, waitlistRepo, _, slot := newSelectorFixture(map[string]string{
		model.SettingPrioritizeElderly: "true",
	})
	specialtyID := waitingSpecialty(t, selector, slot)

	younger := waitingCandidate(specialtyID, 100*time.Hour)
	younger.PatientBirthDate = birthDate(40)
	elderly := waitingCandidate(specialtyID, time.Hour)
	elderly.PatientBirthDate = birthDate(70)

	waitlistRepo.add(younger)
	waitlistRepo.add(elderly)

	candidate, err := selector.SelectCandidate(context.Background(), slot)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, elderly.ID, candidate.ID)
}

func TestSelectCandidateElderlyToggleOffUsesWaitTime(t *testing.T) {
	selector, waitlistRepo, _, slot := newSelectorFixture(nil)
	specialtyID := waitingSpecialty(t, selector, slot)

	younger := waitingCandidate(specialtyID, 100*time.Hour)
	younger.PatientBirthDate = birthDate(40)
	elderly := waitingCandidate(specialtyID, time.Hour)
	elderly.PatientBirthDate = birthDate(70)

	waitlistRepo.add(younger)
	waitlistRepo.add(elderly)

	candidate, err := selector.SelectCandidate(context.Background(), slot)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, younger.ID, candidate.ID)
}

func TestSelectCandidateUrgentToggle(t *testing.T) {
	selector, waitlistRepo, _, slot := newSelectorFixture(map[string]string{
		model.SettingPrioritizeUrgent: "true",
	})
	specialtyID := waitingSpecialty(t, selector, slot)

	routine := waitingCandidate(specialtyID, 100*time.Hour)
	routine.PriorityTier = 3
	urgent := waitingCandidate(specialtyID, time.Hour)
	urgent.PriorityTier = 1

	waitlistRepo.add(routine)
	waitlistRepo.add(urgent)

	candidate, err := selector.SelectCandidate(context.Background(), slot)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, urgent.ID, candidate.ID)
}

func TestSelectCandidateSkipsActiveOffers(t *testing.T) {
	selector, waitlistRepo, _, slot := newSelectorFixture(nil)
	specialtyID := waitingSpecialty(t, selector, slot)

	offered := waitingCandidate(specialtyID, 100*time.Hour)
	offered.OfferActive = true
	waiting := waitingCandidate(specialtyID, time.Hour)

	waitlistRepo.add(offered)
	waitlistRepo.add(waiting)

	candidate, err := selector.SelectCandidate(context.Background(), slot)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, waiting.ID, candidate.ID)
}

func TestSelectCandidateSkipsAssignedAndUnreachable(t *testing.T) {
	selector, waitlistRepo, _, slot := newSelectorFixture(nil)
	specialtyID := waitingSpecialty(t, selector, slot)

	now := time.Now()
	assigned := waitingCandidate(specialtyID, 100*time.Hour)
	assigned.AssignedAt = &now
	noPhone := waitingCandidate(specialtyID, 90*time.Hour)
	noPhone.PatientPhone = ""

	waitlistRepo.add(assigned)
	waitlistRepo.add(noPhone)

	candidate, err := selector.SelectCandidate(context.Background(), slot)
	require.NoError(t, err)
	assert.Nil(t, candidate)
}

// waitingSpecialty resolves the specialty the fixture professional
// belongs to, so candidates land in the right pool.
func waitingSpecialty(t *testing.T, selector *Selector, slot model.Slot) uuid.UUID {
	t.Helper()
	professional, err := selector.professionals.Get(context.Background(), slot.ProfessionalID)
	require.NoError(t, err)
	return professional.SpecialtyID
}
