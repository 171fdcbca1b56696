package waitlist

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/citamed/scheduling-api/internal/model"
	"github.com/citamed/scheduling-api/internal/repository"
	"github.com/citamed/scheduling-api/internal/service/settings"
)

// elderlyAge is the threshold for the prioridad_adultos_mayores toggle.
const elderlyAge = 65

// rankStage compares two candidates: negative means a ranks first,
// zero defers the decision to the next stage.
type rankStage func(a, b *model.Candidate) int

// Selector picks the best-ranked waiting entry for a released slot.
// Selection is read-only; marking the entry offered is the
// OfferManager's job so both stay testable in isolation.
type Selector struct {
	waitlist      repository.WaitlistRepository
	professionals repository.ProfessionalRepository
	settings      *settings.Service
}

func NewSelector(
	waitlist repository.WaitlistRepository,
	professionals repository.ProfessionalRepository,
	settings *settings.Service,
) *Selector {
	return &Selector{
		waitlist:      waitlist,
		professionals: professionals,
		settings:      settings,
	}
}

// SelectCandidate returns the top-ranked eligible entry for the slot,
// or nil when the pool is empty. Entries under an active offer are
// excluded for every release, not only re-offers of the same slot,
// so a patient never holds two offers at once. Explicitly excluded
// entries are skipped too; the sweeper uses this so a lapsed offer is
// not handed straight back to the patient who ignored it.
func (s *Selector) SelectCandidate(ctx context.Context, slot model.Slot, exclude ...uuid.UUID) (*model.Candidate, error) {
	professional, err := s.professionals.Get(ctx, slot.ProfessionalID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve released slot professional: %w", err)
	}

	candidates, err := s.waitlist.EligibleCandidates(ctx, professional.SpecialtyID)
	if err != nil {
		return nil, err
	}
	if len(exclude) > 0 {
		excluded := make(map[uuid.UUID]struct{}, len(exclude))
		for _, id := range exclude {
			excluded[id] = struct{}{}
		}
		kept := candidates[:0]
		for _, c := range candidates {
			if _, skip := excluded[c.ID]; !skip {
				kept = append(kept, c)
			}
		}
		candidates = kept
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	stages := s.rankStages(ctx, slot.ProfessionalID, time.Now())
	sort.SliceStable(candidates, func(i, j int) bool {
		return compareStages(stages, candidates[i], candidates[j]) < 0
	})

	return candidates[0], nil
}

// rankStages builds the ordered comparator chain. Each stage only
// breaks ties left by the previous one, replacing the old dynamically
// concatenated ORDER BY with independently testable steps.
func (s *Selector) rankStages(ctx context.Context, releasedProfessionalID uuid.UUID, now time.Time) []rankStage {
	stages := []rankStage{professionalAffinity(releasedProfessionalID)}

	if s.settings.Bool(ctx, model.SettingPrioritizeElderly, false) {
		stages = append(stages, elderlyFirst(now))
	}
	if s.settings.Bool(ctx, model.SettingPrioritizeUrgent, false) {
		stages = append(stages, urgentFirst)
	}
	if s.settings.Bool(ctx, model.SettingPrioritizeWaiting, false) {
		stages = append(stages, longestWaitFirst)
	}

	// Remaining ties always fall back to urgency, then waiting time.
	stages = append(stages, urgentFirst, longestWaitFirst)
	return stages
}

func compareStages(stages []rankStage, a, b *model.Candidate) int {
	for _, stage := range stages {
		if d := stage(a, b); d != 0 {
			return d
		}
	}
	return 0
}

// professionalAffinity ranks exact professional matches above
// "any professional" entries, which rank above entries waiting for a
// different professional in the same specialty.
func professionalAffinity(releasedProfessionalID uuid.UUID) rankStage {
	rank := func(c *model.Candidate) int {
		switch {
		case c.ProfessionalID == nil:
			return 1
		case *c.ProfessionalID == releasedProfessionalID:
			return 0
		default:
			return 2
		}
	}
	return func(a, b *model.Candidate) int {
		return rank(a) - rank(b)
	}
}

func elderlyFirst(now time.Time) rankStage {
	isElderly := func(c *model.Candidate) int {
		if age := c.PatientAge(now); age >= elderlyAge {
			return 0
		}
		return 1
	}
	return func(a, b *model.Candidate) int {
		return isElderly(a) - isElderly(b)
	}
}

func urgentFirst(a, b *model.Candidate) int {
	return a.PriorityTier - b.PriorityTier
}

func longestWaitFirst(a, b *model.Candidate) int {
	switch {
	case a.RegisteredAt.Before(b.RegisteredAt):
		return -1
	case b.RegisteredAt.Before(a.RegisteredAt):
		return 1
	default:
		return 0
	}
}
