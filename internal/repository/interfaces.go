package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/citamed/scheduling-api/internal/model"
)

// All repository interfaces in one file
type (
	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		List(ctx context.Context) ([]*model.Patient, error)
	}

	ProfessionalRepository interface {
		Create(ctx context.Context, professional *model.Professional) error
		Get(ctx context.Context, id uuid.UUID) (*model.Professional, error)
		List(ctx context.Context, specialtyID uuid.UUID) ([]*model.Professional, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.ProfessionalStatus) error
	}

	SpecialtyRepository interface {
		Create(ctx context.Context, specialty *model.Specialty) error
		Get(ctx context.Context, id uuid.UUID) (*model.Specialty, error)
		List(ctx context.Context) ([]*model.Specialty, error)
	}

	AppointmentRepository interface {
		// CreateIfSlotFree inserts the appointment only when its slot
		// holds no pending/confirmed appointment. It returns
		// errors.ErrSlotTaken otherwise; the check and the insert run
		// in one transaction backed by a partial unique index.
		CreateIfSlotFree(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus, reason *string) error
		HasConflict(ctx context.Context, slot model.Slot) (bool, error)
	}

	WaitlistRepository interface {
		Create(ctx context.Context, entry *model.WaitlistEntry) error
		Get(ctx context.Context, id uuid.UUID) (*model.WaitlistEntry, error)
		List(ctx context.Context, filters *model.WaitlistFilters) ([]*model.WaitlistEntry, error)

		// EligibleCandidates returns waiting entries for the specialty:
		// not assigned, not under any active offer, patient reachable.
		EligibleCandidates(ctx context.Context, specialtyID uuid.UUID) ([]*model.Candidate, error)

		// MarkOffered stamps the offer sub-state. The WHERE clause
		// re-validates "no active offer, not assigned" at write time;
		// false means the precondition no longer held.
		MarkOffered(ctx context.Context, entryID uuid.UUID, slot model.Slot, expiresAt time.Time) (bool, error)

		// ClearOffer deactivates the offer. false means no offer was
		// active, which makes expiry idempotent.
		ClearOffer(ctx context.Context, entryID uuid.UUID) (bool, error)

		MarkAssigned(ctx context.Context, entryID uuid.UUID, at time.Time) error

		// ActiveOfferByPhoneKey finds the best matching active offer for
		// a canonical phone key; offers expiring before cutoff are
		// skipped unless cutoff is the zero time. Returns nil when no
		// offer matches.
		ActiveOfferByPhoneKey(ctx context.Context, key string, cutoff time.Time) (*model.Candidate, error)

		// StaleOffers lists active offers that expired before cutoff.
		StaleOffers(ctx context.Context, cutoff time.Time) ([]*model.WaitlistEntry, error)
	}

	SettingRepository interface {
		Get(ctx context.Context, key string) (*model.Setting, error)
		List(ctx context.Context) ([]*model.Setting, error)
		Upsert(ctx context.Context, key, value string) error
	}
)
