package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/citamed/scheduling-api/internal/model"
)

const candidateColumns = `
	w.id, w.patient_id, w.specialty_id, w.professional_id,
	w.preferred_channel, w.priority_tier, w.registered_at, w.assigned_at,
	w.offer_active, w.offer_professional_id, w.offer_date, w.offer_time,
	w.offer_expires_at, w.offer_created_at, w.created_at, w.updated_at,
	p.name AS patient_name, p.phone AS patient_phone,
	p.email AS patient_email, p.birth_date AS patient_birth_date
`

func (r *waitlistRepository) Create(ctx context.Context, entry *model.WaitlistEntry) error {
	query := `
		INSERT INTO waitlist_entries (
			id, patient_id, specialty_id, professional_id,
			preferred_channel, priority_tier, registered_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	entry.ID = uuid.New()
	entry.RegisteredAt = time.Now()
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.PatientID,
		entry.SpecialtyID,
		entry.ProfessionalID,
		entry.PreferredChannel,
		entry.PriorityTier,
		entry.RegisteredAt,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create waitlist entry: %w", err)
	}
	return nil
}

func (r *waitlistRepository) Get(ctx context.Context, id uuid.UUID) (*model.WaitlistEntry, error) {
	query := `SELECT * FROM waitlist_entries WHERE id = $1`
	var entry model.WaitlistEntry
	err := r.db.GetContext(ctx, &entry, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get waitlist entry: %w", err)
	}
	return &entry, nil
}

func (r *waitlistRepository) List(ctx context.Context, filters *model.WaitlistFilters) ([]*model.WaitlistEntry, error) {
	query := `SELECT * FROM waitlist_entries WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters.SpecialtyID != uuid.Nil {
		query += fmt.Sprintf(" AND specialty_id = $%d", argCount)
		args = append(args, filters.SpecialtyID)
		argCount++
	}

	if filters.OnlyWaiting {
		query += " AND assigned_at IS NULL"
	}

	query += " ORDER BY registered_at ASC"

	var entries []*model.WaitlistEntry
	err := r.db.SelectContext(ctx, &entries, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list waitlist entries: %w", err)
	}
	return entries, nil
}

func (r *waitlistRepository) EligibleCandidates(ctx context.Context, specialtyID uuid.UUID) ([]*model.Candidate, error) {
	query := `
		SELECT ` + candidateColumns + `
		FROM waitlist_entries w
		JOIN patients p ON p.id = w.patient_id
		WHERE w.specialty_id = $1
		AND w.assigned_at IS NULL
		AND w.offer_active = false
		AND p.phone <> ''
		ORDER BY w.registered_at ASC
	`
	var candidates []*model.Candidate
	err := r.db.SelectContext(ctx, &candidates, query, specialtyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible candidates: %w", err)
	}
	return candidates, nil
}

func (r *waitlistRepository) MarkOffered(ctx context.Context, entryID uuid.UUID, slot model.Slot, expiresAt time.Time) (bool, error) {
	query := `
		UPDATE waitlist_entries
		SET offer_active = true,
			offer_professional_id = $2,
			offer_date = $3,
			offer_time = $4,
			offer_expires_at = $5,
			offer_created_at = $6,
			updated_at = $6
		WHERE id = $1
		AND assigned_at IS NULL
		AND offer_active = false
	`
	result, err := r.db.ExecContext(ctx, query,
		entryID, slot.ProfessionalID, slot.Date, slot.Time, expiresAt, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to mark entry offered: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *waitlistRepository) ClearOffer(ctx context.Context, entryID uuid.UUID) (bool, error) {
	query := `
		UPDATE waitlist_entries
		SET offer_active = false, updated_at = $2
		WHERE id = $1 AND offer_active = true
	`
	result, err := r.db.ExecContext(ctx, query, entryID, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to clear offer: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *waitlistRepository) MarkAssigned(ctx context.Context, entryID uuid.UUID, at time.Time) error {
	query := `
		UPDATE waitlist_entries
		SET assigned_at = $2, offer_active = false, updated_at = $2
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, entryID, at)
	if err != nil {
		return fmt.Errorf("failed to mark entry assigned: %w", err)
	}
	return nil
}

func (r *waitlistRepository) ActiveOfferByPhoneKey(ctx context.Context, key string, cutoff time.Time) (*model.Candidate, error) {
	// The stored phone is reduced to the same canonical key the router
	// computes, so matching is a single equality instead of the old
	// multi-pattern LIKE probing.
	query := `
		SELECT ` + candidateColumns + `
		FROM waitlist_entries w
		JOIN patients p ON p.id = w.patient_id
		WHERE w.offer_active = true
		AND right(regexp_replace(p.phone, '\D', '', 'g'), 9) = $1
	`
	args := []interface{}{key}

	if !cutoff.IsZero() {
		query += " AND w.offer_expires_at > $2"
		args = append(args, cutoff)
	}

	query += " ORDER BY w.offer_expires_at ASC, w.offer_created_at DESC LIMIT 1"

	var candidate model.Candidate
	err := r.db.GetContext(ctx, &candidate, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find offer by phone: %w", err)
	}
	return &candidate, nil
}

func (r *waitlistRepository) StaleOffers(ctx context.Context, cutoff time.Time) ([]*model.WaitlistEntry, error) {
	query := `
		SELECT * FROM waitlist_entries
		WHERE offer_active = true
		AND offer_expires_at < $1
		ORDER BY offer_expires_at ASC
	`
	var entries []*model.WaitlistEntry
	err := r.db.SelectContext(ctx, &entries, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale offers: %w", err)
	}
	return entries, nil
}
