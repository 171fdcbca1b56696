package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/citamed/scheduling-api/internal/model"
)

func (r *professionalRepository) Create(ctx context.Context, professional *model.Professional) error {
	query := `
		INSERT INTO professionals (
			id, name, specialty_id, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	professional.ID = uuid.New()
	professional.CreatedAt = time.Now()
	professional.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		professional.ID,
		professional.Name,
		professional.SpecialtyID,
		professional.Status,
		professional.CreatedAt,
		professional.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create professional: %w", err)
	}
	return nil
}

func (r *professionalRepository) Get(ctx context.Context, id uuid.UUID) (*model.Professional, error) {
	query := `SELECT * FROM professionals WHERE id = $1`
	var professional model.Professional
	err := r.db.GetContext(ctx, &professional, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get professional: %w", err)
	}
	return &professional, nil
}

func (r *professionalRepository) List(ctx context.Context, specialtyID uuid.UUID) ([]*model.Professional, error) {
	query := `SELECT * FROM professionals WHERE 1=1`
	args := []interface{}{}

	if specialtyID != uuid.Nil {
		query += " AND specialty_id = $1"
		args = append(args, specialtyID)
	}

	query += " ORDER BY name ASC"

	var professionals []*model.Professional
	err := r.db.SelectContext(ctx, &professionals, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list professionals: %w", err)
	}
	return professionals, nil
}

func (r *professionalRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ProfessionalStatus) error {
	query := `UPDATE professionals SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update professional status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("professional not found")
	}

	return nil
}
