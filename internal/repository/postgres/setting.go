package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/citamed/scheduling-api/internal/model"
)

func (r *settingRepository) Get(ctx context.Context, key string) (*model.Setting, error) {
	query := `SELECT key, value, updated_at FROM settings WHERE key = $1`
	var setting model.Setting
	err := r.db.GetContext(ctx, &setting, query, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return &setting, nil
}

func (r *settingRepository) List(ctx context.Context) ([]*model.Setting, error) {
	query := `SELECT key, value, updated_at FROM settings ORDER BY key ASC`
	var settings []*model.Setting
	err := r.db.SelectContext(ctx, &settings, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	return settings, nil
}

func (r *settingRepository) Upsert(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = $3
	`
	_, err := r.db.ExecContext(ctx, query, key, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert setting: %w", err)
	}
	return nil
}
