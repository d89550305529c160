package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"settingsapi/internal/model"
	"settingsapi/internal/repository"
)

// SettingsPostgres is a PostgreSQL implementation of repository.SettingsRepository.
// Each record is stored as one JSONB document per user, mirroring the document-store layout.
type SettingsPostgres struct {
	db *sql.DB
}

// NewSettingsPostgres creates a new SettingsPostgres repository.
func NewSettingsPostgres(db *sql.DB) *SettingsPostgres {
	return &SettingsPostgres{db: db}
}

var _ repository.SettingsRepository = (*SettingsPostgres)(nil)

// FindByUserID fetches the record for userID.
func (r *SettingsPostgres) FindByUserID(ctx context.Context, userID string) (*model.Settings, error) {
	const q = `
		SELECT data, created_at, updated_at
		FROM settings
		WHERE user_id = $1
	`
	row := r.db.QueryRowContext(ctx, q, userID)
	out, err := scanSettings(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

// Save upserts the record and returns the stored copy. created_at is preserved on update.
func (r *SettingsPostgres) Save(ctx context.Context, s *model.Settings) (*model.Settings, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	const q = `
		INSERT INTO settings (user_id, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
		RETURNING data, created_at, updated_at
	`
	row := r.db.QueryRowContext(ctx, q,
		s.UserID,
		string(data),
		s.CreatedAt,
		s.UpdatedAt,
	)
	return scanSettings(row)
}

// Delete removes the record. It does not return an error if the row does not exist.
func (r *SettingsPostgres) Delete(ctx context.Context, userID string) error {
	const q = `DELETE FROM settings WHERE user_id = $1`
	_, err := r.db.ExecContext(ctx, q, userID)
	return err
}

func scanSettings(row *sql.Row) (*model.Settings, error) {
	var (
		data []byte
		out  model.Settings
	)
	if err := row.Scan(&data, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, err
	}
	createdAt, updatedAt := out.CreatedAt, out.UpdatedAt
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	out.CreatedAt, out.UpdatedAt = createdAt, updatedAt
	if out.Documents == nil {
		out.Documents = []model.Document{}
	}
	return &out, nil
}
