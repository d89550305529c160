package repository

import (
	"context"

	"settingsapi/internal/model"
)

// SettingsRepository persists whole Settings records keyed by user id.
// Strictly persistence; no business logic. Writes are last-write-wins.
type SettingsRepository interface {
	// FindByUserID returns the user's record or ErrNotFound.
	FindByUserID(ctx context.Context, userID string) (*model.Settings, error)

	// Save inserts or replaces the record for s.UserID and returns the stored copy.
	Save(ctx context.Context, s *model.Settings) (*model.Settings, error)

	// Delete removes the user's record. It returns nil if no record existed.
	Delete(ctx context.Context, userID string) error
}
