package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"settingsapi/internal/model"
	"settingsapi/internal/repository"
	"settingsapi/internal/storage"
)

// SettingsService defines the use cases for reading and writing a user's settings record.
// Every method first checks that userId is well formed and belongs to the caller.
type SettingsService interface {
	// Get returns the stored record, creating it with defaults on first access.
	Get(ctx context.Context, userID string) (*model.Settings, error)

	// Replace applies patch onto the current record (or the defaults). Server-managed and
	// unknown keys are ignored. Nothing is written unless every patched field is valid.
	Replace(ctx context.Context, userID string, patch map[string]json.RawMessage) (*model.Settings, error)

	// Reset discards the record, including uploaded files, and stores fresh defaults.
	Reset(ctx context.Context, userID string) (*model.Settings, error)

	// GetField returns {field: value}. It does not create a record.
	GetField(ctx context.Context, userID, field string) (map[string]any, error)

	// SetField writes one field and returns {field: value}.
	SetField(ctx context.Context, userID, field string, value json.RawMessage) (map[string]any, error)

	// Effective returns the derived view of the record at instant now.
	Effective(ctx context.Context, userID string, now time.Time) (*Effective, error)
}

type settingsService struct {
	repo  repository.SettingsRepository
	store storage.Storage
	log   log.FieldLogger
	now   func() time.Time
}

// NewSettingsService constructs a SettingsService. store is used by Reset to remove the
// files of the discarded record.
func NewSettingsService(repo repository.SettingsRepository, store storage.Storage, logger log.FieldLogger) SettingsService {
	return &settingsService{
		repo:  repo,
		store: store,
		log:   logger.WithField("component", "settings_service"),
		now:   time.Now,
	}
}

func (s *settingsService) Get(ctx context.Context, userID string) (out *model.Settings, err error) {
	ctx, span := tracer.Start(ctx, "SettingsService.Get")
	defer func() { endSpan(span, err) }()

	if err := authorize(ctx, userID); err != nil {
		return nil, err
	}

	cur, err := s.repo.FindByUserID(ctx, userID)
	if err == nil {
		return cur, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	span.SetAttributes(attribute.Bool("settings.created", true))
	return s.save(ctx, s.defaults(userID))
}

func (s *settingsService) Replace(ctx context.Context, userID string, patch map[string]json.RawMessage) (out *model.Settings, err error) {
	ctx, span := tracer.Start(ctx, "SettingsService.Replace")
	defer func() { endSpan(span, err) }()

	if err := authorize(ctx, userID); err != nil {
		return nil, err
	}

	cur, err := s.loadOrDefault(ctx, userID)
	if err != nil {
		return nil, err
	}

	fieldErrs := model.FieldErrors{}
	applied := 0
	for key, raw := range patch {
		f, ok := model.LookupField(key)
		if !ok {
			continue
		}
		if err := f.Set(cur, raw); err != nil {
			fieldErrs[key] = "has the wrong type"
			continue
		}
		applied++
	}
	for k, v := range cur.Validate() {
		fieldErrs[k] = v
	}
	if len(fieldErrs) > 0 {
		return nil, &ValidationError{Fields: fieldErrs}
	}

	span.SetAttributes(attribute.Int("settings.fields_applied", applied))
	cur.UpdatedAt = s.now().UTC()
	return s.save(ctx, cur)
}

func (s *settingsService) Reset(ctx context.Context, userID string) (out *model.Settings, err error) {
	ctx, span := tracer.Start(ctx, "SettingsService.Reset")
	defer func() { endSpan(span, err) }()

	if err := authorize(ctx, userID); err != nil {
		return nil, err
	}

	var keys []string
	prev, err := s.repo.FindByUserID(ctx, userID)
	switch {
	case err == nil:
		keys = objectKeys(prev)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		return nil, fmt.Errorf("delete settings: %w", err)
	}
	out, err = s.save(ctx, s.defaults(userID))
	if err != nil {
		return nil, err
	}

	removeObjects(ctx, s.store, s.log, keys)
	return out, nil
}

func (s *settingsService) GetField(ctx context.Context, userID, field string) (out map[string]any, err error) {
	ctx, span := tracer.Start(ctx, "SettingsService.GetField")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("settings.field", field))

	if err := authorize(ctx, userID); err != nil {
		return nil, err
	}
	f, ok := model.LookupField(field)
	if !ok {
		return nil, ErrUnknownField
	}

	cur, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return map[string]any{f.Name(): f.Get(cur)}, nil
}

func (s *settingsService) SetField(ctx context.Context, userID, field string, value json.RawMessage) (out map[string]any, err error) {
	ctx, span := tracer.Start(ctx, "SettingsService.SetField")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("settings.field", field))

	if err := authorize(ctx, userID); err != nil {
		return nil, err
	}
	f, ok := model.LookupField(field)
	if !ok {
		return nil, ErrUnknownField
	}

	cur, err := s.loadOrDefault(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := f.Set(cur, value); err != nil {
		return nil, &ValidationError{Fields: model.FieldErrors{f.Name(): "has the wrong type"}}
	}
	if errs := cur.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	cur.UpdatedAt = s.now().UTC()
	saved, err := s.save(ctx, cur)
	if err != nil {
		return nil, err
	}
	return map[string]any{f.Name(): f.Get(saved)}, nil
}

func (s *settingsService) Effective(ctx context.Context, userID string, now time.Time) (*Effective, error) {
	cur, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	eff := Derive(cur, now)
	return &eff, nil
}

func (s *settingsService) defaults(userID string) *model.Settings {
	d := model.DefaultSettings(userID)
	ts := s.now().UTC()
	d.CreatedAt = ts
	d.UpdatedAt = ts
	return d
}

// loadOrDefault returns the stored record, or unsaved defaults when there is none.
func (s *settingsService) loadOrDefault(ctx context.Context, userID string) (*model.Settings, error) {
	cur, err := s.repo.FindByUserID(ctx, userID)
	if err == nil {
		return cur, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return s.defaults(userID), nil
	}
	return nil, fmt.Errorf("load settings: %w", err)
}

func (s *settingsService) save(ctx context.Context, rec *model.Settings) (*model.Settings, error) {
	out, err := s.repo.Save(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	return out, nil
}

// objectKeys lists the storage keys a record references.
func objectKeys(rec *model.Settings) []string {
	keys := make([]string, 0, len(rec.Documents)+1)
	for _, d := range rec.Documents {
		keys = append(keys, d.Path)
	}
	if rec.ProfilePicture != "" {
		keys = append(keys, rec.ProfilePicture)
	}
	return keys
}
