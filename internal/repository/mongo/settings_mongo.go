package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"settingsapi/internal/model"
	"settingsapi/internal/repository"
)

// SettingsMongo is a MongoDB implementation of repository.SettingsRepository.
// One document per user, unique on userId, with documents embedded as an array.
type SettingsMongo struct {
	coll *mongo.Collection
}

// NewSettingsMongo creates a repository over the given collection.
func NewSettingsMongo(coll *mongo.Collection) *SettingsMongo {
	return &SettingsMongo{coll: coll}
}

var _ repository.SettingsRepository = (*SettingsMongo)(nil)

// EnsureIndexes creates the unique userId index if it is missing.
func (r *SettingsMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_settings_user_id"),
	})
	if err != nil {
		return fmt.Errorf("create settings index: %w", err)
	}
	return nil
}

// FindByUserID fetches the record for userID.
func (r *SettingsMongo) FindByUserID(ctx context.Context, userID string) (*model.Settings, error) {
	var out model.Settings
	err := r.coll.FindOne(ctx, byUser(userID)).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if out.Documents == nil {
		out.Documents = []model.Document{}
	}
	return &out, nil
}

// Save replaces the user's document, inserting it when absent.
func (r *SettingsMongo) Save(ctx context.Context, s *model.Settings) (*model.Settings, error) {
	if _, err := r.coll.ReplaceOne(ctx, byUser(s.UserID), s, options.Replace().SetUpsert(true)); err != nil {
		return nil, err
	}
	out := *s
	return &out, nil
}

// Delete removes the user's document. Missing documents are not an error.
func (r *SettingsMongo) Delete(ctx context.Context, userID string) error {
	_, err := r.coll.DeleteOne(ctx, byUser(userID))
	return err
}

func byUser(userID string) bson.D {
	return bson.D{{Key: "userId", Value: userID}}
}
