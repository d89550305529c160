package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"settingsapi/internal/model"
	"settingsapi/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userID = "64b7f0c2a1b2c3d4e5f60718"

func TestSettingsPostgres_FindByUserID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewSettingsPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		stored := model.DefaultSettings(userID)
		stored.FontSize = "large"
		data, err := json.Marshal(stored)
		require.NoError(t, err)
		created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

		rows := sqlmock.NewRows([]string{"data", "created_at", "updated_at"}).
			AddRow(data, created, created)

		mock.ExpectQuery("SELECT (.+) FROM settings WHERE user_id = ?").
			WithArgs(userID).
			WillReturnRows(rows)

		s, err := repo.FindByUserID(ctx, userID)

		require.NoError(t, err)
		assert.Equal(t, userID, s.UserID)
		assert.Equal(t, "large", s.FontSize)
		assert.Equal(t, created, s.CreatedAt)
		assert.NotNil(t, s.Documents)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM settings WHERE user_id = ?").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"data", "created_at", "updated_at"}))

		s, err := repo.FindByUserID(ctx, "missing")

		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Nil(t, s)
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM settings WHERE user_id = ?").
			WithArgs("boom").
			WillReturnError(errors.New("connection reset"))

		_, err := repo.FindByUserID(ctx, "boom")

		assert.Error(t, err)
		assert.NotErrorIs(t, err, repository.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsPostgres_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewSettingsPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	s := model.DefaultSettings(userID)
	s.CreatedAt = now
	s.UpdatedAt = now
	s.Documents = []model.Document{{ID: "d1", Category: model.CategoryLegal}}
	data, err := json.Marshal(s)
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"data", "created_at", "updated_at"}).
		AddRow(data, now, now)

	mock.ExpectQuery("INSERT INTO settings").
		WithArgs(userID, string(data), now, now).
		WillReturnRows(rows)

	out, err := repo.Save(ctx, s)

	require.NoError(t, err)
	assert.Equal(t, userID, out.UserID)
	require.Len(t, out.Documents, 1)
	assert.Equal(t, model.CategoryLegal, out.Documents[0].Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewSettingsPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM settings WHERE user_id = ?").
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Delete(ctx, userID)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
