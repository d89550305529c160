package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

type migrationStep struct {
	Name string
	SQL  string
}

// The settings record is one JSONB document per user; documents live inside it.
var steps = []migrationStep{
	{
		Name: "create_table_settings",
		SQL: `CREATE TABLE IF NOT EXISTS settings (
  user_id    TEXT        PRIMARY KEY,
  data       JSONB       NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_settings_updated_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_settings_updated_at ON settings (updated_at);`,
	},
	{
		Name: "create_index_settings_document_ids",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_settings_documents ON settings USING GIN ((data -> 'documents') jsonb_path_ops);`,
	},
}

const sentinelQuery = "SELECT to_regclass('public.settings') IS NOT NULL"

// EnsureMigrated creates the schema when the settings table is missing.
func EnsureMigrated(ctx context.Context, db *sql.DB, logger log.FieldLogger, dbHost string) error {
	start := time.Now()
	l := logger.WithFields(log.Fields{"component": "database", "db_host": dbHost})

	l.WithField("event", "db_migration_check").Info("checking schema")

	var exists bool
	if err := db.QueryRowContext(ctx, sentinelQuery).Scan(&exists); err != nil {
		l.WithFields(log.Fields{
			"event":       "db_migration_failed",
			"duration_ms": time.Since(start).Milliseconds(),
		}).WithError(err).Error("failed to check sentinel table")
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		l.WithFields(log.Fields{
			"event":       "db_migration_skip",
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("schema already exists, skipping migration")
		return nil
	}

	l.WithField("event", "db_migration_start").Info("applying schema")

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			l.WithFields(log.Fields{
				"event":            "db_migration_failed",
				"migration_step":   step.Name,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			}).WithError(err).Error("migration step failed")
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		l.WithFields(log.Fields{
			"event":            "db_migration_step",
			"migration_step":   step.Name,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		}).Debug("migration step applied")
	}

	l.WithFields(log.Fields{
		"event":       "db_migration_success",
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("schema ready")

	return nil
}
