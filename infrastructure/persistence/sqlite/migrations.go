package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// Migration moves the schema from ToVersion-1 to ToVersion
type Migration struct {
	ToVersion   int
	Description string
	Up          func(ctx context.Context, tx *sql.Tx) error
}

func execMigration(statement string) func(ctx context.Context, tx *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, statement)
		return err
	}
}

// migrations is ordered by ToVersion without gaps
var migrations = []Migration{
	{
		ToVersion:   1,
		Description: "create users table",
		Up: execMigration(`
			CREATE TABLE IF NOT EXISTS users (
				user_id TEXT PRIMARY KEY,
				telegram_id INTEGER NOT NULL,
				name TEXT NOT NULL DEFAULT '',
				language TEXT NOT NULL DEFAULT 'en',
				credential TEXT NOT NULL DEFAULT '',
				root_folder_id TEXT NOT NULL DEFAULT '',
				root_folder_url TEXT NOT NULL DEFAULT '',
				type_folders_json TEXT NOT NULL DEFAULT '{}',
				ledger_id TEXT NOT NULL DEFAULT '',
				ledger_url TEXT NOT NULL DEFAULT '',
				connect_message_shown INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`),
	},
	{
		ToVersion:   2,
		Description: "unique telegram id",
		Up:          execMigration(`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_telegram_id ON users(telegram_id)`),
	},
}

// SchemaVersion is the version a fully migrated database reports
func SchemaVersion() int {
	return migrations[len(migrations)-1].ToVersion
}

// migrate applies every migration above the stored user_version, each in its own transaction
func migrate(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	current, err := userVersion(ctx, db)
	if err != nil {
		return err
	}
	if current > SchemaVersion() {
		return fmt.Errorf("database schema version %d is newer than supported version %d", current, SchemaVersion())
	}

	for _, m := range migrations {
		if m.ToVersion <= current {
			continue
		}
		if m.ToVersion != current+1 {
			return fmt.Errorf("no migration found from version %d to %d", current, current+1)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := m.Up(ctx, tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d->%d failed: %w", current, m.ToVersion, err)
		}
		// PRAGMA does not take bind parameters
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.ToVersion)); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}

		logger.Info("Schema migrated",
			zap.Int("version", m.ToVersion),
			zap.String("description", m.Description),
		)
		current = m.ToVersion
	}
	return nil
}

func userVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}
