package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// StateRow is one persisted player: a versioned, encoded payload keyed by display name.
type StateRow struct {
	Name          string    `db:"name"`
	SchemaVersion int       `db:"schema_version"`
	Payload       []byte    `db:"payload"`
	UpdatedAt     time.Time `db:"updated_at"`
}

type StateRepository struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

func NewStateRepository(db *sqlx.DB, logger zerolog.Logger) *StateRepository {
	return &StateRepository{
		db:     db,
		logger: logger,
	}
}

func (r *StateRepository) List(ctx context.Context) ([]StateRow, error) {
	var rows []StateRow
	err := r.db.SelectContext(ctx, &rows, `SELECT name, schema_version, payload, updated_at FROM player_states ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list player states: %w", err)
	}
	return rows, nil
}

const upsertState = `
INSERT INTO player_states (name, schema_version, payload, updated_at)
VALUES (:name, :schema_version, :payload, :updated_at)
ON CONFLICT(name) DO UPDATE SET
    schema_version = excluded.schema_version,
    payload = excluded.payload,
    updated_at = excluded.updated_at`

func (r *StateRepository) Upsert(ctx context.Context, row StateRow) error {
	if _, err := r.db.NamedExecContext(ctx, upsertState, row); err != nil {
		return fmt.Errorf("failed to upsert player state %s: %w", row.Name, err)
	}
	return nil
}

// ReplaceAll swaps the whole table for rows in one transaction. On any error the previous rows
// are left untouched.
func (r *StateRepository) ReplaceAll(ctx context.Context, rows []StateRow) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM player_states`); err != nil {
		return fmt.Errorf("failed to clear player states: %w", err)
	}

	for _, row := range rows {
		if _, err := tx.NamedExecContext(ctx, upsertState, row); err != nil {
			return fmt.Errorf("failed to write player state %s: %w", row.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit player states: %w", err)
	}

	r.logger.Debug().Int("rows", len(rows)).Msg("player states replaced")
	return nil
}
