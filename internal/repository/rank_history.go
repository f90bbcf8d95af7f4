package repository

import (
	"context"
	"fmt"
	"time"

	"tekken-tracker/internal/domain"

	"github.com/jmoiron/sqlx"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type rankHistoryRow struct {
	ID        string    `db:"id"`
	Player    string    `db:"player"`
	FromRank  string    `db:"from_rank"`
	ToRank    string    `db:"to_rank"`
	Direction string    `db:"direction"`
	Date      time.Time `db:"date"`
	CreatedAt time.Time `db:"created_at"`
}

type RankHistoryRepository struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

func NewRankHistoryRepository(db *sqlx.DB, logger zerolog.Logger) *RankHistoryRepository {
	return &RankHistoryRepository{
		db:     db,
		logger: logger,
	}
}

func (r *RankHistoryRepository) InsertBatch(ctx context.Context, changes []domain.RankChange) error {
	if len(changes) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, change := range changes {
		id := change.ID
		if id == "" {
			id, err = gonanoid.New()
			if err != nil {
				return fmt.Errorf("failed to generate nanoid: %w", err)
			}
		}
		createdAt := change.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}

		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO rank_history (id, player, from_rank, to_rank, direction, date, created_at)
			VALUES (:id, :player, :from_rank, :to_rank, :direction, :date, :created_at)`,
			rankHistoryRow{
				ID:        id,
				Player:    change.Player,
				FromRank:  change.FromRank,
				ToRank:    change.ToRank,
				Direction: change.Direction,
				Date:      change.Date.UTC(),
				CreatedAt: createdAt,
			})
		if err != nil {
			return fmt.Errorf("failed to insert rank change: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rank history: %w", err)
	}
	return nil
}

// GetByPlayer returns the player's rank changes, newest first.
func (r *RankHistoryRepository) GetByPlayer(ctx context.Context, player string, limit int) ([]domain.RankChange, error) {
	var rows []rankHistoryRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, player, from_rank, to_rank, direction, date, created_at
		FROM rank_history
		WHERE player = ?
		ORDER BY date DESC, created_at DESC
		LIMIT ?`, player, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get rank history: %w", err)
	}

	result := make([]domain.RankChange, len(rows))
	for i, row := range rows {
		result[i] = domain.RankChange{
			ID:        row.ID,
			Player:    row.Player,
			FromRank:  row.FromRank,
			ToRank:    row.ToRank,
			Direction: row.Direction,
			Date:      row.Date,
			CreatedAt: row.CreatedAt,
		}
	}
	return result, nil
}
