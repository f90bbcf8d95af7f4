package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"tekken-tracker/internal/config"
	"tekken-tracker/internal/constants"
	"tekken-tracker/internal/repository"

	"github.com/rs/zerolog"
)

type stateRepository interface {
	List(ctx context.Context) ([]repository.StateRow, error)
	Upsert(ctx context.Context, row repository.StateRow) error
	ReplaceAll(ctx context.Context, rows []repository.StateRow) error
}

type Store struct {
	repo   stateRepository
	names  []string
	logger zerolog.Logger
}

func NewStore(repo *repository.StateRepository, cfg *config.Config, logger zerolog.Logger) *Store {
	return newStore(repo, cfg.PlayerNames(), logger)
}

func newStore(repo stateRepository, names []string, logger zerolog.Logger) *Store {
	return &Store{
		repo:   repo,
		names:  names,
		logger: logger,
	}
}

// Load restores every configured player. It never fails: an unreadable store or row leaves the
// affected players freshly initialized, and rows for players no longer configured are dropped.
func (s *Store) Load(ctx context.Context) *Roster {
	roster := NewRoster(s.names)

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load player states, starting fresh")
		return roster
	}

	restored, migrated := 0, 0
	for _, row := range rows {
		p, err := decode(row.Name, row.SchemaVersion, row.Payload)
		if err != nil {
			s.logger.Warn().Err(err).Str("player", row.Name).Msg("discarding unreadable player state")
			continue
		}
		if !roster.replace(p) {
			s.logger.Info().Str("player", row.Name).Msg("dropping state of player no longer configured")
			continue
		}
		restored++
		if row.SchemaVersion != CurrentSchema {
			migrated++
		}
	}

	s.logger.Info().
		Int("configured", len(s.names)).
		Int("restored", restored).
		Int("migrated", migrated).
		Msg("player states loaded")

	return roster
}

// Save writes every player in one transaction, replacing whatever was stored before.
func (s *Store) Save(ctx context.Context, roster *Roster) error {
	players := roster.Snapshot()
	now := time.Now().UTC()

	rows := make([]repository.StateRow, 0, len(players))
	for _, p := range players {
		payload, err := encode(p)
		if err != nil {
			return err
		}
		rows = append(rows, repository.StateRow{
			Name:          p.Name,
			SchemaVersion: CurrentSchema,
			Payload:       payload,
			UpdatedAt:     now,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.repo.ReplaceAll(ctx, rows); err != nil {
		return fmt.Errorf("failed to save player states: %w", err)
	}

	s.logger.Debug().Int("players", len(rows)).Msg("player states saved")
	return nil
}

// ImportLegacyCache stores the players found in an old cache.json as legacy rows; they are
// migrated on the next Load. Players that are not configured or already stored are skipped.
func (s *Store) ImportLegacyCache(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read legacy cache: %w", err)
	}

	var cache map[string]json.RawMessage
	if err := json.Unmarshal(data, &cache); err != nil {
		return 0, fmt.Errorf("failed to parse legacy cache: %w", err)
	}

	configured := make(map[string]struct{}, len(s.names))
	for _, name := range s.names {
		configured[name] = struct{}{}
	}

	existing, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list stored players: %w", err)
	}
	stored := make(map[string]struct{}, len(existing))
	for _, row := range existing {
		stored[row.Name] = struct{}{}
	}

	now := time.Now().UTC()
	imported := 0
	for name, raw := range cache {
		if _, ok := configured[name]; !ok {
			s.logger.Debug().Str("player", name).Msg("skipping legacy player not configured")
			continue
		}
		if _, ok := stored[name]; ok {
			s.logger.Debug().Str("player", name).Msg("player already stored, skipping legacy import")
			continue
		}
		if _, err := decode(name, SchemaLegacyJSON, raw); err != nil {
			s.logger.Warn().Err(err).Str("player", name).Msg("skipping unreadable legacy player")
			continue
		}
		row := repository.StateRow{
			Name:          name,
			SchemaVersion: SchemaLegacyJSON,
			Payload:       raw,
			UpdatedAt:     now,
		}
		if err := s.repo.Upsert(ctx, row); err != nil {
			return imported, err
		}
		imported++
	}

	s.logger.Info().Str("path", path).Int("players", imported).Msg("legacy cache imported")
	return imported, nil
}
