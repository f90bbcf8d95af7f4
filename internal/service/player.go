package service

import (
	"context"

	"tekken-tracker/internal/constants"
	"tekken-tracker/internal/domain"
	"tekken-tracker/internal/report"
	"tekken-tracker/internal/repository"
	"tekken-tracker/internal/state"

	"github.com/rs/zerolog"
)

type rankHistoryReader interface {
	GetByPlayer(ctx context.Context, player string, limit int) ([]domain.RankChange, error)
}

// PlayerSummary is the overview of one tracked player.
type PlayerSummary struct {
	Name          string   `json:"name"`
	CurrentRank   string   `json:"current_rank"`
	Rating        *float64 `json:"rating,omitempty"`
	MainCharacter string   `json:"main_character,omitempty"`
	WinStreak     int      `json:"win_streak"`
	LossStreak    int      `json:"loss_streak"`
	LastMatchAt   int64    `json:"last_match_at,omitempty"`
	report.Totals
}

// PlayerDetail adds the profile and the most recent matches to the summary.
type PlayerDetail struct {
	PlayerSummary
	PreviousRank   string                        `json:"previous_rank,omitempty"`
	MatchupStats   map[string]domain.MatchupStat `json:"matchup_stats"`
	SkillProfile   map[string]float64            `json:"skill_profile"`
	DailySnapshot  domain.Snapshot               `json:"daily_snapshot"`
	WeeklySnapshot domain.Snapshot               `json:"weekly_snapshot"`
	RecentMatches  []domain.MatchRecord          `json:"recent_matches"`
}

type PlayerService struct {
	roster  *state.Roster
	history rankHistoryReader
	logger  zerolog.Logger
}

func NewPlayerService(roster *state.Roster, history *repository.RankHistoryRepository, logger zerolog.Logger) *PlayerService {
	return &PlayerService{roster: roster, history: history, logger: logger}
}

func (s *PlayerService) List() []PlayerSummary {
	players := s.roster.Snapshot()
	out := make([]PlayerSummary, len(players))
	for i, p := range players {
		out[i] = summarize(p)
	}
	return out
}

// Get returns the detail of a tracked player with at most recent matches (all when recent <= 0).
func (s *PlayerService) Get(name string, recent int) (*PlayerDetail, error) {
	p, err := s.roster.Get(name)
	if err != nil {
		return nil, err
	}

	if recent <= 0 || recent > len(p.MatchHistory) {
		recent = len(p.MatchHistory)
	}
	return &PlayerDetail{
		PlayerSummary:  summarize(p),
		PreviousRank:   p.PreviousRank,
		MatchupStats:   p.MatchupStats,
		SkillProfile:   p.SkillProfile,
		DailySnapshot:  p.DailySnapshot,
		WeeklySnapshot: p.WeeklySnapshot,
		RecentMatches:  p.MatchHistory[:recent],
	}, nil
}

// RankHistory returns the stored rank changes of a tracked player, newest first.
func (s *PlayerService) RankHistory(ctx context.Context, name string, limit int) ([]domain.RankChange, error) {
	if _, err := s.roster.Get(name); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > constants.RankHistoryLimit {
		limit = constants.RankHistoryLimit
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	changes, err := s.history.GetByPlayer(ctx, name, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("player", name).Msg("failed to read rank history")
		return nil, err
	}
	if changes == nil {
		changes = []domain.RankChange{}
	}
	return changes, nil
}

func summarize(p *domain.PlayerState) PlayerSummary {
	sum := PlayerSummary{
		Name:          p.Name,
		CurrentRank:   p.CurrentRank,
		Rating:        p.Rating,
		MainCharacter: p.MainCharacter,
		WinStreak:     p.CurrentWinStreak,
		LossStreak:    p.CurrentLossStreak,
		Totals:        report.Tally(p.MatchHistory),
	}
	if m, ok := p.LastMatch(); ok {
		sum.LastMatchAt = m.Timestamp
	}
	return sum
}
