package engine

import (
	"cmp"
	"maps"
	"slices"
	"strings"
	"time"

	"tekken-tracker/internal/constants"
	"tekken-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// Engine folds match records and profile snapshots into PlayerState and derives events.
// It holds no player state of its own.
type Engine struct {
	now    func() time.Time
	loc    *time.Location
	logger zerolog.Logger
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.loc = loc }
}

func New(logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		now:    time.Now,
		loc:    time.Local,
		logger: logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ingest merges records into p and returns the events they trigger, in emission order.
// Records already seen are dropped, so re-ingesting a batch is a no-op.
func (e *Engine) Ingest(p *domain.PlayerState, records []domain.MatchRecord) []domain.Event {
	if p.SeenMatchIDs == nil {
		p.SeenMatchIDs = make(map[string]struct{})
	}

	var fresh []domain.MatchRecord
	batch := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if !rec.Valid() {
			e.logger.Debug().
				Str("player", p.Name).
				Int64("timestamp", rec.Timestamp).
				Str("opponent", rec.OpponentName).
				Str("result", string(rec.Result)).
				Msg("skipping malformed match record")
			continue
		}
		key := domain.MatchKey(rec)
		if _, seen := p.SeenMatchIDs[key]; seen {
			continue
		}
		if _, dup := batch[key]; dup {
			continue
		}
		batch[key] = struct{}{}
		fresh = append(fresh, rec)
	}

	if len(fresh) == 0 {
		return nil
	}

	slices.SortFunc(fresh, chronological)

	now := e.now()
	var events []domain.Event
	for _, rec := range fresh {
		p.SeenMatchIDs[domain.MatchKey(rec)] = struct{}{}
		p.MatchHistory = append(p.MatchHistory, rec)

		isFresh := now.Sub(rec.Time()) < constants.FreshnessWindow

		if isFresh && strings.Contains(strings.ToLower(rec.CharacterPlayed), "king") {
			events = append(events, domain.KingPicked{Match: rec})
		}

		switch rec.Result {
		case domain.ResultWin:
			p.CurrentLossStreak = 0
			p.CurrentWinStreak++
			if isFresh && isMilestone(p.CurrentWinStreak) {
				events = append(events, domain.WinStreak{Count: p.CurrentWinStreak})
			}
		case domain.ResultLoss:
			p.CurrentWinStreak = 0
			p.CurrentLossStreak++
			if isFresh && isMilestone(p.CurrentLossStreak) {
				events = append(events, domain.LoseStreak{Count: p.CurrentLossStreak})
			}
		}
	}

	slices.SortFunc(p.MatchHistory, func(a, b domain.MatchRecord) int {
		return chronological(b, a)
	})
	if len(p.MatchHistory) > constants.MatchHistoryCap {
		p.MatchHistory = slices.Clip(p.MatchHistory[:constants.MatchHistoryCap])
	}

	e.logger.Debug().
		Str("player", p.Name).
		Int("received", len(records)).
		Int("new", len(fresh)).
		Int("events", len(events)).
		Int("win_streak", p.CurrentWinStreak).
		Int("loss_streak", p.CurrentLossStreak).
		Msg("match records ingested")

	return events
}

// UpdateProfile applies a profile snapshot. Empty values never overwrite known data and
// ranks outside the tier list are ignored.
func (e *Engine) UpdateProfile(p *domain.PlayerState, profile domain.Profile) {
	today := e.now().In(e.loc).Format(time.DateOnly)

	if profile.Rank != "" && !domain.IsKnownTier(profile.Rank) {
		e.logger.Warn().Str("player", p.Name).Str("rank", profile.Rank).Msg("ignoring unrecognized rank")
	}
	knownRank := domain.IsKnownTier(profile.Rank)

	if p.DailySnapshot.Date != today {
		startRank := p.CurrentRank
		if startRank == "" && knownRank {
			startRank = profile.Rank
		}
		if startRank != "" {
			p.DailySnapshot = domain.Snapshot{Date: today, Rank: startRank}
		}
	}

	if knownRank && profile.Rank != p.CurrentRank {
		p.PreviousRank = p.CurrentRank
		p.CurrentRank = profile.Rank
	}

	if profile.Rating != nil {
		r := *profile.Rating
		p.Rating = &r
	}
	if profile.MainCharacter != "" {
		p.MainCharacter = profile.MainCharacter
	}
	if len(profile.MatchupStats) > 0 {
		p.MatchupStats = maps.Clone(profile.MatchupStats)
	}
	if len(profile.SkillProfile) > 0 {
		p.SkillProfile = maps.Clone(profile.SkillProfile)
	}

	if p.WeeklySnapshot.IsZero() && p.CurrentRank != "" {
		p.WeeklySnapshot = domain.Snapshot{Date: today, Rank: p.CurrentRank}
	}
}

// DetectRankEvents compares the previous and current rank and then advances the previous rank,
// so a second call without a rank change in between returns nothing.
func (e *Engine) DetectRankEvents(p *domain.PlayerState) []domain.Event {
	if p.PreviousRank == "" || p.PreviousRank == p.CurrentRank {
		p.PreviousRank = p.CurrentRank
		return nil
	}

	from, to := p.PreviousRank, p.CurrentRank
	p.PreviousRank = p.CurrentRank

	oldIdx, newIdx := domain.TierIndex(from), domain.TierIndex(to)
	if oldIdx < 0 || newIdx < 0 {
		e.logger.Warn().Str("player", p.Name).Str("from", from).Str("to", to).Msg("rank not in tier list, skipping rank change")
		return nil
	}

	switch {
	case newIdx > oldIdx:
		return []domain.Event{domain.RankUp{From: from, To: to}}
	case newIdx < oldIdx:
		return []domain.Event{domain.Derank{From: from, To: to}}
	}
	return nil
}

func isMilestone(streak int) bool {
	return slices.Contains(domain.StreakMilestones, streak)
}

// chronological orders by timestamp, falling back to the identity key so that records sharing
// a timestamp replay in the same order whatever order they arrived in.
func chronological(a, b domain.MatchRecord) int {
	if c := cmp.Compare(a.Timestamp, b.Timestamp); c != 0 {
		return c
	}
	return cmp.Compare(domain.MatchKey(a), domain.MatchKey(b))
}
