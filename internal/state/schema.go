package state

import (
	"cmp"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"tekken-tracker/internal/domain"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	// SchemaLegacyJSON is a player object as written by the old cache.json file.
	SchemaLegacyJSON = 1
	// SchemaMsgpack is persistedPlayer encoded with msgpack.
	SchemaMsgpack = 2

	CurrentSchema = SchemaMsgpack
)

type persistedPlayer struct {
	Name                 string                        `msgpack:"name"`
	CurrentRank          string                        `msgpack:"current_rank"`
	PreviousRank         string                        `msgpack:"previous_rank"`
	Rating               *float64                      `msgpack:"rating"`
	MainCharacter        string                        `msgpack:"main_character"`
	MatchHistory         []domain.MatchRecord          `msgpack:"match_history"`
	SeenMatchIDs         []string                      `msgpack:"seen_match_ids"`
	CurrentWinStreak     int                           `msgpack:"win_streak"`
	CurrentLossStreak    int                           `msgpack:"loss_streak"`
	MatchupStats         map[string]domain.MatchupStat `msgpack:"matchup_stats"`
	SkillProfile         map[string]float64            `msgpack:"skill_profile"`
	DailySnapshot        domain.Snapshot               `msgpack:"daily_snapshot"`
	WeeklySnapshot       domain.Snapshot               `msgpack:"weekly_snapshot"`
	LastDailyReportDate  string                        `msgpack:"last_daily_report"`
	LastWeeklyReportDate string                        `msgpack:"last_weekly_report"`
}

func fromState(p *domain.PlayerState) persistedPlayer {
	return persistedPlayer{
		Name:                 p.Name,
		CurrentRank:          p.CurrentRank,
		PreviousRank:         p.PreviousRank,
		Rating:               p.Rating,
		MainCharacter:        p.MainCharacter,
		MatchHistory:         p.MatchHistory,
		SeenMatchIDs:         slices.Sorted(maps.Keys(p.SeenMatchIDs)),
		CurrentWinStreak:     p.CurrentWinStreak,
		CurrentLossStreak:    p.CurrentLossStreak,
		MatchupStats:         p.MatchupStats,
		SkillProfile:         p.SkillProfile,
		DailySnapshot:        p.DailySnapshot,
		WeeklySnapshot:       p.WeeklySnapshot,
		LastDailyReportDate:  p.LastDailyReportDate,
		LastWeeklyReportDate: p.LastWeeklyReportDate,
	}
}

func (pp persistedPlayer) toState() *domain.PlayerState {
	p := domain.NewPlayerState(pp.Name)
	p.CurrentRank = pp.CurrentRank
	p.PreviousRank = pp.PreviousRank
	p.Rating = pp.Rating
	p.MainCharacter = pp.MainCharacter
	p.MatchHistory = pp.MatchHistory
	for _, id := range pp.SeenMatchIDs {
		p.SeenMatchIDs[id] = struct{}{}
	}
	p.CurrentWinStreak = pp.CurrentWinStreak
	p.CurrentLossStreak = pp.CurrentLossStreak
	if pp.MatchupStats != nil {
		p.MatchupStats = pp.MatchupStats
	}
	if pp.SkillProfile != nil {
		p.SkillProfile = pp.SkillProfile
	}
	p.DailySnapshot = pp.DailySnapshot
	p.WeeklySnapshot = pp.WeeklySnapshot
	p.LastDailyReportDate = pp.LastDailyReportDate
	p.LastWeeklyReportDate = pp.LastWeeklyReportDate
	return p
}

func encode(p *domain.PlayerState) ([]byte, error) {
	data, err := msgpack.Marshal(fromState(p))
	if err != nil {
		return nil, fmt.Errorf("failed to encode player %s: %w", p.Name, err)
	}
	return data, nil
}

// decode turns a stored payload of any known schema version into a PlayerState.
func decode(name string, version int, payload []byte) (*domain.PlayerState, error) {
	switch version {
	case SchemaLegacyJSON:
		var legacy legacyPlayer
		if err := json.Unmarshal(payload, &legacy); err != nil {
			return nil, fmt.Errorf("failed to decode legacy player %s: %w", name, err)
		}
		return legacy.migrate(name), nil
	case SchemaMsgpack:
		var pp persistedPlayer
		if err := msgpack.Unmarshal(payload, &pp); err != nil {
			return nil, fmt.Errorf("failed to decode player %s: %w", name, err)
		}
		pp.Name = name
		return pp.toState(), nil
	}
	return nil, fmt.Errorf("unsupported schema version %d for player %s", version, name)
}

type legacyGame struct {
	TimestampUnix float64 `json:"timestamp_unix"`
	Result        string  `json:"result"`
	Score         string  `json:"score"`
	Opponent      string  `json:"opponent"`
	OpponentRank  *string `json:"opponent_rank"`
	MyChar        *string `json:"my_char"`
	OpponentChar  *string `json:"opponent_char"`
	Source        string  `json:"source"`
}

type legacyPlayer struct {
	Name                 string            `json:"name"`
	EwgfRank             *string           `json:"ewgf_rank"`
	LastEwgfRank         *string           `json:"last_ewgf_rank"`
	RatingMu             *float64          `json:"rating_mu"`
	MainChar             *string           `json:"main_char"`
	Games                []legacyGame      `json:"games"`
	SeenGameIDs          []string          `json:"seen_game_ids"`
	CurrentLoseStreak    int               `json:"current_lose_streak"`
	CurrentWinStreak     int               `json:"current_win_streak"`
	WeeklySnapshot       map[string]string `json:"weekly_snapshot"`
	LastDailyReportDate  *string           `json:"last_daily_report_date"`
	LastWeeklyReportDate *string           `json:"last_weekly_report_date"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (lp legacyPlayer) migrate(name string) *domain.PlayerState {
	p := domain.NewPlayerState(name)
	p.CurrentRank = deref(lp.EwgfRank)
	p.PreviousRank = deref(lp.LastEwgfRank)
	p.Rating = lp.RatingMu
	p.MainCharacter = deref(lp.MainChar)
	p.CurrentWinStreak = lp.CurrentWinStreak
	p.CurrentLossStreak = lp.CurrentLoseStreak
	p.LastDailyReportDate = deref(lp.LastDailyReportDate)
	p.LastWeeklyReportDate = deref(lp.LastWeeklyReportDate)
	if lp.WeeklySnapshot != nil {
		p.WeeklySnapshot = domain.Snapshot{Date: lp.WeeklySnapshot["date"], Rank: lp.WeeklySnapshot["rank"]}
	}

	for _, g := range lp.Games {
		rec := domain.MatchRecord{
			Timestamp:         int64(g.TimestampUnix),
			Result:            domain.Result(g.Result),
			Score:             g.Score,
			OpponentName:      g.Opponent,
			OpponentRank:      deref(g.OpponentRank),
			CharacterPlayed:   deref(g.MyChar),
			CharacterOpponent: deref(g.OpponentChar),
			Source:            domain.Source(g.Source),
		}
		if !rec.Valid() {
			continue
		}
		p.MatchHistory = append(p.MatchHistory, rec)
		p.SeenMatchIDs[domain.MatchKey(rec)] = struct{}{}
	}
	slices.SortStableFunc(p.MatchHistory, func(a, b domain.MatchRecord) int {
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})

	for _, id := range lp.SeenGameIDs {
		if key, ok := migrateSeenID(id); ok {
			p.SeenMatchIDs[key] = struct{}{}
		}
	}
	return p
}

// migrateSeenID rewrites an old "<ts>_<opponent>_<score>" id, where the opponent was not
// normalized, into the current identity key.
func migrateSeenID(id string) (string, bool) {
	first := strings.Index(id, "_")
	last := strings.LastIndex(id, "_")
	if first <= 0 || last <= first {
		return "", false
	}
	ts, err := strconv.ParseInt(id[:first], 10, 64)
	if err != nil {
		return "", false
	}
	return domain.MatchKey(domain.MatchRecord{
		Timestamp:    ts,
		OpponentName: id[first+1 : last],
		Score:        id[last+1:],
	}), true
}
