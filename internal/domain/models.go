package domain

import (
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Result string

const (
	ResultWin     Result = "WIN"
	ResultLoss    Result = "LOSS"
	ResultUnknown Result = "UNKNOWN"
)

func (r Result) Valid() bool {
	return r == ResultWin || r == ResultLoss || r == ResultUnknown
}

type Source string

const (
	SourceWavu Source = "wavu"
	SourceEwgf Source = "ewgf"
)

type MatchRecord struct {
	Timestamp         int64  `json:"timestamp" msgpack:"ts"`
	Result            Result `json:"result" msgpack:"result"`
	Score             string `json:"score" msgpack:"score"`
	OpponentName      string `json:"opponent_name" msgpack:"opp"`
	OpponentRank      string `json:"opponent_rank,omitempty" msgpack:"opp_rank,omitempty"`
	CharacterPlayed   string `json:"character_played,omitempty" msgpack:"char,omitempty"`
	CharacterOpponent string `json:"character_opponent,omitempty" msgpack:"opp_char,omitempty"`
	Source            Source `json:"source" msgpack:"source"`
}

func (m MatchRecord) Time() time.Time {
	return time.Unix(m.Timestamp, 0)
}

func (m MatchRecord) Valid() bool {
	return m.Timestamp > 0 && strings.TrimSpace(m.OpponentName) != "" && m.Result.Valid()
}

// Rounds splits a "a-b" score. ok is false when the score is not two integers.
func (m MatchRecord) Rounds() (mine, theirs int, ok bool) {
	left, right, found := strings.Cut(m.Score, "-")
	if !found {
		return 0, 0, false
	}
	a, err := strconv.Atoi(strings.TrimSpace(left))
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.Atoi(strings.TrimSpace(right))
	if err != nil {
		return 0, 0, false
	}
	return a, b, true
}

type MatchupStat struct {
	Wins         int     `json:"wins" msgpack:"wins"`
	TotalMatches int     `json:"total_matches" msgpack:"total"`
	WinRate      float64 `json:"win_rate" msgpack:"win_rate"`
}

type Snapshot struct {
	Date string `json:"date" msgpack:"date"`
	Rank string `json:"rank" msgpack:"rank"`
}

func (s Snapshot) IsZero() bool {
	return s.Date == "" && s.Rank == ""
}

type PlayerState struct {
	Name                 string
	CurrentRank          string
	PreviousRank         string
	Rating               *float64
	MainCharacter        string
	MatchHistory         []MatchRecord
	SeenMatchIDs         map[string]struct{}
	CurrentWinStreak     int
	CurrentLossStreak    int
	MatchupStats         map[string]MatchupStat
	SkillProfile         map[string]float64
	DailySnapshot        Snapshot
	WeeklySnapshot       Snapshot
	LastDailyReportDate  string
	LastWeeklyReportDate string
}

func NewPlayerState(name string) *PlayerState {
	return &PlayerState{
		Name:         name,
		SeenMatchIDs: make(map[string]struct{}),
		MatchupStats: make(map[string]MatchupStat),
		SkillProfile: make(map[string]float64),
	}
}

func (p *PlayerState) Clone() *PlayerState {
	c := *p
	if p.Rating != nil {
		r := *p.Rating
		c.Rating = &r
	}
	c.MatchHistory = slices.Clone(p.MatchHistory)
	c.SeenMatchIDs = maps.Clone(p.SeenMatchIDs)
	c.MatchupStats = maps.Clone(p.MatchupStats)
	c.SkillProfile = maps.Clone(p.SkillProfile)
	if c.SeenMatchIDs == nil {
		c.SeenMatchIDs = make(map[string]struct{})
	}
	if c.MatchupStats == nil {
		c.MatchupStats = make(map[string]MatchupStat)
	}
	if c.SkillProfile == nil {
		c.SkillProfile = make(map[string]float64)
	}
	return &c
}

// LastMatch returns the newest match in the history.
func (p *PlayerState) LastMatch() (MatchRecord, bool) {
	if len(p.MatchHistory) == 0 {
		return MatchRecord{}, false
	}
	return p.MatchHistory[0], true
}

// MatchesBetween returns history entries with from <= timestamp < to.
func (p *PlayerState) MatchesBetween(from, to time.Time) []MatchRecord {
	var out []MatchRecord
	for _, m := range p.MatchHistory {
		if m.Timestamp >= from.Unix() && m.Timestamp < to.Unix() {
			out = append(out, m)
		}
	}
	return out
}

type Profile struct {
	Rank          string
	Rating        *float64
	MainCharacter string
	MatchupStats  map[string]MatchupStat
	SkillProfile  map[string]float64
}

const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

type RankChange struct {
	ID        string    `json:"id"`
	Player    string    `json:"player"`
	FromRank  string    `json:"from_rank"`
	ToRank    string    `json:"to_rank"`
	Direction string    `json:"direction"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// RankChangeFor converts a RankUp or Derank event into a history entry. ok is false for other events.
func RankChangeFor(player string, e Event, at time.Time) (RankChange, bool) {
	switch ev := e.(type) {
	case RankUp:
		return RankChange{Player: player, FromRank: ev.From, ToRank: ev.To, Direction: DirectionUp, Date: at}, true
	case Derank:
		return RankChange{Player: player, FromRank: ev.From, ToRank: ev.To, Direction: DirectionDown, Date: at}, true
	}
	return RankChange{}, false
}
