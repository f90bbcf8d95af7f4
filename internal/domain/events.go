package domain

import "strconv"

type EventType string

const (
	EventKingPicked EventType = "king_picked"
	EventRankUp     EventType = "rank_up"
	EventDerank     EventType = "derank"
)

var StreakMilestones = []int{3, 5, 8, 10}

// Event is one of KingPicked, WinStreak, LoseStreak, RankUp or Derank.
type Event interface {
	Type() EventType
	isEvent()
}

type KingPicked struct {
	Match MatchRecord
}

func (KingPicked) Type() EventType { return EventKingPicked }
func (KingPicked) isEvent()        {}

type WinStreak struct {
	Count int
}

func (e WinStreak) Type() EventType { return EventType("win_streak_" + strconv.Itoa(e.Count)) }
func (WinStreak) isEvent()          {}

type LoseStreak struct {
	Count int
}

func (e LoseStreak) Type() EventType { return EventType("lose_streak_" + strconv.Itoa(e.Count)) }
func (LoseStreak) isEvent()          {}

type RankUp struct {
	From string
	To   string
}

func (RankUp) Type() EventType { return EventRankUp }
func (RankUp) isEvent()        {}

type Derank struct {
	From string
	To   string
}

func (Derank) Type() EventType { return EventDerank }
func (Derank) isEvent()        {}

// IsRankEvent reports whether e is a RankUp or Derank.
func IsRankEvent(e Event) bool {
	switch e.(type) {
	case RankUp, Derank:
		return true
	}
	return false
}

// PlayerEvent ties an event to the player it was derived for.
type PlayerEvent struct {
	Player string
	Event  Event
}
