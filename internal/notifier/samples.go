package notifier

import (
	"time"

	"tekken-tracker/internal/domain"
	"tekken-tracker/internal/report"
)

// SampleEvents returns one event of every kind for player, used to preview notifications.
func SampleEvents(player string) []domain.PlayerEvent {
	events := []domain.Event{domain.KingPicked{}}
	for _, n := range domain.StreakMilestones {
		events = append(events, domain.LoseStreak{Count: n})
	}
	for _, n := range domain.StreakMilestones {
		events = append(events, domain.WinStreak{Count: n})
	}
	events = append(events,
		domain.RankUp{From: "Garyu", To: "Shinryu"},
		domain.Derank{From: "Shinryu", To: "Garyu"},
	)

	out := make([]domain.PlayerEvent, len(events))
	for i, e := range events {
		out[i] = domain.PlayerEvent{Player: player, Event: e}
	}
	return out
}

// SampleDaily builds a fake daily report with player as the winner.
func SampleDaily(player string, now time.Time) *report.Daily {
	return &report.Daily{
		Date: now.Format(time.DateOnly),
		Entries: []report.DailyEntry{
			{Player: player, StartRank: "Garyu", CurrentRank: "Garyu",
				Totals: report.Totals{Matches: 15, Wins: 10, Losses: 5, WinRate: 66.7}},
			{Player: "Sparring Partner", StartRank: "Beginner", CurrentRank: "Beginner",
				Totals: report.Totals{Matches: 22, Wins: 2, Losses: 20, WinRate: 9.1}},
		},
		Awards: report.DailyAwards{Goat: player, Fraude: "Sparring Partner"},
	}
}

// SampleWeekly builds a fake weekly report with player as the winner.
func SampleWeekly(player string, now time.Time) *report.Weekly {
	return &report.Weekly{
		From: now.Add(-7 * 24 * time.Hour),
		To:   now,
		Entries: []report.WeeklyEntry{
			{
				Player: player, StartRank: "Garyu", CurrentRank: "Shinryu",
				LockedInWins: 8, CloseLosses: 3, ClutchRate: 24,
				BestBucket: &report.BucketStat{Bucket: report.BucketEvening,
					Totals: report.Totals{Matches: 40, Wins: 28, Losses: 12, WinRate: 70}},
				MostFaced: &report.CharacterStat{Character: "Jin",
					Totals: report.Totals{Matches: 12, Wins: 7, Losses: 5, WinRate: 58.3}},
				Totals: report.Totals{Matches: 75, Wins: 45, Losses: 30, WinRate: 60},
			},
			{
				Player: "Sparring Partner", StartRank: "Brawler", CurrentRank: "Brawler",
				CloseLosses: 12, ClutchRate: 31.7,
				Nemesis: &report.CharacterStat{Character: "King",
					Totals: report.Totals{Matches: 9, Wins: 1, Losses: 8, WinRate: 11.1}},
				Totals: report.Totals{Matches: 60, Wins: 10, Losses: 50, WinRate: 16.7},
			},
		},
		Awards: report.WeeklyAwards{
			Goat:     player,
			Fraude:   "Sparring Partner",
			Busiest:  player,
			Unlucky:  "Sparring Partner",
			LockedIn: player,
		},
	}
}
