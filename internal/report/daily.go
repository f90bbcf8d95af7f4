package report

import (
	"fmt"
	"time"

	"tekken-tracker/internal/domain"
)

type DailyEntry struct {
	Player      string `json:"player"`
	StartRank   string `json:"start_rank"`
	CurrentRank string `json:"current_rank"`
	Totals
}

type DailyAwards struct {
	Goat   string `json:"goat,omitempty"`
	Fraude string `json:"fraude,omitempty"`
}

type Daily struct {
	Date    string       `json:"date"`
	Entries []DailyEntry `json:"entries"`
	Awards  DailyAwards  `json:"awards"`
}

func (d *Daily) Entry(player string) (DailyEntry, bool) {
	for _, e := range d.Entries {
		if e.Player == player {
			return e, true
		}
	}
	return DailyEntry{}, false
}

// Daily aggregates the matches played on date (YYYY-MM-DD, report location) by each player.
// It returns nil when nobody played. When date is today every player's LastDailyReportDate is
// set, so callers previewing a report must pass clones.
func (g *Generator) Daily(players []*domain.PlayerState, date string) (*Daily, error) {
	start, err := time.ParseInLocation(time.DateOnly, date, g.loc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report date %q: %w", date, err)
	}
	// calendar day, so DST days are 23 or 25 hours long
	end := start.AddDate(0, 0, 1)

	report := &Daily{Date: date}
	for _, p := range players {
		matches := p.MatchesBetween(start, end)
		if len(matches) == 0 {
			continue
		}

		startRank := p.CurrentRank
		if p.DailySnapshot.Date == date && p.DailySnapshot.Rank != "" {
			startRank = p.DailySnapshot.Rank
		}

		report.Entries = append(report.Entries, DailyEntry{
			Player:      p.Name,
			StartRank:   startRank,
			CurrentRank: p.CurrentRank,
			Totals:      Tally(matches),
		})
	}

	if today := g.Today(); date == today {
		for _, p := range players {
			p.LastDailyReportDate = today
		}
	}

	if len(report.Entries) == 0 {
		g.logger.Debug().Str("date", date).Msg("no matches played, skipping daily report")
		return nil, nil
	}

	entries := report.Entries
	winRate := func(i int) float64 { return entries[i].WinRate }
	if i := pickMax(len(entries), winRate, -1); i >= 0 {
		report.Awards.Goat = entries[i].Player
	}
	if i := pickMin(len(entries), winRate); i >= 0 {
		report.Awards.Fraude = entries[i].Player
	}

	g.logger.Info().
		Str("date", date).
		Int("players", len(entries)).
		Str("goat", report.Awards.Goat).
		Str("fraude", report.Awards.Fraude).
		Msg("daily report generated")

	return report, nil
}
