package report

import (
	"cmp"
	"maps"
	"slices"
	"time"

	"tekken-tracker/internal/constants"
	"tekken-tracker/internal/domain"
)

type TimeBucket string

const (
	BucketMorning TimeBucket = "Morning"
	BucketMidday  TimeBucket = "Midday"
	BucketEvening TimeBucket = "Evening"
	BucketNight   TimeBucket = "Night"
)

var bucketOrder = []TimeBucket{BucketMorning, BucketMidday, BucketEvening, BucketNight}

var closeLossScores = map[string]struct{}{"2-3": {}, "1-2": {}}

// bucketOf maps a match time to its time-of-day bucket. The hour is the UTC hour shifted by one,
// which is how the historical reports were bucketed; keep it so weeks stay comparable.
func bucketOf(t time.Time) TimeBucket {
	hour := (t.UTC().Hour() + 1) % 24
	switch {
	case hour >= 6 && hour < 12:
		return BucketMorning
	case hour >= 12 && hour < 18:
		return BucketMidday
	case hour >= 18:
		return BucketEvening
	}
	return BucketNight
}

type BucketStat struct {
	Bucket TimeBucket `json:"bucket"`
	Totals
}

type CharacterStat struct {
	Character string `json:"character"`
	Totals
}

type SkillSummary struct {
	Best       string  `json:"best"`
	BestScore  float64 `json:"best_score"`
	Worst      string  `json:"worst"`
	WorstScore float64 `json:"worst_score"`
}

type SeriesPoint struct {
	Timestamp int64         `json:"timestamp"`
	Result    domain.Result `json:"result"`
	// Net is wins minus losses up to and including this match.
	Net int `json:"net"`
}

type WeeklyEntry struct {
	Player       string `json:"player"`
	StartRank    string `json:"start_rank"`
	CurrentRank  string `json:"current_rank"`
	CloseLosses  int    `json:"close_losses"`
	LockedInWins int    `json:"locked_in_wins"`
	// ClutchRate is the percentage of matches that went to a deciding round.
	ClutchRate float64        `json:"clutch_rate"`
	BestBucket *BucketStat    `json:"best_bucket,omitempty"`
	MostFaced  *CharacterStat `json:"most_faced,omitempty"`
	Nemesis    *CharacterStat `json:"nemesis,omitempty"`
	Skills     *SkillSummary  `json:"skills,omitempty"`
	Series     []SeriesPoint  `json:"series"`
	Totals
}

type WeeklyAwards struct {
	Goat     string `json:"goat,omitempty"`
	Fraude   string `json:"fraude,omitempty"`
	Busiest  string `json:"busiest,omitempty"`
	Unlucky  string `json:"unlucky,omitempty"`
	LockedIn string `json:"locked_in,omitempty"`
}

type Weekly struct {
	From    time.Time     `json:"from"`
	To      time.Time     `json:"to"`
	Entries []WeeklyEntry `json:"entries"`
	Awards  WeeklyAwards  `json:"awards"`
}

func (w *Weekly) Entry(player string) (WeeklyEntry, bool) {
	for _, e := range w.Entries {
		if e.Player == player {
			return e, true
		}
	}
	return WeeklyEntry{}, false
}

// Weekly aggregates the last seven days for each player and rotates the weekly snapshot of
// every player who played. It returns nil when nobody played.
func (g *Generator) Weekly(players []*domain.PlayerState) *Weekly {
	now := g.now()
	report := &Weekly{From: now.Add(-7 * 24 * time.Hour), To: now}

	today := g.Today()
	for _, p := range players {
		// every player is stamped so the report is not due again today
		p.LastWeeklyReportDate = today

		matches := p.MatchesBetween(report.From, report.To)
		if len(matches) == 0 {
			continue
		}
		report.Entries = append(report.Entries, weeklyEntry(p, matches))
		if p.CurrentRank != "" {
			p.WeeklySnapshot = domain.Snapshot{Date: today, Rank: p.CurrentRank}
		}
	}

	if len(report.Entries) == 0 {
		g.logger.Debug().Msg("no matches played this week, skipping weekly report")
		return nil
	}

	entries := report.Entries
	n := len(entries)
	winRate := func(i int) float64 { return entries[i].WinRate }
	if i := pickMax(n, winRate, -1); i >= 0 {
		report.Awards.Goat = entries[i].Player
	}
	if i := pickMin(n, winRate); i >= 0 {
		report.Awards.Fraude = entries[i].Player
	}
	if i := pickMax(n, func(i int) float64 { return float64(entries[i].Matches) }, 0); i >= 0 {
		report.Awards.Busiest = entries[i].Player
	}
	if i := pickMax(n, func(i int) float64 { return float64(entries[i].CloseLosses) }, 0); i >= 0 {
		report.Awards.Unlucky = entries[i].Player
	}
	if i := pickMax(n, func(i int) float64 { return float64(entries[i].LockedInWins) }, 0); i >= 0 {
		report.Awards.LockedIn = entries[i].Player
	}

	g.logger.Info().
		Int("players", n).
		Str("goat", report.Awards.Goat).
		Str("fraude", report.Awards.Fraude).
		Str("busiest", report.Awards.Busiest).
		Msg("weekly report generated")

	return report
}

func weeklyEntry(p *domain.PlayerState, matches []domain.MatchRecord) WeeklyEntry {
	startRank := p.WeeklySnapshot.Rank
	if startRank == "" {
		startRank = p.CurrentRank
	}

	entry := WeeklyEntry{
		Player:      p.Name,
		StartRank:   startRank,
		CurrentRank: p.CurrentRank,
		Totals:      Tally(matches),
	}

	myTier := domain.TierIndex(p.CurrentRank)
	clutch := 0
	buckets := make(map[TimeBucket][]domain.MatchRecord, len(bucketOrder))
	byCharacter := make(map[string][]domain.MatchRecord)

	for _, m := range matches {
		if m.Result == domain.ResultLoss {
			if _, ok := closeLossScores[m.Score]; ok {
				entry.CloseLosses++
			}
		}
		if m.Result == domain.ResultWin && myTier >= 0 {
			if opp := domain.TierIndex(m.OpponentRank); opp > myTier {
				entry.LockedInWins++
			}
		}
		if a, b, ok := m.Rounds(); ok && a+b == constants.ClutchRoundTotal {
			clutch++
		}

		bucket := bucketOf(m.Time())
		buckets[bucket] = append(buckets[bucket], m)

		if m.CharacterOpponent != "" {
			byCharacter[m.CharacterOpponent] = append(byCharacter[m.CharacterOpponent], m)
		}
	}

	entry.ClutchRate = percent(clutch, len(matches))
	entry.BestBucket = bestBucket(buckets)
	entry.MostFaced, entry.Nemesis = characterStats(byCharacter)
	entry.Skills = summarizeSkills(p.SkillProfile)
	entry.Series = series(matches)

	return entry
}

func bestBucket(buckets map[TimeBucket][]domain.MatchRecord) *BucketStat {
	var best *BucketStat
	for _, b := range bucketOrder {
		if len(buckets[b]) == 0 {
			continue
		}
		stat := BucketStat{Bucket: b, Totals: Tally(buckets[b])}
		if best == nil || stat.WinRate > best.WinRate {
			best = &stat
		}
	}
	return best
}

func characterStats(byCharacter map[string][]domain.MatchRecord) (mostFaced, nemesis *CharacterStat) {
	stats := make([]CharacterStat, 0, len(byCharacter))
	for char, ms := range byCharacter {
		stats = append(stats, CharacterStat{Character: char, Totals: Tally(ms)})
	}
	slices.SortFunc(stats, func(a, b CharacterStat) int {
		if c := cmp.Compare(b.Matches, a.Matches); c != 0 {
			return c
		}
		return cmp.Compare(a.Character, b.Character)
	})

	for i := range stats {
		if mostFaced == nil {
			mostFaced = &stats[i]
		}
		if stats[i].Matches < constants.NemesisMinFaced {
			continue
		}
		if nemesis == nil || stats[i].WinRate < nemesis.WinRate {
			nemesis = &stats[i]
		}
	}
	return mostFaced, nemesis
}

func summarizeSkills(profile map[string]float64) *SkillSummary {
	if len(profile) == 0 {
		return nil
	}
	names := slices.Sorted(maps.Keys(profile))
	s := &SkillSummary{
		Best: names[0], BestScore: profile[names[0]],
		Worst: names[0], WorstScore: profile[names[0]],
	}
	for _, name := range names[1:] {
		v := profile[name]
		if v > s.BestScore {
			s.Best, s.BestScore = name, v
		}
		if v < s.WorstScore {
			s.Worst, s.WorstScore = name, v
		}
	}
	return s
}

func series(matches []domain.MatchRecord) []SeriesPoint {
	sorted := slices.Clone(matches)
	slices.SortStableFunc(sorted, func(a, b domain.MatchRecord) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})

	points := make([]SeriesPoint, len(sorted))
	net := 0
	for i, m := range sorted {
		switch m.Result {
		case domain.ResultWin:
			net++
		case domain.ResultLoss:
			net--
		}
		points[i] = SeriesPoint{Timestamp: m.Timestamp, Result: m.Result, Net: net}
	}
	return points
}
