package notifier

import (
	"fmt"
	"strconv"
	"strings"

	"tekken-tracker/internal/domain"
	"tekken-tracker/internal/report"

	"github.com/syohex/go-texttable"
)

const rankIconURL = "https://www.ewgf.gg/static/rank-icons/%sT8.webp"

const (
	ColorOrange  = 0xE67E22
	ColorGold    = 0xF1C40F
	ColorTeal    = 0x1ABC9C
	ColorPurple  = 0x9B59B6
	ColorMagenta = 0xE91E63
	ColorGreen   = 0x2ECC71
	ColorRed     = 0xE74C3C
	ColorDarkRed = 0x8B0000
	ColorBlack   = 0x000000
	ColorBlue    = 0x3498DB
	ColorBlurple = 0x5865F2
)

// Message is a platform neutral rendering of an event.
type Message struct {
	Title       string
	Description string
	Color       int
	Thumbnail   string
}

type streakText struct {
	title string
	text  string
	color int
}

var winStreakText = map[int]streakText{
	3:  {"🔥 Win Streak 🔥", "%s wins 3 in a row!", ColorGold},
	5:  {"🚀 Hot Streak 🚀", "%s is on a 5 game win streak!", ColorTeal},
	8:  {"🌟 GOAT 🌟", "%s has won 8 straight. Nobody can stop them.", ColorPurple},
	10: {"👑 IMMORTAL 👑", "%s just won 10 in a row!", ColorMagenta},
}

var loseStreakText = map[int]streakText{
	3:  {"💀 Lose Streak 💀", "%s dropped 3 in a row...", ColorDarkRed},
	5:  {"⚰️ Lose Streak ⚰️", "%s is down 5 straight...", ColorBlack},
	8:  {"🏴‍☠️ DISASTER 🏴‍☠️", "%s has lost 8 in a row. Time for a break.", ColorBlack},
	10: {"🏳️ SURRENDER 🏳️", "%s is at 10 straight losses. Step away from the stick.", ColorBlack},
}

// RankIcon returns the rank badge image for rank.
func RankIcon(rank string) string {
	return fmt.Sprintf(rankIconURL, strings.ReplaceAll(rank, " ", ""))
}

// EventMessage renders e for a player already formatted as mention.
func EventMessage(mention string, e domain.Event) Message {
	switch ev := e.(type) {
	case domain.KingPicked:
		return Message{Title: "🐆 KING DETECTED 🐆", Description: mention + " picked King!", Color: ColorOrange}
	case domain.WinStreak:
		return streakMessage(winStreakText, ev.Count, mention, "🔥 Win Streak 🔥", "%s won %d in a row!", ColorGold)
	case domain.LoseStreak:
		return streakMessage(loseStreakText, ev.Count, mention, "💀 Lose Streak 💀", "%s lost %d in a row...", ColorDarkRed)
	case domain.RankUp:
		return Message{
			Title:       "🎉 RANK UP 🎉",
			Description: fmt.Sprintf("%s reached **%s** (from %s)", mention, ev.To, ev.From),
			Color:       ColorGreen,
			Thumbnail:   RankIcon(ev.To),
		}
	case domain.Derank:
		return Message{
			Title:       "📉 DERANK 📉",
			Description: fmt.Sprintf("%s fell back to **%s** (from %s)", mention, ev.To, ev.From),
			Color:       ColorRed,
			Thumbnail:   RankIcon(ev.To),
		}
	}
	return Message{Title: string(e.Type()), Description: mention, Color: ColorBlurple}
}

func streakMessage(texts map[int]streakText, count int, mention, title, format string, color int) Message {
	if t, ok := texts[count]; ok {
		return Message{Title: t.title, Description: fmt.Sprintf(t.text, mention), Color: t.color}
	}
	return Message{Title: title, Description: fmt.Sprintf(format, mention, count), Color: color}
}

// DailyTable draws the per-player daily stats as a fixed width table.
func DailyTable(d *report.Daily) string {
	tbl := &texttable.TextTable{}
	_ = tbl.SetHeader("Player", "Rank", "W", "L", "WR")
	for _, e := range d.Entries {
		_ = tbl.AddRow(e.Player, rankTransition(e.StartRank, e.CurrentRank),
			strconv.Itoa(e.Wins), strconv.Itoa(e.Losses), formatRate(e.WinRate))
	}
	return tbl.Draw()
}

// WeeklyTable draws the per-player weekly stats as a fixed width table.
func WeeklyTable(w *report.Weekly) string {
	tbl := &texttable.TextTable{}
	_ = tbl.SetHeader("Player", "Rank", "W", "L", "WR", "Clutch")
	for _, e := range w.Entries {
		_ = tbl.AddRow(e.Player, rankTransition(e.StartRank, e.CurrentRank),
			strconv.Itoa(e.Wins), strconv.Itoa(e.Losses), formatRate(e.WinRate), formatRate(e.ClutchRate))
	}
	return tbl.Draw()
}

// DailyAwardLines lists the daily awards, skipping empty ones.
func DailyAwardLines(d *report.Daily) []string {
	var lines []string
	if d.Awards.Goat != "" {
		e, _ := d.Entry(d.Awards.Goat)
		lines = append(lines, fmt.Sprintf("🐐 GOAT: %s (%d wins, %s)", e.Player, e.Wins, formatRate(e.WinRate)))
	}
	if d.Awards.Fraude != "" {
		e, _ := d.Entry(d.Awards.Fraude)
		lines = append(lines, fmt.Sprintf("🤡 FRAUDE: %s (%d losses, %s)", e.Player, e.Losses, formatRate(e.WinRate)))
	}
	return lines
}

// WeeklyAwardLines lists the weekly awards, skipping empty ones.
func WeeklyAwardLines(w *report.Weekly) []string {
	var lines []string
	add := func(player, label string, detail func(report.WeeklyEntry) string) {
		if player == "" {
			return
		}
		e, _ := w.Entry(player)
		lines = append(lines, fmt.Sprintf("%s: %s (%s)", label, player, detail(e)))
	}
	add(w.Awards.Goat, "🐐 GOAT", func(e report.WeeklyEntry) string { return formatRate(e.WinRate) })
	add(w.Awards.Fraude, "🤡 FRAUDE", func(e report.WeeklyEntry) string { return formatRate(e.WinRate) })
	add(w.Awards.LockedIn, "🔒 LOCKED IN", func(e report.WeeklyEntry) string {
		return fmt.Sprintf("%d wins over higher ranks", e.LockedInWins)
	})
	add(w.Awards.Unlucky, "💔 UNLUCKY", func(e report.WeeklyEntry) string {
		return fmt.Sprintf("%d close losses", e.CloseLosses)
	})
	add(w.Awards.Busiest, "🛌 CHÔMEUR", func(e report.WeeklyEntry) string {
		return fmt.Sprintf("%d matches", e.Matches)
	})
	return lines
}

// WeeklyHighlights summarizes the extra weekly stats of one entry, one fact per line.
func WeeklyHighlights(e report.WeeklyEntry) string {
	var lines []string
	if e.BestBucket != nil {
		lines = append(lines, fmt.Sprintf("Best time: %s (%s)", e.BestBucket.Bucket, formatRate(e.BestBucket.WinRate)))
	}
	if e.MostFaced != nil {
		lines = append(lines, fmt.Sprintf("Most faced: %s x%d", e.MostFaced.Character, e.MostFaced.Matches))
	}
	if e.Nemesis != nil {
		lines = append(lines, fmt.Sprintf("Nemesis: %s (%s)", e.Nemesis.Character, formatRate(e.Nemesis.WinRate)))
	}
	if e.Skills != nil {
		lines = append(lines, fmt.Sprintf("Strength: %s / Weakness: %s", e.Skills.Best, e.Skills.Worst))
	}
	return strings.Join(lines, "\n")
}

func rankTransition(from, to string) string {
	switch {
	case to == "":
		return "Unranked"
	case from == "" || from == to:
		return to
	}
	return from + " -> " + to
}

func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64) + "%"
}
