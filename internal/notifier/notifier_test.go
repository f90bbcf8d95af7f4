package notifier

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tekken-tracker/internal/domain"
	"tekken-tracker/internal/report"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMentions(t *testing.T) {
	m := Mentions{"alice": "1234", "empty": ""}
	assert.Equal(t, "<@1234>", m.Discord("alice"))
	assert.Equal(t, "**bob**", m.Discord("bob"))
	assert.Equal(t, "**empty**", m.Discord("empty"))
}

func TestEventMessage(t *testing.T) {
	tests := []struct {
		name      string
		event     domain.Event
		title     string
		contains  string
		color     int
		thumbnail string
	}{
		{"king", domain.KingPicked{}, "🐆 KING DETECTED 🐆", "picked King", ColorOrange, ""},
		{"win streak 3", domain.WinStreak{Count: 3}, "🔥 Win Streak 🔥", "3 in a row", ColorGold, ""},
		{"win streak 10", domain.WinStreak{Count: 10}, "👑 IMMORTAL 👑", "10 in a row", ColorMagenta, ""},
		{"lose streak 5", domain.LoseStreak{Count: 5}, "⚰️ Lose Streak ⚰️", "5 straight", ColorBlack, ""},
		{"unlisted streak", domain.LoseStreak{Count: 4}, "💀 Lose Streak 💀", "lost 4 in a row", ColorDarkRed, ""},
		{"rank up", domain.RankUp{From: "Garyu", To: "Mighty Ruler"}, "🎉 RANK UP 🎉", "**Mighty Ruler**", ColorGreen,
			"https://www.ewgf.gg/static/rank-icons/MightyRulerT8.webp"},
		{"derank", domain.Derank{From: "Tenryu", To: "Shinryu"}, "📉 DERANK 📉", "**Shinryu**", ColorRed,
			"https://www.ewgf.gg/static/rank-icons/ShinryuT8.webp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := EventMessage("**alice**", tt.event)
			assert.Equal(t, tt.title, msg.Title)
			assert.Contains(t, msg.Description, "**alice**")
			assert.Contains(t, msg.Description, tt.contains)
			assert.Equal(t, tt.color, msg.Color)
			assert.Equal(t, tt.thumbnail, msg.Thumbnail)
		})
	}
}

func TestSampleEvents(t *testing.T) {
	events := SampleEvents("alice")
	require.Len(t, events, 11)

	seen := make(map[domain.EventType]bool)
	for _, pe := range events {
		assert.Equal(t, "alice", pe.Player)
		seen[pe.Event.Type()] = true
	}
	for _, want := range []domain.EventType{"king_picked", "win_streak_10", "lose_streak_8", "rank_up", "derank"} {
		assert.True(t, seen[want], want)
	}
}

func TestTablesAndAwards(t *testing.T) {
	now := time.Date(2026, 3, 15, 23, 55, 0, 0, time.UTC)

	daily := SampleDaily("alice", now)
	table := DailyTable(daily)
	assert.Contains(t, table, "alice")
	assert.Contains(t, table, "66.7%")
	assert.Equal(t, []string{
		"🐐 GOAT: alice (10 wins, 66.7%)",
		"🤡 FRAUDE: Sparring Partner (20 losses, 9.1%)",
	}, DailyAwardLines(daily))

	weekly := SampleWeekly("alice", now)
	assert.Contains(t, WeeklyTable(weekly), "Garyu -> Shinryu")
	lines := WeeklyAwardLines(weekly)
	require.Len(t, lines, 5)
	assert.Equal(t, "🔒 LOCKED IN: alice (8 wins over higher ranks)", lines[2])
	assert.Equal(t, "💔 UNLUCKY: Sparring Partner (12 close losses)", lines[3])

	highlights := WeeklyHighlights(weekly.Entries[0])
	assert.Contains(t, highlights, "Best time: Evening (70%)")
	assert.Contains(t, highlights, "Most faced: Jin x12")
	assert.NotContains(t, highlights, "Nemesis")

	assert.Empty(t, DailyAwardLines(&report.Daily{}))
	assert.Empty(t, WeeklyHighlights(report.WeeklyEntry{}))
}

func TestRankTransition(t *testing.T) {
	assert.Equal(t, "Unranked", rankTransition("Garyu", ""))
	assert.Equal(t, "Garyu", rankTransition("", "Garyu"))
	assert.Equal(t, "Garyu", rankTransition("Garyu", "Garyu"))
	assert.Equal(t, "Garyu -> Tenryu", rankTransition("Garyu", "Tenryu"))
}

func TestMedia(t *testing.T) {
	dir := t.TempDir()
	kingDir := filepath.Join(dir, "king_picked")
	require.NoError(t, os.MkdirAll(filepath.Join(kingDir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(kingDir, "a.mp4"), []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(kingDir, "b.mp4"), []byte("b"), 0o600))

	m := NewMedia(dir)
	m.pick = func(n int) int { return n - 1 }

	path, ok := m.Pick(domain.EventKingPicked)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(kingDir, "b.mp4"), path)

	_, ok = m.Pick(domain.EventDerank)
	assert.False(t, ok)

	_, ok = NewMedia("").Pick(domain.EventKingPicked)
	assert.False(t, ok)

	var unset *Media
	_, ok = unset.Pick(domain.EventKingPicked)
	assert.False(t, ok)
}

func TestLogNotifier(t *testing.T) {
	var buf strings.Builder
	n := NewLogNotifier(zerolog.New(&buf))
	now := time.Date(2026, 3, 15, 23, 55, 0, 0, time.UTC)

	require.NoError(t, n.NotifyEvents(t.Context(), SampleEvents("alice")[:1]))
	require.NoError(t, n.SendDailyReport(t.Context(), SampleDaily("alice", now)))
	require.NoError(t, n.SendWeeklyReport(t.Context(), SampleWeekly("alice", now)))

	out := buf.String()
	assert.Contains(t, out, `"event":"king_picked"`)
	assert.Contains(t, out, "daily report")
	assert.Contains(t, out, "weekly report")
}
