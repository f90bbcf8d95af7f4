package discord

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"tekken-tracker/internal/domain"
	"tekken-tracker/internal/notifier"
	"tekken-tracker/internal/report"

	"github.com/bwmarrin/discordgo"
	"github.com/go-andiamo/splitter"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	ChannelID string
	Content   string
	Embeds    []*discordgo.MessageEmbed
	Files     map[string]string
}

type mockSession struct {
	mu   sync.Mutex
	sent []sentMessage
	// failOn makes every send to that channel fail.
	failOn string
}

func (m *mockSession) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return m.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{Content: content})
}

func (m *mockSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if channelID == m.failOn {
		return nil, errors.New("discord is down")
	}
	files := make(map[string]string)
	for _, f := range data.Files {
		body, _ := io.ReadAll(f.Reader)
		files[f.Name] = string(body)
	}
	m.sent = append(m.sent, sentMessage{ChannelID: channelID, Content: data.Content, Embeds: data.Embeds, Files: files})
	return &discordgo.Message{ID: "mock", ChannelID: channelID}, nil
}

func (m *mockSession) last() sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMessage{}
	}
	return m.sent[len(m.sent)-1]
}

var testChannels = Channels{Announce: "announce", Rank: "rank", Report: "report"}

func newTestNotifier(s Session, media *notifier.Media) *Notifier {
	return NewNotifier(s, testChannels, notifier.Mentions{"alice": "42"}, media, zerolog.Nop())
}

func TestNotifyEvents_Routing(t *testing.T) {
	s := &mockSession{}
	n := newTestNotifier(s, nil)

	err := n.NotifyEvents(context.Background(), []domain.PlayerEvent{
		{Player: "alice", Event: domain.WinStreak{Count: 3}},
		{Player: "bob", Event: domain.RankUp{From: "Garyu", To: "Shinryu"}},
		{Player: "alice", Event: domain.Derank{From: "Shinryu", To: "Garyu"}},
	})
	require.NoError(t, err)
	require.Len(t, s.sent, 3)

	assert.Equal(t, "announce", s.sent[0].ChannelID)
	assert.Equal(t, "<@42>", s.sent[0].Content)
	assert.Equal(t, "🔥 Win Streak 🔥", s.sent[0].Embeds[0].Title)

	assert.Equal(t, "rank", s.sent[1].ChannelID)
	assert.Equal(t, "**bob**", s.sent[1].Content)
	require.NotNil(t, s.sent[1].Embeds[0].Thumbnail)
	assert.Contains(t, s.sent[1].Embeds[0].Thumbnail.URL, "ShinryuT8.webp")

	assert.Equal(t, "rank", s.sent[2].ChannelID)
}

func TestNotifyEvents_RankFallsBackToAnnounce(t *testing.T) {
	s := &mockSession{}
	n := NewNotifier(s, Channels{Announce: "announce"}, nil, nil, zerolog.Nop())

	require.NoError(t, n.NotifyEvents(context.Background(), []domain.PlayerEvent{
		{Player: "alice", Event: domain.RankUp{From: "Garyu", To: "Shinryu"}},
	}))
	assert.Equal(t, "announce", s.last().ChannelID)
}

func TestNotifyEvents_FailureDoesNotStopOthers(t *testing.T) {
	s := &mockSession{failOn: "rank"}
	n := newTestNotifier(s, nil)

	err := n.NotifyEvents(context.Background(), []domain.PlayerEvent{
		{Player: "alice", Event: domain.RankUp{From: "Garyu", To: "Shinryu"}},
		{Player: "alice", Event: domain.KingPicked{}},
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to send rank_up")
	require.Len(t, s.sent, 1)
	assert.Equal(t, "announce", s.sent[0].ChannelID)
}

func TestNotifyEvents_AttachesMedia(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "king_picked"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "king_picked", "roar.gif"), []byte("GIF89a"), 0o600))

	s := &mockSession{}
	n := newTestNotifier(s, notifier.NewMedia(dir))

	require.NoError(t, n.NotifyEvents(context.Background(), []domain.PlayerEvent{
		{Player: "alice", Event: domain.KingPicked{}},
		{Player: "alice", Event: domain.WinStreak{Count: 5}},
	}))
	require.Len(t, s.sent, 2)
	assert.Equal(t, map[string]string{"roar.gif": "GIF89a"}, s.sent[0].Files)
	assert.Empty(t, s.sent[1].Files)
}

func TestSendReports(t *testing.T) {
	s := &mockSession{}
	n := newTestNotifier(s, nil)
	now := time.Date(2026, 3, 15, 23, 55, 0, 0, time.UTC)

	require.NoError(t, n.SendDailyReport(context.Background(), notifier.SampleDaily("alice", now)))
	daily := s.last()
	assert.Equal(t, "report", daily.ChannelID)
	require.Len(t, daily.Embeds, 1)
	assert.Equal(t, "📅 Daily Report 2026-03-15", daily.Embeds[0].Title)
	assert.Contains(t, daily.Embeds[0].Description, "alice")
	require.Len(t, daily.Embeds[0].Fields, 1)
	assert.Contains(t, daily.Embeds[0].Fields[0].Value, "GOAT: alice")

	require.NoError(t, n.SendWeeklyReport(context.Background(), notifier.SampleWeekly("alice", now)))
	weekly := s.last()
	assert.Equal(t, "📆 Weekly Report", weekly.Embeds[0].Title)
	assert.Equal(t, "2026-03-08 to 2026-03-15", weekly.Embeds[0].Footer.Text)
	// two highlight fields plus the awards
	require.Len(t, weekly.Embeds[0].Fields, 3)
	assert.Equal(t, "👤 alice", weekly.Embeds[0].Fields[0].Name)
	assert.Equal(t, "✨ Awards", weekly.Embeds[0].Fields[2].Name)
}

func TestSendReports_NoChannel(t *testing.T) {
	s := &mockSession{}
	n := NewNotifier(s, Channels{Announce: "announce"}, nil, nil, zerolog.Nop())

	require.NoError(t, n.SendDailyReport(context.Background(), &report.Daily{Date: "2026-03-15"}))
	assert.Empty(t, s.sent)
}

type fakePlayers map[string]*domain.PlayerState

func (f fakePlayers) Names() []string {
	return []string{"Gland Putréfié", "alice"}
}

func (f fakePlayers) Get(name string) (*domain.PlayerState, error) {
	p, ok := f[name]
	if !ok {
		return nil, errors.New("unknown player")
	}
	return p.Clone(), nil
}

func newTestBot(t *testing.T, s Session) *Bot {
	t.Helper()
	args, err := splitter.NewSplitter(' ', splitter.DoubleQuotes, splitter.LeftRightDoubleDoubleQuotes)
	require.NoError(t, err)

	rating := 1650.27
	gland := domain.NewPlayerState("Gland Putréfié")
	gland.CurrentRank = "Tenryu"
	gland.Rating = &rating
	gland.MainCharacter = "King"
	gland.MatchHistory = []domain.MatchRecord{
		{Timestamp: 1773500000, Result: domain.ResultWin, Score: "3-1", OpponentName: "Ghost"},
		{Timestamp: 1773490000, Result: domain.ResultLoss, Score: "0-3", OpponentName: "Ghost"},
	}

	return &Bot{
		notifier:    newTestNotifier(s, nil),
		players:     fakePlayers{"Gland Putréfié": gland, "alice": domain.NewPlayerState("alice")},
		adminIDs:    []string{"admin"},
		testChannel: "test",
		loc:         time.UTC,
		now:         func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) },
		args:        args,
		logger:      zerolog.Nop(),
	}
}

func command(content, author string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "m1",
		ChannelID: "chat",
		Content:   content,
		Author:    &discordgo.User{ID: author},
	}}
}

func TestStatusCommand(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"quoted exact name", `!status "Gland Putréfié"`},
		{"unquoted words", `!status gland putrefie`},
		{"fuzzy prefix", `!status gland`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &mockSession{}
			b := newTestBot(t, s)
			b.handleMessage(s, command(tt.content, "someone"))

			msg := s.last()
			assert.Equal(t, "chat", msg.ChannelID)
			require.Len(t, msg.Embeds, 1)
			embed := msg.Embeds[0]
			assert.Equal(t, "🥊 Gland Putréfié", embed.Title)
			assert.Equal(t, "**Main character:** King", embed.Description)
			require.Len(t, embed.Fields, 4)
			assert.Equal(t, "**Tenryu**", embed.Fields[0].Value)
			assert.Equal(t, "**1650.3**", embed.Fields[1].Value)
			assert.Equal(t, "**50.0%** (2 matches)", embed.Fields[2].Value)
			assert.Contains(t, embed.Fields[3].Value, "✅ **3-1** vs Ghost")
		})
	}
}

func TestStatusCommand_Unknown(t *testing.T) {
	s := &mockSession{}
	b := newTestBot(t, s)

	b.handleMessage(s, command("!status zzzz", "someone"))
	assert.Contains(t, s.last().Content, "unknown player")

	b.handleMessage(s, command("!status", "someone"))
	assert.Contains(t, s.last().Content, "usage: !status")
}

func TestStatusCommand_EmptyPlayer(t *testing.T) {
	s := &mockSession{}
	b := newTestBot(t, s)

	b.handleMessage(s, command("!status alice", "someone"))
	embed := s.last().Embeds[0]
	assert.Equal(t, "**Unranked**", embed.Fields[0].Value)
	assert.Equal(t, "**N/A**", embed.Fields[1].Value)
	assert.Equal(t, "No matches yet.", embed.Fields[3].Value)
	assert.Nil(t, embed.Thumbnail)
}

func TestTestEventsCommand(t *testing.T) {
	s := &mockSession{}
	b := newTestBot(t, s)

	b.handleMessage(s, command("!testevents", "someone"))
	require.Len(t, s.sent, 1)
	assert.Equal(t, "this command is for admins only", s.sent[0].Content)

	s.sent = nil
	b.handleMessage(s, command("!testevents", "admin"))

	// header, 11 events, daily, weekly, footer
	require.Len(t, s.sent, 15)
	for _, m := range s.sent {
		assert.Equal(t, "test", m.ChannelID)
	}
	assert.Equal(t, "📅 Daily Report 2026-03-15", s.sent[12].Embeds[0].Title)
	assert.Equal(t, "✅ Test events done.", s.sent[14].Content)
}

func TestIgnoresNonCommands(t *testing.T) {
	s := &mockSession{}
	b := newTestBot(t, s)

	b.handleMessage(s, command("hello there", "someone"))
	b.handleMessage(s, command("!unknown", "someone"))
	assert.Empty(t, s.sent)

	b.handleMessage(s, command("!help", "someone"))
	assert.Contains(t, s.last().Content, "!status <player>")
}

func TestResolvePlayer(t *testing.T) {
	names := []string{"Gland Putréfié", "Glandalf", "alice"}

	name, ok := resolvePlayer("glandalf", names)
	require.True(t, ok)
	assert.Equal(t, "Glandalf", name)

	name, ok = resolvePlayer("ali", names)
	require.True(t, ok)
	assert.Equal(t, "alice", name)

	_, ok = resolvePlayer("bob", names)
	assert.False(t, ok)
}
