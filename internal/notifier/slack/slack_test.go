package slack_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"tekken-tracker/internal/domain"
	"tekken-tracker/internal/notifier"
	internalslack "tekken-tracker/internal/notifier/slack"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	channel string
	blocks  slack.Blocks
}

func newSlackServer(t *testing.T, ok bool) (*httptest.Server, *[]captured) {
	t.Helper()
	var mu sync.Mutex
	var calls []captured

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		vals, _ := url.ParseQuery(string(body))

		var blocks slack.Blocks
		if raw := vals.Get("blocks"); raw != "" {
			assert.NoError(t, json.Unmarshal([]byte(raw), &blocks))
		}
		mu.Lock()
		calls = append(calls, captured{channel: vals.Get("channel"), blocks: blocks})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if !ok {
			_, _ = w.Write([]byte(`{"ok": false, "error": "channel_not_found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok": true, "channel": "C123", "ts": "12345.6789"}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newNotifier(srv *httptest.Server) *internalslack.Notifier {
	api := slack.New("test-token", slack.OptionAPIURL(srv.URL+"/"))
	return internalslack.NewWithAPI(api, "C123", zerolog.Nop())
}

func TestNotifyEvents(t *testing.T) {
	srv, calls := newSlackServer(t, true)
	n := newNotifier(srv)

	err := n.NotifyEvents(context.Background(), []domain.PlayerEvent{
		{Player: "alice", Event: domain.KingPicked{}},
		{Player: "alice", Event: domain.RankUp{From: "Garyu", To: "Shinryu"}},
	})
	require.NoError(t, err)
	require.Len(t, *calls, 2)

	first := (*calls)[0]
	assert.Equal(t, "C123", first.channel)
	require.Len(t, first.blocks.BlockSet, 2)
	header := first.blocks.BlockSet[0].(*slack.HeaderBlock)
	assert.Equal(t, "🐆 KING DETECTED 🐆", header.Text.Text)
	section := first.blocks.BlockSet[1].(*slack.SectionBlock)
	assert.Equal(t, "*alice* picked King!", section.Text.Text)

	rank := (*calls)[1].blocks.BlockSet[1].(*slack.SectionBlock)
	assert.Contains(t, rank.Text.Text, "reached *Shinryu*")
	require.NotNil(t, rank.Accessory)
	require.NotNil(t, rank.Accessory.ImageElement)
	assert.Contains(t, rank.Accessory.ImageElement.ImageURL, "ShinryuT8.webp")
}

func TestNotifyEvents_Error(t *testing.T) {
	srv, calls := newSlackServer(t, false)
	n := newNotifier(srv)

	err := n.NotifyEvents(context.Background(), notifier.SampleEvents("alice")[:2])
	require.Error(t, err)
	assert.ErrorContains(t, err, "channel_not_found")
	assert.Len(t, *calls, 2)
}

func TestSendReports(t *testing.T) {
	srv, calls := newSlackServer(t, true)
	n := newNotifier(srv)
	now := time.Date(2026, 3, 15, 23, 55, 0, 0, time.UTC)

	require.NoError(t, n.SendDailyReport(context.Background(), notifier.SampleDaily("alice", now)))
	require.NoError(t, n.SendWeeklyReport(context.Background(), notifier.SampleWeekly("alice", now)))
	require.Len(t, *calls, 2)

	daily := (*calls)[0].blocks.BlockSet
	// header, table, divider, awards
	require.Len(t, daily, 4)
	assert.Equal(t, "📅 Daily Report 2026-03-15", daily[0].(*slack.HeaderBlock).Text.Text)
	assert.Contains(t, daily[1].(*slack.SectionBlock).Text.Text, "alice")
	assert.Contains(t, daily[3].(*slack.SectionBlock).Text.Text, "GOAT: alice")

	weekly := (*calls)[1].blocks.BlockSet
	// header, range, table, two highlights, divider, awards
	require.Len(t, weekly, 7)
	assert.Contains(t, weekly[3].(*slack.SectionBlock).Text.Text, "*alice*")
	assert.Contains(t, weekly[6].(*slack.SectionBlock).Text.Text, "LOCKED IN: alice")
}
