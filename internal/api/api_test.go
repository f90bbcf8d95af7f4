package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tekken-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestParseWavu(t *testing.T) {
	profile, err := ParseWavu(readFixture(t, "wavu.html"))
	require.NoError(t, err)

	require.NotNil(t, profile.Rating)
	assert.InDelta(t, 1734.56, *profile.Rating, 0.001)

	require.Len(t, profile.Matches, 3)
	assert.Equal(t, domain.MatchRecord{
		Timestamp:       1773500000,
		Result:          domain.ResultWin,
		Score:           "3-1",
		OpponentName:    "Ghost",
		CharacterPlayed: "Jin",
		Source:          domain.SourceWavu,
	}, profile.Matches[0])
	assert.Equal(t, domain.ResultLoss, profile.Matches[1].Result)
	assert.Equal(t, "Bad Guy!", profile.Matches[1].OpponentName)
	assert.Equal(t, "Kuma", profile.Matches[1].CharacterPlayed)
	assert.Equal(t, domain.ResultUnknown, profile.Matches[2].Result)
}

func TestParseWavu_EmptyPage(t *testing.T) {
	profile, err := ParseWavu([]byte("<html><body>maintenance</body></html>"))
	require.NoError(t, err)
	assert.Nil(t, profile.Rating)
	assert.Empty(t, profile.Matches)
}

func TestParseEwgf(t *testing.T) {
	profile, err := ParseEwgf(readFixture(t, "ewgf.html"))
	require.NoError(t, err)

	assert.Equal(t, "Tenryu", profile.Rank)
	assert.Equal(t, "Jin", profile.MainCharacter)

	assert.Equal(t, map[string]domain.MatchupStat{
		"Kazuya": {Wins: 7, TotalMatches: 10, WinRate: 70},
		"Nina":   {Wins: 1, TotalMatches: 4, WinRate: 25},
	}, profile.MatchupStats)
	assert.Equal(t, map[string]float64{"attack": 82.5, "defense": 41}, profile.SkillProfile)

	require.Len(t, profile.Matches, 2)
	first := profile.Matches[0]
	assert.Equal(t, time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC).Unix(), first.Timestamp)
	assert.Equal(t, domain.ResultWin, first.Result)
	assert.Equal(t, "3-1", first.Score)
	assert.Equal(t, "Ghost", first.OpponentName)
	assert.Equal(t, "Fujin", first.OpponentRank)
	assert.Equal(t, "Nina", first.CharacterOpponent)
	assert.Equal(t, domain.SourceEwgf, first.Source)

	second := profile.Matches[1]
	assert.Equal(t, domain.ResultLoss, second.Result)
	assert.Equal(t, "2-3", second.Score)
	assert.Equal(t, "Bad Guy", second.OpponentName)
	assert.Equal(t, "Garyu", second.OpponentRank)
	assert.Equal(t, "King", second.CharacterOpponent)
}

func TestResultFromScore(t *testing.T) {
	assert.Equal(t, domain.ResultWin, resultFromScore("3-2"))
	assert.Equal(t, domain.ResultLoss, resultFromScore(" 1 - 3 "))
	assert.Equal(t, domain.ResultUnknown, resultFromScore("2-2"))
	assert.Equal(t, domain.ResultUnknown, resultFromScore("DQ"))
}

func TestBalancedObject(t *testing.T) {
	obj, ok := balancedObject(`x = {"a":{"b":1}} trailing }`, 0)
	require.True(t, ok)
	assert.Equal(t, `{"a":{"b":1}}`, obj)

	_, ok = balancedObject(`{"a":{`, 0)
	assert.False(t, ok)
}

func TestClient_FetchPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/player":
			assert.Contains(t, r.Header.Get("User-Agent"), "tekken-tracker")
			w.Write([]byte("<html>ok</html>"))
		case "/slow":
			time.Sleep(300 * time.Millisecond)
			w.Write([]byte("late"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient(zerolog.Nop())

	t.Run("ok", func(t *testing.T) {
		body, err := client.FetchPage(context.Background(), srv.URL+"/player")
		require.NoError(t, err)
		assert.Equal(t, "<html>ok</html>", string(body))
	})

	t.Run("non 200", func(t *testing.T) {
		_, err := client.FetchPage(context.Background(), srv.URL+"/missing")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnexpectedStatus))
	})

	t.Run("deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := client.FetchPage(ctx, srv.URL+"/slow")
		assert.Error(t, err)
	})
}
