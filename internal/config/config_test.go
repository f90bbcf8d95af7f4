package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const playersYAML = `players:
  - name: Gland
    wavu: https://wank.wavu.wiki/player/${GLAND_ID}
    ewgf: https://www.ewgf.gg/player/${GLAND_ID}
    discord_id: "1234"
  - name: Ghost
    ewgf: https://www.ewgf.gg/player/abc
`

func writePlayers(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "players.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadPlayers_ExpandsEnv(t *testing.T) {
	t.Setenv("GLAND_ID", "3nYdB2pEQn")

	players, err := LoadPlayers(writePlayers(t, playersYAML))
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "https://wank.wavu.wiki/player/3nYdB2pEQn", players[0].WavuURL)
	assert.Equal(t, "1234", players[0].DiscordID)
	assert.Empty(t, players[1].WavuURL)

	_, err = LoadPlayers(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read players file")
}

func TestLoad(t *testing.T) {
	t.Setenv("PLAYERS_FILE", writePlayers(t, playersYAML))
	t.Setenv("NOTIFIER", NotifierLog)
	t.Setenv("TIMEZONE", "Europe/Paris")
	t.Setenv("DISCORD_ADMIN_IDS", " 1, ,2 ")

	cfg, err := Load(zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", cfg.Location.String())
	assert.Equal(t, []string{"Gland", "Ghost"}, cfg.PlayerNames())
	assert.Equal(t, map[string]string{"Gland": "1234"}, cfg.DiscordIDs())
	assert.Equal(t, []string{"1", "2"}, cfg.Discord.AdminIDs)
	assert.Equal(t, "8080", cfg.ServerPort)

	t.Setenv("TIMEZONE", "Mars/Olympus")
	_, err = Load(zerolog.Nop())
	assert.ErrorContains(t, err, "failed to load timezone")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Notifier: NotifierLog,
			Players:  []PlayerConfig{{Name: "Gland", WavuURL: "https://wank.wavu.wiki/player/x"}},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"no players", func(c *Config) { c.Players = nil }, "at least one player"},
		{"empty name", func(c *Config) { c.Players[0].Name = " " }, "name is required"},
		{"duplicate", func(c *Config) { c.Players = append(c.Players, c.Players[0]) }, "duplicate name"},
		{"no source", func(c *Config) { c.Players[0].WavuURL = "" }, "at least one of wavu or ewgf"},
		{"discord token", func(c *Config) { c.Notifier = NotifierDiscord }, "DISCORD_TOKEN"},
		{"slack channel", func(c *Config) { c.Notifier = NotifierSlack; c.Slack.Token = "xoxb" }, "SLACK_CHANNEL_ID"},
		{"unknown notifier", func(c *Config) { c.Notifier = "pager" }, "unknown NOTIFIER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}
