package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"
)

const (
	NotifierDiscord = "discord"
	NotifierSlack   = "slack"
	NotifierLog     = "log"
)

type PlayerConfig struct {
	Name      string `yaml:"name"`
	WavuURL   string `yaml:"wavu"`
	EwgfURL   string `yaml:"ewgf"`
	DiscordID string `yaml:"discord_id"`
}

type DiscordConfig struct {
	Token             string
	AnnounceChannelID string
	RankChannelID     string
	ReportChannelID   string
	TestChannelID     string
	AdminIDs          []string
}

type SlackConfig struct {
	Token     string
	ChannelID string
}

type Config struct {
	DBPath          string
	PlayersFile     string
	ServerPort      string
	LogLevel        string
	Timezone        string
	Location        *time.Location
	Notifier        string
	MediaDir        string
	LegacyCachePath string
	Discord         DiscordConfig
	Slack           SlackConfig
	Players         []PlayerConfig
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBPath:          getEnv("DB_PATH", "tracker.db"),
		PlayersFile:     getEnv("PLAYERS_FILE", "players.yaml"),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Timezone:        getEnv("TIMEZONE", "Europe/Paris"),
		Notifier:        getEnv("NOTIFIER", NotifierDiscord),
		MediaDir:        getEnv("MEDIA_DIR", ""),
		LegacyCachePath: getEnv("LEGACY_CACHE_PATH", ""),
		Discord: DiscordConfig{
			Token:             getEnv("DISCORD_TOKEN", ""),
			AnnounceChannelID: getEnv("DISCORD_ANNOUNCE_CHANNEL_ID", ""),
			RankChannelID:     getEnv("DISCORD_RANK_CHANNEL_ID", ""),
			ReportChannelID:   getEnv("DISCORD_REPORT_CHANNEL_ID", ""),
			TestChannelID:     getEnv("DISCORD_TEST_CHANNEL_ID", ""),
			AdminIDs:          splitList(getEnv("DISCORD_ADMIN_IDS", "")),
		},
		Slack: SlackConfig{
			Token:     getEnv("SLACK_BOT_TOKEN", ""),
			ChannelID: getEnv("SLACK_CHANNEL_ID", ""),
		},
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	players, err := LoadPlayers(cfg.PlayersFile)
	if err != nil {
		return nil, err
	}
	cfg.Players = players

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("players_file", cfg.PlayersFile).
		Int("players", len(cfg.Players)).
		Str("server_port", cfg.ServerPort).
		Str("timezone", cfg.Timezone).
		Str("notifier", cfg.Notifier).
		Msg("configuration loaded")

	return cfg, nil
}

// LoadPlayers reads the tracked player list, expanding ${VAR} references first.
func LoadPlayers(path string) ([]PlayerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read players file: %w", err)
	}

	var file struct {
		Players []PlayerConfig `yaml:"players"`
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &file); err != nil {
		return nil, fmt.Errorf("failed to parse players file: %w", err)
	}
	return file.Players, nil
}

func (c *Config) Validate() error {
	if len(c.Players) == 0 {
		return errors.New("at least one player is required")
	}

	seen := make(map[string]struct{}, len(c.Players))
	for i, p := range c.Players {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("players[%d]: name is required", i)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("players[%d]: duplicate name %q", i, p.Name)
		}
		seen[p.Name] = struct{}{}
		if p.WavuURL == "" && p.EwgfURL == "" {
			return fmt.Errorf("players[%d]: at least one of wavu or ewgf is required", i)
		}
	}

	switch c.Notifier {
	case NotifierDiscord:
		if c.Discord.Token == "" {
			return errors.New("DISCORD_TOKEN is required when NOTIFIER=discord")
		}
	case NotifierSlack:
		if c.Slack.Token == "" || c.Slack.ChannelID == "" {
			return errors.New("SLACK_BOT_TOKEN and SLACK_CHANNEL_ID are required when NOTIFIER=slack")
		}
	case NotifierLog:
	default:
		return fmt.Errorf("unknown NOTIFIER %q", c.Notifier)
	}

	return nil
}

func (c *Config) PlayerNames() []string {
	names := make([]string, len(c.Players))
	for i, p := range c.Players {
		names[i] = p.Name
	}
	return names
}

func (c *Config) DiscordIDs() map[string]string {
	ids := make(map[string]string)
	for _, p := range c.Players {
		if p.DiscordID != "" {
			ids[p.Name] = p.DiscordID
		}
	}
	return ids
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var Module = fx.Provide(Load)
