package discord

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tekken-tracker/internal/config"
	"tekken-tracker/internal/domain"
	"tekken-tracker/internal/notifier"
	"tekken-tracker/internal/report"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// Channels routes messages: rank events, everything else, and reports.
type Channels struct {
	Announce string
	Rank     string
	Report   string
}

func (c Channels) forEvent(e domain.Event) string {
	if domain.IsRankEvent(e) && c.Rank != "" {
		return c.Rank
	}
	return c.Announce
}

type Notifier struct {
	session  Session
	channels Channels
	mentions notifier.Mentions
	media    *notifier.Media
	logger   zerolog.Logger
}

var _ notifier.Notifier = (*Notifier)(nil)

func NewNotifier(session Session, channels Channels, mentions notifier.Mentions, media *notifier.Media, logger zerolog.Logger) *Notifier {
	return &Notifier{
		session:  session,
		channels: channels,
		mentions: mentions,
		media:    media,
		logger:   logger,
	}
}

// New builds the notifier from the configured channels, player ids and media directory.
func New(session *discordgo.Session, cfg *config.Config, logger zerolog.Logger) *Notifier {
	channels := Channels{
		Announce: cfg.Discord.AnnounceChannelID,
		Rank:     cfg.Discord.RankChannelID,
		Report:   cfg.Discord.ReportChannelID,
	}
	return NewNotifier(session, channels, notifier.Mentions(cfg.DiscordIDs()), notifier.NewMedia(cfg.MediaDir), logger)
}

// to returns a copy of the notifier that sends everything to one channel.
func (n *Notifier) to(channelID string) *Notifier {
	c := *n
	c.channels = Channels{Announce: channelID, Rank: channelID, Report: channelID}
	return &c
}

// NotifyEvents posts one embed per event. A failed send does not stop the rest; the errors are
// joined.
func (n *Notifier) NotifyEvents(ctx context.Context, events []domain.PlayerEvent) error {
	var errs []error
	for _, pe := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		channel := n.channels.forEvent(pe.Event)
		if channel == "" {
			n.logger.Warn().Str("event", string(pe.Event.Type())).Msg("no channel configured for event")
			continue
		}
		if err := n.sendEvent(ctx, channel, pe); err != nil {
			n.logger.Error().Err(err).
				Str("player", pe.Player).
				Str("event", string(pe.Event.Type())).
				Msg("failed to send event")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *Notifier) sendEvent(ctx context.Context, channel string, pe domain.PlayerEvent) error {
	mention := n.mentions.Discord(pe.Player)
	msg := notifier.EventMessage(mention, pe.Event)

	embed := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: msg.Description,
		Color:       msg.Color,
	}
	if msg.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: msg.Thumbnail}
	}

	// the mention goes in the content so the player is actually pinged
	send := &discordgo.MessageSend{Content: mention, Embeds: []*discordgo.MessageEmbed{embed}}

	if path, ok := n.media.Pick(pe.Event.Type()); ok {
		f, err := os.Open(path)
		if err != nil {
			n.logger.Warn().Err(err).Str("path", path).Msg("failed to open media")
		} else {
			defer f.Close()
			send.Files = []*discordgo.File{{Name: filepath.Base(path), Reader: f}}
		}
	}

	if _, err := n.session.ChannelMessageSendComplex(channel, send, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send %s: %w", pe.Event.Type(), err)
	}
	return nil
}

func (n *Notifier) SendDailyReport(ctx context.Context, daily *report.Daily) error {
	embed := &discordgo.MessageEmbed{
		Title:       "📅 Daily Report " + daily.Date,
		Description: codeBlock(notifier.DailyTable(daily)),
		Color:       notifier.ColorBlue,
	}
	if lines := notifier.DailyAwardLines(daily); len(lines) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "🏆 Awards",
			Value: strings.Join(lines, "\n"),
		})
	}
	return n.sendReport(ctx, "daily", embed)
}

func (n *Notifier) SendWeeklyReport(ctx context.Context, weekly *report.Weekly) error {
	embed := &discordgo.MessageEmbed{
		Title:       "📆 Weekly Report",
		Description: codeBlock(notifier.WeeklyTable(weekly)),
		Color:       notifier.ColorGold,
		Footer: &discordgo.MessageEmbedFooter{
			Text: weekly.From.Format(time.DateOnly) + " to " + weekly.To.Format(time.DateOnly),
		},
	}
	for _, e := range weekly.Entries {
		if h := notifier.WeeklyHighlights(e); h != "" {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "👤 " + e.Player, Value: h})
		}
	}
	if lines := notifier.WeeklyAwardLines(weekly); len(lines) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "✨ Awards",
			Value: strings.Join(lines, "\n"),
		})
	}
	return n.sendReport(ctx, "weekly", embed)
}

func (n *Notifier) sendReport(ctx context.Context, kind string, embed *discordgo.MessageEmbed) error {
	if n.channels.Report == "" {
		n.logger.Warn().Str("kind", kind).Msg("no report channel configured")
		return nil
	}
	send := &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
	if _, err := n.session.ChannelMessageSendComplex(n.channels.Report, send, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send %s report: %w", kind, err)
	}
	n.logger.Info().Str("kind", kind).Str("channel", n.channels.Report).Msg("report sent")
	return nil
}

func codeBlock(s string) string {
	return "```\n" + s + "\n```"
}
