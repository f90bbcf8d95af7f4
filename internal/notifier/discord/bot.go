package discord

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"tekken-tracker/internal/config"
	"tekken-tracker/internal/constants"
	"tekken-tracker/internal/domain"
	"tekken-tracker/internal/notifier"
	"tekken-tracker/internal/report"

	"github.com/bwmarrin/discordgo"
	"github.com/go-andiamo/splitter"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog"
)

// Players is the read side of the roster used by chat commands.
type Players interface {
	Names() []string
	Get(name string) (*domain.PlayerState, error)
}

// Bot owns the gateway connection and answers chat commands.
type Bot struct {
	session     *discordgo.Session
	notifier    *Notifier
	players     Players
	adminIDs    []string
	testChannel string
	loc         *time.Location
	now         func() time.Time
	args        splitter.Splitter
	logger      zerolog.Logger
}

func NewSession(cfg *config.Config) (*discordgo.Session, error) {
	se, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	se.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent
	return se, nil
}

func NewBot(session *discordgo.Session, n *Notifier, players Players, cfg *config.Config, logger zerolog.Logger) (*Bot, error) {
	args, err := splitter.NewSplitter(' ', splitter.DoubleQuotes, splitter.LeftRightDoubleDoubleQuotes)
	if err != nil {
		return nil, fmt.Errorf("failed to create argument splitter: %w", err)
	}
	return &Bot{
		session:     session,
		notifier:    n,
		players:     players,
		adminIDs:    cfg.Discord.AdminIDs,
		testChannel: cfg.Discord.TestChannelID,
		loc:         cfg.Location,
		now:         time.Now,
		args:        args,
		logger:      logger,
	}, nil
}

func (b *Bot) Start(context.Context) error {
	b.session.AddHandler(b.onMessage)
	b.logger.Info().Msg("opening discord session")
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	return nil
}

func (b *Bot) Stop(context.Context) error {
	b.logger.Info().Msg("closing discord session")
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("failed to close discord session: %w", err)
	}
	return nil
}

func (b *Bot) onMessage(s *discordgo.Session, msg *discordgo.MessageCreate) {
	if msg.Author == nil || msg.Author.Bot {
		return
	}
	if s.State != nil && s.State.User != nil && msg.Author.ID == s.State.User.ID {
		return
	}
	b.handleMessage(s, msg)
}

func (b *Bot) handleMessage(s Session, msg *discordgo.MessageCreate) {
	content := strings.TrimSpace(msg.Content)
	if !strings.HasPrefix(content, "!") {
		return
	}

	parts, err := b.args.Split(content)
	if err != nil {
		b.reply(s, msg, "could not parse command, check your quotes")
		return
	}
	args := cleanArgs(parts)
	if len(args) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.HandlerTimeout)
	defer cancel()

	logger := b.logger.With().Str("command", args[0]).Str("author", msg.Author.ID).Logger()

	switch args[0] {
	case "!status":
		b.status(s, msg, args[1:])
	case "!testevents":
		if !slices.Contains(b.adminIDs, msg.Author.ID) {
			b.reply(s, msg, "this command is for admins only")
			return
		}
		if err := b.testEvents(ctx, s, msg); err != nil {
			logger.Error().Err(err).Msg("failed to run test events")
			b.reply(s, msg, "test events failed, check logs")
		}
	case "!help":
		b.reply(s, msg, helpText)
	default:
		return
	}
	logger.Debug().Msg("command handled")
}

const helpText = "```\n" +
	"!status <player>  rank, rating and last matches of a tracked player\n" +
	"!testevents       admin only, replays every notification in the test channel\n" +
	"!help             this message\n" +
	"```"

func (b *Bot) status(s Session, msg *discordgo.MessageCreate, args []string) {
	names := b.players.Names()
	if len(args) == 0 {
		b.reply(s, msg, "usage: !status <player>. Tracked players: "+strings.Join(names, ", "))
		return
	}

	name, ok := resolvePlayer(strings.Join(args, " "), names)
	if !ok {
		b.reply(s, msg, "unknown player. Tracked players: "+strings.Join(names, ", "))
		return
	}
	p, err := b.players.Get(name)
	if err != nil {
		b.logger.Error().Err(err).Str("player", name).Msg("failed to read player")
		b.reply(s, msg, "failed to read player, check logs")
		return
	}

	send := &discordgo.MessageSend{
		Embeds:    []*discordgo.MessageEmbed{b.statusEmbed(p)},
		Reference: msg.Reference(),
	}
	if _, err := s.ChannelMessageSendComplex(msg.ChannelID, send); err != nil {
		b.logger.Warn().Err(err).Msg("failed to send status")
	}
}

func (b *Bot) statusEmbed(p *domain.PlayerState) *discordgo.MessageEmbed {
	main := p.MainCharacter
	if main == "" {
		main = "Unknown"
	}
	rank := p.CurrentRank
	if rank == "" {
		rank = "Unranked"
	}
	rating := "N/A"
	if p.Rating != nil {
		rating = fmt.Sprintf("%.1f", *p.Rating)
	}
	totals := report.Tally(p.MatchHistory)

	var recent []string
	for _, m := range p.MatchHistory[:min(len(p.MatchHistory), constants.StatusRecentMatches)] {
		icon := "❔"
		switch m.Result {
		case domain.ResultWin:
			icon = "✅"
		case domain.ResultLoss:
			icon = "❌"
		}
		recent = append(recent, fmt.Sprintf("`%s` • %s **%s** vs %s",
			m.Time().In(b.loc).Format("02/01 15:04"), icon, m.Score, m.OpponentName))
	}
	if len(recent) == 0 {
		recent = []string{"No matches yet."}
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🥊 " + p.Name,
		Description: "**Main character:** " + main,
		Color:       notifier.ColorBlurple,
		Timestamp:   b.now().UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🏆 Rank", Value: "**" + rank + "**", Inline: true},
			{Name: "📈 Rating", Value: "**" + rating + "**", Inline: true},
			{Name: "📊 Winrate", Value: fmt.Sprintf("**%.1f%%** (%d matches)", totals.WinRate, totals.Matches)},
			{Name: "📋 Last matches", Value: strings.Join(recent, "\n")},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Data: ewgf.gg & wank.wavu.wiki"},
	}
	if p.CurrentRank != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: notifier.RankIcon(p.CurrentRank)}
	}
	return embed
}

// testEvents replays every event kind and both report kinds for the first tracked player.
func (b *Bot) testEvents(ctx context.Context, s Session, msg *discordgo.MessageCreate) error {
	channel := b.testChannel
	if channel == "" {
		channel = msg.ChannelID
	}
	names := b.players.Names()
	if len(names) == 0 {
		return errors.New("no players configured")
	}
	player := names[0]
	n := b.notifier.to(channel)
	now := b.now()

	if _, err := s.ChannelMessageSend(channel, "🔹 **--- TEST EVENTS ---**"); err != nil {
		return fmt.Errorf("failed to send test header: %w", err)
	}
	if err := n.NotifyEvents(ctx, notifier.SampleEvents(player)); err != nil {
		return err
	}
	if err := n.SendDailyReport(ctx, notifier.SampleDaily(player, now)); err != nil {
		return err
	}
	if err := n.SendWeeklyReport(ctx, notifier.SampleWeekly(player, now)); err != nil {
		return err
	}
	if _, err := s.ChannelMessageSend(channel, "✅ Test events done."); err != nil {
		return fmt.Errorf("failed to send test footer: %w", err)
	}
	return nil
}

func (b *Bot) reply(s Session, msg *discordgo.MessageCreate, content string) {
	if _, err := s.ChannelMessageSend(msg.ChannelID, content); err != nil {
		b.logger.Warn().Err(err).Str("channel", msg.ChannelID).Msg("failed to send reply")
	}
}

func cleanArgs(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(strings.TrimSpace(p), `"`); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// resolvePlayer finds the tracked player a query refers to: an exact case-insensitive name wins,
// otherwise the closest fuzzy match.
func resolvePlayer(query string, names []string) (string, bool) {
	for _, name := range names {
		if strings.EqualFold(name, query) {
			return name, true
		}
	}
	ranks := fuzzy.RankFindNormalizedFold(query, names)
	if len(ranks) == 0 {
		return "", false
	}
	sort.Sort(ranks)
	return ranks[0].Target, true
}
