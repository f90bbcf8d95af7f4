package slack

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tekken-tracker/internal/config"
	"tekken-tracker/internal/constants"
	"tekken-tracker/internal/domain"
	"tekken-tracker/internal/notifier"
	"tekken-tracker/internal/report"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

// slackClient is the subset of *slack.Client used here.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Notifier posts everything to a single Slack channel.
type Notifier struct {
	api       slackClient
	channelID string
	logger    zerolog.Logger
}

var _ notifier.Notifier = (*Notifier)(nil)

func New(cfg *config.Config, logger zerolog.Logger) *Notifier {
	return NewWithAPI(slack.New(cfg.Slack.Token), cfg.Slack.ChannelID, logger)
}

func NewWithAPI(api slackClient, channelID string, logger zerolog.Logger) *Notifier {
	return &Notifier{api: api, channelID: channelID, logger: logger}
}

func (n *Notifier) post(ctx context.Context, fallback string, blocks ...slack.Block) error {
	ctx, cancel := context.WithTimeout(ctx, constants.NotifyTimeout)
	defer cancel()

	_, ts, err := n.api.PostMessageContext(ctx, n.channelID,
		slack.MsgOptionText(fallback, false),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		return fmt.Errorf("failed to post message: %w", err)
	}
	n.logger.Debug().Str("channel", n.channelID).Str("ts", ts).Msg("slack message sent")
	return nil
}

func (n *Notifier) NotifyEvents(ctx context.Context, events []domain.PlayerEvent) error {
	var errs []error
	for _, pe := range events {
		msg := notifier.EventMessage("*"+pe.Player+"*", pe.Event)
		blocks := []slack.Block{
			slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, msg.Title, true, false)),
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, toMrkdwn(msg.Description), false, false), nil, nil),
		}
		if msg.Thumbnail != "" {
			blocks[1] = slack.NewSectionBlock(
				slack.NewTextBlockObject(slack.MarkdownType, toMrkdwn(msg.Description), false, false), nil,
				slack.NewAccessory(slack.NewImageBlockElement(msg.Thumbnail, "rank icon")),
			)
		}
		if err := n.post(ctx, msg.Title, blocks...); err != nil {
			n.logger.Error().Err(err).Str("player", pe.Player).Str("event", string(pe.Event.Type())).Msg("failed to send event")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *Notifier) SendDailyReport(ctx context.Context, daily *report.Daily) error {
	title := "📅 Daily Report " + daily.Date
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, title, true, false)),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, codeBlock(notifier.DailyTable(daily)), false, false), nil, nil),
	}
	blocks = append(blocks, awardBlocks(notifier.DailyAwardLines(daily))...)
	return n.post(ctx, title, blocks...)
}

func (n *Notifier) SendWeeklyReport(ctx context.Context, weekly *report.Weekly) error {
	title := "📆 Weekly Report"
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, title, true, false)),
		slack.NewContextBlock("", slack.NewTextBlockObject(slack.MarkdownType,
			weekly.From.Format(time.DateOnly)+" to "+weekly.To.Format(time.DateOnly), false, false)),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, codeBlock(notifier.WeeklyTable(weekly)), false, false), nil, nil),
	}
	for _, e := range weekly.Entries {
		if h := notifier.WeeklyHighlights(e); h != "" {
			blocks = append(blocks, slack.NewSectionBlock(
				slack.NewTextBlockObject(slack.MarkdownType, "*"+e.Player+"*\n"+h, false, false), nil, nil))
		}
	}
	blocks = append(blocks, awardBlocks(notifier.WeeklyAwardLines(weekly))...)
	return n.post(ctx, title, blocks...)
}

func awardBlocks(lines []string) []slack.Block {
	if len(lines) == 0 {
		return nil
	}
	return []slack.Block{
		slack.NewDividerBlock(),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, "*Awards*\n"+strings.Join(lines, "\n"), false, false), nil, nil),
	}
}

// toMrkdwn converts the **bold** used by the shared messages to Slack's *bold*.
func toMrkdwn(s string) string {
	return strings.ReplaceAll(s, "**", "*")
}

func codeBlock(s string) string {
	return "```\n" + s + "\n```"
}
