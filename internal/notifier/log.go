package notifier

import (
	"context"

	"tekken-tracker/internal/domain"
	"tekken-tracker/internal/report"

	"github.com/rs/zerolog"
)

// LogNotifier writes every notification to the logger instead of a chat platform.
type LogNotifier struct {
	logger zerolog.Logger
}

var _ Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyEvents(_ context.Context, events []domain.PlayerEvent) error {
	for _, pe := range events {
		msg := EventMessage(pe.Player, pe.Event)
		n.logger.Info().
			Str("player", pe.Player).
			Str("event", string(pe.Event.Type())).
			Str("title", msg.Title).
			Msg(msg.Description)
	}
	return nil
}

func (n *LogNotifier) SendDailyReport(_ context.Context, daily *report.Daily) error {
	n.logger.Info().
		Str("date", daily.Date).
		Strs("awards", DailyAwardLines(daily)).
		Msg("daily report\n" + DailyTable(daily))
	return nil
}

func (n *LogNotifier) SendWeeklyReport(_ context.Context, weekly *report.Weekly) error {
	n.logger.Info().
		Time("from", weekly.From).
		Time("to", weekly.To).
		Strs("awards", WeeklyAwardLines(weekly)).
		Msg("weekly report\n" + WeeklyTable(weekly))
	return nil
}
