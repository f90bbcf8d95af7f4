package notifier

import (
	"context"

	"tekken-tracker/internal/domain"
	"tekken-tracker/internal/report"
)

// Notifier delivers events and reports to players. Implementations route each message to the
// channel it belongs to.
type Notifier interface {
	NotifyEvents(ctx context.Context, events []domain.PlayerEvent) error
	SendDailyReport(ctx context.Context, daily *report.Daily) error
	SendWeeklyReport(ctx context.Context, weekly *report.Weekly) error
}

// Mentions maps a tracked player to the chat id used to ping them.
type Mentions map[string]string

// Discord renders a ping for player, falling back to a bold name.
func (m Mentions) Discord(player string) string {
	if id, ok := m[player]; ok && id != "" {
		return "<@" + id + ">"
	}
	return "**" + player + "**"
}
