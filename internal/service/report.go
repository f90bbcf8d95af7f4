package service

import (
	"context"
	"errors"
	"time"

	"tekken-tracker/internal/domain"
	"tekken-tracker/internal/metrics"
	"tekken-tracker/internal/notifier"
	"tekken-tracker/internal/report"
	"tekken-tracker/internal/scheduler"
	"tekken-tracker/internal/state"

	"github.com/rs/zerolog"
)

// ReportService produces the daily and weekly reports when they are due and serves previews.
type ReportService struct {
	roster    *state.Roster
	store     stateSaver
	generator *report.Generator
	policy    scheduler.Policy
	notifier  notifier.Notifier
	metrics   *metrics.Service
	now       func() time.Time
	logger    zerolog.Logger
}

var _ scheduler.Reporter = (*ReportService)(nil)

func NewReportService(
	roster *state.Roster,
	store *state.Store,
	generator *report.Generator,
	policy scheduler.Policy,
	n notifier.Notifier,
	m *metrics.Service,
	logger zerolog.Logger,
) *ReportService {
	return &ReportService{
		roster:    roster,
		store:     store,
		generator: generator,
		policy:    policy,
		notifier:  n,
		metrics:   m,
		now:       time.Now,
		logger:    logger,
	}
}

// RunDue generates and sends whichever reports are due at now. Report side effects on the
// roster are saved before sending so a crash never produces the same report twice.
func (s *ReportService) RunDue(ctx context.Context, now time.Time) error {
	var lastDaily, lastWeekly []string
	for _, p := range s.roster.Snapshot() {
		lastDaily = append(lastDaily, p.LastDailyReportDate)
		lastWeekly = append(lastWeekly, p.LastWeeklyReportDate)
	}

	var errs []error
	if s.policy.DailyDue(now, lastDaily) {
		errs = append(errs, s.runDaily(ctx, s.policy.Today(now)))
	}
	if s.policy.WeeklyDue(now, lastWeekly) {
		errs = append(errs, s.runWeekly(ctx))
	}
	return errors.Join(errs...)
}

func (s *ReportService) runDaily(ctx context.Context, date string) error {
	var daily *report.Daily
	err := s.roster.Update(func(players []*domain.PlayerState) error {
		var err error
		daily, err = s.generator.Daily(players, date)
		return err
	})
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, s.roster); err != nil {
		return err
	}

	if daily == nil {
		s.logger.Info().Str("date", date).Msg("nobody played today, no daily report")
		return nil
	}
	err = s.notifier.SendDailyReport(ctx, daily)
	s.delivered("daily", err)
	return err
}

func (s *ReportService) runWeekly(ctx context.Context) error {
	var weekly *report.Weekly
	_ = s.roster.Update(func(players []*domain.PlayerState) error {
		weekly = s.generator.Weekly(players)
		return nil
	})
	if err := s.store.Save(ctx, s.roster); err != nil {
		return err
	}

	if weekly == nil {
		s.logger.Info().Msg("nobody played this week, no weekly report")
		return nil
	}
	err := s.notifier.SendWeeklyReport(ctx, weekly)
	s.delivered("weekly", err)
	return err
}

func (s *ReportService) delivered(kind string, err error) {
	if err != nil {
		s.logger.Error().Err(err).Str("kind", kind).Msg("failed to send report")
	} else {
		s.logger.Info().Str("kind", kind).Msg("report sent")
	}
	if s.metrics != nil {
		s.metrics.IncNotification(err == nil)
		if err == nil {
			s.metrics.IncReport(kind)
		}
	}
}

// PreviewDaily builds the daily report for date (today when empty) from copies of the roster,
// leaving the live state untouched. Nobody playing yields an empty report.
func (s *ReportService) PreviewDaily(date string) (*report.Daily, error) {
	if date == "" {
		date = s.policy.Today(s.now())
	}
	daily, err := s.generator.Daily(s.roster.Snapshot(), date)
	if err != nil {
		return nil, err
	}
	if daily == nil {
		daily = &report.Daily{Date: date, Entries: []report.DailyEntry{}}
	}
	return daily, nil
}

// PreviewWeekly is PreviewDaily for the rolling seven day window ending now.
func (s *ReportService) PreviewWeekly() *report.Weekly {
	weekly := s.generator.Weekly(s.roster.Snapshot())
	if weekly == nil {
		now := s.now()
		weekly = &report.Weekly{From: now.Add(-7 * 24 * time.Hour), To: now, Entries: []report.WeeklyEntry{}}
	}
	return weekly
}
