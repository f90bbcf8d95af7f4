package fx

import (
	"context"
	"fmt"

	"tekken-tracker/internal/api"
	"tekken-tracker/internal/config"
	"tekken-tracker/internal/constants"
	"tekken-tracker/internal/database"
	"tekken-tracker/internal/engine"
	"tekken-tracker/internal/logger"
	"tekken-tracker/internal/metrics"
	"tekken-tracker/internal/notifier"
	"tekken-tracker/internal/notifier/discord"
	"tekken-tracker/internal/notifier/slack"
	"tekken-tracker/internal/report"
	"tekken-tracker/internal/repository"
	"tekken-tracker/internal/scheduler"
	"tekken-tracker/internal/server"
	"tekken-tracker/internal/service"
	"tekken-tracker/internal/state"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// ProvideRoster restores the player states, importing a legacy cache file first when configured.
func ProvideRoster(store *state.Store, cfg *config.Config, logger zerolog.Logger) *state.Roster {
	ctx, cancel := context.WithTimeout(context.Background(), constants.DatabaseTimeout)
	defer cancel()

	if cfg.LegacyCachePath != "" {
		n, err := store.ImportLegacyCache(ctx, cfg.LegacyCachePath)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.LegacyCachePath).Msg("failed to import legacy cache")
		} else {
			logger.Info().Int("players", n).Msg("legacy cache imported")
		}
	}
	return store.Load(ctx)
}

func ProvideEngine(cfg *config.Config, logger zerolog.Logger) *engine.Engine {
	return engine.New(logger, engine.WithLocation(cfg.Location))
}

func ProvideGenerator(cfg *config.Config, logger zerolog.Logger) *report.Generator {
	return report.New(logger, report.WithLocation(cfg.Location))
}

func ProvidePolicy(cfg *config.Config) scheduler.Policy {
	return scheduler.NewPolicy(cfg.Location)
}

// ProvideNotifier picks the notifier named by NOTIFIER. The Discord one also answers chat
// commands, so its gateway connection follows the app lifecycle.
func ProvideNotifier(lc fx.Lifecycle, cfg *config.Config, roster *state.Roster, logger zerolog.Logger) (notifier.Notifier, error) {
	switch cfg.Notifier {
	case config.NotifierDiscord:
		session, err := discord.NewSession(cfg)
		if err != nil {
			return nil, err
		}
		n := discord.New(session, cfg, logger.With().Str("notifier", "discord").Logger())
		bot, err := discord.NewBot(session, n, roster, cfg, logger.With().Str("component", "discord_bot").Logger())
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStart: bot.Start, OnStop: bot.Stop})
		return n, nil
	case config.NotifierSlack:
		return slack.New(cfg, logger.With().Str("notifier", "slack").Logger()), nil
	case config.NotifierLog:
		return notifier.NewLogNotifier(logger.With().Str("notifier", "log").Logger()), nil
	}
	return nil, fmt.Errorf("unknown notifier %q", cfg.Notifier)
}

func ProvideScheduler(
	policy scheduler.Policy,
	tracker *service.TrackerService,
	reports *service.ReportService,
	m *metrics.Service,
	logger zerolog.Logger,
) *scheduler.Scheduler {
	return scheduler.New(policy, tracker, reports, m, logger.With().Str("component", "scheduler").Logger())
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	fx.Provide(func() *metrics.Service { return metrics.NewService() }),
	// repos
	fx.Provide(repository.NewStateRepository),
	fx.Provide(repository.NewRankHistoryRepository),
	// state
	fx.Provide(state.NewStore),
	fx.Provide(ProvideRoster),
	// core
	fx.Provide(ProvideEngine),
	fx.Provide(ProvideGenerator),
	fx.Provide(ProvidePolicy),
	// api client
	fx.Provide(api.NewClient),
	// notifier
	fx.Provide(ProvideNotifier),
	// svc
	fx.Provide(service.NewMatchService),
	fx.Provide(service.NewTrackerService),
	fx.Provide(service.NewReportService),
	fx.Provide(service.NewPlayerService),
	fx.Provide(ProvideScheduler),
	// server
	fx.Provide(server.NewTrackerServer),
)
