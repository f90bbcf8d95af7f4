package service

import (
	"context"
	"time"

	"tekken-tracker/internal/domain"
	"tekken-tracker/internal/engine"
	"tekken-tracker/internal/metrics"
	"tekken-tracker/internal/notifier"
	"tekken-tracker/internal/repository"
	"tekken-tracker/internal/scheduler"
	"tekken-tracker/internal/state"

	"github.com/rs/zerolog"
)

type fetcher interface {
	FetchAll(ctx context.Context) []PlayerFetch
}

type stateSaver interface {
	Save(ctx context.Context, roster *state.Roster) error
}

type rankHistoryWriter interface {
	InsertBatch(ctx context.Context, changes []domain.RankChange) error
}

// TrackerService runs the poll cycle: fetch every player, fold the results into the roster, save
// once, then notify.
type TrackerService struct {
	fetcher  fetcher
	roster   *state.Roster
	store    stateSaver
	engine   *engine.Engine
	history  rankHistoryWriter
	notifier notifier.Notifier
	metrics  *metrics.Service
	now      func() time.Time
	logger   zerolog.Logger
}

var _ scheduler.Poller = (*TrackerService)(nil)

func NewTrackerService(
	matches *MatchService,
	roster *state.Roster,
	store *state.Store,
	eng *engine.Engine,
	history *repository.RankHistoryRepository,
	n notifier.Notifier,
	m *metrics.Service,
	logger zerolog.Logger,
) *TrackerService {
	return &TrackerService{
		fetcher:  matches,
		roster:   roster,
		store:    store,
		engine:   eng,
		history:  history,
		notifier: n,
		metrics:  m,
		now:      time.Now,
		logger:   logger,
	}
}

// Poll runs one cycle and returns the newest match time across all players. Only a failed save
// is reported as an error; fetch and notification failures are logged.
func (s *TrackerService) Poll(ctx context.Context) (time.Time, error) {
	fetches := s.fetcher.FetchAll(ctx)
	byName := make(map[string]PlayerFetch, len(fetches))
	for _, f := range fetches {
		byName[f.Name] = f
	}

	var (
		events  []domain.PlayerEvent
		changes []domain.RankChange
		latest  time.Time
		added   int
	)
	now := s.now()

	_ = s.roster.Update(func(players []*domain.PlayerState) error {
		for _, p := range players {
			if f, ok := byName[p.Name]; ok && f.Sources > 0 {
				before := len(p.SeenMatchIDs)
				for _, e := range s.engine.Ingest(p, f.Records) {
					events = append(events, domain.PlayerEvent{Player: p.Name, Event: e})
				}
				added += len(p.SeenMatchIDs) - before

				s.engine.UpdateProfile(p, f.Profile)
				for _, e := range s.engine.DetectRankEvents(p) {
					events = append(events, domain.PlayerEvent{Player: p.Name, Event: e})
					if c, ok := domain.RankChangeFor(p.Name, e, now); ok {
						changes = append(changes, c)
					}
				}
			}

			if m, ok := p.LastMatch(); ok && m.Time().After(latest) {
				latest = m.Time()
			}
		}
		return nil
	})

	if s.metrics != nil {
		s.metrics.SetTrackedPlayers(len(fetches))
		s.metrics.AddMatchesIngested(added)
		for _, pe := range events {
			s.metrics.IncEvent(string(pe.Event.Type()))
		}
	}

	saveErr := s.store.Save(ctx, s.roster)
	if saveErr != nil {
		s.logger.Error().Err(saveErr).Msg("failed to persist poll results")
	}

	if len(changes) > 0 {
		if err := s.history.InsertBatch(ctx, changes); err != nil {
			s.logger.Error().Err(err).Int("changes", len(changes)).Msg("failed to record rank history")
		}
	}

	if len(events) > 0 {
		err := s.notifier.NotifyEvents(ctx, events)
		if err != nil {
			s.logger.Error().Err(err).Int("events", len(events)).Msg("failed to deliver some events")
		}
		if s.metrics != nil {
			s.metrics.IncNotification(err == nil)
		}
	}

	s.logger.Info().
		Int("players", len(fetches)).
		Int("new_matches", added).
		Int("events", len(events)).
		Time("latest_match", latest).
		Msg("poll cycle complete")

	return latest, saveErr
}
