package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"tekken-tracker/internal/metrics"

	"github.com/rs/zerolog"
)

var errPanic = errors.New("poll cycle panicked")

// Poller runs one poll cycle and returns the newest match time seen across all players.
type Poller interface {
	Poll(ctx context.Context) (time.Time, error)
}

// Reporter runs whichever periodic reports are due at now.
type Reporter interface {
	RunDue(ctx context.Context, now time.Time) error
}

type Scheduler struct {
	policy   Policy
	poller   Poller
	reporter Reporter
	metrics  *metrics.Service
	logger   zerolog.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(policy Policy, poller Poller, reporter Reporter, m *metrics.Service, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		policy:   policy,
		poller:   poller,
		reporter: reporter,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Start launches the poll loop. The first cycle runs immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))

	s.wg.Add(1)
	go s.run()

	s.logger.Info().Msg("scheduler started")
	return nil
}

// Stop cancels the loop and waits for the running cycle to return, or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	for {
		wait := s.tick(s.ctx)

		timer := time.NewTimer(wait)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// tick runs one poll cycle plus any due reports and returns the delay before the next one.
func (s *Scheduler) tick(ctx context.Context) time.Duration {
	start := s.now()
	latest, err := s.safePoll(ctx)
	if s.metrics != nil {
		s.metrics.ObservePollCycle(s.now().Sub(start), err)
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("poll cycle failed, backing off")
	}

	if ctx.Err() != nil {
		return 0
	}

	now := s.now()
	if err := s.reporter.RunDue(ctx, now); err != nil {
		s.logger.Error().Err(err).Msg("failed to run due reports")
	}

	wait := s.policy.Interval(now, latest, err)
	if s.metrics != nil {
		s.metrics.SetNextPoll(wait)
	}
	s.logger.Debug().
		Time("latest_match", latest).
		Dur("next_poll_in", wait).
		Msg("poll cycle done")

	return wait
}

// safePoll turns a panic inside the cycle into an error so the loop keeps running.
func (s *Scheduler) safePoll(ctx context.Context) (latest time.Time, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("recovered from panic in poll cycle")
			err = errPanic
		}
	}()
	return s.poller.Poll(ctx)
}
