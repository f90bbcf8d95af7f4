package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"tekken-tracker/internal/constants"
	"tekken-tracker/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var paris = mustLoad("Europe/Paris")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("CET", 3600)
	}
	return loc
}

func at(hour, minute int) time.Time {
	// 2026-03-11 is a Wednesday
	return time.Date(2026, 3, 11, hour, minute, 0, 0, paris)
}

func TestPolicy_Interval(t *testing.T) {
	p := NewPolicy(paris)

	tests := []struct {
		name   string
		now    time.Time
		latest time.Time
		err    error
		want   time.Duration
	}{
		{name: "recent match", now: at(15, 0), latest: at(14, 45), want: constants.IntervalActive},
		{name: "recent match at night", now: at(3, 0), latest: at(2, 50), want: constants.IntervalActive},
		{name: "stale match", now: at(15, 0), latest: at(14, 30), want: constants.IntervalIdle},
		{name: "no match ever", now: at(15, 0), want: constants.IntervalIdle},
		{name: "night", now: at(2, 0), latest: at(0, 0), want: constants.IntervalNight},
		{name: "night ends", now: at(10, 0), want: constants.IntervalIdle},
		{name: "error backs off", now: at(15, 0), latest: at(14, 59), err: errors.New("boom"), want: constants.CycleErrorBackoff},
		{name: "capped by report window", now: at(23, 45), want: 10 * time.Minute},
		{name: "after report trigger", now: at(23, 56), want: constants.IntervalIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Interval(tt.now, tt.latest, tt.err))
		})
	}
}

func TestPolicy_ReportsDue(t *testing.T) {
	p := NewPolicy(paris)
	sunday := time.Date(2026, 3, 15, 23, 55, 0, 0, paris)

	assert.False(t, p.DailyDue(at(23, 54), []string{""}))
	assert.True(t, p.DailyDue(at(23, 55), []string{"2026-03-11", "2026-03-10"}))
	assert.False(t, p.DailyDue(at(23, 59), []string{"2026-03-11", "2026-03-11"}))

	assert.False(t, p.WeeklyDue(at(23, 58), []string{""}))
	assert.True(t, p.WeeklyDue(sunday, []string{"2026-03-08"}))
	assert.False(t, p.WeeklyDue(sunday, []string{"2026-03-15"}))
}

type fakePoller struct {
	latest time.Time
	err    error
	panics bool
	calls  atomic.Int32
}

func (f *fakePoller) Poll(context.Context) (time.Time, error) {
	f.calls.Add(1)
	if f.panics {
		panic("boom")
	}
	return f.latest, f.err
}

type fakeReporter struct {
	calls atomic.Int32
}

func (f *fakeReporter) RunDue(context.Context, time.Time) error {
	f.calls.Add(1)
	return nil
}

func newTestScheduler(poller Poller, reporter Reporter, now time.Time) *Scheduler {
	s := New(NewPolicy(paris), poller, reporter, metrics.NewService(prometheus.NewRegistry()), zerolog.Nop())
	s.now = func() time.Time { return now }
	return s
}

func TestScheduler_Tick(t *testing.T) {
	now := at(15, 0)

	t.Run("active", func(t *testing.T) {
		reporter := &fakeReporter{}
		s := newTestScheduler(&fakePoller{latest: now.Add(-time.Minute)}, reporter, now)
		assert.Equal(t, constants.IntervalActive, s.tick(context.Background()))
		assert.Equal(t, int32(1), reporter.calls.Load())
	})

	t.Run("failed cycle", func(t *testing.T) {
		s := newTestScheduler(&fakePoller{err: errors.New("db gone")}, &fakeReporter{}, now)
		assert.Equal(t, constants.CycleErrorBackoff, s.tick(context.Background()))
	})

	t.Run("panicking cycle", func(t *testing.T) {
		s := newTestScheduler(&fakePoller{panics: true}, &fakeReporter{}, now)
		assert.Equal(t, constants.CycleErrorBackoff, s.tick(context.Background()))
	})
}

func TestScheduler_StartStop(t *testing.T) {
	poller := &fakePoller{}
	s := newTestScheduler(poller, &fakeReporter{}, at(15, 0))

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return poller.calls.Load() >= 1 }, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
