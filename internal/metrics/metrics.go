package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Service struct {
	PollCycles      *prometheus.CounterVec
	PollDuration    prometheus.Histogram
	FetchFailures   *prometheus.CounterVec
	MatchesIngested prometheus.Counter
	Events          *prometheus.CounterVec
	Notifications   *prometheus.CounterVec
	Reports         *prometheus.CounterVec
	NextPoll        prometheus.Gauge
	TrackedPlayers  prometheus.Gauge
}

// NewMetricsHandler returns an http.Handler for the given Gatherer, or the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the tracker metrics with registerer, or the default registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		PollCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_poll_cycles_total",
			Help: "Poll cycles run, by outcome.",
		}, []string{"outcome"}),
		PollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_poll_cycle_duration_seconds",
			Help:    "Duration of a full poll cycle.",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_fetch_failures_total",
			Help: "Failed profile fetches, by source.",
		}, []string{"source"}),
		MatchesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_matches_ingested_total",
			Help: "New match records folded into player state.",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_events_total",
			Help: "Events derived by the engine, by type.",
		}, []string{"type"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_notifications_total",
			Help: "Notifications delivered, by status.",
		}, []string{"status"}),
		Reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_reports_total",
			Help: "Reports generated, by kind.",
		}, []string{"kind"}),
		NextPoll: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_next_poll_seconds",
			Help: "Delay chosen before the next poll cycle.",
		}),
		TrackedPlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_players",
			Help: "Number of tracked players.",
		}),
	}

	reg.MustRegister(
		s.PollCycles,
		s.PollDuration,
		s.FetchFailures,
		s.MatchesIngested,
		s.Events,
		s.Notifications,
		s.Reports,
		s.NextPoll,
		s.TrackedPlayers,
	)

	return s
}

func (s *Service) ObservePollCycle(took time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.PollCycles.WithLabelValues(outcome).Inc()
	s.PollDuration.Observe(took.Seconds())
}

func (s *Service) IncFetchFailure(source string) {
	s.FetchFailures.WithLabelValues(source).Inc()
}

func (s *Service) AddMatchesIngested(n int) {
	s.MatchesIngested.Add(float64(n))
}

func (s *Service) IncEvent(eventType string) {
	s.Events.WithLabelValues(eventType).Inc()
}

func (s *Service) IncNotification(ok bool) {
	status := "sent"
	if !ok {
		status = "failed"
	}
	s.Notifications.WithLabelValues(status).Inc()
}

func (s *Service) IncReport(kind string) {
	s.Reports.WithLabelValues(kind).Inc()
}

func (s *Service) SetNextPoll(d time.Duration) {
	s.NextPoll.Set(d.Seconds())
}

func (s *Service) SetTrackedPlayers(n int) {
	s.TrackedPlayers.Set(float64(n))
}
