package report

import (
	"math"
	"time"

	"tekken-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type Generator struct {
	now    func() time.Time
	loc    *time.Location
	logger zerolog.Logger
}

type Option func(*Generator)

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(g *Generator) { g.loc = loc }
}

func New(logger zerolog.Logger, opts ...Option) *Generator {
	g := &Generator{
		now:    time.Now,
		loc:    time.Local,
		logger: logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) Location() *time.Location {
	return g.loc
}

// Today is the current date in the report location, formatted YYYY-MM-DD.
func (g *Generator) Today() string {
	return g.now().In(g.loc).Format(time.DateOnly)
}

type Totals struct {
	Matches int     `json:"matches"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	WinRate float64 `json:"win_rate"`
}

// Tally counts wins and losses; UNKNOWN results only count as matches.
func Tally(matches []domain.MatchRecord) Totals {
	t := Totals{Matches: len(matches)}
	for _, m := range matches {
		switch m.Result {
		case domain.ResultWin:
			t.Wins++
		case domain.ResultLoss:
			t.Losses++
		}
	}
	t.WinRate = percent(t.Wins, t.Matches)
	return t
}

// percent returns part/total as a percentage rounded to one decimal.
func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)*1000/float64(total)) / 10
}

// pickMax returns the index of the strictly greatest value, keeping the first on ties.
// Values not above floor are never picked; -1 means nothing qualified.
func pickMax(n int, value func(i int) float64, floor float64) int {
	best := -1
	bestValue := floor
	for i := range n {
		if v := value(i); v > bestValue {
			best, bestValue = i, v
		}
	}
	return best
}

func pickMin(n int, value func(i int) float64) int {
	best := -1
	bestValue := math.Inf(1)
	for i := range n {
		if v := value(i); v < bestValue {
			best, bestValue = i, v
		}
	}
	return best
}
