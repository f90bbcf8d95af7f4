package scheduler

import (
	"slices"
	"time"

	"tekken-tracker/internal/constants"
)

// Policy decides how long to wait between poll cycles and when reports are due.
// All wall-clock rules are evaluated in loc.
type Policy struct {
	loc *time.Location
}

func NewPolicy(loc *time.Location) Policy {
	if loc == nil {
		loc = time.Local
	}
	return Policy{loc: loc}
}

// Interval returns the delay before the next cycle. latest is the newest match seen across all
// players (zero when unknown) and cycleErr the error of the cycle that just ran.
func (p Policy) Interval(now, latest time.Time, cycleErr error) time.Duration {
	var d time.Duration
	switch {
	case cycleErr != nil:
		d = constants.CycleErrorBackoff
	case !latest.IsZero() && now.Sub(latest) < constants.ActivityWindow:
		d = constants.IntervalActive
	case p.isNight(now):
		d = constants.IntervalNight
	default:
		d = constants.IntervalIdle
	}

	// never sleep through the report window
	if until := p.UntilReportWindow(now); until > 0 && until < d {
		d = until
	}
	return d
}

func (p Policy) isNight(now time.Time) bool {
	h := now.In(p.loc).Hour()
	return h >= constants.NightStartHour && h < constants.NightEndHour
}

// InReportWindow reports whether now is between the report trigger time and midnight.
func (p Policy) InReportWindow(now time.Time) bool {
	local := now.In(p.loc)
	return local.Hour() == constants.ReportHour && local.Minute() >= constants.ReportMinute
}

// UntilReportWindow is the time left until today's report trigger, or 0 once it has passed.
func (p Policy) UntilReportWindow(now time.Time) time.Duration {
	local := now.In(p.loc)
	trigger := time.Date(local.Year(), local.Month(), local.Day(), constants.ReportHour, constants.ReportMinute, 0, 0, p.loc)
	if !local.Before(trigger) {
		return 0
	}
	return trigger.Sub(local)
}

func (p Policy) Today(now time.Time) string {
	return now.In(p.loc).Format(time.DateOnly)
}

// DailyDue reports whether the daily report should run now given each player's last daily report date.
func (p Policy) DailyDue(now time.Time, lastReported []string) bool {
	if !p.InReportWindow(now) {
		return false
	}
	return slices.ContainsFunc(lastReported, notEqual(p.Today(now)))
}

// WeeklyDue is DailyDue for the Sunday weekly report.
func (p Policy) WeeklyDue(now time.Time, lastReported []string) bool {
	if now.In(p.loc).Weekday() != time.Sunday || !p.InReportWindow(now) {
		return false
	}
	return slices.ContainsFunc(lastReported, notEqual(p.Today(now)))
}

func notEqual(today string) func(string) bool {
	return func(s string) bool { return s != today }
}
