package constants

import "time"

const (
	FreshnessWindow  = 30 * time.Minute
	MatchHistoryCap  = 1500
	NemesisMinFaced  = 5
	ClutchRoundTotal = 5
)

const (
	ActivityWindow    = 20 * time.Minute
	IntervalActive    = 20 * time.Second
	IntervalIdle      = 20 * time.Minute
	IntervalNight     = 1 * time.Hour
	NightStartHour    = 2
	NightEndHour      = 10
	CycleErrorBackoff = 30 * time.Minute
)

const (
	ReportHour   = 23
	ReportMinute = 55
)

const (
	ExternalAPITimeout = 20 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
	HandlerTimeout     = 5 * time.Second
	NotifyTimeout      = 10 * time.Second
)

const (
	SourceRequestsPerSecond = 2
	SourceBurst             = 4
)

const (
	DBMaxOpenConns    = 1
	DBMaxIdleConns    = 1
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	RankHistoryLimit  = 50
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	StatusRecentMatches = 5
	PlayerSuggestLimit  = 3
)
