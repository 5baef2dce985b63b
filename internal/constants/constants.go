package constants

import "time"

const (
	TelemetryAPITimeout = 10 * time.Second
	DatabaseTimeout     = 5 * time.Second
	SearchTimeout       = 10 * time.Second
	AnalysisTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	EventBufferSize = 256
	EventListLimit  = 50
	HistoryLimit    = 20
)

const (
	TelemetryMaxConnsPerHost = 100
	TelemetryRateLimit       = 90
	TelemetryRateReset       = 60 // seconds
)
