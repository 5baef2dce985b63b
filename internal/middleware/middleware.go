package middleware

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const RunIDKey contextKey = "run_id"

// RunIDEnv lets a caller (a scheduler, a CI job) pin the run id.
const RunIDEnv = "MMR_RUN_ID"

// Command wraps one CLI command. The run id is stored on ctx and on the logger
// passed to fn, and start/finish are logged with the elapsed time.
func Command(ctx context.Context, logger zerolog.Logger, name string, fn func(ctx context.Context, logger zerolog.Logger) error) error {
	start := time.Now()

	runID := os.Getenv(RunIDEnv)
	if runID == "" {
		runID = uuid.New().String()
	}

	ctx = context.WithValue(ctx, RunIDKey, runID)

	loggerWithID := logger.With().Str("run_id", runID).Str("command", name).Logger()
	ctx = loggerWithID.WithContext(ctx)

	loggerWithID.Info().Msg("command started")

	err := fn(ctx, loggerWithID)

	duration := time.Since(start)
	var event *zerolog.Event
	if err != nil {
		event = loggerWithID.Error().Err(err)
	} else {
		event = loggerWithID.Info()
	}
	event.
		Int64("duration_ms", duration.Milliseconds()).
		Dur("duration", duration).
		Msg("command completed")
	return err
}

func GetRunID(ctx context.Context) string {
	if id, ok := ctx.Value(RunIDKey).(string); ok {
		return id
	}
	return ""
}
