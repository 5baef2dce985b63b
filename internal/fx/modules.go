package fx

import (
	"context"
	"database/sql"

	"moba-mmr/internal/api"
	"moba-mmr/internal/config"
	"moba-mmr/internal/constants"
	"moba-mmr/internal/database"
	"moba-mmr/internal/db"
	"moba-mmr/internal/events"
	"moba-mmr/internal/logger"
	"moba-mmr/internal/matchmaker"
	"moba-mmr/internal/quality"
	"moba-mmr/internal/repository"
	"moba-mmr/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// ProvideConfig loads configuration with a bootstrap logger, since the real one
// depends on the configured level.
func ProvideConfig(ov config.Overrides) (*config.Config, error) {
	return config.Load(logger.New(ov.LogLevel), ov)
}

func ProvideLogger(cfg *config.Config) zerolog.Logger {
	return logger.New(cfg.LogLevel)
}

func ProvideDatabase(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) (*sql.DB, error) {
	sqlDB, err := database.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := sqlDB.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}
			return nil
		},
	})
	return sqlDB, nil
}

func ProvideQueries(sqlDB *sql.DB) *db.Queries {
	return db.New(sqlDB)
}

// ProvideSink logs every event and stores it off the caller's goroutine. The sink
// is registered after the database, so fx drains it before the database closes.
func ProvideSink(lc fx.Lifecycle, store *repository.EventRepository, logger zerolog.Logger) events.Sink {
	sink := events.NewAsyncSink(events.Fanout{
		events.NewLogSink(logger),
		events.NewStoreSink(store, constants.DatabaseTimeout, logger),
	}, constants.EventBufferSize)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := sink.Close(); err != nil {
				return err
			}
			if n := sink.Dropped(); n > 0 {
				logger.Warn().Int64("dropped", n).Msg("events dropped")
			}
			return nil
		},
	})
	return sink
}

func ProvideMatchmaker(cfg *config.Config) *matchmaker.Matchmaker {
	return matchmaker.New(cfg.Matchmaker, quality.NewEvaluator(cfg.Quality), matchmaker.NewPool())
}

func Module(ov config.Overrides) fx.Option {
	return fx.Options(
		fx.Supply(ov),
		fx.Provide(ProvideConfig),
		fx.Provide(ProvideLogger),
		fx.Provide(ProvideDatabase),
		fx.Provide(ProvideQueries),
		// repos
		fx.Provide(repository.NewPlayerRepository),
		fx.Provide(repository.NewPerformanceRepository),
		fx.Provide(repository.NewMatchRepository),
		fx.Provide(repository.NewEventRepository),
		fx.Provide(repository.NewResultRepository),
		// events
		fx.Provide(ProvideSink),
		// api client
		fx.Provide(api.NewTelemetryClient),
		// svc
		fx.Provide(service.NewEngine),
		fx.Provide(ProvideMatchmaker),
		fx.Provide(service.NewAnalysisService),
		fx.Provide(service.NewMatchmakingService),
	)
}
