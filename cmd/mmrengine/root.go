package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"moba-mmr/internal/api"
	"moba-mmr/internal/config"
	"moba-mmr/internal/constants"
	fxmodules "moba-mmr/internal/fx"
	"moba-mmr/internal/middleware"
	"moba-mmr/internal/repository"
	"moba-mmr/internal/service"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var (
	dbPath   string
	logLevel string
	asJSON   bool
)

var rootCmd = &cobra.Command{
	Use:   "mmrengine",
	Short: "MOBA performance scoring and matchmaking engine",
	Long: `mmrengine scores parsed match reports per role, settles rating changes with
safety checks, and forms balanced 5v5 matches from a queue of players.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite database (default from MMR_DB_PATH or mmr.db)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print results as JSON instead of tables")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(matchmakeCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(eventsCmd)
}

type deps struct {
	fx.In

	Logger      zerolog.Logger
	Analysis    *service.AnalysisService
	Matchmaking *service.MatchmakingService
	Players     *repository.PlayerRepository
	Events      *repository.EventRepository
	Telemetry   *api.TelemetryClient
}

// run builds the application graph for one command, starts it, runs fn under a
// run id and stops the graph again so buffered events reach the database.
func run(cmd *cobra.Command, fn func(ctx context.Context, d deps) error) error {
	var d deps
	app := fx.New(
		fxmodules.Module(config.Overrides{DBPath: dbPath, LogLevel: logLevel}),
		fx.NopLogger,
		fx.Invoke(func(in deps) { d = in }),
	)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(cmd.Context(), constants.ShutdownTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		if err := app.Stop(stopCtx); err != nil {
			d.Logger.Warn().Err(err).Msg("shutdown failed")
		}
	}()

	return middleware.Command(cmd.Context(), d.Logger, cmd.Name(), func(ctx context.Context, logger zerolog.Logger) error {
		d.Logger = logger
		return fn(ctx, d)
	})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readJSON(path string, v any) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
