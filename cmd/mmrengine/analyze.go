package main

import (
	"context"
	"os"

	"moba-mmr/internal/domain"
	"moba-mmr/internal/report"

	"github.com/spf13/cobra"
)

var (
	analyzeFile    string
	analyzeMatchID string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score a finished match and settle rating changes",
	Long: `Reads a match report from a JSON file (or "-" for stdin) or fetches it from the
telemetry service, then scores every player, runs the safety checks and stores
the rating changes. A match is processed only once.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "match report JSON file")
	analyzeCmd.Flags().StringVar(&analyzeMatchID, "match-id", "", "fetch the report from the telemetry service")
	analyzeCmd.MarkFlagsMutuallyExclusive("file", "match-id")
	analyzeCmd.MarkFlagsOneRequired("file", "match-id")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	return run(cmd, func(ctx context.Context, d deps) error {
		var (
			rep *domain.MatchReport
			err error
		)
		if analyzeFile != "" {
			rep = &domain.MatchReport{}
			err = readJSON(analyzeFile, rep)
		} else {
			rep, err = d.Telemetry.GetMatch(ctx, analyzeMatchID)
			rl := d.Telemetry.GetRateLimitInfo()
			d.Logger.Debug().Int("remaining", rl.Remaining).Str("bucket", rl.Bucket).Msg("telemetry rate limit")
		}
		if err != nil {
			return err
		}

		res, err := d.Analysis.ProcessMatch(ctx, rep)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(res)
		}
		report.PrintAnalysis(os.Stdout, res)
		return nil
	})
}
