package main

import (
	"context"
	"os"

	"moba-mmr/internal/quality"
	"moba-mmr/internal/report"
	"moba-mmr/internal/service"

	"github.com/spf13/cobra"
)

var matchmakeFile string

var matchmakeCmd = &cobra.Command{
	Use:   "matchmake [player-id...]",
	Short: "Queue players and form matches until none clears the quality threshold",
	Long: `Queues stored players by id and/or the player profiles listed in a JSON file,
then repeatedly searches the pool for the best 5v5 split. Every match found is
stored and its players leave the pool.`,
	RunE: runMatchmake,
}

func init() {
	matchmakeCmd.Flags().StringVarP(&matchmakeFile, "file", "f", "", "JSON array of player profiles")
}

func runMatchmake(cmd *cobra.Command, args []string) error {
	if matchmakeFile == "" && len(args) == 0 {
		return cmd.Usage()
	}
	return run(cmd, func(ctx context.Context, d deps) error {
		if len(args) > 0 {
			if err := d.Matchmaking.Enqueue(ctx, args); err != nil {
				return err
			}
		}
		if matchmakeFile != "" {
			var profiles []service.PlayerProfile
			if err := readJSON(matchmakeFile, &profiles); err != nil {
				return err
			}
			if err := d.Matchmaking.EnqueueProfiles(ctx, profiles); err != nil {
				return err
			}
		}

		found, err := d.Matchmaking.Drain(ctx)
		if err != nil {
			return err
		}
		if asJSON {
			type matchJSON struct {
				ID        string         `json:"id"`
				Team1     []string       `json:"team1"`
				Team2     []string       `json:"team2"`
				Quality   quality.Result `json:"quality"`
				Evaluated int            `json:"evaluated"`
			}
			out := make([]matchJSON, len(found))
			for i, o := range found {
				out[i] = matchJSON{
					ID:        o.Match.ID,
					Team1:     o.Match.Team1.IDs(),
					Team2:     o.Match.Team2.IDs(),
					Quality:   o.Quality,
					Evaluated: o.Evaluated,
				}
			}
			return printJSON(out)
		}
		report.PrintMatches(os.Stdout, found, d.Matchmaking.PoolSize())
		return nil
	})
}
