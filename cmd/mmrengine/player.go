package main

import (
	"context"
	"os"

	"moba-mmr/internal/report"

	"github.com/spf13/cobra"
)

var playerCmd = &cobra.Command{
	Use:   "player <player-id>",
	Short: "Show role ratings and recent history of a player",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlayer,
}

func runPlayer(cmd *cobra.Command, args []string) error {
	return run(cmd, func(ctx context.Context, d deps) error {
		p, err := d.Players.Get(ctx, args[0])
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(map[string]any{
				"id":              p.ID,
				"name":            p.Name,
				"rating":          p.Rating(),
				"role_ratings":    p.Ratings(),
				"preferred_roles": p.PreferredRoles,
				"behavior_score":  p.BehaviorScore,
				"tilt":            p.TiltFactor(),
				"history":         p.History(),
			})
		}
		report.PrintPlayer(os.Stdout, p)
		return nil
	})
}
