package main

import (
	"context"
	"os"

	"moba-mmr/internal/constants"
	"moba-mmr/internal/report"

	"github.com/spf13/cobra"
)

var eventsLimit int

var eventsCmd = &cobra.Command{
	Use:   "events <subject>",
	Short: "List stored events for a player or match, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runEvents,
}

func init() {
	eventsCmd.Flags().IntVarP(&eventsLimit, "limit", "n", constants.EventListLimit, "maximum number of events")
}

func runEvents(cmd *cobra.Command, args []string) error {
	return run(cmd, func(ctx context.Context, d deps) error {
		recs, err := d.Events.ListBySubject(ctx, args[0], eventsLimit)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(recs)
		}
		report.PrintEvents(os.Stdout, recs)
		return nil
	})
}
