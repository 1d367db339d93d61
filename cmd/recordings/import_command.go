package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"meetup-library/pkg/domain"
	"meetup-library/pkg/libraryservice"
)

func newImportFeedCommand(ctx *commandContext) *cobra.Command {
	var maxEntries int
	cmd := &cobra.Command{
		Use:   "import-feed",
		Short: "Append new recordings from the configured channel feeds to the datasets in data.dir",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(svc *libraryservice.Service) error {
				added, err := svc.ImportFeeds(cmd.Context(), maxEntries)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, added)
				}
				for _, loc := range domain.Locations {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d new recordings\n", loc.City(), added[loc])
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&maxEntries, "max", 0, "Max new recordings per location (<=0 means no limit)")
	return cmd
}
