package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"meetup-library/pkg/libraryservice"
	"meetup-library/pkg/related"
)

func newRelatedCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "related <shortId>",
		Short: "Show recordings related to a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(svc *libraryservice.Service) error {
				rec, err := svc.Store.ByShortID(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				all, err := svc.Store.All(cmd.Context())
				if err != nil {
					return err
				}
				items := svc.Resolver.Related(rec, all, limit)
				if ctx.jsonOutput() {
					return writeJSON(cmd, items)
				}
				rows := make([][]string, 0, len(items))
				for _, it := range items {
					rows = append(rows, recordingCells(it))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Related to %q\n", rec.Title)
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(recordingHeaders, rows, nil))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", related.DefaultLimit, "Number of related recordings")
	return cmd
}
