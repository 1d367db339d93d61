package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"meetup-library/pkg/domain"
	"meetup-library/pkg/library"
	"meetup-library/pkg/libraryservice"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var filter library.Filter
	var location string
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Filter the library by location, tag, episode and free text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if location != "" {
				loc, err := domain.ParseLocation(location)
				if err != nil {
					return err
				}
				filter.Location = loc
			}
			filter.Tag = strings.ToLower(strings.TrimSpace(filter.Tag))
			if len(args) == 1 {
				filter.Query = args[0]
			}

			return ctx.withService(cmd.Context(), func(svc *libraryservice.Service) error {
				all, err := svc.Store.All(cmd.Context())
				if err != nil {
					return err
				}
				res := library.Search(all, filter)
				if ctx.jsonOutput() {
					return writeJSON(cmd, res)
				}

				rows := make([][]string, 0, len(res.Recordings))
				for _, r := range res.Recordings {
					rows = append(rows, recordingCells(r))
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(recordingHeaders, rows, nil))
				fmt.Fprintf(out, "%d of %d recordings", res.Total, len(all))
				if enc := filter.Encode(); enc != "" {
					fmt.Fprintf(out, " (?%s)", enc)
				}
				fmt.Fprintln(out)
				if len(res.Tags) > 0 {
					fmt.Fprintf(out, "Tags: %s\n", formatOptions(res.Tags))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&location, "location", "l", "", "prague or zlin")
	cmd.Flags().StringVarP(&filter.Tag, "tag", "t", "", "Tag to match exactly")
	cmd.Flags().StringVarP(&filter.Episode, "episode", "e", "", "Episode id, e.g. prague-34")
	return cmd
}

func formatOptions(opts []library.Option) string {
	parts := make([]string, 0, len(opts))
	for _, o := range opts {
		parts = append(parts, o.Label+" ("+strconv.Itoa(o.Count)+")")
	}
	return strings.Join(parts, ", ")
}
