package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"meetup-library/pkg/libraryservice"
)

// rankedList is one ranked list as the CLI prints it.
type rankedList struct {
	use, short string
	scoreCols  []string
	list       func(ctx context.Context, svc *libraryservice.Service, limit int) (any, [][]string, error)
}

func newRankCommands(ctx *commandContext) []*cobra.Command {
	lists := []rankedList{
		{
			use: "trending", short: "Show trending recordings",
			scoreCols: []string{"Likes", "Boosts", "Score"},
			list: func(c context.Context, svc *libraryservice.Service, limit int) (any, [][]string, error) {
				items, err := svc.Engine.Trending(c, limit)
				rows := make([][]string, 0, len(items))
				for _, it := range items {
					rows = append(rows, append(recordingCells(it.Recording), strconv.Itoa(it.LikeCount), strconv.Itoa(it.BoostCount), strconv.Itoa(it.TrendingScore)))
				}
				return items, rows, err
			},
		},
		{
			use: "hot", short: "Show hot picks",
			scoreCols: []string{"Likes", "Score"},
			list: func(c context.Context, svc *libraryservice.Service, limit int) (any, [][]string, error) {
				items, err := svc.Engine.Hot(c, limit)
				rows := make([][]string, 0, len(items))
				for _, it := range items {
					rows = append(rows, append(recordingCells(it.Recording), strconv.Itoa(it.LikeCount), strconv.Itoa(it.HotScore)))
				}
				return items, rows, err
			},
		},
		{
			use: "picks", short: "Show member picks",
			scoreCols: []string{"Boosts"},
			list: func(c context.Context, svc *libraryservice.Service, limit int) (any, [][]string, error) {
				items, err := svc.Engine.MemberPicks(c, limit)
				rows := make([][]string, 0, len(items))
				for _, it := range items {
					rows = append(rows, append(recordingCells(it.Recording), strconv.Itoa(it.BoostCount)))
				}
				return items, rows, err
			},
		},
		{
			use: "gems", short: "Show hidden gems",
			scoreCols: []string{"Likes", "Boosts"},
			list: func(c context.Context, svc *libraryservice.Service, limit int) (any, [][]string, error) {
				items, err := svc.Engine.HiddenGems(c, limit)
				rows := make([][]string, 0, len(items))
				for _, it := range items {
					rows = append(rows, append(recordingCells(it.Recording), strconv.Itoa(it.LikeCount), strconv.Itoa(it.BoostCount)))
				}
				return items, rows, err
			},
		},
	}

	cmds := make([]*cobra.Command, 0, len(lists))
	for _, l := range lists {
		cmds = append(cmds, newRankCommand(ctx, l))
	}
	return cmds
}

func newRankCommand(ctx *commandContext, l rankedList) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   l.use,
		Short: l.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be positive")
			}
			return ctx.withService(cmd.Context(), func(svc *libraryservice.Service) error {
				items, rows, err := l.list(cmd.Context(), svc, limit)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, items)
				}
				headers := append(append([]string{}, recordingHeaders...), l.scoreCols...)
				aligns := make([]columnAlignment, len(headers))
				for i := len(recordingHeaders); i < len(headers); i++ {
					aligns[i] = alignRight
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 8, "Number of recordings to show")
	return cmd
}
