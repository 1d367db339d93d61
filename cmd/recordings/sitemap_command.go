package main

import (
	"time"

	"github.com/spf13/cobra"

	"meetup-library/pkg/libraryservice"
	"meetup-library/pkg/sitemap"
)

func newSitemapCommand(ctx *commandContext) *cobra.Command {
	var baseURL string
	cmd := &cobra.Command{
		Use:   "sitemap",
		Short: "Print the sitemap of recording pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if baseURL == "" {
				baseURL = cfg.Server.BaseURL
			}
			return ctx.withService(cmd.Context(), func(svc *libraryservice.Service) error {
				all, err := svc.Store.All(cmd.Context())
				if err != nil {
					return err
				}
				return sitemap.Write(cmd.OutOrStdout(), sitemap.Build(baseURL, all, time.Now().UTC()))
			})
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Site origin (defaults to server.base_url)")
	return cmd
}
