package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"meetup-library/pkg/checkin"
)

func newCheckInCommand(ctx *commandContext) *cobra.Command {
	var apiURL, eventID, token string
	cmd := &cobra.Command{
		Use:   "checkin [payload...]",
		Short: "Check attendees in from scanned QR payloads (reads stdin lines when no payload is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if apiURL == "" {
				apiURL = cfg.CheckIn.APIURL
			}
			if eventID == "" {
				eventID = cfg.CheckIn.EventID
			}
			if token == "" {
				token = cfg.CheckIn.AuthToken
			}
			if apiURL == "" || eventID == "" {
				return errors.New("check-in needs an API URL and an event id (--api, --event or checkin.* config)")
			}

			reader := checkin.NewReader(checkin.NewClient(apiURL, token), eventID,
				checkin.WithLogger(ctx.logger("checkin")))

			payloads := args
			if len(payloads) == 0 {
				sc := bufio.NewScanner(cmd.InOrStdin())
				for sc.Scan() {
					if line := strings.TrimSpace(sc.Text()); line != "" {
						payloads = append(payloads, line)
					}
				}
				if err := sc.Err(); err != nil {
					return fmt.Errorf("read payloads: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, p := range payloads {
				res, err := reader.Scan(cmd.Context(), p)
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %v\n", checkin.FailureOf(err), err)
					continue
				}
				name := res.Name
				if name == "" {
					name = res.PublicID
				}
				fmt.Fprintf(out, "OK   %s: %s\n", res.Outcome, name)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scans failed", failed, len(payloads))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&apiURL, "api", "", "Site API origin (defaults to checkin.api_url)")
	cmd.Flags().StringVar(&eventID, "event", "", "Event id (defaults to checkin.event_id)")
	cmd.Flags().StringVar(&token, "token", "", "Organizer bearer token (defaults to checkin.auth_token)")
	return cmd
}
