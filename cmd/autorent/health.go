package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	apperrors "github.com/autorent/autorent-platform/pkg/errors"
)

func newHealthCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check storage and external APIs",
		Long:  "Runs every health check and exits non-zero when a critical check fails.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := e.App(cmd.Context())
			if err != nil {
				return err
			}

			report := app.Health.Check(cmd.Context())
			if e.jsonOutput() {
				if err := writeJSON(e.out, report); err != nil {
					return err
				}
				return unhealthy(report.Err())
			}

			tw := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CHECK\tSTATUS\tLATENCY\tMESSAGE")
			for _, c := range report.Checks {
				fmt.Fprintf(tw, "%s\t%s\t%.1fms\t%s\n", c.Name, c.Status, c.Latency, c.Message)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "\nOverall: %s\n", report.Status)
			return unhealthy(report.Err())
		},
	}
}

func unhealthy(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(err, apperrors.CodeUnavailable, err.Error())
}
