package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autorent/autorent-platform/pkg/bootstrap"
	apperrors "github.com/autorent/autorent-platform/pkg/errors"
	"github.com/autorent/autorent-platform/pkg/selection"
	"github.com/autorent/autorent-platform/pkg/vehicle"
)

// newSelectionCmd builds list, toggle and clear for the favorites or compare set.
func newSelectionCmd(e *env, name, short string) *cobra.Command {
	collection := func(ctx context.Context) (*bootstrap.App, *selection.Collection, error) {
		app, err := e.App(ctx)
		if err != nil {
			return nil, nil, err
		}
		if name == "compare" {
			return app, app.Compare, nil
		}
		return app, app.Favorites, nil
	}

	cmd := &cobra.Command{
		Use:   name,
		Short: short,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the cars in the set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, c, err := collection(ctx)
			if err != nil {
				return err
			}
			snap, err := app.Catalogue.LoadOrFetch(ctx)
			if err != nil {
				return err
			}

			records := snap.ByIDs(c.IDs(ctx))
			if e.jsonOutput() {
				return writeJSON(e.out, records)
			}
			return writeRecords(e.out, records)
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Add the car when absent, remove it when present",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, c, err := collection(ctx)
			if err != nil {
				return err
			}
			record, err := lookup(e, cmd, args[0])
			if err != nil {
				// Ids dropped by a refresh can still be removed
				if !apperrors.IsNotFound(err) || !c.Contains(ctx, args[0]) {
					return err
				}
				record = vehicle.Record{ID: args[0], Model: args[0]}
			}

			res := c.Toggle(ctx, record.ID)
			if err := res.Err(); err != nil {
				return err
			}
			if e.jsonOutput() {
				return writeJSON(e.out, res)
			}

			verb := "Removed"
			if res.Added {
				verb = "Added"
			}
			_, err = fmt.Fprintf(e.out, "%s %s (%d in %s)\n", verb, record.Title(), res.Size, c.Name())
			return err
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every car from the set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, c, err := collection(cmd.Context())
			if err != nil {
				return err
			}
			c.Clear(cmd.Context())
			_, err = fmt.Fprintf(e.out, "Cleared %s\n", c.Name())
			return err
		},
	}

	cmd.AddCommand(list, toggle, clearCmd)
	return cmd
}

func newRecentCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show or clear recently viewed cars",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List recently viewed cars, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := e.App(cmd.Context())
			if err != nil {
				return err
			}
			viewed := app.Recent.List(cmd.Context())
			if e.jsonOutput() {
				return writeJSON(e.out, viewed)
			}
			return writeViewed(e.out, viewed)
		},
	}, &cobra.Command{
		Use:   "clear",
		Short: "Forget recently viewed cars",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := e.App(cmd.Context())
			if err != nil {
				return err
			}
			app.Recent.Clear(cmd.Context())
			_, err = fmt.Fprintln(e.out, "Cleared recently viewed")
			return err
		},
	})
	return cmd
}
