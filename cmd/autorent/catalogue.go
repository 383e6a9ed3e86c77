package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/autorent/autorent-platform/pkg/catalogue"
	apperrors "github.com/autorent/autorent-platform/pkg/errors"
	"github.com/autorent/autorent-platform/pkg/images"
	"github.com/autorent/autorent-platform/pkg/vehicle"
)

func newCatalogueCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "catalogue",
		Aliases: []string{"cars"},
		Short:   "Browse the car catalogue",
	}
	cmd.AddCommand(newCatalogueListCmd(e), newCatalogueRefreshCmd(e), newCatalogueShowCmd(e))
	return cmd
}

func newCatalogueListCmd(e *env) *cobra.Command {
	var search, carType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cars, optionally filtered by search text and type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if carType != "" && !strings.EqualFold(carType, catalogue.AllTypes) {
				c, ok := vehicle.ParseCategory(carType)
				if !ok {
					return apperrors.Validation(fmt.Sprintf("unknown type %q, want ALL, SUV, Sport or Sedan", carType))
				}
				carType = string(c)
			} else {
				carType = catalogue.AllTypes
			}

			app, err := e.App(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := app.Catalogue.LoadOrFetch(cmd.Context())
			if err != nil {
				return err
			}

			matches := catalogue.Filter(snap, search, carType)
			if e.jsonOutput() {
				return writeJSON(e.out, matches)
			}
			if err := writeRecords(e.out, matches); err != nil {
				return err
			}
			return writeCounts(e, snap)
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Match make, model or type (case-insensitive)")
	cmd.Flags().StringVarP(&carType, "type", "t", catalogue.AllTypes, "Category: ALL, SUV, Sport or Sedan")
	return cmd
}

func writeCounts(e *env, snap catalogue.Snapshot) error {
	counts := snap.Counts()

	fmt.Fprintf(e.out, "\n%d cars", len(snap))
	for _, c := range vehicle.AllCategories() {
		fmt.Fprintf(e.out, " | %s %d", c, counts[c])
	}
	_, err := fmt.Fprintln(e.out)
	return err
}

func newCatalogueRefreshCmd(e *env) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch a fresh random batch from the car-data API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := e.App(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := app.Catalogue.Refresh(cmd.Context(), count)
			if err != nil {
				return err
			}
			if e.jsonOutput() {
				return writeJSON(e.out, snap)
			}
			return writeRecords(e.out, snap)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "Models to sample (default: configured batch size)")
	return cmd
}

func newCatalogueShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one car and add it to recently viewed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := e.App(ctx)
			if err != nil {
				return err
			}

			record, err := lookup(e, cmd, args[0])
			if err != nil {
				return err
			}
			app.Recent.Add(ctx, record)

			if e.jsonOutput() {
				return writeJSON(e.out, struct {
					vehicle.Record
					Images *images.ImageSet `json:"images"`
				}{record, images.ResolveSet(&record)})
			}
			return writeRecord(e.out, record, images.Resolve(&record))
		},
	}
}

// lookup finds id in the loaded catalogue.
func lookup(e *env, cmd *cobra.Command, id string) (vehicle.Record, error) {
	app, err := e.App(cmd.Context())
	if err != nil {
		return vehicle.Record{}, err
	}
	snap, err := app.Catalogue.LoadOrFetch(cmd.Context())
	if err != nil {
		return vehicle.Record{}, err
	}
	record, ok := snap.Lookup(id)
	if !ok {
		return vehicle.Record{}, apperrors.NotFound("car " + id)
	}
	return record, nil
}
