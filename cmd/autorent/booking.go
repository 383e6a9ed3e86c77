package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autorent/autorent-platform/pkg/auth"
	"github.com/autorent/autorent-platform/pkg/booking"
	apperrors "github.com/autorent/autorent-platform/pkg/errors"
)

// requireUser returns the signed-in user or an UNAUTHORIZED error.
func requireUser(ctx context.Context, s *auth.Session, action string) (*auth.User, error) {
	user := s.CurrentUser(ctx)
	if user == nil {
		return nil, apperrors.Unauthorized("Please log in to " + action)
	}
	return user, nil
}

func newBookCmd(e *env) *cobra.Command {
	var payment string

	cmd := &cobra.Command{
		Use:   "book <id>",
		Short: "Book a car with a random upcoming rental period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := e.App(ctx)
			if err != nil {
				return err
			}
			user, err := requireUser(ctx, app.Session, "book a car")
			if err != nil {
				return err
			}
			record, err := lookup(e, cmd, args[0])
			if err != nil {
				return err
			}

			b, err := app.Bookings.Create(ctx, user.ID, record, booking.PaymentMethod(payment))
			if err != nil {
				return err
			}
			if e.jsonOutput() {
				return writeJSON(e.out, b)
			}
			fmt.Fprintln(e.out, "Booking confirmed!")
			return writeBooking(e.out, b)
		},
	}

	cmd.Flags().StringVarP(&payment, "payment", "p", string(booking.PaymentCard), "Payment method: card or cash")
	return cmd
}

func newBookingsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "Show booking history and review completed trips",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every booking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := e.App(ctx)
			if err != nil {
				return err
			}

			bookings := app.Bookings.List(ctx)
			active, hasActive := app.Bookings.Active(ctx)
			if e.jsonOutput() {
				out := struct {
					Bookings   []booking.Booking `json:"bookings"`
					Active     *booking.Booking  `json:"active,omitempty"`
					TotalTrips int               `json:"total_trips"`
				}{bookings, active, app.Bookings.TotalTrips(ctx)}
				return writeJSON(e.out, out)
			}

			if err := writeBookings(e.out, bookings); err != nil {
				return err
			}
			if hasActive {
				fmt.Fprintf(e.out, "\nActive: %s %s (%s)\n", active.ID, active.Car.Title(), active.Status)
			}
			_, err = fmt.Fprintf(e.out, "Total trips: %d\n", app.Bookings.TotalTrips(ctx))
			return err
		},
	}, newReviewCmd(e))
	return cmd
}

func newReviewCmd(e *env) *cobra.Command {
	var (
		rating  int
		comment string
	)

	cmd := &cobra.Command{
		Use:   "review <booking-id>",
		Short: "Rate a trip from 1 to 5 stars and close the booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := e.App(cmd.Context())
			if err != nil {
				return err
			}
			b, err := app.Bookings.SubmitReview(cmd.Context(), args[0], rating, comment)
			if err != nil {
				return err
			}
			if e.jsonOutput() {
				return writeJSON(e.out, b)
			}
			_, err = fmt.Fprintf(e.out, "Thanks! %s rated %d/5, booking %s is %s\n",
				b.Car.Title(), b.Review.Rating, b.ID, b.Status)
			return err
		},
	}

	cmd.Flags().IntVarP(&rating, "rating", "r", 0, "Stars from 1 to 5")
	cmd.Flags().StringVarP(&comment, "comment", "c", "", "Optional comment")
	return cmd
}
