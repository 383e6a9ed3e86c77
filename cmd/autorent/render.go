package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/autorent/autorent-platform/pkg/booking"
	"github.com/autorent/autorent-platform/pkg/selection"
	"github.com/autorent/autorent-platform/pkg/vehicle"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func yearText(year int) string {
	if year == 0 {
		return "-"
	}
	return strconv.Itoa(year)
}

func ratingOf(r vehicle.Record) float64 {
	if r.Rating > 0 {
		return r.Rating
	}
	return vehicle.Rating(r)
}

func writeRecords(w io.Writer, records []vehicle.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No cars found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCAR\tYEAR\tTYPE\tPRICE/DAY\tRATING")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t$%d\t%.1f\n",
			r.ID, r.Title(), yearText(r.Year), r.Type, r.Price, ratingOf(r))
	}
	return tw.Flush()
}

func writeRecord(w io.Writer, r vehicle.Record, image string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\t%s\n", r.ID)
	fmt.Fprintf(tw, "Car\t%s\n", r.Title())
	fmt.Fprintf(tw, "Year\t%s\n", yearText(r.Year))
	fmt.Fprintf(tw, "Type\t%s\n", r.Type.DisplayName())
	if r.Class != "" {
		fmt.Fprintf(tw, "Class\t%s\n", r.Class)
	}
	fmt.Fprintf(tw, "Transmission\t%s\n", r.TransmissionName())
	fmt.Fprintf(tw, "Fuel\t%s\n", r.FuelName())
	if r.CombinationMPG > 0 {
		fmt.Fprintf(tw, "MPG\t%d city / %d highway\n", r.CityMPG, r.HighwayMPG)
	}
	fmt.Fprintf(tw, "Price\t$%d/day\n", r.Price)
	fmt.Fprintf(tw, "Rating\t%.1f\n", ratingOf(r))
	fmt.Fprintf(tw, "Image\t%s\n", image)
	return tw.Flush()
}

func writeViewed(w io.Writer, viewed []selection.ViewedRecord) error {
	if len(viewed) == 0 {
		_, err := fmt.Fprintln(w, "No recently viewed cars.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCAR\tPRICE/DAY\tRATING\tVIEWED")
	for _, v := range viewed {
		fmt.Fprintf(tw, "%s\t%s\t$%d\t%.1f\t%s\n",
			v.ID, v.Title(), v.Price, v.Rating, v.ViewedAt.Local().Format("Jan 2 15:04"))
	}
	return tw.Flush()
}

func writeBookings(w io.Writer, bookings []booking.Booking) error {
	if len(bookings) == 0 {
		_, err := fmt.Fprintln(w, "No bookings yet.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCAR\tFROM\tTO\tDAYS\tTOTAL\tSTATUS")
	for _, b := range bookings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t$%d\t%s\n",
			b.ID, b.Car.Title(),
			b.Period.Start.Format("Jan 2"), b.Period.End.Format("Jan 2"),
			b.Period.Days, b.Price.Total, b.Status)
	}
	return tw.Flush()
}

func writeBooking(w io.Writer, b *booking.Booking) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Booking\t%s\n", b.ID)
	fmt.Fprintf(tw, "Car\t%s\n", b.Car.Title())
	fmt.Fprintf(tw, "Pickup\t%s %s\n", b.Period.Start.Format("Mon Jan 2"), b.Period.StartTime)
	fmt.Fprintf(tw, "Return\t%s %s\n", b.Period.End.Format("Mon Jan 2"), b.Period.EndTime)
	fmt.Fprintf(tw, "Location\t%s\n", b.PickupLocation)
	fmt.Fprintf(tw, "Rate\t$%d x %d days = $%d\n", b.Price.DailyRate, b.Period.Days, b.Price.Subtotal)
	fmt.Fprintf(tw, "Service fee\t$%d\n", b.Price.ServiceFee)
	fmt.Fprintf(tw, "Insurance\t$%d\n", b.Price.Insurance)
	fmt.Fprintf(tw, "Total\t$%d\n", b.Price.Total)
	fmt.Fprintf(tw, "Payment\t%s\n", b.PaymentMethod.DisplayName())
	fmt.Fprintf(tw, "Status\t%s\n", b.Status)
	return tw.Flush()
}
