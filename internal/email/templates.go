package email

import (
	"fmt"
	"strings"
	"time"
)

type Message struct {
	Subject string
	Body    string
}

type BookingDetails struct {
	FieldName string
	City      string
	Date      string
	TimeRange string
	Price     string
}

func FormatDateTimeRange(start, end time.Time) (string, string) {
	date := start.Format("Monday, Jan 2, 2006")
	timeRange := fmt.Sprintf("%s - %s %s", start.Format("15:04"), end.Format("15:04"), start.Format("MST"))
	return date, timeRange
}

// BuildBookingConfirmation renders the email sent right after a slot is
// secured.
func BuildBookingConfirmation(details BookingDetails) Message {
	var b strings.Builder
	b.WriteString("Your booking is confirmed.\n\n")
	writeBookingLines(&b, details)
	if details.Price != "" {
		fmt.Fprintf(&b, "Price: %s\n", details.Price)
	}
	b.WriteString("\nSee you on the pitch.\n")

	return Message{
		Subject: fmt.Sprintf("Booking confirmed: %s", fieldNameOrDefault(details)),
		Body:    b.String(),
	}
}

// BuildBookingReminder renders the day-before reminder.
func BuildBookingReminder(details BookingDetails) Message {
	var b strings.Builder
	b.WriteString("Your game is coming up.\n\n")
	writeBookingLines(&b, details)
	b.WriteString("\nIf you can no longer make it, cancel from your bookings page.\n")

	return Message{
		Subject: fmt.Sprintf("Reminder: %s tomorrow", fieldNameOrDefault(details)),
		Body:    b.String(),
	}
}

// BuildBookingCancellation renders the notice sent when a booking is
// cancelled.
func BuildBookingCancellation(details BookingDetails) Message {
	var b strings.Builder
	b.WriteString("Your booking has been cancelled.\n\n")
	writeBookingLines(&b, details)
	b.WriteString("\nThe slot is open again for other players.\n")

	return Message{
		Subject: fmt.Sprintf("Booking cancelled: %s", fieldNameOrDefault(details)),
		Body:    b.String(),
	}
}

func writeBookingLines(b *strings.Builder, details BookingDetails) {
	fmt.Fprintf(b, "Field: %s\n", fieldNameOrDefault(details))
	if details.City != "" {
		fmt.Fprintf(b, "City: %s\n", details.City)
	}
	if details.Date != "" {
		fmt.Fprintf(b, "Date: %s\n", details.Date)
	}
	if details.TimeRange != "" {
		fmt.Fprintf(b, "Time: %s\n", details.TimeRange)
	}
}

func fieldNameOrDefault(details BookingDetails) string {
	name := strings.TrimSpace(details.FieldName)
	if name == "" {
		return "your field"
	}
	return name
}
