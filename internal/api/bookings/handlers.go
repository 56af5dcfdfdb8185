// Package bookings handles slot reservation and cancellation. Conflict and
// hours checks run inside one transaction so two players cannot secure the
// same slot.
package bookings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pitchside/pitchbook/internal/api/apiutil"
	"github.com/pitchside/pitchbook/internal/api/authz"
	"github.com/pitchside/pitchbook/internal/db"
	dbgen "github.com/pitchside/pitchbook/internal/db/generated"
	"github.com/pitchside/pitchbook/internal/email"
	"github.com/pitchside/pitchbook/internal/templates/layouts"
)

const (
	minSlot = 30 * time.Minute
	maxSlot = 3 * time.Hour
)

var (
	database    *db.DB
	queries     *dbgen.Queries
	emailSender email.EmailSender
	now         = time.Now
)

func InitHandlers(d *db.DB, sender email.EmailSender) {
	database = d
	queries = d.Queries
	emailSender = sender
}

// HandleBookingsPage lists the signed-in player's bookings.
func HandleBookingsPage(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	sess := authz.SessionFromContext(r.Context())

	bookings, err := queries.ListBookingsByPlayer(r.Context(), sess.UserID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list bookings")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	fieldNames := make(map[int64]string, len(bookings))
	for _, b := range bookings {
		if _, ok := fieldNames[b.FieldID]; ok {
			continue
		}
		field, err := queries.GetField(r.Context(), b.FieldID)
		if err == nil {
			fieldNames[b.FieldID] = field.Name
		}
	}

	component := layouts.Base("My bookings", layouts.NavFrom(sess), listComponent(bookings, fieldNames))
	if err := component.Render(r.Context(), w); err != nil {
		logger.Error().Err(err).Msg("Failed to render bookings page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// HandleCreateBooking reserves a slot. The whole check-then-insert runs in a
// transaction; an overlapping confirmed booking means 409.
func HandleCreateBooking(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	sess := authz.SessionFromContext(r.Context())

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	fieldID, err := apiutil.ParsePositiveInt64Field(r.FormValue("field_id"), "field_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	startsAt, err := apiutil.ParseSlotTime(r.FormValue("starts_at"), "starts_at")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	endsAt, err := apiutil.ParseSlotTime(r.FormValue("ends_at"), "ends_at")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := validateSlot(startsAt, endsAt); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	bookingID := uuid.New().String()
	var field dbgen.Field

	txErr := database.RunInTx(r.Context(), func(tx *db.DB) error {
		field, err = tx.Queries.GetField(r.Context(), fieldID)
		if err != nil {
			return err
		}
		if !field.Published {
			return errFieldUnavailable
		}
		if err := checkWithinHours(r.Context(), tx.Queries, fieldID, startsAt, endsAt); err != nil {
			return err
		}

		overlapping, err := tx.Queries.CountOverlappingBookings(r.Context(), dbgen.CountOverlappingBookingsParams{
			FieldID:  fieldID,
			EndsAt:   endsAt,
			StartsAt: startsAt,
		})
		if err != nil {
			return err
		}
		if overlapping > 0 {
			return errSlotTaken
		}

		return tx.Queries.CreateBooking(r.Context(), dbgen.CreateBookingParams{
			ID:       bookingID,
			FieldID:  fieldID,
			PlayerID: sess.UserID,
			StartsAt: startsAt,
			EndsAt:   endsAt,
		})
	})

	switch {
	case txErr == nil:
	case errors.Is(txErr, sql.ErrNoRows), errors.Is(txErr, errFieldUnavailable):
		http.NotFound(w, r)
		return
	case errors.Is(txErr, errSlotTaken):
		http.Error(w, "That slot is already booked", http.StatusConflict)
		return
	case errors.Is(txErr, errOutsideHours):
		http.Error(w, "The field is closed at that time", http.StatusBadRequest)
		return
	default:
		logger.Error().Err(txErr).Int64("field_id", fieldID).Msg("Failed to create booking")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	logger.Info().
		Str("booking_id", bookingID).
		Int64("field_id", fieldID).
		Str("player_id", sess.UserID).
		Msg("Booking created")

	date, timeRange := email.FormatDateTimeRange(startsAt, endsAt)
	hours := endsAt.Sub(startsAt).Hours()
	email.SendAsync(r.Context(), emailSender, sess.Email, email.BuildBookingConfirmation(email.BookingDetails{
		FieldName: field.Name,
		City:      field.City,
		Date:      date,
		TimeRange: timeRange,
		Price:     apiutil.FormatPriceCents(int64(float64(field.PriceCents) * hours)),
	}), logger)

	http.Redirect(w, r, "/bookings", http.StatusSeeOther)
}

// HandleOwnerFieldBookings lists upcoming bookings on one of the owner's
// fields.
func HandleOwnerFieldBookings(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	sess := authz.SessionFromContext(r.Context())

	fieldID, err := apiutil.ParsePositiveInt64Field(r.URL.Query().Get("field_id"), "field_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	field, err := queries.GetField(r.Context(), fieldID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		logger.Error().Err(err).Int64("field_id", fieldID).Msg("Failed to load field")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if field.OwnerID != sess.UserID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	from := now().UTC()
	list, err := queries.ListBookingsByField(r.Context(), dbgen.ListBookingsByFieldParams{
		FieldID: fieldID,
		From:    from,
		To:      from.Add(14 * 24 * time.Hour),
	})
	if err != nil {
		logger.Error().Err(err).Int64("field_id", fieldID).Msg("Failed to list field bookings")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	fieldNames := map[int64]string{fieldID: field.Name}
	component := layouts.Base(field.Name+" bookings", layouts.NavFrom(sess), listComponent(list, fieldNames))
	if err := component.Render(r.Context(), w); err != nil {
		logger.Error().Err(err).Msg("Failed to render field bookings page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// HandleCancelBooking cancels one of the player's own bookings.
func HandleCancelBooking(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	sess := authz.SessionFromContext(r.Context())

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	bookingID := r.FormValue("booking_id")
	if bookingID == "" {
		http.Error(w, "booking_id is required", http.StatusBadRequest)
		return
	}

	booking, err := queries.GetBooking(r.Context(), bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		logger.Error().Err(err).Str("booking_id", bookingID).Msg("Failed to load booking")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if booking.PlayerID != sess.UserID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if err := queries.CancelBooking(r.Context(), bookingID); err != nil {
		logger.Error().Err(err).Str("booking_id", bookingID).Msg("Failed to cancel booking")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	logger.Info().Str("booking_id", bookingID).Msg("Booking cancelled")

	if field, err := queries.GetField(r.Context(), booking.FieldID); err == nil {
		date, timeRange := email.FormatDateTimeRange(booking.StartsAt, booking.EndsAt)
		email.SendAsync(r.Context(), emailSender, sess.Email, email.BuildBookingCancellation(email.BookingDetails{
			FieldName: field.Name,
			City:      field.City,
			Date:      date,
			TimeRange: timeRange,
		}), logger)
	}

	http.Redirect(w, r, "/bookings", http.StatusSeeOther)
}

var (
	errSlotTaken        = errors.New("slot already booked")
	errOutsideHours     = errors.New("outside opening hours")
	errFieldUnavailable = errors.New("field unavailable")
)

func validateSlot(startsAt, endsAt time.Time) error {
	if !startsAt.Before(endsAt) {
		return fmt.Errorf("starts_at must be before ends_at")
	}
	if startsAt.Before(now()) {
		return fmt.Errorf("starts_at must be in the future")
	}
	duration := endsAt.Sub(startsAt)
	if duration < minSlot {
		return fmt.Errorf("bookings must be at least %d minutes", int(minSlot.Minutes()))
	}
	if duration > maxSlot {
		return fmt.Errorf("bookings may be at most %d hours", int(maxSlot.Hours()))
	}
	return nil
}

// checkWithinHours requires the whole slot to fall on one day inside the
// field's open window for that weekday. No hours row means closed.
func checkWithinHours(ctx context.Context, q *dbgen.Queries, fieldID int64, startsAt, endsAt time.Time) error {
	startDay := startsAt.UTC().Truncate(24 * time.Hour)
	endDay := endsAt.UTC().Add(-time.Nanosecond).Truncate(24 * time.Hour)
	if !startDay.Equal(endDay) {
		return errOutsideHours
	}

	hours, err := q.GetFieldHours(ctx, dbgen.GetFieldHoursParams{
		FieldID: fieldID,
		Weekday: int64(startsAt.UTC().Weekday()),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errOutsideHours
		}
		return err
	}

	startMinute := int64(startsAt.UTC().Hour()*60 + startsAt.UTC().Minute())
	endMinute := int64(endsAt.UTC().Hour()*60 + endsAt.UTC().Minute())
	if endMinute == 0 {
		endMinute = 24 * 60
	}
	if startMinute < hours.OpenMinute || endMinute > hours.CloseMinute {
		return errOutsideHours
	}
	return nil
}

func listComponent(bookings []dbgen.Booking, fieldNames map[int64]string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div class="space-y-6"><h1 class="text-2xl font-semibold text-gray-900">My bookings</h1>`); err != nil {
			return err
		}
		if _, err := io.WriteString(w, buildBookingListHTML(bookings, fieldNames)); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

func buildBookingListHTML(bookings []dbgen.Booking, fieldNames map[int64]string) string {
	if len(bookings) == 0 {
		return `<div class="rounded border border-dashed p-6 text-center text-sm text-gray-500">No bookings yet. <a href="/fields" class="text-green-700">Find a field.</a></div>`
	}

	out := `<div class="grid gap-4">`
	for _, b := range bookings {
		out += buildBookingCardHTML(b, fieldNames[b.FieldID])
	}
	return out + `</div>`
}

func buildBookingCardHTML(b dbgen.Booking, fieldName string) string {
	if fieldName == "" {
		fieldName = fmt.Sprintf("Field %d", b.FieldID)
	}
	date, timeRange := email.FormatDateTimeRange(b.StartsAt, b.EndsAt)

	cancel := ""
	if b.Status == "confirmed" && b.StartsAt.After(time.Now()) {
		cancel = fmt.Sprintf(
			`<form method="post" action="/bookings/cancel"><input type="hidden" name="booking_id" value="%s">`+
				`<button type="submit" class="text-sm text-red-600">Cancel</button></form>`,
			html.EscapeString(b.ID),
		)
	}

	return fmt.Sprintf(
		`<div class="rounded border bg-white p-4"><div class="flex items-center justify-between">`+
			`<span class="font-medium text-gray-900">%s</span><span class="text-xs uppercase text-gray-500">%s</span></div>`+
			`<p class="text-sm text-gray-500">%s · %s</p>%s</div>`,
		html.EscapeString(fieldName),
		html.EscapeString(b.Status),
		date,
		timeRange,
		cancel,
	)
}
