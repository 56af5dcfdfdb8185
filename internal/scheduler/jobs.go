package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pitchside/pitchbook/internal/api/apiutil"
	"github.com/pitchside/pitchbook/internal/config"
	"github.com/pitchside/pitchbook/internal/db"
	dbgen "github.com/pitchside/pitchbook/internal/db/generated"
	"github.com/pitchside/pitchbook/internal/email"
)

const (
	// How far ahead of kickoff a reminder goes out.
	reminderLeadTime = 24 * time.Hour

	// Cancelled bookings and declined friend requests older than these are
	// purged by the housekeeping job.
	cancelledBookingRetention = 90 * 24 * time.Hour
	declinedRequestRetention  = 30 * 24 * time.Hour
)

// RegisterJobs wires the recurring jobs onto the singleton scheduler.
func RegisterJobs(cfg *config.Config, database *db.DB, sender email.EmailSender) error {
	if database == nil {
		return fmt.Errorf("scheduled jobs require database")
	}

	if err := registerReminderJob(cfg.Jobs.BookingReminders, database, sender); err != nil {
		return err
	}
	return registerHousekeepingJob(cfg.Jobs.Housekeeping, database)
}

// registerReminderJob emails players a day before kickoff. The reminder_sent
// flag makes the job safe to rerun; a send failure leaves the flag clear so
// the next run retries.
func registerReminderJob(cronExpr string, database *db.DB, sender email.EmailSender) error {
	jobName := "booking_reminders"
	jobLogger := log.With().
		Str("component", "booking_reminders_job").
		Str("job_name", jobName).
		Str("cron", cronExpr).
		Logger()

	_, err := AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		if sender == nil {
			jobLogger.Debug().Msg("Reminder job skipped: email sender not configured")
			return
		}

		now := time.Now().UTC()
		bookings, err := database.Queries.ListBookingsDueReminder(ctx, dbgen.ListBookingsDueReminderParams{
			After:  now,
			Before: now.Add(reminderLeadTime),
		})
		if err != nil {
			jobLogger.Error().Err(err).Msg("Failed to load bookings for reminder job")
			return
		}

		for _, booking := range bookings {
			if err := sendBookingReminder(ctx, database.Queries, sender, booking, &jobLogger); err != nil {
				jobLogger.Error().Err(err).Str("booking_id", booking.ID).Msg("Failed to send booking reminder")
				continue
			}
			if err := database.Queries.MarkReminderSent(ctx, booking.ID); err != nil {
				jobLogger.Error().Err(err).Str("booking_id", booking.ID).Msg("Failed to mark reminder sent")
			}
		}
	}, gocron.WithSingletonMode(gocron.LimitModeWait))
	if err != nil {
		return fmt.Errorf("add booking reminder job: %w", err)
	}

	jobLogger.Info().Msg("Booking reminder job registered")
	return nil
}

func sendBookingReminder(ctx context.Context, q *dbgen.Queries, sender email.EmailSender, booking dbgen.Booking, logger *zerolog.Logger) error {
	player, err := q.GetUserByID(ctx, booking.PlayerID)
	if err != nil {
		return fmt.Errorf("load player: %w", err)
	}
	field, err := q.GetField(ctx, booking.FieldID)
	if err != nil {
		return fmt.Errorf("load field: %w", err)
	}

	date, timeRange := email.FormatDateTimeRange(booking.StartsAt, booking.EndsAt)
	hours := booking.EndsAt.Sub(booking.StartsAt).Hours()
	reminder := email.BuildBookingReminder(email.BookingDetails{
		FieldName: field.Name,
		City:      field.City,
		Date:      date,
		TimeRange: timeRange,
		Price:     apiutil.FormatPriceCents(int64(float64(field.PriceCents) * hours)),
	})

	return sender.Send(ctx, player.Email, reminder.Subject, reminder.Body)
}

// registerHousekeepingJob purges rows nothing reads anymore.
func registerHousekeepingJob(cronExpr string, database *db.DB) error {
	jobName := "housekeeping"
	jobLogger := log.With().
		Str("component", "housekeeping_job").
		Str("job_name", jobName).
		Str("cron", cronExpr).
		Logger()

	_, err := AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		now := time.Now().UTC()

		bookingsPurged, err := database.Queries.DeleteCancelledBookingsBefore(ctx, now.Add(-cancelledBookingRetention))
		if err != nil {
			jobLogger.Error().Err(err).Msg("Failed to purge cancelled bookings")
		}
		requestsPurged, err := database.Queries.DeleteDeclinedRequestsBefore(ctx, now.Add(-declinedRequestRetention))
		if err != nil {
			jobLogger.Error().Err(err).Msg("Failed to purge declined friend requests")
		}

		if bookingsPurged > 0 || requestsPurged > 0 {
			jobLogger.Info().
				Int64("bookings_purged", bookingsPurged).
				Int64("requests_purged", requestsPurged).
				Msg("Housekeeping complete")
		}
	}, gocron.WithSingletonMode(gocron.LimitModeWait))
	if err != nil {
		return fmt.Errorf("add housekeeping job: %w", err)
	}

	jobLogger.Info().Msg("Housekeeping job registered")
	return nil
}
