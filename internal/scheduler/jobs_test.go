package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pitchside/pitchbook/internal/db"
	dbgen "github.com/pitchside/pitchbook/internal/db/generated"
	"github.com/pitchside/pitchbook/internal/profiles"
	"github.com/pitchside/pitchbook/internal/testutil"
)

type fakeSender struct {
	recipient string
	subject   string
	body      string
}

func (s *fakeSender) Send(ctx context.Context, recipient, subject, body string) error {
	s.recipient = recipient
	s.subject = subject
	s.body = body
	return nil
}

func seedBooking(t *testing.T, database *db.DB, startsAt time.Time) dbgen.Booking {
	t.Helper()
	ctx := context.Background()

	store := profiles.NewStore(database.Queries)
	if err := store.CreateProfile(ctx, "owner-1", "owner@example.com", profiles.RoleOwner); err != nil {
		t.Fatalf("create owner: %v", err)
	}
	if err := store.CreateProfile(ctx, "player-1", "player@example.com", profiles.RolePlayer); err != nil {
		t.Fatalf("create player: %v", err)
	}

	field, err := database.Queries.CreateField(ctx, dbgen.CreateFieldParams{
		OwnerID:    "owner-1",
		Name:       "Riverside Pitch",
		City:       "London",
		Surface:    "grass",
		PriceCents: 4500,
		Published:  true,
	})
	if err != nil {
		t.Fatalf("create field: %v", err)
	}

	bookingID := uuid.New().String()
	if err := database.Queries.CreateBooking(ctx, dbgen.CreateBookingParams{
		ID:       bookingID,
		FieldID:  field.ID,
		PlayerID: "player-1",
		StartsAt: startsAt,
		EndsAt:   startsAt.Add(time.Hour),
	}); err != nil {
		t.Fatalf("create booking: %v", err)
	}

	booking, err := database.Queries.GetBooking(ctx, bookingID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	return booking
}

func TestSendBookingReminder(t *testing.T) {
	database := testutil.NewTestDB(t)
	booking := seedBooking(t, database, time.Now().UTC().Add(12*time.Hour))

	sender := &fakeSender{}
	logger := zerolog.Nop()
	if err := sendBookingReminder(context.Background(), database.Queries, sender, booking, &logger); err != nil {
		t.Fatalf("send reminder: %v", err)
	}

	if sender.recipient != "player@example.com" {
		t.Fatalf("unexpected recipient: %q", sender.recipient)
	}
	if !strings.Contains(sender.body, "Riverside Pitch") {
		t.Fatalf("reminder body missing field name: %q", sender.body)
	}
}

func TestReminderWindowQuery(t *testing.T) {
	database := testutil.NewTestDB(t)
	booking := seedBooking(t, database, time.Now().UTC().Add(12*time.Hour))

	now := time.Now().UTC()
	due, err := database.Queries.ListBookingsDueReminder(context.Background(), dbgen.ListBookingsDueReminderParams{
		After:  now,
		Before: now.Add(reminderLeadTime),
	})
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(due) != 1 || due[0].ID != booking.ID {
		t.Fatalf("expected the booking to be due, got %+v", due)
	}

	if err := database.Queries.MarkReminderSent(context.Background(), booking.ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}

	due, err = database.Queries.ListBookingsDueReminder(context.Background(), dbgen.ListBookingsDueReminderParams{
		After:  now,
		Before: now.Add(reminderLeadTime),
	})
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("reminded booking must not be due again, got %+v", due)
	}
}

func TestHousekeepingQueries(t *testing.T) {
	database := testutil.NewTestDB(t)
	booking := seedBooking(t, database, time.Now().UTC().Add(-200*24*time.Hour))

	ctx := context.Background()
	if err := database.Queries.CancelBooking(ctx, booking.ID); err != nil {
		t.Fatalf("cancel booking: %v", err)
	}

	purged, err := database.Queries.DeleteCancelledBookingsBefore(ctx, time.Now().UTC().Add(-cancelledBookingRetention))
	if err != nil {
		t.Fatalf("purge bookings: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected one booking purged, got %d", purged)
	}

	// Fresh declined requests survive the cutoff.
	if err := database.Queries.CreateFriendRequest(ctx, dbgen.CreateFriendRequestParams{
		RequesterID: "player-1",
		AddresseeID: "owner-1",
	}); err != nil {
		t.Fatalf("create request: %v", err)
	}
	if err := database.Queries.SetFriendRequestStatus(ctx, dbgen.SetFriendRequestStatusParams{
		Status:      "declined",
		RequesterID: "player-1",
		AddresseeID: "owner-1",
	}); err != nil {
		t.Fatalf("decline request: %v", err)
	}

	purged, err = database.Queries.DeleteDeclinedRequestsBefore(ctx, time.Now().UTC().Add(-declinedRequestRetention))
	if err != nil {
		t.Fatalf("purge requests: %v", err)
	}
	if purged != 0 {
		t.Fatalf("fresh declined request must survive, got %d purged", purged)
	}
}
