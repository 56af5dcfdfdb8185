package bookings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/pitchside/pitchbook/internal/api/authz"
	"github.com/pitchside/pitchbook/internal/db"
	dbgen "github.com/pitchside/pitchbook/internal/db/generated"
	"github.com/pitchside/pitchbook/internal/profiles"
	"github.com/pitchside/pitchbook/internal/session"
	"github.com/pitchside/pitchbook/internal/testutil"
)

type recordingSender struct {
	sent chan string // subjects
}

func (s *recordingSender) Send(ctx context.Context, recipient, subject, body string) error {
	s.sent <- subject
	return nil
}

func setup(t *testing.T) (*db.DB, *recordingSender) {
	t.Helper()

	database := testutil.NewTestDB(t)
	sender := &recordingSender{sent: make(chan string, 4)}
	InitHandlers(database, sender)
	return database, sender
}

// seedField creates an owner, a published field, and Wednesday hours
// 08:00-22:00.
func seedField(t *testing.T, database *db.DB) dbgen.Field {
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

	if err := database.Queries.SetFieldHours(ctx, dbgen.SetFieldHoursParams{
		FieldID:     field.ID,
		Weekday:     3, // Wednesday
		OpenMinute:  8 * 60,
		CloseMinute: 22 * 60,
	}); err != nil {
		t.Fatalf("set hours: %v", err)
	}

	return field
}

func playerSession() *session.Session {
	return &session.Session{
		UserID:        "player-1",
		Email:         "player@example.com",
		Role:          profiles.RolePlayer,
		Authenticated: true,
		Source:        session.SourceLive,
	}
}

func postAs(t *testing.T, sess *session.Session, path string, values url.Values) *http.Request {
	t.Helper()

	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r.WithContext(authz.ContextWithSession(r.Context(), sess))
}

// 2027-09-01 is a Wednesday.
var slotStart = time.Date(2027, 9, 1, 18, 0, 0, 0, time.UTC)

func bookingForm(fieldID int64, start, end time.Time) url.Values {
	return url.Values{
		"field_id":  {strconv.FormatInt(fieldID, 10)},
		"starts_at": {start.Format(time.RFC3339)},
		"ends_at":   {end.Format(time.RFC3339)},
	}
}

func TestCreateBookingSuccess(t *testing.T) {
	database, sender := setup(t)
	field := seedField(t, database)

	rec := httptest.NewRecorder()
	HandleCreateBooking(rec, postAs(t, playerSession(), "/bookings", bookingForm(field.ID, slotStart, slotStart.Add(time.Hour))))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d: %s", rec.Code, rec.Body.String())
	}

	bookings, err := database.Queries.ListBookingsByPlayer(context.Background(), "player-1")
	if err != nil {
		t.Fatalf("list bookings: %v", err)
	}
	if len(bookings) != 1 {
		t.Fatalf("expected one booking, got %d", len(bookings))
	}
	if bookings[0].Status != "confirmed" {
		t.Fatalf("expected confirmed, got %q", bookings[0].Status)
	}

	select {
	case subject := <-sender.sent:
		if !strings.Contains(subject, "confirmed") {
			t.Fatalf("unexpected email subject: %q", subject)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation email never sent")
	}
}

func TestCreateBookingConflict(t *testing.T) {
	database, _ := setup(t)
	field := seedField(t, database)

	rec := httptest.NewRecorder()
	HandleCreateBooking(rec, postAs(t, playerSession(), "/bookings", bookingForm(field.ID, slotStart, slotStart.Add(time.Hour))))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("first booking failed: %d", rec.Code)
	}

	// Overlapping slot from another player.
	other := &session.Session{UserID: "owner-1", Email: "owner@example.com", Role: profiles.RoleOwner, Authenticated: true, Source: session.SourceLive}
	rec = httptest.NewRecorder()
	HandleCreateBooking(rec, postAs(t, other, "/bookings", bookingForm(field.ID, slotStart.Add(30*time.Minute), slotStart.Add(90*time.Minute))))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestCreateBookingAdjacentSlotsAllowed(t *testing.T) {
	database, _ := setup(t)
	field := seedField(t, database)

	rec := httptest.NewRecorder()
	HandleCreateBooking(rec, postAs(t, playerSession(), "/bookings", bookingForm(field.ID, slotStart, slotStart.Add(time.Hour))))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("first booking failed: %d", rec.Code)
	}

	// Back-to-back slot sharing only the boundary instant.
	rec = httptest.NewRecorder()
	HandleCreateBooking(rec, postAs(t, playerSession(), "/bookings", bookingForm(field.ID, slotStart.Add(time.Hour), slotStart.Add(2*time.Hour))))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("adjacent slot must be allowed, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateBookingOutsideHours(t *testing.T) {
	database, _ := setup(t)
	field := seedField(t, database)

	// 23:00 is past the 22:00 close.
	late := time.Date(2027, 9, 1, 23, 0, 0, 0, time.UTC)
	rec := httptest.NewRecorder()
	HandleCreateBooking(rec, postAs(t, playerSession(), "/bookings", bookingForm(field.ID, late, late.Add(30*time.Minute))))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateBookingClosedDay(t *testing.T) {
	database, _ := setup(t)
	field := seedField(t, database)

	// Thursday has no hours row.
	thursday := time.Date(2027, 9, 2, 18, 0, 0, 0, time.UTC)
	rec := httptest.NewRecorder()
	HandleCreateBooking(rec, postAs(t, playerSession(), "/bookings", bookingForm(field.ID, thursday, thursday.Add(time.Hour))))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateBookingPastSlotRejected(t *testing.T) {
	database, _ := setup(t)
	field := seedField(t, database)

	past := time.Date(2020, 9, 2, 18, 0, 0, 0, time.UTC)
	rec := httptest.NewRecorder()
	HandleCreateBooking(rec, postAs(t, playerSession(), "/bookings", bookingForm(field.ID, past, past.Add(time.Hour))))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateBookingUnpublishedField(t *testing.T) {
	database, _ := setup(t)
	seedField(t, database)

	draft, err := database.Queries.CreateField(context.Background(), dbgen.CreateFieldParams{
		OwnerID: "owner-1",
		Name:    "Hidden Pitch",
		City:    "London",
	})
	if err != nil {
		t.Fatalf("create field: %v", err)
	}

	rec := httptest.NewRecorder()
	HandleCreateBooking(rec, postAs(t, playerSession(), "/bookings", bookingForm(draft.ID, slotStart, slotStart.Add(time.Hour))))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestOwnerFieldBookings(t *testing.T) {
	database, _ := setup(t)
	field := seedField(t, database)

	// The view covers the next two weeks, so pin the clock before the seeded
	// slot.
	now = func() time.Time { return slotStart.Add(-24 * time.Hour) }
	defer func() { now = time.Now }()

	rec := httptest.NewRecorder()
	HandleCreateBooking(rec, postAs(t, playerSession(), "/bookings", bookingForm(field.ID, slotStart, slotStart.Add(time.Hour))))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("booking failed: %d", rec.Code)
	}

	path := "/owner/fields/bookings?field_id=" + strconv.FormatInt(field.ID, 10)
	owner := &session.Session{UserID: "owner-1", Email: "owner@example.com", Role: profiles.RoleOwner, Authenticated: true, Source: session.SourceLive}

	r := httptest.NewRequest(http.MethodGet, path, nil)
	r = r.WithContext(authz.ContextWithSession(r.Context(), owner))
	rec = httptest.NewRecorder()
	HandleOwnerFieldBookings(rec, r)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Riverside Pitch") {
		t.Fatalf("page missing field name: %s", rec.Body.String())
	}

	// Another owner is rejected.
	r = httptest.NewRequest(http.MethodGet, path, nil)
	r = r.WithContext(authz.ContextWithSession(r.Context(), playerSession()))
	rec = httptest.NewRecorder()
	HandleOwnerFieldBookings(rec, r)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestCancelBooking(t *testing.T) {
	database, _ := setup(t)
	field := seedField(t, database)

	rec := httptest.NewRecorder()
	HandleCreateBooking(rec, postAs(t, playerSession(), "/bookings", bookingForm(field.ID, slotStart, slotStart.Add(time.Hour))))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("booking failed: %d", rec.Code)
	}

	bookings, _ := database.Queries.ListBookingsByPlayer(context.Background(), "player-1")
	bookingID := bookings[0].ID

	// Someone else cannot cancel it.
	other := &session.Session{UserID: "owner-1", Authenticated: true, Role: profiles.RoleOwner, Source: session.SourceLive}
	rec = httptest.NewRecorder()
	HandleCancelBooking(rec, postAs(t, other, "/bookings/cancel", url.Values{"booking_id": {bookingID}}))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	HandleCancelBooking(rec, postAs(t, playerSession(), "/bookings/cancel", url.Values{"booking_id": {bookingID}}))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}

	booking, err := database.Queries.GetBooking(context.Background(), bookingID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if booking.Status != "cancelled" {
		t.Fatalf("expected cancelled, got %q", booking.Status)
	}

	// The freed slot can be booked again.
	rec = httptest.NewRecorder()
	HandleCreateBooking(rec, postAs(t, playerSession(), "/bookings", bookingForm(field.ID, slotStart, slotStart.Add(time.Hour))))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("freed slot must be bookable, got %d", rec.Code)
	}
}
