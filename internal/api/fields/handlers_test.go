package fields

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/pitchside/pitchbook/internal/api/authz"
	"github.com/pitchside/pitchbook/internal/db"
	dbgen "github.com/pitchside/pitchbook/internal/db/generated"
	"github.com/pitchside/pitchbook/internal/profiles"
	"github.com/pitchside/pitchbook/internal/session"
	"github.com/pitchside/pitchbook/internal/testutil"
)

func setup(t *testing.T) *db.DB {
	t.Helper()

	database := testutil.NewTestDB(t)
	InitHandlers(database)

	store := profiles.NewStore(database.Queries)
	if err := store.CreateProfile(context.Background(), "owner-1", "owner@example.com", profiles.RoleOwner); err != nil {
		t.Fatalf("create owner: %v", err)
	}
	if err := store.CreateProfile(context.Background(), "owner-2", "other@example.com", profiles.RoleOwner); err != nil {
		t.Fatalf("create owner: %v", err)
	}
	return database
}

func ownerSession(userID string) *session.Session {
	return &session.Session{
		UserID:        userID,
		Email:         userID + "@example.com",
		Role:          profiles.RoleOwner,
		Authenticated: true,
		Source:        session.SourceLive,
	}
}

func postAs(t *testing.T, sess *session.Session, path string, values url.Values) *http.Request {
	t.Helper()

	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if sess != nil {
		return r.WithContext(authz.ContextWithSession(r.Context(), sess))
	}
	return r
}

func getAs(sess *session.Session, path string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	if sess != nil {
		return r.WithContext(authz.ContextWithSession(r.Context(), sess))
	}
	return r
}

func seedField(t *testing.T, database *db.DB, ownerID string, published bool) dbgen.Field {
	t.Helper()

	field, err := database.Queries.CreateField(context.Background(), dbgen.CreateFieldParams{
		OwnerID:    ownerID,
		Name:       "Riverside Pitch",
		City:       "London",
		Surface:    "grass",
		PriceCents: 4500,
		Published:  published,
	})
	if err != nil {
		t.Fatalf("create field: %v", err)
	}
	return field
}

func TestCreateField(t *testing.T) {
	database := setup(t)

	rec := httptest.NewRecorder()
	HandleCreateField(rec, postAs(t, ownerSession("owner-1"), "/owner/fields", url.Values{
		"name":        {"Northside Astro"},
		"city":        {"Leeds"},
		"surface":     {"astro"},
		"price_cents": {"3000"},
		"published":   {"on"},
	}))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("create failed: %d %s", rec.Code, rec.Body.String())
	}

	fields, err := database.Queries.ListFieldsByOwner(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("list fields: %v", err)
	}
	if len(fields) != 1 {
		t.Fatalf("expected one field, got %d", len(fields))
	}
	if !fields[0].Published || fields[0].PriceCents != 3000 {
		t.Fatalf("unexpected field: %+v", fields[0])
	}
}

func TestCreateFieldValidation(t *testing.T) {
	setup(t)

	tests := []struct {
		name   string
		values url.Values
	}{
		{"missing name", url.Values{"city": {"Leeds"}, "price_cents": {"3000"}}},
		{"missing city", url.Values{"name": {"Pitch"}, "price_cents": {"3000"}}},
		{"negative price", url.Values{"name": {"Pitch"}, "city": {"Leeds"}, "price_cents": {"-1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleCreateField(rec, postAs(t, ownerSession("owner-1"), "/owner/fields", tt.values))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestUpdateFieldScopedToOwner(t *testing.T) {
	database := setup(t)
	field := seedField(t, database, "owner-1", true)

	form := url.Values{
		"field_id":    {strconv.FormatInt(field.ID, 10)},
		"name":        {"Renamed Pitch"},
		"city":        {"London"},
		"price_cents": {"5000"},
		"published":   {"on"},
	}

	// Another owner's update matches no row and changes nothing.
	rec := httptest.NewRecorder()
	HandleUpdateField(rec, postAs(t, ownerSession("owner-2"), "/owner/fields/update", form))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("update failed: %d", rec.Code)
	}

	got, err := database.Queries.GetField(context.Background(), field.ID)
	if err != nil {
		t.Fatalf("get field: %v", err)
	}
	if got.Name != "Riverside Pitch" {
		t.Fatalf("foreign owner must not edit the field, got %q", got.Name)
	}

	rec = httptest.NewRecorder()
	HandleUpdateField(rec, postAs(t, ownerSession("owner-1"), "/owner/fields/update", form))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("update failed: %d %s", rec.Code, rec.Body.String())
	}

	got, err = database.Queries.GetField(context.Background(), field.ID)
	if err != nil {
		t.Fatalf("get field: %v", err)
	}
	if got.Name != "Renamed Pitch" || got.PriceCents != 5000 {
		t.Fatalf("update not applied: %+v", got)
	}
}

func TestSetHours(t *testing.T) {
	database := setup(t)
	field := seedField(t, database, "owner-1", true)

	rec := httptest.NewRecorder()
	HandleSetHours(rec, postAs(t, ownerSession("owner-1"), "/owner/fields/hours", url.Values{
		"field_id":   {strconv.FormatInt(field.ID, 10)},
		"weekday":    {"3"},
		"open_time":  {"08:00"},
		"close_time": {"22:00"},
	}))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("set hours failed: %d %s", rec.Code, rec.Body.String())
	}

	hours, err := database.Queries.GetFieldHours(context.Background(), dbgen.GetFieldHoursParams{
		FieldID: field.ID,
		Weekday: 3,
	})
	if err != nil {
		t.Fatalf("get hours: %v", err)
	}
	if hours.OpenMinute != 8*60 || hours.CloseMinute != 22*60 {
		t.Fatalf("unexpected hours: %+v", hours)
	}
}

func TestSetHoursRejectsInvertedWindow(t *testing.T) {
	database := setup(t)
	field := seedField(t, database, "owner-1", true)

	rec := httptest.NewRecorder()
	HandleSetHours(rec, postAs(t, ownerSession("owner-1"), "/owner/fields/hours", url.Values{
		"field_id":   {strconv.FormatInt(field.ID, 10)},
		"weekday":    {"3"},
		"open_time":  {"22:00"},
		"close_time": {"08:00"},
	}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSetHoursForeignFieldForbidden(t *testing.T) {
	database := setup(t)
	field := seedField(t, database, "owner-1", true)

	rec := httptest.NewRecorder()
	HandleSetHours(rec, postAs(t, ownerSession("owner-2"), "/owner/fields/hours", url.Values{
		"field_id":   {strconv.FormatInt(field.ID, 10)},
		"weekday":    {"3"},
		"open_time":  {"08:00"},
		"close_time": {"22:00"},
	}))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestFieldsPageFiltersByCity(t *testing.T) {
	database := setup(t)
	seedField(t, database, "owner-1", true)
	if _, err := database.Queries.CreateField(context.Background(), dbgen.CreateFieldParams{
		OwnerID:    "owner-1",
		Name:       "Canal Pitch",
		City:       "Manchester",
		Surface:    "grass",
		PriceCents: 4000,
		Published:  true,
	}); err != nil {
		t.Fatalf("create field: %v", err)
	}

	rec := httptest.NewRecorder()
	HandleFieldsPage(rec, getAs(nil, "/fields?city=Manchester"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Canal Pitch") || strings.Contains(body, "Riverside Pitch") {
		t.Fatalf("city filter not applied: %s", body)
	}
}

func TestFieldDetailHidesUnpublishedFromOthers(t *testing.T) {
	database := setup(t)
	field := seedField(t, database, "owner-1", false)
	path := "/fields/detail?field_id=" + strconv.FormatInt(field.ID, 10)

	rec := httptest.NewRecorder()
	HandleFieldDetail(rec, getAs(nil, path))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for anonymous visitor, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	HandleFieldDetail(rec, getAs(ownerSession("owner-2"), path))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for other owner, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	HandleFieldDetail(rec, getAs(ownerSession("owner-1"), path))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for the owner, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Riverside Pitch") {
		t.Fatalf("detail missing field name")
	}
}
