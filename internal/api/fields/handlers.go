// Package fields serves the public field catalog and the owner console.
package fields

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/rs/zerolog/log"

	"github.com/pitchside/pitchbook/internal/api/apiutil"
	"github.com/pitchside/pitchbook/internal/api/authz"
	"github.com/pitchside/pitchbook/internal/db"
	dbgen "github.com/pitchside/pitchbook/internal/db/generated"
	"github.com/pitchside/pitchbook/internal/templates/layouts"
)

var queries *dbgen.Queries

func InitHandlers(d *db.DB) {
	queries = d.Queries
}

// HandleFieldsPage lists published fields, optionally filtered by city.
func HandleFieldsPage(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	city := strings.TrimSpace(r.URL.Query().Get("city"))
	fields, err := queries.ListPublishedFields(r.Context(), city)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list fields")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	sess := authz.SessionFromContext(r.Context())
	component := layouts.Base("Fields", layouts.NavFrom(sess), catalogComponent(city, fields))
	if err := component.Render(r.Context(), w); err != nil {
		logger.Error().Err(err).Msg("Failed to render fields page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// HandleFieldDetail shows one field with its weekly hours and booking form.
func HandleFieldDetail(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

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

	sess := authz.SessionFromContext(r.Context())
	// Unpublished fields are only visible to their owner.
	if !field.Published && (sess == nil || sess.UserID != field.OwnerID) {
		http.NotFound(w, r)
		return
	}

	hours, err := queries.ListFieldHours(r.Context(), fieldID)
	if err != nil {
		logger.Error().Err(err).Int64("field_id", fieldID).Msg("Failed to load field hours")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	component := layouts.Base(field.Name, layouts.NavFrom(sess), detailComponent(field, hours, sess != nil))
	if err := component.Render(r.Context(), w); err != nil {
		logger.Error().Err(err).Msg("Failed to render field detail")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// HandleOwnerFieldsPage lists the signed-in owner's fields.
func HandleOwnerFieldsPage(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	sess := authz.SessionFromContext(r.Context())

	fields, err := queries.ListFieldsByOwner(r.Context(), sess.UserID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list owner fields")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	component := layouts.Base("My fields", layouts.NavFrom(sess), ownerConsoleComponent(fields))
	if err := component.Render(r.Context(), w); err != nil {
		logger.Error().Err(err).Msg("Failed to render owner console")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// HandleCreateField registers a new field for the signed-in owner.
func HandleCreateField(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	sess := authz.SessionFromContext(r.Context())

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	city := strings.TrimSpace(r.FormValue("city"))
	surface := strings.TrimSpace(r.FormValue("surface"))
	if name == "" || city == "" {
		http.Error(w, "Name and city are required", http.StatusBadRequest)
		return
	}
	priceCents, err := apiutil.ParseNonNegativeInt64Field(r.FormValue("price_cents"), "price_cents")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	field, err := queries.CreateField(r.Context(), dbgen.CreateFieldParams{
		OwnerID:    sess.UserID,
		Name:       name,
		City:       city,
		Surface:    surface,
		PriceCents: priceCents,
		Published:  r.FormValue("published") == "on",
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create field")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	logger.Info().Int64("field_id", field.ID).Str("owner_id", sess.UserID).Msg("Field created")
	http.Redirect(w, r, "/owner/fields", http.StatusSeeOther)
}

// HandleUpdateField edits a field. Ownership is enforced in the update
// statement itself.
func HandleUpdateField(w http.ResponseWriter, r *http.Request) {
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
	name := strings.TrimSpace(r.FormValue("name"))
	city := strings.TrimSpace(r.FormValue("city"))
	if name == "" || city == "" {
		http.Error(w, "Name and city are required", http.StatusBadRequest)
		return
	}
	priceCents, err := apiutil.ParseNonNegativeInt64Field(r.FormValue("price_cents"), "price_cents")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := queries.UpdateField(r.Context(), dbgen.UpdateFieldParams{
		Name:       name,
		City:       city,
		Surface:    strings.TrimSpace(r.FormValue("surface")),
		PriceCents: priceCents,
		Published:  r.FormValue("published") == "on",
		ID:         fieldID,
		OwnerID:    sess.UserID,
	}); err != nil {
		logger.Error().Err(err).Int64("field_id", fieldID).Msg("Failed to update field")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/owner/fields", http.StatusSeeOther)
}

// HandleSetHours sets the open window for one weekday.
func HandleSetHours(w http.ResponseWriter, r *http.Request) {
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
	weekday, err := apiutil.ParseNonNegativeInt64Field(r.FormValue("weekday"), "weekday")
	if err != nil || weekday > 6 {
		http.Error(w, "weekday must be 0 (Sunday) through 6", http.StatusBadRequest)
		return
	}
	openMinute, err := apiutil.ParseClockMinutes(r.FormValue("open_time"), "open_time")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	closeMinute, err := apiutil.ParseClockMinutes(r.FormValue("close_time"), "close_time")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if openMinute >= closeMinute {
		http.Error(w, "open_time must be before close_time", http.StatusBadRequest)
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

	if err := queries.SetFieldHours(r.Context(), dbgen.SetFieldHoursParams{
		FieldID:     fieldID,
		Weekday:     weekday,
		OpenMinute:  openMinute,
		CloseMinute: closeMinute,
	}); err != nil {
		logger.Error().Err(err).Int64("field_id", fieldID).Msg("Failed to set field hours")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/owner/fields", http.StatusSeeOther)
}

func catalogComponent(city string, fields []dbgen.Field) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div class="space-y-6"><div class="flex items-center justify-between"><h1 class="text-2xl font-semibold text-gray-900">Fields</h1>`+
			`<form method="get" action="/fields" class="flex gap-2">`+
			fmt.Sprintf(`<input type="text" name="city" value="%s" placeholder="City" class="rounded border px-3 py-1">`, html.EscapeString(city))+
			`<button type="submit" class="rounded bg-green-700 px-3 py-1 text-white">Search</button></form></div>`); err != nil {
			return err
		}
		if _, err := io.WriteString(w, buildFieldListHTML(fields)); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

func detailComponent(field dbgen.Field, hours []dbgen.FieldHour, signedIn bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, buildFieldDetailHTML(field, hours)); err != nil {
			return err
		}
		if signedIn {
			_, err := io.WriteString(w, buildBookingFormHTML(field.ID))
			return err
		}
		_, err := io.WriteString(w, `<p class="mt-4 text-sm text-gray-500"><a href="/auth/login" class="text-green-700">Sign in</a> to book this field.</p>`)
		return err
	})
}

func ownerConsoleComponent(fields []dbgen.Field) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div class="space-y-6"><h1 class="text-2xl font-semibold text-gray-900">My fields</h1>`); err != nil {
			return err
		}
		if _, err := io.WriteString(w, buildFieldListHTML(fields)); err != nil {
			return err
		}
		if _, err := io.WriteString(w, buildCreateFieldFormHTML()); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

func buildFieldListHTML(fields []dbgen.Field) string {
	if len(fields) == 0 {
		return `<div class="rounded border border-dashed p-6 text-center text-sm text-gray-500">No fields found.</div>`
	}

	var builder strings.Builder
	builder.WriteString(`<div class="grid gap-4">`)
	for _, field := range fields {
		builder.WriteString(buildFieldCardHTML(field))
	}
	builder.WriteString(`</div>`)
	return builder.String()
}

func buildFieldCardHTML(field dbgen.Field) string {
	status := ""
	if !field.Published {
		status = `<span class="rounded bg-gray-100 px-2 py-1 text-xs text-gray-600">Draft</span>`
	}
	return fmt.Sprintf(
		`<div class="rounded border bg-white p-4"><div class="flex items-center justify-between">`+
			`<a href="/fields/detail?field_id=%d" class="font-medium text-gray-900">%s</a>%s</div>`+
			`<p class="text-sm text-gray-500">%s · %s · %s per hour</p></div>`,
		field.ID,
		html.EscapeString(field.Name),
		status,
		html.EscapeString(field.City),
		html.EscapeString(field.Surface),
		apiutil.FormatPriceCents(field.PriceCents),
	)
}

func buildFieldDetailHTML(field dbgen.Field, hours []dbgen.FieldHour) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, `<div class="space-y-2"><h1 class="text-2xl font-semibold text-gray-900">%s</h1>`, html.EscapeString(field.Name))
	fmt.Fprintf(&builder, `<p class="text-sm text-gray-500">%s · %s · %s per hour</p>`,
		html.EscapeString(field.City), html.EscapeString(field.Surface), apiutil.FormatPriceCents(field.PriceCents))

	builder.WriteString(`<h2 class="pt-4 font-medium text-gray-900">Opening hours</h2>`)
	if len(hours) == 0 {
		builder.WriteString(`<p class="text-sm text-gray-500">Hours not set yet.</p>`)
	} else {
		builder.WriteString(`<ul class="text-sm text-gray-600">`)
		for _, h := range hours {
			fmt.Fprintf(&builder, `<li>%s: %s - %s</li>`,
				weekdayName(h.Weekday), minutesToClock(h.OpenMinute), minutesToClock(h.CloseMinute))
		}
		builder.WriteString(`</ul>`)
	}
	builder.WriteString(`</div>`)
	return builder.String()
}

func buildBookingFormHTML(fieldID int64) string {
	return fmt.Sprintf(
		`<form method="post" action="/bookings" class="mt-6 space-y-3 rounded border bg-white p-4">`+
			`<h2 class="font-medium text-gray-900">Book this field</h2>`+
			`<input type="hidden" name="field_id" value="%d">`+
			`<label class="block text-sm">Start<input type="datetime-local" name="starts_at" required class="mt-1 w-full rounded border px-3 py-2"></label>`+
			`<label class="block text-sm">End<input type="datetime-local" name="ends_at" required class="mt-1 w-full rounded border px-3 py-2"></label>`+
			`<button type="submit" class="rounded bg-green-700 px-4 py-2 text-white">Book</button></form>`,
		fieldID,
	)
}

func buildCreateFieldFormHTML() string {
	return `<form method="post" action="/owner/fields" class="space-y-3 rounded border bg-white p-4">` +
		`<h2 class="font-medium text-gray-900">Add a field</h2>` +
		`<input type="text" name="name" placeholder="Name" required class="w-full rounded border px-3 py-2">` +
		`<input type="text" name="city" placeholder="City" required class="w-full rounded border px-3 py-2">` +
		`<input type="text" name="surface" placeholder="Surface (grass, astro)" class="w-full rounded border px-3 py-2">` +
		`<input type="number" name="price_cents" placeholder="Price per hour in pence" min="0" required class="w-full rounded border px-3 py-2">` +
		`<label class="flex items-center gap-2 text-sm"><input type="checkbox" name="published"> Publish immediately</label>` +
		`<button type="submit" class="rounded bg-green-700 px-4 py-2 text-white">Create</button></form>`
}

func weekdayName(d int64) string {
	names := []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	if d < 0 || int(d) >= len(names) {
		return "Unknown"
	}
	return names[d]
}

func minutesToClock(m int64) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
