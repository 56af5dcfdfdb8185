// Package layouts holds the shared page shell every handler renders into.
package layouts

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"

	"github.com/pitchside/pitchbook/internal/session"
)

// Nav describes what the header shows for the current visitor.
type Nav struct {
	SignedIn bool
	Email    string
	Role     string
	Degraded bool
}

// NavFrom derives the header state from a resolved session. A degraded
// session shows as signed in with a syncing notice instead of a role menu.
func NavFrom(s *session.Session) *Nav {
	if s == nil || !s.Authenticated {
		return nil
	}
	return &Nav{
		SignedIn: true,
		Email:    s.Email,
		Role:     string(s.Role),
		Degraded: s.Role == "",
	}
}

// Base wraps content in the full HTML document. nav may be nil for pages
// rendered before session resolution, such as error pages.
func Base(title string, nav *Nav, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`); err != nil {
			return err
		}
		if _, err := io.WriteString(w, fmt.Sprintf(`<title>%s | Pitchbook</title>`, html.EscapeString(title))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<script src="/static/js/htmx.min.js"></script><link rel="stylesheet" href="/static/css/app.css"></head><body class="min-h-screen bg-gray-50">`); err != nil {
			return err
		}
		if _, err := io.WriteString(w, buildHeaderHTML(nav)); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<main class="mx-auto max-w-5xl px-4 py-6">`); err != nil {
			return err
		}
		if content != nil {
			if err := content.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

func buildHeaderHTML(nav *Nav) string {
	header := `<header class="border-b bg-white"><div class="mx-auto max-w-5xl px-4 py-3 flex items-center justify-between">` +
		`<a href="/" class="text-lg font-semibold text-green-700">Pitchbook</a><nav class="flex items-center gap-4 text-sm">`

	switch {
	case nav == nil || !nav.SignedIn:
		header += `<a href="/fields" class="text-gray-600 hover:text-gray-900">Fields</a>` +
			`<a href="/auth/login" class="text-gray-600 hover:text-gray-900">Sign in</a>` +
			`<a href="/auth/signup" class="rounded bg-green-700 px-3 py-1 text-white">Sign up</a>`
	default:
		header += `<a href="/fields" class="text-gray-600 hover:text-gray-900">Fields</a>` +
			`<a href="/bookings" class="text-gray-600 hover:text-gray-900">My bookings</a>` +
			`<a href="/teams" class="text-gray-600 hover:text-gray-900">Teams</a>` +
			`<a href="/friends" class="text-gray-600 hover:text-gray-900">Friends</a>`
		if nav.Role == "owner" {
			header += `<a href="/owner/fields" class="text-gray-600 hover:text-gray-900">My fields</a>`
		}
		if nav.Degraded {
			header += `<span class="rounded bg-yellow-100 px-2 py-1 text-xs text-yellow-800">Account syncing</span>`
		}
		header += fmt.Sprintf(`<span class="text-gray-400">%s</span>`, html.EscapeString(nav.Email)) +
			`<form method="post" action="/auth/logout"><button type="submit" class="text-gray-600 hover:text-gray-900">Sign out</button></form>`
	}

	return header + `</nav></div></header>`
}

// Message renders a one-line notice panel, used for error and empty states.
func Message(text string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, fmt.Sprintf(
			`<div class="rounded border border-dashed p-6 text-center text-sm text-gray-500">%s</div>`,
			html.EscapeString(text),
		))
		return err
	})
}
