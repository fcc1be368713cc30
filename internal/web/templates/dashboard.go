// Package templates holds the HTML components rendered by the web server.
package templates

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// States lists the US state codes offered by the dashboard dropdown, in
// display order. Codes absent from the data are rendered disabled.
var States = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA", "HI", "ID",
	"IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD", "MA", "MI", "MN", "MS",
	"MO", "MT", "NE", "NV", "NH", "NJ", "NM", "NY", "NC", "ND", "OH", "OK",
	"OR", "PA", "RI", "SC", "SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV",
	"WI", "WY",
}

// DashboardParams configures the dashboard page.
type DashboardParams struct {
	Title string
	// Available marks the state codes present in the data. A nil map leaves
	// every state enabled until the script has loaded /data.
	Available map[string]bool
}

// Dashboard renders the search page. Filtering happens in the browser
// against /data and /supplemental.
func Dashboard(p DashboardParams) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		title := templ.EscapeString(p.Title)

		b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="UTF-8">`)
		b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		b.WriteString(`<title>` + title + `</title>`)
		b.WriteString(`<link rel="stylesheet" href="/static/dashboard.css">`)
		b.WriteString(`</head><body>`)
		b.WriteString(`<h1>` + title + `</h1>`)
		b.WriteString(`<div id="search-container">`)
		b.WriteString(`<input id="search-input" type="text" placeholder="Search by City, County, or Zip" autocomplete="off">`)
		b.WriteString(`<select id="state-dropdown"><option value="">Select State</option>`)
		for _, code := range States {
			b.WriteString(`<option value="` + code + `"`)
			if p.Available != nil && !p.Available[code] {
				b.WriteString(` disabled`)
			}
			b.WriteString(`>` + code + `</option>`)
		}
		b.WriteString(`</select></div>`)
		b.WriteString(`<div id="status" role="status"></div>`)
		b.WriteString(`<div id="data-container"></div>`)
		b.WriteString(`<script src="/static/dashboard.js" defer></script>`)
		b.WriteString(`</body></html>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ErrorPage renders a standalone error page for browser requests.
func ErrorPage(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="UTF-8"><title>Error</title>`)
		b.WriteString(`<link rel="stylesheet" href="/static/dashboard.css"></head><body>`)
		b.WriteString(`<div class="card error"><p><strong>` + templ.EscapeString(message) + `</strong></p>`)
		if action != "" {
			b.WriteString(`<p>` + templ.EscapeString(action) + `</p>`)
		}
		b.WriteString(`<p class="code">` + templ.EscapeString(code) + `</p></div>`)
		b.WriteString(`</body></html>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}
