package templates

import (
	"context"
	"io"
	"strings"
	"testing"
)

func render(t *testing.T, c interface {
	Render(context.Context, io.Writer) error
}) string {
	t.Helper()
	var b strings.Builder
	if err := c.Render(context.Background(), &b); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return b.String()
}

func TestDashboard(t *testing.T) {
	tests := []struct {
		name      string
		params    DashboardParams
		contains  []string
		forbidden []string
	}{
		{
			name:     "escapes title",
			params:   DashboardParams{Title: "Bans <b>&</b>"},
			contains: []string{"<title>Bans &lt;b&gt;&amp;&lt;/b&gt;</title>"},
		},
		{
			name:      "all states enabled without data",
			params:    DashboardParams{Title: "Dashboard"},
			contains:  []string{`<option value="KS">KS</option>`, `<option value="WY">WY</option>`},
			forbidden: []string{"disabled"},
		},
		{
			name:   "disables states missing from data",
			params: DashboardParams{Title: "Dashboard", Available: map[string]bool{"KS": true}},
			contains: []string{
				`<option value="KS">KS</option>`,
				`<option value="MO" disabled>MO</option>`,
			},
		},
		{
			name:     "loads assets",
			params:   DashboardParams{Title: "Dashboard"},
			contains: []string{"/static/dashboard.js", "/static/dashboard.css", `id="search-input"`, `id="data-container"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := render(t, Dashboard(tt.params))
			for _, want := range tt.contains {
				if !strings.Contains(html, want) {
					t.Errorf("output missing %q", want)
				}
			}
			for _, bad := range tt.forbidden {
				if strings.Contains(html, bad) {
					t.Errorf("output contains %q", bad)
				}
			}
		})
	}
}

func TestErrorPage(t *testing.T) {
	html := render(t, ErrorPage("Unable to reach <source>", "Try again", "FETCH001"))
	for _, want := range []string{"Unable to reach &lt;source&gt;", "Try again", "FETCH001"} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q", want)
		}
	}
}
