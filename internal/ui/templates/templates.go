// Package templates renders the dashboard and inventory pages and the
// fragments patched into them over SSE. Every page and fragment is a
// templ.Component.
package templates

import (
	"context"
	"io"
	"slices"
	"strings"

	"github.com/a-h/templ"

	"tech-insights/internal/charts"
	"tech-insights/internal/models"
)

// MissingDataMessage is shown instead of the dashboard when an input file is
// missing or the state filter leaves no sales rows.
const MissingDataMessage = "Files not found or data filter error. Check that the CSV files are in the data folder."

// htmlWriter keeps the first write error so component bodies read as straight
// markup.
type htmlWriter struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (hw *htmlWriter) raw(parts ...string) {
	for _, p := range parts {
		if hw.err != nil {
			return
		}
		_, hw.err = io.WriteString(hw.w, p)
	}
}

// text writes s escaped; safe in element content and quoted attributes.
func (hw *htmlWriter) text(s string) {
	hw.raw(templ.EscapeString(s))
}

func (hw *htmlWriter) url(s string) {
	hw.text(string(templ.URL(s)))
}

func (hw *htmlWriter) json(v any) {
	if hw.err != nil {
		return
	}
	var s string
	s, hw.err = templ.JSONString(v)
	hw.text(s)
}

func (hw *htmlWriter) render(c templ.Component) {
	if hw.err == nil {
		hw.err = c.Render(hw.ctx, hw.w)
	}
}

func component(body func(hw *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		hw := &htmlWriter{ctx: ctx, w: w}
		body(hw)
		return hw.err
	})
}

type DashboardView struct {
	States   []string
	Selected []string
	Summary  models.Summary
	Insight  models.Insight
	Charts   []charts.Chart
	// Error replaces the whole dashboard body with a banner.
	Error string
}

func (v DashboardView) IsSelected(state string) bool {
	return slices.Contains(v.Selected, state)
}

func (v DashboardView) SelectedParam() string {
	return strings.Join(v.Selected, ",")
}

func (v DashboardView) Chart(name string) *charts.Chart {
	for i := range v.Charts {
		if v.Charts[i].Name == name {
			return &v.Charts[i]
		}
	}
	return nil
}

// Signals is the initial datastar signal set of the dashboard page.
func (v DashboardView) Signals() map[string]any {
	selected := v.Selected
	if selected == nil {
		selected = []string{}
	}
	return map[string]any{
		"states": selected,
		"charts": charts.Signals(v.Charts...),
	}
}

type InventoryView struct {
	Items   []models.InventoryItem
	Highest *models.InventoryItem
	Chart   *charts.Chart
}

func (v InventoryView) IsHighest(item models.InventoryItem) bool {
	return v.Highest != nil && v.Highest.Category == item.Category
}

func (v InventoryView) Signals() map[string]any {
	sig := map[string]any{"charts": map[string]any{}}
	if v.Chart != nil {
		sig["charts"] = charts.Signals(*v.Chart)
	}
	return sig
}

// Render renders c into a string, for SSE element patches.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
