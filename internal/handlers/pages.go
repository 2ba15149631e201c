package handlers

import (
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-playground/validator/v10"

	"tech-insights/internal/charts"
	"tech-insights/internal/errors"
	"tech-insights/internal/services"
	"tech-insights/internal/ui/templates"
)

type PageHandlers struct {
	analytics     *services.Analytics
	inventory     *services.Inventory
	defaultStates []string
	logger        *slog.Logger
	validate      *validator.Validate
}

func NewPageHandlers(analytics *services.Analytics, inventory *services.Inventory, defaultStates []string, logger *slog.Logger) *PageHandlers {
	return &PageHandlers{
		analytics:     analytics,
		inventory:     inventory,
		defaultStates: defaultStates,
		logger:        logger,
		validate:      validator.New(),
	}
}

// dashboardView computes everything the dashboard shows for the selected
// states; no state selected means every state. A missing file, or a selection
// without sales rows, yields the error banner and nothing else is computed.
func dashboardView(analytics *services.Analytics, selected []string) templates.DashboardView {
	v := templates.DashboardView{
		States:   analytics.States(),
		Selected: selected,
	}

	if !analytics.Available() {
		v.Error = templates.MissingDataMessage
		return v
	}

	sel := analytics.Filter(selected)
	if sel.Empty() {
		v.Error = templates.MissingDataMessage
		return v
	}

	v.Summary = sel.Summary()
	v.Insight = sel.Insight()
	v.Charts = charts.Dashboard(sel)
	return v
}

// requestedStates returns the states query parameter, or the configured
// defaults that exist in the data when it is absent.
func (h *PageHandlers) requestedStates(r *http.Request) ([]string, error) {
	states := splitStates(r.URL.Query().Get("states"))
	if len(states) == 0 {
		return h.analytics.DefaultSelection(h.defaultStates), nil
	}
	if err := validateStates(h.validate, states); err != nil {
		return nil, err
	}
	return states, nil
}

func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	states, err := h.requestedStates(r)
	if err != nil {
		errors.WriteError(w, r, h.logger, err)
		return
	}

	view := dashboardView(h.analytics, states)
	if view.Error != "" {
		h.logger.WarnContext(r.Context(), "dashboard unavailable",
			"states", states,
			"load_error", h.analytics.Err())
	}

	h.render(w, r, templates.Dashboard(view))
}

func (h *PageHandlers) HandleInventory(w http.ResponseWriter, r *http.Request) {
	chart := charts.InventoryGap(h.inventory.Long())
	view := templates.InventoryView{
		Items: h.inventory.Items(),
		Chart: &chart,
	}
	if item, ok := h.inventory.HighestRisk(); ok {
		view.Highest = &item
	}

	h.render(w, r, templates.Inventory(view))
}

func (h *PageHandlers) render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	body, err := templates.Render(r.Context(), c)
	if err != nil {
		errors.WriteError(w, r, h.logger, errors.InternalWrap(err, "Failed to render page"))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(body))
}
