package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/starfederation/datastar-go/datastar"

	"tech-insights/internal/charts"
	"tech-insights/internal/errors"
	"tech-insights/internal/observability"
	"tech-insights/internal/services"
	"tech-insights/internal/ui/templates"
)

type SSEHandlers struct {
	analytics *services.Analytics
	inventory *services.Inventory
	orders    *services.OrderBook
	metrics   *observability.Metrics
	logger    *slog.Logger
	validate  *validator.Validate
}

func NewSSEHandlers(analytics *services.Analytics, inventory *services.Inventory, orders *services.OrderBook, metrics *observability.Metrics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		inventory: inventory,
		orders:    orders,
		metrics:   metrics,
		logger:    logger,
		validate:  validator.New(),
	}
}

type dashboardSignals struct {
	States []string `json:"states"`
}

// HandleDashboard re-renders the dashboard body for the states currently
// ticked in the browser and pushes the matching chart configs as signals.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	var signals dashboardSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		errors.WriteError(w, r, h.logger, errors.BadRequest("Invalid signals"))
		return
	}
	if err := validateStates(h.validate, signals.States); err != nil {
		errors.WriteError(w, r, h.logger, err)
		return
	}

	view := dashboardView(h.analytics, signals.States)
	html, err := templates.Render(r.Context(), templates.DashboardContent(view))
	if err != nil {
		errors.WriteError(w, r, h.logger, errors.InternalWrap(err, "Failed to render dashboard"))
		return
	}

	chartSignals, err := json.Marshal(map[string]any{
		"charts": charts.Signals(view.Charts...),
	})
	if err != nil {
		errors.WriteError(w, r, h.logger, errors.InternalWrap(err, "Failed to encode chart signals"))
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := sse.PatchElements(html); err != nil {
		h.logger.WarnContext(r.Context(), "patch dashboard content", "error", err)
		return
	}
	if err := sse.PatchSignals(chartSignals); err != nil {
		h.logger.WarnContext(r.Context(), "patch chart signals", "error", err)
	}
}

// HandleRestock creates an order for every critical category, keeps it for
// download and patches the confirmation under the button.
func (h *SSEHandlers) HandleRestock(w http.ResponseWriter, r *http.Request) {
	order := h.inventory.NewRestockOrder(time.Now())
	h.orders.Put(order)
	h.metrics.RestockOrders.Inc()

	h.logger.InfoContext(r.Context(), "restock order created",
		"order_id", order.ID,
		"orders_held", h.orders.Len(),
		"lines", len(order.Lines),
		"units", order.TotalUnits())

	html, err := templates.Render(r.Context(), templates.RestockConfirmation(order))
	if err != nil {
		errors.WriteError(w, r, h.logger, errors.InternalWrap(err, "Failed to render restock confirmation"))
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := sse.PatchElements(html); err != nil {
		h.logger.WarnContext(r.Context(), "patch restock confirmation", "error", err)
	}
}
