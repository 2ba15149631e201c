package handlers

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"tech-insights/internal/charts"
	"tech-insights/internal/errors"
	"tech-insights/internal/export"
	"tech-insights/internal/services"
)

// FileHandlers serve the binary downloads: workbooks and chart images.
type FileHandlers struct {
	analytics *services.Analytics
	inventory *services.Inventory
	orders    *services.OrderBook
	logger    *slog.Logger
	validate  *validator.Validate
}

func NewFileHandlers(analytics *services.Analytics, inventory *services.Inventory, orders *services.OrderBook, logger *slog.Logger) *FileHandlers {
	return &FileHandlers{
		analytics: analytics,
		inventory: inventory,
		orders:    orders,
		logger:    logger,
		validate:  validator.New(),
	}
}

// HandleDashboardExport writes the aggregates of the selected states as a
// workbook. Without a states parameter every state is included.
func (h *FileHandlers) HandleDashboardExport(w http.ResponseWriter, r *http.Request) {
	states := splitStates(r.URL.Query().Get("states"))
	if err := validateStates(h.validate, states); err != nil {
		errors.WriteError(w, r, h.logger, err)
		return
	}

	if !h.analytics.Available() {
		errors.WriteError(w, r, h.logger, errors.DataUnavailable(h.analytics.Err()))
		return
	}
	sel := h.analytics.Filter(states)
	if sel.Empty() {
		errors.WriteError(w, r, h.logger, errors.NotFound("No sales rows for the selected states"))
		return
	}

	var buf bytes.Buffer
	if err := export.Dashboard(&buf, sel, time.Now()); err != nil {
		errors.WriteError(w, r, h.logger, errors.InternalWrap(err, "Failed to build workbook"))
		return
	}

	h.attach(w, export.ContentType, "dashboard.xlsx", buf.Bytes())
}

func (h *FileHandlers) HandleRestockExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	order, err := h.orders.Get(id)
	if err != nil {
		if stderrors.Is(err, services.ErrOrderNotFound) {
			errors.WriteError(w, r, h.logger, errors.NotFound("Restock order not found"))
			return
		}
		errors.WriteError(w, r, h.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Restock(&buf, order); err != nil {
		errors.WriteError(w, r, h.logger, errors.InternalWrap(err, "Failed to build workbook"))
		return
	}

	h.attach(w, export.ContentType, fmt.Sprintf("restock-%s.xlsx", order.ID), buf.Bytes())
}

// HandleChartPNG renders one chart as an image. Sales charts honour the
// states parameter and cover every state without it.
func (h *FileHandlers) HandleChartPNG(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !charts.Known(name) {
		errors.WriteError(w, r, h.logger, errors.NotFound(fmt.Sprintf("Unknown chart %q, expected one of: %s", name, strings.Join(charts.Names(), ", "))))
		return
	}

	states := splitStates(r.URL.Query().Get("states"))
	if err := validateStates(h.validate, states); err != nil {
		errors.WriteError(w, r, h.logger, err)
		return
	}

	var sel services.Selection
	if name != charts.NameInventory {
		if !h.analytics.Available() {
			errors.WriteError(w, r, h.logger, errors.DataUnavailable(h.analytics.Err()))
			return
		}
		sel = h.analytics.Filter(states)
	}

	chart, _ := charts.Build(name, sel, h.inventory)

	var buf bytes.Buffer
	if err := charts.WritePNG(&buf, chart, charts.DefaultWidth, charts.DefaultHeight); err != nil {
		errors.WriteError(w, r, h.logger, errors.InternalWrap(err, "Failed to render chart"))
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

func (h *FileHandlers) attach(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, strings.ReplaceAll(filename, `"`, "")))
	w.Write(body)
}
