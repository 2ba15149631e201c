package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"tech-insights/internal/catalog"
	"tech-insights/internal/errors"
	"tech-insights/internal/models"
	"tech-insights/internal/services"
)

const version = "1.0.0"

type APIHandlers struct {
	analytics *services.Analytics
	inventory *services.Inventory
	logger    *slog.Logger
	validate  *validator.Validate
}

func NewAPIHandlers(analytics *services.Analytics, inventory *services.Inventory, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		inventory: inventory,
		logger:    logger,
		validate:  validator.New(),
	}
}

// selection parses the query and filters the dataset. It writes the error
// response itself and reports false when the request cannot be served.
func (h *APIHandlers) selection(w http.ResponseWriter, r *http.Request) (services.Selection, chartQuery, bool) {
	q, err := parseChartQuery(r, h.validate)
	if err != nil {
		errors.WriteError(w, r, h.logger, err)
		return services.Selection{}, q, false
	}

	if !h.analytics.Available() {
		errors.WriteError(w, r, h.logger, errors.DataUnavailable(h.analytics.Err()))
		return services.Selection{}, q, false
	}

	return h.analytics.Filter(q.States), q, true
}

func (h *APIHandlers) HandleStates(w http.ResponseWriter, r *http.Request) {
	if !h.analytics.Available() {
		errors.WriteError(w, r, h.logger, errors.DataUnavailable(h.analytics.Err()))
		return
	}

	errors.WriteSuccessWithHeaders(w, r, h.analytics.States(), cacheHeaders)
}

type categoriesResponse struct {
	Core      []string `json:"core"`
	Accessory []string `json:"accessory"`
}

// HandleCategories lists the tracked categories by product class. It does not
// depend on the CSV files.
func (h *APIHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, r, categoriesResponse{
		Core:      catalog.CoreCategories(),
		Accessory: catalog.AccessoryCategories(),
	}, cacheHeaders)
}

type summaryResponse struct {
	States  []string       `json:"states"`
	Summary models.Summary `json:"summary"`
	Insight models.Insight `json:"insight"`
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	sel, q, ok := h.selection(w, r)
	if !ok {
		return
	}

	states := q.States
	if states == nil {
		states = []string{}
	}

	errors.WriteSuccessWithHeaders(w, r, summaryResponse{
		States:  states,
		Summary: sel.Summary(),
		Insight: sel.Insight(),
	}, cacheHeaders)
}

func (h *APIHandlers) HandleRevenueByType(w http.ResponseWriter, r *http.Request) {
	sel, _, ok := h.selection(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, r, sel.RevenueByType(), cacheHeaders)
}

func (h *APIHandlers) HandleMonthlySales(w http.ResponseWriter, r *http.Request) {
	sel, _, ok := h.selection(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, r, sel.MonthlySales(), cacheHeaders)
}

func (h *APIHandlers) HandleTopCategories(w http.ResponseWriter, r *http.Request) {
	sel, q, ok := h.selection(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, r, sel.TopCategories(q.Limit), cacheHeaders)
}

func (h *APIHandlers) HandleRiskMatrix(w http.ResponseWriter, r *http.Request) {
	sel, _, ok := h.selection(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, r, sel.RiskMatrix(), cacheHeaders)
}

func (h *APIHandlers) HandleRecencyHistogram(w http.ResponseWriter, r *http.Request) {
	sel, q, ok := h.selection(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, r, sel.RecencyHistogram(q.Bins), cacheHeaders)
}

type inventoryResponse struct {
	Items       []models.InventoryItem   `json:"items"`
	Long        []models.InventoryMetric `json:"long"`
	Critical    []models.InventoryItem   `json:"critical"`
	HighestRisk *models.InventoryItem    `json:"highest_risk"`
}

// HandleInventory does not depend on the CSV files and answers even when they
// are missing.
func (h *APIHandlers) HandleInventory(w http.ResponseWriter, r *http.Request) {
	resp := inventoryResponse{
		Items:    h.inventory.Items(),
		Long:     h.inventory.Long(),
		Critical: h.inventory.Critical(),
	}
	if item, ok := h.inventory.HighestRisk(); ok {
		resp.HighestRisk = &item
	}

	errors.WriteSuccess(w, r, resp)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !h.analytics.Available() {
		status = "degraded"
	}

	errors.WriteSuccess(w, r, map[string]string{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   version,
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, r, h.analytics.Stats())
}
