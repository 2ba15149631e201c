package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tech-insights/internal/models"
	"tech-insights/internal/services"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func sale(order, category, price, customer, state string, month time.Month) models.SalesRecord {
	return models.SalesRecord{
		OrderID:     order,
		Category:    category,
		Price:       decimal.RequireFromString(price),
		PurchasedAt: time.Date(2023, month, 10, 12, 0, 0, 0, time.UTC),
		CustomerID:  customer,
		State:       state,
	}
}

func createTestAnalytics(t *testing.T) *services.Analytics {
	t.Helper()
	a := services.NewAnalytics(services.WithLogger(discard), services.WithCacheDir(""))
	a.SetData([]models.SalesRecord{
		sale("O1", "telefonia", "1000.00", "C1", "SP", time.January),
		sale("O1", "audio", "100.00", "C1", "SP", time.January),
		sale("O2", "pcs", "2500.50", "C2", "RJ", time.February),
		sale("O3", "informatica_acessorios", "49.90", "C3", "MG", time.February),
		sale("O4", "eletronicos", "80.00", "C4", "BA", time.March),
	}, []models.ChurnRecord{
		{CustomerID: "C1", RecencyDays: 30, Monetary: 1100},
		{CustomerID: "C2", RecencyDays: 200, Monetary: 2500.5, Churned: true},
		{CustomerID: "C3", RecencyDays: 150, Monetary: 49.9, Churned: true},
		{CustomerID: "C4", RecencyDays: 10, Monetary: 80},
	})
	return a
}

// missingAnalytics has tried to load files that do not exist.
func missingAnalytics(t *testing.T) *services.Analytics {
	t.Helper()
	a := services.NewAnalytics(services.WithLogger(discard), services.WithCacheDir(""))
	dir := t.TempDir()
	err := a.LoadFromCSV(context.Background(), filepath.Join(dir, "sales.csv"), filepath.Join(dir, "churn.csv"))
	require.Error(t, err)
	require.False(t, a.Available())
	return a
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	if data != nil && env.Success {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func serve(h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestAPIHandlers_Summary(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(t), services.NewInventory(), discard)

	w := serve(h.HandleSummary, "/api/summary?states=SP,RJ")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=300", w.Header().Get("Cache-Control"))

	var resp summaryResponse
	env := decode(t, w, &resp)
	assert.True(t, env.Success)
	assert.Equal(t, []string{"SP", "RJ"}, resp.States)
	assert.True(t, decimal.RequireFromString("3600.50").Equal(resp.Summary.TotalRevenue))
	assert.Equal(t, 2, resp.Summary.Orders)
	assert.Equal(t, 2, resp.Summary.CoreCount)
	assert.Equal(t, 1, resp.Summary.AccessoryCount)
	assert.Equal(t, models.InsightWarning, resp.Insight.Level)
	// churn covers every sales customer whatever the state filter
	assert.Equal(t, 4, resp.Summary.Customers)
	assert.InDelta(t, 50.0, resp.Summary.ChurnRate, 1e-9)
}

func TestAPIHandlers_SummaryAllStates(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(t), services.NewInventory(), discard)

	var resp summaryResponse
	decode(t, serve(h.HandleSummary, "/api/summary"), &resp)

	assert.NotNil(t, resp.States)
	assert.Empty(t, resp.States)
	assert.True(t, decimal.RequireFromString("3730.40").Equal(resp.Summary.TotalRevenue))
	assert.InDelta(t, 1.5, resp.Summary.CrossSellRatio, 1e-9)
}

func TestAPIHandlers_ChartData(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(t), services.NewInventory(), discard)

	t.Run("revenue by type", func(t *testing.T) {
		var rows []models.TypeRevenue
		decode(t, serve(h.HandleRevenueByType, "/api/revenue-by-type"), &rows)
		require.Len(t, rows, 2)
		assert.Equal(t, models.ProductCore, rows[0].Type)
		assert.Equal(t, services.ColorCore, rows[0].Color)
	})

	t.Run("monthly sales", func(t *testing.T) {
		var rows []models.MonthlyData
		decode(t, serve(h.HandleMonthlySales, "/api/monthly-sales"), &rows)
		require.Len(t, rows, 3)
		assert.Equal(t, "2023-01", rows[0].Month)
		assert.Equal(t, "2023-03", rows[2].Month)
	})

	t.Run("top categories honours limit", func(t *testing.T) {
		var rows []models.CategoryCount
		decode(t, serve(h.HandleTopCategories, "/api/top-categories?limit=2"), &rows)
		assert.Len(t, rows, 2)
	})

	t.Run("risk matrix", func(t *testing.T) {
		var rows []models.RiskPoint
		decode(t, serve(h.HandleRiskMatrix, "/api/risk-matrix"), &rows)
		assert.Len(t, rows, 4)
	})

	t.Run("recency histogram honours bins", func(t *testing.T) {
		var bins []models.HistogramBin
		decode(t, serve(h.HandleRecencyHistogram, "/api/recency-histogram?bins=4"), &bins)
		require.Len(t, bins, 4)
		total := 0
		for _, b := range bins {
			total += b.Total()
		}
		assert.Equal(t, 4, total)
	})

	t.Run("states", func(t *testing.T) {
		var states []string
		decode(t, serve(h.HandleStates, "/api/states"), &states)
		assert.Equal(t, []string{"BA", "MG", "RJ", "SP"}, states)
	})
}

func TestAPIHandlers_Validation(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(t), services.NewInventory(), discard)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		target  string
	}{
		{"lower case state", h.HandleSummary, "/api/summary?states=sp"},
		{"long state", h.HandleSummary, "/api/summary?states=SPX"},
		{"digit state", h.HandleMonthlySales, "/api/monthly-sales?states=S1"},
		{"limit zero", h.HandleTopCategories, "/api/top-categories?limit=0"},
		{"limit too large", h.HandleTopCategories, "/api/top-categories?limit=51"},
		{"limit not a number", h.HandleTopCategories, "/api/top-categories?limit=five"},
		{"bins too large", h.HandleRecencyHistogram, "/api/recency-histogram?bins=101"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(tt.handler, tt.target)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			env := decode(t, w, nil)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
		})
	}
}

func TestAPIHandlers_DataUnavailable(t *testing.T) {
	h := NewAPIHandlers(missingAnalytics(t), services.NewInventory(), discard)

	for _, handler := range []http.HandlerFunc{
		h.HandleStates,
		h.HandleSummary,
		h.HandleRevenueByType,
		h.HandleMonthlySales,
		h.HandleTopCategories,
		h.HandleRiskMatrix,
		h.HandleRecencyHistogram,
	} {
		w := serve(handler, "/api/x")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		env := decode(t, w, nil)
		require.NotNil(t, env.Error)
		assert.Equal(t, "DATA_UNAVAILABLE", env.Error.Code)
	}

	// inventory does not read the CSV files
	w := serve(h.HandleInventory, "/api/inventory")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIHandlers_Inventory(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(t), services.NewInventory(), discard)

	var resp inventoryResponse
	decode(t, serve(h.HandleInventory, "/api/inventory"), &resp)

	assert.Len(t, resp.Items, 5)
	assert.Len(t, resp.Long, 10)
	assert.Len(t, resp.Critical, 5)
	require.NotNil(t, resp.HighestRisk)
	assert.Equal(t, "Eletronicos", resp.HighestRisk.Category)
	assert.Equal(t, 57, resp.HighestRisk.Shortfall)
}

func TestAPIHandlers_Health(t *testing.T) {
	tests := []struct {
		name      string
		analytics *services.Analytics
		want      string
	}{
		{"data loaded", createTestAnalytics(t), "healthy"},
		{"data missing", missingAnalytics(t), "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAPIHandlers(tt.analytics, services.NewInventory(), discard)
			w := serve(h.HandleHealth, "/health")
			assert.Equal(t, http.StatusOK, w.Code)

			var body map[string]string
			decode(t, w, &body)
			assert.Equal(t, tt.want, body["status"])
			assert.Equal(t, version, body["version"])
		})
	}
}

func TestAPIHandlers_Stats(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(t), services.NewInventory(), discard)

	var stats map[string]any
	decode(t, serve(h.HandleStats, "/admin/stats"), &stats)

	assert.Equal(t, true, stats["available"])
	assert.Equal(t, 5.0, stats["sales_records"])
	assert.Equal(t, 4.0, stats["churn_records"])
}

func TestAPIHandlers_Categories(t *testing.T) {
	h := NewAPIHandlers(missingAnalytics(t), services.NewInventory(), discard)

	w := serve(h.HandleCategories, "/api/categories")
	require.Equal(t, http.StatusOK, w.Code)

	var resp categoriesResponse
	decode(t, w, &resp)
	assert.Contains(t, resp.Core, "telefonia")
	assert.Contains(t, resp.Accessory, "audio")
	assert.NotContains(t, resp.Core, "audio")
}

func TestAPIHandlers_NonFiniteChurnValues(t *testing.T) {
	dir := t.TempDir()
	sales := filepath.Join(dir, "sales.csv")
	churn := filepath.Join(dir, "churn.csv")
	require.NoError(t, os.WriteFile(sales, []byte(
		"order_id,customer_unique_id,customer_state,order_purchase_timestamp,product_category_name,price\n"+
			"O1,C1,SP,2023-01-15 10:00:00,telefonia,1000.00\n"+
			"O2,C2,SP,2023-02-15 10:00:00,audio,100.00\n"), 0o644))
	require.NoError(t, os.WriteFile(churn, []byte(
		"ID_Cliente,Recencia (dias),Valor Monetario (R$),Churn\n"+
			"C1,10,inf,Sim\n"+
			"C2,20,100.00,Não\n"), 0o644))

	a := services.NewAnalytics(services.WithLogger(discard), services.WithCacheDir(""))
	require.NoError(t, a.LoadFromCSV(context.Background(), sales, churn))
	h := NewAPIHandlers(a, services.NewInventory(), discard)

	w := serve(h.HandleRiskMatrix, "/api/risk-matrix")
	require.Equal(t, http.StatusOK, w.Code)
	var points []models.RiskPoint
	decode(t, w, &points)
	require.Len(t, points, 1)
	assert.Equal(t, "C2", points[0].CustomerID)

	var stats map[string]any
	decode(t, serve(h.HandleStats, "/admin/stats"), &stats)
	assert.Equal(t, 1.0, stats["skipped_churn"])

	pages := NewPageHandlers(a, services.NewInventory(), nil, discard)
	assert.Equal(t, http.StatusOK, serve(pages.HandleDashboard, "/").Code)
}
