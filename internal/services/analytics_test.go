package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tech-insights/internal/models"
)

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

func seededAnalytics(t *testing.T) *Analytics {
	t.Helper()
	a := newTestAnalytics(t)
	a.SetData([]models.SalesRecord{
		sale("O1", "telefonia", "1000.00", "C1", "SP", time.January),
		sale("O1", "audio", "100.00", "C1", "SP", time.January),
		sale("O2", "pcs", "2500.50", "C2", "RJ", time.February),
		sale("O3", "informatica_acessorios", "49.90", "C3", "MG", time.February),
		sale("O4", "eletronicos", "80.00", "C4", "BA", time.March),
	}, []models.ChurnRecord{
		{CustomerID: "C1", RecencyDays: 30, Monetary: 1100, Churned: false},
		{CustomerID: "C2", RecencyDays: 200, Monetary: 2500.5, Churned: true},
		{CustomerID: "C3", RecencyDays: 150, Monetary: 49.9, Churned: true},
		{CustomerID: "C4", RecencyDays: 10, Monetary: 80, Churned: false},
	})
	return a
}

func TestFilter(t *testing.T) {
	a := seededAnalytics(t)

	tests := []struct {
		name   string
		states []string
		want   int
	}{
		{"no filter keeps everything", nil, 5},
		{"default states", []string{"SP", "RJ", "MG"}, 4},
		{"lower case is normalised", []string{" sp "}, 2},
		{"unknown state matches nothing", []string{"AC"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := a.Filter(tt.states)
			assert.Len(t, sel.Sales, tt.want)
			assert.Equal(t, tt.want == 0, sel.Empty())
			// churn is never narrowed by state
			assert.Len(t, sel.Churn, 4)
		})
	}
}

func TestDefaultSelection(t *testing.T) {
	a := seededAnalytics(t)
	assert.Equal(t, []string{"SP", "RJ"}, a.DefaultSelection([]string{"SP", "RJ", "PE"}))
	assert.Empty(t, a.DefaultSelection([]string{"AC"}))
}

func TestSummary(t *testing.T) {
	a := seededAnalytics(t)

	t.Run("all states", func(t *testing.T) {
		sum := a.Filter(nil).Summary()

		assert.True(t, decimal.RequireFromString("3730.40").Equal(sum.TotalRevenue), sum.TotalRevenue.String())
		assert.Equal(t, 4, sum.Orders)
		assert.Equal(t, 5, sum.Items)
		assert.True(t, decimal.RequireFromString("932.60").Equal(sum.AverageTicket), sum.AverageTicket.String())
		assert.Equal(t, 2, sum.CoreCount)
		assert.Equal(t, 3, sum.AccessoryCount)
		assert.InDelta(t, 1.5, sum.CrossSellRatio, 1e-9)
		assert.Equal(t, 4, sum.Customers)
		assert.InDelta(t, 50.0, sum.ChurnRate, 1e-9)
	})

	t.Run("revenue equals sum of prices", func(t *testing.T) {
		sel := a.Filter([]string{"SP", "RJ", "MG"})
		want := decimal.Zero
		for _, s := range sel.Sales {
			want = want.Add(s.Price)
		}
		assert.True(t, want.Equal(sel.Summary().TotalRevenue))
	})

	t.Run("no core products", func(t *testing.T) {
		sum := a.Filter([]string{"BA"}).Summary()
		assert.Equal(t, 0, sum.CoreCount)
		assert.Equal(t, 1, sum.AccessoryCount)
		assert.Zero(t, sum.CrossSellRatio)
	})

	t.Run("empty selection", func(t *testing.T) {
		sum := a.Filter([]string{"AC"}).Summary()
		assert.True(t, sum.TotalRevenue.IsZero())
		assert.True(t, sum.AverageTicket.IsZero())
		assert.Zero(t, sum.Orders)
	})

	t.Run("no churn rows", func(t *testing.T) {
		sum := Selection{}.Summary()
		assert.Zero(t, sum.ChurnRate)
		assert.Zero(t, sum.Customers)
	})
}

func TestInsight(t *testing.T) {
	a := seededAnalytics(t)

	warn := a.Filter([]string{"SP", "RJ"}).Insight()
	assert.Equal(t, models.InsightWarning, warn.Level)
	assert.Contains(t, warn.Headline, "only 1 accessories sold for 2 core products")
	assert.NotEmpty(t, warn.Action)
	assert.NotEmpty(t, warn.ChurnCaption)

	ok := a.Filter(nil).Insight()
	assert.Equal(t, models.InsightSuccess, ok.Level)
	assert.Empty(t, ok.Action)

	// a ratio of exactly one is healthy
	even := a.Filter([]string{"SP"}).Insight()
	assert.Equal(t, models.InsightSuccess, even.Level)
}

func TestRevenueByType(t *testing.T) {
	a := seededAnalytics(t)

	got := a.Filter(nil).RevenueByType()
	require.Len(t, got, 2)
	assert.Equal(t, models.ProductCore, got[0].Type)
	assert.Equal(t, ColorCore, got[0].Color)
	assert.True(t, decimal.RequireFromString("3500.50").Equal(got[0].Revenue))
	assert.Equal(t, models.ProductAccessory, got[1].Type)
	assert.Equal(t, ColorAccessory, got[1].Color)
	assert.True(t, decimal.RequireFromString("229.90").Equal(got[1].Revenue))

	only := a.Filter([]string{"BA"}).RevenueByType()
	require.Len(t, only, 1)
	assert.Equal(t, models.ProductAccessory, only[0].Type)

	assert.Empty(t, a.Filter([]string{"AC"}).RevenueByType())
}

func TestMonthlySales(t *testing.T) {
	a := seededAnalytics(t)

	got := a.Filter(nil).MonthlySales()
	require.Len(t, got, 3)
	assert.Equal(t, []string{"2023-01", "2023-02", "2023-03"},
		[]string{got[0].Month, got[1].Month, got[2].Month})
	assert.True(t, decimal.RequireFromString("1100").Equal(got[0].Revenue))
	assert.True(t, decimal.RequireFromString("2550.40").Equal(got[1].Revenue))
	assert.True(t, decimal.RequireFromString("80").Equal(got[2].Revenue))
}

func TestTopCategories(t *testing.T) {
	a := newTestAnalytics(t)
	a.SetData([]models.SalesRecord{
		sale("O1", "pcs", "1", "C1", "SP", time.May),
		sale("O2", "pcs", "1", "C1", "SP", time.May),
		sale("O3", "audio", "1", "C1", "SP", time.May),
		sale("O4", "audio", "1", "C1", "SP", time.May),
		sale("O5", "telefonia", "1", "C1", "SP", time.May),
		sale("O6", "tablets_impressao_imagem", "1", "C1", "SP", time.May),
		sale("O7", "eletronicos", "1", "C1", "SP", time.May),
		sale("O8", "eletronicos", "1", "C1", "SP", time.May),
		sale("O9", "eletronicos", "1", "C1", "SP", time.May),
		sale("O10", "consoles_games", "1", "C1", "SP", time.May),
	}, nil)

	got := a.Filter(nil).TopCategories(DefaultTopCategories)
	require.Len(t, got, 5)
	assert.Equal(t, models.CategoryCount{Category: "eletronicos", Count: 3}, got[0])
	assert.Equal(t, models.CategoryCount{Category: "audio", Count: 2}, got[1])
	assert.Equal(t, models.CategoryCount{Category: "pcs", Count: 2}, got[2])
	assert.Equal(t, "consoles_games", got[3].Category)
	assert.Equal(t, "tablets_impressao_imagem", got[4].Category)

	assert.Len(t, a.Filter(nil).TopCategories(0), 6, "no limit returns every category")
	assert.Len(t, a.Filter(nil).TopCategories(2), 2)
}

func TestRiskMatrix(t *testing.T) {
	a := seededAnalytics(t)

	points := a.Filter([]string{"AC"}).RiskMatrix()
	require.Len(t, points, 4)
	assert.Equal(t, models.RiskPoint{CustomerID: "C2", RecencyDays: 200, Monetary: 2500.5, Churned: true}, points[1])
}

func TestRecencyHistogram(t *testing.T) {
	a := seededAnalytics(t)

	t.Run("bins cover every customer", func(t *testing.T) {
		bins := a.Filter(nil).RecencyHistogram(DefaultHistogramBins)
		require.Len(t, bins, DefaultHistogramBins)

		var churned, retained int
		for _, b := range bins {
			churned += b.Churned
			retained += b.Retained
			assert.Equal(t, b.Churned+b.Retained, b.Total())
		}
		assert.Equal(t, 2, churned)
		assert.Equal(t, 2, retained)

		assert.InDelta(t, 10, bins[0].Lower, 1e-9)
		assert.InDelta(t, 200, bins[len(bins)-1].Upper, 1e-9)
		assert.Equal(t, 1, bins[0].Retained, "recency 10 lands in the first bin")
		assert.Equal(t, 1, bins[len(bins)-1].Churned, "the maximum lands in the last bin")
	})

	t.Run("non-positive bins fall back to default", func(t *testing.T) {
		assert.Len(t, a.Filter(nil).RecencyHistogram(0), DefaultHistogramBins)
	})

	t.Run("single value", func(t *testing.T) {
		sel := Selection{Churn: []models.ChurnRecord{{RecencyDays: 7}, {RecencyDays: 7, Churned: true}}}
		bins := sel.RecencyHistogram(10)
		require.Len(t, bins, 1)
		assert.Equal(t, models.HistogramBin{Lower: 7, Upper: 8, Churned: 1, Retained: 1}, bins[0])
	})

	t.Run("no churn rows", func(t *testing.T) {
		assert.Empty(t, Selection{}.RecencyHistogram(5))
	})
}

func TestColors(t *testing.T) {
	assert.Equal(t, ColorCore, TypeColor(models.ProductCore))
	assert.Equal(t, ColorAccessory, TypeColor(models.ProductAccessory))
	assert.Equal(t, ColorChurned, ChurnColor(true))
	assert.Equal(t, ColorRetained, ChurnColor(false))
}
