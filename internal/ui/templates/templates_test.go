package templates

import (
	"context"
	"encoding/json"
	"html"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tech-insights/internal/charts"
	"tech-insights/internal/models"
	"tech-insights/internal/services"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	out, err := Render(context.Background(), c)
	require.NoError(t, err)
	return out
}

type pageSignals struct {
	States []string                  `json:"states"`
	Charts map[string]map[string]any `json:"charts"`
}

// signalsOf decodes the data-signals attribute of the page body.
func signalsOf(t *testing.T, body string) pageSignals {
	t.Helper()
	m := regexp.MustCompile(`<body data-signals="([^"]*)"`).FindStringSubmatch(body)
	require.Len(t, m, 2)
	var sig pageSignals
	require.NoError(t, json.Unmarshal([]byte(html.UnescapeString(m[1])), &sig))
	return sig
}

func testView() DashboardView {
	sum := models.Summary{
		TotalRevenue:   decimal.RequireFromString("1234567.891"),
		Orders:         10,
		AverageTicket:  decimal.RequireFromString("123456.79"),
		ChurnRate:      42.26,
		Customers:      8,
		CoreCount:      4,
		AccessoryCount: 2,
		CrossSellRatio: 0.5,
	}
	return DashboardView{
		States:   []string{"MG", "RJ", "SP"},
		Selected: []string{"SP", "RJ"},
		Summary:  sum,
		Insight: models.Insight{
			Level:        models.InsightWarning,
			Headline:     "Opportunity alert: only 2 accessories sold for 4 core products (PCs/consoles).",
			Action:       "Create bundles",
			ChurnCaption: "caption",
		},
		Charts: []charts.Chart{
			charts.TopCategories([]models.CategoryCount{{Category: "pcs", Count: 3}}),
			charts.RiskMatrix([]models.RiskPoint{{RecencyDays: 3, Monetary: 10}}),
		},
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "R$ 1,234,567.89", FormatMoney(decimal.RequireFromString("1234567.891")))
	assert.Equal(t, "R$ 0.00", FormatMoney(decimal.Zero))
	assert.Equal(t, "42.3%", FormatPercent(42.26))
	assert.Equal(t, "0.50", FormatRatio(0.5))
	assert.Equal(t, "1,611", FormatUnits(1611))
}

func TestDashboard(t *testing.T) {
	body := renderString(t, Dashboard(testView()))

	assert.Contains(t, body, "Management dashboard")
	assert.Contains(t, body, `id="dashboard-content"`)
	assert.Contains(t, body, "R$ 1,234,567.89")
	assert.Contains(t, body, "42.3%")
	assert.Contains(t, body, "0.50")
	assert.Contains(t, body, "only 2 accessories sold for 4 core products")
	assert.Contains(t, body, `class="alert warning"`)
	assert.Contains(t, body, `id="chart-top-categories"`)
	assert.Contains(t, body, `$charts.topCategories`)
	assert.Contains(t, body, `/charts/risk-matrix.png`)
	assert.NotContains(t, body, `id="chart-monthly-sales"`, "charts not in the view are not drawn")

	// checkbox state
	assert.Regexp(t, regexp.MustCompile(`value="SP" data-bind:states\s+checked`), body)
	assert.NotRegexp(t, regexp.MustCompile(`value="MG" data-bind:states\s+checked`), body)

	sig := signalsOf(t, body)
	assert.Equal(t, []string{"SP", "RJ"}, sig.States)
	assert.Contains(t, sig.Charts, "topCategories")
	assert.Contains(t, body, `href="/export/dashboard.xlsx?states=SP%2CRJ"`)
	assert.Contains(t, body, `<a href="/" class="active">`)
	assert.Equal(t, "scatter", sig.Charts["riskMatrix"]["type"])
}

func TestDashboard_Error(t *testing.T) {
	v := DashboardView{States: []string{"SP"}, Error: MissingDataMessage}
	body := renderString(t, Dashboard(v))

	assert.Contains(t, body, MissingDataMessage)
	assert.Contains(t, body, `class="alert error"`)
	assert.NotContains(t, body, `id="kpis"`)
	sig := signalsOf(t, body)
	assert.NotNil(t, sig.States, "empty selection still serialises as an array")
	assert.Empty(t, sig.States)
	assert.Empty(t, sig.Charts)
}

func TestDashboardContent(t *testing.T) {
	body := renderString(t, DashboardContent(testView()))
	assert.True(t, strings.HasPrefix(strings.TrimSpace(body), `<div id="dashboard-content">`))
	assert.NotContains(t, body, "<html")

	v := testView()
	v.Summary.Customers = 0
	body = renderString(t, DashboardContent(v))
	assert.NotContains(t, body, "Customer profile", "the risk section needs churn rows")
}

func TestFragments(t *testing.T) {
	cards := renderString(t, kpis(models.Summary{TotalRevenue: decimal.NewFromInt(5)}))
	assert.Contains(t, cards, `id="kpis"`)
	assert.Contains(t, cards, "R$ 5.00")

	insight := renderString(t, insightPanel(models.Insight{Level: models.InsightSuccess, Headline: "healthy <b>"}))
	assert.Contains(t, insight, `class="alert success"`)
	assert.Contains(t, insight, "healthy &lt;b&gt;")
	assert.NotContains(t, insight, "Suggested action")

	banner := renderString(t, errorBanner("boom"))
	assert.Contains(t, banner, `id="dashboard-content"`)
	assert.Contains(t, banner, "boom")

	assert.Empty(t, renderString(t, chartCanvas(nil)))

	c := charts.Chart{Name: "top-categories", Title: `Top "5" <categories>`}
	canvas := renderString(t, chartCanvas(&c))
	assert.Contains(t, canvas, `aria-label="Top &#34;5&#34; &lt;categories&gt;"`)
	assert.Contains(t, canvas, `src="/charts/top-categories.png"`)
}

func TestInventory(t *testing.T) {
	inv := services.NewInventory()
	highest, ok := inv.HighestRisk()
	require.True(t, ok)
	chart := charts.InventoryGap(inv.Long())

	body := renderString(t, Inventory(InventoryView{
		Items:   inv.Items(),
		Highest: &highest,
		Chart:   &chart,
	}))

	assert.Contains(t, body, "stock-out monitor")
	assert.Contains(t, body, "Highest risk: Eletronicos")
	assert.Contains(t, body, "318 units")
	assert.Contains(t, body, "-57 short")
	assert.Contains(t, body, `<tr class="highlight"><td>Eletronicos</td>`)
	assert.Equal(t, 1, strings.Count(body, `class="highlight"`))
	assert.Contains(t, body, `@post('/sse/restock')`)
	assert.Contains(t, body, `$charts.inventory`)
	assert.Contains(t, body, "CRITICAL")
}

func TestRestockConfirmation(t *testing.T) {
	order := services.NewInventory().NewRestockOrder(time.Now())
	body := renderString(t, RestockConfirmation(order))

	assert.Contains(t, body, `id="restock-result"`)
	assert.Contains(t, body, order.ID)
	assert.Contains(t, body, "161 units across 5 categories")
	assert.Contains(t, body, "/inventory/orders/"+order.ID+".xlsx")
}

func TestRender_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Render(ctx, kpis(models.Summary{}))
	assert.ErrorIs(t, err, context.Canceled)
}
