package templates

import (
	"net/url"

	"github.com/a-h/templ"

	"tech-insights/internal/charts"
	"tech-insights/internal/models"
)

func Dashboard(v DashboardView) templ.Component {
	return page("Sales & retention", navDashboard, v.Signals(), component(func(hw *htmlWriter) {
		hw.raw("<div class=\"layout\">\n<aside>\n<h3>Tech Insights</h3>\n",
			"<p><strong>Project strategy:</strong> this dashboard focuses on the <strong>electronics</strong> niche only.</p>\n",
			"<ol>\n",
			"<li><strong>Average ticket:</strong> electronics carry higher value and call for different credit and instalment analysis.</li>\n",
			"<li><strong>Life cycle:</strong> churn in technology differs from commodities. High recency is expected: nobody buys a TV every month.</li>\n",
			"</ol>\n<hr>\n<h4>Filter state (UF)</h4>\n")
		hw.render(stateFilter(v))

		hw.raw(`<p><a href="`)
		hw.url("/export/dashboard.xlsx?states=" + url.QueryEscape(v.SelectedParam()))
		hw.raw(`" data-attr:href="'/export/dashboard.xlsx?states=' + $states.join(',')">Download workbook</a></p>`,
			"\n</aside>\n<main>\n")
		hw.render(DashboardContent(v))
		hw.raw("</main>\n</div>\n")
	}))
}

// stateFilter is the checkbox list bound to the states signal. Any change
// refreshes the dashboard over SSE.
func stateFilter(v DashboardView) templ.Component {
	return component(func(hw *htmlWriter) {
		hw.raw(`<form id="filters" class="states" data-on:change="@get('/sse/dashboard')">`, "\n")
		for _, st := range v.States {
			hw.raw(`<label><input type="checkbox" value="`)
			hw.text(st)
			hw.raw(`" data-bind:states`)
			if v.IsSelected(st) {
				hw.raw(" checked")
			}
			hw.raw("> ")
			hw.text(st)
			hw.raw("</label>\n")
		}
		hw.raw("</form>\n")
	})
}

// DashboardContent is the part of the dashboard below the title bar. It
// carries id "dashboard-content" in both its normal and its error form.
func DashboardContent(v DashboardView) templ.Component {
	if v.Error != "" {
		return errorBanner(v.Error)
	}

	return component(func(hw *htmlWriter) {
		hw.raw("<div id=\"dashboard-content\">\n",
			"<h1>⚡ Management dashboard: sales &amp; retention (tech)</h1>\n",
			"<p>Consolidated view of commercial performance and customer base health.</p>\n")
		hw.render(kpis(v.Summary))

		hw.raw("<section class=\"panel\">\n<h2>📊 Strategic analysis &amp; opportunities</h2>\n<div class=\"grid-insight\">\n")
		hw.render(insightPanel(v.Insight))
		hw.render(chartCanvas(v.Chart(charts.NameRevenueByType)))
		hw.raw("</div>\n</section>\n")

		hw.raw("<section class=\"panel\">\n<h2>📈 Operational performance</h2>\n<div class=\"grid-2\">\n")
		hw.render(chartCanvas(v.Chart(charts.NameMonthlySales)))
		hw.render(chartCanvas(v.Chart(charts.NameTopCategories)))
		hw.raw("</div>\n</section>\n")

		if v.Summary.Customers > 0 {
			hw.raw("<section class=\"panel\">\n<h2>👥 Customer profile &amp; risk (RFM)</h2>\n<div class=\"grid-2\">\n")
			hw.render(chartCanvas(v.Chart(charts.NameRiskMatrix)))
			hw.render(chartCanvas(v.Chart(charts.NameRecencyHistogram)))
			hw.raw("</div>\n</section>\n")
		}
		hw.raw("</div>\n")
	})
}

func kpis(s models.Summary) templ.Component {
	card := func(hw *htmlWriter, title, label, value, delta string) {
		hw.raw(`<div class="kpi"`)
		if title != "" {
			hw.raw(` title="`)
			hw.text(title)
			hw.raw(`"`)
		}
		hw.raw(`><div class="label">`)
		hw.text(label)
		hw.raw(`</div><div class="value">`)
		hw.text(value)
		hw.raw("</div>")
		if delta != "" {
			hw.raw(`<div class="delta">`)
			hw.text(delta)
			hw.raw("</div>")
		}
		hw.raw("</div>\n")
	}

	return component(func(hw *htmlWriter) {
		hw.raw("<div id=\"kpis\" class=\"kpis\">\n")
		card(hw, "", "Total revenue", FormatMoney(s.TotalRevenue), "")
		card(hw, "", "Average ticket (tech)", FormatMoney(s.AverageTicket), "High added value")
		card(hw, "Based on recency above 140 days", "Estimated churn rate", FormatPercent(s.ChurnRate), "")
		card(hw, "For each core product we sell X accessories", "Accessory/core ratio", FormatRatio(s.CrossSellRatio), "")
		hw.raw("</div>\n")
	})
}

func insightPanel(i models.Insight) templ.Component {
	return component(func(hw *htmlWriter) {
		hw.raw("<div id=\"insight\">\n<h3>💡 Automatic insights</h3>\n", `<div class="alert `)
		hw.text(string(i.Level))
		hw.raw(`">`)
		hw.text(i.Headline)
		hw.raw("</div>\n")
		if i.Action != "" {
			hw.raw("<p>👉 <strong>Suggested action:</strong> ")
			hw.text(i.Action)
			hw.raw("</p>\n")
		}
		hw.raw("<hr>\n<p><strong>Churn analysis:</strong></p>\n<p><small>")
		hw.text(i.ChurnCaption)
		hw.raw("</small></p>\n</div>\n")
	})
}

func errorBanner(message string) templ.Component {
	return component(func(hw *htmlWriter) {
		hw.raw("<div id=\"dashboard-content\">\n", `<div class="alert error" role="alert">`)
		hw.text(message)
		hw.raw("</div>\n</div>\n")
	})
}
