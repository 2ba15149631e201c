package templates

import (
	"strconv"

	"github.com/a-h/templ"

	"tech-insights/internal/models"
)

func Inventory(v InventoryView) templ.Component {
	return page("Stock-out monitor", navInventory, v.Signals(), component(func(hw *htmlWriter) {
		hw.raw("<div class=\"layout\">\n<aside>\n<h3>From stock to loyalty</h3>\n",
			"<p>Predicting <strong>churn</strong> is pointless if customers cannot find what they want to buy. ",
			"The platform joins operational stock management with customer retention.</p>\n",
			"<ul>\n",
			"<li>🚫 <strong>The problem:</strong> a stock-out frustrates the customer and raises the risk of cancellation.</li>\n",
			"<li>✅ <strong>The solution:</strong> the monitor uses <strong>AI</strong> to cross current stock with predicted demand.</li>\n",
			"</ul>\n</aside>\n<main>\n",
			"<h1>📈 Commercial intelligence: stock-out monitor</h1>\n",
			"<section class=\"panel\">\n")
		hw.render(chartCanvas(v.Chart))
		hw.raw("</section>\n<section class=\"panel\">\n<h2>⚠️ Immediate action alert</h2>\n<div class=\"grid-insight\">\n<div>\n")

		if it := v.Highest; it != nil {
			hw.raw("<div class=\"kpi\">\n<div class=\"label\">Highest risk: ")
			hw.text(it.Category)
			hw.raw("</div>\n<div class=\"value\">")
			hw.text(strconv.Itoa(it.CurrentStock))
			hw.raw(" units</div>\n<div class=\"delta inverse\">-")
			hw.text(strconv.Itoa(it.Shortfall))
			hw.raw(" short</div>\n</div>\n")
		}
		hw.raw(`<p><button class="primary" data-on:click="@post('/sse/restock')">Generate restock order 🚀</button></p>`, "\n",
			`<div id="restock-result"></div>`, "\n</div>\n<div>\n",
			`<div class="alert info">The categories below are at <strong>risk of stock-out</strong>: the AI predicted demand is higher than the physical stock.</div>`, "\n")
		hw.render(inventoryTable(v))
		hw.raw("</div>\n</div>\n</section>\n</main>\n</div>\n")
	}))
}

func inventoryTable(v InventoryView) templ.Component {
	return component(func(hw *htmlWriter) {
		hw.raw("<table>\n<thead><tr><th>Category</th><th>Predicted demand (AI)</th><th>Current stock</th><th>Shortfall</th><th>Status</th></tr></thead>\n<tbody>\n")
		for _, it := range v.Items {
			hw.raw("<tr")
			if v.IsHighest(it) {
				hw.raw(` class="highlight"`)
			}
			hw.raw("><td>")
			hw.text(it.Category)
			hw.raw("</td><td>")
			hw.text(strconv.Itoa(it.PredictedDemand))
			hw.raw("</td><td>")
			hw.text(strconv.Itoa(it.CurrentStock))
			hw.raw("</td><td>")
			hw.text(strconv.Itoa(it.Shortfall))
			hw.raw("</td><td>")
			hw.text(string(it.Status))
			hw.raw("</td></tr>\n")
		}
		hw.raw("</tbody>\n</table>\n")
	})
}

// RestockConfirmation replaces #restock-result once an order is created.
func RestockConfirmation(order models.RestockOrder) templ.Component {
	return component(func(hw *htmlWriter) {
		hw.raw(`<div id="restock-result" class="alert success">`, "\nRestock order <code>")
		hw.text(order.ID)
		hw.raw("</code> created: ")
		hw.text(FormatUnits(order.TotalUnits()))
		hw.raw(" units across ")
		hw.text(strconv.Itoa(len(order.Lines)))
		hw.raw(" categories.\n", `<a href="`)
		hw.url("/inventory/orders/" + order.ID + ".xlsx")
		hw.raw("\">Download workbook</a>\n</div>\n")
	})
}
