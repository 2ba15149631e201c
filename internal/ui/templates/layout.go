package templates

import (
	"github.com/a-h/templ"

	"tech-insights/internal/charts"
)

const headAssets = `<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"></script>
<script src="https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"></script>
<script>
window.drawChart = function (el, config) {
  if (!el || !config || !window.Chart) { return; }
  if (el._chart) { el._chart.destroy(); }
  el._chart = new Chart(el, JSON.parse(JSON.stringify(config)));
};
</script>
<style>
body { font-family: system-ui, sans-serif; margin: 0; background: #f5f6f8; color: #222; }
header { background: #1f2937; color: #fff; padding: 0.75rem 1.5rem; display: flex; gap: 1.5rem; align-items: center; }
header a { color: #cbd5e1; text-decoration: none; }
header a.active { color: #fff; font-weight: 600; }
.layout { display: grid; grid-template-columns: 260px 1fr; gap: 1.5rem; padding: 1.5rem; }
aside { background: #fff; border-radius: 8px; padding: 1rem; font-size: 0.9rem; }
main { min-width: 0; }
.kpis { display: grid; grid-template-columns: repeat(4, 1fr); gap: 1rem; }
.kpi { background: #fff; border-radius: 8px; padding: 1rem; }
.kpi .label { color: #6b7280; font-size: 0.85rem; }
.kpi .value { font-size: 1.6rem; font-weight: 600; }
.kpi .delta { font-size: 0.8rem; color: #15803d; }
.kpi .delta.inverse { color: #b91c1c; }
.panel { background: #fff; border-radius: 8px; padding: 1rem; margin-top: 1rem; }
.grid-2 { display: grid; grid-template-columns: 1fr 1fr; gap: 1rem; }
.grid-insight { display: grid; grid-template-columns: 1fr 2fr; gap: 1rem; }
.chart { position: relative; height: 340px; }
.alert { border-radius: 6px; padding: 0.75rem 1rem; }
.alert.warning { background: #fef3c7; }
.alert.success { background: #dcfce7; }
.alert.error { background: #fee2e2; color: #991b1b; }
.alert.info { background: #dbeafe; }
table { width: 100%; border-collapse: collapse; }
th, td { text-align: left; padding: 0.4rem 0.6rem; border-bottom: 1px solid #e5e7eb; }
tr.highlight td { background: #ffcccc; }
.states { display: flex; flex-wrap: wrap; gap: 0.4rem; }
.states label { width: 3.5rem; }
button.primary { background: #dc2626; color: #fff; border: 0; border-radius: 6px; padding: 0.6rem 1rem; cursor: pointer; }
</style>
`

const (
	navDashboard = "dashboard"
	navInventory = "inventory"
)

// page wraps body in the document shell: head, navigation bar and a body
// element seeded with the datastar signals.
func page(title, active string, signals map[string]any, body templ.Component) templ.Component {
	return component(func(hw *htmlWriter) {
		hw.raw("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n",
			"<meta charset=\"utf-8\">\n",
			"<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n",
			"<title>")
		hw.text(title)
		hw.raw(" · Tech Insights</title>\n", headAssets, "</head>\n")

		hw.raw(`<body data-signals="`)
		hw.json(signals)
		hw.raw("\">\n")
		hw.render(nav(active))
		hw.render(body)
		hw.raw("</body>\n</html>\n")
	})
}

func nav(active string) templ.Component {
	link := func(hw *htmlWriter, href, name, label string) {
		hw.raw(`<a href="`)
		hw.url(href)
		hw.raw(`"`)
		if name == active {
			hw.raw(` class="active"`)
		}
		hw.raw(">")
		hw.text(label)
		hw.raw("</a>\n")
	}

	return component(func(hw *htmlWriter) {
		hw.raw("<header>\n<strong>⚡ Tech Insights</strong>\n")
		link(hw, "/", navDashboard, "Sales & retention")
		link(hw, "/inventory", navInventory, "Stock-out monitor")
		hw.raw("</header>\n")
	})
}

// chartCanvas draws c in the browser from the charts signal and falls back to
// the server-rendered PNG without JavaScript. A nil chart renders nothing.
func chartCanvas(c *charts.Chart) templ.Component {
	return component(func(hw *htmlWriter) {
		if c == nil {
			return
		}
		hw.raw("<div class=\"chart\">\n", `<canvas id="chart-`)
		hw.text(c.Name)
		hw.raw(`" aria-label="`)
		hw.text(c.Title)
		hw.raw(`" data-effect="drawChart(el, $charts.`)
		hw.text(charts.SignalKey(c.Name))
		hw.raw(`)"></canvas>`, "\n", `<noscript><img src="`)
		hw.url("/charts/" + c.Name + ".png")
		hw.raw(`" alt="`)
		hw.text(c.Title)
		hw.raw("\"></noscript>\n</div>\n")
	})
}
