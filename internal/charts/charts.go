// Package charts turns dashboard aggregates into renderer-neutral chart descriptions. A Chart
// is drawn in the browser through its Chart.js config and on the server as a
// PNG.
package charts

import (
	"fmt"
	"slices"
	"strings"

	"tech-insights/internal/models"
	"tech-insights/internal/services"
)

type Kind string

const (
	KindBar     Kind = "bar"
	KindLine    Kind = "line"
	KindScatter Kind = "scatter"
)

// Chart names are also the path segment of /charts/{name}.png.
const (
	NameRevenueByType    = "revenue-by-type"
	NameMonthlySales     = "monthly-sales"
	NameTopCategories    = "top-categories"
	NameRiskMatrix       = "risk-matrix"
	NameRecencyHistogram = "recency-histogram"
	NameInventory        = "inventory"
)

var names = []string{
	NameRevenueByType,
	NameMonthlySales,
	NameTopCategories,
	NameRiskMatrix,
	NameRecencyHistogram,
	NameInventory,
}

func Names() []string {
	return slices.Clone(names)
}

func Known(name string) bool {
	return slices.Contains(names, name)
}

// SignalKey is the camel-cased chart name used under the `charts` signal.
func SignalKey(name string) string {
	parts := strings.Split(name, "-")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

// Signals maps each chart's signal key to its Chart.js config.
func Signals(cs ...Chart) map[string]any {
	out := make(map[string]any, len(cs))
	for _, c := range cs {
		out[SignalKey(c.Name)] = c.ChartJS()
	}
	return out
}

type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label,omitempty"`
}

// Dataset is one series. Bar and line series use Data, aligned with the chart
// Labels; scatter series use Points. Colors, when set, colors each bar on its
// own.
type Dataset struct {
	Label  string    `json:"label"`
	Data   []float64 `json:"data,omitempty"`
	Points []Point   `json:"points,omitempty"`
	Color  string    `json:"color"`
	Colors []string  `json:"colors,omitempty"`
}

type Chart struct {
	Name       string    `json:"name"`
	Kind       Kind      `json:"kind"`
	Title      string    `json:"title"`
	XLabel     string    `json:"x_label,omitempty"`
	YLabel     string    `json:"y_label,omitempty"`
	Labels     []string  `json:"labels,omitempty"`
	Datasets   []Dataset `json:"datasets"`
	Horizontal bool      `json:"horizontal,omitempty"`
	Stacked    bool      `json:"stacked,omitempty"`
	LogY       bool      `json:"log_y,omitempty"`
}

// Empty reports whether the chart has nothing to draw.
func (c Chart) Empty() bool {
	for _, ds := range c.Datasets {
		if len(ds.Data) > 0 || len(ds.Points) > 0 {
			return false
		}
	}
	return true
}

func RevenueByType(rows []models.TypeRevenue) Chart {
	ds := Dataset{Label: "Revenue (R$)"}
	labels := make([]string, 0, len(rows))
	for _, r := range rows {
		labels = append(labels, r.Label)
		ds.Data = append(ds.Data, r.Revenue.InexactFloat64())
		ds.Colors = append(ds.Colors, r.Color)
	}
	if len(ds.Colors) > 0 {
		ds.Color = ds.Colors[0]
	}

	return Chart{
		Name:       NameRevenueByType,
		Kind:       KindBar,
		Title:      "Revenue: core products vs accessories",
		XLabel:     "Revenue (R$)",
		Labels:     labels,
		Datasets:   []Dataset{ds},
		Horizontal: true,
	}
}

func MonthlySales(rows []models.MonthlyData) Chart {
	ds := Dataset{Label: "Revenue (R$)", Color: services.ColorCore}
	labels := make([]string, 0, len(rows))
	for _, r := range rows {
		labels = append(labels, r.Month)
		ds.Data = append(ds.Data, r.Revenue.InexactFloat64())
	}

	return Chart{
		Name:     NameMonthlySales,
		Kind:     KindLine,
		Title:    "Monthly sales",
		XLabel:   "Month",
		YLabel:   "Revenue (R$)",
		Labels:   labels,
		Datasets: []Dataset{ds},
	}
}

func TopCategories(rows []models.CategoryCount) Chart {
	ds := Dataset{Label: "Items sold", Color: services.ColorCore}
	labels := make([]string, 0, len(rows))
	for _, r := range rows {
		labels = append(labels, r.Category)
		ds.Data = append(ds.Data, float64(r.Count))
	}

	return Chart{
		Name:     NameTopCategories,
		Kind:     KindBar,
		Title:    fmt.Sprintf("Top %d categories", len(rows)),
		YLabel:   "Items sold",
		Labels:   labels,
		Datasets: []Dataset{ds},
	}
}

// RiskMatrix plots recency against monetary value on a log axis. Points whose
// monetary value is not positive cannot be placed on that axis and are left
// out.
func RiskMatrix(points []models.RiskPoint) Chart {
	churned := Dataset{Label: "Churned", Color: services.ChurnColor(true)}
	retained := Dataset{Label: "Retained", Color: services.ChurnColor(false)}

	for _, p := range points {
		if p.Monetary <= 0 {
			continue
		}
		pt := Point{X: float64(p.RecencyDays), Y: p.Monetary, Label: p.CustomerID}
		if p.Churned {
			churned.Points = append(churned.Points, pt)
		} else {
			retained.Points = append(retained.Points, pt)
		}
	}

	return Chart{
		Name:     NameRiskMatrix,
		Kind:     KindScatter,
		Title:    "Risk matrix: recency vs monetary value",
		XLabel:   "Days since last purchase",
		YLabel:   "Monetary value (R$)",
		Datasets: []Dataset{retained, churned},
		LogY:     true,
	}
}

func RecencyHistogram(bins []models.HistogramBin) Chart {
	churned := Dataset{Label: "Churned", Color: services.ChurnColor(true)}
	retained := Dataset{Label: "Retained", Color: services.ChurnColor(false)}
	labels := make([]string, 0, len(bins))
	for _, b := range bins {
		labels = append(labels, fmt.Sprintf("%.0f-%.0f", b.Lower, b.Upper))
		churned.Data = append(churned.Data, float64(b.Churned))
		retained.Data = append(retained.Data, float64(b.Retained))
	}

	return Chart{
		Name:     NameRecencyHistogram,
		Kind:     KindBar,
		Title:    "Recency distribution by churn",
		XLabel:   "Days since last purchase",
		YLabel:   "Customers",
		Labels:   labels,
		Datasets: []Dataset{retained, churned},
		Stacked:  true,
	}
}

// InventoryGap groups the long inventory table by metric: one dataset per
// metric, one bar per category, categories in first-seen order.
func InventoryGap(rows []models.InventoryMetric) Chart {
	var (
		labels   []string
		datasets []Dataset
		catIndex = map[string]int{}
		dsIndex  = map[string]int{}
	)

	for _, r := range rows {
		if _, ok := catIndex[r.Category]; !ok {
			catIndex[r.Category] = len(labels)
			labels = append(labels, r.Category)
		}
		if _, ok := dsIndex[r.Metric]; !ok {
			dsIndex[r.Metric] = len(datasets)
			datasets = append(datasets, Dataset{Label: r.Metric, Color: r.Color})
		}
	}

	for i := range datasets {
		datasets[i].Data = make([]float64, len(labels))
	}
	for _, r := range rows {
		datasets[dsIndex[r.Metric]].Data[catIndex[r.Category]] = float64(r.Quantity)
	}

	return Chart{
		Name:     NameInventory,
		Kind:     KindBar,
		Title:    "Predicted demand vs current stock",
		YLabel:   "Units",
		Labels:   labels,
		Datasets: datasets,
	}
}

// Dashboard builds every chart of the sales dashboard for a selection.
func Dashboard(sel services.Selection) []Chart {
	return []Chart{
		RevenueByType(sel.RevenueByType()),
		MonthlySales(sel.MonthlySales()),
		TopCategories(sel.TopCategories(services.DefaultTopCategories)),
		RiskMatrix(sel.RiskMatrix()),
		RecencyHistogram(sel.RecencyHistogram(services.DefaultHistogramBins)),
	}
}

// Build returns the named chart. ok is false for an unknown name.
func Build(name string, sel services.Selection, inv *services.Inventory) (Chart, bool) {
	switch name {
	case NameRevenueByType:
		return RevenueByType(sel.RevenueByType()), true
	case NameMonthlySales:
		return MonthlySales(sel.MonthlySales()), true
	case NameTopCategories:
		return TopCategories(sel.TopCategories(services.DefaultTopCategories)), true
	case NameRiskMatrix:
		return RiskMatrix(sel.RiskMatrix()), true
	case NameRecencyHistogram:
		return RecencyHistogram(sel.RecencyHistogram(services.DefaultHistogramBins)), true
	case NameInventory:
		return InventoryGap(inv.Long()), true
	default:
		return Chart{}, false
	}
}
