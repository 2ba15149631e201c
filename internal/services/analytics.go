package services

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"tech-insights/internal/models"
)

const (
	ColorCore      = "#1f77b4"
	ColorAccessory = "#ff7f0e"
	ColorChurned   = "red"
	ColorRetained  = "blue"

	DefaultTopCategories = 5
	DefaultHistogramBins = 20
)

// Selection is the sales table narrowed to a set of states, together with the
// churn table of the whole electronics customer base. Every aggregate below is
// a pure function of it.
type Selection struct {
	States []string
	Sales  []models.SalesRecord
	Churn  []models.ChurnRecord
}

// Filter narrows sales rows to states. An empty list keeps every row; codes that
// are not present simply match nothing.
func (a *Analytics) Filter(states []string) Selection {
	data, _ := a.snapshot()

	if len(states) == 0 {
		return Selection{Sales: data.Sales, Churn: data.Churn}
	}

	wanted := make(map[string]struct{}, len(states))
	for _, st := range states {
		wanted[strings.ToUpper(strings.TrimSpace(st))] = struct{}{}
	}

	sales := make([]models.SalesRecord, 0, len(data.Sales))
	for _, s := range data.Sales {
		if _, ok := wanted[s.State]; ok {
			sales = append(sales, s)
		}
	}

	return Selection{States: states, Sales: sales, Churn: data.Churn}
}

// DefaultSelection intersects preferred with the states present in the data.
func (a *Analytics) DefaultSelection(preferred []string) []string {
	present := a.States()
	out := make([]string, 0, len(preferred))
	for _, st := range preferred {
		if _, found := slices.BinarySearch(present, st); found {
			out = append(out, st)
		}
	}
	return out
}

func (s Selection) Empty() bool {
	return len(s.Sales) == 0
}

func (s Selection) Summary() models.Summary {
	var (
		total   = decimal.Zero
		orders  = make(map[string]struct{})
		sum     models.Summary
		churned int
	)

	for _, rec := range s.Sales {
		total = total.Add(rec.Price)
		orders[rec.OrderID] = struct{}{}
		switch rec.Type {
		case models.ProductCore:
			sum.CoreCount++
		case models.ProductAccessory:
			sum.AccessoryCount++
		}
	}

	for _, c := range s.Churn {
		if c.Churned {
			churned++
		}
	}

	sum.TotalRevenue = total
	sum.Items = len(s.Sales)
	sum.Orders = len(orders)
	sum.AverageTicket = decimal.Zero
	if sum.Orders > 0 {
		sum.AverageTicket = total.Div(decimal.NewFromInt(int64(sum.Orders)))
	}

	sum.Customers = len(s.Churn)
	if sum.Customers > 0 {
		sum.ChurnRate = float64(churned) / float64(sum.Customers) * 100
	}

	if sum.CoreCount > 0 {
		sum.CrossSellRatio = float64(sum.AccessoryCount) / float64(sum.CoreCount)
	}

	return sum
}

func (s Selection) Insight() models.Insight {
	sum := s.Summary()

	insight := models.Insight{
		ChurnCaption: "A high churn rate may mean customers buy the durable item (TV/PC) and never come back for peripherals. " +
			"Post-sale email campaigns focused on accessories are recommended.",
	}

	if sum.CrossSellRatio < 1.0 {
		insight.Level = models.InsightWarning
		insight.Headline = fmt.Sprintf("Opportunity alert: only %d accessories sold for %d core products (PCs/consoles).",
			sum.AccessoryCount, sum.CoreCount)
		insight.Action = "Create bundles, e.g. a laptop purchase unlocks 20% off a mouse or backpack."
		return insight
	}

	insight.Level = models.InsightSuccess
	insight.Headline = "Cross-selling is healthy: more accessories are leaving than core products."
	return insight
}

func (s Selection) RevenueByType() []models.TypeRevenue {
	totals := make(map[models.ProductType]decimal.Decimal, 2)
	for _, rec := range s.Sales {
		totals[rec.Type] = totals[rec.Type].Add(rec.Price)
	}

	result := make([]models.TypeRevenue, 0, 2)
	for _, t := range []models.ProductType{models.ProductCore, models.ProductAccessory} {
		rev, ok := totals[t]
		if !ok {
			continue
		}
		result = append(result, models.TypeRevenue{
			Type:    t,
			Label:   t.Label(),
			Revenue: rev,
			Color:   TypeColor(t),
		})
	}
	return result
}

func TypeColor(t models.ProductType) string {
	if t == models.ProductCore {
		return ColorCore
	}
	return ColorAccessory
}

func ChurnColor(churned bool) string {
	if churned {
		return ColorChurned
	}
	return ColorRetained
}

// MonthlySales sums revenue per month bucket in chronological order.
func (s Selection) MonthlySales() []models.MonthlyData {
	totals := make(map[string]decimal.Decimal)
	for _, rec := range s.Sales {
		totals[rec.Month] = totals[rec.Month].Add(rec.Price)
	}

	result := make([]models.MonthlyData, 0, len(totals))
	for month, rev := range totals {
		result = append(result, models.MonthlyData{Month: month, Revenue: rev})
	}
	slices.SortFunc(result, func(a, b models.MonthlyData) int {
		return strings.Compare(a.Month, b.Month)
	})
	return result
}

// TopCategories counts line items per category, most sold first, ties broken
// by name.
func (s Selection) TopCategories(limit int) []models.CategoryCount {
	counts := make(map[string]int)
	for _, rec := range s.Sales {
		counts[rec.Category]++
	}

	result := make([]models.CategoryCount, 0, len(counts))
	for cat, n := range counts {
		result = append(result, models.CategoryCount{Category: cat, Count: n})
	}
	slices.SortFunc(result, func(a, b models.CategoryCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Category, b.Category)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

func (s Selection) RiskMatrix() []models.RiskPoint {
	points := make([]models.RiskPoint, 0, len(s.Churn))
	for _, c := range s.Churn {
		points = append(points, models.RiskPoint{
			CustomerID:  c.CustomerID,
			RecencyDays: c.RecencyDays,
			Monetary:    c.Monetary,
			Churned:     c.Churned,
		})
	}
	return points
}

// RecencyHistogram splits the recency range into bins equal-width buckets and
// counts churned and retained customers in each.
func (s Selection) RecencyHistogram(bins int) []models.HistogramBin {
	if len(s.Churn) == 0 {
		return []models.HistogramBin{}
	}
	if bins < 1 {
		bins = DefaultHistogramBins
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range s.Churn {
		r := float64(c.RecencyDays)
		lo = min(lo, r)
		hi = max(hi, r)
	}
	if hi == lo {
		bins = 1
		hi = lo + 1
	}

	width := (hi - lo) / float64(bins)
	result := make([]models.HistogramBin, bins)
	for i := range result {
		result[i].Lower = lo + float64(i)*width
		result[i].Upper = lo + float64(i+1)*width
	}
	result[bins-1].Upper = hi

	for _, c := range s.Churn {
		i := int((float64(c.RecencyDays) - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		if c.Churned {
			result[i].Churned++
		} else {
			result[i].Retained++
		}
	}
	return result
}
