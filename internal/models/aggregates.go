package models

import "github.com/shopspring/decimal"

type Summary struct {
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	Orders         int             `json:"orders"`
	Items          int             `json:"items"`
	AverageTicket  decimal.Decimal `json:"average_ticket"`
	ChurnRate      float64         `json:"churn_rate"`
	Customers      int             `json:"customers"`
	CoreCount      int             `json:"core_count"`
	AccessoryCount int             `json:"accessory_count"`
	CrossSellRatio float64         `json:"cross_sell_ratio"`
}

type InsightLevel string

const (
	InsightWarning InsightLevel = "warning"
	InsightSuccess InsightLevel = "success"
)

type Insight struct {
	Level        InsightLevel `json:"level"`
	Headline     string       `json:"headline"`
	Action       string       `json:"action,omitempty"`
	ChurnCaption string       `json:"churn_caption"`
}

type TypeRevenue struct {
	Type    ProductType     `json:"type"`
	Label   string          `json:"label"`
	Revenue decimal.Decimal `json:"revenue"`
	Color   string          `json:"color"`
}

type MonthlyData struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type RiskPoint struct {
	CustomerID  string  `json:"customer_id"`
	RecencyDays int     `json:"recency_days"`
	Monetary    float64 `json:"monetary"`
	Churned     bool    `json:"churned"`
}

// HistogramBin covers [Lower, Upper); the last bin also includes Upper.
type HistogramBin struct {
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
	Churned  int     `json:"churned"`
	Retained int     `json:"retained"`
}

func (b HistogramBin) Total() int {
	return b.Churned + b.Retained
}
