package models

import "time"

type StockStatus string

const (
	StatusCritical StockStatus = "CRITICAL"
	StatusOK       StockStatus = "OK"
)

type InventoryItem struct {
	Category        string      `json:"category"`
	PredictedDemand int         `json:"predicted_demand"`
	CurrentStock    int         `json:"current_stock"`
	Shortfall       int         `json:"shortfall"`
	Status          StockStatus `json:"status"`
}

// InventoryMetric is one row of the long (melted) inventory table that feeds the
// grouped bar chart.
type InventoryMetric struct {
	Category string `json:"category"`
	Metric   string `json:"metric"`
	Quantity int    `json:"quantity"`
	Color    string `json:"color"`
}

type RestockLine struct {
	Category     string `json:"category"`
	CurrentStock int    `json:"current_stock"`
	Quantity     int    `json:"quantity"`
}

type RestockOrder struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	Lines     []RestockLine `json:"lines"`
}

func (o RestockOrder) TotalUnits() int {
	total := 0
	for _, l := range o.Lines {
		total += l.Quantity
	}
	return total
}
