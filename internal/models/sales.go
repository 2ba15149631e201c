package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductType string

const (
	ProductCore      ProductType = "Core"
	ProductAccessory ProductType = "Accessory"
)

func (p ProductType) Label() string {
	switch p {
	case ProductCore:
		return "Core (main product)"
	case ProductAccessory:
		return "Accessory (cross-sell)"
	default:
		return string(p)
	}
}

// SalesRecord is one order line item. Month and Type are derived at load time.
type SalesRecord struct {
	OrderID     string          `json:"order_id"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	PurchasedAt time.Time       `json:"purchased_at"`
	CustomerID  string          `json:"customer_id"`
	State       string          `json:"state"`
	Month       string          `json:"month"`
	Type        ProductType     `json:"type"`
}

// ChurnRecord is one customer from the churn analysis export.
type ChurnRecord struct {
	CustomerID  string  `json:"customer_id"`
	RecencyDays int     `json:"recency_days"`
	Monetary    float64 `json:"monetary"`
	Churned     bool    `json:"churned"`
}
