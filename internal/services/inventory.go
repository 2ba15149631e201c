package services

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"tech-insights/internal/models"
)

const (
	MetricDemand = "Predicted demand (AI)"
	MetricStock  = "Current stock"

	ColorDemand = "#3498db"
	ColorStock  = "#c0392b"
)

var ErrOrderNotFound = errors.New("restock order not found")

// fixedInventory mirrors the forecast snapshot the stock-out monitor was built
// around: category, predicted demand, current stock.
var fixedInventory = []struct {
	category string
	demand   int
	stock    int
}{
	{"Informatica_Ace", 55, 46},
	{"Telefonia", 132, 112},
	{"Eletronicos", 375, 318},
	{"Relogios_Presen", 285, 242},
	{"Consoles_Games", 208, 176},
}

type Inventory struct {
	items []models.InventoryItem
}

func NewInventory() *Inventory {
	items := make([]models.InventoryItem, 0, len(fixedInventory))
	for _, row := range fixedInventory {
		items = append(items, NewInventoryItem(row.category, row.demand, row.stock))
	}
	return &Inventory{items: items}
}

// NewInventoryItem derives the shortfall and status columns.
func NewInventoryItem(category string, demand, stock int) models.InventoryItem {
	status := models.StatusOK
	if stock < demand {
		status = models.StatusCritical
	}
	return models.InventoryItem{
		Category:        category,
		PredictedDemand: demand,
		CurrentStock:    stock,
		Shortfall:       demand - stock,
		Status:          status,
	}
}

func (inv *Inventory) Items() []models.InventoryItem {
	return slices.Clone(inv.items)
}

// Long returns the table in long format: one row per category and metric.
func (inv *Inventory) Long() []models.InventoryMetric {
	long := make([]models.InventoryMetric, 0, 2*len(inv.items))
	for _, item := range inv.items {
		long = append(long,
			models.InventoryMetric{Category: item.Category, Metric: MetricDemand, Quantity: item.PredictedDemand, Color: ColorDemand},
			models.InventoryMetric{Category: item.Category, Metric: MetricStock, Quantity: item.CurrentStock, Color: ColorStock},
		)
	}
	return long
}

// HighestRisk returns the item with the largest shortfall; the first one wins a
// tie. ok is false for an empty table.
func (inv *Inventory) HighestRisk() (item models.InventoryItem, ok bool) {
	for i, it := range inv.items {
		if i == 0 || it.Shortfall > item.Shortfall {
			item = it
		}
	}
	return item, len(inv.items) > 0
}

func (inv *Inventory) Critical() []models.InventoryItem {
	var out []models.InventoryItem
	for _, it := range inv.items {
		if it.Status == models.StatusCritical {
			out = append(out, it)
		}
	}
	return out
}

// NewRestockOrder orders the shortfall of every critical item.
func (inv *Inventory) NewRestockOrder(now time.Time) models.RestockOrder {
	critical := inv.Critical()
	lines := make([]models.RestockLine, 0, len(critical))
	for _, it := range critical {
		lines = append(lines, models.RestockLine{
			Category:     it.Category,
			CurrentStock: it.CurrentStock,
			Quantity:     it.Shortfall,
		})
	}
	return models.RestockOrder{
		ID:        uuid.NewString(),
		CreatedAt: now.UTC(),
		Lines:     lines,
	}
}

// OrderBook keeps the restock orders generated during the process lifetime so
// their workbooks can be downloaded after the confirmation is shown.
type OrderBook struct {
	mu     sync.RWMutex
	orders map[string]models.RestockOrder
}

func NewOrderBook() *OrderBook {
	return &OrderBook{orders: make(map[string]models.RestockOrder)}
}

func (b *OrderBook) Put(order models.RestockOrder) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders[order.ID] = order
}

func (b *OrderBook) Get(id string) (models.RestockOrder, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	order, ok := b.orders[id]
	if !ok {
		return models.RestockOrder{}, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	return order, nil
}

func (b *OrderBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.orders)
}
