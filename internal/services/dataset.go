package services

import (
	"context"
	"encoding/csv"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"tech-insights/internal/catalog"
	"tech-insights/internal/models"
)

const (
	cacheVersion    = "v2"
	ctxCheckEvery   = 5000
	defaultCacheDir = ".cache"
)

var (
	// ErrDataUnavailable marks a load that failed because an input file is
	// missing. The dashboard shows its error banner while it is set.
	ErrDataUnavailable = errors.New("data unavailable")
	ErrInvalidSchema   = errors.New("invalid csv schema")
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

const (
	colOrderID    = "order_id"
	colCategory   = "product_category_name"
	colPrice      = "price"
	colPurchased  = "order_purchase_timestamp"
	colCustomer   = "customer_unique_id"
	colState      = "customer_state"
	colChurnID    = "ID_Cliente"
	colRecency    = "Recencia (dias)"
	colMonetary   = "Valor Monetario (R$)"
	colChurnLabel = "Churn"
)

// Dataset is everything read from the two CSV files after category filtering
// and derivation. It is immutable once built.
type Dataset struct {
	Sales        []models.SalesRecord
	Churn        []models.ChurnRecord
	SkippedSales int
	SkippedChurn int
	LoadedAt     time.Time
}

type Analytics struct {
	mu       sync.RWMutex
	data     *Dataset
	loadErr  error
	cacheDir string
	loads    atomic.Int64
	logger   *slog.Logger
}

type Option func(*Analytics)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analytics) { a.logger = logger }
}

// WithCacheDir sets where parsed datasets are cached. An empty dir disables the
// cache.
func WithCacheDir(dir string) Option {
	return func(a *Analytics) { a.cacheDir = dir }
}

func NewAnalytics(opts ...Option) *Analytics {
	a := &Analytics{
		data:     &Dataset{},
		cacheDir: defaultCacheDir,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetData installs already parsed records, deriving month and product type and
// applying the same filters as a CSV load.
func (a *Analytics) SetData(sales []models.SalesRecord, churn []models.ChurnRecord) {
	kept := make([]models.SalesRecord, 0, len(sales))
	for _, s := range sales {
		t, ok := catalog.Classify(s.Category)
		if !ok {
			continue
		}
		s.Type = t
		if s.Month == "" && !s.PurchasedAt.IsZero() {
			s.Month = s.PurchasedAt.Format("2006-01")
		}
		kept = append(kept, s)
	}

	a.install(&Dataset{
		Sales:    kept,
		Churn:    filterChurnByCustomers(churn, kept),
		LoadedAt: time.Now(),
	}, nil)
}

func (a *Analytics) LoadFromCSV(ctx context.Context, salesPath, churnPath string) error {
	if cached, err := a.loadFromCache(salesPath, churnPath); err == nil {
		if cacheIsFresh(cached.LoadedAt, salesPath, churnPath) {
			a.install(cached, nil)
			a.logger.Info("loaded dataset from cache",
				"sales", len(cached.Sales),
				"churn", len(cached.Churn))
			return nil
		}
	}

	start := time.Now()
	a.logger.Info("processing CSV files", "sales", salesPath, "churn", churnPath)

	var (
		sales        []models.SalesRecord
		churn        []models.ChurnRecord
		skippedSales int
		skippedChurn int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sales, skippedSales, err = parseSalesFile(gctx, salesPath)
		return err
	})
	g.Go(func() error {
		var err error
		churn, skippedChurn, err = parseChurnFile(gctx, churnPath)
		return err
	})

	if err := g.Wait(); err != nil {
		a.install(&Dataset{}, err)
		return err
	}

	data := &Dataset{
		Sales:        sales,
		Churn:        filterChurnByCustomers(churn, sales),
		SkippedSales: skippedSales,
		SkippedChurn: skippedChurn,
		LoadedAt:     time.Now(),
	}
	a.install(data, nil)

	if err := a.saveToCache(salesPath, churnPath, data); err != nil {
		a.logger.Warn("failed to save cache", "error", err)
	}

	a.logger.Info("csv processing complete",
		"sales", len(data.Sales),
		"churn", len(data.Churn),
		"skipped_sales", skippedSales,
		"skipped_churn", skippedChurn,
		"duration", time.Since(start))

	return nil
}

func (a *Analytics) install(data *Dataset, err error) {
	a.mu.Lock()
	a.data = data
	a.loadErr = err
	a.mu.Unlock()
	a.loads.Add(1)
}

func (a *Analytics) snapshot() (*Dataset, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.data, a.loadErr
}

// Available reports whether the last load succeeded.
func (a *Analytics) Available() bool {
	_, err := a.snapshot()
	return err == nil
}

// Err returns the error of the last load, if any.
func (a *Analytics) Err() error {
	_, err := a.snapshot()
	return err
}

// States returns the distinct customer states present in the sales table.
func (a *Analytics) States() []string {
	data, _ := a.snapshot()
	seen := make(map[string]struct{})
	for _, s := range data.Sales {
		if s.State != "" {
			seen[s.State] = struct{}{}
		}
	}
	states := make([]string, 0, len(seen))
	for st := range seen {
		states = append(states, st)
	}
	slices.Sort(states)
	return states
}

func (a *Analytics) Stats() map[string]any {
	data, err := a.snapshot()

	stats := map[string]any{
		"available":     err == nil,
		"sales_records": len(data.Sales),
		"churn_records": len(data.Churn),
		"skipped_sales": data.SkippedSales,
		"skipped_churn": data.SkippedChurn,
		"last_loaded":   data.LoadedAt,
		"loads":         a.loads.Load(),
	}
	if err != nil {
		stats["error"] = err.Error()
	}
	return stats
}

func filterChurnByCustomers(churn []models.ChurnRecord, sales []models.SalesRecord) []models.ChurnRecord {
	customers := make(map[string]struct{}, len(sales))
	for _, s := range sales {
		customers[s.CustomerID] = struct{}{}
	}
	kept := make([]models.ChurnRecord, 0, len(churn))
	for _, c := range churn {
		if _, ok := customers[c.CustomerID]; ok {
			kept = append(kept, c)
		}
	}
	return kept
}

// openCSV opens path and maps the header row to column positions, failing when
// any of required is absent.
func openCSV(path string, required ...string) (*os.File, *csv.Reader, map[string]int, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, nil, fmt.Errorf("%w: %s not found", ErrDataUnavailable, path)
		}
		return nil, nil, nil, fmt.Errorf("open %s: %w", path, err)
	}

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		file.Close()
		if errors.Is(err, io.EOF) {
			return nil, nil, nil, fmt.Errorf("%w: %s is empty", ErrInvalidSchema, path)
		}
		return nil, nil, nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		index[name] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			file.Close()
			return nil, nil, nil, fmt.Errorf("%w: %s has no %q column", ErrInvalidSchema, path, col)
		}
	}

	return file, reader, index, nil
}

func field(record []string, index map[string]int, col string) string {
	i := index[col]
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseSalesFile(ctx context.Context, path string) ([]models.SalesRecord, int, error) {
	file, reader, index, err := openCSV(path, colOrderID, colCategory, colPrice, colPurchased, colCustomer, colState)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	var (
		records []models.SalesRecord
		skipped int
	)

	for line := 2; ; line++ {
		if line%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		category := field(row, index, colCategory)
		productType, ok := catalog.Classify(category)
		if !ok {
			continue
		}

		rec, err := parseSalesRow(row, index)
		if err != nil {
			skipped++
			continue
		}
		rec.Category = category
		rec.Type = productType
		records = append(records, rec)
	}

	return records, skipped, nil
}

func parseSalesRow(row []string, index map[string]int) (models.SalesRecord, error) {
	price, err := decimal.NewFromString(field(row, index, colPrice))
	if err != nil {
		return models.SalesRecord{}, fmt.Errorf("price: %w", err)
	}

	purchasedAt, err := parseTimestamp(field(row, index, colPurchased))
	if err != nil {
		return models.SalesRecord{}, err
	}

	return models.SalesRecord{
		OrderID:     field(row, index, colOrderID),
		Price:       price,
		PurchasedAt: purchasedAt,
		CustomerID:  field(row, index, colCustomer),
		State:       strings.ToUpper(field(row, index, colState)),
		Month:       purchasedAt.Format("2006-01"),
	}, nil
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}

func parseChurnFile(ctx context.Context, path string) ([]models.ChurnRecord, int, error) {
	file, reader, index, err := openCSV(path, colChurnID, colRecency, colMonetary, colChurnLabel)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	var (
		records []models.ChurnRecord
		skipped int
	)

	for line := 2; ; line++ {
		if line%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		rec, err := parseChurnRow(row, index)
		if err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	return records, skipped, nil
}

func parseChurnRow(row []string, index map[string]int) (models.ChurnRecord, error) {
	recency, err := parseFinite(field(row, index, colRecency))
	if err != nil {
		return models.ChurnRecord{}, fmt.Errorf("recency: %w", err)
	}

	monetary, err := parseFinite(field(row, index, colMonetary))
	if err != nil {
		return models.ChurnRecord{}, fmt.Errorf("monetary: %w", err)
	}

	return models.ChurnRecord{
		CustomerID:  field(row, index, colChurnID),
		RecencyDays: int(math.Round(recency)),
		Monetary:    monetary,
		Churned:     parseChurnFlag(field(row, index, colChurnLabel)),
	}, nil
}

// parseFinite rejects the inf and NaN spellings strconv accepts; they cannot be
// binned, plotted or encoded as JSON.
func parseFinite(value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite number %q", value)
	}
	return v, nil
}

// parseChurnFlag reports whether a customer is flagged as churned. Only the
// positive spellings count; an empty or unknown flag keeps the customer in the
// base as retained.
func parseChurnFlag(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "sim", "yes", "1", "true":
		return true
	default:
		return false
	}
}

// Cache management
func (a *Analytics) getCacheFilename(salesPath, churnPath string) string {
	name := strings.ReplaceAll(salesPath+"__"+churnPath, string(filepath.Separator), "_")
	return filepath.Join(a.cacheDir, fmt.Sprintf("%s_%s.gob", name, cacheVersion))
}

func (a *Analytics) saveToCache(salesPath, churnPath string, data *Dataset) error {
	if a.cacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(a.cacheDir, 0o755); err != nil {
		return err
	}

	file, err := os.Create(a.getCacheFilename(salesPath, churnPath))
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(data)
}

func (a *Analytics) loadFromCache(salesPath, churnPath string) (*Dataset, error) {
	if a.cacheDir == "" {
		return nil, errors.New("cache disabled")
	}

	file, err := os.Open(a.getCacheFilename(salesPath, churnPath))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var data Dataset
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

func cacheIsFresh(cachedAt time.Time, paths ...string) bool {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.ModTime().Before(cachedAt) {
			return false
		}
	}
	return true
}
