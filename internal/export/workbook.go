// Package export writes dashboard aggregates and restock orders as Excel
// workbooks.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"tech-insights/internal/models"
	"tech-insights/internal/services"
)

const (
	SheetSummary       = "Summary"
	SheetRevenueByType = "Revenue by type"
	SheetMonthly       = "Monthly sales"
	SheetTopCategories = "Top categories"
	SheetRecency       = "Recency histogram"
	SheetRestock       = "Restock order"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	moneyFormat = "#,##0.00"
)

type workbook struct {
	f     *excelize.File
	bold  int
	money int
}

func newWorkbook(firstSheet string) (*workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", firstSheet); err != nil {
		f.Close()
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}
	format := moneyFormat
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		f.Close()
		return nil, err
	}

	return &workbook{f: f, bold: bold, money: money}, nil
}

// table writes a header row and rows starting at startRow. Columns listed in
// moneyCols (zero based) get the currency number format.
func (wb *workbook) table(sheet string, startRow int, headers []string, rows [][]any, moneyCols ...int) error {
	idx, err := wb.f.GetSheetIndex(sheet)
	if err != nil {
		return err
	}
	if idx < 0 {
		if _, err := wb.f.NewSheet(sheet); err != nil {
			return err
		}
	}

	head := make([]any, len(headers))
	for i, h := range headers {
		head[i] = h
	}
	first, err := excelize.CoordinatesToCellName(1, startRow)
	if err != nil {
		return err
	}
	if err := wb.f.SetSheetRow(sheet, first, &head); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), startRow)
	if err := wb.f.SetCellStyle(sheet, first, last, wb.bold); err != nil {
		return err
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, startRow+1+i)
		if err := wb.f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	for _, col := range moneyCols {
		if len(rows) == 0 {
			break
		}
		top, _ := excelize.CoordinatesToCellName(col+1, startRow+1)
		bottom, _ := excelize.CoordinatesToCellName(col+1, startRow+len(rows))
		if err := wb.f.SetCellStyle(sheet, top, bottom, wb.money); err != nil {
			return err
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	return wb.f.SetColWidth(sheet, "A", lastCol, 22)
}

func (wb *workbook) writeTo(w io.Writer) error {
	defer wb.f.Close()
	wb.f.SetActiveSheet(0)
	_, err := wb.f.WriteTo(w)
	return err
}

// Dashboard writes the aggregates of sel, one sheet per table.
func Dashboard(w io.Writer, sel services.Selection, generatedAt time.Time) error {
	wb, err := newWorkbook(SheetSummary)
	if err != nil {
		return fmt.Errorf("create workbook: %w", err)
	}

	sum := sel.Summary()
	states := "all"
	if len(sel.States) > 0 {
		states = strings.Join(sel.States, ", ")
	}

	steps := []func() error{
		func() error {
			return wb.table(SheetSummary, 1, []string{"Metric", "Value"}, [][]any{
				{"Generated at", generatedAt.UTC().Format(time.RFC3339)},
				{"States", states},
				{"Total revenue (R$)", sum.TotalRevenue.InexactFloat64()},
				{"Orders", sum.Orders},
				{"Items", sum.Items},
				{"Average ticket (R$)", sum.AverageTicket.InexactFloat64()},
				{"Churn rate (%)", sum.ChurnRate},
				{"Customers", sum.Customers},
				{"Core items", sum.CoreCount},
				{"Accessory items", sum.AccessoryCount},
				{"Cross-sell ratio", sum.CrossSellRatio},
			})
		},
		func() error {
			rows := make([][]any, 0, 2)
			for _, r := range sel.RevenueByType() {
				rows = append(rows, []any{r.Label, r.Revenue.InexactFloat64()})
			}
			return wb.table(SheetRevenueByType, 1, []string{"Type", "Revenue (R$)"}, rows, 1)
		},
		func() error {
			monthly := sel.MonthlySales()
			rows := make([][]any, 0, len(monthly))
			for _, m := range monthly {
				rows = append(rows, []any{m.Month, m.Revenue.InexactFloat64()})
			}
			return wb.table(SheetMonthly, 1, []string{"Month", "Revenue (R$)"}, rows, 1)
		},
		func() error {
			top := sel.TopCategories(services.DefaultTopCategories)
			rows := make([][]any, 0, len(top))
			for _, c := range top {
				rows = append(rows, []any{c.Category, c.Count})
			}
			return wb.table(SheetTopCategories, 1, []string{"Category", "Items sold"}, rows)
		},
		func() error {
			bins := sel.RecencyHistogram(services.DefaultHistogramBins)
			rows := make([][]any, 0, len(bins))
			for _, b := range bins {
				rows = append(rows, []any{b.Lower, b.Upper, b.Retained, b.Churned})
			}
			return wb.table(SheetRecency, 1, []string{"From (days)", "To (days)", "Retained", "Churned"}, rows)
		},
	}

	for _, step := range steps {
		if err := step(); err != nil {
			wb.f.Close()
			return fmt.Errorf("write dashboard workbook: %w", err)
		}
	}
	return wb.writeTo(w)
}

// Restock writes a restock order: its id and date, then one line per category.
func Restock(w io.Writer, order models.RestockOrder) error {
	wb, err := newWorkbook(SheetRestock)
	if err != nil {
		return fmt.Errorf("create workbook: %w", err)
	}

	meta := [][]any{
		{"Order", order.ID},
		{"Created at", order.CreatedAt.UTC().Format(time.RFC3339)},
		{"Total units", order.TotalUnits()},
	}
	for i, row := range meta {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := wb.f.SetSheetRow(SheetRestock, cell, &row); err != nil {
			wb.f.Close()
			return err
		}
	}

	rows := make([][]any, 0, len(order.Lines))
	for _, l := range order.Lines {
		rows = append(rows, []any{l.Category, l.CurrentStock, l.Quantity})
	}
	if err := wb.table(SheetRestock, len(meta)+2, []string{"Category", "Current stock", "Quantity to order"}, rows); err != nil {
		wb.f.Close()
		return fmt.Errorf("write restock workbook: %w", err)
	}
	return wb.writeTo(w)
}
