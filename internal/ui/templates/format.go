package templates

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatMoney renders an amount as "R$ 1,234.56".
func FormatMoney(v decimal.Decimal) string {
	return printer.Sprintf("R$ %.2f", v.Round(2).InexactFloat64())
}

func FormatPercent(v float64) string {
	return printer.Sprintf("%.1f%%", v)
}

func FormatRatio(v float64) string {
	return printer.Sprintf("%.2f", v)
}

func FormatUnits(n int) string {
	return printer.Sprintf("%d", n)
}
