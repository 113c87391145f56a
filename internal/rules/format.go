package rules

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"github.com/ukydev/garage-service/internal/models"
)

const (
	currencyFormat = "#.###,##"
	kmFormat       = "#.###."
)

// FormatCurrency renders an amount the way the shop prints prices, e.g. "$ 1.234,56".
func FormatCurrency(amount decimal.Decimal) string {
	return "$ " + humanize.FormatFloat(currencyFormat, amount.Round(2).InexactFloat64())
}

// FormatAmount is FormatCurrency for a stored float cost.
func FormatAmount(amount float64) string {
	return FormatCurrency(decimal.NewFromFloat(amount))
}

// FormatKm renders an odometer reading, e.g. "45.000 km".
func FormatKm(km int) string {
	return humanize.FormatInteger(kmFormat, km) + " km"
}

// FormatDate turns a YYYY-MM-DD date into DD/MM/YYYY. Unparsable input is returned as is.
func FormatDate(date string) string {
	t, err := models.ParseDate(date)
	if err != nil {
		return date
	}
	return t.Format("02/01/2006")
}
