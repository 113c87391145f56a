package rules

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/ukydev/garage-service/internal/models"
)

// Stats summarizes the services that fall inside a period.
type Stats struct {
	Start          string          `json:"start"`
	End            string          `json:"end"`
	ServiceCount   int             `json:"service_count"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	UniqueVehicles int             `json:"unique_vehicles"`
	AverageTicket  decimal.Decimal `json:"average_ticket"`
}

// AggregateStats counts, sums and averages the services whose date falls in
// [start, end], both ends inclusive. Services with unparsable dates are skipped.
func AggregateStats(services []models.Service, start, end time.Time) Stats {
	start, end = truncateDay(start), truncateDay(end)
	stats := Stats{
		Start:         start.Format(models.DateLayout),
		End:           end.Format(models.DateLayout),
		TotalRevenue:  decimal.Zero,
		AverageTicket: decimal.Zero,
	}

	vehicles := make(map[string]struct{})
	for _, s := range services {
		d, err := models.ParseDate(s.Date)
		if err != nil || d.Before(start) || d.After(end) {
			continue
		}
		stats.ServiceCount++
		stats.TotalRevenue = stats.TotalRevenue.Add(decimal.NewFromFloat(s.Cost))
		vehicles[s.VehicleID] = struct{}{}
	}
	stats.UniqueVehicles = len(vehicles)

	if stats.ServiceCount > 0 {
		stats.AverageTicket = stats.TotalRevenue.
			Div(decimal.NewFromInt(int64(stats.ServiceCount))).
			Round(2)
	}
	return stats
}

// ClientTotals is the visit count and amount spent shown on a client's page.
type ClientTotals struct {
	ServiceCount int             `json:"service_count"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
}

// SumServices totals the given services regardless of date.
func SumServices(services []models.Service) ClientTotals {
	totals := ClientTotals{TotalSpent: decimal.Zero}
	for _, s := range services {
		totals.ServiceCount++
		totals.TotalSpent = totals.TotalSpent.Add(decimal.NewFromFloat(s.Cost))
	}
	return totals
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
