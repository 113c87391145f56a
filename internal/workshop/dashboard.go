package workshop

import (
	"context"
	"strings"
	"time"

	"github.com/ukydev/garage-service/internal/apperr"
	"github.com/ukydev/garage-service/internal/models"
	"github.com/ukydev/garage-service/internal/rules"
)

// StatsQuery selects the dashboard period. Start and End are only read for
// the custom period.
type StatsQuery struct {
	Period string
	Start  string
	End    string
	Types  []string
}

// Dashboard is the revenue summary for a period and the services behind it.
type Dashboard struct {
	Stats    rules.Stats      `json:"stats"`
	Services []models.Service `json:"services"`
}

// Stats aggregates the services dated within the requested period. The
// period defaults to the current month.
func (w *Workshop) Stats(ctx context.Context, q StatsQuery) (Dashboard, error) {
	period := strings.TrimSpace(q.Period)
	if period == "" {
		period = string(rules.PeriodMonth)
	}
	kind, err := rules.ParsePeriodKind(period)
	if err != nil {
		return Dashboard{}, err
	}

	var customStart, customEnd time.Time
	if kind == rules.PeriodCustom {
		if customStart, err = models.ParseDate(q.Start); err != nil {
			return Dashboard{}, apperr.NewValidationError("start must be formatted as YYYY-MM-DD")
		}
		if customEnd, err = models.ParseDate(q.End); err != nil {
			return Dashboard{}, apperr.NewValidationError("end must be formatted as YYYY-MM-DD")
		}
	}

	start, end, err := rules.PeriodBounds(kind, w.now(), customStart, customEnd)
	if err != nil {
		return Dashboard{}, err
	}

	services, err := w.store.FindServicesByDateRange(ctx, start.Format(models.DateLayout), end.Format(models.DateLayout))
	if err != nil {
		return Dashboard{}, w.storageErr("find services by date range", err)
	}
	services = rules.FilterByServiceType(services, q.Types)

	return Dashboard{Stats: rules.AggregateStats(services, start, end), Services: services}, nil
}
