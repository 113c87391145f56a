// Package rules holds the pure business rules of the shop: oil-change
// projection, revenue statistics, period bounds, filtering and formatting.
package rules

import "github.com/ukydev/garage-service/internal/models"

// OilChangeInterval maps each oil type to the distance, in kilometers, after
// which the next oil change is due.
var OilChangeInterval = map[models.OilType]int{
	models.OilMineral:       5000,
	models.OilSemiSynthetic: 8000,
	models.OilSynthetic:     10000,
}

// NextOilChange returns the odometer reading at which the next oil change is
// due. ok is false unless the service includes an oil change with a known oil type.
func NextOilChange(s models.Service) (km int, ok bool) {
	if !s.HasServiceType(models.ServiceTypeOilChange) {
		return 0, false
	}
	interval, found := OilChangeInterval[s.OilType]
	if !found {
		return 0, false
	}
	return s.Odometer + interval, true
}
