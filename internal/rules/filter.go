package rules

import (
	"slices"
	"strings"

	"github.com/ukydev/garage-service/internal/models"
)

// FilterByServiceType keeps the services that performed at least one of the
// selected types. An empty selection returns services unchanged.
func FilterByServiceType(services []models.Service, selected []string) []models.Service {
	if len(selected) == 0 {
		return services
	}
	out := make([]models.Service, 0, len(services))
	for _, s := range services {
		if slices.ContainsFunc(s.ServiceTypes, func(t string) bool { return slices.Contains(selected, t) }) {
			out = append(out, s)
		}
	}
	return out
}

// SearchVehicles matches q against plate, owner name, make and model.
func SearchVehicles(vehicles []models.Vehicle, q string) []models.Vehicle {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return vehicles
	}
	out := make([]models.Vehicle, 0)
	for _, v := range vehicles {
		if containsAny(q, v.Plate, v.OwnerName, v.Make, v.Model) {
			out = append(out, v)
		}
	}
	return out
}

// SearchClients matches q against name, phone, email and national id.
func SearchClients(clients []models.Client, q string) []models.Client {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return clients
	}
	out := make([]models.Client, 0)
	for _, c := range clients {
		if containsAny(q, c.Name, c.Phone, c.Email, c.NationalID) {
			out = append(out, c)
		}
	}
	return out
}

// SortByDateDesc orders services newest first, breaking ties by creation time.
func SortByDateDesc(services []models.Service) {
	slices.SortStableFunc(services, func(a, b models.Service) int {
		if c := strings.Compare(b.Date, a.Date); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

func containsAny(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
