package models

import (
	"slices"
	"strings"
	"time"

	"github.com/ukydev/garage-service/internal/apperr"
)

// DateLayout is the calendar-date format used for service dates.
const DateLayout = "2006-01-02"

// ServiceState is the lifecycle state of a service visit.
type ServiceState string

const (
	StateInProgress ServiceState = "in_progress"
	StateCompleted  ServiceState = "completed"
)

// OilType is the oil used on an oil change.
type OilType string

const (
	OilMineral       OilType = "Mineral"
	OilSemiSynthetic OilType = "Semi-synthetic"
	OilSynthetic     OilType = "Synthetic"
)

// ServiceTypeOilChange is the catalog label that triggers the oil-change projection.
const ServiceTypeOilChange = "Oil change"

// ServiceTypes is the fixed catalog offered by the shop, in display order.
var ServiceTypes = []string{
	ServiceTypeOilChange,
	"Oil filter",
	"Air filter",
	"Fuel filter",
	"Cabin filter",
	"Alignment",
	"Balancing",
	"Tire rotation",
	"Front end",
	"Brakes",
	"Suspension",
	"Battery",
	"Tires",
	"General inspection",
	"Other",
}

// OilTypes lists the known oil types in display order.
var OilTypes = []OilType{OilMineral, OilSemiSynthetic, OilSynthetic}

// IsValidOilType checks if an oil type is known
func IsValidOilType(t OilType) bool {
	return slices.Contains(OilTypes, t)
}

// IsCatalogServiceType checks if label is part of the fixed catalog.
func IsCatalogServiceType(label string) bool {
	return slices.Contains(ServiceTypes, label)
}

// Service is one maintenance visit for a vehicle.
type Service struct {
	ID           string       `bson:"_id,omitempty" json:"id"`
	VehicleID    string       `bson:"vehicle_id" json:"vehicle_id"`
	Date         string       `bson:"service_date" json:"date"` // YYYY-MM-DD
	Odometer     int          `bson:"odometer" json:"odometer"` // in kilometers
	ServiceTypes []string     `bson:"service_types" json:"service_types"`
	OilType      OilType      `bson:"oil_type,omitempty" json:"oil_type,omitempty"`
	Notes        string       `bson:"notes,omitempty" json:"notes,omitempty"`
	Cost         float64      `bson:"cost" json:"cost"`
	Mechanic     string       `bson:"mechanic" json:"mechanic"`
	State        ServiceState `bson:"state" json:"state"`
	CreatedAt    time.Time    `bson:"created_at" json:"created_at"`
}

// HasServiceType reports whether label was performed on this visit.
func (s Service) HasServiceType(label string) bool {
	return slices.Contains(s.ServiceTypes, label)
}

// IsCompleted reports whether the service reached its final state.
func (s Service) IsCompleted() bool {
	return s.State == StateCompleted
}

// ParseDate parses a YYYY-MM-DD calendar date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// ServiceInput is the validated payload for registering or editing a service.
type ServiceInput struct {
	VehicleID    string   `json:"vehicle_id"`
	Date         string   `json:"date"`
	Odometer     int      `json:"odometer"`
	ServiceTypes []string `json:"service_types"`
	OtherService string   `json:"other_service"`
	OilType      OilType  `json:"oil_type"`
	Notes        string   `json:"notes"`
	Cost         float64  `json:"cost"`
	Mechanic     string   `json:"mechanic"`
}

// Validate checks the form rules and normalizes the service type list.
// ServiceTypes must come from the catalog; the free-text OtherService label is
// appended after them. Duplicates are dropped and the oil type is cleared when
// no oil change was performed.
func (in *ServiceInput) Validate() error {
	in.VehicleID = strings.TrimSpace(in.VehicleID)
	in.Date = strings.TrimSpace(in.Date)
	in.OtherService = strings.TrimSpace(in.OtherService)
	in.Notes = strings.TrimSpace(in.Notes)
	in.Mechanic = strings.TrimSpace(in.Mechanic)

	if in.VehicleID == "" {
		return apperr.NewValidationError("a vehicle must be selected")
	}
	if _, err := ParseDate(in.Date); err != nil {
		return apperr.NewValidationError("date must be formatted as YYYY-MM-DD")
	}
	if in.Odometer < 0 {
		return apperr.NewValidationError("odometer cannot be negative")
	}
	if in.Cost < 0 {
		return apperr.NewValidationError("cost cannot be negative")
	}

	types := make([]string, 0, len(in.ServiceTypes)+1)
	for _, t := range in.ServiceTypes {
		t = strings.TrimSpace(t)
		if t == "" || slices.Contains(types, t) {
			continue
		}
		if !IsCatalogServiceType(t) {
			return apperr.NewValidationError("unknown service type %q, use other_service for a custom label", t)
		}
		types = append(types, t)
	}
	if in.OtherService != "" && !slices.Contains(types, in.OtherService) {
		types = append(types, in.OtherService)
	}
	if len(types) == 0 {
		return apperr.NewValidationError("at least one service type is required")
	}
	in.ServiceTypes = types

	if !slices.Contains(types, ServiceTypeOilChange) {
		in.OilType = ""
		return nil
	}
	if in.OilType == "" {
		return apperr.NewValidationError("oil type is required for an oil change")
	}
	if !IsValidOilType(in.OilType) {
		return apperr.NewValidationError("unknown oil type %q", in.OilType)
	}
	return nil
}

// Apply copies the input onto s, keeping id, state and creation time.
func (in ServiceInput) Apply(s Service) Service {
	s.VehicleID = in.VehicleID
	s.Date = in.Date
	s.Odometer = in.Odometer
	s.ServiceTypes = in.ServiceTypes
	s.OilType = in.OilType
	s.Notes = in.Notes
	s.Cost = in.Cost
	s.Mechanic = in.Mechanic
	return s
}

// ServiceDetail is a service together with its vehicle and that vehicle's owner.
type ServiceDetail struct {
	Service Service `json:"service"`
	Vehicle Vehicle `json:"vehicle"`
	Client  Client  `json:"client"`
}
