package models

import (
	"strings"
	"time"

	"github.com/ukydev/garage-service/internal/apperr"
)

// MinVehicleYear is the oldest model year accepted.
const MinVehicleYear = 1900

// Vehicle is a car identified by license plate. ClientID is empty when the
// vehicle has no owner; the owner fields are a snapshot taken from the Client
// when the vehicle was registered or reassigned.
type Vehicle struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	Plate      string    `bson:"plate" json:"plate"`
	Make       string    `bson:"make" json:"make"`
	Model      string    `bson:"model" json:"model"`
	Year       int       `bson:"year" json:"year"`
	ClientID   string    `bson:"client_id" json:"client_id"`
	OwnerName  string    `bson:"owner_name,omitempty" json:"owner_name,omitempty"`
	OwnerPhone string    `bson:"owner_phone,omitempty" json:"owner_phone,omitempty"`
	OwnerEmail string    `bson:"owner_email,omitempty" json:"owner_email,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// SetOwner copies the owner snapshot from c. A nil client leaves the vehicle ownerless.
func (v *Vehicle) SetOwner(c *Client) {
	if c == nil {
		v.ClientID = ""
		v.OwnerName = ""
		v.OwnerPhone = ""
		v.OwnerEmail = ""
		return
	}
	v.ClientID = c.ID
	v.OwnerName = c.Name
	v.OwnerPhone = c.Phone
	v.OwnerEmail = c.Email
}

// HasOwner reports whether the vehicle is assigned to a client.
func (v Vehicle) HasOwner() bool {
	return v.ClientID != ""
}

// NormalizePlate trims and uppercases a license plate.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

// VehicleInput is the validated payload for registering or editing a vehicle.
type VehicleInput struct {
	Plate    string `json:"plate"`
	Make     string `json:"make"`
	Model    string `json:"model"`
	Year     int    `json:"year"`
	ClientID string `json:"client_id"`
}

// Validate checks a new vehicle registration, which must name an owner.
func (in *VehicleInput) Validate(now time.Time) error {
	if err := in.ValidateDetails(now); err != nil {
		return err
	}
	if in.ClientID == "" {
		return apperr.NewValidationError("a client must be selected")
	}
	return nil
}

// ValidateDetails checks the descriptive fields against now's calendar year.
func (in *VehicleInput) ValidateDetails(now time.Time) error {
	in.Plate = NormalizePlate(in.Plate)
	in.Make = strings.TrimSpace(in.Make)
	in.Model = strings.TrimSpace(in.Model)
	in.ClientID = strings.TrimSpace(in.ClientID)

	if in.Plate == "" {
		return apperr.NewValidationError("plate is required")
	}
	if in.Make == "" {
		return apperr.NewValidationError("make is required")
	}
	if in.Model == "" {
		return apperr.NewValidationError("model is required")
	}
	maxYear := now.Year() + 1
	if in.Year < MinVehicleYear || in.Year > maxYear {
		return apperr.NewValidationError("year must be between %d and %d", MinVehicleYear, maxYear)
	}
	return nil
}

// Apply copies the descriptive fields onto v. Ownership is handled separately.
func (in VehicleInput) Apply(v Vehicle) Vehicle {
	v.Plate = in.Plate
	v.Make = in.Make
	v.Model = in.Model
	v.Year = in.Year
	return v
}

// OwnerInput reassigns a vehicle to another client.
type OwnerInput struct {
	ClientID string `json:"client_id"`
}
