package workshop

import (
	"context"
	"strings"

	"github.com/ukydev/garage-service/internal/apperr"
	"github.com/ukydev/garage-service/internal/models"
	"github.com/ukydev/garage-service/internal/rules"
)

// VehicleView is a vehicle with its service history, newest first.
type VehicleView struct {
	Vehicle  models.Vehicle   `json:"vehicle"`
	Services []models.Service `json:"services"`
	// NextOilChange is projected from the latest oil change on record.
	NextOilChange *int `json:"next_oil_change_km,omitempty"`
}

// CreateVehicle registers a vehicle for an existing client.
func (w *Workshop) CreateVehicle(ctx context.Context, in models.VehicleInput) (models.Vehicle, error) {
	if err := in.Validate(w.now()); err != nil {
		return models.Vehicle{}, err
	}
	owner, err := w.store.FindClientByID(ctx, in.ClientID)
	if err != nil {
		return models.Vehicle{}, w.lookupErr("client", in.ClientID, err)
	}
	v := in.Apply(models.Vehicle{})
	v.SetOwner(owner)

	v, err = w.store.InsertVehicle(ctx, v)
	if err != nil {
		return models.Vehicle{}, w.storageErr("insert vehicle", err)
	}
	w.log.WithField("vehicle_id", v.ID).WithField("plate", v.Plate).Info("Vehicle registered")
	return v, nil
}

// ListVehicles returns the vehicles matching q; an empty q returns all of them.
func (w *Workshop) ListVehicles(ctx context.Context, q string) ([]models.Vehicle, error) {
	vehicles, err := w.store.FindVehicles(ctx)
	if err != nil {
		return nil, w.storageErr("find vehicles", err)
	}
	return rules.SearchVehicles(vehicles, q), nil
}

func (w *Workshop) GetVehicle(ctx context.Context, id string) (VehicleView, error) {
	v, err := w.store.FindVehicleByID(ctx, id)
	if err != nil {
		return VehicleView{}, w.lookupErr("vehicle", id, err)
	}
	services, err := w.store.FindServicesByVehicle(ctx, id)
	if err != nil {
		return VehicleView{}, w.storageErr("find services by vehicle", err)
	}
	rules.SortByDateDesc(services)

	view := VehicleView{Vehicle: *v, Services: services}
	for _, s := range services {
		if km, ok := rules.NextOilChange(s); ok {
			view.NextOilChange = &km
			break
		}
	}
	return view, nil
}

// UpdateVehicle edits the descriptive fields. Ownership changes go through ReassignOwner.
func (w *Workshop) UpdateVehicle(ctx context.Context, id string, in models.VehicleInput) (models.Vehicle, error) {
	if err := in.ValidateDetails(w.now()); err != nil {
		return models.Vehicle{}, err
	}
	existing, err := w.store.FindVehicleByID(ctx, id)
	if err != nil {
		return models.Vehicle{}, w.lookupErr("vehicle", id, err)
	}
	v := in.Apply(*existing)
	if err := w.store.UpdateVehicle(ctx, id, v); err != nil {
		return models.Vehicle{}, w.lookupErr("vehicle", id, err)
	}
	return v, nil
}

// ReassignOwner moves a vehicle to another client, copying the new owner
// snapshot. An empty client id leaves the vehicle ownerless.
func (w *Workshop) ReassignOwner(ctx context.Context, id string, in models.OwnerInput) (models.Vehicle, error) {
	existing, err := w.store.FindVehicleByID(ctx, id)
	if err != nil {
		return models.Vehicle{}, w.lookupErr("vehicle", id, err)
	}
	v := *existing

	clientID := strings.TrimSpace(in.ClientID)
	if clientID == "" {
		v.SetOwner(nil)
	} else {
		owner, err := w.store.FindClientByID(ctx, clientID)
		if err != nil {
			return models.Vehicle{}, w.lookupErr("client", clientID, err)
		}
		v.SetOwner(owner)
	}

	if err := w.store.UpdateVehicle(ctx, id, v); err != nil {
		return models.Vehicle{}, w.lookupErr("vehicle", id, err)
	}
	w.log.WithField("vehicle_id", id).WithField("client_id", v.ClientID).Info("Vehicle owner reassigned")
	return v, nil
}

// DeleteVehicle removes a vehicle. Deletion is refused while services reference it.
func (w *Workshop) DeleteVehicle(ctx context.Context, id string) error {
	if _, err := w.store.FindVehicleByID(ctx, id); err != nil {
		return w.lookupErr("vehicle", id, err)
	}
	services, err := w.store.FindServicesByVehicle(ctx, id)
	if err != nil {
		return w.storageErr("find services by vehicle", err)
	}
	if len(services) > 0 {
		return apperr.NewConflictError("vehicle has %d service record(s); delete them first", len(services))
	}
	if err := w.store.DeleteVehicle(ctx, id); err != nil {
		return w.lookupErr("vehicle", id, err)
	}
	w.log.WithField("vehicle_id", id).Info("Vehicle deleted")
	return nil
}
