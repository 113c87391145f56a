package workshop

import (
	"context"
	"strings"

	"github.com/ukydev/garage-service/internal/apperr"
	"github.com/ukydev/garage-service/internal/events"
	"github.com/ukydev/garage-service/internal/models"
	"github.com/ukydev/garage-service/internal/rules"
)

// ServiceFilter narrows ListServices. Start and End are YYYY-MM-DD and must be
// given together; an empty Types list does not filter.
type ServiceFilter struct {
	Start string
	End   string
	Types []string
}

// CreateService records a visit for an existing vehicle. New services start in progress.
func (w *Workshop) CreateService(ctx context.Context, in models.ServiceInput) (models.Service, error) {
	if err := in.Validate(); err != nil {
		return models.Service{}, err
	}
	v, err := w.store.FindVehicleByID(ctx, in.VehicleID)
	if err != nil {
		return models.Service{}, w.lookupErr("vehicle", in.VehicleID, err)
	}

	s := in.Apply(models.Service{State: models.StateInProgress})
	s, err = w.store.InsertService(ctx, s)
	if err != nil {
		return models.Service{}, w.storageErr("insert service", err)
	}
	w.log.WithField("service_id", s.ID).WithField("plate", v.Plate).Info("Service registered")
	w.publish(ctx, events.NewServiceEvent(events.ServiceCreated, s, v.Plate))
	return s, nil
}

// ListServices returns services newest first, optionally narrowed by date and type.
func (w *Workshop) ListServices(ctx context.Context, f ServiceFilter) ([]models.Service, error) {
	start, end := strings.TrimSpace(f.Start), strings.TrimSpace(f.End)

	var (
		services []models.Service
		err      error
	)
	switch {
	case start == "" && end == "":
		services, err = w.store.FindServices(ctx)
	case start == "" || end == "":
		return nil, apperr.NewValidationError("start and end must be given together")
	default:
		from, perr := models.ParseDate(start)
		if perr != nil {
			return nil, apperr.NewValidationError("start must be formatted as YYYY-MM-DD")
		}
		to, perr := models.ParseDate(end)
		if perr != nil {
			return nil, apperr.NewValidationError("end must be formatted as YYYY-MM-DD")
		}
		if from.After(to) {
			return nil, apperr.NewValidationError("start must not be after end")
		}
		services, err = w.store.FindServicesByDateRange(ctx, start, end)
	}
	if err != nil {
		return nil, w.storageErr("find services", err)
	}
	return rules.FilterByServiceType(services, f.Types), nil
}

func (w *Workshop) GetService(ctx context.Context, id string) (models.Service, error) {
	s, err := w.store.FindServiceByID(ctx, id)
	if err != nil {
		return models.Service{}, w.lookupErr("service", id, err)
	}
	return *s, nil
}

// UpdateService edits the recorded fields. The state is left untouched.
func (w *Workshop) UpdateService(ctx context.Context, id string, in models.ServiceInput) (models.Service, error) {
	if err := in.Validate(); err != nil {
		return models.Service{}, err
	}
	existing, err := w.store.FindServiceByID(ctx, id)
	if err != nil {
		return models.Service{}, w.lookupErr("service", id, err)
	}
	if in.VehicleID != existing.VehicleID {
		if _, err := w.store.FindVehicleByID(ctx, in.VehicleID); err != nil {
			return models.Service{}, w.lookupErr("vehicle", in.VehicleID, err)
		}
	}

	s := in.Apply(*existing)
	if err := w.store.UpdateService(ctx, id, s); err != nil {
		return models.Service{}, w.lookupErr("service", id, err)
	}
	return s, nil
}

// CompleteService moves a service from in progress to completed.
func (w *Workshop) CompleteService(ctx context.Context, id string) (models.Service, error) {
	existing, err := w.store.FindServiceByID(ctx, id)
	if err != nil {
		return models.Service{}, w.lookupErr("service", id, err)
	}
	if existing.IsCompleted() {
		return models.Service{}, apperr.NewConflictError("service %s is already completed", id)
	}

	s := *existing
	s.State = models.StateCompleted
	if err := w.store.UpdateService(ctx, id, s); err != nil {
		return models.Service{}, w.lookupErr("service", id, err)
	}

	var plate string
	if v, err := w.store.FindVehicleByID(ctx, s.VehicleID); err == nil {
		plate = v.Plate
	}
	w.log.WithField("service_id", id).Info("Service completed")
	w.publish(ctx, events.NewServiceEvent(events.ServiceCompleted, s, plate))
	return s, nil
}

func (w *Workshop) DeleteService(ctx context.Context, id string) error {
	if err := w.store.DeleteService(ctx, id); err != nil {
		return w.lookupErr("service", id, err)
	}
	w.log.WithField("service_id", id).Info("Service deleted")
	return nil
}
