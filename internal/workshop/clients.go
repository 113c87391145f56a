package workshop

import (
	"context"

	"github.com/ukydev/garage-service/internal/models"
	"github.com/ukydev/garage-service/internal/rules"
)

// ClientView is a client with its vehicles and spending summary.
type ClientView struct {
	Client   models.Client      `json:"client"`
	Vehicles []models.Vehicle   `json:"vehicles"`
	Totals   rules.ClientTotals `json:"totals"`
}

func (w *Workshop) CreateClient(ctx context.Context, in models.ClientInput) (models.Client, error) {
	if err := in.Validate(); err != nil {
		return models.Client{}, err
	}
	c, err := w.store.InsertClient(ctx, in.Apply(models.Client{}))
	if err != nil {
		return models.Client{}, w.storageErr("insert client", err)
	}
	w.log.WithField("client_id", c.ID).Info("Client created")
	return c, nil
}

// ListClients returns the clients matching q; an empty q returns all of them.
func (w *Workshop) ListClients(ctx context.Context, q string) ([]models.Client, error) {
	clients, err := w.store.FindClients(ctx)
	if err != nil {
		return nil, w.storageErr("find clients", err)
	}
	return rules.SearchClients(clients, q), nil
}

// GetClient loads a client, its vehicles and the totals over their services.
func (w *Workshop) GetClient(ctx context.Context, id string) (ClientView, error) {
	c, err := w.store.FindClientByID(ctx, id)
	if err != nil {
		return ClientView{}, w.lookupErr("client", id, err)
	}
	vehicles, err := w.store.FindVehiclesByOwner(ctx, id)
	if err != nil {
		return ClientView{}, w.storageErr("find vehicles by owner", err)
	}

	var services []models.Service
	for _, v := range vehicles {
		history, err := w.store.FindServicesByVehicle(ctx, v.ID)
		if err != nil {
			return ClientView{}, w.storageErr("find services by vehicle", err)
		}
		services = append(services, history...)
	}

	return ClientView{Client: *c, Vehicles: vehicles, Totals: rules.SumServices(services)}, nil
}

// UpdateClient saves the client and refreshes the owner snapshot on its vehicles.
func (w *Workshop) UpdateClient(ctx context.Context, id string, in models.ClientInput) (models.Client, error) {
	if err := in.Validate(); err != nil {
		return models.Client{}, err
	}
	existing, err := w.store.FindClientByID(ctx, id)
	if err != nil {
		return models.Client{}, w.lookupErr("client", id, err)
	}
	c := in.Apply(*existing)
	if err := w.store.UpdateClient(ctx, id, c); err != nil {
		return models.Client{}, w.lookupErr("client", id, err)
	}

	vehicles, err := w.store.FindVehiclesByOwner(ctx, id)
	if err != nil {
		return models.Client{}, w.storageErr("find vehicles by owner", err)
	}
	for _, v := range vehicles {
		v.SetOwner(&c)
		if err := w.store.UpdateVehicle(ctx, v.ID, v); err != nil {
			return models.Client{}, w.storageErr("refresh owner snapshot", err)
		}
	}
	return c, nil
}

// DeleteClient removes a client. Its vehicles are kept and become ownerless.
func (w *Workshop) DeleteClient(ctx context.Context, id string) error {
	if _, err := w.store.FindClientByID(ctx, id); err != nil {
		return w.lookupErr("client", id, err)
	}
	vehicles, err := w.store.FindVehiclesByOwner(ctx, id)
	if err != nil {
		return w.storageErr("find vehicles by owner", err)
	}
	for _, v := range vehicles {
		v.SetOwner(nil)
		if err := w.store.UpdateVehicle(ctx, v.ID, v); err != nil {
			return w.storageErr("orphan vehicle", err)
		}
	}
	if err := w.store.DeleteClient(ctx, id); err != nil {
		return w.lookupErr("client", id, err)
	}
	w.log.WithField("client_id", id).WithField("orphaned_vehicles", len(vehicles)).Info("Client deleted")
	return nil
}
