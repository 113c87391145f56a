package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ukydev/garage-service/internal/models"
)

// ErrNotFound is returned when a record lookup, update or delete matches nothing.
var ErrNotFound = errors.New("record not found")

// ClientCollection defines the interface for client data operations.
type ClientCollection interface {
	InsertClient(ctx context.Context, client models.Client) (models.Client, error)
	FindClients(ctx context.Context) ([]models.Client, error)
	FindClientByID(ctx context.Context, id string) (*models.Client, error)
	UpdateClient(ctx context.Context, id string, client models.Client) error
	DeleteClient(ctx context.Context, id string) error
}

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle models.Vehicle) (models.Vehicle, error)
	FindVehicles(ctx context.Context) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	FindVehiclesByOwner(ctx context.Context, clientID string) ([]models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error
	DeleteVehicle(ctx context.Context, id string) error
}

// ServiceCollection defines the interface for service data operations.
// Lists are ordered newest first.
type ServiceCollection interface {
	InsertService(ctx context.Context, service models.Service) (models.Service, error)
	FindServices(ctx context.Context) ([]models.Service, error)
	FindServiceByID(ctx context.Context, id string) (*models.Service, error)
	FindServicesByVehicle(ctx context.Context, vehicleID string) ([]models.Service, error)
	// FindServicesByDateRange returns services dated within [start, end],
	// both YYYY-MM-DD and inclusive.
	FindServicesByDateRange(ctx context.Context, start, end string) ([]models.Service, error)
	UpdateService(ctx context.Context, id string, service models.Service) error
	DeleteService(ctx context.Context, id string) error
}

// Store is the full repository used by the application.
type Store interface {
	ClientCollection
	VehicleCollection
	ServiceCollection
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// stamp assigns a fresh id and creation time to a record being inserted.
func stamp(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now().UTC()
	}
	*createdAt = createdAt.UTC().Truncate(time.Millisecond)
}
