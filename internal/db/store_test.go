package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/garage-service/internal/models"
)

// runStoreSuite exercises the Store contract against an empty backend.
func runStoreSuite(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("clients", func(t *testing.T) {
		zoe, err := store.InsertClient(ctx, models.Client{Name: "Zoe", Phone: "091"})
		require.NoError(t, err)
		assert.NotEmpty(t, zoe.ID)
		assert.False(t, zoe.CreatedAt.IsZero())

		ana, err := store.InsertClient(ctx, models.Client{Name: "Ana", Phone: "099", Email: "ana@example.com"})
		require.NoError(t, err)

		clients, err := store.FindClients(ctx)
		require.NoError(t, err)
		require.Len(t, clients, 2)
		assert.Equal(t, "Ana", clients[0].Name)

		ana.Notes = "prefers WhatsApp"
		require.NoError(t, store.UpdateClient(ctx, ana.ID, ana))
		got, err := store.FindClientByID(ctx, ana.ID)
		require.NoError(t, err)
		assert.Equal(t, "prefers WhatsApp", got.Notes)
		assert.Equal(t, ana.CreatedAt.Unix(), got.CreatedAt.Unix())

		require.NoError(t, store.DeleteClient(ctx, zoe.ID))
		_, err = store.FindClientByID(ctx, zoe.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, store.DeleteClient(ctx, zoe.ID), ErrNotFound)
		assert.ErrorIs(t, store.UpdateClient(ctx, "missing", ana), ErrNotFound)
	})

	t.Run("vehicles", func(t *testing.T) {
		owner, err := store.InsertClient(ctx, models.Client{Name: "Juan", Phone: "098"})
		require.NoError(t, err)

		v := models.Vehicle{Plate: "SCD 9876", Make: "Ford", Model: "Ranger", Year: 2015}
		v.SetOwner(&owner)
		v, err = store.InsertVehicle(ctx, v)
		require.NoError(t, err)

		other, err := store.InsertVehicle(ctx, models.Vehicle{Plate: "AAA 0001", Make: "Fiat", Model: "Uno", Year: 1999})
		require.NoError(t, err)

		all, err := store.FindVehicles(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, other.ID, all[0].ID)
		assert.Empty(t, all[0].ClientID)

		owned, err := store.FindVehiclesByOwner(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, owned, 1)
		assert.Equal(t, "Juan", owned[0].OwnerName)

		v.SetOwner(nil)
		require.NoError(t, store.UpdateVehicle(ctx, v.ID, v))
		got, err := store.FindVehicleByID(ctx, v.ID)
		require.NoError(t, err)
		assert.False(t, got.HasOwner())
		assert.Empty(t, got.OwnerName)

		owned, err = store.FindVehiclesByOwner(ctx, owner.ID)
		require.NoError(t, err)
		assert.Empty(t, owned)

		require.NoError(t, store.DeleteVehicle(ctx, other.ID))
		_, err = store.FindVehicleByID(ctx, other.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("services", func(t *testing.T) {
		base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
		insert := func(vehicleID, date string, created time.Time) models.Service {
			svc, err := store.InsertService(ctx, models.Service{
				VehicleID:    vehicleID,
				Date:         date,
				Odometer:     45000,
				ServiceTypes: []string{models.ServiceTypeOilChange, "Oil filter"},
				OilType:      models.OilMineral,
				Cost:         1234.5,
				Mechanic:     "Carlos",
				State:        models.StateInProgress,
				CreatedAt:    created,
			})
			require.NoError(t, err)
			return svc
		}

		first := insert("veh-a", "2024-06-03", base)
		second := insert("veh-a", "2024-06-10", base.Add(time.Hour))
		third := insert("veh-b", "2024-06-10", base.Add(2*time.Hour))
		insert("veh-b", "2024-05-31", base)

		all, err := store.FindServices(ctx)
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, third.ID, all[0].ID)
		assert.Equal(t, second.ID, all[1].ID)

		history, err := store.FindServicesByVehicle(ctx, "veh-a")
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, second.ID, history[0].ID)

		inRange, err := store.FindServicesByDateRange(ctx, "2024-06-03", "2024-06-10")
		require.NoError(t, err)
		assert.Len(t, inRange, 3)

		single, err := store.FindServicesByDateRange(ctx, "2024-06-03", "2024-06-03")
		require.NoError(t, err)
		require.Len(t, single, 1)
		assert.Equal(t, first.ID, single[0].ID)

		got, err := store.FindServiceByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "2024-06-03", got.Date)
		assert.Equal(t, []string{models.ServiceTypeOilChange, "Oil filter"}, got.ServiceTypes)
		assert.Equal(t, models.OilMineral, got.OilType)
		assert.InDelta(t, 1234.5, got.Cost, 0.001)
		assert.Equal(t, models.StateInProgress, got.State)
		assert.True(t, base.Equal(got.CreatedAt))

		got.State = models.StateCompleted
		got.Notes = "done"
		require.NoError(t, store.UpdateService(ctx, got.ID, *got))
		updated, err := store.FindServiceByID(ctx, got.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StateCompleted, updated.State)
		assert.Equal(t, "done", updated.Notes)

		require.NoError(t, store.DeleteService(ctx, first.ID))
		_, err = store.FindServiceByID(ctx, first.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, store.UpdateService(ctx, first.ID, *got), ErrNotFound)
	})

	require.NoError(t, store.Ping(ctx))
}
