package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/garage-service/internal/auth"
	"github.com/ukydev/garage-service/internal/config"
	"github.com/ukydev/garage-service/internal/db"
	"github.com/ukydev/garage-service/internal/handlers"
	"github.com/ukydev/garage-service/internal/models"
	"github.com/ukydev/garage-service/internal/workshop"
)

func newTestServer(t *testing.T) (*httptest.Server, *workshop.Workshop) {
	t.Helper()
	ctx := context.Background()
	store, err := db.NewSQLiteStore(ctx, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(ctx) })

	logger, _ := test.NewNullLogger()
	shop := workshop.New(workshop.Deps{Store: store, Branding: config.DefaultBranding(), Logger: logger})
	authService, err := auth.NewService("taller123", "secret", time.Hour)
	require.NoError(t, err)

	server := httptest.NewServer(handlers.NewRouter(shop, authService, logger, false))
	t.Cleanup(server.Close)
	return server, shop
}

func TestRunSeed(t *testing.T) {
	server, shop := newTestServer(t)
	ctx := context.Background()

	err := runSeed(seedOptions{
		apiURL:   server.URL + "/",
		password: "taller123",
		services: 12,
		days:     30,
		complete: 1,
		seed:     42,
	})
	require.NoError(t, err)

	clients, err := shop.ListClients(ctx, "")
	require.NoError(t, err)
	assert.Len(t, clients, len(sampleOwners))

	vehicles, err := shop.ListVehicles(ctx, "")
	require.NoError(t, err)
	assert.Len(t, vehicles, len(sampleOwners))
	for _, v := range vehicles {
		assert.NotEmpty(t, v.OwnerName)
	}

	services, err := shop.ListServices(ctx, workshop.ServiceFilter{})
	require.NoError(t, err)
	assert.Len(t, services, 12)
	for _, s := range services {
		assert.Equal(t, models.StateCompleted, s.State)
		if s.HasServiceType(models.ServiceTypeOilChange) {
			assert.True(t, models.IsValidOilType(s.OilType))
		}
	}
}

func TestRunSeed_BadPassword(t *testing.T) {
	server, _ := newTestServer(t)

	err := runSeed(seedOptions{apiURL: server.URL, password: "nope", services: 1, days: 1, seed: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login failed")
}

func TestRunSeed_Unauthorized(t *testing.T) {
	server, _ := newTestServer(t)

	err := runSeed(seedOptions{apiURL: server.URL, services: 1, days: 1, seed: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestRandomService_IsValid(t *testing.T) {
	s := newSeeder(seedOptions{seed: 7})
	for i := 0; i < 50; i++ {
		in := s.randomService([]string{"v1", "v2"}, 90)
		require.NoError(t, in.Validate(), "%+v", in)
		assert.GreaterOrEqual(t, in.Cost, 1500.0)
		assert.Less(t, in.Cost, 8000.0)
	}
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--api-url", "http://example.test", "-n", "5", "--days", "10"}))

	n, err := cmd.Flags().GetInt("services")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	url, err := cmd.Flags().GetString("api-url")
	require.NoError(t, err)
	assert.Equal(t, "http://example.test", url)

	cmd.SetArgs([]string{"--days", "0", "--api-url", "http://127.0.0.1:1"})
	assert.Error(t, cmd.Execute())
}

func TestAuthorizedPost_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"name is required"}`))
	}))
	defer server.Close()

	s := newSeeder(seedOptions{apiURL: server.URL, seed: 1})
	err := s.authorizedPost("/api/clients", models.ClientInput{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}
