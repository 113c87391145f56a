package workshop

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/garage-service/internal/apperr"
	"github.com/ukydev/garage-service/internal/config"
	"github.com/ukydev/garage-service/internal/db"
	"github.com/ukydev/garage-service/internal/events"
	"github.com/ukydev/garage-service/internal/mail"
	"github.com/ukydev/garage-service/internal/models"
)

// MockSender is a mock implementation of mail.Sender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, e mail.Email) (string, error) {
	args := m.Called(ctx, e)
	return args.String(0), args.Error(1)
}

type recordingPublisher struct {
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() {}

type fixture struct {
	ws     *Workshop
	store  db.Store
	events *recordingPublisher
	mailer *MockSender
	hook   *test.Hook
}

// today is a Wednesday.
var today = time.Date(2024, 6, 12, 15, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store, err := db.NewSQLiteStore(ctx, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(ctx) })

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	f := &fixture{store: store, events: &recordingPublisher{}, mailer: &MockSender{}, hook: hook}
	f.ws = New(Deps{
		Store:    store,
		Events:   f.events,
		Mailer:   f.mailer,
		Branding: config.DefaultBranding(),
		Logger:   logger,
		Now:      func() time.Time { return today },
	})
	return f
}

func (f *fixture) client(t *testing.T, name, phone, email string) models.Client {
	t.Helper()
	c, err := f.ws.CreateClient(context.Background(), models.ClientInput{Name: name, Phone: phone, Email: email})
	require.NoError(t, err)
	return c
}

func (f *fixture) vehicle(t *testing.T, clientID, plate string) models.Vehicle {
	t.Helper()
	v, err := f.ws.CreateVehicle(context.Background(), models.VehicleInput{
		Plate: plate, Make: "Toyota", Model: "Corolla", Year: 2018, ClientID: clientID,
	})
	require.NoError(t, err)
	return v
}

func (f *fixture) service(t *testing.T, vehicleID, date string, cost float64, types ...string) models.Service {
	t.Helper()
	in := models.ServiceInput{
		VehicleID: vehicleID, Date: date, Odometer: 45000, ServiceTypes: types,
		Cost: cost, Mechanic: "Luis",
	}
	if len(types) > 0 && types[0] == models.ServiceTypeOilChange {
		in.OilType = models.OilMineral
	}
	s, err := f.ws.CreateService(context.Background(), in)
	require.NoError(t, err)
	return s
}

func TestCreateClient_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.ws.CreateClient(context.Background(), models.ClientInput{Name: "  ", Phone: "099"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	clients, err := f.ws.ListClients(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, clients)
}

func TestCreateVehicle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Ana Pérez", "099 123 456", "ana@example.com")

	t.Run("copies owner snapshot and uppercases plate", func(t *testing.T) {
		v := f.vehicle(t, c.ID, " sab 1234 ")
		assert.Equal(t, "SAB 1234", v.Plate)
		assert.Equal(t, c.ID, v.ClientID)
		assert.Equal(t, "Ana Pérez", v.OwnerName)
		assert.Equal(t, "099 123 456", v.OwnerPhone)
		assert.Equal(t, "ana@example.com", v.OwnerEmail)
	})

	t.Run("unknown client", func(t *testing.T) {
		_, err := f.ws.CreateVehicle(ctx, models.VehicleInput{
			Plate: "XYZ 1", Make: "Fiat", Model: "Uno", Year: 2000, ClientID: "missing",
		})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("year beyond next year", func(t *testing.T) {
		_, err := f.ws.CreateVehicle(ctx, models.VehicleInput{
			Plate: "XYZ 2", Make: "Fiat", Model: "Uno", Year: 2026, ClientID: c.ID,
		})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
}

func TestUpdateClient_RefreshesOwnerSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Ana", "099", "")
	v := f.vehicle(t, c.ID, "SAB 1234")

	_, err := f.ws.UpdateClient(ctx, c.ID, models.ClientInput{Name: "Ana Pérez", Phone: "098 765", Email: "ana@example.com"})
	require.NoError(t, err)

	view, err := f.ws.GetVehicle(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Pérez", view.Vehicle.OwnerName)
	assert.Equal(t, "098 765", view.Vehicle.OwnerPhone)
	assert.Equal(t, "ana@example.com", view.Vehicle.OwnerEmail)

	_, err = f.ws.UpdateClient(ctx, "missing", models.ClientInput{Name: "X", Phone: "1"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteClient_OrphansVehicles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Ana", "099", "")
	v := f.vehicle(t, c.ID, "SAB 1234")
	f.service(t, v.ID, "2024-06-10", 1000, "Brakes")

	require.NoError(t, f.ws.DeleteClient(ctx, c.ID))

	_, err := f.ws.GetClient(ctx, c.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	view, err := f.ws.GetVehicle(ctx, v.ID)
	require.NoError(t, err)
	assert.False(t, view.Vehicle.HasOwner())
	assert.Empty(t, view.Vehicle.OwnerName)
	assert.Len(t, view.Services, 1)

	assert.ErrorIs(t, f.ws.DeleteClient(ctx, c.ID), apperr.ErrNotFound)
}

func TestGetClient_Totals(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, "Ana", "099", "")
	v1 := f.vehicle(t, c.ID, "AAA 1")
	v2 := f.vehicle(t, c.ID, "BBB 2")
	f.service(t, v1.ID, "2024-06-01", 1000, "Brakes")
	f.service(t, v2.ID, "2024-06-02", 250.5, "Battery")

	view, err := f.ws.GetClient(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Len(t, view.Vehicles, 2)
	assert.Equal(t, 2, view.Totals.ServiceCount)
	assert.Equal(t, "1250.5", view.Totals.TotalSpent.String())
}

func TestReassignOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.client(t, "Ana", "099", "")
	bruno := f.client(t, "Bruno", "098", "bruno@example.com")
	v := f.vehicle(t, ana.ID, "SAB 1234")

	moved, err := f.ws.ReassignOwner(ctx, v.ID, models.OwnerInput{ClientID: bruno.ID})
	require.NoError(t, err)
	assert.Equal(t, bruno.ID, moved.ClientID)
	assert.Equal(t, "Bruno", moved.OwnerName)

	released, err := f.ws.ReassignOwner(ctx, v.ID, models.OwnerInput{})
	require.NoError(t, err)
	assert.False(t, released.HasOwner())

	_, err = f.ws.ReassignOwner(ctx, v.ID, models.OwnerInput{ClientID: "missing"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteVehicle_BlockedByServices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Ana", "099", "")
	v := f.vehicle(t, c.ID, "SAB 1234")
	s := f.service(t, v.ID, "2024-06-10", 1000, "Brakes")

	err := f.ws.DeleteVehicle(ctx, v.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, 409, apperr.StatusCode(err))

	require.NoError(t, f.ws.DeleteService(ctx, s.ID))
	require.NoError(t, f.ws.DeleteVehicle(ctx, v.ID))
	_, err = f.ws.GetVehicle(ctx, v.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetVehicle_NextOilChangeFromLatest(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, "Ana", "099", "")
	v := f.vehicle(t, c.ID, "SAB 1234")
	f.service(t, v.ID, "2024-01-10", 1000, models.ServiceTypeOilChange)
	f.service(t, v.ID, "2024-06-10", 500, "Brakes")

	view, err := f.ws.GetVehicle(context.Background(), v.ID)
	require.NoError(t, err)
	require.Len(t, view.Services, 2)
	assert.Equal(t, "2024-06-10", view.Services[0].Date)
	require.NotNil(t, view.NextOilChange)
	assert.Equal(t, 50000, *view.NextOilChange)
}

func TestCreateService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Ana", "099", "")
	v := f.vehicle(t, c.ID, "SAB 1234")

	s := f.service(t, v.ID, "2024-06-10", 1000, "Brakes")
	assert.Equal(t, models.StateInProgress, s.State)
	assert.NotEmpty(t, s.ID)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, events.ServiceCreated, f.events.events[0].Type)
	assert.Equal(t, "SAB 1234", f.events.events[0].Plate)

	_, err := f.ws.CreateService(ctx, models.ServiceInput{
		VehicleID: "missing", Date: "2024-06-10", ServiceTypes: []string{"Brakes"},
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.ws.CreateService(ctx, models.ServiceInput{VehicleID: v.ID, Date: "2024-06-10"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreateService_PublishFailureIsLogged(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("broker down")
	c := f.client(t, "Ana", "099", "")
	v := f.vehicle(t, c.ID, "SAB 1234")

	f.service(t, v.ID, "2024-06-10", 1000, "Brakes")

	var warned bool
	for _, e := range f.hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "Failed to publish event" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestCompleteService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Ana", "099", "")
	v := f.vehicle(t, c.ID, "SAB 1234")
	s := f.service(t, v.ID, "2024-06-10", 1000, "Brakes")

	done, err := f.ws.CompleteService(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateCompleted, done.State)

	stored, err := f.ws.GetService(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsCompleted())

	_, err = f.ws.CompleteService(ctx, s.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	require.Len(t, f.events.events, 2)
	assert.Equal(t, events.ServiceCompleted, f.events.events[1].Type)
	assert.Equal(t, models.StateCompleted, f.events.events[1].State)

	_, err = f.ws.CompleteService(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateService_KeepsState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Ana", "099", "")
	v := f.vehicle(t, c.ID, "SAB 1234")
	s := f.service(t, v.ID, "2024-06-10", 1000, "Brakes")
	_, err := f.ws.CompleteService(ctx, s.ID)
	require.NoError(t, err)

	updated, err := f.ws.UpdateService(ctx, s.ID, models.ServiceInput{
		VehicleID: v.ID, Date: "2024-06-11", Odometer: 46000,
		ServiceTypes: []string{"Brakes", "Battery"}, Cost: 1500, Mechanic: "Luis",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StateCompleted, updated.State)
	assert.Equal(t, []string{"Brakes", "Battery"}, updated.ServiceTypes)

	_, err = f.ws.UpdateService(ctx, s.ID, models.ServiceInput{
		VehicleID: "missing", Date: "2024-06-11", ServiceTypes: []string{"Brakes"},
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListServices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Ana", "099", "")
	v := f.vehicle(t, c.ID, "SAB 1234")
	f.service(t, v.ID, "2024-06-01", 1000, "Brakes")
	f.service(t, v.ID, "2024-06-10", 500, "Battery")
	f.service(t, v.ID, "2024-06-12", 700, models.ServiceTypeOilChange)

	all, err := f.ws.ListServices(ctx, ServiceFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	ranged, err := f.ws.ListServices(ctx, ServiceFilter{Start: "2024-06-10", End: "2024-06-12"})
	require.NoError(t, err)
	assert.Len(t, ranged, 2)

	typed, err := f.ws.ListServices(ctx, ServiceFilter{Types: []string{"Brakes", "Battery"}})
	require.NoError(t, err)
	assert.Len(t, typed, 2)

	_, err = f.ws.ListServices(ctx, ServiceFilter{Start: "2024-06-10"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.ws.ListServices(ctx, ServiceFilter{Start: "2024-06-12", End: "2024-06-10"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Ana", "099", "")
	a := f.vehicle(t, c.ID, "AAA 1")
	b := f.vehicle(t, c.ID, "BBB 2")
	f.service(t, a.ID, "2024-06-10", 1000, "Brakes")
	f.service(t, a.ID, "2024-06-11", 2000, "Battery")
	f.service(t, b.ID, "2024-06-12", 500, "Brakes")
	f.service(t, b.ID, "2024-06-03", 9999, "Brakes")

	week, err := f.ws.Stats(ctx, StatsQuery{Period: "week"})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-10", week.Stats.Start)
	assert.Equal(t, "2024-06-12", week.Stats.End)
	assert.Equal(t, 3, week.Stats.ServiceCount)
	assert.Equal(t, "3500", week.Stats.TotalRevenue.String())
	assert.Equal(t, 2, week.Stats.UniqueVehicles)
	assert.Equal(t, "1166.67", week.Stats.AverageTicket.String())
	assert.Len(t, week.Services, 3)

	day, err := f.ws.Stats(ctx, StatsQuery{Period: "day"})
	require.NoError(t, err)
	assert.Equal(t, 1, day.Stats.ServiceCount)

	month, err := f.ws.Stats(ctx, StatsQuery{})
	require.NoError(t, err)
	assert.Equal(t, 4, month.Stats.ServiceCount)

	brakes, err := f.ws.Stats(ctx, StatsQuery{Period: "month", Types: []string{"Brakes"}})
	require.NoError(t, err)
	assert.Equal(t, 3, brakes.Stats.ServiceCount)

	custom, err := f.ws.Stats(ctx, StatsQuery{Period: "custom", Start: "2024-06-03", End: "2024-06-03"})
	require.NoError(t, err)
	assert.Equal(t, 1, custom.Stats.ServiceCount)

	_, err = f.ws.Stats(ctx, StatsQuery{Period: "custom", Start: "2024-06-12", End: "2024-06-01"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.ws.Stats(ctx, StatsQuery{Period: "custom", Start: "yesterday"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.ws.Stats(ctx, StatsQuery{Period: "year"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDetail_FallsBackToOwnerSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Ana", "099 123 456", "ana@example.com")
	v := f.vehicle(t, c.ID, "SAB 1234")
	s := f.service(t, v.ID, "2024-06-10", 1000, "Brakes")

	detail, err := f.ws.Detail(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, detail.Client.ID)
	assert.Equal(t, "SAB 1234", detail.Vehicle.Plate)

	// Remove the client behind the workshop's back so the snapshot is all that is left.
	require.NoError(t, f.store.DeleteClient(ctx, c.ID))

	detail, err = f.ws.Detail(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", detail.Client.Name)
	assert.Equal(t, "ana@example.com", detail.Client.Email)

	_, err = f.ws.Detail(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestComposeNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Ana", "099 123 456", "")
	v := f.vehicle(t, c.ID, "SAB 1234")
	s := f.service(t, v.ID, "2024-06-10", 1000, "Brakes")

	n, err := f.ws.ComposeNotification(ctx, s.ID, "whatsapp")
	require.NoError(t, err)
	assert.Equal(t, "099 123 456", n.Message.Destination)
	assert.Contains(t, n.Message.Body, "Ana")
	assert.Contains(t, n.Message.Body, "SAB 1234")
	assert.True(t, strings.HasPrefix(n.Link, "https://wa.me/59899123456?text="), n.Link)

	_, err = f.ws.ComposeNotification(ctx, s.ID, "email")
	assert.ErrorIs(t, err, apperr.ErrMissingRecipient)

	_, err = f.ws.ComposeNotification(ctx, s.ID, "fax")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestInvoice(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, "Ana", "099", "")
	v := f.vehicle(t, c.ID, "SAB 1234")
	s := f.service(t, v.ID, "2024-06-10", 1000, models.ServiceTypeOilChange)

	inv, err := f.ws.Invoice(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Invoice-SAB1234-2024-06-10.pdf", inv.Filename)
	assert.True(t, strings.HasPrefix(string(inv.Bytes), "%PDF-"))
}

func TestNotifyService(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, email string) (*fixture, models.Service) {
		f := newFixture(t)
		c := f.client(t, "Ana", "099", email)
		v := f.vehicle(t, c.ID, "SAB 1234")
		return f, f.service(t, v.ID, "2024-06-10", 1000, "Brakes")
	}

	t.Run("sends email with invoice attached", func(t *testing.T) {
		f, s := setup(t, "ana@example.com")
		f.mailer.On("Send", mock.Anything, mock.MatchedBy(func(e mail.Email) bool {
			return e.To == "ana@example.com" &&
				strings.Contains(e.Subject, "SAB 1234") &&
				len(e.Attachments) == 1 &&
				e.Attachments[0].Filename == "Invoice-SAB1234-2024-06-10.pdf"
		})).Return("msg-1", nil)

		id, err := f.ws.NotifyService(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "msg-1", id)
		f.mailer.AssertExpectations(t)
	})

	t.Run("missing email", func(t *testing.T) {
		f, s := setup(t, "")
		_, err := f.ws.NotifyService(ctx, s.ID)
		assert.ErrorIs(t, err, apperr.ErrMissingRecipient)
		f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("provider failure", func(t *testing.T) {
		f, s := setup(t, "ana@example.com")
		f.mailer.On("Send", mock.Anything, mock.Anything).Return("", errors.New("rate limited"))

		_, err := f.ws.NotifyService(ctx, s.ID)
		assert.ErrorIs(t, err, apperr.ErrDelivery)
		assert.Contains(t, err.Error(), "rate limited")
	})
}

func TestSendEmail_NotConfigured(t *testing.T) {
	store, err := db.NewSQLiteStore(context.Background(), t.TempDir())
	require.NoError(t, err)
	defer store.Close(context.Background())

	logger, _ := test.NewNullLogger()
	ws := New(Deps{Store: store, Branding: config.DefaultBranding(), Logger: logger})

	_, err = ws.SendEmail(context.Background(), models.ServiceDetail{
		Service: models.Service{ID: "s1", Date: "2024-06-10", ServiceTypes: []string{"Brakes"}},
		Vehicle: models.Vehicle{Plate: "SAB 1234", Make: "Toyota", Model: "Corolla"},
		Client:  models.Client{Name: "Ana", Email: "ana@example.com"},
	})
	assert.ErrorIs(t, err, apperr.ErrDelivery)
	assert.ErrorIs(t, err, mail.ErrNotConfigured)
}
