package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ukydev/garage-service/internal/models"
)

// PostgresStore is the hosted relational backend.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to databaseURL, pings it and applies pending migrations.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := migrate(ctx, s, "migrations/postgres"); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close(context.Context) error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) currentVersion(ctx context.Context) (int, error) {
	if _, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return 0, fmt.Errorf("creating schema_migrations table: %w", err)
	}
	var v int
	err := s.pool.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v)
	return v, err
}

func (s *PostgresStore) apply(ctx context.Context, m migration) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, m.sql); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", m.version); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ==================== Clients ====================

const pgClientColumns = "id, name, phone, email, national_id, notes, created_at"

func (s *PostgresStore) InsertClient(ctx context.Context, c models.Client) (models.Client, error) {
	stamp(&c.ID, &c.CreatedAt)
	_, err := s.pool.Exec(ctx,
		"INSERT INTO clients ("+pgClientColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7)",
		c.ID, c.Name, c.Phone, c.Email, c.NationalID, c.Notes, c.CreatedAt)
	if err != nil {
		return models.Client{}, fmt.Errorf("inserting client: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) FindClients(ctx context.Context) ([]models.Client, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+pgClientColumns+" FROM clients ORDER BY lower(name), created_at")
	if err != nil {
		return nil, fmt.Errorf("querying clients: %w", err)
	}
	return collect(rows, scanPgClient)
}

func (s *PostgresStore) FindClientByID(ctx context.Context, id string) (*models.Client, error) {
	c, err := scanPgClient(s.pool.QueryRow(ctx, "SELECT "+pgClientColumns+" FROM clients WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) UpdateClient(ctx context.Context, id string, c models.Client) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE clients SET name = $1, phone = $2, email = $3, national_id = $4, notes = $5 WHERE id = $6",
		c.Name, c.Phone, c.Email, c.NationalID, c.Notes, id)
	return checkPgAffected(tag, err, "updating client")
}

func (s *PostgresStore) DeleteClient(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM clients WHERE id = $1", id)
	return checkPgAffected(tag, err, "deleting client")
}

// ==================== Vehicles ====================

const pgVehicleColumns = "id, plate, make, model, year, COALESCE(client_id, ''), owner_name, owner_phone, owner_email, created_at"

func (s *PostgresStore) InsertVehicle(ctx context.Context, v models.Vehicle) (models.Vehicle, error) {
	stamp(&v.ID, &v.CreatedAt)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO vehicles (id, plate, make, model, year, client_id, owner_name, owner_phone, owner_email, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10)`,
		v.ID, v.Plate, v.Make, v.Model, v.Year, v.ClientID, v.OwnerName, v.OwnerPhone, v.OwnerEmail, v.CreatedAt)
	if err != nil {
		return models.Vehicle{}, fmt.Errorf("inserting vehicle: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) FindVehicles(ctx context.Context) ([]models.Vehicle, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+pgVehicleColumns+" FROM vehicles ORDER BY plate")
	if err != nil {
		return nil, fmt.Errorf("querying vehicles: %w", err)
	}
	return collect(rows, scanPgVehicle)
}

func (s *PostgresStore) FindVehiclesByOwner(ctx context.Context, clientID string) ([]models.Vehicle, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+pgVehicleColumns+" FROM vehicles WHERE client_id = $1 ORDER BY plate", clientID)
	if err != nil {
		return nil, fmt.Errorf("querying vehicles: %w", err)
	}
	return collect(rows, scanPgVehicle)
}

func (s *PostgresStore) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	v, err := scanPgVehicle(s.pool.QueryRow(ctx, "SELECT "+pgVehicleColumns+" FROM vehicles WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *PostgresStore) UpdateVehicle(ctx context.Context, id string, v models.Vehicle) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE vehicles SET plate = $1, make = $2, model = $3, year = $4, client_id = NULLIF($5, ''),
			owner_name = $6, owner_phone = $7, owner_email = $8
		WHERE id = $9`,
		v.Plate, v.Make, v.Model, v.Year, v.ClientID, v.OwnerName, v.OwnerPhone, v.OwnerEmail, id)
	return checkPgAffected(tag, err, "updating vehicle")
}

func (s *PostgresStore) DeleteVehicle(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM vehicles WHERE id = $1", id)
	return checkPgAffected(tag, err, "deleting vehicle")
}

// ==================== Services ====================

const pgServiceColumns = "id, vehicle_id, service_date::text, odometer, service_types, oil_type, notes, cost::float8, mechanic, state, created_at"

const pgServiceOrder = " ORDER BY service_date DESC, created_at DESC"

func (s *PostgresStore) InsertService(ctx context.Context, svc models.Service) (models.Service, error) {
	stamp(&svc.ID, &svc.CreatedAt)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO services (id, vehicle_id, service_date, odometer, service_types, oil_type, notes, cost, mechanic, state, created_at)
		VALUES ($1, $2, $3::text::date, $4, $5, $6, $7, $8, $9, $10, $11)`,
		svc.ID, svc.VehicleID, svc.Date, svc.Odometer, nonNil(svc.ServiceTypes), string(svc.OilType),
		svc.Notes, svc.Cost, svc.Mechanic, string(svc.State), svc.CreatedAt)
	if err != nil {
		return models.Service{}, fmt.Errorf("inserting service: %w", err)
	}
	return svc, nil
}

func (s *PostgresStore) FindServices(ctx context.Context) ([]models.Service, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+pgServiceColumns+" FROM services"+pgServiceOrder)
	if err != nil {
		return nil, fmt.Errorf("querying services: %w", err)
	}
	return collect(rows, scanPgService)
}

func (s *PostgresStore) FindServicesByVehicle(ctx context.Context, vehicleID string) ([]models.Service, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+pgServiceColumns+" FROM services WHERE vehicle_id = $1"+pgServiceOrder, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("querying services: %w", err)
	}
	return collect(rows, scanPgService)
}

func (s *PostgresStore) FindServicesByDateRange(ctx context.Context, start, end string) ([]models.Service, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+pgServiceColumns+" FROM services WHERE service_date BETWEEN $1::text::date AND $2::text::date"+pgServiceOrder,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("querying services: %w", err)
	}
	return collect(rows, scanPgService)
}

func (s *PostgresStore) FindServiceByID(ctx context.Context, id string) (*models.Service, error) {
	svc, err := scanPgService(s.pool.QueryRow(ctx, "SELECT "+pgServiceColumns+" FROM services WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (s *PostgresStore) UpdateService(ctx context.Context, id string, svc models.Service) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE services SET vehicle_id = $1, service_date = $2::text::date, odometer = $3, service_types = $4,
			oil_type = $5, notes = $6, cost = $7, mechanic = $8, state = $9
		WHERE id = $10`,
		svc.VehicleID, svc.Date, svc.Odometer, nonNil(svc.ServiceTypes), string(svc.OilType),
		svc.Notes, svc.Cost, svc.Mechanic, string(svc.State), id)
	return checkPgAffected(tag, err, "updating service")
}

func (s *PostgresStore) DeleteService(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM services WHERE id = $1", id)
	return checkPgAffected(tag, err, "deleting service")
}

// ==================== Helpers ====================

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	out := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func scanPgClient(row pgx.Row) (models.Client, error) {
	var c models.Client
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.NationalID, &c.Notes, &c.CreatedAt)
	c.CreatedAt = c.CreatedAt.UTC()
	return c, err
}

func scanPgVehicle(row pgx.Row) (models.Vehicle, error) {
	var v models.Vehicle
	err := row.Scan(&v.ID, &v.Plate, &v.Make, &v.Model, &v.Year, &v.ClientID,
		&v.OwnerName, &v.OwnerPhone, &v.OwnerEmail, &v.CreatedAt)
	v.CreatedAt = v.CreatedAt.UTC()
	return v, err
}

func scanPgService(row pgx.Row) (models.Service, error) {
	var svc models.Service
	var oilType, state string
	err := row.Scan(&svc.ID, &svc.VehicleID, &svc.Date, &svc.Odometer, &svc.ServiceTypes, &oilType,
		&svc.Notes, &svc.Cost, &svc.Mechanic, &state, &svc.CreatedAt)
	svc.OilType = models.OilType(oilType)
	svc.State = models.ServiceState(state)
	svc.CreatedAt = svc.CreatedAt.UTC()
	return svc, err
}

func checkPgAffected(tag pgconn.CommandTag, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
