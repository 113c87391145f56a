package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ukydev/garage-service/internal/models"
)

// SQLiteStore keeps the shop's records in a single local database file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) garage.db inside dataDir and
// applies pending migrations.
func NewSQLiteStore(ctx context.Context, dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "garage.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{db: db, path: dbPath}
	if err := migrate(ctx, s, "migrations/sqlite"); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}

func (s *SQLiteStore) currentVersion(ctx context.Context) (int, error) {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return 0, fmt.Errorf("creating schema_migrations table: %w", err)
	}
	var v int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v)
	return v, err
}

func (s *SQLiteStore) apply(ctx context.Context, m migration) error {
	if _, err := s.db.ExecContext(ctx, m.sql); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", m.version)
	return err
}

// ==================== Clients ====================

const sqliteClientColumns = "id, name, phone, email, national_id, notes, created_at"

func (s *SQLiteStore) InsertClient(ctx context.Context, c models.Client) (models.Client, error) {
	stamp(&c.ID, &c.CreatedAt)
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO clients ("+sqliteClientColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		c.ID, c.Name, c.Phone, c.Email, c.NationalID, c.Notes, formatTime(c.CreatedAt))
	if err != nil {
		return models.Client{}, fmt.Errorf("inserting client: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) FindClients(ctx context.Context) ([]models.Client, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+sqliteClientColumns+" FROM clients ORDER BY name COLLATE NOCASE, created_at")
	if err != nil {
		return nil, fmt.Errorf("querying clients: %w", err)
	}
	defer rows.Close()

	clients := make([]models.Client, 0)
	for rows.Next() {
		c, err := scanSQLiteClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (s *SQLiteStore) FindClientByID(ctx context.Context, id string) (*models.Client, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sqliteClientColumns+" FROM clients WHERE id = ?", id)
	c, err := scanSQLiteClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLiteStore) UpdateClient(ctx context.Context, id string, c models.Client) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE clients SET name = ?, phone = ?, email = ?, national_id = ?, notes = ? WHERE id = ?",
		c.Name, c.Phone, c.Email, c.NationalID, c.Notes, id)
	return checkSQLiteAffected(res, err, "updating client")
}

func (s *SQLiteStore) DeleteClient(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM clients WHERE id = ?", id)
	return checkSQLiteAffected(res, err, "deleting client")
}

// ==================== Vehicles ====================

const sqliteVehicleColumns = "id, plate, make, model, year, client_id, owner_name, owner_phone, owner_email, created_at"

func (s *SQLiteStore) InsertVehicle(ctx context.Context, v models.Vehicle) (models.Vehicle, error) {
	stamp(&v.ID, &v.CreatedAt)
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO vehicles ("+sqliteVehicleColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		v.ID, v.Plate, v.Make, v.Model, v.Year, nullString(v.ClientID),
		v.OwnerName, v.OwnerPhone, v.OwnerEmail, formatTime(v.CreatedAt))
	if err != nil {
		return models.Vehicle{}, fmt.Errorf("inserting vehicle: %w", err)
	}
	return v, nil
}

func (s *SQLiteStore) FindVehicles(ctx context.Context) ([]models.Vehicle, error) {
	return s.queryVehicles(ctx, "SELECT "+sqliteVehicleColumns+" FROM vehicles ORDER BY plate")
}

func (s *SQLiteStore) FindVehiclesByOwner(ctx context.Context, clientID string) ([]models.Vehicle, error) {
	return s.queryVehicles(ctx, "SELECT "+sqliteVehicleColumns+" FROM vehicles WHERE client_id = ? ORDER BY plate", clientID)
}

func (s *SQLiteStore) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sqliteVehicleColumns+" FROM vehicles WHERE id = ?", id)
	v, err := scanSQLiteVehicle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *SQLiteStore) UpdateVehicle(ctx context.Context, id string, v models.Vehicle) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE vehicles SET plate = ?, make = ?, model = ?, year = ?, client_id = ?,
			owner_name = ?, owner_phone = ?, owner_email = ?
		WHERE id = ?`,
		v.Plate, v.Make, v.Model, v.Year, nullString(v.ClientID),
		v.OwnerName, v.OwnerPhone, v.OwnerEmail, id)
	return checkSQLiteAffected(res, err, "updating vehicle")
}

func (s *SQLiteStore) DeleteVehicle(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM vehicles WHERE id = ?", id)
	return checkSQLiteAffected(res, err, "deleting vehicle")
}

func (s *SQLiteStore) queryVehicles(ctx context.Context, query string, args ...any) ([]models.Vehicle, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := make([]models.Vehicle, 0)
	for rows.Next() {
		v, err := scanSQLiteVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

// ==================== Services ====================

const sqliteServiceColumns = "id, vehicle_id, service_date, odometer, service_types, oil_type, notes, cost, mechanic, state, created_at"

func (s *SQLiteStore) InsertService(ctx context.Context, svc models.Service) (models.Service, error) {
	stamp(&svc.ID, &svc.CreatedAt)
	types, err := json.Marshal(nonNil(svc.ServiceTypes))
	if err != nil {
		return models.Service{}, fmt.Errorf("marshalling service types: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO services ("+sqliteServiceColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		svc.ID, svc.VehicleID, svc.Date, svc.Odometer, string(types), string(svc.OilType),
		svc.Notes, svc.Cost, svc.Mechanic, string(svc.State), formatTime(svc.CreatedAt))
	if err != nil {
		return models.Service{}, fmt.Errorf("inserting service: %w", err)
	}
	return svc, nil
}

func (s *SQLiteStore) FindServices(ctx context.Context) ([]models.Service, error) {
	return s.queryServices(ctx, "SELECT "+sqliteServiceColumns+" FROM services ORDER BY service_date DESC, created_at DESC")
}

func (s *SQLiteStore) FindServicesByVehicle(ctx context.Context, vehicleID string) ([]models.Service, error) {
	return s.queryServices(ctx,
		"SELECT "+sqliteServiceColumns+" FROM services WHERE vehicle_id = ? ORDER BY service_date DESC, created_at DESC",
		vehicleID)
}

func (s *SQLiteStore) FindServicesByDateRange(ctx context.Context, start, end string) ([]models.Service, error) {
	return s.queryServices(ctx,
		"SELECT "+sqliteServiceColumns+" FROM services WHERE service_date BETWEEN ? AND ? ORDER BY service_date DESC, created_at DESC",
		start, end)
}

func (s *SQLiteStore) FindServiceByID(ctx context.Context, id string) (*models.Service, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sqliteServiceColumns+" FROM services WHERE id = ?", id)
	svc, err := scanSQLiteService(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (s *SQLiteStore) UpdateService(ctx context.Context, id string, svc models.Service) error {
	types, err := json.Marshal(nonNil(svc.ServiceTypes))
	if err != nil {
		return fmt.Errorf("marshalling service types: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE services SET vehicle_id = ?, service_date = ?, odometer = ?, service_types = ?,
			oil_type = ?, notes = ?, cost = ?, mechanic = ?, state = ?
		WHERE id = ?`,
		svc.VehicleID, svc.Date, svc.Odometer, string(types), string(svc.OilType),
		svc.Notes, svc.Cost, svc.Mechanic, string(svc.State), id)
	return checkSQLiteAffected(res, err, "updating service")
}

func (s *SQLiteStore) DeleteService(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM services WHERE id = ?", id)
	return checkSQLiteAffected(res, err, "deleting service")
}

func (s *SQLiteStore) queryServices(ctx context.Context, query string, args ...any) ([]models.Service, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying services: %w", err)
	}
	defer rows.Close()

	services := make([]models.Service, 0)
	for rows.Next() {
		svc, err := scanSQLiteService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}

// ==================== Helpers ====================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteClient(row rowScanner) (models.Client, error) {
	var c models.Client
	var created string
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.NationalID, &c.Notes, &created); err != nil {
		return models.Client{}, err
	}
	var err error
	c.CreatedAt, err = parseTime(created)
	return c, err
}

func scanSQLiteVehicle(row rowScanner) (models.Vehicle, error) {
	var v models.Vehicle
	var clientID sql.NullString
	var created string
	if err := row.Scan(&v.ID, &v.Plate, &v.Make, &v.Model, &v.Year, &clientID,
		&v.OwnerName, &v.OwnerPhone, &v.OwnerEmail, &created); err != nil {
		return models.Vehicle{}, err
	}
	v.ClientID = clientID.String
	var err error
	v.CreatedAt, err = parseTime(created)
	return v, err
}

func scanSQLiteService(row rowScanner) (models.Service, error) {
	var svc models.Service
	var types, oilType, state, created string
	if err := row.Scan(&svc.ID, &svc.VehicleID, &svc.Date, &svc.Odometer, &types, &oilType,
		&svc.Notes, &svc.Cost, &svc.Mechanic, &state, &created); err != nil {
		return models.Service{}, err
	}
	if err := json.Unmarshal([]byte(types), &svc.ServiceTypes); err != nil {
		return models.Service{}, fmt.Errorf("unmarshalling service types: %w", err)
	}
	svc.OilType = models.OilType(oilType)
	svc.State = models.ServiceState(state)
	var err error
	svc.CreatedAt, err = parseTime(created)
	return svc, err
}

func checkSQLiteAffected(res sql.Result, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// sqliteTimeLayout has fixed-width fractions so stored timestamps sort lexically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
