package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/garage-service/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var errNilCollection = errors.New("mongo collection is nil")

// ConnectMongo connects to MongoDB at uri and verifies the connection.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	// Ping to verify connection
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// MongoStore keeps clients, vehicles and services in three collections.
// Documents use string UUIDs as _id.
type MongoStore struct {
	client   *mongo.Client
	Clients  *mongo.Collection
	Vehicles *mongo.Collection
	Services *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore uses the named database of an already connected client.
func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	db := client.Database(database)
	return &MongoStore{
		client:   client,
		Clients:  db.Collection("clients"),
		Vehicles: db.Collection("vehicles"),
		Services: db.Collection("services"),
	}
}

// EnsureIndexes creates the lookup indexes used by the store queries.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if s.Vehicles == nil || s.Services == nil {
		return errNilCollection
	}
	if _, err := s.Vehicles.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "client_id", Value: 1}}}); err != nil {
		return fmt.Errorf("creating vehicle index: %w", err)
	}
	_, err := s.Services.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "vehicle_id", Value: 1}}},
		{Keys: bson.D{{Key: "service_date", Value: -1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("creating service indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	if s.client == nil {
		return errors.New("mongo client is nil")
	}
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// ==================== Clients ====================

// InsertClient inserts a client record into the collection.
func (s *MongoStore) InsertClient(ctx context.Context, c models.Client) (models.Client, error) {
	if s.Clients == nil {
		return models.Client{}, errNilCollection
	}
	stamp(&c.ID, &c.CreatedAt)
	if _, err := s.Clients.InsertOne(ctx, c); err != nil {
		return models.Client{}, fmt.Errorf("inserting client: %w", err)
	}
	return c, nil
}

// FindClients returns all clients ordered by name.
func (s *MongoStore) FindClients(ctx context.Context) ([]models.Client, error) {
	out := make([]models.Client, 0)
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "created_at", Value: 1}})
	err := findAll(ctx, s.Clients, bson.M{}, opts, &out)
	return out, err
}

// FindClientByID finds a client by its ID.
func (s *MongoStore) FindClientByID(ctx context.Context, id string) (*models.Client, error) {
	var c models.Client
	if err := findOne(ctx, s.Clients, id, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateClient replaces the editable client fields.
func (s *MongoStore) UpdateClient(ctx context.Context, id string, c models.Client) error {
	return updateOne(ctx, s.Clients, id, bson.M{
		"name":        c.Name,
		"phone":       c.Phone,
		"email":       c.Email,
		"national_id": c.NationalID,
		"notes":       c.Notes,
	})
}

// DeleteClient deletes a client by its ID.
func (s *MongoStore) DeleteClient(ctx context.Context, id string) error {
	return deleteOne(ctx, s.Clients, id)
}

// ==================== Vehicles ====================

// InsertVehicle inserts a vehicle record into the collection.
func (s *MongoStore) InsertVehicle(ctx context.Context, v models.Vehicle) (models.Vehicle, error) {
	if s.Vehicles == nil {
		return models.Vehicle{}, errNilCollection
	}
	stamp(&v.ID, &v.CreatedAt)
	if _, err := s.Vehicles.InsertOne(ctx, v); err != nil {
		return models.Vehicle{}, fmt.Errorf("inserting vehicle: %w", err)
	}
	return v, nil
}

// FindVehicles returns all vehicles ordered by plate.
func (s *MongoStore) FindVehicles(ctx context.Context) ([]models.Vehicle, error) {
	out := make([]models.Vehicle, 0)
	err := findAll(ctx, s.Vehicles, bson.M{}, options.Find().SetSort(bson.D{{Key: "plate", Value: 1}}), &out)
	return out, err
}

// FindVehiclesByOwner returns the vehicles assigned to a client.
func (s *MongoStore) FindVehiclesByOwner(ctx context.Context, clientID string) ([]models.Vehicle, error) {
	out := make([]models.Vehicle, 0)
	err := findAll(ctx, s.Vehicles, bson.M{"client_id": clientID}, options.Find().SetSort(bson.D{{Key: "plate", Value: 1}}), &out)
	return out, err
}

// FindVehicleByID finds a vehicle by its ID.
func (s *MongoStore) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	var v models.Vehicle
	if err := findOne(ctx, s.Vehicles, id, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// UpdateVehicle updates a vehicle by its ID.
func (s *MongoStore) UpdateVehicle(ctx context.Context, id string, v models.Vehicle) error {
	return updateOne(ctx, s.Vehicles, id, bson.M{
		"plate":       v.Plate,
		"make":        v.Make,
		"model":       v.Model,
		"year":        v.Year,
		"client_id":   v.ClientID,
		"owner_name":  v.OwnerName,
		"owner_phone": v.OwnerPhone,
		"owner_email": v.OwnerEmail,
	})
}

// DeleteVehicle deletes a vehicle by its ID.
func (s *MongoStore) DeleteVehicle(ctx context.Context, id string) error {
	return deleteOne(ctx, s.Vehicles, id)
}

// ==================== Services ====================

var serviceSort = options.Find().SetSort(bson.D{{Key: "service_date", Value: -1}, {Key: "created_at", Value: -1}})

// InsertService inserts a service record into the collection.
func (s *MongoStore) InsertService(ctx context.Context, svc models.Service) (models.Service, error) {
	if s.Services == nil {
		return models.Service{}, errNilCollection
	}
	stamp(&svc.ID, &svc.CreatedAt)
	svc.ServiceTypes = nonNil(svc.ServiceTypes)
	if _, err := s.Services.InsertOne(ctx, svc); err != nil {
		return models.Service{}, fmt.Errorf("inserting service: %w", err)
	}
	return svc, nil
}

// FindServices returns all services, newest first.
func (s *MongoStore) FindServices(ctx context.Context) ([]models.Service, error) {
	out := make([]models.Service, 0)
	err := findAll(ctx, s.Services, bson.M{}, serviceSort, &out)
	return out, err
}

// FindServicesByVehicle returns a vehicle's history, newest first.
func (s *MongoStore) FindServicesByVehicle(ctx context.Context, vehicleID string) ([]models.Service, error) {
	out := make([]models.Service, 0)
	err := findAll(ctx, s.Services, bson.M{"vehicle_id": vehicleID}, serviceSort, &out)
	return out, err
}

// FindServicesByDateRange relies on YYYY-MM-DD strings sorting chronologically.
func (s *MongoStore) FindServicesByDateRange(ctx context.Context, start, end string) ([]models.Service, error) {
	out := make([]models.Service, 0)
	filter := bson.M{"service_date": bson.M{"$gte": start, "$lte": end}}
	err := findAll(ctx, s.Services, filter, serviceSort, &out)
	return out, err
}

// FindServiceByID finds a service by its ID.
func (s *MongoStore) FindServiceByID(ctx context.Context, id string) (*models.Service, error) {
	var svc models.Service
	if err := findOne(ctx, s.Services, id, &svc); err != nil {
		return nil, err
	}
	return &svc, nil
}

// UpdateService updates a service by its ID.
func (s *MongoStore) UpdateService(ctx context.Context, id string, svc models.Service) error {
	return updateOne(ctx, s.Services, id, bson.M{
		"vehicle_id":    svc.VehicleID,
		"service_date":  svc.Date,
		"odometer":      svc.Odometer,
		"service_types": nonNil(svc.ServiceTypes),
		"oil_type":      svc.OilType,
		"notes":         svc.Notes,
		"cost":          svc.Cost,
		"mechanic":      svc.Mechanic,
		"state":         svc.State,
	})
}

// DeleteService deletes a service by its ID.
func (s *MongoStore) DeleteService(ctx context.Context, id string) error {
	return deleteOne(ctx, s.Services, id)
}

// ==================== Helpers ====================

func findAll(ctx context.Context, coll *mongo.Collection, filter any, opts *options.FindOptions, out any) error {
	if coll == nil {
		return errNilCollection
	}
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

func findOne(ctx context.Context, coll *mongo.Collection, id string, out any) error {
	if coll == nil {
		return errNilCollection
	}
	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func updateOne(ctx context.Context, coll *mongo.Collection, id string, fields bson.M) error {
	if coll == nil {
		return errNilCollection
	}
	result, err := coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteOne(ctx context.Context, coll *mongo.Collection, id string) error {
	if coll == nil {
		return errNilCollection
	}
	result, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
