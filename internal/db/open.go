package db

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/garage-service/internal/config"
)

// Open connects the backend selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		store, err := NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		log.Info("Connected to PostgreSQL")
		return store, nil

	case config.DriverMongo:
		client, err := ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		store := NewMongoStore(client, cfg.MongoDB)
		if err := store.EnsureIndexes(ctx); err != nil {
			log.WithError(err).Warn("Failed to create MongoDB indexes")
		}
		log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")
		return store, nil

	case config.DriverSQLite:
		store, err := NewSQLiteStore(ctx, cfg.SQLiteDir)
		if err != nil {
			return nil, err
		}
		log.WithField("path", store.Path()).Info("Opened SQLite store")
		return store, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
