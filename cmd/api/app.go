package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chachabrian/courier-backend/internal/config"
	"github.com/chachabrian/courier-backend/internal/database"
	"github.com/chachabrian/courier-backend/internal/database/mongostore"
	"github.com/chachabrian/courier-backend/internal/services"
)

// stores bundles the persistence adapters chosen by DB_DRIVER.
type stores struct {
	users   services.UserStore
	parcels services.ParcelStore
	close   func()
}

func openStores(ctx context.Context, cfg config.DatabaseConfig) (*stores, error) {
	if cfg.Driver == config.DriverMongo {
		store, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		return &stores{
			users:   store,
			parcels: store,
			close: func() {
				if err := store.Close(context.Background()); err != nil {
					log.Printf("Error closing MongoDB connection: %v", err)
				}
			},
		}, nil
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Get underlying SQL DB instance
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	repo := database.NewRepository(db)
	return &stores{
		users:   repo,
		parcels: repo,
		close: func() {
			if err := sqlDB.Close(); err != nil {
				log.Printf("Error closing database: %v", err)
			}
		},
	}, nil
}

func openSessionStore(ctx context.Context, cfg *config.Config) (services.SessionStore, func(), error) {
	if cfg.RedisURL == "" {
		log.Printf("REDIS_URL not set. Using in-process session store (not shared between instances)")
		return services.NewMemorySessionStore(cfg.StagedBookingTTL), func() {}, nil
	}

	store, err := services.NewRedisSessionStore(ctx, cfg.RedisURL, cfg.StagedBookingTTL)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("Redis session store initialized")
	return store, func() { store.Close() }, nil
}
