package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"notebook/internal/config"
	"notebook/internal/db"
	"notebook/internal/notes"
)

// openStore returns the configured backend and a func that releases it.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (notes.Store, func(), error) {
	var store notes.Store

	switch cfg.Store {
	case config.StoreFile:
		store = notes.NewFileStore(cfg.FilePath)

	case config.StoreSQLite:
		logger.Info("opening SQLite", "path", cfg.SQLitePath)
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		s, err := notes.NewSQLiteStore(ctx, sqlDB)
		if err != nil {
			sqlDB.Close()
			return nil, nil, err
		}
		store = s

	case config.StorePostgres:
		logger.Info("connecting to Postgres")
		pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		s, err := notes.NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		store = s

	case config.StoreMongo:
		logger.Info("connecting to MongoDB", "db", cfg.MongoDB)
		database, err := db.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		store = notes.NewMongoStore(database)

	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	closeFn := func() {
		c, ok := store.(io.Closer)
		if !ok {
			return
		}
		if err := c.Close(); err != nil {
			logger.Warn("failed to close store", "error", err)
		}
	}
	return store, closeFn, nil
}
