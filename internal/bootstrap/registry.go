// Package bootstrap opens the configured record store and assembles the
// services on top of it. Both the HTTP server and the CLI start here.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/spec-kit/donor-registry/internal/codec"
	"github.com/spec-kit/donor-registry/internal/config"
	"github.com/spec-kit/donor-registry/internal/events"
	"github.com/spec-kit/donor-registry/internal/persistence"
	"github.com/spec-kit/donor-registry/internal/repository"
	"github.com/spec-kit/donor-registry/internal/service"
	"github.com/spec-kit/donor-registry/internal/storage"
	"github.com/spec-kit/donor-registry/internal/worker"
)

const sqliteFileName = "registry.db"

// Registry is an opened record store plus the services that use it.
type Registry struct {
	Backend string
	Users   repository.UserRepository

	Registration *service.RegistrationService
	Directory    *service.DirectoryService
	Import       *service.ImportService

	closers []func()
}

// Open connects the backend named in cfg.Storage, prepares it and wires the
// services.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Storage.Validate(); err != nil {
		return nil, err
	}

	reg := &Registry{Backend: cfg.Storage.Backend}
	users, err := reg.openUsers(ctx, cfg, logger)
	if err != nil {
		reg.Close()
		return nil, err
	}
	reg.Users = users

	if cfg.Storage.Backend != config.BackendPostgres || cfg.Postgres.RunMigrations {
		if err := users.Initialize(ctx); err != nil {
			reg.Close()
			return nil, fmt.Errorf("initialize %s store: %w", cfg.Storage.Backend, err)
		}
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	reg.Registration = service.NewRegistrationService(cfg, service.RegistrationDependencies{
		UserRepo:   users,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	reg.Directory = service.NewDirectoryService(users)
	reg.Import = service.NewImportService(cfg, service.ImportDependencies{
		UserRepo:   users,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	logger.Info("record store ready", zap.String("backend", cfg.Storage.Backend))
	return reg, nil
}

func (r *Registry) openUsers(ctx context.Context, cfg config.Config, logger *zap.Logger) (repository.UserRepository, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return repository.NewBlobUserRepository(storage.NewMemoryStore(), cfg.Storage.Key, codec.CSV{}), nil

	case config.BackendFile:
		store, err := storage.NewFileStore(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, func() { _ = store.Close() })
		return repository.NewBlobUserRepository(store, cfg.Storage.Key, codec.CSV{}), nil

	case config.BackendRedis:
		rdb, err := persistence.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, rdb.Close)
		store := storage.NewRedisStore(rdb.Client, cfg.Redis.KeyPrefix)
		return repository.NewBlobUserRepository(store, cfg.Storage.Key, codec.CSV{}), nil

	case config.BackendSQLite:
		db, err := persistence.NewSQLite(ctx, sqlitePath(cfg.Storage.Path), logger)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, db.Close)
		return repository.NewSQLiteUserRepository(db.DB, logger), nil

	case config.BackendPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		r.closers = append(r.closers, pg.Close)
		return repository.NewPostgresUserRepository(pg, logger), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// Close releases backend connections in reverse order of opening.
func (r *Registry) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

// sqlitePath lets STORAGE_PATH name either the database file or the
// directory that holds it.
func sqlitePath(path string) string {
	if path == ":memory:" {
		return path
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, sqliteFileName)
	}
	return path
}
