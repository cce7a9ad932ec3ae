package console

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/config"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/guard"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/rbac"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/service"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/session"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/session/redisstore"
)

// Storage drivers accepted in storage.driver.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// DefaultDataDir returns ~/.assetctl, or ./.assetctl when the home
// directory cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".assetctl"
	}
	return filepath.Join(home, ".assetctl")
}

// OpenBackend creates the durable session backend selected by cfg. The
// returned close function releases it.
func OpenBackend(ctx context.Context, cfg config.StorageConfig) (session.Backend, func() error, error) {
	switch cfg.Driver {
	case "", DriverSQLite:
		dir := cfg.DataDir
		if dir == "" {
			dir = DefaultDataDir()
		}
		store, err := config.NewStore(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite session storage: %w", err)
		}
		return store, store.Close, nil

	case DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		backend := redisstore.New(client, cfg.Redis.Prefix)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := backend.Ping(pingCtx); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connect redis session storage at %s: %w", cfg.Redis.Addr, err)
		}
		return backend, client.Close, nil

	case DriverMemory:
		return session.NewMemoryBackend(), func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q (want sqlite, redis or memory)", cfg.Driver)
	}
}

// Open builds a Console from configuration. Call the returned close
// function when done.
func Open(ctx context.Context, cfg *config.YAMLConfig, logger *slog.Logger) (*Console, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}

	backend, closeFn, err := OpenBackend(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("session storage opened", "driver", cfg.Storage.Driver)

	store := session.NewStore(backend, logger)
	auth := service.NewAuthenticator(store, service.Config{
		Endpoint: cfg.Auth.Endpoint,
		Timeout:  config.ParseDuration(cfg.Auth.Timeout, service.DefaultTimeout),
	}, logger)

	c := New(store, auth, rbac.RegistryFromConfig(cfg.Roles), logger,
		guard.WithLoginPath(cfg.Guard.LoginPath),
		guard.WithDefaultPath(cfg.Guard.DefaultPath),
	)
	return c, closeFn, nil
}
