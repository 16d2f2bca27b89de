// internal/di/container.go
package di

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/ammerola/inventory-api/internal/adapters/db"
	"github.com/ammerola/inventory-api/internal/adapters/filestore"
	redis_a "github.com/ammerola/inventory-api/internal/adapters/redis_adapter"
	"github.com/ammerola/inventory-api/internal/adapters/storage"
	"github.com/ammerola/inventory-api/internal/core/ports"
	"github.com/ammerola/inventory-api/internal/core/services"
	"github.com/ammerola/inventory-api/internal/pkg/config"
)

const migrationAttempts = 5

// PhotoBackend stores photos and can enumerate them
type PhotoBackend interface {
	ports.PhotoStore
	ports.PhotoLister
}

// Container holds the backends shared by the api, worker and invctl binaries
type Container struct {
	// Repository is the record backend, decorated with the redis cache when enabled
	Repository ports.InventoryRepository
	Photos     PhotoBackend
	// LocalPhotos is set when photos live on local disk
	LocalPhotos *storage.LocalPhotoStore
	// Cache is nil unless CACHE_ENABLED
	Cache ports.CacheRepository
	// SQLDB is nil for the file backend
	SQLDB *sql.DB

	config  *config.Config
	logger  *slog.Logger
	closers []func() error
}

// BuildContainer opens the configured record and photo backends. On error
// everything opened so far is closed again.
func BuildContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (c *Container, err error) {
	c = &Container{config: cfg, logger: logger}
	defer func() {
		if err != nil {
			c.Cleanup()
			c = nil
		}
	}()

	repo, err := c.openRepository(ctx)
	if err != nil {
		return nil, err
	}
	c.Repository = repo

	if err := c.openPhotos(ctx); err != nil {
		return nil, err
	}

	if cfg.Cache.Enabled {
		if err := c.openCache(ctx); err != nil {
			return nil, err
		}
		c.Repository = redis_a.NewCachedInventoryRepository(c.Repository, c.Cache, cfg.Cache.TTL, logger)
	}

	logger.InfoContext(ctx, "backends initialized",
		slog.String("storage_backend", cfg.Storage.Backend),
		slog.String("photo_backend", cfg.Storage.PhotoBackend),
		slog.Bool("cache_enabled", cfg.Cache.Enabled))

	return c, nil
}

// NewInventoryService builds the service over the container's backends.
// queue may be nil.
func (c *Container) NewInventoryService(queue ports.JobQueue) *services.InventoryService {
	return services.NewInventoryService(c.Repository, c.Photos, queue, c.logger)
}

// HealthChecks returns a readiness check per backend, keyed by name
func (c *Container) HealthChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{
		"repository": c.Repository.Ping,
	}
	if c.Cache != nil {
		checks["cache"] = c.Cache.Ping
	}
	return checks
}

// Cleanup closes every opened backend in reverse order
func (c *Container) Cleanup() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Container) openRepository(ctx context.Context) (ports.InventoryRepository, error) {
	cfg := c.config

	if cfg.Storage.Backend == config.BackendFile {
		repo, err := filestore.NewInventoryRepository(cfg.Storage.CacheDir, c.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open file repository: %w", err)
		}
		return repo, nil
	}

	dialect, err := db.ParseDialect(cfg.Storage.Backend)
	if err != nil {
		return nil, err
	}

	if cfg.Storage.AutoMigrate {
		mc, err := MigrationConfig(cfg)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrationsWithRetry(ctx, mc, c.logger, migrationAttempts); err != nil {
			return nil, err
		}
	}

	var sqlDB *sql.DB
	switch dialect {
	case db.DialectPostgres:
		c.logger.InfoContext(ctx, "connecting to database",
			slog.String("host", cfg.Database.Host),
			slog.String("database", cfg.Database.Name))

		database, err := db.NewDatabase(ctx, PostgresConfig(cfg), c.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		c.closers = append(c.closers, func() error {
			database.Close()
			return nil
		})
		sqlDB = database.SQLDB()

	case db.DialectMySQL:
		c.logger.InfoContext(ctx, "connecting to mysql",
			slog.String("host", cfg.Database.Host),
			slog.String("database", cfg.Database.Name))

		sqlDB, err = db.OpenMySQL(ctx, MySQLConfig(cfg), c.logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, sqlDB.Close)
	}

	c.SQLDB = sqlDB
	return db.NewInventoryRepository(sqlDB, dialect, c.logger), nil
}

func (c *Container) openPhotos(ctx context.Context) error {
	cfg := c.config

	if cfg.Storage.PhotoBackend == config.PhotoBackendS3 {
		store, err := storage.NewS3PhotoStore(ctx, &storage.S3Config{
			Region:          cfg.AWS.Region,
			Bucket:          cfg.AWS.S3Bucket,
			Prefix:          cfg.AWS.S3Prefix,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Endpoint:        cfg.AWS.S3Endpoint,
			UsePathStyle:    cfg.AWS.UsePathStyle,
		}, c.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 photo store: %w", err)
		}
		c.Photos = store
		return nil
	}

	store, err := storage.NewLocalPhotoStore(cfg.Storage.PhotoDir, c.logger)
	if err != nil {
		return err
	}
	c.Photos = store
	c.LocalPhotos = store
	return nil
}

func (c *Container) openCache(ctx context.Context) error {
	cfg := c.config

	c.logger.InfoContext(ctx, "connecting to Redis",
		slog.String("host", cfg.Redis.Host),
		slog.String("port", cfg.Redis.Port))

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddress(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		PoolTimeout:  cfg.Redis.PoolTimeout,
	})
	c.closers = append(c.closers, client.Close)

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c.Cache = redis_a.NewCache(client, cfg.Cache.TTL, c.logger)
	return nil
}

// PostgresConfig maps the database section onto the pgx pool settings
func PostgresConfig(cfg *config.Config) *db.Config {
	return &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}
}

// MySQLConfig maps the database section onto the MySQL pool settings
func MySQLConfig(cfg *config.Config) *db.MySQLConfig {
	return &db.MySQLConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Name,
		MaxOpenConns:    int(cfg.Database.MaxConnections),
		MaxIdleConns:    int(cfg.Database.MinConnections),
		ConnMaxLifetime: cfg.Database.MaxConnLifetime,
		ConnectTimeout:  cfg.Database.ConnectTimeout,
	}
}

// MigrationConfig returns the migrate settings for the configured SQL backend
func MigrationConfig(cfg *config.Config) (*db.MigrationConfig, error) {
	dialect, err := db.ParseDialect(cfg.Storage.Backend)
	if err != nil {
		return nil, err
	}

	mc := &db.MigrationConfig{
		Dialect:    dialect,
		SourcePath: cfg.Database.MigrationPath,
		TableName:  "schema_migrations",
	}

	switch dialect {
	case db.DialectPostgres:
		mc.DatabaseURL = PostgresConfig(cfg).URL()
	case db.DialectMySQL:
		mc.DatabaseURL = MySQLConfig(cfg).MigrationDSN()
	}

	return mc, nil
}
