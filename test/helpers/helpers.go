// test/helpers/helpers.go
package helpers

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/inventory-api/internal/adapters/db"
	"github.com/ammerola/inventory-api/internal/core/domain"
	"github.com/ammerola/inventory-api/internal/pkg/config"
)

// TestDB is a containerised SQL database with the schema applied
type TestDB struct {
	SQL      *sql.DB
	Dialect  db.Dialect
	Database *db.Database // postgres only
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
}

// TestRedis represents a test Redis instance
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	if testing.Verbose() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func runContainer(t *testing.T, opts *dockertest.RunOptions) (*dockertest.Pool, *dockertest.Resource) {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")
	pool.MaxWait = 2 * time.Minute

	resource, err := pool.RunWithOptions(opts, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start %s container", opts.Repository)

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})

	return pool, resource
}

// SetupTestDB creates a PostgreSQL container for integration tests
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	pool, resource := runContainer(t, &dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_inventory",
		},
	})

	dbConfig := &db.Config{
		Host:               "localhost",
		Port:               resource.GetPort("5432/tcp"),
		User:               "test",
		Password:           "test",
		Database:           "test_inventory",
		SSLMode:            "disable",
		MaxConnections:     5,
		MinConnections:     1,
		MaxConnLifetime:    time.Hour,
		MaxConnIdleTime:    time.Minute * 30,
		HealthCheckPeriod:  time.Minute,
		ConnectTimeout:     time.Second * 10,
		EnableQueryLogging: testing.Verbose(),
	}

	var database *db.Database
	err := pool.Retry(func() error {
		var err error
		database, err = db.NewDatabase(context.Background(), dbConfig, TestLogger())
		return err
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")
	t.Cleanup(database.Close)

	err = db.RunMigrationsWithRetry(context.Background(), &db.MigrationConfig{
		Dialect:     db.DialectPostgres,
		DatabaseURL: dbConfig.URL(),
	}, TestLogger(), 3)
	require.NoError(t, err, "Could not run migrations")

	return &TestDB{
		SQL:      database.SQLDB(),
		Dialect:  db.DialectPostgres,
		Database: database,
		Resource: resource,
		Pool:     pool,
	}
}

// SetupTestMySQL creates a MySQL container for integration tests
func SetupTestMySQL(t *testing.T) *TestDB {
	t.Helper()

	pool, resource := runContainer(t, &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.4",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=test",
			"MYSQL_DATABASE=test_inventory",
		},
	})

	mysqlConfig := &db.MySQLConfig{
		Host:     "localhost",
		Port:     resource.GetPort("3306/tcp"),
		User:     "root",
		Password: "test",
		Database: "test_inventory",
	}

	var sqlDB *sql.DB
	err := pool.Retry(func() error {
		var err error
		sqlDB, err = db.OpenMySQL(context.Background(), mysqlConfig, TestLogger())
		return err
	})
	require.NoError(t, err, "Could not connect to MySQL")
	t.Cleanup(func() { sqlDB.Close() })

	err = db.RunMigrationsWithRetry(context.Background(), &db.MigrationConfig{
		Dialect:     db.DialectMySQL,
		DatabaseURL: mysqlConfig.MigrationDSN(),
	}, TestLogger(), 3)
	require.NoError(t, err, "Could not run migrations")

	return &TestDB{
		SQL:      sqlDB,
		Dialect:  db.DialectMySQL,
		Resource: resource,
		Pool:     pool,
	}
}

// TruncateInventory empties the inventory table and resets its id sequence
func TruncateInventory(t *testing.T, tdb *TestDB) {
	t.Helper()

	stmt := "TRUNCATE TABLE inventory"
	if tdb.Dialect == db.DialectPostgres {
		stmt += " RESTART IDENTITY"
	}

	_, err := tdb.SQL.ExecContext(context.Background(), stmt)
	require.NoError(t, err, "Failed to truncate inventory")
}

// SetupTestRedis creates a miniredis-backed client
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
	})

	return &TestRedis{
		Client: client,
		Server: mr,
	}
}

// SetupMockDB creates a mock database for unit testing
func SetupMockDB(t *testing.T) (sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create mock DB")

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return mock, sqlDB
}

// LoadTestConfig returns a configuration using the file backend rooted in a
// per-test temp directory
func LoadTestConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()

	return &config.Config{
		App: config.AppConfig{
			Name:        "inventory-api-test",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
		},
		Storage: config.StorageConfig{
			Backend:          config.BackendFile,
			CacheDir:         dir + "/cache",
			PhotoDir:         dir + "/photos",
			PhotoBackend:     config.PhotoBackendLocal,
			MaxUploadMB:      2,
			TempUploadMaxAge: time.Hour,
		},
		Redis: config.RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			PoolSize: 10,
		},
		Cache: config.CacheConfig{
			TTL: time.Minute,
		},
		Security: config.SecurityConfig{
			RateLimitRequests: 1000,
			RateLimitDuration: time.Minute,
			AllowedOrigins:    []string{"*"},
		},
		Server: config.ServerConfig{
			Host:              "localhost",
			Port:              "8080",
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			EnableHealthCheck: true,
			EnableMetrics:     true,
			EnableBulkRoutes:  true,
		},
	}
}

// NewTestItem returns an inventory item with overridable fields
func NewTestItem(overrides ...func(*domain.InventoryItem)) *domain.InventoryItem {
	item := &domain.InventoryItem{
		ID:          "1",
		Name:        "Cordless Drill",
		Description: "18V, two batteries",
	}

	for _, override := range overrides {
		override(item)
	}

	return item
}

// NewTestItems returns count items with sequential ids
func NewTestItems(count int) []domain.InventoryItem {
	items := make([]domain.InventoryItem, count)
	for i := range items {
		items[i] = *NewTestItem(func(item *domain.InventoryItem) {
			item.ID = fmt.Sprintf("%d", i+1)
			item.Name = fmt.Sprintf("Test Item %d", i+1)
		})
	}
	return items
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}
