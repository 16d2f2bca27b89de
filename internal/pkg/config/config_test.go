package config

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	cfg, err := Load(discardLogger())
	require.NoError(t, err)

	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, PhotoBackendLocal, cfg.Storage.PhotoBackend)
	assert.Equal(t, "./cache", cfg.Storage.CacheDir)
	assert.Equal(t, "./photos", cfg.Storage.PhotoDir)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes())
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.False(t, cfg.Cache.Enabled)
	assert.False(t, cfg.Asynq.Enabled)
	assert.Equal(t, "0.0.0.0:8080", cfg.GetServerAddress())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("STORAGE_BACKEND", "MySQL")
	t.Setenv("CACHE_ENABLED", "true")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("ASYNQ_QUEUES", "default:5,low:1")
	t.Setenv("MAX_UPLOAD_MB", "2")

	cfg, err := Load(discardLogger())
	require.NoError(t, err)

	assert.Equal(t, BackendMySQL, cfg.Storage.Backend)
	assert.True(t, cfg.UsesSQL())
	assert.Equal(t, "3306", cfg.Database.Port)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, map[string]int{"default": 5, "low": 1}, cfg.Asynq.Queues)
	assert.Equal(t, int64(2<<20), cfg.MaxUploadBytes())
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("STORAGE_BACKEND", "cassandra")

	_, err := Load(discardLogger())
	assert.Error(t, err)
}

func TestBasicValidator(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:     AppConfig{Name: "inventory-api"},
			Storage: StorageConfig{Backend: BackendFile, CacheDir: "c", PhotoDir: "p", PhotoBackend: PhotoBackendLocal, MaxUploadMB: 1},
			Redis:   RedisConfig{PoolSize: 1},
			Security: SecurityConfig{
				RateLimitRequests: 10,
			},
			Server: ServerConfig{Port: "8080"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "valid_file_backend",
			mutate: func(*Config) {},
		},
		{
			name:    "missing_app_name",
			mutate:  func(c *Config) { c.App.Name = "" },
			wantErr: ErrMissingRequiredConfig,
		},
		{
			name:    "missing_server_port",
			mutate:  func(c *Config) { c.Server.Port = "" },
			wantErr: ErrMissingRequiredConfig,
		},
		{
			name:    "missing_cache_dir",
			mutate:  func(c *Config) { c.Storage.CacheDir = "" },
			wantErr: ErrMissingRequiredConfig,
		},
		{
			name:    "s3_without_bucket",
			mutate:  func(c *Config) { c.Storage.PhotoBackend = PhotoBackendS3 },
			wantErr: ErrMissingRequiredConfig,
		},
		{
			name:    "cache_with_file_backend",
			mutate:  func(c *Config) { c.Cache.Enabled = true },
			wantErr: errCacheWithFileBackend,
		},
		{
			name: "cache_with_sql_backend",
			mutate: func(c *Config) {
				c.Storage.Backend = BackendMySQL
				c.Database = DatabaseConfig{Host: "db", Name: "inventory", MaxConnections: 2}
				c.Cache.Enabled = true
			},
		},
		{
			name: "sql_without_host",
			mutate: func(c *Config) {
				c.Storage.Backend = BackendPostgres
				c.Database.Name = "inventory"
			},
			wantErr: ErrMissingRequiredConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := (&BasicValidator{}).Validate(cfg)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProductionValidator(t *testing.T) {
	cfg := &Config{
		App:      AppConfig{Name: "inventory-api", Environment: "production"},
		Storage:  StorageConfig{Backend: BackendPostgres},
		Database: DatabaseConfig{Password: "s3cret", SSLMode: "disable"},
		Security: SecurityConfig{SecureHeaders: true, AllowedOrigins: []string{"https://shop.example"}},
	}

	err := (&ProductionValidator{}).Validate(cfg)
	assert.ErrorContains(t, err, "SSL")

	cfg.Database.SSLMode = "require"
	assert.NoError(t, (&ProductionValidator{}).Validate(cfg))

	cfg.Security.AllowedOrigins = []string{"*"}
	assert.Error(t, (&ProductionValidator{}).Validate(cfg))
}

type fakeSecretValueAPI struct {
	secret *string
	err    error
	calls  int
}

func (f *fakeSecretValueAPI) GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: f.secret}, nil
}

func TestApplyDatabaseSecret(t *testing.T) {
	ctx := context.Background()

	t.Run("overrides_credentials", func(t *testing.T) {
		api := &fakeSecretValueAPI{secret: aws.String(`{"username":"svc","password":"from-aws"}`)}
		sm := NewAWSSecretsManagerWithClient(api, "inventory/db", discardLogger())
		cfg := &Config{Database: DatabaseConfig{User: "inventory", Password: "dev", SecretName: "inventory/db"}}

		require.NoError(t, ApplyDatabaseSecret(ctx, cfg, sm))
		assert.Equal(t, "svc", cfg.Database.User)
		assert.Equal(t, "from-aws", cfg.Database.Password)

		_, err := sm.GetSecrets(ctx, []string{"password"})
		require.NoError(t, err)
		assert.Equal(t, 1, api.calls)
	})

	t.Run("missing_password_key", func(t *testing.T) {
		api := &fakeSecretValueAPI{secret: aws.String(`{"username":"svc"}`)}
		sm := NewAWSSecretsManagerWithClient(api, "inventory/db", discardLogger())
		cfg := &Config{Database: DatabaseConfig{SecretName: "inventory/db"}}

		err := ApplyDatabaseSecret(ctx, cfg, sm)
		assert.ErrorIs(t, err, ErrMissingRequiredConfig)
	})

	t.Run("api_failure", func(t *testing.T) {
		api := &fakeSecretValueAPI{err: errors.New("access denied")}
		sm := NewAWSSecretsManagerWithClient(api, "inventory/db", discardLogger())

		err := ApplyDatabaseSecret(ctx, &Config{}, sm)
		assert.ErrorContains(t, err, "access denied")
	})

	t.Run("environment_provider", func(t *testing.T) {
		t.Setenv("password", "env-pass")
		cfg := &Config{}

		require.NoError(t, ApplyDatabaseSecret(ctx, cfg, EnvSecretsManager{}))
		assert.Equal(t, "env-pass", cfg.Database.Password)
	})
}
