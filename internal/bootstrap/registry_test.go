package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/donor-registry/internal/config"
	"github.com/spec-kit/donor-registry/internal/service"
)

func testConfig(backend, path string) config.Config {
	return config.Config{
		Storage: config.StorageConfig{Backend: backend, Path: path, Key: "usersCSV"},
		Auth:    config.AuthConfig{BcryptCost: bcrypt.MinCost},
	}
}

func register(t *testing.T, reg *Registry, email string) {
	t.Helper()
	_, err := reg.Registration.Register(context.Background(), service.RegistrationInput{
		FullName:        "Alice",
		Email:           email,
		Phone:           "5551234567",
		BloodGroup:      "A+",
		City:            "Paris",
		Password:        "secret12",
		ConfirmPassword: "secret12",
		AcceptTerms:     true,
	})
	require.NoError(t, err)
}

func TestOpen_Backends(t *testing.T) {
	dir := t.TempDir()
	cases := []config.Config{
		testConfig(config.BackendMemory, ""),
		testConfig(config.BackendFile, filepath.Join(dir, "blobs")),
		testConfig(config.BackendSQLite, ":memory:"),
	}
	for _, cfg := range cases {
		t.Run(cfg.Storage.Backend, func(t *testing.T) {
			ctx := context.Background()
			reg, err := Open(ctx, cfg, nil)
			require.NoError(t, err)
			defer reg.Close()

			require.NoError(t, reg.Users.Ping(ctx))
			register(t, reg, "a@x.com")

			users, err := reg.Directory.List(ctx)
			require.NoError(t, err)
			require.Len(t, users, 1)
			assert.Empty(t, users[0].Password)
		})
	}
}

func TestOpen_FileBackendPersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(config.BackendFile, t.TempDir())

	reg, err := Open(ctx, cfg, nil)
	require.NoError(t, err)
	register(t, reg, "a@x.com")
	reg.Close()

	reg, err = Open(ctx, cfg, nil)
	require.NoError(t, err)
	defer reg.Close()

	rec, err := reg.Directory.Lookup(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Paris", rec.Location)
}

func TestOpen_SQLiteInDirectory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	reg, err := Open(ctx, testConfig(config.BackendSQLite, dir), nil)
	require.NoError(t, err)
	register(t, reg, "a@x.com")
	reg.Close()

	_, err = os.Stat(filepath.Join(dir, sqliteFileName))
	assert.NoError(t, err)
}

func TestOpen_RejectsUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), testConfig("floppy", "x"), nil)
	assert.Error(t, err)
}

func TestOpen_PostgresNeedsDSN(t *testing.T) {
	_, err := Open(context.Background(), testConfig(config.BackendPostgres, ""), nil)
	assert.ErrorContains(t, err, "POSTGRES_DSN")
}

func TestOpen_RedisUnreachableFailsFast(t *testing.T) {
	cfg := testConfig(config.BackendRedis, "")
	// nothing listens on port 1
	cfg.Redis = config.RedisConfig{Addr: "127.0.0.1:1", KeyPrefix: "test:"}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	reg, err := Open(ctx, cfg, nil)
	assert.Nil(t, reg)
	assert.ErrorContains(t, err, "ping redis")
}
