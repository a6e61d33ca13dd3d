package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConnectionConfig(t *testing.T) {
	cfg := DefaultConnectionConfig()

	assert.Equal(t, 25, cfg.MaxOpenConns)
	assert.Equal(t, 10, cfg.MaxIdleConns)
	assert.Equal(t, 1*time.Hour, cfg.ConnMaxLifetime)
	assert.Equal(t, 30*time.Minute, cfg.ConnMaxIdleTime)
}

func TestGetConnectionConfigFromEnv(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want ConnectionConfig
	}{
		{
			name: "defaults",
			env:  map[string]string{},
			want: DefaultConnectionConfig(),
		},
		{
			name: "all custom",
			env: map[string]string{
				"DB_MAX_OPEN_CONNS":     "50",
				"DB_MAX_IDLE_CONNS":     "5",
				"DB_CONN_MAX_LIFETIME":  "2h",
				"DB_CONN_MAX_IDLE_TIME": "10m",
			},
			want: ConnectionConfig{MaxOpenConns: 50, MaxIdleConns: 5, ConnMaxLifetime: 2 * time.Hour, ConnMaxIdleTime: 10 * time.Minute},
		},
		{
			name: "invalid values keep defaults",
			env: map[string]string{
				"DB_MAX_OPEN_CONNS":    "invalid",
				"DB_MAX_IDLE_CONNS":    "-1",
				"DB_CONN_MAX_LIFETIME": "0s",
			},
			want: DefaultConnectionConfig(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "DB_CONN_MAX_IDLE_TIME"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			assert.Equal(t, tt.want, getConnectionConfigFromEnv())
		})
	}
}

func TestDriverFromEnv(t *testing.T) {
	cases := map[string]string{
		"":         DriverPostgres,
		"pgx":      DriverPostgres,
		"postgres": DriverPostgres,
		"sqlite":   DriverSQLite,
		"sqlite3":  DriverSQLite,
		"mysql":    DriverPostgres,
	}
	for in, want := range cases {
		t.Setenv("DB_DRIVER", in)
		assert.Equal(t, want, DriverFromEnv(), "DB_DRIVER=%q", in)
	}
}

func TestOpen_PostgresRequiresURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Open(DriverPostgres)
	assert.Error(t, err)
}

func TestOpen_SQLiteFile(t *testing.T) {
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "news.db"))

	db, err := Open(DriverSQLite)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, MigrateUp(db, DriverSQLite))
	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
}
