package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Ledger.LockTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Ledger.DedupWindow)
	assert.Equal(t, 500, cfg.Ledger.MaxLineItems)
	assert.Equal(t, "postgres", cfg.Ledger.StoreDriver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.HTTP.Port)
}

func TestLoad_LeeVariablesDeEntorno(t *testing.T) {
	t.Setenv("LEDGER_LOCK_TIMEOUT", "750ms")
	t.Setenv("LEDGER_DEDUP_WINDOW", "2000")
	t.Setenv("LEDGER_STORE_DRIVER", "MEMORY")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 750*time.Millisecond, cfg.Ledger.LockTimeout)
	assert.Equal(t, 2*time.Second, cfg.Ledger.DedupWindow)
	assert.Equal(t, "memory", cfg.Ledger.StoreDriver)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 9090, cfg.HTTP.Port)
}

func TestLoad_DriverInvalido(t *testing.T) {
	t.Setenv("LEDGER_STORE_DRIVER", "sqlite")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LEDGER_STORE_DRIVER")
}

func TestLoad_VentanaDeDuplicadosCero(t *testing.T) {
	t.Setenv("LEDGER_DEDUP_WINDOW", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LEDGER_DEDUP_WINDOW")
}

func TestLoad_ValoresMalFormados(t *testing.T) {
	t.Setenv("LEDGER_LOCK_TIMEOUT", "5 segundos")
	t.Setenv("HTTP_PORT", "abc")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LEDGER_LOCK_TIMEOUT")
	assert.Contains(t, err.Error(), "HTTP_PORT")
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "ledger", Password: "p@ss:w/rd", DBName: "stock", SSLMode: "disable"}
	assert.Equal(t, "postgres://ledger:p%40ss%3Aw%2Frd@db:5432/stock?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}
