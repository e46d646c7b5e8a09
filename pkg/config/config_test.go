package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "CS", cfg.Billing.Prefix)
	assert.Equal(t, 3, cfg.Billing.SeqDigits)
	assert.Equal(t, "Asia/Kolkata", cfg.Billing.Timezone)
	assert.False(t, cfg.Kafka.Enabled())
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoad_EnvTienePrioridad(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("BILL_PREFIX", "TX")
	t.Setenv("BILL_SEQ_DIGITS", "4")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REPORT_CACHE_TTL_SECONDS", "60")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "TX", cfg.Billing.Prefix)
	assert.Equal(t, 4, cfg.Billing.SeqDigits)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, float64(60), cfg.Redis.ReportCacheTTL.Seconds())
}

func TestValidate_LedgerRedisSinAddr(t *testing.T) {
	t.Setenv("STOCK_LEDGER", "redis")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_ADDR")
}

func TestValidate_DriverDesconocido(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_ZonaHorariaInvalida(t *testing.T) {
	t.Setenv("BILLING_TIMEZONE", "Mars/Olympus")

	_, err := Load()
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "pos", Password: "p@ss:word", DBName: "billing", SSLMode: "disable"}
	assert.Equal(t, "postgres://pos:p%40ss%3Aword@db:5432/billing?sslmode=disable", c.DSN())
	assert.Equal(t, c.DSN(), c.ConnectionString())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
