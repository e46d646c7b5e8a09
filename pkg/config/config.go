package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Drivers soportados para el almacenamiento, el ledger de stock y el contador de facturas.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App       AppConfig
	DB        DBConfig
	JWT       JWTConfig
	HTTP      HTTPConfig
	Store     StoreConfig
	Billing   BillingConfig
	Business  BusinessConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Tracing   TracingConfig
	Messaging MessagingConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
// ReplicaURL es opcional: los reportes leen de ahí si está definido.
type DBConfig struct {
	DatabaseURL string
	ReplicaURL  string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de validación de tokens (la emisión es externa).
type JWTConfig struct {
	Secret string
	Issuer string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StoreConfig selecciona los adaptadores de persistencia.
type StoreConfig struct {
	Driver      string // postgres | memory
	StockLedger string // postgres | redis
	BillCounter string // postgres | redis
}

// BillingConfig parámetros de numeración de facturas.
type BillingConfig struct {
	Prefix    string // ej. "CS" -> CS241201003
	SeqDigits int    // ancho mínimo del consecutivo diario
	Timezone  string // zona horaria del negocio para el día de numeración y reportes
}

// Location resuelve la zona horaria configurada.
func (c BillingConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// BusinessConfig datos del negocio que acompañan el snapshot de la factura para los renderizadores.
type BusinessConfig struct {
	Name    string
	Address string
	Phone   string
	Email   string
	GSTIN   string
}

// RedisConfig conexión a Redis (ledger alterno, contador alterno y caché de reportes).
type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	ReportCacheTTL time.Duration
}

// Enabled indica si hay un Redis configurado.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// KafkaConfig brokers y tópicos para eventos de factura y notificaciones.
type KafkaConfig struct {
	Brokers            []string
	BillEventsTopic    string
	NotificationsTopic string
	ConsumerGroup      string
}

// Enabled indica si hay brokers configurados.
func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

// TracingConfig exportación de trazas OpenTelemetry a Jaeger.
type TracingConfig struct {
	Enabled        bool
	JaegerEndpoint string
}

// MessagingConfig parámetros del helper de teléfonos para el despachador de mensajes.
type MessagingConfig struct {
	DefaultCountryCode string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, JWT_SECRET, BILL_PREFIX, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "billing-engine"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			ReplicaURL:  getString(v, "DATABASE_REPLICA_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "billing"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret: getString(v, "JWT_SECRET", ""),
			Issuer: getString(v, "JWT_ISSUER", ""),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Store: StoreConfig{
			Driver:      strings.ToLower(getString(v, "STORE_DRIVER", DriverPostgres)),
			StockLedger: strings.ToLower(getString(v, "STOCK_LEDGER", DriverPostgres)),
			BillCounter: strings.ToLower(getString(v, "BILL_COUNTER", DriverPostgres)),
		},
		Billing: BillingConfig{
			Prefix:    getString(v, "BILL_PREFIX", "CS"),
			SeqDigits: getInt(v, "BILL_SEQ_DIGITS", 3),
			Timezone:  getString(v, "BILLING_TIMEZONE", "Asia/Kolkata"),
		},
		Business: BusinessConfig{
			Name:    getString(v, "BUSINESS_NAME", ""),
			Address: getString(v, "BUSINESS_ADDRESS", ""),
			Phone:   getString(v, "BUSINESS_PHONE", ""),
			Email:   getString(v, "BUSINESS_EMAIL", ""),
			GSTIN:   getString(v, "BUSINESS_GSTIN", ""),
		},
		Redis: RedisConfig{
			Addr:           getString(v, "REDIS_ADDR", ""),
			Password:       getString(v, "REDIS_PASSWORD", ""),
			DB:             getInt(v, "REDIS_DB", 0),
			ReportCacheTTL: time.Duration(getInt(v, "REPORT_CACHE_TTL_SECONDS", 300)) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:            getList(v, "KAFKA_BROKERS"),
			BillEventsTopic:    getString(v, "KAFKA_BILL_EVENTS_TOPIC", "billing.bill-events"),
			NotificationsTopic: getString(v, "KAFKA_NOTIFICATIONS_TOPIC", "billing.notifications"),
			ConsumerGroup:      getString(v, "KAFKA_CONSUMER_GROUP", "billing-report-cache"),
		},
		Tracing: TracingConfig{
			Enabled:        getBool(v, "TRACING_ENABLED", false),
			JaegerEndpoint: getString(v, "JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
		},
		Messaging: MessagingConfig{
			DefaultCountryCode: getString(v, "PHONE_DEFAULT_COUNTRY_CODE", "91"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rechaza combinaciones de drivers desconocidas o incompletas.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("config: STORE_DRIVER desconocido %q", c.Store.Driver)
	}
	for name, val := range map[string]string{"STOCK_LEDGER": c.Store.StockLedger, "BILL_COUNTER": c.Store.BillCounter} {
		switch val {
		case DriverPostgres:
		case DriverRedis:
			if !c.Redis.Enabled() {
				return fmt.Errorf("config: %s=redis requiere REDIS_ADDR", name)
			}
		default:
			return fmt.Errorf("config: %s desconocido %q", name, val)
		}
	}
	if c.Billing.Prefix == "" {
		return fmt.Errorf("config: BILL_PREFIX vacío")
	}
	if c.Billing.SeqDigits < 1 || c.Billing.SeqDigits > 9 {
		return fmt.Errorf("config: BILL_SEQ_DIGITS fuera de rango (1-9)")
	}
	if _, err := c.Billing.Location(); err != nil {
		return fmt.Errorf("config: BILLING_TIMEZONE: %w", err)
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}

// getList lee una lista separada por comas (ej. KAFKA_BROKERS=host1:9092,host2:9092).
func getList(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v.GetString(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
