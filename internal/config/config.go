package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	postgres "github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage/postgres"
)

// Config aggregates runtime configuration grouped by concern.
type Config struct {
	ServiceName string
	Env         string
	HTTP        HTTPConfig
	Store       StoreConfig
	Auth        AuthConfig
	Payment     PaymentConfig
	Mail        MailConfig
	Templates   TemplateConfig
	Kafka       KafkaConfig
	Restate     RestateConfig
	RateLimit   RateLimitConfig
	Telemetry   TelemetryConfig
}

type HTTPConfig struct {
	Addr        string
	CORSOrigins []string
}

// Store drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// StoreConfig selects the record store backend.
type StoreConfig struct {
	Driver       string
	DataDir      string
	SQLitePath   string
	Database     postgres.DatabaseConfig
	MenuSeedFile string
}

type AuthConfig struct {
	HashingSecret string
	TokenTTL      time.Duration
}

type PaymentConfig struct {
	StripeBaseURL   string
	StripeSecretKey string
	Currency        string
}

type MailConfig struct {
	Provider       string
	MailgunBaseURL string
	MailgunPath    string
	MailgunDomain  string
	MailgunAPIKey  string
	SMTPHost       string
	SMTPPort       string
	SMTPFrom       string
}

type TemplateConfig struct {
	TemplateDir string
	PublicDir   string
	Globals     map[string]string
}

type KafkaConfig struct {
	Brokers     []string
	UsersTopic  string
	OrdersTopic string
	OrdersGroup string
}

type RestateConfig struct {
	ListenAddr string
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type TelemetryConfig struct {
	TracesEndpoint string
}

// environment holds the defaults that differ between staging and production.
type environment struct {
	port          int
	hashingSecret string
	globals       map[string]string
}

var environments = map[string]environment{
	"staging": {
		port:          3000,
		hashingSecret: "thisIsASecret",
		globals: map[string]string{
			"appName":     "pizza-delivery",
			"companyName": "Pizza Delivery, Inc",
			"yearCreated": "2020",
			"baseUrl":     "http://localhost:3000/",
		},
	},
	"production": {
		port:          5000,
		hashingSecret: "thisIsAProductionSecret",
		globals: map[string]string{
			"appName":     "pizza-delivery",
			"companyName": "Pizza Delivery, Inc",
			"yearCreated": "2020",
			"baseUrl":     "http://localhost:5000/",
		},
	},
}

// Load reads configuration from environment variables, applying the defaults of
// the selected environment (APP_ENV, falling back to NODE_ENV, default staging).
func Load() (Config, error) {
	envName := strings.ToLower(getEnv("APP_ENV", os.Getenv("NODE_ENV")))
	env, ok := environments[envName]
	if !ok {
		envName = "staging"
		env = environments[envName]
	}

	cfg := Config{
		ServiceName: getEnv("SERVICE_NAME", "pizza-delivery"),
		Env:         envName,
		HTTP: HTTPConfig{
			Addr:        getEnv("HTTP_LISTEN_ADDR", fmt.Sprintf(":%d", env.port)),
			CORSOrigins: splitAndTrim(getEnv("CORS_ORIGINS", "*")),
		},
		Store: StoreConfig{
			Driver:       strings.ToLower(getEnv("STORE_DRIVER", DriverFile)),
			DataDir:      getEnv("DATA_DIR", ".data"),
			SQLitePath:   getEnv("SQLITE_PATH", "pizza.db"),
			MenuSeedFile: getEnv("MENU_SEED_FILE", ""),
		},
		Auth: AuthConfig{
			HashingSecret: getEnv("HASHING_SECRET", env.hashingSecret),
		},
		Payment: PaymentConfig{
			StripeBaseURL:   strings.TrimRight(getEnv("STRIPE_BASE_URL", "https://api.stripe.com"), "/"),
			StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
			Currency:        getEnv("PAYMENT_CURRENCY", "usd"),
		},
		Mail: MailConfig{
			Provider:       strings.ToLower(getEnv("MAIL_PROVIDER", "mailgun")),
			MailgunBaseURL: strings.TrimRight(getEnv("MAILGUN_BASE_URL", "https://api.mailgun.net"), "/"),
			MailgunPath:    getEnv("MAILGUN_PATH", "/v3/"),
			MailgunDomain:  getEnv("MAILGUN_DOMAIN", ""),
			MailgunAPIKey:  getEnv("MAILGUN_API_KEY", ""),
			SMTPHost:       getEnv("SMTP_HOST", "localhost"),
			SMTPPort:       getEnv("SMTP_PORT", "1025"),
			SMTPFrom:       getEnv("SMTP_FROM", "no-reply@pizza.local"),
		},
		Templates: TemplateConfig{
			TemplateDir: getEnv("TEMPLATE_DIR", "templates"),
			PublicDir:   getEnv("PUBLIC_DIR", "public"),
			Globals:     copyGlobals(env.globals),
		},
		Kafka: KafkaConfig{
			Brokers:     splitAndTrim(getEnv("KAFKA_BROKERS", "")),
			UsersTopic:  getEnv("KAFKA_USERS_TOPIC", "users.v1"),
			OrdersTopic: getEnv("KAFKA_ORDERS_TOPIC", "orders.v1"),
			OrdersGroup: getEnv("KAFKA_ORDERS_GROUP_ID", "order-audit"),
		},
		Restate: RestateConfig{
			ListenAddr: getEnv("RESTATE_LISTEN_ADDR", ""),
		},
		Telemetry: TelemetryConfig{
			TracesEndpoint: getEnv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "http://localhost:4318/v1/traces"),
		},
	}

	if v := os.Getenv("BASE_URL"); v != "" {
		cfg.Templates.Globals["baseUrl"] = v
	}

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "1h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse TOKEN_TTL: %w", err)
	}
	cfg.Auth.TokenTTL = ttl

	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "20"), 64)
	if err != nil {
		return Config{}, fmt.Errorf("parse RATE_LIMIT_RPS: %w", err)
	}
	burst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "40"))
	if err != nil {
		return Config{}, fmt.Errorf("parse RATE_LIMIT_BURST: %w", err)
	}
	cfg.RateLimit = RateLimitConfig{RequestsPerSecond: rps, Burst: burst}

	portStr := getEnv("STORE_DB_PORT", "5432")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Config{}, fmt.Errorf("parse STORE_DB_PORT: %w", err)
	}
	cfg.Store.Database = postgres.DatabaseConfig{
		Host:     getEnv("STORE_DB_HOST", "localhost"),
		Port:     port,
		Database: getEnv("STORE_DB_NAME", "pizzadelivery"),
		User:     getEnv("STORE_DB_USER", "pizzaadmin"),
		Password: getEnv("STORE_DB_PASSWORD", ""),
		SSLMode:  getEnv("STORE_DB_SSLMODE", "disable"),
	}

	switch cfg.Store.Driver {
	case DriverFile, DriverPostgres, DriverSQLite:
	default:
		return Config{}, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.Store.Driver)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func copyGlobals(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
