package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file found")
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetBoolEnv returns a bool environment variable or a default value.
func GetBoolEnv(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// GetDurationEnv returns a duration environment variable (e.g. "5s") or a default value.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// LedgerConfig holds the tunables of the ledger engine and the store layer.
type LedgerConfig struct {
	Currency         string
	OperationTimeout time.Duration
	LockTimeout      time.Duration
	MaxRetries       int
	RetryBackoff     time.Duration
}

type WebhookConfig struct {
	SecretHash     string
	VerifyPayments bool
	DedupTTL       time.Duration
}

type FlutterwaveConfig struct {
	BaseURL     string
	SecretKey   string
	RedirectURL string
	CallbackURL string
	Country     string
	TestMode    bool
	Timeout     time.Duration
}

type StripeConfig struct {
	SecretKey  string
	SuccessURL string
	CancelURL  string
}

type Config struct {
	Env             string
	Port            string
	LogLevel        string
	JWTSecret       string
	AllowedOrigins  string
	PaymentProvider string
	RabbitMQURL     string
	MongoURI        string
	MongoDatabase   string

	Database    DatabaseConfig
	Redis       RedisConfig
	Ledger      LedgerConfig
	Webhook     WebhookConfig
	Flutterwave FlutterwaveConfig
	Stripe      StripeConfig
}

// Load assembles the application configuration from the environment.
// LoadEnv should be called first when a .env file is expected.
func Load() *Config {
	return &Config{
		Env:             GetEnv("ENV", "development"),
		Port:            GetEnv("PORT", "3000"),
		LogLevel:        GetEnv("LOG_LEVEL", "info"),
		JWTSecret:       GetEnv("JWT_SECRET", "purse"),
		AllowedOrigins:  GetEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		PaymentProvider: GetEnv("PAYMENT_PROVIDER", "flutterwave"),
		RabbitMQURL:     GetEnv("RABBITMQ_URL", ""),
		MongoURI:        GetEnv("MONGO_URI", ""),
		MongoDatabase:   GetEnv("MONGO_DATABASE", "purse_audit"),
		Database: DatabaseConfig{
			Host:            GetEnv("DB_HOST", "localhost"),
			Port:            GetEnv("DB_PORT", "5432"),
			User:            GetEnv("DB_USER", "postgres"),
			Password:        GetEnv("DB_PASSWORD", "postgres"),
			Name:            GetEnv("DB_NAME", "purse"),
			SSLMode:         GetEnv("DB_SSLMODE", "disable"),
			MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetIntEnv("REDIS_DB", 0),
		},
		Ledger: LedgerConfig{
			Currency:         GetEnv("LEDGER_CURRENCY", "NGN"),
			OperationTimeout: GetDurationEnv("LEDGER_OPERATION_TIMEOUT", 30*time.Second),
			LockTimeout:      GetDurationEnv("LEDGER_LOCK_TIMEOUT", 5*time.Second),
			MaxRetries:       GetIntEnv("LEDGER_MAX_RETRIES", 3),
			RetryBackoff:     GetDurationEnv("LEDGER_RETRY_BACKOFF", 50*time.Millisecond),
		},
		Webhook: WebhookConfig{
			SecretHash:     GetEnv("FLW_SECRET_HASH", ""),
			VerifyPayments: GetBoolEnv("WEBHOOK_VERIFY_PAYMENTS", true),
			DedupTTL:       GetDurationEnv("WEBHOOK_DEDUP_TTL", 72*time.Hour),
		},
		Flutterwave: FlutterwaveConfig{
			BaseURL:     GetEnv("FLW_BASE_URL", "https://api.flutterwave.com/v3"),
			SecretKey:   GetEnv("FLW_SECRET_KEY", ""),
			RedirectURL: GetEnv("FLW_REDIRECT_URL", ""),
			CallbackURL: GetEnv("FLW_CALLBACK_URL", ""),
			Country:     GetEnv("FLW_COUNTRY", "NG"),
			TestMode:    GetBoolEnv("FLW_TEST_MODE", false),
			Timeout:     GetDurationEnv("FLW_TIMEOUT", 15*time.Second),
		},
		Stripe: StripeConfig{
			SecretKey:  GetEnv("STRIPE_SECRET_KEY", ""),
			SuccessURL: GetEnv("STRIPE_SUCCESS_URL", ""),
			CancelURL:  GetEnv("STRIPE_CANCEL_URL", ""),
		},
	}
}
