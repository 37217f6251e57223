package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env              string
	LogLevel         string
	HTTPAddr         string
	DatabaseURL      string
	JWTSecret        string
	JWTExpirySeconds int64
	// bcrypt hash of the shared staff password.
	StaffPasswordHash string
	PublicBaseURL     string
	TableLinkSecret   string
	Timezone          string

	Currency           string
	CurrencyMinorUnits int32

	MercadoPagoAPIURL      string
	MercadoPagoAccessToken string
	MercadoPagoTimeout     time.Duration

	RabbitMQURL             string
	RabbitMQWorkerMode      string
	CorsAllowedOrigins      []string
	WSHeartbeatInterval     time.Duration
	AdminOrdersDisplayLimit int
	MaxFileSizeBytes        int64

	ObjectStoreEndpoint        string
	ObjectStoreRegion          string
	ObjectStoreAccessKeyID     string
	ObjectStoreSecretAccessKey string
	ObjectStoreBucket          string
	ObjectStorePublicBaseURL   string
	ObjectStoreStorageClass    string
}

func Load() Config {
	cfg := Config{
		Env:               getEnv("APP_ENV", "development"),
		LogLevel:          getEnv("LOG_LEVEL", ""),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		JWTExpirySeconds:  getEnvInt64("JWT_EXPIRY", 43200),
		StaffPasswordHash: getEnv("STAFF_PASSWORD_HASH", ""),
		PublicBaseURL:     strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:5173"), "/"),
		TableLinkSecret:   getEnv("TABLE_LINK_SECRET", ""),
		Timezone:          getEnv("TIMEZONE", "America/Argentina/Buenos_Aires"),

		Currency:           strings.ToUpper(getEnv("CURRENCY", "ARS")),
		CurrencyMinorUnits: int32(getEnvInt64("CURRENCY_MINOR_UNITS", 2)),

		MercadoPagoAPIURL:      strings.TrimRight(getEnv("MP_API_URL", "https://api.mercadopago.com"), "/"),
		MercadoPagoAccessToken: getEnv("MP_ACCESS_TOKEN", ""),
		MercadoPagoTimeout:     getEnvDuration("MP_TIMEOUT", 10*time.Second),

		RabbitMQURL:             getEnv("RABBITMQ_URL", ""),
		RabbitMQWorkerMode:      getEnv("RABBITMQ_WORKER_MODE", "daemon"),
		CorsAllowedOrigins:      splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
		WSHeartbeatInterval:     getEnvDuration("WS_HEARTBEAT_INTERVAL", 30*time.Second),
		AdminOrdersDisplayLimit: int(getEnvInt64("ADMIN_ORDERS_DISPLAY_LIMIT", 0)),
		MaxFileSizeBytes:        getEnvInt64("MAX_FILE_SIZE", 5*1024*1024),

		// Object store (Cloudflare R2 / S3-compatible)
		ObjectStoreEndpoint:        getEnvFirst([]string{"OBJECT_STORE_ENDPOINT", "R2_S3_ENDPOINT"}, ""),
		ObjectStoreRegion:          getEnvFirst([]string{"OBJECT_STORE_REGION", "R2_REGION"}, "auto"),
		ObjectStoreAccessKeyID:     getEnvFirst([]string{"OBJECT_STORE_ACCESS_KEY_ID", "R2_ACCESS_KEY_ID"}, ""),
		ObjectStoreSecretAccessKey: getEnvFirst([]string{"OBJECT_STORE_SECRET_ACCESS_KEY", "R2_SECRET_ACCESS_KEY"}, ""),
		ObjectStoreBucket:          getEnvFirst([]string{"OBJECT_STORE_BUCKET", "R2_BUCKET"}, ""),
		ObjectStorePublicBaseURL:   getEnvFirst([]string{"OBJECT_STORE_PUBLIC_BASE_URL", "R2_PUBLIC_BASE_URL"}, ""),
		ObjectStoreStorageClass:    getEnvFirst([]string{"OBJECT_STORE_STORAGE_CLASS", "R2_STORAGE_CLASS"}, "STANDARD"),
	}

	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 5 * 1024 * 1024
	}
	if cfg.CurrencyMinorUnits < 0 {
		cfg.CurrencyMinorUnits = 2
	}
	if cfg.AdminOrdersDisplayLimit < 0 {
		cfg.AdminOrdersDisplayLimit = 0
	}

	if strings.TrimSpace(cfg.ObjectStoreEndpoint) == "" {
		accountID := strings.TrimSpace(os.Getenv("R2_ACCOUNT_ID"))
		if accountID != "" {
			cfg.ObjectStoreEndpoint = "https://" + accountID + ".r2.cloudflarestorage.com"
		}
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate reports settings the service cannot start without. Production
// additionally requires staff credentials and the payment token.
func (c Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.IsProduction() {
		if c.JWTSecret == "" {
			missing = append(missing, "JWT_SECRET")
		}
		if c.StaffPasswordHash == "" {
			missing = append(missing, "STAFF_PASSWORD_HASH")
		}
		if c.MercadoPagoAccessToken == "" {
			missing = append(missing, "MP_ACCESS_TOKEN")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return errors.New("invalid TIMEZONE: " + c.Timezone)
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvFirst(keys []string, fallback string) string {
	for _, k := range keys {
		value := strings.TrimSpace(os.Getenv(k))
		if value != "" {
			return value
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
