package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DebugModeEnv is the environment variable for debug mode.
	DebugModeEnv = "DEBUG_MODE"

	// DBHostEnv is the environment variable for database host.
	DBHostEnv = "DB_HOST"

	// DBPortEnv is the environment variable for database port.
	DBPortEnv = "DB_PORT"

	// DBUserEnv is the environment variable for database user.
	DBUserEnv = "DB_USER"

	// DBPassEnv is the environment variable for database password.
	DBPassEnv = "DB_PASS"

	// DBNameEnv is the environment variable for database name.
	DBNameEnv = "DB_NAME"

	// HTTPServerPortEnv is the environment variable for HTTP server port.
	HTTPServerPortEnv = "HTTP_SERVER_PORT"

	// MetricsServerPortEnv is the environment variable for metrics server port.
	MetricsServerPortEnv = "METRICS_SERVER_PORT"

	// EnvFilePath is the environment variable for .env file path (only for local/test environment).
	EnvFilePath = "ENV_PATH"

	// DefaultEnvFilePath is the default path to the .env file.
	DefaultEnvFilePath = ".env"

	// SessionSecretEnv is the environment variable for the session token signing key.
	SessionSecretEnv = "SESSION_SECRET"

	// SessionTTLEnv is the environment variable for the session lifetime.
	SessionTTLEnv = "SESSION_TTL"

	// RedisAddrEnv is the environment variable for the Redis address used as session registry.
	RedisAddrEnv = "REDIS_ADDR"

	// RedisPasswordEnv is the environment variable for the Redis password.
	RedisPasswordEnv = "REDIS_PASSWORD"

	// RedisDBEnv is the environment variable for the Redis database number.
	RedisDBEnv = "REDIS_DB"

	// GeocoderURLEnv is the environment variable for the geocoding service base URL.
	GeocoderURLEnv = "GEOCODER_URL"

	// GeocoderTimeoutEnv is the environment variable for the per-lookup geocoding timeout.
	GeocoderTimeoutEnv = "GEOCODER_TIMEOUT"

	// GeocoderRateEnv is the environment variable for allowed geocoding lookups per second.
	GeocoderRateEnv = "GEOCODER_RATE"

	// GeocoderUserAgentEnv is the environment variable for the User-Agent sent to the geocoder.
	GeocoderUserAgentEnv = "GEOCODER_USER_AGENT"

	// AWSRegionEnv is the environment variable for AWS region.
	AWSRegionEnv = "AWS_REGION"

	// AWSEndpointEnv is the environment variable for AWS endpoint.
	AWSEndpointEnv = "AWS_ENDPOINT"

	// SQSQueueURLEnv is the environment variable for SQS queue URL.
	SQSQueueURLEnv = "SQS_QUEUE_URL"

	// S3BucketEnv is the environment variable for the photo bucket.
	S3BucketEnv = "S3_BUCKET"

	// StorageDirEnv is the environment variable for the local photo storage directory.
	StorageDirEnv = "STORAGE_DIR"

	// AssetBaseURLEnv is the environment variable for the public URL prefix of stored photos.
	AssetBaseURLEnv = "ASSET_BASE_URL"

	// OutboxIntervalEnv is the environment variable for the outbox polling interval.
	OutboxIntervalEnv = "OUTBOX_INTERVAL"

	// CORSAllowedOriginsEnv is the environment variable for the comma separated CORS origins.
	CORSAllowedOriginsEnv = "CORS_ALLOWED_ORIGINS"
)

const (
	defaultSessionTTL      = 24 * time.Hour
	defaultGeocoderTimeout = 5 * time.Second
	defaultGeocoderRate    = 1.0
	defaultStorageDir      = "public/system"
	defaultOutboxInterval  = 2 * time.Second
	defaultUserAgent       = "gas-app"
)

var (
	// ErrMissingConfig is returned when required configuration values are missing.
	ErrMissingConfig = errors.New("missing config data")
)

// Config represents the application configuration.
type Config struct {
	DebugMode     bool
	Database      DB
	HTTPServer    Server
	MetricsServer Server
	Session       Session
	Redis         Redis
	Geocoder      Geocoder
	AWS           AWSConfig
	Storage       Storage
	Outbox        Outbox
}

// AWSConfig represents AWS-specific configuration settings.
type AWSConfig struct {
	Region      string
	Endpoint    string
	SQSQueueURL string
}

// DB represents database configuration settings.
type DB struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
}

// Server represents server configuration settings.
type Server struct {
	Port string
	// AllowedOrigins lists CORS origins; empty allows any origin.
	AllowedOrigins []string
}

// Session holds the signing key and lifetime of login sessions.
type Session struct {
	Secret string
	TTL    time.Duration
}

// Redis holds the optional session registry connection settings.
// An empty Addr means sessions are stateless.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Geocoder configures address lookups. An empty URL disables geocoding.
type Geocoder struct {
	URL       string
	Timeout   time.Duration
	Rate      float64
	UserAgent string
}

// Storage configures where product photos are kept.
// Photos go to S3 when Bucket is set and to Dir otherwise.
type Storage struct {
	Bucket       string
	Dir          string
	AssetBaseURL string
}

// Outbox configures the event relay worker.
type Outbox struct {
	Interval time.Duration
}

func allNonEmpty(keyValues map[string]string) error {
	for key, value := range keyValues {
		if value == "" {
			slog.Error("configuration validation failed", slog.String("key", key), slog.String("error", "value is empty"))
			return fmt.Errorf("%w for key: %s", ErrMissingConfig, key)
		}
	}
	return nil
}

func allNumbers(keyValues map[string]string) error {
	for key, value := range keyValues {
		_, err := strconv.Atoi(value)
		if err != nil {
			slog.Error("configuration validation failed", slog.String("key", key), slog.String("value", value), slog.String("error", err.Error()))
			return fmt.Errorf("invalid number for key %s: %w", key, err)
		}
	}
	return nil
}

func (c *Config) validate() error {
	// Validate database configuration
	if err := allNonEmpty(map[string]string{
		DBHostEnv: c.Database.Host,
		DBUserEnv: c.Database.User,
		DBNameEnv: c.Database.Name,
	}); err != nil {
		return fmt.Errorf("database configuration incomplete: %w", err)
	}

	// Validate server ports
	if err := allNonEmpty(map[string]string{
		HTTPServerPortEnv:    c.HTTPServer.Port,
		MetricsServerPortEnv: c.MetricsServer.Port,
	}); err != nil {
		return fmt.Errorf("server port configuration incomplete: %w", err)
	}

	// Validate port numbers
	if err := allNumbers(map[string]string{
		DBPortEnv:            c.Database.Port,
		HTTPServerPortEnv:    c.HTTPServer.Port,
		MetricsServerPortEnv: c.MetricsServer.Port,
	}); err != nil {
		return fmt.Errorf("invalid port number: %w", err)
	}

	if err := allNonEmpty(map[string]string{
		SessionSecretEnv: c.Session.Secret,
	}); err != nil {
		return fmt.Errorf("session configuration incomplete: %w", err)
	}

	// Validate AWS configuration
	if err := allNonEmpty(map[string]string{
		SQSQueueURLEnv: c.AWS.SQSQueueURL,
	}); err != nil {
		return fmt.Errorf("AWS configuration incomplete: %w", err)
	}

	return nil
}

func getEnvAsBool(name string, defaultValue bool) bool {
	if val, err := strconv.ParseBool(os.Getenv(name)); err == nil {
		return val
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultValue int) int {
	if val, err := strconv.Atoi(os.Getenv(name)); err == nil {
		return val
	}
	return defaultValue
}

func getEnvAsFloat(name string, defaultValue float64) float64 {
	if val, err := strconv.ParseFloat(os.Getenv(name), 64); err == nil && val > 0 {
		return val
	}
	return defaultValue
}

func getEnvAsDuration(name string, defaultValue time.Duration) time.Duration {
	if val, err := time.ParseDuration(os.Getenv(name)); err == nil && val > 0 {
		return val
	}
	return defaultValue
}

func getEnvAsList(name string) []string {
	var values []string
	for _, v := range strings.Split(os.Getenv(name), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func getEnv(name, defaultValue string) string {
	if val := os.Getenv(name); val != "" {
		return val
	}
	return defaultValue
}

// ApplyEnvFile loads environment variables from the specified .env files.
func ApplyEnvFile(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables and validates it.
func LoadFromEnv() (*Config, error) {
	envPath := os.Getenv(EnvFilePath)
	if envPath == "" {
		envPath = DefaultEnvFilePath
	}
	err := ApplyEnvFile(envPath)
	if err != nil {
		// just log the error, maybe all envs are set in another way
		slog.Info("failed to load from .env", slog.Any("err", err))
	}

	conf := &Config{
		DebugMode: getEnvAsBool(DebugModeEnv, false),
		Database: DB{
			Host:     os.Getenv(DBHostEnv),
			User:     os.Getenv(DBUserEnv),
			Password: os.Getenv(DBPassEnv),
			Name:     os.Getenv(DBNameEnv),
			Port:     os.Getenv(DBPortEnv),
		},
		HTTPServer: Server{
			Port:           os.Getenv(HTTPServerPortEnv),
			AllowedOrigins: getEnvAsList(CORSAllowedOriginsEnv),
		},
		MetricsServer: Server{
			Port: os.Getenv(MetricsServerPortEnv),
		},
		Session: Session{
			Secret: os.Getenv(SessionSecretEnv),
			TTL:    getEnvAsDuration(SessionTTLEnv, defaultSessionTTL),
		},
		Redis: Redis{
			Addr:     os.Getenv(RedisAddrEnv),
			Password: os.Getenv(RedisPasswordEnv),
			DB:       getEnvAsInt(RedisDBEnv, 0),
		},
		Geocoder: Geocoder{
			URL:       os.Getenv(GeocoderURLEnv),
			Timeout:   getEnvAsDuration(GeocoderTimeoutEnv, defaultGeocoderTimeout),
			Rate:      getEnvAsFloat(GeocoderRateEnv, defaultGeocoderRate),
			UserAgent: getEnv(GeocoderUserAgentEnv, defaultUserAgent),
		},
		AWS: AWSConfig{
			Region:      os.Getenv(AWSRegionEnv),
			Endpoint:    os.Getenv(AWSEndpointEnv),
			SQSQueueURL: os.Getenv(SQSQueueURLEnv),
		},
		Storage: Storage{
			Bucket:       os.Getenv(S3BucketEnv),
			Dir:          getEnv(StorageDirEnv, defaultStorageDir),
			AssetBaseURL: os.Getenv(AssetBaseURLEnv),
		},
		Outbox: Outbox{
			Interval: getEnvAsDuration(OutboxIntervalEnv, defaultOutboxInterval),
		},
	}

	if err := conf.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return conf, nil
}
