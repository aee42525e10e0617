package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	EventLog  EventLogConfig
	Predictor PredictorConfig
	Clinical  ClinicalConfig
	Stats     StatsConfig
	Upload    UploadConfig
	Admin     AdminConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

type AuthConfig struct {
	JWTSecret string
	// TokenTTLMinutes is the lifetime of issued access tokens.
	TokenTTLMinutes int
}

// EventLogConfig holds configuration for the KurrentDB audit event store.
type EventLogConfig struct {
	Host     string
	Port     int
	Insecure bool
	Username string
	Password string
}

// PredictorConfig points at the external CT-scan classification service.
// The model itself is opaque to this platform.
type PredictorConfig struct {
	URL     string
	Enabled bool
}

// ClinicalConfig holds the location of the clinical report source data.
type ClinicalConfig struct {
	// DataDir is the directory of CSV batches consumed by the report builder.
	DataDir string
}

// StatsConfig holds the public COVID statistics feed settings.
type StatsConfig struct {
	// FeedURL is fetched when set; FallbackFile is read otherwise.
	FeedURL      string
	FallbackFile string
}

// UploadConfig holds CT-scan upload settings.
type UploadConfig struct {
	// MediaDir is where uploaded scan images are stored.
	MediaDir string
	// MaxSizeBytes caps the multipart upload size.
	MaxSizeBytes int64
}

// AdminConfig seeds the first administrator account. Bootstrap runs
// only when no admin exists and a password is configured.
type AdminConfig struct {
	Name     string
	LoginID  string
	Email    string
	Password string
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "coviddx"),
			Password: getEnv("DB_PASSWORD", "coviddx"),
			Database: getEnv("DB_NAME", "coviddx"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("JWT_SECRET", "dev-secret-change-in-prod"),
			TokenTTLMinutes: getEnvInt("JWT_TTL_MINUTES", 480),
		},
		EventLog: EventLogConfig{
			Host:     getEnv("EVENTLOG_HOST", "localhost"),
			Port:     getEnvInt("EVENTLOG_PORT", 2113),
			Insecure: getEnvBool("EVENTLOG_INSECURE", true),
			Username: getEnv("EVENTLOG_USERNAME", ""),
			Password: getEnv("EVENTLOG_PASSWORD", ""),
		},
		Predictor: PredictorConfig{
			URL:     getEnv("PREDICTOR_URL", "http://localhost:5000"),
			Enabled: getEnvBool("PREDICTOR_ENABLED", true),
		},
		Clinical: ClinicalConfig{
			DataDir: getEnv("CLINICAL_DATA_DIR", "data"),
		},
		Stats: StatsConfig{
			FeedURL:      getEnv("STATS_FEED_URL", ""),
			FallbackFile: getEnv("STATS_FALLBACK_FILE", "media/coviddata.csv"),
		},
		Upload: UploadConfig{
			MediaDir:     getEnv("UPLOAD_MEDIA_DIR", "media/ctscans"),
			MaxSizeBytes: int64(getEnvInt("UPLOAD_MAX_SIZE_BYTES", 10*1024*1024)),
		},
		Admin: AdminConfig{
			Name:     getEnv("ADMIN_NAME", "Administrator"),
			LoginID:  getEnv("ADMIN_LOGIN_ID", "admin"),
			Email:    getEnv("ADMIN_EMAIL", "admin@localhost"),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
