package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Store drivers supported for the settings records.
const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

// Object storage drivers supported for uploaded files.
const (
	StorageMinIO = "minio"
	StorageGCS   = "gcs"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI               string
	Database          string
	Collection        string
	ConnectTimeoutSec int
}

// RedisConfig holds the optional read-through cache settings.
// An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTLSec   int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// GCSConfig holds object storage settings for Google Cloud Storage.
type GCSConfig struct {
	Bucket          string
	CredentialsFile string
}

// AuthConfig holds bearer token verification settings.
type AuthConfig struct {
	JWTSecret string
}

// UploadConfig bounds what a single upload request may carry.
type UploadConfig struct {
	MaxDocuments     int
	MaxFileSizeMB    int
	PresignExpirySec int
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables, optionally layered over a YAML file.
type AppConfig struct {
	AppHost       string
	Port          string
	BodyLimitMB   int
	Auth          AuthConfig
	SettingsStore string
	Database      DatabaseConfig
	Mongo         MongoConfig
	Redis         RedisConfig
	StorageDriver string
	MinIO         MinIOConfig
	GCS           GCSConfig
	Upload        UploadConfig
	Log           LogConfig
}

// source resolves a key from the process environment first, then from the optional file.
type source struct {
	file map[string]string
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// If CONFIG_FILE points at a YAML file of KEY: value pairs, those values act as defaults
// beneath the real environment.
func Load() (*AppConfig, error) {
	src := source{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		values, err := readFile(path)
		if err != nil {
			return nil, err
		}
		src.file = values
	}
	return src.load(), nil
}

func (s source) load() *AppConfig {
	return &AppConfig{
		AppHost:     s.getEnv("APP_HOST", "localhost:8080"),
		Port:        s.getEnv("PORT", "8080"),
		BodyLimitMB: s.getEnvInt("BODY_LIMIT_MB", 60),
		Auth: AuthConfig{
			JWTSecret: s.getEnv("JWT_SECRET", ""),
		},
		SettingsStore: s.getEnv("SETTINGS_STORE", StorePostgres),
		Database: DatabaseConfig{
			Host:               s.getEnv("DB_HOST", ""),
			Port:               s.getEnv("DB_PORT", "5432"),
			User:               s.getEnv("DB_USER", ""),
			Password:           s.getEnv("DB_PASSWORD", ""),
			Name:               s.getEnv("DB_NAME", ""),
			SSLMode:            s.getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       s.getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       s.getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: s.getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Mongo: MongoConfig{
			URI:               s.getEnv("MONGO_URI", ""),
			Database:          s.getEnv("MONGO_DATABASE", "dashboard"),
			Collection:        s.getEnv("MONGO_COLLECTION", "settings"),
			ConnectTimeoutSec: s.getEnvInt("MONGO_CONNECT_TIMEOUT_SEC", 10),
		},
		Redis: RedisConfig{
			Addr:     s.getEnv("REDIS_ADDR", ""),
			Password: s.getEnv("REDIS_PASSWORD", ""),
			DB:       s.getEnvInt("REDIS_DB", 0),
			TTLSec:   s.getEnvInt("REDIS_TTL_SEC", 300),
		},
		StorageDriver: s.getEnv("STORAGE_DRIVER", StorageMinIO),
		MinIO: MinIOConfig{
			Endpoint:  s.getEnv("MINIO_ENDPOINT", ""),
			AccessKey: s.getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: s.getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    s.getEnv("MINIO_BUCKET", ""),
			UseSSL:    s.getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			Bucket:          s.getEnv("GCS_BUCKET", ""),
			CredentialsFile: s.getEnv("GCS_CREDENTIALS_FILE", ""),
		},
		Upload: UploadConfig{
			MaxDocuments:     s.getEnvInt("UPLOAD_MAX_DOCUMENTS", 5),
			MaxFileSizeMB:    s.getEnvInt("UPLOAD_MAX_FILE_SIZE_MB", 10),
			PresignExpirySec: s.getEnvInt("UPLOAD_PRESIGN_EXPIRY_SEC", 900),
		},
		Log: LogConfig{
			Level:      s.getEnv("LOG_LEVEL", "info"),
			Format:     s.getEnv("LOG_FORMAT", "json"),
			File:       s.getEnv("LOG_FILE", ""),
			MaxSizeMB:  s.getEnvInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: s.getEnvInt("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: s.getEnvInt("LOG_MAX_AGE_DAYS", 28),
		},
	}
}

// Validate reports settings the process cannot start without.
func (c *AppConfig) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.SettingsStore {
	case StorePostgres, StoreMongo:
	default:
		return fmt.Errorf("unsupported SETTINGS_STORE %q", c.SettingsStore)
	}
	switch c.StorageDriver {
	case StorageMinIO, StorageGCS:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.Upload.MaxDocuments < 1 || c.Upload.MaxFileSizeMB < 1 {
		return fmt.Errorf("upload limits must be positive")
	}
	return nil
}

func readFile(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return values, nil
}

func (s source) getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v, ok := s.file[key]; ok && v != "" {
		return v
	}
	return def
}

func (s source) getEnvBool(key string, def bool) bool {
	if v := s.getEnv(key, ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func (s source) getEnvInt(key string, def int) int {
	if v := s.getEnv(key, ""); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
