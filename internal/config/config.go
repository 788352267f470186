package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Storage and blob backends.
const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
	BlobLocal     = "local"
	BlobS3        = "s3"
)

// JWTConfig defines issuer/secret pair for auth verification.
type JWTConfig struct {
	Issuer string
	Secret []byte
}

// S3Config holds the bucket settings used when BLOB_BACKEND=s3.
type S3Config struct {
	Endpoint        string `env:"S3_ENDPOINT"`
	Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	Bucket          string `env:"S3_BUCKET" envDefault:"store-photos"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	UseSSL          bool   `env:"S3_USE_SSL"`
}

// RabbitMQConfig enables store event publishing when URL is set.
type RabbitMQConfig struct {
	URL       string `env:"RABBITMQ_URL"`
	QueueName string `env:"RABBITMQ_QUEUE_NAME" envDefault:"store_events"`
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr           string        `env:"HTTP_ADDR" envDefault:":8080"`
	StorageBackend string        `env:"STORAGE_BACKEND" envDefault:"mongo"`
	MongoURI       string        `env:"MONGO_URI" envDefault:"mongodb://mongo:27017"`
	MongoDatabase  string        `env:"MONGO_DB" envDefault:"delicious"`
	Timeout        time.Duration `env:"MONGO_CONNECT_TIMEOUT" envDefault:"10s"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"5s"`
	AutoMigrate    bool          `env:"MONGO_AUTO_MIGRATE" envDefault:"true"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	AllowedOrigins []string `env:"API_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	JWTSecret   string `env:"AUTH_JWT_SECRET"`
	JWTIssuer   string `env:"AUTH_JWT_ISSUER"`
	JWTAudience string `env:"AUTH_JWT_AUDIENCE"`
	JWTConfigs  []JWTConfig

	BlobBackend string `env:"BLOB_BACKEND" envDefault:"local"`
	UploadsDir  string `env:"UPLOADS_DIR" envDefault:"./public/uploads"`
	S3          S3Config
	RabbitMQ    RabbitMQConfig
}

// Load reads an optional .env file and the environment and returns a validated Config.
func Load() (Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	}
	return Parse()
}

// Parse reads the process environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	cfg.BlobBackend = strings.ToLower(strings.TrimSpace(cfg.BlobBackend))
	cfg.AllowedOrigins = trimList(cfg.AllowedOrigins)

	if secret := strings.TrimSpace(cfg.JWTSecret); secret != "" {
		cfg.JWTConfigs = append(cfg.JWTConfigs, JWTConfig{
			Issuer: strings.TrimSpace(cfg.JWTIssuer),
			Secret: []byte(secret),
		})
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if len(c.JWTConfigs) == 0 {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must be configured"))
	}
	switch c.StorageBackend {
	case BackendMongo, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend))
	}
	switch c.BlobBackend {
	case BlobLocal:
	case BlobS3:
		if c.S3.AccessKeyID == "" || c.S3.SecretAccessKey == "" {
			errs = append(errs, errors.New("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required for the s3 blob backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown BLOB_BACKEND %q", c.BlobBackend))
	}
	return errors.Join(errs...)
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
