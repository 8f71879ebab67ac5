package config

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"production" validate:"oneof=local development production"`
	PGSQL      PQSQL      `yaml:"pgsql"`
	Redis      Redis      `yaml:"redis"`
	MinIO      MinIO      `yaml:"minio"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Auth       Auth       `yaml:"auth"`
	CORS       CORS       `yaml:"cors"`
	Upload     Upload     `yaml:"upload"`
	Digest     Digest     `yaml:"digest"`
}

type HTTPServer struct {
	Address      string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080" validate:"required"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env-default:"2m"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"2m"`
	// TrustedProxies lists the CIDRs whose X-Forwarded-For and X-Real-IP
	// headers are believed. Empty means the peer address is always used.
	TrustedProxies []string `yaml:"trusted_proxies" env:"HTTP_TRUSTED_PROXIES" env-separator:","`
}

type PQSQL struct {
	Host     string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"PGPORT" env-default:"5432"`
	User     string `yaml:"user" env:"PGUSER" env-default:"postgres"`
	Password string `yaml:"password" env:"PGPASSWORD" env-default:"password"`
	DBName   string `yaml:"dbname" env:"PGDATABASE" env-default:"ingest_db"`
	SSLMode  string `yaml:"sslmode" env:"PGSSLMODE" env-default:"disable" validate:"oneof=disable require verify-ca verify-full"`
}

type Redis struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS" env-default:"localhost:6379" validate:"required"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0" validate:"min=0"`
}

type MinIO struct {
	Endpoint        string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000" validate:"required"`
	AccessKeyID     string `yaml:"access_key_id" env:"MINIO_ACCESS_KEY_ID" env-required:"true"`
	SecretAccessKey string `yaml:"secret_access_key" env:"MINIO_SECRET_ACCESS_KEY" env-required:"true"`
	UseSSL          bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
	Region          string `yaml:"region" env:"MINIO_REGION" env-default:"us-east-1"`
	RawBucket       string `yaml:"raw_bucket" env-default:"uploads-raw" validate:"required,nefield=ProcessedBucket"`
	ProcessedBucket string `yaml:"processed_bucket" env-default:"uploads-processed" validate:"required"`
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true" validate:"min=16"`
	Issuer    string `yaml:"issuer" env:"JWT_ISSUER"`
}

// CORS lists the origins allowed to call the upload endpoints. Patterns
// are regular expressions matched against the whole Origin header.
type CORS struct {
	AllowedOrigins        []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:","`
	AllowedOriginPatterns []string `yaml:"allowed_origin_patterns"`
	FallbackOrigin        string   `yaml:"fallback_origin" env:"CORS_FALLBACK_ORIGIN" validate:"required,url"`
}

type Upload struct {
	MaxFiles           int           `yaml:"max_files" env-default:"10" validate:"min=1,max=100"`
	MaxBatchBytes      int64         `yaml:"max_batch_bytes" env-default:"314572800" validate:"min=1"`
	DocumentURLTTL     time.Duration `yaml:"document_url_ttl" env-default:"4h" validate:"min=1m,max=168h"`
	PhotoURLTTL        time.Duration `yaml:"photo_url_ttl" env-default:"1h" validate:"min=1m,max=168h"`
	RateLimitPerMinute int64         `yaml:"rate_limit_per_minute" env-default:"30" validate:"min=1"`
}

// Digest configures the quarantine digest worker.
type Digest struct {
	Interval time.Duration `yaml:"interval" env:"DIGEST_INTERVAL" env-default:"1h" validate:"min=1m"`
	Window   time.Duration `yaml:"window" env:"DIGEST_WINDOW" env-default:"24h" validate:"min=1m"`
}

// Load reads the config file at path, applies env overrides and validates
// the result.
func Load(path string) (*Config, error) {
	var cfg Config

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	var configPath string

	configPath = os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags

		if configPath == "" {
			log.Fatal("config path must be provided")
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist at path: %s", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	return cfg
}

// SetupLogger installs the process-wide logger: JSON in production, text
// everywhere else.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Env == "local" {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With(slog.String("env", cfg.Env))
	slog.SetDefault(logger)
	return logger
}
