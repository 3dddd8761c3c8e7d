package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type (
	Config struct {
		HTTP        HTTP
		Log         Log
		Backend     Backend
		Storage     Storage
		Resolver    Resolver
		Upload      Upload
		Poller      Poller
		Health      Health
		PG          PG
		Kafka       Kafka
		OutboxRelay OutboxRelay
		S3          S3
		Swagger     Swagger
	}

	HTTP struct {
		Port            string        `env:"HTTP_PORT" envDefault:"8080"`
		UsePreforkMode  bool          `env:"HTTP_USE_PREFORK_MODE" envDefault:"false"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"3s"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL" envDefault:"info"`
		Debug bool   `env:"DEBUG_LOGGING" envDefault:"false"`
	}

	Backend struct {
		BaseURL string        `env:"API_BASE_URL" envDefault:"http://localhost:8000"`
		Timeout time.Duration `env:"API_TIMEOUT" envDefault:"30s"`
	}

	Storage struct {
		PublicURL    string `env:"MINIO_PUBLIC_URL" envDefault:"http://localhost:9001"`
		InternalHost string `env:"MINIO_INTERNAL_HOST" envDefault:"minio:9000"`
		Bucket       string `env:"MINIO_BUCKET" envDefault:"images"`
	}

	Resolver struct {
		UseProxy           bool          `env:"USE_PROXY" envDefault:"false"`
		AccessibilityCheck bool          `env:"URL_ACCESSIBILITY_CHECK" envDefault:"false"`
		CheckTimeout       time.Duration `env:"URL_CHECK_TIMEOUT" envDefault:"5s"`
		ThumbnailWidth     int           `env:"THUMBNAIL_WIDTH" envDefault:"64"`
		ThumbnailHeight    int           `env:"THUMBNAIL_HEIGHT" envDefault:"64"`
	}

	Upload struct {
		MaxSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"`
	}

	Poller struct {
		Interval time.Duration `env:"POLL_INTERVAL" envDefault:"2s"`
		Timeout  time.Duration `env:"POLL_TIMEOUT" envDefault:"5m"`
	}

	Health struct {
		Interval time.Duration `env:"HEALTH_CHECK_INTERVAL" envDefault:"30s"`
	}

	// PG is optional: with an empty URL workflow history stays in memory.
	PG struct {
		PoolMax int    `env:"PG_POOL_MAX" envDefault:"2"`
		URL     string `env:"PG_URL"`
	}

	// Kafka is optional and needs PG: events go through the outbox table.
	Kafka struct {
		Brokers []string `env:"KAFKA_BROKERS"`
		Topic   string   `env:"KAFKA_TOPIC" envDefault:"resize-workflows"`
		GroupID string   `env:"KAFKA_CONSUMER_GROUP" envDefault:"adminctl"`
	}

	OutboxRelay struct {
		PollInterval        time.Duration `env:"OUTBOX_RELAY_POLL_INTERVAL" envDefault:"2s"`
		MarkFailedInterval  time.Duration `env:"OUTBOX_RELAY_MARK_FAILED_INTERVAL" envDefault:"2m"`
		CleanupInterval     time.Duration `env:"OUTBOX_RELAY_CLEANUP_INTERVAL" envDefault:"24h"`
		ProcessBatchTimeout time.Duration `env:"OUTBOX_RELAY_PROCESS_BATCH_TIMEOUT" envDefault:"15s"`
		ShutdownTimeout     time.Duration `env:"OUTBOX_RELAY_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		BatchSize           int           `env:"OUTBOX_RELAY_BATCH_SIZE" envDefault:"100"`
		MaxRetries          int           `env:"OUTBOX_RELAY_MAX_RETRIES" envDefault:"3"`
	}

	// S3 is optional: when set, the panel presigns object URLs itself.
	// Presigned URLs are not host-rewritten, so Endpoint must be reachable
	// from browsers.
	S3 struct {
		Endpoint       string        `env:"S3_ENDPOINT"`
		AccessKey      string        `env:"S3_ACCESS_KEY"`
		SecretKey      string        `env:"S3_SECRET_KEY"`
		PresignTTL     time.Duration `env:"S3_PRESIGN_TTL" envDefault:"15m"`
		CfgLoadTimeout time.Duration `env:"S3_LOAD_CFG_TIMEOUT" envDefault:"10s"`
	}

	Swagger struct {
		Enabled bool `env:"SWAGGER_ENABLED" envDefault:"false"`
	}
)

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	if cfg.Log.Debug {
		cfg.Log.Level = "debug"
	}

	return cfg, nil
}

const (
	_defaultCheckTimeout = 5 * time.Second
	_defaultPollInterval = 2 * time.Second
	_defaultPollTimeout  = 5 * time.Minute
	_defaultMaxUpload    = 10 << 20
)

// Validate reports settings that parse but cannot work together. Required
// settings fail with an error. Optional ones fall back to their defaults or
// switch their subsystem off, and each fallback is returned as a warning.
func (c *Config) Validate() ([]string, error) {
	var (
		problems []error
		warnings []string
	)

	if c.Backend.BaseURL == "" {
		problems = append(problems, errors.New("API_BASE_URL is not set"))
	}

	if c.Storage.PublicURL == "" {
		problems = append(problems, errors.New("MINIO_PUBLIC_URL is not set"))
	}

	if c.Resolver.AccessibilityCheck && c.Resolver.CheckTimeout < time.Second {
		warnings = append(warnings, fmt.Sprintf("URL_CHECK_TIMEOUT is too low (< 1s), using %s", _defaultCheckTimeout))
		c.Resolver.CheckTimeout = _defaultCheckTimeout
	}

	if c.Poller.Interval <= 0 || c.Poller.Timeout <= c.Poller.Interval {
		warnings = append(warnings, fmt.Sprintf("POLL_TIMEOUT must be greater than POLL_INTERVAL, using %s and %s",
			_defaultPollInterval, _defaultPollTimeout))
		c.Poller.Interval = _defaultPollInterval
		c.Poller.Timeout = _defaultPollTimeout
	}

	if c.Upload.MaxSize <= 0 {
		warnings = append(warnings, fmt.Sprintf("MAX_UPLOAD_SIZE must be positive, using %d", _defaultMaxUpload))
		c.Upload.MaxSize = _defaultMaxUpload
	}

	if len(c.Kafka.Brokers) > 0 && c.PG.URL == "" {
		warnings = append(warnings, "KAFKA_BROKERS requires PG_URL, workflow events are disabled")
		c.Kafka.Brokers = nil
	}

	if c.S3.Endpoint != "" && (c.S3.AccessKey == "" || c.S3.SecretKey == "") {
		warnings = append(warnings, "S3_ENDPOINT requires S3_ACCESS_KEY and S3_SECRET_KEY, presigning is disabled")
		c.S3.Endpoint = ""
	}

	return warnings, errors.Join(problems...)
}

func (c *Config) HistoryEnabled() bool {
	return c.PG.URL != ""
}

func (c *Config) EventsEnabled() bool {
	return c.HistoryEnabled() && len(c.Kafka.Brokers) > 0
}

func (c *Config) PresignEnabled() bool {
	return c.S3.Endpoint != ""
}
