package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Значения по умолчанию.
const (
	DefaultLogLevel     = "INFO"
	DefaultLogFormat    = "json"
	DefaultAPIPort      = "8080"
	DefaultWorkerPort   = "8081"
	DefaultFlowCacheTTL = 5 * time.Minute
	DefaultMaxCallDepth = 8
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultAPIURL       = "http://localhost:8080"
)

// Config — настройки процесса.
type Config struct {
	LogLevel  string
	LogFormat string

	APIPort    string
	WorkerPort string

	DatabaseURL string
	RabbitMQURL string
	RedisAddr   string

	FlowCacheTTL time.Duration
	MaxCallDepth int
	HTTPTimeout  time.Duration

	// ResolveHosts включает проверку DNS-имён перед исходящими запросами.
	ResolveHosts bool

	// OTLPEndpoint — пустое значение отключает экспорт трассировки.
	OTLPEndpoint string

	// APIURL — адрес API для cli и mcp.
	APIURL string
}

// Default возвращает конфигурацию со значениями по умолчанию.
func Default() Config {
	return Config{
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
		APIPort:      DefaultAPIPort,
		WorkerPort:   DefaultWorkerPort,
		FlowCacheTTL: DefaultFlowCacheTTL,
		MaxCallDepth: DefaultMaxCallDepth,
		HTTPTimeout:  DefaultHTTPTimeout,
		ResolveHosts: true,
		APIURL:       DefaultAPIURL,
	}
}

// FromEnv читает конфигурацию из окружения процесса.
func FromEnv() (Config, error) {
	return Load(os.Getenv)
}

// Load читает конфигурацию через getenv.
// Незаданные переменные получают значения по умолчанию.
func Load(getenv func(string) string) (Config, error) {
	cfg := Default()

	setString(&cfg.LogLevel, getenv("LOG_LEVEL"))
	setString(&cfg.LogFormat, strings.ToLower(getenv("LOG_FORMAT")))
	setString(&cfg.APIPort, getenv("API_PORT"))
	setString(&cfg.WorkerPort, getenv("WORKER_PORT"))
	setString(&cfg.DatabaseURL, getenv("DB_URL"))
	setString(&cfg.RabbitMQURL, getenv("RABBITMQ_URL"))
	setString(&cfg.RedisAddr, getenv("REDIS_ADDR"))
	setString(&cfg.OTLPEndpoint, getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	setString(&cfg.APIURL, strings.TrimRight(getenv("TOOLFLOW_API_URL"), "/"))

	var err error
	if cfg.FlowCacheTTL, err = parseDuration("FLOW_CACHE_TTL", getenv, cfg.FlowCacheTTL); err != nil {
		return Config{}, err
	}
	if cfg.HTTPTimeout, err = parseDuration("HTTP_TIMEOUT", getenv, cfg.HTTPTimeout); err != nil {
		return Config{}, err
	}

	if v := getenv("MAX_CALL_DEPTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("%w: MAX_CALL_DEPTH=%q", ErrInvalidValue, v)
		}
		cfg.MaxCallDepth = n
	}

	if v := getenv("SSRF_RESOLVE_HOSTS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: SSRF_RESOLVE_HOSTS=%q", ErrInvalidValue, v)
		}
		cfg.ResolveHosts = b
	}

	return cfg, nil
}

// Validate проверяет общие ограничения.
func (c Config) Validate() error {
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("%w: LOG_FORMAT=%q", ErrInvalidValue, c.LogFormat)
	}
	if _, err := strconv.Atoi(c.APIPort); err != nil {
		return fmt.Errorf("%w: API_PORT=%q", ErrInvalidValue, c.APIPort)
	}
	if _, err := strconv.Atoi(c.WorkerPort); err != nil {
		return fmt.Errorf("%w: WORKER_PORT=%q", ErrInvalidValue, c.WorkerPort)
	}
	if c.MaxCallDepth < 1 {
		return fmt.Errorf("%w: MAX_CALL_DEPTH=%d", ErrInvalidValue, c.MaxCallDepth)
	}
	return nil
}

// RequireDatabase проверяет, что задан DB_URL.
func (c Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	return nil
}

// RequireRabbitMQ проверяет, что задан RABBITMQ_URL.
func (c Config) RequireRabbitMQ() error {
	if c.RabbitMQURL == "" {
		return ErrMissingRabbitMQURL
	}
	return nil
}

// APIAddr — адрес для http.Server API.
func (c Config) APIAddr() string { return ":" + c.APIPort }

// WorkerAddr — адрес служебного HTTP порта worker.
func (c Config) WorkerAddr() string { return ":" + c.WorkerPort }

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func parseDuration(key string, getenv func(string) string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, v)
	}
	return d, nil
}
