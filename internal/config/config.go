package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Damiangorskii/web-order-service/internal/repository"
	"github.com/joho/godotenv"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

type Config struct {
	HTTPPort string
	GRPCPort string
	LogLevel string

	StoreDriver string
	MongoURI    string
	MongoDBName string
	Postgres    repository.Credentials

	CartServiceURL     string
	CartServiceTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	KafkaBrokers []string

	OrderRetention  time.Duration
	SweepInterval   time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
}

func (c *Config) CacheEnabled() bool { return c.RedisAddr != "" }

func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// Load reads envFile when it exists and then the process environment.
// Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	p := &parser{}
	cfg := &Config{
		HTTPPort: p.port("HTTP_PORT", "8080"),
		GRPCPort: p.port("GRPC_PORT", "50057"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreDriver: getEnv("STORE_DRIVER", StoreMongo),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "orderdb"),
		Postgres: repository.Credentials{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              p.int("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", "postgres"),
			DBName:            getEnv("DB_NAME", "orders"),
			MigrationsDirPath: getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"),
		},

		CartServiceURL:     getEnv("CART_SERVICE_URL", "http://localhost:8081/shopping-cart"),
		CartServiceTimeout: p.duration("CART_SERVICE_TIMEOUT", 5*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		CacheTTL:      p.duration("CACHE_TTL", 15*time.Minute),

		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),

		OrderRetention:  p.duration("ORDER_RETENTION", 24*time.Hour),
		SweepInterval:   p.duration("SWEEP_INTERVAL", time.Minute),
		RequestTimeout:  p.duration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxUploadBytes:  int64(p.int("MAX_UPLOAD_BYTES", 10<<20)),
	}

	switch cfg.StoreDriver {
	case StoreMongo, StorePostgres:
	default:
		p.errs = append(p.errs, fmt.Errorf("STORE_DRIVER: unsupported driver %q", cfg.StoreDriver))
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parser collects every invalid variable so startup reports them together.
type parser struct {
	errs []error
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid duration %q", key, raw))
		return def
	}
	return d
}

func (p *parser) int(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid positive integer %q", key, raw))
		return def
	}
	return n
}

func (p *parser) port(key, def string) string {
	raw := getEnv(key, def)
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > 65535 {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid port %q", key, raw))
		return def
	}
	return raw
}
