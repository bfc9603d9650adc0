package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all the configuration for the application.
type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"production"`
	HTTPServer `yaml:"http_server"`
	Database   `yaml:"database"`
	Shortener  `yaml:"shortener"`
	RateLimit  `yaml:"rate_limit"`
	Auth       `yaml:"auth"`
}

// HTTPServer holds HTTP server specific configuration.
type HTTPServer struct {
	Address      string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// Database holds PostgreSQL connection configuration.
type Database struct {
	Host            string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string `yaml:"user" env:"DB_USER" env-default:"uplink"`
	Password        string `yaml:"password" env:"DB_PASSWORD"`
	DBName          string `yaml:"dbname" env:"DB_NAME" env-default:"uplink"`
	SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	Timezone        string `yaml:"timezone" env:"DB_TIMEZONE" env-default:"UTC"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"50"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
	AutoMigrate     bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
}

// Shortener holds service-specific configuration.
// MaxAttempts bounds generated-code collision retries; the value is an empirical
// safety margin over the 62^8 code space, not a load-bearing constant.
type Shortener struct {
	CodeLength     int      `yaml:"code_length" env:"CODE_LENGTH" env-default:"8"`
	MaxAttempts    int      `yaml:"max_attempts" env:"CODE_MAX_ATTEMPTS" env-default:"10"`
	DefaultDomain  string   `yaml:"default_domain" env:"DEFAULT_DOMAIN" env-default:"localhost:8080"`
	AllowedDomains []string `yaml:"allowed_domains" env:"ALLOWED_DOMAINS" env-separator:","`
}

// RateLimit holds admission control configuration for the public create endpoint.
// RedisAddr switches the limiter to the shared redis counter; empty means
// per-process in-memory limiting (accepted single-instance limitation).
type RateLimit struct {
	MaxRequests   int           `yaml:"max_requests" env:"RATE_LIMIT_MAX_REQUESTS" env-default:"30"`
	Window        time.Duration `yaml:"window" env:"RATE_LIMIT_WINDOW" env-default:"1m"`
	Retention     time.Duration `yaml:"retention" env:"RATE_LIMIT_RETENTION" env-default:"2h"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"RATE_LIMIT_SWEEP_INTERVAL" env-default:"10m"`
	RedisAddr     string        `yaml:"redis_addr" env:"RATE_LIMIT_REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" env:"RATE_LIMIT_REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" env:"RATE_LIMIT_REDIS_DB" env-default:"0"`
}

// Auth holds session authentication configuration.
type Auth struct {
	JWTSecret       string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"168h"`
	Issuer          string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"Uplink-Backend"`
}

// MustLoad loads the application configuration.
func MustLoad() *Config {
	// Try to load .env file (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}

	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/local.yml" // default path
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			log.Fatalf("cannot read config: %s", err)
		}
	} else {
		// If config file doesn't exist, use environment variables only
		log.Println("Config file not found, using environment variables only")
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("cannot read config from environment: %s", err)
		}
	}

	return &cfg
}
