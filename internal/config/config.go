// Package config loads and validates application configuration.
// Values come from a .env file and the environment via viper;
// validation is fail-fast so a misconfigured instance never listens.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Database  DatabaseConfig
	Redis     RedisConfig
}

type ServerConfig struct {
	Port string
}

type AuthConfig struct {
	// IssuerURI is the trusted token issuer; JWKS is discovered via OIDC.
	IssuerURI string
	// Audience is the required aud (and azp, when present) claim value.
	Audience string
}

type CORSConfig struct {
	// AllowedOrigins is the comma-separated origin list from config.
	AllowedOrigins string
}

// Origins splits the configured origin list.
func (c CORSConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

type RateLimitConfig struct {
	RequestsPerWindow int
	WindowMinutes     int
}

func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowMinutes) * time.Minute
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (c RedisConfig) Addr() string { return c.Host + ":" + c.Port }

// Load reads .env plus environment overrides and returns the resolved
// configuration. It does not validate; callers must call Validate.
func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()
	viper.ReadInConfig()

	viper.BindEnv("server.port", "PORT")

	viper.BindEnv("auth.issuer_uri", "AUTH_ISSUER_URI")
	viper.BindEnv("auth.audience", "AUTH_AUDIENCE")
	viper.BindEnv("cors.allowed_origins", "CORS_ALLOWED_ORIGINS")
	viper.BindEnv("rate_limit.requests_per_window", "RATE_LIMIT_REQUESTS_PER_WINDOW")
	viper.BindEnv("rate_limit.window_minutes", "RATE_LIMIT_WINDOW_MINUTES")

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("rate_limit.requests_per_window", 200)
	viper.SetDefault("rate_limit.window_minutes", 5)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.name", "finsight")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", time.Minute*5)

	viper.SetDefault("redis.host", "")
	viper.SetDefault("redis.port", "6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("server.port"),
		},
		Auth: AuthConfig{
			IssuerURI: viper.GetString("auth.issuer_uri"),
			Audience:  viper.GetString("auth.audience"),
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetString("cors.allowed_origins"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: viper.GetInt("rate_limit.requests_per_window"),
			WindowMinutes:     viper.GetInt("rate_limit.window_minutes"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("database.host"),
			Port:            viper.GetString("database.port"),
			User:            viper.GetString("database.user"),
			Password:        viper.GetString("database.password"),
			Name:            viper.GetString("database.name"),
			SSLMode:         viper.GetString("database.ssl_mode"),
			MaxOpenConns:    viper.GetInt("database.max_open_conns"),
			MaxIdleConns:    viper.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: viper.GetDuration("database.conn_max_lifetime"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("redis.host"),
			Port:     viper.GetString("redis.port"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
	}
}

// Validate rejects configurations the service must not start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.IssuerURI == "" {
		errs = append(errs, errors.New("auth.issuer_uri is required"))
	}
	if c.Auth.Audience == "" {
		errs = append(errs, errors.New("auth.audience is required"))
	}
	if len(c.CORS.Origins()) == 0 {
		errs = append(errs, errors.New("cors.allowed_origins is required"))
	}
	if c.RateLimit.RequestsPerWindow <= 0 {
		errs = append(errs, errors.New("rate_limit.requests_per_window must be positive"))
	}
	if c.RateLimit.WindowMinutes <= 0 {
		errs = append(errs, errors.New("rate_limit.window_minutes must be positive"))
	}
	return errors.Join(errs...)
}
