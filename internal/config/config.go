package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/flare-foundation/go-flare-common/pkg/logger"
	"github.com/pkg/errors"
)

var envOverrides = map[string]func(*Config, string){
	"DB_URL":      func(c *Config, v string) { c.DB.URL = v },
	"DB_USERNAME": func(c *Config, v string) { c.DB.Username = v },
	"DB_PASSWORD": func(c *Config, v string) { c.DB.Password = v },
}

type Config struct {
	DB      DB            `toml:"db"`
	Query   Query         `toml:"query"`
	Timeout TimeoutConfig `toml:"timeout"`
	Logger  logger.Config `toml:"logger"`
}

func DefaultConfig() Config {
	return Config{
		DB:      defaultDB,
		Query:   defaultQuery,
		Timeout: defaultTimeout,
		Logger:  logger.DefaultConfig(),
	}
}

// DB describes how to reach the archive database. URL is a complete
// connection target and takes precedence over the discrete fields.
type DB struct {
	URL          string `toml:"url"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Username     string `toml:"username"`
	Password     string `toml:"password"`
	DBName       string `toml:"db_name"`
	SSLMode      string `toml:"ssl_mode"`
	LogQueries   bool   `toml:"log_queries"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

var defaultDB = DB{
	Host:         "localhost",
	Port:         5432,
	MaxOpenConns: 1,
	MaxIdleConns: 1,
}

type Query struct {
	// PageSize lowers the row cap applied to every query. Zero keeps the
	// built-in cap; it can never be raised above it.
	PageSize int `toml:"page_size"`
}

var defaultQuery = Query{}

type TimeoutConfig struct {
	BackoffMaxElapsedTimeSeconds int `toml:"backoff_max_elapsed_time_seconds"`
	RequestTimeoutMillis         int `toml:"request_timeout_millis"`
}

var defaultTimeout = TimeoutConfig{
	BackoffMaxElapsedTimeSeconds: 30,
}

func ReadFile(filepath string, cfg interface{}) error {
	_, err := toml.DecodeFile(filepath, cfg)
	return errors.Wrapf(err, "reading config file %s", filepath)
}

func (cfg *Config) ApplyEnvOverrides() {
	for env, override := range envOverrides {
		if val, ok := os.LookupEnv(env); ok {
			override(cfg, val)
		}
	}
}

func CheckParameters(cfg *Config) error {
	if cfg.DB.URL == "" && cfg.DB.DBName == "" {
		return errors.New("either db.url or db.db_name must be set")
	}

	if cfg.DB.MaxOpenConns < 0 || cfg.DB.MaxIdleConns < 0 {
		return errors.New("db connection pool sizes must not be negative")
	}

	if cfg.Query.PageSize < 0 {
		return errors.New("query.page_size must not be negative")
	}

	if cfg.Timeout.BackoffMaxElapsedTimeSeconds < 0 || cfg.Timeout.RequestTimeoutMillis < 0 {
		return errors.New("timeouts must not be negative")
	}

	return nil
}
