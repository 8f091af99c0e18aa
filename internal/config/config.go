// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Database selects and addresses the relational store.
type Database struct {
	Driver     string `env:"DB_DRIVER" envDefault:"postgres"`
	Host       string `env:"DB_HOST"`
	User       string `env:"DB_USER"`
	Pass       string `env:"DB_PASS"`
	Name       string `env:"DB_NAME"`
	Port       string `env:"DB_PORT"`
	SQLitePath string `env:"DB_SQLITE_PATH" envDefault:"ewm.db"`
}

// DSN builds the postgres connection string.
func (d Database) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		d.Host, d.User, d.Pass, d.Name, d.Port,
	)
}

// Validate checks that the selected driver has what it needs.
func (d Database) Validate() error {
	switch d.Driver {
	case "postgres":
		if d.Host == "" || d.User == "" || d.Pass == "" || d.Name == "" || d.Port == "" {
			return fmt.Errorf("database env missing: DB_HOST, DB_USER, DB_PASS, DB_NAME and DB_PORT are required")
		}
	case "sqlite":
		if d.SQLitePath == "" {
			return fmt.Errorf("database env missing: DB_SQLITE_PATH is required")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", d.Driver)
	}
	return nil
}

// Redis addresses the shared view cache. An empty URL disables it.
type Redis struct {
	URL      string        `env:"REDIS_URL"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	ViewTTL  time.Duration `env:"VIEW_DEDUP_TTL" envDefault:"720h"`
}

// Stats addresses the hit-counter service.
type Stats struct {
	URL     string        `env:"STATS_SERVER_URL" envDefault:"http://localhost:9090"`
	App     string        `env:"STATS_APP_NAME" envDefault:"main-service"`
	Timeout time.Duration `env:"STATS_TIMEOUT" envDefault:"2s"`
}

// Main is the configuration of the main service.
type Main struct {
	Addr     string `env:"HTTP_ADDR" envDefault:":8080"`
	GinMode  string `env:"GIN_MODE" envDefault:"debug"`
	Database Database
	Redis    Redis
	Stats    Stats
}

// StatsServer is the configuration of the hit-counter service.
type StatsServer struct {
	Addr     string `env:"STATS_HTTP_ADDR" envDefault:":9090"`
	GinMode  string `env:"GIN_MODE" envDefault:"debug"`
	Database Database
}

// LoadEnv reads .env into the process environment when present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Warning: .env file not found, using system environment variables")
	}
}

// Parse fills target from environment variables.
func Parse(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadMain loads and validates the main service configuration.
func LoadMain() (Main, error) {
	LoadEnv()
	var cfg Main
	if err := Parse(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Database.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadStatsServer loads and validates the stats server configuration.
func LoadStatsServer() (StatsServer, error) {
	LoadEnv()
	var cfg StatsServer
	if err := Parse(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Database.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
