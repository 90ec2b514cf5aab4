package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"greenmag/auth"
)

// envPrefix namespaces every environment variable read by the app.
const envPrefix = "GREENMAG_"

// defaultJWTSecret is only good for development; production refuses it.
const defaultJWTSecret = "dev-jwt-secret-change-me"

type Config struct {
	Port      int            `json:"port" env:"PORT"`
	Env       string         `json:"env" env:"ENV"`
	Pepper    string         `json:"pepper" env:"PEPPER"`
	JWTSecret string         `json:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL  string         `json:"token_ttl" env:"TOKEN_TTL"`
	LogLevel  string         `json:"log_level" env:"LOG_LEVEL"`
	Database  PostgresConfig `json:"database" envPrefix:"DB_"`
}

type PostgresConfig struct {
	Host     string `json:"host" env:"HOST"`
	Port     int    `json:"port" env:"PORT"`
	User     string `json:"user" env:"USER"`
	Password string `json:"password" env:"PASSWORD"`
	Name     string `json:"name" env:"NAME"`
	SSLMode  string `json:"sslmode" env:"SSLMODE"`
}

func (c Config) IsProd() bool {
	return c.Env == "prod"
}

// TTL returns the parsed credential lifetime.
func (c Config) TTL() (time.Duration, error) {
	if c.TokenTTL == "" {
		return auth.DefaultTTL, nil
	}
	ttl, err := time.ParseDuration(c.TokenTTL)
	if err != nil {
		return 0, fmt.Errorf("token_ttl: %w", err)
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("token_ttl must be positive, got %s", c.TokenTTL)
	}
	return ttl, nil
}

func (pc PostgresConfig) ConnectionInfo() string {
	sslmode := pc.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	if pc.Password == "" {
		return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s", pc.Host, pc.Port, pc.User, pc.Name, sslmode)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", pc.Host, pc.Port, pc.User, pc.Password, pc.Name, sslmode)
}

func DefaultConfig() Config {
	return Config{
		Port:      1111,
		Env:       "dev",
		Pepper:    "secret-random-string",
		JWTSecret: defaultJWTSecret,
		TokenTTL:  auth.DefaultTTL.String(),
		LogLevel:  "info",
		Database:  DefaultPostgresConfig(),
	}
}

func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "",
		Name:     "greenmag",
		SSLMode:  "disable",
	}
}

// LoadConfig builds the configuration in layers: the defaults, then
// .config.json, then .env files, then GREENMAG_* environment variables.
// In production the .config.json file is required.
func LoadConfig(isProd bool) (Config, error) {
	return loadConfig(".config.json", isProd)
}

func loadConfig(path string, isProd bool) (Config, error) {
	c := DefaultConfig()
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := json.NewDecoder(f).Decode(&c); err != nil {
			return Config{}, fmt.Errorf("decode %s: %w", path, err)
		}
	case isProd:
		return Config{}, fmt.Errorf("a %s file must be provided in production: %w", path, err)
	case !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("open %s: %w", path, err)
	}

	loadDotEnvs(c.Env)
	if err := env.ParseWithOptions(&c, env.Options{Prefix: envPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if isProd {
		c.Env = "prod"
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	if _, err := c.TTL(); err != nil {
		return err
	}
	if c.IsProd() && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		return errors.New("jwt_secret must be set in production")
	}
	if c.IsProd() && c.Pepper == DefaultConfig().Pepper {
		return errors.New("pepper must be set in production")
	}
	return nil
}

// loadDotEnvs loads .env files from the working directory. Variables that are
// already set are never overwritten, so earlier files take precedence.
func loadDotEnvs(environment string) {
	// .env.[environment].local usually holds credentials and is never committed.
	godotenv.Load(".env." + environment + ".local")
	godotenv.Load(".env.local")
	godotenv.Load(".env." + environment)
	godotenv.Load(".env")
}
