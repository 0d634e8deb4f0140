// Package config loads the service configuration from environment variables, optionally
// preloaded from a dotenv file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported user stores.
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite3"
	StoreMySQL    = "mysql"
	StoreMemory   = "memory"
)

const DefaultEnvFile = ".env"

// Config is the service configuration.
type Config struct {
	Port string

	// User store
	UserStore      string
	DatabaseURL    string            // postgres connection string
	SQLDSN         string            // sqlite3 / mysql data source name
	MigrateOnStart bool              // apply schema migrations at startup
	MemoryUsers    map[string]string // email -> bcrypt hash, memory store only

	// Tokens
	PrivateKeyFile string // PEM file; PRIVATE_KEY_BASE64 is used when empty
	PublicKeyFile  string // PEM file; PUBLIC_KEY_BASE64 is used when empty
	JWTIssuer      string
	JWTAudience    string
	TokenTTL       time.Duration
	ClockSkew      time.Duration

	// Report unknown emails and wrong passwords with the same error.
	GenericAuthErrors bool
}

// Load reads the configuration. Variables already present in the environment take precedence
// over those in envFiles; missing env files are skipped.
func Load(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		UserStore:      getEnv("USER_STORE", StorePostgres),
		DatabaseURL:    getEnv("DATABASE_URL", postgresURLFromParts()),
		SQLDSN:         getEnv("SQL_DSN", "users.db"),
		PrivateKeyFile: getEnv("PRIVATE_KEY_FILE", ""),
		PublicKeyFile:  getEnv("PUBLIC_KEY_FILE", ""),
		JWTIssuer:      getEnv("JWT_ISSUER", "user-session-api"),
		JWTAudience:    getEnv("JWT_AUDIENCE", "user-session-api"),
	}

	var err error
	cfg.MigrateOnStart, err = getEnvAsBool("MIGRATE_ON_START", true)
	collect(err)
	cfg.GenericAuthErrors, err = getEnvAsBool("AUTH_GENERIC_ERRORS", false)
	collect(err)
	cfg.TokenTTL, err = getEnvAsDuration("TOKEN_TTL", time.Hour)
	collect(err)
	cfg.ClockSkew, err = getEnvAsDuration("JWT_CLOCK_SKEW", 5*time.Minute)
	collect(err)
	cfg.MemoryUsers, err = parseMemoryUsers(getEnv("MEMORY_USERS", ""))
	collect(err)

	collect(cfg.validate())

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.UserStore {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL or POSTGRES_HOST is required for the postgres store")
		}
	case StoreSQLite, StoreMySQL:
		if c.SQLDSN == "" {
			return fmt.Errorf("SQL_DSN is required for the %s store", c.UserStore)
		}
	case StoreMemory:
		if len(c.MemoryUsers) == 0 {
			return errors.New("MEMORY_USERS is required for the memory store")
		}
	default:
		return fmt.Errorf("unsupported USER_STORE %q", c.UserStore)
	}

	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}

	return nil
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		files = []string{DefaultEnvFile}
	}

	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	return nil
}

// postgresURLFromParts builds a connection string from the POSTGRES_* variables.
func postgresURLFromParts() string {
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		return ""
	}

	sslMode := getEnv("POSTGRES_SSL", "disable")
	return fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		host,
		os.Getenv("POSTGRES_DB"),
		sslMode,
	)
}

// parseMemoryUsers parses "email:hash,email:hash". bcrypt hashes never contain ':' or ','.
func parseMemoryUsers(value string) (map[string]string, error) {
	users := make(map[string]string)
	if strings.TrimSpace(value) == "" {
		return users, nil
	}

	for _, entry := range strings.Split(value, ",") {
		email, hash, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok || email == "" || hash == "" {
			return nil, fmt.Errorf("invalid MEMORY_USERS entry %q", entry)
		}
		users[email] = hash
	}

	return users, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	value := getEnv(key, "")
	if value == "" {
		return fallback, nil
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := getEnv(key, "")
	if value == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
