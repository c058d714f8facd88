package helper

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// DatabaseConfiguration holds the connection settings for PostgreSQL
type DatabaseConfiguration struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Schema   string
	SSLMode  string
}

// Database wraps the sql.DB connection together with its logger
type Database struct {
	Name     string
	Instance *sql.DB
	Logger   *slog.Logger
}

// NewDatabaseConfiguration reads the database configuration from the environment.
// A .env file in the working directory is loaded first if present.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	_ = godotenv.Load()

	config := &DatabaseConfiguration{
		Host:     os.Getenv("GEOBENCH_DB_HOST"),
		Port:     os.Getenv("GEOBENCH_DB_PORT"),
		Database: os.Getenv("GEOBENCH_DB_DATABASE"),
		Username: os.Getenv("GEOBENCH_DB_USERNAME"),
		Password: os.Getenv("GEOBENCH_DB_PASSWORD"),
		Schema:   os.Getenv("GEOBENCH_DB_SCHEMA"),
		SSLMode:  os.Getenv("GEOBENCH_DB_SSLMODE"),
	}

	if config.Schema == "" {
		config.Schema = "public"
	}
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	var missing []string
	if config.Host == "" {
		missing = append(missing, "GEOBENCH_DB_HOST")
	}
	if config.Port == "" {
		missing = append(missing, "GEOBENCH_DB_PORT")
	}
	if config.Database == "" {
		missing = append(missing, "GEOBENCH_DB_DATABASE")
	}
	if config.Username == "" {
		missing = append(missing, "GEOBENCH_DB_USERNAME")
	}
	if len(missing) > 0 {
		return nil, NewError("database configuration", fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", ")))
	}

	return config, nil
}

// DSN returns the lib/pq connection string
func (c *DatabaseConfiguration) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s sslmode=%s search_path=%s",
		c.Host, c.Port, c.Database, c.Username, c.Password, c.SSLMode, c.Schema,
	)
}

// NewDatabase opens and pings a PostgreSQL connection, panicking if unreachable
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) *Database {
	db, err := sql.Open("postgres", config.DSN())
	if err != nil {
		log.Panicf("error opening database %s: %v", name, err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	err = db.Ping()
	if err != nil {
		log.Panicf("error connecting to database %s: %v", name, err)
	}

	logger.Info("Connected to database", slog.String("name", name), slog.String("host", config.Host))

	return &Database{
		Name:     name,
		Instance: db,
		Logger:   logger,
	}
}

// NewTestDatabase opens a database with a logger writing to stdout
func NewTestDatabase(config *DatabaseConfiguration) *Database {
	return NewDatabase("test", config, NewLogger(os.Stdout, slog.LevelInfo))
}

// Close closes the underlying connection
func (d *Database) Close() error {
	if d == nil || d.Instance == nil {
		return nil
	}
	return d.Instance.Close()
}

// SetTestDatabaseConfigEnvs points the database configuration at a test container
func SetTestDatabaseConfigEnvs(t *testing.T, dbPort string) {
	t.Setenv("GEOBENCH_DB_HOST", "localhost")
	t.Setenv("GEOBENCH_DB_PORT", dbPort)
	t.Setenv("GEOBENCH_DB_DATABASE", "database")
	t.Setenv("GEOBENCH_DB_USERNAME", "user")
	t.Setenv("GEOBENCH_DB_PASSWORD", "password")
	t.Setenv("GEOBENCH_DB_SCHEMA", "public")
	t.Setenv("GEOBENCH_DB_SSLMODE", "disable")
}
