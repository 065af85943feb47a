package dbconfig

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Config holds Postgres connection settings for the catalog database.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// URL, when set from DATABASE_URL, wins over the individual fields.
	URL string
}

// NewConfigFromEnv reads DATABASE_URL or the DB_* variables, with defaults
// for a local development server.
func NewConfigFromEnv() Config {
	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		port = 5432
	}

	cfg := Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     port,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		Database: getEnv("DB_NAME", "tiforama"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
		URL:      os.Getenv("DATABASE_URL"),
	}
	if cfg.URL != "" {
		cfg.fillFromURL()
	}
	return cfg
}

// DSN returns the Postgres connection URL. Both lib/pq and pgx accept it.
func (c Config) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// fillFromURL copies what it can parse out of URL so logs show the real
// target. Unparseable URLs are left to the driver to reject.
func (c *Config) fillFromURL() {
	u, err := url.Parse(c.URL)
	if err != nil {
		return
	}
	if h := u.Hostname(); h != "" {
		c.Host = h
	}
	if p, err := strconv.Atoi(u.Port()); err == nil {
		c.Port = p
	}
	if name := u.User.Username(); name != "" {
		c.User = name
	}
	if pw, ok := u.User.Password(); ok {
		c.Password = pw
	}
	if db := strings.TrimPrefix(u.Path, "/"); db != "" {
		c.Database = db
	}
	if mode := u.Query().Get("sslmode"); mode != "" {
		c.SSLMode = mode
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
