// Package config loads service settings from a YAML file and the environment.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"figmatext/internal/domain"
)

// Config holds the full service configuration. Secrets (API token, signing
// key, database password) are not part of it; they come from the secret store.
type Config struct {
	Figma      FigmaConfig               `yaml:"figma"`
	Database   domain.DatabaseConnection `yaml:"database"`
	Server     ServerConfig              `yaml:"server"`
	Sync       SyncConfig                `yaml:"sync"`
	SecretsDir string                    `yaml:"secrets_dir"`
}

// FigmaConfig selects the design file and where it is read from.
type FigmaConfig struct {
	FileKey string `yaml:"file_key"`
	APIURL  string `yaml:"api_url"`
	// Source is "figma" (REST API) or "json_file" (DocumentFile on disk).
	Source       string `yaml:"source"`
	DocumentFile string `yaml:"document_file"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// SyncConfig configures automatic syncs.
type SyncConfig struct {
	Schedule  string `yaml:"schedule"`   // cron expression, empty disables
	WatchFile string `yaml:"watch_file"` // document export to watch, empty disables
}

// Default returns sane defaults.
func Default() *Config {
	return &Config{
		Figma: FigmaConfig{
			APIURL: "https://api.figma.com/v1",
			Source: "figma",
		},
		Database: domain.DatabaseConnection{
			Driver: domain.DatabaseDriverSQLite,
			URL:    "data/figma_texts.db",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
	}
}

// Load returns Default merged with the YAML file at path (skipped when path
// is empty) and then with the environment. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from environment variables that are set.
func (c *Config) ApplyEnv() {
	c.Figma.FileKey = getEnv("FIGMA_FILE_KEY", c.Figma.FileKey)
	c.Figma.APIURL = getEnv("FIGMA_API_URL", c.Figma.APIURL)
	c.Figma.Source = getEnv("FIGMA_SOURCE", c.Figma.Source)
	c.Figma.DocumentFile = getEnv("FIGMA_DOCUMENT_FILE", c.Figma.DocumentFile)
	c.Database.Driver = domain.DatabaseDriver(getEnv("DATABASE_DRIVER", string(c.Database.Driver)))
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Server.Host = getEnv("HOST", c.Server.Host)
	c.Server.Port = getEnvInt("PORT", c.Server.Port)
	c.Sync.Schedule = getEnv("SYNC_SCHEDULE", c.Sync.Schedule)
	c.Sync.WatchFile = getEnv("SYNC_WATCH_FILE", c.Sync.WatchFile)
	c.SecretsDir = getEnv("SECRETS_DIR", c.SecretsDir)
}

// Validate checks that required fields are present and values are sane.
// A missing file key is not an error: read endpoints report it per request.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Database.Driver {
	case domain.DatabaseDriverSQLite, domain.DatabaseDriverPostgres, domain.DatabaseDriverMySQL, domain.DatabaseDriverMongoDB:
	default:
		return fmt.Errorf("unsupported database.driver %q (use sqlite, postgres, mysql or mongodb)", c.Database.Driver)
	}
	switch c.Figma.Source {
	case "figma":
		if c.Figma.APIURL == "" {
			return fmt.Errorf("figma.api_url is required")
		}
	case "json_file":
		if c.Figma.DocumentFile == "" {
			return fmt.Errorf("figma.document_file is required for the json_file source")
		}
	default:
		return fmt.Errorf("unsupported figma.source %q (use figma or json_file)", c.Figma.Source)
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
