package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Addr        string `yaml:"addr"`
	Store       string `yaml:"store"`
	FilePath    string `yaml:"file_path"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
	MongoURI    string `yaml:"mongo_uri"`
	MongoDB     string `yaml:"mongo_db"`
	StaticDir   string `yaml:"static_dir"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	MCP         bool   `yaml:"mcp"`
}

func Default() Config {
	return Config{
		Addr:       ":3000",
		Store:      StoreFile,
		FilePath:   "notes.json",
		SQLitePath: "notes.db",
		MongoDB:    "notebook",
		StaticDir:  ".",
		LogLevel:   "info",
		LogFormat:  "text",
		MCP:        true,
	}
}

// Load builds the configuration from defaults, then the optional YAML file
// at path, then a .env file and the NOTES_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// Values already present in the environment win over .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Addr = getEnv("NOTES_ADDR", c.Addr)
	c.Store = getEnv("NOTES_STORE", c.Store)
	c.FilePath = getEnv("NOTES_FILE", c.FilePath)
	c.SQLitePath = getEnv("NOTES_SQLITE_PATH", c.SQLitePath)
	c.PostgresDSN = getEnv("NOTES_POSTGRES_DSN", c.PostgresDSN)
	c.MongoURI = getEnv("NOTES_MONGO_URI", c.MongoURI)
	c.MongoDB = getEnv("NOTES_MONGO_DB", c.MongoDB)
	c.StaticDir = getEnv("NOTES_STATIC_DIR", c.StaticDir)
	c.LogLevel = getEnv("NOTES_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("NOTES_LOG_FORMAT", c.LogFormat)

	if v := os.Getenv("NOTES_MCP"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("NOTES_MCP: %w", err)
		}
		c.MCP = b
	}
	return nil
}

// Validate checks that the selected store has what it needs to connect.
func (c Config) Validate() error {
	switch c.Store {
	case StoreFile:
		if c.FilePath == "" {
			return errors.New("file store requires file_path")
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return errors.New("sqlite store requires sqlite_path")
		}
	case StorePostgres:
		if c.PostgresDSN == "" {
			return errors.New("postgres store requires postgres_dsn")
		}
	case StoreMongo:
		if c.MongoURI == "" || c.MongoDB == "" {
			return errors.New("mongo store requires mongo_uri and mongo_db")
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}

	if _, err := c.Level(); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return level, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
