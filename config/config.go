/*
Package config assembles the server configuration.

PURPOSE:
  Three layers, later wins: built-in defaults, an optional YAML file
  (-config), then environment variables. Flags cover the common knobs
  directly so a bare "server -db ./warehouse.db" works without a file.

ENVIRONMENT:
  RUN_ADDRESS    HTTP listen address
  DATABASE_PATH  SQLite database path
  LOG_LEVEL      zap level (debug, info, warn, error)
  CORS_ORIGINS   comma-separated allowed origins
*/
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the fully resolved server configuration.
type Config struct {
	Addr         string   `yaml:"addr"`
	DatabasePath string   `yaml:"database_path"`
	LogLevel     string   `yaml:"log_level"`
	CORSOrigins  []string `yaml:"cors_origins"`
}

func defaults() *Config {
	return &Config{
		Addr:         ":8080",
		DatabasePath: "./warehouse.db",
		LogLevel:     "info",
		CORSOrigins:  []string{"*"},
	}
}

// New resolves configuration from args (excluding the program name),
// an optional YAML file and the environment.
func New(args []string) (*Config, error) {
	cfg := defaults()

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	addr := fs.String("addr", "", "HTTP server address")
	dbPath := fs.String("db", "", "SQLite database path")
	logLevel := fs.String("log-level", "", "log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *configPath != "" {
		if err := cfg.loadFile(*configPath); err != nil {
			return nil, err
		}
	}

	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	cfg.readEnvironment()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) readEnvironment() {
	if addr := os.Getenv("RUN_ADDRESS"); addr != "" {
		c.Addr = addr
	}
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		c.DatabasePath = dbPath
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.CORSOrigins = strings.Split(origins, ",")
	}
}

// NewLogger builds the process logger at the configured level.
func (c *Config) NewLogger() (*zap.SugaredLogger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}

	logCfg := zap.NewProductionConfig()
	logCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := logCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
