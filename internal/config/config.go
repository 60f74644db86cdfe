// Package config loads Parley CLI configuration from the environment and an
// optional config file in the Parley home directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/parleyhq/parley/pkg/logger"
)

// DefaultServerURL is used when no server is configured.
const DefaultServerURL = "http://localhost:8000"

// configFileName is the optional TOML config file inside the Parley home.
const configFileName = "config.toml"

type Config struct {
	// ServerURL is the base URL of the Parley server API.
	ServerURL string
	// WebURL is the base URL of the web client, used for the auth QR handoff.
	// Defaults to ServerURL when unset.
	WebURL string
	// ParleyHome is the directory where Parley stores local state.
	ParleyHome string
	// AccessKey is the path to the cached access token file.
	AccessKey string
	// HistoryLimit bounds the history snapshot requested per target activation.
	HistoryLimit int
	// Debug enables verbose logging.
	Debug bool
	// LogLevel is the parsed logger threshold.
	LogLevel logger.Level
}

// fileConfig is the TOML shape of the optional config file. Environment
// variables take precedence over every field here.
type fileConfig struct {
	ServerURL    string `toml:"server_url"`
	WebURL       string `toml:"web_url"`
	HistoryLimit int    `toml:"history_limit"`
	LogLevel     string `toml:"log_level"`
}

// Load loads configuration from environment, config file, and defaults.
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	parleyHome := os.Getenv("PARLEY_HOME_DIR")
	if parleyHome == "" {
		parleyHome = filepath.Join(homeDir, ".parley")
	}
	if err := os.MkdirAll(parleyHome, 0700); err != nil {
		return nil, fmt.Errorf("failed to create parley home: %w", err)
	}

	var file fileConfig
	if err := loadFile(filepath.Join(parleyHome, configFileName), &file); err != nil {
		return nil, err
	}

	serverURL := os.Getenv("PARLEY_SERVER_URL")
	if serverURL == "" {
		serverURL = file.ServerURL
	}
	if serverURL == "" {
		serverURL = DefaultServerURL
	}

	webURL := os.Getenv("PARLEY_WEB_URL")
	if webURL == "" {
		webURL = file.WebURL
	}
	if webURL == "" {
		webURL = serverURL
	}

	historyLimit := file.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 50
	}

	debug := os.Getenv("PARLEY_DEBUG") == "true" || os.Getenv("PARLEY_DEBUG") == "1"

	rawLevel := os.Getenv("PARLEY_LOG_LEVEL")
	if rawLevel == "" {
		rawLevel = file.LogLevel
	}
	level, err := logger.ParseLevel(rawLevel)
	if err != nil {
		return nil, err
	}
	if debug && level > logger.LevelDebug {
		level = logger.LevelDebug
	}

	return &Config{
		ServerURL:    serverURL,
		WebURL:       webURL,
		ParleyHome:   parleyHome,
		AccessKey:    filepath.Join(parleyHome, "access.key"),
		HistoryLimit: historyLimit,
		Debug:        debug,
		LogLevel:     level,
	}, nil
}

// loadFile decodes the optional config file. A missing file is not an error.
func loadFile(path string, out *fileConfig) error {
	if _, err := toml.DecodeFile(path, out); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
