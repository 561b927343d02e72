package config

import (
	"os"
	"strconv"
	"time"
)

// LoadFromEnv loads configuration from environment variables
// Environment variables override default values
func LoadFromEnv(cfg *Config) {
	if dbPath := os.Getenv("MOVIEW_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	if settingsPath := os.Getenv("MOVIEW_SETTINGS_PATH"); settingsPath != "" {
		cfg.Settings.Path = settingsPath
	}

	if pollInterval := os.Getenv("MOVIEW_WINDOW_POLL_MS"); pollInterval != "" {
		if ms, err := strconv.Atoi(pollInterval); err == nil && ms > 0 {
			interval := time.Duration(ms) * time.Millisecond
			if interval >= cfg.Monitor.MinWindowPollInterval && interval <= cfg.Monitor.MaxWindowPollInterval {
				cfg.Monitor.WindowPollInterval = interval
			}
		}
	}

	if pidFile := os.Getenv("MOVIEW_PID_FILE"); pidFile != "" {
		cfg.Daemon.PIDFile = pidFile
	}

	if webHost := os.Getenv("MOVIEW_WEB_HOST"); webHost != "" {
		cfg.Web.Host = webHost
	}

	if webPort := os.Getenv("MOVIEW_WEB_PORT"); webPort != "" {
		if port, err := strconv.Atoi(webPort); err == nil && port > 0 && port <= 65535 {
			cfg.Web.Port = port
		}
	}
}

// New creates a new Config with default values and loads from environment
func New() *Config {
	cfg := Default()
	LoadFromEnv(cfg)
	return cfg
}
