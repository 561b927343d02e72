package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all daemon-level configuration. Detection tuning and app rules
// live in the user settings file (internal/settings); this covers everything
// the daemon needs before those settings are loaded.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Settings file configuration
	Settings SettingsConfig

	// Monitor configuration
	Monitor MonitorConfig

	// Daemon configuration
	Daemon DaemonConfig

	// Web server configuration
	Web WebConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path string // Path to SQLite database file
}

// SettingsConfig holds the user settings store location
type SettingsConfig struct {
	Path string // Path to settings JSON file, empty means default
}

// MonitorConfig holds polling behavior configuration
type MonitorConfig struct {
	WindowPollInterval    time.Duration // How often to check the foreground window
	MinWindowPollInterval time.Duration // Minimum allowed window poll interval
	MaxWindowPollInterval time.Duration // Maximum allowed window poll interval
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string // Path to PID file for daemon management
}

// WebConfig holds web server configuration
type WebConfig struct {
	Host string // Host to bind web server to
	Port int    // Port for web server
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "", // Empty means use default ~/.config/moview/moview.db
		},
		Settings: SettingsConfig{
			Path: "", // Empty means use default ~/.config/moview/settings.json
		},
		Monitor: MonitorConfig{
			WindowPollInterval:    2 * time.Second,
			MinWindowPollInterval: 500 * time.Millisecond,
			MaxWindowPollInterval: 60 * time.Second,
		},
		Daemon: DaemonConfig{
			PIDFile: fmt.Sprintf("/tmp/moview-%d.pid", os.Getuid()),
		},
		Web: WebConfig{
			Host: "localhost",
			Port: 10000 + os.Getuid(),
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Monitor.WindowPollInterval < c.Monitor.MinWindowPollInterval {
		return fmt.Errorf("window poll interval (%v) cannot be less than minimum (%v)",
			c.Monitor.WindowPollInterval, c.Monitor.MinWindowPollInterval)
	}

	if c.Monitor.WindowPollInterval > c.Monitor.MaxWindowPollInterval {
		return fmt.Errorf("window poll interval (%v) cannot be greater than maximum (%v)",
			c.Monitor.WindowPollInterval, c.Monitor.MaxWindowPollInterval)
	}

	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}

	if c.Web.Host == "" {
		return fmt.Errorf("web host cannot be empty")
	}

	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	return nil
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Database:
    Path: %s
  Settings:
    Path: %s
  Monitor:
    Window Poll Interval: %v
  Daemon:
    PID File: %s
  Web:
    Host: %s
    Port: %d`,
		c.Database.Path,
		c.Settings.Path,
		c.Monitor.WindowPollInterval,
		c.Daemon.PIDFile,
		c.Web.Host,
		c.Web.Port,
	)
}
