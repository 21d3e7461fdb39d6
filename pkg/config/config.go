package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete server configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Game      GameConfig      `yaml:"game"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Environment string `yaml:"environment"`
}

// WebSocketConfig contains WebSocket settings
type WebSocketConfig struct {
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	MaxMessageSize int64         `yaml:"max_message_size"`
	SendQueueSize  int           `yaml:"send_queue_size"`
}

// GameConfig contains game-specific settings
type GameConfig struct {
	TotalRounds      int           `yaml:"total_rounds"`
	MinPlayers       int           `yaml:"min_players"`
	MaxPlayers       int           `yaml:"max_players"`
	ActionTimeout    time.Duration `yaml:"action_timeout"`
	AIThinkDelay     time.Duration `yaml:"ai_think_delay"`
	AutoPlayMaxTurns int           `yaml:"auto_play_max_turns"`
}

// DatabaseConfig contains SQLite settings
type DatabaseConfig struct {
	Path                string        `yaml:"path"`
	MaxConnections      int           `yaml:"max_connections"`
	MaxIdleConnections  int           `yaml:"max_idle_connections"`
	BackupDir           string        `yaml:"backup_dir"`
	BackupInterval      time.Duration `yaml:"backup_interval"`
	MaxBackups          int           `yaml:"max_backups"`
	MaintenanceInterval time.Duration `yaml:"maintenance_interval"`
}

// AuthConfig contains token verification settings
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level"`
	ShowCaller bool   `yaml:"show_caller"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Environment: "development",
		},
		WebSocket: WebSocketConfig{
			ReadTimeout:    60 * time.Second,
			WriteTimeout:   10 * time.Second,
			PingInterval:   30 * time.Second,
			MaxMessageSize: 512 * 1024,
			SendQueueSize:  100,
		},
		Game: GameConfig{
			TotalRounds:      4,
			MinPlayers:       2,
			MaxPlayers:       4,
			ActionTimeout:    10 * time.Second,
			AIThinkDelay:     0,
			AutoPlayMaxTurns: 10,
		},
		Database: DatabaseConfig{
			Path:                "data/hanyang.db",
			MaxConnections:      10,
			MaxIdleConnections:  5,
			BackupDir:           "data/backups",
			BackupInterval:      6 * time.Hour,
			MaxBackups:          7,
			MaintenanceInterval: time.Hour,
		},
		Auth: AuthConfig{
			JWTSecret: "dev-secret-change-me",
		},
		Logging: LoggingConfig{
			Level:      "info",
			ShowCaller: false,
		},
	}
}

// LoadConfig loads configuration from a YAML file. A missing file is
// not an error: the defaults are used, with HANYANG_* environment
// overrides still applied on top.
func LoadConfig(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvironmentOverrides applies HANYANG_* environment variables on top
// of the file values.
func (c *Config) applyEnvironmentOverrides() {
	if port := os.Getenv("HANYANG_PORT"); port != "" {
		fmt.Sscanf(port, "%d", &c.Server.Port)
	}

	if host := os.Getenv("HANYANG_HOST"); host != "" {
		c.Server.Host = host
	}

	if env := os.Getenv("HANYANG_ENV"); env != "" {
		c.Server.Environment = env
	}

	if path := os.Getenv("HANYANG_DB_PATH"); path != "" {
		c.Database.Path = path
	}

	if secret := os.Getenv("HANYANG_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}

	if level := os.Getenv("HANYANG_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}

	if c.Server.Environment == "development" && c.Logging.Level == "" {
		c.Logging.Level = "debug"
	}
}

// validate checks if the configuration is valid
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", c.Server.Port)
	}

	if c.Game.MinPlayers < 2 || c.Game.MaxPlayers > 4 {
		return fmt.Errorf("player count must stay within 2-4, got min=%d max=%d",
			c.Game.MinPlayers, c.Game.MaxPlayers)
	}

	if c.Game.MaxPlayers < c.Game.MinPlayers {
		return fmt.Errorf("max players (%d) must be >= min players (%d)",
			c.Game.MaxPlayers, c.Game.MinPlayers)
	}

	if c.Game.TotalRounds < 1 {
		return fmt.Errorf("total rounds must be at least 1")
	}

	if c.WebSocket.SendQueueSize < 1 {
		return fmt.Errorf("websocket send queue size must be at least 1")
	}

	if c.Server.Environment == "production" && c.Auth.JWTSecret == "dev-secret-change-me" {
		return fmt.Errorf("jwt_secret must be set in production")
	}

	return nil
}

// GetAddr returns the server address in host:port format
func (c *Config) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
