package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultAuthEndpoint is the identity endpoint used when none is configured.
const DefaultAuthEndpoint = "https://millitary-asset-backend-3.onrender.com/auth/login"

// YAMLConfig represents the top-level assetctl configuration file.
type YAMLConfig struct {
	Auth    AuthConfig          `yaml:"auth"`
	Storage StorageConfig       `yaml:"storage"`
	Guard   GuardConfig         `yaml:"guard"`
	Server  ServerConfig        `yaml:"server"`
	Logging LoggingConfig       `yaml:"logging"`
	Roles   map[string][]string `yaml:"roles,omitempty"`
}

// AuthConfig controls how credentials are exchanged with the identity endpoint.
type AuthConfig struct {
	Endpoint string `yaml:"endpoint"`
	Timeout  string `yaml:"timeout"`
}

// StorageConfig selects where the session is persisted between runs.
type StorageConfig struct {
	Driver  string      `yaml:"driver"` // sqlite, redis or memory
	DataDir string      `yaml:"data_dir"`
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig configures the Redis session backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// GuardConfig sets where guarded routes send callers that are not allowed in.
type GuardConfig struct {
	LoginPath   string `yaml:"login_path"`
	DefaultPath string `yaml:"default_path"`
}

// ServerConfig controls the console HTTP server.
type ServerConfig struct {
	Host            string     `yaml:"host"`
	Port            int        `yaml:"port"`
	ShutdownTimeout string     `yaml:"shutdown_timeout"`
	LoginRateLimit  int        `yaml:"login_rate_limit"` // per IP per minute
	CORS            CORSConfig `yaml:"cors"`
}

// CORSConfig controls cross-origin resource sharing settings. With no
// origins listed only same-origin callers can use the API.
type CORSConfig struct {
	Origins []string `yaml:"origins"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadYAMLConfig reads and parses a YAML configuration file. Environment
// variables referenced as ${VAR_NAME} in the file are expanded before parsing.
// Fields missing from the file keep their default values.
func LoadYAMLConfig(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand environment variables: ${VAR_NAME}
	content := os.ExpandEnv(string(data))

	cfg := DefaultYAMLConfig()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// DefaultYAMLConfig returns a YAMLConfig pre-filled with sensible defaults.
func DefaultYAMLConfig() *YAMLConfig {
	return &YAMLConfig{
		Auth: AuthConfig{
			Endpoint: DefaultAuthEndpoint,
			Timeout:  "15s",
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Redis: RedisConfig{
				Addr:   "127.0.0.1:6379",
				Prefix: "assetctl",
			},
		},
		Guard: GuardConfig{
			LoginPath:   "/login",
			DefaultPath: "/dashboard",
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8090,
			ShutdownTimeout: "10s",
			LoginRateLimit:  20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// WriteDefaultConfig writes the default configuration to a YAML file.
func WriteDefaultConfig(path string) error {
	cfg := DefaultYAMLConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ParseDuration parses s, returning def when s is empty or invalid.
func ParseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
