package cli

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/config"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/console"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// loadConfig returns the effective configuration: defaults, then the config
// file viper found, then ASSETCTL_* environment variables and bound flags.
func loadConfig() (*config.YAMLConfig, error) {
	cfg := config.DefaultYAMLConfig()
	if path := viper.ConfigFileUsed(); path != "" {
		loaded, err := config.LoadYAMLConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	overrideString("auth.endpoint", &cfg.Auth.Endpoint)
	overrideString("auth.timeout", &cfg.Auth.Timeout)
	overrideString("storage.driver", &cfg.Storage.Driver)
	overrideString("storage.data_dir", &cfg.Storage.DataDir)
	overrideString("storage.redis.addr", &cfg.Storage.Redis.Addr)
	overrideString("storage.redis.password", &cfg.Storage.Redis.Password)
	overrideString("storage.redis.prefix", &cfg.Storage.Redis.Prefix)
	overrideInt("storage.redis.db", &cfg.Storage.Redis.DB)
	overrideString("guard.login_path", &cfg.Guard.LoginPath)
	overrideString("guard.default_path", &cfg.Guard.DefaultPath)
	overrideString("server.host", &cfg.Server.Host)
	overrideInt("server.port", &cfg.Server.Port)
	overrideInt("server.login_rate_limit", &cfg.Server.LoginRateLimit)
	overrideString("logging.level", &cfg.Logging.Level)
	overrideString("logging.format", &cfg.Logging.Format)

	return cfg, nil
}

// overrideString replaces *dst with viper's value for key when one is set.
// ${VAR} references are expanded the same way the config file is.
func overrideString(key string, dst *string) {
	if !viper.IsSet(key) {
		return
	}
	if v := os.ExpandEnv(viper.GetString(key)); v != "" {
		*dst = v
	}
}

func overrideInt(key string, dst *int) {
	if viper.IsSet(key) {
		*dst = viper.GetInt(key)
	}
}

// newLogger builds the process logger from the logging section.
func newLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openConsole loads the configuration and opens the console it describes.
// Call the returned close function when done.
func openConsole(ctx context.Context) (*console.Console, *config.YAMLConfig, *slog.Logger, func() error, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	logger := newLogger(cfg.Logging, os.Stderr)

	c, closeFn, err := console.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return c, cfg, logger, closeFn, nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}

// orDash renders empty strings as "-" in tabular output.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
