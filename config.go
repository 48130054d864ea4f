package flatbridge

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dracory/env"
	"gopkg.in/yaml.v3"

	"github.com/dracory/flatbridge/shared/constants"
	"github.com/dracory/flatbridge/shared/driver"
	"github.com/dracory/flatbridge/shared/types"
)

// DefaultSecretKey is used when nothing else is configured. Override it.
const DefaultSecretKey = "dev-insecure-change-me"

// DefaultConfig returns the built-in defaults: a local ClickHouse over HTTP.
func DefaultConfig() types.Config {
	return types.Config{
		HTTPPort:    8000,
		StoreDriver: constants.DriverClickHouse,
		StoreDSN: driver.ClickHouseDSN("http", driver.DefaultHost, driver.DefaultHTTPPort,
			driver.DefaultDatabase, driver.DefaultUser, ""),
		EnabledDrivers:    []string{constants.DriverClickHouse},
		SecretKey:         DefaultSecretKey,
		AccessTokenExpire: 30 * time.Minute,
		MaxUploadMB:       constants.DefaultMaxUploadMB,
		PreviewLimit:      constants.PreviewLimit,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
	}
}

// LoadConfig layers defaults, an optional YAML file, .env/env vars and
// flags, in that order; later layers win. Only flags that were set on the
// command line override.
func LoadConfig(args []string) (types.Config, error) {
	fs := flag.NewFlagSet("flatbridge-server", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file (env CONFIG_FILE)")
	port := fs.Int("port", 0, "HTTP port to listen on")
	storeDriver := fs.String("driver", "", "store driver: clickhouse, sqlite, mysql, postgres, sqlserver")
	storeDSN := fs.String("dsn", "", "store data source name")
	maxUpload := fs.Int64("max-upload-mb", 0, "largest accepted upload in MiB")
	if err := fs.Parse(args); err != nil {
		return types.Config{}, err
	}

	cfg := DefaultConfig()

	// Optionally load from .env files (missing files are ignored inside the lib)
	env.Load(".env")

	path := *configPath
	if path == "" {
		path = env.GetStringOrDefault("CONFIG_FILE", "")
	}
	if path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg.HTTPPort = env.GetIntOrDefault("HTTP_PORT", cfg.HTTPPort)
	cfg.StoreDriver = env.GetStringOrDefault("STORE_DRIVER", cfg.StoreDriver)
	cfg.StoreDSN = env.GetStringOrDefault("STORE_DSN", cfg.StoreDSN)
	cfg.SecretKey = env.GetStringOrDefault("SECRET_KEY", cfg.SecretKey)
	cfg.AccessTokenExpire = time.Duration(env.GetIntOrDefault("ACCESS_TOKEN_EXPIRE_MINUTES",
		int(cfg.AccessTokenExpire/time.Minute))) * time.Minute
	cfg.MaxUploadMB = int64(env.GetIntOrDefault("MAX_UPLOAD_MB", int(cfg.MaxUploadMB)))
	cfg.PreviewLimit = env.GetIntOrDefault("PREVIEW_LIMIT", cfg.PreviewLimit)
	if drivers := env.GetStringOrDefault("ENABLED_DRIVERS", ""); drivers != "" {
		cfg.EnabledDrivers = splitList(drivers)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.HTTPPort = *port
		case "driver":
			cfg.StoreDriver = *storeDriver
		case "dsn":
			cfg.StoreDSN = *storeDSN
		case "max-upload-mb":
			cfg.MaxUploadMB = *maxUpload
		}
	})

	return cfg, validateConfig(cfg)
}

func loadYAML(path string, cfg *types.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func validateConfig(cfg types.Config) error {
	var errs []error
	if cfg.SecretKey == "" {
		errs = append(errs, errors.New("SECRET_KEY is required"))
	}
	if cfg.StoreDSN == "" {
		errs = append(errs, errors.New("STORE_DSN is required"))
	}
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP port %d", cfg.HTTPPort))
	}
	if cfg.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_MB must be positive"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
