package types

import "time"

// Config contains the configuration for the boundary server and its handlers
type Config struct {
	// HTTPPort is the port to listen on
	HTTPPort int `yaml:"http_port"`

	// StoreDriver selects the store dialect (clickhouse, sqlite, mysql, postgres, sqlserver)
	StoreDriver string `yaml:"store_driver"`
	// StoreDSN is the data source name handed to the store driver
	StoreDSN string `yaml:"store_dsn"`
	// EnabledDrivers lists the drivers a connection test may use
	EnabledDrivers []string `yaml:"enabled_drivers"`

	// SecretKey signs and verifies bearer tokens (HS256)
	SecretKey string `yaml:"secret_key"`
	// AccessTokenExpire is the lifetime of issued tokens
	AccessTokenExpire time.Duration `yaml:"access_token_expire"`

	// MaxUploadMB bounds multipart uploads held in memory
	MaxUploadMB int64 `yaml:"max_upload_mb"`
	// PreviewLimit caps rows read by the upload preview
	PreviewLimit int `yaml:"preview_limit"`

	// ReadTimeout and WriteTimeout bound each HTTP exchange
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// MaxUploadBytes returns the upload bound in bytes.
func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
