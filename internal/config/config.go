package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Geocoder GeocoderConfig `mapstructure:"geocoder" validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"required,gt=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetime time.Duration `mapstructure:"token_lifetime" validate:"required,gt=0"`
	BCryptCost    int           `mapstructure:"bcrypt_cost" validate:"required,gte=4,lte=31"`
}

// GeocoderConfig configures the address geocoding client.
type GeocoderConfig struct {
	APIKey  string        `mapstructure:"api_key" validate:"required"`
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"required,gt=0"`
}

// CacheConfig configures the optional Redis cache for geocoding results.
// Caching is disabled when RedisAddr is empty.
type CacheConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr" validate:"omitempty,hostname_port"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db" validate:"gte=0"`
	TTL           time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

// Enabled reports whether a Redis address has been configured.
func (c CacheConfig) Enabled() bool {
	return c.RedisAddr != ""
}

// StorageConfig configures S3-compatible object storage for place and user images.
// Image endpoints are disabled when Bucket is empty.
type StorageConfig struct {
	Bucket     string        `mapstructure:"bucket"`
	Region     string        `mapstructure:"region" validate:"required_with=Bucket"`
	Endpoint   string        `mapstructure:"endpoint" validate:"omitempty,url"`
	AccessKey  string        `mapstructure:"access_key" validate:"required_with=SecretKey"`
	SecretKey  string        `mapstructure:"secret_key" validate:"required_with=AccessKey"`
	PresignTTL time.Duration `mapstructure:"presign_ttl" validate:"gt=0"`
}

// Enabled reports whether an image bucket has been configured.
func (c StorageConfig) Enabled() bool {
	return c.Bucket != ""
}
