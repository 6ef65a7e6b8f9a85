package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/maxviazov/edutrack-service/internal/logger"
)

// ErrConfiguration marks every failure caused by missing or invalid configuration.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError names the offending key; I want operators to know what to fix.
type ConfigurationError struct {
	Key    string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("%s: %s %s", ErrConfiguration, e.Key, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the marker and the cause, so errors.Is works for either.
func (e *ConfigurationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConfiguration}
	}
	return []error{ErrConfiguration, e.Err}
}

type Config struct {
	App        AppConfig           `mapstructure:"app"`
	HTTP       HTTPConfig          `mapstructure:"http"`
	Logger     logger.LoggerConfig `mapstructure:"logger"`
	Database   DatabaseConfig      `mapstructure:"database"`
	Pagination PaginationConfig    `mapstructure:"pagination"`
}

type AppConfig struct {
	Name    string `mapstructure:"name" validate:"required"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env" validate:"oneof=dev test staging prod"`
	Port    int    `mapstructure:"port" validate:"min=1,max=65535"`
}

// HTTPConfig holds server timeouts in seconds.
type HTTPConfig struct {
	ReadTimeout     int `mapstructure:"read_timeout" validate:"min=0"`
	WriteTimeout    int `mapstructure:"write_timeout" validate:"min=0"`
	ShutdownTimeout int `mapstructure:"shutdown_timeout" validate:"min=1"`
}

// DatabaseConfig describes the single store the service talks to.
// Durations are expressed in seconds, like the pool settings they feed.
type DatabaseConfig struct {
	URL             string `mapstructure:"url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns" validate:"min=0"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime" validate:"min=0"`
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time" validate:"min=0"`
	PingTimeout     int    `mapstructure:"ping_timeout" validate:"min=1"`
	QueryTimeout    int    `mapstructure:"query_timeout" validate:"min=1"`
	MigrateOnStart  bool   `mapstructure:"migrate_on_start"`
}

// PaginationConfig bounds the offset/limit window accepted from clients.
type PaginationConfig struct {
	DefaultLimit int `mapstructure:"default_limit" validate:"min=1"`
	MaxLimit     int `mapstructure:"max_limit" validate:"min=1,gtefield=DefaultLimit"`
}

func (d DatabaseConfig) QueryTimeoutDuration() time.Duration {
	return time.Duration(d.QueryTimeout) * time.Second
}

func (d DatabaseConfig) PingTimeoutDuration() time.Duration {
	return time.Duration(d.PingTimeout) * time.Second
}

func (h HTTPConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(h.ShutdownTimeout) * time.Second
}
