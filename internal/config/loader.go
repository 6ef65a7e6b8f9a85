package config

import (
	"errors"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvDatabaseURL is the conventional variable shared with the migration tooling.
const EnvDatabaseURL = "DATABASE_URL"

var defaults = map[string]any{
	"app.name":    "edutrack",
	"app.version": "0.1.0",
	"app.env":     "prod",
	"app.port":    8000,

	"http.read_timeout":     15,
	"http.write_timeout":    15,
	"http.shutdown_timeout": 10,

	"database.url":                "",
	"database.max_open_conns":     10,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  300,
	"database.conn_max_idle_time": 60,
	"database.ping_timeout":       5,
	"database.query_timeout":      5,
	"database.migrate_on_start":   true,

	"pagination.default_limit": 10,
	"pagination.max_limit":     100,

	"logger.level":                "",
	"logger.format":               "",
	"logger.output_target":        "",
	"logger.debug_file":           "",
	"logger.time_field":           "",
	"logger.time_format":          "",
	"logger.env":                  "",
	"logger.with_caller":          false,
	"logger.stacktrace":           false,
	"logger.stacktrace_min_level": "",
	"logger.service_name":         "",
	"logger.service_version":      "",
}

// loggerEnv maps the application environment onto the narrower set the logger knows.
func loggerEnv(appEnv string) string {
	switch appEnv {
	case "dev", "test":
		return "dev"
	case "staging":
		return "staging"
	default:
		return "prod"
	}
}

// Load reads configuration from an optional YAML file and the environment.
// An empty path means environment only. DATABASE_URL wins over APP_DATABASE_URL.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, &ConfigurationError{Key: path, Reason: "could not be read", Err: err}
		}
	}

	// AutomaticEnv resolves APP_DATABASE_URL before any alias, so I pin the
	// unprefixed variable explicitly; Set outranks every other source.
	if u := strings.TrimSpace(os.Getenv(EnvDatabaseURL)); u != "" {
		v.Set("database.url", u)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigurationError{Key: path, Reason: "could not be decoded", Err: err}
	}
	if cfg.Logger.Env == "" {
		cfg.Logger.Env = loggerEnv(cfg.App.Env)
	}
	if cfg.Logger.ServiceName == "" {
		cfg.Logger.ServiceName = cfg.App.Name
	}
	if cfg.Logger.ServiceVersion == "" {
		cfg.Logger.ServiceVersion = cfg.App.Version
	}
	cfg.Logger.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fails fast on a missing store location and on out-of-range values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return &ConfigurationError{Key: EnvDatabaseURL, Reason: "is not set"}
	}
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ConfigurationError{Key: verrs[0].Namespace(), Reason: "is invalid", Err: err}
		}
		return &ConfigurationError{Key: "config", Reason: "is invalid", Err: err}
	}
	return nil
}
