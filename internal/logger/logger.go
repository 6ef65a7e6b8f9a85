package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type LoggerConfig struct {
	Level              string                 `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format             string                 `mapstructure:"format" validate:"oneof=json console"`
	OutputTarget       string                 `mapstructure:"output_target" validate:"oneof=stdout stderr"`
	DebugFile          string                 `mapstructure:"debug_file"`
	TimeField          string                 `mapstructure:"time_field"`
	TimeFormat         string                 `mapstructure:"time_format" validate:"oneof=rfc3339 rfc3339nano unix unix_ms"`
	ServiceName        string                 `mapstructure:"service_name"`
	ServiceVersion     string                 `mapstructure:"service_version"`
	Env                string                 `mapstructure:"env" validate:"oneof=dev staging prod"`
	WithCaller         bool                   `mapstructure:"with_caller"`
	Stacktrace         bool                   `mapstructure:"stacktrace"`
	StacktraceMinLevel string                 `mapstructure:"stacktrace_min_level" validate:"oneof=debug info warn error fatal panic"`
	Fields             map[string]interface{} `mapstructure:"fields"`
}

// New builds the root logger. The returned logger is also installed as the
// global level gate, so child loggers created later inherit it.
func New(logg *LoggerConfig) (logger zerolog.Logger, err error) {
	logg.SetDefaults()

	if err = validator.New().Struct(logg); err != nil {
		return logger, fmt.Errorf("logger config validation error: %w", err)
	}

	zerolog.TimestampFieldName = logg.TimeField
	zerolog.TimeFieldFormat = timeFieldFormat(logg.TimeFormat)

	logger = zerolog.New(logg.writer()).
		With().
		Timestamp().
		Str("service", logg.ServiceName).
		Str("version", logg.ServiceVersion).
		Str("env", logg.Env).
		Logger()

	if logg.WithCaller {
		logger = logger.With().Caller().Logger()
	}
	if logg.Stacktrace {
		logger = logger.With().Stack().Logger()
	}
	if len(logg.Fields) > 0 {
		logger = logger.With().Fields(logg.Fields).Logger()
	}

	level, err := zerolog.ParseLevel(logg.Level)
	if err != nil {
		return logger, err
	}
	zerolog.SetGlobalLevel(level)

	return logger, nil
}

// writer picks the sink. Console output is for humans; in dev+debug I keep a
// file copy as well, and a broken file path only drops the copy.
func (c *LoggerConfig) writer() io.Writer {
	var out io.Writer = os.Stdout
	if c.OutputTarget == "stderr" {
		out = os.Stderr
	}
	if c.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: timeFieldFormat(c.TimeFormat)}
	}
	if c.Env != "dev" || c.Level != "debug" || c.DebugFile == "" {
		return out
	}
	if err := os.MkdirAll(filepath.Dir(c.DebugFile), 0o755); err != nil {
		return out
	}
	file, err := os.OpenFile(c.DebugFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return out
	}
	return zerolog.MultiLevelWriter(out, file)
}

func timeFieldFormat(name string) string {
	switch name {
	case "rfc3339":
		return "2006-01-02T15:04:05Z07:00"
	case "unix":
		return zerolog.TimeFormatUnix
	case "unix_ms":
		return zerolog.TimeFormatUnixMs
	default:
		return "2006-01-02T15:04:05.999999999Z07:00"
	}
}

// SetDefaults fills every empty field. It is idempotent.
func (c *LoggerConfig) SetDefaults() {
	if c.Env == "" {
		c.Env = "prod"
	}

	if c.Level == "" {
		if c.Env == "dev" {
			c.Level = "debug"
		} else {
			c.Level = "info"
		}
	}

	if c.Format == "" {
		if c.Env == "dev" {
			c.Format = "console"
		} else {
			c.Format = "json"
		}
	}

	if c.OutputTarget == "" {
		c.OutputTarget = "stdout"
	}
	if c.DebugFile == "" && c.Env == "dev" {
		c.DebugFile = "logs/debug.log"
	}

	if c.TimeField == "" {
		c.TimeField = "ts"
	}
	if c.TimeFormat == "" {
		c.TimeFormat = "rfc3339nano"
	}

	if !c.WithCaller && c.Env == "dev" {
		c.WithCaller = true
	}
	if c.StacktraceMinLevel == "" {
		c.StacktraceMinLevel = "error"
	}

	if c.ServiceName == "" {
		c.ServiceName = "edutrack"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "0.1.0"
	}

	if c.Fields == nil {
		c.Fields = make(map[string]interface{})
	}
}
