package repository

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/maxviazov/edutrack-service/internal/config"
)

// Dialect identifies the SQL flavour behind DATABASE_URL.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
)

// Target is a parsed DATABASE_URL: which driver to use and what to hand it.
type Target struct {
	Dialect Dialect
	DSN     string
	// Redacted is safe to log.
	Redacted string
}

// InMemory reports whether the target is a private in-memory SQLite database.
func (t Target) InMemory() bool {
	return t.Dialect == DialectSQLite && t.DSN == ":memory:"
}

// ParseDatabaseURL resolves the dialect from the URL scheme.
//
//	postgres://u:p@host:5432/db?sslmode=disable
//	mysql://u:p@host:3306/db
//	sqlite:///relative.db, sqlite:////abs/path.db, sqlite://:memory:
func ParseDatabaseURL(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, &config.ConfigurationError{Key: config.EnvDatabaseURL, Reason: "is not set"}
	}

	if rest, ok := strings.CutPrefix(raw, "sqlite://"); ok {
		if rest == ":memory:" {
			return Target{Dialect: DialectSQLite, DSN: rest, Redacted: raw}, nil
		}
		path := strings.TrimPrefix(rest, "/")
		if path == "" {
			return Target{}, &config.ConfigurationError{Key: config.EnvDatabaseURL, Reason: "has no sqlite path"}
		}
		return Target{Dialect: DialectSQLite, DSN: path, Redacted: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, &config.ConfigurationError{Key: config.EnvDatabaseURL, Reason: "is not a valid URL", Err: err}
	}
	switch u.Scheme {
	case "postgres", "postgresql":
		return Target{Dialect: DialectPostgres, DSN: raw, Redacted: u.Redacted()}, nil
	case "mysql":
		return Target{Dialect: DialectMySQL, DSN: mysqlDSN(u), Redacted: u.Redacted()}, nil
	default:
		return Target{}, &config.ConfigurationError{Key: config.EnvDatabaseURL, Reason: fmt.Sprintf("has unsupported scheme %q", u.Scheme)}
	}
}

// mysqlDSN converts a URL into the go-sql-driver format. Query parameters
// are carried over; parseTime is forced so timestamps scan into time.Time.
func mysqlDSN(u *url.URL) string {
	c := mysql.NewConfig()
	c.Net = "tcp"
	c.Addr = u.Host
	if u.Port() == "" {
		c.Addr = u.Host + ":3306"
	}
	c.DBName = strings.TrimPrefix(u.Path, "/")
	if u.User != nil {
		c.User = u.User.Username()
		c.Passwd, _ = u.User.Password()
	}
	c.ParseTime = true
	params := map[string]string{}
	for k, vs := range u.Query() {
		if len(vs) > 0 && k != "parseTime" {
			params[k] = vs[0]
		}
	}
	if len(params) > 0 {
		c.Params = params
	}
	return c.FormatDSN()
}
