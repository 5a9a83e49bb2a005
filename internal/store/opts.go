package store

import "strings"

// Opts holds configuration options for storage backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for storage backends.
type Option func(*Opts)

// WithSQLiteDSN configures the store to use SQLite with the given file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN configures the store to use PostgreSQL with the given DSN.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType classifies a DSN as "postgres" or "sqlite". Postgres DSNs
// come as URLs (postgres://...) or key=value connection strings; anything
// else is treated as a SQLite file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}
