package database

import (
	"database/sql"
	"regexp"
	"strconv"
	"strings"
)

// Dialect defines the interface for database-specific operations
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// SupportsLastInsertId returns true if the driver supports LastInsertId()
	SupportsLastInsertId() bool

	// ConfigureConnection applies any database-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// InsertIgnore rewrites an INSERT so a unique-constraint conflict on the
	// given columns is ignored instead of failing. This is the atomic
	// create-if-absent primitive: callers check RowsAffected to learn
	// whether this statement created the row.
	InsertIgnore(insert string, conflictColumns string) string

	// CreateMigrationsTableQuery returns the SQL to create the migrations tracking table
	CreateMigrationsTableQuery() string
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// placeholderRegexp matches ? placeholders
var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

// appendConflictDoNothing adds the standard ON CONFLICT clause used by
// SQLite and PostgreSQL.
func appendConflictDoNothing(insert, conflictColumns string) string {
	insert = strings.TrimSuffix(strings.TrimSpace(insert), ";")
	return insert + " ON CONFLICT (" + conflictColumns + ") DO NOTHING"
}
