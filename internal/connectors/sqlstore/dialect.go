package sqlstore

import (
	"errors"
	"fmt"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	// SQLiteConnectorName is the registry name of the SQLite connector.
	SQLiteConnectorName = "sqlite"
	// PostgresConnectorName is the registry name of the PostgreSQL connector.
	PostgresConnectorName = "postgres"
	// MySQLConnectorName is the registry name of the MySQL connector.
	MySQLConnectorName = "mysql"

	sqliteDriverNameConstant        = "sqlite3"
	postgresDriverNameConstant      = "postgres"
	mysqlDriverNameConstant         = "mysql"
	doubleQuoteConstant             = `"`
	backtickConstant                = "`"
	questionPlaceholderConstant     = "?"
	numberedPlaceholderTemplate     = "$%d"
	postgresUniqueViolationConstant = pq.ErrorCode("23505")
	mysqlDuplicateEntryConstant     = uint16(1062)
)

// Dialect captures the differences between the supported SQL databases.
type Dialect struct {
	Name       string
	DriverName string
	quote      string
	numbered   bool
	duplicate  func(error) bool
	// pool size used when max_open_connections is not configured; zero leaves it unbounded
	maxOpenConnections int
}

// Dialects returns every supported dialect keyed by connector name.
func Dialects() map[string]Dialect {
	return map[string]Dialect{
		SQLiteConnectorName: {
			Name:       SQLiteConnectorName,
			DriverName: sqliteDriverNameConstant,
			quote:      doubleQuoteConstant,
			duplicate:  isSQLiteDuplicate,
			// SQLite serializes writers
			maxOpenConnections: 1,
		},
		PostgresConnectorName: {
			Name:       PostgresConnectorName,
			DriverName: postgresDriverNameConstant,
			quote:      doubleQuoteConstant,
			numbered:   true,
			duplicate:  isPostgresDuplicate,
		},
		MySQLConnectorName: {
			Name:       MySQLConnectorName,
			DriverName: mysqlDriverNameConstant,
			quote:      backtickConstant,
			duplicate:  isMySQLDuplicate,
		},
	}
}

// QuoteIdentifier quotes a validated identifier; schema-qualified names are quoted per part.
func (dialect Dialect) QuoteIdentifier(identifier string) string {
	parts := strings.Split(identifier, ".")
	for partIndex, part := range parts {
		parts[partIndex] = dialect.quote + part + dialect.quote
	}
	return strings.Join(parts, ".")
}

// Placeholder returns the bind parameter marker for the 1-based position.
func (dialect Dialect) Placeholder(position int) string {
	if dialect.numbered {
		return fmt.Sprintf(numberedPlaceholderTemplate, position)
	}
	return questionPlaceholderConstant
}

// IsDuplicate reports whether a driver error is a uniqueness violation.
func (dialect Dialect) IsDuplicate(err error) bool {
	if err == nil || dialect.duplicate == nil {
		return false
	}
	return dialect.duplicate(err)
}

func isSQLiteDuplicate(err error) bool {
	var sqliteError sqlite3.Error
	if !errors.As(err, &sqliteError) {
		return false
	}
	return sqliteError.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteError.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func isPostgresDuplicate(err error) bool {
	var postgresError *pq.Error
	if !errors.As(err, &postgresError) {
		return false
	}
	return postgresError.Code == postgresUniqueViolationConstant
}

func isMySQLDuplicate(err error) bool {
	var mysqlError *mysqldriver.MySQLError
	if !errors.As(err, &mysqlError) {
		return false
	}
	return mysqlError.Number == mysqlDuplicateEntryConstant
}
