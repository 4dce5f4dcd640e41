package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/dbmigrator/internal/connector"
	"github.com/temirov/dbmigrator/internal/registry"
)

const (
	moduleNameConstant                   = "sqlstore"
	databaseFieldNameConstant            = "database"
	dialectFieldNameConstant             = "dialect"
	connectionSucceededMessageConstant   = "database connection successful"
	missingDSNMessageConstant            = "dsn is required"
	notConnectedMessageConstant          = "sql connector is not connected"
	openErrorTemplateConstant            = "unable to open %s database: %w"
	pingErrorTemplateConstant            = "unable to reach %s database: %w"
	columnsErrorTemplateConstant         = "unable to read result columns: %w"
	scanErrorTemplateConstant            = "unable to scan row: %w"
	invalidFromCollectionMessageConstant = "from.collection should be a valid table name"
	invalidFromQueryTemplateConstant     = "from.query column %q should be a valid column name with a scalar value"
	invalidFromAggregateMessageConstant  = "from.aggregate is not supported by SQL connectors"
	invalidToCollectionMessageConstant   = "to.collection should be a valid table name"
)

var errNotConnected = errors.New(notConnectedMessageConstant)

type configuration struct {
	DSN                string `mapstructure:"dsn"`
	Database           string `mapstructure:"database"`
	OrderBy            string `mapstructure:"order_by"`
	MaxOpenConnections int    `mapstructure:"max_open_connections"`
}

// Connector reads rows from and inserts rows into one SQL database.
type Connector struct {
	logger       *zap.Logger
	dialect      Dialect
	database     *sql.DB
	databaseName string
	orderBy      string
}

// New constructs an unconnected connector for the dialect.
func New(logger *zap.Logger, dialect Dialect) *Connector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connector{logger: logger, dialect: dialect, databaseName: dialect.Name}
}

// Module contributes one connector per supported dialect to a registry.
func Module(logger *zap.Logger) registry.Module {
	factories := make(map[string]connector.Factory)
	for connectorName, dialect := range Dialects() {
		factories[connectorName] = func() connector.Connector { return New(logger, dialect) }
	}
	return registry.Module{Name: moduleNameConstant, Connectors: factories}
}

// Connect opens the database pool and pings it. Recognized keys are dsn, database,
// order_by and max_open_connections.
func (sqlConnector *Connector) Connect(executionContext context.Context, configurationValues connector.Configuration) error {
	if sqlConnector.database != nil {
		return connector.NewConnectionError(connector.ErrAlreadyConnected)
	}

	var decoded configuration
	if decodeError := connector.DecodeConfiguration(configurationValues, &decoded); decodeError != nil {
		return connector.NewConnectionError(decodeError)
	}
	if len(strings.TrimSpace(decoded.DSN)) == 0 {
		return connector.NewConnectionError(errors.New(missingDSNMessageConstant))
	}
	if len(decoded.OrderBy) > 0 && !validIdentifier(decoded.OrderBy) {
		return connector.NewConnectionError(fmt.Errorf(invalidIdentifierTemplate, decoded.OrderBy))
	}

	database, openError := sql.Open(sqlConnector.dialect.DriverName, decoded.DSN)
	if openError != nil {
		return connector.NewConnectionError(fmt.Errorf(openErrorTemplateConstant, sqlConnector.dialect.Name, openError))
	}
	maxOpenConnections := decoded.MaxOpenConnections
	if maxOpenConnections <= 0 {
		maxOpenConnections = sqlConnector.dialect.maxOpenConnections
	}
	if maxOpenConnections > 0 {
		database.SetMaxOpenConns(maxOpenConnections)
	}
	if pingError := database.PingContext(executionContext); pingError != nil {
		_ = database.Close()
		return connector.NewConnectionError(fmt.Errorf(pingErrorTemplateConstant, sqlConnector.dialect.Name, pingError))
	}

	sqlConnector.database = database
	sqlConnector.orderBy = decoded.OrderBy
	if len(decoded.Database) > 0 {
		sqlConnector.databaseName = decoded.Database
	}
	sqlConnector.logger.Info(connectionSucceededMessageConstant,
		zap.String(dialectFieldNameConstant, sqlConnector.dialect.Name),
		zap.String(databaseFieldNameConstant, sqlConnector.databaseName),
	)
	return nil
}

// DatabaseName returns the configured database name, or the dialect name when none was given.
func (sqlConnector *Connector) DatabaseName() string {
	return sqlConnector.databaseName
}

// ValidateSourceSpecification checks the table name and query columns and rejects aggregates.
func (sqlConnector *Connector) ValidateSourceSpecification(specification connector.SourceSpecification) []connector.ValidationError {
	validationErrors := make([]connector.ValidationError, 0)
	if !validIdentifier(specification.Collection) {
		validationErrors = append(validationErrors, connector.ValidationError{Code: connector.CodeInvalidFromCollection, Message: invalidFromCollectionMessageConstant})
	}
	for column, value := range specification.Query {
		if !validIdentifier(column) || !isScalar(value) {
			validationErrors = append(validationErrors, connector.NewValidationError(connector.CodeInvalidFromQuery, invalidFromQueryTemplateConstant, column))
		}
	}
	if len(specification.Aggregate) > 0 {
		validationErrors = append(validationErrors, connector.ValidationError{Code: connector.CodeInvalidFromAggregate, Message: invalidFromAggregateMessageConstant})
	}
	return validationErrors
}

// ValidateTargetSpecification checks the table name.
func (sqlConnector *Connector) ValidateTargetSpecification(specification connector.TargetSpecification) []connector.ValidationError {
	if !validIdentifier(specification.Collection) {
		return []connector.ValidationError{{Code: connector.CodeInvalidToCollection, Message: invalidToCollectionMessageConstant}}
	}
	return nil
}

// CountMatching runs SELECT COUNT(*) with the query as an equality filter.
func (sqlConnector *Connector) CountMatching(executionContext context.Context, specification connector.SourceSpecification) (int64, error) {
	if sqlConnector.database == nil {
		return 0, connector.NewCountError(errNotConnected)
	}
	countStatement, statementError := sqlConnector.dialect.countStatement(specification.Collection, specification.Query)
	if statementError != nil {
		return 0, connector.NewCountError(statementError)
	}

	var total int64
	if scanError := sqlConnector.database.QueryRowContext(executionContext, countStatement.text, countStatement.arguments...).Scan(&total); scanError != nil {
		return 0, connector.NewCountError(scanError)
	}
	return total, nil
}

// FetchBatch selects one page of rows with LIMIT and OFFSET, ordered by order_by when configured.
func (sqlConnector *Connector) FetchBatch(executionContext context.Context, specification connector.SourceSpecification, skip int, limit int) ([]connector.Record, error) {
	if sqlConnector.database == nil {
		return nil, connector.NewFetchError(errNotConnected)
	}
	selectStatement, statementError := sqlConnector.dialect.selectStatement(specification.Collection, specification.Query, sqlConnector.orderBy, skip, limit)
	if statementError != nil {
		return nil, connector.NewFetchError(statementError)
	}

	rows, queryError := sqlConnector.database.QueryContext(executionContext, selectStatement.text, selectStatement.arguments...)
	if queryError != nil {
		return nil, connector.NewFetchError(queryError)
	}
	defer rows.Close()

	records, scanError := scanRecords(rows)
	if scanError != nil {
		return nil, connector.NewFetchError(scanError)
	}
	return records, nil
}

// Store inserts the record as one row; nested values are written as JSON text.
func (sqlConnector *Connector) Store(executionContext context.Context, specification connector.TargetSpecification, record connector.Record) error {
	if sqlConnector.database == nil {
		return connector.NewWriteError(errNotConnected)
	}
	insertStatement, statementError := sqlConnector.dialect.insertStatement(specification.Collection, record)
	if statementError != nil {
		return connector.NewWriteError(statementError)
	}

	if _, executionError := sqlConnector.database.ExecContext(executionContext, insertStatement.text, insertStatement.arguments...); executionError != nil {
		if sqlConnector.dialect.IsDuplicate(executionError) {
			return connector.NewDuplicateKeyError(executionError)
		}
		return connector.NewWriteError(executionError)
	}
	return nil
}

// Close releases the database pool.
func (sqlConnector *Connector) Close(context.Context) error {
	if sqlConnector.database == nil {
		return nil
	}
	closeError := sqlConnector.database.Close()
	sqlConnector.database = nil
	return closeError
}

func scanRecords(rows *sql.Rows) ([]connector.Record, error) {
	columns, columnsError := rows.Columns()
	if columnsError != nil {
		return nil, fmt.Errorf(columnsErrorTemplateConstant, columnsError)
	}

	records := make([]connector.Record, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		destinations := make([]any, len(columns))
		for columnIndex := range values {
			destinations[columnIndex] = &values[columnIndex]
		}
		if scanError := rows.Scan(destinations...); scanError != nil {
			return nil, fmt.Errorf(scanErrorTemplateConstant, scanError)
		}

		record := make(connector.Record, len(columns))
		for columnIndex, column := range columns {
			if rawBytes, isBytes := values[columnIndex].([]byte); isBytes {
				record[column] = string(rawBytes)
				continue
			}
			record[column] = values[columnIndex]
		}
		records = append(records, record)
	}
	if iterationError := rows.Err(); iterationError != nil {
		return nil, fmt.Errorf(scanErrorTemplateConstant, iterationError)
	}
	return records, nil
}

func isScalar(value any) bool {
	switch value.(type) {
	case map[string]any, []any:
		return false
	default:
		return true
	}
}
