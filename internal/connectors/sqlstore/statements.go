package sqlstore

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const (
	countStatementTemplateConstant  = "SELECT COUNT(*) FROM %s%s"
	selectStatementTemplateConstant = "SELECT * FROM %s%s%s LIMIT %s OFFSET %s"
	insertStatementTemplateConstant = "INSERT INTO %s (%s) VALUES (%s)"
	whereClausePrefixConstant       = " WHERE "
	orderClauseTemplateConstant     = " ORDER BY %s"
	conditionTemplateConstant       = "%s = %s"
	conditionSeparatorConstant      = " AND "
	listSeparatorConstant           = ", "
	invalidIdentifierTemplate       = "invalid identifier %q"
	valueEncodingErrorTemplate      = "unable to encode column %s: %w"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// statement is a rendered SQL text with its bind arguments.
type statement struct {
	text      string
	arguments []any
}

func validIdentifier(identifier string) bool {
	return identifierPattern.MatchString(identifier)
}

func sortedColumns(values map[string]any) ([]string, error) {
	columns := make([]string, 0, len(values))
	for column := range values {
		if !validIdentifier(column) {
			return nil, fmt.Errorf(invalidIdentifierTemplate, column)
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns, nil
}

func (dialect Dialect) whereClause(query map[string]any, firstPosition int) (string, []any, error) {
	if len(query) == 0 {
		return "", nil, nil
	}
	columns, columnsError := sortedColumns(query)
	if columnsError != nil {
		return "", nil, columnsError
	}

	conditions := make([]string, 0, len(columns))
	arguments := make([]any, 0, len(columns))
	for columnIndex, column := range columns {
		conditions = append(conditions, fmt.Sprintf(conditionTemplateConstant, dialect.QuoteIdentifier(column), dialect.Placeholder(firstPosition+columnIndex)))
		arguments = append(arguments, query[column])
	}
	return whereClausePrefixConstant + strings.Join(conditions, conditionSeparatorConstant), arguments, nil
}

func (dialect Dialect) countStatement(table string, query map[string]any) (statement, error) {
	if !validIdentifier(table) {
		return statement{}, fmt.Errorf(invalidIdentifierTemplate, table)
	}
	whereText, arguments, whereError := dialect.whereClause(query, 1)
	if whereError != nil {
		return statement{}, whereError
	}
	return statement{
		text:      fmt.Sprintf(countStatementTemplateConstant, dialect.QuoteIdentifier(table), whereText),
		arguments: arguments,
	}, nil
}

func (dialect Dialect) selectStatement(table string, query map[string]any, orderBy string, skip int, limit int) (statement, error) {
	if !validIdentifier(table) {
		return statement{}, fmt.Errorf(invalidIdentifierTemplate, table)
	}
	whereText, arguments, whereError := dialect.whereClause(query, 1)
	if whereError != nil {
		return statement{}, whereError
	}

	orderText := ""
	if len(orderBy) > 0 {
		if !validIdentifier(orderBy) {
			return statement{}, fmt.Errorf(invalidIdentifierTemplate, orderBy)
		}
		orderText = fmt.Sprintf(orderClauseTemplateConstant, dialect.QuoteIdentifier(orderBy))
	}

	limitPlaceholder := dialect.Placeholder(len(arguments) + 1)
	offsetPlaceholder := dialect.Placeholder(len(arguments) + 2)
	return statement{
		text:      fmt.Sprintf(selectStatementTemplateConstant, dialect.QuoteIdentifier(table), whereText, orderText, limitPlaceholder, offsetPlaceholder),
		arguments: append(arguments, limit, skip),
	}, nil
}

func (dialect Dialect) insertStatement(table string, record map[string]any) (statement, error) {
	if !validIdentifier(table) {
		return statement{}, fmt.Errorf(invalidIdentifierTemplate, table)
	}
	columns, columnsError := sortedColumns(record)
	if columnsError != nil {
		return statement{}, columnsError
	}

	quotedColumns := make([]string, 0, len(columns))
	placeholders := make([]string, 0, len(columns))
	arguments := make([]any, 0, len(columns))
	for columnIndex, column := range columns {
		columnValue, encodeError := columnArgument(record[column])
		if encodeError != nil {
			return statement{}, fmt.Errorf(valueEncodingErrorTemplate, column, encodeError)
		}
		quotedColumns = append(quotedColumns, dialect.QuoteIdentifier(column))
		placeholders = append(placeholders, dialect.Placeholder(columnIndex+1))
		arguments = append(arguments, columnValue)
	}

	return statement{
		text:      fmt.Sprintf(insertStatementTemplateConstant, dialect.QuoteIdentifier(table), strings.Join(quotedColumns, listSeparatorConstant), strings.Join(placeholders, listSeparatorConstant)),
		arguments: arguments,
	}, nil
}

// columnArgument stores nested documents and arrays as JSON text.
func columnArgument(value any) (any, error) {
	switch value.(type) {
	case map[string]any, []any:
		encoded, encodeError := json.Marshal(value)
		if encodeError != nil {
			return nil, encodeError
		}
		return string(encoded), nil
	default:
		return value, nil
	}
}
