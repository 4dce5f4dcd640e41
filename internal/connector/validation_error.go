package connector

import "fmt"

const (
	validationErrorTemplateConstant = "%s: %s"
)

// ValidationCode classifies a validation failure.
type ValidationCode string

// Validation codes shared by the validation service and connectors.
const (
	CodeInvalidConnector      ValidationCode = ValidationCode("INVALID_CONNECTOR")
	CodeEmptyMigrator         ValidationCode = ValidationCode("EMPTY_MIGRATOR")
	CodeInvalidName           ValidationCode = ValidationCode("INVALID_NAME")
	CodeInvalidFrom           ValidationCode = ValidationCode("INVALID_FROM")
	CodeInvalidBatch          ValidationCode = ValidationCode("INVALID_FROM_BATCH")
	CodeInvalidSkip           ValidationCode = ValidationCode("INVALID_FROM_SKIP")
	CodeInvalidTo             ValidationCode = ValidationCode("INVALID_TO")
	CodeInvalidProperties     ValidationCode = ValidationCode("INVALID_PROPERTIES")
	CodeInvalidProperty       ValidationCode = ValidationCode("INVALID_PROPERTY")
	CodeInvalidOperator       ValidationCode = ValidationCode("INVALID_OPERATOR")
	CodeInvalidFunction       ValidationCode = ValidationCode("INVALID_FUNCTION")
	CodeInvalidFromCollection ValidationCode = ValidationCode("INVALID_FROM_COLLECTION")
	CodeInvalidFromQuery      ValidationCode = ValidationCode("INVALID_FROM_QUERY")
	CodeInvalidFromAggregate  ValidationCode = ValidationCode("INVALID_FROM_AGGREGATE")
	CodeInvalidToCollection   ValidationCode = ValidationCode("INVALID_TO_COLLECTION")
)

// ValidationError describes one problem found while checking a migration specification.
type ValidationError struct {
	Code    ValidationCode
	Message string
}

// Error renders the code and message.
func (validationError ValidationError) Error() string {
	return fmt.Sprintf(validationErrorTemplateConstant, validationError.Code, validationError.Message)
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(code ValidationCode, messageTemplate string, arguments ...any) ValidationError {
	return ValidationError{Code: code, Message: fmt.Sprintf(messageTemplate, arguments...)}
}

// HasCode reports whether any of the errors carries the code.
func HasCode(validationErrors []ValidationError, code ValidationCode) bool {
	for _, validationError := range validationErrors {
		if validationError.Code == code {
			return true
		}
	}
	return false
}
