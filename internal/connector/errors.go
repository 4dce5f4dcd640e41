package connector

import (
	"errors"
	"fmt"
)

const (
	connectionFailureMessageConstant        = "connection failed"
	countFailureMessageConstant             = "count failed"
	fetchFailureMessageConstant             = "fetch failed"
	duplicateKeyMessageConstant             = "duplicate key"
	writeFailureMessageConstant             = "write failed"
	alreadyConnectedMessageConstant         = "connector is already connected"
	operationErrorMessageTemplateConstant   = "%s: %s"
	operationErrorWithCauseTemplateConstant = "%s: %s: %s"
)

// OperationName identifies the connector capability that failed.
type OperationName string

// Connector operations reported in OperationError values.
const (
	OperationConnect       OperationName = OperationName("Connect")
	OperationCountMatching OperationName = OperationName("CountMatching")
	OperationFetchBatch    OperationName = OperationName("FetchBatch")
	OperationStore         OperationName = OperationName("Store")
)

// Runtime error kinds reported by connectors. Match them with errors.Is.
var (
	ErrConnection   = errors.New(connectionFailureMessageConstant)
	ErrCount        = errors.New(countFailureMessageConstant)
	ErrFetch        = errors.New(fetchFailureMessageConstant)
	ErrDuplicateKey = errors.New(duplicateKeyMessageConstant)
	ErrWrite        = errors.New(writeFailureMessageConstant)
)

// ErrAlreadyConnected is the cause reported when Connect is called on a connector that holds a connection.
var ErrAlreadyConnected = errors.New(alreadyConnectedMessageConstant)

// OperationError ties a connector failure to its kind and underlying cause.
type OperationError struct {
	Kind      error
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation, operationError.Kind)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Kind, operationError.Cause)
}

// Unwrap exposes both the error kind and the underlying cause.
func (operationError OperationError) Unwrap() []error {
	unwrapped := make([]error, 0, 2)
	if operationError.Kind != nil {
		unwrapped = append(unwrapped, operationError.Kind)
	}
	if operationError.Cause != nil {
		unwrapped = append(unwrapped, operationError.Cause)
	}
	return unwrapped
}

// NewConnectionError wraps a failure to establish a store connection.
func NewConnectionError(cause error) error {
	return OperationError{Kind: ErrConnection, Operation: OperationConnect, Cause: cause}
}

// NewCountError wraps a failure to count matching source records.
func NewCountError(cause error) error {
	return OperationError{Kind: ErrCount, Operation: OperationCountMatching, Cause: cause}
}

// NewFetchError wraps a failure to read a batch from the source store.
func NewFetchError(cause error) error {
	return OperationError{Kind: ErrFetch, Operation: OperationFetchBatch, Cause: cause}
}

// NewDuplicateKeyError wraps a uniqueness violation reported by the target store.
func NewDuplicateKeyError(cause error) error {
	return OperationError{Kind: ErrDuplicateKey, Operation: OperationStore, Cause: cause}
}

// NewWriteError wraps any non-duplicate failure to store a record.
func NewWriteError(cause error) error {
	return OperationError{Kind: ErrWrite, Operation: OperationStore, Cause: cause}
}

// IsDuplicateKey reports whether the error is a target uniqueness violation.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}
