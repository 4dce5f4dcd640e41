package connector

import "context"

// Record is a single document or row moving through a migration.
type Record map[string]any

// Configuration carries store-specific connection settings, usually decoded from YAML or environment.
type Configuration map[string]any

// Connector is the capability set a store adapter provides to the migration engine.
//
// A Connector is bound to exactly one store connection for its lifetime; reconnecting
// requires a new instance.
type Connector interface {
	// Connect establishes the connection. Malformed configuration and unreachable stores
	// are reported with ErrConnection.
	Connect(executionContext context.Context, configuration Configuration) error
	DatabaseName() string
	ValidateSourceSpecification(specification SourceSpecification) []ValidationError
	ValidateTargetSpecification(specification TargetSpecification) []ValidationError
	// CountMatching reports how many records match the source criteria, ignoring pagination.
	CountMatching(executionContext context.Context, specification SourceSpecification) (int64, error)
	// FetchBatch returns at most limit records starting at skip. An empty result ends the stream.
	FetchBatch(executionContext context.Context, specification SourceSpecification, skip int, limit int) ([]Record, error)
	// Store writes one record. Uniqueness violations are reported with ErrDuplicateKey.
	Store(executionContext context.Context, specification TargetSpecification, record Record) error
	Close(executionContext context.Context) error
}

// Factory constructs a fresh, unconnected Connector.
type Factory func() Connector

// Clone returns a deep copy of the record so callers can mutate it without affecting the original.
func (record Record) Clone() Record {
	if record == nil {
		return nil
	}
	cloned := make(Record, len(record))
	for fieldName, fieldValue := range record {
		cloned[fieldName] = CloneValue(fieldValue)
	}
	return cloned
}

// CloneValue deep copies maps and slices nested inside record values; scalars are returned as-is.
func CloneValue(value any) any {
	switch typedValue := value.(type) {
	case Record:
		return typedValue.Clone()
	case map[string]any:
		return map[string]any(Record(typedValue).Clone())
	case []any:
		clonedElements := make([]any, len(typedValue))
		for elementIndex, elementValue := range typedValue {
			clonedElements[elementIndex] = CloneValue(elementValue)
		}
		return clonedElements
	default:
		return value
	}
}
