package connector

// DefaultBatchSize is applied when a source specification does not set a batch size.
const DefaultBatchSize = 1000

// SourceSpecification locates the records to read from the source store.
type SourceSpecification struct {
	Collection string           `yaml:"collection" json:"collection" mapstructure:"collection"`
	Query      map[string]any   `yaml:"query" json:"query" mapstructure:"query"`
	Aggregate  []map[string]any `yaml:"aggregate" json:"aggregate" mapstructure:"aggregate"`
	BatchSize  *int             `yaml:"batch" json:"batch" mapstructure:"batch"`
	Skip       int              `yaml:"skip" json:"skip" mapstructure:"skip"`
}

// TargetSpecification locates the destination of migrated records.
type TargetSpecification struct {
	Collection string `yaml:"collection" json:"collection" mapstructure:"collection"`
}

// IsEmpty reports whether no locator or paging field was provided.
func (specification SourceSpecification) IsEmpty() bool {
	return len(specification.Collection) == 0 &&
		len(specification.Query) == 0 &&
		len(specification.Aggregate) == 0 &&
		specification.BatchSize == nil &&
		specification.Skip == 0
}

// HasBatchSize reports whether the batch size was set explicitly.
func (specification SourceSpecification) HasBatchSize() bool {
	return specification.BatchSize != nil
}

// EffectiveBatchSize returns the configured batch size or DefaultBatchSize when absent.
func (specification SourceSpecification) EffectiveBatchSize() int {
	if specification.BatchSize == nil {
		return DefaultBatchSize
	}
	return *specification.BatchSize
}

// IsEmpty reports whether the target locator was left unset.
func (specification TargetSpecification) IsEmpty() bool {
	return len(specification.Collection) == 0
}

// BatchSize is a convenience for building a SourceSpecification with an explicit batch size.
func BatchSize(size int) *int {
	return &size
}
