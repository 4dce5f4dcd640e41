package memory

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/temirov/dbmigrator/internal/connector"
	"github.com/temirov/dbmigrator/internal/registry"
)

const (
	// ConnectorName is the registry name of the memory connector.
	ConnectorName = "memory"

	defaultDatabaseNameConstant         = "memory"
	defaultUniqueKeyConstant            = "_id"
	moduleNameConstant                  = "memory"
	missingCollectionMessageConstant    = "collection should be a non empty string"
	aggregateUnsupportedMessageConstant = "aggregate pipelines are not supported by the memory connector"
	duplicateKeyTemplateConstant        = "collection %s already holds %s=%v"
)

type configuration struct {
	Database    string                      `mapstructure:"database"`
	UniqueKey   string                      `mapstructure:"unique_key"`
	Collections map[string][]map[string]any `mapstructure:"collections"`
}

// FetchCall records the paging arguments of one FetchBatch call.
type FetchCall struct {
	Collection string
	Skip       int
	Limit      int
}

// Connector stores records in memory. It is safe for concurrent use.
type Connector struct {
	mutex        sync.Mutex
	databaseName string
	uniqueKey    string
	collections  map[string][]connector.Record
	connected    bool
	fetchCalls   []FetchCall
	storeCalls   int
}

// New constructs an empty memory connector that enforces uniqueness on "_id".
func New() *Connector {
	return &Connector{
		databaseName: defaultDatabaseNameConstant,
		uniqueKey:    defaultUniqueKeyConstant,
		collections:  make(map[string][]connector.Record),
	}
}

// Module contributes the memory connector to a registry.
func Module() registry.Module {
	return registry.Module{
		Name: moduleNameConstant,
		Connectors: map[string]connector.Factory{
			ConnectorName: func() connector.Connector { return New() },
		},
	}
}

// Connect applies the configuration. Recognized keys are database, unique_key and collections.
func (memoryConnector *Connector) Connect(executionContext context.Context, configurationValues connector.Configuration) error {
	if contextError := executionContext.Err(); contextError != nil {
		return connector.NewConnectionError(contextError)
	}

	var decoded configuration
	if decodeError := connector.DecodeConfiguration(configurationValues, &decoded); decodeError != nil {
		return connector.NewConnectionError(decodeError)
	}

	memoryConnector.mutex.Lock()
	defer memoryConnector.mutex.Unlock()

	if memoryConnector.connected {
		return connector.NewConnectionError(connector.ErrAlreadyConnected)
	}
	memoryConnector.connected = true
	if len(decoded.Database) > 0 {
		memoryConnector.databaseName = decoded.Database
	}
	if len(decoded.UniqueKey) > 0 {
		memoryConnector.uniqueKey = decoded.UniqueKey
	}
	for collectionName, records := range decoded.Collections {
		for _, record := range records {
			memoryConnector.collections[collectionName] = append(memoryConnector.collections[collectionName], connector.Record(record).Clone())
		}
	}
	return nil
}

// DatabaseName returns the configured database name.
func (memoryConnector *Connector) DatabaseName() string {
	memoryConnector.mutex.Lock()
	defer memoryConnector.mutex.Unlock()
	return memoryConnector.databaseName
}

// ValidateSourceSpecification requires a collection and rejects aggregate pipelines.
func (memoryConnector *Connector) ValidateSourceSpecification(specification connector.SourceSpecification) []connector.ValidationError {
	validationErrors := make([]connector.ValidationError, 0)
	if len(specification.Collection) == 0 {
		validationErrors = append(validationErrors, connector.ValidationError{Code: connector.CodeInvalidFromCollection, Message: missingCollectionMessageConstant})
	}
	if len(specification.Aggregate) > 0 {
		validationErrors = append(validationErrors, connector.ValidationError{Code: connector.CodeInvalidFromAggregate, Message: aggregateUnsupportedMessageConstant})
	}
	return validationErrors
}

// ValidateTargetSpecification requires a collection.
func (memoryConnector *Connector) ValidateTargetSpecification(specification connector.TargetSpecification) []connector.ValidationError {
	if len(specification.Collection) == 0 {
		return []connector.ValidationError{{Code: connector.CodeInvalidToCollection, Message: missingCollectionMessageConstant}}
	}
	return nil
}

// CountMatching counts the records whose fields equal every query entry.
func (memoryConnector *Connector) CountMatching(executionContext context.Context, specification connector.SourceSpecification) (int64, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return 0, connector.NewCountError(contextError)
	}

	memoryConnector.mutex.Lock()
	defer memoryConnector.mutex.Unlock()
	return int64(len(memoryConnector.matching(specification))), nil
}

// FetchBatch returns copies of the matching records in insertion order.
func (memoryConnector *Connector) FetchBatch(executionContext context.Context, specification connector.SourceSpecification, skip int, limit int) ([]connector.Record, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return nil, connector.NewFetchError(contextError)
	}

	memoryConnector.mutex.Lock()
	defer memoryConnector.mutex.Unlock()

	memoryConnector.fetchCalls = append(memoryConnector.fetchCalls, FetchCall{Collection: specification.Collection, Skip: skip, Limit: limit})

	matchingRecords := memoryConnector.matching(specification)
	if skip >= len(matchingRecords) {
		return []connector.Record{}, nil
	}
	end := len(matchingRecords)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}

	batch := make([]connector.Record, 0, end-skip)
	for _, record := range matchingRecords[skip:end] {
		batch = append(batch, record.Clone())
	}
	return batch, nil
}

// Store appends a copy of the record, rejecting records whose unique key is already present.
func (memoryConnector *Connector) Store(executionContext context.Context, specification connector.TargetSpecification, record connector.Record) error {
	if contextError := executionContext.Err(); contextError != nil {
		return connector.NewWriteError(contextError)
	}

	memoryConnector.mutex.Lock()
	defer memoryConnector.mutex.Unlock()

	memoryConnector.storeCalls++
	if keyValue, hasKey := record[memoryConnector.uniqueKey]; hasKey {
		for _, existing := range memoryConnector.collections[specification.Collection] {
			if existingValue, existingHasKey := existing[memoryConnector.uniqueKey]; existingHasKey && reflect.DeepEqual(existingValue, keyValue) {
				return connector.NewDuplicateKeyError(fmt.Errorf(duplicateKeyTemplateConstant, specification.Collection, memoryConnector.uniqueKey, keyValue))
			}
		}
	}

	memoryConnector.collections[specification.Collection] = append(memoryConnector.collections[specification.Collection], record.Clone())
	return nil
}

// Close is a no-op; stored records remain readable.
func (memoryConnector *Connector) Close(context.Context) error {
	return nil
}

// Seed appends records to a collection without uniqueness checks.
func (memoryConnector *Connector) Seed(collectionName string, records ...connector.Record) {
	memoryConnector.mutex.Lock()
	defer memoryConnector.mutex.Unlock()
	for _, record := range records {
		memoryConnector.collections[collectionName] = append(memoryConnector.collections[collectionName], record.Clone())
	}
}

// Records returns copies of every record in the collection.
func (memoryConnector *Connector) Records(collectionName string) []connector.Record {
	memoryConnector.mutex.Lock()
	defer memoryConnector.mutex.Unlock()

	records := make([]connector.Record, 0, len(memoryConnector.collections[collectionName]))
	for _, record := range memoryConnector.collections[collectionName] {
		records = append(records, record.Clone())
	}
	return records
}

// FetchCalls returns the paging arguments of every FetchBatch call so far.
func (memoryConnector *Connector) FetchCalls() []FetchCall {
	memoryConnector.mutex.Lock()
	defer memoryConnector.mutex.Unlock()
	return append([]FetchCall{}, memoryConnector.fetchCalls...)
}

// StoreCalls returns how many times Store was invoked.
func (memoryConnector *Connector) StoreCalls() int {
	memoryConnector.mutex.Lock()
	defer memoryConnector.mutex.Unlock()
	return memoryConnector.storeCalls
}

func (memoryConnector *Connector) matching(specification connector.SourceSpecification) []connector.Record {
	matchingRecords := make([]connector.Record, 0, len(memoryConnector.collections[specification.Collection]))
	for _, record := range memoryConnector.collections[specification.Collection] {
		if matchesQuery(record, specification.Query) {
			matchingRecords = append(matchingRecords, record)
		}
	}
	return matchingRecords
}

func matchesQuery(record connector.Record, query map[string]any) bool {
	for fieldName, expectedValue := range query {
		actualValue, present := record[fieldName]
		if !present || !reflect.DeepEqual(actualValue, expectedValue) {
			return false
		}
	}
	return true
}
