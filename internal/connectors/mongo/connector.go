package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/temirov/dbmigrator/internal/connector"
	"github.com/temirov/dbmigrator/internal/registry"
)

const (
	// ConnectorName is the registry name of the MongoDB connector.
	ConnectorName = "mongo"

	moduleNameConstant                   = "mongo"
	defaultConnectTimeoutConstant        = 10 * time.Second
	databaseFieldNameConstant            = "database"
	connectionSucceededMessageConstant   = "database connection successful"
	invalidConfigurationMessageConstant  = "INVALID_DATABASE_CONFIG: url and database are required"
	notConnectedMessageConstant          = "mongo connector is not connected"
	clientCreationErrorTemplateConstant  = "unable to create client: %w"
	pingErrorTemplateConstant            = "unable to reach %s: %w"
	countResultErrorTemplateConstant     = "unexpected count result %T"
	invalidFromCollectionMessageConstant = "from.collection should be a valid collection name"
	invalidFromQueryMessageConstant      = "from.query cannot be combined with from.aggregate"
	invalidFromAggregateTemplateConstant = "from.aggregate stage %d should hold exactly one operator starting with $"
	invalidToCollectionMessageConstant   = "to.collection should be a valid collection name"
	countStageOperatorConstant           = "$count"
	skipStageOperatorConstant            = "$skip"
	limitStageOperatorConstant           = "$limit"
	countFieldNameConstant               = "count"
	stageOperatorPrefixConstant          = "$"
)

var (
	errInvalidConfiguration = errors.New(invalidConfigurationMessageConstant)
	errNotConnected         = errors.New(notConnectedMessageConstant)
)

type configuration struct {
	URL            string        `mapstructure:"url"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	AppName        string        `mapstructure:"app_name"`
}

// Connector reads from and writes to one MongoDB database.
type Connector struct {
	logger       *zap.Logger
	client       *mongodriver.Client
	database     *mongodriver.Database
	databaseName string
}

// New constructs an unconnected MongoDB connector.
func New(logger *zap.Logger) *Connector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connector{logger: logger}
}

// Module contributes the MongoDB connector to a registry.
func Module(logger *zap.Logger) registry.Module {
	return registry.Module{
		Name: moduleNameConstant,
		Connectors: map[string]connector.Factory{
			ConnectorName: func() connector.Connector { return New(logger) },
		},
	}
}

// Connect dials the server and verifies it answers a ping before returning.
func (mongoConnector *Connector) Connect(executionContext context.Context, configurationValues connector.Configuration) error {
	if mongoConnector.client != nil {
		return connector.NewConnectionError(connector.ErrAlreadyConnected)
	}

	var decoded configuration
	if decodeError := connector.DecodeConfiguration(configurationValues, &decoded); decodeError != nil {
		return connector.NewConnectionError(decodeError)
	}
	if len(strings.TrimSpace(decoded.URL)) == 0 || len(strings.TrimSpace(decoded.Database)) == 0 {
		return connector.NewConnectionError(errInvalidConfiguration)
	}

	connectTimeout := decoded.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeoutConstant
	}
	clientOptions := options.Client().ApplyURI(decoded.URL).SetConnectTimeout(connectTimeout).SetServerSelectionTimeout(connectTimeout)
	if len(decoded.AppName) > 0 {
		clientOptions.SetAppName(decoded.AppName)
	}

	client, connectError := mongodriver.Connect(executionContext, clientOptions)
	if connectError != nil {
		return connector.NewConnectionError(fmt.Errorf(clientCreationErrorTemplateConstant, connectError))
	}
	if pingError := client.Ping(executionContext, readpref.Primary()); pingError != nil {
		_ = client.Disconnect(executionContext)
		return connector.NewConnectionError(fmt.Errorf(pingErrorTemplateConstant, decoded.Database, pingError))
	}

	mongoConnector.client = client
	mongoConnector.database = client.Database(decoded.Database)
	mongoConnector.databaseName = decoded.Database
	mongoConnector.logger.Info(connectionSucceededMessageConstant, zap.String(databaseFieldNameConstant, decoded.Database))
	return nil
}

// DatabaseName returns the configured database name.
func (mongoConnector *Connector) DatabaseName() string {
	return mongoConnector.databaseName
}

// ValidateSourceSpecification checks the collection, query and aggregate locators.
func (mongoConnector *Connector) ValidateSourceSpecification(specification connector.SourceSpecification) []connector.ValidationError {
	validationErrors := make([]connector.ValidationError, 0)
	if len(strings.TrimSpace(specification.Collection)) == 0 {
		validationErrors = append(validationErrors, connector.ValidationError{Code: connector.CodeInvalidFromCollection, Message: invalidFromCollectionMessageConstant})
	}
	if len(specification.Query) > 0 && len(specification.Aggregate) > 0 {
		validationErrors = append(validationErrors, connector.ValidationError{Code: connector.CodeInvalidFromQuery, Message: invalidFromQueryMessageConstant})
	}
	for stageIndex, stage := range specification.Aggregate {
		if !isPipelineStage(stage) {
			validationErrors = append(validationErrors, connector.NewValidationError(connector.CodeInvalidFromAggregate, invalidFromAggregateTemplateConstant, stageIndex))
		}
	}
	return validationErrors
}

// ValidateTargetSpecification checks the target collection.
func (mongoConnector *Connector) ValidateTargetSpecification(specification connector.TargetSpecification) []connector.ValidationError {
	if len(strings.TrimSpace(specification.Collection)) == 0 {
		return []connector.ValidationError{{Code: connector.CodeInvalidToCollection, Message: invalidToCollectionMessageConstant}}
	}
	return nil
}

// CountMatching counts documents with countDocuments, or with a $count stage when an aggregate is set.
func (mongoConnector *Connector) CountMatching(executionContext context.Context, specification connector.SourceSpecification) (int64, error) {
	if mongoConnector.database == nil {
		return 0, connector.NewCountError(errNotConnected)
	}
	collection := mongoConnector.database.Collection(specification.Collection)

	if len(specification.Aggregate) == 0 {
		total, countError := collection.CountDocuments(executionContext, queryFilter(specification.Query))
		if countError != nil {
			return 0, connector.NewCountError(countError)
		}
		return total, nil
	}

	cursor, aggregateError := collection.Aggregate(executionContext, countPipeline(specification.Aggregate))
	if aggregateError != nil {
		return 0, connector.NewCountError(aggregateError)
	}
	var results []bson.M
	if decodeError := cursor.All(executionContext, &results); decodeError != nil {
		return 0, connector.NewCountError(decodeError)
	}
	if len(results) == 0 {
		return 0, nil
	}

	switch countValue := results[0][countFieldNameConstant].(type) {
	case int32:
		return int64(countValue), nil
	case int64:
		return countValue, nil
	case float64:
		return int64(countValue), nil
	default:
		return 0, connector.NewCountError(fmt.Errorf(countResultErrorTemplateConstant, countValue))
	}
}

// FetchBatch reads one page with find().skip().limit() or with injected $skip and $limit stages.
func (mongoConnector *Connector) FetchBatch(executionContext context.Context, specification connector.SourceSpecification, skip int, limit int) ([]connector.Record, error) {
	if mongoConnector.database == nil {
		return nil, connector.NewFetchError(errNotConnected)
	}
	collection := mongoConnector.database.Collection(specification.Collection)

	var (
		cursor      *mongodriver.Cursor
		cursorError error
	)
	if len(specification.Aggregate) == 0 {
		cursor, cursorError = collection.Find(executionContext, queryFilter(specification.Query), options.Find().SetSkip(int64(skip)).SetLimit(int64(limit)))
	} else {
		cursor, cursorError = collection.Aggregate(executionContext, pagedPipeline(specification.Aggregate, skip, limit))
	}
	if cursorError != nil {
		return nil, connector.NewFetchError(cursorError)
	}

	var documents []bson.M
	if decodeError := cursor.All(executionContext, &documents); decodeError != nil {
		return nil, connector.NewFetchError(decodeError)
	}

	records := make([]connector.Record, 0, len(documents))
	for _, document := range documents {
		records = append(records, normalizeDocument(document))
	}
	return records, nil
}

// Store inserts the record into the target collection.
func (mongoConnector *Connector) Store(executionContext context.Context, specification connector.TargetSpecification, record connector.Record) error {
	if mongoConnector.database == nil {
		return connector.NewWriteError(errNotConnected)
	}

	_, insertError := mongoConnector.database.Collection(specification.Collection).InsertOne(executionContext, map[string]any(record))
	if insertError == nil {
		return nil
	}
	if mongodriver.IsDuplicateKeyError(insertError) {
		return connector.NewDuplicateKeyError(insertError)
	}
	return connector.NewWriteError(insertError)
}

// Close disconnects the client.
func (mongoConnector *Connector) Close(executionContext context.Context) error {
	if mongoConnector.client == nil {
		return nil
	}
	disconnectError := mongoConnector.client.Disconnect(executionContext)
	mongoConnector.client = nil
	mongoConnector.database = nil
	return disconnectError
}
