package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/dbmigrator/internal/connector"
	"github.com/temirov/dbmigrator/internal/plan"
	"github.com/temirov/dbmigrator/internal/registry"
	"github.com/temirov/dbmigrator/internal/transform"
)

const (
	migrationNameFieldNameConstant        = "migration_name"
	sourceDatabaseFieldNameConstant       = "source_database"
	targetDatabaseFieldNameConstant       = "target_database"
	totalFieldNameConstant                = "total"
	fetchedFieldNameConstant              = "fetched"
	migratedFieldNameConstant             = "migrated"
	ignoredFieldNameConstant              = "ignored"
	skipFieldNameConstant                 = "skip"
	batchSizeFieldNameConstant            = "batch_size"
	batchLengthFieldNameConstant          = "batch_length"
	stateFieldNameConstant                = "state"
	migrationStartedMessageConstant       = "migration started"
	migrationFinishedMessageConstant      = "migration finished"
	migrationFailedMessageConstant        = "migration failed"
	batchFetchedMessageConstant           = "batch fetched"
	duplicateIgnoredMessageConstant       = "duplicate record ignored"
	registryMissingMessageConstant        = "migration engine requires a registry"
	sourceConnectorMissingMessageConstant = "migration engine requires a source connector"
	targetConnectorMissingMessageConstant = "migration engine requires a target connector"
	batchAccountingMessageConstant        = "batch accounting mismatch"
	negativeConcurrencyMessageConstant    = "write concurrency must not be negative"
	pipelineErrorTemplateConstant         = "unable to create transform pipeline: %w"
	transformErrorTemplateConstant        = "transform failed: %w"
	batchAccountingTemplateConstant       = "%w: fetched %d, migrated %d, ignored %d"
	migrationFailureTemplateConstant      = "migration %q failed: %w"
)

var (
	// ErrBatchAccounting reports that a resolved batch left fetched records unaccounted for.
	ErrBatchAccounting = errors.New(batchAccountingMessageConstant)

	errRegistryMissing        = errors.New(registryMissingMessageConstant)
	errSourceConnectorMissing = errors.New(sourceConnectorMissingMessageConstant)
	errTargetConnectorMissing = errors.New(targetConnectorMissingMessageConstant)
	errNegativeConcurrency    = errors.New(negativeConcurrencyMessageConstant)
)

// Dependencies describes the collaborators of an Engine.
type Dependencies struct {
	Logger   *zap.Logger
	Registry *registry.Registry
	Source   connector.Connector
	Target   connector.Connector
	Observer StatisticsObserver
}

// Options tunes how records are written.
type Options struct {
	// IgnoreDuplicates counts duplicate-key writes as ignored instead of failing the migration.
	IgnoreDuplicates bool
	// WriteConcurrency bounds concurrent writes within a batch; zero means unbounded.
	WriteConcurrency int
}

// MigrationResult reports the outcome of one migration.
type MigrationResult struct {
	Name       string
	State      State
	Statistics Statistics
	Err        error
}

// Succeeded reports whether the migration completed.
func (result MigrationResult) Succeeded() bool {
	return result.State == StateCompleted && result.Err == nil
}

// RunResult reports the outcome of a sequence of migrations.
// Failed names the migration that halted the run; it is empty when every migration completed.
type RunResult struct {
	Migrations []MigrationResult
	Failed     string
	Err        error
}

// Engine executes migration specifications between a source and a target connector.
// An Engine runs one migration at a time.
type Engine struct {
	logger   *zap.Logger
	source   connector.Connector
	target   connector.Connector
	pipeline *transform.Pipeline
	observer StatisticsObserver
	options  Options
	tracker  *statisticsTracker
}

// New constructs an Engine.
func New(dependencies Dependencies, options Options) (*Engine, error) {
	if dependencies.Registry == nil {
		return nil, errRegistryMissing
	}
	if dependencies.Source == nil {
		return nil, errSourceConnectorMissing
	}
	if dependencies.Target == nil {
		return nil, errTargetConnectorMissing
	}
	if options.WriteConcurrency < 0 {
		return nil, errNegativeConcurrency
	}

	pipeline, pipelineError := transform.NewPipeline(dependencies.Registry)
	if pipelineError != nil {
		return nil, fmt.Errorf(pipelineErrorTemplateConstant, pipelineError)
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	observer := dependencies.Observer
	if observer == nil {
		observer = noopObserver{}
	}

	return &Engine{
		logger:   logger,
		source:   dependencies.Source,
		target:   dependencies.Target,
		pipeline: pipeline,
		observer: observer,
		options:  options,
		tracker:  newStatisticsTracker(observer),
	}, nil
}

// Statistics returns a snapshot of the counters of the current or most recent migration.
func (engine *Engine) Statistics() Statistics {
	return engine.tracker.snapshot()
}

// State returns the lifecycle state of the current or most recent migration.
func (engine *Engine) State() State {
	return engine.tracker.currentState()
}

// RunAll executes the migrations sequentially in order and halts at the first failure.
// Completed migrations keep their effect.
func (engine *Engine) RunAll(executionContext context.Context, specifications []plan.MigrationSpecification) RunResult {
	runResult := RunResult{Migrations: make([]MigrationResult, 0, len(specifications))}
	for _, specification := range specifications {
		migrationResult := engine.RunOne(executionContext, specification)
		runResult.Migrations = append(runResult.Migrations, migrationResult)
		if !migrationResult.Succeeded() {
			runResult.Failed = migrationResult.Name
			runResult.Err = fmt.Errorf(migrationFailureTemplateConstant, migrationResult.Name, migrationResult.Err)
			return runResult
		}
	}
	return runResult
}

// RunOne executes a single migration and reports its final state and statistics.
func (engine *Engine) RunOne(executionContext context.Context, specification plan.MigrationSpecification) MigrationResult {
	engine.tracker.reset(specification.Name)
	engine.tracker.setState(StateIdle)
	engine.observer.MigrationStarted(specification.Name)
	engine.logger.Info(migrationStartedMessageConstant,
		zap.String(migrationNameFieldNameConstant, specification.Name),
		zap.String(sourceDatabaseFieldNameConstant, engine.source.DatabaseName()),
		zap.String(targetDatabaseFieldNameConstant, engine.target.DatabaseName()),
	)

	runError := engine.run(executionContext, specification)

	migrationResult := MigrationResult{
		Name:       specification.Name,
		State:      StateCompleted,
		Statistics: engine.tracker.snapshot(),
		Err:        runError,
	}
	if runError != nil {
		migrationResult.State = StateFailed
	}
	engine.tracker.setState(migrationResult.State)
	if runError != nil {
		engine.logger.Error(migrationFailedMessageConstant, append(statisticsFields(specification.Name, migrationResult.Statistics), zap.Error(runError))...)
	} else {
		engine.logger.Info(migrationFinishedMessageConstant, append(statisticsFields(specification.Name, migrationResult.Statistics), zap.Stringer(stateFieldNameConstant, migrationResult.State))...)
	}

	engine.observer.MigrationFinished(migrationResult)
	return migrationResult
}

func (engine *Engine) run(executionContext context.Context, specification plan.MigrationSpecification) error {
	engine.tracker.setState(StateCounting)
	total, countError := engine.source.CountMatching(executionContext, specification.Source)
	if countError != nil {
		return countError
	}
	engine.tracker.setTotal(total)
	if total == 0 {
		return nil
	}

	engine.tracker.setState(StatePaging)
	skip := specification.Source.Skip
	batchSize := specification.Source.EffectiveBatchSize()
	for {
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}

		records, fetchError := engine.source.FetchBatch(executionContext, specification.Source, skip, batchSize)
		if fetchError != nil {
			return fetchError
		}
		engine.logger.Debug(batchFetchedMessageConstant,
			zap.String(migrationNameFieldNameConstant, specification.Name),
			zap.Int(skipFieldNameConstant, skip),
			zap.Int(batchSizeFieldNameConstant, batchSize),
			zap.Int(batchLengthFieldNameConstant, len(records)),
		)
		if len(records) == 0 {
			return nil
		}
		engine.tracker.addFetched(len(records))

		if batchError := engine.writeBatch(executionContext, specification, records); batchError != nil {
			return batchError
		}

		statistics := engine.tracker.snapshot()
		if statistics.Fetched != statistics.Processed() {
			return fmt.Errorf(batchAccountingTemplateConstant, ErrBatchAccounting, statistics.Fetched, statistics.Migrated, statistics.Ignored)
		}

		skip += batchSize
	}
}

// writeBatch transforms every record of the batch and waits until all of their writes resolve.
// The first fatal write cancels the writes that have not started yet.
func (engine *Engine) writeBatch(executionContext context.Context, specification plan.MigrationSpecification, records []connector.Record) error {
	transformedRecords := make([]connector.Record, 0, len(records))
	for _, record := range records {
		transformedRecord, transformError := engine.pipeline.Apply(record, specification.Transform)
		if transformError != nil {
			return fmt.Errorf(transformErrorTemplateConstant, transformError)
		}
		transformedRecords = append(transformedRecords, transformedRecord)
	}

	writeGroup, writeContext := errgroup.WithContext(executionContext)
	if engine.options.WriteConcurrency > 0 {
		writeGroup.SetLimit(engine.options.WriteConcurrency)
	}

	for _, transformedRecord := range transformedRecords {
		writeGroup.Go(func() error {
			if contextError := writeContext.Err(); contextError != nil {
				return contextError
			}
			return engine.store(writeContext, specification, transformedRecord)
		})
	}

	return writeGroup.Wait()
}

func (engine *Engine) store(writeContext context.Context, specification plan.MigrationSpecification, record connector.Record) error {
	storeError := engine.target.Store(writeContext, specification.Target, record)
	if storeError == nil {
		engine.tracker.addMigrated()
		return nil
	}
	if engine.options.IgnoreDuplicates && connector.IsDuplicateKey(storeError) {
		engine.logger.Debug(duplicateIgnoredMessageConstant, zap.String(migrationNameFieldNameConstant, specification.Name), zap.Error(storeError))
		engine.tracker.addIgnored()
		return nil
	}
	return storeError
}

func statisticsFields(migrationName string, statistics Statistics) []zap.Field {
	return []zap.Field{
		zap.String(migrationNameFieldNameConstant, migrationName),
		zap.Int64(totalFieldNameConstant, statistics.Total),
		zap.Int64(fetchedFieldNameConstant, statistics.Fetched),
		zap.Int64(migratedFieldNameConstant, statistics.Migrated),
		zap.Int64(ignoredFieldNameConstant, statistics.Ignored),
	}
}
