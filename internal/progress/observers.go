package progress

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/temirov/dbmigrator/internal/engine"
	"github.com/temirov/dbmigrator/internal/utils"
)

const (
	migrationNameFieldNameConstant = "migration_name"
	totalFieldNameConstant         = "total"
	fetchedFieldNameConstant       = "fetched"
	migratedFieldNameConstant      = "migrated"
	ignoredFieldNameConstant       = "ignored"
	stateFieldNameConstant         = "state"
	progressUpdatedMessageConstant = "migration progress"
	clearLineSequenceConstant      = "\r\x1b[2K"
	newlineConstant                = "\n"
)

// LoggingObserver reports engine progress as structured zap entries.
// Counter updates are logged at debug level.
type LoggingObserver struct {
	logger    *zap.Logger
	formatter StatisticsFormatter
}

// NewLoggingObserver constructs a LoggingObserver backed by the provided logger.
func NewLoggingObserver(logger *zap.Logger) *LoggingObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingObserver{logger: logger, formatter: StatisticsFormatter{}}
}

// MigrationStarted implements engine.StatisticsObserver.
func (observer *LoggingObserver) MigrationStarted(migrationName string) {
	observer.logger.Info(observer.formatter.BuildStartedMessage(migrationName), zap.String(migrationNameFieldNameConstant, migrationName))
}

// StatisticsUpdated implements engine.StatisticsObserver.
func (observer *LoggingObserver) StatisticsUpdated(migrationName string, statistics engine.Statistics) {
	observer.logger.Debug(progressUpdatedMessageConstant, statisticsFields(migrationName, statistics)...)
}

// MigrationFinished implements engine.StatisticsObserver.
func (observer *LoggingObserver) MigrationFinished(result engine.MigrationResult) {
	fields := append(statisticsFields(result.Name, result.Statistics), zap.Stringer(stateFieldNameConstant, result.State))
	if result.Succeeded() {
		observer.logger.Info(observer.formatter.BuildFinishedMessage(result), fields...)
		return
	}
	observer.logger.Error(observer.formatter.BuildFinishedMessage(result), append(fields, zap.Error(result.Err))...)
}

// ConsoleRenderer rewrites a single terminal line with the latest counters and
// terminates it when the migration finishes.
type ConsoleRenderer struct {
	mutex     sync.Mutex
	writer    io.Writer
	formatter StatisticsFormatter
}

// NewConsoleRenderer constructs a renderer writing to the provided writer.
func NewConsoleRenderer(writer io.Writer) *ConsoleRenderer {
	if writer == nil {
		writer = io.Discard
	}
	return &ConsoleRenderer{writer: utils.NewFlushingWriter(writer), formatter: StatisticsFormatter{}}
}

// MigrationStarted implements engine.StatisticsObserver.
func (renderer *ConsoleRenderer) MigrationStarted(migrationName string) {
	renderer.write(renderer.formatter.BuildStartedMessage(migrationName) + newlineConstant)
}

// StatisticsUpdated implements engine.StatisticsObserver.
func (renderer *ConsoleRenderer) StatisticsUpdated(migrationName string, statistics engine.Statistics) {
	renderer.write(clearLineSequenceConstant + renderer.formatter.BuildProgressLine(migrationName, statistics))
}

// MigrationFinished implements engine.StatisticsObserver.
func (renderer *ConsoleRenderer) MigrationFinished(result engine.MigrationResult) {
	renderer.write(clearLineSequenceConstant + renderer.formatter.BuildFinishedMessage(result) + newlineConstant)
}

func (renderer *ConsoleRenderer) write(text string) {
	renderer.mutex.Lock()
	defer renderer.mutex.Unlock()
	_, _ = fmt.Fprint(renderer.writer, text)
}

func statisticsFields(migrationName string, statistics engine.Statistics) []zap.Field {
	return []zap.Field{
		zap.String(migrationNameFieldNameConstant, migrationName),
		zap.Int64(totalFieldNameConstant, statistics.Total),
		zap.Int64(fetchedFieldNameConstant, statistics.Fetched),
		zap.Int64(migratedFieldNameConstant, statistics.Migrated),
		zap.Int64(ignoredFieldNameConstant, statistics.Ignored),
	}
}
