package progress

import (
	"fmt"

	"github.com/temirov/dbmigrator/internal/engine"
)

const (
	progressMessageTemplateConstant           = "Fetched %d and Migrated %d of %d"
	progressIgnoredSuffixTemplateConstant     = " (%d duplicates ignored)"
	progressLineTemplateConstant              = "DbMigrator :: %s :: %s"
	migrationStartedMessageTemplateConstant   = "Migrating %s"
	migrationCompletedMessageTemplateConstant = "Completed %s: %s"
	migrationFailedMessageTemplateConstant    = "Migration %s failed after %s: %s"
	unknownFailureMessageConstant             = "unknown error"
)

// StatisticsFormatter builds human-readable progress messages.
type StatisticsFormatter struct{}

// BuildProgressMessage formats the fetched, migrated and total counters.
func (formatter StatisticsFormatter) BuildProgressMessage(statistics engine.Statistics) string {
	message := fmt.Sprintf(progressMessageTemplateConstant, statistics.Fetched, statistics.Migrated, statistics.Total)
	if statistics.Ignored > 0 {
		message += fmt.Sprintf(progressIgnoredSuffixTemplateConstant, statistics.Ignored)
	}
	return message
}

// BuildProgressLine prefixes the progress message with the migration name.
func (formatter StatisticsFormatter) BuildProgressLine(migrationName string, statistics engine.Statistics) string {
	return fmt.Sprintf(progressLineTemplateConstant, migrationName, formatter.BuildProgressMessage(statistics))
}

// BuildStartedMessage formats the message announcing a migration.
func (formatter StatisticsFormatter) BuildStartedMessage(migrationName string) string {
	return fmt.Sprintf(migrationStartedMessageTemplateConstant, migrationName)
}

// BuildFinishedMessage formats the message describing a migration outcome.
func (formatter StatisticsFormatter) BuildFinishedMessage(result engine.MigrationResult) string {
	progressMessage := formatter.BuildProgressMessage(result.Statistics)
	if result.Succeeded() {
		return fmt.Sprintf(migrationCompletedMessageTemplateConstant, result.Name, progressMessage)
	}
	failureMessage := unknownFailureMessageConstant
	if result.Err != nil {
		failureMessage = result.Err.Error()
	}
	return fmt.Sprintf(migrationFailedMessageTemplateConstant, result.Name, progressMessage, failureMessage)
}
