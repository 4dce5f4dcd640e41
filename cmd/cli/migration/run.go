package migration

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/dbmigrator/internal/engine"
	"github.com/temirov/dbmigrator/internal/progress"
	"github.com/temirov/dbmigrator/internal/utils"
	"github.com/temirov/dbmigrator/internal/utils/flags"
)

const (
	migrateCommandUseConstant              = "migrate [plan]"
	migrateCommandShortDescriptionConstant = "Run the migrations of a migration plan"
	migrateCommandLongDescriptionConstant  = "migrate validates the plan, then copies every migration's records from the source to the target in batches, applying the declared property operators. Migrations run in order and the run halts at the first failure."
	runIdentifierFieldConstant             = "run_id"
	migrationsCompletedMessageConstant     = "migrations completed"
	migrationsFailedMessageConstant        = "migration run halted"
	failedMigrationFieldConstant           = "failed_migration"
	completedCountFieldConstant            = "completed_count"
)

// MigrateCommandBuilder assembles the migrate command.
type MigrateCommandBuilder struct {
	LoggerProvider               LoggerProvider
	RegistryFactory              RegistryFactory
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	// Observer replaces the progress reporting selected by the log format when set.
	Observer engine.StatisticsObserver
}

// Build constructs the migrate command.
func (builder *MigrateCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   migrateCommandUseConstant,
		Short: migrateCommandShortDescriptionConstant,
		Long:  migrateCommandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}
	flags.BindMigrationFlags(command, flags.MigrationFlagValues{})
	return command, nil
}

func (builder *MigrateCommandBuilder) run(command *cobra.Command, arguments []string) error {
	commandConfiguration := resolveConfiguration(builder.ConfigurationProvider)
	planPath := DeterminePlanPath(arguments, commandConfiguration.Plan)
	if len(planPath) == 0 {
		if helpError := displayCommandHelp(command); helpError != nil {
			return helpError
		}
		return errPlanPathRequired
	}

	executionContext := command.Context()
	logger := resolveLogger(builder.LoggerProvider)
	if runIdentifier, available := utils.NewCommandContextAccessor().RunIdentifier(executionContext); available {
		logger = logger.With(runIdentifierField(runIdentifier))
	}

	openedSession, sessionError := openSession(executionContext, logger, resolveRegistryFactory(builder.RegistryFactory), planPath)
	if sessionError != nil {
		return sessionError
	}
	defer openedSession.close(executionContext)

	validationErrors, validationError := openedSession.validate()
	if validationError != nil {
		return validationError
	}
	if reportError := reportValidationErrors(utils.NewFlushingWriter(command.OutOrStdout()), validationErrors); reportError != nil {
		return reportError
	}

	migrationEngine, engineError := engine.New(
		engine.Dependencies{
			Logger:   logger,
			Registry: openedSession.registry,
			Source:   openedSession.source,
			Target:   openedSession.target,
			Observer: builder.resolveObserver(command, logger),
		},
		resolveEngineOptions(command, commandConfiguration),
	)
	if engineError != nil {
		return engineError
	}

	runResult := migrationEngine.RunAll(executionContext, openedSession.plan.Migrations)
	if runResult.Err != nil {
		logger.Error(migrationsFailedMessageConstant, zap.String(failedMigrationFieldConstant, runResult.Failed), zap.Error(runResult.Err))
		return runResult.Err
	}

	logger.Info(migrationsCompletedMessageConstant, zap.Int(completedCountFieldConstant, len(runResult.Migrations)))
	return nil
}

func (builder *MigrateCommandBuilder) resolveObserver(command *cobra.Command, logger *zap.Logger) engine.StatisticsObserver {
	if builder.Observer != nil {
		return builder.Observer
	}
	if humanReadable(builder.HumanReadableLoggingProvider) {
		return progress.NewConsoleRenderer(command.OutOrStdout())
	}
	return progress.NewLoggingObserver(logger)
}

func resolveEngineOptions(command *cobra.Command, commandConfiguration CommandConfiguration) engine.Options {
	options := engine.Options{
		IgnoreDuplicates: commandConfiguration.IgnoreDuplicates,
		WriteConcurrency: commandConfiguration.WriteConcurrency,
	}
	if command == nil {
		return options
	}
	if command.Flags().Changed(flags.IgnoreDuplicatesFlagName) {
		options.IgnoreDuplicates, _ = command.Flags().GetBool(flags.IgnoreDuplicatesFlagName)
	}
	if command.Flags().Changed(flags.WriteConcurrencyFlagName) {
		options.WriteConcurrency, _ = command.Flags().GetInt(flags.WriteConcurrencyFlagName)
	}
	return options
}

func runIdentifierField(runIdentifier string) zap.Field {
	return zap.String(runIdentifierFieldConstant, runIdentifier)
}
