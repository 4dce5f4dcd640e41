package migration

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/temirov/dbmigrator/internal/connector"
	"github.com/temirov/dbmigrator/internal/utils"
)

const (
	validateCommandUseConstant              = "validate [plan]"
	validateCommandShortDescriptionConstant = "Validate a migration plan"
	validateCommandLongDescriptionConstant  = "validate connects the plan's source and target connectors and reports every problem found in its migrations without moving any records."
	validationFailedTemplateConstant        = "migration plan has %d validation errors"
	validationPassedTemplateConstant        = "migration plan is valid: %d migrations\n"
	validationErrorLineTemplateConstant     = "%s\n"
)

// ValidateCommandBuilder assembles the validate command.
type ValidateCommandBuilder struct {
	LoggerProvider        LoggerProvider
	RegistryFactory       RegistryFactory
	ConfigurationProvider func() CommandConfiguration
}

// Build constructs the validate command.
func (builder *ValidateCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   validateCommandUseConstant,
		Short: validateCommandShortDescriptionConstant,
		Long:  validateCommandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}
	return command, nil
}

func (builder *ValidateCommandBuilder) run(command *cobra.Command, arguments []string) error {
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

	output := utils.NewFlushingWriter(command.OutOrStdout())
	if reportError := reportValidationErrors(output, validationErrors); reportError != nil {
		return reportError
	}

	fmt.Fprintf(output, validationPassedTemplateConstant, len(openedSession.plan.Migrations))
	return nil
}

// reportValidationErrors prints one CODE: message line per error and returns an error when any were found.
func reportValidationErrors(output io.Writer, validationErrors []connector.ValidationError) error {
	if len(validationErrors) == 0 {
		return nil
	}
	for _, validationError := range validationErrors {
		fmt.Fprintf(output, validationErrorLineTemplateConstant, validationError.Error())
	}
	return fmt.Errorf(validationFailedTemplateConstant, len(validationErrors))
}
