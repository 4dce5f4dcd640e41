package validation

import (
	"errors"
	"strings"

	"github.com/temirov/dbmigrator/internal/connector"
	"github.com/temirov/dbmigrator/internal/plan"
	"github.com/temirov/dbmigrator/internal/registry"
	"github.com/temirov/dbmigrator/internal/transform"
)

const (
	registryMissingMessageConstant        = "validation service requires a registry"
	emptyMigratorMessageConstant          = "Migrator should be a non empty list"
	invalidSourceConnectorMessageConstant = "Invalid Connector - source connector is not configured"
	invalidTargetConnectorMessageConstant = "Invalid Connector - target connector is not configured"
	invalidNameTemplateConstant           = "migration %d should have a name"
	duplicateNameTemplateConstant         = "migration name %q is used more than once"
	invalidFromTemplateConstant           = "%s: from should be a non empty object"
	invalidBatchTemplateConstant          = "%s: from.batch should be a positive integer"
	invalidSkipTemplateConstant           = "%s: from.skip should be a non-negative integer"
	invalidToTemplateConstant             = "%s: to should be a non empty object"
	invalidPropertyTemplateConstant       = "%s: Invalid property - %s"
	duplicatePropertyTemplateConstant     = "%s: property %s is declared more than once"
	invalidOperatorTemplateConstant       = "%s: Invalid operator - %s"
	invalidFunctionTemplateConstant       = "%s: Invalid function - %s"
)

var errRegistryMissing = errors.New(registryMissingMessageConstant)

// Service validates migration specifications against a registry and the bound connectors.
type Service struct {
	registry        *registry.Registry
	sourceConnector connector.Connector
	targetConnector connector.Connector
}

// NewService constructs a Service. Nil connectors are reported as INVALID_CONNECTOR by Validate.
func NewService(registryInstance *registry.Registry, sourceConnector connector.Connector, targetConnector connector.Connector) (*Service, error) {
	if registryInstance == nil {
		return nil, errRegistryMissing
	}
	return &Service{
		registry:        registryInstance,
		sourceConnector: sourceConnector,
		targetConnector: targetConnector,
	}, nil
}

// Validate returns every problem found across the specifications. An empty input yields
// a single EMPTY_MIGRATOR error and nothing else.
func (service *Service) Validate(specifications []plan.MigrationSpecification) []connector.ValidationError {
	if len(specifications) == 0 {
		return []connector.ValidationError{{Code: connector.CodeEmptyMigrator, Message: emptyMigratorMessageConstant}}
	}

	validationErrors := make([]connector.ValidationError, 0)
	if service.sourceConnector == nil {
		validationErrors = append(validationErrors, connector.ValidationError{Code: connector.CodeInvalidConnector, Message: invalidSourceConnectorMessageConstant})
	}
	if service.targetConnector == nil {
		validationErrors = append(validationErrors, connector.ValidationError{Code: connector.CodeInvalidConnector, Message: invalidTargetConnectorMessageConstant})
	}

	seenNames := make(map[string]struct{}, len(specifications))
	for specificationIndex, specification := range specifications {
		migrationName := strings.TrimSpace(specification.Name)
		if len(migrationName) == 0 {
			validationErrors = append(validationErrors, connector.NewValidationError(connector.CodeInvalidName, invalidNameTemplateConstant, specificationIndex+1))
		} else if _, duplicate := seenNames[migrationName]; duplicate {
			validationErrors = append(validationErrors, connector.NewValidationError(connector.CodeInvalidName, duplicateNameTemplateConstant, migrationName))
		} else {
			seenNames[migrationName] = struct{}{}
		}

		validationErrors = append(validationErrors, service.validateSpecification(migrationName, specification)...)
	}

	return validationErrors
}

func (service *Service) validateSpecification(migrationName string, specification plan.MigrationSpecification) []connector.ValidationError {
	validationErrors := make([]connector.ValidationError, 0)

	if specification.Source.IsEmpty() {
		validationErrors = append(validationErrors, connector.NewValidationError(connector.CodeInvalidFrom, invalidFromTemplateConstant, migrationName))
	} else {
		if service.sourceConnector != nil {
			validationErrors = append(validationErrors, service.sourceConnector.ValidateSourceSpecification(specification.Source)...)
		}
		if specification.Source.HasBatchSize() && *specification.Source.BatchSize <= 0 {
			validationErrors = append(validationErrors, connector.NewValidationError(connector.CodeInvalidBatch, invalidBatchTemplateConstant, migrationName))
		}
		if specification.Source.Skip < 0 {
			validationErrors = append(validationErrors, connector.NewValidationError(connector.CodeInvalidSkip, invalidSkipTemplateConstant, migrationName))
		}
	}

	if specification.Target.IsEmpty() {
		validationErrors = append(validationErrors, connector.NewValidationError(connector.CodeInvalidTo, invalidToTemplateConstant, migrationName))
	} else if service.targetConnector != nil {
		validationErrors = append(validationErrors, service.targetConnector.ValidateTargetSpecification(specification.Target)...)
	}

	if !specification.Transform.HasOverride() {
		validationErrors = append(validationErrors, service.validateProperties(migrationName, specification.Transform)...)
	}

	return validationErrors
}

func (service *Service) validateProperties(migrationName string, specification transform.Specification) []connector.ValidationError {
	validationErrors := make([]connector.ValidationError, 0)
	seenFields := make(map[string]struct{}, len(specification.Fields))

	for _, fieldTransformation := range specification.Fields {
		fieldName := strings.TrimSpace(fieldTransformation.Field)
		if len(fieldName) == 0 || len(fieldTransformation.Operations) == 0 {
			validationErrors = append(validationErrors, connector.NewValidationError(connector.CodeInvalidProperty, invalidPropertyTemplateConstant, migrationName, fieldTransformation.Field))
		}
		if _, duplicate := seenFields[fieldName]; duplicate && len(fieldName) > 0 {
			validationErrors = append(validationErrors, connector.NewValidationError(connector.CodeInvalidProperties, duplicatePropertyTemplateConstant, migrationName, fieldName))
		}
		seenFields[fieldName] = struct{}{}

		for _, operation := range fieldTransformation.Operations {
			if !service.registry.HasOperator(operation.Operator) {
				validationErrors = append(validationErrors, connector.NewValidationError(connector.CodeInvalidOperator, invalidOperatorTemplateConstant, migrationName, operation.Operator))
			}
			for _, functionName := range referencedFunctions(operation.Argument) {
				if !service.registry.HasFunction(functionName) {
					validationErrors = append(validationErrors, connector.NewValidationError(connector.CodeInvalidFunction, invalidFunctionTemplateConstant, migrationName, functionName))
				}
			}
		}
	}

	return validationErrors
}

func referencedFunctions(argument any) []string {
	candidates := []any{argument}
	if elements, isArray := argument.([]any); isArray {
		candidates = elements
	}

	functionNames := make([]string, 0)
	for _, candidate := range candidates {
		if functionName, isPlaceholder := registry.FunctionPlaceholder(candidate); isPlaceholder {
			functionNames = append(functionNames, functionName)
		}
	}
	return functionNames
}
