package transform

import (
	"errors"
	"fmt"

	"github.com/temirov/dbmigrator/internal/connector"
	"github.com/temirov/dbmigrator/internal/registry"
)

const (
	unknownOperatorMessageConstant          = "unknown operator"
	registryMissingMessageConstant          = "transform pipeline requires a registry"
	unknownOperatorTemplateConstant         = "%w %q for field %q"
	functionEvaluationErrorTemplateConstant = "function %q for field %q failed: %w"
)

var (
	// ErrUnknownOperator reports an operator missing from the registry at apply time.
	// Validated specifications never produce it, so it is treated as fatal.
	ErrUnknownOperator = errors.New(unknownOperatorMessageConstant)

	errRegistryMissing = errors.New(registryMissingMessageConstant)
)

// Pipeline applies transform specifications using operators and functions from a registry.
type Pipeline struct {
	registry *registry.Registry
}

// NewPipeline constructs a Pipeline bound to the registry.
func NewPipeline(registryInstance *registry.Registry) (*Pipeline, error) {
	if registryInstance == nil {
		return nil, errRegistryMissing
	}
	return &Pipeline{registry: registryInstance}, nil
}

// Apply transforms a copy of the record; the caller's record is never modified.
func (pipeline *Pipeline) Apply(record connector.Record, specification Specification) (connector.Record, error) {
	working := record.Clone()
	if working == nil {
		working = connector.Record{}
	}

	if specification.HasOverride() {
		return specification.Override(working), nil
	}

	for _, fieldTransformation := range specification.Fields {
		for _, operation := range fieldTransformation.Operations {
			operator, available := pipeline.registry.Operator(operation.Operator)
			if !available {
				return nil, fmt.Errorf(unknownOperatorTemplateConstant, ErrUnknownOperator, operation.Operator, fieldTransformation.Field)
			}

			resolvedArgument, resolveError := pipeline.resolveArgument(fieldTransformation.Field, operation.Argument)
			if resolveError != nil {
				return nil, resolveError
			}

			operator(working, fieldTransformation.Field, resolvedArgument)
		}
	}

	return working, nil
}

// resolveArgument evaluates "fn.<name>" placeholders on every call; arrays resolve element-wise.
// Placeholders naming unregistered functions pass through as literal strings.
func (pipeline *Pipeline) resolveArgument(fieldName string, argument any) (any, error) {
	if elements, isArray := argument.([]any); isArray {
		resolvedElements := make([]any, len(elements))
		for elementIndex, element := range elements {
			resolvedElement, resolveError := pipeline.resolveScalar(fieldName, element)
			if resolveError != nil {
				return nil, resolveError
			}
			resolvedElements[elementIndex] = resolvedElement
		}
		return resolvedElements, nil
	}
	return pipeline.resolveScalar(fieldName, argument)
}

func (pipeline *Pipeline) resolveScalar(fieldName string, argument any) (any, error) {
	functionName, isPlaceholder := registry.FunctionPlaceholder(argument)
	if !isPlaceholder {
		return connector.CloneValue(argument), nil
	}

	function, available := pipeline.registry.Function(functionName)
	if !available {
		return argument, nil
	}

	value, evaluationError := function()
	if evaluationError != nil {
		return nil, fmt.Errorf(functionEvaluationErrorTemplateConstant, functionName, fieldName, evaluationError)
	}
	return value, nil
}
