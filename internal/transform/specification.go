package transform

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/temirov/dbmigrator/internal/connector"
)

const (
	propertiesMappingRequiredTemplateConstant   = "line %d: properties must be a mapping of field names to operators"
	operatorsMappingRequiredTemplateConstant    = "line %d: operators for field %q must be a mapping"
	operatorArgumentDecodeErrorTemplateConstant = "line %d: operator %q for field %q: %w"
)

// Override replaces the field mapping with a single function over the whole record.
type Override func(record connector.Record) connector.Record

// Operation applies one named operator with its argument.
type Operation struct {
	Operator string
	Argument any
}

// FieldTransformation lists the operations applied to one field, in declaration order.
type FieldTransformation struct {
	Field      string
	Operations []Operation
}

// Specification describes how every record of a migration is rewritten.
// Override takes precedence over Fields when both are set.
type Specification struct {
	Override Override
	Fields   []FieldTransformation
}

// HasOverride reports whether the specification replaces records through an override function.
func (specification Specification) HasOverride() bool {
	return specification.Override != nil
}

// IsEmpty reports whether applying the specification leaves records unchanged.
func (specification Specification) IsEmpty() bool {
	return specification.Override == nil && len(specification.Fields) == 0
}

// Field appends a field transformation and returns the extended specification.
func (specification Specification) Field(fieldName string, operations ...Operation) Specification {
	extended := specification
	extended.Fields = append(append([]FieldTransformation{}, specification.Fields...), FieldTransformation{
		Field:      fieldName,
		Operations: append([]Operation{}, operations...),
	})
	return extended
}

// Apply builds an Operation for the operator name and argument.
func Apply(operatorName string, argument any) Operation {
	return Operation{Operator: operatorName, Argument: argument}
}

// UnmarshalYAML decodes a properties mapping while preserving the document order of
// fields and of operators within each field.
func (specification *Specification) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*specification = Specification{}
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf(propertiesMappingRequiredTemplateConstant, node.Line)
	}

	fields := make([]FieldTransformation, 0, len(node.Content)/2)
	for fieldIndex := 0; fieldIndex+1 < len(node.Content); fieldIndex += 2 {
		fieldNode := node.Content[fieldIndex]
		operatorsNode := node.Content[fieldIndex+1]

		fieldTransformation := FieldTransformation{Field: fieldNode.Value}
		if operatorsNode.Kind == yaml.ScalarNode && operatorsNode.Tag == "!!null" {
			fields = append(fields, fieldTransformation)
			continue
		}
		if operatorsNode.Kind != yaml.MappingNode {
			return fmt.Errorf(operatorsMappingRequiredTemplateConstant, operatorsNode.Line, fieldNode.Value)
		}

		for operatorIndex := 0; operatorIndex+1 < len(operatorsNode.Content); operatorIndex += 2 {
			operatorNode := operatorsNode.Content[operatorIndex]
			argumentNode := operatorsNode.Content[operatorIndex+1]

			var argument any
			if decodeError := argumentNode.Decode(&argument); decodeError != nil {
				return fmt.Errorf(operatorArgumentDecodeErrorTemplateConstant, argumentNode.Line, operatorNode.Value, fieldNode.Value, decodeError)
			}
			fieldTransformation.Operations = append(fieldTransformation.Operations, Operation{
				Operator: operatorNode.Value,
				Argument: argument,
			})
		}
		fields = append(fields, fieldTransformation)
	}

	*specification = Specification{Fields: fields}
	return nil
}
