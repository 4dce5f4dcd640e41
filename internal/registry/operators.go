package registry

import (
	"github.com/temirov/dbmigrator/internal/connector"
)

const (
	popLastDirectionConstant  = 1
	popFirstDirectionConstant = -1
)

func setOperator(record connector.Record, fieldName string, argument any) {
	record[fieldName] = argument
}

func unsetOperator(record connector.Record, fieldName string, _ any) {
	delete(record, fieldName)
}

func renameOperator(record connector.Record, fieldName string, argument any) {
	targetName, isString := argument.(string)
	if !isString || len(targetName) == 0 || targetName == fieldName {
		return
	}
	fieldValue, exists := record[fieldName]
	if !exists {
		return
	}
	record[targetName] = fieldValue
	delete(record, fieldName)
}

func setDefaultOperator(record connector.Record, fieldName string, argument any) {
	if _, exists := record[fieldName]; exists {
		return
	}
	record[fieldName] = argument
}

func setIfEmptyOperator(record connector.Record, fieldName string, argument any) {
	fieldValue, exists := record[fieldName]
	if !exists || !isEmptyValue(fieldValue) {
		return
	}
	record[fieldName] = argument
}

func unsetIfEmptyOperator(record connector.Record, fieldName string, _ any) {
	fieldValue, exists := record[fieldName]
	if !exists || !isEmptyValue(fieldValue) {
		return
	}
	delete(record, fieldName)
}

func incrementOperator(record connector.Record, fieldName string, argument any) {
	applyArithmetic(record, fieldName, argument,
		func(current int64, operand int64) int64 { return current + operand },
		func(current float64, operand float64) float64 { return current + operand },
	)
}

func multiplyOperator(record connector.Record, fieldName string, argument any) {
	applyArithmetic(record, fieldName, argument,
		func(current int64, operand int64) int64 { return current * operand },
		func(current float64, operand float64) float64 { return current * operand },
	)
}

func minOperator(record connector.Record, fieldName string, argument any) {
	applyComparison(record, fieldName, argument, func(current float64, operand float64) bool { return operand < current })
}

func maxOperator(record connector.Record, fieldName string, argument any) {
	applyComparison(record, fieldName, argument, func(current float64, operand float64) bool { return operand > current })
}

func addToSetOperator(record connector.Record, fieldName string, argument any) {
	elements, isArray := record[fieldName].([]any)
	if !isArray || indexOfValue(elements, argument) >= 0 {
		return
	}
	record[fieldName] = append(elements, argument)
}

func pushOperator(record connector.Record, fieldName string, argument any) {
	elements, isArray := record[fieldName].([]any)
	if !isArray {
		return
	}
	record[fieldName] = append(elements, argument)
}

func popOperator(record connector.Record, fieldName string, argument any) {
	elements, isArray := record[fieldName].([]any)
	direction, isNumber := asNumeric(argument)
	if !isArray || !isNumber || len(elements) == 0 {
		return
	}
	switch direction.float {
	case popLastDirectionConstant:
		record[fieldName] = elements[:len(elements)-1]
	case popFirstDirectionConstant:
		record[fieldName] = elements[1:]
	}
}

func pullOperator(record connector.Record, fieldName string, argument any) {
	elements, isArray := record[fieldName].([]any)
	if !isArray {
		return
	}
	elementIndex := indexOfValue(elements, argument)
	if elementIndex < 0 {
		return
	}
	remaining := make([]any, 0, len(elements)-1)
	remaining = append(remaining, elements[:elementIndex]...)
	remaining = append(remaining, elements[elementIndex+1:]...)
	record[fieldName] = remaining
}

func pullAllOperator(record connector.Record, fieldName string, argument any) {
	elements, isArray := record[fieldName].([]any)
	removals, removalsIsArray := argument.([]any)
	if !isArray || !removalsIsArray {
		return
	}
	remaining := make([]any, 0, len(elements))
	for _, element := range elements {
		if indexOfValue(removals, element) >= 0 {
			continue
		}
		remaining = append(remaining, element)
	}
	record[fieldName] = remaining
}

func applyArithmetic(record connector.Record, fieldName string, argument any, integerOperation func(int64, int64) int64, floatOperation func(float64, float64) float64) {
	current, currentIsNumber := asNumeric(record[fieldName])
	operand, operandIsNumber := asNumeric(argument)
	if !currentIsNumber || !operandIsNumber {
		return
	}
	if current.isInteger && operand.isInteger {
		record[fieldName] = current.fromInteger(integerOperation(current.integer, operand.integer))
		return
	}
	record[fieldName] = current.fromFloat(floatOperation(current.float, operand.float))
}

func applyComparison(record connector.Record, fieldName string, argument any, replaces func(float64, float64) bool) {
	current, currentIsNumber := asNumeric(record[fieldName])
	operand, operandIsNumber := asNumeric(argument)
	if !currentIsNumber || !operandIsNumber {
		return
	}
	if replaces(current.float, operand.float) {
		record[fieldName] = argument
	}
}
