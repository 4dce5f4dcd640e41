package registry

import (
	"math"
	"reflect"
)

// numeric captures a record value that participates in arithmetic operators.
type numeric struct {
	original  reflect.Type
	integer   int64
	float     float64
	isInteger bool
}

func asNumeric(value any) (numeric, bool) {
	if value == nil {
		return numeric{}, false
	}
	reflected := reflect.ValueOf(value)
	switch reflected.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		integerValue := reflected.Int()
		return numeric{original: reflected.Type(), integer: integerValue, float: float64(integerValue), isInteger: true}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		integerValue := int64(reflected.Uint())
		return numeric{original: reflected.Type(), integer: integerValue, float: float64(integerValue), isInteger: true}, true
	case reflect.Float32, reflect.Float64:
		return numeric{original: reflected.Type(), float: reflected.Float()}, true
	default:
		return numeric{}, false
	}
}

// fromInteger keeps the original integer type of the field.
func (value numeric) fromInteger(result int64) any {
	return reflect.ValueOf(result).Convert(value.original).Interface()
}

// fromFloat keeps float fields in their type and widens integer fields to float64.
func (value numeric) fromFloat(result float64) any {
	if value.isInteger {
		return result
	}
	return reflect.ValueOf(result).Convert(value.original).Interface()
}

func isEmptyValue(value any) bool {
	if value == nil {
		return true
	}
	if numericValue, isNumber := asNumeric(value); isNumber {
		return numericValue.float == 0 || math.IsNaN(numericValue.float)
	}
	reflected := reflect.ValueOf(value)
	switch reflected.Kind() {
	case reflect.Bool:
		return !reflected.Bool()
	case reflect.String, reflect.Slice, reflect.Map:
		return reflected.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return reflected.IsNil()
	default:
		return false
	}
}

// valuesEqual compares numbers by value across numeric types and everything else deeply.
func valuesEqual(left any, right any) bool {
	leftNumber, leftIsNumber := asNumeric(left)
	rightNumber, rightIsNumber := asNumeric(right)
	if leftIsNumber && rightIsNumber {
		if leftNumber.isInteger && rightNumber.isInteger {
			return leftNumber.integer == rightNumber.integer
		}
		return leftNumber.float == rightNumber.float
	}
	return reflect.DeepEqual(left, right)
}

func indexOfValue(elements []any, candidate any) int {
	for elementIndex, element := range elements {
		if valuesEqual(element, candidate) {
			return elementIndex
		}
	}
	return -1
}
