package registry_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/dbmigrator/internal/connector"
	"github.com/temirov/dbmigrator/internal/registry"
)

const (
	testOperatorSubtestTemplateConstant = "%d_%s"
	testFieldNameConstant               = "field"
)

func TestBuiltinOperators(testInstance *testing.T) {
	testCases := []struct {
		name     string
		operator string
		record   connector.Record
		argument any
		expected connector.Record
	}{
		{name: "set_assigns", operator: "set", record: connector.Record{}, argument: 5, expected: connector.Record{testFieldNameConstant: 5}},
		{name: "set_overwrites", operator: "set", record: connector.Record{testFieldNameConstant: "old"}, argument: "new", expected: connector.Record{testFieldNameConstant: "new"}},
		{name: "unset_removes", operator: "unset", record: connector.Record{testFieldNameConstant: 1, "other": 2}, expected: connector.Record{"other": 2}},
		{name: "unset_absent_noop", operator: "unset", record: connector.Record{"other": 2}, expected: connector.Record{"other": 2}},
		{name: "rename_moves", operator: "rename", record: connector.Record{testFieldNameConstant: 1}, argument: "renamed", expected: connector.Record{"renamed": 1}},
		{name: "rename_absent_noop", operator: "rename", record: connector.Record{"other": 2}, argument: "renamed", expected: connector.Record{"other": 2}},
		{name: "rename_non_string_noop", operator: "rename", record: connector.Record{testFieldNameConstant: 1}, argument: 3, expected: connector.Record{testFieldNameConstant: 1}},
		{name: "set_default_absent", operator: "setDefault", record: connector.Record{}, argument: "x", expected: connector.Record{testFieldNameConstant: "x"}},
		{name: "set_default_present", operator: "setDefault", record: connector.Record{testFieldNameConstant: nil}, argument: "x", expected: connector.Record{testFieldNameConstant: nil}},
		{name: "set_if_empty_empty_string", operator: "setIfEmpty", record: connector.Record{testFieldNameConstant: ""}, argument: "x", expected: connector.Record{testFieldNameConstant: "x"}},
		{name: "set_if_empty_zero", operator: "setIfEmpty", record: connector.Record{testFieldNameConstant: 0}, argument: 9, expected: connector.Record{testFieldNameConstant: 9}},
		{name: "set_if_empty_filled", operator: "setIfEmpty", record: connector.Record{testFieldNameConstant: "kept"}, argument: "x", expected: connector.Record{testFieldNameConstant: "kept"}},
		{name: "set_if_empty_absent", operator: "setIfEmpty", record: connector.Record{}, argument: "x", expected: connector.Record{}},
		{name: "unset_if_empty_nil", operator: "unsetIfEmpty", record: connector.Record{testFieldNameConstant: nil}, expected: connector.Record{}},
		{name: "unset_if_empty_false", operator: "unsetIfEmpty", record: connector.Record{testFieldNameConstant: false}, expected: connector.Record{}},
		{name: "unset_if_empty_filled", operator: "unsetIfEmpty", record: connector.Record{testFieldNameConstant: true}, expected: connector.Record{testFieldNameConstant: true}},
		{name: "increment_int", operator: "increment", record: connector.Record{testFieldNameConstant: 1}, argument: 10, expected: connector.Record{testFieldNameConstant: 11}},
		{name: "increment_int32_keeps_type", operator: "increment", record: connector.Record{testFieldNameConstant: int32(1)}, argument: int64(2), expected: connector.Record{testFieldNameConstant: int32(3)}},
		{name: "increment_float", operator: "increment", record: connector.Record{testFieldNameConstant: 1}, argument: 0.5, expected: connector.Record{testFieldNameConstant: 1.5}},
		{name: "increment_string_noop", operator: "increment", record: connector.Record{testFieldNameConstant: "1"}, argument: 10, expected: connector.Record{testFieldNameConstant: "1"}},
		{name: "increment_absent_noop", operator: "increment", record: connector.Record{}, argument: 10, expected: connector.Record{}},
		{name: "increment_bool_argument_noop", operator: "increment", record: connector.Record{testFieldNameConstant: 1}, argument: true, expected: connector.Record{testFieldNameConstant: 1}},
		{name: "multiply_int", operator: "multiply", record: connector.Record{testFieldNameConstant: 3}, argument: 4, expected: connector.Record{testFieldNameConstant: 12}},
		{name: "multiply_float64", operator: "multiply", record: connector.Record{testFieldNameConstant: 2.5}, argument: 2, expected: connector.Record{testFieldNameConstant: 5.0}},
		{name: "multiply_array_noop", operator: "multiply", record: connector.Record{testFieldNameConstant: []any{1}}, argument: 2, expected: connector.Record{testFieldNameConstant: []any{1}}},
		{name: "min_replaces", operator: "min", record: connector.Record{testFieldNameConstant: 10}, argument: 3, expected: connector.Record{testFieldNameConstant: 3}},
		{name: "min_keeps", operator: "min", record: connector.Record{testFieldNameConstant: 1}, argument: 3, expected: connector.Record{testFieldNameConstant: 1}},
		{name: "max_replaces", operator: "max", record: connector.Record{testFieldNameConstant: 1}, argument: 3, expected: connector.Record{testFieldNameConstant: 3}},
		{name: "max_non_numeric_noop", operator: "max", record: connector.Record{testFieldNameConstant: "a"}, argument: 3, expected: connector.Record{testFieldNameConstant: "a"}},
		{name: "add_to_set_appends", operator: "addToSet", record: connector.Record{testFieldNameConstant: []any{"a"}}, argument: "b", expected: connector.Record{testFieldNameConstant: []any{"a", "b"}}},
		{name: "add_to_set_dedups", operator: "addToSet", record: connector.Record{testFieldNameConstant: []any{"a", 1}}, argument: int64(1), expected: connector.Record{testFieldNameConstant: []any{"a", 1}}},
		{name: "add_to_set_non_array_noop", operator: "addToSet", record: connector.Record{testFieldNameConstant: "a"}, argument: "b", expected: connector.Record{testFieldNameConstant: "a"}},
		{name: "push_appends_duplicates", operator: "push", record: connector.Record{testFieldNameConstant: []any{"a"}}, argument: "a", expected: connector.Record{testFieldNameConstant: []any{"a", "a"}}},
		{name: "push_absent_noop", operator: "push", record: connector.Record{}, argument: "a", expected: connector.Record{}},
		{name: "pop_last", operator: "pop", record: connector.Record{testFieldNameConstant: []any{1, 2, 3}}, argument: 1, expected: connector.Record{testFieldNameConstant: []any{1, 2}}},
		{name: "pop_first", operator: "pop", record: connector.Record{testFieldNameConstant: []any{1, 2, 3}}, argument: -1, expected: connector.Record{testFieldNameConstant: []any{2, 3}}},
		{name: "pop_invalid_direction_noop", operator: "pop", record: connector.Record{testFieldNameConstant: []any{1, 2}}, argument: 2, expected: connector.Record{testFieldNameConstant: []any{1, 2}}},
		{name: "pop_empty_noop", operator: "pop", record: connector.Record{testFieldNameConstant: []any{}}, argument: 1, expected: connector.Record{testFieldNameConstant: []any{}}},
		{name: "pull_first_occurrence", operator: "pull", record: connector.Record{testFieldNameConstant: []any{"a", "b", "a"}}, argument: "a", expected: connector.Record{testFieldNameConstant: []any{"b", "a"}}},
		{name: "pull_missing_noop", operator: "pull", record: connector.Record{testFieldNameConstant: []any{"a"}}, argument: "z", expected: connector.Record{testFieldNameConstant: []any{"a"}}},
		{name: "pull_all_removes_every_match", operator: "pullAll", record: connector.Record{testFieldNameConstant: []any{"a", "b", "a", "c"}}, argument: []any{"a", "c"}, expected: connector.Record{testFieldNameConstant: []any{"b"}}},
		{name: "pull_all_non_array_argument_noop", operator: "pullAll", record: connector.Record{testFieldNameConstant: []any{"a"}}, argument: "a", expected: connector.Record{testFieldNameConstant: []any{"a"}}},
		{name: "alias_inc", operator: "$inc", record: connector.Record{testFieldNameConstant: 1}, argument: 1, expected: connector.Record{testFieldNameConstant: 2}},
	}

	registryInstance := registry.NewDefault()

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testOperatorSubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			operator, available := registryInstance.Operator(testCase.operator)
			require.True(testInstance, available)

			operator(testCase.record, testFieldNameConstant, testCase.argument)
			require.Equal(testInstance, testCase.expected, testCase.record)
		})
	}
}

func TestSetOperatorIsIdempotent(testInstance *testing.T) {
	operator, _ := registry.NewDefault().Operator("set")

	appliedOnce := connector.Record{"name": "ada"}
	operator(appliedOnce, "age", 36)

	appliedTwice := connector.Record{"name": "ada"}
	operator(appliedTwice, "age", 36)
	operator(appliedTwice, "age", 36)

	require.Equal(testInstance, appliedOnce, appliedTwice)
}

func TestRenameOperatorDoesNotCreateTarget(testInstance *testing.T) {
	operator, _ := registry.NewDefault().Operator("rename")

	record := connector.Record{"other": 1}
	operator(record, "missing", "target")

	_, targetExists := record["target"]
	require.False(testInstance, targetExists)
}
