package migration_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/dbmigrator/cmd/cli/migration"
)

func TestValidateCommand(testInstance *testing.T) {
	testCases := []struct {
		name             string
		targetConnector  string
		operator         string
		expectError      bool
		expectedSnippets []string
	}{
		{
			name:             "valid_plan",
			targetConnector:  "sqlite",
			operator:         "increment",
			expectedSnippets: []string{"migration plan is valid: 1 migrations"},
		},
		{
			name:             "unknown_operator",
			targetConnector:  "sqlite",
			operator:         "explode",
			expectError:      true,
			expectedSnippets: []string{"INVALID_OPERATOR: students: Invalid operator - explode"},
		},
		{
			name:            "unknown_target_connector",
			targetConnector: "cassandra",
			operator:        "increment",
			expectError:     true,
			expectedSnippets: []string{
				"INVALID_CONNECTOR: Invalid Connector - target connector is not configured",
			},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtest *testing.T) {
			planPath, _ := writePlan(subtest, testCase.targetConnector, testCase.operator)

			builder := migration.ValidateCommandBuilder{}
			command, buildError := builder.Build()
			require.NoError(subtest, buildError)

			output, executionError := executeCommand(subtest, command, []string{planPath})
			if testCase.expectError {
				require.Error(subtest, executionError)
				require.Contains(subtest, executionError.Error(), "validation errors")
			} else {
				require.NoError(subtest, executionError)
			}
			for _, snippet := range testCase.expectedSnippets {
				require.Contains(subtest, output, snippet)
			}
		})
	}
}

func TestValidateCommandReportsMissingPlanFile(testInstance *testing.T) {
	builder := migration.ValidateCommandBuilder{}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	_, executionError := executeCommand(testInstance, command, []string{"does-not-exist.yaml"})
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), "unable to load migration plan")
}
