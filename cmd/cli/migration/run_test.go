package migration_test

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/dbmigrator/cmd/cli/migration"
)

const (
	planFileNameConstant            = "plan.yaml"
	targetDatabaseFileNameConstant  = "target.db"
	createTargetTableConstant       = "CREATE TABLE students_copy (_id TEXT PRIMARY KEY, name TEXT, age INTEGER)"
	insertExistingStudentConstant   = "INSERT INTO students_copy (_id, name, age) VALUES ('s1', 'existing', 1)"
	selectStudentsConstant          = "SELECT _id, name, age FROM students_copy ORDER BY _id"
	usageSnippetConstant            = "Usage:"
	ignoreDuplicatesFlagConstant    = "--ignore-duplicates"
	writeConcurrencyOneFlagConstant = "--write-concurrency=1"
	planTemplateConstant            = `source:
  connector: memory
  configuration:
    database: school
    collections:
      students:
        - {_id: s1, name: ada, age: 10}
        - {_id: s2, name: grace, age: 20}
        - {_id: s3, name: linus, age: 30}
target:
  connector: %s
  configuration:
    dsn: %s
migrations:
  - name: students
    from: {collection: students, batch: 2}
    to: {collection: students_copy}
    properties:
      age: {%s: 1}
`
)

type storedStudent struct {
	identifier string
	name       string
	age        int
}

func writePlan(testInstance *testing.T, targetConnector string, operator string) (string, string) {
	testInstance.Helper()
	directory := testInstance.TempDir()
	databasePath := filepath.Join(directory, targetDatabaseFileNameConstant)

	database, openError := sql.Open("sqlite3", databasePath)
	require.NoError(testInstance, openError)
	_, createError := database.Exec(createTargetTableConstant)
	require.NoError(testInstance, createError)
	require.NoError(testInstance, database.Close())

	planPath := filepath.Join(directory, planFileNameConstant)
	planContent := fmt.Sprintf(planTemplateConstant, targetConnector, databasePath, operator)
	require.NoError(testInstance, os.WriteFile(planPath, []byte(planContent), 0o644))
	return planPath, databasePath
}

func readStudents(testInstance *testing.T, databasePath string) []storedStudent {
	testInstance.Helper()
	database, openError := sql.Open("sqlite3", databasePath)
	require.NoError(testInstance, openError)
	defer database.Close()

	rows, queryError := database.Query(selectStudentsConstant)
	require.NoError(testInstance, queryError)
	defer rows.Close()

	students := make([]storedStudent, 0)
	for rows.Next() {
		var student storedStudent
		require.NoError(testInstance, rows.Scan(&student.identifier, &student.name, &student.age))
		students = append(students, student)
	}
	require.NoError(testInstance, rows.Err())
	return students
}

func executeCommand(testInstance *testing.T, command *cobra.Command, arguments []string) (string, error) {
	testInstance.Helper()
	var outputBuffer bytes.Buffer
	command.SetOut(&outputBuffer)
	command.SetErr(&outputBuffer)
	command.SetContext(context.Background())
	command.SetArgs(append([]string{}, arguments...))
	executionError := command.Execute()
	return outputBuffer.String(), executionError
}

func TestMigrateCommandCopiesRecords(testInstance *testing.T) {
	planPath, databasePath := writePlan(testInstance, "sqlite", "increment")

	builder := migration.MigrateCommandBuilder{
		LoggerProvider:               func() *zap.Logger { return zap.NewNop() },
		HumanReadableLoggingProvider: func() bool { return true },
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, command, []string{planPath})
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, output, "Migrating students")
	require.Contains(testInstance, output, "DbMigrator :: students :: Fetched 2 and Migrated 2 of 3")
	require.Contains(testInstance, output, "Completed students: Fetched 3 and Migrated 3 of 3")

	require.Equal(testInstance, []storedStudent{
		{identifier: "s1", name: "ada", age: 11},
		{identifier: "s2", name: "grace", age: 21},
		{identifier: "s3", name: "linus", age: 31},
	}, readStudents(testInstance, databasePath))
}

func TestMigrateCommandDuplicatePrecedence(testInstance *testing.T) {
	testCases := []struct {
		name             string
		configuration    migration.CommandConfiguration
		additionalArgs   []string
		expectError      bool
		expectedStudents int
	}{
		{
			name:             "duplicates_fail_by_default",
			additionalArgs:   []string{writeConcurrencyOneFlagConstant},
			expectError:      true,
			expectedStudents: 1,
		},
		{
			name:             "flag_ignores_duplicates",
			additionalArgs:   []string{ignoreDuplicatesFlagConstant},
			expectedStudents: 3,
		},
		{
			name:             "configuration_ignores_duplicates",
			configuration:    migration.CommandConfiguration{IgnoreDuplicates: true},
			expectedStudents: 3,
		},
		{
			name:             "flag_overrides_configuration",
			configuration:    migration.CommandConfiguration{IgnoreDuplicates: true},
			additionalArgs:   []string{ignoreDuplicatesFlagConstant + "=false", writeConcurrencyOneFlagConstant},
			expectError:      true,
			expectedStudents: 1,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtest *testing.T) {
			planPath, databasePath := writePlan(subtest, "sqlite", "increment")
			database, openError := sql.Open("sqlite3", databasePath)
			require.NoError(subtest, openError)
			_, insertError := database.Exec(insertExistingStudentConstant)
			require.NoError(subtest, insertError)
			require.NoError(subtest, database.Close())

			builder := migration.MigrateCommandBuilder{
				ConfigurationProvider: func() migration.CommandConfiguration { return testCase.configuration },
			}
			command, buildError := builder.Build()
			require.NoError(subtest, buildError)

			_, executionError := executeCommand(subtest, command, append([]string{planPath}, testCase.additionalArgs...))
			if testCase.expectError {
				require.Error(subtest, executionError)
				require.Contains(subtest, executionError.Error(), `migration "students" failed`)
			} else {
				require.NoError(subtest, executionError)
			}
			require.Len(subtest, readStudents(subtest, databasePath), testCase.expectedStudents)
		})
	}
}

func TestMigrateCommandRejectsInvalidPlan(testInstance *testing.T) {
	planPath, databasePath := writePlan(testInstance, "sqlite", "explode")

	builder := migration.MigrateCommandBuilder{}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, command, []string{planPath})
	require.Error(testInstance, executionError)
	require.Contains(testInstance, output, "INVALID_OPERATOR: students: Invalid operator - explode")
	require.Empty(testInstance, readStudents(testInstance, databasePath))
}

func TestMigrateCommandUsesConfiguredPlan(testInstance *testing.T) {
	planPath, databasePath := writePlan(testInstance, "sqlite", "multiply")

	builder := migration.MigrateCommandBuilder{
		ConfigurationProvider: func() migration.CommandConfiguration {
			return migration.CommandConfiguration{Plan: "  " + planPath + "  "}
		},
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	_, executionError := executeCommand(testInstance, command, nil)
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, []int{10, 20, 30}, studentAges(readStudents(testInstance, databasePath)))
}

func TestMigrateCommandRequiresPlan(testInstance *testing.T) {
	builder := migration.MigrateCommandBuilder{}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, command, nil)
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), "migration plan path required")
	require.Contains(testInstance, output, usageSnippetConstant)
}

func studentAges(students []storedStudent) []int {
	ages := make([]int, 0, len(students))
	for _, student := range students {
		ages = append(ages, student.age)
	}
	return ages
}
