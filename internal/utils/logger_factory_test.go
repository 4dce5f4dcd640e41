package utils_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/dbmigrator/internal/utils"
)

const (
	testDebugMessageConstant = "batch fetched"
	testErrorMessageConstant = "migration failed"
	testFieldNameConstant    = "migration_name"
	testFieldValueConstant   = "students"
)

// captureStandardError runs emit with os.Stderr redirected and returns the non-empty output lines.
func captureStandardError(testInstance *testing.T, emit func() error) ([]string, error) {
	testInstance.Helper()
	pipeReader, pipeWriter, pipeError := os.Pipe()
	require.NoError(testInstance, pipeError)

	originalStandardError := os.Stderr
	os.Stderr = pipeWriter
	emitError := emit()
	os.Stderr = originalStandardError

	require.NoError(testInstance, pipeWriter.Close())
	capturedOutput, readError := io.ReadAll(pipeReader)
	require.NoError(testInstance, readError)
	require.NoError(testInstance, pipeReader.Close())

	lines := make([]string, 0)
	for _, line := range bytes.Split(capturedOutput, []byte("\n")) {
		if trimmed := strings.TrimSpace(string(line)); len(trimmed) > 0 {
			lines = append(lines, trimmed)
		}
	}
	return lines, emitError
}

func TestLoggerFactoryCreateLogger(testInstance *testing.T) {
	testCases := []struct {
		name               string
		requestedLogLevel  utils.LogLevel
		requestedLogFormat utils.LogFormat
		expectError        bool
		expectedLineCount  int
		expectJSON         bool
	}{
		{name: "debug_structured_keeps_debug", requestedLogLevel: utils.LogLevelDebug, requestedLogFormat: utils.LogFormatStructured, expectedLineCount: 2, expectJSON: true},
		{name: "info_structured_drops_debug", requestedLogLevel: utils.LogLevelInfo, requestedLogFormat: utils.LogFormatStructured, expectedLineCount: 1, expectJSON: true},
		{name: "info_console", requestedLogLevel: utils.LogLevelInfo, requestedLogFormat: utils.LogFormatConsole, expectedLineCount: 1},
		{name: "mixed_case_values", requestedLogLevel: utils.LogLevel(" WARN "), requestedLogFormat: utils.LogFormat("Console"), expectedLineCount: 1},
		{name: "unsupported_log_level", requestedLogLevel: utils.LogLevel("verbose"), requestedLogFormat: utils.LogFormatStructured, expectError: true},
		{name: "unsupported_log_format", requestedLogLevel: utils.LogLevelInfo, requestedLogFormat: utils.LogFormat("xml"), expectError: true},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtest *testing.T) {
			var logger *zap.Logger
			lines, creationError := captureStandardError(subtest, func() error {
				var buildError error
				logger, buildError = utils.NewLoggerFactory().CreateLogger(testCase.requestedLogLevel, testCase.requestedLogFormat)
				if buildError != nil {
					return buildError
				}
				logger.Debug(testDebugMessageConstant)
				logger.Error(testErrorMessageConstant, zap.String(testFieldNameConstant, testFieldValueConstant))
				if syncError := logger.Sync(); syncError != nil && !errors.Is(syncError, syscall.ENOTSUP) && !errors.Is(syncError, syscall.EINVAL) {
					return syncError
				}
				return nil
			})

			if testCase.expectError {
				require.Error(subtest, creationError)
				require.Nil(subtest, logger)
				return
			}

			require.NoError(subtest, creationError)
			require.Len(subtest, lines, testCase.expectedLineCount)
			errorLine := lines[len(lines)-1]
			require.Contains(subtest, errorLine, testErrorMessageConstant)
			require.Contains(subtest, errorLine, testFieldValueConstant)

			if !testCase.expectJSON {
				require.False(subtest, json.Valid([]byte(errorLine)))
				require.Contains(subtest, errorLine, "ERROR")
				return
			}

			var decoded map[string]any
			require.NoError(subtest, json.Unmarshal([]byte(errorLine), &decoded))
			require.Equal(subtest, "error", decoded["level"])
			require.Equal(subtest, testFieldValueConstant, decoded[testFieldNameConstant])
			require.Regexp(subtest, `^\d{4}-\d{2}-\d{2}T`, decoded["ts"])
		})
	}
}

func TestParseLogSettings(testInstance *testing.T) {
	parsedLevel, levelError := utils.ParseLogLevel(" Debug")
	require.NoError(testInstance, levelError)
	require.Equal(testInstance, utils.LogLevelDebug, parsedLevel)

	parsedFormat, formatError := utils.ParseLogFormat("STRUCTURED")
	require.NoError(testInstance, formatError)
	require.Equal(testInstance, utils.LogFormatStructured, parsedFormat)

	_, invalidLevelError := utils.ParseLogLevel("verbose")
	require.Error(testInstance, invalidLevelError)

	_, invalidFormatError := utils.ParseLogFormat("xml")
	require.Error(testInstance, invalidFormatError)

	require.Equal(testInstance, []string{"debug", "info", "warn", "error"}, utils.LogLevelNames())
	require.Equal(testInstance, []string{"structured", "console"}, utils.LogFormatNames())
}
