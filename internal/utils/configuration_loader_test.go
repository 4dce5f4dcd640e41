package utils_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/dbmigrator/internal/utils"
)

const (
	testEnvironmentPrefixConstant     = "TESTDBMIGRATOR"
	testConfigurationNameConstant     = "config"
	testConfigurationTypeConstant     = "yaml"
	testConfigurationFileNameConstant = "config.yaml"
	testLayerTemplateConstant         = "common:\n  log_level: %s\ntools:\n  migration:\n    write_concurrency: %d\n"
	testLogLevelKeyConstant           = "common.log_level"
	testWriteConcurrencyKeyConstant   = "tools.migration.write_concurrency"
	testLogLevelVariableConstant      = testEnvironmentPrefixConstant + "_COMMON_LOG_LEVEL"
	testTimeoutVariableConstant       = testEnvironmentPrefixConstant + "_TIMEOUT"
)

type loaderFixture struct {
	Common struct {
		LogLevel string `mapstructure:"log_level"`
	} `mapstructure:"common"`
	Tools struct {
		Migration struct {
			WriteConcurrency int `mapstructure:"write_concurrency"`
		} `mapstructure:"migration"`
	} `mapstructure:"tools"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type loaderLayer struct {
	logLevel         string
	writeConcurrency int
}

func (layer loaderLayer) render() []byte {
	return []byte(fmt.Sprintf(testLayerTemplateConstant, layer.logLevel, layer.writeConcurrency))
}

func TestConfigurationLoaderLayerPrecedence(testInstance *testing.T) {
	testCases := []struct {
		name                     string
		embedded                 *loaderLayer
		file                     *loaderLayer
		environmentLogLevel      string
		expectedLogLevel         string
		expectedWriteConcurrency int
	}{
		{name: "defaults_only", expectedLogLevel: "info", expectedWriteConcurrency: 0},
		{name: "embedded_over_defaults", embedded: &loaderLayer{logLevel: "debug", writeConcurrency: 2}, expectedLogLevel: "debug", expectedWriteConcurrency: 2},
		{name: "file_over_embedded", embedded: &loaderLayer{logLevel: "debug", writeConcurrency: 2}, file: &loaderLayer{logLevel: "warn", writeConcurrency: 8}, expectedLogLevel: "warn", expectedWriteConcurrency: 8},
		{name: "environment_over_file", file: &loaderLayer{logLevel: "warn", writeConcurrency: 8}, environmentLogLevel: "error", expectedLogLevel: "error", expectedWriteConcurrency: 8},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtest *testing.T) {
			if len(testCase.environmentLogLevel) > 0 {
				subtest.Setenv(testLogLevelVariableConstant, testCase.environmentLogLevel)
			}

			configurationFilePath := ""
			if testCase.file != nil {
				configurationFilePath = filepath.Join(subtest.TempDir(), testConfigurationFileNameConstant)
				require.NoError(subtest, os.WriteFile(configurationFilePath, testCase.file.render(), 0o600))
			}

			loader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{subtest.TempDir()})
			if testCase.embedded != nil {
				loader.SetEmbeddedConfiguration(testCase.embedded.render(), testConfigurationTypeConstant)
			}

			var loaded loaderFixture
			metadata, loadError := loader.LoadConfiguration(configurationFilePath, map[string]any{
				testLogLevelKeyConstant:         "info",
				testWriteConcurrencyKeyConstant: 0,
			}, &loaded)
			require.NoError(subtest, loadError)
			require.Equal(subtest, testCase.expectedLogLevel, loaded.Common.LogLevel)
			require.Equal(subtest, testCase.expectedWriteConcurrency, loaded.Tools.Migration.WriteConcurrency)
			require.Equal(subtest, configurationFilePath, metadata.ConfigFileUsed)
		})
	}
}

func TestConfigurationLoaderSearchPaths(testInstance *testing.T) {
	firstDirectory := testInstance.TempDir()
	secondDirectory := testInstance.TempDir()
	configurationFilePath := filepath.Join(secondDirectory, testConfigurationFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationFilePath, loaderLayer{logLevel: "debug", writeConcurrency: 3}.render(), 0o600))

	loader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{firstDirectory, secondDirectory})

	var loaded loaderFixture
	metadata, loadError := loader.LoadConfiguration("", map[string]any{testLogLevelKeyConstant: "info"}, &loaded)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, "debug", loaded.Common.LogLevel)
	require.Equal(testInstance, 3, loaded.Tools.Migration.WriteConcurrency)
	require.Equal(testInstance, configurationFilePath, metadata.ConfigFileUsed)
}

func TestConfigurationLoaderRejectsMalformedFile(testInstance *testing.T) {
	configurationFilePath := filepath.Join(testInstance.TempDir(), testConfigurationFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte("common: [unterminated"), 0o600))

	loader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, nil)
	_, loadError := loader.LoadConfiguration(configurationFilePath, nil, &loaderFixture{})
	require.Error(testInstance, loadError)
}

func TestConfigurationLoaderEnvironmentFiles(testInstance *testing.T) {
	testInstance.Cleanup(func() {
		require.NoError(testInstance, os.Unsetenv(testLogLevelVariableConstant))
		require.NoError(testInstance, os.Unsetenv(testTimeoutVariableConstant))
	})

	environmentFilePath := filepath.Join(testInstance.TempDir(), ".env")
	environmentContent := fmt.Sprintf("%s=error\n%s=90s\n", testLogLevelVariableConstant, testTimeoutVariableConstant)
	require.NoError(testInstance, os.WriteFile(environmentFilePath, []byte(environmentContent), 0o600))

	loader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{testInstance.TempDir()})
	loader.SetEnvironmentFiles([]string{environmentFilePath, "  "})

	var loaded loaderFixture
	metadata, loadError := loader.LoadConfiguration("", map[string]any{
		testLogLevelKeyConstant: "info",
		"timeout":               "5s",
	}, &loaded)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, "error", loaded.Common.LogLevel)
	require.Equal(testInstance, 90*time.Second, loaded.Timeout)
	require.Equal(testInstance, []string{environmentFilePath}, metadata.EnvironmentFilesLoaded)
}

func TestConfigurationLoaderMissingEnvironmentFile(testInstance *testing.T) {
	loader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, nil)
	loader.SetEnvironmentFiles([]string{filepath.Join(testInstance.TempDir(), "missing.env")})

	_, loadError := loader.LoadConfiguration("", nil, &loaderFixture{})
	require.Error(testInstance, loadError)
}
