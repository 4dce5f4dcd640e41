package migration

import "strings"

const (
	ignoreDuplicatesConfigurationKeyConstant = "ignore_duplicates"
	writeConcurrencyConfigurationKeyConstant = "write_concurrency"
	planConfigurationKeyConstant             = "plan"
	configurationKeySeparatorConstant        = "."
)

// CommandConfiguration captures configuration values for the migration commands.
type CommandConfiguration struct {
	Plan             string `mapstructure:"plan"`
	IgnoreDuplicates bool   `mapstructure:"ignore_duplicates"`
	WriteConcurrency int    `mapstructure:"write_concurrency"`
}

// DefaultCommandConfiguration provides default settings for the migration commands.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{}
}

// DefaultConfigurationValues returns the defaults keyed under the given configuration prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		prefixedKey(prefix, planConfigurationKeyConstant):             defaults.Plan,
		prefixedKey(prefix, ignoreDuplicatesConfigurationKeyConstant): defaults.IgnoreDuplicates,
		prefixedKey(prefix, writeConcurrencyConfigurationKeyConstant): defaults.WriteConcurrency,
	}
}

// Sanitize normalizes configuration values.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Plan = strings.TrimSpace(configuration.Plan)
	if sanitized.WriteConcurrency < 0 {
		sanitized.WriteConcurrency = 0
	}
	return sanitized
}

func prefixedKey(prefix string, key string) string {
	trimmedPrefix := strings.TrimSpace(prefix)
	if len(trimmedPrefix) == 0 {
		return key
	}
	return trimmedPrefix + configurationKeySeparatorConstant + key
}
