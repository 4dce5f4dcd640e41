package migration

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/dbmigrator/internal/connectors/memory"
	"github.com/temirov/dbmigrator/internal/connectors/mongo"
	"github.com/temirov/dbmigrator/internal/connectors/sqlstore"
	"github.com/temirov/dbmigrator/internal/registry"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// RegistryFactory builds the registry holding the connectors, operators and functions a command may use.
type RegistryFactory func(logger *zap.Logger) (*registry.Registry, error)

// DefaultRegistry returns the built-in operators and functions plus the memory, MongoDB and SQL connectors.
func DefaultRegistry(logger *zap.Logger) (*registry.Registry, error) {
	registryInstance := registry.NewDefault()
	for _, module := range []registry.Module{memory.Module(), mongo.Module(logger), sqlstore.Module(logger)} {
		if loadError := registryInstance.LoadModule(module); loadError != nil {
			return nil, loadError
		}
	}
	return registryInstance, nil
}

// DeterminePlanPath selects the migration plan path from the positional arguments or configuration.
func DeterminePlanPath(arguments []string, configuredPlanPath string) string {
	if len(arguments) > 0 {
		if trimmed := strings.TrimSpace(arguments[0]); len(trimmed) > 0 {
			return trimmed
		}
	}
	return strings.TrimSpace(configuredPlanPath)
}

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func resolveRegistryFactory(factory RegistryFactory) RegistryFactory {
	if factory == nil {
		return DefaultRegistry
	}
	return factory
}

func resolveConfiguration(provider func() CommandConfiguration) CommandConfiguration {
	if provider == nil {
		return DefaultCommandConfiguration()
	}
	return provider().Sanitize()
}

func humanReadable(provider func() bool) bool {
	return provider != nil && provider()
}

func displayCommandHelp(command *cobra.Command) error {
	if command == nil {
		return nil
	}
	return command.Help()
}
