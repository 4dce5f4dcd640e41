// Package flags binds the shared dbmigrator flags to Cobra commands.
package flags

import (
	"github.com/spf13/cobra"
)

const (
	// IgnoreDuplicatesFlagName names the flag that counts duplicate-key writes as ignored.
	IgnoreDuplicatesFlagName = "ignore-duplicates"
	// IgnoreDuplicatesFlagUsage describes the ignore-duplicates flag.
	IgnoreDuplicatesFlagUsage = "Count records rejected as duplicates by the target as ignored instead of failing"
	// WriteConcurrencyFlagName names the flag bounding concurrent writes per batch.
	WriteConcurrencyFlagName = "write-concurrency"
	// WriteConcurrencyFlagUsage describes the write-concurrency flag.
	WriteConcurrencyFlagUsage = "Maximum concurrent writes within a batch (0 means unbounded)"
)

// MigrationFlagValues stores the values of the migration flags.
type MigrationFlagValues struct {
	IgnoreDuplicates bool
	WriteConcurrency int
}

// BindMigrationFlags attaches the migration flags to the command's local flag set.
func BindMigrationFlags(command *cobra.Command, defaults MigrationFlagValues) *MigrationFlagValues {
	values := defaults
	if command == nil {
		return &values
	}

	flagSet := command.Flags()
	flagSet.BoolVar(&values.IgnoreDuplicates, IgnoreDuplicatesFlagName, defaults.IgnoreDuplicates, IgnoreDuplicatesFlagUsage)
	flagSet.IntVar(&values.WriteConcurrency, WriteConcurrencyFlagName, defaults.WriteConcurrency, WriteConcurrencyFlagUsage)
	return &values
}
