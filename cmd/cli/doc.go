// Package cli constructs the dbmigrator command-line interface, wiring the
// Cobra command hierarchy, the layered configuration loader and structured
// logging. The validate and migrate commands are contributed by the
// migration subpackage.
package cli
