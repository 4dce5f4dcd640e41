// Package migration provides the validate and migrate commands, which load a migration
// plan, connect its source and target connectors through the registry and hand the
// migrations to the validation service and the engine.
package migration
