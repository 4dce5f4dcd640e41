// Package registry holds the connectors, field operators, and named value
// functions a migration may reference by name.
//
// A Registry is an explicit value owned by the caller rather than package-level
// state, so independent engines and tests can coexist in one process. It is
// populated at initialization time, either entry by entry or through Module
// bundles, and must not be mutated while a migration runs.
package registry
