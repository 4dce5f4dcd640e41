// Package connector defines the contract every source and target store adapter
// satisfies, together with the record and locator types exchanged with the
// migration engine and the error kinds adapters report.
//
// The engine, validation service, and transform pipeline are written only
// against this package; concrete stores live under internal/connectors.
package connector
