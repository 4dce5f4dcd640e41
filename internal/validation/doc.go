// Package validation statically checks migration specifications before any
// records are read. It accumulates every problem it finds instead of stopping at
// the first one and delegates store-specific locator checks to the bound source
// and target connectors.
package validation
