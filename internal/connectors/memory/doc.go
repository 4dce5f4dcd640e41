// Package memory provides an in-process connector backed by named collections.
// It serves dry runs and tests, and can be seeded from plan configuration.
package memory
