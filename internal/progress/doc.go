// Package progress renders migration engine statistics either as structured log
// entries or as a single self-updating console line.
package progress
