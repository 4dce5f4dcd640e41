// Package plan defines named migration specifications and loads migration plans
// (source and target connector bindings plus an ordered list of migrations) from
// YAML or JSON documents.
package plan
