// Package transform applies declarative per-field rewrites to migration records.
//
// A Specification is either an override function that replaces the record
// wholesale or an ordered list of fields, each carrying an ordered list of
// operator applications. Operators and "fn.<name>" argument placeholders are
// resolved through a registry.Registry each time a record is transformed.
package transform
