// Package sqlstore connects the migration engine to relational databases through
// database/sql. Tables play the role of collections, rows the role of records and
// the source query is an equality filter over columns.
package sqlstore
