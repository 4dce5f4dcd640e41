// Package engine runs migrations: it counts the matching source records, pages
// through them in batches, rewrites each record through the transform pipeline
// and stores the results in the target with bounded concurrency per batch.
package engine
