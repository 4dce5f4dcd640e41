// Package mongo connects the migration engine to MongoDB through the official driver.
// Sources are read with find queries or aggregation pipelines; targets receive one
// InsertOne per record.
package mongo
