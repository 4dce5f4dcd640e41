// Package utils hosts the CLI plumbing shared by every command: the viper-backed
// ConfigurationLoader with .env support, the zap LoggerFactory, context accessors
// for invocation metadata and a FlushingWriter for console progress output.
package utils
