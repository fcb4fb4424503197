// Package cmd provides the command-line interface for ecohtml.
//
// This package implements the CLI commands using the Cobra framework. Each
// command loads its configuration through a fresh viper instance, so flags,
// environment variables and the configuration file combine the same way for
// every invocation.
//
// # Available Commands
//
//   - analyze: Analyze pages and print the issues found
//   - rules: List the rules of the catalog
//   - watch: Re-analyze pages as they change
//   - version: Show version information
//
// # Command Examples
//
//	// Analyze the current directory
//	ecohtml analyze
//
//	// Analyze two directories with four workers, as JSON
//	ecohtml analyze site/ templates/ --workers 4 --format json
//
//	// Fail the build when an issue is found
//	ecohtml analyze --fail-on-issues
//
//	// List the rules as YAML
//	ecohtml rules --format yaml
//
//	// Re-analyze on save
//	ecohtml watch site/
//
// # Configuration
//
// Settings are read, from highest to lowest priority, from command-line
// flags, ECOHTML_* environment variables (ECOHTML_OUTPUT_FORMAT=json) and
// the .ecohtml.yml file, or the file named by --config or
// ECOHTML_CONFIG_FILE.
package cmd
