// Package config handles configuration loading and management for chitose.
//
// It provides functionality for:
//   - Loading configuration from .chitose.yaml or .chitose.json files
//   - Default configuration values (30s timeout, no default headers)
//   - Validation of field values
//   - Merging command line overrides onto file settings
package config
