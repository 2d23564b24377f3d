// Package confloader provides configuration loading mechanism.
//
// This package implements a flexible configuration loader that supports
// multiple sources and formats using koanf as the underlying library.
//
// Features:
//
//   - Multiple Sources: YAML files, WARMD_* environment variables, flag overrides
//   - Watch Support: change notification for config files (fsnotify)
//   - Type Safety: Unmarshaling into typed structs
//   - Defaults: values preset on the target struct survive missing keys
//
// Priority (highest to lowest):
//
//  1. Command-line flags
//  2. Environment variables
//  3. Configuration files
//  4. Default values
package confloader
