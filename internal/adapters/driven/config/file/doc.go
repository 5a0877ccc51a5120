// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage with environment overrides
//
// LoadEnvFiles reads .env files into the process environment before the
// store is consulted.
package file
