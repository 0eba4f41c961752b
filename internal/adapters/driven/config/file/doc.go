// Package file loads and persists the TOML configuration for the
// retail-copilot CLI.
package file
