// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, logging, metrics and debug introspection for the
// hioload-net transport layer.
//
// Provides:
//   - Config with TOML loading and validation, plus a snapshot store with reload hooks
//   - The shared zap logger (no-op until SetLogger is called)
//   - go-metrics counters for connects, binds, accepts and option-tuning warnings
//   - Debug probe registration
package control
