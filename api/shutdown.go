// File: api/shutdown.go
// Package api defines unified graceful shutdown contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// GracefulShutdown releases everything a component owns.
type GracefulShutdown interface {
	// Shutdown tears down owned resources. Calling it twice is safe.
	Shutdown() error
}
