// Package api
// Author: momentics
//
// Runtime introspection of a live layer.

package api

// Debug exposes named probes evaluated on demand.
type Debug interface {
	// DumpState evaluates every probe and returns the results by name.
	DumpState() map[string]any

	// RegisterProbe adds or replaces the probe called name.
	RegisterProbe(name string, fn func() any)

	// Names lists the registered probes in sorted order.
	Names() []string
}
