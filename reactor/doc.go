// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the readiness multiplexer: a bounded wait for
// read or write readiness over a small set of socket handles, reported as a
// bitmask in request order. The unix implementation is built on poll(2);
// other platforms get a stub.
package reactor
