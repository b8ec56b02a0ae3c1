// File: internal/transport/doc.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Socket lifecycle for hioload-net: dual-stack socket creation with tuned
// options, candidate-iterating connect, filtered bind, listen/accept and
// the small per-socket utilities (close, non-blocking, no-delay, keepalive,
// peer formatting). Every OS call goes through the sysCalls seam, which is
// strictly separated by build tags (unix and Windows implementations, stub
// elsewhere).

package transport
