// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"net/netip"
	"time"
)

// Lookup is the name-service backend consumed by resolvers.
// *net.Resolver satisfies it.
type Lookup interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
	LookupPort(ctx context.Context, network, service string) (int, error)
}

// Resolver turns an AddressSpec into ordered candidates.
type Resolver interface {
	// Resolve produces candidates for an outbound connect.
	Resolve(ctx context.Context, spec AddressSpec) (*CandidateList, error)
	// ResolvePassive produces candidates for a listening bind.
	ResolvePassive(ctx context.Context, spec AddressSpec) (*CandidateList, error)
}

// SocketFactory creates stream sockets.
type SocketFactory interface {
	Create() (Handle, error)
	CreateLocal() (Handle, error)
}

// Connector establishes outbound connections on an existing handle.
type Connector interface {
	Connect(ctx context.Context, h Handle, spec AddressSpec) error
	ConnectLocal(h Handle, path string) error
}

// Binder binds an existing handle to one local address.
type Binder interface {
	Bind(ctx context.Context, h Handle, port, filter string) error
	BindLocal(h Handle, path string) error
}

// Acceptor marks a handle passive and yields inbound connections.
type Acceptor interface {
	Listen(h Handle) error
	Accept(h Handle) (Handle, error)
}

// Multiplexer waits for readiness on a set of handles.
type Multiplexer interface {
	// Wait blocks at most timeout and reports ready handles as a bitmask in
	// request order.
	Wait(handles []Handle, interest Interest, timeout time.Duration) (Readiness, error)
}
