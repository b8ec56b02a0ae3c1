// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for the name-service backend.

package fake

import (
	"context"
	"net"
	"net/netip"
	"strconv"
	"sync"

	"github.com/momentics/hioload-net/api"
)

var _ api.Lookup = (*Lookup)(nil)

var wellKnown = map[string]int{"ssh": 22, "http": 80, "rdp": 3389}

// Lookup answers from static tables and records every host it was asked
// for. IP literals resolve to themselves; unknown names fail with a
// not-found *net.DNSError.
type Lookup struct {
	Hosts    map[string][]netip.Addr
	Services map[string]int

	mu    sync.Mutex
	asked []string
}

func (f *Lookup) LookupNetIP(_ context.Context, _ string, host string) ([]netip.Addr, error) {
	f.mu.Lock()
	f.asked = append(f.asked, host)
	f.mu.Unlock()
	if a, err := netip.ParseAddr(host); err == nil {
		return []netip.Addr{a}, nil
	}
	addrs, ok := f.Hosts[host]
	if !ok {
		return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	}
	return addrs, nil
}

func (f *Lookup) LookupPort(_ context.Context, _ string, service string) (int, error) {
	if p, ok := f.Services[service]; ok {
		return p, nil
	}
	if p, ok := wellKnown[service]; ok {
		return p, nil
	}
	p, err := strconv.Atoi(service)
	if err != nil {
		return 0, &net.DNSError{Err: "unknown port", Name: service, IsNotFound: true}
	}
	return p, nil
}

// Asked returns the hosts looked up so far, in order.
func (f *Lookup) Asked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.asked...)
}
