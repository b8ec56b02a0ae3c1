// File: internal/addr/resolver.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package addr

import (
	"context"
	"net"
	"net/netip"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/control"
	"go.uber.org/zap"
)

var (
	loopbackV4 = netip.AddrFrom4([4]byte{127, 0, 0, 1})
	loopbackV6 = netip.IPv6Loopback()
	anyV4      = netip.IPv4Unspecified()
	anyV6      = netip.IPv6Unspecified()
)

var _ api.Resolver = (*Resolver)(nil)

// Resolver implements api.Resolver on top of a name-service Lookup.
type Resolver struct {
	lookup api.Lookup
	stack  api.StackMode
}

// NewResolver returns a resolver for the given stack mode. A nil lookup
// selects net.DefaultResolver.
func NewResolver(lookup api.Lookup, stack api.StackMode) *Resolver {
	if lookup == nil {
		lookup = net.DefaultResolver
	}
	return &Resolver{lookup: lookup, stack: stack}
}

// Stack returns the stack mode the resolver was built for.
func (r *Resolver) Stack() api.StackMode { return r.stack }

// Resolve produces connect candidates.
//
// Under the dual stack the IPv4 loopback literal is replaced by ::1, native
// IPv6 answers are preferred, and IPv4-only names come back as v4-mapped IPv6
// candidates. Under the IPv4 stack only IPv4 answers are kept.
func (r *Resolver) Resolve(ctx context.Context, spec api.AddressSpec) (*api.CandidateList, error) {
	port, err := r.port(ctx, spec.Port)
	if err != nil {
		return nil, &api.ResolutionError{Spec: spec, Err: err}
	}

	host := spec.Host
	if r.stack == api.StackDual && host == loopbackV4.String() {
		host = loopbackV6.String()
	}

	var addrs []netip.Addr
	switch {
	case host == "" && r.stack == api.StackDual:
		addrs = []netip.Addr{loopbackV6}
	case host == "":
		addrs = []netip.Addr{loopbackV4}
	default:
		addrs, err = r.lookup.LookupNetIP(ctx, "ip", host)
		if err != nil {
			return nil, &api.ResolutionError{Spec: spec, Err: err}
		}
	}

	list := api.NewCandidateList()
	if r.stack == api.StackDual {
		var v4 []netip.Addr
		for _, a := range addrs {
			a = a.Unmap()
			if a.Is4() {
				v4 = append(v4, a)
				continue
			}
			list.Push(api.Candidate{Family: api.FamilyIPv6, Addr: a, Port: port})
		}
		if list.Len() == 0 {
			for _, a := range v4 {
				list.Push(api.Candidate{Family: api.FamilyIPv6, Addr: netip.AddrFrom16(a.As16()), Port: port})
			}
		}
	} else {
		for _, a := range addrs {
			if a = a.Unmap(); a.Is4() {
				list.Push(api.Candidate{Family: api.FamilyIPv4, Addr: a, Port: port})
			}
		}
	}

	if list.Len() == 0 {
		return nil, &api.ResolutionError{Spec: spec, Err: api.ErrNoCandidates}
	}
	control.Logger().Debug("resolved connect candidates",
		zap.Stringer("spec", spec), zap.String("host", host), zap.Int("count", list.Len()))
	return list, nil
}

// ResolvePassive produces bind candidates without a family restriction.
// An empty host or the IPv4 wildcard yields the wildcard addresses, IPv4
// first. A loopback alias yields 127.0.0.1 and, under the dual stack, ::1
// without consulting the name service. Any other host is resolved and
// returned in name-service order.
func (r *Resolver) ResolvePassive(ctx context.Context, spec api.AddressSpec) (*api.CandidateList, error) {
	port, err := r.port(ctx, spec.Port)
	if err != nil {
		return nil, &api.ResolutionError{Spec: spec, Passive: true, Err: err}
	}

	list := api.NewCandidateList()
	if IsWildcard(spec.Host) {
		list.Push(api.Candidate{Family: api.FamilyIPv4, Addr: anyV4, Port: port})
		if r.stack == api.StackDual {
			list.Push(api.Candidate{Family: api.FamilyIPv6, Addr: anyV6, Port: port})
		}
		return list, nil
	}
	if IsLoopbackAlias(spec.Host) {
		list.Push(api.Candidate{Family: api.FamilyIPv4, Addr: loopbackV4, Port: port})
		if r.stack == api.StackDual {
			list.Push(api.Candidate{Family: api.FamilyIPv6, Addr: loopbackV6, Port: port})
		}
		return list, nil
	}

	addrs, err := r.lookup.LookupNetIP(ctx, "ip", spec.Host)
	if err != nil {
		return nil, &api.ResolutionError{Spec: spec, Passive: true, Err: err}
	}
	for _, a := range addrs {
		list.Push(api.CandidateFrom(a.Unmap(), port))
	}
	if list.Len() == 0 {
		return nil, &api.ResolutionError{Spec: spec, Passive: true, Err: api.ErrNoCandidates}
	}
	return list, nil
}

func (r *Resolver) port(ctx context.Context, service string) (uint16, error) {
	if service == "" {
		return 0, nil
	}
	p, err := r.lookup.LookupPort(ctx, "tcp", service)
	if err != nil {
		return 0, err
	}
	if p < 0 || p > 0xffff {
		return 0, &net.AddrError{Err: "invalid port", Addr: service}
	}
	return uint16(p), nil
}
