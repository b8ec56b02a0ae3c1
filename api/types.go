// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations, DTOs, and constants.

package api

import (
	"net"
	"net/netip"
)

// Handle identifies an OS-level socket. Zero marks an unused slot; it is
// never watched by the multiplexer and closing it is a no-op.
type Handle int

// NoHandle is the unused-slot value.
const NoHandle Handle = 0

// Valid reports whether h may refer to an open socket.
func (h Handle) Valid() bool { return h > 0 }

// Family is the address family of a socket or candidate address.
type Family int

const (
	FamilyUnspec Family = iota
	FamilyIPv4
	FamilyIPv6
	FamilyLocal
)

func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "ipv4"
	case FamilyIPv6:
		return "ipv6"
	case FamilyLocal:
		return "local"
	default:
		return "unspec"
	}
}

// StackMode selects between dual-stack (IPv6 socket accepting v4-mapped
// peers) and IPv4-only operation. It is decided once per process.
type StackMode int

const (
	StackDual StackMode = iota
	StackIPv4
)

func (m StackMode) String() string {
	if m == StackIPv4 {
		return "ipv4"
	}
	return "dual"
}

// AddressSpec is a textual host and port/service pair.
// An empty Host means "any" for passive resolution and the local host for
// active resolution.
type AddressSpec struct {
	Host string
	Port string
}

func (s AddressSpec) String() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// Candidate is one concrete resolved socket address.
type Candidate struct {
	Family Family
	Addr   netip.Addr
	Port   uint16
}

// Bytes returns the in-memory address bytes: 4 for IPv4, 16 for IPv6.
func (c Candidate) Bytes() []byte {
	return c.Addr.AsSlice()
}

// AddrPort returns the candidate as a netip.AddrPort.
func (c Candidate) AddrPort() netip.AddrPort {
	return netip.AddrPortFrom(c.Addr, c.Port)
}

func (c Candidate) String() string {
	return c.AddrPort().String()
}

// CandidateFrom builds a Candidate from an address, deriving the family.
// v4-mapped IPv6 addresses keep the IPv6 family.
func CandidateFrom(a netip.Addr, port uint16) Candidate {
	fam := FamilyIPv6
	if a.Is4() {
		fam = FamilyIPv4
	}
	return Candidate{Family: fam, Addr: a, Port: port}
}

// Interest selects the readiness condition a multiplexer waits for.
type Interest int

const (
	InterestRead Interest = iota
	InterestWrite
)

func (i Interest) String() string {
	if i == InterestWrite {
		return "write"
	}
	return "read"
}

// Readiness is a bitmask; bit i is set iff the i-th requested handle is ready.
type Readiness uint64

// IsSet reports whether bit i is set.
func (r Readiness) IsSet(i int) bool {
	if i < 0 || i >= 64 {
		return false
	}
	return r&(1<<uint(i)) != 0
}

// Set returns r with bit i set.
func (r Readiness) Set(i int) Readiness {
	if i < 0 || i >= 64 {
		return r
	}
	return r | 1<<uint(i)
}

// Any reports whether at least one handle is ready.
func (r Readiness) Any() bool { return r != 0 }
