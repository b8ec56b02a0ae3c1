// File: internal/addr/filter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package addr

import (
	"net/netip"

	"github.com/momentics/hioload-net/api"
)

// IsWildcard reports whether filter accepts any candidate.
func IsWildcard(filter string) bool {
	return filter == "" || filter == "0.0.0.0"
}

// IsLoopbackAlias reports whether filter names the loopback interface.
func IsLoopbackAlias(filter string) bool {
	switch filter {
	case "127.0.0.1", "::1", "localhost":
		return true
	}
	return false
}

// MatchFilter decides whether a passive candidate is acceptable for a bind
// restricted to filter.
//
//   - absent, empty or 0.0.0.0: every candidate matches;
//   - a loopback alias: the candidate must be 127.0.0.1 (IPv4) or ::1 (IPv6);
//   - anything else: filter must parse in the candidate's family with equal
//     bytes; a v4-mapped filter counts as IPv4.
func MatchFilter(filter string, c api.Candidate) bool {
	if IsWildcard(filter) {
		return true
	}
	if IsLoopbackAlias(filter) {
		switch c.Family {
		case api.FamilyIPv4:
			return c.Addr == loopbackV4
		case api.FamilyIPv6:
			return c.Addr == loopbackV6
		}
		return false
	}

	f, err := netip.ParseAddr(filter)
	if err != nil {
		return false
	}
	switch c.Family {
	case api.FamilyIPv4:
		u := f.Unmap()
		return u.Is4() && u == c.Addr
	case api.FamilyIPv6:
		return f.Is6() && f.WithZone("") == c.Addr.WithZone("")
	}
	return false
}
