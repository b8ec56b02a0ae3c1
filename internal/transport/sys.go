// File: internal/transport/sys.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Platform-neutral view of the socket system calls used by this package.

package transport

import (
	"fmt"
	"net/netip"
	"syscall"

	"github.com/momentics/hioload-net/api"
)

// sockOpt names the integer socket options this package reads or writes.
type sockOpt int

const (
	optV6Only sockOpt = iota
	optReuseAddr
	optSendBuf
	optNoDelay
	optKeepAlive
	optError
)

func (o sockOpt) String() string {
	switch o {
	case optV6Only:
		return "IPV6_V6ONLY"
	case optReuseAddr:
		return "SO_REUSEADDR"
	case optSendBuf:
		return "SO_SNDBUF"
	case optNoDelay:
		return "TCP_NODELAY"
	case optKeepAlive:
		return "SO_KEEPALIVE"
	case optError:
		return "SO_ERROR"
	}
	return fmt.Sprintf("sockopt(%d)", int(o))
}

// sockaddr is an OS-independent socket address. Path is set for local
// sockets, AddrPort for IP families.
type sockaddr struct {
	family api.Family
	addr   netip.AddrPort
	path   string
}

func (sa sockaddr) String() string {
	if sa.family == api.FamilyLocal {
		return sa.path
	}
	return sa.addr.String()
}

// sysCalls is the set of OS operations behind every component.
// Stream sockets only; returned descriptors are close-on-exec and never 0.
type sysCalls interface {
	socket(family api.Family) (int, error)
	close(fd int) error
	getInt(fd int, opt sockOpt) (int, error)
	setInt(fd int, opt sockOpt, value int) error
	setNonblock(fd int) error
	connect(fd int, sa sockaddr) error
	bind(fd int, sa sockaddr) error
	listen(fd int, backlog int) error
	accept(fd int) (int, sockaddr, error)
	family(fd int) (api.Family, error)
	peer(fd int) (sockaddr, error)
	read(fd int, p []byte) (int, error)
	write(fd int, p []byte) (int, error)
}

// sockaddrFor converts a candidate to an address usable on a socket of the
// given family. IPv6 sockets take IPv4 candidates as v4-mapped addresses,
// except the IPv4 wildcard, which becomes the IPv6 wildcard so a dual-stack
// listener also receives IPv4 peers. IPv4 sockets accept v4-mapped IPv6
// candidates unmapped and reject everything else.
func sockaddrFor(sockFamily api.Family, c api.Candidate) (sockaddr, error) {
	a := c.Addr
	switch sockFamily {
	case api.FamilyIPv6:
		if a.Is4() {
			if a.IsUnspecified() {
				a = netip.IPv6Unspecified()
			} else {
				a = netip.AddrFrom16(a.As16())
			}
		}
		return sockaddr{family: api.FamilyIPv6, addr: netip.AddrPortFrom(a, c.Port)}, nil
	case api.FamilyIPv4:
		a = a.Unmap()
		if !a.Is4() {
			return sockaddr{}, fmt.Errorf("%s on ipv4 socket: %w", c, syscall.EAFNOSUPPORT)
		}
		return sockaddr{family: api.FamilyIPv4, addr: netip.AddrPortFrom(a, c.Port)}, nil
	}
	return sockaddr{}, fmt.Errorf("%s on %s socket: %w", c, sockFamily, syscall.EAFNOSUPPORT)
}

func localSockaddr(path string) sockaddr {
	return sockaddr{family: api.FamilyLocal, path: path}
}
