// File: internal/transport/sys_unix.go
//go:build linux || darwin || freebsd || netbsd || openbsd

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// POSIX socket calls via golang.org/x/sys/unix.

package transport

import (
	"net/netip"
	"os"
	"syscall"

	"github.com/momentics/hioload-net/api"
	"golang.org/x/sys/unix"
)

type unixSys struct{}

func defaultSys() sysCalls { return unixSys{} }

func domainOf(f api.Family) (int, error) {
	switch f {
	case api.FamilyIPv4:
		return unix.AF_INET, nil
	case api.FamilyIPv6:
		return unix.AF_INET6, nil
	case api.FamilyLocal:
		return unix.AF_UNIX, nil
	}
	return 0, unix.EAFNOSUPPORT
}

func optLevelName(o sockOpt) (level, name int) {
	switch o {
	case optV6Only:
		return unix.IPPROTO_IPV6, unix.IPV6_V6ONLY
	case optReuseAddr:
		return unix.SOL_SOCKET, unix.SO_REUSEADDR
	case optSendBuf:
		return unix.SOL_SOCKET, unix.SO_SNDBUF
	case optNoDelay:
		return unix.IPPROTO_TCP, unix.TCP_NODELAY
	case optKeepAlive:
		return unix.SOL_SOCKET, unix.SO_KEEPALIVE
	default:
		return unix.SOL_SOCKET, unix.SO_ERROR
	}
}

// socket creates a stream socket marked close-on-exec. The fork lock keeps
// the descriptor from leaking into a concurrently started child.
func (unixSys) socket(f api.Family) (int, error) {
	domain, err := domainOf(f)
	if err != nil {
		return -1, os.NewSyscallError("socket", err)
	}
	syscall.ForkLock.RLock()
	fd, err := unix.Socket(domain, unix.SOCK_STREAM, 0)
	if err == nil {
		unix.CloseOnExec(fd)
	}
	syscall.ForkLock.RUnlock()
	if err != nil {
		return -1, os.NewSyscallError("socket", err)
	}
	return avoidZero(fd)
}

// avoidZero moves a descriptor off 0, which callers use as the unused slot.
func avoidZero(fd int) (int, error) {
	if fd != 0 {
		return fd, nil
	}
	nfd, err := unix.FcntlInt(uintptr(fd), unix.F_DUPFD_CLOEXEC, 1)
	unix.Close(fd)
	if err != nil {
		return -1, os.NewSyscallError("fcntl", err)
	}
	return nfd, nil
}

func (unixSys) close(fd int) error {
	return os.NewSyscallError("close", unix.Close(fd))
}

func (unixSys) getInt(fd int, o sockOpt) (int, error) {
	level, name := optLevelName(o)
	v, err := unix.GetsockoptInt(fd, level, name)
	if err != nil {
		return 0, os.NewSyscallError("getsockopt", err)
	}
	return v, nil
}

func (unixSys) setInt(fd int, o sockOpt, value int) error {
	level, name := optLevelName(o)
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(fd, level, name, value))
}

func (unixSys) setNonblock(fd int) error {
	return os.NewSyscallError("fcntl", unix.SetNonblock(fd, true))
}

func (unixSys) connect(fd int, sa sockaddr) error {
	usa, err := toUnix(sa)
	if err != nil {
		return os.NewSyscallError("connect", err)
	}
	return os.NewSyscallError("connect", unix.Connect(fd, usa))
}

func (unixSys) bind(fd int, sa sockaddr) error {
	usa, err := toUnix(sa)
	if err != nil {
		return os.NewSyscallError("bind", err)
	}
	return os.NewSyscallError("bind", unix.Bind(fd, usa))
}

func (unixSys) listen(fd int, backlog int) error {
	return os.NewSyscallError("listen", unix.Listen(fd, backlog))
}

func (unixSys) accept(fd int) (int, sockaddr, error) {
	syscall.ForkLock.RLock()
	nfd, usa, err := unix.Accept(fd)
	if err == nil {
		unix.CloseOnExec(nfd)
	}
	syscall.ForkLock.RUnlock()
	if err != nil {
		return -1, sockaddr{}, os.NewSyscallError("accept", err)
	}
	nfd, err = avoidZero(nfd)
	if err != nil {
		return -1, sockaddr{}, err
	}
	return nfd, fromUnix(usa), nil
}

func (unixSys) family(fd int) (api.Family, error) {
	usa, err := unix.Getsockname(fd)
	if err != nil {
		return api.FamilyUnspec, os.NewSyscallError("getsockname", err)
	}
	return fromUnix(usa).family, nil
}

func (unixSys) peer(fd int) (sockaddr, error) {
	usa, err := unix.Getpeername(fd)
	if err != nil {
		return sockaddr{}, os.NewSyscallError("getpeername", err)
	}
	return fromUnix(usa), nil
}

func (unixSys) read(fd int, p []byte) (int, error) {
	n, err := unix.Read(fd, p)
	if err != nil {
		return 0, os.NewSyscallError("read", err)
	}
	return n, nil
}

func (unixSys) write(fd int, p []byte) (int, error) {
	n, err := unix.Write(fd, p)
	if err != nil {
		return 0, os.NewSyscallError("write", err)
	}
	return n, nil
}

func toUnix(sa sockaddr) (unix.Sockaddr, error) {
	switch sa.family {
	case api.FamilyIPv4:
		return &unix.SockaddrInet4{Port: int(sa.addr.Port()), Addr: sa.addr.Addr().As4()}, nil
	case api.FamilyIPv6:
		return &unix.SockaddrInet6{Port: int(sa.addr.Port()), Addr: sa.addr.Addr().As16()}, nil
	case api.FamilyLocal:
		return &unix.SockaddrUnix{Name: sa.path}, nil
	}
	return nil, unix.EAFNOSUPPORT
}

func fromUnix(usa unix.Sockaddr) sockaddr {
	switch v := usa.(type) {
	case *unix.SockaddrInet4:
		return sockaddr{family: api.FamilyIPv4, addr: netip.AddrPortFrom(netip.AddrFrom4(v.Addr), uint16(v.Port))}
	case *unix.SockaddrInet6:
		return sockaddr{family: api.FamilyIPv6, addr: netip.AddrPortFrom(netip.AddrFrom16(v.Addr), uint16(v.Port))}
	case *unix.SockaddrUnix:
		return sockaddr{family: api.FamilyLocal, path: v.Name}
	}
	return sockaddr{}
}
