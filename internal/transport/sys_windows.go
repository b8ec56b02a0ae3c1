// File: internal/transport/sys_windows.go
//go:build windows

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Winsock calls via golang.org/x/sys/windows. Entry points the package does
// not export are loaded lazily from ws2_32.dll.

package transport

import (
	"net/netip"
	"os"
	"sync"
	"syscall"
	"unsafe"

	"github.com/momentics/hioload-net/api"
	"golang.org/x/sys/windows"
)

// Not exported by x/sys/windows.
const (
	soError = 0x1007
	fionbio = 0x8004667e
)

var (
	modws2_32  = windows.NewLazySystemDLL("ws2_32.dll")
	procAccept = modws2_32.NewProc("accept")
)

// winSys remembers the family of each socket it created: getsockname fails
// with WSAEINVAL until a socket is bound.
type winSys struct {
	families sync.Map // int -> api.Family
}

var (
	winOnce sync.Once
	winDflt *winSys
)

func defaultSys() sysCalls {
	winOnce.Do(func() {
		var d windows.WSAData
		_ = windows.WSAStartup(uint32(0x0202), &d)
		winDflt = &winSys{}
	})
	return winDflt
}

// wsaErrno maps Winsock codes onto the errno values the rest of the package
// classifies.
var wsaErrno = map[syscall.Errno]syscall.Errno{
	windows.WSAEWOULDBLOCK:   syscall.EAGAIN,
	windows.WSAEINPROGRESS:   syscall.EINPROGRESS,
	windows.WSAEALREADY:      syscall.EALREADY,
	windows.WSAEINTR:         syscall.EINTR,
	windows.WSAECONNREFUSED:  syscall.ECONNREFUSED,
	windows.WSAEHOSTUNREACH:  syscall.EHOSTUNREACH,
	windows.WSAENETUNREACH:   syscall.ENETUNREACH,
	windows.WSAEADDRINUSE:    syscall.EADDRINUSE,
	windows.WSAEADDRNOTAVAIL: syscall.EADDRNOTAVAIL,
	windows.WSAEAFNOSUPPORT:  syscall.EAFNOSUPPORT,
	windows.WSAEACCES:        syscall.EACCES,
	windows.WSAETIMEDOUT:     syscall.ETIMEDOUT,
	windows.WSAECONNRESET:    syscall.ECONNRESET,
	windows.WSAECONNABORTED:  syscall.ECONNABORTED,
	windows.WSAEMFILE:        syscall.EMFILE,
	windows.WSAENOBUFS:       syscall.ENOBUFS,
	windows.WSAEINVAL:        syscall.EINVAL,
	windows.WSAENOTSOCK:      syscall.ENOTSOCK,
	windows.WSAEBADF:         syscall.EBADF,
}

func wsaError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errno, ok := err.(syscall.Errno); ok {
		if mapped, ok := wsaErrno[errno]; ok {
			err = mapped
		}
	}
	return os.NewSyscallError(op, err)
}

func domainOf(f api.Family) (int, error) {
	switch f {
	case api.FamilyIPv4:
		return windows.AF_INET, nil
	case api.FamilyIPv6:
		return windows.AF_INET6, nil
	case api.FamilyLocal:
		return windows.AF_UNIX, nil
	}
	return 0, syscall.EAFNOSUPPORT
}

func optLevelName(o sockOpt) (level, name int) {
	switch o {
	case optV6Only:
		return windows.IPPROTO_IPV6, windows.IPV6_V6ONLY
	case optReuseAddr:
		return windows.SOL_SOCKET, windows.SO_REUSEADDR
	case optSendBuf:
		return windows.SOL_SOCKET, windows.SO_SNDBUF
	case optNoDelay:
		return windows.IPPROTO_TCP, windows.TCP_NODELAY
	case optKeepAlive:
		return windows.SOL_SOCKET, windows.SO_KEEPALIVE
	default:
		return windows.SOL_SOCKET, soError
	}
}

func (s *winSys) socket(f api.Family) (int, error) {
	domain, err := domainOf(f)
	if err != nil {
		return -1, os.NewSyscallError("socket", err)
	}
	h, err := windows.Socket(domain, windows.SOCK_STREAM, 0)
	if err != nil {
		return -1, wsaError("socket", err)
	}
	_ = windows.SetHandleInformation(h, windows.HANDLE_FLAG_INHERIT, 0)
	s.families.Store(int(h), f)
	return int(h), nil
}

func (s *winSys) close(fd int) error {
	s.families.Delete(fd)
	err := windows.Closesocket(windows.Handle(fd))
	if err == windows.WSAENOTSOCK {
		err = syscall.EBADF
	}
	return wsaError("closesocket", err)
}

func (*winSys) getInt(fd int, o sockOpt) (int, error) {
	level, name := optLevelName(o)
	v, err := windows.GetsockoptInt(windows.Handle(fd), level, name)
	if err != nil {
		return 0, wsaError("getsockopt", err)
	}
	return v, nil
}

func (*winSys) setInt(fd int, o sockOpt, value int) error {
	level, name := optLevelName(o)
	return wsaError("setsockopt", windows.SetsockoptInt(windows.Handle(fd), level, name, value))
}

func (*winSys) setNonblock(fd int) error {
	on := uint32(1)
	var n uint32
	err := windows.WSAIoctl(windows.Handle(fd), fionbio, (*byte)(unsafe.Pointer(&on)), uint32(unsafe.Sizeof(on)), nil, 0, &n, nil, 0)
	return wsaError("ioctlsocket", err)
}

// connect reports a pending non-blocking connect as EINPROGRESS, which
// Winsock signals with WSAEWOULDBLOCK.
func (*winSys) connect(fd int, sa sockaddr) error {
	wsa, err := toWindows(sa)
	if err != nil {
		return os.NewSyscallError("connect", err)
	}
	err = windows.Connect(windows.Handle(fd), wsa)
	if err == windows.WSAEWOULDBLOCK {
		return os.NewSyscallError("connect", syscall.EINPROGRESS)
	}
	return wsaError("connect", err)
}

func (*winSys) bind(fd int, sa sockaddr) error {
	wsa, err := toWindows(sa)
	if err != nil {
		return os.NewSyscallError("bind", err)
	}
	return wsaError("bind", windows.Bind(windows.Handle(fd), wsa))
}

func (*winSys) listen(fd int, backlog int) error {
	return wsaError("listen", windows.Listen(windows.Handle(fd), backlog))
}

func (s *winSys) accept(fd int) (int, sockaddr, error) {
	var rsa windows.RawSockaddrAny
	l := int32(unsafe.Sizeof(rsa))
	r1, _, e1 := procAccept.Call(uintptr(fd), uintptr(unsafe.Pointer(&rsa)), uintptr(unsafe.Pointer(&l)))
	h := windows.Handle(r1)
	if h == windows.InvalidHandle {
		return -1, sockaddr{}, wsaError("accept", e1)
	}
	_ = windows.SetHandleInformation(h, windows.HANDLE_FLAG_INHERIT, 0)
	wsa, err := rsa.Sockaddr()
	if err != nil {
		windows.Closesocket(h)
		return -1, sockaddr{}, wsaError("accept", err)
	}
	sa := fromWindows(wsa)
	s.families.Store(int(h), sa.family)
	return int(h), sa, nil
}

func (s *winSys) family(fd int) (api.Family, error) {
	if f, ok := s.families.Load(fd); ok {
		return f.(api.Family), nil
	}
	wsa, err := windows.Getsockname(windows.Handle(fd))
	if err != nil {
		return api.FamilyUnspec, wsaError("getsockname", err)
	}
	return fromWindows(wsa).family, nil
}

func (*winSys) peer(fd int) (sockaddr, error) {
	wsa, err := windows.Getpeername(windows.Handle(fd))
	if err != nil {
		return sockaddr{}, wsaError("getpeername", err)
	}
	return fromWindows(wsa), nil
}

func wsaBuf(p []byte) windows.WSABuf {
	b := windows.WSABuf{Len: uint32(len(p))}
	if len(p) > 0 {
		b.Buf = &p[0]
	}
	return b
}

func (*winSys) read(fd int, p []byte) (int, error) {
	buf := wsaBuf(p)
	var n, flags uint32
	if err := windows.WSARecv(windows.Handle(fd), &buf, 1, &n, &flags, nil, nil); err != nil {
		return 0, wsaError("wsarecv", err)
	}
	return int(n), nil
}

func (*winSys) write(fd int, p []byte) (int, error) {
	buf := wsaBuf(p)
	var n uint32
	if err := windows.WSASend(windows.Handle(fd), &buf, 1, &n, 0, nil, nil); err != nil {
		return 0, wsaError("wsasend", err)
	}
	return int(n), nil
}

func toWindows(sa sockaddr) (windows.Sockaddr, error) {
	switch sa.family {
	case api.FamilyIPv4:
		return &windows.SockaddrInet4{Port: int(sa.addr.Port()), Addr: sa.addr.Addr().As4()}, nil
	case api.FamilyIPv6:
		return &windows.SockaddrInet6{Port: int(sa.addr.Port()), Addr: sa.addr.Addr().As16()}, nil
	case api.FamilyLocal:
		return &windows.SockaddrUnix{Name: sa.path}, nil
	}
	return nil, syscall.EAFNOSUPPORT
}

func fromWindows(wsa windows.Sockaddr) sockaddr {
	switch v := wsa.(type) {
	case *windows.SockaddrInet4:
		return sockaddr{family: api.FamilyIPv4, addr: netip.AddrPortFrom(netip.AddrFrom4(v.Addr), uint16(v.Port))}
	case *windows.SockaddrInet6:
		return sockaddr{family: api.FamilyIPv6, addr: netip.AddrPortFrom(netip.AddrFrom16(v.Addr), uint16(v.Port))}
	case *windows.SockaddrUnix:
		return sockaddr{family: api.FamilyLocal, path: v.Name}
	}
	return sockaddr{}
}
