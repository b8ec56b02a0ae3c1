//go:build linux || darwin || freebsd || netbsd || openbsd

package transport

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/sys/unix"
	"gotest.tools/v3/assert"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/internal/addr"
)

func localPort(t *testing.T, h api.Handle) string {
	t.Helper()
	sa, err := unix.Getsockname(int(h))
	assert.NilError(t, err)
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return strconv.Itoa(v.Port)
	case *unix.SockaddrInet6:
		return strconv.Itoa(v.Port)
	}
	t.Fatalf("unexpected sockaddr %T", sa)
	return ""
}

func TestLoopbackRoundTripIPv4(t *testing.T) {
	ctx := context.Background()
	r := addr.NewResolver(nil, api.StackIPv4)
	f := NewFactory(api.StackIPv4, 32*1024)
	s := NewSockets()

	lh, err := f.Create()
	assert.NilError(t, err)
	defer s.Close(lh)

	sndbuf, err := unix.GetsockoptInt(int(lh), unix.SOL_SOCKET, unix.SO_SNDBUF)
	assert.NilError(t, err)
	assert.Assert(t, sndbuf >= 32*1024)
	reuse, err := unix.GetsockoptInt(int(lh), unix.SOL_SOCKET, unix.SO_REUSEADDR)
	assert.NilError(t, err)
	assert.Assert(t, reuse != 0)

	assert.NilError(t, NewBinder(r).Bind(ctx, lh, "0", "127.0.0.1"))
	assert.NilError(t, NewAcceptor().Listen(lh))
	port := localPort(t, lh)

	ch, err := f.Create()
	assert.NilError(t, err)
	defer s.Close(ch)
	assert.NilError(t, NewConnector(r).Connect(ctx, ch, api.AddressSpec{Host: "127.0.0.1", Port: port}))
	assert.Assert(t, s.SocketOK(ch))
	assert.NilError(t, s.SetNoDelay(ch))
	assert.NilError(t, s.SetKeepAlive(ch))

	ah, err := NewAcceptor().Accept(lh)
	assert.NilError(t, err)
	defer s.Close(ah)
	assert.Assert(t, ah.Valid())
	assert.Equal(t, s.PeerString(ch), "127.0.0.1:"+port+" - socket: "+strconv.Itoa(int(ch)))

	n, err := s.Send(ch, []byte("hello"))
	assert.NilError(t, err)
	assert.Equal(t, n, 5)
	buf := make([]byte, 16)
	n, err = s.Recv(ah, buf)
	assert.NilError(t, err)
	assert.Equal(t, string(buf[:n]), "hello")
}

func TestNonBlockingAcceptWouldBlock(t *testing.T) {
	r := addr.NewResolver(nil, api.StackIPv4)
	s := NewSockets()
	lh, err := NewFactory(api.StackIPv4, 0).Create()
	assert.NilError(t, err)
	defer s.Close(lh)

	assert.NilError(t, NewBinder(r).Bind(context.Background(), lh, "0", ""))
	assert.NilError(t, NewAcceptor().Listen(lh))
	assert.NilError(t, s.SetNonBlocking(lh))

	_, err = NewAcceptor().Accept(lh)
	assert.Assert(t, api.IsWouldBlock(err), "got %v", err)
}

func TestConnectRefusedIPv4(t *testing.T) {
	ctx := context.Background()
	r := addr.NewResolver(nil, api.StackIPv4)
	f := NewFactory(api.StackIPv4, 0)
	s := NewSockets()

	// Reserve a port, then release it so nothing listens there.
	tmp, err := f.Create()
	assert.NilError(t, err)
	assert.NilError(t, NewBinder(r).Bind(ctx, tmp, "0", "127.0.0.1"))
	port := localPort(t, tmp)
	assert.NilError(t, s.Close(tmp))

	h, err := f.Create()
	assert.NilError(t, err)
	defer s.Close(h)
	err = NewConnector(r).Connect(ctx, h, api.AddressSpec{Host: "127.0.0.1", Port: port})
	var cerr *api.ConnectError
	assert.Assert(t, errors.As(err, &cerr), "got %v", err)
	assert.Equal(t, cerr.Attempts, 1)
	assert.Equal(t, api.CodeOf(err), api.ErrCodeRefused)
}

func TestLocalSocketRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sock")
	f := NewFactory(api.StackIPv4, 0)
	s := NewSockets()

	lh, err := f.CreateLocal()
	assert.NilError(t, err)
	defer s.Close(lh)
	assert.NilError(t, NewBinder(nil).BindLocal(lh, path))
	assert.NilError(t, NewAcceptor().Listen(lh))

	ch, err := f.CreateLocal()
	assert.NilError(t, err)
	defer s.Close(ch)
	assert.NilError(t, NewConnector(nil).ConnectLocal(ch, path))

	ah, err := NewAcceptor().Accept(lh)
	assert.NilError(t, err)
	defer s.Close(ah)
	assert.Equal(t, s.PeerString(ah), "NULL:NULL - socket: "+strconv.Itoa(int(ah)))
}

func TestCloseTwice(t *testing.T) {
	s := NewSockets()
	h, err := NewFactory(api.StackIPv4, 0).Create()
	assert.NilError(t, err)
	assert.NilError(t, s.Close(h))
	assert.NilError(t, s.Close(h))
}

// requireDualStack skips unless the host can create IPv6 sockets and bind ::1.
func requireDualStack(t *testing.T) {
	t.Helper()
	if DetectStack() != api.StackDual {
		t.Skip("host has no IPv6 stream sockets")
	}
	fd, err := unix.Socket(unix.AF_INET6, unix.SOCK_STREAM, 0)
	assert.NilError(t, err)
	defer unix.Close(fd)
	if err := unix.Bind(fd, &unix.SockaddrInet6{Addr: [16]byte{15: 1}}); err != nil {
		t.Skipf("::1 not configured: %v", err)
	}
}

func TestAutoStackCreatesDualSocket(t *testing.T) {
	requireDualStack(t)
	mode, err := ResolveStack("auto")
	assert.NilError(t, err)
	assert.Equal(t, mode, api.StackDual)

	s := NewSockets()
	h, err := NewFactory(mode, 0).Create()
	assert.NilError(t, err)
	defer s.Close(h)

	v6only, err := unix.GetsockoptInt(int(h), unix.IPPROTO_IPV6, unix.IPV6_V6ONLY)
	assert.NilError(t, err)
	assert.Equal(t, v6only, 0)
	sa, err := unix.Getsockname(int(h))
	assert.NilError(t, err)
	_, ok := sa.(*unix.SockaddrInet6)
	assert.Assert(t, ok, "got %T", sa)
}

func TestDualWildcardAcceptsIPv4Peer(t *testing.T) {
	requireDualStack(t)
	ctx := context.Background()
	s := NewSockets()

	lh, err := NewFactory(api.StackDual, 0).Create()
	assert.NilError(t, err)
	defer s.Close(lh)
	assert.NilError(t, NewBinder(addr.NewResolver(nil, api.StackDual)).Bind(ctx, lh, "0", ""))
	assert.NilError(t, NewAcceptor().Listen(lh))
	port := localPort(t, lh)

	ch, err := NewFactory(api.StackIPv4, 0).Create()
	assert.NilError(t, err)
	defer s.Close(ch)
	assert.NilError(t, NewConnector(addr.NewResolver(nil, api.StackIPv4)).
		Connect(ctx, ch, api.AddressSpec{Host: "127.0.0.1", Port: port}))

	ah, err := NewAcceptor().Accept(lh)
	assert.NilError(t, err)
	defer s.Close(ah)
	peer := s.PeerString(ah)
	assert.Assert(t, strings.HasPrefix(peer, "::ffff:127.0.0.1:"), "got %q", peer)

	_, err = s.Send(ch, []byte("v4"))
	assert.NilError(t, err)
	buf := make([]byte, 4)
	n, err := s.Recv(ah, buf)
	assert.NilError(t, err)
	assert.Equal(t, string(buf[:n]), "v4")
}

func TestDualLoopbackFilterReachableThroughSubstitution(t *testing.T) {
	requireDualStack(t)
	ctx := context.Background()
	r := addr.NewResolver(nil, api.StackDual)
	f := NewFactory(api.StackDual, 0)
	s := NewSockets()

	for _, filter := range []string{"127.0.0.1", "localhost", "::1"} {
		lh, err := f.Create()
		assert.NilError(t, err)
		assert.NilError(t, NewBinder(r).Bind(ctx, lh, "0", filter), "filter=%q", filter)
		assert.NilError(t, NewAcceptor().Listen(lh))
		sa, err := unix.Getsockname(int(lh))
		assert.NilError(t, err)
		assert.Equal(t, sa.(*unix.SockaddrInet6).Addr, [16]byte{15: 1}, "filter=%q", filter)
		port := localPort(t, lh)

		ch, err := f.Create()
		assert.NilError(t, err)
		err = NewConnector(r).Connect(ctx, ch, api.AddressSpec{Host: "127.0.0.1", Port: port})
		assert.NilError(t, err, "filter=%q", filter)
		assert.Equal(t, s.PeerString(ch), "::1:"+port+" - socket: "+strconv.Itoa(int(ch)))

		ah, err := NewAcceptor().Accept(lh)
		assert.NilError(t, err)
		assert.NilError(t, s.Close(ah))
		assert.NilError(t, s.Close(ch))
		assert.NilError(t, s.Close(lh))
	}
}
