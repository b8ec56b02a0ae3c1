// File: internal/transport/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-handle utilities: close, mode switches, health and plain stream I/O.

package transport

import (
	"errors"
	"fmt"
	"strconv"
	"syscall"

	"github.com/momentics/hioload-net/api"
)

// Sockets groups the operations that act on a single existing handle.
type Sockets struct {
	sys sysCalls
}

func NewSockets() *Sockets {
	return &Sockets{sys: defaultSys()}
}

// Close releases h. Closing the unused slot or an already closed handle is
// not an error.
func (s *Sockets) Close(h api.Handle) error {
	if !h.Valid() {
		return nil
	}
	err := s.sys.close(int(h))
	if errors.Is(err, syscall.EBADF) {
		return nil
	}
	return err
}

func (s *Sockets) SetNonBlocking(h api.Handle) error {
	if !h.Valid() {
		return api.ErrInvalidHandle
	}
	return s.sys.setNonblock(int(h))
}

// SetNoDelay disables Nagle's algorithm if it is still enabled.
func (s *Sockets) SetNoDelay(h api.Handle) error {
	return s.enable(h, optNoDelay)
}

// SetKeepAlive enables keep-alive probes if they are off.
func (s *Sockets) SetKeepAlive(h api.Handle) error {
	return s.enable(h, optKeepAlive)
}

func (s *Sockets) enable(h api.Handle, opt sockOpt) error {
	if !h.Valid() {
		return api.ErrInvalidHandle
	}
	cur, err := s.sys.getInt(int(h), opt)
	if err != nil {
		return fmt.Errorf("get %s: %w", opt, err)
	}
	if cur != 0 {
		return nil
	}
	if err := s.sys.setInt(int(h), opt, 1); err != nil {
		return fmt.Errorf("set %s: %w", opt, err)
	}
	return nil
}

// SocketOK reports whether h has no pending socket error.
func (s *Sockets) SocketOK(h api.Handle) bool {
	if !h.Valid() {
		return false
	}
	v, err := s.sys.getInt(int(h), optError)
	return err == nil && v == 0
}

// PeerString formats the remote endpoint of h as "ip:port - socket: N",
// with "NULL:NULL" standing in when the peer is unknown.
func (s *Sockets) PeerString(h api.Handle) string {
	ip, port := "NULL", "NULL"
	if h.Valid() {
		if sa, err := s.sys.peer(int(h)); err == nil && sa.family != api.FamilyLocal && sa.addr.IsValid() {
			ip = sa.addr.Addr().String()
			port = strconv.Itoa(int(sa.addr.Port()))
		}
	}
	return fmt.Sprintf("%s:%s - socket: %d", ip, port, int(h))
}

func (s *Sockets) Send(h api.Handle, p []byte) (int, error) {
	if !h.Valid() {
		return 0, api.ErrInvalidHandle
	}
	return s.sys.write(int(h), p)
}

func (s *Sockets) Recv(h api.Handle, p []byte) (int, error) {
	if !h.Valid() {
		return 0, api.ErrInvalidHandle
	}
	return s.sys.read(int(h), p)
}
