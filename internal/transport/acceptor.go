// File: internal/transport/acceptor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"go.uber.org/zap"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/control"
)

// ListenBacklog is the pending-connection queue length given to listen(2).
const ListenBacklog = 2

// Acceptor puts handles in listening mode and accepts inbound connections.
type Acceptor struct {
	sys sysCalls
}

var _ api.Acceptor = (*Acceptor)(nil)

func NewAcceptor() *Acceptor {
	return &Acceptor{sys: defaultSys()}
}

// Listen marks h passive.
func (a *Acceptor) Listen(h api.Handle) error {
	if !h.Valid() {
		return api.ErrInvalidHandle
	}
	return a.sys.listen(int(h), ListenBacklog)
}

// Accept returns the next inbound connection on h. A non-blocking listener
// with nothing pending yields an error for which api.IsWouldBlock is true.
func (a *Acceptor) Accept(h api.Handle) (api.Handle, error) {
	if !h.Valid() {
		return api.NoHandle, api.ErrInvalidHandle
	}
	fd, peer, err := a.sys.accept(int(h))
	if err != nil {
		return api.NoHandle, err
	}
	control.Accepts.Inc()
	control.Logger().Debug("accepted", zap.Int("listener", int(h)), zap.Int("handle", fd), zap.Stringer("peer", peer))
	return api.Handle(fd), nil
}
