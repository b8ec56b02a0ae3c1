// File: internal/transport/factory.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stream socket creation with best-effort option tuning.

package transport

import (
	"go.uber.org/zap"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/control"
)

// Factory creates stream sockets for the configured stack.
type Factory struct {
	sys          sysCalls
	stack        api.StackMode
	sendBufFloor int
}

var _ api.SocketFactory = (*Factory)(nil)

// NewFactory returns a factory for stack. New sockets get SO_SNDBUF raised
// to at least sendBufFloor.
func NewFactory(stack api.StackMode, sendBufFloor int) *Factory {
	return newFactory(defaultSys(), stack, sendBufFloor)
}

func newFactory(sys sysCalls, stack api.StackMode, sendBufFloor int) *Factory {
	return &Factory{sys: sys, stack: stack, sendBufFloor: sendBufFloor}
}

// Create opens a TCP stream socket. Under the dual stack an IPv6 socket is
// tried first and IPv4 is used only when that fails.
func (f *Factory) Create() (api.Handle, error) {
	fam := api.FamilyIPv4
	fd := -1
	var err error
	if f.stack == api.StackDual {
		fd, err = f.sys.socket(api.FamilyIPv6)
		if err == nil {
			fam = api.FamilyIPv6
		} else {
			control.Logger().Debug("ipv6 socket unavailable, falling back to ipv4", zap.Error(err))
		}
	}
	if fam == api.FamilyIPv4 {
		fd, err = f.sys.socket(api.FamilyIPv4)
		if err != nil {
			return api.NoHandle, err
		}
	}
	f.tune(fd, fam)
	return api.Handle(fd), nil
}

// CreateLocal opens a local (AF_UNIX) stream socket. No options are tuned.
func (f *Factory) CreateLocal() (api.Handle, error) {
	fd, err := f.sys.socket(api.FamilyLocal)
	if err != nil {
		return api.NoHandle, err
	}
	return api.Handle(fd), nil
}

func (f *Factory) tune(fd int, fam api.Family) {
	if fam == api.FamilyIPv6 {
		ensureOpt(f.sys, fd, optV6Only, func(v int) (int, bool) { return 0, v != 0 })
	}
	ensureOpt(f.sys, fd, optReuseAddr, func(v int) (int, bool) { return 1, v == 0 })
	ensureOpt(f.sys, fd, optSendBuf, func(v int) (int, bool) { return f.sendBufFloor, v < f.sendBufFloor })
}

// ensureOpt reads opt and writes the value returned by want when it asks for
// a change. Failures are reported as warnings and swallowed.
func ensureOpt(sys sysCalls, fd int, opt sockOpt, want func(cur int) (int, bool)) bool {
	cur, err := sys.getInt(fd, opt)
	if err != nil {
		warnOption(fd, opt, "get", err)
		return false
	}
	v, change := want(cur)
	if !change {
		return true
	}
	if err := sys.setInt(fd, opt, v); err != nil {
		warnOption(fd, opt, "set", err)
		return false
	}
	return true
}

func warnOption(fd int, opt sockOpt, op string, err error) {
	w := &api.OptionTuneWarning{Handle: api.Handle(fd), Option: opt.String(), Op: op, Err: err}
	control.OptionTuneWarnings.WithValues(w.Option).Inc()
	control.Logger().Warn("socket option tuning failed",
		zap.Int("handle", fd),
		zap.String("option", w.Option),
		zap.String("op", op),
		zap.Error(w))
}
