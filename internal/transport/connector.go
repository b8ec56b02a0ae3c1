// File: internal/transport/connector.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"go.uber.org/zap"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/control"
)

// Connector connects handles to resolved candidates in order.
type Connector struct {
	sys      sysCalls
	resolver api.Resolver
}

var _ api.Connector = (*Connector)(nil)

// NewConnector returns a connector resolving through r.
func NewConnector(r api.Resolver) *Connector {
	return &Connector{sys: defaultSys(), resolver: r}
}

// Connect resolves spec and tries each candidate until one connects.
// On a non-blocking handle an in-progress connect stops the walk and is
// returned as an error matching api.ErrInProgress.
func (c *Connector) Connect(ctx context.Context, h api.Handle, spec api.AddressSpec) error {
	if !h.Valid() {
		return api.ErrInvalidHandle
	}
	fd := int(h)
	fam, err := c.sys.family(fd)
	if err != nil {
		return err
	}
	list, err := c.resolver.Resolve(ctx, spec)
	if err != nil {
		return err
	}

	log := control.Logger()
	attempts := 0
	var last api.Candidate
	var lastErr error
	for {
		cand, ok := list.Next()
		if !ok {
			break
		}
		attempts++
		last = cand
		control.ConnectAttempts.Inc()

		sa, err := sockaddrFor(fam, cand)
		if err == nil {
			err = c.sys.connect(fd, sa)
		}
		switch {
		case err == nil:
			log.Debug("connected", zap.Int("handle", fd), zap.Stringer("candidate", cand), zap.Int("attempt", attempts))
			return nil
		case errors.Is(err, syscall.EINPROGRESS):
			return fmt.Errorf("connect %s: %w: %w", cand, api.ErrInProgress, err)
		}
		log.Debug("connect attempt failed", zap.Int("handle", fd), zap.Stringer("candidate", cand), zap.Error(err))
		lastErr = err
	}

	if attempts == 0 {
		lastErr = api.ErrNoCandidates
	}
	control.ConnectFailures.Inc()
	return &api.ConnectError{Spec: spec, Attempts: attempts, Last: last, Err: lastErr}
}

// ConnectLocal connects h to the local socket at path.
func (c *Connector) ConnectLocal(h api.Handle, path string) error {
	if !h.Valid() {
		return api.ErrInvalidHandle
	}
	err := c.sys.connect(int(h), localSockaddr(path))
	if errors.Is(err, syscall.EINPROGRESS) {
		return fmt.Errorf("connect %s: %w: %w", path, api.ErrInProgress, err)
	}
	return err
}
