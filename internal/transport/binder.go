// File: internal/transport/binder.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"context"

	"go.uber.org/zap"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/control"
	"github.com/momentics/hioload-net/internal/addr"
)

// Binder binds handles to the first passive candidate accepted by a filter.
type Binder struct {
	sys      sysCalls
	resolver api.Resolver
}

var _ api.Binder = (*Binder)(nil)

// NewBinder returns a binder resolving through r.
func NewBinder(r api.Resolver) *Binder {
	return &Binder{sys: defaultSys(), resolver: r}
}

// Bind binds h to port on the first candidate matching filter. An empty
// filter or "0.0.0.0" accepts any candidate.
func (b *Binder) Bind(ctx context.Context, h api.Handle, port, filter string) error {
	if !h.Valid() {
		return api.ErrInvalidHandle
	}
	fd := int(h)
	fam, err := b.sys.family(fd)
	if err != nil {
		return err
	}
	list, err := b.resolver.ResolvePassive(ctx, api.AddressSpec{Host: filter, Port: port})
	if err != nil {
		return err
	}

	log := control.Logger()
	attempts := 0
	var lastErr error
	for _, cand := range bindOrder(fam, list) {
		if !addr.MatchFilter(filter, cand) {
			continue
		}
		attempts++
		control.BindAttempts.Inc()

		sa, err := sockaddrFor(fam, cand)
		if err == nil {
			err = b.sys.bind(fd, sa)
		}
		if err == nil {
			log.Debug("bound", zap.Int("handle", fd), zap.Stringer("addr", sa))
			return nil
		}
		log.Debug("bind attempt failed", zap.Int("handle", fd), zap.Stringer("candidate", cand), zap.Error(err))
		lastErr = err
	}

	if attempts == 0 {
		lastErr = api.ErrNoMatch
	}
	return &api.BindError{Port: port, Filter: filter, Attempts: attempts, Err: lastErr}
}

// bindOrder drains list. On an IPv6 socket native IPv6 candidates go ahead
// of IPv4 ones, so a loopback filter lands on ::1 rather than the mapped
// 127.0.0.1 that IPv6 peers cannot reach. Relative order is kept otherwise.
func bindOrder(fam api.Family, list *api.CandidateList) []api.Candidate {
	all := list.Drain()
	if fam != api.FamilyIPv6 {
		return all
	}
	out := make([]api.Candidate, 0, len(all))
	for _, c := range all {
		if c.Family == api.FamilyIPv6 {
			out = append(out, c)
		}
	}
	for _, c := range all {
		if c.Family != api.FamilyIPv6 {
			out = append(out, c)
		}
	}
	return out
}

// BindLocal binds h to a filesystem path.
func (b *Binder) BindLocal(h api.Handle, path string) error {
	if !h.Valid() {
		return api.ErrInvalidHandle
	}
	return b.sys.bind(int(h), localSockaddr(path))
}
