package transport

import (
	"context"
	"errors"
	"path/filepath"
	"syscall"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/fake"
	"github.com/momentics/hioload-net/internal/addr"
)

func newTestConnector(sys *fakeSys, r api.Resolver) *Connector {
	return &Connector{sys: sys, resolver: r}
}

func TestConnectStopsAtFirstSuccess(t *testing.T) {
	sys := newFakeSys()
	fd, _ := sys.socket(api.FamilyIPv6)
	sys.connectErr = func(sa sockaddr) error {
		if sa.addr == ap("[2001:db8::1]:3389") {
			return syscall.ECONNREFUSED
		}
		return nil
	}
	r := staticResolver{active: []api.Candidate{
		cand("2001:db8::1", 3389), cand("2001:db8::2", 3389), cand("2001:db8::3", 3389),
	}}
	err := newTestConnector(sys, r).Connect(context.Background(), api.Handle(fd), api.AddressSpec{Host: "h", Port: "3389"})
	assert.NilError(t, err)
	assert.Assert(t, is.Len(sys.connects, 2))
	assert.Equal(t, sys.connects[1].addr, ap("[2001:db8::2]:3389"))
}

func TestConnectExhaustsCandidates(t *testing.T) {
	sys := newFakeSys()
	fd, _ := sys.socket(api.FamilyIPv6)
	sys.connectErr = func(sockaddr) error { return syscall.ECONNREFUSED }
	cands := []api.Candidate{cand("2001:db8::1", 80), cand("2001:db8::2", 80), cand("2001:db8::3", 80)}
	spec := api.AddressSpec{Host: "h", Port: "80"}

	err := newTestConnector(sys, staticResolver{active: cands}).Connect(context.Background(), api.Handle(fd), spec)
	var cerr *api.ConnectError
	assert.Assert(t, errors.As(err, &cerr))
	assert.Equal(t, cerr.Attempts, 3)
	assert.Equal(t, cerr.Last, cands[2])
	assert.Equal(t, cerr.Spec, spec)
	assert.Assert(t, errors.Is(err, syscall.ECONNREFUSED))
	assert.Equal(t, api.CodeOf(err), api.ErrCodeRefused)
}

func TestConnectMapsIPv4OntoIPv6Socket(t *testing.T) {
	sys := newFakeSys()
	fd, _ := sys.socket(api.FamilyIPv6)
	r := staticResolver{active: []api.Candidate{cand("192.0.2.10", 3350)}}
	assert.NilError(t, newTestConnector(sys, r).Connect(context.Background(), api.Handle(fd), api.AddressSpec{}))
	assert.Equal(t, sys.connects[0].family, api.FamilyIPv6)
	assert.Equal(t, sys.connects[0].addr, ap("[::ffff:192.0.2.10]:3350"))
}

func TestConnectIPv4SocketSkipsPureIPv6(t *testing.T) {
	sys := newFakeSys()
	fd, _ := sys.socket(api.FamilyIPv4)
	r := staticResolver{active: []api.Candidate{cand("::1", 22), cand("::ffff:127.0.0.1", 22)}}
	assert.NilError(t, newTestConnector(sys, r).Connect(context.Background(), api.Handle(fd), api.AddressSpec{}))
	// The IPv6 candidate fails before reaching connect(2).
	assert.Assert(t, is.Len(sys.connects, 1))
	assert.Equal(t, sys.connects[0].addr, ap("127.0.0.1:22"))
}

func TestConnectIPv4SocketOnlyIPv6Candidates(t *testing.T) {
	sys := newFakeSys()
	fd, _ := sys.socket(api.FamilyIPv4)
	r := staticResolver{active: []api.Candidate{cand("::1", 22)}}
	err := newTestConnector(sys, r).Connect(context.Background(), api.Handle(fd), api.AddressSpec{})
	var cerr *api.ConnectError
	assert.Assert(t, errors.As(err, &cerr))
	assert.Equal(t, cerr.Attempts, 1)
	assert.Assert(t, errors.Is(err, syscall.EAFNOSUPPORT))
}

func TestConnectInProgress(t *testing.T) {
	sys := newFakeSys()
	fd, _ := sys.socket(api.FamilyIPv6)
	sys.connectErr = func(sockaddr) error { return syscall.EINPROGRESS }
	r := staticResolver{active: []api.Candidate{cand("::1", 80), cand("::2", 80)}}
	err := newTestConnector(sys, r).Connect(context.Background(), api.Handle(fd), api.AddressSpec{})
	assert.Assert(t, errors.Is(err, api.ErrInProgress))
	assert.Assert(t, api.IsWouldBlock(err))
	assert.Assert(t, is.Len(sys.connects, 1))
}

func TestConnectResolutionFailure(t *testing.T) {
	sys := newFakeSys()
	fd, _ := sys.socket(api.FamilyIPv6)
	rerr := &api.ResolutionError{Spec: api.AddressSpec{Host: "nowhere", Port: "1"}, Err: api.ErrNoCandidates}
	err := newTestConnector(sys, staticResolver{err: rerr}).Connect(context.Background(), api.Handle(fd), rerr.Spec)
	assert.Equal(t, api.CodeOf(err), api.ErrCodeResolution)
	assert.Assert(t, is.Len(sys.connects, 0))
}

func TestConnectInvalidHandle(t *testing.T) {
	c := newTestConnector(newFakeSys(), staticResolver{})
	assert.ErrorIs(t, c.Connect(context.Background(), api.NoHandle, api.AddressSpec{}), api.ErrInvalidHandle)
	assert.ErrorIs(t, c.ConnectLocal(-1, "/tmp/x"), api.ErrInvalidHandle)
}

func TestConnectLocal(t *testing.T) {
	sys := newFakeSys()
	fd, _ := sys.socket(api.FamilyLocal)
	path := filepath.Join(t.TempDir(), "sock")
	assert.NilError(t, newTestConnector(sys, staticResolver{}).ConnectLocal(api.Handle(fd), path))
	assert.Equal(t, sys.connects[0], localSockaddr(path))
}

func TestConnectTriesIPv6LoopbackFirstUnderDualStack(t *testing.T) {
	sys := newFakeSys()
	fd, _ := sys.socket(api.FamilyIPv6)
	lookup := &fake.Lookup{}
	c := newTestConnector(sys, addr.NewResolver(lookup, api.StackDual))

	assert.NilError(t, c.Connect(context.Background(), api.Handle(fd), api.AddressSpec{Host: "127.0.0.1", Port: "3350"}))
	assert.DeepEqual(t, lookup.Asked(), []string{"::1"})
	assert.Equal(t, sys.connects[0].addr, ap("[::1]:3350"))
}
