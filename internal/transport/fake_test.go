package transport

import (
	"context"
	"net/netip"
	"syscall"

	"github.com/momentics/hioload-net/api"
)

// fakeSys records every call and answers from configurable tables.
type fakeSys struct {
	nextFd     int
	socketErr  map[api.Family]error
	families   map[int]api.Family
	opts       map[int]map[sockOpt]int
	defaults   map[sockOpt]int
	getErr     map[sockOpt]error
	setErr     map[sockOpt]error
	sets       []sockOpt
	connectErr func(sa sockaddr) error
	connects   []sockaddr
	bindErr    func(sa sockaddr) error
	binds      []sockaddr
	backlog    int
	closed     []int
	closeErr   error
	acceptFd   int
	acceptErr  error
	peerAddr   sockaddr
	peerErr    error
}

func newFakeSys() *fakeSys {
	return &fakeSys{
		nextFd:    3,
		socketErr: map[api.Family]error{},
		families:  map[int]api.Family{},
		opts:      map[int]map[sockOpt]int{},
		defaults:  map[sockOpt]int{optV6Only: 1, optSendBuf: 16 * 1024},
		getErr:    map[sockOpt]error{},
		setErr:    map[sockOpt]error{},
	}
}

func (f *fakeSys) socket(fam api.Family) (int, error) {
	if err := f.socketErr[fam]; err != nil {
		return -1, err
	}
	fd := f.nextFd
	f.nextFd++
	f.families[fd] = fam
	f.opts[fd] = map[sockOpt]int{}
	for k, v := range f.defaults {
		f.opts[fd][k] = v
	}
	return fd, nil
}

func (f *fakeSys) close(fd int) error {
	if f.closeErr != nil {
		return f.closeErr
	}
	f.closed = append(f.closed, fd)
	return nil
}

func (f *fakeSys) getInt(fd int, o sockOpt) (int, error) {
	if err := f.getErr[o]; err != nil {
		return 0, err
	}
	return f.opts[fd][o], nil
}

func (f *fakeSys) setInt(fd int, o sockOpt, v int) error {
	f.sets = append(f.sets, o)
	if err := f.setErr[o]; err != nil {
		return err
	}
	f.opts[fd][o] = v
	return nil
}

func (f *fakeSys) setNonblock(int) error { return nil }

func (f *fakeSys) connect(_ int, sa sockaddr) error {
	f.connects = append(f.connects, sa)
	if f.connectErr != nil {
		return f.connectErr(sa)
	}
	return nil
}

func (f *fakeSys) bind(_ int, sa sockaddr) error {
	f.binds = append(f.binds, sa)
	if f.bindErr != nil {
		return f.bindErr(sa)
	}
	return nil
}

func (f *fakeSys) listen(_ int, backlog int) error {
	f.backlog = backlog
	return nil
}

func (f *fakeSys) accept(int) (int, sockaddr, error) {
	if f.acceptErr != nil {
		return -1, sockaddr{}, f.acceptErr
	}
	return f.acceptFd, f.peerAddr, nil
}

func (f *fakeSys) family(fd int) (api.Family, error) {
	fam, ok := f.families[fd]
	if !ok {
		return api.FamilyUnspec, syscall.EBADF
	}
	return fam, nil
}

func (f *fakeSys) peer(int) (sockaddr, error) { return f.peerAddr, f.peerErr }

func (f *fakeSys) read(_ int, p []byte) (int, error)  { return copy(p, "pong"), nil }
func (f *fakeSys) write(_ int, p []byte) (int, error) { return len(p), nil }

// staticResolver hands out fixed candidate lists.
type staticResolver struct {
	active  []api.Candidate
	passive []api.Candidate
	err     error
}

func (r staticResolver) Resolve(context.Context, api.AddressSpec) (*api.CandidateList, error) {
	if r.err != nil {
		return nil, r.err
	}
	return api.NewCandidateList(r.active...), nil
}

func (r staticResolver) ResolvePassive(context.Context, api.AddressSpec) (*api.CandidateList, error) {
	if r.err != nil {
		return nil, r.err
	}
	return api.NewCandidateList(r.passive...), nil
}

func cand(s string, port uint16) api.Candidate {
	return api.CandidateFrom(netip.MustParseAddr(s), port)
}

func ap(s string) netip.AddrPort { return netip.MustParseAddrPort(s) }
