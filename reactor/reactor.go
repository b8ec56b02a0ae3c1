// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral readiness multiplexer.

package reactor

import (
	"fmt"
	"time"

	"github.com/containerd/errdefs"
	"go.uber.org/zap"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/control"
)

// MaxHandles is the largest watch set a single Wait accepts.
const MaxHandles = 64

// waiter is the OS backend of a Poller.
type waiter interface {
	// wait blocks at most ms milliseconds and reports, per fd, whether it is
	// ready for the requested direction (errors and hangups count as ready).
	wait(fds []int, write bool, ms int) ([]bool, error)
	// soError returns the pending SO_ERROR of fd.
	soError(fd int) (int, error)
}

// Poller implements api.Multiplexer.
type Poller struct {
	w     waiter
	sleep func(time.Duration)
}

var _ api.Multiplexer = (*Poller)(nil)

// NewPoller returns a poller for the current platform.
func NewPoller() *Poller {
	return &Poller{w: defaultWaiter(), sleep: time.Sleep}
}

// SplitTimeout decomposes a millisecond timeout into whole seconds and
// residual microseconds.
func SplitTimeout(ms int) (sec, usec int) {
	return ms / 1000, (ms * 1000) % 1000000
}

func toMillis(timeout time.Duration) int {
	if timeout < 0 {
		return 0
	}
	sec, usec := SplitTimeout(int(timeout / time.Millisecond))
	return sec*1000 + usec/1000
}

// Wait blocks at most timeout until at least one handle is ready for
// interest. Bit i of the result is set iff handles[i] is ready. Handles that
// are not valid are never watched. A zero timeout polls without blocking,
// a negative one is treated as zero. On error the mask is zero.
func (p *Poller) Wait(handles []api.Handle, interest api.Interest, timeout time.Duration) (api.Readiness, error) {
	if len(handles) > MaxHandles {
		return 0, fmt.Errorf("watch set of %d handles exceeds %d: %w", len(handles), MaxHandles, errdefs.ErrInvalidArgument)
	}
	ms := toMillis(timeout)

	fds := make([]int, 0, len(handles))
	slots := make([]int, 0, len(handles))
	for i, h := range handles {
		if !h.Valid() {
			continue
		}
		fds = append(fds, int(h))
		slots = append(slots, i)
	}
	if len(fds) == 0 {
		p.sleep(time.Duration(ms) * time.Millisecond)
		return 0, nil
	}

	start := time.Now()
	ready, err := p.w.wait(fds, interest == api.InterestWrite, ms)
	control.ReadinessWait.UpdateSince(start)
	if err != nil {
		control.Logger().Debug("readiness wait failed", zap.Ints("fds", fds), zap.Error(err))
		return 0, err
	}

	var r api.Readiness
	for j, ok := range ready {
		if ok {
			r = r.Set(slots[j])
		}
	}
	return r, nil
}

// Select2 waits for read readiness on a and b; bits 0 and 1.
func (p *Poller) Select2(a, b api.Handle, ms int) (api.Readiness, error) {
	return p.Wait([]api.Handle{a, b}, api.InterestRead, time.Duration(ms)*time.Millisecond)
}

// Select3 waits for read readiness on a, b and c; bits 0 to 2.
func (p *Poller) Select3(a, b, c api.Handle, ms int) (api.Readiness, error) {
	return p.Wait([]api.Handle{a, b, c}, api.InterestRead, time.Duration(ms)*time.Millisecond)
}

// CanSend reports whether h becomes writable within ms and has no pending
// socket error.
func (p *Poller) CanSend(h api.Handle, ms int) bool {
	return p.can(h, api.InterestWrite, ms)
}

// CanRecv reports whether h becomes readable within ms and has no pending
// socket error.
func (p *Poller) CanRecv(h api.Handle, ms int) bool {
	return p.can(h, api.InterestRead, ms)
}

func (p *Poller) can(h api.Handle, interest api.Interest, ms int) bool {
	if !h.Valid() {
		return false
	}
	r, err := p.Wait([]api.Handle{h}, interest, time.Duration(ms)*time.Millisecond)
	if err != nil || !r.IsSet(0) {
		return false
	}
	v, err := p.w.soError(int(h))
	return err == nil && v == 0
}
