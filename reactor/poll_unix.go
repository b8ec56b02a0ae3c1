// File: reactor/poll_unix.go
//go:build linux || darwin || freebsd || netbsd || openbsd

// Author: momentics <momentics@gmail.com>
//
// poll(2) backend.

package reactor

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

type pollWaiter struct{}

func defaultWaiter() waiter { return pollWaiter{} }

func (pollWaiter) wait(fds []int, write bool, ms int) ([]bool, error) {
	events := int16(unix.POLLIN)
	if write {
		events = unix.POLLOUT
	}
	pfds := make([]unix.PollFd, len(fds))
	for i, fd := range fds {
		pfds[i] = unix.PollFd{Fd: int32(fd), Events: events}
	}

	deadline := time.Now().Add(time.Duration(ms) * time.Millisecond)
	for {
		_, err := unix.Poll(pfds, ms)
		if err == nil {
			break
		}
		if err != unix.EINTR {
			return nil, os.NewSyscallError("poll", err)
		}
		ms = 0
		if left := time.Until(deadline); left > 0 {
			ms = int(left / time.Millisecond)
		}
	}

	ready := make([]bool, len(fds))
	for i, pfd := range pfds {
		// select(2) fails the whole call on a bad descriptor.
		if pfd.Revents&unix.POLLNVAL != 0 {
			return nil, os.NewSyscallError("poll", unix.EBADF)
		}
		ready[i] = pfd.Revents&(events|unix.POLLERR|unix.POLLHUP) != 0
	}
	return ready, nil
}

func (pollWaiter) soError(fd int) (int, error) {
	v, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return 0, os.NewSyscallError("getsockopt", err)
	}
	return v, nil
}
