// File: reactor/poll_windows.go
//go:build windows

// Author: momentics <momentics@gmail.com>
//
// WSAPoll backend. x/sys/windows does not wrap WSAPoll, so it is loaded
// lazily from ws2_32.dll.

package reactor

import (
	"os"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	pollErr    = 0x0001
	pollHup    = 0x0002
	pollNval   = 0x0004
	pollWrNorm = 0x0010
	pollRdNorm = 0x0100
	soError    = 0x1007
)

var (
	modws2_32   = windows.NewLazySystemDLL("ws2_32.dll")
	procWSAPoll = modws2_32.NewProc("WSAPoll")
)

// wsaPollFd mirrors WSAPOLLFD.
type wsaPollFd struct {
	fd      windows.Handle
	events  int16
	revents int16
}

type pollWaiter struct{}

func defaultWaiter() waiter { return pollWaiter{} }

func (pollWaiter) wait(fds []int, write bool, ms int) ([]bool, error) {
	events := int16(pollRdNorm)
	if write {
		events = pollWrNorm
	}
	pfds := make([]wsaPollFd, len(fds))
	for i, fd := range fds {
		pfds[i] = wsaPollFd{fd: windows.Handle(fd), events: events}
	}

	r1, _, e1 := procWSAPoll.Call(uintptr(unsafe.Pointer(&pfds[0])), uintptr(len(pfds)), uintptr(int32(ms)))
	if int32(r1) == -1 {
		return nil, os.NewSyscallError("wsapoll", e1)
	}

	ready := make([]bool, len(fds))
	for i, pfd := range pfds {
		if pfd.revents&pollNval != 0 {
			return nil, os.NewSyscallError("wsapoll", syscall.EBADF)
		}
		ready[i] = pfd.revents&(events|pollErr|pollHup) != 0
	}
	return ready, nil
}

func (pollWaiter) soError(fd int) (int, error) {
	v, err := windows.GetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, soError)
	if err != nil {
		return 0, os.NewSyscallError("getsockopt", err)
	}
	return v, nil
}
