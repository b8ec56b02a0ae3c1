//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !windows

// File: reactor/poll_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package reactor

import "github.com/momentics/hioload-net/api"

type stubWaiter struct{}

func defaultWaiter() waiter { return stubWaiter{} }

func (stubWaiter) wait([]int, bool, int) ([]bool, error) { return nil, api.ErrNotSupported }
func (stubWaiter) soError(int) (int, error)              { return 0, api.ErrNotSupported }
