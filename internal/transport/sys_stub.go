// File: internal/transport/sys_stub.go
//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !windows

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stub implementation for unsupported platforms.

package transport

import "github.com/momentics/hioload-net/api"

type stubSys struct{}

func defaultSys() sysCalls { return stubSys{} }

func (stubSys) socket(api.Family) (int, error)    { return -1, api.ErrNotSupported }
func (stubSys) close(int) error                   { return api.ErrNotSupported }
func (stubSys) getInt(int, sockOpt) (int, error)  { return 0, api.ErrNotSupported }
func (stubSys) setInt(int, sockOpt, int) error    { return api.ErrNotSupported }
func (stubSys) setNonblock(int) error             { return api.ErrNotSupported }
func (stubSys) connect(int, sockaddr) error       { return api.ErrNotSupported }
func (stubSys) bind(int, sockaddr) error          { return api.ErrNotSupported }
func (stubSys) listen(int, int) error             { return api.ErrNotSupported }
func (stubSys) accept(int) (int, sockaddr, error) { return -1, sockaddr{}, api.ErrNotSupported }
func (stubSys) family(int) (api.Family, error)    { return api.FamilyUnspec, api.ErrNotSupported }
func (stubSys) peer(int) (sockaddr, error)        { return sockaddr{}, api.ErrNotSupported }
func (stubSys) read(int, []byte) (int, error)     { return 0, api.ErrNotSupported }
func (stubSys) write(int, []byte) (int, error)    { return 0, api.ErrNotSupported }
