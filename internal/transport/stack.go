// File: internal/transport/stack.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// One-time detection of IPv6 availability.

package transport

import (
	"fmt"
	"strings"
	"sync"

	"github.com/containerd/errdefs"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/control"
)

var (
	stackOnce sync.Once
	detected  api.StackMode
)

// DetectStack reports StackDual when the host can create IPv6 stream
// sockets. The probe runs once per process.
func DetectStack() api.StackMode {
	stackOnce.Do(func() {
		detected = probeStack(defaultSys())
	})
	return detected
}

func probeStack(sys sysCalls) api.StackMode {
	fd, err := sys.socket(api.FamilyIPv6)
	if err != nil {
		return api.StackIPv4
	}
	_ = sys.close(fd)
	return api.StackDual
}

// ResolveStack maps a control.Config stack setting to a mode.
func ResolveStack(setting string) (api.StackMode, error) {
	switch strings.ToLower(setting) {
	case "", control.StackAuto:
		return DetectStack(), nil
	case control.StackDual:
		return api.StackDual, nil
	case control.StackIPv4:
		return api.StackIPv4, nil
	}
	return api.StackDual, fmt.Errorf("stack %q: %w", setting, errdefs.ErrInvalidArgument)
}
