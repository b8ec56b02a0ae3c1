// Package api
// Author: momentics <momentics@gmail.com>
//
// Error taxonomy of the transport layer and errno classification helpers.

package api

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/containerd/errdefs"
)

// Common errors used across the library.
var (
	ErrNotSupported  = fmt.Errorf("operation not supported on this platform: %w", errdefs.ErrNotImplemented)
	ErrInvalidHandle = fmt.Errorf("invalid socket handle: %w", errdefs.ErrInvalidArgument)
	ErrNoMatch       = fmt.Errorf("no candidate address matched the bind filter: %w", errdefs.ErrNotFound)
	ErrNoCandidates  = fmt.Errorf("resolution returned no candidates: %w", errdefs.ErrNotFound)
	ErrInProgress    = errors.New("connection in progress")
)

// ResolutionError reports that an address/service could not be resolved to
// any candidate. Empty results are reported the same way.
type ResolutionError struct {
	Spec    AddressSpec
	Passive bool
	Err     error
}

func (e *ResolutionError) Error() string {
	kind := "resolve"
	if e.Passive {
		kind = "resolve passive"
	}
	return fmt.Sprintf("%s %s: %v", kind, e.Spec, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ConnectError reports that every candidate was tried and none connected.
// Err is the error of the last attempt.
type ConnectError struct {
	Spec     AddressSpec
	Attempts int
	Last     Candidate
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %d candidate(s) failed, last %s: %v", e.Spec, e.Attempts, e.Last, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// BindError reports that no candidate matched the filter or that every
// matching bind attempt failed.
type BindError struct {
	Port     string
	Filter   string
	Attempts int
	Err      error
}

func (e *BindError) Error() string {
	filter := e.Filter
	if filter == "" {
		filter = "*"
	}
	return fmt.Sprintf("bind %s port %s: %d attempt(s): %v", filter, e.Port, e.Attempts, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// OptionTuneWarning describes a failed best-effort socket option get/set.
// It is logged and counted, never returned to callers.
type OptionTuneWarning struct {
	Handle Handle
	Option string
	Op     string
	Err    error
}

func (w *OptionTuneWarning) Error() string {
	return fmt.Sprintf("socket %d: %s %s: %v", w.Handle, w.Op, w.Option, w.Err)
}

func (w *OptionTuneWarning) Unwrap() error { return w.Err }

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeNotSupported
	ErrCodeResolution
	ErrCodeRefused
	ErrCodeUnreachable
	ErrCodeAddressInUse
	ErrCodeAddressNotAvailable
	ErrCodeAccessDenied
	ErrCodeWouldBlock
	ErrCodeTimeout
	ErrCodeReset
	ErrCodeResourceExhausted
	ErrCodeNoMatch
	ErrCodeInternal
)

var codeNames = map[ErrorCode]string{
	ErrCodeOK:                  "ok",
	ErrCodeInvalidArgument:     "invalid-argument",
	ErrCodeNotSupported:        "not-supported",
	ErrCodeResolution:          "resolution",
	ErrCodeRefused:             "connection-refused",
	ErrCodeUnreachable:         "unreachable",
	ErrCodeAddressInUse:        "address-in-use",
	ErrCodeAddressNotAvailable: "address-not-available",
	ErrCodeAccessDenied:        "access-denied",
	ErrCodeWouldBlock:          "would-block",
	ErrCodeTimeout:             "timeout",
	ErrCodeReset:               "connection-reset",
	ErrCodeResourceExhausted:   "resource-exhausted",
	ErrCodeNoMatch:             "no-match",
	ErrCodeInternal:            "internal",
}

func (c ErrorCode) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return "unknown"
}

// CodeOf classifies err. Typed layer errors take precedence over the errno
// they wrap.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	var resErr *ResolutionError
	switch {
	case errors.As(err, &resErr):
		return ErrCodeResolution
	case errors.Is(err, ErrNoMatch):
		return ErrCodeNoMatch
	case errors.Is(err, ErrInProgress), IsWouldBlock(err):
		return ErrCodeWouldBlock
	case errdefs.IsNotImplemented(err):
		return ErrCodeNotSupported
	case errdefs.IsInvalidArgument(err):
		return ErrCodeInvalidArgument
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED:
			return ErrCodeRefused
		case syscall.EHOSTUNREACH, syscall.ENETUNREACH:
			return ErrCodeUnreachable
		case syscall.EADDRINUSE:
			return ErrCodeAddressInUse
		case syscall.EADDRNOTAVAIL, syscall.EAFNOSUPPORT:
			return ErrCodeAddressNotAvailable
		case syscall.EACCES, syscall.EPERM:
			return ErrCodeAccessDenied
		case syscall.ETIMEDOUT:
			return ErrCodeTimeout
		case syscall.ECONNRESET, syscall.ECONNABORTED:
			return ErrCodeReset
		case syscall.EMFILE, syscall.ENFILE, syscall.ENOBUFS, syscall.ENOMEM:
			return ErrCodeResourceExhausted
		case syscall.EINVAL, syscall.EBADF, syscall.ENOTSOCK:
			return ErrCodeInvalidArgument
		}
	}
	if os.IsTimeout(err) {
		return ErrCodeTimeout
	}
	return ErrCodeInternal
}

// IsWouldBlock reports whether err means a non-blocking operation could not
// complete immediately.
func IsWouldBlock(err error) bool {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false
	}
	return errno == syscall.EAGAIN || errno == syscall.EWOULDBLOCK || errno == syscall.EINPROGRESS
}
