// File: internal/scratch/scratch.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package scratch manages a per-application scratch directory under a
// shared, world-writable sticky root.
package scratch

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/containerd/errdefs"
	"go.uber.org/zap"

	"github.com/momentics/hioload-net/control"
)

// RootMode is applied to the shared root when this package creates it.
const RootMode = os.ModeSticky | 0o777

// Dir is a unique "<app>-XXXXXX" directory below root.
type Dir struct {
	mu   sync.Mutex
	root string
	app  string
	path string
}

// New returns an uninitialized Dir. app must be non-empty.
func New(root, app string) (*Dir, error) {
	if app == "" {
		return nil, fmt.Errorf("scratch: empty app name: %w", errdefs.ErrInvalidArgument)
	}
	if root == "" {
		return nil, fmt.Errorf("scratch: empty root: %w", errdefs.ErrInvalidArgument)
	}
	return &Dir{root: root, app: app}, nil
}

// Init creates root if missing and a fresh scratch directory inside it.
func (d *Dir) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRoot(); err != nil {
		return err
	}
	return d.makeLocked()
}

// Renew creates another directory from the same template and makes it
// current. The previous directory is left in place for its owner.
func (d *Dir) Renew() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.makeLocked()
}

// Path returns the current directory or "" before Init.
func (d *Dir) Path() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.path
}

// Teardown removes the current directory. Calling it again is a no-op.
func (d *Dir) Teardown() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.path == "" {
		return nil
	}
	p := d.path
	d.path = ""
	if err := os.RemoveAll(p); err != nil {
		control.Logger().Warn("removing scratch directory failed", zap.String("path", p), zap.Error(err))
		return fmt.Errorf("scratch: remove %s: %w", p, err)
	}
	return nil
}

func (d *Dir) ensureRoot() error {
	err := os.Mkdir(d.root, 0o777)
	switch {
	case err == nil:
		// Mkdir is subject to umask and drops the sticky bit.
		if err := os.Chmod(d.root, RootMode); err != nil {
			return fmt.Errorf("scratch: chmod %s: %w", d.root, err)
		}
	case errors.Is(err, os.ErrExist):
	default:
		return fmt.Errorf("scratch: create %s: %w", d.root, err)
	}
	return nil
}

func (d *Dir) makeLocked() error {
	p, err := os.MkdirTemp(d.root, d.app+"-")
	if err != nil {
		return fmt.Errorf("scratch: %w", err)
	}
	d.path = p
	control.Logger().Debug("scratch directory created", zap.String("path", p))
	return nil
}
