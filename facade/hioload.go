// File: facade/hioload.go
// Unified facade layer for hioload-net.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Layer aggregates the socket components behind a single value built from
// one control.Config: resolver, socket factory, connector, binder, acceptor,
// per-handle utilities, readiness poller and the optional scratch
// directory. It also owns the logger level, metrics registration, debug
// probes and the runtime config store.

package facade

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/control"
	"github.com/momentics/hioload-net/internal/addr"
	"github.com/momentics/hioload-net/internal/scratch"
	"github.com/momentics/hioload-net/internal/transport"
	"github.com/momentics/hioload-net/reactor"
)

// ScratchRootName is the shared directory created under Config.ScratchRoot.
const ScratchRootName = ".hioload"

// Option customizes New.
type Option func(*options)

type options struct {
	lookup api.Lookup
	logger *zap.Logger
}

// WithLookup replaces the system name service.
func WithLookup(l api.Lookup) Option {
	return func(o *options) { o.lookup = l }
}

// WithLogger installs l instead of building a logger from Config.LogLevel.
// Runtime log level reloads are then up to the caller.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Layer is the main facade type.
type Layer struct {
	cfg    *control.Config
	stack  api.StackMode
	store  *control.ConfigStore
	probes *control.DebugProbes

	resolver  *addr.Resolver
	factory   *transport.Factory
	connector *transport.Connector
	binder    *transport.Binder
	acceptor  *transport.Acceptor
	sockets   *transport.Sockets
	poller    *reactor.Poller
	scratch   *scratch.Dir

	mu     sync.Mutex
	closed bool
}

var (
	_ api.GracefulShutdown = (*Layer)(nil)
	_ api.SocketFactory    = (*Layer)(nil)
	_ api.Connector        = (*Layer)(nil)
	_ api.Binder           = (*Layer)(nil)
	_ api.Acceptor         = (*Layer)(nil)
	_ api.Multiplexer      = (*Layer)(nil)
)

// New validates cfg and builds a Layer. A nil cfg uses control.DefaultConfig.
func New(cfg *control.Config, opts ...Option) (*Layer, error) {
	if cfg == nil {
		cfg = control.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, fn := range opts {
		fn(&o)
	}

	store := control.NewConfigStore()
	if o.logger != nil {
		control.SetLogger(o.logger)
	} else {
		l, lvl, err := control.NewReloadableLogger(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		control.SetLogger(l)
		store.OnReload(control.LogLevelHook(lvl))
	}
	if cfg.Metrics {
		control.RegisterMetrics()
	}

	stack, err := transport.ResolveStack(cfg.Stack)
	if err != nil {
		return nil, err
	}

	r := addr.NewResolver(o.lookup, stack)
	l := &Layer{
		cfg:       cfg,
		stack:     stack,
		store:     store,
		probes:    control.NewDebugProbes(),
		resolver:  r,
		factory:   transport.NewFactory(stack, cfg.SendBufferFloor),
		connector: transport.NewConnector(r),
		binder:    transport.NewBinder(r),
		acceptor:  transport.NewAcceptor(),
		sockets:   transport.NewSockets(),
		poller:    reactor.NewPoller(),
	}

	if cfg.AppName != "" {
		d, err := scratch.New(filepath.Join(cfg.ScratchRoot, ScratchRootName), cfg.AppName)
		if err != nil {
			return nil, err
		}
		if err := d.Init(); err != nil {
			return nil, fmt.Errorf("scratch init: %w", err)
		}
		l.scratch = d
	}

	store.SetConfig(cfg.AsMap())
	control.RegisterPlatformProbes(l.probes)
	l.probes.RegisterProbe("net.stack", func() any { return l.stack.String() })
	l.probes.RegisterProbe("config", func() any { return l.store.GetSnapshot() })
	l.probes.RegisterProbe("scratch.path", func() any { return l.ScratchPath() })

	control.Logger().Info("transport layer ready",
		zap.Stringer("stack", stack),
		zap.Int("send_buffer_floor", cfg.SendBufferFloor),
		zap.String("scratch", l.ScratchPath()))
	return l, nil
}

// Stack returns the stack mode chosen at construction.
func (l *Layer) Stack() api.StackMode { return l.stack }

// Config returns the validated configuration.
func (l *Layer) Config() *control.Config { return l.cfg }

// Debug exposes the layer's debug probes.
func (l *Layer) Debug() api.Debug { return l.probes }

// Reload merges values into the runtime config store. Only "log_level"
// takes effect on a live layer.
func (l *Layer) Reload(values map[string]any) {
	l.store.SetConfig(values)
}

// Resolve returns connect candidates for spec.
func (l *Layer) Resolve(ctx context.Context, spec api.AddressSpec) (*api.CandidateList, error) {
	return l.resolver.Resolve(ctx, spec)
}

// ResolvePassive returns bind candidates for spec.
func (l *Layer) ResolvePassive(ctx context.Context, spec api.AddressSpec) (*api.CandidateList, error) {
	return l.resolver.ResolvePassive(ctx, spec)
}

func (l *Layer) Create() (api.Handle, error)      { return l.factory.Create() }
func (l *Layer) CreateLocal() (api.Handle, error) { return l.factory.CreateLocal() }

func (l *Layer) Connect(ctx context.Context, h api.Handle, spec api.AddressSpec) error {
	return l.connector.Connect(ctx, h, spec)
}

func (l *Layer) ConnectLocal(h api.Handle, path string) error {
	return l.connector.ConnectLocal(h, path)
}

func (l *Layer) Bind(ctx context.Context, h api.Handle, port, filter string) error {
	return l.binder.Bind(ctx, h, port, filter)
}

func (l *Layer) BindLocal(h api.Handle, path string) error {
	return l.binder.BindLocal(h, path)
}

func (l *Layer) Listen(h api.Handle) error               { return l.acceptor.Listen(h) }
func (l *Layer) Accept(h api.Handle) (api.Handle, error) { return l.acceptor.Accept(h) }

func (l *Layer) Close(h api.Handle) error          { return l.sockets.Close(h) }
func (l *Layer) SetNonBlocking(h api.Handle) error { return l.sockets.SetNonBlocking(h) }
func (l *Layer) SetNoDelay(h api.Handle) error     { return l.sockets.SetNoDelay(h) }
func (l *Layer) SetKeepAlive(h api.Handle) error   { return l.sockets.SetKeepAlive(h) }
func (l *Layer) SocketOK(h api.Handle) bool        { return l.sockets.SocketOK(h) }
func (l *Layer) PeerString(h api.Handle) string    { return l.sockets.PeerString(h) }

func (l *Layer) Send(h api.Handle, p []byte) (int, error) { return l.sockets.Send(h, p) }
func (l *Layer) Recv(h api.Handle, p []byte) (int, error) { return l.sockets.Recv(h, p) }

// Wait blocks at most timeout for readiness on handles.
func (l *Layer) Wait(handles []api.Handle, interest api.Interest, timeout time.Duration) (api.Readiness, error) {
	return l.poller.Wait(handles, interest, timeout)
}

func (l *Layer) Select2(a, b api.Handle, ms int) (api.Readiness, error) {
	return l.poller.Select2(a, b, ms)
}

func (l *Layer) Select3(a, b, c api.Handle, ms int) (api.Readiness, error) {
	return l.poller.Select3(a, b, c, ms)
}

func (l *Layer) CanSend(h api.Handle, ms int) bool { return l.poller.CanSend(h, ms) }
func (l *Layer) CanRecv(h api.Handle, ms int) bool { return l.poller.CanRecv(h, ms) }

// ScratchPath returns the current scratch directory, "" when disabled.
func (l *Layer) ScratchPath() string {
	if l.scratch == nil {
		return ""
	}
	return l.scratch.Path()
}

// RenewScratch replaces the scratch directory with a fresh one, for use
// in a forked child that must not share its parent's directory.
func (l *Layer) RenewScratch() error {
	if l.scratch == nil {
		return nil
	}
	return l.scratch.Renew()
}

// Shutdown removes the scratch directory and flushes the logger. Handles
// are owned by callers and are not closed. Calling Shutdown twice is safe.
func (l *Layer) Shutdown() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	var err error
	if l.scratch != nil {
		err = l.scratch.Teardown()
	}
	_ = control.Logger().Sync()
	return err
}
