// Package bridge runs the daemon: it owns the run loop, the session to
// the automation endpoint, the pending-command store, and the control
// socket the CLI talks to.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lydakis/hostbridge/internal/apply"
	"github.com/lydakis/hostbridge/internal/cache"
	"github.com/lydakis/hostbridge/internal/config"
	"github.com/lydakis/hostbridge/internal/convert"
	"github.com/lydakis/hostbridge/internal/cred"
	"github.com/lydakis/hostbridge/internal/ipc"
	"github.com/lydakis/hostbridge/internal/object"
	"github.com/lydakis/hostbridge/internal/paths"
	"github.com/lydakis/hostbridge/internal/pending"
	"github.com/lydakis/hostbridge/internal/router"
	"github.com/lydakis/hostbridge/internal/runloop"
	"github.com/lydakis/hostbridge/internal/session"
	"github.com/lydakis/hostbridge/internal/wire"
)

// Version is stamped at build time.
var Version = "dev"

var signalShutdownFn = func() {
	p, _ := os.FindProcess(os.Getpid())
	_ = p.Signal(syscall.SIGTERM)
}

// Bridge ties the command router to the run loop, the session, and the
// durable pending store.
type Bridge struct {
	cfg    *config.Config
	log    *zap.Logger
	loop   *runloop.Loop
	router *router.Router
	pend   *pending.Store
	sess   *session.Manager

	mu        sync.Mutex
	available bool
	started   time.Time
}

// New builds a bridge over the configured scene graph. The session
// manager is attached separately so tests can run a bridge without one.
func New(cfg *config.Config, log *zap.Logger) (*Bridge, error) {
	if log == nil {
		log = zap.NewNop()
	}

	graph := object.NewGraph()
	if cfg.Scene != "" {
		g, err := object.LoadGraph(cfg.Scene)
		if err != nil {
			return nil, fmt.Errorf("loading scene %s: %w", cfg.Scene, err)
		}
		graph = g
	}

	pendingPath := cfg.PendingFile
	if pendingPath == "" {
		pendingPath = paths.PendingFile()
	}

	b := &Bridge{
		cfg:       cfg,
		log:       log,
		loop:      runloop.New(),
		pend:      pending.New(pendingPath),
		available: true,
		started:   time.Now(),
	}
	b.router = router.New(envFor(graph), log)
	RegisterBuiltins(b.router)
	return b, nil
}

func envFor(graph *object.Graph) router.Env {
	resolver := object.NewResolver(graph)
	registry := convert.NewRegistry(resolver)
	return router.Env{
		Graph:    graph,
		Resolver: resolver,
		Registry: registry,
		Applier:  apply.New(registry),
	}
}

// Router exposes the command router for host-registered handlers.
func (b *Bridge) Router() *router.Router { return b.router }

// Available reports whether commands execute now or queue durably.
func (b *Bridge) Available() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.available
}

// Close releases the run loop.
func (b *Bridge) Close() {
	b.loop.Close()
}

// HandleSessionCommand is the session dispatch callback. It never
// blocks the receive loop: execution is handed off and the reply goes
// back through the session when done.
func (b *Bridge) HandleSessionCommand(cmd wire.Command) {
	go func() {
		resp := b.Execute(context.Background(), &cmd)
		if resp == nil {
			return
		}
		if err := b.sess.Send(resp); err != nil {
			b.log.Warn("dropping response, session gone",
				zap.String("id", cmd.ID), zap.Error(err))
		}
	}()
}

// StashUndelivered is the session sink for commands that were in flight
// when the transport dropped. They are answered after reconnect via the
// pending drain.
func (b *Bridge) StashUndelivered(cmds []wire.Command) {
	for i := range cmds {
		if err := b.pend.Save(&cmds[i]); err != nil {
			b.log.Error("failed to persist undelivered command",
				zap.String("id", cmds[i].ID), zap.Error(err))
		}
	}
}

// Execute runs one command to a response. While the bridge is
// unavailable the command is persisted instead and nil is returned; it
// will be answered by the next drain.
func (b *Bridge) Execute(ctx context.Context, cmd *wire.Command) *wire.Response {
	return b.execute(ctx, cmd, nil)
}

// execute is Execute with an optional per-call cache TTL override from
// the control socket.
func (b *Bridge) execute(ctx context.Context, cmd *wire.Command, cacheOverride *time.Duration) *wire.Response {
	if !b.Available() {
		if err := b.pend.Save(cmd); err != nil {
			b.log.Error("failed to queue command while resetting",
				zap.String("id", cmd.ID), zap.Error(err))
			return wire.Fail(cmd.ID, wire.CodeUnavailable,
				"bridge is resetting and the command could not be queued", nil)
		}
		b.log.Info("queued command while resetting", zap.String("id", cmd.ID),
			zap.String("category", cmd.Category), zap.String("operation", cmd.Operation))
		return nil
	}
	return b.dispatch(ctx, cmd, cacheOverride)
}

func (b *Bridge) dispatch(ctx context.Context, cmd *wire.Command, cacheOverride *time.Duration) *wire.Response {
	spec, known := b.router.Lookup(cmd.Category, cmd.Operation)

	var payloadKey json.RawMessage
	ttl, cacheable := b.cacheTTL(cmd, spec, known, cacheOverride)
	if cacheable {
		payloadKey, _ = json.Marshal(cmd.Payload)
		if raw, ok := cache.Get(cmd.Category, cmd.Operation, payloadKey); ok {
			var result any
			if err := json.Unmarshal(raw, &result); err == nil {
				return wire.OK(cmd.ID, result)
			}
		}
	}

	var resp *wire.Response
	run := func() { resp = b.router.Dispatch(ctx, cmd) }
	if known && spec.Background {
		// Long-running work stays off the host main context.
		run()
	} else {
		err := b.loop.Post(ctx, run)
		switch {
		case errors.Is(err, runloop.ErrCanceled):
			return wire.Fail(cmd.ID, wire.CodeCanceled, "command canceled before dispatch", nil)
		case errors.Is(err, runloop.ErrClosed):
			return wire.Fail(cmd.ID, wire.CodeUnavailable, "bridge is shutting down", nil)
		}
	}

	if cacheable && resp.Success {
		if raw, err := json.Marshal(resp.Result); err == nil {
			_ = cache.Put(cmd.Category, cmd.Operation, payloadKey, raw, ttl)
		}
	}
	return resp
}

// cacheTTL resolves the effective TTL: per-call override first, then
// the config file, then the handler's own default. A zero override
// bypasses the cache for that call. Only read-only operations are ever
// cached.
func (b *Bridge) cacheTTL(cmd *wire.Command, spec router.Spec, known bool, override *time.Duration) (time.Duration, bool) {
	if !known || !spec.ReadOnly {
		return 0, false
	}
	if override != nil {
		if *override <= 0 {
			return 0, false
		}
		return *override, true
	}
	b.mu.Lock()
	ttl, ok := b.cfg.CacheTTL(cmd.Category, cmd.Operation)
	b.mu.Unlock()
	if ok {
		return ttl, true
	}
	if spec.CacheTTL > 0 {
		return spec.CacheTTL, true
	}
	return 0, false
}

// BeginReset flips the bridge unavailable. Commands arriving until
// CompleteReset are persisted, not executed.
func (b *Bridge) BeginReset() {
	b.mu.Lock()
	b.available = false
	b.mu.Unlock()
	b.log.Info("bridge unavailable, queueing commands")
}

// CompleteReset rebinds the router to a freshly loaded graph, clears
// the response cache, flips available, and drains the pending store.
// Returns how many queued commands were replayed.
func (b *Bridge) CompleteReset(ctx context.Context) (int, error) {
	graph := object.NewGraph()
	if b.cfg.Scene != "" {
		g, err := object.LoadGraph(b.cfg.Scene)
		if err != nil {
			return 0, fmt.Errorf("reloading scene: %w", err)
		}
		graph = g
	}
	b.router.SetEnv(envFor(graph))
	if err := cache.Clear(); err != nil {
		b.log.Warn("failed to clear response cache", zap.Error(err))
	}

	b.mu.Lock()
	b.available = true
	b.mu.Unlock()
	b.log.Info("bridge available again")

	return b.DrainPending(ctx)
}

// DrainPending replays every stored command through the router in FIFO
// order. Duplicate ids within one drain execute once; the store keeps
// commands until the file read succeeds, so a crash mid-drain replays
// rather than loses.
func (b *Bridge) DrainPending(ctx context.Context) (int, error) {
	cmds, err := b.pend.TakeAll()
	if err != nil {
		return 0, fmt.Errorf("draining pending store: %w", err)
	}

	seen := make(map[string]struct{}, len(cmds))
	replayed := 0
	for _, pc := range cmds {
		if _, dup := seen[pc.CommandID]; dup {
			continue
		}
		seen[pc.CommandID] = struct{}{}

		cmd, err := pc.ToWire()
		if err != nil {
			b.log.Warn("skipping undecodable pending command",
				zap.String("id", pc.CommandID), zap.Error(err))
			continue
		}

		resp := b.dispatch(ctx, cmd, nil)
		replayed++
		if b.sess == nil {
			continue
		}
		if err := b.sess.Send(resp); err != nil {
			b.log.Warn("replayed command response undeliverable",
				zap.String("id", cmd.ID), zap.Error(err))
		}
	}
	return replayed, nil
}

// Run starts the daemon process. Called when argv[1] == "__daemon".
func Run() error {
	if err := paths.EnsureDir(paths.RuntimeDir()); err != nil {
		return fmt.Errorf("creating runtime dir: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if merr := config.MergeProjectOverride(cfg, ""); merr != nil {
		fmt.Fprintf(os.Stderr, "hostbridge daemon: warning: project override ignored: %v\n", merr)
	}
	if verr := config.Validate(cfg); verr != nil {
		return fmt.Errorf("invalid config: %w", verr)
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	nonce, err := readOrCreateNonce()
	if err != nil {
		return fmt.Errorf("nonce setup: %w", err)
	}

	b, err := New(cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	tokenFile := cfg.TokenFile
	if tokenFile == "" {
		tokenFile = paths.TokenFile()
	}
	token, source, err := cred.TokenFrom(tokenFile)
	if err != nil {
		return err
	}
	log.Info("using bearer token", zap.String("source", string(source)),
		zap.String("token", cred.Mask(token)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b.sess = session.New(session.Options{
		Endpoint:          cfg.Endpoint,
		Token:             token,
		Name:              "hostbridge",
		Version:           Version,
		HeartbeatInterval: cfg.HeartbeatInterval(),
		HeartbeatTimeout:  cfg.HeartbeatTimeout(),
		InitialBackoff:    cfg.InitialBackoff(),
		MaxBackoff:        cfg.MaxBackoff(),
		Log:               log.Named("session"),
	}, b.HandleSessionCommand, b.StashUndelivered)

	sessDone := make(chan struct{})
	go func() {
		defer close(sessDone)
		_ = b.sess.Run(ctx)
	}()

	// Replay whatever a previous run left behind once connected.
	b.sess.OnState(func(s session.State) {
		if s != session.Connected {
			return
		}
		go func() {
			if n, err := b.DrainPending(ctx); err != nil {
				log.Error("pending drain failed", zap.Error(err))
			} else if n > 0 {
				log.Info("replayed pending commands", zap.Int("count", n))
			}
		}()
	})

	srv := ipc.NewServer(paths.SocketPath(), nonce, b.handleControl)
	if err := srv.Start(); err != nil {
		return err
	}
	defer srv.Stop()

	stopWatch := b.watchConfig(paths.ConfigFile())
	defer stopWatch()

	log.Info("daemon ready",
		zap.String("socket", paths.SocketPath()),
		zap.String("endpoint", cfg.Endpoint))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	cancel()
	<-sessDone
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log_level %q: %w", level, err)
		}
		zc.Level = lvl
	}
	return zc.Build()
}
