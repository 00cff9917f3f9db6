// Package session maintains the connection between the bridge and the
// automation endpoint: dial, hello handshake, heartbeat, reconnect
// backoff, and handoff of undelivered commands when the transport
// drops.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lydakis/hostbridge/internal/wire"
)

// ErrNotConnected is returned by Send while no session is established.
var ErrNotConnected = errors.New("session: not connected")

// State is the session lifecycle phase.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options configures a Manager.
type Options struct {
	Endpoint string
	Token    string
	Name     string
	Version  string

	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration

	// Dial overrides the TCP dial, used by tests.
	Dial func(ctx context.Context) (net.Conn, error)

	Log *zap.Logger
}

// Manager owns one session at a time and reconnects with exponential
// backoff when it drops.
type Manager struct {
	opts     Options
	dispatch func(wire.Command)
	sink     func([]wire.Command)
	log      *zap.Logger

	mu       sync.Mutex
	state    State
	onState  func(State)
	out      chan any
	conn     net.Conn
	inflight map[string]wire.Command
	watchGen uint64
	watchdog *time.Timer
}

// New creates a Manager. dispatch receives every inbound command;
// its eventual reply goes back through Send. sink receives commands
// still unanswered when the transport drops.
func New(opts Options, dispatch func(wire.Command), sink func([]wire.Command)) *Manager {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Dial == nil {
		opts.Dial = func(ctx context.Context) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "tcp", opts.Endpoint)
		}
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = 5 * time.Second
	}
	if opts.HeartbeatTimeout <= 0 {
		opts.HeartbeatTimeout = 3 * opts.HeartbeatInterval
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = time.Second
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 30 * time.Second
	}
	return &Manager{
		opts:     opts,
		dispatch: dispatch,
		sink:     sink,
		log:      opts.Log,
		inflight: make(map[string]wire.Command),
	}
}

// State returns the current lifecycle phase.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// OnState registers an observer called on every transition.
func (m *Manager) OnState(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onState = fn
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	if m.state == s {
		m.mu.Unlock()
		return
	}
	m.state = s
	fn := m.onState
	m.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

// Send queues a response for the current session.
func (m *Manager) Send(resp *wire.Response) error {
	m.mu.Lock()
	out := m.out
	if m.state == Connected && resp != nil {
		delete(m.inflight, resp.ID)
	}
	m.mu.Unlock()
	if out == nil {
		return ErrNotConnected
	}
	select {
	case out <- resp:
		return nil
	default:
		return fmt.Errorf("session: outbound queue full")
	}
}

// Run dials, serves, and reconnects until ctx is canceled.
func (m *Manager) Run(ctx context.Context) error {
	backoff := m.opts.InitialBackoff
	for {
		m.setState(Connecting)
		conn, err := m.opts.Dial(ctx)
		if err == nil {
			var connected bool
			connected, err = m.serve(ctx, conn)
			if connected {
				backoff = m.opts.InitialBackoff
			}
		}
		m.setState(Disconnected)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			m.log.Warn("session dropped", zap.Error(err), zap.Duration("retry_in", backoff))
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
		if backoff > m.opts.MaxBackoff {
			backoff = m.opts.MaxBackoff
		}
	}
}

// serve runs one session to completion. The bool reports whether the
// handshake succeeded, which resets the reconnect backoff.
func (m *Manager) serve(ctx context.Context, conn net.Conn) (bool, error) {
	defer conn.Close()

	// One reader for the whole session: the handshake must not buffer
	// ahead of the receive loop.
	r := wire.NewReader(conn)
	if err := m.handshake(conn, r); err != nil {
		return false, err
	}

	out := make(chan any, 64)
	m.mu.Lock()
	m.out = out
	m.conn = conn
	m.mu.Unlock()
	m.setState(Connected)
	m.log.Info("session established", zap.String("endpoint", m.opts.Endpoint))

	defer func() {
		m.mu.Lock()
		m.out = nil
		m.conn = nil
		if m.watchdog != nil {
			m.watchdog.Stop()
			m.watchdog = nil
		}
		m.watchGen++
		dropped := make([]wire.Command, 0, len(m.inflight))
		for _, cmd := range m.inflight {
			dropped = append(dropped, cmd)
		}
		m.inflight = make(map[string]wire.Command)
		m.mu.Unlock()
		if len(dropped) > 0 && m.sink != nil {
			m.sink(dropped)
		}
	}()

	done := make(chan struct{})
	defer close(done)

	// Writer drains outbound envelopes; a write error drops the conn.
	go func() {
		w := wire.NewWriter(conn)
		for {
			select {
			case v := <-out:
				if err := w.Write(v); err != nil {
					conn.Close()
					return
				}
			case <-done:
				return
			}
		}
	}()

	// Heartbeat pings ride the same outbound queue as responses.
	go func() {
		tick := time.NewTicker(m.opts.HeartbeatInterval)
		defer tick.Stop()
		for {
			select {
			case <-tick.C:
				ping := wire.Command{
					ID:        wire.NewID(),
					Category:  "bridge",
					Operation: "ping",
				}
				select {
				case out <- &ping:
				default:
				}
			case <-done:
				return
			}
		}
	}()

	// Close the conn when ctx ends so the read loop unblocks.
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	m.resetWatchdog(conn)

	for {
		data, err := r.Next()
		if err != nil {
			return true, fmt.Errorf("session read: %w", err)
		}
		m.resetWatchdog(conn)

		cmd, err := wire.DecodeCommand(data)
		if err != nil {
			m.log.Warn("dropping malformed envelope", zap.Error(err))
			continue
		}
		if cmd.Category == "bridge" && cmd.Operation == "pong" {
			continue
		}

		m.mu.Lock()
		m.inflight[cmd.ID] = *cmd
		m.mu.Unlock()
		m.dispatch(*cmd)
	}
}

// handshake announces the bridge and proves the token. The peer must
// answer with a success response before any command flows.
func (m *Manager) handshake(conn net.Conn, r *wire.Reader) error {
	deadline := time.Now().Add(m.opts.HeartbeatTimeout)
	_ = conn.SetDeadline(deadline)
	defer conn.SetDeadline(time.Time{})

	hello := wire.Command{
		ID:        wire.NewID(),
		Category:  "bridge",
		Operation: "hello",
		Payload: map[string]any{
			"token":   m.opts.Token,
			"name":    m.opts.Name,
			"version": m.opts.Version,
		},
	}
	if err := wire.NewWriter(conn).Write(&hello); err != nil {
		return fmt.Errorf("sending hello: %w", err)
	}

	data, err := r.Next()
	if err != nil {
		return fmt.Errorf("reading hello response: %w", err)
	}
	var resp wire.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("decoding hello response: %w", err)
	}
	if resp.ID != hello.ID {
		return fmt.Errorf("hello response id %q, want %q", resp.ID, hello.ID)
	}
	if !resp.Success {
		if resp.Error != nil {
			return fmt.Errorf("hello rejected: %s", resp.Error.Message)
		}
		return fmt.Errorf("hello rejected")
	}
	return nil
}

// resetWatchdog arms a fresh timeout. Generation IDs keep a stale
// timer from killing a connection that has seen traffic since.
func (m *Manager) resetWatchdog(conn net.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watchdog != nil {
		m.watchdog.Stop()
	}
	m.watchGen++
	gen := m.watchGen
	m.watchdog = time.AfterFunc(m.opts.HeartbeatTimeout, func() {
		m.expire(gen, conn)
	})
}

func (m *Manager) expire(gen uint64, conn net.Conn) {
	m.mu.Lock()
	stale := gen != m.watchGen
	m.mu.Unlock()
	if stale {
		return
	}
	m.log.Warn("heartbeat timeout, dropping session")
	conn.Close()
}
