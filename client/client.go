// Package client implements the synchronization layer between a game
// presentation and the authoritative server: it ships local inputs and fire
// requests, keeps the pending-input ledger for reconciliation, measures
// round-trip latency, and survives connection loss with capped exponential
// backoff.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/websocket"

	"github.com/MS-707/3DGame/internal/proto"
)

const (
	defaultInputInterval        = 50 * time.Millisecond
	defaultPingInterval         = 2 * time.Second
	defaultPendingTimeout       = time.Second
	defaultMaxReconnectAttempts = 8
	defaultReconnectBaseDelay   = 500 * time.Millisecond
	defaultReconnectMaxDelay    = 10 * time.Second

	writeWait   = 10 * time.Second
	dialTimeout = 5 * time.Second
	eventBuffer = 256
)

var (
	// ErrNotConnected is returned for sends attempted while the session is
	// down; inputs are dropped rather than queued across outages.
	ErrNotConnected = errors.New("client: not connected")
	// ErrReconnectFailed is the terminal error after the reconnect budget
	// is exhausted.
	ErrReconnectFailed = errors.New("client: reconnect attempts exhausted")
	// ErrClosed is returned once Close was called.
	ErrClosed = errors.New("client: closed")
)

// InputState is the locally predicted tank transform reported each input
// interval.
type InputState struct {
	Position  proto.Vector3
	HullYaw   float64
	TurretYaw float64
}

// Options configures a Client. Zero values take the defaults above.
type Options struct {
	// ServerURL is the HTTP base of the game server, e.g. "http://host:8080".
	ServerURL string
	Logger    logr.Logger

	InputInterval        time.Duration
	PingInterval         time.Duration
	PendingTimeout       time.Duration
	MaxReconnectAttempts int
	ReconnectBaseDelay   time.Duration
	ReconnectMaxDelay    time.Duration

	// Debug degradation knobs, both off by default: an artificial delay
	// before every send and a probability in [0,1) of silently dropping an
	// outbound frame.
	DebugSendDelay time.Duration
	DebugDropRate  float64

	HTTPClient *http.Client
}

func (o Options) withDefaults() Options {
	if o.InputInterval <= 0 {
		o.InputInterval = defaultInputInterval
	}
	if o.PingInterval <= 0 {
		o.PingInterval = defaultPingInterval
	}
	if o.PendingTimeout <= 0 {
		o.PendingTimeout = defaultPendingTimeout
	}
	if o.MaxReconnectAttempts <= 0 {
		o.MaxReconnectAttempts = defaultMaxReconnectAttempts
	}
	if o.ReconnectBaseDelay <= 0 {
		o.ReconnectBaseDelay = defaultReconnectBaseDelay
	}
	if o.ReconnectMaxDelay <= 0 {
		o.ReconnectMaxDelay = defaultReconnectMaxDelay
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: dialTimeout}
	}
	return o
}

// Client is the synchronization layer for one connection.
type Client struct {
	opts   Options
	logger logr.Logger

	state     atomic.Int32
	events    chan Event
	pending   *pendingLedger
	throttle  *inputThrottle
	seq       atomic.Uint64
	latencyMs atomic.Int64

	mu       sync.Mutex
	conn     *websocket.Conn
	playerID string

	writeMu    sync.Mutex
	sessionErr chan error

	closed    chan struct{}
	closeOnce sync.Once

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New constructs a client; call Connect to bring the session up.
func New(opts Options) *Client {
	opts = opts.withDefaults()
	c := &Client{
		opts:       opts,
		logger:     opts.Logger,
		events:     make(chan Event, eventBuffer),
		pending:    newPendingLedger(opts.PendingTimeout),
		sessionErr: make(chan error, 1),
		closed:     make(chan struct{}),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	c.throttle = newInputThrottle(opts.InputInterval, c.flushInput, time.Now)
	return c
}

// Events is the typed update stream consumed by the presentation adapter.
func (c *Client) Events() <-chan Event {
	return c.events
}

// State reports the resilience state machine's current node.
func (c *Client) State() ConnState {
	return ConnState(c.state.Load())
}

// PlayerID returns the identity assigned by the server for the current
// session, empty before the first successful join.
func (c *Client) PlayerID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID
}

// Latency returns the most recent measured round trip, for observability
// only; gameplay is never adjusted by it.
func (c *Client) Latency() time.Duration {
	return time.Duration(c.latencyMs.Load()) * time.Millisecond
}

// Pending reports the number of inputs awaiting server confirmation.
func (c *Client) Pending() int {
	return c.pending.len()
}

// UnacknowledgedSince returns, in order, the retained inputs with sequence
// numbers above seq: the replay set for prediction reconciliation.
func (c *Client) UnacknowledgedSince(seq uint64) []PendingInput {
	return c.pending.since(seq)
}

// Connect joins the server and attaches the websocket session. A first
// failure rolls straight into the reconnect loop; the returned error is nil
// once connected, or terminal after the attempt budget.
func (c *Client) Connect(ctx context.Context) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}

	c.setState(StateConnecting)
	if err := c.establish(ctx); err != nil {
		c.logger.V(1).Info("initial connect failed", "err", err.Error())
		c.setState(StateReconnecting)
		if err := c.reconnectLoop(ctx); err != nil {
			return err
		}
	} else {
		c.setState(StateConnected)
	}
	go c.supervise(ctx)
	return nil
}

// Close shuts the session down cleanly. A clean close never triggers
// reconnection.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
	c.throttle.Stop()

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		c.writeMu.Lock()
		conn.SetWriteDeadline(time.Now().Add(time.Second))
		conn.WriteMessage(websocket.CloseMessage, message)
		c.writeMu.Unlock()
		conn.Close()
	}
	c.setState(StateDisconnected)
	return nil
}

// SendInput reports the locally predicted transform, throttled and
// coalesced: inside one interval only the latest offered value reaches the
// wire.
func (c *Client) SendInput(in InputState) {
	c.throttle.Offer(in)
}

// SendFire requests a shot immediately, bypassing the input throttle.
func (c *Client) SendFire(origin, direction proto.Vector3) error {
	return c.sendFrame(proto.KindPlayerShot, proto.PlayerShot{Position: origin, Direction: direction})
}

// SendChat relays a chat line.
func (c *Client) SendChat(text string) error {
	return c.sendFrame(proto.KindChatMessage, proto.ChatMessage{Text: text})
}

func (c *Client) flushInput(in InputState) {
	seq := c.seq.Add(1)
	c.pending.record(PendingInput{Seq: seq, SentAt: time.Now(), Input: in})
	err := c.sendFrame(proto.KindPlayerMoved, proto.PlayerMoved{
		Position:  in.Position,
		HullYaw:   in.HullYaw,
		TurretYaw: in.TurretYaw,
		Seq:       seq,
	})
	if err != nil {
		c.logger.V(1).Info("input send failed", "seq", seq, "err", err.Error())
	}
}

func (c *Client) sendFrame(kind string, payload any) error {
	if c.State() != StateConnected {
		return ErrNotConnected
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	data, err := proto.Encode(kind, payload)
	if err != nil {
		return err
	}

	if c.opts.DebugSendDelay > 0 {
		time.Sleep(c.opts.DebugSendDelay)
	}
	if c.opts.DebugDropRate > 0 {
		c.rngMu.Lock()
		drop := c.rng.Float64() < c.opts.DebugDropRate
		c.rngMu.Unlock()
		if drop {
			return nil
		}
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// establish performs one join-and-dial cycle and starts the session
// goroutines.
func (c *Client) establish(ctx context.Context) error {
	join, err := c.join(ctx)
	if err != nil {
		return err
	}

	wsURL := httpToWS(c.opts.ServerURL) + "/ws?id=" + join.ID
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.playerID = join.ID
	c.mu.Unlock()

	done := make(chan struct{})
	go c.readLoop(conn, done)
	go c.pingLoop(done)

	c.logger.Info("session established", "player", join.ID)
	return nil
}

func (c *Client) join(ctx context.Context) (proto.JoinResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.ServerURL+"/join", nil)
	if err != nil {
		return proto.JoinResponse{}, err
	}
	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return proto.JoinResponse{}, fmt.Errorf("join: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return proto.JoinResponse{}, fmt.Errorf("join: unexpected status %d", resp.StatusCode)
	}
	var join proto.JoinResponse
	if err := json.NewDecoder(resp.Body).Decode(&join); err != nil {
		return proto.JoinResponse{}, fmt.Errorf("join: decode response: %w", err)
	}
	if join.ID == "" {
		return proto.JoinResponse{}, fmt.Errorf("join: response missing id")
	}
	return join, nil
}

// supervise watches for session loss and drives the reconnect loop. A clean
// Close ends supervision without reconnecting.
func (c *Client) supervise(ctx context.Context) {
	for {
		select {
		case <-c.closed:
			return
		case <-ctx.Done():
			c.Close()
			return
		case err := <-c.sessionErr:
			select {
			case <-c.closed:
				return
			default:
			}
			c.logger.Info("session lost", "err", errString(err))
			c.setState(StateReconnecting)
			c.emitStatus()
			if err := c.reconnectLoop(ctx); err != nil {
				return
			}
		}
	}
}

func (c *Client) reconnectLoop(ctx context.Context) error {
	for attempt := 0; attempt < c.opts.MaxReconnectAttempts; attempt++ {
		delay := reconnectDelay(attempt, c.opts.ReconnectBaseDelay, c.opts.ReconnectMaxDelay)
		select {
		case <-time.After(delay):
		case <-c.closed:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}

		c.setState(StateConnecting)
		c.emitStatus()
		if err := c.establish(ctx); err != nil {
			c.logger.V(1).Info("reconnect attempt failed", "attempt", attempt+1, "err", err.Error())
			c.setState(StateReconnecting)
			continue
		}
		c.setState(StateConnected)
		c.emitStatus()
		return nil
	}

	c.setState(StateFailed)
	c.emitStatus()
	c.logger.Error(ErrReconnectFailed, "giving up", "attempts", c.opts.MaxReconnectAttempts)
	return ErrReconnectFailed
}

func (c *Client) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	var loopErr error
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			loopErr = err
			break
		}
		c.handleFrame(payload)
	}
	conn.Close()
	select {
	case c.sessionErr <- loopErr:
	default:
	}
}

func (c *Client) pingLoop(done chan struct{}) {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-c.closed:
			return
		case <-ticker.C:
			err := c.sendFrame(proto.KindPing, proto.Ping{Timestamp: time.Now().UnixMilli()})
			if err != nil {
				c.logger.V(1).Info("ping failed", "err", err.Error())
			}
		}
	}
}

func (c *Client) handleFrame(payload []byte) {
	env, err := proto.DecodeEnvelope(payload)
	if err != nil {
		c.logger.V(1).Info("discarding malformed frame", "err", err.Error())
		return
	}

	switch env.Kind {
	case proto.KindGameState:
		msg, err := proto.DecodePayload[proto.GameState](env)
		if err != nil {
			c.logger.V(1).Info("discarding malformed snapshot", "err", err.Error())
			return
		}
		c.pending.expire(time.Now())
		c.emit(Event{Kind: EventState, State: &msg})

	case proto.KindPlayerMoved:
		msg, err := proto.DecodePayload[proto.PlayerMoved](env)
		if err != nil {
			return
		}
		if msg.ID == c.PlayerID() {
			// Our own echo confirms everything up to this sequence.
			c.pending.ack(msg.Seq)
			return
		}
		c.emit(Event{Kind: EventMoved, EntityID: msg.ID, Moved: &msg})

	case proto.KindPlayerJoined:
		msg, err := proto.DecodePayload[proto.PlayerSnapshot](env)
		if err != nil {
			return
		}
		c.emit(Event{Kind: EventJoined, EntityID: msg.ID, Player: &msg})

	case proto.KindPlayerLeft:
		msg, err := proto.DecodePayload[proto.PlayerLeft](env)
		if err != nil {
			return
		}
		c.emit(Event{Kind: EventLeft, EntityID: msg.ID})

	case proto.KindPlayerHit:
		msg, err := proto.DecodePayload[proto.PlayerHit](env)
		if err != nil {
			return
		}
		c.emit(Event{Kind: EventHit, EntityID: msg.TargetID, Hit: &msg})

	case proto.KindPlayerRespawn:
		msg, err := proto.DecodePayload[proto.PlayerRespawn](env)
		if err != nil {
			return
		}
		c.emit(Event{Kind: EventRespawned, EntityID: msg.ID, Respawn: &msg})

	case proto.KindChatMessage:
		msg, err := proto.DecodePayload[proto.ChatMessage](env)
		if err != nil {
			return
		}
		c.emit(Event{Kind: EventChat, EntityID: msg.ID, Chat: &msg})

	case proto.KindPong:
		msg, err := proto.DecodePayload[proto.Pong](env)
		if err != nil {
			return
		}
		rtt := time.Now().UnixMilli() - msg.Timestamp
		if rtt < 0 {
			rtt = 0
		}
		c.latencyMs.Store(rtt)

	default:
		c.logger.V(1).Info("unknown message kind", "kind", env.Kind)
	}
}

func (c *Client) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.logger.V(1).Info("event buffer full, dropping", "kind", string(ev.Kind))
	}
}

func (c *Client) setState(s ConnState) {
	c.state.Store(int32(s))
}

func (c *Client) emitStatus() {
	c.emit(Event{Kind: EventStatus, Status: c.State()})
}

func httpToWS(base string) string {
	base = strings.TrimSuffix(base, "/")
	if strings.HasPrefix(base, "https://") {
		return "wss://" + strings.TrimPrefix(base, "https://")
	}
	if strings.HasPrefix(base, "http://") {
		return "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base
}

func errString(err error) string {
	if err == nil {
		return "connection closed"
	}
	return err.Error()
}
