// Package feed maintains the live streaming connection to the market data
// provider, normalizes inbound trade batches into ticks, and fans them out
// to registered observers with bounded per-symbol history and measured
// processing latency.
package feed

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Hichemchir/execution-engine/internal/market"
	"github.com/Hichemchir/execution-engine/internal/metrics"
)

const (
	// DefaultURL is the Finnhub websocket endpoint. The API key is appended
	// as the token query parameter.
	DefaultURL = "wss://ws.finnhub.io/"
	// DefaultHistoryCapacity bounds the per-symbol tick history.
	DefaultHistoryCapacity = 10000
	// DefaultLatencyWindow bounds the latency sample window.
	DefaultLatencyWindow = 10000

	defaultHeartbeatInterval = 5 * time.Second
	defaultOpenGrace         = 2 * time.Second
	handshakeTimeout         = 10 * time.Second
	writeTimeout             = 5 * time.Second
	maxBackoff               = 30 * time.Second
)

// Config carries the recognized feed handler options. Capacities are
// per-handler so independent handlers can run with independent limits.
type Config struct {
	APIKey        string
	URL           string // overridable so tests can target a local server
	Symbols       []string
	EnableLogging bool

	HistoryCapacity   int
	LatencyWindow     int
	HeartbeatInterval time.Duration
	OpenGrace         time.Duration
}

func (c Config) withDefaults() Config {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.HistoryCapacity <= 0 {
		c.HistoryCapacity = DefaultHistoryCapacity
	}
	if c.LatencyWindow <= 0 {
		c.LatencyWindow = DefaultLatencyWindow
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = defaultHeartbeatInterval
	}
	if c.OpenGrace <= 0 {
		c.OpenGrace = defaultOpenGrace
	}
	return c
}

// Metrics is a point-in-time snapshot of the ingestion counters.
type Metrics struct {
	TicksReceived     uint64
	TicksProcessed    uint64
	CallbacksExecuted uint64
	Reconnects        uint64
	AvgLatencyMicros  float64
	P99LatencyMicros  float64
}

// Handler owns one streaming connection to the provider. Its lifecycle is
// Start/Stop, both idempotent. Three independent locks protect the observer
// list, the history+latency state, and the metrics snapshot; the running and
// connected flags are lock-free atomics.
type Handler struct {
	cfg Config
	log zerolog.Logger

	running   atomic.Bool
	connected atomic.Bool

	lifecycle sync.Mutex // serializes Start/Stop transitions
	stop      chan struct{}
	wg        sync.WaitGroup

	connMu sync.Mutex
	conn   *websocket.Conn

	cbMu      sync.Mutex
	callbacks []func(market.Tick)

	histMu  sync.Mutex
	history map[string]*tickHistory
	latency *latencyWindow

	metricsMu sync.Mutex
	metrics   Metrics
}

// NewHandler builds a handler for the configured symbols. When logging is
// disabled every log line (heartbeat included) is dropped.
func NewHandler(cfg Config, log zerolog.Logger) *Handler {
	cfg = cfg.withDefaults()
	if !cfg.EnableLogging {
		log = zerolog.Nop()
	}
	return &Handler{
		cfg:     cfg,
		log:     log,
		history: make(map[string]*tickHistory),
		latency: newLatencyWindow(cfg.LatencyWindow),
	}
}

// IsRunning reports whether Start has been called without a matching Stop.
func (h *Handler) IsRunning() bool { return h.running.Load() }

// IsConnected reports whether the websocket is currently established.
func (h *Handler) IsConnected() bool { return h.connected.Load() }

// Start opens the connection, waits a bounded grace period for the open
// handshake, subscribes the configured symbols, and launches the heartbeat.
// Calling Start on a running handler is a no-op.
func (h *Handler) Start() {
	if h.running.Load() {
		return
	}
	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()
	if !h.running.CompareAndSwap(false, true) {
		return
	}

	h.stop = make(chan struct{})
	ready := make(chan struct{})
	h.wg.Add(2)
	go h.run(h.stop, ready)
	go h.heartbeat(h.stop)

	select {
	case <-ready:
	case <-time.After(h.cfg.OpenGrace):
		// Best effort: the connect loop keeps retrying in the background.
	}
	h.log.Info().Strs("symbols", h.cfg.Symbols).Msg("feed handler started")
}

// Stop signals the background tasks, waits for them, tears down the
// connection, and emits a final metrics summary. Safe to call at any time,
// any number of times, including before Start.
func (h *Handler) Stop() {
	if !h.running.Load() {
		return
	}
	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()
	if !h.running.CompareAndSwap(true, false) {
		return
	}

	close(h.stop)
	h.closeConn() // unblocks the reader
	h.wg.Wait()
	h.connected.Store(false)

	m := h.Metrics()
	h.log.Info().
		Uint64("ticks_received", m.TicksReceived).
		Uint64("ticks_processed", m.TicksProcessed).
		Uint64("callbacks_executed", m.CallbacksExecuted).
		Uint64("reconnects", m.Reconnects).
		Float64("avg_latency_us", m.AvgLatencyMicros).
		Float64("p99_latency_us", m.P99LatencyMicros).
		Msg("feed handler stopped")
}

// OnTick registers a callback invoked for every processed tick, in
// registration order. Dispatch holds the registry lock, so callbacks must
// not call back into OnTick or they will deadlock.
func (h *Handler) OnTick(cb func(market.Tick)) {
	h.cbMu.Lock()
	h.callbacks = append(h.callbacks, cb)
	h.cbMu.Unlock()
}

// Subscribe sends one best-effort subscription message for the symbol. No
// acknowledgment is awaited.
func (h *Handler) Subscribe(symbol string) {
	h.sendControl("subscribe", symbol)
}

// SubscribeAll subscribes each symbol in order.
func (h *Handler) SubscribeAll(symbols []string) {
	for _, s := range symbols {
		h.Subscribe(s)
	}
}

// Unsubscribe sends one best-effort unsubscription message for the symbol.
func (h *Handler) Unsubscribe(symbol string) {
	h.sendControl("unsubscribe", symbol)
}

// RecentTicks returns the most recent min(n, history) ticks for the symbol
// in chronological order, or nil when the symbol is unknown.
func (h *Handler) RecentTicks(symbol string, n int) []market.Tick {
	h.histMu.Lock()
	defer h.histMu.Unlock()
	hist := h.history[symbol]
	if hist == nil {
		return nil
	}
	return hist.recent(n)
}

// Metrics returns a snapshot copy of the ingestion counters.
func (h *Handler) Metrics() Metrics {
	h.metricsMu.Lock()
	defer h.metricsMu.Unlock()
	return h.metrics
}

func (h *Handler) sendControl(msgType, symbol string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.conn == nil {
		h.log.Debug().Str("symbol", symbol).Str("type", msgType).Msg("no connection, control message dropped")
		return
	}
	h.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := h.conn.WriteJSON(subscribeMsg{Type: msgType, Symbol: symbol}); err != nil {
		h.log.Warn().Err(err).Str("symbol", symbol).Str("type", msgType).Msg("control message failed")
	}
}

func (h *Handler) setConn(conn *websocket.Conn) {
	h.connMu.Lock()
	h.conn = conn
	h.connMu.Unlock()
}

func (h *Handler) closeConn() {
	h.connMu.Lock()
	if h.conn != nil {
		_ = h.conn.Close()
		h.conn = nil
	}
	h.connMu.Unlock()
}

// run dials the provider and pumps messages until stopped, redialing with
// exponential backoff after unexpected drops. Every drop not caused by Stop
// counts as a reconnect.
func (h *Handler) run(stop chan struct{}, ready chan struct{}) {
	defer h.wg.Done()

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	url := h.cfg.URL + "?token=" + h.cfg.APIKey
	backoff := time.Second
	first := true

	for {
		select {
		case <-stop:
			return
		default:
		}

		conn, _, err := dialer.Dial(url, nil)
		if err != nil {
			h.log.Warn().Err(err).Msg("feed dial failed, retrying")
			select {
			case <-time.After(backoff):
			case <-stop:
				return
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		backoff = time.Second

		conn.SetReadLimit(1 << 20)
		h.setConn(conn)
		select {
		case <-stop:
			// Stop raced the dial; it may have missed this connection.
			h.closeConn()
			return
		default:
		}
		h.connected.Store(true)
		if first {
			close(ready)
			first = false
		}
		h.log.Info().Str("url", h.cfg.URL).Msg("feed connected")

		for _, s := range h.cfg.Symbols {
			h.Subscribe(s)
		}

		h.readLoop(conn)

		h.connected.Store(false)
		h.closeConn()

		select {
		case <-stop:
			return
		default:
		}
		h.recordReconnect()
	}
}

func (h *Handler) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if h.running.Load() {
				h.log.Warn().Err(err).Msg("feed read failed")
			}
			return
		}
		h.handleMessage(raw)
	}
}

// handleMessage normalizes one inbound message. Processing is latency
// instrumented end to end: the clock starts before parsing and stops after
// every tick in the batch has been appended to history and dispatched. One
// sample per message, not per tick.
func (h *Handler) handleMessage(raw []byte) {
	started := time.Now()

	ticks, ok := normalizeTrades(raw)
	if !ok {
		return
	}

	h.metricsMu.Lock()
	h.metrics.TicksReceived += uint64(len(ticks))
	h.metricsMu.Unlock()
	metrics.TicksReceived.Add(float64(len(ticks)))

	for _, tk := range ticks {
		h.processTick(tk)
	}

	h.observeLatency(time.Since(started))
}

// processTick appends to the symbol history (created lazily on first tick),
// dispatches to every registered callback, then bumps the processed counter.
func (h *Handler) processTick(tk market.Tick) {
	h.histMu.Lock()
	hist := h.history[tk.Symbol]
	if hist == nil {
		hist = newTickHistory(h.cfg.HistoryCapacity)
		h.history[tk.Symbol] = hist
	}
	hist.append(tk)
	h.histMu.Unlock()

	executed := h.dispatch(tk)

	h.metricsMu.Lock()
	h.metrics.TicksProcessed++
	h.metrics.CallbacksExecuted += uint64(executed)
	h.metricsMu.Unlock()
	metrics.TicksProcessed.WithLabelValues(tk.Symbol).Inc()
}

// dispatch invokes callbacks in registration order. A panicking callback is
// logged and skipped; its siblings still run.
func (h *Handler) dispatch(tk market.Tick) int {
	h.cbMu.Lock()
	defer h.cbMu.Unlock()
	executed := 0
	for _, cb := range h.callbacks {
		if h.invoke(cb, tk) {
			executed++
		}
	}
	return executed
}

func (h *Handler) invoke(cb func(market.Tick), tk market.Tick) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			metrics.CallbackFailures.Inc()
			h.log.Error().Interface("panic", r).Str("symbol", tk.Symbol).Msg("tick callback panicked")
		}
	}()
	cb(tk)
	return true
}

func (h *Handler) observeLatency(d time.Duration) {
	micros := float64(d.Nanoseconds()) / 1e3

	h.histMu.Lock()
	h.latency.observe(micros)
	mean, p99 := h.latency.mean(), h.latency.p99()
	h.histMu.Unlock()

	h.metricsMu.Lock()
	h.metrics.AvgLatencyMicros = mean
	h.metrics.P99LatencyMicros = p99
	h.metricsMu.Unlock()
}

func (h *Handler) recordReconnect() {
	h.metricsMu.Lock()
	h.metrics.Reconnects++
	h.metricsMu.Unlock()
	metrics.Reconnects.Inc()
	h.log.Warn().Msg("feed disconnected, reconnecting")
}

// heartbeat periodically logs the metrics snapshot while connected. It is
// observability only, no protocol keepalive; cancellation is observed at the
// next scheduled wake-up.
func (h *Handler) heartbeat(stop chan struct{}) {
	defer h.wg.Done()
	ticker := time.NewTicker(h.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !h.connected.Load() {
				continue
			}
			m := h.Metrics()
			h.log.Info().
				Uint64("ticks_received", m.TicksReceived).
				Uint64("ticks_processed", m.TicksProcessed).
				Uint64("reconnects", m.Reconnects).
				Float64("avg_latency_us", m.AvgLatencyMicros).
				Float64("p99_latency_us", m.P99LatencyMicros).
				Msg("feed heartbeat")
		}
	}
}
