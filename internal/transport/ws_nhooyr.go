package transport

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

type callbackEntry struct {
	id       int
	callback MessageCallback
}

type stateCallbackEntry struct {
	id       int
	callback StateCallback
}

type WebSocket struct {
	wsURL  string
	logger *zap.Logger

	conn  *websocket.Conn
	connM sync.RWMutex
	// nhooyr allows one writer at a time
	writeM sync.Mutex

	state  WebSocketState
	stateM sync.RWMutex

	msgCbs   []callbackEntry
	stateCbs []stateCallbackEntry
	nextCbID int
	cbM      sync.RWMutex

	maxReconnectAttempts int
	reconnectDelay       time.Duration
	reconnecting         atomic.Bool

	dialTimeout  time.Duration
	pingInterval time.Duration
	writeTimeout time.Duration
	readLimit    int64

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc

	headerProvider HeaderProvider
}

type WSOption func(*WebSocket)

func WithLogger(l *zap.Logger) WSOption {
	return func(ws *WebSocket) {
		if l != nil {
			ws.logger = l
		}
	}
}

func WithPingInterval(d time.Duration) WSOption {
	return func(ws *WebSocket) { ws.pingInterval = d }
}

func WithWriteTimeout(d time.Duration) WSOption {
	return func(ws *WebSocket) { ws.writeTimeout = d }
}

func WithDialTimeout(d time.Duration) WSOption {
	return func(ws *WebSocket) { ws.dialTimeout = d }
}

func NewWebSocket(wsURL string, maxReconnectAttempts int, reconnectDelay time.Duration, opts ...WSOption) *WebSocket {
	ws := &WebSocket{
		wsURL:                wsURL,
		logger:               zap.NewNop(),
		state:                WSStateDisconnected,
		maxReconnectAttempts: maxReconnectAttempts,
		reconnectDelay:       reconnectDelay,
		dialTimeout:          10 * time.Second,
		pingInterval:         30 * time.Second,
		writeTimeout:         5 * time.Second,
		readLimit:            1 << 20,
		stopCh:               make(chan struct{}),
	}
	for _, o := range opts {
		o(ws)
	}
	ws.rootCtx, ws.rootCancel = context.WithCancel(context.Background())
	return ws
}

func (ws *WebSocket) Connect(ctx context.Context) error {
	ws.stateM.RLock()
	if ws.state == WSStateConnected || ws.state == WSStateConnecting {
		ws.stateM.RUnlock()
		return nil
	}
	ws.stateM.RUnlock()

	ws.setState(WSStateConnecting)
	conn, err := ws.dial(ctx)
	if err != nil {
		ws.logger.Warn("ws_dial_failed", zap.String("url", ws.wsURL), zap.Error(err))
		ws.setState(WSStateFailed)
		ws.scheduleReconnect()
		return err
	}
	ws.attach(conn)
	return nil
}

func (ws *WebSocket) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, ws.dialTimeout)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, ws.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      ws.buildHeaders(),
	})
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(ws.readLimit)
	return conn, nil
}

func (ws *WebSocket) attach(conn *websocket.Conn) {
	ws.connM.Lock()
	ws.conn = conn
	ws.connM.Unlock()
	ws.setState(WSStateConnected)

	done := make(chan struct{})
	ws.wg.Add(2)
	go ws.listen(conn, done)
	go ws.pingLoop(conn, done)
}

func (ws *WebSocket) listen(conn *websocket.Conn, done chan struct{}) {
	defer ws.wg.Done()
	defer close(done)
	for {
		typ, data, err := conn.Read(ws.rootCtx)
		if err != nil {
			if ws.isStopping() {
				return
			}
			ws.logger.Warn("ws_read_failed", zap.Error(err))
			ws.dropConn(conn, websocket.StatusGoingAway, "reconnect")
			ws.setState(WSStateDisconnected)
			ws.scheduleReconnect()
			return
		}
		if typ != websocket.MessageText {
			ws.logger.Debug("ws_binary_frame_ignored", zap.Int("bytes", len(data)))
			continue
		}

		ws.cbM.RLock()
		callbacks := make([]callbackEntry, len(ws.msgCbs))
		copy(callbacks, ws.msgCbs)
		ws.cbM.RUnlock()
		for _, entry := range callbacks {
			if entry.callback != nil {
				entry.callback(data)
			}
		}
	}
}

// pingLoop closes conn after two missed pongs; listen then sees the read
// error and takes care of reconnecting.
func (ws *WebSocket) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	defer ws.wg.Done()
	t := time.NewTicker(ws.pingInterval)
	defer t.Stop()
	consecutivePingFailures := 0
	for {
		select {
		case <-ws.stopCh:
			return
		case <-done:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(ws.rootCtx, 3*time.Second)
			err := conn.Ping(ctx)
			cancel()
			if err == nil {
				consecutivePingFailures = 0
				continue
			}
			consecutivePingFailures++
			ws.logger.Debug("ws_ping_failed", zap.Int("consecutive", consecutivePingFailures), zap.Error(err))
			if consecutivePingFailures >= 2 {
				ws.dropConn(conn, websocket.StatusGoingAway, "ping failure")
				return
			}
		}
	}
}

func (ws *WebSocket) scheduleReconnect() {
	if ws.maxReconnectAttempts <= 0 || ws.isStopping() {
		return
	}
	if !ws.reconnecting.CompareAndSwap(false, true) {
		return
	}
	ws.setState(WSStateReconnecting)

	go func() {
		defer ws.reconnecting.Store(false)
		for attempt := 1; attempt <= ws.maxReconnectAttempts; attempt++ {
			select {
			case <-ws.stopCh:
				return
			case <-time.After(ws.backoff(attempt)):
			}

			conn, err := ws.dial(ws.rootCtx)
			if err != nil {
				ws.logger.Warn("ws_reconnect_failed", zap.Int("attempt", attempt), zap.Error(err))
				continue
			}
			if ws.isStopping() {
				_ = conn.Close(websocket.StatusNormalClosure, "close")
				return
			}
			ws.logger.Info("ws_reconnected", zap.Int("attempt", attempt))
			ws.attach(conn)
			return
		}
		ws.setState(WSStateFailed)
	}()
}

// backoff doubles reconnectDelay per attempt, capped at 32x.
func (ws *WebSocket) backoff(attempt int) time.Duration {
	base := ws.reconnectDelay
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * base
}

// WriteText sends one text frame, bounded by the write timeout when ctx has
// no deadline.
func (ws *WebSocket) WriteText(ctx context.Context, frame []byte) error {
	ws.connM.RLock()
	conn := ws.conn
	ws.connM.RUnlock()
	if conn == nil || ws.State() != WSStateConnected {
		return ErrNotConnected
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ws.writeTimeout)
		defer cancel()
	}
	ws.writeM.Lock()
	defer ws.writeM.Unlock()
	return conn.Write(ctx, websocket.MessageText, frame)
}

func (ws *WebSocket) State() WebSocketState {
	ws.stateM.RLock()
	defer ws.stateM.RUnlock()
	return ws.state
}

func (ws *WebSocket) OnMessage(cb MessageCallback) int {
	ws.cbM.Lock()
	defer ws.cbM.Unlock()
	ws.nextCbID++
	ws.msgCbs = append(ws.msgCbs, callbackEntry{id: ws.nextCbID, callback: cb})
	return ws.nextCbID
}

func (ws *WebSocket) RemoveMessageCallback(id int) {
	ws.cbM.Lock()
	defer ws.cbM.Unlock()
	for i, cb := range ws.msgCbs {
		if cb.id == id {
			ws.msgCbs = append(ws.msgCbs[:i], ws.msgCbs[i+1:]...)
			break
		}
	}
}

func (ws *WebSocket) OnStateChange(cb StateCallback) int {
	ws.cbM.Lock()
	defer ws.cbM.Unlock()
	ws.nextCbID++
	ws.stateCbs = append(ws.stateCbs, stateCallbackEntry{id: ws.nextCbID, callback: cb})
	return ws.nextCbID
}

func (ws *WebSocket) RemoveStateCallback(id int) {
	ws.cbM.Lock()
	defer ws.cbM.Unlock()
	for i, cb := range ws.stateCbs {
		if cb.id == id {
			ws.stateCbs = append(ws.stateCbs[:i], ws.stateCbs[i+1:]...)
			break
		}
	}
}

func (ws *WebSocket) setState(state WebSocketState) {
	ws.stateM.Lock()
	changed := ws.state != state
	ws.state = state
	ws.stateM.Unlock()
	if !changed {
		return
	}

	ws.cbM.RLock()
	callbacks := make([]stateCallbackEntry, len(ws.stateCbs))
	copy(callbacks, ws.stateCbs)
	ws.cbM.RUnlock()
	for _, entry := range callbacks {
		if entry.callback != nil {
			entry.callback(state)
		}
	}
}

func (ws *WebSocket) Close(ctx context.Context) error {
	ws.stopOnce.Do(func() { close(ws.stopCh) })

	ws.connM.RLock()
	conn := ws.conn
	ws.connM.RUnlock()
	if conn != nil {
		ws.dropConn(conn, websocket.StatusNormalClosure, "close")
	}

	done := make(chan struct{})
	go func() {
		ws.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		ws.rootCancel()
		return ctx.Err()
	case <-done:
		ws.rootCancel()
		ws.setState(WSStateDisconnected)
		return nil
	}
}

// dropConn closes conn and forgets it if it is still current.
func (ws *WebSocket) dropConn(conn *websocket.Conn, code websocket.StatusCode, reason string) {
	ws.connM.Lock()
	if ws.conn == conn {
		ws.conn = nil
	}
	ws.connM.Unlock()
	_ = conn.Close(code, reason)
}

func (ws *WebSocket) isStopping() bool {
	select {
	case <-ws.stopCh:
		return true
	default:
		return false
	}
}

// SetHeaderProvider allows injecting headers into the WS handshake.
func (ws *WebSocket) SetHeaderProvider(h HeaderProvider) {
	ws.headerProvider = h
}

func (ws *WebSocket) buildHeaders() http.Header {
	hdr := http.Header{}
	if ws.headerProvider == nil {
		return hdr
	}
	for k, v := range ws.headerProvider() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}
