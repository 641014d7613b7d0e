package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/threatthriver/thinkchat/internal/chat"
	"github.com/threatthriver/thinkchat/internal/events"
)

// Handler serves the chat methods of the protocol. Calls that run an
// interaction cycle block until the response is complete.
type Handler interface {
	OpenSession(ctx context.Context, sessionID string) (SessionInfo, error)
	SendMessage(ctx context.Context, sessionID, content string) (chat.Turn, error)
	Retry(ctx context.Context, sessionID string) (chat.Turn, error)
	SetMode(ctx context.Context, sessionID, mode string) (chat.Mode, error)
	ClearHistory(ctx context.Context, sessionID string) error
	History(ctx context.Context, sessionID string) ([]chat.Turn, error)
	SubmitFeedback(ctx context.Context, sessionID, rating, comment string) (FeedbackResult, error)
}

// ErrNoSession is returned for session methods sent before open_session.
var ErrNoSession = errors.New("no session: call open_session first")

// Client represents a connected WebSocket client.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub

	mu        sync.RWMutex
	sessionID string
	closed    bool
}

func (c *Client) session() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

func (c *Client) attach(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = id
}

// Hub manages WebSocket clients and bridges them to the event bus.
type Hub struct {
	mu          sync.RWMutex
	clients     map[*Client]struct{}
	bus         *events.Bus
	handler     Handler
	unsubscribe func()
}

// NewHub creates a new WebSocket hub connected to an event bus.
func NewHub(bus *events.Bus, handler Handler) *Hub {
	h := &Hub{
		clients: make(map[*Client]struct{}),
		bus:     bus,
		handler: handler,
	}

	// Bridge session events to the clients attached to that session.
	h.unsubscribe = bus.Subscribe(func(e events.Event) {
		if e.SessionID == "" {
			return
		}
		frame, err := NewEventFrame(string(e.Type), e.SessionID, e.Payload)
		if err != nil {
			slog.Error("marshal event frame", "error", err)
			return
		}
		data, err := MarshalFrame(frame)
		if err != nil {
			slog.Error("marshal frame", "error", err)
			return
		}
		h.deliver(e.SessionID, data)
	})

	return h
}

// deliver sends data to every client attached to sessionID.
func (h *Hub) deliver(sessionID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if c.session() != sessionID {
			continue
		}
		c.enqueue(data)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// register adds a client to the hub.
func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	slog.Info("ws client connected", "clients", len(h.clients))
}

// unregister removes a client from the hub.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
		slog.Info("ws client disconnected", "clients", len(h.clients))
	}
}

// ServeWS handles a WebSocket upgrade and manages the client lifecycle.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow any origin for dev
	})
	if err != nil {
		slog.Error("ws accept", "error", err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}

	h.register(client)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go client.writePump(ctx)
	client.readPump(ctx, cancel)
}

// readPump reads frames from the WS connection and dispatches them.
// Cancelling ctx aborts in-flight cycles once the connection is gone.
func (c *Client) readPump(ctx context.Context, cancel context.CancelFunc) {
	var inflight sync.WaitGroup
	defer func() {
		cancel()
		inflight.Wait()
		c.hub.unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("ws read closed", "status", websocket.CloseStatus(err))
			} else {
				slog.Debug("ws read error", "error", err)
			}
			return
		}

		frame, err := UnmarshalFrame(data)
		if err != nil {
			slog.Error("ws unmarshal frame", "error", err)
			continue
		}
		if frame.Type != FrameTypeRequest {
			slog.Debug("ws unknown frame type", "type", frame.Type)
			continue
		}

		// Cycles can take a while; keep reading so feedback and mode
		// changes are not stuck behind them.
		inflight.Add(1)
		go func() {
			defer inflight.Done()
			c.handleRequest(ctx, frame)
		}()
	}
}

// handleRequest processes a request frame (method dispatch).
func (c *Client) handleRequest(ctx context.Context, frame Frame) {
	h := c.hub.handler

	if Method(frame.Method) == MethodOpenSession {
		var params OpenSessionParams
		if err := DecodeParams(frame, &params); err != nil {
			c.sendError(frame.ID, err.Error())
			return
		}
		if params.SessionID == "" {
			params.SessionID = frame.SessionID
		}
		info, err := h.OpenSession(ctx, params.SessionID)
		if err != nil {
			c.sendError(frame.ID, err.Error())
			return
		}
		c.attach(info.SessionID)
		c.sendOK(frame.ID, info)
		return
	}

	sessionID := frame.SessionID
	if sessionID == "" {
		sessionID = c.session()
	}
	if sessionID == "" {
		c.sendError(frame.ID, ErrNoSession.Error())
		return
	}

	switch Method(frame.Method) {
	case MethodSendMessage:
		var params SendMessageParams
		if err := DecodeParams(frame, &params); err != nil {
			c.sendError(frame.ID, err.Error())
			return
		}
		turn, err := h.SendMessage(ctx, sessionID, params.Content)
		c.reply(frame.ID, turn, err)

	case MethodRetry:
		turn, err := h.Retry(ctx, sessionID)
		c.reply(frame.ID, turn, err)

	case MethodSetMode:
		var params SetModeParams
		if err := DecodeParams(frame, &params); err != nil {
			c.sendError(frame.ID, err.Error())
			return
		}
		mode, err := h.SetMode(ctx, sessionID, params.Mode)
		if err != nil {
			c.sendError(frame.ID, err.Error())
			return
		}
		c.sendOK(frame.ID, SetModeParams{Mode: string(mode)})

	case MethodClearHistory:
		if err := h.ClearHistory(ctx, sessionID); err != nil {
			c.sendError(frame.ID, err.Error())
			return
		}
		c.sendOK(frame.ID, map[string]string{"status": "cleared"})

	case MethodGetHistory:
		turns, err := h.History(ctx, sessionID)
		if err != nil {
			c.sendError(frame.ID, err.Error())
			return
		}
		if turns == nil {
			turns = []chat.Turn{}
		}
		c.sendOK(frame.ID, turns)

	case MethodSubmitFeedback:
		var params SubmitFeedbackParams
		if err := DecodeParams(frame, &params); err != nil {
			c.sendError(frame.ID, err.Error())
			return
		}
		res, err := h.SubmitFeedback(ctx, sessionID, params.Rating, params.Comment)
		if err != nil {
			c.sendError(frame.ID, err.Error())
			return
		}
		c.sendOK(frame.ID, res)

	default:
		c.sendError(frame.ID, "unknown method: "+frame.Method)
	}
}

func (c *Client) reply(id string, turn chat.Turn, err error) {
	if err != nil {
		c.sendError(id, err.Error())
		return
	}
	c.sendOK(id, ReplyResult{Answer: turn.Content, Thinking: turn.Thinking})
}

// writePump writes queued messages to the WS connection.
func (c *Client) writePump(ctx context.Context) {
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// enqueue queues data for the write pump, dropping it if the client is slow
// or gone.
func (c *Client) enqueue(data []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		slog.Warn("ws client too slow, dropping frame", "session", c.sessionID)
	}
}

func (c *Client) sendOK(id string, payload any) {
	f, err := NewResponseFrame(id, true, payload, "")
	if err != nil {
		return
	}
	data, err := MarshalFrame(f)
	if err != nil {
		return
	}
	c.enqueue(data)
}

func (c *Client) sendError(id string, errMsg string) {
	f, err := NewResponseFrame(id, false, nil, errMsg)
	if err != nil {
		return
	}
	data, err := MarshalFrame(f)
	if err != nil {
		return
	}
	c.enqueue(data)
}

// Close shuts down the hub and all client connections.
func (h *Hub) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close(websocket.StatusGoingAway, "server shutdown")
	}
}
