// Package ws provides a WebSocket client for the thinkchat gateway.
package ws

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/coder/websocket"

	wsprotocol "github.com/threatthriver/thinkchat/internal/gateway/ws"
)

// Client is a WebSocket client for the thinkchat gateway. Requests are
// written without waiting; responses and events are read with ReadFrame.
type Client struct {
	conn      *websocket.Conn
	reqSeq    uint64
	sessionID atomic.Value // string
	ctx       context.Context
	cancel    context.CancelFunc
}

// Dial connects to the gateway WebSocket endpoint.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ws dial: %w", err)
	}

	clientCtx, cancel := context.WithCancel(ctx)

	c := &Client{
		conn:   conn,
		ctx:    clientCtx,
		cancel: cancel,
	}
	c.sessionID.Store("")
	return c, nil
}

// SessionID returns the attached session, or "" before OpenSession.
func (c *Client) SessionID() string {
	return c.sessionID.Load().(string)
}

func (c *Client) send(method wsprotocol.Method, params any) (string, error) {
	seq := atomic.AddUint64(&c.reqSeq, 1)
	id := fmt.Sprintf("req-%d", seq)

	frame, err := wsprotocol.NewRequestFrame(id, method, c.SessionID(), params)
	if err != nil {
		return "", err
	}
	data, err := wsprotocol.MarshalFrame(frame)
	if err != nil {
		return "", err
	}
	return id, c.conn.Write(c.ctx, websocket.MessageText, data)
}

// OpenSession attaches the connection to a session, resuming sessionID when
// the gateway still knows it. It blocks until the gateway answers and must be
// called before any reader goroutine starts.
func (c *Client) OpenSession(sessionID string) (wsprotocol.SessionInfo, error) {
	id, err := c.send(wsprotocol.MethodOpenSession, wsprotocol.OpenSessionParams{SessionID: sessionID})
	if err != nil {
		return wsprotocol.SessionInfo{}, err
	}
	for {
		frame, err := c.ReadFrame()
		if err != nil {
			return wsprotocol.SessionInfo{}, err
		}
		if frame.Type != wsprotocol.FrameTypeResponse || frame.ID != id {
			continue
		}
		if frame.OK == nil || !*frame.OK {
			return wsprotocol.SessionInfo{}, errors.New(frame.Error)
		}
		var info wsprotocol.SessionInfo
		if err := wsprotocol.DecodeParams(wsprotocol.Frame{Params: frame.Payload}, &info); err != nil {
			return wsprotocol.SessionInfo{}, err
		}
		c.sessionID.Store(info.SessionID)
		return info, nil
	}
}

// SendMessage sends a user message and returns the request id.
func (c *Client) SendMessage(content string) (string, error) {
	return c.send(wsprotocol.MethodSendMessage, wsprotocol.SendMessageParams{Content: content})
}

// Retry asks the gateway to answer the last user message again.
func (c *Client) Retry() (string, error) {
	return c.send(wsprotocol.MethodRetry, nil)
}

// SetMode changes the session's classification mode.
func (c *Client) SetMode(mode string) (string, error) {
	return c.send(wsprotocol.MethodSetMode, wsprotocol.SetModeParams{Mode: mode})
}

// ClearHistory empties the session's conversation.
func (c *Client) ClearHistory() (string, error) {
	return c.send(wsprotocol.MethodClearHistory, nil)
}

// SubmitFeedback rates the session's answers.
func (c *Client) SubmitFeedback(rating, comment string) (string, error) {
	return c.send(wsprotocol.MethodSubmitFeedback, wsprotocol.SubmitFeedbackParams{Rating: rating, Comment: comment})
}

// ReadFrame reads the next frame from the connection.
func (c *Client) ReadFrame() (wsprotocol.Frame, error) {
	_, data, err := c.conn.Read(c.ctx)
	if err != nil {
		return wsprotocol.Frame{}, err
	}
	return wsprotocol.UnmarshalFrame(data)
}

// Close gracefully closes the connection.
func (c *Client) Close() error {
	c.cancel()
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}
