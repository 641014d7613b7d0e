package gateway

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/threatthriver/thinkchat/internal/events"
	"github.com/threatthriver/thinkchat/internal/gateway/ws"
)

func writeFrame(t *testing.T, ctx context.Context, conn *websocket.Conn, id string, method ws.Method, params any) {
	t.Helper()
	f, err := ws.NewRequestFrame(id, method, "", params)
	if err != nil {
		t.Fatalf("NewRequestFrame: %v", err)
	}
	data, _ := ws.MarshalFrame(f)
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) ws.Frame {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	f, err := ws.UnmarshalFrame(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return f
}

func TestWebSocketRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	writeFrame(t, ctx, conn, "1", ws.MethodOpenSession, ws.OpenSessionParams{})
	res := readFrame(t, ctx, conn)
	if res.Type != ws.FrameTypeResponse || res.ID != "1" || res.OK == nil || !*res.OK {
		t.Fatalf("unexpected open_session response %+v", res)
	}
	var info ws.SessionInfo
	if err := ws.DecodeParams(ws.Frame{Params: res.Payload}, &info); err != nil {
		t.Fatalf("decode session info: %v", err)
	}
	if info.SessionID == "" {
		t.Fatal("missing session id")
	}

	writeFrame(t, ctx, conn, "2", ws.MethodSendMessage, ws.SendMessageParams{Content: "hi"})

	var (
		reply     ws.ReplyResult
		gotReply  bool
		gotFinal  bool
		blockSeen bool
	)
	for !gotReply || !gotFinal {
		f := readFrame(t, ctx, conn)
		switch f.Type {
		case ws.FrameTypeResponse:
			if f.ID != "2" {
				t.Fatalf("unexpected response id %q", f.ID)
			}
			if f.OK == nil || !*f.OK {
				t.Fatalf("send_message failed: %s", f.Error)
			}
			ws.DecodeParams(ws.Frame{Params: f.Payload}, &reply)
			gotReply = true
		case ws.FrameTypeEvent:
			if f.SessionID != info.SessionID {
				t.Fatalf("event for foreign session %q", f.SessionID)
			}
			switch events.EventType(f.Event) {
			case events.EventBlockAppend:
				blockSeen = true
			case events.EventAssistantMessage:
				gotFinal = true
			}
		}
	}
	if reply.Answer != "Hello world" {
		t.Fatalf("answer = %q", reply.Answer)
	}
	if !blockSeen {
		t.Fatal("expected block.append events before the final message")
	}
}

func TestWebSocketRequiresSession(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/api/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	writeFrame(t, ctx, conn, "1", ws.MethodRetry, nil)
	res := readFrame(t, ctx, conn)
	if res.OK == nil || *res.OK || res.Error != ws.ErrNoSession.Error() {
		t.Fatalf("expected no-session error, got %+v", res)
	}
}
