package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	wsprotocol "github.com/threatthriver/thinkchat/internal/gateway/ws"
)

// fakeGateway answers open_session and echoes every other request method
// back as the response payload.
func fakeGateway(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		ctx := r.Context()

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			req, _ := wsprotocol.UnmarshalFrame(data)

			var res wsprotocol.Frame
			if wsprotocol.Method(req.Method) == wsprotocol.MethodOpenSession {
				// An unrelated event first: OpenSession must skip it.
				ev, _ := wsprotocol.NewEventFrame("session.created", "sess_other", map[string]string{})
				out, _ := wsprotocol.MarshalFrame(ev)
				conn.Write(ctx, websocket.MessageText, out)

				res, _ = wsprotocol.NewResponseFrame(req.ID, true, wsprotocol.SessionInfo{SessionID: "sess_1", Mode: "auto"}, "")
			} else {
				res, _ = wsprotocol.NewResponseFrame(req.ID, true, map[string]string{
					"method":  req.Method,
					"session": req.SessionID,
					"params":  string(req.Params),
				}, "")
			}
			out, _ := wsprotocol.MarshalFrame(res)
			if err := conn.Write(ctx, websocket.MessageText, out); err != nil {
				return
			}
		}
	}))
}

func TestClientRoundTrip(t *testing.T) {
	srv := fakeGateway(t)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	info, err := c.OpenSession("")
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	if info.SessionID != "sess_1" || c.SessionID() != "sess_1" {
		t.Fatalf("unexpected session %+v", info)
	}

	id, err := c.SetMode("complex")
	if err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	frame, err := c.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if frame.ID != id {
		t.Fatalf("response id = %q, want %q", frame.ID, id)
	}

	var echoed map[string]string
	if err := wsprotocol.DecodeParams(wsprotocol.Frame{Params: frame.Payload}, &echoed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if echoed["method"] != "set_mode" || echoed["session"] != "sess_1" || !strings.Contains(echoed["params"], "complex") {
		t.Fatalf("unexpected echo %v", echoed)
	}
}

func TestClientRequestIDsIncrease(t *testing.T) {
	srv := fakeGateway(t)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	a, _ := c.Retry()
	b, _ := c.ClearHistory()
	if a == b {
		t.Fatalf("request ids must differ, both %q", a)
	}
}
