package socket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"github.com/dshills/topicview/internal/event"
)

type chanSink chan event.Event

func (s chanSink) Deliver(_ context.Context, evt event.Event) { s <- evt }

func testSettings() Settings {
	return Settings{
		HandshakeTimeout: time.Second,
		ReconnectTimeout: 10 * time.Millisecond,
		PingInterval:     time.Second,
		WriteTimeout:     time.Second,
		ReadTimeout:      5 * time.Second,
		SendBuffer:       8,
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// serve upgrades every request and hands the connection to fn.
func serve(t *testing.T, fn func(n int, ws *websocket.Conn)) *httptest.Server {
	t.Helper()
	var conns atomic.Int32
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		fn(int(conns.Add(1)), ws)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, c *Client) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("Run did not return after cancel")
		}
	})
}

func receive(t *testing.T, sink chanSink) event.Event {
	t.Helper()
	select {
	case evt := <-sink:
		return evt
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for an event")
		return event.Event{}
	}
}

func TestEncodeFrame(t *testing.T) {
	got, err := EncodeFrame("topics.markTopicNotificationsRead", []byte(`[42]`))
	if err != nil {
		t.Fatalf("EncodeFrame() failed: %v", err)
	}
	if string(got) != `["topics.markTopicNotificationsRead",[42]]` {
		t.Errorf("EncodeFrame() = %s", got)
	}

	got, err = EncodeFrame("ping", nil)
	if err != nil || string(got) != `["ping"]` {
		t.Errorf("EncodeFrame(empty) = %s, %v", got, err)
	}

	if _, err := EncodeFrame("", nil); !errors.Is(err, event.ErrInvalidKind) {
		t.Errorf("expected ErrInvalidKind, got %v", err)
	}
	if _, err := EncodeFrame("k", []byte(`{`)); !errors.Is(err, ErrBadFrame) {
		t.Errorf("expected ErrBadFrame, got %v", err)
	}
}

func TestDecodeFrame(t *testing.T) {
	kind, payload, err := DecodeFrame([]byte(`["event:voted", {"post": {"pid": 7}}]`))
	if err != nil {
		t.Fatalf("DecodeFrame() failed: %v", err)
	}
	if kind != "event:voted" || string(payload) != `{"post": {"pid": 7}}` {
		t.Errorf("DecodeFrame() = %q, %s", kind, payload)
	}

	kind, payload, err = DecodeFrame([]byte(`["event:ping"]`))
	if err != nil || kind != "event:ping" || payload != nil {
		t.Errorf("DecodeFrame(no payload) = %q, %s, %v", kind, payload, err)
	}

	for _, bad := range []string{`{"kind":"x"}`, `[1, {}]`, `[]`, `not json`, `[""]`} {
		if _, _, err := DecodeFrame([]byte(bad)); !errors.Is(err, ErrBadFrame) {
			t.Errorf("DecodeFrame(%s) error = %v, want ErrBadFrame", bad, err)
		}
	}
}

func TestClient_DeliversFrames(t *testing.T) {
	srv := serve(t, func(_ int, ws *websocket.Conn) {
		ws.WriteMessage(websocket.TextMessage, []byte(`garbage`))
		ws.WriteMessage(websocket.TextMessage, []byte(`["event:voted",{"post":{"pid":"7"}}]`))
		ws.ReadMessage()
	})
	sink := make(chanSink, 4)
	c := New(wsURL(srv), sink, WithSettings(testSettings()))
	run(t, c)

	evt := receive(t, sink)
	if evt.Kind != "event:voted" || evt.Metadata.Source != Source {
		t.Errorf("event = %+v", evt)
	}
	if pid, ok := evt.Payload.ID("post.pid"); !ok || pid != 7 {
		t.Errorf("post.pid = %d, %v", pid, ok)
	}
	if got := c.Stats().Dropped; got != 1 {
		t.Errorf("Dropped = %d, want 1", got)
	}
}

func TestClient_SendWritesFrame(t *testing.T) {
	got := make(chan string, 1)
	srv := serve(t, func(_ int, ws *websocket.Conn) {
		_, msg, err := ws.ReadMessage()
		if err == nil {
			got <- string(msg)
		}
		ws.ReadMessage()
	})
	c := New(wsURL(srv), make(chanSink, 1), WithSettings(testSettings()))

	// Queued before the first dial.
	if err := c.Send(context.Background(), "topics.markTopicNotificationsRead", []byte(`[42]`)); err != nil {
		t.Fatalf("Send() failed: %v", err)
	}
	run(t, c)

	select {
	case msg := <-got:
		if diff := cmp.Diff(`["topics.markTopicNotificationsRead",[42]]`, msg); diff != "" {
			t.Errorf("frame mismatch (-want +got):\n%s", diff)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server never received the frame")
	}
}

func TestClient_SendBufferFull(t *testing.T) {
	settings := testSettings()
	settings.SendBuffer = 1
	c := New("ws://unused", make(chanSink), WithSettings(settings))

	if err := c.Send(context.Background(), "a", nil); err != nil {
		t.Fatalf("first Send() failed: %v", err)
	}
	if err := c.Send(context.Background(), "b", nil); !errors.Is(err, ErrSendBufferFull) {
		t.Errorf("expected ErrSendBufferFull, got %v", err)
	}
}

func TestClient_Reconnects(t *testing.T) {
	srv := serve(t, func(n int, ws *websocket.Conn) {
		if n == 1 {
			return
		}
		ws.WriteMessage(websocket.TextMessage, []byte(`["event:new_post",{"posts":[]}]`))
		ws.ReadMessage()
	})
	sink := make(chanSink, 4)
	var attempts atomic.Int32
	c := New(wsURL(srv), sink,
		WithSettings(testSettings()),
		WithOnConnect(func(int) { attempts.Add(1) }),
	)
	run(t, c)

	evt := receive(t, sink)
	if evt.Kind != "event:new_post" {
		t.Errorf("Kind = %q", evt.Kind)
	}
	if got := attempts.Load(); got < 2 {
		t.Errorf("connects = %d, want at least 2", got)
	}
}

func TestClient_SendAfterClose(t *testing.T) {
	c := New("ws://127.0.0.1:1", make(chanSink), WithSettings(testSettings()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v, want context.Canceled", err)
	}
	if err := c.Send(context.Background(), "a", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
