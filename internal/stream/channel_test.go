package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley/internal/wire"
)

var upgrader = websocket.Upgrader{}

func waitFor[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		var zero T
		return zero
	}
}

func TestURL(t *testing.T) {
	tests := []struct {
		server  string
		channel string
		want    string
	}{
		{"http://localhost:8000", "general", "ws://localhost:8000/ws/general"},
		{"https://parley.example.com", "general", "wss://parley.example.com/ws/general"},
		{"http://localhost:8000/", "dm:u1:u2", "ws://localhost:8000/ws/dm:u1:u2"},
		{"ws://localhost:8000", "general", "ws://localhost:8000/ws/general"},
	}
	for _, tc := range tests {
		got, err := URL(tc.server, tc.channel)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}

	_, err := URL("ftp://example.com", "general")
	require.Error(t, err)
}

func TestDialReceiveAndServerClose(t *testing.T) {
	frames := make(chan *wire.InboundFrame, 1)
	opened := make(chan struct{}, 1)
	closed := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasPrefix(r.URL.Path, "/ws/"))
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		err = conn.WriteJSON(wire.InboundFrame{
			ID:        "m1",
			Sender:    "bob",
			SenderID:  "u2",
			Text:      "hello",
			Timestamp: "2026-08-01T12:00:00",
		})
		require.NoError(t, err)

		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	defer srv.Close()

	rawURL, err := URL(srv.URL, "general")
	require.NoError(t, err)

	ch := Dial(context.Background(), rawURL, Events{
		OnOpen:    func() { opened <- struct{}{} },
		OnMessage: func(f *wire.InboundFrame) { frames <- f },
		OnClosed:  func(reason string) { closed <- reason },
	})

	waitFor(t, opened, "open")
	frame := waitFor(t, frames, "frame")
	require.Equal(t, "m1", frame.ID)
	require.Equal(t, "u2", frame.SenderID)
	require.Equal(t, "hello", frame.Text)

	reason := waitFor(t, closed, "close")
	require.Equal(t, "closed by server", reason)
	<-ch.Done()
	require.Equal(t, StateClosed, ch.State())
}

func TestSendFrame(t *testing.T) {
	received := make(chan wire.OutboundFrame, 1)
	opened := make(chan struct{}, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var frame wire.OutboundFrame
		if err := conn.ReadJSON(&frame); err == nil {
			received <- frame
		}
		// Keep the connection up until the client closes.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	rawURL, err := URL(srv.URL, "general")
	require.NoError(t, err)

	ch := Dial(context.Background(), rawURL, Events{
		OnOpen: func() { opened <- struct{}{} },
	})
	defer ch.Close()

	waitFor(t, opened, "open")
	err = ch.Send(wire.OutboundFrame{
		Sender:   "alice",
		SenderID: "u1",
		Text:     "hi",
		LocalID:  "local-1",
	})
	require.NoError(t, err)

	frame := waitFor(t, received, "frame")
	require.Equal(t, "local-1", frame.LocalID)
	require.Equal(t, "hi", frame.Text)
}

func TestSendBeforeOpen(t *testing.T) {
	// Dial toward a server that never upgrades; the channel stays in
	// connecting until the dial fails.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	rawURL, err := URL(srv.URL, "general")
	require.NoError(t, err)

	ch := Dial(context.Background(), rawURL, Events{})
	defer ch.Close()
	require.ErrorIs(t, ch.Send(wire.OutboundFrame{Text: "early"}), ErrNotOpen)
}

func TestDialFailure(t *testing.T) {
	failed := make(chan error, 1)
	closed := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	rawURL, err := URL(srv.URL, "general")
	require.NoError(t, err)

	ch := Dial(context.Background(), rawURL, Events{
		OnFailed: func(err error) { failed <- err },
		OnClosed: func(reason string) { closed <- reason },
	})

	require.Error(t, waitFor(t, failed, "failure"))
	waitFor(t, closed, "close")
	<-ch.Done()
	require.Equal(t, StateClosed, ch.State())
	require.ErrorIs(t, ch.Send(wire.OutboundFrame{Text: "late"}), ErrNotOpen)
}

func TestClientClose(t *testing.T) {
	opened := make(chan struct{}, 1)
	closed := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	rawURL, err := URL(srv.URL, "general")
	require.NoError(t, err)

	ch := Dial(context.Background(), rawURL, Events{
		OnOpen:   func() { opened <- struct{}{} },
		OnClosed: func(reason string) { closed <- reason },
	})

	waitFor(t, opened, "open")
	ch.Close()
	require.Equal(t, "closed by client", waitFor(t, closed, "close"))
	<-ch.Done()

	// Close is idempotent.
	ch.Close()
	require.Equal(t, StateClosed, ch.State())
}

func TestMalformedFramesAreDropped(t *testing.T) {
	frames := make(chan *wire.InboundFrame, 1)
	opened := make(chan struct{}, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
		require.NoError(t, conn.WriteJSON(wire.InboundFrame{ID: "m1", SenderID: "u2", Text: "after"}))

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	rawURL, err := URL(srv.URL, "general")
	require.NoError(t, err)

	ch := Dial(context.Background(), rawURL, Events{
		OnOpen:    func() { opened <- struct{}{} },
		OnMessage: func(f *wire.InboundFrame) { frames <- f },
	})
	defer ch.Close()

	waitFor(t, opened, "open")
	frame := waitFor(t, frames, "frame")
	require.Equal(t, "m1", frame.ID, "the malformed frame must be skipped, not kill the channel")
}
