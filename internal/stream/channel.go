// Package stream implements the live message channel: one WebSocket
// connection per conversation target, carrying JSON frames.
//
// A Channel moves through connecting -> open -> closed on the normal path, or
// connecting/open -> failed -> closed on errors. No transition leaves closed;
// callers discard a closed Channel and dial a new one.
package stream

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/parleyhq/parley/internal/wire"
	"github.com/parleyhq/parley/pkg/logger"
)

// writeTimeout bounds a single frame write.
const writeTimeout = 10 * time.Second

// ErrNotOpen is returned by Send when the channel is not in the open state.
var ErrNotOpen = errors.New("channel not open")

// State is the channel lifecycle state.
type State string

const (
	StateConnecting State = "connecting"
	StateOpen       State = "open"
	StateClosed     State = "closed"
	StateFailed     State = "failed"
)

// Events are the lifecycle callbacks a Channel invokes. All callbacks run on
// the channel's reader goroutine; they must not block.
type Events struct {
	// OnOpen is called once when the connection is established.
	OnOpen func()
	// OnMessage is called for every parseable inbound frame.
	OnMessage func(frame *wire.InboundFrame)
	// OnClosed is called when the channel reaches the closed state.
	OnClosed func(reason string)
	// OnFailed is called when the channel fails abnormally, before OnClosed.
	OnFailed func(err error)
}

// Channel is a single live connection to one conversation target.
type Channel struct {
	url    string
	events Events

	mu      sync.Mutex
	state   State
	conn    *websocket.Conn
	writeMu sync.Mutex

	closeOnce sync.Once
	done      chan struct{}
}

// URL builds the stream URL for a channel id from the server base URL,
// translating the http scheme to its ws counterpart.
func URL(serverURL, channelID string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", serverURL, err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid server URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/" + channelID
	return u.String(), nil
}

// Dial starts connecting to the given stream URL and returns immediately with
// the channel in the connecting state. Lifecycle progress is reported through
// events.
func Dial(ctx context.Context, rawURL string, events Events) *Channel {
	c := &Channel{
		url:    rawURL,
		events: events,
		state:  StateConnecting,
		done:   make(chan struct{}),
	}
	go c.run(ctx)
	return c
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done returns a channel that closes when the reader goroutine exits.
func (c *Channel) Done() <-chan struct{} { return c.done }

// Send writes one outbound frame. It returns ErrNotOpen unless the channel is
// open.
func (c *Channel) Send(frame wire.OutboundFrame) error {
	c.mu.Lock()
	conn := c.conn
	state := c.state
	c.mu.Unlock()
	if state != StateOpen || conn == nil {
		return ErrNotOpen
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("send frame: %w", err)
	}
	return nil
}

// Close tears the channel down. It is safe to call from any state and more
// than once; the first call wins.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		conn := c.conn
		alreadyClosed := c.state == StateClosed
		c.state = StateClosed
		c.mu.Unlock()

		if conn != nil {
			c.writeMu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			c.writeMu.Unlock()
			_ = conn.Close()
		}
		if !alreadyClosed && c.events.OnClosed != nil {
			c.events.OnClosed("closed by client")
		}
	})
}

// run dials the connection and pumps inbound frames until the channel dies.
func (c *Channel) run(ctx context.Context) {
	defer close(c.done)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("dial: %w (status %d)", err, resp.StatusCode)
		} else {
			err = fmt.Errorf("dial: %w", err)
		}
		c.fail(err)
		return
	}

	c.mu.Lock()
	if c.state != StateConnecting {
		// Close raced the dial; discard the connection silently.
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.conn = conn
	c.state = StateOpen
	c.mu.Unlock()

	if c.events.OnOpen != nil {
		c.events.OnOpen()
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closedLocally := c.state == StateClosed
			c.mu.Unlock()
			if closedLocally {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.shutdown("closed by server")
				return
			}
			c.fail(fmt.Errorf("read frame: %w", err))
			return
		}

		frame, err := wire.ParseInboundFrame(data)
		if err != nil {
			logger.Warnf("stream: dropping frame: %v", err)
			continue
		}
		if c.events.OnMessage != nil {
			c.events.OnMessage(frame)
		}
	}
}

// fail moves the channel to failed, then to closed once cleanup is done.
func (c *Channel) fail(err error) {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	conn := c.conn
	c.state = StateFailed
	c.mu.Unlock()

	if c.events.OnFailed != nil {
		c.events.OnFailed(err)
	}
	if conn != nil {
		_ = conn.Close()
	}

	c.mu.Lock()
	c.state = StateClosed
	c.mu.Unlock()
	if c.events.OnClosed != nil {
		c.events.OnClosed(err.Error())
	}
}

// shutdown moves an open channel to closed after a server-initiated close.
func (c *Channel) shutdown(reason string) {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	conn := c.conn
	c.state = StateClosed
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if c.events.OnClosed != nil {
		c.events.OnClosed(reason)
	}
}
