package chat

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/parleyhq/parley/internal/actor"
	"github.com/parleyhq/parley/internal/api"
	"github.com/parleyhq/parley/pkg/logger"
)

// Identity is the authenticated local user.
type Identity struct {
	UserID   string
	Username string
	Token    string
}

// Snapshot is a point-in-time view of the active conversation, safe to
// render from any goroutine.
type Snapshot struct {
	Target        Target
	Status        Status
	Messages      []Message
	HistoryLoaded bool
	HistoryErr    error
}

// Listener receives change notifications. Callbacks run on the sync-core
// loop goroutine and must return quickly; rendering work belongs on the
// caller's side of a channel.
type Listener struct {
	// OnStatus fires when the connection status projection changes.
	OnStatus func(status Status)
	// OnMessages fires when the visible message sequence changes.
	OnMessages func(target Target, messages []Message)
}

// Options configure a Client.
type Options struct {
	// ServerURL is the API and stream base URL.
	ServerURL string
	// Identity is the authenticated user.
	Identity Identity
	// HistoryLimit caps the history snapshot size. Zero means server default.
	HistoryLimit int
	// Clock overrides the time source. Nil means the real clock.
	Clock actor.Clock
	// Listener receives change notifications. All fields optional.
	Listener Listener
}

// Client is the conversation sync core: one actor owning the active target,
// its live channel generation, and its message store.
type Client struct {
	identity Identity
	apiC     *api.Client
	clock    actor.Clock
	actor    *actor.Actor[State]
	rt       *runtime
}

// New builds a Client. Start must be called before any other method.
func New(opts Options) *Client {
	clock := opts.Clock
	if clock == nil {
		clock = actor.RealClock{}
	}
	apiC := api.New(opts.ServerURL)
	apiC.SetToken(opts.Identity.Token)

	rt := newRuntime(opts.ServerURL, apiC, clock, opts.HistoryLimit, opts.Identity.UserID)

	c := &Client{
		identity: opts.Identity,
		apiC:     apiC,
		clock:    clock,
		rt:       rt,
	}

	initial := State{
		SelfID:   opts.Identity.UserID,
		SelfName: opts.Identity.Username,
		Store:    NewStore(),
	}
	listener := opts.Listener
	c.actor = actor.New(initial, Reduce, rt, actor.WithHooks(actor.Hooks[State]{
		OnTransition: func(prev, next State, input actor.Input) {
			if listener.OnStatus != nil && prev.Status() != next.Status() {
				listener.OnStatus(next.Status())
			}
			if listener.OnMessages != nil && storeChanged(prev, next) {
				listener.OnMessages(next.Target, next.Store.Current())
			}
		},
		OnPanic: func(recovered any) {
			logger.Errorf("chat: sync core panic: %v", recovered)
		},
	}))
	return c
}

func storeChanged(prev, next State) bool {
	if prev.Store == nil || next.Store == nil {
		return prev.Store != next.Store
	}
	return prev.Store != next.Store || prev.Store.Version() != next.Store.Version()
}

// Start launches the sync core loop.
func (c *Client) Start() {
	c.actor.Start()
}

// Stop tears down the active channel and stops the loop. The shutdown
// command is best-effort; Stop always cancels the loop.
func (c *Client) Stop() {
	reply := make(chan error, 1)
	if c.actor.Enqueue(cmdShutdown{Reply: reply}) {
		select {
		case <-reply:
		case <-time.After(2 * time.Second):
		case <-c.actor.Done():
		}
	}
	c.actor.Stop()
	if err := c.apiC.Close(); err != nil {
		logger.Debugf("chat: close api client: %v", err)
	}
}

// Identity returns the authenticated local user.
func (c *Client) Identity() Identity { return c.identity }

// API exposes the authenticated REST client for operations outside the sync
// core (rooms, contacts, uploads).
func (c *Client) API() *api.Client { return c.apiC }

// Activate selects target as the active conversation, superseding any
// previous one. It returns the generation assigned to this activation once
// the core has accepted the switch; channel establishment and the history
// fetch continue asynchronously.
func (c *Client) Activate(ctx context.Context, target Target) (int64, error) {
	reply := make(chan ActivateResult, 1)
	if !c.actor.Enqueue(cmdActivate{Target: target, Reply: reply}) {
		return 0, actor.ErrStopped
	}
	select {
	case res := <-reply:
		return res.Gen, res.Err
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-c.actor.Done():
		return 0, actor.ErrStopped
	}
}

// Retry re-activates the current target under a fresh generation. It is the
// recovery path after a channel failure; there is no automatic reconnect.
func (c *Client) Retry(ctx context.Context) (int64, error) {
	target := c.actor.State().Target
	if target.IsZero() {
		return 0, ErrNoActiveTarget
	}
	return c.Activate(ctx, target)
}

// SendText dispatches a text message to the active target. It returns the
// provisional id of the optimistic entry; delivery progress is visible on
// the entry itself.
func (c *Client) SendText(ctx context.Context, text string) (string, error) {
	return c.send(ctx, text, "", "")
}

// SendMedia dispatches a message carrying an uploaded attachment.
func (c *Client) SendMedia(ctx context.Context, text, mediaURL, mediaKind string) (string, error) {
	return c.send(ctx, text, mediaURL, mediaKind)
}

func (c *Client) send(ctx context.Context, text, mediaURL, mediaKind string) (string, error) {
	reply := make(chan SendResult, 1)
	cmd := cmdSend{
		Text:      text,
		MediaURL:  mediaURL,
		MediaKind: mediaKind,
		LocalID:   uuid.NewString(),
		NowMs:     c.clock.Now().UnixMilli(),
		Reply:     reply,
	}
	if !c.actor.Enqueue(cmd) {
		return "", actor.ErrStopped
	}
	select {
	case res := <-reply:
		return res.LocalID, res.Err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-c.actor.Done():
		return "", actor.ErrStopped
	}
}

// Snapshot returns the current conversation view. The read goes through the
// mailbox so the message store stays single-goroutine.
func (c *Client) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if !c.actor.Enqueue(cmdSnapshot{Reply: reply}) {
		return Snapshot{}, actor.ErrStopped
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-c.actor.Done():
		return Snapshot{}, actor.ErrStopped
	}
}
