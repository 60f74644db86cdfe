package chat

import (
	"github.com/parleyhq/parley/internal/actor"
	"github.com/parleyhq/parley/internal/wire"
)

// ConnState is the channel lifecycle state tracked for the current
// generation. It mirrors the stream FSM; only the projection (Status) is
// exposed to rendering layers.
type ConnState string

const (
	// ConnIdle means no target has been activated yet.
	ConnIdle ConnState = ""
	// ConnConnecting means the current generation's channel is dialing.
	ConnConnecting ConnState = "connecting"
	// ConnOpen means the current generation's channel is established.
	ConnOpen ConnState = "open"
	// ConnClosed means the current generation's channel was torn down.
	ConnClosed ConnState = "closed"
	// ConnFailed means the current generation's channel failed.
	ConnFailed ConnState = "failed"
)

// State is the loop-owned state of the sync core.
type State struct {
	// SelfID and SelfName identify the local user; set once at construction.
	SelfID   string
	SelfName string

	// Target is the currently selected conversation target.
	Target Target

	// Gen increments on every activation. Every channel and history event
	// carries the generation it was started under; the reducer discards
	// events whose generation is not current. This is the guard that keeps a
	// stale channel from corrupting a newly selected target's state.
	Gen int64

	// Conn is the channel lifecycle state for the current generation.
	Conn ConnState

	// Store holds the current target's message sequence. Replaced wholesale
	// on every activation.
	Store *Store

	// HistoryLoaded is set once the current generation's snapshot arrived.
	HistoryLoaded bool
	// HistoryErr records a failed history fetch for the current generation.
	// It does not tear down an established channel.
	HistoryErr error
}

// Status projects the connection state for the rendering layer.
func (s State) Status() Status {
	switch s.Conn {
	case ConnConnecting:
		return StatusConnecting
	case ConnOpen:
		return StatusConnected
	default:
		return StatusDisconnected
	}
}

// ActivateResult is delivered on a cmdActivate reply channel.
type ActivateResult struct {
	// Gen is the generation assigned to this activation. Consumed even when
	// activation fails.
	Gen int64
	Err error
}

// SendResult is delivered on a cmdSend reply channel.
type SendResult struct {
	// LocalID is the provisional id of the optimistic entry.
	LocalID string
	// Err is non-nil only for validation failures; transport failures are
	// recorded on the message's delivery state instead.
	Err error
}

// Commands

// Command is a marker interface for commands consumed by the chat reducer.
type Command interface {
	actor.Input
	isChatCommand()
}

// cmdActivate selects a new conversation target, superseding the previous
// one.
type cmdActivate struct {
	actor.InputBase
	Target Target
	Reply  chan ActivateResult
}

func (cmdActivate) isChatCommand() {}

// cmdSend dispatches a locally-authored message to the active target.
type cmdSend struct {
	actor.InputBase
	Text      string
	MediaURL  string
	MediaKind string
	LocalID   string
	NowMs     int64
	Reply     chan SendResult
}

func (cmdSend) isChatCommand() {}

// cmdSnapshot reads the current conversation view. Reading through the
// mailbox keeps the store single-goroutine; it never escapes the loop.
type cmdSnapshot struct {
	actor.InputBase
	Reply chan Snapshot
}

func (cmdSnapshot) isChatCommand() {}

// cmdShutdown tears down the active channel and stops accepting events.
type cmdShutdown struct {
	actor.InputBase
	Reply chan error
}

func (cmdShutdown) isChatCommand() {}

// Events emitted by the runtime back into the reducer. All of them carry the
// generation of the channel or fetch they originate from.

// Event is a marker interface for events consumed by the chat reducer.
type Event interface {
	actor.Input
	isChatEvent()
}

type evChannelOpened struct {
	actor.InputBase
	Gen int64
}

func (evChannelOpened) isChatEvent() {}

type evChannelMessage struct {
	actor.InputBase
	Gen int64
	Msg Message
	// LocalID is the echoed idempotency key, when the frame carried one.
	LocalID string
}

func (evChannelMessage) isChatEvent() {}

type evChannelClosed struct {
	actor.InputBase
	Gen    int64
	Reason string
}

func (evChannelClosed) isChatEvent() {}

type evChannelFailed struct {
	actor.InputBase
	Gen int64
	Err error
}

func (evChannelFailed) isChatEvent() {}

type evHistoryLoaded struct {
	actor.InputBase
	Gen      int64
	Messages []Message
}

func (evHistoryLoaded) isChatEvent() {}

type evHistoryFailed struct {
	actor.InputBase
	Gen int64
	Err error
}

func (evHistoryFailed) isChatEvent() {}

type evSendFailed struct {
	actor.InputBase
	Gen     int64
	LocalID string
	Err     error
}

func (evSendFailed) isChatEvent() {}

type evTimerFired struct {
	actor.InputBase
	Name  string
	NowMs int64
}

func (evTimerFired) isChatEvent() {}

// Effects

// Effect is a marker interface for effects emitted by the chat reducer.
type Effect interface {
	actor.Effect
	isChatEffect()
}

// effCloseChannel requests teardown of the channel belonging to Gen.
// Fire-and-forget: completion is never awaited; late events from the closed
// channel are filtered by generation.
type effCloseChannel struct {
	actor.EffectBase
	Gen int64
}

func (effCloseChannel) isChatEffect() {}

// effOpenChannel requests a new channel bound to (Target, Gen).
type effOpenChannel struct {
	actor.EffectBase
	Gen    int64
	Target Target
}

func (effOpenChannel) isChatEffect() {}

// effFetchHistory requests the history snapshot for Target, tagged with Gen.
type effFetchHistory struct {
	actor.EffectBase
	Gen    int64
	Target Target
}

func (effFetchHistory) isChatEffect() {}

// effTransmit sends one outbound frame on the channel belonging to Gen.
type effTransmit struct {
	actor.EffectBase
	Gen     int64
	LocalID string
	Frame   wire.OutboundFrame
}

func (effTransmit) isChatEffect() {}

// effStartTimer schedules a named one-shot timer.
type effStartTimer struct {
	actor.EffectBase
	Name    string
	AfterMs int64
}

func (effStartTimer) isChatEffect() {}

// effCancelTimer cancels a named timer.
type effCancelTimer struct {
	actor.EffectBase
	Name string
}

func (effCancelTimer) isChatEffect() {}
