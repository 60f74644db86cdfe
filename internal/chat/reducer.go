package chat

import (
	"strings"
	"time"

	"github.com/parleyhq/parley/internal/actor"
	"github.com/parleyhq/parley/internal/wire"
)

const (
	// reconcileTimeoutMs bounds how long an optimistic entry may stay pending
	// without its server echo before it is marked failed. The wire protocol
	// has no explicit acknowledgement frame; the echo is the only delivery
	// confirmation, and a transport that silently drops a frame would
	// otherwise leave the entry pending forever.
	reconcileTimeoutMs = 15_000

	reconcileTimerPrefix = "reconcile:"
)

func reconcileTimerName(localID string) string {
	return reconcileTimerPrefix + localID
}

// Reduce is the sync-core reducer.
//
// Events carrying a generation other than State.Gen are discarded without any
// observable effect; that single rule is what makes rapid target switching
// safe.
func Reduce(state State, input actor.Input) (State, []actor.Effect) {
	switch in := input.(type) {
	case cmdActivate:
		return reduceActivate(state, in)
	case cmdSend:
		return reduceSend(state, in)
	case cmdSnapshot:
		return reduceSnapshot(state, in)
	case cmdShutdown:
		return reduceShutdown(state, in)

	case evChannelOpened:
		if in.Gen != state.Gen {
			return state, nil
		}
		state.Conn = ConnOpen
		return state, nil
	case evChannelClosed:
		if in.Gen != state.Gen {
			return state, nil
		}
		state.Conn = ConnClosed
		return state, nil
	case evChannelFailed:
		if in.Gen != state.Gen {
			return state, nil
		}
		state.Conn = ConnFailed
		return state, nil
	case evChannelMessage:
		return reduceChannelMessage(state, in)
	case evHistoryLoaded:
		if in.Gen != state.Gen {
			return state, nil
		}
		state.HistoryLoaded = true
		state.HistoryErr = nil
		state.Store.Seed(in.Messages)
		return state, nil
	case evHistoryFailed:
		if in.Gen != state.Gen {
			return state, nil
		}
		// Surfaced as empty-with-error; an established channel stays up.
		state.HistoryLoaded = true
		state.HistoryErr = in.Err
		return state, nil
	case evSendFailed:
		return reduceSendFailed(state, in)
	case evTimerFired:
		return reduceTimerFired(state, in)
	default:
		return state, nil
	}
}

// reduceActivate rotates the live channel: the previous generation is
// discarded (teardown is fire-and-forget) and a fresh channel plus history
// fetch are started under the new generation. Re-activating the same target
// still consumes a new generation; latest wins, no-op reselection is not
// detected.
func reduceActivate(state State, cmd cmdActivate) (State, []actor.Effect) {
	state.Gen++
	gen := state.Gen

	effects := []actor.Effect{effCloseChannel{Gen: gen - 1}}

	state.Target = cmd.Target
	state.Store = NewStore()
	state.HistoryLoaded = false
	state.HistoryErr = nil

	if err := cmd.Target.Validate(); err != nil {
		// The generation is consumed, never reused; status reports failed
		// immediately.
		state.Conn = ConnFailed
		replyActivate(cmd.Reply, ActivateResult{Gen: gen, Err: err})
		return state, effects
	}

	state.Conn = ConnConnecting
	effects = append(effects,
		effFetchHistory{Gen: gen, Target: cmd.Target},
		effOpenChannel{Gen: gen, Target: cmd.Target},
	)
	replyActivate(cmd.Reply, ActivateResult{Gen: gen})
	return state, effects
}

// reduceSend performs the optimistic insert before any transmission attempt,
// so the sender's own view reflects the message immediately. A send while the
// channel is not open fails visibly: the entry is marked failed, never
// dropped.
func reduceSend(state State, cmd cmdSend) (State, []actor.Effect) {
	if strings.TrimSpace(cmd.Text) == "" && cmd.MediaURL == "" {
		replySend(cmd.Reply, SendResult{Err: ErrEmptyMessage})
		return state, nil
	}
	if state.Gen == 0 || state.Target.IsZero() {
		replySend(cmd.Reply, SendResult{Err: ErrNoActiveTarget})
		return state, nil
	}

	state.Store.InsertOptimistic(Message{
		ID:        cmd.LocalID,
		Sender:    state.SelfName,
		SenderID:  state.SelfID,
		Text:      cmd.Text,
		MediaURL:  cmd.MediaURL,
		MediaKind: cmd.MediaKind,
		Timestamp: time.UnixMilli(cmd.NowMs).UTC(),
	})

	if state.Conn != ConnOpen {
		state.Store.MarkFailed(cmd.LocalID)
		replySend(cmd.Reply, SendResult{LocalID: cmd.LocalID})
		return state, nil
	}

	frame := wire.OutboundFrame{
		Sender:    state.SelfName,
		SenderID:  state.SelfID,
		Text:      cmd.Text,
		LocalID:   cmd.LocalID,
		MediaURL:  cmd.MediaURL,
		MediaType: cmd.MediaKind,
	}
	if state.Target.Kind == KindPeer {
		frame.ReceiverID = state.Target.PeerID
	}

	replySend(cmd.Reply, SendResult{LocalID: cmd.LocalID})
	return state, []actor.Effect{
		effTransmit{Gen: state.Gen, LocalID: cmd.LocalID, Frame: frame},
		effStartTimer{Name: reconcileTimerName(cmd.LocalID), AfterMs: reconcileTimeoutMs},
	}
}

// reduceChannelMessage applies one live inbound message: reconcile an
// optimistic entry in place when the frame is our own echo, otherwise append.
// Re-delivery of an already-known id is dropped silently.
func reduceChannelMessage(state State, ev evChannelMessage) (State, []actor.Effect) {
	if ev.Gen != state.Gen {
		return state, nil
	}

	if ev.LocalID != "" && state.Store.Reconcile(ev.LocalID, ev.Msg) {
		return state, []actor.Effect{effCancelTimer{Name: reconcileTimerName(ev.LocalID)}}
	}
	if ev.Msg.SenderID == state.SelfID && ev.LocalID == "" {
		// Echo without an idempotency key: match the oldest pending entry
		// with the same text.
		if localID, ok := state.Store.ReconcileEcho(ev.Msg); ok {
			return state, []actor.Effect{effCancelTimer{Name: reconcileTimerName(localID)}}
		}
	}
	state.Store.Append(ev.Msg)
	return state, nil
}

func reduceSendFailed(state State, ev evSendFailed) (State, []actor.Effect) {
	if ev.Gen != state.Gen {
		return state, nil
	}
	state.Store.MarkFailed(ev.LocalID)
	return state, []actor.Effect{effCancelTimer{Name: reconcileTimerName(ev.LocalID)}}
}

func reduceTimerFired(state State, ev evTimerFired) (State, []actor.Effect) {
	localID, ok := strings.CutPrefix(ev.Name, reconcileTimerPrefix)
	if !ok {
		return state, nil
	}
	// The echo never arrived. If the target switched meanwhile the store was
	// replaced and the id is simply absent; MarkFailed is a no-op then.
	state.Store.MarkFailed(localID)
	return state, nil
}

func reduceSnapshot(state State, cmd cmdSnapshot) (State, []actor.Effect) {
	snap := Snapshot{
		Target:        state.Target,
		Status:        state.Status(),
		HistoryLoaded: state.HistoryLoaded,
		HistoryErr:    state.HistoryErr,
	}
	if state.Store != nil {
		snap.Messages = state.Store.Current()
	}
	if cmd.Reply != nil {
		select {
		case cmd.Reply <- snap:
		default:
		}
	}
	return state, nil
}

func reduceShutdown(state State, cmd cmdShutdown) (State, []actor.Effect) {
	state.Conn = ConnClosed
	if cmd.Reply != nil {
		select {
		case cmd.Reply <- nil:
		default:
		}
	}
	return state, []actor.Effect{effCloseChannel{Gen: state.Gen}}
}

func replyActivate(ch chan ActivateResult, res ActivateResult) {
	if ch == nil {
		return
	}
	select {
	case ch <- res:
	default:
	}
}

func replySend(ch chan SendResult, res SendResult) {
	if ch == nil {
		return
	}
	select {
	case ch <- res:
	default:
	}
}
