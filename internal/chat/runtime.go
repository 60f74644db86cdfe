package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parleyhq/parley/internal/actor"
	"github.com/parleyhq/parley/internal/api"
	"github.com/parleyhq/parley/internal/stream"
	"github.com/parleyhq/parley/internal/wire"
	"github.com/parleyhq/parley/pkg/logger"
)

// runtime interprets the reducer's effects: it owns the live channels keyed
// by generation, the named reconcile timers, and the history fetches. All
// results flow back into the actor mailbox as generation-tagged events; the
// runtime never touches reducer state.
type runtime struct {
	serverURL    string
	api          *api.Client
	clock        actor.Clock
	historyLimit int
	selfID       string

	mu       sync.Mutex
	channels map[int64]*stream.Channel
	timers   map[string]*time.Timer
	stopped  bool
}

func newRuntime(serverURL string, apiClient *api.Client, clock actor.Clock, historyLimit int, selfID string) *runtime {
	if clock == nil {
		clock = actor.RealClock{}
	}
	return &runtime{
		serverURL:    serverURL,
		api:          apiClient,
		clock:        clock,
		historyLimit: historyLimit,
		selfID:       selfID,
		channels:     make(map[int64]*stream.Channel),
		timers:       make(map[string]*time.Timer),
	}
}

// HandleEffects implements actor.Runtime.
func (r *runtime) HandleEffects(ctx context.Context, effects []actor.Effect, emit func(actor.Input)) {
	for _, eff := range effects {
		switch e := eff.(type) {
		case effCloseChannel:
			r.closeChannel(e.Gen)
		case effOpenChannel:
			r.openChannel(ctx, e, emit)
		case effFetchHistory:
			go r.fetchHistory(ctx, e, emit)
		case effTransmit:
			r.transmit(e, emit)
		case effStartTimer:
			r.startTimer(e, emit)
		case effCancelTimer:
			r.cancelTimer(e.Name)
		default:
			logger.Warnf("chat: unhandled effect %T", eff)
		}
	}
}

// Stop implements actor.Runtime. It tears down every live channel and timer.
func (r *runtime) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	channels := r.channels
	timers := r.timers
	r.channels = make(map[int64]*stream.Channel)
	r.timers = make(map[string]*time.Timer)
	r.mu.Unlock()

	for _, ch := range channels {
		ch.Close()
	}
	for _, t := range timers {
		t.Stop()
	}
}

func (r *runtime) closeChannel(gen int64) {
	r.mu.Lock()
	ch := r.channels[gen]
	delete(r.channels, gen)
	r.mu.Unlock()
	if ch != nil {
		ch.Close()
	}
}

func (r *runtime) openChannel(ctx context.Context, eff effOpenChannel, emit func(actor.Input)) {
	rawURL, err := stream.URL(r.serverURL, eff.Target.ChannelID())
	if err != nil {
		emit(evChannelFailed{Gen: eff.Gen, Err: err})
		return
	}

	gen := eff.Gen
	ch := stream.Dial(ctx, rawURL, stream.Events{
		OnOpen: func() {
			emit(evChannelOpened{Gen: gen})
		},
		OnMessage: func(frame *wire.InboundFrame) {
			emit(evChannelMessage{Gen: gen, Msg: r.messageFromFrame(frame), LocalID: frame.LocalID})
		},
		OnClosed: func(reason string) {
			emit(evChannelClosed{Gen: gen, Reason: reason})
		},
		OnFailed: func(err error) {
			emit(evChannelFailed{Gen: gen, Err: err})
		},
	})

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		ch.Close()
		return
	}
	r.channels[gen] = ch
	r.mu.Unlock()
}

func (r *runtime) transmit(eff effTransmit, emit func(actor.Input)) {
	r.mu.Lock()
	ch := r.channels[eff.Gen]
	r.mu.Unlock()

	if ch == nil {
		emit(evSendFailed{Gen: eff.Gen, LocalID: eff.LocalID, Err: stream.ErrNotOpen})
		return
	}
	if err := ch.Send(eff.Frame); err != nil {
		logger.Debugf("chat: transmit %s failed: %v", eff.LocalID, err)
		emit(evSendFailed{Gen: eff.Gen, LocalID: eff.LocalID, Err: err})
	}
}

func (r *runtime) fetchHistory(ctx context.Context, eff effFetchHistory, emit func(actor.Input)) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var (
		msgs []Message
		err  error
	)
	switch eff.Target.Kind {
	case KindPeer:
		msgs, err = r.fetchPeerHistory(ctx, eff.Target)
	default:
		msgs, err = r.fetchRoomHistory(ctx, eff.Target)
	}
	if err != nil {
		emit(evHistoryFailed{Gen: eff.Gen, Err: err})
		return
	}
	emit(evHistoryLoaded{Gen: eff.Gen, Messages: msgs})
}

func (r *runtime) fetchRoomHistory(ctx context.Context, target Target) ([]Message, error) {
	history, err := r.api.RoomHistory(ctx, target.Room, r.historyLimit)
	if err != nil {
		return nil, err
	}
	msgs := make([]Message, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, Message{
			ID:        m.ID,
			Sender:    m.Sender,
			SenderID:  m.SenderID,
			Text:      m.Text,
			Timestamp: wire.ParseTimestamp(m.Timestamp),
			Delivery:  DeliverySent,
			Local:     m.SenderID == r.selfID,
		})
	}
	return msgs, nil
}

func (r *runtime) fetchPeerHistory(ctx context.Context, target Target) ([]Message, error) {
	history, err := r.api.PeerHistory(ctx, target.SelfID, target.PeerID, r.historyLimit)
	if err != nil {
		return nil, err
	}
	msgs := make([]Message, 0, len(history))
	for _, m := range history {
		kind := m.MessageType
		if kind == "text" {
			kind = ""
		}
		msgs = append(msgs, Message{
			ID:        m.ID,
			SenderID:  m.SenderID,
			Text:      m.Text,
			MediaURL:  m.MediaURL,
			MediaKind: kind,
			Timestamp: wire.ParseTimestamp(m.Timestamp),
			Delivery:  DeliverySent,
			Local:     m.SenderID == r.selfID,
		})
		if m.SenderID != r.selfID && m.Status != "read" {
			// Best-effort read receipt; a failure never fails the fetch.
			if err := r.api.MarkMessageRead(ctx, m.ID); err != nil {
				logger.Debugf("chat: mark read %s: %v", m.ID, err)
			}
		}
	}
	return msgs, nil
}

// messageFromFrame converts an inbound frame into a store entry. Frames
// without a server id get a synthesized one so dedup has something to key on.
func (r *runtime) messageFromFrame(frame *wire.InboundFrame) Message {
	id := frame.ID
	if id == "" {
		id = uuid.NewString()
	}
	ts := wire.ParseTimestamp(frame.Timestamp)
	if ts.IsZero() {
		ts = r.clock.Now().UTC()
	}
	return Message{
		ID:        id,
		Sender:    frame.Sender,
		SenderID:  frame.SenderID,
		Text:      frame.Text,
		MediaURL:  frame.MediaURL,
		MediaKind: frame.MediaType,
		Timestamp: ts,
		Delivery:  DeliverySent,
		Local:     frame.SenderID == r.selfID,
	}
}

func (r *runtime) startTimer(eff effStartTimer, emit func(actor.Input)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	if prev, ok := r.timers[eff.Name]; ok {
		prev.Stop()
	}
	name := eff.Name
	r.timers[name] = time.AfterFunc(time.Duration(eff.AfterMs)*time.Millisecond, func() {
		r.mu.Lock()
		delete(r.timers, name)
		r.mu.Unlock()
		emit(evTimerFired{Name: name, NowMs: r.clock.Now().UnixMilli()})
	})
}

func (r *runtime) cancelTimer(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.timers[name]; ok {
		t.Stop()
		delete(r.timers, name)
	}
}
