package chat

import (
	"fmt"
	"strings"
)

// Kind discriminates the two conversation target flavors.
type Kind string

const (
	// KindRoom is a shared room.
	KindRoom Kind = "room"
	// KindPeer is a private two-party conversation.
	KindPeer Kind = "peer"
)

// Target identifies what is being synchronized: a shared room or a peer pair.
//
// Targets are immutable values; switching conversations creates a new Target,
// it never mutates one in place.
type Target struct {
	Kind Kind

	// Room is the room id when Kind is KindRoom.
	Room string

	// SelfID and PeerID are the two participants when Kind is KindPeer.
	// The order is preserved for display; lookups use the canonical ChannelID.
	SelfID string
	PeerID string
}

// RoomTarget returns a Target for a shared room.
func RoomTarget(roomID string) Target {
	return Target{Kind: KindRoom, Room: strings.TrimSpace(roomID)}
}

// PeerTarget returns a Target for a private conversation between selfID and
// peerID.
func PeerTarget(selfID, peerID string) Target {
	return Target{Kind: KindPeer, SelfID: strings.TrimSpace(selfID), PeerID: strings.TrimSpace(peerID)}
}

// IsZero reports whether the target is the zero value (no selection yet).
func (t Target) IsZero() bool {
	return t.Kind == ""
}

// Validate checks that the target is well formed.
func (t Target) Validate() error {
	switch t.Kind {
	case KindRoom:
		if t.Room == "" {
			return fmt.Errorf("%w: empty room id", ErrInvalidTarget)
		}
		return nil
	case KindPeer:
		if t.SelfID == "" || t.PeerID == "" {
			return fmt.Errorf("%w: missing peer ids", ErrInvalidTarget)
		}
		if t.SelfID == t.PeerID {
			return fmt.Errorf("%w: peer ids are identical", ErrInvalidTarget)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidTarget, string(t.Kind))
	}
}

// ChannelID returns the stream channel id for the target. Peer pairs map to
// "dm:<loID>:<hiID>" so that both participants derive the same channel
// regardless of who initiated the conversation.
func (t Target) ChannelID() string {
	switch t.Kind {
	case KindRoom:
		return t.Room
	case KindPeer:
		lo, hi := t.SelfID, t.PeerID
		if hi < lo {
			lo, hi = hi, lo
		}
		return "dm:" + lo + ":" + hi
	default:
		return ""
	}
}

// Key returns the canonical identity of the target, suitable for equality
// checks across differently-ordered peer pairs.
func (t Target) Key() string {
	return string(t.Kind) + ":" + t.ChannelID()
}

// String renders the target for logs and prompts.
func (t Target) String() string {
	switch t.Kind {
	case KindRoom:
		return "#" + t.Room
	case KindPeer:
		return "@" + t.PeerID
	default:
		return "(none)"
	}
}
