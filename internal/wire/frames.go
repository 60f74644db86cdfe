package wire

import (
	"encoding/json"
	"fmt"
	"time"
)

// InboundFrame is one JSON frame received on a stream channel.
//
// Room broadcasts carry sender, sender_id, text, and timestamp. Peer channels
// additionally carry receiver_id. The server echoes local_id back to the
// original sender when the outbound frame supplied one; that echo is the only
// delivery confirmation in the protocol.
type InboundFrame struct {
	// ID is the server-assigned message id, when the server persisted the
	// message before broadcasting.
	ID string `json:"id,omitempty"`
	// Sender is the sender display name.
	Sender string `json:"sender"`
	// SenderID is the sender user id.
	SenderID string `json:"sender_id"`
	// ReceiverID is the receiver user id (peer channels only).
	ReceiverID string `json:"receiver_id,omitempty"`
	// Text is the message body.
	Text string `json:"text"`
	// Timestamp is the server creation time (ISO 8601).
	Timestamp string `json:"timestamp"`
	// LocalID is the sender-supplied idempotency key, echoed back verbatim.
	LocalID string `json:"local_id,omitempty"`
	// MediaURL points at uploaded media attached to the message.
	MediaURL string `json:"media_url,omitempty"`
	// MediaType is the media kind ("image", "video", "audio", "file").
	MediaType string `json:"media_type,omitempty"`
}

// OutboundFrame is one JSON frame sent on a stream channel.
type OutboundFrame struct {
	// Sender is the sender display name.
	Sender string `json:"sender"`
	// SenderID is the sender user id.
	SenderID string `json:"sender_id"`
	// ReceiverID is the receiver user id (peer channels only).
	ReceiverID string `json:"receiver_id,omitempty"`
	// Text is the message body.
	Text string `json:"text"`
	// LocalID is a client-generated idempotency key the server echoes back.
	LocalID string `json:"local_id,omitempty"`
	// MediaURL points at uploaded media attached to the message.
	MediaURL string `json:"media_url,omitempty"`
	// MediaType is the media kind ("image", "video", "audio", "file").
	MediaType string `json:"media_type,omitempty"`
}

// ParseInboundFrame parses a raw stream payload into a typed frame.
func ParseInboundFrame(data []byte) (*InboundFrame, error) {
	var frame InboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("malformed stream frame: %w", err)
	}
	return &frame, nil
}

// timestampLayouts are the wire timestamp formats the server is known to emit.
// FastAPI-style servers serialize naive UTC datetimes without a zone suffix.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses a wire timestamp into UTC time. Unparseable or empty
// values return the zero time; callers treat that as "no server timestamp".
func ParseTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}
