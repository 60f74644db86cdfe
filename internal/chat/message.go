package chat

import "time"

// Delivery is the delivery state of a locally-originated message. Remote
// messages are always DeliverySent.
type Delivery string

const (
	// DeliveryPending marks an optimistic entry awaiting its server echo.
	DeliveryPending Delivery = "pending"
	// DeliverySent marks a delivered (server-confirmed) message.
	DeliverySent Delivery = "sent"
	// DeliveryFailed marks a message whose transmission failed or whose echo
	// never arrived. Failed entries stay visible; they are never dropped.
	DeliveryFailed Delivery = "failed"
)

// Message is one entry of a conversation.
type Message struct {
	// ID is the server-assigned id when known, otherwise the client-assigned
	// provisional id. Unique within one target's store.
	ID string
	// Sender is the sender display name.
	Sender string
	// SenderID is the sender user id.
	SenderID string
	// Text is the message body.
	Text string
	// MediaURL and MediaKind describe an attached upload, when present.
	MediaURL  string
	MediaKind string
	// Timestamp is the server creation time, or the local insertion time for
	// optimistic entries not yet reconciled.
	Timestamp time.Time
	// Delivery is the delivery state; meaningful for local messages.
	Delivery Delivery
	// Local marks locally-originated messages.
	Local bool
}

// Status is the connection status surfaced to the rendering layer, derived
// from the current generation's channel lifecycle.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)
