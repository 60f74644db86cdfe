package wire

// RegisterRequest is the HTTP POST /auth/register request body.
type RegisterRequest struct {
	// Username is the desired display name; must be unique server-side.
	Username string `json:"username"`
	// Email is the account email; must be unique server-side.
	Email string `json:"email"`
	// Password is the plaintext password (hashed server-side).
	Password string `json:"password"`
}

// LoginRequest is the HTTP POST /auth/login request body.
type LoginRequest struct {
	// Email is the account email.
	Email string `json:"email"`
	// Password is the plaintext password.
	Password string `json:"password"`
}

// TokenResponse is returned by both /auth/register and /auth/login.
type TokenResponse struct {
	// AccessToken is the opaque identity token sent as a bearer credential.
	AccessToken string `json:"access_token"`
	// TokenType is always "bearer".
	TokenType string `json:"token_type"`
	// Username is the account display name.
	Username string `json:"username"`
	// UserID is the server-assigned user id.
	UserID string `json:"user_id"`
}

// Room is one entry of the HTTP GET /chat/rooms response.
type Room struct {
	// ID is the room identifier used in history and stream URLs.
	ID string `json:"id"`
	// Name is the human-readable room name.
	Name string `json:"name"`
	// Description is a short room description.
	Description string `json:"description"`
}

// RoomMessage is one entry of the HTTP GET /chat/messages/{room} response,
// ordered oldest to newest.
type RoomMessage struct {
	// ID is the server-assigned message id.
	ID string `json:"id"`
	// Room is the room the message belongs to.
	Room string `json:"room"`
	// Sender is the sender display name.
	Sender string `json:"sender"`
	// SenderID is the sender user id.
	SenderID string `json:"sender_id"`
	// Text is the message body.
	Text string `json:"text"`
	// Timestamp is the server creation time (ISO 8601).
	Timestamp string `json:"timestamp"`
}

// PrivateMessage is one entry of the HTTP GET
// /private/messages/{user}/{contact} response, ordered oldest to newest.
type PrivateMessage struct {
	// ID is the server-assigned message id.
	ID string `json:"id"`
	// SenderID is the sender user id.
	SenderID string `json:"sender_id"`
	// ReceiverID is the receiver user id.
	ReceiverID string `json:"receiver_id"`
	// Text is the message body.
	Text string `json:"text"`
	// MessageType is "text" or a media kind ("image", "video", "audio", "file").
	MessageType string `json:"message_type"`
	// MediaURL points at the uploaded media, when MessageType is not "text".
	MediaURL string `json:"media_url,omitempty"`
	// Timestamp is the server creation time (ISO 8601).
	Timestamp string `json:"timestamp"`
	// Status is the delivery status recorded server-side ("sent", "read").
	Status string `json:"status"`
}

// Conversation is one entry of the HTTP GET /private/conversations/{user}
// response.
type Conversation struct {
	// ContactID is the other participant's user id.
	ContactID string `json:"contact_id"`
	// ContactUsername is the other participant's display name.
	ContactUsername string `json:"contact_username"`
	// LastMessage is the most recent message text.
	LastMessage string `json:"last_message"`
	// LastMessageTime is the most recent message timestamp (ISO 8601).
	LastMessageTime string `json:"last_message_time"`
	// UnreadCount is the number of unread inbound messages.
	UnreadCount int `json:"unread_count"`
}

// Contact is one entry of the HTTP GET /contacts/list/{user} response.
type Contact struct {
	// ID is the contact record id (used for deletion).
	ID string `json:"id"`
	// ContactUserID is the contact's user id.
	ContactUserID string `json:"contact_user_id"`
	// ContactUsername is the contact's display name.
	ContactUsername string `json:"contact_username"`
	// ContactEmail is the contact's email.
	ContactEmail string `json:"contact_email"`
	// AddedAt is when the contact was added (ISO 8601).
	AddedAt string `json:"added_at"`
	// IsOnline is the last known presence flag.
	IsOnline bool `json:"is_online"`
}

// UserSummary is one entry of the HTTP GET /contacts/search response.
type UserSummary struct {
	// ID is the user id.
	ID string `json:"id"`
	// Username is the display name.
	Username string `json:"username"`
	// Email is the account email.
	Email string `json:"email"`
}

// AddContactRequest is the HTTP POST /contacts/add request body.
type AddContactRequest struct {
	// UserID is the requesting user's id.
	UserID string `json:"user_id"`
	// ContactUserID is the user id to add as a contact.
	ContactUserID string `json:"contact_user_id"`
}

// MediaUploadResponse is the HTTP POST /media/upload response body.
type MediaUploadResponse struct {
	// MediaID is the server-assigned media record id.
	MediaID string `json:"media_id"`
	// URL is the fetch URL for the uploaded file.
	URL string `json:"url"`
	// Filename is the server-side (sanitized) filename.
	Filename string `json:"filename"`
	// FileType is the detected media kind ("image", "video", "audio", "file").
	FileType string `json:"file_type"`
	// Size is the stored file size in bytes.
	Size int64 `json:"size"`
}

// AIChatRequest is the HTTP POST /ai/chat request body.
type AIChatRequest struct {
	// UserID is the requesting user's id.
	UserID string `json:"user_id"`
	// Message is the user's message to the assistant.
	Message string `json:"message"`
	// ConversationID continues an existing conversation when set.
	ConversationID string `json:"conversation_id,omitempty"`
}

// AIChatResponse is the HTTP POST /ai/chat response body.
type AIChatResponse struct {
	// Response is the assistant's reply text.
	Response string `json:"response"`
	// ConversationID identifies the (possibly newly created) conversation.
	ConversationID string `json:"conversation_id"`
	// Timestamp is the reply creation time (ISO 8601).
	Timestamp string `json:"timestamp"`
}

// AIConversation is one entry of the HTTP GET /ai/conversations/{user}
// response.
type AIConversation struct {
	// ID is the conversation id.
	ID string `json:"id"`
	// Title is the conversation title derived from the first message.
	Title string `json:"title"`
	// CreatedAt is the conversation creation time (ISO 8601).
	CreatedAt string `json:"created_at"`
	// UpdatedAt is the last activity time (ISO 8601).
	UpdatedAt string `json:"updated_at"`
}

// AIMessage is one entry of the HTTP GET /ai/conversation/{id}/messages
// response.
type AIMessage struct {
	// Role is "user" or "assistant".
	Role string `json:"role"`
	// Content is the message text.
	Content string `json:"content"`
	// Timestamp is the message creation time (ISO 8601).
	Timestamp string `json:"timestamp"`
}

// APIError is the error body returned by the server on non-2xx responses.
type APIError struct {
	// Detail is the human-readable error description.
	Detail string `json:"detail"`
}
