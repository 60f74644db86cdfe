// Package api implements the client for the Parley REST collaborator: auth,
// room and private history, contacts, media upload, and the AI assistant.
//
// Every call is a plain request/response; the streaming side lives in
// internal/stream.
package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resty.dev/v3"

	"github.com/parleyhq/parley/internal/wire"
)

// defaultTimeout is the per-request timeout used by the API client.
const defaultTimeout = 15 * time.Second

// ErrRequestFailed wraps every non-2xx response.
var ErrRequestFailed = errors.New("request failed")

// Client is the REST collaborator client.
type Client struct {
	http *resty.Client
}

// New creates a Client for the given server base URL.
func New(serverURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(serverURL).
			SetTimeout(defaultTimeout),
	}
}

// SetToken installs the bearer token used for authenticated requests.
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

// Close releases the underlying transport resources.
func (c *Client) Close() error {
	return c.http.Close()
}

// apiErr converts a resty response into an error wrapping ErrRequestFailed,
// preferring the server's detail message when one is present.
func apiErr(op string, resp *resty.Response) error {
	if detail, ok := resp.Error().(*wire.APIError); ok && detail != nil && detail.Detail != "" {
		return fmt.Errorf("%s: %w: %s", op, ErrRequestFailed, detail.Detail)
	}
	return fmt.Errorf("%s: %w: status %d", op, ErrRequestFailed, resp.StatusCode())
}

// Register creates a new account and returns the issued identity token.
func (c *Client) Register(ctx context.Context, username, email, password string) (*wire.TokenResponse, error) {
	var out wire.TokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(wire.RegisterRequest{Username: username, Email: email, Password: password}).
		SetResult(&out).
		SetError(&wire.APIError{}).
		Post("/auth/register")
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if resp.IsError() {
		return nil, apiErr("register", resp)
	}
	return &out, nil
}

// Login authenticates an existing account and returns the issued identity token.
func (c *Client) Login(ctx context.Context, email, password string) (*wire.TokenResponse, error) {
	var out wire.TokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(wire.LoginRequest{Email: email, Password: password}).
		SetResult(&out).
		SetError(&wire.APIError{}).
		Post("/auth/login")
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if resp.IsError() {
		return nil, apiErr("login", resp)
	}
	return &out, nil
}

// Rooms lists the available shared rooms.
func (c *Client) Rooms(ctx context.Context) ([]wire.Room, error) {
	var out []wire.Room
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&wire.APIError{}).
		Get("/chat/rooms")
	if err != nil {
		return nil, fmt.Errorf("rooms: %w", err)
	}
	if resp.IsError() {
		return nil, apiErr("rooms", resp)
	}
	return out, nil
}

// RoomHistory fetches the bounded history snapshot for a room, ordered oldest
// to newest.
func (c *Client) RoomHistory(ctx context.Context, roomID string, limit int) ([]wire.RoomMessage, error) {
	var out []wire.RoomMessage
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetResult(&out).
		SetError(&wire.APIError{}).
		Get("/chat/messages/" + roomID)
	if err != nil {
		return nil, fmt.Errorf("room history: %w", err)
	}
	if resp.IsError() {
		return nil, apiErr("room history", resp)
	}
	return out, nil
}

// PeerHistory fetches the bounded history snapshot for a peer pair, ordered
// oldest to newest.
func (c *Client) PeerHistory(ctx context.Context, userID, contactID string, limit int) ([]wire.PrivateMessage, error) {
	var out []wire.PrivateMessage
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetResult(&out).
		SetError(&wire.APIError{}).
		Get(fmt.Sprintf("/private/messages/%s/%s", userID, contactID))
	if err != nil {
		return nil, fmt.Errorf("peer history: %w", err)
	}
	if resp.IsError() {
		return nil, apiErr("peer history", resp)
	}
	return out, nil
}

// MarkMessageRead records a read receipt for one private message.
func (c *Client) MarkMessageRead(ctx context.Context, messageID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("status", "read").
		SetError(&wire.APIError{}).
		Put(fmt.Sprintf("/private/messages/%s/status", messageID))
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if resp.IsError() {
		return apiErr("mark read", resp)
	}
	return nil
}

// Conversations lists the caller's private conversations with unread counts.
func (c *Client) Conversations(ctx context.Context, userID string) ([]wire.Conversation, error) {
	var out []wire.Conversation
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&wire.APIError{}).
		Get("/private/conversations/" + userID)
	if err != nil {
		return nil, fmt.Errorf("conversations: %w", err)
	}
	if resp.IsError() {
		return nil, apiErr("conversations", resp)
	}
	return out, nil
}

// SearchUsers searches accounts by username or email.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]wire.UserSummary, error) {
	var out []wire.UserSummary
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("query", query).
		SetResult(&out).
		SetError(&wire.APIError{}).
		Get("/contacts/search")
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	if resp.IsError() {
		return nil, apiErr("search users", resp)
	}
	return out, nil
}

// AddContact adds a user to the caller's contact list.
func (c *Client) AddContact(ctx context.Context, userID, contactUserID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(wire.AddContactRequest{UserID: userID, ContactUserID: contactUserID}).
		SetError(&wire.APIError{}).
		Post("/contacts/add")
	if err != nil {
		return fmt.Errorf("add contact: %w", err)
	}
	if resp.IsError() {
		return apiErr("add contact", resp)
	}
	return nil
}

// Contacts lists the caller's contacts.
func (c *Client) Contacts(ctx context.Context, userID string) ([]wire.Contact, error) {
	var out []wire.Contact
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&wire.APIError{}).
		Get("/contacts/list/" + userID)
	if err != nil {
		return nil, fmt.Errorf("contacts: %w", err)
	}
	if resp.IsError() {
		return nil, apiErr("contacts", resp)
	}
	return out, nil
}

// RemoveContact deletes a contact record.
func (c *Client) RemoveContact(ctx context.Context, contactID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetError(&wire.APIError{}).
		Delete("/contacts/" + contactID)
	if err != nil {
		return fmt.Errorf("remove contact: %w", err)
	}
	if resp.IsError() {
		return apiErr("remove contact", resp)
	}
	return nil
}

// UploadMedia uploads a local file and returns its serving URL and detected
// media kind.
func (c *Client) UploadMedia(ctx context.Context, userID, path string) (*wire.MediaUploadResponse, error) {
	var out wire.MediaUploadResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFile("file", path).
		SetFormData(map[string]string{"user_id": userID}).
		SetResult(&out).
		SetError(&wire.APIError{}).
		Post("/media/upload")
	if err != nil {
		return nil, fmt.Errorf("upload media: %w", err)
	}
	if resp.IsError() {
		return nil, apiErr("upload media", resp)
	}
	return &out, nil
}

// AIChat sends a message to the AI assistant and returns its reply. The
// endpoint is request/response; no streaming is involved.
func (c *Client) AIChat(ctx context.Context, userID, message, conversationID string) (*wire.AIChatResponse, error) {
	var out wire.AIChatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(wire.AIChatRequest{UserID: userID, Message: message, ConversationID: conversationID}).
		SetResult(&out).
		SetError(&wire.APIError{}).
		Post("/ai/chat")
	if err != nil {
		return nil, fmt.Errorf("ai chat: %w", err)
	}
	if resp.IsError() {
		return nil, apiErr("ai chat", resp)
	}
	return &out, nil
}

// AIConversations lists the caller's AI conversations.
func (c *Client) AIConversations(ctx context.Context, userID string) ([]wire.AIConversation, error) {
	var out []wire.AIConversation
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&wire.APIError{}).
		Get("/ai/conversations/" + userID)
	if err != nil {
		return nil, fmt.Errorf("ai conversations: %w", err)
	}
	if resp.IsError() {
		return nil, apiErr("ai conversations", resp)
	}
	return out, nil
}

// AIConversationMessages fetches the messages of one AI conversation.
func (c *Client) AIConversationMessages(ctx context.Context, conversationID string) ([]wire.AIMessage, error) {
	var out []wire.AIMessage
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&wire.APIError{}).
		Get(fmt.Sprintf("/ai/conversation/%s/messages", conversationID))
	if err != nil {
		return nil, fmt.Errorf("ai conversation messages: %w", err)
	}
	if resp.IsError() {
		return nil, apiErr("ai conversation messages", resp)
	}
	return out, nil
}

// DeleteAIConversation deletes one AI conversation and its messages.
func (c *Client) DeleteAIConversation(ctx context.Context, conversationID, userID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("user_id", userID).
		SetError(&wire.APIError{}).
		Delete("/ai/conversation/" + conversationID)
	if err != nil {
		return fmt.Errorf("delete ai conversation: %w", err)
	}
	if resp.IsError() {
		return apiErr("delete ai conversation", resp)
	}
	return nil
}
