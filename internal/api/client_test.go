package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley/internal/wire"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := New(srv.URL)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestLogin(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)

		var req wire.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "alice@example.com", req.Email)
		require.Equal(t, "hunter2", req.Password)

		writeJSON(t, w, http.StatusOK, wire.TokenResponse{
			AccessToken: "tok",
			TokenType:   "bearer",
			Username:    "alice",
			UserID:      "u1",
		})
	})

	tok, err := client.Login(context.Background(), "alice@example.com", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "tok", tok.AccessToken)
	require.Equal(t, "u1", tok.UserID)
}

func TestLoginRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, wire.APIError{Detail: "invalid credentials"})
	})

	_, err := client.Login(context.Background(), "alice@example.com", "wrong")
	require.ErrorIs(t, err, ErrRequestFailed)
	require.Contains(t, err.Error(), "invalid credentials")
}

func TestRoomHistory(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/messages/general", r.URL.Path)
		require.Equal(t, "50", r.URL.Query().Get("limit"))
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		writeJSON(t, w, http.StatusOK, []wire.RoomMessage{
			{ID: "m1", Room: "general", Sender: "bob", SenderID: "u2", Text: "first", Timestamp: "2026-08-01T12:00:00"},
			{ID: "m2", Room: "general", Sender: "bob", SenderID: "u2", Text: "second", Timestamp: "2026-08-01T12:00:01"},
		})
	})
	client.SetToken("tok")

	msgs, err := client.RoomHistory(context.Background(), "general", 50)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "first", msgs[0].Text)
}

func TestPeerHistoryAndMarkRead(t *testing.T) {
	var markedRead string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/private/messages/u1/u2":
			writeJSON(t, w, http.StatusOK, []wire.PrivateMessage{
				{ID: "p1", SenderID: "u2", ReceiverID: "u1", Text: "psst", MessageType: "text", Status: "sent"},
			})
		case r.Method == http.MethodPut && r.URL.Path == "/private/messages/p1/status":
			markedRead = r.URL.Query().Get("status")
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	})

	msgs, err := client.PeerHistory(context.Background(), "u1", "u2", 50)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	require.NoError(t, client.MarkMessageRead(context.Background(), "p1"))
	require.Equal(t, "read", markedRead)
}

func TestContactsFlow(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/contacts/search":
			require.Equal(t, "bob", r.URL.Query().Get("query"))
			writeJSON(t, w, http.StatusOK, []wire.UserSummary{{ID: "u2", Username: "bob", Email: "bob@example.com"}})
		case r.Method == http.MethodPost && r.URL.Path == "/contacts/add":
			var req wire.AddContactRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "u1", req.UserID)
			require.Equal(t, "u2", req.ContactUserID)
			w.WriteHeader(http.StatusCreated)
		case r.URL.Path == "/contacts/list/u1":
			writeJSON(t, w, http.StatusOK, []wire.Contact{{ID: "c1", ContactUserID: "u2", ContactUsername: "bob"}})
		case r.Method == http.MethodDelete && r.URL.Path == "/contacts/c1":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	})

	users, err := client.SearchUsers(context.Background(), "bob")
	require.NoError(t, err)
	require.Len(t, users, 1)

	require.NoError(t, client.AddContact(context.Background(), "u1", "u2"))

	contacts, err := client.Contacts(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, contacts, 1)

	require.NoError(t, client.RemoveContact(context.Background(), "c1"))
}

func TestUploadMedia(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.png")
	require.NoError(t, os.WriteFile(path, []byte("not really a png"), 0600))

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/media/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "u1", r.FormValue("user_id"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "photo.png", header.Filename)

		writeJSON(t, w, http.StatusOK, wire.MediaUploadResponse{
			MediaID:  "media-1",
			URL:      "/media/file/media-1",
			Filename: "photo.png",
			FileType: "image",
			Size:     16,
		})
	})

	out, err := client.UploadMedia(context.Background(), "u1", path)
	require.NoError(t, err)
	require.Equal(t, "image", out.FileType)
	require.Equal(t, "/media/file/media-1", out.URL)
}

func TestAIChat(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ai/chat":
			var req wire.AIChatRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "hello", req.Message)
			writeJSON(t, w, http.StatusOK, wire.AIChatResponse{Response: "hi there", ConversationID: "conv-1"})
		case "/ai/conversations/u1":
			writeJSON(t, w, http.StatusOK, []wire.AIConversation{{ID: "conv-1", Title: "hello"}})
		case "/ai/conversation/conv-1/messages":
			writeJSON(t, w, http.StatusOK, []wire.AIMessage{
				{Role: "user", Content: "hello"},
				{Role: "assistant", Content: "hi there"},
			})
		default:
			require.Equal(t, http.MethodDelete, r.Method)
			require.Equal(t, "/ai/conversation/conv-1", r.URL.Path)
			require.Equal(t, "u1", r.URL.Query().Get("user_id"))
			w.WriteHeader(http.StatusOK)
		}
	})

	reply, err := client.AIChat(context.Background(), "u1", "hello", "")
	require.NoError(t, err)
	require.Equal(t, "conv-1", reply.ConversationID)

	convs, err := client.AIConversations(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, convs, 1)

	msgs, err := client.AIConversationMessages(context.Background(), "conv-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	require.NoError(t, client.DeleteAIConversation(context.Background(), "conv-1", "u1"))
}
