package wire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseInboundFrame(t *testing.T) {
	raw := `{
		"id": "m1",
		"sender": "bob",
		"sender_id": "u2",
		"text": "hello",
		"timestamp": "2026-08-01T12:00:00.123456",
		"local_id": "local-1",
		"media_url": "/media/file/media-1",
		"media_type": "image"
	}`
	frame, err := ParseInboundFrame([]byte(raw))
	require.NoError(t, err)
	require.Equal(t, "m1", frame.ID)
	require.Equal(t, "u2", frame.SenderID)
	require.Equal(t, "local-1", frame.LocalID)
	require.Equal(t, "image", frame.MediaType)

	_, err = ParseInboundFrame([]byte("{broken"))
	require.Error(t, err)
}

func TestParseInboundFrameMinimal(t *testing.T) {
	// Room broadcasts carry only the base fields.
	frame, err := ParseInboundFrame([]byte(`{"sender":"bob","sender_id":"u2","text":"hi","timestamp":"2026-08-01T12:00:00"}`))
	require.NoError(t, err)
	require.Empty(t, frame.ID)
	require.Empty(t, frame.LocalID)
	require.Equal(t, "hi", frame.Text)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2026-08-01T12:00:00Z", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)},
		{"2026-08-01T12:00:00+02:00", time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)},
		{"2026-08-01T12:00:00.123456", time.Date(2026, 8, 1, 12, 0, 0, 123456000, time.UTC)},
		{"2026-08-01T12:00:00", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		got := ParseTimestamp(tc.raw)
		require.True(t, got.Equal(tc.want), "raw %q: got %v, want %v", tc.raw, got, tc.want)
	}

	require.True(t, ParseTimestamp("").IsZero())
	require.True(t, ParseTimestamp("yesterday").IsZero())
}
