package relay

import (
	"errors"
	"testing"
)

// TestDecodeMessage verifies structural validation of inbound frames in both
// relay modes.
func TestDecodeMessage(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		directed bool
		wantErr  bool
	}{
		{
			name:    "valid broadcast message",
			payload: `{"sender":"A","content":"hi"}`,
		},
		{
			name:     "valid directed message",
			payload:  `{"sender":"alice","recipient":"bob","content":"yo"}`,
			directed: true,
		},
		{
			name:    "unparseable payload",
			payload: `not json`,
			wantErr: true,
		},
		{
			name:    "missing sender",
			payload: `{"content":"hi"}`,
			wantErr: true,
		},
		{
			name:    "missing content",
			payload: `{"sender":"A"}`,
			wantErr: true,
		},
		{
			name:     "missing recipient in directed mode",
			payload:  `{"sender":"alice","content":"yo"}`,
			directed: true,
			wantErr:  true,
		},
		{
			name:    "recipient optional in broadcast mode",
			payload: `{"sender":"A","content":"hi"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeMessage([]byte(tt.payload), tt.directed)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected decode error, got nil")
				}
				if !errors.Is(err, ErrBadMessage) {
					t.Errorf("expected ErrBadMessage, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if msg.Sender == "" || msg.Content == "" {
				t.Errorf("decoded message missing required fields: %+v", msg)
			}
		})
	}
}

// TestMessageEncodeRoundTrip verifies the normalized form decodes back to the
// same message.
func TestMessageEncodeRoundTrip(t *testing.T) {
	original := Message{Sender: "alice", Recipient: "bob", Content: "yo"}

	payload, err := original.Encode()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := DecodeMessage(payload, true)
	if err != nil {
		t.Fatalf("decode of encoded message failed: %v", err)
	}
	if decoded != original {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, original)
	}
}

// TestMessageEncodeOmitsEmptyRecipient verifies broadcast messages do not
// carry an empty recipient field on the wire.
func TestMessageEncodeOmitsEmptyRecipient(t *testing.T) {
	payload, err := Message{Sender: "A", Content: "hi"}.Encode()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if string(payload) != `{"sender":"A","content":"hi"}` {
		t.Errorf("unexpected wire form: %s", payload)
	}
}
