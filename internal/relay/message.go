// Package relay implements the message relay core: the connection registry,
// the chat message codec, and the broadcast and directed delivery strategies.
package relay

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrBadMessage marks an inbound payload that failed structural validation.
// The offending message is dropped; the connection stays open.
var ErrBadMessage = errors.New("bad message")

// Message is a single relayed chat message. Recipient is set only in directed
// mode. A Message is immutable once decoded; recipients receive serialized
// copies, never shared state.
type Message struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient,omitempty"`
	Content   string `json:"content"`
}

// DecodeMessage parses an inbound text frame. Sender and content are always
// required; recipient is additionally required when directed is true.
func DecodeMessage(data []byte, directed bool) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}

	if msg.Sender == "" {
		return Message{}, fmt.Errorf("%w: missing sender", ErrBadMessage)
	}
	if msg.Content == "" {
		return Message{}, fmt.Errorf("%w: missing content", ErrBadMessage)
	}
	if directed && msg.Recipient == "" {
		return Message{}, fmt.Errorf("%w: missing recipient", ErrBadMessage)
	}

	return msg, nil
}

// Encode serializes the message into the normalized form that is appended to
// history and delivered to recipients.
func (m Message) Encode() ([]byte, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return payload, nil
}
