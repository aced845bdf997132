package contracts

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is the payload published to the broker for every chat message.
//
// RecipientQueue is carried for diagnostics only. The authoritative
// destination is the routing key the message was published under.
type Envelope struct {
	Sender         string `json:"sender"`
	Content        string `json:"content"`
	Timestamp      string `json:"timestamp"`
	RecipientQueue string `json:"recipientQueue"`
}

// NewEnvelope builds an envelope stamped with the current UTC instant.
func NewEnvelope(sender, content, recipientQueue string) *Envelope {
	return &Envelope{
		Sender:         sender,
		Content:        content,
		Timestamp:      time.Now().UTC().Format(time.RFC3339Nano),
		RecipientQueue: recipientQueue,
	}
}

// Encode serializes the envelope for publishing.
func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// SentAt parses the envelope timestamp. The zero time is returned only for
// envelopes that bypassed DecodeEnvelope.
func (e *Envelope) SentAt() time.Time {
	t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// DecodeEnvelope parses a received payload against the fixed schema.
// A missing or mistyped sender, content or timestamp fails with
// ErrMalformedEnvelope; callers never see a partially populated envelope.
// RecipientQueue is diagnostic and may be empty.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if e.Sender == "" {
		return nil, fmt.Errorf("%w: missing sender", ErrMalformedEnvelope)
	}
	if e.Content == "" {
		return nil, fmt.Errorf("%w: missing content", ErrMalformedEnvelope)
	}
	if _, err := time.Parse(time.RFC3339Nano, e.Timestamp); err != nil {
		return nil, fmt.Errorf("%w: invalid timestamp %q", ErrMalformedEnvelope, e.Timestamp)
	}
	return &e, nil
}
