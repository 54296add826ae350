package chat

import (
	"time"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Channel identifies how a message entered the system.
type Channel string

const (
	ChannelText  Channel = "text"
	ChannelVoice Channel = "voice"
)

// Source tags which resolution path produced an assistant message.
const (
	SourcePrimary      = "primary"
	SourcePrimaryRetry = "primary_retry"
	SourceFallback     = "fallback"
	SourceDefault      = "default"
	SourceError        = "error"
)

// Message is one turn in a session transcript. Immutable once created.
type Message struct {
	ID          string            `json:"id"`
	SessionID   string            `json:"session_id"`
	Sender      Sender            `json:"sender"`
	Text        string            `json:"text"`
	Timestamp   time.Time         `json:"timestamp"`
	Language    string            `json:"language,omitempty"`
	Suggestions []string          `json:"suggestions,omitempty"`
	CTAID       string            `json:"cta_id,omitempty"`
	Confidence  float64           `json:"confidence,omitempty"`
	Source      string            `json:"source,omitempty"`
	Channel     Channel           `json:"channel,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// SessionMeta is the per-session header persisted alongside the transcript.
type SessionMeta struct {
	ID                string    `json:"id"`
	Online            bool      `json:"online"`
	PreferredLanguage string    `json:"preferred_language,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	LastMessageAt     time.Time `json:"last_message_at,omitempty"`
}
