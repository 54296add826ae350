package cta

import "time"

// Type is the closed set of call-to-action kinds.
type Type string

const (
	TypeContact     Type = "contact"
	TypeDemo        Type = "demo"
	TypeAppointment Type = "appointment"
	TypeQuote       Type = "quote"
	TypeWhatsApp    Type = "whatsapp"
	TypeEmail       Type = "email"
	TypePhone       Type = "phone"
)

// Priority orders CTAs when keyword relevance ties.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Bonus is the fixed monotonic score contribution per priority.
func (p Priority) Bonus() int {
	switch p {
	case PriorityUrgent:
		return 15
	case PriorityHigh:
		return 10
	case PriorityMedium:
		return 5
	case PriorityLow:
		return 2
	}
	return 0
}

// LanguageBoth marks a CTA eligible for both supported languages.
const LanguageBoth = "both"

// Conditions gate when a CTA is eligible for a message.
type Conditions struct {
	Keywords []string `json:"keywords"`
	// Language is "fr", "en", or "both".
	Language string `json:"language"`
	// StartHour/EndHour optionally restrict the CTA to a local time-of-day
	// window [StartHour, EndHour). Nil means always eligible.
	StartHour *int `json:"start_hour,omitempty"`
	EndHour   *int `json:"end_hour,omitempty"`
}

// Payload is the action data rendered with the CTA.
type Payload struct {
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	URL         string `json:"url,omitempty"`
	ServiceName string `json:"service_name,omitempty"`
}

// Definition is one catalog entry. Administered externally; this core only
// reads definitions and bumps tracking counters.
type Definition struct {
	ID          string
	Type        Type
	Priority    Priority
	ActionLabel string
	Conditions  Conditions
	Payload     Payload
	Active      bool
	Views       int64
	Clicks      int64
	Conversions int64
	CreatedAt   time.Time
}

// EventKind classifies a tracked CTA interaction.
type EventKind string

const (
	EventView       EventKind = "view"
	EventClick      EventKind = "click"
	EventConversion EventKind = "conversion"
)

// Event is one append-only CTA interaction record.
type Event struct {
	CTAID     string
	SessionID string
	Kind      EventKind
	Value     float64
	Metadata  map[string]string
	CreatedAt time.Time
}
