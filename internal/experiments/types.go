package experiments

import "time"

// Definition is the static configuration of one experiment, loaded once per
// process lifetime.
type Definition struct {
	Name     string
	Variants []string
	// Weights parallels Variants; nil means equal weights.
	Weights     []int
	Enabled     bool
	StartDate   *time.Time
	EndDate     *time.Time
	Description string
}

// Assignment is a sticky session-to-variant binding. Once persisted it
// never changes for the lifetime of the session.
type Assignment struct {
	SessionID  string
	Experiment string
	Variant    string
	AssignedAt time.Time
}

// EventKind classifies experiment event-log entries.
type EventKind string

const (
	EventAssignment EventKind = "assignment"
	EventConversion EventKind = "conversion"
)

// Event is one append-only experiment record. Assignments are audit
// records, not conversions.
type Event struct {
	SessionID  string
	Experiment string
	Variant    string
	Kind       EventKind
	Value      float64
	Metadata   map[string]string
	CreatedAt  time.Time
}

// Defaults returns the experiments the marketing site runs out of the box.
func Defaults() []Definition {
	return []Definition{
		{
			Name:        "hero_cta_button",
			Variants:    []string{"A", "B"},
			Weights:     []int{50, 50},
			Enabled:     true,
			Description: "Testing different CTA button colors and text for hero section",
		},
		{
			Name:        "pricing_section",
			Variants:    []string{"A", "B"},
			Weights:     []int{50, 50},
			Enabled:     true,
			Description: "Testing different pricing layouts and value propositions",
		},
		{
			Name:        "contact_form",
			Variants:    []string{"A", "B"},
			Weights:     []int{50, 50},
			Enabled:     true,
			Description: "Testing simplified vs detailed contact form",
		},
		{
			Name:        "testimonial_section",
			Variants:    []string{"A", "B", "C"},
			Weights:     []int{34, 33, 33},
			Enabled:     true,
			Description: "Testing different testimonial layouts and content",
		},
		{
			Name:        "blog_section",
			Variants:    []string{"A", "B"},
			Weights:     []int{50, 50},
			Enabled:     true,
			Description: "Testing different blog preview layouts and content",
		},
	}
}
