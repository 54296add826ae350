package chat

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Severity classifies how dangerous a matched input pattern is.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	}
	return "unknown"
}

// riskPattern is a compiled regex with a reason label and severity.
type riskPattern struct {
	re       *regexp.Regexp
	reason   string
	severity Severity
}

// Markup/script injection signatures. High and critical severities reject
// the message outright; lower severities are stripped and the remainder
// passes through.
var defaultRiskPatterns = []riskPattern{
	{regexp.MustCompile(`(?i)<\s*script\b`), "markup:script_tag", SeverityCritical},
	{regexp.MustCompile(`(?i)javascript\s*:`), "markup:javascript_uri", SeverityCritical},
	{regexp.MustCompile(`(?i)vbscript\s*:`), "markup:vbscript_uri", SeverityCritical},
	{regexp.MustCompile(`(?i)data\s*:\s*text/html`), "markup:data_html_uri", SeverityHigh},
	{regexp.MustCompile(`(?i)<\s*(iframe|object|embed)\b`), "markup:embed_tag", SeverityHigh},
	{regexp.MustCompile(`(?i)\bon(error|load|mouseover|click)\s*=`), "markup:event_handler", SeverityHigh},
	{regexp.MustCompile(`(?i)\beval\s*\(`), "script:eval_call", SeverityHigh},
	{regexp.MustCompile(`(?i)\b(alert|confirm|prompt)\s*\(`), "script:dialog_call", SeverityMedium},
	{regexp.MustCompile(`(?i)\b(document|window)\s*\.`), "script:dom_access", SeverityMedium},
	{regexp.MustCompile(`<[^>]*>`), "markup:html_tag", SeverityLow},
}

// controlChars matches non-printable control characters stripped from all input.
var controlChars = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")

// SanitizerConfig bounds and pattern set for input validation.
type SanitizerConfig struct {
	MaxLength int
	Patterns  []riskPattern
}

// DefaultSanitizerConfig mirrors the widget's production limits.
func DefaultSanitizerConfig() SanitizerConfig {
	return SanitizerConfig{
		MaxLength: 500,
		Patterns:  defaultRiskPatterns,
	}
}

// Sanitizer validates and cleans raw chat input. It is a pure function of
// (text, config): same input, same verdict.
type Sanitizer struct {
	cfg SanitizerConfig
}

// NewSanitizer creates a sanitizer; a zero MaxLength falls back to the default.
func NewSanitizer(cfg SanitizerConfig) *Sanitizer {
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = DefaultSanitizerConfig().MaxLength
	}
	if cfg.Patterns == nil {
		cfg.Patterns = defaultRiskPatterns
	}
	return &Sanitizer{cfg: cfg}
}

// SanitizeResult reports what the sanitizer did to the input.
type SanitizeResult struct {
	CleanText string
	// Stripped lists reasons for low/medium patterns that were removed.
	Stripped []string
}

// Sanitize validates text and returns the cleaned form. It rejects with
// InvalidInputError on empty input, oversize input, and high/critical
// pattern matches. Rejection is explicit, never silent truncation.
func (s *Sanitizer) Sanitize(text string) (SanitizeResult, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return SanitizeResult{}, &InvalidInputError{Reason: "empty message"}
	}
	if utf8.RuneCountInString(trimmed) > s.cfg.MaxLength {
		return SanitizeResult{}, &InvalidInputError{
			Reason: "message exceeds maximum length",
		}
	}

	cleaned := controlChars.ReplaceAllString(trimmed, "")

	var stripped []string
	for _, p := range s.cfg.Patterns {
		if !p.re.MatchString(cleaned) {
			continue
		}
		if p.severity >= SeverityHigh {
			return SanitizeResult{}, &InvalidInputError{
				Reason: "message contains disallowed content (" + p.reason + ")",
			}
		}
		cleaned = p.re.ReplaceAllString(cleaned, "")
		stripped = append(stripped, p.reason)
	}

	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return SanitizeResult{}, &InvalidInputError{Reason: "message empty after cleaning"}
	}

	return SanitizeResult{CleanText: cleaned, Stripped: stripped}, nil
}
