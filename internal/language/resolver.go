// Package language resolves inbound chat text to one of the two supported
// languages. A network-based primary detector is tried first with a single
// bounded retry; a deterministic keyword scorer covers every failure. The
// cascade never returns anything outside {fr, en}: ties, very short input,
// and out-of-set detections all coerce to French, the majority market.
package language

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/omadigital/engage-core/pkg/logging"
)

const (
	French  = "fr"
	English = "en"
)

// Resolution paths, carried onto messages as source tags.
const (
	SourcePrimary      = "primary"
	SourcePrimaryRetry = "primary_retry"
	SourceFallback     = "fallback"
	SourceDefault      = "default"
)

// DetectFunc is the primary network detector. It may fail or time out;
// the resolver absorbs both.
type DetectFunc func(ctx context.Context, text string) (language string, confidence float64, err error)

// Result is the cascade's verdict.
type Result struct {
	Language   string
	Confidence float64
	Source     string
}

// Resolver runs the detection cascade.
type Resolver struct {
	detect  DetectFunc
	timeout time.Duration
	backoff time.Duration
	logger  *logging.Logger
}

// NewResolver creates a resolver. detect may be nil, in which case only the
// keyword fallback runs.
func NewResolver(detect DetectFunc, timeout, backoff time.Duration, logger *logging.Logger) *Resolver {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{detect: detect, timeout: timeout, backoff: backoff, logger: logger}
}

var (
	urlPattern   = regexp.MustCompile(`https?://\S+`)
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[0-9][\d\s\-()]{7,}`)
	spacesRun    = regexp.MustCompile(`\s+`)
)

// Preclean strips URLs, email addresses, and phone-number-like runs: all
// language-neutral noise that biases naive detectors.
func Preclean(text string) string {
	cleaned := urlPattern.ReplaceAllString(text, "")
	cleaned = emailPattern.ReplaceAllString(cleaned, "")
	cleaned = phonePattern.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(spacesRun.ReplaceAllString(cleaned, " "))
}

// Resolve runs the cascade on text. It always succeeds: every failure path
// lands on the deterministic fallback, and the fallback's tie rule lands on
// French.
func (r *Resolver) Resolve(ctx context.Context, text string) Result {
	cleaned := Preclean(text)
	if len([]rune(cleaned)) < 2 {
		return Result{Language: French, Confidence: 0.5, Source: SourceDefault}
	}

	if r.detect != nil {
		if res, ok := r.tryPrimary(ctx, cleaned); ok {
			return res
		}
	}

	return r.fallback(cleaned)
}

// tryPrimary calls the network detector with a timeout, retrying exactly
// once after a backoff. Detected languages outside {fr, en} coerce to fr.
func (r *Resolver) tryPrimary(ctx context.Context, text string) (Result, bool) {
	attempt := func(source string) (Result, bool) {
		detectCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		lang, confidence, err := r.detect(detectCtx, text)
		if err != nil {
			r.logger.Warn("primary language detection failed", "source", source, "error", err)
			return Result{}, false
		}
		return Result{Language: coerce(lang), Confidence: confidence, Source: source}, true
	}

	if res, ok := attempt(SourcePrimary); ok {
		return res, true
	}

	select {
	case <-ctx.Done():
		return Result{}, false
	case <-time.After(r.backoff):
	}

	return attempt(SourcePrimaryRetry)
}

// fallback is the deterministic keyword scorer. Equal or zero scores
// default to French.
func (r *Resolver) fallback(text string) Result {
	french, english := keywordScores(text)

	total := french + english
	confidence := 0.6 + 0.1*float64(total)
	if confidence > 0.95 {
		confidence = 0.95
	}

	switch {
	case french > english:
		return Result{Language: French, Confidence: confidence, Source: SourceFallback}
	case english > french:
		return Result{Language: English, Confidence: confidence, Source: SourceFallback}
	default:
		return Result{Language: French, Confidence: 0.6, Source: SourceDefault}
	}
}

// coerce maps any detector output onto the closed two-value set.
func coerce(lang string) string {
	normalized := strings.ToLower(strings.TrimSpace(lang))
	if normalized == English || strings.HasPrefix(normalized, "en") {
		return English
	}
	return French
}
