package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/omadigital/engage-core/pkg/logging"
)

// SessionEvent is a structured event in the message pipeline. All events
// share the same base fields for easy filtering/grep.
type SessionEvent struct {
	Time      string         `json:"time"`
	Event     string         `json:"event"`
	SessionID string         `json:"session_id"`
	Data      map[string]any `json:"data,omitempty"`
}

// EventLogger emits structured JSON events at each decision point in the
// pipeline. Designed for fast grep/filter debugging:
//
//	grep '"event":"language_resolved"' /var/log/app.log
//	grep '"session_id":"sess_abc"' /var/log/app.log
type EventLogger struct {
	logger *logging.Logger
}

// NewEventLogger creates a new session event logger.
func NewEventLogger(logger *logging.Logger) *EventLogger {
	return &EventLogger{logger: logger}
}

// Log emits a structured session event.
func (e *EventLogger) Log(_ context.Context, event, sessionID string, data map[string]any) {
	if e == nil || e.logger == nil {
		return
	}
	evt := SessionEvent{
		Time:      time.Now().UTC().Format(time.RFC3339Nano),
		Event:     event,
		SessionID: sessionID,
		Data:      data,
	}
	b, _ := json.Marshal(evt)
	e.logger.Info(string(b))
}

// Convenience methods for common events:

func (e *EventLogger) MessageReceived(ctx context.Context, sessionID string, channel Channel, message string) {
	msg := message
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	e.Log(ctx, "message_received", sessionID, map[string]any{
		"channel": string(channel),
		"message": msg,
	})
}

func (e *EventLogger) InputRejected(ctx context.Context, sessionID, reason string) {
	e.Log(ctx, "input_rejected", sessionID, map[string]any{
		"reason": reason,
	})
}

func (e *EventLogger) RateLimited(ctx context.Context, sessionID string, retryAfter time.Duration) {
	e.Log(ctx, "rate_limited", sessionID, map[string]any{
		"retry_after_ms": retryAfter.Milliseconds(),
	})
}

func (e *EventLogger) LanguageResolved(ctx context.Context, sessionID, language, source string, confidence float64) {
	e.Log(ctx, "language_resolved", sessionID, map[string]any{
		"language":   language,
		"source":     source,
		"confidence": confidence,
	})
}

func (e *EventLogger) CTASelected(ctx context.Context, sessionID, ctaID string, score int) {
	e.Log(ctx, "cta_selected", sessionID, map[string]any{
		"cta_id": ctaID,
		"score":  score,
	})
}

func (e *EventLogger) ReplyGenerated(ctx context.Context, sessionID string, durationMs int64, length int) {
	e.Log(ctx, "reply_generated", sessionID, map[string]any{
		"duration_ms": durationMs,
		"length":      length,
	})
}

func (e *EventLogger) InferenceFailed(ctx context.Context, sessionID, step string, err error) {
	e.Log(ctx, "inference_failed", sessionID, map[string]any{
		"step":  step,
		"error": err.Error(),
	})
}

func (e *EventLogger) VariantAssigned(ctx context.Context, sessionID, experiment, variant string) {
	e.Log(ctx, "variant_assigned", sessionID, map[string]any{
		"experiment": experiment,
		"variant":    variant,
	})
}
