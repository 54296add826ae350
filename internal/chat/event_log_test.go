package chat

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/omadigital/engage-core/pkg/logging"
)

func newCaptureEventLogger() (*EventLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := &logging.Logger{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}
	return NewEventLogger(logger), &buf
}

func TestEventLoggerEmitsEventAndSession(t *testing.T) {
	events, buf := newCaptureEventLogger()

	events.LanguageResolved(context.Background(), "sess_42", "fr", "fallback", 0.8)

	out := buf.String()
	assert.Contains(t, out, "language_resolved")
	assert.Contains(t, out, "sess_42")
	assert.Contains(t, out, "fallback")
}

func TestEventLoggerTruncatesLongMessages(t *testing.T) {
	events, buf := newCaptureEventLogger()

	events.MessageReceived(context.Background(), "sess_1", ChannelText, strings.Repeat("a", 300))

	out := buf.String()
	assert.Contains(t, out, strings.Repeat("a", 200)+"...")
	assert.NotContains(t, out, strings.Repeat("a", 201))
}

func TestEventLoggerNilSafe(t *testing.T) {
	var events *EventLogger

	assert.NotPanics(t, func() {
		events.RateLimited(context.Background(), "sess_1", 5*time.Second)
		events.Log(context.Background(), "anything", "sess_1", nil)
	})
}
