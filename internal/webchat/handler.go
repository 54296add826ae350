// Package webchat exposes the dialogue pipeline over HTTP and WebSocket
// for the embedded site widget.
package webchat

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/omadigital/engage-core/internal/chat"
	"github.com/omadigital/engage-core/pkg/logging"
)

// Handler serves the widget's chat endpoints.
type Handler struct {
	svc    *chat.Service
	logger *logging.Logger
}

func NewHandler(svc *chat.Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default().WithComponent("webchat")
	}
	return &Handler{svc: svc, logger: logger}
}

// InboundMessage is what the widget sends over the socket.
type InboundMessage struct {
	Type      string `json:"type"` // "message", "ping"
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	Channel   string `json:"channel,omitempty"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type        string           `json:"type"` // "message", "session", "history", "pong", "error"
	Text        string           `json:"text,omitempty"`
	Role        string           `json:"role,omitempty"`
	SessionID   string           `json:"session_id,omitempty"`
	Language    string           `json:"language,omitempty"`
	Suggestions []string         `json:"suggestions,omitempty"`
	CTAID       string           `json:"cta_id,omitempty"`
	Timestamp   string           `json:"timestamp,omitempty"`
	Messages    []HistoryMessage `json:"messages,omitempty"`
}

// HistoryMessage is a simplified message for history responses.
type HistoryMessage struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Language  string `json:"language,omitempty"`
	Timestamp string `json:"timestamp"`
}

func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(b)
}

// HandleMessage is the HTTP entry point for one chat turn.
//
//	POST /chat/message {"session_id": "...", "text": "...", "channel": "text"}
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
		Channel   string `json:"channel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = generateSessionID()
	}

	result, err := h.svc.Submit(r.Context(), chat.SubmitRequest{
		SessionID: req.SessionID,
		Text:      req.Text,
		Channel:   chat.Channel(req.Channel),
	})
	if err != nil {
		h.writeSubmitError(w, err)
		return
	}

	resp := map[string]any{
		"session_id":  req.SessionID,
		"reply":       result.Reply.Text,
		"language":    result.Language.Language,
		"confidence":  result.Language.Confidence,
		"source":      result.Reply.Source,
		"suggestions": result.Reply.Suggestions,
	}
	if result.CTA != nil {
		resp["cta"] = result.CTA
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleHistory returns the session transcript, oldest first.
//
//	GET /chat/history?session=...&limit=50
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	limit := int64(50)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}

	msgs, err := h.svc.History(r.Context(), sessionID, limit)
	if err != nil {
		h.logger.Error("failed to load history", "error", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"messages": toHistory(msgs)})
}

// HandleSatisfaction records a widget thumbs-up/down style rating.
//
//	POST /chat/satisfaction {"rating": 4.5}
func (h *Handler) HandleSatisfaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rating float64 `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Rating < 0 || req.Rating > 5 {
		http.Error(w, "rating must be between 0 and 5", http.StatusBadRequest)
		return
	}
	h.svc.RecordSatisfaction(req.Rating)
	w.WriteHeader(http.StatusAccepted)
}

// HandleWebSocket upgrades to WebSocket and runs the chat loop inline.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = generateSessionID()
	}

	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: sessionID})

	if msgs, err := h.svc.History(r.Context(), sessionID, 50); err == nil && len(msgs) > 0 {
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "history", Messages: toHistory(msgs)})
	}

	h.logger.Info("connection opened", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("connection closed", "session_id", sessionID, "error", err)
			return
		}

		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
			continue
		}
		if msg.Type != "message" || strings.TrimSpace(msg.Text) == "" {
			continue
		}

		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "typing"})

		result, err := h.svc.Submit(r.Context(), chat.SubmitRequest{
			SessionID: sessionID,
			Text:      msg.Text,
			Channel:   chat.Channel(msg.Channel),
		})
		if err != nil {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: submitErrorText(err)})
			continue
		}

		out := OutboundMessage{
			Type:        "message",
			Role:        string(chat.SenderAssistant),
			Text:        result.Reply.Text,
			SessionID:   sessionID,
			Language:    result.Reply.Language,
			Suggestions: result.Reply.Suggestions,
			CTAID:       result.Reply.CTAID,
			Timestamp:   result.Reply.Timestamp.Format(time.RFC3339),
		}
		_ = websocket.JSON.Send(conn, out)
	}
}

func (h *Handler) writeSubmitError(w http.ResponseWriter, err error) {
	var rle *chat.RateLimitedError
	if errors.As(err, &rle) {
		seconds := int(rle.RetryAfter.Seconds() + 0.999)
		if seconds < 1 {
			seconds = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		http.Error(w, "too many messages, slow down", http.StatusTooManyRequests)
		return
	}
	if chat.IsInvalidInput(err) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.logger.Error("message processing failed", "error", err)
	http.Error(w, "failed to process message", http.StatusInternalServerError)
}

func submitErrorText(err error) string {
	switch {
	case chat.IsRateLimited(err):
		return "You are sending messages too quickly. Please wait a moment."
	case chat.IsInvalidInput(err):
		return "That message could not be accepted. Please rephrase it."
	default:
		return "Sorry, something went wrong. Please try again."
	}
}

func toHistory(msgs []chat.Message) []HistoryMessage {
	history := make([]HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		history = append(history, HistoryMessage{
			Role:      string(m.Sender),
			Text:      m.Text,
			Language:  m.Language,
			Timestamp: m.Timestamp.Format(time.RFC3339),
		})
	}
	return history
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
