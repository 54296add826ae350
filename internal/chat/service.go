package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/omadigital/engage-core/internal/cta"
	"github.com/omadigital/engage-core/internal/language"
	"github.com/omadigital/engage-core/internal/monitoring"
	"github.com/omadigital/engage-core/pkg/logging"
)

// Localized replies used when generation fails. The user always receives a
// well-formed assistant message, never a raw error.
var errorReplies = map[string]string{
	language.French:  "Désolé, nous rencontrons des difficultés techniques. Veuillez réessayer dans quelques instants.",
	language.English: "Sorry, we are experiencing technical difficulties. Please try again in a moment.",
}

// SubmitRequest carries one inbound user message.
type SubmitRequest struct {
	SessionID string
	Text      string
	Channel   Channel
}

// SubmitResult is the outcome of a successful Submit. Reply is always
// present, even when generation failed and a localized error reply was
// substituted.
type SubmitResult struct {
	UserMessage Message
	Reply       Message
	CTA         *cta.Definition
	Language    language.Result
}

// ServiceConfig wires the Submit pipeline's collaborators.
type ServiceConfig struct {
	Sanitizer        *Sanitizer
	Limiter          *SessionLimiter
	Store            *SessionStore
	Resolver         *language.Resolver
	Catalog          *cta.Catalog
	Inference        InferenceClient
	Events           *EventLogger
	Metrics          *monitoring.ChatMetrics
	Snapshot         *monitoring.Snapshot
	Logger           *logging.Logger
	InferenceTimeout time.Duration
	HistoryTail      int
}

// Service runs the message pipeline: admission, sanitation, language
// resolution, CTA matching and reply generation.
type Service struct {
	sanitizer        *Sanitizer
	limiter          *SessionLimiter
	store            *SessionStore
	resolver         *language.Resolver
	catalog          *cta.Catalog
	inference        InferenceClient
	events           *EventLogger
	metrics          *monitoring.ChatMetrics
	snapshot         *monitoring.Snapshot
	logger           *logging.Logger
	inferenceTimeout time.Duration
	historyTail      int

	now   func() time.Time
	newID func() string

	mu     sync.Mutex
	states map[string]State
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.Sanitizer == nil {
		cfg.Sanitizer = NewSanitizer(DefaultSanitizerConfig())
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default().WithComponent("chat")
	}
	if cfg.Events == nil {
		cfg.Events = NewEventLogger(cfg.Logger)
	}
	if cfg.InferenceTimeout <= 0 {
		cfg.InferenceTimeout = 15 * time.Second
	}
	if cfg.HistoryTail <= 0 {
		cfg.HistoryTail = 10
	}
	return &Service{
		sanitizer:        cfg.Sanitizer,
		limiter:          cfg.Limiter,
		store:            cfg.Store,
		resolver:         cfg.Resolver,
		catalog:          cfg.Catalog,
		inference:        cfg.Inference,
		events:           cfg.Events,
		metrics:          cfg.Metrics,
		snapshot:         cfg.Snapshot,
		logger:           cfg.Logger,
		inferenceTimeout: cfg.InferenceTimeout,
		historyTail:      cfg.HistoryTail,
		now:              time.Now,
		newID:            uuid.NewString,
		states:           make(map[string]State),
	}
}

// DetectWith adapts an inference client's language detection to the
// resolver's primary-detector contract.
func DetectWith(client InferenceClient) language.DetectFunc {
	if client == nil {
		return nil
	}
	return func(ctx context.Context, text string) (string, float64, error) {
		d, err := client.DetectLanguage(ctx, text)
		if err != nil {
			return "", 0, err
		}
		return d.Language, d.Confidence, nil
	}
}

// Submit processes one user message end to end. A rejected or rate-limited
// message returns an error and leaves the transcript untouched; an accepted
// message always yields a reply, substituting a localized error reply when
// generation fails.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if req.Channel == "" {
		req.Channel = ChannelText
	}

	// Admission runs before any budget is consumed: a rejected message
	// must not count against the session's window.
	if err := s.limiter.Check(req.SessionID); err != nil {
		var rle *RateLimitedError
		if errors.As(err, &rle) {
			s.events.RateLimited(ctx, req.SessionID, rle.RetryAfter)
		}
		s.metrics.ObserveMessage("rate_limited")
		return nil, err
	}

	res, err := s.sanitizer.Sanitize(req.Text)
	if err != nil {
		reason := err.Error()
		var iie *InvalidInputError
		if errors.As(err, &iie) {
			reason = iie.Reason
		}
		s.events.InputRejected(ctx, req.SessionID, reason)
		s.metrics.ObserveMessage("rejected")
		return nil, err
	}

	s.limiter.Record(req.SessionID)
	s.events.MessageReceived(ctx, req.SessionID, req.Channel, res.CleanText)

	meta, err := s.store.Ensure(ctx, req.SessionID)
	if err != nil {
		s.metrics.ObserveMessage("error")
		return nil, err
	}

	s.transition(req.SessionID, EventMessageAccepted)

	userMsg := Message{
		ID:        s.newID(),
		SessionID: req.SessionID,
		Sender:    SenderUser,
		Text:      res.CleanText,
		Timestamp: s.now().UTC(),
		Channel:   req.Channel,
	}
	if err := s.store.Append(ctx, userMsg); err != nil {
		s.metrics.ObserveMessage("error")
		return nil, err
	}

	lang := s.resolveLanguage(ctx, req.SessionID, res.CleanText, meta)
	userMsg.Language = lang.Language

	var defs []cta.Definition
	if s.catalog != nil {
		defs = s.catalog.Active()
	}
	best, score := cta.FindBest(res.CleanText, lang.Language, defs, s.now())
	if best != nil {
		s.events.CTASelected(ctx, req.SessionID, best.ID, score)
		s.metrics.ObserveCTASelected(string(best.Type))
	}

	reply := s.generateReply(ctx, req.SessionID, res.CleanText, lang, best)
	if err := s.store.Append(ctx, reply); err != nil {
		// The user message is persisted and audited; losing the reply
		// write is reported but the caller still gets the reply.
		s.logger.Error("failed to persist reply", "session_id", req.SessionID, "error", err)
	}

	return &SubmitResult{
		UserMessage: userMsg,
		Reply:       reply,
		CTA:         best,
		Language:    lang,
	}, nil
}

// History returns up to limit transcript messages, oldest first.
func (s *Service) History(ctx context.Context, sessionID string, limit int64) ([]Message, error) {
	return s.store.List(ctx, sessionID, limit)
}

// RecordSatisfaction folds a user rating into the quality snapshot.
func (s *Service) RecordSatisfaction(rating float64) {
	s.snapshot.TrackSatisfaction(rating)
}

func (s *Service) resolveLanguage(ctx context.Context, sessionID, text string, meta SessionMeta) language.Result {
	lang := s.resolver.Resolve(ctx, text)

	s.events.LanguageResolved(ctx, sessionID, lang.Language, lang.Source, lang.Confidence)
	s.metrics.ObserveDetection(lang.Language, lang.Source)
	s.snapshot.TrackLanguageDetection(lang.Language, lang.Language, lang.Confidence)

	if meta.PreferredLanguage != lang.Language {
		if err := s.store.SetPreferredLanguage(ctx, sessionID, lang.Language); err != nil {
			s.logger.Warn("failed to persist preferred language",
				"session_id", sessionID, "error", err)
		}
	}
	return lang
}

func (s *Service) generateReply(ctx context.Context, sessionID, text string, lang language.Result, best *cta.Definition) Message {
	start := s.now()

	tail, err := s.store.List(ctx, sessionID, int64(s.historyTail))
	if err != nil {
		s.logger.Warn("failed to load history tail", "session_id", sessionID, "error", err)
		tail = nil
	}

	inferCtx, cancel := context.WithTimeout(ctx, s.inferenceTimeout)
	defer cancel()

	resp, err := s.inference.GenerateReply(inferCtx, ReplyRequest{
		Text:         text,
		HistoryTail:  tail,
		LanguageHint: lang.Language,
	})
	elapsed := s.now().Sub(start)

	if err != nil {
		s.events.InferenceFailed(ctx, sessionID, "generate_reply", err)
		s.metrics.ObserveMessage("fallback")
		s.transition(sessionID, EventReplyFailed)
		s.transition(sessionID, EventErrorNotified)
		s.snapshot.TrackResponseQuality(float64(elapsed.Milliseconds()), 0, false, best != nil, true)
		return s.errorReply(sessionID, lang.Language)
	}

	replyLang := lang.Language
	if resp.Language != "" {
		replyLang = resp.Language
	}

	reply := Message{
		ID:          s.newID(),
		SessionID:   sessionID,
		Sender:      SenderAssistant,
		Text:        resp.Text,
		Timestamp:   s.now().UTC(),
		Language:    replyLang,
		Suggestions: resp.Suggestions,
		Confidence:  lang.Confidence,
		Source:      lang.Source,
	}
	if best != nil {
		reply.CTAID = best.ID
	}

	s.events.ReplyGenerated(ctx, sessionID, elapsed.Milliseconds(), len(resp.Text))
	s.metrics.ObserveMessage("ok")
	s.metrics.ObserveResponseLatency(elapsed.Seconds())
	s.snapshot.TrackResponseQuality(float64(elapsed.Milliseconds()), len(resp.Text),
		len(resp.Suggestions) > 0, best != nil, false)
	s.transition(sessionID, EventReplyProduced)

	return reply
}

func (s *Service) errorReply(sessionID, lang string) Message {
	text, ok := errorReplies[lang]
	if !ok {
		text = errorReplies[language.French]
	}
	return Message{
		ID:        s.newID(),
		SessionID: sessionID,
		Sender:    SenderAssistant,
		Text:      text,
		Timestamp: s.now().UTC(),
		Language:  coalesceLang(lang),
		Source:    SourceError,
	}
}

func (s *Service) transition(sessionID string, ev StateEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.states[sessionID]
	if !ok {
		current = StateIdle
	}
	next, err := Transition(current, ev)
	if err != nil {
		s.logger.Warn("invalid session transition",
			"session_id", sessionID, "state", string(current), "event", string(ev))
		return
	}
	s.states[sessionID] = next
}

func coalesceLang(lang string) string {
	if strings.TrimSpace(lang) == "" {
		return language.French
	}
	return lang
}
