package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient implements InferenceClient using Google's Gemini API.
type GeminiClient struct {
	client  *genai.Client
	modelID string
}

// NewGeminiClient creates a new Gemini inference client.
func NewGeminiClient(ctx context.Context, apiKey, modelID string) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("chat: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("chat: failed to create gemini client: %w", err)
	}

	return &GeminiClient{client: client, modelID: modelID}, nil
}

const replySystemPrompt = `You are the assistant for a digital-services agency serving French- and English-speaking customers.
Answer in the language given by the "Reply language" line. Keep answers short and concrete.
After your answer, on a separate final line, write "Suggestions:" followed by up to three short follow-up questions separated by " | ".`

// GenerateReply asks Gemini for an assistant reply in the hinted language.
func (c *GeminiClient) GenerateReply(ctx context.Context, req ReplyRequest) (ReplyResponse, error) {
	model := c.client.GenerativeModel(c.modelID)
	model.SetTemperature(0.4)
	model.SetMaxOutputTokens(512)
	model.SystemInstruction = genai.NewUserContent(genai.Text(replySystemPrompt))

	cs := model.StartChat()
	for _, msg := range req.HistoryTail {
		content := strings.TrimSpace(msg.Text)
		if content == "" {
			continue
		}
		role := "user"
		if msg.Sender == SenderAssistant {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(content)},
		})
	}

	prompt := fmt.Sprintf("Reply language: %s\n\n%s", req.LanguageHint, req.Text)
	resp, err := cs.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return ReplyResponse{}, fmt.Errorf("chat: gemini reply failed: %w", err)
	}

	text, err := firstCandidateText(resp)
	if err != nil {
		return ReplyResponse{}, err
	}

	reply, suggestions := splitSuggestions(text)
	return ReplyResponse{
		Text:        reply,
		Language:    req.LanguageHint,
		Suggestions: suggestions,
		Confidence:  0.85,
	}, nil
}

// DetectLanguage asks Gemini to classify the text as FR or EN. The prompt
// is deliberately minimal: two tokens of output and a hard token cap.
func (c *GeminiClient) DetectLanguage(ctx context.Context, text string) (Detection, error) {
	model := c.client.GenerativeModel(c.modelID)
	model.SetTemperature(0)
	model.SetMaxOutputTokens(5)

	prompt := fmt.Sprintf("Language: FR or EN only.\nText: %q", truncateRunes(text, 100))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return Detection{}, fmt.Errorf("chat: gemini detect failed: %w", err)
	}

	answer, err := firstCandidateText(resp)
	if err != nil {
		return Detection{}, err
	}

	upper := strings.ToUpper(strings.TrimSpace(answer))
	isEnglish := strings.Contains(upper, "EN")
	isFrench := strings.Contains(upper, "FR")
	switch {
	case isEnglish && !isFrench:
		return Detection{Language: "en", Confidence: 0.85}, nil
	case isFrench && !isEnglish:
		return Detection{Language: "fr", Confidence: 0.85}, nil
	default:
		return Detection{Language: "fr", Confidence: 0.7}, nil
	}
}

// Close releases resources held by the Gemini client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// truncateRunes cuts s to at most max runes, never splitting a multi-byte
// sequence.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func firstCandidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("chat: gemini returned no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("chat: gemini returned empty content")
	}
	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// splitSuggestions separates the "Suggestions:" trailer from the reply body.
func splitSuggestions(text string) (string, []string) {
	idx := strings.LastIndex(text, "Suggestions:")
	if idx < 0 {
		return text, nil
	}
	body := strings.TrimSpace(text[:idx])
	var suggestions []string
	for _, s := range strings.Split(text[idx+len("Suggestions:"):], "|") {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			suggestions = append(suggestions, trimmed)
		}
	}
	if body == "" {
		return text, nil
	}
	return body, suggestions
}
