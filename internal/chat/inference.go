package chat

import "context"

// ReplyRequest carries everything the inference collaborator needs to
// produce an assistant reply.
type ReplyRequest struct {
	Text string
	// HistoryTail is the most recent slice of the session transcript,
	// oldest first.
	HistoryTail []Message
	// LanguageHint is the resolved language the reply should be written in.
	LanguageHint string
}

// ReplyResponse is the enriched reply produced by the collaborator.
type ReplyResponse struct {
	Text        string
	Language    string
	Suggestions []string
	Confidence  float64
}

// Detection is the primary language detector's verdict.
type Detection struct {
	Language   string
	Confidence float64
}

// InferenceClient is the external inference collaborator. Both calls cross
// a network boundary and may fail with timeouts; callers absorb those
// failures per the cascade rules.
type InferenceClient interface {
	GenerateReply(ctx context.Context, req ReplyRequest) (ReplyResponse, error)
	DetectLanguage(ctx context.Context, text string) (Detection, error)
}
