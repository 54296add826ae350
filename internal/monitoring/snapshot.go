// Package monitoring aggregates chatbot quality metrics: language detection
// accuracy, response quality and user satisfaction. The snapshot is kept in
// memory with running means; Prometheus export lives alongside it for
// operational counters.
package monitoring

import "sync"

// ambiguityThreshold marks detections too uncertain to trust.
const ambiguityThreshold = 0.7

// LanguageStats tracks how often detection agreed with the expected
// language and how confident the detector was.
type LanguageStats struct {
	TotalDetections   int64   `json:"totalDetections"`
	CorrectDetections int64   `json:"correctDetections"`
	AvgConfidence     float64 `json:"avgConfidence"`
	AmbiguousCases    int64   `json:"ambiguousCases"`
}

// ResponseStats tracks reply quality signals.
type ResponseStats struct {
	TotalResponses    int64   `json:"totalResponses"`
	AvgResponseTimeMs float64 `json:"avgResponseTime"`
	AvgResponseLength float64 `json:"avgResponseLength"`
	SuggestionUsage   int64   `json:"suggestionUsage"`
	CTAUsage          int64   `json:"ctaUsage"`
	FallbackUsage     int64   `json:"fallbackUsage"`
	UserSatisfaction  float64 `json:"userSatisfaction"`
	satisfactionCount int64
}

// Report is a point-in-time view suitable for the admin endpoint.
type Report struct {
	Language          LanguageStats `json:"language"`
	Response          ResponseStats `json:"response"`
	DetectionAccuracy float64       `json:"detectionAccuracy"`
	FallbackRate      float64       `json:"fallbackRate"`
	CTARate           float64       `json:"ctaRate"`
	SuggestionRate    float64       `json:"suggestionRate"`
}

// Snapshot accumulates quality metrics for the process lifetime.
type Snapshot struct {
	mu       sync.Mutex
	language LanguageStats
	response ResponseStats
}

func NewSnapshot() *Snapshot {
	return &Snapshot{}
}

// TrackLanguageDetection records one detection outcome. expected may equal
// detected when ground truth is unknown and the resolved language is taken
// as the reference.
func (s *Snapshot) TrackLanguageDetection(expected, detected string, confidence float64) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.language.TotalDetections++
	if expected == detected {
		s.language.CorrectDetections++
	}
	s.language.AvgConfidence = runningMean(s.language.AvgConfidence, confidence, s.language.TotalDetections)
	if confidence < ambiguityThreshold {
		s.language.AmbiguousCases++
	}
}

// TrackResponseQuality records one generated reply.
func (s *Snapshot) TrackResponseQuality(responseTimeMs float64, responseLength int, hadSuggestions, hadCTA, wasFallback bool) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.response.TotalResponses++
	s.response.AvgResponseTimeMs = runningMean(s.response.AvgResponseTimeMs, responseTimeMs, s.response.TotalResponses)
	s.response.AvgResponseLength = runningMean(s.response.AvgResponseLength, float64(responseLength), s.response.TotalResponses)
	if hadSuggestions {
		s.response.SuggestionUsage++
	}
	if hadCTA {
		s.response.CTAUsage++
	}
	if wasFallback {
		s.response.FallbackUsage++
	}
}

// TrackSatisfaction folds one user rating into the satisfaction mean.
func (s *Snapshot) TrackSatisfaction(rating float64) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.response.satisfactionCount++
	s.response.UserSatisfaction = runningMean(s.response.UserSatisfaction, rating, s.response.satisfactionCount)
}

// Report returns the current aggregates. Detection accuracy is a
// percentage, zero when nothing was tracked yet.
func (s *Snapshot) Report() Report {
	if s == nil {
		return Report{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	accuracy := 0.0
	if s.language.TotalDetections > 0 {
		accuracy = float64(s.language.CorrectDetections) / float64(s.language.TotalDetections) * 100
	}
	fallbackRate, ctaRate, suggestionRate := 0.0, 0.0, 0.0
	if s.response.TotalResponses > 0 {
		total := float64(s.response.TotalResponses)
		fallbackRate = float64(s.response.FallbackUsage) / total
		ctaRate = float64(s.response.CTAUsage) / total
		suggestionRate = float64(s.response.SuggestionUsage) / total
	}
	return Report{
		Language:          s.language,
		Response:          s.response,
		DetectionAccuracy: accuracy,
		FallbackRate:      fallbackRate,
		CTARate:           ctaRate,
		SuggestionRate:    suggestionRate,
	}
}

func runningMean(oldMean, value float64, newCount int64) float64 {
	return oldMean + (value-oldMean)/float64(newCount)
}
