package monitoring

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackLanguageDetection(t *testing.T) {
	s := NewSnapshot()

	s.TrackLanguageDetection("fr", "fr", 0.9)
	s.TrackLanguageDetection("fr", "en", 0.5)
	s.TrackLanguageDetection("en", "en", 0.85)
	s.TrackLanguageDetection("fr", "fr", 0.65)

	r := s.Report()
	assert.Equal(t, int64(4), r.Language.TotalDetections)
	assert.Equal(t, int64(3), r.Language.CorrectDetections)
	assert.Equal(t, 75.0, r.DetectionAccuracy)
	assert.Equal(t, int64(2), r.Language.AmbiguousCases, "confidences below 0.7 are ambiguous")
	assert.InDelta(t, (0.9+0.5+0.85+0.65)/4, r.Language.AvgConfidence, 1e-9)
}

func TestDetectionAccuracyZeroGuard(t *testing.T) {
	s := NewSnapshot()
	assert.Equal(t, 0.0, s.Report().DetectionAccuracy)
}

func TestTrackResponseQuality(t *testing.T) {
	s := NewSnapshot()

	s.TrackResponseQuality(100, 200, true, false, false)
	s.TrackResponseQuality(300, 100, false, true, true)

	r := s.Report()
	assert.Equal(t, int64(2), r.Response.TotalResponses)
	assert.Equal(t, 200.0, r.Response.AvgResponseTimeMs)
	assert.Equal(t, 150.0, r.Response.AvgResponseLength)
	assert.Equal(t, int64(1), r.Response.SuggestionUsage)
	assert.Equal(t, int64(1), r.Response.CTAUsage)
	assert.Equal(t, int64(1), r.Response.FallbackUsage)
	assert.Equal(t, 0.5, r.FallbackRate)
	assert.Equal(t, 0.5, r.CTARate)
	assert.Equal(t, 0.5, r.SuggestionRate)
}

func TestRunningMeanMatchesArithmeticMean(t *testing.T) {
	s := NewSnapshot()

	values := []float64{12, 48, 7, 93, 25, 61, 3, 88}
	sum := 0.0
	for _, v := range values {
		s.TrackResponseQuality(v, 0, false, false, false)
		sum += v
	}

	got := s.Report().Response.AvgResponseTimeMs
	want := sum / float64(len(values))
	assert.True(t, math.Abs(got-want) < 1e-9, "running mean %v != %v", got, want)
}

func TestTrackSatisfaction(t *testing.T) {
	s := NewSnapshot()

	s.TrackSatisfaction(4)
	s.TrackSatisfaction(5)
	s.TrackSatisfaction(3)

	assert.Equal(t, 4.0, s.Report().Response.UserSatisfaction)
}

func TestSnapshotNilSafe(t *testing.T) {
	var s *Snapshot
	s.TrackLanguageDetection("fr", "fr", 0.9)
	s.TrackResponseQuality(10, 10, false, false, false)
	s.TrackSatisfaction(5)
	assert.Equal(t, Report{}, s.Report())
}

func TestSnapshotConcurrentTracking(t *testing.T) {
	s := NewSnapshot()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.TrackLanguageDetection("fr", "fr", 0.8)
				s.TrackResponseQuality(50, 120, true, false, false)
			}
		}()
	}
	wg.Wait()

	r := s.Report()
	assert.Equal(t, int64(800), r.Language.TotalDetections)
	assert.Equal(t, int64(800), r.Response.TotalResponses)
	assert.Equal(t, 100.0, r.DetectionAccuracy)
}
