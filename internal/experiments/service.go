// Package experiments assigns chat sessions to A/B test variants and
// tracks conversion outcomes per variant.
package experiments

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/omadigital/engage-core/pkg/logging"
)

// ErrNotActive is returned by VariantFor when the experiment is disabled or
// outside its date window. Callers treat it as "no variant", not a failure.
var ErrNotActive = errors.New("experiments: experiment not active")

// Service hands out sticky variant assignments and records experiment
// events. Assignments persist to the store when one is configured and are
// cached in memory either way.
type Service struct {
	store  *Store
	logger *logging.Logger

	draw func() float64
	now  func() time.Time

	mu          sync.RWMutex
	definitions map[string]Definition
	cache       map[string]string
}

// NewService builds a service over the given definitions. A nil store is
// allowed; stickiness is then process-local only.
func NewService(store *Store, defs []Definition, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default().WithComponent("experiments")
	}
	s := &Service{
		store:       store,
		logger:      logger,
		draw:        rand.Float64,
		now:         time.Now,
		definitions: make(map[string]Definition, len(defs)),
		cache:       make(map[string]string),
	}
	for _, d := range defs {
		s.definitions[d.Name] = d
	}
	return s
}

// Definition returns the configuration for one experiment.
func (s *Service) Definition(name string) (Definition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.definitions[name]
	return d, ok
}

// VariantFor returns the sticky variant for a session. The first call for a
// (session, experiment) pair draws a weighted variant, persists it and logs
// an assignment event; later calls return the stored choice.
func (s *Service) VariantFor(ctx context.Context, sessionID, experiment string) (string, error) {
	def, ok := s.Definition(experiment)
	if !ok {
		return "", fmt.Errorf("experiments: unknown experiment %q", experiment)
	}
	if !s.active(def) {
		return "", fmt.Errorf("%w: %q", ErrNotActive, experiment)
	}

	key := sessionID + "\x00" + experiment

	s.mu.RLock()
	cached, hit := s.cache[key]
	s.mu.RUnlock()
	if hit {
		return cached, nil
	}

	if stored, found, err := s.store.GetAssignment(ctx, sessionID, experiment); err != nil {
		return "", err
	} else if found {
		s.remember(key, stored)
		return stored, nil
	}

	variant := pickVariant(def, s.draw())

	assignedAt := s.now().UTC()
	if err := s.store.PutAssignment(ctx, Assignment{
		SessionID:  sessionID,
		Experiment: experiment,
		Variant:    variant,
		AssignedAt: assignedAt,
	}); err != nil {
		return "", err
	}

	// Concurrent first calls may race the insert; the row wins.
	if stored, found, err := s.store.GetAssignment(ctx, sessionID, experiment); err == nil && found {
		variant = stored
	}
	s.remember(key, variant)

	if err := s.store.AppendEvent(ctx, Event{
		SessionID:  sessionID,
		Experiment: experiment,
		Variant:    variant,
		Kind:       EventAssignment,
		CreatedAt:  assignedAt,
	}); err != nil {
		s.logger.Warn("failed to log assignment event",
			"experiment", experiment, "error", err)
	}

	s.logger.Debug("variant assigned",
		"experiment", experiment, "variant", variant, "session_id", sessionID)
	return variant, nil
}

// RecordConversion appends a conversion event for the session. The caller
// may name the variant; when it doesn't, the stored assignment is used. The
// event is appended either way, and persistence failures are logged rather
// than surfaced.
func (s *Service) RecordConversion(ctx context.Context, sessionID, experiment, variant string, value float64, metadata map[string]string) {
	if variant == "" {
		assigned, found, err := s.lookupVariant(ctx, sessionID, experiment)
		if err != nil {
			s.logger.Warn("conversion lookup failed", "experiment", experiment, "error", err)
		} else if found {
			variant = assigned
		}
	}

	if err := s.store.AppendEvent(ctx, Event{
		SessionID:  sessionID,
		Experiment: experiment,
		Variant:    variant,
		Kind:       EventConversion,
		Value:      value,
		Metadata:   metadata,
		CreatedAt:  s.now().UTC(),
	}); err != nil {
		s.logger.Warn("failed to log conversion event",
			"experiment", experiment, "error", err)
	}
}

// ConversionRate computes conversions/total for one variant from the event
// log. A variant with no events has rate 0.
func (s *Service) ConversionRate(ctx context.Context, experiment, variant string) (float64, error) {
	total, conversions, err := s.store.CountEvents(ctx, experiment, variant)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	return float64(conversions) / float64(total), nil
}

func (s *Service) lookupVariant(ctx context.Context, sessionID, experiment string) (string, bool, error) {
	key := sessionID + "\x00" + experiment

	s.mu.RLock()
	cached, hit := s.cache[key]
	s.mu.RUnlock()
	if hit {
		return cached, true, nil
	}
	return s.store.GetAssignment(ctx, sessionID, experiment)
}

func (s *Service) remember(key, variant string) {
	s.mu.Lock()
	s.cache[key] = variant
	s.mu.Unlock()
}

func (s *Service) active(def Definition) bool {
	if !def.Enabled {
		return false
	}
	now := s.now()
	if def.StartDate != nil && now.Before(*def.StartDate) {
		return false
	}
	if def.EndDate != nil && now.After(*def.EndDate) {
		return false
	}
	return true
}

// pickVariant walks the cumulative weights and returns the first variant
// whose cumulative weight exceeds the draw. draw is in [0, 1) and is scaled
// to the total weight. Nil weights mean an equal split.
func pickVariant(def Definition, draw float64) string {
	if len(def.Variants) == 0 {
		return ""
	}

	weights := def.Weights
	if len(weights) != len(def.Variants) {
		weights = make([]int, len(def.Variants))
		for i := range weights {
			weights[i] = 1
		}
	}

	total := 0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return def.Variants[0]
	}

	target := draw * float64(total)
	cumulative := 0.0
	for i, w := range weights {
		cumulative += float64(w)
		if target < cumulative {
			return def.Variants[i]
		}
	}
	return def.Variants[len(def.Variants)-1]
}
