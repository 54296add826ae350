package experiments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDefinition() Definition {
	return Definition{
		Name:     "hero_cta_button",
		Variants: []string{"A", "B", "C"},
		Weights:  []int{70, 20, 10},
		Enabled:  true,
	}
}

func TestPickVariantCumulativeWalk(t *testing.T) {
	def := testDefinition()

	tests := []struct {
		draw float64
		want string
	}{
		{0.0, "A"},
		{0.5, "A"},  // 50 < 70
		{0.8, "B"},  // 80 >= 70, 80 < 90
		{0.95, "C"}, // 95 >= 90
		{0.999, "C"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pickVariant(def, tt.draw), "draw %v", tt.draw)
	}
}

func TestPickVariantEqualSplitWhenNoWeights(t *testing.T) {
	def := Definition{Name: "x", Variants: []string{"A", "B"}, Enabled: true}

	assert.Equal(t, "A", pickVariant(def, 0.25))
	assert.Equal(t, "B", pickVariant(def, 0.75))
}

func TestVariantForIsSticky(t *testing.T) {
	svc := NewService(nil, []Definition{testDefinition()}, nil)
	draws := []float64{0.95, 0.0, 0.0}
	svc.draw = func() float64 {
		d := draws[0]
		draws = draws[1:]
		return d
	}

	first, err := svc.VariantFor(context.Background(), "s1", "hero_cta_button")
	require.NoError(t, err)
	assert.Equal(t, "C", first)

	// Later calls must return the stored choice, not redraw.
	for i := 0; i < 2; i++ {
		again, err := svc.VariantFor(context.Background(), "s1", "hero_cta_button")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestVariantForDistinctSessions(t *testing.T) {
	svc := NewService(nil, []Definition{testDefinition()}, nil)
	draws := []float64{0.5, 0.8}
	svc.draw = func() float64 {
		d := draws[0]
		draws = draws[1:]
		return d
	}

	a, err := svc.VariantFor(context.Background(), "s1", "hero_cta_button")
	require.NoError(t, err)
	b, err := svc.VariantFor(context.Background(), "s2", "hero_cta_button")
	require.NoError(t, err)

	assert.Equal(t, "A", a)
	assert.Equal(t, "B", b)
}

func TestVariantForUnknownExperiment(t *testing.T) {
	svc := NewService(nil, nil, nil)
	_, err := svc.VariantFor(context.Background(), "s1", "missing")
	require.Error(t, err)
}

func TestVariantForDisabledExperiment(t *testing.T) {
	def := testDefinition()
	def.Enabled = false
	svc := NewService(nil, []Definition{def}, nil)

	_, err := svc.VariantFor(context.Background(), "s1", def.Name)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotActive))
}

func TestVariantForDateWindow(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	def := testDefinition()
	def.StartDate = &future
	svc := NewService(nil, []Definition{def}, nil)
	svc.now = func() time.Time { return now }

	_, err := svc.VariantFor(context.Background(), "s1", def.Name)
	require.Error(t, err, "not started yet")
	assert.True(t, errors.Is(err, ErrNotActive))

	def2 := testDefinition()
	def2.EndDate = &past
	svc2 := NewService(nil, []Definition{def2}, nil)
	svc2.now = func() time.Time { return now }

	_, err = svc2.VariantFor(context.Background(), "s1", def2.Name)
	require.Error(t, err, "already ended")
	assert.True(t, errors.Is(err, ErrNotActive))
}

func TestDefaultsSeedKnownExperiments(t *testing.T) {
	defs := Defaults()
	require.Len(t, defs, 5)

	byName := map[string]Definition{}
	for _, d := range defs {
		byName[d.Name] = d
	}

	require.Contains(t, byName, "testimonial_section")
	assert.Equal(t, []string{"A", "B", "C"}, byName["testimonial_section"].Variants)
	assert.Equal(t, []int{34, 33, 33}, byName["testimonial_section"].Weights)

	for _, name := range []string{"hero_cta_button", "pricing_section", "contact_form", "blog_section"} {
		require.Contains(t, byName, name)
		assert.Equal(t, []string{"A", "B"}, byName[name].Variants)
		assert.True(t, byName[name].Enabled)
	}
}
