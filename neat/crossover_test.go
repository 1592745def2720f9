package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// divergedPair returns two XOR genomes that share links 0..2 and differ in
// which input link was split.
func divergedPair(t *testing.T, reg *InnovationRegistry) (a, b *Genome) {
	t.Helper()
	rng := newTestRand(1)
	a = newXORGenome(t, reg, rng)
	b = a.Copy(2)
	require.NoError(t, a.SplitLink(reg, 0))
	require.NoError(t, b.SplitLink(reg, 1))
	return a, b
}

func TestCrossoverChildOnlyCarriesFitterParentLinks(t *testing.T) {
	reg := NewInnovationRegistry()
	a, b := divergedPair(t, reg)
	a.AdjustedFitness = 2
	b.AdjustedFitness = 1

	for seed := int64(0); seed < 50; seed++ {
		rng := newTestRand(seed)
		for _, child := range []*Genome{Crossover(a, b, rng, 0.25, 10), Crossover(b, a, rng, 0.25, 11)} {
			require.NoError(t, child.Verify())
			assert.Equal(t, a.LinkIDs(), child.LinkIDs())
			assert.Equal(t, a.NeuronIDs(), child.NeuronIDs())
			assert.NotContains(t, child.Links, 5)
			assert.NotContains(t, child.Links, 6)
			assert.Equal(t, 0.0, child.Fitness)
			assert.Equal(t, 0.0, child.AdjustedFitness)
		}
	}
}

func TestCrossoverMatchingWeightsComeFromEitherParent(t *testing.T) {
	reg := NewInnovationRegistry()
	a, b := divergedPair(t, reg)
	a.AdjustedFitness = 2
	b.Links[2].Weight = 7.5
	a.Links[2].Weight = -7.5

	fromA, fromB := 0, 0
	rng := newTestRand(3)
	for i := 0; i < 200; i++ {
		w := Crossover(a, b, rng, 0.25, 10).Links[2].Weight
		switch w {
		case a.Links[2].Weight:
			fromA++
		case b.Links[2].Weight:
			fromB++
		default:
			t.Fatalf("weight %.3f is from neither parent", w)
		}
	}
	assert.Greater(t, fromA, 50)
	assert.Greater(t, fromB, 50)
}

func TestCrossoverEnableChance(t *testing.T) {
	reg := NewInnovationRegistry()
	a, b := divergedPair(t, reg)
	a.AdjustedFitness = 2

	// Link 0 is disabled in a (split) and enabled in b.
	for seed := int64(0); seed < 20; seed++ {
		child := Crossover(a, b, newTestRand(seed), 0, 10)
		assert.False(t, child.Links[0].Enabled)
		child = Crossover(a, b, newTestRand(seed), 1, 11)
		assert.True(t, child.Links[0].Enabled)
	}

	// Links only the fitter parent has keep their flag when enabled.
	child := Crossover(a, b, newTestRand(1), 0, 12)
	assert.True(t, child.Links[3].Enabled)
	assert.True(t, child.Links[4].Enabled)
}

func TestCrossoverKeepsUnmatchedDisabledLinks(t *testing.T) {
	reg := NewInnovationRegistry()
	rng := newTestRand(1)
	best := newXORGenome(t, reg, rng)
	require.NoError(t, best.SplitLink(reg, 0))
	best.AdjustedFitness = 2

	worst := best.Copy(2)
	worst.AdjustedFitness = 1
	worst.removeNeuron(0)
	worst.removeLink(0)
	require.NoError(t, worst.Verify())
	require.NotContains(t, worst.Links, 0)

	for seed := int64(0); seed < 20; seed++ {
		child := Crossover(best, worst, newTestRand(seed), 1, 9)
		require.Contains(t, child.Links, 0)
		assert.False(t, child.Links[0].Enabled, "a disabled link only the fitter parent has stays disabled")
		assert.True(t, child.Links[0].Split)
	}
}

func TestCrossoverTieBreaksOnSize(t *testing.T) {
	reg := NewInnovationRegistry()
	rng := newTestRand(1)
	small := newXORGenome(t, reg, rng)
	large := small.Copy(2)
	require.NoError(t, large.SplitLink(reg, 0))
	small.AdjustedFitness = 1
	large.AdjustedFitness = 1

	for seed := int64(0); seed < 20; seed++ {
		child := Crossover(large, small, newTestRand(seed), 0.25, 3)
		assert.Equal(t, small.LinkIDs(), child.LinkIDs())
	}
}

func TestCrossoverFullTieIsRandom(t *testing.T) {
	reg := NewInnovationRegistry()
	a, b := divergedPair(t, reg)

	sawA, sawB := false, false
	rng := newTestRand(9)
	for i := 0; i < 100; i++ {
		child := Crossover(a, b, rng, 0.25, 10)
		if _, ok := child.Neurons[0]; ok {
			sawA = true
		} else {
			sawB = true
		}
	}
	assert.True(t, sawA)
	assert.True(t, sawB)
}

func TestCloneAndAsexual(t *testing.T) {
	reg := NewInnovationRegistry()
	rng := newTestRand(1)
	g := newXORGenome(t, reg, rng)
	g.Fitness = 0.3
	g.AdjustedFitness = 0.7
	g.SpeciesID = 4

	c := Clone(g, 9)
	assert.Equal(t, 9, c.ID)
	assert.Equal(t, 0.0, c.Fitness)
	assert.Equal(t, 4, c.SpeciesID)
	assert.Equal(t, g.LinkIDs(), c.LinkIDs())

	next := 100
	newID := func() int { next++; return next }
	assert.Nil(t, Asexual(nil, 3, rng, newID))
	kids := Asexual([]*Genome{g}, 3, rng, newID)
	require.Len(t, kids, 3)
	for i, k := range kids {
		assert.Equal(t, 101+i, k.ID)
		assert.Equal(t, g.LinkIDs(), k.LinkIDs())
	}
}
