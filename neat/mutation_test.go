package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutateRespectsRates(t *testing.T) {
	reg := NewInnovationRegistry()
	rng := newTestRand(1)
	genomes := make([]*Genome, 20)
	for i := range genomes {
		genomes[i] = NewGenome(i+1, 2, 1, true, reg, rng)
	}

	config := DefaultConfig().Genome
	config.AddLinkRate = -1
	config.AddNodeRate = 1
	config.WeightMutationRate = 0

	applied := Mutate(genomes, EvolvingOperators(&config), reg, rng)
	assert.Equal(t, 20, applied["add_node"])
	assert.Zero(t, applied["add_link"])
	assert.Zero(t, applied["weight"])
	for _, g := range genomes {
		require.NoError(t, g.Verify())
		assert.Len(t, g.HiddenIDs(), 1)
	}
}

func TestPruningOperatorsShrinkGenomes(t *testing.T) {
	reg := NewInnovationRegistry()
	rng := newTestRand(2)
	g := NewGenome(1, 3, 2, true, reg, rng)
	for i := 0; i < 5; i++ {
		g.MutateAddNode(reg, rng)
	}
	before := g.Size()

	config := DefaultConfig().Genome
	config.RemoveLinkRate = 1
	config.RemoveNodeRate = 1
	config.WeightMutationRate = -1

	applied := Mutate([]*Genome{g}, PruningOperators(&config), reg, rng)
	require.NoError(t, g.Verify())
	assert.Equal(t, 1, applied["remove_link"])
	assert.Less(t, g.Size(), before)
	assert.NotContains(t, applied, "weight")
}

func TestWeightOperatorSkipsEmptyGenomes(t *testing.T) {
	config := DefaultConfig().Genome
	op := weightOperator(&config)
	g := newLinklessGenome(t, 1, 2, 1)
	assert.False(t, op.Apply(g, nil, newTestRand(1)))
}
