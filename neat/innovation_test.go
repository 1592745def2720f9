package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInnovationRegistryAssign(t *testing.T) {
	reg := NewInnovationRegistry()

	pairs := [][2]int{{-1, -3}, {-2, -3}, {-4, -3}, {-1, 0}, {0, -3}}
	ids := make([]int, len(pairs))
	for i, p := range pairs {
		ids[i] = reg.Assign(p[0], p[1])
		assert.Equal(t, i, ids[i], "ids are allocated in request order")
	}

	for i, p := range pairs {
		assert.Equal(t, ids[i], reg.Assign(p[0], p[1]), "repeated request for %v", p)
	}
	assert.Equal(t, len(pairs), reg.Count())

	// Direction matters.
	assert.Equal(t, 5, reg.Assign(-3, -1))
}

func TestInnovationRegistryLookup(t *testing.T) {
	reg := NewInnovationRegistry()
	_, ok := reg.Lookup(-1, -2)
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Count(), "lookup does not allocate")

	id := reg.Assign(-1, -2)
	got, ok := reg.Lookup(-1, -2)
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestInnovationRegistryCloneRestore(t *testing.T) {
	reg := NewInnovationRegistry()
	reg.Assign(-1, -3)
	reg.Assign(-2, -3)
	snapshot := reg.Clone()

	reg.Assign(-1, 0)
	reg.Assign(0, -3)
	assert.Equal(t, 4, reg.Count())
	assert.Equal(t, 2, snapshot.Count(), "clone is independent")

	reg.Restore(snapshot)
	assert.Equal(t, 2, reg.Count())
	_, ok := reg.Lookup(-1, 0)
	assert.False(t, ok)
	assert.Equal(t, 2, reg.Assign(0, -3), "allocation resumes from the snapshot")

	// Restoring must not alias the snapshot.
	assert.Equal(t, 2, snapshot.Count())
}

func TestInnovationRegistriesAreIndependent(t *testing.T) {
	a, b := NewInnovationRegistry(), NewInnovationRegistry()
	a.Assign(-1, -2)
	a.Assign(-2, -3)
	assert.Equal(t, 0, b.Assign(-2, -3))
}
