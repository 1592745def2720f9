package neat

import (
	"bytes"
	"context"
	"math"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, config *Config, eval Evaluator, test Dataset) *Engine {
	t.Helper()
	e, err := NewEngine(config, eval, xorDataset(), test)
	require.NoError(t, err)
	e.Population.SetLogger(discardLogger)
	e.Logger = discardLogger
	return e
}

func TestNewEngineRequiresEvaluatorAndData(t *testing.T) {
	_, err := NewEngine(testConfig(), nil, xorDataset(), nil)
	assert.Error(t, err)
	_, err = NewEngine(testConfig(), weightSum, nil, nil)
	assert.Error(t, err)

	bad := testConfig()
	bad.Genome.NumInputs = 0
	_, err = NewEngine(bad, weightSum, xorDataset(), nil)
	assert.Error(t, err)
}

func TestEngineRunStopsAtRoundLimit(t *testing.T) {
	e := newTestEngine(t, testConfig(), weightSum, nil)
	best, err := e.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, best)

	assert.Equal(t, 5, e.Population.Generation)
	require.Len(t, e.RunData.Records, 5)
	for i, rec := range e.RunData.Records {
		assert.Equal(t, i+1, rec.Round)
		assert.Equal(t, e.RunData.RunID, rec.RunID)
		assert.True(t, math.IsNaN(rec.BestTest), "no test set")
		assert.Positive(t, rec.SpeciesCount)
		assert.GreaterOrEqual(t, rec.BestFitness, best.Fitness, "the returned genome is the best seen")
	}

	var buf bytes.Buffer
	require.NoError(t, e.RunData.WriteCSV(&buf))
	assert.Len(t, strings.Split(strings.TrimSpace(buf.String()), "\n"), 6)
}

func TestEngineEvaluatesTestSetEveryTestDelay(t *testing.T) {
	config := testConfig()
	config.Neat.TestDelay = 2
	test := &sliceDataset{inputs: [][]float64{{0, 0}}, ideals: [][]float64{{0}}}

	var testCalls atomic.Int32
	eval := EvaluatorFunc(func(g *Genome, ds Dataset) (float64, error) {
		if ds == Dataset(test) {
			testCalls.Add(1)
			return 0.5, nil
		}
		return weightSum(g, ds)
	})
	e := newTestEngine(t, config, eval, test)
	_, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), testCalls.Load(), "rounds 2 and 4")
	recs := e.RunData.Records
	assert.True(t, math.IsNaN(recs[0].BestTest))
	assert.Equal(t, 0.5, recs[1].BestTest)
	assert.Equal(t, 0.5, recs[4].BestTest)
	require.NotNil(t, e.Monitor.BestTest)
}

func TestEngineRunHonorsContext(t *testing.T) {
	e := newTestEngine(t, testConfig(), weightSum, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, e.RunData.Records)
}

func TestEngineComplexityControl(t *testing.T) {
	config := testConfig()
	config.Neat.ComplexityThreshold = 1
	e := newTestEngine(t, config, weightSum, nil)
	e.baseline = 5

	e.controlComplexity(7)
	assert.False(t, e.Pruning(), "fitness is still improving")

	e.Monitor.TrainStagnation = config.Neat.StagnationRounds
	e.controlComplexity(5.5)
	assert.False(t, e.Pruning(), "within the threshold")
	e.controlComplexity(7)
	require.True(t, e.Pruning())

	e.controlComplexity(6)
	for i := 0; i < pruneStallRounds-1; i++ {
		e.controlComplexity(6)
		assert.True(t, e.Pruning())
	}
	e.controlComplexity(6.5)
	assert.False(t, e.Pruning())
	assert.Equal(t, 6.5, e.baseline)
	assert.Zero(t, e.Monitor.TrainStagnation)
}

func TestEngineStepRunsPruningGeneration(t *testing.T) {
	e := newTestEngine(t, testConfig(), weightSum, nil)
	e.pruning = true
	rec, err := e.Step()
	require.NoError(t, err)
	assert.True(t, rec.Pruning)
}
