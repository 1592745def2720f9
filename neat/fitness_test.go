package neat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// sliceDataset is a fixed in-memory Dataset.
type sliceDataset struct {
	inputs, ideals [][]float64
}

func (d *sliceDataset) NumRows() int { return len(d.inputs) }
func (d *sliceDataset) InputRow(i int) []float64 { return d.inputs[i] }
func (d *sliceDataset) IdealRow(i int) []float64 { return d.ideals[i] }

func xorDataset() *sliceDataset {
	return &sliceDataset{
		inputs: [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}},
		ideals: [][]float64{{0}, {1}, {1}, {0}},
	}
}

func TestScoreRMSE(t *testing.T) {
	ds := xorDataset()
	assert.Equal(t, 0.0, RMSE.Score(ds, [][]float64{{0}, {1}, {1}, {0}}))
	assert.InDelta(t, 0.5, RMSE.Score(ds, [][]float64{{0.5}, {0.5}, {0.5}, {0.5}}), 1e-12)
	assert.InDelta(t, math.Sqrt(0.25), RMSE.Score(ds, [][]float64{{1}, {1}, {1}, {0}}), 1e-12)
}

func TestScoreLogLoss(t *testing.T) {
	ds := xorDataset()
	assert.InDelta(t, math.Log(2), LogLoss.Score(ds, [][]float64{{0.5}, {0.5}, {0.5}, {0.5}}), 1e-12)

	perfect := LogLoss.Score(ds, [][]float64{{0}, {1}, {1}, {0}})
	assert.InDelta(t, 0, perfect, 1e-9, "probabilities are clipped before the log")

	wrong := LogLoss.Score(ds, [][]float64{{1}, {0}, {0}, {1}})
	assert.False(t, math.IsInf(wrong, 0))
	assert.InDelta(t, -math.Log(1e-10), wrong, 1e-6)
}

func TestScoreMultiLogLoss(t *testing.T) {
	ds := &sliceDataset{
		inputs: [][]float64{{0}, {1}},
		ideals: [][]float64{{1, 0, 0}, {0, 0, 1}},
	}
	preds := [][]float64{{0.5, 0.25, 0.25}, {0.1, 0.1, 0.8}}
	want := -(math.Log(0.5) + math.Log(0.8)) / 2
	assert.InDelta(t, want, MultiLogLoss.Score(ds, preds), 1e-12)
}

func TestScoreAccuracy(t *testing.T) {
	ds := xorDataset()
	assert.Equal(t, 1.0, Accuracy.Score(ds, [][]float64{{0.2}, {0.7}, {0.9}, {0.4}}))
	assert.Equal(t, 0.75, Accuracy.Score(ds, [][]float64{{0.2}, {0.7}, {0.9}, {0.6}}))

	multi := &sliceDataset{
		inputs: [][]float64{{0}, {1}},
		ideals: [][]float64{{0, 1, 0}, {1, 0, 0}},
	}
	assert.Equal(t, 0.5, Accuracy.Score(multi, [][]float64{{0.1, 0.8, 0.1}, {0.3, 0.6, 0.1}}))
}

func TestScoreEmptyDataset(t *testing.T) {
	for _, f := range []FitnessFunction{RMSE, LogLoss, MultiLogLoss, Accuracy} {
		assert.True(t, math.IsNaN(f.Score(&sliceDataset{}, nil)), string(f))
	}
	assert.True(t, math.IsNaN(RMSE.Score(xorDataset(), [][]float64{{0}})), "too few predictions")
}

func TestScoreShortPredictionRow(t *testing.T) {
	ds := &sliceDataset{
		inputs: [][]float64{{0}, {1}},
		ideals: [][]float64{{1, 0, 0}, {0, 0, 1}},
	}
	preds := [][]float64{{0.5, 0.25, 0.25}, {0.1}}
	for _, f := range []FitnessFunction{RMSE, LogLoss, MultiLogLoss, Accuracy} {
		assert.NotPanics(t, func() {
			assert.True(t, math.IsNaN(f.Score(ds, preds)), string(f))
		})
	}
}

func TestFitnessDirection(t *testing.T) {
	assert.True(t, Accuracy.Maximize())
	assert.False(t, RMSE.Maximize())
	assert.False(t, LogLoss.Maximize())
	assert.False(t, MultiLogLoss.Maximize())
	assert.False(t, FitnessFunction("mae").valid())
}
