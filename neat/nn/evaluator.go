package nn

import (
	"fmt"

	"github.com/baldhumanity/dataneat/neat"
)

// Evaluator compiles each genome into a Network, runs it over every dataset
// row and scores the predictions with the configured fitness function. It
// holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	Options    Options
	Evaluation neat.Evaluation
	Fitness    neat.FitnessFunction
}

// NewEvaluator builds an evaluator from a run configuration.
func NewEvaluator(config *neat.Config) *Evaluator {
	return &Evaluator{
		Options:    OptionsFromConfig(&config.Phenotype),
		Evaluation: config.Phenotype.Evaluation,
		Fitness:    config.Neat.FitnessFunction,
	}
}

// Predict returns the network outputs for every row of ds.
func (e *Evaluator) Predict(g *neat.Genome, ds neat.Dataset) ([][]float64, error) {
	net, err := New(g, e.Options)
	if err != nil {
		return nil, err
	}
	activate := net.Activate
	if e.Evaluation == neat.CurrentTimestep {
		activate = net.ActivateCurrent
	}
	predictions := make([][]float64, ds.NumRows())
	for i := range predictions {
		out, err := activate(ds.InputRow(i))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		predictions[i] = out
	}
	return predictions, nil
}

// Evaluate implements neat.Evaluator.
func (e *Evaluator) Evaluate(g *neat.Genome, ds neat.Dataset) (float64, error) {
	predictions, err := e.Predict(g, ds)
	if err != nil {
		return 0, err
	}
	return e.Fitness.Score(ds, predictions), nil
}
