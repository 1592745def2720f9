package neat

import "math/rand"

// Dataset is a table of input rows and their ideal output rows.
type Dataset interface {
	NumRows() int
	InputRow(i int) []float64
	IdealRow(i int) []float64
}

// Resampler is implemented by datasets that change between generations.
// Resample is called once per generation before evaluation.
type Resampler interface {
	Resample(generation int, rng *rand.Rand)
}

// Evaluator scores one genome on a dataset. Implementations must not modify
// the genome and must be safe for concurrent use.
type Evaluator interface {
	Evaluate(g *Genome, ds Dataset) (float64, error)
}

// EvaluatorFunc adapts an ordinary function to the Evaluator interface.
type EvaluatorFunc func(g *Genome, ds Dataset) (float64, error)

// Evaluate calls f(g, ds).
func (f EvaluatorFunc) Evaluate(g *Genome, ds Dataset) (float64, error) {
	return f(g, ds)
}
