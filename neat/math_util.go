package neat

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// clamp restricts a value to a given range [minVal, maxVal].
func clamp(value, minVal, maxVal float64) float64 {
	return math.Max(minVal, math.Min(value, maxVal))
}

// Summary describes a set of fitness values.
type Summary struct {
	Mean, Stdev, Min, Max float64
}

// Summarize computes the summary of values. The zero Summary is returned for
// an empty slice.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	s := Summary{
		Mean: stat.Mean(values, nil),
		Min:  floats.Min(values),
		Max:  floats.Max(values),
	}
	if len(values) > 1 {
		s.Stdev = stat.StdDev(values, nil)
	}
	return s
}

// RawFitnesses returns the raw fitness of every genome.
func RawFitnesses(genomes []*Genome) []float64 {
	values := make([]float64, len(genomes))
	for i, g := range genomes {
		values[i] = g.Fitness
	}
	return values
}
