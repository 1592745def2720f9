package neat

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// probabilityFloor clips predicted probabilities away from 0 and 1 before taking logs.
const probabilityFloor = 1e-10

// FitnessFunction is the closed set of scoring strategies a run can use.
type FitnessFunction string

const (
	RMSE         FitnessFunction = "rmse"
	LogLoss      FitnessFunction = "logloss"
	MultiLogLoss FitnessFunction = "multilogloss"
	Accuracy     FitnessFunction = "accuracy"
)

func (f FitnessFunction) valid() bool {
	switch f {
	case RMSE, LogLoss, MultiLogLoss, Accuracy:
		return true
	}
	return false
}

// Maximize reports whether larger scores are better.
func (f FitnessFunction) Maximize() bool {
	return f == Accuracy
}

// Score compares predictions (one row per dataset row) with the ideal rows of ds.
// It returns NaN for an empty dataset and when a prediction row is shorter
// than its ideal row.
func (f FitnessFunction) Score(ds Dataset, predictions [][]float64) float64 {
	rows := ds.NumRows()
	if rows == 0 || len(predictions) < rows {
		return math.NaN()
	}
	for i := 0; i < rows; i++ {
		if len(predictions[i]) < len(ds.IdealRow(i)) {
			return math.NaN()
		}
	}
	switch f {
	case RMSE:
		sum, n := 0.0, 0
		for i := 0; i < rows; i++ {
			ideal := ds.IdealRow(i)
			for k, y := range ideal {
				d := predictions[i][k] - y
				sum += d * d
				n++
			}
		}
		return math.Sqrt(sum / float64(n))
	case LogLoss:
		sum, n := 0.0, 0
		for i := 0; i < rows; i++ {
			ideal := ds.IdealRow(i)
			for k, y := range ideal {
				p := clamp(predictions[i][k], probabilityFloor, 1-probabilityFloor)
				sum += y*math.Log(p) + (1-y)*math.Log(1-p)
				n++
			}
		}
		return -sum / float64(n)
	case MultiLogLoss:
		sum := 0.0
		for i := 0; i < rows; i++ {
			ideal := ds.IdealRow(i)
			for k, y := range ideal {
				if y == 0 {
					continue
				}
				sum += y * math.Log(clamp(predictions[i][k], probabilityFloor, 1))
			}
		}
		return -sum / float64(rows)
	case Accuracy:
		hits := 0
		for i := 0; i < rows; i++ {
			ideal := ds.IdealRow(i)
			if len(ideal) == 1 {
				if math.Round(clamp(predictions[i][0], 0, 1)) == math.Round(ideal[0]) {
					hits++
				}
				continue
			}
			if floats.MaxIdx(predictions[i][:len(ideal)]) == floats.MaxIdx(ideal) {
				hits++
			}
		}
		return float64(hits) / float64(rows)
	}
	return math.NaN()
}
