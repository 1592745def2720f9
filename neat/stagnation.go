package neat

import (
	"gonum.org/v1/gonum/stat"
)

// movingAverageWindow is the number of rounds averaged by FitnessMonitor.MovingAverage.
const movingAverageWindow = 100

// FitnessMonitor tracks the best training and test genomes of a run and
// counts the rounds since either improved by more than Delta. The
// stagnation flags are informational; the run stops only at its round limit.
type FitnessMonitor struct {
	Maximize bool
	Delta    float64
	Patience int

	BestTrain       *Genome // copy of the best genome on the training set
	BestTest        *Genome // copy of the best genome on the test set
	TrainStagnation int
	TestStagnation  int

	history []float64
}

// NewFitnessMonitor creates a monitor for the configured fitness function.
func NewFitnessMonitor(config *NeatConfig) *FitnessMonitor {
	return &FitnessMonitor{
		Maximize: config.Maximize(),
		Delta:    config.FitnessDelta,
		Patience: config.StagnationRounds,
	}
}

// improves reports whether candidate beats current by more than Delta.
func (m *FitnessMonitor) improves(candidate, current float64) bool {
	if m.Maximize {
		return candidate > current+m.Delta
	}
	return candidate < current-m.Delta
}

// ObserveTraining records the round's best training genome and reports
// whether it improved on the best seen so far.
func (m *FitnessMonitor) ObserveTraining(g *Genome) bool {
	if g == nil {
		return false
	}
	m.history = append(m.history, g.Fitness)
	if len(m.history) > movingAverageWindow {
		m.history = m.history[len(m.history)-movingAverageWindow:]
	}
	if m.BestTrain == nil || m.improves(g.Fitness, m.BestTrain.Fitness) {
		m.BestTrain = g.Copy(g.ID)
		m.TrainStagnation = 0
		return true
	}
	if m.better(g.Fitness, m.BestTrain.Fitness) {
		m.BestTrain = g.Copy(g.ID)
	}
	m.TrainStagnation++
	return false
}

// ObserveTest records a genome whose TestFitness has been set and reports
// whether it improved on the best test fitness so far.
func (m *FitnessMonitor) ObserveTest(g *Genome) bool {
	if g == nil {
		return false
	}
	if m.BestTest == nil || m.improves(g.TestFitness, m.BestTest.TestFitness) {
		m.BestTest = g.Copy(g.ID)
		m.TestStagnation = 0
		return true
	}
	m.TestStagnation++
	return false
}

// better reports a strict improvement without the Delta margin.
func (m *FitnessMonitor) better(candidate, current float64) bool {
	if m.Maximize {
		return candidate > current
	}
	return candidate < current
}

// TrainingStagnant reports whether training fitness has not improved for Patience rounds.
func (m *FitnessMonitor) TrainingStagnant() bool {
	return m.TrainStagnation >= m.Patience
}

// TestStagnant reports whether test fitness has not improved for Patience observations.
func (m *FitnessMonitor) TestStagnant() bool {
	return m.BestTest != nil && m.TestStagnation >= m.Patience
}

// MovingAverage returns the mean best training fitness over the last 100 rounds.
func (m *FitnessMonitor) MovingAverage() float64 {
	if len(m.history) == 0 {
		return 0
	}
	return stat.Mean(m.history, nil)
}
