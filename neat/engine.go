package neat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// pruneStallRounds ends a pruning phase once mean complexity has not dropped
// for this many consecutive rounds.
const pruneStallRounds = 3

// Engine drives a population for a fixed number of rounds. Besides the
// generation loop it scores the best genome on a test set, switches between
// growing and pruning phases to keep mean complexity in check, and records
// run data.
type Engine struct {
	Config     *Config
	Population *Population
	Evaluator  Evaluator
	Train      Dataset
	Test       Dataset // optional
	Monitor    *FitnessMonitor
	RunData    *RunData
	Logger     *slog.Logger

	pruning    bool
	baseline   float64 // mean complexity when the last growing phase began
	lowest     float64 // lowest mean complexity of the current pruning phase
	pruneStall int
}

// NewEngine creates a population from config and wires it to the evaluator
// and datasets. test may be nil.
func NewEngine(config *Config, eval Evaluator, train, test Dataset) (*Engine, error) {
	if eval == nil || train == nil {
		return nil, errors.New("engine requires an evaluator and a training dataset")
	}
	pop, err := NewPopulation(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create population: %w", err)
	}
	return NewEngineWithPopulation(pop, eval, train, test), nil
}

// NewEngineWithPopulation wires an existing population into an engine.
func NewEngineWithPopulation(pop *Population, eval Evaluator, train, test Dataset) *Engine {
	return &Engine{
		Config:     pop.Config,
		Population: pop,
		Evaluator:  eval,
		Train:      train,
		Test:       test,
		Monitor:    NewFitnessMonitor(&pop.Config.Neat),
		RunData:    NewRunData(),
		Logger:     pop.Logger,
		baseline:   pop.MeanComplexity(),
	}
}

// Pruning reports whether the engine is in a pruning phase.
func (e *Engine) Pruning() bool { return e.pruning }

// Run executes rounds until the round limit is reached or ctx is done, and
// returns the best training genome found. Fitness stagnation is reported but
// never ends the run.
func (e *Engine) Run(ctx context.Context) (*Genome, error) {
	e.Logger.Info("run started",
		"run", e.RunData.RunID,
		"pop_size", e.Config.Neat.PopSize,
		"rounds", e.Config.Neat.RoundLimit,
		"fitness", e.Config.Neat.FitnessFunction)
	for e.Population.Generation < e.Config.Neat.RoundLimit {
		if err := ctx.Err(); err != nil {
			return e.Monitor.BestTrain, err
		}
		if _, err := e.Step(); err != nil {
			return e.Monitor.BestTrain, err
		}
	}
	e.Logger.Info("run finished",
		"run", e.RunData.RunID,
		"rounds", e.Population.Generation,
		"best_fitness", bestFitness(e.Monitor.BestTrain),
		"innovations", e.Population.Innovations.Count())
	return e.Monitor.BestTrain, nil
}

// Step runs one round and returns its record.
func (e *Engine) Step() (*RoundRecord, error) {
	pop := e.Population
	var (
		best *Genome
		err  error
	)
	if e.pruning {
		best, err = pop.RunPruningGeneration(e.Evaluator, e.Train)
	} else {
		best, err = pop.RunGeneration(e.Evaluator, e.Train)
	}
	if err != nil {
		return nil, err
	}
	round := pop.Generation
	e.Monitor.ObserveTraining(best)

	bestTest := math.NaN()
	if e.Test != nil && e.Config.Neat.TestDelay > 0 && round%e.Config.Neat.TestDelay == 0 && best != nil {
		score, err := e.Evaluator.Evaluate(best, e.Test)
		if err != nil {
			return nil, fmt.Errorf("test evaluation failed in round %d: %w", round, err)
		}
		best.TestFitness = score
		e.Monitor.ObserveTest(best)
	}
	if e.Monitor.BestTest != nil {
		bestTest = e.Monitor.BestTest.TestFitness
	}

	complexity := pop.MeanComplexity()
	e.controlComplexity(complexity)

	e.RunData.Add(RoundRecord{
		Round:          round,
		SpeciesCount:   len(pop.SpeciesSet.Species),
		BestFitness:    bestFitness(best),
		BestTest:       bestTest,
		Threshold:      pop.SpeciesSet.Threshold,
		MeanComplexity: complexity,
		MovingAverage:  e.Monitor.MovingAverage(),
		Pruning:        e.pruning,
	})
	rec := e.RunData.Last()

	if d := e.Config.Neat.ConsoleDelay; d > 0 && round%d == 0 {
		e.Logger.Info("round",
			"round", round,
			"species", rec.SpeciesCount,
			"best", rec.BestFitness,
			"best_test", rec.BestTest,
			"threshold", rec.Threshold,
			"complexity", rec.MeanComplexity,
			"pruning", rec.Pruning,
			"train_stagnant", e.Monitor.TrainingStagnant(),
			"test_stagnant", e.Monitor.TestStagnant())
	}
	return rec, nil
}

// controlComplexity enters a pruning phase when mean complexity exceeds the
// baseline by the configured threshold while training fitness stagnates, and
// leaves it once complexity stops dropping.
func (e *Engine) controlComplexity(complexity float64) {
	threshold := e.Config.Neat.ComplexityThreshold
	if threshold <= 0 {
		return
	}
	if !e.pruning {
		if complexity > e.baseline+threshold && e.Monitor.TrainingStagnant() {
			e.pruning = true
			e.lowest = complexity
			e.pruneStall = 0
			e.Logger.Info("pruning phase started", "round", e.Population.Generation, "complexity", complexity, "baseline", e.baseline)
		}
		return
	}
	if complexity < e.lowest {
		e.lowest = complexity
		e.pruneStall = 0
		return
	}
	e.pruneStall++
	if e.pruneStall >= pruneStallRounds {
		e.pruning = false
		e.baseline = complexity
		e.Monitor.TrainStagnation = 0
		e.Logger.Info("pruning phase ended", "round", e.Population.Generation, "complexity", complexity)
	}
}

func bestFitness(g *Genome) float64 {
	if g == nil {
		return math.NaN()
	}
	return g.Fitness
}
