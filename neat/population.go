package neat

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"runtime"
	"time"

	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrExtinct is returned when a generation leaves no genomes to evaluate.
var ErrExtinct = errors.New("population extinct")

// Population holds the state of one evolutionary run. The innovation
// registry, the compatibility threshold (inside SpeciesSet) and the random
// source all belong to the population, so independent runs never share state.
type Population struct {
	Config       *Config
	Genomes      []*Genome // genomes to be evaluated next
	Elites       []*Genome // elites reintroduced at the end of the last generation
	SpeciesSet   *SpeciesSet
	Reproduction *Reproduction
	Innovations  *InnovationRegistry
	Rand         *rand.Rand
	Generation   int
	Best         *Genome // best genome of the last evaluated generation
	Logger       *slog.Logger
}

// NewPopulation validates the config and creates the first generation.
func NewPopulation(config *Config) (*Population, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	seed := config.Neat.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewPopulationWithRand(config, rand.New(rand.NewSource(seed)))
}

// NewPopulationWithRand creates the first generation using rng for every
// random decision of the run.
func NewPopulationWithRand(config *Config, rng *rand.Rand) (*Population, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	reg := NewInnovationRegistry()
	reproduction := NewReproduction(&config.Reproduction, &config.Genome)
	p := &Population{
		Config:       config,
		SpeciesSet:   NewSpeciesSet(&config.SpeciesSet, &config.Stagnation),
		Reproduction: reproduction,
		Innovations:  reg,
		Rand:         rng,
		Logger:       slog.Default(),
	}
	p.Genomes = reproduction.CreateNewPopulation(reg, rng, config.Neat.PopSize)
	return p, nil
}

// SetLogger replaces the logger of the population and its species set.
func (p *Population) SetLogger(logger *slog.Logger) {
	p.Logger = logger
	p.SpeciesSet.Logger = logger
}

// TargetSize is the number of offspring each generation produces, before elites.
func (p *Population) TargetSize() int {
	return p.Config.Neat.PopSize
}

// RunGeneration executes one generation: speciate, evaluate, save elites,
// allocate offspring, reproduce by crossover, correct the size, mutate with
// the evolving operators and reintroduce the elites. It returns the best
// genome of the evaluated generation.
func (p *Population) RunGeneration(eval Evaluator, ds Dataset) (*Genome, error) {
	return p.runGeneration(eval, ds, false)
}

// RunPruningGeneration is RunGeneration with asexual reproduction and the
// pruning operators, used to shrink the population's genomes.
func (p *Population) RunPruningGeneration(eval Evaluator, ds Dataset) (*Genome, error) {
	return p.runGeneration(eval, ds, true)
}

func (p *Population) runGeneration(eval Evaluator, ds Dataset, pruning bool) (*Genome, error) {
	if len(p.Genomes) == 0 {
		return nil, ErrExtinct
	}
	p.Generation++
	start := time.Now()

	if r, ok := ds.(Resampler); ok {
		r.Resample(p.Generation, p.Rand)
	}

	// a. speciate
	p.SpeciesSet.Speciate(p.Genomes)

	// b. evaluate
	if err := p.Evaluate(eval, ds); err != nil {
		return nil, err
	}
	p.AdjustFitness()
	p.Best = p.bestAdjusted()
	summary := Summarize(RawFitnesses(p.Genomes))
	target := p.TargetSize()

	// c. elites
	elites := p.Reproduction.SaveElites(p.Genomes, p.SpeciesSet, target)

	// d, e. allocate and reproduce
	p.SpeciesSet.AssignMatingProportions()
	var offspring []*Genome
	if pruning {
		offspring = p.Reproduction.ReproduceAsexual(p.SpeciesSet, target, p.Rand)
	} else {
		offspring = p.Reproduction.Reproduce(p.SpeciesSet, target, p.Rand)
	}
	if len(offspring) == 0 && p.Best != nil {
		p.Logger.Warn("no species produced offspring, restarting from the best genome", "generation", p.Generation)
		offspring = []*Genome{Clone(p.Best, p.Reproduction.getNextKey())}
	}

	// f. correct size
	offspring = p.Reproduction.CorrectSize(offspring, target, p.Rand)
	if len(offspring) == 0 {
		return nil, fmt.Errorf("generation %d: %w", p.Generation, ErrExtinct)
	}

	// g. mutate
	ops := EvolvingOperators(&p.Config.Genome)
	if pruning {
		ops = PruningOperators(&p.Config.Genome)
	}
	applied := Mutate(offspring, ops, p.Innovations, p.Rand)

	// h. reintroduce elites
	p.Elites = elites
	p.Genomes = append(offspring, elites...)

	p.Logger.Debug("generation complete",
		"generation", p.Generation,
		"pruning", pruning,
		"species", len(p.SpeciesSet.Species),
		"fitness_mean", summary.Mean,
		"fitness_stdev", summary.Stdev,
		"threshold", p.SpeciesSet.Threshold,
		"elites", len(elites),
		"mutations", applied,
		"innovations", p.Innovations.Count(),
		"elapsed", time.Since(start))
	return p.Best, nil
}

// Evaluate scores every genome in parallel. Each task writes only its own
// genome's Fitness.
func (p *Population) Evaluate(eval Evaluator, ds Dataset) error {
	workers := p.Config.Neat.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	pl := pool.New().WithMaxGoroutines(workers).WithErrors()
	for _, g := range p.Genomes {
		g := g
		pl.Go(func() error {
			f, err := eval.Evaluate(g, ds)
			if err != nil {
				return fmt.Errorf("genome %d: %w", g.ID, err)
			}
			g.Fitness = f
			return nil
		})
	}
	if err := pl.Wait(); err != nil {
		return fmt.Errorf("fitness evaluation failed in generation %d: %w", p.Generation, err)
	}
	return nil
}

// AdjustFitness sets AdjustedFitness = |worst - raw| so larger is always
// better. Non-finite raw scores are replaced by the worst finite score.
func (p *Population) AdjustFitness() {
	maximize := p.Config.Neat.Maximize()
	finite := make([]float64, 0, len(p.Genomes))
	for _, g := range p.Genomes {
		if !math.IsNaN(g.Fitness) && !math.IsInf(g.Fitness, 0) {
			finite = append(finite, g.Fitness)
		}
	}
	if len(finite) == 0 {
		p.Logger.Warn("no finite fitness values", "generation", p.Generation)
		for _, g := range p.Genomes {
			g.AdjustedFitness = 0
		}
		return
	}
	worst := floats.Max(finite)
	if maximize {
		worst = floats.Min(finite)
	}
	for _, g := range p.Genomes {
		if math.IsNaN(g.Fitness) || math.IsInf(g.Fitness, 0) {
			p.Logger.Warn("non-finite fitness", "genome", g.ID, "fitness", g.Fitness, "generation", p.Generation)
			g.Fitness = worst
		}
		g.AdjustedFitness = math.Abs(worst - g.Fitness)
	}
}

func (p *Population) bestAdjusted() *Genome {
	var best *Genome
	for _, g := range p.Genomes {
		if best == nil || g.AdjustedFitness > best.AdjustedFitness {
			best = g
		}
	}
	return best
}

// MeanComplexity returns the mean Size of the current genomes.
func (p *Population) MeanComplexity() float64 {
	if len(p.Genomes) == 0 {
		return 0
	}
	sizes := make([]float64, len(p.Genomes))
	for i, g := range p.Genomes {
		sizes[i] = float64(g.Size())
	}
	return stat.Mean(sizes, nil)
}
