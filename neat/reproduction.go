package neat

import (
	"math/rand"
	"sort"
)

// minMatingPool is the smallest truncated pool crossover draws parents from.
const minMatingPool = 2

// Reproduction handles the creation of new genomes, either from scratch or
// from the species of the previous generation.
type Reproduction struct {
	Config        *ReproductionConfig
	GenomeConfig  *GenomeConfig
	NextGenomeKey int           // State for the next genome key
	Ancestors     map[int][]int // genome id -> parent ids, for the latest generation
}

// NewReproduction creates a new reproduction manager.
func NewReproduction(config *ReproductionConfig, genomeConfig *GenomeConfig) *Reproduction {
	return &Reproduction{
		Config:        config,
		GenomeConfig:  genomeConfig,
		NextGenomeKey: 1,
		Ancestors:     make(map[int][]int),
	}
}

// getNextKey gets the next available genome key and increments the internal counter.
func (r *Reproduction) getNextKey() int {
	key := r.NextGenomeKey
	r.NextGenomeKey++
	return key
}

// CreateNewPopulation creates an initial population of genomes.
func (r *Reproduction) CreateNewPopulation(reg *InnovationRegistry, rng *rand.Rand, size int) []*Genome {
	genomes := make([]*Genome, 0, size)
	for i := 0; i < size; i++ {
		g := NewGenome(r.getNextKey(), r.GenomeConfig.NumInputs, r.GenomeConfig.NumOutputs, r.GenomeConfig.Connected, reg, rng)
		r.Ancestors[g.ID] = nil
		genomes = append(genomes, g)
	}
	return genomes
}

// SaveElites copies the genomes that survive unchanged into the next
// generation: the global top percent by adjusted fitness, or the best member
// of every species with at least five members.
func (r *Reproduction) SaveElites(genomes []*Genome, ss *SpeciesSet, target int) []*Genome {
	if r.Config.EliteMode == SpeciesElites {
		return ss.Elites(r.getNextKey)
	}
	n := int(r.Config.ElitePercent * float64(target))
	if n > len(genomes) {
		n = len(genomes)
	}
	if n == 0 {
		return nil
	}
	ranked := append([]*Genome(nil), genomes...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AdjustedFitness > ranked[j].AdjustedFitness
	})
	elites := make([]*Genome, n)
	for i := range elites {
		elites[i] = ranked[i].Copy(r.getNextKey())
	}
	return elites
}

// matingPool sorts the species and returns its best members, truncated to
// the survival threshold but never below two (or the species size).
func (r *Reproduction) matingPool(s *Species) []*Genome {
	s.SortMembers()
	n := int(float64(len(s.Members)) * r.Config.SurvivalThreshold)
	if n < minMatingPool {
		n = minMatingPool
	}
	if n > len(s.Members) {
		n = len(s.Members)
	}
	return s.Members[:n]
}

// Reproduce builds the offspring of every species. A species allotted no
// offspring is removed; a single-member species is cloned; otherwise parents
// are drawn in distinct pairs from the truncated mating pool.
func (r *Reproduction) Reproduce(ss *SpeciesSet, target int, rng *rand.Rand) []*Genome {
	r.Ancestors = make(map[int][]int)
	var offspring []*Genome
	for _, s := range ss.Ordered() {
		n := s.Offspring(target)
		if n == 0 {
			ss.Remove(s.ID)
			continue
		}
		if len(s.Members) == 1 {
			parent := s.Members[0]
			for i := 0; i < n; i++ {
				child := Clone(parent, r.getNextKey())
				r.Ancestors[child.ID] = []int{parent.ID}
				offspring = append(offspring, child)
			}
			continue
		}
		pool := r.matingPool(s)
		for i := 0; i < n; i++ {
			a := rng.Intn(len(pool))
			b := rng.Intn(len(pool) - 1)
			if b >= a {
				b++
			}
			child := Crossover(pool[a], pool[b], rng, r.GenomeConfig.EnableChance, r.getNextKey())
			r.Ancestors[child.ID] = []int{pool[a].ID, pool[b].ID}
			offspring = append(offspring, child)
		}
	}
	return offspring
}

// ReproduceAsexual builds offspring by cloning members of each species'
// mating pool. It is used while the population is being pruned.
func (r *Reproduction) ReproduceAsexual(ss *SpeciesSet, target int, rng *rand.Rand) []*Genome {
	r.Ancestors = make(map[int][]int)
	var offspring []*Genome
	for _, s := range ss.Ordered() {
		n := s.Offspring(target)
		if n == 0 {
			ss.Remove(s.ID)
			continue
		}
		offspring = append(offspring, Asexual(r.matingPool(s), n, rng, r.getNextKey)...)
	}
	return offspring
}

// CorrectSize duplicates random genomes or culls random genomes until
// exactly target remain. An empty slice is returned unchanged.
func (r *Reproduction) CorrectSize(genomes []*Genome, target int, rng *rand.Rand) []*Genome {
	if len(genomes) == 0 {
		return genomes
	}
	for len(genomes) < target {
		parent := genomes[rng.Intn(len(genomes))]
		child := Clone(parent, r.getNextKey())
		r.Ancestors[child.ID] = []int{parent.ID}
		genomes = append(genomes, child)
	}
	for len(genomes) > target {
		i := rng.Intn(len(genomes))
		delete(r.Ancestors, genomes[i].ID)
		genomes[i] = genomes[len(genomes)-1]
		genomes = genomes[:len(genomes)-1]
	}
	return genomes
}
