package neat

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// minEliteSpeciesSize is the smallest species that contributes an elite in
// per-species elite mode.
const minEliteSpeciesSize = 5

// Species represents a group of genetically similar genomes.
type Species struct {
	ID               int
	Created          int       // generation the species appeared in
	Representative   *Genome   // fittest member of the previous generation
	Members          []*Genome // current members, in assignment order
	MatingProportion float64
	AverageAdjusted  float64
	Stagnation       int     // generations without improvement
	BestAdjusted     float64 // best adjusted fitness seen so far
}

// NewSpecies creates a species with g as its representative and only member.
func NewSpecies(id, generation int, g *Genome) *Species {
	return &Species{
		ID:             id,
		Created:        generation,
		Representative: g,
		Members:        []*Genome{g},
	}
}

// Best returns the member with the highest adjusted fitness, or nil.
func (s *Species) Best() *Genome {
	var best *Genome
	for _, g := range s.Members {
		if best == nil || g.AdjustedFitness > best.AdjustedFitness {
			best = g
		}
	}
	return best
}

// AdjustedFitnesses returns the adjusted fitness values of all members.
func (s *Species) AdjustedFitnesses() []float64 {
	values := make([]float64, len(s.Members))
	for i, g := range s.Members {
		values[i] = g.AdjustedFitness
	}
	return values
}

// SortMembers orders members by adjusted fitness, best first. Ties keep the
// lower genome id first.
func (s *Species) SortMembers() {
	sort.SliceStable(s.Members, func(i, j int) bool {
		if s.Members[i].AdjustedFitness != s.Members[j].AdjustedFitness {
			return s.Members[i].AdjustedFitness > s.Members[j].AdjustedFitness
		}
		return s.Members[i].ID < s.Members[j].ID
	})
}

// --------------------------- SpeciesSet ---------------------------

// SpeciesSet manages the collection of species within a population and owns
// the compatibility threshold.
type SpeciesSet struct {
	Species    map[int]*Species
	Threshold  float64
	Generation int
	Logger     *slog.Logger

	order   []int // species ids in registration order
	nextID  int
	metric  Compatibility
	config  *SpeciesSetConfig
	dropAge int
}

// NewSpeciesSet creates a new species set manager.
func NewSpeciesSet(config *SpeciesSetConfig, stagnation *StagnationConfig) *SpeciesSet {
	return &SpeciesSet{
		Species:   make(map[int]*Species),
		Threshold: config.CompatibilityThreshold,
		Logger:    slog.Default(),
		metric:    NewCompatibility(config),
		config:    config,
		dropAge:   stagnation.SpeciesDropAge,
	}
}

// Ordered returns the live species in registration order.
func (ss *SpeciesSet) Ordered() []*Species {
	out := make([]*Species, 0, len(ss.order))
	for _, id := range ss.order {
		if s, ok := ss.Species[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Distance exposes the compatibility metric used for assignment.
func (ss *SpeciesSet) Distance(a, b *Genome) float64 {
	return ss.metric.Distance(a, b)
}

// Speciate runs Prepare, Assign for every genome in order, and Postprocess.
func (ss *SpeciesSet) Speciate(genomes []*Genome) {
	ss.Prepare()
	for _, g := range genomes {
		ss.Assign(g)
	}
	ss.Postprocess()
}

// Prepare updates stagnation counters from the previous generation's members,
// promotes each species' fittest member to representative and clears the
// member lists.
func (ss *SpeciesSet) Prepare() {
	ss.Generation++
	for _, s := range ss.Ordered() {
		if best := s.Best(); best != nil {
			if best.AdjustedFitness > s.BestAdjusted {
				s.BestAdjusted = best.AdjustedFitness
				s.Stagnation = 0
			} else {
				s.Stagnation++
			}
			s.Representative = best
		}
		s.Members = nil
	}
}

// Assign places g in its previous species if it is still compatible, else in
// the first compatible species in registration order, else in a new species.
func (ss *SpeciesSet) Assign(g *Genome) {
	if s, ok := ss.Species[g.SpeciesID]; ok && ss.metric.Distance(s.Representative, g) < ss.Threshold {
		s.Members = append(s.Members, g)
		return
	}
	for _, s := range ss.Ordered() {
		if s.ID == g.SpeciesID {
			continue
		}
		if ss.metric.Distance(s.Representative, g) < ss.Threshold {
			g.SpeciesID = s.ID
			s.Members = append(s.Members, g)
			return
		}
	}
	s := NewSpecies(ss.nextID, ss.Generation, g)
	ss.nextID++
	g.SpeciesID = s.ID
	ss.Species[s.ID] = s
	ss.order = append(ss.order, s.ID)
	ss.Logger.Debug("created species", "species", s.ID, "representative", g.ID, "generation", ss.Generation)
}

// Postprocess moves the compatibility threshold so the species count moves
// toward the target, and drops empty or stagnant species. Genomes join a
// species only below the threshold, so lowering it yields more species.
func (ss *SpeciesSet) Postprocess() {
	populated, fresh := 0, 0
	for _, s := range ss.Species {
		if len(s.Members) > 0 {
			populated++
			if s.Stagnation < ss.dropAge {
				fresh++
			}
		}
	}
	if target := ss.config.SpeciesTarget; target > 0 {
		step := ss.config.ThresholdAdjustment
		switch {
		case populated < target:
			ss.Threshold -= step
		case populated > target:
			ss.Threshold += step
		}
		if ss.Threshold < step {
			ss.Threshold = step
		}
	}

	live := ss.order[:0]
	for _, id := range ss.order {
		s, ok := ss.Species[id]
		if !ok {
			continue
		}
		if len(s.Members) == 0 {
			delete(ss.Species, id)
			ss.Logger.Debug("species emptied", "species", id, "generation", ss.Generation)
			continue
		}
		// A population made only of stagnant species keeps them all.
		if s.Stagnation >= ss.dropAge && fresh > 0 {
			delete(ss.Species, id)
			for _, g := range s.Members {
				g.SpeciesID = NoSpecies
			}
			ss.Logger.Debug("species stagnated", "species", id, "rounds", s.Stagnation, "generation", ss.Generation)
			continue
		}
		live = append(live, id)
	}
	ss.order = live
}

// Remove drops a species. Its members keep their species id until the next
// speciation places them elsewhere.
func (ss *SpeciesSet) Remove(id int) {
	if _, ok := ss.Species[id]; !ok {
		return
	}
	delete(ss.Species, id)
	ss.Logger.Debug("species removed", "species", id, "generation", ss.Generation)
}

// AssignMatingProportions sets each species' share of the next generation
// from its average adjusted fitness. When every average is zero the shares
// are equal.
func (ss *SpeciesSet) AssignMatingProportions() {
	species := ss.Ordered()
	if len(species) == 0 {
		return
	}
	total := 0.0
	for _, s := range species {
		s.AverageAdjusted = stat.Mean(s.AdjustedFitnesses(), nil)
		total += s.AverageAdjusted
	}
	for _, s := range species {
		if total > 0 {
			s.MatingProportion = s.AverageAdjusted / total
		} else {
			s.MatingProportion = 1 / float64(len(species))
		}
	}
}

// Offspring returns floor(share * target) for the given species.
func (s *Species) Offspring(target int) int {
	return int(s.MatingProportion * float64(target))
}

// Elites returns a copy of the best member of every species with at least
// five members. newID supplies genome ids for the copies.
func (ss *SpeciesSet) Elites(newID func() int) []*Genome {
	var elites []*Genome
	for _, s := range ss.Ordered() {
		if len(s.Members) < minEliteSpeciesSize {
			continue
		}
		elites = append(elites, s.Best().Copy(newID()))
	}
	return elites
}
