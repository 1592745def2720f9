package neat

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
)

// NoSpecies marks a genome that has not been speciated yet.
const NoSpecies = -1

// Genome represents an individual organism in the population.
// Neurons and links are stored in maps keyed by id; links are additionally
// indexed by their endpoints.
type Genome struct {
	ID              int
	Neurons         map[int]*NeuronGene
	Links           map[int]*LinkGene // innovation id -> link
	Fitness         float64           // raw training fitness
	AdjustedFitness float64           // population-relative fitness, higher is better
	TestFitness     float64
	SpeciesID       int

	numInputs  int
	numOutputs int
	ends       map[linkEnds]int
}

func newEmptyGenome(id, numInputs, numOutputs int) *Genome {
	return &Genome{
		ID:         id,
		Neurons:    make(map[int]*NeuronGene),
		Links:      make(map[int]*LinkGene),
		SpeciesID:  NoSpecies,
		numInputs:  numInputs,
		numOutputs: numOutputs,
		ends:       make(map[linkEnds]int),
	}
}

// NewGenome creates a genome with numInputs inputs, numOutputs outputs and a
// bias neuron. When connected is true every input and the bias are linked to
// every output with uniform random weights. Otherwise a single random input
// is linked to a single random output. Innovation ids come from reg.
func NewGenome(id, numInputs, numOutputs int, connected bool, reg *InnovationRegistry, rng *rand.Rand) *Genome {
	g := newEmptyGenome(id, numInputs, numOutputs)

	for i := 0; i < numInputs; i++ {
		x := 0.5
		if numInputs > 1 {
			x = float64(i) / float64(numInputs-1)
		}
		g.Neurons[-(i + 1)] = &NeuronGene{ID: -(i + 1), Type: InputNeuron, SplitX: x}
	}
	for i := 0; i < numOutputs; i++ {
		id := -(numInputs + i + 1)
		g.Neurons[id] = &NeuronGene{ID: id, Type: OutputNeuron, SplitY: 1, SplitX: float64(i) / float64(numOutputs)}
	}
	g.Neurons[g.BiasID()] = &NeuronGene{ID: g.BiasID(), Type: BiasNeuron, SplitX: 1.2}

	if connected {
		for _, out := range g.OutputIDs() {
			for _, in := range g.InputIDs() {
				g.addLink(reg.Assign(in, out), in, out, randomWeight(rng), true)
			}
			g.addLink(reg.Assign(g.BiasID(), out), g.BiasID(), out, randomWeight(rng), true)
		}
		return g
	}
	if numInputs > 0 && numOutputs > 0 {
		in := g.InputIDs()[rng.Intn(numInputs)]
		out := g.OutputIDs()[rng.Intn(numOutputs)]
		g.addLink(reg.Assign(in, out), in, out, randomWeight(rng), true)
	}
	return g
}

// NumInputs returns the number of input neurons.
func (g *Genome) NumInputs() int { return g.numInputs }

// NumOutputs returns the number of output neurons.
func (g *Genome) NumOutputs() int { return g.numOutputs }

// BiasID returns the id of the bias neuron.
func (g *Genome) BiasID() int { return -(g.numInputs + g.numOutputs + 1) }

// InputIDs returns the input neuron ids in input order.
func (g *Genome) InputIDs() []int {
	ids := make([]int, g.numInputs)
	for i := range ids {
		ids[i] = -(i + 1)
	}
	return ids
}

// OutputIDs returns the output neuron ids in output order.
func (g *Genome) OutputIDs() []int {
	ids := make([]int, g.numOutputs)
	for i := range ids {
		ids[i] = -(g.numInputs + i + 1)
	}
	return ids
}

// LinkIDs returns the link innovation ids in ascending order.
func (g *Genome) LinkIDs() []int { return sortedKeys(g.Links) }

// NeuronIDs returns the neuron ids in ascending order.
func (g *Genome) NeuronIDs() []int { return sortedKeys(g.Neurons) }

// HiddenIDs returns the hidden neuron ids in ascending order.
func (g *Genome) HiddenIDs() []int {
	var ids []int
	for _, id := range sortedKeys(g.Neurons) {
		if g.Neurons[id].Type == HiddenNeuron {
			ids = append(ids, id)
		}
	}
	return ids
}

// LinkBetween returns the link from -> to, if present.
func (g *Genome) LinkBetween(from, to int) (*LinkGene, bool) {
	id, ok := g.ends[linkEnds{from, to}]
	if !ok {
		return nil, false
	}
	return g.Links[id], true
}

// Size is the structural complexity of the genome: links plus neurons,
// not counting the bias neuron.
func (g *Genome) Size() int {
	return len(g.Links) + len(g.Neurons) - 1
}

// Copy creates a deep copy of the genome with a new id. Fitness values and
// the species id are carried over.
func (g *Genome) Copy(id int) *Genome {
	c := newEmptyGenome(id, g.numInputs, g.numOutputs)
	c.Fitness = g.Fitness
	c.AdjustedFitness = g.AdjustedFitness
	c.TestFitness = g.TestFitness
	c.SpeciesID = g.SpeciesID
	for nid, n := range g.Neurons {
		c.Neurons[nid] = n.Copy()
	}
	for lid, l := range g.Links {
		c.Links[lid] = l.Copy()
	}
	for k, v := range g.ends {
		c.ends[k] = v
	}
	return c
}

// addLink inserts a link and updates the structural sets of both endpoints.
func (g *Genome) addLink(innovation, from, to int, weight float64, enabled bool) *LinkGene {
	l := &LinkGene{
		Innovation: innovation,
		From:       from,
		To:         to,
		Weight:     clamp(weight, MinWeight, MaxWeight),
		Enabled:    enabled,
		Bias:       g.Neurons[from].Type == BiasNeuron,
	}
	g.insertLink(l)
	return l
}

// insertLink adds an existing gene as-is.
func (g *Genome) insertLink(l *LinkGene) {
	g.Links[l.Innovation] = l
	g.ends[linkEnds{l.From, l.To}] = l.Innovation
	src, dst := g.Neurons[l.From], g.Neurons[l.To]
	src.Outputs = insertSorted(src.Outputs, l.To)
	dst.Inputs = insertSorted(dst.Inputs, l.From)
	if l.From == l.To {
		src.LoopBack = true
	}
}

func (g *Genome) removeLink(innovation int) {
	l, ok := g.Links[innovation]
	if !ok {
		return
	}
	delete(g.Links, innovation)
	delete(g.ends, linkEnds{l.From, l.To})
	if src, ok := g.Neurons[l.From]; ok {
		src.Outputs = removeSorted(src.Outputs, l.To)
		if l.From == l.To {
			src.LoopBack = false
		}
	}
	if dst, ok := g.Neurons[l.To]; ok {
		dst.Inputs = removeSorted(dst.Inputs, l.From)
	}
}

// removeNeuron deletes a hidden neuron and every link touching it. The link
// it was split from becomes splittable again.
func (g *Genome) removeNeuron(id int) {
	n, ok := g.Neurons[id]
	if !ok || n.Type != HiddenNeuron {
		return
	}
	for _, in := range append([]int(nil), n.Inputs...) {
		if lid, ok := g.ends[linkEnds{in, id}]; ok {
			g.removeLink(lid)
		}
	}
	for _, out := range append([]int(nil), n.Outputs...) {
		if lid, ok := g.ends[linkEnds{id, out}]; ok {
			g.removeLink(lid)
		}
	}
	delete(g.Neurons, id)
	if origin, ok := g.Links[id]; ok {
		origin.Split = false
	}
}

// MutateAddLink tries up to attempts random (from, to) pairs and adds the
// first valid one. In forward mode the destination must lie strictly deeper
// than the source; in recurrent mode back links and self-loops are allowed.
func (g *Genome) MutateAddLink(reg *InnovationRegistry, rng *rand.Rand, attempts int, mode Connectivity) bool {
	ids := g.NeuronIDs()
	for i := 0; i < attempts; i++ {
		from := g.Neurons[ids[rng.Intn(len(ids))]]
		to := g.Neurons[ids[rng.Intn(len(ids))]]
		if !g.canLink(from, to, mode) {
			continue
		}
		g.addLink(reg.Assign(from.ID, to.ID), from.ID, to.ID, randomWeight(rng), true)
		return true
	}
	return false
}

func (g *Genome) canLink(from, to *NeuronGene, mode Connectivity) bool {
	if to.Type == InputNeuron || to.Type == BiasNeuron {
		return false
	}
	if _, exists := g.ends[linkEnds{from.ID, to.ID}]; exists {
		return false
	}
	if mode == RecurrentConnectivity {
		return true
	}
	if from.Type == OutputNeuron || from.ID == to.ID {
		return false
	}
	return to.SplitY > from.SplitY
}

// MutateAddNode splits a uniformly chosen eligible link. Eligible links are
// enabled, not yet split, not from the bias, not self-loops, and their id is
// not already used by a neuron of this genome.
func (g *Genome) MutateAddNode(reg *InnovationRegistry, rng *rand.Rand) bool {
	var candidates []int
	for _, id := range g.LinkIDs() {
		if g.splittable(g.Links[id]) {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return false
	}
	return g.SplitLink(reg, candidates[rng.Intn(len(candidates))]) == nil
}

func (g *Genome) splittable(l *LinkGene) bool {
	if !l.Enabled || l.Split || l.Bias || l.From == l.To {
		return false
	}
	_, taken := g.Neurons[l.Innovation]
	return !taken
}

// SplitLink inserts a hidden neuron on the given link. The link is disabled
// and marked split; the new neuron takes the link's innovation id. The
// incoming link gets weight 1 and the outgoing link keeps the old weight.
func (g *Genome) SplitLink(reg *InnovationRegistry, innovation int) error {
	l, ok := g.Links[innovation]
	if !ok {
		return fmt.Errorf("genome %d has no link %d", g.ID, innovation)
	}
	if !g.splittable(l) {
		return fmt.Errorf("link %d of genome %d cannot be split", innovation, g.ID)
	}
	src, dst := g.Neurons[l.From], g.Neurons[l.To]
	l.Enabled = false
	l.Split = true

	n := &NeuronGene{
		ID:     innovation,
		Type:   HiddenNeuron,
		SplitY: (src.SplitY + dst.SplitY) / 2,
		SplitX: (src.SplitX + dst.SplitX) / 2,
	}
	g.Neurons[n.ID] = n
	g.addLink(reg.Assign(src.ID, n.ID), src.ID, n.ID, 1.0, true)
	g.addLink(reg.Assign(n.ID, dst.ID), n.ID, dst.ID, l.Weight, true)
	return nil
}

// RemoveLinkRandom deletes a random link. A hidden source left without
// outputs, or a hidden destination left without inputs, is removed too.
func (g *Genome) RemoveLinkRandom(rng *rand.Rand) bool {
	ids := g.LinkIDs()
	if len(ids) == 0 {
		return false
	}
	l := g.Links[ids[rng.Intn(len(ids))]]
	g.removeLink(l.Innovation)
	if src, ok := g.Neurons[l.From]; ok && src.Type == HiddenNeuron && len(src.Outputs) == 0 {
		g.removeNeuron(src.ID)
	}
	if dst, ok := g.Neurons[l.To]; ok && dst.Type == HiddenNeuron && len(dst.Inputs) == 0 {
		g.removeNeuron(dst.ID)
	}
	return true
}

// RemoveNodeRandom picks random hidden neurons until one with fewer than two
// inputs or fewer than two outputs is found, then removes it and links each
// of its inputs directly to each of its outputs. A pair that is already
// linked has its link enabled.
func (g *Genome) RemoveNodeRandom(reg *InnovationRegistry, rng *rand.Rand, attempts int) bool {
	hidden := g.HiddenIDs()
	if len(hidden) == 0 {
		return false
	}
	for i := 0; i < attempts; i++ {
		n := g.Neurons[hidden[rng.Intn(len(hidden))]]
		if len(n.Inputs) >= 2 && len(n.Outputs) >= 2 {
			continue
		}
		ins := append([]int(nil), n.Inputs...)
		outs := append([]int(nil), n.Outputs...)
		g.removeNeuron(n.ID)
		for _, in := range ins {
			for _, out := range outs {
				if in == n.ID || out == n.ID || in == out {
					continue
				}
				if existing, ok := g.LinkBetween(in, out); ok {
					existing.Enabled = true
					continue
				}
				g.addLink(reg.Assign(in, out), in, out, randomWeight(rng), true)
			}
		}
		return true
	}
	return false
}

// MutateWeights perturbs every link weight by up to |w*power| and clamps the result.
func (g *Genome) MutateWeights(rng *rand.Rand, power float64) {
	for _, id := range g.LinkIDs() {
		l := g.Links[id]
		maxDelta := math.Abs(l.Weight * power)
		l.Weight = clamp(l.Weight+(rng.Float64()*2-1)*maxDelta, MinWeight, MaxWeight)
	}
}

// Verify checks the structural invariants of the genome.
func (g *Genome) Verify() error {
	var errs []error
	fixed := 0
	for id, n := range g.Neurons {
		if id != n.ID {
			errs = append(errs, fmt.Errorf("neuron keyed %d has id %d", id, n.ID))
		}
		if n.Type != HiddenNeuron {
			fixed++
		} else if id < 0 {
			errs = append(errs, fmt.Errorf("hidden neuron %d has a negative id", id))
		}
	}
	if fixed != g.numInputs+g.numOutputs+1 {
		errs = append(errs, fmt.Errorf("expected %d non-hidden neurons, found %d", g.numInputs+g.numOutputs+1, fixed))
	}
	if len(g.ends) != len(g.Links) {
		errs = append(errs, fmt.Errorf("endpoint index has %d entries for %d links", len(g.ends), len(g.Links)))
	}
	for id, l := range g.Links {
		src, okSrc := g.Neurons[l.From]
		dst, okDst := g.Neurons[l.To]
		if !okSrc || !okDst {
			errs = append(errs, fmt.Errorf("link %d references a missing neuron", id))
			continue
		}
		if g.ends[linkEnds{l.From, l.To}] != id {
			errs = append(errs, fmt.Errorf("link %d is not indexed by its endpoints", id))
		}
		if !containsSorted(src.Outputs, l.To) || !containsSorted(dst.Inputs, l.From) {
			errs = append(errs, fmt.Errorf("link %d is missing from its neurons' sets", id))
		}
		if dst.Type == InputNeuron || dst.Type == BiasNeuron {
			errs = append(errs, fmt.Errorf("link %d points into %s neuron %d", id, dst.Type, dst.ID))
		}
		if l.Weight < MinWeight || l.Weight > MaxWeight {
			errs = append(errs, fmt.Errorf("link %d weight %.3f out of range", id, l.Weight))
		}
	}
	return errors.Join(errs...)
}

// String returns a string representation of the Genome.
func (g *Genome) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Genome(ID: %d, Fitness: %.6f, Species: %d)\n", g.ID, g.Fitness, g.SpeciesID))
	sb.WriteString("  Neurons:\n")
	for _, id := range g.NeuronIDs() {
		sb.WriteString(fmt.Sprintf("    %s\n", g.Neurons[id]))
	}
	sb.WriteString("  Links:\n")
	for _, id := range g.LinkIDs() {
		sb.WriteString(fmt.Sprintf("    %s\n", g.Links[id]))
	}
	return sb.String()
}

func randomWeight(rng *rand.Rand) float64 {
	return MinWeight + rng.Float64()*(MaxWeight-MinWeight)
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func containsSorted(ids []int, id int) bool {
	i := sort.SearchInts(ids, id)
	return i < len(ids) && ids[i] == id
}
