package neat

import "math/rand"

// Operator is a genome mutation applied with a per-genome probability.
// A negative rate disables the operator.
type Operator struct {
	Name  string
	Rate  float64
	Apply func(g *Genome, reg *InnovationRegistry, rng *rand.Rand) bool
}

// EvolvingOperators returns the operator set used while the population grows:
// add link, add node and weight perturbation.
func EvolvingOperators(config *GenomeConfig) []Operator {
	return []Operator{
		{
			Name: "add_link",
			Rate: config.AddLinkRate,
			Apply: func(g *Genome, reg *InnovationRegistry, rng *rand.Rand) bool {
				return g.MutateAddLink(reg, rng, config.AddLinkAttempts, config.Connectivity)
			},
		},
		{
			Name: "add_node",
			Rate: config.AddNodeRate,
			Apply: func(g *Genome, reg *InnovationRegistry, rng *rand.Rand) bool {
				return g.MutateAddNode(reg, rng)
			},
		},
		weightOperator(config),
	}
}

// PruningOperators returns the operator set used while complexity is being
// reduced: remove link, remove node and weight perturbation.
func PruningOperators(config *GenomeConfig) []Operator {
	return []Operator{
		{
			Name: "remove_link",
			Rate: config.RemoveLinkRate,
			Apply: func(g *Genome, _ *InnovationRegistry, rng *rand.Rand) bool {
				return g.RemoveLinkRandom(rng)
			},
		},
		{
			Name: "remove_node",
			Rate: config.RemoveNodeRate,
			Apply: func(g *Genome, reg *InnovationRegistry, rng *rand.Rand) bool {
				return g.RemoveNodeRandom(reg, rng, config.RemoveNodeAttempts)
			},
		},
		weightOperator(config),
	}
}

func weightOperator(config *GenomeConfig) Operator {
	return Operator{
		Name: "weight",
		Rate: config.WeightMutationRate,
		Apply: func(g *Genome, _ *InnovationRegistry, rng *rand.Rand) bool {
			if len(g.Links) == 0 {
				return false
			}
			g.MutateWeights(rng, config.WeightMutationPower)
			return true
		},
	}
}

// Mutate applies every operator to every genome in order and returns how
// many times each operator changed a genome.
func Mutate(genomes []*Genome, ops []Operator, reg *InnovationRegistry, rng *rand.Rand) map[string]int {
	applied := make(map[string]int, len(ops))
	for _, g := range genomes {
		for _, op := range ops {
			if op.Rate < 0 || rng.Float64() >= op.Rate {
				continue
			}
			if op.Apply(g, reg, rng) {
				applied[op.Name]++
			}
		}
	}
	return applied
}
