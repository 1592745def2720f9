package neat

import "math/rand"

// Crossover produces a child of a and b with the given id.
//
// The better parent is the one with the higher adjusted fitness, then the
// smaller genome, then a coin flip. The child starts as a copy of the better
// parent, so it never carries a link the better parent lacks. Matching links
// take the other parent's weight and enabled flag half of the time. A
// matching link disabled in either parent is re-enabled with probability
// enableChance and disabled otherwise. Links only the better parent has are
// copied unchanged.
func Crossover(a, b *Genome, rng *rand.Rand, enableChance float64, id int) *Genome {
	best, worst := orderParents(a, b, rng)
	child := offspringOf(best, id)

	bi, wi := best.LinkIDs(), worst.LinkIDs()
	j := 0
	for _, lid := range bi {
		for j < len(wi) && wi[j] < lid {
			j++
		}
		if j == len(wi) || wi[j] != lid {
			continue
		}
		cl, wl := child.Links[lid], worst.Links[lid]
		if rng.Float64() < 0.5 {
			cl.Weight = wl.Weight
			cl.Enabled = wl.Enabled
		}
		if !best.Links[lid].Enabled || !wl.Enabled {
			cl.Enabled = rng.Float64() < enableChance
		}
		j++
	}
	return child
}

func orderParents(a, b *Genome, rng *rand.Rand) (best, worst *Genome) {
	switch {
	case a.AdjustedFitness > b.AdjustedFitness:
		return a, b
	case a.AdjustedFitness < b.AdjustedFitness:
		return b, a
	case a.Size() < b.Size():
		return a, b
	case a.Size() > b.Size():
		return b, a
	case rng.Intn(2) == 0:
		return a, b
	default:
		return b, a
	}
}

// Clone returns a structural copy of g with a new id and cleared scores.
func Clone(g *Genome, id int) *Genome {
	return offspringOf(g, id)
}

// Asexual returns n clones of members drawn uniformly from pool.
func Asexual(pool []*Genome, n int, rng *rand.Rand, newID func() int) []*Genome {
	if len(pool) == 0 {
		return nil
	}
	out := make([]*Genome, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Clone(pool[rng.Intn(len(pool))], newID()))
	}
	return out
}

func offspringOf(g *Genome, id int) *Genome {
	c := g.Copy(id)
	c.Fitness = 0
	c.AdjustedFitness = 0
	c.TestFitness = 0
	return c
}
