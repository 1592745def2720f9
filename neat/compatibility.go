package neat

import "math"

// MaxCompatibilityDistance is returned when two genomes cannot be compared:
// one of them is missing, or they share no link genes.
const MaxCompatibilityDistance = 100000.0

// Compatibility computes the distance between two genomes as
// Excess*E + Disjoint*D + Weight*W, where E is the difference in link counts,
// D the number of non-matching ids found while walking both sorted link
// lists, and W the mean absolute weight difference of matching links.
type Compatibility struct {
	Excess   float64
	Disjoint float64
	Weight   float64
}

// NewCompatibility builds the metric from the species set configuration.
func NewCompatibility(config *SpeciesSetConfig) Compatibility {
	return Compatibility{
		Excess:   config.ExcessCoefficient,
		Disjoint: config.DisjointCoefficient,
		Weight:   config.WeightCoefficient,
	}
}

// Distance returns the compatibility distance between a and b.
func (c Compatibility) Distance(a, b *Genome) float64 {
	if a == nil || b == nil {
		return MaxCompatibilityDistance
	}
	if len(a.Links) == 0 && len(b.Links) == 0 {
		return 0
	}

	ia, ib := a.LinkIDs(), b.LinkIDs()
	excess := math.Abs(float64(len(ia) - len(ib)))

	disjoint, matching := 0, 0
	weightDiff := 0.0
	i, j := 0, 0
	for i < len(ia) && j < len(ib) {
		switch {
		case ia[i] == ib[j]:
			weightDiff += math.Abs(a.Links[ia[i]].Weight - b.Links[ib[j]].Weight)
			matching++
			i++
			j++
		case ia[i] < ib[j]:
			disjoint++
			i++
		default:
			disjoint++
			j++
		}
	}
	if matching == 0 {
		return MaxCompatibilityDistance
	}
	return c.Excess*excess + c.Disjoint*float64(disjoint) + c.Weight*(weightDiff/float64(matching))
}
