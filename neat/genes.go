package neat

import (
	"fmt"
	"sort"
)

// Link weights are kept within [MinWeight, MaxWeight].
const (
	MinWeight = -10.0
	MaxWeight = 10.0
)

// NeuronType is the role of a neuron in the network.
type NeuronType int

const (
	InputNeuron NeuronType = iota
	OutputNeuron
	BiasNeuron
	HiddenNeuron
)

func (t NeuronType) String() string {
	switch t {
	case InputNeuron:
		return "input"
	case OutputNeuron:
		return "output"
	case BiasNeuron:
		return "bias"
	case HiddenNeuron:
		return "hidden"
	}
	return fmt.Sprintf("NeuronType(%d)", int(t))
}

// --------------------------- NeuronGene ---------------------------

// NeuronGene represents a neuron in the genome.
//
// Input neurons use ids -1..-N, outputs -(N+1)..-(N+M) and the bias neuron
// -(N+M+1). A hidden neuron takes the innovation id of the link it split.
// SplitY orders neurons from inputs (0) to outputs (1).
type NeuronGene struct {
	ID       int
	Type     NeuronType
	SplitY   float64
	SplitX   float64
	LoopBack bool  // has a link to itself
	Inputs   []int // sorted ids of neurons linking into this one
	Outputs  []int // sorted ids of neurons this one links to
}

// String returns a string representation of the NeuronGene.
func (n *NeuronGene) String() string {
	return fmt.Sprintf("NeuronGene(ID: %d, Type: %s, SplitY: %.3f, In: %v, Out: %v)",
		n.ID, n.Type, n.SplitY, n.Inputs, n.Outputs)
}

// Copy creates a deep copy of the NeuronGene.
func (n *NeuronGene) Copy() *NeuronGene {
	c := *n
	c.Inputs = append([]int(nil), n.Inputs...)
	c.Outputs = append([]int(nil), n.Outputs...)
	return &c
}

// --------------------------- LinkGene ---------------------------

// LinkGene is a weighted connection between two neurons, identified by its
// innovation id.
type LinkGene struct {
	Innovation int
	From       int
	To         int
	Weight     float64
	Enabled    bool
	Bias       bool // source is the bias neuron
	Split      bool // a hidden neuron has been inserted on this link
}

// String returns a string representation of the LinkGene.
func (l *LinkGene) String() string {
	return fmt.Sprintf("LinkGene(%d: %d->%d, Weight: %.3f, Enabled: %t)",
		l.Innovation, l.From, l.To, l.Weight, l.Enabled)
}

// Copy creates a copy of the LinkGene.
func (l *LinkGene) Copy() *LinkGene {
	c := *l
	return &c
}

// --- sorted id sets ---

func insertSorted(ids []int, id int) []int {
	i := sort.SearchInts(ids, id)
	if i < len(ids) && ids[i] == id {
		return ids
	}
	ids = append(ids, 0)
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}

func removeSorted(ids []int, id int) []int {
	i := sort.SearchInts(ids, id)
	if i < len(ids) && ids[i] == id {
		return append(ids[:i], ids[i+1:]...)
	}
	return ids
}
