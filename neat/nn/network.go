package nn

import (
	"fmt"
	"math"
	"sort"

	"github.com/baldhumanity/dataneat/neat"
)

// Options control phenotype decoding.
type Options struct {
	Classification      bool    // softmax over the outputs instead of per-output sigmoid
	StabilizationDelta  float64 // fixed point tolerance for previous-timestep evaluation
	IterationMultiplier int     // passes allowed per neuron before giving up
}

// OptionsFromConfig returns the options described by a phenotype config.
func OptionsFromConfig(config *neat.PhenotypeConfig) Options {
	return Options{
		Classification:      config.Classification,
		StabilizationDelta:  config.StabilizationDelta,
		IterationMultiplier: config.IterationMultiplier,
	}
}

type synapse struct {
	from   int // index into Network.neurons
	weight float64
}

type neuron struct {
	id       int
	kind     neat.NeuronType
	splitY   float64
	transfer neat.ActivationType
	inputs   []synapse
	output   float64
	previous float64
}

// Network is the runnable phenotype of a genome, compiled from its enabled
// links. A Network holds activation state and must not be shared between
// goroutines.
type Network struct {
	neurons []neuron // ascending splitY, then id
	inputs  []int
	outputs []int
	order   []int // evaluation order for ActivateCurrent, nil if the graph has cycles
	options Options

	passes int
	stable bool
}

// New compiles g into a Network.
func New(g *neat.Genome, options Options) (*Network, error) {
	if options.IterationMultiplier <= 0 {
		return nil, fmt.Errorf("iteration multiplier must be positive, got %d", options.IterationMultiplier)
	}
	ids := g.NeuronIDs()
	sort.SliceStable(ids, func(i, j int) bool {
		return g.Neurons[ids[i]].SplitY < g.Neurons[ids[j]].SplitY
	})

	n := &Network{
		neurons: make([]neuron, len(ids)),
		options: options,
	}
	index := make(map[int]int, len(ids))
	for i, id := range ids {
		gene := g.Neurons[id]
		index[id] = i
		n.neurons[i] = neuron{
			id:       id,
			kind:     gene.Type,
			splitY:   gene.SplitY,
			transfer: neat.Transfer(gene.Type, options.Classification),
		}
	}
	for _, id := range g.InputIDs() {
		n.inputs = append(n.inputs, index[id])
	}
	for _, id := range g.OutputIDs() {
		n.outputs = append(n.outputs, index[id])
	}

	for _, lid := range g.LinkIDs() {
		l := g.Links[lid]
		if !l.Enabled {
			continue
		}
		from, okFrom := index[l.From]
		to, okTo := index[l.To]
		if !okFrom || !okTo {
			return nil, fmt.Errorf("genome %d: link %d references a missing neuron", g.ID, lid)
		}
		n.neurons[to].inputs = append(n.neurons[to].inputs, synapse{from: from, weight: l.Weight})
	}

	order, err := evaluationOrder(n.neurons)
	if err == nil {
		n.order = order
	}
	return n, nil
}

// NumNeurons returns the number of neurons in the network.
func (n *Network) NumNeurons() int { return len(n.neurons) }

// Acyclic reports whether the enabled links form a directed acyclic graph.
func (n *Network) Acyclic() bool { return n.order != nil }

// Passes returns how many propagation passes the last Activate needed to
// reach its fixed point, or the iteration cap if it never did.
func (n *Network) Passes() int { return n.passes }

// Stable reports whether the last Activate reached a fixed point.
func (n *Network) Stable() bool { return n.stable }

func (n *Network) reset(inputs []float64) error {
	if len(inputs) != len(n.inputs) {
		return fmt.Errorf("expected %d inputs, got %d", len(n.inputs), len(inputs))
	}
	for i := range n.neurons {
		nr := &n.neurons[i]
		nr.output, nr.previous = 0, 0
		if nr.kind == neat.BiasNeuron {
			nr.output = 1
		}
	}
	for i, idx := range n.inputs {
		n.neurons[idx].output = inputs[i]
	}
	return nil
}

// Activate evaluates the network with previous-timestep semantics: every
// pass computes hidden and output neurons from the outputs of the previous
// pass, until all of them move by less than the stabilization delta or the
// iteration cap of IterationMultiplier passes per neuron is reached. At the
// cap the last outputs are returned as they are. State starts from zero on
// every call.
//
// An acyclic network reaches its fixed point in a single pass taken in
// topological order, so it is evaluated that way and reports one pass.
func (n *Network) Activate(inputs []float64) ([]float64, error) {
	if n.order != nil {
		return n.ActivateCurrent(inputs)
	}
	return n.iterate(inputs)
}

func (n *Network) iterate(inputs []float64) ([]float64, error) {
	if err := n.reset(inputs); err != nil {
		return nil, err
	}
	limit := n.options.IterationMultiplier * len(n.neurons)
	n.stable = false
	for step := 1; step <= limit; step++ {
		for i := range n.neurons {
			n.neurons[i].previous = n.neurons[i].output
		}
		for i := range n.neurons {
			nr := &n.neurons[i]
			if nr.kind != neat.HiddenNeuron && nr.kind != neat.OutputNeuron {
				continue
			}
			sum := 0.0
			for _, s := range nr.inputs {
				sum += n.neurons[s.from].previous * s.weight
			}
			nr.output = nr.transfer(sum)
		}
		n.normalizeOutputs()

		if n.settled() {
			n.passes = step - 1
			n.stable = true
			return n.Outputs(), nil
		}
	}
	n.passes = limit
	return n.Outputs(), nil
}

func (n *Network) settled() bool {
	for _, nr := range n.neurons {
		if nr.kind != neat.HiddenNeuron && nr.kind != neat.OutputNeuron {
			continue
		}
		if math.Abs(nr.output-nr.previous) >= n.options.StabilizationDelta {
			return false
		}
	}
	return true
}

func (n *Network) normalizeOutputs() {
	if !n.options.Classification {
		return
	}
	values := make([]float64, len(n.outputs))
	for i, idx := range n.outputs {
		values[i] = n.neurons[idx].output
	}
	neat.Softmax(values)
	for i, idx := range n.outputs {
		n.neurons[idx].output = values[i]
	}
}

// Outputs returns the current output values in output order.
func (n *Network) Outputs() []float64 {
	out := make([]float64, len(n.outputs))
	for i, idx := range n.outputs {
		out[i] = n.neurons[idx].output
	}
	return out
}
