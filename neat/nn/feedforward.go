package nn

import (
	"errors"
	"fmt"
	"sort"

	"github.com/baldhumanity/dataneat/neat"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ErrCyclic is returned by ActivateCurrent for networks with recurrent links.
var ErrCyclic = errors.New("network contains a cycle")

// evaluationOrder returns a topological order of the neurons, breaking ties
// by index (ascending splitY). It fails when the links form a cycle.
func evaluationOrder(neurons []neuron) ([]int, error) {
	g := simple.NewDirectedGraph()
	for i := range neurons {
		g.AddNode(simple.Node(i))
	}
	for to, nr := range neurons {
		for _, s := range nr.inputs {
			if s.from == to {
				return nil, fmt.Errorf("neuron %d: %w", nr.id, ErrCyclic)
			}
			g.SetEdge(g.NewEdge(simple.Node(s.from), simple.Node(to)))
		}
	}
	sorted, err := topo.SortStabilized(g, func(nodes []graph.Node) {
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCyclic, err)
	}
	order := make([]int, len(sorted))
	for i, node := range sorted {
		order[i] = int(node.ID())
	}
	return order, nil
}

// ActivateCurrent evaluates the network with current-timestep semantics:
// one pass in topological order (ascending splitY), each neuron reading the
// already updated outputs of its sources. Only acyclic networks qualify.
func (n *Network) ActivateCurrent(inputs []float64) ([]float64, error) {
	if n.order == nil {
		return nil, ErrCyclic
	}
	if err := n.reset(inputs); err != nil {
		return nil, err
	}
	for _, idx := range n.order {
		nr := &n.neurons[idx]
		if nr.kind != neat.HiddenNeuron && nr.kind != neat.OutputNeuron {
			continue
		}
		sum := 0.0
		for _, s := range nr.inputs {
			sum += n.neurons[s.from].output * s.weight
		}
		nr.output = nr.transfer(sum)
	}
	n.normalizeOutputs()
	n.passes = 1
	n.stable = true
	return n.Outputs(), nil
}
