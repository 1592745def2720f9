// Package dataset provides an in-memory implementation of neat.Dataset with
// the row manipulation modes a run can request between generations.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"

	"github.com/baldhumanity/dataneat/neat"
)

// Table is a dataset of input rows and ideal rows. Evaluation reads a view
// of the rows that Resample rebuilds according to the manipulation mode.
// Resample must not run concurrently with readers.
type Table struct {
	inputs [][]float64
	ideals [][]float64
	view   []int

	Manipulation   neat.Manipulation
	BootstrapDelay int
	Fraction       float64

	shuffled bool
}

// NewTable creates a table over all rows with no manipulation.
func NewTable(inputs, ideals [][]float64) (*Table, error) {
	if len(inputs) != len(ideals) {
		return nil, fmt.Errorf("dataset has %d input rows and %d ideal rows", len(inputs), len(ideals))
	}
	for i := range inputs {
		if len(inputs[i]) != len(inputs[0]) || len(ideals[i]) != len(ideals[0]) {
			return nil, fmt.Errorf("dataset row %d has a different width", i)
		}
	}
	t := &Table{
		inputs:       inputs,
		ideals:       ideals,
		Manipulation: neat.NoManipulation,
		Fraction:     1.0,
	}
	t.view = t.identity()
	return t, nil
}

// Configure applies the dataset section of a run configuration.
func (t *Table) Configure(config *neat.DatasetConfig) *Table {
	t.Manipulation = config.Manipulation
	t.BootstrapDelay = config.BootstrapDelay
	t.Fraction = config.Fraction
	t.shuffled = false
	t.view = t.identity()
	return t
}

// NumRows returns the number of rows in the current view.
func (t *Table) NumRows() int { return len(t.view) }

// InputRow returns the inputs of row i of the current view.
func (t *Table) InputRow(i int) []float64 { return t.inputs[t.view[i]] }

// IdealRow returns the ideal outputs of row i of the current view.
func (t *Table) IdealRow(i int) []float64 { return t.ideals[t.view[i]] }

// InputWidth returns the number of input columns.
func (t *Table) InputWidth() int {
	if len(t.inputs) == 0 {
		return 0
	}
	return len(t.inputs[0])
}

// IdealWidth returns the number of ideal columns.
func (t *Table) IdealWidth() int {
	if len(t.ideals) == 0 {
		return 0
	}
	return len(t.ideals[0])
}

// Len returns the number of rows held, regardless of the view.
func (t *Table) Len() int { return len(t.inputs) }

// viewSize is the number of rows evaluated per generation.
func (t *Table) viewSize() int {
	n := int(t.Fraction * float64(len(t.inputs)))
	if n < 1 && len(t.inputs) > 0 {
		n = 1
	}
	if n > len(t.inputs) {
		n = len(t.inputs)
	}
	return n
}

func (t *Table) identity() []int {
	view := make([]int, t.viewSize())
	for i := range view {
		view[i] = i
	}
	return view
}

// Resample implements neat.Resampler. Randomize shuffles once, continuous
// randomize shuffles every generation, and bootstrap draws rows with
// replacement every BootstrapDelay generations starting with the first.
func (t *Table) Resample(generation int, rng *rand.Rand) {
	n := t.viewSize()
	switch t.Manipulation {
	case neat.Randomize:
		if !t.shuffled {
			t.view = rng.Perm(len(t.inputs))[:n]
			t.shuffled = true
		}
	case neat.ContinuousRandomize:
		t.view = rng.Perm(len(t.inputs))[:n]
	case neat.Bootstrap:
		if t.BootstrapDelay > 0 && (generation-1)%t.BootstrapDelay == 0 {
			view := make([]int, n)
			for i := range view {
				view[i] = rng.Intn(len(t.inputs))
			}
			t.view = view
		}
	}
}

// Split shuffles the rows and returns a training table and a test table
// holding testShare of the rows. Both copy the manipulation settings of t.
func (t *Table) Split(testShare float64, rng *rand.Rand) (train, test *Table, err error) {
	if testShare < 0 || testShare >= 1 {
		return nil, nil, fmt.Errorf("test share must be in [0, 1), got %g", testShare)
	}
	perm := rng.Perm(len(t.inputs))
	nTest := int(testShare * float64(len(perm)))
	pick := func(rows []int) *Table {
		in := make([][]float64, len(rows))
		id := make([][]float64, len(rows))
		for i, r := range rows {
			in[i], id[i] = t.inputs[r], t.ideals[r]
		}
		out := &Table{
			inputs:         in,
			ideals:         id,
			Manipulation:   t.Manipulation,
			BootstrapDelay: t.BootstrapDelay,
			Fraction:       t.Fraction,
		}
		out.view = out.identity()
		return out
	}
	test = pick(perm[:nTest])
	test.Manipulation = neat.NoManipulation
	test.Fraction = 1.0
	test.view = test.identity()
	return pick(perm[nTest:]), test, nil
}

// LoadCSV reads a numeric CSV file. The first numInputs columns are inputs
// and the remaining columns are ideals. A non-numeric first row is treated
// as a header and skipped.
func LoadCSV(path string, numInputs int) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset '%s': %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f, numInputs)
}

// ReadCSV is LoadCSV over an io.Reader.
func ReadCSV(r io.Reader, numInputs int) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	var inputs, ideals [][]float64
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset line %d: %w", line, err)
		}
		if len(record) <= numInputs {
			return nil, fmt.Errorf("dataset line %d: expected more than %d columns, got %d", line, numInputs, len(record))
		}
		values := make([]float64, len(record))
		var parseErr error
		for i, field := range record {
			if values[i], parseErr = strconv.ParseFloat(field, 64); parseErr != nil {
				break
			}
		}
		if parseErr != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("dataset line %d: %w", line, parseErr)
		}
		inputs = append(inputs, values[:numInputs])
		ideals = append(ideals, values[numInputs:])
	}
	if len(inputs) == 0 {
		return nil, errors.New("dataset is empty")
	}
	return NewTable(inputs, ideals)
}
