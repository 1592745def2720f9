package neat

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
)

// RoundRecord is one row of run data.
type RoundRecord struct {
	RunID          string  `csv:"run_id"`
	Round          int     `csv:"round"`
	SpeciesCount   int     `csv:"species_count"`
	BestFitness    float64 `csv:"best_fitness"`
	BestTest       float64 `csv:"best_test"`
	Threshold      float64 `csv:"species_threshold"`
	MeanComplexity float64 `csv:"mean_complexity"`
	MovingAverage  float64 `csv:"moving_average"`
	Pruning        bool    `csv:"pruning"`
}

// RunData collects per-round statistics of a run.
type RunData struct {
	RunID   string
	Records []*RoundRecord
}

// NewRunData creates an empty record set with a fresh run id.
func NewRunData() *RunData {
	return &RunData{RunID: uuid.NewString()}
}

// Add appends a record, stamping it with the run id.
func (d *RunData) Add(r RoundRecord) {
	r.RunID = d.RunID
	d.Records = append(d.Records, &r)
}

// Last returns the latest record, or nil.
func (d *RunData) Last() *RoundRecord {
	if len(d.Records) == 0 {
		return nil
	}
	return d.Records[len(d.Records)-1]
}

// WriteCSV writes all records with a header row.
func (d *RunData) WriteCSV(w io.Writer) error {
	if err := gocsv.Marshal(d.Records, w); err != nil {
		return fmt.Errorf("failed to write run data: %w", err)
	}
	return nil
}

// SaveCSV writes all records to path, replacing any existing file.
func (d *RunData) SaveCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create run data file '%s': %w", path, err)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&d.Records, f); err != nil {
		return fmt.Errorf("failed to write run data file '%s': %w", path, err)
	}
	return nil
}
