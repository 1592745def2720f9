package neat

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDataRecords(t *testing.T) {
	d := NewRunData()
	_, err := uuid.Parse(d.RunID)
	require.NoError(t, err)
	assert.Nil(t, d.Last())

	d.Add(RoundRecord{Round: 1, SpeciesCount: 3, BestFitness: 0.5})
	d.Add(RoundRecord{Round: 2, SpeciesCount: 4, BestFitness: 0.25, Pruning: true})
	require.Len(t, d.Records, 2)
	assert.Equal(t, 2, d.Last().Round)
	assert.Equal(t, d.RunID, d.Records[0].RunID)
}

func TestRunDataWriteCSV(t *testing.T) {
	d := NewRunData()
	d.Add(RoundRecord{Round: 1, SpeciesCount: 3, BestFitness: 0.5, Threshold: 2.7})

	var buf bytes.Buffer
	require.NoError(t, d.WriteCSV(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "run_id,round,species_count,best_fitness,best_test,species_threshold,mean_complexity,moving_average,pruning", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], d.RunID+",1,3,0.5,"))
	assert.True(t, strings.HasSuffix(lines[1], ",false"))
}

func TestRunDataSaveCSV(t *testing.T) {
	d := NewRunData()
	d.Add(RoundRecord{Round: 1})
	d.Add(RoundRecord{Round: 2})

	path := filepath.Join(t.TempDir(), "run.csv")
	require.NoError(t, d.SaveCSV(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 3)

	assert.Error(t, d.SaveCSV(filepath.Join(t.TempDir(), "missing", "run.csv")))
}
