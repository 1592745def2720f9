package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
[NEAT]
pop_size     = 10
seed         = 1
round_limit  = 3
test_delay   = 1
console_delay = 0

[DefaultGenome]
num_inputs  = 2
num_outputs = 1

[Dataset]
split = 0.25
`

func writeFixtures(t *testing.T) (configPath, dataPath string) {
	t.Helper()
	dir := t.TempDir()
	configPath = filepath.Join(dir, "run.ini")
	require.NoError(t, os.WriteFile(configPath, []byte(testConfig), 0o644))
	dataPath = filepath.Join(dir, "xor.csv")
	rows := "a,b,y\n0,0,0\n0,1,1\n1,0,1\n1,1,0\n0,0,0\n0,1,1\n1,0,1\n1,1,0\n"
	require.NoError(t, os.WriteFile(dataPath, []byte(rows), 0o644))
	return configPath, dataPath
}

func execute(args ...string) (string, error) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	configPath, _ := writeFixtures(t)
	out, err := execute("validate", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "config ok: 10 genomes, 2 inputs, 1 outputs, fitness rmse")

	bad := filepath.Join(t.TempDir(), "bad.ini")
	require.NoError(t, os.WriteFile(bad, []byte("[NEAT]\npop_size = 0\n[DefaultGenome]\n"), 0o644))
	_, err = execute("validate", "--config", bad)
	assert.Error(t, err)
}

func TestRunCommandWritesReport(t *testing.T) {
	configPath, dataPath := writeFixtures(t)
	report := filepath.Join(t.TempDir(), "report.csv")

	out, err := execute("run", "-c", configPath, "-d", dataPath, "-r", report, "--log-format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "Genome(ID:")

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 4, "header and one row per round")
	assert.True(t, strings.HasPrefix(lines[0], "run_id,round,"))
}

func TestRunCommandRejectsMismatchedData(t *testing.T) {
	configPath, _ := writeFixtures(t)
	data := filepath.Join(t.TempDir(), "wide.csv")
	require.NoError(t, os.WriteFile(data, []byte("1,2,3,4\n"), 0o644))
	_, err := execute("run", "-c", configPath, "-d", data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config expects 2 and 1")
}

func TestRunCommandRejectsMismatchedTestData(t *testing.T) {
	configPath, dataPath := writeFixtures(t)
	test := filepath.Join(t.TempDir(), "wide-test.csv")
	require.NoError(t, os.WriteFile(test, []byte("0,0,0,1\n1,1,0,1\n"), 0o644))
	_, err := execute("run", "-c", configPath, "-d", dataPath, "--test", test)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test dataset has 2 inputs and 2 outputs")
}

func TestRunCommandRejectsUnknownLogFormat(t *testing.T) {
	configPath, dataPath := writeFixtures(t)
	_, err := execute("run", "-c", configPath, "-d", dataPath, "--log-format", "xml")
	assert.Error(t, err)
}
