package neat

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Config stores the configuration parameters for a run.
type Config struct {
	Neat         NeatConfig         `yaml:"neat"`
	Genome       GenomeConfig       `yaml:"genome"`
	SpeciesSet   SpeciesSetConfig   `yaml:"species_set"`
	Stagnation   StagnationConfig   `yaml:"stagnation"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	Phenotype    PhenotypeConfig    `yaml:"phenotype"`
	Dataset      DatasetConfig      `yaml:"dataset"`
}

// NeatConfig holds run-level parameters.
type NeatConfig struct {
	PopSize             int             `ini:"pop_size" yaml:"pop_size"`
	Seed                int64           `ini:"seed" yaml:"seed"`       // 0 seeds from the clock
	Workers             int             `ini:"workers" yaml:"workers"` // 0 uses GOMAXPROCS
	RoundLimit          int             `ini:"round_limit" yaml:"round_limit"`
	FitnessFunction     FitnessFunction `ini:"fitness_function" yaml:"fitness_function"`
	FitnessDirection    Direction       `ini:"fitness_direction" yaml:"fitness_direction"`
	ConsoleDelay        int             `ini:"console_delay" yaml:"console_delay"`
	TestDelay           int             `ini:"test_delay" yaml:"test_delay"` // 0 disables test evaluation
	ComplexityThreshold float64         `ini:"complexity_threshold" yaml:"complexity_threshold"`
	FitnessDelta        float64         `ini:"fitness_delta" yaml:"fitness_delta"`
	StagnationRounds    int             `ini:"stagnation_rounds" yaml:"stagnation_rounds"`
}

// GenomeConfig holds parameters for genome construction and mutation.
// A negative rate disables the corresponding operator.
type GenomeConfig struct {
	NumInputs           int          `ini:"num_inputs" yaml:"num_inputs"`
	NumOutputs          int          `ini:"num_outputs" yaml:"num_outputs"`
	Connected           bool         `ini:"connected" yaml:"connected"`
	Connectivity        Connectivity `ini:"connectivity" yaml:"connectivity"`
	AddLinkRate         float64      `ini:"add_link_rate" yaml:"add_link_rate"`
	AddLinkAttempts     int          `ini:"add_link_attempts" yaml:"add_link_attempts"`
	AddNodeRate         float64      `ini:"add_node_rate" yaml:"add_node_rate"`
	WeightMutationRate  float64      `ini:"weight_mutation_rate" yaml:"weight_mutation_rate"`
	WeightMutationPower float64      `ini:"weight_mutation_power" yaml:"weight_mutation_power"`
	RemoveLinkRate      float64      `ini:"remove_link_rate" yaml:"remove_link_rate"`
	RemoveNodeRate      float64      `ini:"remove_node_rate" yaml:"remove_node_rate"`
	RemoveNodeAttempts  int          `ini:"remove_node_attempts" yaml:"remove_node_attempts"`
	EnableChance        float64      `ini:"enable_chance" yaml:"enable_chance"`
}

// SpeciesSetConfig holds the compatibility metric and threshold control parameters.
type SpeciesSetConfig struct {
	CompatibilityThreshold float64 `ini:"compatibility_threshold" yaml:"compatibility_threshold"`
	SpeciesTarget          int     `ini:"species_target" yaml:"species_target"` // 0 keeps the threshold fixed
	ThresholdAdjustment    float64 `ini:"threshold_adjustment" yaml:"threshold_adjustment"`
	ExcessCoefficient      float64 `ini:"excess_coefficient" yaml:"excess_coefficient"`
	DisjointCoefficient    float64 `ini:"disjoint_coefficient" yaml:"disjoint_coefficient"`
	WeightCoefficient      float64 `ini:"weight_coefficient" yaml:"weight_coefficient"`
}

// StagnationConfig holds species stagnation parameters.
type StagnationConfig struct {
	SpeciesDropAge int `ini:"species_drop_age" yaml:"species_drop_age"`
}

// ReproductionConfig holds parameters related to reproduction and elitism.
type ReproductionConfig struct {
	EliteMode         EliteMode `ini:"elite_mode" yaml:"elite_mode"`
	ElitePercent      float64   `ini:"elite_percent" yaml:"elite_percent"`
	SurvivalThreshold float64   `ini:"survival_threshold" yaml:"survival_threshold"`
}

// PhenotypeConfig controls how genomes are decoded and evaluated.
type PhenotypeConfig struct {
	Evaluation          Evaluation `ini:"evaluation" yaml:"evaluation"`
	Classification      bool       `ini:"classification" yaml:"classification"`
	StabilizationDelta  float64    `ini:"stabilization_delta" yaml:"stabilization_delta"`
	IterationMultiplier int        `ini:"iteration_multiplier" yaml:"iteration_multiplier"`
}

// DatasetConfig controls how the training data is presented each generation.
type DatasetConfig struct {
	Manipulation   Manipulation `ini:"manipulation" yaml:"manipulation"`
	BootstrapDelay int          `ini:"bootstrap_delay" yaml:"bootstrap_delay"`
	Fraction       float64      `ini:"fraction" yaml:"fraction"`
	Split          float64      `ini:"split" yaml:"split"` // share of rows held out as the test set
}

// Connectivity selects which links the add-link operator may create.
type Connectivity string

const (
	ForwardConnectivity   Connectivity = "forward"
	RecurrentConnectivity Connectivity = "recurrent"
)

// Direction overrides which way a fitness function is optimized.
type Direction string

const (
	AutoDirection   Direction = "auto"
	MaximizeFitness Direction = "maximize"
	MinimizeFitness Direction = "minimize"
)

// Maximize reports whether larger fitness scores are better. With the auto
// direction it follows the fitness function.
func (c *NeatConfig) Maximize() bool {
	switch c.FitnessDirection {
	case MaximizeFitness:
		return true
	case MinimizeFitness:
		return false
	}
	return c.FitnessFunction.Maximize()
}

// EliteMode selects how elites are chosen each generation.
type EliteMode string

const (
	GlobalElites  EliteMode = "global"
	SpeciesElites EliteMode = "species"
)

// Evaluation selects the phenotype evaluation strategy.
type Evaluation string

const (
	PreviousTimestep Evaluation = "previous"
	CurrentTimestep  Evaluation = "current"
)

// Manipulation selects how the training dataset is reshuffled between generations.
type Manipulation string

const (
	NoManipulation      Manipulation = "none"
	Randomize           Manipulation = "randomize"
	ContinuousRandomize Manipulation = "continuous"
	Bootstrap           Manipulation = "bootstrap"
)

// DefaultConfig returns a configuration with every optional key set.
// The required keys (pop_size, num_inputs, num_outputs) are left at zero.
func DefaultConfig() *Config {
	return &Config{
		Neat: NeatConfig{
			RoundLimit:       100,
			FitnessFunction:  RMSE,
			FitnessDirection: AutoDirection,
			ConsoleDelay:     1,
			TestDelay:        10,
			FitnessDelta:     0.001,
			StagnationRounds: 20,
		},
		Genome: GenomeConfig{
			Connected:           true,
			Connectivity:        ForwardConnectivity,
			AddLinkRate:         0.05,
			AddLinkAttempts:     20,
			AddNodeRate:         0.03,
			WeightMutationRate:  0.8,
			WeightMutationPower: 0.5,
			RemoveLinkRate:      0.05,
			RemoveNodeRate:      0.03,
			RemoveNodeAttempts:  20,
			EnableChance:        0.25,
		},
		SpeciesSet: SpeciesSetConfig{
			CompatibilityThreshold: 3.0,
			SpeciesTarget:          10,
			ThresholdAdjustment:    0.3,
			ExcessCoefficient:      1.0,
			DisjointCoefficient:    1.0,
			WeightCoefficient:      0.4,
		},
		Stagnation: StagnationConfig{
			SpeciesDropAge: 15,
		},
		Reproduction: ReproductionConfig{
			EliteMode:         GlobalElites,
			ElitePercent:      0.05,
			SurvivalThreshold: 0.2,
		},
		Phenotype: PhenotypeConfig{
			Evaluation:          PreviousTimestep,
			StabilizationDelta:  0.001,
			IterationMultiplier: 3,
		},
		Dataset: DatasetConfig{
			Manipulation:   NoManipulation,
			BootstrapDelay: 10,
			Fraction:       1.0,
		},
	}
}

// LoadConfig loads configuration parameters from an INI file, or from a YAML
// file when the extension is .yaml or .yml. Unknown or unparseable values are
// rejected before any evolution starts.
func LoadConfig(filePath string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		f, err := os.Open(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file '%s': %w", filePath, err)
		}
		defer f.Close()
		return ParseYAMLConfig(f)
	}

	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}
	return fromINI(cfg)
}

// ParseINIConfig reads an INI configuration from raw bytes.
func ParseINIConfig(data []byte) (*Config, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return fromINI(cfg)
}

func fromINI(cfg *ini.File) (*Config, error) {
	config := DefaultConfig()

	sections := []struct {
		name   string
		target interface{}
	}{
		{"NEAT", &config.Neat},
		{"DefaultGenome", &config.Genome},
		{"DefaultSpeciesSet", &config.SpeciesSet},
		{"DefaultStagnation", &config.Stagnation},
		{"DefaultReproduction", &config.Reproduction},
		{"Phenotype", &config.Phenotype},
		{"Dataset", &config.Dataset},
	}
	for _, s := range sections {
		if !cfg.HasSection(s.name) {
			continue
		}
		section := cfg.Section(s.name)
		if err := checkKeys(section, s.target); err != nil {
			return nil, fmt.Errorf("config error: [%s]: %w", s.name, err)
		}
		if err := section.StrictMapTo(s.target); err != nil {
			return nil, fmt.Errorf("config error: [%s]: %w", s.name, err)
		}
	}
	if !cfg.HasSection("NEAT") || !cfg.Section("NEAT").HasKey("pop_size") {
		return nil, errors.New("config error: pop_size is required")
	}
	if !cfg.HasSection("DefaultGenome") {
		return nil, errors.New("config error: [DefaultGenome] section is required")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// checkKeys rejects keys that no field of target is tagged with.
func checkKeys(section *ini.Section, target interface{}) error {
	known := make(map[string]bool)
	typ := reflect.TypeOf(target).Elem()
	for i := 0; i < typ.NumField(); i++ {
		if tag := typ.Field(i).Tag.Get("ini"); tag != "" {
			known[tag] = true
		}
	}
	var errs []error
	for _, key := range section.KeyStrings() {
		if !known[key] {
			errs = append(errs, fmt.Errorf("unknown key '%s'", key))
		}
	}
	return errors.Join(errs...)
}

// ParseYAMLConfig reads a YAML configuration. Unknown keys are rejected.
func ParseYAMLConfig(r io.Reader) (*Config, error) {
	config := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate normalizes enumerated values and checks every parameter range.
func (c *Config) Validate() error {
	c.Neat.FitnessFunction = FitnessFunction(strings.ToLower(strings.TrimSpace(string(c.Neat.FitnessFunction))))
	c.Neat.FitnessDirection = Direction(strings.ToLower(strings.TrimSpace(string(c.Neat.FitnessDirection))))
	c.Genome.Connectivity = Connectivity(strings.ToLower(strings.TrimSpace(string(c.Genome.Connectivity))))
	c.Reproduction.EliteMode = EliteMode(strings.ToLower(strings.TrimSpace(string(c.Reproduction.EliteMode))))
	c.Phenotype.Evaluation = Evaluation(strings.ToLower(strings.TrimSpace(string(c.Phenotype.Evaluation))))
	c.Dataset.Manipulation = Manipulation(strings.ToLower(strings.TrimSpace(string(c.Dataset.Manipulation))))

	if c.Neat.PopSize <= 0 {
		return errors.New("config error: pop_size must be positive")
	}
	if c.Genome.NumInputs <= 0 {
		return errors.New("config error: num_inputs must be positive")
	}
	if c.Genome.NumOutputs <= 0 {
		return errors.New("config error: num_outputs must be positive")
	}
	if c.Neat.Workers < 0 {
		return errors.New("config error: workers cannot be negative")
	}
	if c.Neat.RoundLimit <= 0 {
		return errors.New("config error: round_limit must be positive")
	}
	if c.Neat.ConsoleDelay < 0 || c.Neat.TestDelay < 0 {
		return errors.New("config error: console_delay and test_delay cannot be negative")
	}
	if c.Neat.ComplexityThreshold < 0 {
		return errors.New("config error: complexity_threshold cannot be negative")
	}
	if c.Neat.StagnationRounds <= 0 {
		return errors.New("config error: stagnation_rounds must be positive")
	}
	if !c.Neat.FitnessFunction.valid() {
		return fmt.Errorf("config error: invalid fitness_function '%s', must be one of 'rmse', 'logloss', 'multilogloss', 'accuracy'", c.Neat.FitnessFunction)
	}
	switch c.Neat.FitnessDirection {
	case "":
		c.Neat.FitnessDirection = AutoDirection
	case AutoDirection, MaximizeFitness, MinimizeFitness:
	default:
		return fmt.Errorf("config error: invalid fitness_direction '%s', must be 'auto', 'maximize' or 'minimize'", c.Neat.FitnessDirection)
	}

	switch c.Genome.Connectivity {
	case ForwardConnectivity, RecurrentConnectivity:
	default:
		return fmt.Errorf("config error: invalid connectivity '%s', must be 'forward' or 'recurrent'", c.Genome.Connectivity)
	}
	for name, rate := range map[string]float64{
		"add_link_rate":        c.Genome.AddLinkRate,
		"add_node_rate":        c.Genome.AddNodeRate,
		"weight_mutation_rate": c.Genome.WeightMutationRate,
		"remove_link_rate":     c.Genome.RemoveLinkRate,
		"remove_node_rate":     c.Genome.RemoveNodeRate,
	} {
		if rate > 1 {
			return fmt.Errorf("config error: %s cannot exceed 1", name)
		}
	}
	if c.Genome.AddLinkAttempts <= 0 || c.Genome.RemoveNodeAttempts <= 0 {
		return errors.New("config error: add_link_attempts and remove_node_attempts must be positive")
	}
	if c.Genome.WeightMutationPower < 0 {
		return errors.New("config error: weight_mutation_power cannot be negative")
	}
	if c.Genome.EnableChance < 0 || c.Genome.EnableChance > 1 {
		return errors.New("config error: enable_chance must be between 0 and 1")
	}

	if c.SpeciesSet.CompatibilityThreshold <= 0 {
		return errors.New("config error: compatibility_threshold must be positive")
	}
	if c.SpeciesSet.SpeciesTarget < 0 {
		return errors.New("config error: species_target cannot be negative")
	}
	if c.SpeciesSet.SpeciesTarget > 0 && c.SpeciesSet.ThresholdAdjustment <= 0 {
		return errors.New("config error: threshold_adjustment must be positive when species_target is set")
	}
	if c.SpeciesSet.ExcessCoefficient < 0 || c.SpeciesSet.DisjointCoefficient < 0 || c.SpeciesSet.WeightCoefficient < 0 {
		return errors.New("config error: compatibility coefficients cannot be negative")
	}

	if c.Stagnation.SpeciesDropAge <= 0 {
		return errors.New("config error: species_drop_age must be positive")
	}

	switch c.Reproduction.EliteMode {
	case GlobalElites, SpeciesElites:
	default:
		return fmt.Errorf("config error: invalid elite_mode '%s', must be 'global' or 'species'", c.Reproduction.EliteMode)
	}
	if c.Reproduction.ElitePercent < 0 || c.Reproduction.ElitePercent > 1 {
		return errors.New("config error: elite_percent must be between 0 and 1")
	}
	if c.Reproduction.SurvivalThreshold <= 0 || c.Reproduction.SurvivalThreshold > 1 {
		return errors.New("config error: survival_threshold must be in (0, 1]")
	}

	switch c.Phenotype.Evaluation {
	case PreviousTimestep, CurrentTimestep:
	default:
		return fmt.Errorf("config error: invalid evaluation '%s', must be 'previous' or 'current'", c.Phenotype.Evaluation)
	}
	if c.Phenotype.Evaluation == CurrentTimestep && c.Genome.Connectivity == RecurrentConnectivity {
		return errors.New("config error: current timestep evaluation requires forward connectivity")
	}
	if c.Phenotype.StabilizationDelta <= 0 {
		return errors.New("config error: stabilization_delta must be positive")
	}
	if c.Phenotype.IterationMultiplier <= 0 {
		return errors.New("config error: iteration_multiplier must be positive")
	}
	if c.Phenotype.Classification && c.Neat.FitnessFunction == LogLoss && c.Genome.NumOutputs > 1 {
		return errors.New("config error: logloss expects a single output, use multilogloss for classification")
	}

	switch c.Dataset.Manipulation {
	case NoManipulation, Randomize, ContinuousRandomize, Bootstrap:
	default:
		return fmt.Errorf("config error: invalid manipulation '%s'", c.Dataset.Manipulation)
	}
	if c.Dataset.Manipulation == Bootstrap && c.Dataset.BootstrapDelay <= 0 {
		return errors.New("config error: bootstrap_delay must be positive")
	}
	if c.Dataset.Fraction <= 0 || c.Dataset.Fraction > 1 {
		return errors.New("config error: fraction must be in (0, 1]")
	}
	if c.Dataset.Split < 0 || c.Dataset.Split >= 1 {
		return errors.New("config error: split must be in [0, 1)")
	}
	return nil
}
