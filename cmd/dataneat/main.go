// Command dataneat evolves networks for a CSV dataset.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"

	"github.com/baldhumanity/dataneat/neat"
	"github.com/baldhumanity/dataneat/neat/dataset"
	"github.com/baldhumanity/dataneat/neat/nn"
	"github.com/spf13/cobra"
)

type runOptions struct {
	configPath string
	trainPath  string
	testPath   string
	reportPath string
	logFormat  string
	verbose    bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "dataneat",
		Short:        "Evolve neural network topologies and weights for tabular data",
		SilenceUsage: true,
	}
	root.AddCommand(newRunCommand(), newValidateCommand())
	return root
}

func newValidateCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a configuration file without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := neat.LoadConfig(configPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config ok: %d genomes, %d inputs, %d outputs, fitness %s\n",
				config.Neat.PopSize, config.Genome.NumInputs, config.Genome.NumOutputs, config.Neat.FitnessFunction)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to an INI or YAML configuration")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func newRunCommand() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an evolution over a CSV dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to an INI or YAML configuration")
	flags.StringVarP(&opts.trainPath, "data", "d", "", "training CSV; the first num_inputs columns are inputs")
	flags.StringVar(&opts.testPath, "test", "", "test CSV; defaults to a split of the training data when split > 0")
	flags.StringVarP(&opts.reportPath, "report", "r", "", "write per-round run data to this CSV file")
	flags.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log generation details")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func newLogger(opts *runOptions) (*slog.Logger, error) {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	switch opts.logFormat {
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, handlerOpts)), nil
	}
	return nil, fmt.Errorf("unknown log format '%s'", opts.logFormat)
}

func run(cmd *cobra.Command, opts *runOptions) error {
	logger, err := newLogger(opts)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	config, err := neat.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}

	train, test, err := loadData(config, opts)
	if err != nil {
		return err
	}
	if err := checkWidths("training", train, config); err != nil {
		return err
	}
	train.Configure(&config.Dataset)

	var testSet neat.Dataset
	if test != nil {
		if err := checkWidths("test", test, config); err != nil {
			return err
		}
		testSet = test
	}
	evaluator := nn.NewEvaluator(config)
	engine, err := neat.NewEngine(config, evaluator, train, testSet)
	if err != nil {
		return err
	}
	engine.Population.SetLogger(logger)
	engine.Logger = logger

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	best, runErr := engine.Run(ctx)

	if opts.reportPath != "" {
		if err := engine.RunData.SaveCSV(opts.reportPath); err != nil {
			return err
		}
		logger.Info("run data written", "path", opts.reportPath, "rounds", len(engine.RunData.Records))
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if best != nil {
		fmt.Fprint(cmd.OutOrStdout(), best.String())
	}
	return nil
}

func checkWidths(name string, table *dataset.Table, config *neat.Config) error {
	if table.InputWidth() != config.Genome.NumInputs || table.IdealWidth() != config.Genome.NumOutputs {
		return fmt.Errorf("%s dataset has %d inputs and %d outputs, config expects %d and %d",
			name, table.InputWidth(), table.IdealWidth(), config.Genome.NumInputs, config.Genome.NumOutputs)
	}
	return nil
}

func loadData(config *neat.Config, opts *runOptions) (train, test *dataset.Table, err error) {
	train, err = dataset.LoadCSV(opts.trainPath, config.Genome.NumInputs)
	if err != nil {
		return nil, nil, err
	}
	if opts.testPath != "" {
		test, err = dataset.LoadCSV(opts.testPath, config.Genome.NumInputs)
		return train, test, err
	}
	if config.Dataset.Split > 0 {
		rng := rand.New(rand.NewSource(config.Neat.Seed))
		return train.Split(config.Dataset.Split, rng)
	}
	return train, nil, nil
}
