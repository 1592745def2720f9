// Package dataneat evolves the topology and connection weights of small
// neural networks for tabular datasets using NeuroEvolution of Augmenting
// Topologies (NEAT).
//
// The neat package holds the evolutionary core: innovation registry,
// genomes, speciation, genetic operators, the generation scheduler and the
// engine that drives a whole run. The nn subpackage compiles genomes into
// runnable networks and scores them; the dataset subpackage supplies
// in-memory datasets.
//
// Basic usage:
//
//	config, err := neat.LoadConfig("path/to/config.ini")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	table, err := dataset.NewTable(inputs, ideals)
//	if err != nil {
//		log.Fatalf("Error building dataset: %v", err)
//	}
//
//	engine, err := neat.NewEngine(config, nn.NewEvaluator(config), table.Configure(&config.Dataset), nil)
//	if err != nil {
//		log.Fatalf("Error creating engine: %v", err)
//	}
//
//	best, err := engine.Run(context.Background())
package dataneat
