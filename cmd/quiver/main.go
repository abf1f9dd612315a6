// Package main provides the Quiver CLI.
package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/quiver-ml/quiver/backend/cpu"
	"github.com/quiver-ml/quiver/ensemble"
	"github.com/quiver-ml/quiver/internal/dataset"
	"github.com/quiver-ml/quiver/nn"
)

const version = "0.1.0"

// Demo problem dimensions shared by eval and seed-demo.
const (
	featureDim    = 32
	hiddenUnits   = 64
	numClasses    = 10
	trainExamples = 1024
	testExamples  = 256
)

func main() {
	app := &cli.App{
		Name:    "quiver",
		Usage:   "evaluate deep ensembles",
		Version: version,
		Commands: []*cli.Command{
			evalCommand(),
			seedDemoCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func evalCommand() *cli.Command {
	return &cli.Command{
		Name:  "eval",
		Usage: "evaluate an ensemble of checkpoints over the demo dataset",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "output-dir",
				Usage:    "directory containing member checkpoints",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "examples per inference batch",
				Value: 64,
			},
			&cli.Int64Flag{
				Name:  "seed",
				Usage: "seed for model init and synthetic data",
				Value: 42,
			},
			&cli.StringFlag{
				Name:  "dataset",
				Usage: "dataset name",
				Value: "synthetic",
			},
			&cli.IntFlag{
				Name:  "num-cores",
				Usage: "number of accelerator cores",
				Value: 1,
			},
		},
		Action: runEval,
	}
}

func runEval(c *cli.Context) error {
	if c.Int("num-cores") > 1 {
		return cli.Exit("only a single accelerator is currently supported", 1)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	cfg := ensemble.Config{
		OutputDir: c.String("output-dir"),
		BatchSize: c.Int("batch-size"),
		Seed:      c.Int64("seed"),
		Dataset:   c.String("dataset"),
	}

	checkpoints, err := ensemble.FindCheckpoints(cfg.OutputDir)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	backend := cpu.New()
	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed)))
	model := nn.NewClassifier[*cpu.Backend](featureDim, hiddenUnits, numClasses, rng, backend)
	train := dataset.Synthetic(trainExamples, featureDim, numClasses, rng)
	test := dataset.Synthetic(testExamples, featureDim, numClasses, rng)

	evaluator := ensemble.NewEvaluator[*cpu.Backend](model, backend, logger.Sugar())
	metrics, err := evaluator.Run(cfg, checkpoints, train, test)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	for name, value := range metrics.Map() {
		fmt.Printf("%s: %.6f\n", name, value)
	}
	return nil
}

func seedDemoCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed-demo",
		Usage: "write randomly initialized demo checkpoints for eval",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "output-dir",
				Usage:    "directory to write checkpoints into",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "members",
				Usage: "number of ensemble members",
				Value: 4,
			},
			&cli.Int64Flag{
				Name:  "seed",
				Usage: "seed for member initialization",
				Value: 42,
			},
		},
		Action: runSeedDemo,
	}
}

func runSeedDemo(c *cli.Context) error {
	dir := c.String("output-dir")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	backend := cpu.New()
	seed := uint64(c.Int64("seed"))
	for m := 0; m < c.Int("members"); m++ {
		rng := rand.New(rand.NewPCG(seed+uint64(m), seed+uint64(m)))
		model := nn.NewClassifier[*cpu.Backend](featureDim, hiddenUnits, numClasses, rng, backend)

		path := filepath.Join(dir, fmt.Sprintf("member_%02d.qvr", m))
		if err := nn.SaveCheckpoint[*cpu.Backend](path, model, 0, 0, 0); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}
