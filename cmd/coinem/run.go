package main

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mpraski/coins"
	"github.com/mpraski/coins/internal/config"
)

var (
	dataPath string
	outPath  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fit the configured experiment and rank random restarts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.OutOrStdout())
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("%s already exists", configPath)
		}
		if err := config.Default().Save(configPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&dataPath, "data", "d", "", "CSV of heads,tails[,coin] instead of simulated data")
	runCmd.Flags().StringVarP(&outPath, "out", "o", "", "write the ranked restarts as CSV")
}

func run(w io.Writer) error {
	id := uuid.New().String()
	log := logger.With("run", id)

	labeled, hasLabels, err := dataset()
	if err != nil {
		return err
	}
	d := labeled.Unlabel()
	truth := cfg.Data.Truth.Theta()

	fmt.Fprintf(w, "run %s: %d experiments of %d tosses\n", id, len(d), d.Tosses())
	for i, e := range labeled {
		label := "?"
		if hasLabels {
			label = e.Coin.String()
		}
		fmt.Fprintf(w, "  %2d  %s  %2d H  %2d T\n", i, label, e.Heads, e.Tails)
	}

	if hasLabels {
		mle, err := coins.ComputeMLE(labeled)
		switch {
		case errors.Is(err, coins.ErrDivisionUndefined):
			fmt.Fprintf(w, "MLE: undefined (%v)\n", err)
		case err != nil:
			return err
		default:
			fmt.Fprintf(w, "MLE: %v\n", mle)
		}
	}

	engine, err := cfg.Engine()
	if err != nil {
		return err
	}
	engine.WithLogger(log)

	fit, err := engine.Run(d, cfg.EM.Initial.Theta())
	if err != nil {
		fmt.Fprintf(w, "EM from %v: %v\n", cfg.EM.Initial.Theta(), err)
	} else {
		fmt.Fprintf(w, "EM from %v:\n", cfg.EM.Initial.Theta())
		for i, t := range fit.Trace {
			fmt.Fprintf(w, "  #%-3d %v  log-likelihood %.4f\n", i, t, coins.LogLikelihood(d, t))
		}
		fmt.Fprintf(w, "EM: %v after %d iterations\n", fit.Theta, fit.Iterations)
	}

	restarter, err := coins.NewRestarter(engine, cfg.Restart.Workers)
	if err != nil {
		return err
	}

	results, err := restarter.WithLogger(log).Run(d, cfg.Restart.Count, rand.New(rand.NewSource(cfg.Restart.Seed)), truth)
	if err != nil {
		return err
	}

	report(w, results)

	if outPath != "" {
		if err := export(outPath, id, results); err != nil {
			return err
		}
		log.Info("restarts exported", "path", outPath)
	}

	return nil
}

func export(path, id string, results []coins.RestartResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := coins.WriteRestarts(f, id, results); err != nil {
		f.Close()
		return fmt.Errorf("failed to export restarts: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func dataset() (coins.LabeledDataset, bool, error) {
	if dataPath != "" {
		return coins.NewImporter().Import(dataPath)
	}

	rng := rand.New(rand.NewSource(cfg.Data.Seed))
	d, err := coins.Simulate(rng, cfg.Data.Truth.Theta(), cfg.Data.Experiments, cfg.Data.Tosses)
	return d, err == nil, err
}

func report(w io.Writer, results []coins.RestartResult) {
	fmt.Fprintf(w, "%d restarts, %d ranked\n", len(results), len(coins.Succeeded(results)))

	if best, ok := coins.Best(results); ok {
		fmt.Fprintf(w, "best:  restart %d from %v -> %v score %.4f\n", best.Index, best.Initial, best.Final, best.Score)
	}
	if worst, ok := coins.Worst(results); ok {
		fmt.Fprintf(w, "worst: restart %d from %v -> %v score %.4f\n", worst.Index, worst.Initial, worst.Final, worst.Score)
	}

	for _, r := range results {
		if r.Failed() {
			fmt.Fprintf(w, "excluded: restart %d from %v: %v\n", r.Index, r.Initial, r.Err)
		}
	}
}
