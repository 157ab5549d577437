package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mpraski/coins/internal/config"
)

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "coinem",
	Short:         "Estimate two coin biases from unlabeled toss counts with EM",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		c, err := config.LoadOrDefault(configPath)
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "experiment configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every EM iteration")

	rootCmd.AddCommand(runCmd, initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("coinem failed", "error", err)
		os.Exit(1)
	}
}
