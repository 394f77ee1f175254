package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/dynadojo-go/config"
	"github.com/YuminosukeSato/dynadojo-go/pkg/log"
)

var (
	configFile string
	logLevel   string
	precision  int
	cfg        *config.Config
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg = config.DefaultConfig()
	configFile, pngPath, modelOut, fitOut, modelIn, dataFile, weightsOut = "", "", "", "", "", "", ""
	component = 0

	rootCmd := &cobra.Command{
		Use:           "sindy",
		Short:         "sparse identification of nonlinear dynamics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(level)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().IntVar(&precision, "precision", 3, "decimal places of printed coefficients")

	simulateCmd := &cobra.Command{
		Use:   "simulate [system]",
		Short: "generate trajectories from a reference system, fit and forecast",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulate,
	}
	f := simulateCmd.Flags()
	f.StringVar(&configFile, "config", "", "YAML experiment config")
	f.IntVar(&cfg.Trajectories, "trajectories", cfg.Trajectories, "training trajectories")
	f.IntVar(&cfg.Timesteps, "timesteps", cfg.Timesteps, "samples per training trajectory")
	f.Float64Var(&cfg.TEnd, "t-end", cfg.TEnd, "simulated duration of each trajectory")
	f.Float64Var(&cfg.InitScale, "init-scale", cfg.InitScale, "spread of random initial conditions")
	f.Float64Var(&cfg.Noise, "noise", cfg.Noise, "gaussian measurement noise")
	f.IntVar(&cfg.Horizon, "horizon", cfg.Horizon, "forecast length")
	f.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed (negative for time based)")
	f.StringVar(&cfg.Model.Differentiation, "diff", cfg.Model.Differentiation, "differentiation method (fd, smoothed_fd)")
	f.StringVar(&cfg.Model.Integrator, "integrator", cfg.Model.Integrator, "integrator (dopri5, rk4)")
	f.IntVar(&cfg.Model.EnsembleModels, "ensemble", cfg.Model.EnsembleModels, "bootstrap models")
	f.StringVar(&pngPath, "png", "", "write a forecast plot to this file")
	f.StringVar(&modelOut, "save", "", "write the fitted model to this file")
	f.IntVar(&component, "component", 0, "state component shown in the terminal chart")

	fitCmd := &cobra.Command{
		Use:   "fit",
		Short: "fit trajectories stored as JSON [trajectory][timestep][state]",
		Args:  cobra.NoArgs,
		RunE:  runFit,
	}
	fitCmd.Flags().StringVar(&dataFile, "data", "", "trajectory JSON file")
	fitCmd.Flags().StringVar(&fitOut, "out", "model.gob", "fitted model output")
	fitCmd.Flags().StringVar(&weightsOut, "weights", "", "write coefficients as JSON")
	fitCmd.Flags().StringVar(&cfg.Model.Differentiation, "diff", cfg.Model.Differentiation, "differentiation method (fd, smoothed_fd)")
	fitCmd.Flags().IntVar(&cfg.Model.EnsembleModels, "ensemble", cfg.Model.EnsembleModels, "bootstrap models")
	fitCmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed (negative for time based)")
	_ = fitCmd.MarkFlagRequired("data")

	equationsCmd := &cobra.Command{
		Use:   "equations",
		Short: "print the equations of a saved model",
		Args:  cobra.NoArgs,
		RunE:  runEquations,
	}
	equationsCmd.Flags().StringVar(&modelIn, "model", "model.gob", "saved model")

	rootCmd.AddCommand(simulateCmd, fitCmd, equationsCmd)
	return rootCmd
}
