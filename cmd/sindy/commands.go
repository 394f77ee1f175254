package main

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dynadojo-go/baselines"
	"github.com/YuminosukeSato/dynadojo-go/config"
	"github.com/YuminosukeSato/dynadojo-go/metrics"
	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
	"github.com/YuminosukeSato/dynadojo-go/pkg/log"
	"github.com/YuminosukeSato/dynadojo-go/sindy"
	"github.com/YuminosukeSato/dynadojo-go/systems"
	"github.com/YuminosukeSato/dynadojo-go/viz"
)

var (
	pngPath    string
	modelOut   string
	fitOut     string
	modelIn    string
	dataFile   string
	weightsOut string
	component  int
)

func runSimulate(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		if err := loadConfig(cmd); err != nil {
			return err
		}
	}
	if len(args) == 1 {
		cfg.System = args[0]
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	sys, err := cfg.NewSystem()
	if err != nil {
		return err
	}
	seed := uint64(cfg.Seed)
	if cfg.Seed < 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed))

	train, err := systems.Generate(sys, systems.RandomInitialConditions(sys, cfg.Trajectories, cfg.InitScale, rng), cfg.Timesteps, cfg.TEnd, nil)
	if err != nil {
		return err
	}
	addNoise(train, cfg.Noise, rng)

	opts, err := cfg.BaselineOptions()
	if err != nil {
		return err
	}
	alg, err := baselines.NewSINDy(sys.StateDim(), cfg.Timesteps, cfg.Model.MaxControlCost, opts...)
	if err != nil {
		return err
	}
	if err := alg.Fit(train); err != nil {
		return errors.Wrapf(err, "fit %s", sys.Name())
	}

	out := cmd.OutOrStdout()
	if err := printEquations(cmd, alg.Model(), fmt.Sprintf("%s (%s)", sys.Name(), alg.Differentiation())); err != nil {
		return err
	}

	x0 := systems.RandomInitialConditions(sys, 1, cfg.InitScale, rng)
	truth, err := systems.Generate(sys, x0, cfg.Horizon, cfg.TEnd, nil)
	if err != nil {
		return err
	}
	forecast, err := alg.Predict(x0, cfg.Horizon)
	if err != nil {
		return errors.Wrap(err, "forecast")
	}

	errs, err := metrics.TrajectoryError(toMatrices(truth), toMatrices(forecast))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, viz.RenderMetric("complexity", fmt.Sprint(alg.Model().Complexity())))
	fmt.Fprintln(out, viz.RenderMetric("forecast rmse", fmt.Sprintf("%.4g", errs[0])))

	chart, err := viz.ASCIIForecast(truth[0], forecast[0], component, "")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, chart)

	if pngPath != "" {
		grid := baselines.Linspace(0, cfg.TEnd, cfg.Horizon)
		if err := viz.SaveForecastPNG(pngPath, sys.Name(), grid, truth[0], forecast[0], alg.Model().StateNames()); err != nil {
			return err
		}
	}
	if modelOut != "" {
		if err := alg.Model().SaveFile(modelOut); err != nil {
			return err
		}
	}
	log.GetLoggerWithName("cli").Info("Simulation finished",
		log.TrajectoriesKey, cfg.Trajectories,
		log.TimestepsKey, cfg.Timesteps,
		log.HorizonKey, cfg.Horizon,
	)
	return nil
}

// loadConfig replaces cfg with the file contents and then reapplies the
// flags set on the command line, which take precedence.
func loadConfig(cmd *cobra.Command) error {
	loaded, err := config.Load(configFile)
	if err != nil {
		return err
	}
	changed := map[string]string{}
	cmd.Flags().Visit(func(fl *pflag.Flag) {
		if fl.Name != "config" {
			changed[fl.Name] = fl.Value.String()
		}
	})
	*cfg = *loaded
	for name, v := range changed {
		if err := cmd.Flags().Set(name, v); err != nil {
			return err
		}
	}
	return nil
}

func runFit(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(dataFile)
	if err != nil {
		return errors.Wrapf(err, "read %s", dataFile)
	}
	var data [][][]float64
	if err := json.Unmarshal(raw, &data); err != nil {
		return errors.Wrapf(err, "decode %s", dataFile)
	}
	if len(data) == 0 || len(data[0]) == 0 {
		return errors.NewModelError("fit", "no trajectories in "+dataFile, errors.ErrEmptyData)
	}

	opts, err := cfg.BaselineOptions()
	if err != nil {
		return err
	}
	alg, err := baselines.NewSINDy(len(data[0][0]), len(data[0]), cfg.Model.MaxControlCost, opts...)
	if err != nil {
		return err
	}
	if err := alg.Fit(data); err != nil {
		return err
	}
	if err := printEquations(cmd, alg.Model(), "identified"); err != nil {
		return err
	}
	if err := alg.Model().SaveFile(fitOut); err != nil {
		return err
	}
	if weightsOut != "" {
		w, err := alg.Model().Weights()
		if err != nil {
			return err
		}
		b, err := w.ToJSON()
		if err != nil {
			return err
		}
		if err := os.WriteFile(weightsOut, b, 0644); err != nil {
			return errors.Wrapf(err, "write %s", weightsOut)
		}
	}
	return nil
}

func runEquations(cmd *cobra.Command, args []string) error {
	m := sindy.New()
	if err := m.LoadFile(modelIn); err != nil {
		return err
	}
	return printEquations(cmd, m, modelIn)
}

func printEquations(cmd *cobra.Command, m *sindy.Model, title string) error {
	var sb strings.Builder
	if err := m.PrintEquations(&sb, precision); err != nil {
		return err
	}
	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	fmt.Fprintln(cmd.OutOrStdout(), viz.RenderEquations(title, lines))
	return nil
}

func addNoise(batch [][][]float64, sigma float64, rng *rand.Rand) {
	if sigma == 0 {
		return
	}
	for _, traj := range batch {
		for _, row := range traj {
			for j := range row {
				row[j] += sigma * rng.NormFloat64()
			}
		}
	}
}

func toMatrices(batch [][][]float64) []mat.Matrix {
	out := make([]mat.Matrix, len(batch))
	for i, traj := range batch {
		d := mat.NewDense(len(traj), len(traj[0]), nil)
		for j, row := range traj {
			d.SetRow(j, row)
		}
		out[i] = d
	}
	return out
}
