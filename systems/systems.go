// Package systems provides reference dynamical systems for generating
// training trajectories with known governing equations.
package systems

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/dynadojo-go/core/parallel"
	"github.com/YuminosukeSato/dynadojo-go/integrate"
	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
)

// System is an autonomous ODE x' = f(x) with named parameters.
type System interface {
	Name() string
	StateDim() int
	// Derive writes f(x) into dx; t is ignored by autonomous systems.
	Derive(t float64, x, dx []float64)
	DefaultState() []float64
	Params() map[string]float64
	SetParam(name string, v float64) error
}

var registry = map[string]func() System{
	"exponential_decay": func() System { return NewExponentialDecay() },
	"linear_oscillator": func() System { return NewLinearOscillator() },
	"lorenz":            func() System { return NewLorenz() },
	"lotka_volterra":    func() System { return NewLotkaVolterra() },
}

// Names lists the registered systems in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a new instance of the named system with default parameters.
func Lookup(name string) (System, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, errors.NewValidationError("system", fmt.Sprintf("unknown system, want one of %v", Names()), name)
	}
	return ctor(), nil
}

// Generate integrates sys from every initial condition over timesteps
// uniformly spaced points on [0, tEnd] and returns the trajectories in
// [trajectory][timestep][state] layout. A nil integrator selects the
// adaptive default.
func Generate(sys System, x0s [][]float64, timesteps int, tEnd float64, integ integrate.Integrator) ([][][]float64, error) {
	if timesteps < 2 {
		return nil, errors.NewValidationError("timesteps", "must be at least 2", timesteps)
	}
	if !(tEnd > 0) {
		return nil, errors.NewValidationError("t_end", "must be positive", tEnd)
	}
	if integ == nil {
		integ = integrate.NewDormandPrince()
	}
	for i, x0 := range x0s {
		if len(x0) != sys.StateDim() {
			return nil, errors.NewInputShapeErrorFor("generation", fmt.Sprintf("x0[%d]", i), []int{sys.StateDim()}, []int{len(x0)})
		}
	}

	grid := floats.Span(make([]float64, timesteps), 0, tEnd)
	out := make([][][]float64, len(x0s))
	err := parallel.ForEach(len(x0s), len(x0s), func(i int) error {
		traj, err := integ.Integrate(sys.Derive, x0s[i], grid)
		if err != nil {
			return errors.Wrapf(err, "%s from x0[%d]", sys.Name(), i)
		}
		rows := make([][]float64, timesteps)
		for j := range rows {
			rows[j] = append([]float64(nil), traj.RawRowView(j)...)
		}
		out[i] = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RandomInitialConditions perturbs the default state of sys with Gaussian
// noise of standard deviation scale.
func RandomInitialConditions(sys System, n int, scale float64, rng *rand.Rand) [][]float64 {
	base := sys.DefaultState()
	out := make([][]float64, n)
	for i := range out {
		x := make([]float64, len(base))
		for j, v := range base {
			x[j] = v + scale*rng.NormFloat64()
		}
		out[i] = x
	}
	return out
}

func unknownParam(sys System, name string) error {
	return errors.NewValidationError("param", fmt.Sprintf("%s has no parameter %q", sys.Name(), name), name)
}
