package integrate

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
)

// RK4 is the classical fourth-order Runge-Kutta method with a fixed number
// of equal steps between consecutive output times.
type RK4 struct {
	Substeps int
}

// NewRK4 returns an RK4 integrator taking 10 steps per output interval.
func NewRK4() *RK4 {
	return &RK4{Substeps: 10}
}

// Name implements Integrator.
func (r *RK4) Name() string {
	return "RK4"
}

// Integrate implements Integrator.
func (r *RK4) Integrate(f Func, x0, t []float64) (*mat.Dense, error) {
	if err := validate(r.Name(), f, x0, t); err != nil {
		return nil, err
	}
	sub := r.Substeps
	if sub < 1 {
		sub = 1
	}

	n := len(x0)
	out := mat.NewDense(len(t), n, nil)
	out.SetRow(0, x0)

	x := append([]float64(nil), x0...)
	k1 := make([]float64, n)
	k2 := make([]float64, n)
	k3 := make([]float64, n)
	k4 := make([]float64, n)
	scratch := make([]float64, n)

	steps := 0
	for j := 1; j < len(t); j++ {
		dt := (t[j] - t[j-1]) / float64(sub)
		for s := 0; s < sub; s++ {
			tc := t[j-1] + float64(s)*dt

			f(tc, x, k1)
			for i := 0; i < n; i++ {
				scratch[i] = x[i] + dt*0.5*k1[i]
			}
			f(tc+dt*0.5, scratch, k2)
			for i := 0; i < n; i++ {
				scratch[i] = x[i] + dt*0.5*k2[i]
			}
			f(tc+dt*0.5, scratch, k3)
			for i := 0; i < n; i++ {
				scratch[i] = x[i] + dt*k3[i]
			}
			f(tc+dt, scratch, k4)

			dt6 := dt / 6.0
			for i := 0; i < n; i++ {
				x[i] += dt6 * (k1[i] + 2*k2[i] + 2*k3[i] + k4[i])
			}
			steps++
		}
		if !errors.IsFinite(x) {
			return nil, errors.NewNumericalInstabilityError(r.Name()+".Integrate", append([]float64(nil), x...), steps)
		}
		out.SetRow(j, x)
	}
	return out, nil
}
