// Package integrate solves initial value problems x' = f(t, x) and reports
// the solution at requested output times.
package integrate

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
)

// Func writes dx/dt at (t, x) into dx. Implementations must not retain x or dx.
type Func func(t float64, x, dx []float64)

// Integrator solves an initial value problem on a grid of output times.
type Integrator interface {
	// Integrate returns a len(t) × len(x0) matrix whose row i is the state at
	// t[i]. Row 0 is x0, taken to be the state at t[0].
	Integrate(f Func, x0, t []float64) (*mat.Dense, error)

	// Name identifies the method in logs and errors.
	Name() string
}

// Stats counts the work done by one integration.
type Stats struct {
	Steps    int
	Rejected int
	Evals    int
}

// Solve integrates with the default adaptive Dormand-Prince method.
func Solve(f Func, x0, t []float64) (*mat.Dense, error) {
	return NewDormandPrince().Integrate(f, x0, t)
}

func validate(method string, f Func, x0, t []float64) error {
	op := method + ".Integrate"
	if f == nil {
		return errors.NewValidationError("f", "derivative function is required", nil)
	}
	if len(x0) == 0 || len(t) == 0 {
		return errors.NewModelError(op, "empty initial condition or time grid", errors.ErrEmptyData)
	}
	if !errors.IsFinite(x0) {
		return errors.NewNumericalInstabilityError(op, x0, 0)
	}
	for i := 1; i < len(t); i++ {
		if !(t[i] > t[i-1]) {
			return errors.NewValueError(op, "output times must be strictly increasing")
		}
	}
	return nil
}
