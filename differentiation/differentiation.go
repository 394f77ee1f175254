// Package differentiation estimates time derivatives of sampled state
// trajectories.
//
// A trajectory is a matrix with one row per sample and one column per state
// variable, paired with the strictly increasing sample times. Estimators
// return a matrix of the same shape.
package differentiation

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
)

// Differentiator estimates dx/dt for every sample of a trajectory.
type Differentiator interface {
	// Differentiate returns a matrix shaped like x holding the derivative estimate.
	Differentiate(x mat.Matrix, t []float64) (*mat.Dense, error)

	// Name identifies the method in logs and saved hyperparameters.
	Name() string
}

// Smoother is implemented by differentiators that denoise the states before
// differencing. The identification step regresses on the smoothed states
// when one is available.
type Smoother interface {
	Smooth(x mat.Matrix, t []float64) (*mat.Dense, error)
}

// validateGrid checks that t matches the rows of x, that there are at least
// minSamples samples and that t is strictly increasing.
func validateGrid(op string, x mat.Matrix, t []float64, minSamples int) error {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError(op, "empty trajectory", errors.ErrEmptyData)
	}
	if len(t) != rows {
		return errors.NewDimensionError(op, rows, len(t), 0)
	}
	if rows < minSamples {
		return errors.NewValidationError("samples", "too few samples for the differentiation stencil", rows)
	}
	for i := 1; i < len(t); i++ {
		if !(t[i] > t[i-1]) {
			return errors.NewValueError(op, "time grid must be strictly increasing")
		}
	}
	return nil
}
