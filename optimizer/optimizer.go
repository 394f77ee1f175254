// Package optimizer implements the sparse regression step of system
// identification.
//
// An Optimizer solves Theta * Xi^T ≈ Xdot for a coefficient matrix Xi with one
// row per target (state derivative) and one column per library term, and
// promotes sparsity in Xi.
package optimizer

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
)

// Optimizer fits sparse coefficients for a library matrix.
type Optimizer interface {
	// Fit returns coefficients shaped (n_targets, n_features) for
	// theta (n_samples × n_features) and xdot (n_samples × n_targets).
	Fit(theta, xdot mat.Matrix) (*mat.Dense, error)

	// Name identifies the optimizer in logs and saved hyperparameters.
	Name() string

	// Params returns the hyperparameters.
	Params() map[string]interface{}
}

func checkInputs(op string, theta, xdot mat.Matrix) error {
	rows, cols := theta.Dims()
	yRows, yCols := xdot.Dims()
	if rows == 0 || cols == 0 || yCols == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if rows != yRows {
		return errors.NewDimensionError(op, rows, yRows, 0)
	}
	if err := errors.CheckMatrix(op, theta, 0); err != nil {
		return err
	}
	return errors.CheckMatrix(op, xdot, 0)
}

// ridge solves (A^T A + alpha I) w = A^T b for every column of b.
// A singular normal matrix is retried once with a tiny diagonal shift.
func ridge(op string, a, b mat.Matrix, alpha float64) (*mat.Dense, error) {
	_, cols := a.Dims()
	_, bCols := b.Dims()

	var ata mat.Dense
	ata.Mul(a.T(), a)
	for i := 0; i < cols; i++ {
		ata.Set(i, i, ata.At(i, i)+alpha)
	}
	var atb mat.Dense
	atb.Mul(a.T(), b)

	w := mat.NewDense(cols, bCols, nil)
	err := w.Solve(&ata, &atb)
	if err == nil {
		return w, nil
	}

	for i := 0; i < cols; i++ {
		ata.Set(i, i, ata.At(i, i)+1e-10)
	}
	if err = w.Solve(&ata, &atb); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) && errors.CheckMatrix(op, w, 0) == nil {
			// ill-conditioned but solvable
			return w, nil
		}
		return nil, errors.NewModelError(op, "singular normal equations", errors.Wrap(errors.ErrSingularMatrix, err.Error()))
	}
	return w, nil
}
