package differentiation

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
)

// FiniteDifference estimates derivatives with finite difference stencils on
// a possibly non-uniform grid.
//
// Order 2 uses three-point central differences in the interior and
// three-point one-sided differences at both ends, so every sample keeps a
// second-order accurate estimate. Order 1 uses forward differences and a
// backward difference for the last sample.
type FiniteDifference struct {
	Order int
}

// NewFiniteDifference returns the default second-order estimator.
func NewFiniteDifference() *FiniteDifference {
	return &FiniteDifference{Order: 2}
}

// Name implements Differentiator.
func (fd *FiniteDifference) Name() string {
	return fmt.Sprintf("FiniteDifference(order=%d)", fd.order())
}

func (fd *FiniteDifference) order() int {
	if fd.Order == 0 {
		return 2
	}
	return fd.Order
}

// Differentiate implements Differentiator.
func (fd *FiniteDifference) Differentiate(x mat.Matrix, t []float64) (*mat.Dense, error) {
	order := fd.order()
	if order != 1 && order != 2 {
		return nil, errors.NewValidationError("order", "finite difference order must be 1 or 2", order)
	}
	if err := validateGrid("FiniteDifference.Differentiate", x, t, order+1); err != nil {
		return nil, err
	}

	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)
	for j := 0; j < cols; j++ {
		col := mat.Col(nil, j, x)
		var d []float64
		if order == 1 {
			d = firstOrder(col, t)
		} else {
			d = secondOrder(col, t)
		}
		out.SetCol(j, d)
	}
	return out, nil
}

func firstOrder(x, t []float64) []float64 {
	n := len(x)
	d := make([]float64, n)
	for i := 0; i < n-1; i++ {
		d[i] = (x[i+1] - x[i]) / (t[i+1] - t[i])
	}
	d[n-1] = (x[n-1] - x[n-2]) / (t[n-1] - t[n-2])
	return d
}

// secondOrder differentiates the quadratic interpolant through each
// three-sample window.
func secondOrder(x, t []float64) []float64 {
	n := len(x)
	d := make([]float64, n)

	for i := 1; i < n-1; i++ {
		h1 := t[i] - t[i-1]
		h2 := t[i+1] - t[i]
		d[i] = -h2/(h1*(h1+h2))*x[i-1] +
			(h2-h1)/(h1*h2)*x[i] +
			h1/(h2*(h1+h2))*x[i+1]
	}

	h1 := t[1] - t[0]
	h2 := t[2] - t[1]
	d[0] = -(2*h1+h2)/(h1*(h1+h2))*x[0] +
		(h1+h2)/(h1*h2)*x[1] -
		h1/(h2*(h1+h2))*x[2]

	h1 = t[n-2] - t[n-3]
	h2 = t[n-1] - t[n-2]
	d[n-1] = h2/(h1*(h1+h2))*x[n-3] -
		(h1+h2)/(h1*h2)*x[n-2] +
		(h1+2*h2)/(h2*(h1+h2))*x[n-1]

	return d
}
