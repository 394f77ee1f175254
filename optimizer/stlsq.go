package optimizer

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
)

// STLSQ is sequentially thresholded least squares.
//
// Each iteration solves a ridge regression restricted to the current support,
// then drops every coefficient whose magnitude is below Threshold. Iteration
// stops once the support no longer changes. When Unbias is set, the surviving
// coefficients are refit with ordinary least squares.
type STLSQ struct {
	Threshold float64
	Alpha     float64
	MaxIter   int
	Unbias    bool

	history []*mat.Dense
}

// Option configures STLSQ.
type Option func(*STLSQ)

// WithThreshold sets the pruning threshold.
func WithThreshold(threshold float64) Option {
	return func(s *STLSQ) {
		s.Threshold = threshold
	}
}

// WithAlpha sets the ridge penalty.
func WithAlpha(alpha float64) Option {
	return func(s *STLSQ) {
		s.Alpha = alpha
	}
}

// WithMaxIter sets the iteration budget.
func WithMaxIter(n int) Option {
	return func(s *STLSQ) {
		s.MaxIter = n
	}
}

// WithUnbias toggles the final least squares refit.
func WithUnbias(unbias bool) Option {
	return func(s *STLSQ) {
		s.Unbias = unbias
	}
}

// NewSTLSQ returns an STLSQ with threshold 0.1, alpha 0.05, 20 iterations
// and unbiasing, modified by opts.
func NewSTLSQ(opts ...Option) *STLSQ {
	s := &STLSQ{
		Threshold: 0.1,
		Alpha:     0.05,
		MaxIter:   20,
		Unbias:    true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements Optimizer.
func (s *STLSQ) Name() string {
	return "STLSQ"
}

// Params implements Optimizer.
func (s *STLSQ) Params() map[string]interface{} {
	return map[string]interface{}{
		"threshold": s.Threshold,
		"alpha":     s.Alpha,
		"max_iter":  s.MaxIter,
		"unbias":    s.Unbias,
	}
}

// Validate checks the hyperparameters.
func (s *STLSQ) Validate() error {
	if s.Threshold < 0 || math.IsNaN(s.Threshold) {
		return errors.NewValidationError("threshold", "must be non-negative", s.Threshold)
	}
	if s.Alpha < 0 || math.IsNaN(s.Alpha) {
		return errors.NewValidationError("alpha", "must be non-negative", s.Alpha)
	}
	if s.MaxIter < 1 {
		return errors.NewValidationError("max_iter", "must be at least 1", s.MaxIter)
	}
	return nil
}

// History returns the thresholded coefficients after every iteration of the
// last Fit.
func (s *STLSQ) History() []*mat.Dense {
	return s.history
}

// Fit implements Optimizer.
func (s *STLSQ) Fit(theta, xdot mat.Matrix) (*mat.Dense, error) {
	const op = "STLSQ.Fit"
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := checkInputs(op, theta, xdot); err != nil {
		return nil, err
	}

	_, nFeatures := theta.Dims()
	_, nTargets := xdot.Dims()

	support := make([][]bool, nTargets)
	for i := range support {
		support[i] = make([]bool, nFeatures)
		for j := range support[i] {
			support[i][j] = true
		}
	}

	coef := mat.NewDense(nTargets, nFeatures, nil)
	s.history = s.history[:0]
	converged := false

	for it := 0; it < s.MaxIter; it++ {
		if countSupport(support) == 0 {
			return nil, errors.NewModelError(op, "all coefficients eliminated",
				errors.Wrapf(errors.ErrAllCoefficientsEliminated, "threshold %g", s.Threshold))
		}

		if err := s.regress(op, theta, xdot, support, coef, s.Alpha); err != nil {
			return nil, err
		}
		if err := errors.CheckMatrix(op, coef, it); err != nil {
			return nil, err
		}

		changed := s.prune(coef, support)
		s.history = append(s.history, mat.DenseCopyOf(coef))
		if !changed {
			converged = true
			break
		}
	}

	if countSupport(support) == 0 {
		return nil, errors.NewModelError(op, "all coefficients eliminated",
			errors.Wrapf(errors.ErrAllCoefficientsEliminated, "threshold %g", s.Threshold))
	}
	if !converged {
		errors.Warn(errors.NewConvergenceWarning("STLSQ", s.MaxIter,
			fmt.Sprintf("support still changing with threshold %g", s.Threshold)))
	}

	if s.Unbias {
		if err := s.regress(op, theta, xdot, support, coef, 0); err != nil {
			return nil, err
		}
		if err := errors.CheckMatrix(op, coef, s.MaxIter); err != nil {
			return nil, err
		}
	}
	return coef, nil
}

// regress solves the restricted problem for every target and writes the
// result into coef, zeroing the terms outside the support.
func (s *STLSQ) regress(op string, theta, xdot mat.Matrix, support [][]bool, coef *mat.Dense, alpha float64) error {
	rows, _ := theta.Dims()
	for i, row := range support {
		var cols []int
		for j, keep := range row {
			if keep {
				cols = append(cols, j)
			}
			coef.Set(i, j, 0)
		}
		if len(cols) == 0 {
			continue
		}

		sub := mat.NewDense(rows, len(cols), nil)
		for r := 0; r < rows; r++ {
			for k, j := range cols {
				sub.Set(r, k, theta.At(r, j))
			}
		}
		target := mat.NewVecDense(rows, nil)
		for r := 0; r < rows; r++ {
			target.SetVec(r, xdot.At(r, i))
		}

		w, err := ridge(op, sub, target, alpha)
		if err != nil {
			return err
		}
		for k, j := range cols {
			coef.Set(i, j, w.At(k, 0))
		}
	}
	return nil
}

// prune zeroes the coefficients below the threshold and reports whether the
// support changed.
func (s *STLSQ) prune(coef *mat.Dense, support [][]bool) bool {
	changed := false
	for i, row := range support {
		for j := range row {
			keep := math.Abs(coef.At(i, j)) >= s.Threshold
			if !keep {
				coef.Set(i, j, 0)
			}
			if keep != row[j] {
				row[j] = keep
				changed = true
			}
		}
	}
	return changed
}

func countSupport(support [][]bool) int {
	n := 0
	for _, row := range support {
		for _, keep := range row {
			if keep {
				n++
			}
		}
	}
	return n
}
