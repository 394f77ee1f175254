package differentiation

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
)

// SmoothedFiniteDifference applies a Savitzky-Golay filter to the states and
// differentiates the smoothed signal with second-order finite differences.
//
// Every sample is replaced by the value at its own time of the least squares
// polynomial of degree PolyOrder fitted over WindowLength neighbouring
// samples. Near the ends the window is shifted inward so it always holds
// WindowLength samples.
type SmoothedFiniteDifference struct {
	WindowLength int
	PolyOrder    int

	fd FiniteDifference
}

// NewSmoothedFiniteDifference creates a smoothed estimator.
func NewSmoothedFiniteDifference(windowLength, polyOrder int) *SmoothedFiniteDifference {
	return &SmoothedFiniteDifference{
		WindowLength: windowLength,
		PolyOrder:    polyOrder,
		fd:           FiniteDifference{Order: 2},
	}
}

// Name implements Differentiator.
func (s *SmoothedFiniteDifference) Name() string {
	return fmt.Sprintf("SmoothedFiniteDifference(window_length=%d, polyorder=%d)", s.WindowLength, s.PolyOrder)
}

// Validate checks the filter parameters independently of any data.
func (s *SmoothedFiniteDifference) Validate() error {
	if s.WindowLength < 1 {
		return errors.NewValidationError("window_length", "must be at least 1", s.WindowLength)
	}
	if s.PolyOrder < 0 {
		return errors.NewValidationError("polyorder", "must be non-negative", s.PolyOrder)
	}
	if s.PolyOrder >= s.WindowLength {
		return errors.NewValidationError("polyorder", fmt.Sprintf("must be less than window_length (%d)", s.WindowLength), s.PolyOrder)
	}
	return nil
}

// Differentiate implements Differentiator.
func (s *SmoothedFiniteDifference) Differentiate(x mat.Matrix, t []float64) (*mat.Dense, error) {
	smoothed, err := s.Smooth(x, t)
	if err != nil {
		return nil, err
	}
	return s.fd.Differentiate(smoothed, t)
}

// Smooth implements Smoother.
func (s *SmoothedFiniteDifference) Smooth(x mat.Matrix, t []float64) (*mat.Dense, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := validateGrid("SmoothedFiniteDifference.Smooth", x, t, 3); err != nil {
		return nil, err
	}

	rows, cols := x.Dims()
	if s.WindowLength > rows {
		return nil, errors.NewValidationError("window_length", fmt.Sprintf("must not exceed the number of samples (%d)", rows), s.WindowLength)
	}

	out := mat.NewDense(rows, cols, nil)
	if s.WindowLength == 1 {
		out.Copy(x)
		return out, nil
	}

	w := s.WindowLength
	p := s.PolyOrder
	half := (w - 1) / 2
	scale := (t[rows-1] - t[0]) / float64(rows-1)

	vander := mat.NewDense(w, p+1, nil)
	coef := mat.NewDense(p+1, cols, nil)
	var qr mat.QR

	for i := 0; i < rows; i++ {
		start := i - half
		if start < 0 {
			start = 0
		}
		if start > rows-w {
			start = rows - w
		}

		// Powers of the offsets relative to t[i], so the fitted polynomial's
		// constant term is the smoothed value at t[i].
		for r := 0; r < w; r++ {
			dt := (t[start+r] - t[i]) / scale
			v := 1.0
			for c := 0; c <= p; c++ {
				vander.Set(r, c, v)
				v *= dt
			}
		}

		qr.Factorize(vander)
		block := sliceRows(x, start, start+w)
		if err := qr.SolveTo(coef, false, block); err != nil {
			return nil, errors.NewModelError("SmoothedFiniteDifference.Smooth", "local polynomial fit failed", err)
		}
		for j := 0; j < cols; j++ {
			out.Set(i, j, coef.At(0, j))
		}
	}
	return out, nil
}

// sliceRows copies rows [from, to) of x into a new dense matrix.
func sliceRows(x mat.Matrix, from, to int) *mat.Dense {
	_, cols := x.Dims()
	block := mat.NewDense(to-from, cols, nil)
	for i := from; i < to; i++ {
		for j := 0; j < cols; j++ {
			block.Set(i-from, j, x.At(i, j))
		}
	}
	return block
}
