package differentiation

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
)

func grid(n int, t0, t1 float64) []float64 {
	return floats.Span(make([]float64, n), t0, t1)
}

func sample(t []float64, fns ...func(float64) float64) *mat.Dense {
	x := mat.NewDense(len(t), len(fns), nil)
	for i, ti := range t {
		for j, f := range fns {
			x.Set(i, j, f(ti))
		}
	}
	return x
}

func TestFiniteDifferenceExactOnQuadratics(t *testing.T) {
	// non-uniform grid
	ts := []float64{0, 0.1, 0.25, 0.3, 0.55, 0.7, 1.0}
	x := sample(ts,
		func(t float64) float64 { return t * t },
		func(t float64) float64 { return 3 - 2*t },
	)

	d, err := NewFiniteDifference().Differentiate(x, ts)
	require.NoError(t, err)

	for i, ti := range ts {
		assert.InDelta(t, 2*ti, d.At(i, 0), 1e-12, "row %d", i)
		assert.InDelta(t, -2, d.At(i, 1), 1e-12, "row %d", i)
	}
}

func TestFiniteDifferenceFirstOrder(t *testing.T) {
	ts := grid(5, 0, 1)
	x := sample(ts, func(t float64) float64 { return 4*t + 1 })

	fd := &FiniteDifference{Order: 1}
	d, err := fd.Differentiate(x, ts)
	require.NoError(t, err)
	for i := range ts {
		assert.InDelta(t, 4, d.At(i, 0), 1e-12)
	}
	assert.Equal(t, "FiniteDifference(order=1)", fd.Name())
}

func TestFiniteDifferenceExponentialDecay(t *testing.T) {
	ts := grid(100, 0, 1)
	x := sample(ts, func(t float64) float64 { return math.Exp(-t) })

	d, err := NewFiniteDifference().Differentiate(x, ts)
	require.NoError(t, err)
	for i, ti := range ts {
		assert.InDelta(t, -math.Exp(-ti), d.At(i, 0), 1e-4)
	}
}

func TestFiniteDifferenceErrors(t *testing.T) {
	fd := NewFiniteDifference()

	_, err := fd.Differentiate(mat.NewDense(2, 1, []float64{1, 2}), []float64{0, 1})
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr), "two samples cannot carry a second-order stencil")

	_, err = fd.Differentiate(mat.NewDense(3, 1, []float64{1, 2, 3}), []float64{0, 1})
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	_, err = fd.Differentiate(mat.NewDense(3, 1, []float64{1, 2, 3}), []float64{0, 1, 1})
	var vErr *errors.ValueError
	assert.True(t, errors.As(err, &vErr))

	_, err = (&FiniteDifference{Order: 3}).Differentiate(mat.NewDense(4, 1, nil), grid(4, 0, 1))
	assert.Error(t, err)
}

func TestSmoothedFiniteDifferencePreservesPolynomials(t *testing.T) {
	ts := grid(100, 0, 1)
	x := sample(ts, func(t float64) float64 { return 1 + 2*t + 3*t*t })

	// window and order derived from 100 timesteps: floor(log2 100)=6, floor(log10 100)=2
	sfd := NewSmoothedFiniteDifference(6, 2)
	smoothed, err := sfd.Smooth(x, ts)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(x, smoothed, 1e-9))

	d, err := sfd.Differentiate(x, ts)
	require.NoError(t, err)
	for i, ti := range ts {
		assert.InDelta(t, 2+6*ti, d.At(i, 0), 1e-8)
	}
}

func TestSmoothedFiniteDifferenceReducesNoise(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	ts := grid(200, 0, 1)
	clean := sample(ts, func(t float64) float64 { return math.Sin(2 * math.Pi * t) })
	noisy := mat.DenseCopyOf(clean)
	for i := range ts {
		noisy.Set(i, 0, noisy.At(i, 0)+1e-3*rng.NormFloat64())
	}

	rmse := func(d *mat.Dense) float64 {
		var sum float64
		for i, ti := range ts {
			diff := d.At(i, 0) - 2*math.Pi*math.Cos(2*math.Pi*ti)
			sum += diff * diff
		}
		return math.Sqrt(sum / float64(len(ts)))
	}

	raw, err := NewFiniteDifference().Differentiate(noisy, ts)
	require.NoError(t, err)
	smooth, err := NewSmoothedFiniteDifference(15, 3).Differentiate(noisy, ts)
	require.NoError(t, err)

	assert.Less(t, rmse(smooth), rmse(raw))
}

func TestSmoothedFiniteDifferenceValidation(t *testing.T) {
	ts := grid(10, 0, 1)
	x := sample(ts, math.Sin)

	tests := []struct {
		name   string
		window int
		order  int
		param  string
	}{
		{"zero window", 0, 0, "window_length"},
		{"negative order", 3, -1, "polyorder"},
		{"order not below window", 3, 3, "polyorder"},
		{"window longer than data", 11, 2, "window_length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSmoothedFiniteDifference(tt.window, tt.order).Differentiate(x, ts)
			var valErr *errors.ValidationError
			require.True(t, errors.As(err, &valErr))
			assert.Equal(t, tt.param, valErr.ParamName)
		})
	}
}

func TestSmoothedFiniteDifferenceUnitWindowIsIdentity(t *testing.T) {
	ts := grid(5, 0, 1)
	x := sample(ts, math.Exp)

	smoothed, err := NewSmoothedFiniteDifference(1, 0).Smooth(x, ts)
	require.NoError(t, err)
	assert.True(t, mat.Equal(x, smoothed))
}
