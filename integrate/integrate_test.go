package integrate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
)

func decay(_ float64, x, dx []float64) {
	dx[0] = -x[0]
}

func oscillator(_ float64, x, dx []float64) {
	dx[0] = x[1]
	dx[1] = -x[0]
}

func TestIntegratorsExponentialDecay(t *testing.T) {
	ts := floats.Span(make([]float64, 50), 0, 1)

	for _, integ := range []Integrator{NewDormandPrince(), NewRK4()} {
		t.Run(integ.Name(), func(t *testing.T) {
			out, err := integ.Integrate(decay, []float64{2}, ts)
			require.NoError(t, err)

			rows, cols := out.Dims()
			assert.Equal(t, 50, rows)
			assert.Equal(t, 1, cols)
			assert.Equal(t, 2.0, out.At(0, 0))
			for i, ti := range ts {
				assert.InDelta(t, 2*math.Exp(-ti), out.At(i, 0), 1e-7, "t=%g", ti)
			}
		})
	}
}

func TestDormandPrinceOscillatorPeriod(t *testing.T) {
	ts := floats.Span(make([]float64, 9), 0, 2*math.Pi)

	out, stats, err := NewDormandPrince().IntegrateWithStats(oscillator, []float64{1, 0}, ts)
	require.NoError(t, err)

	for i, ti := range ts {
		assert.InDelta(t, math.Cos(ti), out.At(i, 0), 1e-6)
		assert.InDelta(t, -math.Sin(ti), out.At(i, 1), 1e-6)
	}
	assert.Greater(t, stats.Steps, 8)
	assert.Greater(t, stats.Evals, stats.Steps)
}

func TestSolveUsesAdaptiveDefault(t *testing.T) {
	out, err := Solve(decay, []float64{1}, []float64{0, 0.5, 1})
	require.NoError(t, err)
	assert.InDelta(t, math.Exp(-1), out.At(2, 0), 1e-7)
}

func TestSingleOutputTime(t *testing.T) {
	out, err := Solve(oscillator, []float64{3, 4}, []float64{0.25})
	require.NoError(t, err)
	r, c := out.Dims()
	assert.Equal(t, 1, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, []float64{3, 4}, out.RawRowView(0))
}

func TestDormandPrinceBlowUp(t *testing.T) {
	square := func(_ float64, x, dx []float64) {
		dx[0] = x[0] * x[0]
	}
	_, err := NewDormandPrince().Integrate(square, []float64{1}, []float64{0, 0.5, 2})
	require.Error(t, err)

	var integErr *errors.IntegrationError
	var numErr *errors.NumericalInstabilityError
	assert.True(t, errors.As(err, &integErr) || errors.As(err, &numErr), "unexpected error %v", err)
}

func TestDormandPrinceStepBudget(t *testing.T) {
	dp := NewDormandPrince()
	dp.MaxSteps = 3

	_, err := dp.Integrate(oscillator, []float64{1, 0}, []float64{0, 100})
	var integErr *errors.IntegrationError
	require.True(t, errors.As(err, &integErr))
	assert.Equal(t, "DormandPrince", integErr.Method)
	assert.Contains(t, integErr.Reason, "maximum")
}

func TestRK4NonFinite(t *testing.T) {
	explode := func(_ float64, x, dx []float64) {
		dx[0] = math.Exp(x[0] * 1000)
	}
	_, err := NewRK4().Integrate(explode, []float64{1}, []float64{0, 1})
	var numErr *errors.NumericalInstabilityError
	assert.True(t, errors.As(err, &numErr))
}

func TestValidation(t *testing.T) {
	dp := NewDormandPrince()

	_, err := dp.Integrate(nil, []float64{1}, []float64{0, 1})
	assert.Error(t, err)

	_, err = dp.Integrate(decay, nil, []float64{0, 1})
	assert.True(t, errors.Is(err, errors.ErrEmptyData))

	_, err = dp.Integrate(decay, []float64{1}, []float64{0, 1, 1})
	var valueErr *errors.ValueError
	assert.True(t, errors.As(err, &valueErr))

	_, err = dp.Integrate(decay, []float64{math.NaN()}, []float64{0, 1})
	var numErr *errors.NumericalInstabilityError
	assert.True(t, errors.As(err, &numErr))
}

func BenchmarkDormandPrinceOscillator(b *testing.B) {
	ts := floats.Span(make([]float64, 100), 0, 10)
	dp := NewDormandPrince()
	for i := 0; i < b.N; i++ {
		if _, err := dp.Integrate(oscillator, []float64{1, 0}, ts); err != nil {
			b.Fatal(err)
		}
	}
}

func TestDormandPrinceMinStep(t *testing.T) {
	dp := NewDormandPrince()
	dp.MinStep = 1e-3
	_, err := dp.Integrate(func(_ float64, x, dx []float64) { dx[0] = x[0] * x[0] }, []float64{1}, []float64{0, 2})
	assert.Error(t, err)
}
