package errors

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "STLSQ.Fit",
			kind:    "degenerate solution",
			err:     ErrAllCoefficientsEliminated,
			wantMsg: "dynadojo: STLSQ.Fit: degenerate solution: sparsity threshold eliminated all coefficients",
		},
		{
			name:    "without original error",
			op:      "SINDy.Fit",
			kind:    "no trajectories",
			err:     nil,
			wantMsg: "dynadojo: SINDy.Fit: no trajectories",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)
			assert.Equal(t, tt.wantMsg, err.Error())

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			assert.Contains(t, formatted, "errors_test.go")

			var modelErr *ModelError
			require.True(t, As(err, &modelErr))
			assert.Equal(t, tt.op, modelErr.Op)
			if tt.err != nil {
				assert.True(t, Is(err, tt.err))
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("SINDy.Predict", 3, 2, 1)

	want := "dynadojo: SINDy.Predict: dimension mismatch on axis 1 (features). Expected 3, got 2"
	assert.Equal(t, want, err.Error())

	var dimErr *DimensionError
	require.True(t, As(err, &dimErr))
	assert.Equal(t, 3, dimErr.Expected)
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("SINDy", "Predict")

	want := "dynadojo: SINDy: this model is not fitted yet. Call Fit() before using Predict()"
	assert.Equal(t, want, err.Error())

	var notFittedErr *NotFittedError
	assert.True(t, As(err, &notFittedErr))
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("timesteps", "must be greater than 2", 2)

	assert.Equal(t, "dynadojo: validation failed for parameter 'timesteps': must be greater than 2 (got: 2)", err.Error())

	var valErr *ValidationError
	require.True(t, As(err, &valErr))
	assert.Equal(t, 2, valErr.Value)
}

func TestNewInputShapeError(t *testing.T) {
	plain := NewInputShapeError("training", []int{100, 3}, []int{99, 3})
	assert.Equal(t, "dynadojo: input shape mismatch in training phase. Expected shape [100 3], got [99 3]", plain.Error())

	named := NewInputShapeErrorFor("training", "trajectory[2]", []int{100, 3}, []int{100, 2})
	assert.Contains(t, named.Error(), "for 'trajectory[2]'")
}

func TestNewIntegrationError(t *testing.T) {
	err := NewIntegrationError("DormandPrince", 0.5, 1000, "maximum number of steps exceeded")

	var intErr *IntegrationError
	require.True(t, As(err, &intErr))
	assert.Equal(t, 1000, intErr.Steps)
	assert.Contains(t, err.Error(), "t=0.5")
}

func TestNumericalInstabilityErrorTruncatesValues(t *testing.T) {
	err := NewNumericalInstabilityError("RK45.Step", []float64{1, 2, 3, 4, 5, 6, 7}, 12)
	msg := err.Error()

	assert.Contains(t, msg, "at iteration 12")
	assert.Contains(t, msg, "...")
	assert.NotContains(t, msg, "7")
}

func TestNewConvergenceWarning(t *testing.T) {
	warn := NewConvergenceWarning("STLSQ", 20, "support still changing")

	want := "STLSQ failed to converge after 20 iterations: support still changing"
	assert.Equal(t, want, warn.Error())

	bare := NewConvergenceWarning("STLSQ", 20, "")
	assert.True(t, strings.HasPrefix(bare.Error(), "STLSQ failed to converge after 20 iterations."))
}

func TestWarnRouting(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	SetZerologWarnFunc(nil)
	defer SetWarningHandler(func(w error) {})

	Warn(NewConvergenceWarning("STLSQ", 20, ""))
	require.Len(t, got, 1)

	var routed []error
	SetZerologWarnFunc(func(w error) { routed = append(routed, w) })
	defer SetZerologWarnFunc(nil)

	Warn(NewConvergenceWarning("STLSQ", 20, ""))
	assert.Len(t, got, 1)
	assert.Len(t, routed, 1)
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrap(ErrSingularMatrix, "in STLSQ.ridge")

	assert.True(t, Is(wrapped, ErrSingularMatrix))
	assert.Contains(t, wrapped.Error(), "in STLSQ.ridge")
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d trajectories, got %d", "Fit", 1, 0)

	assert.True(t, Is(wrapped, ErrEmptyData))
	assert.Contains(t, wrapped.Error(), "in Fit: expected 1 trajectories, got 0")
}

func TestCheckMatrix(t *testing.T) {
	ok := fakeMatrix{{1, 2}, {3, 4}}
	assert.NoError(t, CheckMatrix("coef", ok, 0))

	bad := fakeMatrix{{1, 2}, {3, math.NaN()}}
	err := CheckMatrix("coef", bad, 3)
	require.Error(t, err)

	var numErr *NumericalInstabilityError
	require.True(t, As(err, &numErr))
	assert.Equal(t, 3, numErr.Iteration)
	assert.Len(t, numErr.Values, 1)
}

func TestCheckNumericalStability(t *testing.T) {
	assert.NoError(t, CheckNumericalStability("x", []float64{0, 1}, 0))
	assert.Error(t, CheckNumericalStability("x", []float64{0, math.NaN()}, 0))
	assert.True(t, IsFinite([]float64{1, 2}))
	assert.False(t, IsFinite([]float64{1, math.NaN()}))
}

type fakeMatrix [][]float64

func (m fakeMatrix) At(i, j int) float64 { return m[i][j] }
func (m fakeMatrix) Dims() (int, int)    { return len(m), len(m[0]) }
