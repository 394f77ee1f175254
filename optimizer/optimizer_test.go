package optimizer

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
)

// sparseProblem returns a random library matrix and exact targets for two
// sparse equations.
func sparseProblem(rows int, noise float64, seed uint64) (theta, xdot, want *mat.Dense) {
	rng := rand.New(rand.NewPCG(seed, seed))
	theta = mat.NewDense(rows, 5, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < 5; j++ {
			theta.Set(i, j, rng.NormFloat64())
		}
	}
	want = mat.NewDense(2, 5, []float64{
		0, 2, 0, -0.5, 0,
		1, 0, 0, 0, 3,
	})
	xdot = mat.NewDense(rows, 2, nil)
	xdot.Mul(theta, want.T())
	if noise > 0 {
		for i := 0; i < rows; i++ {
			for j := 0; j < 2; j++ {
				xdot.Set(i, j, xdot.At(i, j)+noise*rng.NormFloat64())
			}
		}
	}
	return theta, xdot, want
}

func TestSTLSQRecoversSparseCoefficients(t *testing.T) {
	theta, xdot, want := sparseProblem(200, 0, 1)

	opt := NewSTLSQ()
	coef, err := opt.Fit(theta, xdot)
	require.NoError(t, err)

	assert.True(t, mat.EqualApprox(want, coef, 1e-8), "got %v", mat.Formatted(coef))
	for i := 0; i < 2; i++ {
		for j := 0; j < 5; j++ {
			if want.At(i, j) == 0 {
				assert.Zero(t, coef.At(i, j))
			}
		}
	}
	assert.NotEmpty(t, opt.History())
}

func TestSTLSQWithoutUnbiasKeepsRidgeShrinkage(t *testing.T) {
	theta, xdot, want := sparseProblem(200, 0, 2)

	coef, err := NewSTLSQ(WithUnbias(false), WithAlpha(50)).Fit(theta, xdot)
	require.NoError(t, err)
	// a heavy ridge penalty shrinks the surviving terms toward zero
	assert.Less(t, coef.At(0, 1), want.At(0, 1))
	assert.Greater(t, coef.At(0, 1), 0.0)
}

func TestSTLSQAllCoefficientsEliminated(t *testing.T) {
	theta, xdot, _ := sparseProblem(50, 0, 3)

	for _, maxIter := range []int{1, 20} {
		_, err := NewSTLSQ(WithThreshold(10), WithMaxIter(maxIter)).Fit(theta, xdot)
		require.Error(t, err)

		var modelErr *errors.ModelError
		assert.True(t, errors.As(err, &modelErr))
		assert.True(t, errors.Is(err, errors.ErrAllCoefficientsEliminated))
	}
}

func TestSTLSQConvergenceWarning(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	t.Cleanup(func() { errors.SetWarningHandler(func(error) {}) })

	theta, xdot, _ := sparseProblem(100, 0, 4)
	_, err := NewSTLSQ(WithMaxIter(1)).Fit(theta, xdot)
	require.NoError(t, err)

	require.Len(t, warnings, 1)
	var cw *errors.ConvergenceWarning
	require.True(t, errors.As(warnings[0], &cw))
	assert.Equal(t, "STLSQ", cw.Algorithm)
	assert.Equal(t, 1, cw.Iterations)
}

func TestSTLSQValidation(t *testing.T) {
	theta, xdot, _ := sparseProblem(10, 0, 5)

	tests := []struct {
		name  string
		opt   *STLSQ
		param string
	}{
		{"negative threshold", NewSTLSQ(WithThreshold(-1)), "threshold"},
		{"negative alpha", NewSTLSQ(WithAlpha(-0.1)), "alpha"},
		{"zero iterations", NewSTLSQ(WithMaxIter(0)), "max_iter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.opt.Fit(theta, xdot)
			var valErr *errors.ValidationError
			require.True(t, errors.As(err, &valErr))
			assert.Equal(t, tt.param, valErr.ParamName)
		})
	}
}

func TestSTLSQShapeMismatch(t *testing.T) {
	_, err := NewSTLSQ().Fit(mat.NewDense(4, 2, nil), mat.NewDense(3, 1, nil))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestEnsembleIsDeterministicForASeed(t *testing.T) {
	theta, xdot, want := sparseProblem(150, 0.01, 6)

	fit := func(seed uint64) (*mat.Dense, []*mat.Dense) {
		ens := NewEnsemble(NewSTLSQ(), 5, seed)
		coef, err := ens.Fit(theta, xdot)
		require.NoError(t, err)
		return coef, ens.CoefList()
	}

	a, listA := fit(42)
	b, listB := fit(42)
	assert.True(t, mat.Equal(a, b))
	require.Len(t, listA, 5)
	for i := range listA {
		assert.True(t, mat.Equal(listA[i], listB[i]))
	}
	assert.True(t, mat.EqualApprox(want, a, 0.05))

	_, listC := fit(43)
	assert.False(t, mat.Equal(listA[0], listC[0]))
}

func TestEnsembleWithoutReplacement(t *testing.T) {
	theta, xdot, want := sparseProblem(100, 0, 7)

	ens := NewEnsemble(NewSTLSQ(), 3, 1)
	ens.Replace = false
	ens.SubsetSize = 60
	ens.Aggregator = AggregateMean

	coef, err := ens.Fit(theta, xdot)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(want, coef, 1e-8))

	ens.SubsetSize = 101
	_, err = ens.Fit(theta, xdot)
	assert.Error(t, err)
}

func TestEnsemblePropagatesMemberFailure(t *testing.T) {
	theta, xdot, _ := sparseProblem(50, 0, 8)

	_, err := NewEnsemble(NewSTLSQ(WithThreshold(100)), 5, 1).Fit(theta, xdot)
	assert.True(t, errors.Is(err, errors.ErrAllCoefficientsEliminated))
}

func TestAggregators(t *testing.T) {
	coefs := []*mat.Dense{
		mat.NewDense(1, 2, []float64{1, 10}),
		mat.NewDense(1, 2, []float64{3, -2}),
		mat.NewDense(1, 2, []float64{2, 4}),
		mat.NewDense(1, 2, []float64{100, 0}),
	}

	median := AggregateMedian(coefs)
	assert.Equal(t, []float64{2.5, 2}, median.RawRowView(0))

	mean := AggregateMean(coefs)
	assert.InDeltaSlice(t, []float64{26.5, 3}, mean.RawRowView(0), 1e-12)

	assert.Nil(t, AggregateMedian(nil))
}

func TestEnsembleParams(t *testing.T) {
	ens := NewEnsemble(NewSTLSQ(), 5, 0)
	params := ens.Params()
	assert.Equal(t, 5, params["n_models"])
	assert.Equal(t, 0.1, params["base.threshold"])
	assert.Equal(t, "Ensemble(STLSQ)", ens.Name())
}
