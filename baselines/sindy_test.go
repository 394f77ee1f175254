package baselines

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/dynadojo-go/differentiation"
	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
	"github.com/YuminosukeSato/dynadojo-go/pkg/log"
)

func quiet() Option {
	logger, _ := log.NewTestLogger(log.LevelError)
	return WithLogger(logger)
}

func decayTrajectory(timesteps int, c float64) [][]float64 {
	grid := Linspace(0, 1, timesteps)
	traj := make([][]float64, timesteps)
	for i, t := range grid {
		traj[i] = []float64{c * math.Exp(-t)}
	}
	return traj
}

func oscillatorTrajectory(timesteps int, x0, y0 float64) [][]float64 {
	grid := Linspace(0, 1, timesteps)
	traj := make([][]float64, timesteps)
	for i, t := range grid {
		c, s := math.Cos(t), math.Sin(t)
		traj[i] = []float64{x0*c + y0*s, -x0*s + y0*c}
	}
	return traj
}

func TestLibraryDegreeFromEmbedDim(t *testing.T) {
	tests := map[int]int{1: 2, 2: 2, 4: 2, 8: 3, 16: 4, 32: 5}
	for dim, want := range tests {
		s, err := NewSINDy(dim, 10, 0, quiet(), WithSeed(0))
		require.NoError(t, err)
		assert.Equal(t, want, s.Model().Library().Degree, "embed_dim=%d", dim)
	}
}

func TestTimestepsPrecondition(t *testing.T) {
	for _, ts := range []int{2, 1, 0, -5} {
		_, err := NewSINDy(3, ts, 0, quiet())
		var valErr *errors.ValidationError
		require.True(t, errors.As(err, &valErr), "timesteps=%d", ts)
		assert.Equal(t, "timesteps", valErr.ParamName)
	}

	for _, ts := range []int{3, 4, 10, 1000} {
		_, err := NewSINDy(3, ts, 0, quiet(), WithDifferentiation(SmoothedFD()))
		assert.NoError(t, err, "timesteps=%d", ts)
	}

	_, err := NewSINDy(0, 10, 0, quiet())
	assert.Error(t, err)
}

func TestSmoothedFDParameters(t *testing.T) {
	tests := []struct {
		timesteps, window, order int
	}{
		{3, 1, 0},
		{10, 3, 1},
		{100, 6, 2},
		{1000, 9, 3},
	}
	for _, tt := range tests {
		s, err := NewSINDy(1, tt.timesteps, 0, quiet(), WithDifferentiation(SmoothedFD()))
		require.NoError(t, err)

		sfd, ok := s.Model().Differentiation().(*differentiation.SmoothedFiniteDifference)
		require.True(t, ok)
		assert.Equal(t, tt.window, sfd.WindowLength, "timesteps=%d", tt.timesteps)
		assert.Equal(t, tt.order, sfd.PolyOrder, "timesteps=%d", tt.timesteps)
	}
}

func TestParseDifferentiation(t *testing.T) {
	for _, name := range []string{"", "fd", "finite_difference"} {
		d, err := ParseDifferentiation(name)
		require.NoError(t, err)
		assert.Equal(t, DefaultKind, d.Kind())
	}

	d, err := ParseDifferentiation("smoothed_fd")
	require.NoError(t, err)
	assert.Equal(t, SmoothedKind, d.Kind())
	assert.Equal(t, "smoothed_fd", d.String())

	_, err = ParseDifferentiation("spectral")
	assert.Error(t, err)
}

func TestCustomDifferentiationPassesThrough(t *testing.T) {
	fd := &differentiation.FiniteDifference{Order: 1}
	s, err := NewSINDy(1, 10, 0, quiet(), WithDifferentiation(CustomDifferentiation(fd)))
	require.NoError(t, err)
	assert.Same(t, fd, s.Model().Differentiation())

	_, err = NewSINDy(1, 10, 0, quiet(), WithDifferentiation(CustomDifferentiation(nil)))
	assert.Error(t, err)
}

func TestExponentialDecayScenario(t *testing.T) {
	s, err := NewSINDy(1, 100, 0, quiet(), WithSeed(0))
	require.NoError(t, err)
	require.NoError(t, s.Fit([][][]float64{decayTrajectory(100, 1)}))

	pred, err := s.Predict([][]float64{{1.0}}, 50)
	require.NoError(t, err)

	require.Len(t, pred, 1)
	require.Len(t, pred[0], 50)
	for i, t0 := range Linspace(0, 1, 50) {
		require.Len(t, pred[0][i], 1)
		assert.InDelta(t, math.Exp(-t0), pred[0][i][0], 1e-2)
	}
}

func TestSmoothedRoundTrip(t *testing.T) {
	s, err := NewSINDy(1, 100, 0, quiet(), WithSeed(1), WithDifferentiation(SmoothedFD()))
	require.NoError(t, err)
	require.NoError(t, s.Fit([][][]float64{decayTrajectory(100, 1), decayTrajectory(100, 2)}))

	pred, err := s.Predict([][]float64{{2}}, 100)
	require.NoError(t, err)
	train := decayTrajectory(100, 2)
	for i := range train {
		assert.InDelta(t, train[i][0], pred[0][i][0], 1e-2)
	}
}

func TestPredictShape(t *testing.T) {
	s, err := NewSINDy(2, 50, 0, quiet(), WithSeed(3))
	require.NoError(t, err)
	require.NoError(t, s.Fit([][][]float64{
		oscillatorTrajectory(50, 1, 0),
		oscillatorTrajectory(50, 0, 1),
		oscillatorTrajectory(50, -1, 2),
	}))

	x0 := [][]float64{{1, 0}, {0, 1}, {0.5, 0.5}}
	for _, horizon := range []int{1, 7, 200} {
		pred, err := s.Predict(x0, horizon)
		require.NoError(t, err)
		require.Len(t, pred, len(x0))
		for i := range pred {
			require.Len(t, pred[i], horizon)
			assert.Equal(t, x0[i], pred[i][0])
			for _, row := range pred[i] {
				assert.Len(t, row, 2)
			}
		}
	}

	_, err = s.Predict([][]float64{{1, 2, 3}}, 5)
	var shapeErr *errors.InputShapeError
	assert.True(t, errors.As(err, &shapeErr))

	_, err = s.Predict(x0, 0)
	assert.Error(t, err)
}

func TestPredictBeforeFit(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	s, err := NewSINDy(1, 10, 0, WithLogger(logger))
	require.NoError(t, err)
	assert.True(t, logger.ContainsField(log.ThresholdKey, DefaultThreshold))

	_, err = s.Predict([][]float64{{1}}, 5)
	var nf *errors.NotFittedError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Predict", nf.Method)
	assert.True(t, logger.ContainsField(log.ErrorCodeKey, log.ErrorNotFitted))
}

func TestFitConstantTrajectories(t *testing.T) {
	constant := func(timesteps int, x0 ...float64) [][]float64 {
		traj := make([][]float64, timesteps)
		for i := range traj {
			traj[i] = append([]float64(nil), x0...)
		}
		return traj
	}
	data := [][][]float64{constant(20, 1, 2), constant(20, -1, 0.5)}

	s, err := NewSINDy(2, 20, 0, quiet(), WithSeed(1))
	require.NoError(t, err)

	// fixed points have zero derivatives, so thresholding removes every term
	err = s.Fit(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAllCoefficientsEliminated))
	assert.False(t, s.Model().IsFitted())

	_, err = s.Predict([][]float64{{1, 2}}, 5)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))
}

func TestSameSeedSameCoefficients(t *testing.T) {
	data := [][][]float64{
		oscillatorTrajectory(60, 1, 0),
		oscillatorTrajectory(60, 0.3, -1),
	}
	// uneven perturbation so bootstrap resamples matter
	for i := range data[0] {
		data[0][i][0] += 1e-3 * math.Sin(37*float64(i))
	}

	fit := func(seed int64) []float64 {
		s, err := NewSINDy(2, 60, 0, quiet(), WithSeed(seed))
		require.NoError(t, err)
		require.NoError(t, s.Fit(data))
		coef, err := s.Model().Coefficients()
		require.NoError(t, err)
		return coef.RawMatrix().Data
	}

	assert.Equal(t, fit(9), fit(9))
}

func TestDefaultSeedIsResolvedOnce(t *testing.T) {
	s, err := NewSINDy(1, 10, 0, quiet())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, s.Seed(), int64(0))
	assert.Equal(t, s.Seed(), s.Seed())

	fixed, err := NewSINDy(1, 10, 2.5, quiet(), WithSeed(17))
	require.NoError(t, err)
	assert.Equal(t, int64(17), fixed.Seed())
	assert.Equal(t, 2.5, fixed.MaxControlCost())
	assert.Equal(t, 1, fixed.EmbedDim())
	assert.Equal(t, 10, fixed.Timesteps())
}

func TestFitShapeErrors(t *testing.T) {
	s, err := NewSINDy(1, 10, 0, quiet())
	require.NoError(t, err)

	assert.True(t, errors.Is(s.Fit(nil), errors.ErrEmptyData))

	err = s.Fit([][][]float64{decayTrajectory(10, 1), decayTrajectory(9, 1)})
	var shapeErr *errors.InputShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, "trajectory[1]", shapeErr.Feature)
	assert.Equal(t, []int{10, 1}, shapeErr.Expected)

	err = s.Fit([][][]float64{oscillatorTrajectory(10, 1, 0)})
	assert.True(t, errors.As(err, &shapeErr))
}

func TestLinspace(t *testing.T) {
	assert.Nil(t, Linspace(0, 1, 0))
	assert.Equal(t, []float64{0}, Linspace(0, 1, 1))
	assert.Equal(t, []float64{0, 0.5, 1}, Linspace(0, 1, 3))
}
