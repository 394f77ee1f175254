package viz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrajectory(n int) ([]float64, [][]float64) {
	t := make([]float64, n)
	traj := make([][]float64, n)
	for i := range traj {
		t[i] = float64(i) / float64(n-1)
		traj[i] = []float64{1 - t[i], t[i] * t[i]}
	}
	return t, traj
}

func TestASCIIForecast(t *testing.T) {
	_, truth := sampleTrajectory(30)
	_, forecast := sampleTrajectory(20)

	chart, err := ASCIIForecast(truth, forecast, 1, "")
	require.NoError(t, err)
	assert.Contains(t, chart, "x1 vs time")

	chart, err = ASCIIForecast(nil, forecast, 0, "prey")
	require.NoError(t, err)
	assert.Contains(t, chart, "prey")
}

func TestASCIIForecastErrors(t *testing.T) {
	_, truth := sampleTrajectory(5)
	_, err := ASCIIForecast(truth, nil, 2, "")
	assert.Error(t, err)

	_, err = ASCIIForecast(nil, nil, 0, "")
	assert.Error(t, err)
}

func TestRenderEquations(t *testing.T) {
	out := RenderEquations("Identified", []string{"(x0)' = -1.000 x0"})
	assert.Contains(t, out, "Identified")
	assert.Contains(t, out, "(x0)' = -1.000 x0")

	assert.Contains(t, RenderMetric("R2", "0.999"), "0.999")
}

func TestSaveForecastPNG(t *testing.T) {
	grid, truth := sampleTrajectory(50)
	_, forecast := sampleTrajectory(50)
	path := filepath.Join(t.TempDir(), "forecast.png")

	require.NoError(t, SaveForecastPNG(path, "decay", grid, truth, forecast, []string{"x"}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestSaveForecastPNGErrors(t *testing.T) {
	grid, truth := sampleTrajectory(10)
	dir := t.TempDir()

	assert.Error(t, SaveForecastPNG(filepath.Join(dir, "a.png"), "", grid, nil, nil, nil))
	assert.Error(t, SaveForecastPNG(filepath.Join(dir, "b.png"), "", grid[:5], truth, nil, nil))
}
