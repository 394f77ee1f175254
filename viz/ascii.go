// Package viz renders training trajectories and forecasts as terminal charts,
// styled equation listings and PNG line plots.
package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
)

const (
	chartHeight = 12
	chartWidth  = 80
)

// ASCIIForecast draws one state component of a reference trajectory and a
// forecast on the same terminal chart. Rows are timesteps.
func ASCIIForecast(truth, forecast [][]float64, component int, caption string) (string, error) {
	series := make([][]float64, 0, 2)
	for _, traj := range [][][]float64{truth, forecast} {
		if len(traj) == 0 {
			continue
		}
		col, err := column(traj, component)
		if err != nil {
			return "", err
		}
		series = append(series, col)
	}
	if len(series) == 0 {
		return "", errors.NewModelError("viz.ASCIIForecast", "nothing to plot", errors.ErrEmptyData)
	}
	if caption == "" {
		caption = fmt.Sprintf("x%d vs time", component)
	}
	return asciigraph.PlotMany(series,
		asciigraph.Height(chartHeight),
		asciigraph.Width(chartWidth),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Default, asciigraph.Red),
	), nil
}

func column(traj [][]float64, component int) ([]float64, error) {
	out := make([]float64, len(traj))
	for i, row := range traj {
		if component < 0 || component >= len(row) {
			return nil, errors.NewValidationError("component", fmt.Sprintf("row %d has %d components", i, len(row)), component)
		}
		out[i] = row[component]
	}
	return out, nil
}
