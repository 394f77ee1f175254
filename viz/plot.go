package viz

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
)

var palette = []color.Color{
	color.RGBA{R: 31, G: 119, B: 180, A: 255},
	color.RGBA{R: 255, G: 127, B: 14, A: 255},
	color.RGBA{R: 44, G: 160, B: 44, A: 255},
	color.RGBA{R: 214, G: 39, B: 40, A: 255},
	color.RGBA{R: 148, G: 103, B: 189, A: 255},
}

// SaveForecastPNG plots every state component of truth (solid) and forecast
// (dashed) against t and writes the figure to path. Either trajectory may be
// nil. The image format follows the file extension.
func SaveForecastPNG(path, title string, t []float64, truth, forecast [][]float64, names []string) error {
	if len(truth) == 0 && len(forecast) == 0 {
		return errors.NewModelError("viz.SaveForecastPNG", "nothing to plot", errors.ErrEmptyData)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "t"
	p.Y.Label.Text = "state"
	p.Legend.Top = true

	for _, set := range []struct {
		traj   [][]float64
		suffix string
		dashed bool
	}{
		{truth, "", false},
		{forecast, " (forecast)", true},
	} {
		if len(set.traj) == 0 {
			continue
		}
		if len(set.traj) != len(t) {
			return errors.NewDimensionError("viz.SaveForecastPNG", len(t), len(set.traj), 0)
		}
		for j := range set.traj[0] {
			pts := make(plotter.XYs, len(t))
			for i, row := range set.traj {
				if j >= len(row) {
					return errors.NewDimensionError("viz.SaveForecastPNG", len(set.traj[0]), len(row), 1)
				}
				pts[i].X = t[i]
				pts[i].Y = row[j]
			}
			line, err := plotter.NewLine(pts)
			if err != nil {
				return errors.Wrap(err, "create line")
			}
			line.Color = palette[j%len(palette)]
			line.Width = vg.Points(1.5)
			if set.dashed {
				line.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
			}
			p.Add(line)
			p.Legend.Add(componentName(names, j)+set.suffix, line)
		}
	}

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save plot %s", path)
	}
	return nil
}

func componentName(names []string, j int) string {
	if j < len(names) {
		return names[j]
	}
	return fmt.Sprintf("x%d", j)
}
