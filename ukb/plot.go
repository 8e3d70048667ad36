package ukb

import (
	"fmt"

	"github.com/carbocation/pfx"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PlotFreq renders a stratified frequency table to an image file whose
// format is inferred from the extension (.png, .pdf, .svg, ...). Numeric
// reference variables get a line-and-point chart of bin midpoint against
// frequency, one series per pattern; categorical ones get grouped bars per
// level. The Y axis is percent-formatted. Rendering is presentation only:
// the plotted values are exactly the table's.
func PlotFreq(ft *FreqTable, path string) error {
	if len(ft.Groups) == 0 {
		return fmt.Errorf("frequency table has no groups to plot")
	}

	p := plot.New()
	p.Title.Text = "Diagnosis frequency by " + ft.Reference
	p.X.Label.Text = ft.Reference
	p.Y.Label.Text = "Frequency"
	p.Y.Tick.Marker = percentTicks{}
	p.Y.Min = 0
	p.Legend.Top = true

	if ft.Numeric {
		for j, label := range ft.Labels {
			xys := make(plotter.XYs, 0, len(ft.Groups))
			for _, g := range ft.Groups {
				xys = append(xys, plotter.XY{X: g.Mid, Y: g.Freq[j]})
			}

			line, points, err := plotter.NewLinePoints(xys)
			if err != nil {
				return pfx.Err(err)
			}
			line.Color = plotutil.Color(j)
			points.Color = plotutil.Color(j)
			points.Shape = plotutil.Shape(j)

			p.Add(line, points)
			p.Legend.Add(label, line, points)
		}
	} else {
		w := vg.Points(18)
		for j, label := range ft.Labels {
			vals := make(plotter.Values, 0, len(ft.Groups))
			for _, g := range ft.Groups {
				vals = append(vals, g.Freq[j])
			}

			bars, err := plotter.NewBarChart(vals, w)
			if err != nil {
				return pfx.Err(err)
			}
			bars.Color = plotutil.Color(j)
			bars.Offset = w * vg.Length(float64(j)-float64(len(ft.Labels)-1)/2)

			p.Add(bars)
			p.Legend.Add(label, bars)
		}

		levels := make([]string, 0, len(ft.Groups))
		for _, g := range ft.Groups {
			levels = append(levels, g.Level)
		}
		p.NominalX(levels...)
	}

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return pfx.Err(err)
	}

	return nil
}

type percentTicks struct{}

func (percentTicks) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i, t := range ticks {
		if t.Label == "" {
			continue
		}
		ticks[i].Label = fmt.Sprintf("%.3g%%", t.Value*100)
	}

	return ticks
}
