package charts

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 5 * vg.Inch
)

// WritePNG draws c with gonum/plot and writes it to w as a PNG image.
func WritePNG(w io.Writer, c Chart, width, height vg.Length) error {
	p, err := newPlot(c)
	if err != nil {
		return fmt.Errorf("plot %s: %w", c.Name, err)
	}

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("render %s: %w", c.Name, err)
	}
	_, err = wt.WriteTo(w)
	return err
}

func newPlot(c Chart) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = c.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = c.XLabel
	p.Y.Label.Text = c.YLabel
	p.Legend.Top = true

	if c.Empty() {
		p.Title.Text = c.Title + " (no data)"
		return p, nil
	}

	var err error
	switch c.Kind {
	case KindBar:
		err = addBars(p, c)
	case KindLine:
		err = addLines(p, c)
	case KindScatter:
		err = addScatter(p, c)
	default:
		err = fmt.Errorf("unsupported chart kind %q", c.Kind)
	}
	if err != nil {
		return nil, err
	}

	p.Add(plotter.NewGrid())
	return p, nil
}

func addBars(p *plot.Plot, c Chart) error {
	barWidth := vg.Points(40)
	if n := len(c.Labels); n > 8 {
		barWidth = vg.Points(14)
	}
	grouped := len(c.Datasets) > 1 && !c.Stacked
	if grouped {
		barWidth /= vg.Length(len(c.Datasets))
	}

	var below *plotter.BarChart
	for i, ds := range c.Datasets {
		if len(ds.Colors) > 0 {
			// One chart per bar so each can carry its own color.
			for j, v := range ds.Data {
				bar, err := plotter.NewBarChart(plotter.Values{v}, barWidth)
				if err != nil {
					return err
				}
				bar.XMin = float64(j)
				bar.Horizontal = c.Horizontal
				bar.Color = parseColor(ds.Colors[min(j, len(ds.Colors)-1)])
				bar.LineStyle.Width = 0
				p.Add(bar)
			}
			continue
		}

		bar, err := plotter.NewBarChart(plotter.Values(ds.Data), barWidth)
		if err != nil {
			return err
		}
		bar.Horizontal = c.Horizontal
		bar.Color = parseColor(ds.Color)
		bar.LineStyle.Width = 0
		switch {
		case c.Stacked && below != nil:
			bar.StackOn(below)
		case grouped:
			bar.Offset = vg.Length(float64(i)-float64(len(c.Datasets)-1)/2) * barWidth
		}
		below = bar

		p.Add(bar)
		p.Legend.Add(ds.Label, bar)
	}

	if c.Horizontal {
		p.NominalY(c.Labels...)
	} else {
		p.NominalX(c.Labels...)
		rotateTicks(p, len(c.Labels))
	}
	return nil
}

func addLines(p *plot.Plot, c Chart) error {
	for _, ds := range c.Datasets {
		xys := make(plotter.XYs, len(ds.Data))
		for i, v := range ds.Data {
			xys[i] = plotter.XY{X: float64(i), Y: v}
		}

		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return err
		}
		clr := parseColor(ds.Color)
		line.LineStyle.Color = clr
		line.LineStyle.Width = vg.Points(2)
		points.GlyphStyle.Color = clr
		points.GlyphStyle.Shape = draw.CircleGlyph{}

		p.Add(line, points)
		p.Legend.Add(ds.Label, line, points)
	}

	p.NominalX(c.Labels...)
	rotateTicks(p, len(c.Labels))
	return nil
}

func addScatter(p *plot.Plot, c Chart) error {
	for _, ds := range c.Datasets {
		if len(ds.Points) == 0 {
			continue
		}
		xys := make(plotter.XYs, 0, len(ds.Points))
		for _, pt := range ds.Points {
			if c.LogY && pt.Y <= 0 {
				continue
			}
			xys = append(xys, plotter.XY{X: pt.X, Y: pt.Y})
		}

		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Color = parseColor(ds.Color)
		sc.GlyphStyle.Radius = vg.Points(2.5)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}

		p.Add(sc)
		p.Legend.Add(ds.Label, sc)
	}

	if c.LogY {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	return nil
}

func rotateTicks(p *plot.Plot, labels int) {
	if labels <= 6 {
		return
	}
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
}

// parseColor accepts #rrggbb and CSS color names. Anything else is drawn
// black.
func parseColor(s string) color.Color {
	s = strings.TrimSpace(strings.ToLower(s))
	if c, ok := colornames.Map[s]; ok {
		return c
	}

	hex, ok := strings.CutPrefix(s, "#")
	if !ok || len(hex) != 6 {
		return color.Black
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.Black
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
