package charts

import (
	chart "github.com/wcharczuk/go-chart/v2"
)

// LineSpec describes a single line with markers, optionally filled down to
// zero.
type LineSpec struct {
	Title         string
	Labels        []string
	Values        []float64
	Color         string
	Fill          string
	YTitle        string
	YMax          float64
	Format        Formatter
	Width, Height int
}

// Line renders spec.
func Line(spec LineSpec) Chart {
	width, height := size(spec.Width, spec.Height)
	n := len(spec.Values)
	if n == 0 {
		return blank(spec.Title, width, height)
	}

	ymax := spec.YMax
	if ymax <= 0 {
		ymax = NiceMax(0, spec.Values...)
	}
	color := paint("#6c9a8b")
	if spec.Color != "" {
		color = paint(spec.Color)
	}
	format := spec.Format
	if format == nil {
		format = Plain
	}

	labels := make([]string, n)
	copy(labels, spec.Labels)
	xs := make([]float64, n)
	notes := make([]chart.Value2, n)
	for i, v := range spec.Values {
		xs[i] = float64(i) + 0.5
		notes[i] = chart.Value2{XValue: xs[i], YValue: v, Label: format(v)}
	}

	style := chart.Style{StrokeColor: color, StrokeWidth: 3, DotColor: color, DotWidth: 5}
	if spec.Fill != "" {
		style.FillColor = paint(spec.Fill)
	}

	ch := chart.Chart{
		Width:          width,
		Height:         height,
		Font:           currentFont(),
		Background:     padding(24, 16, 16, 8),
		XAxis:          categoryAxis(labels),
		YAxis:          valueAxis(spec.YTitle, ymax, 4),
		YAxisSecondary: chart.HideYAxis(),
		Series: []chart.Series{
			chart.ContinuousSeries{Name: spec.Title, Style: style, XValues: xs, YValues: spec.Values},
			chart.AnnotationSeries{
				Style: chart.Style{
					FontColor:   textColor,
					FontSize:    8,
					FillColor:   chart.ColorWhite,
					StrokeColor: color,
					StrokeWidth: 1,
				},
				Annotations: notes,
			},
		},
	}
	return render(spec.Title, ch, width, height)
}
