package charts

import (
	"errors"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Series is one named set of values over the chart categories.
type Series struct {
	Name   string
	Values []float64
	Color  string
	Format Formatter
}

// RefLine is a dashed horizontal reference line.
type RefLine struct {
	Value float64
	Label string
	Color string
}

// Callout annotates one category with a boxed note at its tallest bar.
type Callout struct {
	Category string
	Text     string
	Color    string
}

// BarSpec describes a vertical bar chart. More than one series renders as
// grouped bars with a legend.
type BarSpec struct {
	Title      string
	Categories []string
	Series     []Series
	YTitle     string
	// YMax is the axis maximum; zero picks one from the data.
	YMax          float64
	Ref           *RefLine
	Callout       *Callout
	Width, Height int
}

// barSeries draws one series of a grouped bar chart in slot of slots
// within each category band. The x range runs 0..len(categories).
type barSeries struct {
	name        string
	values      []float64
	color       drawing.Color
	format      Formatter
	slot, slots int
}

func (bs barSeries) GetName() string { return bs.name }
func (bs barSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (bs barSeries) GetStyle() chart.Style { return chart.Style{StrokeColor: bs.color, StrokeWidth: 8} }
func (bs barSeries) Validate() error {
	if len(bs.values) == 0 {
		return errors.New("bar series has no values")
	}
	return nil
}

func (bs barSeries) Render(r chart.Renderer, box chart.Box, xr, yr chart.Range, defaults chart.Style) {
	band := float64(xr.Translate(1) - xr.Translate(0))
	group := band * 0.7
	width := group / float64(bs.slots)
	fill := chart.Style{FillColor: bs.color, StrokeColor: chart.ColorWhite, StrokeWidth: 1}
	label := chart.Style{Font: defaults.Font, FontColor: textColor, FontSize: 8}

	for i, v := range bs.values {
		left := box.Left + xr.Translate(float64(i)) + int((band-group)/2+width*float64(bs.slot))
		right := left + int(width)
		top := box.Bottom - yr.Translate(clamp(v, yr.GetMax()))
		chart.Draw.Box(r, chart.Box{Top: top, Left: left, Right: right, Bottom: box.Bottom}, fill)

		text := bs.format(v)
		tb := chart.Draw.MeasureText(r, text, label)
		chart.Draw.Text(r, text, left+(right-left-tb.Width())/2, top-4, label)
	}
}

// categoryAxis places one label per unit band of a 0..n x range.
func categoryAxis(categories []string) chart.XAxis {
	ticks := []chart.Tick{{Value: 0}}
	for i, c := range categories {
		ticks = append(ticks, chart.Tick{Value: float64(i + 1), Label: c})
	}
	return chart.XAxis{
		Style:          chart.Style{FontColor: textColor, FontSize: 9, StrokeColor: axisColor, StrokeWidth: 1},
		Ticks:          ticks,
		TickPosition:   chart.TickPositionBetweenTicks,
		GridMajorStyle: chart.Hidden(),
		GridMinorStyle: chart.Hidden(),
	}
}

// valueAxis fixes the range to 0..top with steps gridlines.
func valueAxis(title string, top float64, steps int) chart.YAxis {
	ticks := make([]chart.Tick, 0, steps+1)
	for i := 0; i <= steps; i++ {
		v := top * float64(i) / float64(steps)
		ticks = append(ticks, chart.Tick{Value: v, Label: Plain(v)})
	}
	grid := chart.Style{StrokeColor: gridColor, StrokeWidth: 1}
	return chart.YAxis{
		Name:           title,
		NameStyle:      chart.Style{FontColor: textColor, FontSize: 9},
		Style:          chart.Style{FontColor: mutedColor, FontSize: 8, StrokeColor: axisColor, StrokeWidth: 1},
		Ticks:          ticks,
		GridMajorStyle: grid,
		GridMinorStyle: grid,
	}
}

// Bars renders spec.
func Bars(spec BarSpec) Chart {
	width, height := size(spec.Width, spec.Height)
	n := len(spec.Categories)
	if n == 0 || len(spec.Series) == 0 {
		return blank(spec.Title, width, height)
	}

	var all []float64
	for _, s := range spec.Series {
		all = append(all, s.Values...)
	}
	if spec.Ref != nil {
		all = append(all, spec.Ref.Value)
	}
	ymax := spec.YMax
	if ymax <= 0 {
		ymax = NiceMax(0, all...)
	}

	ch := chart.Chart{
		Width:          width,
		Height:         height,
		Font:           currentFont(),
		Background:     padding(36, 16, 16, 8),
		XAxis:          categoryAxis(spec.Categories),
		YAxis:          valueAxis(spec.YTitle, ymax, 5),
		YAxisSecondary: chart.HideYAxis(),
	}
	for j, s := range spec.Series {
		color := s.Color
		if color == "" {
			color = colorAt(nil, j)
		}
		format := s.Format
		if format == nil {
			format = Plain
		}
		values := s.Values
		if len(values) > n {
			values = values[:n]
		}
		ch.Series = append(ch.Series, barSeries{
			name:   s.Name,
			values: values,
			color:  paint(color),
			format: format,
			slot:   j,
			slots:  len(spec.Series),
		})
	}
	if spec.Ref != nil {
		ch.Series = append(ch.Series, refLine(*spec.Ref, n)...)
	}
	if spec.Callout != nil {
		if a, ok := callout(spec); ok {
			ch.Series = append(ch.Series, a)
		}
	}
	if len(spec.Series) > 1 {
		ch.Elements = []chart.Renderable{chart.Legend(&ch, chart.Style{FontSize: 9, FontColor: textColor})}
	}
	return render(spec.Title, ch, width, height)
}

// refLine is a dashed line across all n categories, labelled at its right end.
func refLine(ref RefLine, n int) []chart.Series {
	color := paint("#95a5a6")
	if ref.Color != "" {
		color = paint(ref.Color)
	}
	series := []chart.Series{chart.ContinuousSeries{
		Style: chart.Style{
			StrokeColor:     color,
			StrokeWidth:     2,
			StrokeDashArray: []float64{6, 4},
		},
		XValues: []float64{0, float64(n)},
		YValues: []float64{ref.Value, ref.Value},
	}}
	if ref.Label != "" {
		series = append(series, chart.AnnotationSeries{
			Style: chart.Style{
				FontColor:   color,
				FontSize:    9,
				FillColor:   chart.ColorWhite,
				StrokeColor: color,
				StrokeWidth: 1,
			},
			Annotations: []chart.Value2{{XValue: float64(n), YValue: ref.Value, Label: ref.Label}},
		})
	}
	return series
}

// callout points a boxed note at the tallest bar of the named category.
func callout(spec BarSpec) (chart.AnnotationSeries, bool) {
	for i, cat := range spec.Categories {
		if cat != spec.Callout.Category {
			continue
		}
		peak := 0.0
		for _, s := range spec.Series {
			if i < len(s.Values) && s.Values[i] > peak {
				peak = s.Values[i]
			}
		}
		color := paint("#e65100")
		if spec.Callout.Color != "" {
			color = paint(spec.Callout.Color)
		}
		return chart.AnnotationSeries{
			Style: chart.Style{
				FontColor:   color,
				FontSize:    10,
				FillColor:   chart.ColorWhite,
				StrokeColor: color,
				StrokeWidth: 2,
			},
			Annotations: []chart.Value2{{XValue: float64(i) + 0.5, YValue: peak, Label: spec.Callout.Text}},
		}, true
	}
	return chart.AnnotationSeries{}, false
}

// HBarSpec describes a horizontal bar chart. Bars are listed in the given
// order from the top, so pass the largest first.
type HBarSpec struct {
	Title     string
	Labels    []string
	Values    []float64
	FromColor string
	ToColor   string
	XTitle    string
	XMax      float64
	Format    Formatter
	// Annotations replace the value label of the bar at the same index.
	Annotations []string
	// LabelWidth reserves room for category labels; zero means 96.
	LabelWidth    float64
	Width, Height int
}

// hbarSeries draws bars top to bottom with their labels in the left margin.
type hbarSeries struct {
	labels []string
	values []float64
	texts  []string
	colors []drawing.Color
}

func (hs hbarSeries) GetName() string { return "" }
func (hs hbarSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (hs hbarSeries) GetStyle() chart.Style { return chart.Style{} }
func (hs hbarSeries) Validate() error {
	if len(hs.values) == 0 {
		return errors.New("bar series has no values")
	}
	return nil
}

func (hs hbarSeries) Render(r chart.Renderer, box chart.Box, xr, _ chart.Range, defaults chart.Style) {
	band := float64(box.Height()) / float64(len(hs.values))
	label := chart.Style{Font: defaults.Font, FontColor: textColor, FontSize: 9}

	for i, v := range hs.values {
		top := box.Top + int(band*float64(i)+band*0.15)
		bottom := top + int(band*0.7)
		right := box.Left + xr.Translate(clamp(v, xr.GetMax()))
		chart.Draw.Box(r, chart.Box{Top: top, Left: box.Left, Right: right, Bottom: bottom}, chart.Style{FillColor: hs.colors[i]})

		mid := (top + bottom) / 2
		tb := chart.Draw.MeasureText(r, hs.labels[i], label)
		chart.Draw.Text(r, hs.labels[i], box.Left-8-tb.Width(), mid+tb.Height()/2, label)
		vb := chart.Draw.MeasureText(r, hs.texts[i], label)
		chart.Draw.Text(r, hs.texts[i], right+6, mid+vb.Height()/2, label)
	}
}

// HBars renders spec. Bar colours follow the value on a FromColor..ToColor
// scale.
func HBars(spec HBarSpec) Chart {
	width, height := size(spec.Width, spec.Height)
	n := min(len(spec.Labels), len(spec.Values))
	if n == 0 {
		return blank(spec.Title, width, height)
	}

	xmax := spec.XMax
	if xmax <= 0 {
		xmax = NiceMax(0, spec.Values...)
	}
	lo, hi := spec.Values[0], spec.Values[0]
	for _, v := range spec.Values[:n] {
		lo, hi = min(lo, v), max(hi, v)
	}
	format := spec.Format
	if format == nil {
		format = FixedPercent
	}

	hs := hbarSeries{labels: spec.Labels[:n], values: spec.Values[:n]}
	for i, v := range hs.values {
		text := format(v)
		if i < len(spec.Annotations) {
			text = spec.Annotations[i]
		}
		hs.texts = append(hs.texts, text)
		hs.colors = append(hs.colors, paint(Shade(spec.FromColor, spec.ToColor, v, lo, hi)))
	}

	labelWidth := int(spec.LabelWidth)
	if labelWidth <= 0 {
		labelWidth = 96
	}
	ticks := make([]chart.Tick, 0, 5)
	for i := 0; i <= 4; i++ {
		v := xmax * float64(i) / 4
		ticks = append(ticks, chart.Tick{Value: v, Label: Plain(v)})
	}
	grid := chart.Style{StrokeColor: gridColor, StrokeWidth: 1}

	ch := chart.Chart{
		Width:      width,
		Height:     height,
		Font:       currentFont(),
		Background: padding(16, labelWidth, 56, 8),
		XAxis: chart.XAxis{
			Name:           spec.XTitle,
			NameStyle:      chart.Style{FontColor: textColor, FontSize: 9},
			Style:          chart.Style{FontColor: mutedColor, FontSize: 8, StrokeColor: axisColor, StrokeWidth: 1},
			Ticks:          ticks,
			GridMajorStyle: grid,
			GridMinorStyle: grid,
		},
		YAxis: chart.YAxis{
			Style: chart.Hidden(),
			Range: &chart.ContinuousRange{Min: 0, Max: float64(n)},
		},
		YAxisSecondary: chart.HideYAxis(),
		Series:         []chart.Series{hs},
	}
	return render(spec.Title, ch, width, height)
}
