package charts

import (
	"bytes"
	"html"
	"html/template"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Default canvas size. Charts scale to their container via viewBox.
const (
	DefaultWidth  = 640
	DefaultHeight = 350

	noData = "暂无数据"
)

var (
	textColor  = drawing.Color{R: 0x34, G: 0x49, B: 0x5e, A: 255}
	titleColor = drawing.Color{R: 0x2c, G: 0x3e, B: 0x50, A: 255}
	mutedColor = drawing.Color{R: 0x7f, G: 0x8c, B: 0x8d, A: 255}
	axisColor  = drawing.Color{R: 0xd0, G: 0xd7, B: 0xde, A: 255}
	gridColor  = drawing.Color{R: 0xee, G: 0xf1, B: 0xf4, A: 255}
)

// Chart is a rendered SVG document, safe to embed in HTML.
type Chart struct {
	Title string        `json:"title,omitempty"`
	SVG   template.HTML `json:"svg"`
}

// escaper escapes text bodies; go-chart's SVG canvas writes them verbatim.
type escaper struct {
	chart.Renderer
}

func (e escaper) Text(body string, x, y int) {
	e.Renderer.Text(html.EscapeString(body), x, y)
}

func svgRenderer(width, height int) (chart.Renderer, error) {
	r, err := chart.SVG(width, height)
	if err != nil {
		return nil, err
	}
	return escaper{r}, nil
}

type renderable interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

func render(title string, c renderable, width, height int) Chart {
	var buf bytes.Buffer
	if err := c.Render(svgRenderer, &buf); err != nil {
		slog.Warn("Chart render failed", slog.String("chart", title), slog.String("error", err.Error()))
		return blank(title, width, height)
	}
	return Chart{Title: title, SVG: template.HTML(buf.String())}
}

// blank is the placeholder drawn when there is nothing to plot.
func blank(title string, width, height int) Chart {
	r, err := svgRenderer(width, height)
	if err != nil {
		return Chart{Title: title}
	}
	r.SetDPI(chart.DefaultDPI)
	style := chart.Style{Font: currentFont(), FontSize: 12, FontColor: mutedColor}
	tb := chart.Draw.MeasureText(r, noData, style)
	chart.Draw.Text(r, noData, (width-tb.Width())/2, (height+tb.Height())/2, style)

	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return Chart{Title: title}
	}
	return Chart{Title: title, SVG: template.HTML(buf.String())}
}

func size(width, height int) (int, int) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return width, height
}

func padding(top, left, right, bottom int) chart.Style {
	return chart.Style{Padding: chart.Box{Top: top, Left: left, Right: right, Bottom: bottom, IsSet: true}}
}

// paint converts a CSS colour. Hex goes through go-colorful; rgb(a) and
// named colours through go-chart's parser.
func paint(css string) drawing.Color {
	if c, err := colorful.Hex(css); err == nil {
		r, g, b := c.RGB255()
		return drawing.Color{R: r, G: g, B: b, A: 255}
	}
	if strings.HasPrefix(css, "#") {
		return drawing.Color{}
	}
	return drawing.ParseColor(css)
}

// NiceMax returns an axis maximum for values: 1.2 times the largest value
// rounded up to a step, but never below floor.
func NiceMax(floor float64, values ...float64) float64 {
	top := 0.0
	for _, v := range values {
		top = math.Max(top, v)
	}
	top *= 1.2
	if top <= 0 {
		top = 1
	}
	step := math.Pow(10, math.Floor(math.Log10(top)))
	for _, m := range []float64{1, 2, 5, 10} {
		if top <= m*step {
			top = m * step
			break
		}
	}
	return math.Max(top, floor)
}

func blend(a, b colorful.Color, from, to string, t float64) string {
	switch {
	case t <= 0:
		return from
	case t >= 1:
		return to
	}
	return a.BlendLab(b, t).Clamped().Hex()
}

// Shade returns the colour for value on a from..to scale spanning lo..hi.
func Shade(from, to string, value, lo, hi float64) string {
	a, errA := colorful.Hex(from)
	b, errB := colorful.Hex(to)
	if errA != nil || errB != nil {
		return to
	}
	t := 1.0
	if hi > lo {
		t = (value - lo) / (hi - lo)
	}
	return blend(a, b, from, to, t)
}

func colorAt(palette []string, i int) string {
	if len(palette) == 0 {
		return "#7fa5a4"
	}
	return palette[i%len(palette)]
}

func clamp(v, hi float64) float64 {
	return math.Max(0, math.Min(v, hi))
}

// Formatter renders a value label.
type Formatter func(float64) string

// Plain prints a value with up to two decimals.
func Plain(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// Suffix prints a value followed by unit, e.g. "7.71天".
func Suffix(unit string) Formatter {
	return func(v float64) string { return Plain(v) + unit }
}

// FixedPercent prints a value with one decimal and a percent sign.
func FixedPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}
