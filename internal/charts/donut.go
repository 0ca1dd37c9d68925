package charts

import (
	chart "github.com/wcharczuk/go-chart/v2"
)

// Slice is one donut segment.
type Slice struct {
	Label string
	Value float64
}

// DonutSpec describes a donut chart with a centre annotation.
type DonutSpec struct {
	Title  string
	Slices []Slice
	Colors []string
	// Center lines are stacked in the hole, the first one larger.
	Center        []string
	Width, Height int
}

// Donut renders spec. Zero and negative slices are skipped; labels show
// the slice name and its share of the total.
func Donut(spec DonutSpec) Chart {
	width, height := size(spec.Width, spec.Height)

	total := 0.0
	for _, s := range spec.Slices {
		if s.Value > 0 {
			total += s.Value
		}
	}
	if total <= 0 {
		return blank(spec.Title, width, height)
	}

	var values []chart.Value
	for i, s := range spec.Slices {
		if s.Value <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: s.Label + " " + FixedPercent(s.Value/total*100),
			Value: s.Value,
			Style: chart.Style{FillColor: paint(colorAt(spec.Colors, i))},
		})
	}

	dc := chart.DonutChart{
		Width:      width,
		Height:     height,
		Font:       currentFont(),
		Background: padding(16, 16, 16, 16),
		SliceStyle: chart.Style{
			StrokeColor: chart.ColorWhite,
			StrokeWidth: 2,
			FontColor:   textColor,
			FontSize:    9,
		},
		Values:   values,
		Elements: []chart.Renderable{centre(spec.Center)},
	}
	return render(spec.Title, dc, width, height)
}

// centre stacks lines around the middle of the hole.
func centre(lines []string) chart.Renderable {
	return func(r chart.Renderer, box chart.Box, defaults chart.Style) {
		cx, cy := box.Center()
		for i, line := range lines {
			style := chart.Style{Font: defaults.Font, FontColor: titleColor, FontSize: 9}
			if i == 0 {
				style.FontSize = 12
			}
			tb := chart.Draw.MeasureText(r, line, style)
			offset := (2*i - (len(lines) - 1)) * 9
			chart.Draw.Text(r, line, cx-tb.Width()/2, cy+offset+tb.Height()/2, style)
		}
	}
}
