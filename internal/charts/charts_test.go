package charts

import (
	"encoding/xml"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wcharczuk/go-chart/v2/roboto"
)

// wellFormed decodes the whole document so broken escaping fails the test.
func wellFormed(t *testing.T, c Chart) string {
	t.Helper()
	svg := string(c.SVG)
	dec := xml.NewDecoder(strings.NewReader(svg))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	require.True(t, strings.HasPrefix(svg, "<svg"))
	return svg
}

func TestDonut(t *testing.T) {
	c := Donut(DonutSpec{
		Title:  "使用天数分层",
		Slices: []Slice{{"使用1天", 60}, {"使用2天", 15}, {"<script>", 25}, {"空", 0}},
		Colors: []string{"#95a5a6", "#7f8c8d", "#b8c5d6"},
		Center: []string{"60%", "一次性用户"},
	})
	svg := wellFormed(t, c)

	assert.Equal(t, "使用天数分层", c.Title)
	assert.Contains(t, svg, "使用1天 60.0%")
	assert.Contains(t, svg, "一次性用户")
	assert.Contains(t, svg, "&lt;script&gt;")
	assert.NotContains(t, svg, "<script>")
	assert.NotContains(t, svg, "空")
	for _, fill := range []string{"fill:rgba(149,165,166,1.0)", "fill:rgba(127,140,141,1.0)", "fill:rgba(184,197,214,1.0)"} {
		assert.Contains(t, svg, fill)
	}
}

func TestDonutSingleSlice(t *testing.T) {
	svg := wellFormed(t, Donut(DonutSpec{Slices: []Slice{{"all", 5}}}))
	assert.Contains(t, svg, "<circle")
	assert.Contains(t, svg, "all 100.0%")
}

func TestDonutNothingToPlot(t *testing.T) {
	svg := wellFormed(t, Donut(DonutSpec{Slices: []Slice{{"a", 0}, {"b", -1}}}))
	assert.Contains(t, svg, noData)
}

func TestBarsGroupedWithRefAndCallout(t *testing.T) {
	c := Bars(BarSpec{
		Title:      "材料来源",
		Categories: []string{"练习/作业材料", "试卷"},
		Series: []Series{
			{Name: "工作日", Values: []float64{40, 10}, Color: "#7fa5a4", Format: FixedPercent},
			{Name: "周末", Values: []float64{30, 50}, Color: "#ffb74d", Format: FixedPercent},
		},
		YTitle:  "占比 (%)",
		Ref:     &RefLine{Value: 20, Label: "参考 20"},
		Callout: &Callout{Category: "试卷", Text: "↑5.0倍"},
	})
	svg := wellFormed(t, c)

	assert.Equal(t, 2, strings.Count(svg, "fill:rgba(127,165,164,1.0)"))
	assert.Equal(t, 2, strings.Count(svg, "fill:rgba(255,183,77,1.0)"))
	assert.Contains(t, svg, "50.0%")
	assert.Contains(t, svg, "↑5.0倍")
	assert.Contains(t, svg, "参考 20")
	assert.Contains(t, svg, "stroke-dasharray")
	assert.Contains(t, svg, "工作日")
	assert.Contains(t, svg, "试卷")
}

func TestBarsSingleSeries(t *testing.T) {
	svg := wellFormed(t, Bars(BarSpec{
		Categories: []string{"<b>使用1天</b>", "使用2天"},
		Series:     []Series{{Name: "平均间隔", Values: []float64{7.71, 8.01}, Format: Suffix("天")}},
	}))
	assert.Contains(t, svg, "7.71天")
	assert.Contains(t, svg, "&lt;b&gt;")
	assert.NotContains(t, svg, "stroke-dasharray")
	// no legend for a single series
	assert.NotContains(t, svg, ">平均间隔<")
}

func TestBarsEmpty(t *testing.T) {
	svg := wellFormed(t, Bars(BarSpec{}))
	assert.Contains(t, svg, noData)
}

func TestHBars(t *testing.T) {
	tests := []struct {
		name        string
		annotations []string
		want        []string
		absent      []string
	}{
		{
			name: "percent labels",
			want: []string{"30.0%", "15.0%", "阅读理解", "占比 (%)", "fill:rgba(46,125,50,1.0)", "fill:rgba(165,214,167,1.0)"},
		},
		{
			name:        "annotations replace labels",
			annotations: []string{"共 30 次"},
			want:        []string{"共 30 次", "15.0%"},
			absent:      []string{"30.0%"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svg := wellFormed(t, HBars(HBarSpec{
				Labels:      []string{"阅读理解", "阅读文章"},
				Values:      []float64{30, 15},
				FromColor:   "#a5d6a7",
				ToColor:     "#2e7d32",
				XTitle:      "占比 (%)",
				Annotations: tt.annotations,
			}))
			for _, s := range tt.want {
				assert.Contains(t, svg, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, svg, s)
			}
		})
	}
}

func TestLine(t *testing.T) {
	c := Line(LineSpec{
		Labels: []string{"使用1天", "使用2天"},
		Values: []float64{2.32, 2.67},
		Fill:   "rgba(108,154,139,0.15)",
		YMax:   4,
		Format: Suffix("张"),
	})
	svg := wellFormed(t, c)
	assert.Contains(t, svg, "2.32张")
	assert.Contains(t, svg, "使用2天")
	assert.Contains(t, svg, "fill:rgba(108,154,139,0.1)")
	assert.Equal(t, 2, strings.Count(svg, "<circle"))
}

func TestLineEmpty(t *testing.T) {
	assert.Contains(t, wellFormed(t, Line(LineSpec{})), noData)
}

func TestNiceMax(t *testing.T) {
	tests := []struct {
		name   string
		floor  float64
		values []float64
		want   float64
	}{
		{"intervals", 10, []float64{7.71, 8.01, 3.37}, 10},
		{"retention", 40, []float64{34.18, 35.81}, 50},
		{"floor wins", 4, []float64{1}, 4},
		{"empty", 0, nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, NiceMax(tt.floor, tt.values...), 1e-9)
		})
	}
}

func TestPaint(t *testing.T) {
	tests := []struct {
		css  string
		want string
	}{
		{"#2e7d32", "rgba(46,125,50,1.0)"},
		{"#fff", "rgba(255,255,255,1.0)"},
		{"rgba(108,154,139,0.5)", "rgba(108,154,139,0.5)"},
		{"#zz", "rgba(0,0,0,0.0)"},
	}
	for _, tt := range tests {
		t.Run(tt.css, func(t *testing.T) {
			assert.Equal(t, tt.want, paint(tt.css).String())
		})
	}
}

func TestSetupFont(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	t.Cleanup(func() { UseFont(nil) })

	t.Run("configured file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "label.ttf")
		require.NoError(t, os.WriteFile(path, roboto.Roboto, 0o600))

		used, err := SetupFont(path, logger)
		require.NoError(t, err)
		assert.Equal(t, path, used)
		assert.NotNil(t, currentFont())
	})

	t.Run("configured file missing", func(t *testing.T) {
		_, err := SetupFont(filepath.Join(t.TempDir(), "missing.ttf"), logger)
		assert.Error(t, err)
	})

	t.Run("not a font", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fonts.ttc")
		require.NoError(t, os.WriteFile(path, []byte("ttcf"), 0o600))
		_, err := LoadFont(path)
		assert.ErrorContains(t, err, "parse font")
	})

	t.Run("no candidates falls back to roboto", func(t *testing.T) {
		saved := fontCandidates
		fontCandidates = []string{filepath.Join(t.TempDir(), "none.ttf")}
		t.Cleanup(func() { fontCandidates = saved })
		UseFont(nil)

		used, err := SetupFont("", logger)
		require.NoError(t, err)
		assert.Empty(t, used)
		assert.NotNil(t, currentFont())
	})
}
