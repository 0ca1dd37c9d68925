package report

import (
	"fmt"
	"math"

	"ptanalysis/internal/analytics"
	"ptanalysis/internal/charts"
	"ptanalysis/internal/content"
	"ptanalysis/internal/dataset"
)

var (
	distributionColors = []string{"#95a5a6", "#7f8c8d", "#b8c5d6", "#9db4c8", "#7fa5a4", "#6c9a8b"}
	frequencyWidths    = []string{"14%", "12%", "10%", "12%", "12%", "15%", "13%"}
)

// Frequency builds the usage frequency & retention page from the usage
// export.
func (b *Builder) Frequency(tiers []dataset.UsageTier) (*Page, error) {
	s, err := analytics.SummarizeFrequency(tiers)
	if err != nil {
		return nil, err
	}
	f := b.content.Frequency
	p := b.page(SlugFrequency)

	scope := make([]Block, 0, len(f.Scope))
	for _, sc := range f.Scope {
		scope = append(scope, Block{Kind: KindNote, Title: sc.Heading, Children: lines(sc.Lines)})
	}

	p.Blocks = append(p.Blocks, heading(5, f.TableTitle))
	p.Blocks = append(p.Blocks, scope...)
	p.Blocks = append(p.Blocks,
		Block{Kind: KindTable, Table: FrequencyTable(s)},
		heading(4, f.FindingsTitle),
		distributionFinding(f.Findings.Distribution, s),
		intervalFinding(f.Findings.Interval, s),
		retentionFinding(f.Findings.Retention, s),
		photosFinding(f.Findings.Photos, s),
	)
	return p, nil
}

func lines(ls []string) []Block {
	out := make([]Block, len(ls))
	for i, l := range ls {
		out[i] = Block{Kind: KindNote, Text: l}
	}
	return out
}

// FrequencyTable renders the usage rows with the 合计 row highlighted.
func FrequencyTable(s *analytics.FrequencySummary) *Table {
	t := &Table{Columns: analytics.FrequencyColumns, Widths: frequencyWidths}
	for _, r := range s.Rows {
		row := Row{Cells: []string{r.Tier, r.UV, r.Share, r.NextDay, r.SevenDay, r.Interval, r.PhotosPerDay}}
		if r.Total {
			row.Highlight = HighlightTotal
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func labelsValues(points []analytics.Point) ([]string, []float64) {
	labels := make([]string, len(points))
	values := make([]float64, len(points))
	for i, p := range points {
		labels[i], values[i] = p.Label, p.Value
	}
	return labels, values
}

func distributionFinding(t content.FindingText, s *analytics.FrequencySummary) Block {
	oneTime := Pct(math.Round(s.OneTimeShare), 0)
	card := findingCard(t,
		content.Point{Value: oneTime, Note: "一次性用户：翻译是偶发需求"},
		content.Point{Value: Pct(math.Round(s.MidShare), 0), Note: "中频用户 (使用2-10天)"},
		content.Point{Value: "仅" + Pct(math.Round(s.HighShare), 0), Note: "超高频用户 (10天+)"},
	)
	slices := make([]charts.Slice, len(s.Distribution))
	for i, d := range s.Distribution {
		slices[i] = charts.Slice{Label: d.Label, Value: d.Value}
	}
	chart := charts.Donut(charts.DonutSpec{
		Title:  t.Title,
		Slices: slices,
		Colors: distributionColors,
		Center: []string{oneTime, t.Center},
	})
	return finding(card, chart)
}

func intervalFinding(t content.FindingText, s *analytics.FrequencySummary) Block {
	card := findingCard(t,
		content.Point{Label: "整体平均", Value: trim(s.OverallInterval) + "天", Note: "(" + demand(s.OverallInterval) + ")"},
		content.Point{Label: "高频用户", Value: dayCount(s.TopInterval), Note: "(" + cadence(s.TopInterval) + ")"},
		content.Point{
			Label: "中低频用户",
			Value: fmt.Sprintf("%d-%d天", int(math.Floor(s.LowMidMin)), int(math.Floor(s.LowMidMax))),
			Note:  "(" + cadence((s.LowMidMin+s.LowMidMax)/2) + ")",
		},
	)
	labels, values := labelsValues(s.Intervals)
	chart := charts.Bars(charts.BarSpec{
		Title:      t.Title,
		Categories: labels,
		Series:     []charts.Series{{Name: t.Title, Values: values, Color: "#7fa5a4", Format: charts.Suffix("天")}},
		YTitle:     t.YTitle,
		YMax:       charts.NiceMax(10, append(values, s.OverallInterval)...),
		Ref:        &charts.RefLine{Value: s.OverallInterval, Label: "整体平均 " + trim(s.OverallInterval) + "天", Color: "#95a5a6"},
	})
	return finding(card, chart)
}

func retentionFinding(t content.FindingText, s *analytics.FrequencySummary) Block {
	sevenNote := ""
	if math.Abs(s.OverallSevenDay-s.OverallNextDay) < 1 {
		sevenNote = "(几乎持平)"
	}
	card := findingCard(t,
		content.Point{Label: "功能次留率", Value: trim(s.OverallNextDay) + "%"},
		content.Point{Label: "功能七留率", Value: trim(s.OverallSevenDay) + "%", Note: sevenNote},
		content.Point{
			Label: "理论次留率",
			Value: "≈" + Pct(math.Round(s.TheoreticalNextDay), 0),
			Note:  fmt.Sprintf("(1/%d天)", int(math.Round(s.OverallInterval))),
		},
	)
	labels, next := labelsValues(s.NextDay)
	_, seven := labelsValues(s.SevenDay)
	chart := charts.Bars(charts.BarSpec{
		Title:      t.Title,
		Categories: labels,
		Series: []charts.Series{
			{Name: "次留率", Values: next, Color: "#7fa5a4", Format: charts.Suffix("%")},
			{Name: "七留率", Values: seven, Color: "#b8c5d6", Format: charts.Suffix("%")},
		},
		YTitle: t.YTitle,
		YMax:   charts.NiceMax(40, append(next, seven...)...),
	})
	return finding(card, chart)
}

func photosFinding(t content.FindingText, s *analytics.FrequencySummary) Block {
	card := findingCard(t,
		content.Point{Label: "一次性用户", Value: trim(s.OneTimePhotos) + "张"},
		content.Point{Label: "高频用户", Value: trim(s.TopPhotos) + "张"},
		content.Point{Label: "全部区间", Value: oneDecimal(s.MinPhotos) + "-" + oneDecimal(s.MaxPhotos) + "张"},
	)
	labels, values := labelsValues(s.Photos)
	chart := charts.Line(charts.LineSpec{
		Title:  t.Title,
		Labels: labels,
		Values: values,
		Color:  "#6c9a8b",
		Fill:   "rgba(108,154,139,0.15)",
		YTitle: t.YTitle,
		YMax:   charts.NiceMax(4, values...),
		Format: charts.Suffix("张"),
	})
	return finding(card, chart)
}
