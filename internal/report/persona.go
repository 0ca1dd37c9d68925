package report

import (
	"fmt"
	"math"
	"strconv"

	"ptanalysis/internal/analytics"
	"ptanalysis/internal/charts"
	"ptanalysis/internal/content"
	"ptanalysis/internal/dataset"
)

// Download URLs of the two detail exports.
const (
	PronunciationDownloadURL = "/downloads/pronunciation.csv"
	SuggestionDownloadURL    = "/downloads/suggestion.csv"
)

var (
	gradeColors    = []string{"#5a9fd4", "#7fa5a4", "#d4a574", "#95a5a6"}
	feedbackWidths = []string{"25%", "20%", "20%", "35%"}
)

// PersonaData is everything the persona page loads.
type PersonaData struct {
	Weekday       []dataset.ImageLabel
	Weekend       []dataset.ImageLabel
	Feedback      []dataset.Feedback
	Pronunciation *dataset.FeedbackDetails
	Suggestion    *dataset.FeedbackDetails
}

// Persona builds the user persona & feedback page.
func (b *Builder) Persona(d PersonaData) (*Page, error) {
	s, err := analytics.SummarizePersona(d.Weekday, d.Weekend)
	if err != nil {
		return nil, err
	}
	if d.Pronunciation == nil || d.Suggestion == nil {
		return nil, fmt.Errorf("%w: feedback details", ErrMissingData)
	}
	fb := analytics.SummarizeFeedback(d.Feedback)
	c := b.content.Persona
	p := b.page(SlugPersona)

	p.Blocks = append(p.Blocks,
		heading(4, c.Heading),
		info(fill(c.SourceNote,
			"total", Count(s.Total),
			"weekday", Count(s.WeekdayTotal),
			"weekend", Count(s.WeekendTotal))),
		Block{Kind: KindExpander, Title: c.Definitions.Title, Children: []Block{
			{Kind: KindDefinitions, Definitions: &c.Definitions},
		}},
		Block{Kind: KindExpander, Title: c.Examples.Title, Children: b.exampleBlocks(c.Examples)},
		heading(4, c.FindingsTitle),
		gradeFinding(c.Findings.Grades, s),
		contentFinding(c.Findings.Content, s),
		materialFinding(c.Findings.Materials, s),
		heading(5, c.Feedback.Heading),
		heading(5, fill(c.Feedback.TableTitle, "total", Count(fb.Total))),
		Block{Kind: KindTable, Table: FeedbackTable(fb)},
	)
	p.Blocks = append(p.Blocks, detailBlocks(c.Feedback.Pronunciation, d.Pronunciation, fb.Total, PronunciationDownloadURL)...)
	p.Blocks = append(p.Blocks, detailBlocks(c.Feedback.Suggestion, d.Suggestion, fb.Total, SuggestionDownloadURL)...)
	return p, nil
}

func (b *Builder) exampleBlocks(ex content.Examples) []Block {
	out := make([]Block, 0, len(ex.Groups))
	for _, g := range ex.Groups {
		out = append(out, Block{Kind: KindImages, Title: g.Title, Figures: b.figures(g.Items)})
	}
	return out
}

func gradeFinding(t content.FindingText, s *analytics.PersonaSummary) Block {
	pct := func(code string) string { return Pct(s.GradePercent[code], 1) }
	card := findingCard(t,
		content.Point{Label: analytics.GradeLabels[analytics.Grade7to9], Value: pct(analytics.Grade7to9)},
		content.Point{Label: analytics.GradeLabels[analytics.Grade4to6], Value: pct(analytics.Grade4to6)},
		content.Point{Label: analytics.GradeLabels[analytics.Grade10to12], Value: pct(analytics.Grade10to12)},
		content.Point{Label: analytics.GradeLabels[analytics.Grade1to3], Value: pct(analytics.Grade1to3)},
	)
	slices := make([]charts.Slice, len(s.Grades))
	for i, g := range s.Grades {
		slices[i] = charts.Slice{Label: g.Label, Value: float64(g.Count)}
	}
	chart := charts.Donut(charts.DonutSpec{
		Title:  t.Title,
		Slices: slices,
		Colors: gradeColors,
		Center: []string{Pct(math.Round(s.GradePercent[analytics.Grade7to9]), 0), t.Center},
	})
	return finding(card, chart)
}

func contentFinding(t content.FindingText, s *analytics.PersonaSummary) Block {
	pct := func(code string) string { return Pct(s.ContentPercent[code], 1) }
	card := findingCard(t,
		content.Point{Label: "阅读理解", Value: pct("reading_comprehension"), Note: "（第一大场景）"},
		content.Point{Label: "阅读文章", Value: pct("reading_passage")},
		content.Point{Label: "语法练习", Value: pct("grammar_exercise")},
		content.Point{Label: "词汇练习", Value: pct("vocabulary_exercise")},
	)
	labels := make([]string, len(s.Content))
	values := make([]float64, len(s.Content))
	top := 0.0
	for i, c := range s.Content {
		labels[i], values[i] = c.Label, c.Percent
		top = math.Max(top, c.Percent)
	}
	chart := charts.HBars(charts.HBarSpec{
		Title:     t.Title,
		Labels:    labels,
		Values:    values,
		FromColor: "#a5d6a7",
		ToColor:   "#2e7d32",
		XTitle:    t.XTitle,
		XMax:      top * 1.2,
		Format:    charts.FixedPercent,
	})
	return finding(card, chart)
}

func materialFinding(t content.FindingText, s *analytics.PersonaSummary) Block {
	practice := s.Material(analytics.MaterialPractice)
	exam := s.Material(analytics.MaterialExam)
	multiplier := strconv.FormatFloat(s.ExamMultiplier, 'f', 1, 64)

	card := findingCard(t,
		content.Point{Label: "工作日特征", Note: fmt.Sprintf("练习/作业材料 %s、教材为主", Pct(practice.Weekday, 1))},
		content.Point{Label: "周末特征", Note: fmt.Sprintf("试卷 %s（工作日 %s，↑%s倍）", Pct(exam.Weekend, 1), Pct(exam.Weekday, 1), multiplier)},
		content.Point{Note: fmt.Sprintf("练习/作业材料 %s（工作日 %s）", Pct(practice.Weekend, 1), Pct(practice.Weekday, 1))},
		content.Point{Note: fmt.Sprintf("写作作业 %s（工作日 %s）", Pct(s.WeekendWriting, 1), Pct(s.WeekdayWriting, 1))},
	)

	categories := make([]string, len(s.Materials))
	weekday := make([]float64, len(s.Materials))
	weekend := make([]float64, len(s.Materials))
	top := 0.0
	for i, m := range s.Materials {
		categories[i], weekday[i], weekend[i] = m.Label, m.Weekday, m.Weekend
		top = math.Max(top, math.Max(m.Weekday, m.Weekend))
	}
	chart := charts.Bars(charts.BarSpec{
		Title:      t.Title,
		Categories: categories,
		Series: []charts.Series{
			{Name: "工作日", Values: weekday, Color: "#7fa5a4", Format: charts.FixedPercent},
			{Name: "周末", Values: weekend, Color: "#ffb74d", Format: charts.FixedPercent},
		},
		YTitle:  t.YTitle,
		YMax:    top * 1.3,
		Callout: &charts.Callout{Category: analytics.MaterialExam, Text: "↑" + multiplier + "倍", Color: "#e65100"},
	})
	return finding(card, chart)
}

// FeedbackTable renders the feedback distribution. The core pain point row
// is highlighted and its share is bold.
func FeedbackTable(s *analytics.FeedbackSummary) *Table {
	t := &Table{Columns: analytics.FeedbackColumns, Widths: feedbackWidths}
	for _, g := range s.Groups {
		row := Row{Cells: []string{g.Name, Count(g.Count), Pct(g.Percent, 2), g.Rating}}
		if g.Highlight {
			row.Highlight = HighlightAlert
			row.Strong = []int{2}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// DetailColumns are the headers of a feedback detail table; the second one
// is the label column name of the export.
func DetailColumns(labelColumn string) []string {
	return []string{"反馈日期", labelColumn, "反馈内容", "使用场景"}
}

func detailBlocks(t content.DetailText, d *dataset.FeedbackDetails, totalFeedback int, url string) []Block {
	sum := analytics.SummarizeDetails(d, totalFeedback)

	table := &Table{Columns: DetailColumns(t.LabelColumn), Scroll: true}
	for _, r := range d.Records {
		table.Rows = append(table.Rows, Row{Cells: []string{r.Date, r.Label, r.Content, r.Scene}})
	}

	return []Block{
		heading(5, t.Title),
		info(fmt.Sprintf("📊 共 %s 条反馈，占总反馈的 %s", Count(sum.Count), Pct(sum.Percent, 2))),
		{Kind: KindTypeCounts, Title: t.TypesHeading, Counts: sum.Types},
		{Kind: KindTable, Title: fmt.Sprintf("全部 %s 条反馈详情：", Count(sum.Count)), Table: table},
		{Kind: KindDownload, Download: &Download{Label: t.DownloadLabel, URL: url, FileName: t.FileName}},
	}
}
