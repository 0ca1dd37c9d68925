package analytics

import (
	"errors"

	"ptanalysis/internal/dataset"
)

// ErrNoSamples is returned when neither label export has any records.
var ErrNoSamples = errors.New("no labelled image samples")

// Grade codes.
const (
	Grade1to3    = "grade_1_3"
	Grade4to6    = "grade_4_6"
	Grade7to9    = "grade_7_9"
	Grade10to12  = "grade_10_12"
	GradeUnknown = "unknown"
)

// GradeLabels maps grade codes to the names shown on charts.
var GradeLabels = map[string]string{
	Grade7to9:    "初中生（7-9年级）",
	Grade4to6:    "小学高年级（4-6年级）",
	Grade10to12:  "高中生",
	Grade1to3:    "小学低年级",
	GradeUnknown: "未知",
}

// ContentLabels maps content-type codes to display names.
var ContentLabels = map[string]string{
	"reading_comprehension": "阅读理解",
	"reading_passage":       "阅读文章",
	"grammar_exercise":      "语法练习",
	"vocabulary_exercise":   "词汇练习",
	"dialogue_text":         "对话文本",
	"cloze_test":            "完形填空",
	"writing_assignment":    "写作作业",
	"translation_exercise":  "翻译练习",
	"exam_paper":            "试卷",
}

const (
	contentTopN       = 6
	contentWriting    = "writing_assignment"
	materialWorkbook  = "workbook"
	materialHomework  = "homework_book"
	materialTextbook  = "official_textbook"
	materialExam      = "exam_paper"
	materialScreenCap = "screen_capture"
)

// MaterialComparison is one material group's share on weekdays and
// weekends.
type MaterialComparison struct {
	Label   string  `json:"label"`
	Weekday float64 `json:"weekday"`
	Weekend float64 `json:"weekend"`
}

// Material group labels.
const (
	MaterialPractice = "练习/作业材料"
	MaterialTextbook = "教材"
	MaterialExam     = "试卷"
	MaterialScreen   = "屏幕截图"
)

// PersonaSummary holds the grade, content and material breakdowns of the
// labelled photos.
type PersonaSummary struct {
	Total        int `json:"total"`
	WeekdayTotal int `json:"weekday_total"`
	WeekendTotal int `json:"weekend_total"`

	Grades       []Share            `json:"grades"`
	GradePercent map[string]float64 `json:"grade_percent"`

	Content        []Share            `json:"content"`
	ContentPercent map[string]float64 `json:"content_percent"`

	Materials      []MaterialComparison `json:"materials"`
	WeekdayWriting float64              `json:"weekday_writing"`
	WeekendWriting float64              `json:"weekend_writing"`
	ExamMultiplier float64              `json:"exam_multiplier"`
}

// Material returns the comparison for label.
func (p *PersonaSummary) Material(label string) MaterialComparison {
	for _, m := range p.Materials {
		if m.Label == label {
			return m
		}
	}
	return MaterialComparison{Label: label}
}

// SummarizePersona combines the weekday and weekend labels.
func SummarizePersona(weekday, weekend []dataset.ImageLabel) (*PersonaSummary, error) {
	total := len(weekday) + len(weekend)
	if total == 0 {
		return nil, ErrNoSamples
	}

	all := make([]dataset.ImageLabel, 0, total)
	all = append(all, weekday...)
	all = append(all, weekend...)

	s := &PersonaSummary{
		Total:          total,
		WeekdayTotal:   len(weekday),
		WeekendTotal:   len(weekend),
		GradePercent:   make(map[string]float64),
		ContentPercent: make(map[string]float64),
	}

	grades := ValueCounts(pluck(all, func(l dataset.ImageLabel) string { return l.GradeLevel }))
	s.Grades = shares(grades, total, GradeLabels)
	for _, code := range []string{Grade7to9, Grade4to6, Grade10to12, Grade1to3} {
		s.GradePercent[code] = Percent(Lookup(grades, code), total)
	}

	content := ValueCounts(pluck(all, func(l dataset.ImageLabel) string { return l.ContentType }))
	for _, c := range content {
		s.ContentPercent[c.Key] = Percent(c.Count, total)
	}
	if len(content) > contentTopN {
		content = content[:contentTopN]
	}
	s.Content = shares(content, total, ContentLabels)

	wd := ValueCounts(pluck(weekday, func(l dataset.ImageLabel) string { return l.MaterialSource }))
	we := ValueCounts(pluck(weekend, func(l dataset.ImageLabel) string { return l.MaterialSource }))
	nd, ne := len(weekday), len(weekend)

	s.Materials = []MaterialComparison{
		{MaterialPractice, Percent(Sum(wd, materialWorkbook, materialHomework), nd), Percent(Sum(we, materialWorkbook, materialHomework), ne)},
		{MaterialTextbook, Percent(Lookup(wd, materialTextbook), nd), Percent(Lookup(we, materialTextbook), ne)},
		{MaterialExam, Percent(Lookup(wd, materialExam), nd), Percent(Lookup(we, materialExam), ne)},
		{MaterialScreen, Percent(Lookup(wd, materialScreenCap), nd), Percent(Lookup(we, materialScreenCap), ne)},
	}

	s.WeekdayWriting = Percent(countContent(weekday, contentWriting), nd)
	s.WeekendWriting = Percent(countContent(weekend, contentWriting), ne)

	exam := s.Material(MaterialExam)
	if exam.Weekday > 0 {
		s.ExamMultiplier = exam.Weekend / exam.Weekday
	}
	return s, nil
}

func pluck(labels []dataset.ImageLabel, field func(dataset.ImageLabel) string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = field(l)
	}
	return out
}

func countContent(labels []dataset.ImageLabel, contentType string) int {
	n := 0
	for _, l := range labels {
		if l.ContentType == contentType {
			n++
		}
	}
	return n
}
