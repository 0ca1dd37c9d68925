package analytics

import (
	"ptanalysis/internal/dataset"
)

// FeedbackGroup is one row of the feedback distribution table.
type FeedbackGroup struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
	Rating  string  `json:"rating"`
	// Highlight marks the core pain point row.
	Highlight bool `json:"highlight"`
}

// Feedback group names.
const (
	GroupQuality       = "翻译质量问题"
	GroupUnclassified  = "其他/无法分类"
	GroupSatisfied     = "满意反馈"
	GroupPronunciation = "发音朗读问题"
	GroupSuggestion    = "产品建议"
	GroupOther         = "其他问题"
)

type groupDef struct {
	name      string
	rating    string
	labels    []string
	highlight bool
}

// feedbackGroups lists the labelled groups in table order. 其他问题 is
// whatever none of them claims.
var feedbackGroups = []groupDef{
	{GroupQuality, "🔴 核心痛点", []string{"翻译不准确", "翻译不完整", "翻译语言错误"}, true},
	{GroupUnclassified, "⚪ 正常反馈", []string{"无法分类"}, false},
	{GroupSatisfied, "🟢 正面评价", []string{"满意表扬"}, false},
	{GroupPronunciation, "🟡 次要痛点", PronunciationLabels, false},
	{GroupSuggestion, "🔵 功能需求", SuggestionLabels, false},
}

// PronunciationLabels are the labels counted as pronunciation problems.
var PronunciationLabels = []string{"发音不准确", "朗读不自然", "朗读功能优化", "朗读卡顿重复",
	"朗读速度问题", "缺少中文朗读", "发音朗读问题", "Audio_Issues"}

// SuggestionLabels are the labels counted as product suggestions.
var SuggestionLabels = []string{"翻译语言扩展", "功能需求", "其他功能需求", "单词本收藏",
	"句子分析", "历史记录", "Feature_Requests"}

// FeedbackColumns are the headers of the distribution table.
var FeedbackColumns = []string{"问题类型", "反馈数量", "占比", "评级"}

// FeedbackSummary is the grouped feedback distribution.
type FeedbackSummary struct {
	Total  int             `json:"total"`
	Groups []FeedbackGroup `json:"groups"`
}

// SummarizeFeedback groups the labelled feedback records.
func SummarizeFeedback(records []dataset.Feedback) *FeedbackSummary {
	labels := make([]string, len(records))
	for i, r := range records {
		labels[i] = r.Label
	}
	counts := ValueCounts(labels)
	total := len(records)

	s := &FeedbackSummary{Total: total, Groups: make([]FeedbackGroup, 0, len(feedbackGroups)+1)}
	claimed := 0
	for _, g := range feedbackGroups {
		n := Sum(counts, g.labels...)
		claimed += n
		s.Groups = append(s.Groups, FeedbackGroup{
			Name:      g.name,
			Count:     n,
			Percent:   Percent(n, total),
			Rating:    g.rating,
			Highlight: g.highlight,
		})
	}
	other := total - claimed
	s.Groups = append(s.Groups, FeedbackGroup{
		Name:    GroupOther,
		Count:   other,
		Percent: Percent(other, total),
		Rating:  "⚪ 其他",
	})
	return s
}

// Group returns the named group.
func (s *FeedbackSummary) Group(name string) (FeedbackGroup, bool) {
	for _, g := range s.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return FeedbackGroup{}, false
}

// DetailSummary describes one detail export against all feedback.
type DetailSummary struct {
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
	Types   []Count `json:"types"`
}

// SummarizeDetails counts a detail export's records by label. The share is
// taken against totalFeedback records.
func SummarizeDetails(d *dataset.FeedbackDetails, totalFeedback int) DetailSummary {
	return DetailSummary{
		Count:   len(d.Records),
		Percent: Percent(len(d.Records), totalFeedback),
		Types:   ValueCounts(d.Labels()),
	}
}
