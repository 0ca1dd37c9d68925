package report

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptanalysis/internal/analytics"
	"ptanalysis/internal/config"
	"ptanalysis/internal/content"
	"ptanalysis/internal/dataset"
	"ptanalysis/internal/shared/testutil"
)

func newBuilder(t *testing.T, exists ImageChecker) *Builder {
	t.Helper()
	c, err := content.LoadEmbedded()
	require.NoError(t, err)
	return NewBuilder(c, exists)
}

func blocksOf(blocks []Block, kind Kind) []Block {
	var out []Block
	for _, b := range blocks {
		if b.Kind == kind {
			out = append(out, b)
		}
		out = append(out, blocksOf(b.Children, kind)...)
	}
	return out
}

func pointValues(c Card) []string {
	out := make([]string, len(c.Points))
	for i, p := range c.Points {
		out[i] = p.Value
	}
	return out
}

func loadPersonaData(t *testing.T) PersonaData {
	t.Helper()
	cfg := testutil.WriteDataset(t)
	file := func(name string) string { return filepath.Join(cfg.Dir, name) }

	weekday, err := dataset.LoadImageLabels(file(config.WeekdayLabelsFileName), dataset.Weekday)
	require.NoError(t, err)
	weekend, err := dataset.LoadImageLabels(file(config.WeekendLabelsFileName), dataset.Weekend)
	require.NoError(t, err)
	feedback, err := dataset.LoadFeedback(file(config.FeedbackFileName))
	require.NoError(t, err)
	pron, err := dataset.LoadFeedbackDetails(file(config.PronunciationFileName))
	require.NoError(t, err)
	sugg, err := dataset.LoadFeedbackDetails(file(config.SuggestionFileName))
	require.NoError(t, err)

	return PersonaData{Weekday: weekday, Weekend: weekend, Feedback: feedback, Pronunciation: pron, Suggestion: sugg}
}

func TestCountFormatting(t *testing.T) {
	assert.Equal(t, "8,000", Count(8000))
	assert.Equal(t, "22", Count(22))
	assert.Equal(t, "1,234,567", Count(1234567))
	assert.Equal(t, "36.36%", Pct(36.3636, 2))
	assert.Equal(t, "60%", Pct(60, 0))
}

func TestCadence(t *testing.T) {
	tests := []struct {
		days  float64
		want  string
		count string
	}{
		{3.37, "每3天用1次", "3.37天"},
		{7.59, "每周用1次", "7.59天"},
		{0, "-", "-"},
		{-1, "-", "-"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cadence(tt.days), "cadence(%v)", tt.days)
		assert.Equal(t, tt.count, dayCount(tt.days), "dayCount(%v)", tt.days)
	}
	assert.Equal(t, "周频需求", demand(7.11))
	assert.Equal(t, "高频需求", demand(3))
	assert.Equal(t, "低频需求", demand(12))
}

func TestIntervalFindingWithoutTopTier(t *testing.T) {
	b := intervalFinding(content.FindingText{Title: "平均使用间隔"}, &analytics.FrequencySummary{
		OverallInterval: 7.11,
		LowMidMin:       7.17,
		LowMidMax:       8.01,
		Intervals:       []analytics.Point{{Label: "使用2天", Value: 7.71}},
	})
	require.NotNil(t, b.Finding)
	top := b.Finding.Card.Points[1]
	assert.Equal(t, "高频用户", top.Label)
	assert.Equal(t, "-", top.Value)
	assert.Equal(t, "(-)", top.Note)
	assert.NotContains(t, top.Note, "每0天")
}

func TestHome(t *testing.T) {
	p := newBuilder(t, nil).Home()

	assert.Equal(t, SlugHome, p.Slug)
	assert.Equal(t, "拍照翻译功能完整分析", p.Title)
	require.Len(t, blocksOf(p.Blocks, KindMetrics), 1)
	assert.Len(t, blocksOf(p.Blocks, KindMetrics)[0].Metrics, 4)
	assert.Len(t, blocksOf(p.Blocks, KindInsight), 2)

	chart := blocksOf(p.Blocks, KindChart)
	require.Len(t, chart, 1)
	svg := string(chart[0].Chart.SVG)
	assert.Contains(t, svg, "标签设计中")
	assert.Contains(t, svg, "综合分析与建议")

	footer := blocksOf(p.Blocks, KindFooter)
	require.Len(t, footer, 1)
	assert.Contains(t, footer[0].Text, "当前进度：15%")
}

func TestFrequency(t *testing.T) {
	tiers, err := dataset.ParseCSV("usage", strings.NewReader(testutil.UsageCSV))
	require.NoError(t, err)
	rows, err := dataset.UsageTiersFromTable(tiers)
	require.NoError(t, err)

	p, err := newBuilder(t, nil).Frequency(rows)
	require.NoError(t, err)

	tables := blocksOf(p.Blocks, KindTable)
	require.Len(t, tables, 1)
	table := tables[0].Table
	assert.Equal(t, analytics.FrequencyColumns, table.Columns)
	require.Len(t, table.Rows, 7)
	assert.Equal(t, []string{"使用1天", "6000", "60.00%", "0%", "0%", "-", "2.32"}, table.Rows[0].Cells)
	last := table.Rows[len(table.Rows)-1]
	assert.Equal(t, "合计", last.Cells[0])
	assert.Equal(t, HighlightTotal, last.Highlight)

	findings := blocksOf(p.Blocks, KindFinding)
	require.Len(t, findings, 4)

	assert.Equal(t, []string{"60%", "38%", "仅2%"}, pointValues(findings[0].Finding.Card))
	assert.Contains(t, string(findings[0].Finding.Chart.SVG), "一次性用户")

	interval := findings[1].Finding
	assert.Equal(t, []string{"7.11天", "3.37天", "7-8天"}, pointValues(interval.Card))
	assert.Equal(t, "(周频需求)", interval.Card.Points[0].Note)
	assert.Equal(t, "(每3天用1次)", interval.Card.Points[1].Note)
	assert.Contains(t, string(interval.Chart.SVG), "整体平均 7.11天")
	assert.Contains(t, string(interval.Chart.SVG), "使用10天+")

	retention := findings[2].Finding
	assert.Equal(t, []string{"11.46%", "11.58%", "≈14%"}, pointValues(retention.Card))
	assert.Equal(t, "(几乎持平)", retention.Card.Points[1].Note)
	assert.Equal(t, "(1/7天)", retention.Card.Points[2].Note)
	assert.NotEmpty(t, retention.Card.Conclusion)

	photos := findings[3].Finding
	assert.Equal(t, []string{"2.32张", "3.38张", "2.3-3.4张"}, pointValues(photos.Card))
	assert.Contains(t, string(photos.Chart.SVG), "2.32张")
	assert.Contains(t, string(photos.Chart.SVG), "<circle")
}

func TestFrequencyWithoutTotals(t *testing.T) {
	rows := []dataset.UsageTier{{AppActivity: "活跃1-7天", Tier: "使用1天"}}
	_, err := newBuilder(t, nil).Frequency(rows)
	assert.ErrorIs(t, err, analytics.ErrNoUsageTotal)
}

func TestPersona(t *testing.T) {
	p, err := newBuilder(t, nil).Persona(loadPersonaData(t))
	require.NoError(t, err)

	infos := blocksOf(p.Blocks, KindInfo)
	require.NotEmpty(t, infos)
	assert.Contains(t, infos[0].Text, "20张")
	assert.Contains(t, infos[0].Text, "工作日 10张 + 周末 10张")

	expanders := blocksOf(p.Blocks, KindExpander)
	require.Len(t, expanders, 2)
	require.Len(t, blocksOf(expanders[0].Children, KindDefinitions), 1)
	assert.Len(t, blocksOf(expanders[1].Children, KindImages), 2)

	findings := blocksOf(p.Blocks, KindFinding)
	require.Len(t, findings, 3)
	assert.Equal(t, "55.0%", findings[0].Finding.Card.Points[0].Value)
	assert.Contains(t, string(findings[0].Finding.Chart.SVG), "55%")
	assert.Contains(t, findings[2].Finding.Card.Points[1].Note, "试卷 50.0%（工作日 10.0%，↑5.0倍）")
	assert.Contains(t, string(findings[2].Finding.Chart.SVG), "↑5.0倍")

	tables := blocksOf(p.Blocks, KindTable)
	require.Len(t, tables, 3)
	dist := tables[0].Table
	assert.Equal(t, analytics.FeedbackColumns, dist.Columns)
	require.Len(t, dist.Rows, 6)
	assert.Equal(t, []string{"翻译质量问题", "8", "36.36%", "🔴 核心痛点"}, dist.Rows[0].Cells)
	assert.Equal(t, HighlightAlert, dist.Rows[0].Highlight)
	assert.True(t, dist.Rows[0].IsStrong(2))
	assert.False(t, dist.Rows[1].IsStrong(2))

	pron := tables[1]
	assert.Equal(t, []string{"反馈日期", "问题类型", "反馈内容", "使用场景"}, pron.Table.Columns)
	assert.Len(t, pron.Table.Rows, 3)
	assert.Equal(t, "全部 3 条反馈详情：", pron.Title)
	assert.Equal(t, "需求类型", tables[2].Table.Columns[1])

	assert.Contains(t, infos[1].Text, "共 3 条反馈，占总反馈的 13.64%")
	assert.Contains(t, infos[2].Text, "共 2 条反馈，占总反馈的 9.09%")

	counts := blocksOf(p.Blocks, KindTypeCounts)
	require.Len(t, counts, 2)
	assert.Equal(t, []analytics.Count{{Key: "发音不准确", Count: 2}, {Key: "朗读不自然", Count: 1}}, counts[0].Counts)

	downloads := blocksOf(p.Blocks, KindDownload)
	require.Len(t, downloads, 2)
	assert.Equal(t, PronunciationDownloadURL, downloads[0].Download.URL)
	assert.Equal(t, "产品建议详细数据.csv", downloads[1].Download.FileName)
}

func TestPersonaErrors(t *testing.T) {
	b := newBuilder(t, nil)

	_, err := b.Persona(PersonaData{})
	assert.ErrorIs(t, err, analytics.ErrNoSamples)

	d := loadPersonaData(t)
	d.Suggestion = nil
	_, err = b.Persona(d)
	assert.ErrorIs(t, err, ErrMissingData)
}

func TestCompetitorsMarksMissingImages(t *testing.T) {
	b := newBuilder(t, func(key string) bool { return key != "youdao-keywords" })
	p := b.Competitors()

	images := blocksOf(p.Blocks, KindImages)
	require.Len(t, images, 2)
	first := images[0].Figures[0]
	assert.Equal(t, ImageURLPrefix+"youdao-keywords", first.URL)
	assert.True(t, first.Missing)
	assert.False(t, images[0].Figures[1].Missing)

	cards := blocksOf(p.Blocks, KindCards)
	require.Len(t, cards, 3)
	assert.Len(t, cards[2].Cards, 3)
	assert.Equal(t, "目标：功能7留率提升至20%", cards[2].Cards[1].Goal)
}

func TestErrorPage(t *testing.T) {
	p := newBuilder(t, nil).ErrorPage(SlugFrequency, errors.New("boom"))

	assert.True(t, p.Failed)
	assert.Equal(t, "使用频次与留存分析", p.Title)
	require.Len(t, p.Blocks, 2)
	assert.Equal(t, KindError, p.Blocks[0].Kind)
	assert.Equal(t, "数据加载失败: boom", p.Blocks[0].Text)
	assert.Equal(t, "请确保数据文件路径正确", p.Blocks[1].Text)
}
