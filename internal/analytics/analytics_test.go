package analytics

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptanalysis/internal/config"
	"ptanalysis/internal/dataset"
	"ptanalysis/internal/shared/testutil"
)

func TestValueCountsTiesKeepFirstAppearance(t *testing.T) {
	got := ValueCounts([]string{"b", "a", "c", "a", "b", "d"})
	want := []Count{{"b", 2}, {"a", 2}, {"c", 1}, {"d", 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ValueCounts mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, ValueCounts(nil))
	assert.Equal(t, []Count{{"a", 1}}, ValueCounts([]string{"", " ", "a", "\t"}))
	assert.Equal(t, 4, Sum(got, "a", "b", "zzz"))
}

func TestPercent(t *testing.T) {
	assert.InDelta(t, 25.0, Percent(1, 4), 1e-9)
	assert.InDelta(t, 60.0, Percent(6000.0, 10000.0), 1e-9)
	assert.Equal(t, 0.0, Percent(3, 0))
}

func loadTiers(t *testing.T) []dataset.UsageTier {
	t.Helper()
	cfg := testutil.WriteDataset(t)
	tiers, err := dataset.LoadUsageTiers(filepath.Join(cfg.Dir, config.UsageFileName))
	require.NoError(t, err)
	return tiers
}

func TestKeyRowsFiltersActivityBlock(t *testing.T) {
	key := KeyRows(loadTiers(t))
	require.Len(t, key, 7)
	for _, k := range key {
		assert.Equal(t, TotalTier, k.AppActivity)
	}
	assert.Equal(t, TotalTier, key[0].Tier)
}

func TestKeyRowsCapsAtEight(t *testing.T) {
	rows := make([]dataset.UsageTier, 12)
	for i := range rows {
		rows[i] = dataset.UsageTier{AppActivity: TotalTier, Tier: "x"}
	}
	assert.Len(t, KeyRows(rows), 8)
}

func TestFrequencyTableOrdering(t *testing.T) {
	rows := FrequencyTable([]dataset.UsageTier{
		{AppActivity: TotalTier, Tier: TopTier},
		{AppActivity: TotalTier, Tier: "新分层"},
		{AppActivity: TotalTier, Tier: TotalTier},
		{AppActivity: TotalTier, Tier: "使用2天"},
		{AppActivity: TotalTier, Tier: OneDayTier},
	})

	var tiers []string
	for _, r := range rows {
		tiers = append(tiers, r.Tier)
	}
	assert.Equal(t, []string{OneDayTier, "使用2天", TopTier, "新分层", TotalTier}, tiers)
	assert.Equal(t, "0%", rows[0].NextDay)
	assert.Equal(t, "0%", rows[0].SevenDay)
	assert.True(t, rows[4].Total)
	assert.Equal(t, "-", rows[1].Interval)
}

func TestFrequencyTableMovesEveryTotalLast(t *testing.T) {
	rows := FrequencyTable([]dataset.UsageTier{
		{AppActivity: TotalTier, Tier: TotalTier, UV: dataset.Value{Raw: "10000", Num: 10000, Valid: true}},
		{AppActivity: TotalTier, Tier: OneDayTier},
		{AppActivity: TotalTier, Tier: TotalTier, UV: dataset.Value{Raw: "9000", Num: 9000, Valid: true}},
	})

	require.Len(t, rows, 3)
	assert.Equal(t, OneDayTier, rows[0].Tier)
	assert.False(t, rows[0].Total)
	for i, uv := range []string{"10000", "9000"} {
		assert.Equal(t, TotalTier, rows[i+1].Tier)
		assert.True(t, rows[i+1].Total)
		assert.Equal(t, uv, rows[i+1].UV)
	}
}

func TestFrequencyTableShowsUnparsedText(t *testing.T) {
	rows := FrequencyTable([]dataset.UsageTier{
		{AppActivity: TotalTier, Tier: "使用2天", Interval: dataset.Value{Raw: "#DIV/0!"}},
	})
	require.Len(t, rows, 1)
	assert.Equal(t, "#DIV/0!", rows[0].Interval)
	assert.Equal(t, "-", rows[0].SevenDay)
}

func TestSummarizeFrequency(t *testing.T) {
	s, err := SummarizeFrequency(loadTiers(t))
	require.NoError(t, err)

	require.Len(t, s.Rows, 7)
	assert.Equal(t, OneDayTier, s.Rows[0].Tier)
	assert.Equal(t, "0%", s.Rows[0].NextDay)
	assert.Equal(t, "10000", s.Rows[6].UV)
	assert.Equal(t, "7.11", s.Rows[6].Interval)

	require.Len(t, s.Distribution, 6)
	assert.Equal(t, OneDayTier, s.Distribution[0].Label)
	assert.InDelta(t, 60, s.OneTimeShare, 1e-9)
	assert.InDelta(t, 38, s.MidShare, 1e-9)
	assert.InDelta(t, 2, s.HighShare, 1e-9)

	wantIntervals := []Point{{"使用2天", 7.71}, {"使用3天", 8.01}, {"使用4-5天", 7.17}, {"使用6-10天", 5.47}, {TopTierShort, 3.37}}
	if diff := cmp.Diff(wantIntervals, s.Intervals); diff != "" {
		t.Errorf("intervals mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 7.11, s.OverallInterval, 1e-9)
	assert.InDelta(t, 3.37, s.TopInterval, 1e-9)
	assert.InDelta(t, 7.17, s.LowMidMin, 1e-9)
	assert.InDelta(t, 8.01, s.LowMidMax, 1e-9)

	require.Len(t, s.NextDay, 5)
	assert.InDelta(t, 34.18, s.NextDay[4].Value, 1e-9)
	assert.InDelta(t, 35.81, s.SevenDay[4].Value, 1e-9)
	assert.InDelta(t, 11.46, s.OverallNextDay, 1e-9)
	assert.InDelta(t, 11.58, s.OverallSevenDay, 1e-9)
	assert.InDelta(t, 14.06, s.TheoreticalNextDay, 0.01)

	require.Len(t, s.Photos, 6)
	assert.Equal(t, OneDayTier, s.Photos[0].Label)
	assert.InDelta(t, 2.32, s.OneTimePhotos, 1e-9)
	assert.InDelta(t, 3.38, s.TopPhotos, 1e-9)
	assert.InDelta(t, 2.32, s.MinPhotos, 1e-9)
	assert.InDelta(t, 3.38, s.MaxPhotos, 1e-9)
}

func TestSummarizeFrequencyWithoutTotals(t *testing.T) {
	_, err := SummarizeFrequency([]dataset.UsageTier{{AppActivity: "活跃1-7天", Tier: TotalTier}})
	assert.ErrorIs(t, err, ErrNoUsageTotal)
}

func loadLabels(t *testing.T) ([]dataset.ImageLabel, []dataset.ImageLabel) {
	t.Helper()
	cfg := testutil.WriteDataset(t)
	wd, err := dataset.LoadImageLabels(filepath.Join(cfg.Dir, config.WeekdayLabelsFileName), dataset.Weekday)
	require.NoError(t, err)
	we, err := dataset.LoadImageLabels(filepath.Join(cfg.Dir, config.WeekendLabelsFileName), dataset.Weekend)
	require.NoError(t, err)
	return wd, we
}

func TestSummarizePersona(t *testing.T) {
	s, err := SummarizePersona(loadLabels(t))
	require.NoError(t, err)

	assert.Equal(t, 20, s.Total)
	assert.Equal(t, 10, s.WeekdayTotal)

	require.Len(t, s.Grades, 5)
	assert.Equal(t, Grade7to9, s.Grades[0].Key)
	assert.Equal(t, "初中生（7-9年级）", s.Grades[0].Label)
	assert.Equal(t, 11, s.Grades[0].Count)
	assert.InDelta(t, 55, s.Grades[0].Percent, 1e-9)
	assert.Equal(t, "未知", s.Grades[4].Label)
	assert.InDelta(t, 20, s.GradePercent[Grade4to6], 1e-9)
	assert.InDelta(t, 10, s.GradePercent[Grade1to3], 1e-9)

	var content []string
	for _, c := range s.Content {
		content = append(content, c.Label)
	}
	assert.Equal(t, []string{"阅读理解", "阅读文章", "语法练习", "词汇练习", "对话文本", "完形填空"}, content)
	assert.InDelta(t, 30, s.Content[0].Percent, 1e-9)
	assert.InDelta(t, 10, s.ContentPercent["writing_assignment"], 1e-9)

	want := []MaterialComparison{
		{MaterialPractice, 40, 30},
		{MaterialTextbook, 30, 10},
		{MaterialExam, 10, 50},
		{MaterialScreen, 10, 10},
	}
	if diff := cmp.Diff(want, s.Materials, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("materials mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 10, s.WeekdayWriting, 1e-9)
	assert.InDelta(t, 10, s.WeekendWriting, 1e-9)
	assert.InDelta(t, 5, s.ExamMultiplier, 1e-9)
}

func TestSummarizePersonaEdgeCases(t *testing.T) {
	_, err := SummarizePersona(nil, nil)
	assert.ErrorIs(t, err, ErrNoSamples)

	s, err := SummarizePersona(nil, []dataset.ImageLabel{{GradeLevel: Grade7to9, MaterialSource: "exam_paper", Period: dataset.Weekend}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.ExamMultiplier)
	assert.Equal(t, 0.0, s.Material(MaterialExam).Weekday)
	assert.InDelta(t, 100, s.Material(MaterialExam).Weekend, 1e-9)
}

func TestSummarizePersonaSkipsBlankLabels(t *testing.T) {
	weekday := []dataset.ImageLabel{
		{GradeLevel: " ", ContentType: "", MaterialSource: "", Period: dataset.Weekday},
		{GradeLevel: "", ContentType: "  ", MaterialSource: "", Period: dataset.Weekday},
		{GradeLevel: Grade7to9, ContentType: "reading_comprehension", MaterialSource: "exam_paper", Period: dataset.Weekday},
	}
	s, err := SummarizePersona(weekday, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, s.Total)
	require.Len(t, s.Grades, 1)
	assert.Equal(t, Grade7to9, s.Grades[0].Key)
	assert.InDelta(t, 100.0/3, s.Grades[0].Percent, 1e-9)
	require.Len(t, s.Content, 1)
	assert.Equal(t, "reading_comprehension", s.Content[0].Key)
	assert.InDelta(t, 100.0/3, s.Content[0].Percent, 1e-9)
	for _, g := range s.Grades {
		assert.NotEmpty(t, strings.TrimSpace(g.Key))
	}
	assert.InDelta(t, 100.0/3, s.Material(MaterialExam).Weekday, 1e-9)
}

func TestSummarizeFeedback(t *testing.T) {
	cfg := testutil.WriteDataset(t)
	fb, err := dataset.LoadFeedback(filepath.Join(cfg.Dir, config.FeedbackFileName))
	require.NoError(t, err)

	s := SummarizeFeedback(fb)
	assert.Equal(t, 22, s.Total)

	tests := []struct {
		name  string
		count int
		pct   float64
	}{
		{GroupQuality, 8, 36.36},
		{GroupUnclassified, 4, 18.18},
		{GroupSatisfied, 3, 13.64},
		{GroupPronunciation, 3, 13.64},
		{GroupSuggestion, 2, 9.09},
		{GroupOther, 2, 9.09},
	}
	require.Len(t, s.Groups, len(tests))
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := s.Groups[i]
			assert.Equal(t, tt.name, g.Name)
			assert.Equal(t, tt.count, g.Count)
			assert.InDelta(t, tt.pct, g.Percent, 0.005)
		})
	}
	quality, ok := s.Group(GroupQuality)
	require.True(t, ok)
	assert.True(t, quality.Highlight)
}

func TestSummarizeFeedbackEmpty(t *testing.T) {
	s := SummarizeFeedback(nil)
	for _, g := range s.Groups {
		assert.Zero(t, g.Count)
		assert.Zero(t, g.Percent)
	}
}

func TestSummarizeDetails(t *testing.T) {
	cfg := testutil.WriteDataset(t)
	d, err := dataset.LoadFeedbackDetails(filepath.Join(cfg.Dir, config.PronunciationFileName))
	require.NoError(t, err)

	s := SummarizeDetails(d, 22)
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 13.636, s.Percent, 0.001)
	assert.Equal(t, []Count{{"发音不准确", 2}, {"朗读不自然", 1}}, s.Types)
}
