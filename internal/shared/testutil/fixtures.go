package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"ptanalysis/internal/config"
)

// UTF8BOM is prepended to fixtures exported with utf-8-sig.
const UTF8BOM = "\xEF\xBB\xBF"

// UsageCSV is a usage-tier export: one app-activity block that must be
// filtered out, then the 合计 block the frequency page reads.
const UsageCSV = UTF8BOM + `app活跃天数分层,翻译使用天数分层,翻译uv,占比,平均功能次留率,平均功能七留率,平均使用间隔(天)(剔除1次的),日人均翻译张数
活跃1-7天,合计,4000,40.00%,9.10%,8.20%,7.90,2.40
活跃1-7天,使用1天,3000,75.00%,2.00%,1.50%,,2.30
合计,合计,10000,100.00%,11.46%,11.58%,7.11,2.51
合计,使用1天,6000,60.00%,3.20%,2.90%,,2.32
合计,使用2天,1500,15.00%,5.10%,3.81%,7.71,2.67
合计,使用3天,800,8.00%,8.02%,6.96%,8.01,2.83
合计,使用4-5天,700,7.00%,11.32%,11.04%,7.17,2.92
合计,使用6-10天,800,8.00%,17.77%,18.52%,5.47,3.02
合计,使用10天以上,200,2.00%,34.18%,35.81%,3.37,3.38
`

// WeekdayLabelsCSV holds ten weekday image labels.
const WeekdayLabelsCSV = `image,grade_level,content_type,material_source
wd-01.jpg,grade_7_9,reading_comprehension,workbook
wd-02.jpg,grade_7_9,reading_passage,official_textbook
wd-03.jpg,grade_4_6,grammar_exercise,homework_book
wd-04.jpg,grade_7_9,vocabulary_exercise,workbook
wd-05.jpg,grade_10_12,reading_comprehension,exam_paper
wd-06.jpg,grade_1_3,dialogue_text,official_textbook
wd-07.jpg,grade_7_9,cloze_test,screen_capture
wd-08.jpg,grade_4_6,writing_assignment,workbook
wd-09.jpg,unknown,reading_comprehension,other
wd-10.jpg,grade_7_9,grammar_exercise,official_textbook
`

// WeekendLabelsCSV holds ten weekend image labels, exam heavy.
const WeekendLabelsCSV = `image,grade_level,content_type,material_source
we-01.jpg,grade_7_9,reading_comprehension,exam_paper
we-02.jpg,grade_7_9,cloze_test,exam_paper
we-03.jpg,grade_10_12,reading_comprehension,exam_paper
we-04.jpg,grade_7_9,reading_passage,workbook
we-05.jpg,grade_4_6,vocabulary_exercise,homework_book
we-06.jpg,grade_7_9,writing_assignment,screen_capture
we-07.jpg,grade_7_9,grammar_exercise,exam_paper
we-08.jpg,grade_1_3,dialogue_text,official_textbook
we-09.jpg,grade_4_6,reading_comprehension,workbook
we-10.jpg,grade_7_9,reading_passage,exam_paper
`

// FeedbackCSV holds 22 labelled feedback records.
const FeedbackCSV = `id,label,feedback_content
1,翻译不准确,翻译错了
2,翻译不准确,意思不对
3,翻译不准确,语序混乱
4,翻译不准确,专有名词翻错
5,翻译不准确,漏译
6,翻译不完整,只翻了一半
7,翻译不完整,最后一段没有
8,翻译语言错误,翻成了日语
9,无法分类,？？
10,无法分类,嗯
11,无法分类,123
12,无法分类,好
13,满意表扬,很好用
14,满意表扬,非常方便
15,满意表扬,点赞
16,发音不准确,发音不对
17,发音不准确,读音奇怪
18,朗读不自然,像机器人
19,功能需求,希望能批量翻译
20,历史记录,找不到以前的翻译
21,拍照识别问题,识别不出来
22,拍照识别问题,拍糊了
`

// PronunciationCSV is the pronunciation detail export; user_id is kept
// only in downloads.
const PronunciationCSV = UTF8BOM + `feedback_date,label,feedback_content,scene,user_id
2025-10-03,发音不准确,"单词发音不对, 听起来很奇怪",课文朗读,u1
2025-10-05,朗读不自然,朗读像机器人,阅读理解,u2
2025-10-09,发音不准确,美式发音不准,单词学习,u3
`

// SuggestionCSV is the product-suggestion detail export.
const SuggestionCSV = UTF8BOM + `feedback_date,label,feedback_content,scene,user_id
2025-10-11,功能需求,希望能批量翻译,作业,u4
2025-10-12,历史记录,找不到以前的翻译,复习,u5
`

// WriteFile writes body to dir/name and returns the path.
func WriteFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteDataset writes every fixture export into a fresh temp directory
// under the default file names and returns a data config pointing at it.
func WriteDataset(t *testing.T) config.DataConfig {
	t.Helper()
	dir := t.TempDir()

	WriteFile(t, dir, config.UsageFileName, UsageCSV)
	WriteFile(t, dir, config.WeekdayLabelsFileName, WeekdayLabelsCSV)
	WriteFile(t, dir, config.WeekendLabelsFileName, WeekendLabelsCSV)
	WriteFile(t, dir, config.FeedbackFileName, FeedbackCSV)
	WriteFile(t, dir, config.PronunciationFileName, PronunciationCSV)
	WriteFile(t, dir, config.SuggestionFileName, SuggestionCSV)

	cfg := config.Default().Data
	cfg.Dir = dir
	cfg.ImagesDir = filepath.Join(dir, "images")
	cfg.Watch = false
	return cfg
}

// WriteImage writes a placeholder JPEG under the images directory.
func WriteImage(t *testing.T, imagesDir, name string) string {
	t.Helper()
	return WriteFile(t, imagesDir, name, "\xFF\xD8\xFF\xE0fixture\xFF\xD9")
}
