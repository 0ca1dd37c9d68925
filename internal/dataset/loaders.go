package dataset

import (
	"fmt"
)

// Usage export columns.
const (
	ColAppActivity  = "app活跃天数分层"
	ColUsageTier    = "翻译使用天数分层"
	ColUV           = "翻译uv"
	ColShare        = "占比"
	ColNextDay      = "平均功能次留率"
	ColSevenDay     = "平均功能七留率"
	ColInterval     = "平均使用间隔(天)(剔除1次的)"
	ColPhotosPerDay = "日人均翻译张数"
)

// Label export columns.
const (
	ColImage          = "image"
	ColGradeLevel     = "grade_level"
	ColContentType    = "content_type"
	ColMaterialSource = "material_source"
)

// Feedback export columns.
const (
	ColLabel           = "label"
	ColFeedbackDate    = "feedback_date"
	ColFeedbackContent = "feedback_content"
	ColScene           = "scene"
)

// UsageTier is one row of the usage-frequency export.
type UsageTier struct {
	AppActivity  string `json:"app_activity"`
	Tier         string `json:"tier"`
	UV           Value  `json:"uv"`
	Share        Value  `json:"share"`
	NextDay      Value  `json:"next_day_retention"`
	SevenDay     Value  `json:"seven_day_retention"`
	Interval     Value  `json:"interval_days"`
	PhotosPerDay Value  `json:"photos_per_day"`
}

// LoadUsageTiers reads the usage-frequency export.
func LoadUsageTiers(path string) ([]UsageTier, error) {
	t, err := ReadCSV(path)
	if err != nil {
		return nil, err
	}
	return UsageTiersFromTable(t)
}

// UsageTiersFromTable converts a parsed usage export.
func UsageTiersFromTable(t *Table) ([]UsageTier, error) {
	if err := t.Require(ColAppActivity, ColUsageTier, ColUV, ColShare, ColNextDay,
		ColSevenDay, ColInterval, ColPhotosPerDay); err != nil {
		return nil, err
	}

	tiers := make([]UsageTier, 0, t.Len())
	for i := range t.Rows {
		tier := UsageTier{
			AppActivity: t.Value(i, ColAppActivity),
			Tier:        t.Value(i, ColUsageTier),
		}
		// only the user count must be numeric; other cells keep their text
		cells := []struct {
			col      string
			percent  bool
			required bool
			dst      *Value
		}{
			{ColUV, false, true, &tier.UV},
			{ColShare, true, false, &tier.Share},
			{ColNextDay, true, false, &tier.NextDay},
			{ColSevenDay, true, false, &tier.SevenDay},
			{ColInterval, false, false, &tier.Interval},
			{ColPhotosPerDay, false, false, &tier.PhotosPerDay},
		}
		for _, c := range cells {
			v, err := parseValue(t.Value(i, c.col), c.percent)
			if err != nil && c.required {
				return nil, fmt.Errorf("%s row %d column %q: %w", t.Name, i+2, c.col, err)
			}
			*c.dst = v
		}
		tiers = append(tiers, tier)
	}
	return tiers, nil
}

// Period tags a labelled image with when it was taken.
type Period string

const (
	Weekday Period = "weekday"
	Weekend Period = "weekend"
)

// ImageLabel is the model-assigned annotation of one user photo.
type ImageLabel struct {
	Image          string `json:"image,omitempty"`
	GradeLevel     string `json:"grade_level"`
	ContentType    string `json:"content_type"`
	MaterialSource string `json:"material_source"`
	Period         Period `json:"period"`
}

// LoadImageLabels reads a label export and tags every record with period.
func LoadImageLabels(path string, period Period) ([]ImageLabel, error) {
	t, err := ReadCSV(path)
	if err != nil {
		return nil, err
	}
	return ImageLabelsFromTable(t, period)
}

// ImageLabelsFromTable converts a parsed label export.
func ImageLabelsFromTable(t *Table, period Period) ([]ImageLabel, error) {
	if err := t.Require(ColGradeLevel, ColContentType, ColMaterialSource); err != nil {
		return nil, err
	}
	labels := make([]ImageLabel, 0, t.Len())
	for i := range t.Rows {
		labels = append(labels, ImageLabel{
			Image:          t.Value(i, ColImage),
			GradeLevel:     t.Value(i, ColGradeLevel),
			ContentType:    t.Value(i, ColContentType),
			MaterialSource: t.Value(i, ColMaterialSource),
			Period:         period,
		})
	}
	return labels, nil
}

// Feedback is one labelled user feedback record.
type Feedback struct {
	Label   string `json:"label"`
	Content string `json:"content,omitempty"`
}

// LoadFeedback reads the labelled feedback export.
func LoadFeedback(path string) ([]Feedback, error) {
	t, err := ReadCSV(path)
	if err != nil {
		return nil, err
	}
	if err := t.Require(ColLabel); err != nil {
		return nil, err
	}
	out := make([]Feedback, 0, t.Len())
	for i := range t.Rows {
		out = append(out, Feedback{
			Label:   t.Value(i, ColLabel),
			Content: t.Value(i, ColFeedbackContent),
		})
	}
	return out, nil
}

// FeedbackDetail is one row of a pronunciation or suggestion detail export.
type FeedbackDetail struct {
	Date    string `json:"date"`
	Label   string `json:"label"`
	Content string `json:"content"`
	Scene   string `json:"scene"`
}

// FeedbackDetails holds a detail export. Table keeps every source column
// since downloads re-serialize the full export.
type FeedbackDetails struct {
	Table   *Table
	Records []FeedbackDetail
}

// LoadFeedbackDetails reads a pronunciation or suggestion detail export.
func LoadFeedbackDetails(path string) (*FeedbackDetails, error) {
	t, err := ReadCSV(path)
	if err != nil {
		return nil, err
	}
	if err := t.Require(ColFeedbackDate, ColLabel, ColFeedbackContent, ColScene); err != nil {
		return nil, err
	}
	d := &FeedbackDetails{Table: t, Records: make([]FeedbackDetail, 0, t.Len())}
	for i := range t.Rows {
		d.Records = append(d.Records, FeedbackDetail{
			Date:    t.Value(i, ColFeedbackDate),
			Label:   t.Value(i, ColLabel),
			Content: t.Value(i, ColFeedbackContent),
			Scene:   t.Value(i, ColScene),
		})
	}
	return d, nil
}

// Labels returns the label column in row order.
func (d *FeedbackDetails) Labels() []string {
	out := make([]string, len(d.Records))
	for i, r := range d.Records {
		out[i] = r.Label
	}
	return out
}
