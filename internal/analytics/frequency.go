package analytics

import (
	"errors"
	"math"
	"slices"
	"sort"

	"ptanalysis/internal/dataset"
)

// Usage tier names as exported.
const (
	TotalTier  = "合计"
	OneDayTier = "使用1天"
	TopTier    = "使用10天以上"

	// TopTierShort is how charts label TopTier.
	TopTierShort = "使用10天+"

	keyRowLimit = 8
)

// ErrNoUsageTotal is returned when the export has no 合计 activity block.
var ErrNoUsageTotal = errors.New("usage export has no 合计 rows")

var tierOrder = map[string]int{
	TotalTier:  0,
	OneDayTier: 1,
	"使用2天":     2,
	"使用3天":     3,
	"使用4-5天":   4,
	"使用6-10天":  5,
	TopTier:    6,
}

var midTiers = []string{"使用2天", "使用3天", "使用4-5天", "使用6-10天"}

var lowMidTiers = []string{"使用2天", "使用3天", "使用4-5天"}

// KeyRows returns the rows of the all-users activity block, at most eight.
func KeyRows(tiers []dataset.UsageTier) []dataset.UsageTier {
	out := make([]dataset.UsageTier, 0, keyRowLimit)
	for _, t := range tiers {
		if t.AppActivity != TotalTier {
			continue
		}
		out = append(out, t)
		if len(out) == keyRowLimit {
			break
		}
	}
	return out
}

// SortTiers orders rows by usage tier. Unknown tiers follow the known ones
// in their original order.
func SortTiers(rows []dataset.UsageTier) []dataset.UsageTier {
	out := append([]dataset.UsageTier(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		return tierRank(out[i].Tier) < tierRank(out[j].Tier)
	})
	return out
}

func tierRank(tier string) int {
	if r, ok := tierOrder[tier]; ok {
		return r
	}
	return len(tierOrder)
}

// ChartLabel shortens a tier name for chart axes.
func ChartLabel(tier string) string {
	if tier == TopTier {
		return TopTierShort
	}
	return tier
}

// FrequencyRow is one displayed row of the usage table.
type FrequencyRow struct {
	Tier         string `json:"tier"`
	UV           string `json:"uv"`
	Share        string `json:"share"`
	NextDay      string `json:"next_day_retention"`
	SevenDay     string `json:"seven_day_retention"`
	Interval     string `json:"interval_days"`
	PhotosPerDay string `json:"photos_per_day"`
	Total        bool   `json:"total"`
}

// FrequencyColumns are the headers of the displayed usage table.
var FrequencyColumns = []string{"翻译使用天数分层", "翻译uv", "占比", "平均功能次留率", "平均功能七留率", "平均使用间隔(天)", "日人均翻译张数"}

// FrequencyTable builds the displayed usage table from the key rows: tiers
// in order, one-day retention shown as 0%, every 合计 row last.
func FrequencyTable(key []dataset.UsageTier) []FrequencyRow {
	sorted := SortTiers(key)

	rows := make([]FrequencyRow, 0, len(sorted))
	var totals []FrequencyRow
	for _, t := range sorted {
		row := FrequencyRow{
			Tier:         t.Tier,
			UV:           t.UV.String(),
			Share:        t.Share.String(),
			NextDay:      t.NextDay.String(),
			SevenDay:     t.SevenDay.String(),
			Interval:     t.Interval.String(),
			PhotosPerDay: t.PhotosPerDay.String(),
		}
		if t.Tier == OneDayTier {
			row.NextDay = "0%"
			row.SevenDay = "0%"
		}
		if t.Tier == TotalTier {
			row.Total = true
			totals = append(totals, row)
			continue
		}
		rows = append(rows, row)
	}
	return append(rows, totals...)
}

// FrequencyRecords returns the table as string rows, headers first.
func FrequencyRecords(rows []FrequencyRow) [][]string {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, FrequencyColumns)
	for _, r := range rows {
		out = append(out, []string{r.Tier, r.UV, r.Share, r.NextDay, r.SevenDay, r.Interval, r.PhotosPerDay})
	}
	return out
}

// Point is one labelled value of a chart series.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// FrequencySummary holds everything the frequency page derives from the
// usage export.
type FrequencySummary struct {
	Rows         []FrequencyRow `json:"rows"`
	Distribution []Point        `json:"distribution"`

	OneTimeShare float64 `json:"one_time_share"`
	MidShare     float64 `json:"mid_share"`
	HighShare    float64 `json:"high_share"`

	Intervals       []Point `json:"intervals"`
	OverallInterval float64 `json:"overall_interval"`
	TopInterval     float64 `json:"top_interval"`
	LowMidMin       float64 `json:"low_mid_interval_min"`
	LowMidMax       float64 `json:"low_mid_interval_max"`

	NextDay            []Point `json:"next_day"`
	SevenDay           []Point `json:"seven_day"`
	OverallNextDay     float64 `json:"overall_next_day"`
	OverallSevenDay    float64 `json:"overall_seven_day"`
	TheoreticalNextDay float64 `json:"theoretical_next_day"`

	Photos        []Point `json:"photos"`
	OneTimePhotos float64 `json:"one_time_photos"`
	TopPhotos     float64 `json:"top_photos"`
	MinPhotos     float64 `json:"min_photos"`
	MaxPhotos     float64 `json:"max_photos"`
}

// SummarizeFrequency derives the usage table, the tier distribution and the
// per-tier series.
func SummarizeFrequency(tiers []dataset.UsageTier) (*FrequencySummary, error) {
	key := KeyRows(tiers)
	if len(key) == 0 {
		return nil, ErrNoUsageTotal
	}

	s := &FrequencySummary{Rows: FrequencyTable(key)}

	// distribution follows the export order of rows 2..8
	var sliceTotal float64
	for _, t := range key[1:] {
		if t.Tier == TotalTier || !t.UV.Valid {
			continue
		}
		s.Distribution = append(s.Distribution, Point{Label: t.Tier, Value: t.UV.Num})
		sliceTotal += t.UV.Num
	}

	byTier := make(map[string]dataset.UsageTier, len(key))
	for _, t := range key {
		if _, seen := byTier[t.Tier]; !seen {
			byTier[t.Tier] = t
		}
	}

	for _, p := range s.Distribution {
		switch {
		case p.Label == OneDayTier:
			s.OneTimeShare += Percent(p.Value, sliceTotal)
		case p.Label == TopTier:
			s.HighShare += Percent(p.Value, sliceTotal)
		case slices.Contains(midTiers, p.Label):
			s.MidShare += Percent(p.Value, sliceTotal)
		}
	}

	if total, ok := byTier[TotalTier]; ok {
		s.OverallInterval = total.Interval.Num
		s.OverallNextDay = total.NextDay.Num
		s.OverallSevenDay = total.SevenDay.Num
	}
	if s.OverallInterval > 0 {
		s.TheoreticalNextDay = 100 / s.OverallInterval
	}

	s.LowMidMin = math.Inf(1)
	s.LowMidMax = math.Inf(-1)
	s.MinPhotos = math.Inf(1)
	s.MaxPhotos = math.Inf(-1)

	for _, t := range SortTiers(key) {
		if t.Tier == TotalTier {
			continue
		}
		label := ChartLabel(t.Tier)

		if t.PhotosPerDay.Valid {
			s.Photos = append(s.Photos, Point{Label: label, Value: t.PhotosPerDay.Num})
			s.MinPhotos = math.Min(s.MinPhotos, t.PhotosPerDay.Num)
			s.MaxPhotos = math.Max(s.MaxPhotos, t.PhotosPerDay.Num)
			switch t.Tier {
			case OneDayTier:
				s.OneTimePhotos = t.PhotosPerDay.Num
			case TopTier:
				s.TopPhotos = t.PhotosPerDay.Num
			}
		}

		// one-day users have neither an interval nor retention
		if t.Tier == OneDayTier {
			continue
		}
		if t.Interval.Valid {
			s.Intervals = append(s.Intervals, Point{Label: label, Value: t.Interval.Num})
			if t.Tier == TopTier {
				s.TopInterval = t.Interval.Num
			}
			if slices.Contains(lowMidTiers, t.Tier) {
				s.LowMidMin = math.Min(s.LowMidMin, t.Interval.Num)
				s.LowMidMax = math.Max(s.LowMidMax, t.Interval.Num)
			}
		}
		s.NextDay = append(s.NextDay, Point{Label: label, Value: t.NextDay.Num})
		s.SevenDay = append(s.SevenDay, Point{Label: label, Value: t.SevenDay.Num})
	}

	for _, f := range []*float64{&s.LowMidMin, &s.LowMidMax, &s.MinPhotos, &s.MaxPhotos} {
		if math.IsInf(*f, 0) {
			*f = 0
		}
	}
	return s, nil
}
