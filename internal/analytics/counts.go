package analytics

import (
	"sort"
	"strings"
)

// Count is the number of occurrences of one value.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// ValueCounts counts values, ordered by count descending. Ties keep the
// order in which the values first appeared. Blank values are not counted;
// callers still divide by the full record count.
func ValueCounts(values []string) []Count {
	index := make(map[string]int, len(values))
	counts := make([]Count, 0)
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if i, ok := index[v]; ok {
			counts[i].Count++
			continue
		}
		index[v] = len(counts)
		counts = append(counts, Count{Key: v, Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

// Lookup returns the count for key, or 0.
func Lookup(counts []Count, key string) int {
	for _, c := range counts {
		if c.Key == key {
			return c.Count
		}
	}
	return 0
}

// Sum adds the counts of every key in keys.
func Sum(counts []Count, keys ...string) int {
	total := 0
	for _, k := range keys {
		total += Lookup(counts, k)
	}
	return total
}

// Number is any value Percent accepts.
type Number interface {
	~int | ~int64 | ~float64
}

// Percent returns count/total*100, or 0 when total is 0.
func Percent[T Number](count, total T) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

// Share is a counted value with its display label and percentage.
type Share struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

func shares(counts []Count, total int, labels map[string]string) []Share {
	out := make([]Share, 0, len(counts))
	for _, c := range counts {
		label, ok := labels[c.Key]
		if !ok {
			label = c.Key
		}
		out = append(out, Share{
			Key:     c.Key,
			Label:   label,
			Count:   c.Count,
			Percent: Percent(c.Count, total),
		})
	}
	return out
}
