package report

import (
	"ptanalysis/internal/analytics"
	"ptanalysis/internal/charts"
	"ptanalysis/internal/content"
)

// Page slugs.
const (
	SlugHome        = "home"
	SlugFrequency   = "frequency"
	SlugPersona     = "persona"
	SlugCompetitors = "competitors"
)

// Slugs lists every page in navigation order.
var Slugs = []string{SlugHome, SlugFrequency, SlugPersona, SlugCompetitors}

// Kind selects how a block renders.
type Kind string

const (
	KindHeading     Kind = "heading"
	KindNote        Kind = "note"
	KindInfo        Kind = "info"
	KindError       Kind = "error"
	KindMetrics     Kind = "metrics"
	KindCards       Kind = "cards"
	KindTabs        Kind = "tabs"
	KindTable       Kind = "table"
	KindFinding     Kind = "finding"
	KindChart       Kind = "chart"
	KindImages      Kind = "images"
	KindDefinitions Kind = "definitions"
	KindTypeCounts  Kind = "type_counts"
	KindDownload    Kind = "download"
	KindInsight     Kind = "insight"
	KindChecklists  Kind = "checklists"
	KindExpander    Kind = "expander"
	KindDivider     Kind = "divider"
	KindFooter      Kind = "footer"
)

// Page is a fully built dashboard page.
type Page struct {
	Slug   string  `json:"slug"`
	Title  string  `json:"title"`
	Icon   string  `json:"icon"`
	Blocks []Block `json:"blocks"`
	// Failed is set when the page body was replaced by the load error.
	Failed bool `json:"failed,omitempty"`
}

// Block is one section of a page. Only the fields matching Kind are set.
type Block struct {
	Kind  Kind   `json:"kind"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text,omitempty"`
	// Level is the heading depth, 1 to 5.
	Level int `json:"level,omitempty"`

	Metrics     []content.Metric     `json:"metrics,omitempty"`
	Cards       []Card               `json:"cards,omitempty"`
	Tabs        []content.Tab        `json:"tabs,omitempty"`
	Table       *Table               `json:"table,omitempty"`
	Finding     *Finding             `json:"finding,omitempty"`
	Chart       *charts.Chart        `json:"chart,omitempty"`
	Figures     []Figure             `json:"figures,omitempty"`
	Definitions *content.Definitions `json:"definitions,omitempty"`
	Counts      []analytics.Count    `json:"counts,omitempty"`
	Download    *Download            `json:"download,omitempty"`
	Insight     *content.Insight     `json:"insight,omitempty"`
	Checklists  []content.Checklist  `json:"checklists,omitempty"`
	Children    []Block              `json:"children,omitempty"`
}

// Card is a themed text panel.
type Card struct {
	Icon       string          `json:"icon,omitempty"`
	Title      string          `json:"title"`
	Theme      string          `json:"theme,omitempty"`
	Body       string          `json:"body,omitempty"`
	Goal       string          `json:"goal,omitempty"`
	Points     []content.Point `json:"points,omitempty"`
	Conclusion string          `json:"conclusion,omitempty"`
}

// Finding pairs a card with its chart.
type Finding struct {
	Card  Card         `json:"card"`
	Chart charts.Chart `json:"chart"`
}

// Table is a rendered table.
type Table struct {
	Columns []string `json:"columns"`
	Widths  []string `json:"widths,omitempty"`
	Rows    []Row    `json:"rows"`
	// Scroll renders the table in a fixed-height scroll box.
	Scroll bool `json:"scroll,omitempty"`
}

// Row is one table row. Strong lists the indexes of bold cells.
type Row struct {
	Cells     []string `json:"cells"`
	Highlight string   `json:"highlight,omitempty"`
	Strong    []int    `json:"strong,omitempty"`
}

// IsStrong reports whether cell i is bold.
func (r Row) IsStrong(i int) bool {
	for _, s := range r.Strong {
		if s == i {
			return true
		}
	}
	return false
}

// Row highlight styles.
const (
	HighlightTotal = "total"
	HighlightAlert = "alert"
)

// Figure is a captioned image served by key.
type Figure struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Alt     string `json:"alt,omitempty"`
	Label   string `json:"label,omitempty"`
	Feature string `json:"feature,omitempty"`
	// Missing is set when the file is absent; the page shows a placeholder.
	Missing bool `json:"missing,omitempty"`
}

// Download links a CSV export.
type Download struct {
	Label    string `json:"label"`
	URL      string `json:"url"`
	FileName string `json:"file_name"`
}

func heading(level int, text string) Block {
	return Block{Kind: KindHeading, Level: level, Text: text}
}

func note(text string) Block {
	return Block{Kind: KindNote, Text: text}
}

func info(text string) Block {
	return Block{Kind: KindInfo, Text: text}
}
