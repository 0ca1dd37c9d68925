package content

// Site holds navigation and shared messages.
type Site struct {
	Name         string    `yaml:"name" validate:"required"`
	Icon         string    `yaml:"icon"`
	LoadError    string    `yaml:"load_error" validate:"required"`
	LoadHint     string    `yaml:"load_hint" validate:"required"`
	ImageMissing string    `yaml:"image_missing" validate:"required"`
	Pages        []NavItem `yaml:"pages" validate:"min=1,dive"`
}

// NavItem is one page in the sidebar.
type NavItem struct {
	Slug  string `yaml:"slug" json:"slug" validate:"required"`
	Title string `yaml:"title" json:"title" validate:"required"`
	Icon  string `yaml:"icon" json:"icon"`
}

// Point is one line of a card: "Label：Value Note". Any part may be empty.
type Point struct {
	Label string `yaml:"label" json:"label,omitempty"`
	Value string `yaml:"value" json:"value,omitempty"`
	Note  string `yaml:"note" json:"note,omitempty"`
}

// Image is a registered example or competitor screenshot.
type Image struct {
	File string `yaml:"file" validate:"required"`
	Alt  string `yaml:"alt"`
}

// Example is a captioned image.
type Example struct {
	Title   string `yaml:"title" validate:"required"`
	Image   string `yaml:"image" validate:"required"`
	Label   string `yaml:"label"`
	Feature string `yaml:"feature"`
}

// FindingText is the static part of a finding card; numbers come from data.
type FindingText struct {
	Icon       string `yaml:"icon"`
	Title      string `yaml:"title" validate:"required"`
	Theme      string `yaml:"theme" validate:"required"`
	Center     string `yaml:"center"`
	XTitle     string `yaml:"x_title"`
	YTitle     string `yaml:"y_title"`
	Conclusion string `yaml:"conclusion"`
}

// Home is the landing page.
type Home struct {
	Title          string      `yaml:"title" validate:"required"`
	Subtitle       string      `yaml:"subtitle"`
	Metrics        []Metric    `yaml:"metrics" validate:"dive"`
	QuestionsTitle string      `yaml:"questions_title"`
	Questions      []Question  `yaml:"questions" validate:"dive"`
	FrameworkTitle string      `yaml:"framework_title"`
	Framework      []Tab       `yaml:"framework" validate:"dive"`
	ProgressTitle  string      `yaml:"progress_title"`
	ProgressChart  string      `yaml:"progress_chart"`
	Progress       []Progress  `yaml:"progress" validate:"dive"`
	InsightsTitle  string      `yaml:"insights_title"`
	Insights       []Insight   `yaml:"insights" validate:"dive"`
	ActionsTitle   string      `yaml:"actions_title"`
	Checklists     []Checklist `yaml:"checklists" validate:"dive"`
	Footer         string      `yaml:"footer"`
}

// Metric is a headline number with an optional delta caption.
type Metric struct {
	Label    string `yaml:"label" json:"label" validate:"required"`
	Value    string `yaml:"value" json:"value" validate:"required"`
	Delta    string `yaml:"delta" json:"delta,omitempty"`
	DeltaOff bool   `yaml:"delta_off" json:"delta_off,omitempty"`
}

// Question is one of the home page question cards.
type Question struct {
	Icon  string `yaml:"icon"`
	Title string `yaml:"title" validate:"required"`
	Body  string `yaml:"body"`
}

// Tab groups framework sections.
type Tab struct {
	Title    string    `yaml:"title" validate:"required"`
	Heading  string    `yaml:"heading"`
	Sections []Section `yaml:"sections" validate:"dive"`
}

// Section is one planned analysis with its status.
type Section struct {
	Title   string   `yaml:"title" validate:"required"`
	Status  string   `yaml:"status"`
	Bullets []string `yaml:"bullets"`
	Meta    []Point  `yaml:"meta"`
}

// Progress is one module on the progress chart.
type Progress struct {
	Module  string  `yaml:"module" validate:"required"`
	Percent float64 `yaml:"percent" validate:"gte=0,lte=100"`
	Status  string  `yaml:"status"`
}

// Insight is a highlighted box; Kind is "insight" or "warning".
type Insight struct {
	Kind   string  `yaml:"kind" validate:"oneof=insight warning"`
	Title  string  `yaml:"title" validate:"required"`
	Points []Point `yaml:"points"`
}

// Checklist is an unchecked task list.
type Checklist struct {
	Title string   `yaml:"title" validate:"required"`
	Items []string `yaml:"items"`
}

// ScopeNote is a heading followed by plain lines.
type ScopeNote struct {
	Heading string   `yaml:"heading" validate:"required"`
	Lines   []string `yaml:"lines"`
}

// Frequency is the usage frequency & retention page.
type Frequency struct {
	TableTitle    string            `yaml:"table_title" validate:"required"`
	Scope         []ScopeNote       `yaml:"scope" validate:"dive"`
	FindingsTitle string            `yaml:"findings_title"`
	Findings      FrequencyFindings `yaml:"findings"`
}

// FrequencyFindings are the four finding cards of the frequency page.
type FrequencyFindings struct {
	Distribution FindingText `yaml:"distribution"`
	Interval     FindingText `yaml:"interval"`
	Retention    FindingText `yaml:"retention"`
	Photos       FindingText `yaml:"photos"`
}

// Persona is the user persona & feedback page.
type Persona struct {
	Heading       string          `yaml:"heading" validate:"required"`
	SourceNote    string          `yaml:"source_note" validate:"required"`
	Definitions   Definitions     `yaml:"definitions"`
	Examples      Examples        `yaml:"examples"`
	FindingsTitle string          `yaml:"findings_title"`
	Findings      PersonaFindings `yaml:"findings"`
	Feedback      FeedbackText    `yaml:"feedback"`
}

// Definitions is the collapsible label-standard reference.
type Definitions struct {
	Title      string      `yaml:"title" validate:"required"`
	Intro      string      `yaml:"intro"`
	Dimensions []Dimension `yaml:"dimensions" validate:"dive"`
}

// Dimension is one labelled table of the label standard.
type Dimension struct {
	Title   string     `yaml:"title" validate:"required"`
	Columns []string   `yaml:"columns" validate:"min=1"`
	Rows    [][]string `yaml:"rows"`
	Notes   []string   `yaml:"notes"`
}

// Examples is the collapsible gallery of typical images.
type Examples struct {
	Title  string         `yaml:"title" validate:"required"`
	Groups []ExampleGroup `yaml:"groups" validate:"dive"`
}

// ExampleGroup is a titled set of examples.
type ExampleGroup struct {
	Title string    `yaml:"title" validate:"required"`
	Items []Example `yaml:"items" validate:"dive"`
}

// PersonaFindings are the three finding cards of the persona page.
type PersonaFindings struct {
	Grades    FindingText `yaml:"grades"`
	Content   FindingText `yaml:"content"`
	Materials FindingText `yaml:"materials"`
}

// FeedbackText labels the feedback section.
type FeedbackText struct {
	Heading       string     `yaml:"heading" validate:"required"`
	TableTitle    string     `yaml:"table_title" validate:"required"`
	Pronunciation DetailText `yaml:"pronunciation"`
	Suggestion    DetailText `yaml:"suggestion"`
}

// DetailText labels one feedback detail table and its download.
type DetailText struct {
	Title         string `yaml:"title" validate:"required"`
	TypesHeading  string `yaml:"types_heading"`
	LabelColumn   string `yaml:"label_column" validate:"required"`
	DownloadLabel string `yaml:"download_label" validate:"required"`
	FileName      string `yaml:"file_name" validate:"required"`
}

// Competitors is the competitor research page.
type Competitors struct {
	Heading       string              `yaml:"heading" validate:"required"`
	Intro         string              `yaml:"intro"`
	FindingsTitle string              `yaml:"findings_title"`
	Findings      []CompetitorFinding `yaml:"findings" validate:"dive"`
	PlansTitle    string              `yaml:"plans_title"`
	Plans         []Plan              `yaml:"plans" validate:"dive"`
}

// CompetitorFinding is a trend card followed by example screenshots.
type CompetitorFinding struct {
	Title      string    `yaml:"title" validate:"required"`
	Icon       string    `yaml:"icon"`
	Theme      string    `yaml:"theme" validate:"required"`
	Headline   string    `yaml:"headline"`
	Points     []Point   `yaml:"points"`
	CasesTitle string    `yaml:"cases_title"`
	Cases      []Example `yaml:"cases" validate:"dive"`
}

// Plan is one next-quarter direction card.
type Plan struct {
	Title  string  `yaml:"title" validate:"required"`
	Icon   string  `yaml:"icon"`
	Theme  string  `yaml:"theme" validate:"required"`
	Goal   string  `yaml:"goal"`
	Points []Point `yaml:"points"`
}
