package report

import (
	"errors"

	"ptanalysis/internal/charts"
	"ptanalysis/internal/content"
)

// ErrMissingData is returned when a builder is handed an incomplete dataset.
var ErrMissingData = errors.New("page data not loaded")

// ImageURLPrefix is where registered images are served.
const ImageURLPrefix = "/images/"

// ImageChecker reports whether the file behind a registered image key
// exists.
type ImageChecker func(key string) bool

// Builder turns content and loaded data into pages.
type Builder struct {
	content *content.Content
	exists  ImageChecker
}

// NewBuilder creates a Builder. A nil checker treats every image as present.
func NewBuilder(c *content.Content, exists ImageChecker) *Builder {
	if exists == nil {
		exists = func(string) bool { return true }
	}
	return &Builder{content: c, exists: exists}
}

// Content returns the prose the builder renders.
func (b *Builder) Content() *content.Content {
	return b.content
}

func (b *Builder) page(slug string) *Page {
	p := &Page{Slug: slug, Title: slug}
	if nav, ok := b.content.PageInfo(slug); ok {
		p.Title = nav.Title
		p.Icon = nav.Icon
	}
	return p
}

// ErrorPage replaces the body of a page whose data could not be loaded.
func (b *Builder) ErrorPage(slug string, cause error) *Page {
	p := b.page(slug)
	p.Failed = true
	msg := b.content.Site.LoadError
	if cause != nil {
		msg += ": " + cause.Error()
	}
	p.Blocks = []Block{
		{Kind: KindError, Text: msg},
		info(b.content.Site.LoadHint),
	}
	return p
}

func (b *Builder) figure(ex content.Example) Figure {
	f := Figure{
		Title:   ex.Title,
		URL:     ImageURLPrefix + ex.Image,
		Label:   ex.Label,
		Feature: ex.Feature,
		Missing: !b.exists(ex.Image),
	}
	if img, ok := b.content.Image(ex.Image); ok {
		f.Alt = img.Alt
	}
	return f
}

func (b *Builder) figures(examples []content.Example) []Figure {
	out := make([]Figure, len(examples))
	for i, ex := range examples {
		out[i] = b.figure(ex)
	}
	return out
}

func findingCard(t content.FindingText, points ...content.Point) Card {
	return Card{
		Icon:       t.Icon,
		Title:      t.Title,
		Theme:      t.Theme,
		Points:     points,
		Conclusion: t.Conclusion,
	}
}

func finding(card Card, chart charts.Chart) Block {
	return Block{Kind: KindFinding, Finding: &Finding{Card: card, Chart: chart}}
}

// Home builds the landing page. It reads no data files.
func (b *Builder) Home() *Page {
	h := b.content.Home
	p := b.page(SlugHome)

	questions := make([]Card, len(h.Questions))
	for i, q := range h.Questions {
		questions[i] = Card{Icon: q.Icon, Title: q.Title, Body: q.Body}
	}

	modules := make([]string, len(h.Progress))
	percents := make([]float64, len(h.Progress))
	statuses := make([]string, len(h.Progress))
	for i, pr := range h.Progress {
		modules[i], percents[i], statuses[i] = pr.Module, pr.Percent, pr.Status
	}
	progress := charts.HBars(charts.HBarSpec{
		Title:       h.ProgressChart,
		Labels:      modules,
		Values:      percents,
		FromColor:   "#c6dbef",
		ToColor:     "#08519c",
		XTitle:      "完成度",
		XMax:        100,
		Annotations: statuses,
		LabelWidth:  140,
		Height:      400,
	})

	p.Blocks = append(p.Blocks,
		heading(1, p.Icon+" "+h.Title),
		note(h.Subtitle),
		Block{Kind: KindMetrics, Metrics: h.Metrics},
		heading(3, h.QuestionsTitle),
		Block{Kind: KindCards, Cards: questions},
		heading(3, h.FrameworkTitle),
		Block{Kind: KindTabs, Tabs: h.Framework},
		heading(3, h.ProgressTitle),
		Block{Kind: KindChart, Title: h.ProgressChart, Chart: &progress},
		heading(3, h.InsightsTitle),
	)
	for i := range h.Insights {
		p.Blocks = append(p.Blocks, Block{Kind: KindInsight, Insight: &h.Insights[i]})
	}
	p.Blocks = append(p.Blocks,
		heading(3, h.ActionsTitle),
		Block{Kind: KindChecklists, Checklists: h.Checklists},
		Block{Kind: KindDivider},
		Block{Kind: KindFooter, Text: h.Footer},
	)
	return p
}

// Competitors builds the competitor research page. It reads no data files.
func (b *Builder) Competitors() *Page {
	c := b.content.Competitors
	p := b.page(SlugCompetitors)

	p.Blocks = append(p.Blocks,
		heading(4, c.Heading),
		note(c.Intro),
		Block{Kind: KindDivider},
		heading(4, c.FindingsTitle),
	)
	for _, f := range c.Findings {
		p.Blocks = append(p.Blocks,
			heading(5, f.Title),
			Block{Kind: KindCards, Cards: []Card{{
				Icon:   f.Icon,
				Title:  f.Headline,
				Theme:  f.Theme,
				Points: f.Points,
			}}},
			Block{Kind: KindImages, Title: f.CasesTitle, Figures: b.figures(f.Cases)},
		)
	}

	plans := make([]Card, len(c.Plans))
	for i, pl := range c.Plans {
		plans[i] = Card{Icon: pl.Icon, Title: pl.Title, Theme: pl.Theme, Goal: pl.Goal, Points: pl.Points}
	}
	p.Blocks = append(p.Blocks,
		heading(4, c.PlansTitle),
		Block{Kind: KindCards, Cards: plans},
	)
	return p
}
