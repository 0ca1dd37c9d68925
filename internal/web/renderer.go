package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"ptanalysis/internal/content"
	"ptanalysis/internal/report"
)

// StaticPrefix is where the stylesheet and scripts are served.
const StaticPrefix = "/static/"

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const defaultTheme = "slate"

var themes = map[string]bool{
	"slate":  true,
	"green":  true,
	"orange": true,
	"purple": true,
	"amber":  true,
	"indigo": true,
	"violet": true,
}

// NavLink is a sidebar entry.
type NavLink struct {
	content.NavItem
	URL    string
	Active bool
}

// View is everything the layout template renders.
type View struct {
	Site       content.Site
	Nav        []NavLink
	Page       *report.Page
	Version    string
	LiveReload bool
}

// Renderer turns page models into HTML documents.
type Renderer struct {
	tmpl       *template.Template
	site       content.Site
	version    string
	liveReload bool
}

// New parses the embedded templates. With liveReload set every page
// reconnects to /ws and reloads when its data changes.
func New(c *content.Content, version string, liveReload bool) (*Renderer, error) {
	funcs := template.FuncMap{
		"theme": func(name string) string {
			if !themes[name] {
				name = defaultTheme
			}
			return "theme-" + name
		},
		"width": func(widths []string, i int) string {
			if i < len(widths) {
				return widths[i]
			}
			return ""
		},
		"missingImage": func() string { return c.Site.ImageMissing },
	}
	tmpl, err := template.New("dashboard").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, site: c.Site, version: version, liveReload: liveReload}, nil
}

// PageURL is the HTML route of a page.
func PageURL(slug string) string {
	if slug == report.SlugHome {
		return "/"
	}
	return "/pages/" + slug
}

// View wraps page with the site chrome.
func (r *Renderer) View(page *report.Page) View {
	nav := make([]NavLink, len(r.site.Pages))
	for i, item := range r.site.Pages {
		nav[i] = NavLink{NavItem: item, URL: PageURL(item.Slug), Active: item.Slug == page.Slug}
	}
	return View{
		Site:       r.site,
		Nav:        nav,
		Page:       page,
		Version:    r.version,
		LiveReload: r.liveReload,
	}
}

// Render writes the full HTML document for page. Output may be partial
// when it fails.
func (r *Renderer) Render(w io.Writer, page *report.Page) error {
	if err := r.tmpl.ExecuteTemplate(w, "layout", r.View(page)); err != nil {
		return fmt.Errorf("failed to render page %s: %w", page.Slug, err)
	}
	return nil
}

// Static serves the embedded assets under StaticPrefix.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix(StaticPrefix, http.FileServer(http.FS(sub)))
}
