package content

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

// ErrUnknownImage is returned when prose references an image key that is
// not registered in images.yaml.
var ErrUnknownImage = errors.New("unknown image")

//go:embed *.yaml
var embeddedFS embed.FS

// Content is every piece of static prose shown by the dashboard.
type Content struct {
	Site        Site
	Home        Home
	Frequency   Frequency
	Persona     Persona
	Competitors Competitors
	Images      map[string]Image `validate:"required,dive"`
}

// LoadEmbedded parses the YAML files compiled into the binary.
func LoadEmbedded() (*Content, error) {
	return LoadFromFS(embeddedFS)
}

// LoadFromFS parses site.yaml, home.yaml, frequency.yaml, persona.yaml,
// competitors.yaml and images.yaml from fsys. Unknown keys are rejected.
func LoadFromFS(fsys fs.FS) (*Content, error) {
	c := &Content{}
	files := []struct {
		name string
		into any
	}{
		{"site.yaml", &c.Site},
		{"home.yaml", &c.Home},
		{"frequency.yaml", &c.Frequency},
		{"persona.yaml", &c.Persona},
		{"competitors.yaml", &c.Competitors},
		{"images.yaml", &c.Images},
	}
	for _, f := range files {
		data, err := fs.ReadFile(fsys, f.name)
		if err != nil {
			return nil, fmt.Errorf("read content %s: %w", f.name, err)
		}
		if err := yaml.UnmarshalStrict(data, f.into); err != nil {
			return nil, fmt.Errorf("parse content %s: %w", f.name, err)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks required fields and that every referenced image key is
// registered.
func (c *Content) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("content validation failed: %w", err)
	}
	var missing []string
	for _, key := range c.ImageKeys() {
		if _, ok := c.Images[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownImage, strings.Join(missing, ", "))
	}
	return nil
}

// ImageKeys returns the distinct image keys referenced by the prose, sorted.
func (c *Content) ImageKeys() []string {
	seen := make(map[string]bool)
	for _, g := range c.Persona.Examples.Groups {
		for _, ex := range g.Items {
			seen[ex.Image] = true
		}
	}
	for _, f := range c.Competitors.Findings {
		for _, ex := range f.Cases {
			seen[ex.Image] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Image looks up a registered image.
func (c *Content) Image(key string) (Image, bool) {
	img, ok := c.Images[key]
	return img, ok
}

// PageInfo returns the navigation entry for slug.
func (c *Content) PageInfo(slug string) (NavItem, bool) {
	for _, p := range c.Site.Pages {
		if p.Slug == slug {
			return p, true
		}
	}
	return NavItem{}, false
}
