// Package prompts renders the Korean prompt catalogue sent to the generation
// process.
package prompts

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var catalogueYAML []byte

// Template names in the catalogue.
const (
	NameBootstrap = "bootstrap"
	NameOutline   = "outline"
	NameEpisode   = "episode"
	NameStyle     = "style"
	NameEvents    = "events"
	NameSummary   = "summary"
	NameRevise    = "revise"
)

var required = []string{NameBootstrap, NameOutline, NameEpisode, NameStyle, NameEvents, NameSummary, NameRevise}

// Catalogue holds the parsed templates.
type Catalogue struct {
	templates map[string]*template.Template
}

// Load parses the embedded catalogue.
func Load() (*Catalogue, error) {
	return Parse(catalogueYAML)
}

// Parse builds a Catalogue from YAML mapping template names to bodies. Every
// known template must be present.
func Parse(data []byte) (*Catalogue, error) {
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("prompts: decode catalogue: %w", err)
	}
	c := &Catalogue{templates: make(map[string]*template.Template, len(raw))}
	for _, name := range required {
		body, ok := raw[name]
		if !ok {
			return nil, fmt.Errorf("prompts: template %q missing", name)
		}
		tmpl, err := template.New(name).Option("missingkey=error").Parse(body)
		if err != nil {
			return nil, fmt.Errorf("prompts: parse %s: %w", name, err)
		}
		c.templates[name] = tmpl
	}
	return c, nil
}

func (c *Catalogue) render(name string, data any) (string, error) {
	tmpl, ok := c.templates[name]
	if !ok {
		return "", fmt.Errorf("prompts: template %q not loaded", name)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("prompts: render %s: %w", name, err)
	}
	return strings.TrimSpace(b.String()), nil
}
