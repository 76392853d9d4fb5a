// Package prompt loads and renders the hazard-extraction prompt.
//
// The prompt is kept as a versioned YAML artifact rather than a string in
// code so that wording, schema and banding rules can be reviewed, versioned
// and tested without touching the provider clients.
package prompt

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed hazard_extraction.yaml
var defaultTemplate []byte

// Template is a parsed hazard-extraction prompt.
type Template struct {
	Version     string   `yaml:"version"`
	Role        string   `yaml:"role"`
	Task        string   `yaml:"task"`
	OutputRules []string `yaml:"output_rules"`
	Fields      []string `yaml:"fields"`
	Schema      string   `yaml:"schema"`
	Rules       []string `yaml:"rules"`
	Body        string   `yaml:"template"`

	tmpl *template.Template
}

// renderData is the value passed to the text template.
type renderData struct {
	Role        string
	Task        string
	Transcript  string
	OutputRules []string
	Schema      string
	Rules       []string
}

// Default returns the embedded hazard-extraction prompt.
func Default() (*Template, error) {
	return Parse(defaultTemplate)
}

// Load reads a prompt file from disk. An empty path returns the default prompt.
func Load(path string) (*Template, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML prompt definition.
func Parse(data []byte) (*Template, error) {
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode prompt yaml: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}

	tmpl, err := template.New(t.Version).Option("missingkey=error").Parse(t.Body)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", t.Version, err)
	}
	t.tmpl = tmpl

	return &t, nil
}

// validate checks that the definition is complete and that every declared
// output field is described in the schema block.
func (t *Template) validate() error {
	if t.Version == "" {
		return fmt.Errorf("prompt version is required")
	}
	if strings.TrimSpace(t.Body) == "" {
		return fmt.Errorf("prompt %s: template is required", t.Version)
	}
	if len(t.Fields) == 0 {
		return fmt.Errorf("prompt %s: at least one output field is required", t.Version)
	}
	for _, f := range t.Fields {
		if !strings.Contains(t.Schema, fmt.Sprintf("%q", f)) {
			return fmt.Errorf("prompt %s: schema does not describe field %q", t.Version, f)
		}
	}
	return nil
}

// Render builds the prompt for a transcript. The transcript is embedded
// verbatim; rendering the same transcript twice yields identical text.
func (t *Template) Render(transcript string) (string, error) {
	var buf bytes.Buffer
	err := t.tmpl.Execute(&buf, renderData{
		Role:        t.Role,
		Task:        t.Task,
		Transcript:  transcript,
		OutputRules: t.OutputRules,
		Schema:      t.Schema,
		Rules:       t.Rules,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt %s: %w", t.Version, err)
	}
	return buf.String(), nil
}
