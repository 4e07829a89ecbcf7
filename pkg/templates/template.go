package templates

import (
	"github.com/finbase/notifier/pkg/events"
)

// Template is one immutable version of a notification message. The Catalog
// keeps the highest active version per (key, language) pair; rendering never
// mutates the template.
type Template struct {
	Key      string          `yaml:"key" json:"key"`
	Channel  events.Channel  `yaml:"channel" json:"channel"`
	Category events.Category `yaml:"category" json:"category"`
	Subject  string          `yaml:"subject" json:"subject"`
	Body     string          `yaml:"body" json:"body"`
	HTMLBody string          `yaml:"html_body" json:"html_body"`
	Language string          `yaml:"language" json:"language"`
	Version  int             `yaml:"version" json:"version"`
	Active   bool            `yaml:"active" json:"active"`
	Default  bool            `yaml:"default" json:"default"`
}

// Rendered is the output of rendering a template. HTMLBody stays empty when
// the template has no HTML variant.
type Rendered struct {
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	HTMLBody string `json:"html_body,omitempty"`
}
