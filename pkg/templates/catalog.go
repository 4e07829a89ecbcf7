package templates

import (
	"fmt"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Catalog holds the active template versions and selects them by key and
// language. Safe for concurrent use.
type Catalog struct {
	mu          sync.RWMutex
	byKey       map[string]map[language.Tag]Template
	defaultLang language.Tag
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithDefaultLanguage sets the fallback language used when no template
// matches the requested language. Defaults to English.
func WithDefaultLanguage(tag language.Tag) CatalogOption {
	return func(c *Catalog) {
		c.defaultLang = tag
	}
}

// NewCatalog creates an empty template catalog.
func NewCatalog(opts ...CatalogOption) *Catalog {
	c := &Catalog{
		byKey:       make(map[string]map[language.Tag]Template),
		defaultLang: language.English,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add registers a template version. Inactive templates and versions lower
// than the one already registered for the same (key, language) pair are
// ignored, keeping the catalog at the highest active version.
func (c *Catalog) Add(t Template) error {
	if t.Key == "" {
		return fmt.Errorf("%w: key is required", ErrInvalidTemplate)
	}
	if t.Body == "" {
		return fmt.Errorf("%w: body is required for template %q", ErrInvalidTemplate, t.Key)
	}
	if !t.Active {
		return nil
	}

	lang := c.defaultLang
	if t.Language != "" {
		parsed, err := language.Parse(t.Language)
		if err != nil {
			return fmt.Errorf("%w: template %q language %q: %w", ErrInvalidLanguage, t.Key, t.Language, err)
		}
		lang = parsed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	versions, ok := c.byKey[t.Key]
	if !ok {
		versions = make(map[language.Tag]Template)
		c.byKey[t.Key] = versions
	}
	if existing, ok := versions[lang]; ok && existing.Version >= t.Version {
		return nil
	}
	versions[lang] = t
	return nil
}

// Resolve returns the active template for the key that best matches the
// requested language, falling back to the catalog's default language. An
// unparseable or empty requested language resolves to the default.
func (c *Catalog) Resolve(key, lang string) (Template, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	versions, ok := c.byKey[key]
	if !ok || len(versions) == 0 {
		return Template{}, fmt.Errorf("%w: %q", ErrTemplateNotFound, key)
	}

	// The matcher's first tag is its fallback, so the default language is
	// placed first when present.
	tags := make([]language.Tag, 0, len(versions))
	if _, ok := versions[c.defaultLang]; ok {
		tags = append(tags, c.defaultLang)
	}
	for tag := range versions {
		if tag != c.defaultLang {
			tags = append(tags, tag)
		}
	}

	matcher := language.NewMatcher(tags)
	_, idx, _ := matcher.Match(language.Make(lang))
	return versions[tags[idx]], nil
}

// Render resolves the template for (key, lang) and renders it with vars.
func (c *Catalog) Render(key, lang string, vars map[string]any) (Rendered, error) {
	tmpl, err := c.Resolve(key, lang)
	if err != nil {
		return Rendered{}, err
	}
	return Render(tmpl, vars), nil
}

// Keys returns all template keys registered in the catalog.
func (c *Catalog) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.byKey))
	for k := range c.byKey {
		keys = append(keys, k)
	}
	return keys
}

// catalogFile is the YAML document shape for template sets.
type catalogFile struct {
	Templates []Template `yaml:"templates"`
}

// LoadYAML registers all templates from a YAML document:
//
//	templates:
//	  - key: deposit_received
//	    channel: email
//	    category: transaction
//	    subject: "Deposit of {{amount}} received"
//	    body: "Hi {{firstName}}, your deposit of {{amount}} has arrived."
//	    language: en
//	    version: 1
//	    active: true
func (c *Catalog) LoadYAML(data []byte) error {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}
	for _, t := range file.Templates {
		if err := c.Add(t); err != nil {
			return err
		}
	}
	return nil
}
