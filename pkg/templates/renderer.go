package templates

import (
	"fmt"
	"regexp"
)

// placeholderRe matches {{name}} placeholders. Names are word characters
// only; anything else is left in the text verbatim.
var placeholderRe = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Render substitutes variables into the template's subject, body, and HTML
// body. Substitution is a single left-to-right pass: a substituted value is
// never re-scanned for further placeholders. Variables that are absent or
// nil render as the empty string. A template with no HTML body produces an
// empty HTMLBody, not an error.
func Render(tmpl Template, vars map[string]any) Rendered {
	return Rendered{
		Subject:  substitute(tmpl.Subject, vars),
		Body:     substitute(tmpl.Body, vars),
		HTMLBody: substitute(tmpl.HTMLBody, vars),
	}
}

func substitute(text string, vars map[string]any) string {
	if text == "" {
		return ""
	}
	return placeholderRe.ReplaceAllStringFunc(text, func(match string) string {
		name := match[2 : len(match)-2]
		v, ok := vars[name]
		if !ok || v == nil {
			return ""
		}
		return stringify(v)
	})
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
