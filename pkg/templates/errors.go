package templates

import "errors"

var (
	// ErrTemplateNotFound is returned when no active template exists for
	// the requested key in any language.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrInvalidTemplate is returned when a template definition is missing
	// required fields.
	ErrInvalidTemplate = errors.New("invalid template definition")

	// ErrInvalidLanguage is returned when a template declares a language
	// tag that cannot be parsed.
	ErrInvalidLanguage = errors.New("invalid template language tag")
)
