// Package templates renders notification content from versioned message
// templates with {{variable}} placeholders.
//
// Rendering is a pure, single-pass substitution: placeholders are replaced
// left to right with stringified variable values, missing variables become
// empty strings, and substituted values are never re-scanned, so template
// output cannot expand recursively. Templates are immutable per version and
// selected by key and language through a Catalog, with BCP 47 language
// matching and fallback to the default language.
package templates
