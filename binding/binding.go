// Package binding connects template fields to record columns. A template
// field names a slot on the label; a mapping says which source column feeds
// it. Synthetic fields (double-underscore prefixed) are layout artifacts and
// carry no data of their own.
package binding

import (
	"regexp"
	"strings"
)

// Record is one row of source data keyed by column name.
type Record map[string]string

// Mapping associates template field names with source column names.
type Mapping map[string]string

const syntheticPrefix = "__"

// IsSynthetic reports whether a field is a layout artifact rather than a
// data-bearing slot, e.g. the generated column fields of a multi-column mode.
func IsSynthetic(field string) bool {
	return strings.HasPrefix(field, syntheticPrefix)
}

// Resolve returns the record value bound to a field. An unmapped field falls
// back to a column of the same name. The second return is false when neither
// the mapping nor the record knows the field.
func Resolve(rec Record, m Mapping, field string) (string, bool) {
	col := field
	if m != nil {
		if mapped, ok := m[field]; ok && mapped != "" {
			col = mapped
		}
	}
	if rec == nil {
		return "", false
	}
	v, ok := rec[col]
	return v, ok
}

// SampleText returns the text used to size a field during layout. A field
// with no sample value sizes against its own name, so a template authored
// before data arrives still produces a stable, non-degenerate fit.
func SampleText(rec Record, m Mapping, field string) string {
	if v, ok := Resolve(rec, m, field); ok && v != "" {
		return v
	}
	return field
}

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate replaces ${COLUMN} placeholders in text with record values.
// Unknown columns keep their placeholder so broken templates stay visible
// in the output instead of silently printing blanks.
func Interpolate(text string, rec Record, m Mapping) string {
	if rec == nil && m == nil {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		name := strings.TrimSpace(groups[1])
		if name == "" {
			return match
		}
		if v, ok := Resolve(rec, m, name); ok {
			return v
		}
		return match
	})
}
