// Package templates implements the placeholder substitution used by
// recipe action values. The grammar is ${field} for direct activity
// fields and ${namespace.field} for namespaced sources (currently only
// "weather"). Rendering is two-pass: activity fields first, then the
// weather namespace only if a ${weather.*} placeholder survived the
// first pass.
package templates

import (
	"strings"
)

// ReplaceTags substitutes ${field} placeholders in template with values
// from source. When prefix is non-empty only ${prefix.field} placeholders
// are considered; bare ${field} tags are left for other passes.
// Placeholders with no matching source value are left as-is.
func ReplaceTags(template string, source map[string]string, prefix string) string {
	if template == "" || !strings.Contains(template, "${") {
		return template
	}

	var b strings.Builder
	rest := template
	for {
		open := strings.Index(rest, "${")
		if open == -1 {
			b.WriteString(rest)
			break
		}
		close := strings.Index(rest[open:], "}")
		if close == -1 {
			b.WriteString(rest)
			break
		}
		close += open

		b.WriteString(rest[:open])
		tag := rest[open+2 : close]
		key := tag
		resolved := false

		if prefix != "" {
			if strings.HasPrefix(tag, prefix+".") {
				key = strings.TrimPrefix(tag, prefix+".")
				if v, ok := source[key]; ok {
					b.WriteString(v)
					resolved = true
				}
			}
		} else if !strings.Contains(tag, ".") {
			if v, ok := source[key]; ok {
				b.WriteString(v)
				resolved = true
			}
		}

		if !resolved {
			b.WriteString(rest[open : close+1])
		}
		rest = rest[close+1:]
	}
	return b.String()
}

// HasTag reports whether the string still contains a placeholder in the
// given namespace, e.g. HasTag(s, "weather") for ${weather.*}.
func HasTag(s, namespace string) bool {
	return strings.Contains(s, "${"+namespace+".")
}
