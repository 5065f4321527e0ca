// Package template renders the {{variable}} placeholder templates used for
// outbound prompts: the daily coach report and executor system prompts.
package template

import (
	"regexp"
)

// placeholderRe matches {{name}} placeholders. The name is captured without
// the braces.
var placeholderRe = regexp.MustCompile(`\{\{([a-zA-Z_][a-zA-Z0-9_]*)\}\}`)

// Render substitutes {{name}} placeholders in tmpl with values from vars.
// A placeholder with no entry in vars is left untouched so a missing value
// is visible in the output rather than silently blanked.
func Render(tmpl string, vars map[string]string) string {
	if len(vars) == 0 {
		return tmpl
	}
	return placeholderRe.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]
		if value, ok := vars[name]; ok {
			return value
		}
		return match
	})
}

// Merge combines base variables with overrides; overrides win on collision.
func Merge(base, overrides map[string]string) map[string]string {
	if len(base) == 0 && len(overrides) == 0 {
		return nil
	}
	merged := make(map[string]string, len(base)+len(overrides))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}
