// Package tmpl renders the user's shell command templates.
package tmpl

import (
	"fmt"
	"strings"
	"text/template"
)

var funcs = template.FuncMap{
	// shq single-quotes a value for sh
	"shq": func(s string) string {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	},
	"join": strings.Join,
	// trunc keeps the first n runes, for tools with short title limits
	"trunc": func(n int, s string) string {
		r := []rune(s)
		if n < 0 || len(r) <= n {
			return s
		}
		return string(r[:n])
	},
	// default returns def when s is empty: {{ .Level | default "info" }}
	"default": func(def, s string) string {
		if s == "" {
			return def
		}
		return s
	},
}

// Render executes src against data. Missing keys fail instead of
// rendering "<no value>".
func Render(src string, data any) (string, error) {
	t, err := template.New("cmd").Funcs(funcs).Option("missingkey=error").Parse(src)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return b.String(), nil
}
