// Package tmpl provides template rendering for prompt text.
package tmpl

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// fence wraps code in a backtick fence tagged with lang. The fence is always
// longer than any backtick run inside the code so the block cannot close early.
func fence(lang, code string) string {
	width := 3
	run := 0
	for _, r := range code {
		if r == '`' {
			run++
			if run >= width {
				width = run + 1
			}
			continue
		}
		run = 0
	}

	f := strings.Repeat("`", width)
	return f + lang + "\n" + strings.TrimRight(code, "\n") + "\n" + f
}

// indent prefixes every non-empty line of s with n spaces.
func indent(n int, s string) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = pad + l
		}
	}
	return strings.Join(lines, "\n")
}

func stringOrDefault(s, def string) string {
	if strings.TrimSpace(s) != "" {
		return s
	}
	return def
}

var funcs = template.FuncMap{
	"fence":   fence,
	"indent":  indent,
	"join":    strings.Join,
	"trim":    strings.TrimSpace,
	"upper":   strings.ToUpper,
	"default": func(def, s string) string { return stringOrDefault(s, def) },
}

// Parse compiles tmpl with the prompt functions. It is used to validate
// configured templates before they are rendered.
func Parse(name, tmpl string) (*template.Template, error) {
	t, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return t, nil
}

// Render executes a Go template string with the given data.
// Returns an error if the template is invalid or references undefined keys.
//
// Available template functions:
//   - fence: Wrap code in a fenced block (e.g., fence .Language .Code)
//   - indent: Indent every line (e.g., indent 2 .Text)
//   - join: Join string slice with separator (e.g., join .Names ", ")
//   - default: Fall back when a value is blank (e.g., .Language | default "text")
func Render(tmpl string, data any) (string, error) {
	t, err := Parse("", tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}
