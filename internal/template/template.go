// Package template provides per-host command templating for sshfan.
package template

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"sshfan/internal/target"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Context is the data available to command templates.
type Context struct {
	Host string // target host identifier
	User string // remote username
	Addr string // user@host form
}

// IsTemplate reports whether a command string contains template syntax.
func IsTemplate(command string) bool {
	return strings.Contains(command, "{{")
}

// Expand renders a command template against a target. Commands without
// template syntax pass through Expand unchanged, so callers can apply it
// unconditionally.
func Expand(command string, t target.Target) (string, error) {
	if !IsTemplate(command) {
		return command, nil
	}

	tmpl, err := template.New("command").Funcs(templateFuncs()).Parse(command)
	if err != nil {
		return "", fmt.Errorf("failed to parse command template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, Context{
		Host: t.Host,
		User: t.User,
		Addr: t.Addr(),
	}); err != nil {
		return "", fmt.Errorf("failed to execute command template: %w", err)
	}

	return buf.String(), nil
}

// templateFuncs returns the functions available inside command templates
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"upper":     strings.ToUpper,
		"lower":     strings.ToLower,
		"title":     cases.Title(language.English).String,
		"shortHost": shortHost,
	}
}

// shortHost strips the domain part from a fully qualified hostname
func shortHost(host string) string {
	if i := strings.Index(host, "."); i > 0 {
		return host[:i]
	}
	return host
}
