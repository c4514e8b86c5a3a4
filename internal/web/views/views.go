// Package views holds the server-rendered HTML templates.
package views

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"fitcheck-web/internal/results"
	"fitcheck-web/internal/session"
)

//go:embed templates/*.tmpl
var files embed.FS

// Page is the data every template receives.
type Page struct {
	Title  string
	User   *session.Session
	Active string
	Notice string
	Error  string
	Data   any
}

// SignedIn reports whether the header shows the account menu.
func (p Page) SignedIn() bool {
	return p.User != nil
}

// Funcs are the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"humanize":   results.Humanize,
		"join":       strings.Join,
		"lower":      strings.ToLower,
		"safeCSS":    func(s string) template.CSS { return template.CSS(s) },
		"formatSize": FormatSize,
		"prettyJSON": PrettyJSON,
		"add":        func(a, b int) int { return a + b },
	}
}

// Load parses all templates.
func Load() (*template.Template, error) {
	tmpl, err := template.New("views").Funcs(Funcs()).ParseFS(files, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}

// Must is Load for program start-up.
func Must() *template.Template {
	tmpl, err := Load()
	if err != nil {
		panic(err)
	}
	return tmpl
}

// FormatSize renders a byte count the way the upload step shows it.
func FormatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// PrettyJSON indents raw JSON for display and falls back to the input.
func PrettyJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

//go:embed static
var staticFiles embed.FS

// Static returns the stylesheet tree served under /static.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
