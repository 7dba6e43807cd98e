package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// IndexTemplate is the name handlers pass to c.HTML.
const IndexTemplate = "index.html"

// Templates parses the embedded templates.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"banTitle": func(banned bool) string {
			if banned {
				return "Click to unban"
			}
			return "Click to ban"
		},
	}).ParseFS(templateFS, "templates/*.html")
}

// MustTemplates panics when the embedded templates do not parse.
func MustTemplates() *template.Template {
	return template.Must(Templates())
}
