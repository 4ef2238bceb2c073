// Package view renders the assistant's pages from embedded html/template
// files through Echo's Renderer interface.
package view

import (
	"embed"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer implements echo.Renderer.
type Renderer struct {
	tmpl *template.Template
}

var funcs = template.FuncMap{
	"clock": func(t time.Time) string { return t.Format("15:04") },
	"join":  strings.Join,
	"plural": func(n int, one, many string) string {
		if n == 1 {
			return one
		}
		return many
	},
}

// New parses every embedded template.  It panics on a malformed template
// since that is a build defect, not a runtime condition.
func New() *Renderer {
	return &Renderer{tmpl: template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))}
}

// Render executes the named page template.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}
