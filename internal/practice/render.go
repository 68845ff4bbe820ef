package practice

import (
	"bytes"
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var panelTemplate = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// Panel is a View plus the form plumbing needed to post actions back.
type Panel struct {
	View
	Action    string
	CSRFToken string
}

// Render writes the practice panel. An empty view writes nothing.
func Render(w io.Writer, p Panel) error {
	if p.Empty {
		return nil
	}
	return panelTemplate.ExecuteTemplate(w, "practice-panel", p)
}

// RenderHTML renders into a string for embedding in a page template.
func RenderHTML(p Panel) (template.HTML, error) {
	var buf bytes.Buffer
	if err := Render(&buf, p); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
