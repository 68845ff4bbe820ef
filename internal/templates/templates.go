// Package templates holds the site's page templates. Every page is parsed
// together with the shared layout and partials.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed *.tmpl
var files embed.FS

// Page names accepted by Render.
const (
	PageLanding  = "landing"
	PageLogin    = "login"
	PageRegister = "register"
	PageLesson   = "lesson"
	PageError    = "error"
)

var pages = []string{PageLanding, PageLogin, PageRegister, PageLesson, PageError}

var funcMap = template.FuncMap{
	"add": func(a, b int) int { return a + b },
}

type Renderer struct {
	pages map[string]*template.Template
}

// Load parses every page.
func Load() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		tmpl, err := template.New(page).Funcs(funcMap).ParseFS(files, "layout.tmpl", "partials.tmpl", page+".tmpl")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", page, err)
		}
		r.pages[page] = tmpl
	}
	return r, nil
}

// Render executes page into a buffer first so a template error never
// produces a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("template not found: %s", page)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", page, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
