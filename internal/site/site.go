// Package site renders complete documentation pages around post-processed
// fragments. Layouts are embedded HTML templates; the "markup" template
// function exposes the inline converter helper to every layout.
package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"git.home.luguber.info/inful/docbrowse/internal/page"
	"git.home.luguber.info/inful/docbrowse/internal/render"
)

//go:embed layouts/*.tmpl
var layoutFS embed.FS

// PageData is the data surface available to layout templates.
type PageData struct {
	Title       string
	Module      string
	ModulePath  string
	Content     template.HTML
	TOC         page.TOC
	ExternalURL string
	Version     string
}

// IndexEntry is one row of the module index listing.
type IndexEntry struct {
	Module string
	URL    string
}

// IndexData is the data surface of the index layout.
type IndexData struct {
	Title   string
	Entries []IndexEntry
	Version string
}

// Renderer holds the parsed layouts and the converter backing the inline
// markup helper.
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded layouts. The converter powers the "markup" helper;
// its failures surface as literal text in the page, never as render errors.
func New(converter render.Converter) (*Renderer, error) {
	funcs := template.FuncMap{
		"markup": func(s string) template.HTML {
			return template.HTML(render.ConvertInline(converter, s))
		},
	}
	tmpl, err := template.New("site").Funcs(funcs).ParseFS(layoutFS, "layouts/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layouts: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Page renders a documentation page through the named layout.
func (r *Renderer) Page(layout string, data PageData) ([]byte, error) {
	return r.execute(layout, data)
}

// Index renders the module index listing.
func (r *Renderer) Index(data IndexData) ([]byte, error) {
	return r.execute("index", data)
}

func (r *Renderer) execute(layout string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, layout+".tmpl", data); err != nil {
		return nil, fmt.Errorf("failed to render layout %q: %w", layout, err)
	}
	return buf.Bytes(), nil
}

// HasLayout reports whether a layout with the given name is embedded.
func (r *Renderer) HasLayout(layout string) bool {
	return r.tmpl.Lookup(layout+".tmpl") != nil
}
