// Package render converts documentation markup to HTML fragments. The
// conversion engine is selected by name once at configuration time through
// the Registry; request handling only ever sees a resolved Converter.
package render

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Converter turns a markup document into an HTML fragment.
type Converter interface {
	Convert(markup []byte) (string, error)
}

// Options tune the built-in Markdown converter.
type Options struct {
	// HighlightStyle is a chroma style name for fenced code blocks. Empty
	// disables server-side highlighting.
	HighlightStyle string
	// Sanitize runs the converted fragment through a bluemonday UGC policy.
	Sanitize bool
}

// Markdown is the goldmark-backed Converter.
type Markdown struct {
	md       goldmark.Markdown
	sanitize *bluemonday.Policy
}

// NewMarkdown builds a Markdown converter. Raw HTML is allowed in the source
// document; when Sanitize is set the rendered fragment is filtered afterwards.
func NewMarkdown(opts Options) *Markdown {
	extensions := []goldmark.Extender{extension.GFM}
	if opts.HighlightStyle != "" {
		extensions = append(extensions, highlighting.NewHighlighting(
			highlighting.WithStyle(opts.HighlightStyle),
		))
	}

	m := &Markdown{
		md: goldmark.New(
			goldmark.WithExtensions(extensions...),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				gmhtml.WithUnsafe(),
			),
		),
	}
	if opts.Sanitize {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
		p.AllowAttrs("class").OnElements("pre", "code", "span", "div")
		m.sanitize = p
	}
	return m
}

// Convert renders the markup to an HTML fragment.
func (m *Markdown) Convert(markup []byte) (string, error) {
	var buf bytes.Buffer
	if err := m.md.Convert(markup, &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}
	if m.sanitize != nil {
		return m.sanitize.Sanitize(buf.String()), nil
	}
	return buf.String(), nil
}

// ConvertInline is the inline template helper behavior: conversion errors are
// substituted verbatim as output text instead of propagating.
func ConvertInline(c Converter, markup string) string {
	out, err := c.Convert([]byte(markup))
	if err != nil {
		return err.Error()
	}
	return out
}

// Registry maps engine names to converter constructors. Lookups happen once
// during setup; the resolved Converter is carried in the typed configuration.
type Registry struct {
	engines map[string]func(Options) Converter
}

// NewRegistry returns a registry with the built-in engines registered. The
// default engine name is "markdown".
func NewRegistry() *Registry {
	r := &Registry{engines: make(map[string]func(Options) Converter)}
	r.Register("markdown", func(opts Options) Converter { return NewMarkdown(opts) })
	return r
}

// Register adds or replaces an engine constructor.
func (r *Registry) Register(name string, build func(Options) Converter) {
	r.engines[name] = build
}

// Resolve returns a Converter for the named engine.
func (r *Registry) Resolve(name string, opts Options) (Converter, error) {
	if name == "" {
		name = "markdown"
	}
	build, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("unknown render engine %q (have %v)", name, r.names())
	}
	return build(opts), nil
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
