package site

import (
	"errors"
	"html/template"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docbrowse/internal/page"
	"git.home.luguber.info/inful/docbrowse/internal/render"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(render.NewMarkdown(render.Options{}))
	require.NoError(t, err)
	return r
}

func TestPage_DefaultLayout(t *testing.T) {
	r := newRenderer(t)
	out, err := r.Page("default", PageData{
		Title:       "Intro",
		Module:      "Foo::Bar",
		ModulePath:  "Foo/Bar",
		Content:     template.HTML("<p>body</p>"),
		ExternalURL: "https://metacpan.org/pod/Foo::Bar",
		TOC: page.TOC{
			{{Text: "A", Target: "#a"}, {Text: "A.1", Target: "#a1"}},
		},
	})
	require.NoError(t, err)

	html := string(out)
	require.Contains(t, html, "<title>Intro</title>")
	require.Contains(t, html, "<p>body</p>")
	require.Contains(t, html, `id="toc"`)
	require.Contains(t, html, `href="#a1"`)
	require.Contains(t, html, `https://metacpan.org/pod/Foo::Bar`)
}

func TestPage_UnknownLayout(t *testing.T) {
	r := newRenderer(t)
	_, err := r.Page("nope", PageData{})
	require.Error(t, err)
}

func TestHasLayout(t *testing.T) {
	r := newRenderer(t)
	require.True(t, r.HasLayout("default"))
	require.True(t, r.HasLayout("index"))
	require.False(t, r.HasLayout("nope"))
}

func TestIndex_ListsModules(t *testing.T) {
	r := newRenderer(t)
	out, err := r.Index(IndexData{
		Title: "Modules",
		Entries: []IndexEntry{
			{Module: "Foo::Bar", URL: "/doc/Foo/Bar"},
		},
	})
	require.NoError(t, err)
	require.Contains(t, string(out), `href="/doc/Foo/Bar"`)
	require.Contains(t, string(out), "Foo::Bar")
}

func TestIndex_EmptyUsesMarkupHelper(t *testing.T) {
	r := newRenderer(t)
	out, err := r.Index(IndexData{Title: "Modules"})
	require.NoError(t, err)
	require.Contains(t, string(out), "No documentation modules found")
}

type brokenConverter struct{}

func (brokenConverter) Convert([]byte) (string, error) {
	return "", errors.New("converter down")
}

func TestMarkupHelper_ErrorBecomesText(t *testing.T) {
	r, err := New(brokenConverter{})
	require.NoError(t, err)
	out, err := r.Index(IndexData{Title: "Modules"})
	require.NoError(t, err)
	require.Contains(t, string(out), "converter down")
}
