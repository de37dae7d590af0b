package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarkdown_Convert(t *testing.T) {
	c := NewMarkdown(Options{})
	out, err := c.Convert([]byte("# Title\n\nSome *text*.\n"))
	require.NoError(t, err)
	require.Contains(t, out, `<h1 id="title">Title</h1>`)
	require.Contains(t, out, "<em>text</em>")
}

func TestMarkdown_AutoHeadingIDs(t *testing.T) {
	c := NewMarkdown(Options{})
	out, err := c.Convert([]byte("## Getting Started\n"))
	require.NoError(t, err)
	require.Contains(t, out, `id="getting-started"`)
}

func TestMarkdown_Sanitize(t *testing.T) {
	c := NewMarkdown(Options{Sanitize: true})
	out, err := c.Convert([]byte("hello <script>alert(1)</script>\n"))
	require.NoError(t, err)
	require.NotContains(t, out, "<script>")
	require.Contains(t, out, "hello")
}

func TestMarkdown_SanitizeKeepsHeadingIDs(t *testing.T) {
	c := NewMarkdown(Options{Sanitize: true})
	out, err := c.Convert([]byte("# Title\n"))
	require.NoError(t, err)
	require.Contains(t, out, `id="title"`)
}

func TestMarkdown_Highlighting(t *testing.T) {
	c := NewMarkdown(Options{HighlightStyle: "github"})
	out, err := c.Convert([]byte("```go\npackage main\n```\n"))
	require.NoError(t, err)
	// Chroma emits inline-styled spans instead of a bare code block.
	require.Contains(t, out, "<pre")
	require.False(t, strings.Contains(out, "```"))
}

type failingConverter struct{}

func (failingConverter) Convert([]byte) (string, error) {
	return "", errors.New("markup engine exploded")
}

func TestConvertInline_SubstitutesErrorText(t *testing.T) {
	out := ConvertInline(failingConverter{}, "whatever")
	require.Equal(t, "markup engine exploded", out)
}

func TestConvertInline_PassesThroughOutput(t *testing.T) {
	out := ConvertInline(NewMarkdown(Options{}), "*hi*")
	require.Contains(t, out, "<em>hi</em>")
}

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry()

	c, err := r.Resolve("markdown", Options{})
	require.NoError(t, err)
	require.NotNil(t, c)

	c, err = r.Resolve("", Options{})
	require.NoError(t, err)
	require.NotNil(t, c)

	_, err = r.Resolve("asciidoc", Options{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "asciidoc")
}

func TestRegistry_RegisterCustomEngine(t *testing.T) {
	r := NewRegistry()
	r.Register("noop", func(Options) Converter { return failingConverter{} })

	c, err := r.Resolve("noop", Options{})
	require.NoError(t, err)
	_, err = c.Convert(nil)
	require.Error(t, err)
}
