package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docbrowse/internal/allowlist"
	"git.home.luguber.info/inful/docbrowse/internal/modpath"
)

const externalBase = "https://metacpan.org/pod/"

func testContext(t *testing.T, patterns ...string) Context {
	t.Helper()
	allow, err := allowlist.Compile(patterns)
	require.NoError(t, err)
	current, err := modpath.FromCanonical("Current::Module")
	require.NoError(t, err)
	return Context{
		Current:         current,
		Allow:           allow,
		ExternalBaseURL: externalBase,
		LocalURL:        func(id modpath.Identifier) string { return "/doc/" + id.Path() },
	}
}

func TestProcess_RewritesAllowlistedLinks(t *testing.T) {
	in := `<p><a href="https://metacpan.org/pod/Foo::Bar">docs</a></p>`
	res := Process(in, testContext(t, `^Foo`))
	assert.Contains(t, res.HTML, `href="/doc/Foo/Bar"`)
}

func TestProcess_LeavesDisallowedLinks(t *testing.T) {
	in := `<p><a href="https://metacpan.org/pod/Foo::Bar">docs</a></p>`
	res := Process(in, testContext(t, `^Baz`))
	assert.Contains(t, res.HTML, `href="https://metacpan.org/pod/Foo::Bar"`)
}

func TestProcess_RewritesSlashJoinedLinks(t *testing.T) {
	in := `<a href="https://metacpan.org/pod/Foo/Bar">docs</a>`
	res := Process(in, testContext(t, `^Foo`))
	assert.Contains(t, res.HTML, `href="/doc/Foo/Bar"`)
}

func TestProcess_IgnoresUnrelatedLinks(t *testing.T) {
	in := `<a href="https://example.com/other">other</a>`
	res := Process(in, testContext(t))
	assert.Contains(t, res.HTML, `href="https://example.com/other"`)
}

func TestProcess_RewritesLinksInsideHeadings(t *testing.T) {
	in := `<h2 id="see">See <a href="https://metacpan.org/pod/Foo">Foo</a></h2>`
	res := Process(in, testContext(t, `^Foo`))
	assert.Contains(t, res.HTML, `href="/doc/Foo"`)
}

func TestProcess_TranscriptBlock(t *testing.T) {
	in := "<pre><code>  $ perl script.pl\n  output line</code></pre>"
	res := Process(in, testContext(t))
	assert.Contains(t, res.HTML, `<pre class="sample">`)
	assert.NotContains(t, res.HTML, "prettyprint")
}

func TestProcess_UsageBlockIsTranscript(t *testing.T) {
	in := "<pre><code>Usage: app [options]</code></pre>"
	res := Process(in, testContext(t))
	assert.NotContains(t, res.HTML, "prettyprint")
}

func TestProcess_CodeSampleBlock(t *testing.T) {
	in := "<pre><code>my $x = Foo-&gt;bar;</code></pre>"
	res := Process(in, testContext(t))
	assert.Contains(t, res.HTML, `<code class="prettyprint">`)
}

func TestProcess_UseStatementIsSample(t *testing.T) {
	in := "<pre><code>use strict;\nprint 1;</code></pre>"
	res := Process(in, testContext(t))
	assert.Contains(t, res.HTML, "prettyprint")
}

func TestProcess_TranscriptWinsOverSample(t *testing.T) {
	// Matches both patterns; the transcript check short-circuits.
	in := "<pre><code>$ perl -e 'my $x = 1'</code></pre>"
	res := Process(in, testContext(t))
	assert.NotContains(t, res.HTML, "prettyprint")
}

func TestProcess_CodeKeepsExistingClass(t *testing.T) {
	in := `<pre><code class="language-perl">my $x = 1;</code></pre>`
	res := Process(in, testContext(t))
	assert.Contains(t, res.HTML, `class="language-perl prettyprint"`)
}

func TestProcess_DedentUsesShortestIndent(t *testing.T) {
	in := "<pre><code>    my $x = 1;\n  my $y = 2;\n</code></pre>"
	res := Process(in, testContext(t))
	assert.Contains(t, res.HTML, "  my $x = 1;\nmy $y = 2;")
}

func TestProcess_TOCGroups(t *testing.T) {
	in := `<h1 id="a">A</h1><h2 id="a1">A.1</h2><h1 id="b">B</h1>`
	res := Process(in, testContext(t))

	require.Len(t, res.TOC, 2)
	require.Len(t, res.TOC[0], 2)
	assert.Equal(t, Topic{Text: "A", Target: "#a"}, res.TOC[0][0])
	assert.Equal(t, Topic{Text: "A.1", Target: "#a1"}, res.TOC[0][1])
	require.Len(t, res.TOC[1], 1)
	assert.Equal(t, Topic{Text: "B", Target: "#b"}, res.TOC[1][0])
}

func TestProcess_FirstHeadingAlwaysOpensGroup(t *testing.T) {
	in := `<h3 id="x">X</h3>`
	res := Process(in, testContext(t))

	require.Len(t, res.TOC, 1)
	require.Len(t, res.TOC[0], 1)
	assert.Equal(t, Topic{Text: "X", Target: "#x"}, res.TOC[0][0])
}

func TestProcess_HeadingRewrite(t *testing.T) {
	in := `<h1 id="intro">Intro</h1>`
	res := Process(in, testContext(t))

	assert.Contains(t, res.HTML, `<a href="#toc">Intro</a>`)
	assert.Contains(t, res.HTML, `<a class="permalink" href="#intro">#</a>`)
}

func TestProcess_HeadingWithoutIDGetsAnchor(t *testing.T) {
	in := `<h2>Getting Started</h2>`
	res := Process(in, testContext(t))

	assert.Contains(t, res.HTML, `id="getting-started"`)
	require.Len(t, res.TOC, 1)
	assert.Equal(t, "#getting-started", res.TOC[0][0].Target)
}

func TestProcess_TitleFromFirstParagraphAfterH1(t *testing.T) {
	in := `<h1 id="t">T</h1><p>Intro</p>`
	res := Process(in, testContext(t))
	assert.Equal(t, "Intro", res.Title)
}

func TestProcess_DefaultTitleWithoutH1(t *testing.T) {
	in := `<h2 id="x">X</h2><p>Not the title</p>`
	res := Process(in, testContext(t))
	assert.Equal(t, DefaultTitle, res.Title)
}

func TestProcess_DefaultTitleWhenNoParagraphFollows(t *testing.T) {
	in := `<h1 id="t">T</h1><ul><li>x</li></ul>`
	res := Process(in, testContext(t))
	assert.Equal(t, DefaultTitle, res.Title)
}

func TestProcess_TitleUsesFirstH1Only(t *testing.T) {
	in := `<h1 id="a">A</h1><p>First</p><h1 id="b">B</h1><p>Second</p>`
	res := Process(in, testContext(t))
	assert.Equal(t, "First", res.Title)
}

func TestProcess_EmptyInput(t *testing.T) {
	res := Process("", testContext(t))
	assert.Equal(t, DefaultTitle, res.Title)
	assert.Empty(t, res.TOC)
	assert.Equal(t, "", res.HTML)
}

func TestProcess_MalformedInputDoesNotPanic(t *testing.T) {
	res := Process("<h1>unclosed<pre><code>$x", testContext(t))
	assert.NotEmpty(t, res.Title)
}
