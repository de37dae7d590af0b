// Package page post-processes a converted HTML fragment into a browsable
// documentation page: it rewrites external reference links to local ones,
// classifies code blocks, rebuilds headings with navigation anchors, extracts
// a table of contents and derives the page title.
//
// Processing is presentational and must never break the response pipeline:
// malformed or empty input degrades to a best-effort result, not an error.
package page

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/docbrowse/internal/allowlist"
	"git.home.luguber.info/inful/docbrowse/internal/modpath"
)

// DefaultTitle is used when no paragraph follows the first top-level heading.
const DefaultTitle = "Documentation"

// Topic is a single table-of-contents entry: display text plus the in-page
// fragment target of its heading.
type Topic struct {
	Text   string
	Target string
}

// TopicGroup is a top-level heading followed by its nested sub-headings in
// document order. The first entry is the group opener.
type TopicGroup []Topic

// TOC is the ordered table of contents of a page.
type TOC []TopicGroup

// Context carries the request-scoped inputs of a Process call.
type Context struct {
	// Current is the module being rendered (used by templates, not mutated).
	Current modpath.Identifier
	// Allow gates which linked modules are rewritten to local URLs.
	Allow *allowlist.List
	// ExternalBaseURL is the external documentation index prefix whose links
	// are candidates for rewriting, e.g. "https://metacpan.org/pod/".
	ExternalBaseURL string
	// LocalURL builds the local browsing URL for a permitted module.
	LocalURL func(modpath.Identifier) string
}

// Result is the immutable outcome of one Process call.
type Result struct {
	HTML  string
	Title string
	TOC   TOC
}

var (
	// Transcript lines start with optional whitespace then a shell prompt or
	// the word "Usage:", each followed by whitespace.
	transcriptPattern = regexp.MustCompile(`(?m)^\s*(?:\$|Usage:)\s`)
	// Code samples contain a sigil-prefixed identifier, an arrow call or a
	// use statement. The text is decoded node content, so a literal ->
	// covers entity-encoded arrows in the source markup too.
	samplePattern = regexp.MustCompile(`(?m)[$@%]\w|->\w|^use\s+\w`)

	leadingWhitespace = regexp.MustCompile(`(?m)^([ \t]+)`)
)

// Process runs the full post-processing pipeline over an HTML fragment.
func Process(fragment string, ctx Context) Result {
	nodes, err := parseFragment(fragment)
	if err != nil {
		// Parsing is total for any byte sequence in practice; if it does fail
		// the page is served untouched with a default title.
		return Result{HTML: fragment, Title: DefaultTitle}
	}

	// The steps run as separate passes in contract order so that links and
	// code blocks nested inside headings are still seen before the heading
	// pass rebuilds the heading's children.
	p := &processor{ctx: ctx}
	for _, n := range nodes {
		p.walkLinks(n)
	}
	for _, n := range nodes {
		p.walkCode(n)
	}
	for _, n := range nodes {
		p.walkHeadings(n)
	}

	title := DefaultTitle
	if p.titleText != "" {
		title = p.titleText
	}

	var out strings.Builder
	for _, n := range nodes {
		_ = html.Render(&out, n)
	}
	return Result{HTML: out.String(), Title: title, TOC: p.toc}
}

func parseFragment(fragment string) ([]*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	return html.ParseFragment(strings.NewReader(fragment), body)
}

type processor struct {
	ctx       Context
	toc       TOC
	sawH1     bool
	titleText string
}

func (p *processor) walkLinks(n *html.Node) {
	if n.Type == html.ElementNode && n.DataAtom == atom.A {
		p.rewriteLink(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walkLinks(c)
	}
}

func (p *processor) walkCode(n *html.Node) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Code &&
		n.Parent != nil && n.Parent.DataAtom == atom.Pre {
		p.classifyCode(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walkCode(c)
	}
}

func (p *processor) walkHeadings(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.H1, atom.H2, atom.H3, atom.H4:
			p.handleHeading(n)
			// The heading's children were just rebuilt; nothing below it
			// needs another visit.
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walkHeadings(c)
	}
}

// rewriteLink points allowlisted external reference links at the local
// browser. Links to modules outside the allowlist keep their external target
// so their documentation stays reachable.
func (p *processor) rewriteLink(n *html.Node) {
	if p.ctx.ExternalBaseURL == "" || p.ctx.LocalURL == nil {
		return
	}
	href := getAttr(n, "href")
	id, ok := modpath.ExtractAfterPrefix(href, p.ctx.ExternalBaseURL)
	if !ok {
		return
	}
	if !p.ctx.Allow.Permits(id) {
		return
	}
	setAttr(n, "href", p.ctx.LocalURL(id))
}

// classifyCode dedents a verbatim block and decides between a console
// transcript and a highlightable code sample. The transcript check runs
// first and short-circuits.
func (p *processor) classifyCode(code *html.Node) {
	dedent(code)
	appendClass(code.Parent, "sample")

	text := textContent(code)
	if transcriptPattern.MatchString(text) {
		return
	}
	if samplePattern.MatchString(text) {
		appendClass(code, "prettyprint")
	}
}

// dedent removes the shortest leading whitespace found on any line from all
// lines of a text-only code block. Blocks carrying markup (e.g. server-side
// highlighting spans) are left alone.
func dedent(code *html.Node) {
	text := code.FirstChild
	if text == nil || text.Type != html.TextNode || text.NextSibling != nil {
		return
	}
	captures := leadingWhitespace.FindAllString(text.Data, -1)
	if len(captures) == 0 {
		return
	}
	shortest := captures[0]
	for _, c := range captures[1:] {
		if len(c) < len(shortest) {
			shortest = c
		}
	}
	lines := strings.Split(text.Data, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, shortest)
	}
	text.Data = strings.Join(lines, "\n")
}

// handleHeading records the heading in the TOC and replaces its content with
// a back-to-contents link holding the original text plus a trailing muted
// permalink to the heading's own anchor.
func (p *processor) handleHeading(h *html.Node) {
	text := textContent(h)
	anchor := getAttr(h, "id")
	if anchor == "" {
		anchor = slugify(text)
		setAttr(h, "id", anchor)
	}

	if h.DataAtom == atom.H1 || len(p.toc) == 0 {
		p.toc = append(p.toc, TopicGroup{})
	}
	last := len(p.toc) - 1
	p.toc[last] = append(p.toc[last], Topic{Text: text, Target: "#" + anchor})

	if h.DataAtom == atom.H1 && !p.sawH1 {
		p.sawH1 = true
		p.extractTitle(h)
	}

	backLink := &html.Node{Type: html.ElementNode, Data: "a", DataAtom: atom.A}
	setAttr(backLink, "href", "#toc")
	for c := h.FirstChild; c != nil; {
		next := c.NextSibling
		h.RemoveChild(c)
		backLink.AppendChild(c)
		c = next
	}

	permalink := &html.Node{Type: html.ElementNode, Data: "a", DataAtom: atom.A}
	setAttr(permalink, "class", "permalink")
	setAttr(permalink, "href", "#"+anchor)
	permalink.AppendChild(&html.Node{Type: html.TextNode, Data: "#"})

	h.AppendChild(backLink)
	h.AppendChild(&html.Node{Type: html.TextNode, Data: " "})
	h.AppendChild(permalink)
}

// extractTitle takes the text of the paragraph immediately following the
// first top-level heading, skipping inter-element whitespace.
func (p *processor) extractTitle(h1 *html.Node) {
	for sib := h1.NextSibling; sib != nil; sib = sib.NextSibling {
		if sib.Type == html.TextNode && strings.TrimSpace(sib.Data) == "" {
			continue
		}
		if sib.Type == html.ElementNode && sib.DataAtom == atom.P {
			p.titleText = strings.TrimSpace(textContent(sib))
		}
		return
	}
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return sb.String()
}

// slugify derives a fragment anchor from heading text the same way common
// Markdown renderers do: lowercase, word characters kept, runs of anything
// else collapsed to single dashes.
func slugify(text string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			dash = false
		default:
			if !dash && sb.Len() > 0 {
				sb.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func appendClass(n *html.Node, class string) {
	if n == nil {
		return
	}
	existing := getAttr(n, "class")
	if existing == "" {
		setAttr(n, "class", class)
		return
	}
	for _, c := range strings.Fields(existing) {
		if c == class {
			return
		}
	}
	setAttr(n, "class", existing+" "+class)
}
