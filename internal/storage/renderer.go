package storage

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/docsync/internal/foundation/errors"
)

// Renderer converts markdown documents to storage format.
type Renderer struct {
	rawHTML bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithRawHTML passes raw HTML through unchanged. By default it is escaped
// and shows up as text on the page.
func WithRawHTML() Option {
	return func(r *Renderer) { r.rawHTML = true }
}

// NewRenderer returns a Renderer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Render converts source, the markdown body of the document at docPath
// (docs-relative), into storage markup. Every call starts with empty
// accumulators.
func (r *Renderer) Render(docPath string, source []byte) (Result, error) {
	c := &collector{docPath: docPath}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
			renderer.WithNodeRenderers(util.Prioritized(&storageNodeRenderer{c: c, rawHTML: r.rawHTML}, 100)),
		),
	)

	var buf bytes.Buffer
	if err := md.Convert(source, &buf); err != nil {
		return Result{}, errors.WrapError(err, errors.CategoryRender, "render markdown").
			WithContext("path", docPath).
			Fatal().
			Build()
	}
	return Result{Markup: buf.String(), Assets: c.assets, Links: c.links}, nil
}

type collector struct {
	docPath string
	assets  []AssetRef
	links   []RelativeLink
}

func (c *collector) addLink(d destination, raw string) RelativeLink {
	l := RelativeLink{
		Path:        d.path,
		Fragment:    d.fragment,
		Placeholder: Placeholder(c.docPath, len(c.links), raw),
	}
	c.links = append(c.links, l)
	return l
}

type destination struct {
	path      string
	fragment  string
	hasScheme bool
	hasHost   bool
}

// parseDestination splits a link or image destination. Destinations that
// url.Parse rejects, such as "50%.png", are taken as written: they have a
// host only when they contain "//".
func parseDestination(raw string) destination {
	if u, err := url.Parse(raw); err == nil {
		return destination{path: u.Path, fragment: u.Fragment, hasScheme: u.Scheme != "", hasHost: u.Host != ""}
	}
	p, fragment, _ := strings.Cut(raw, "#")
	scheme, _, found := strings.Cut(p, ":")
	return destination{
		path:      p,
		fragment:  fragment,
		hasScheme: found && scheme != "" && !strings.ContainsAny(scheme, "/?"),
		hasHost:   strings.Contains(p, "//"),
	}
}

// isRelativeLink is true for links without scheme and host that name a path.
// Pure fragment links stay within the page and are not collected.
func (d destination) isRelativeLink() bool {
	return !d.hasScheme && !d.hasHost && d.path != ""
}

type storageNodeRenderer struct {
	c       *collector
	rawHTML bool
}

func (r *storageNodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindImage, r.renderImage)
	reg.Register(ast.KindLink, r.renderLink)
	reg.Register(ast.KindFencedCodeBlock, r.renderCodeBlock)
	reg.Register(ast.KindCodeBlock, r.renderCodeBlock)
	reg.Register(ast.KindHTMLBlock, r.renderHTMLBlock)
	reg.Register(ast.KindRawHTML, r.renderRawHTML)
}

func (r *storageNodeRenderer) renderImage(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.Image)
	src := string(n.Destination)

	_, _ = w.WriteString(`<ac:image ac:alt="`)
	_, _ = w.Write(util.EscapeHTML([]byte(altText(n, source))))
	_ = w.WriteByte('"')
	if len(n.Title) > 0 {
		_, _ = w.WriteString(` ac:title="`)
		_, _ = w.Write(util.EscapeHTML(n.Title))
		_ = w.WriteByte('"')
	}
	_ = w.WriteByte('>')

	if !parseDestination(src).hasHost {
		_, _ = w.WriteString(`<ri:attachment ri:filename="`)
		_, _ = w.WriteString(AttrValue(src))
		_, _ = w.WriteString(`" />`)
		r.c.assets = append(r.c.assets, AssetRef{Filename: src})
	} else {
		_, _ = w.WriteString(`<ri:url ri:value="`)
		_, _ = w.Write(util.EscapeHTML([]byte(src)))
		_, _ = w.WriteString(`" />`)
	}
	_, _ = w.WriteString(`</ac:image>`)
	return ast.WalkSkipChildren, nil
}

func (r *storageNodeRenderer) renderLink(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.Link)
	if !entering {
		_, _ = w.WriteString("</a>")
		return ast.WalkContinue, nil
	}

	dest := string(n.Destination)
	href := util.URLEscape(n.Destination, true)
	if d := parseDestination(dest); d.isRelativeLink() {
		href = []byte(r.c.addLink(d, dest).Href())
	}

	_, _ = w.WriteString(`<a href="`)
	_, _ = w.Write(util.EscapeHTML(href))
	_ = w.WriteByte('"')
	if len(n.Title) > 0 {
		_, _ = w.WriteString(` title="`)
		_, _ = w.Write(util.EscapeHTML(n.Title))
		_ = w.WriteByte('"')
	}
	_ = w.WriteByte('>')
	return ast.WalkContinue, nil
}

func (r *storageNodeRenderer) renderCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	var lang []byte
	if fenced, ok := node.(*ast.FencedCodeBlock); ok {
		lang = fenced.Language(source)
	}

	var body bytes.Buffer
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		body.Write(seg.Value(source))
	}

	_, _ = w.WriteString(`<ac:structured-macro ac:name="code">`)
	if len(lang) > 0 {
		_, _ = w.WriteString(`<ac:parameter ac:name="language">`)
		_, _ = w.Write(util.EscapeHTML(lang))
		_, _ = w.WriteString(`</ac:parameter>`)
	}
	_, _ = w.WriteString(`<ac:parameter ac:name="linenumbers">true</ac:parameter>`)
	_, _ = w.WriteString(`<ac:plain-text-body><![CDATA[`)
	_, _ = w.WriteString(strings.ReplaceAll(body.String(), "]]>", "]]]]><![CDATA[>"))
	_, _ = w.WriteString("]]></ac:plain-text-body></ac:structured-macro>\n")
	return ast.WalkSkipChildren, nil
}

func (r *storageNodeRenderer) renderHTMLBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.HTMLBlock)
	if entering {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			r.writeHTML(w, seg.Value(source))
		}
	} else if n.HasClosure() {
		r.writeHTML(w, n.ClosureLine.Value(source))
	}
	return ast.WalkContinue, nil
}

func (r *storageNodeRenderer) renderRawHTML(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkSkipChildren, nil
	}
	n := node.(*ast.RawHTML)
	for i := 0; i < n.Segments.Len(); i++ {
		seg := n.Segments.At(i)
		r.writeHTML(w, seg.Value(source))
	}
	return ast.WalkSkipChildren, nil
}

func (r *storageNodeRenderer) writeHTML(w util.BufWriter, b []byte) {
	if r.rawHTML {
		_, _ = w.Write(b)
		return
	}
	_, _ = w.Write(util.EscapeHTML(b))
}

func altText(n ast.Node, source []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
		case *ast.String:
			sb.Write(t.Value)
		default:
			sb.WriteString(altText(c, source))
		}
	}
	return sb.String()
}
