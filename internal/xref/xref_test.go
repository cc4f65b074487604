package xref

import (
	"context"
	"strings"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsync/internal/metrics"
	"git.home.luguber.info/inful/docsync/internal/site"
	"git.home.luguber.info/inful/docsync/internal/storage"
	"git.home.luguber.info/inful/docsync/internal/tree"
)

type doc struct {
	title, src, body string
}

// renderedPages builds, renders and disambiguates a flat list of pages.
func renderedPages(t *testing.T, docs ...doc) []*tree.Page {
	t.Helper()
	nav := make([]site.Node, 0, len(docs))
	for _, d := range docs {
		nav = append(nav, site.NewPage(d.title, d.src, "/abs/"+d.src))
	}
	pages := tree.Build(nav)
	r := storage.NewRenderer()
	for i, p := range pages {
		res, err := r.Render(p.SrcPath(), []byte(docs[i].body))
		require.NoError(t, err)
		p.Markup, p.Assets, p.Links = res.Markup, res.Assets, res.Links
	}
	tree.Disambiguate(pages)
	return pages
}

func TestAssetID(t *testing.T) {
	assert.Equal(t, "643a3006c7292dce2d721819c76ef6b9", AssetID("foo.png"))
}

func TestRewriteAssets_RoundTrip(t *testing.T) {
	pages := renderedPages(t, doc{"A", "docs/a.md", "![pic](foo.png)\n\n![escaped](img/a & b.png)"})

	RewriteAssets(pages)

	markup := pages[0].Markup
	assert.Contains(t, markup, `<ri:attachment ri:filename="643a3006c7292dce2d721819c76ef6b9" />`)
	assert.Contains(t, markup, `ri:filename="e4715ee71c7cade4f4d142c1c7315c4f"`)
	assert.NotContains(t, markup, "foo.png")

	RewriteAssets(pages)
	assert.Equal(t, markup, pages[0].Markup)
}

func TestRewriteAssets_LeavesCodeAlone(t *testing.T) {
	src := "![pic](foo.png)\n\n" +
		"```xml\n<ri:attachment ri:filename=\"foo.png\" />\n```\n\n" +
		"Inline `ri:filename=\"foo.png\"` too.\n"
	pages := renderedPages(t, doc{"A", "docs/a.md", src})

	RewriteAssets(pages)

	markup := pages[0].Markup
	assert.Contains(t, markup, `<ac:image ac:alt="pic"><ri:attachment ri:filename="643a3006c7292dce2d721819c76ef6b9" />`)
	assert.Contains(t, markup, `<![CDATA[<ri:attachment ri:filename="foo.png" />`+"\n]]>")
	assert.Contains(t, markup, `<code>ri:filename=&quot;foo.png&quot;</code>`)
}

func TestOutsideCDATA(t *testing.T) {
	upper := strings.ToUpper
	assert.Equal(t, "A<![CDATA[b]]>C", outsideCDATA("a<![CDATA[b]]>c", upper))
	assert.Equal(t, "<![CDATA[]]]]><![CDATA[>]]>X", outsideCDATA("<![CDATA[]]]]><![CDATA[>]]>x", upper))
	assert.Equal(t, "A<![CDATA[open", outsideCDATA("a<![CDATA[open", upper))
}

func TestResolveLinks_ParentDirectory(t *testing.T) {
	pages := renderedPages(t,
		doc{"A", "docs/sub/a.md", "[text](../b.md)"},
		doc{"B", "docs/b.md", "# B"},
	)

	stats := NewResolver().ResolveLinks(context.Background(), pages)

	assert.Equal(t, LinkStats{Resolved: 1}, stats)
	assert.Equal(t, "docs/b.md", pages[0].Links[0].Resolved)
	assert.Equal(t,
		"<p><ac:link><ri:page ri:content-title=\"B\" /><ac:link-body>text</ac:link-body></ac:link></p>\n",
		pages[0].Markup)
}

func TestResolveLinks_FragmentAndRichBody(t *testing.T) {
	pages := renderedPages(t,
		doc{"Guide", "guide.md", "See [the **install** steps](setup/install.md#linux-amd64) now."},
		doc{"Install", "setup/install.md", "x"},
	)

	NewResolver().ResolveLinks(context.Background(), pages)

	assert.Contains(t, pages[0].Markup,
		`<ac:link ac:anchor="linux-amd64"><ri:page ri:content-title="Install" /><ac:link-body>the <strong>install</strong> steps</ac:link-body></ac:link>`)
	assert.Contains(t, pages[0].Markup, "<p>See ")
	assert.Contains(t, pages[0].Markup, " now.</p>")
}

func TestResolveLinks_UsesDisambiguatedName(t *testing.T) {
	pages := renderedPages(t,
		doc{"Guide", "a.md", "[second](b.md)"},
		doc{"Guide", "b.md", "x"},
	)

	NewResolver().ResolveLinks(context.Background(), pages)

	assert.Contains(t, pages[0].Markup, `ri:content-title="Guide1"`)
}

func TestResolveLinks_DanglingLeftUnchanged(t *testing.T) {
	pages := renderedPages(t,
		doc{"A", "a.md", "[gone](missing.md) and [ok](b.md)"},
		doc{"B", "b.md", "x"},
	)
	danglingHref := pages[0].Links[0].Href()

	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	stats := NewResolver().WithRecorder(rec).ResolveLinks(context.Background(), pages)

	assert.Equal(t, LinkStats{Resolved: 1, Dangling: 1}, stats)
	assert.Contains(t, pages[0].Markup, `<a href="`+danglingHref+`">gone</a>`)
	assert.Contains(t, pages[0].Markup, `ri:content-title="B"`)

	count, err := testutil.GatherAndCount(reg, "docsync_links_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestResolveLinks_Idempotent(t *testing.T) {
	pages := renderedPages(t,
		doc{"A", "a.md", "[b](b.md) [again](b.md#top) [nope](zzz.md) ![i](i.png)"},
		doc{"B", "b.md", "x"},
	)
	r := NewResolver()

	r.ResolveLinks(context.Background(), pages)
	RewriteAssets(pages)
	once := pages[0].Markup

	r.ResolveLinks(context.Background(), pages)
	RewriteAssets(pages)
	assert.Equal(t, once, pages[0].Markup)
}

func TestResolveLinks_SectionsNeverMatch(t *testing.T) {
	nav := []site.Node{
		site.NewPage("A", "a.md", "/abs/a.md"),
		site.NewSection("Sub", site.NewPage("Inner", "sub/inner.md", "/abs/sub/inner.md")),
	}
	pages := tree.Build(nav)
	tree.Disambiguate(pages)
	link := storage.RelativeLink{Path: ".", Placeholder: storage.Placeholder("a.md", 0, ".")}
	pages[0].Links = []storage.RelativeLink{link}
	pages[0].Markup = `<a href="` + link.Href() + `">dot</a>`

	stats := NewResolver().ResolveLinks(context.Background(), pages)

	assert.Equal(t, 1, stats.Dangling)
	assert.Equal(t, `<a href="`+link.Href()+`">dot</a>`, pages[0].Markup)
}

func TestRewriteAnchors_IgnoresCDATA(t *testing.T) {
	ph := storage.Placeholder("a.md", 0, "b.md")
	in := `<ac:plain-text-body><![CDATA[<a href="` + ph + `">x</a>]]></ac:plain-text-body><a href="` + ph + `">y</a>`
	out := rewriteAnchors(in, map[string]pageLink{ph: {title: "T"}})

	assert.Equal(t,
		`<ac:plain-text-body><![CDATA[<a href="`+ph+`">x</a>]]></ac:plain-text-body><ac:link><ri:page ri:content-title="T" /><ac:link-body>y</ac:link-body></ac:link>`,
		out)
}

func TestRewriteAnchors_OnlyPlaceholderHrefs(t *testing.T) {
	in := `<p><a href="b.md">kept</a></p>`
	out := rewriteAnchors(in, map[string]pageLink{"b.md": {title: "B"}})

	assert.Equal(t, in, out)
}

func TestResolveTarget(t *testing.T) {
	assert.Equal(t, "docs/b.md", ResolveTarget("docs/sub/a.md", "../b.md"))
	assert.Equal(t, "c.md", ResolveTarget("a.md", "./c.md"))
	assert.Equal(t, "x/y.md", ResolveTarget("x/index.md", "y.md"))
}
