package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, docPath, src string) Result {
	t.Helper()
	res, err := NewRenderer().Render(docPath, []byte(src))
	require.NoError(t, err)
	return res
}

func TestRender_LocalImage(t *testing.T) {
	res := render(t, "a.md", `![A diagram](img/foo.png "Flow")`)

	assert.Contains(t, res.Markup, `<ac:image ac:alt="A diagram" ac:title="Flow"><ri:attachment ri:filename="img/foo.png" /></ac:image>`)
	assert.Equal(t, []AssetRef{{Filename: "img/foo.png"}}, res.Assets)
	assert.Empty(t, res.Links)
}

func TestRender_RemoteImage(t *testing.T) {
	res := render(t, "a.md", `![logo](https://cdn.example.com/logo.svg)`)

	assert.Contains(t, res.Markup, `<ac:image ac:alt="logo"><ri:url ri:value="https://cdn.example.com/logo.svg" /></ac:image>`)
	assert.Empty(t, res.Assets)
}

func TestRender_RelativeLinks(t *testing.T) {
	src := strings.Join([]string{
		"[up](../b.md)",
		"[section](c.md#install-steps)",
		"[spaced](my%20doc.md)",
		"[external](https://example.com/x.md)",
		"[anchor](#top)",
	}, "\n\n")
	res := render(t, "sub/a.md", src)

	require.Len(t, res.Links, 3)
	assert.Equal(t, "../b.md", res.Links[0].Path)
	assert.Empty(t, res.Links[0].Fragment)
	assert.Equal(t, "c.md", res.Links[1].Path)
	assert.Equal(t, "install-steps", res.Links[1].Fragment)
	assert.Equal(t, "my doc.md", res.Links[2].Path)

	for _, l := range res.Links {
		assert.True(t, IsPlaceholder(l.Placeholder))
		assert.Contains(t, res.Markup, `<a href="`+l.Href()+`">`)
	}
	assert.Contains(t, res.Markup, `<a href="https://example.com/x.md">external</a>`)
	assert.Contains(t, res.Markup, `<a href="#top">anchor</a>`)
	assert.NotContains(t, res.Markup, "../b.md")
}

func TestRender_BarePercentDestinations(t *testing.T) {
	res := render(t, "a.md", "![x](50%.png)\n\n[l](100%.md#top)\n\n[far](//cdn.example.com/100%.md)")

	assert.Contains(t, res.Markup, `<ri:attachment ri:filename="50%.png" />`)
	assert.Equal(t, []AssetRef{{Filename: "50%.png"}}, res.Assets)

	require.Len(t, res.Links, 1)
	assert.Equal(t, "100%.md", res.Links[0].Path)
	assert.Equal(t, "top", res.Links[0].Fragment)
	assert.Contains(t, res.Markup, `<a href="`+res.Links[0].Href()+`">l</a>`)
	assert.NotContains(t, res.Markup, "100%25.md#top")
}

func TestRender_PlaceholdersAreDeterministic(t *testing.T) {
	first := render(t, "a.md", "[x](b.md) and [y](b.md)")
	second := render(t, "a.md", "[x](b.md) and [y](b.md)")
	other := render(t, "z.md", "[x](b.md)")

	require.Len(t, first.Links, 2)
	assert.Equal(t, first.Markup, second.Markup)
	assert.NotEqual(t, first.Links[0].Placeholder, first.Links[1].Placeholder)
	assert.NotEqual(t, first.Links[0].Placeholder, other.Links[0].Placeholder)
}

func TestRender_AccumulatorsDoNotLeak(t *testing.T) {
	r := NewRenderer()
	first, err := r.Render("a.md", []byte("![x](a.png) [l](b.md)"))
	require.NoError(t, err)
	second, err := r.Render("b.md", []byte("plain text"))
	require.NoError(t, err)

	assert.Len(t, first.Assets, 1)
	assert.Len(t, first.Links, 1)
	assert.Empty(t, second.Assets)
	assert.Empty(t, second.Links)
}

func TestRender_CodeBlocks(t *testing.T) {
	res := render(t, "a.md", "```go\nfmt.Println(\"]]>\")\n```\n\n    indented\n")

	assert.Contains(t, res.Markup, `<ac:structured-macro ac:name="code"><ac:parameter ac:name="language">go</ac:parameter>`)
	assert.Contains(t, res.Markup, `<![CDATA[fmt.Println("]]]]><![CDATA[>")`+"\n]]>")
	assert.Contains(t, res.Markup, "<![CDATA[indented\n]]>")
	assert.NotContains(t, res.Markup, "<pre>")
}

func TestRender_XHTMLAndGFM(t *testing.T) {
	res := render(t, "a.md", "line  \nbreak\n\n---\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n~~gone~~\n")

	assert.Contains(t, res.Markup, "<br />")
	assert.Contains(t, res.Markup, "<hr />")
	assert.Contains(t, res.Markup, "<table>")
	assert.Contains(t, res.Markup, "<del>gone</del>")
}

func TestRender_RawHTMLIsEscapedByDefault(t *testing.T) {
	res := render(t, "a.md", "<details>secret</details>\n\ntext <b>bold</b>\n")

	assert.Contains(t, res.Markup, "&lt;details&gt;secret&lt;/details&gt;")
	assert.Contains(t, res.Markup, "<p>text &lt;b&gt;bold&lt;/b&gt;</p>")
	assert.NotContains(t, res.Markup, "raw HTML omitted")
}

func TestRender_WithRawHTML(t *testing.T) {
	res, err := NewRenderer(WithRawHTML()).Render("a.md", []byte("<details>secret</details>\n\ntext <b>bold</b>\n"))
	require.NoError(t, err)

	assert.Contains(t, res.Markup, "<details>secret</details>")
	assert.Contains(t, res.Markup, "<p>text <b>bold</b></p>")
}

func TestAttrValue(t *testing.T) {
	assert.Equal(t, "a &amp; b &quot;c&quot;.png", AttrValue(`a & b "c".png`))
}
