package storage

import "github.com/yuin/goldmark/util"

// AssetRef is a local file embedded by a document, as written in the source.
type AssetRef struct {
	Filename string
}

// RelativeLink is a link to another document of the site.
type RelativeLink struct {
	// Path is the raw target path, URL-unescaped and without fragment.
	Path     string
	Fragment string
	// Placeholder is the href the renderer emitted in place of the target.
	Placeholder string
	// Resolved is the normalized docs-relative target, filled in by the resolver.
	Resolved string
}

// Href returns the href the renderer wrote for this link.
func (l RelativeLink) Href() string {
	if l.Fragment == "" {
		return l.Placeholder
	}
	return l.Placeholder + "#" + l.Fragment
}

// Result is the output of rendering one document.
type Result struct {
	Markup string
	Assets []AssetRef
	Links  []RelativeLink
}

// AttrValue escapes s the way the renderer writes attribute values, so
// later passes can locate literal values in rendered markup.
func AttrValue(s string) string {
	return string(util.EscapeHTML([]byte(s)))
}
