// Package tree flattens a site navigation into the ordered page arena that
// every later sync pass walks.
package tree

import (
	"git.home.luguber.info/inful/docsync/internal/site"
	"git.home.luguber.info/inful/docsync/internal/storage"
)

// NoParent marks a top-level page.
const NoParent = -1

// Page is one node of the flattened tree. Parent is an index into the
// slice produced by Build, and always smaller than the page's own index.
type Page struct {
	Source site.Node
	Parent int

	Markup      string
	DisplayName string

	RemoteID      string
	RemoteVersion int
	HasVersion    bool

	Assets []storage.AssetRef
	Links  []storage.RelativeLink
}

// IsSection reports whether the page groups children without a body.
func (p *Page) IsSection() bool { return p.Source.IsSection() }

// SrcPath is the docs-relative source path, empty for sections.
func (p *Page) SrcPath() string { return p.Source.SrcPath() }

// ParentOf returns the parent page or nil for top-level pages.
func ParentOf(pages []*Page, p *Page) *Page {
	if p.Parent == NoParent {
		return nil
	}
	return pages[p.Parent]
}
