package tree

import "git.home.luguber.info/inful/docsync/internal/site"

// Build flattens nav into pre-order. At each level leaf pages are emitted
// first, then every section followed by its own subtree, so a parent always
// precedes its descendants.
func Build(nav []site.Node) []*Page {
	var pages []*Page
	return appendLevel(pages, nav, NoParent)
}

func appendLevel(pages []*Page, nodes []site.Node, parent int) []*Page {
	for _, n := range nodes {
		if n.IsSection() {
			continue
		}
		pages = append(pages, &Page{Source: n, Parent: parent})
	}
	for _, n := range nodes {
		if !n.IsSection() {
			continue
		}
		pages = append(pages, &Page{Source: n, Parent: parent})
		pages = appendLevel(pages, n.Children(), len(pages)-1)
	}
	return pages
}
