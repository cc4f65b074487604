// Package site loads the page tree of an mkdocs-style documentation project.
//
// The tree is read from the project's nav when it declares one, otherwise the
// docs directory is walked. Either way the result is a slice of Node values
// in navigation order, which internal/tree flattens for synchronization.
package site

// Node is one navigation entry: a page backed by a markdown file, or a
// section grouping further nodes.
type Node interface {
	Title() string
	IsPage() bool
	IsSection() bool
	// SrcPath is the docs-relative, slash separated, NFC normalized source
	// path. Empty for sections.
	SrcPath() string
	AbsSrcPath() string
	Children() []Node
}

type entry struct {
	title    string
	section  bool
	srcPath  string
	absPath  string
	children []Node
}

func (e *entry) Title() string      { return e.title }
func (e *entry) IsPage() bool       { return !e.section }
func (e *entry) IsSection() bool    { return e.section }
func (e *entry) SrcPath() string    { return e.srcPath }
func (e *entry) AbsSrcPath() string { return e.absPath }
func (e *entry) Children() []Node   { return e.children }

// NewPage returns a page node. srcPath is normalized the same way loaded
// pages are.
func NewPage(title, srcPath, absPath string) Node {
	return &entry{title: title, srcPath: normalizeSrcPath(srcPath), absPath: absPath}
}

// NewSection returns a section node holding children in order.
func NewSection(title string, children ...Node) Node {
	return &entry{title: title, section: true, children: children}
}
