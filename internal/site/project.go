package site

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docsync/internal/foundation/errors"
	"git.home.luguber.info/inful/docsync/internal/logfields"
)

// DefaultDocsDir is used when the project file does not set docs_dir.
const DefaultDocsDir = "docs"

// Project is a loaded documentation project.
type Project struct {
	ConfigFile string
	Name       string
	// Root is the directory holding ConfigFile.
	Root string
	// DocsDir is the absolute docs directory.
	DocsDir string
	Nav     []Node
}

// Load reads an mkdocs-style project file and builds its navigation tree.
func Load(projectFile string) (*Project, error) {
	abs, err := filepath.Abs(projectFile)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategorySite, "resolve project file").
			WithContext("path", projectFile).Fatal().Build()
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategorySite, "read project file").
			WithContext("path", abs).Fatal().Build()
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.WrapError(err, errors.CategorySite, "parse project file").
			WithContext("path", abs).Fatal().Build()
	}

	p := &Project{ConfigFile: abs, Root: filepath.Dir(abs)}
	docsDir := DefaultDocsDir
	var nav *yaml.Node
	if root := mappingRoot(&doc); root != nil {
		for i := 0; i+1 < len(root.Content); i += 2 {
			key, val := root.Content[i], root.Content[i+1]
			switch key.Value {
			case "site_name":
				p.Name = val.Value
			case "docs_dir":
				if val.Value != "" {
					docsDir = val.Value
				}
			case "nav":
				nav = val
			}
		}
	}
	if filepath.IsAbs(docsDir) {
		p.DocsDir = filepath.Clean(docsDir)
	} else {
		p.DocsDir = filepath.Join(p.Root, docsDir)
	}
	if fi, err := os.Stat(p.DocsDir); err != nil || !fi.IsDir() {
		return nil, errors.SiteError("docs directory not found").
			WithContext("path", p.DocsDir).WithCause(err).Build()
	}

	if nav != nil && nav.Kind == yaml.SequenceNode {
		p.Nav, err = p.navNodes(nav)
	} else {
		p.Nav, err = p.walk(p.DocsDir, "")
	}
	if err != nil {
		return nil, err
	}
	slog.Debug("Loaded project", logfields.Path(abs), slog.Int("top_level", len(p.Nav)))
	return p, nil
}

func mappingRoot(doc *yaml.Node) *yaml.Node {
	n := doc
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return nil
	}
	return n
}

func (p *Project) navNodes(seq *yaml.Node) ([]Node, error) {
	var out []Node
	for _, item := range seq.Content {
		var (
			n   Node
			err error
		)
		switch item.Kind {
		case yaml.ScalarNode:
			n, err = p.navPage("", item.Value)
		case yaml.MappingNode:
			if len(item.Content) < 2 {
				continue
			}
			title, val := item.Content[0].Value, item.Content[1]
			switch val.Kind {
			case yaml.ScalarNode:
				n, err = p.navPage(title, val.Value)
			case yaml.SequenceNode:
				var children []Node
				children, err = p.navNodes(val)
				n = NewSection(title, children...)
			default:
				return nil, errors.SiteError("unsupported nav entry").
					WithContext("title", title).WithContext("line", val.Line).Build()
			}
		default:
			return nil, errors.SiteError("unsupported nav entry").WithContext("line", item.Line).Build()
		}
		if err != nil {
			return nil, err
		}
		if n != nil {
			out = append(out, n)
		}
	}
	return out, nil
}

// navPage returns nil for external link entries.
func (p *Project) navPage(title, target string) (Node, error) {
	if isExternal(target) {
		slog.Debug("Skipping external nav entry", logfields.URL(target))
		return nil, nil
	}
	src := normalizeSrcPath(target)
	abs := filepath.Join(p.DocsDir, filepath.FromSlash(src))
	if title == "" {
		t, err := pageTitle(abs, src)
		if err != nil {
			return nil, err
		}
		title = t
	}
	return &entry{title: title, srcPath: src, absPath: abs}, nil
}

// walk lists dir: index page first, other markdown files by name, then
// subdirectories as sections. Hidden entries and directories without any
// markdown are skipped.
func (p *Project) walk(dir, rel string) ([]Node, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategorySite, "read docs directory").
			WithContext("path", dir).Fatal().Build()
	}
	var index, files, dirs []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		switch {
		case e.IsDir():
			dirs = append(dirs, name)
		case isMarkdown(name) && isIndexFile(name):
			index = append(index, name)
		case isMarkdown(name):
			files = append(files, name)
		}
	}
	// index.md precedes README.md when both exist.
	sort.Slice(index, func(i, j int) bool {
		ri, rj := indexRank(index[i]), indexRank(index[j])
		if ri != rj {
			return ri < rj
		}
		return index[i] < index[j]
	})
	sort.Strings(files)
	sort.Strings(dirs)

	var out []Node
	for _, name := range append(index, files...) {
		src := normalizeSrcPath(pathJoin(rel, name))
		abs := filepath.Join(dir, name)
		title, err := pageTitle(abs, src)
		if err != nil {
			return nil, err
		}
		out = append(out, &entry{title: title, srcPath: src, absPath: abs})
	}
	for _, name := range dirs {
		children, err := p.walk(filepath.Join(dir, name), pathJoin(rel, name))
		if err != nil {
			return nil, err
		}
		if len(children) == 0 {
			continue
		}
		out = append(out, NewSection(prettify(name), children...))
	}
	return out, nil
}

func indexRank(name string) int {
	if strings.HasPrefix(strings.ToLower(name), "index") {
		return 0
	}
	return 1
}

func pathJoin(rel, name string) string {
	if rel == "" {
		return name
	}
	return rel + "/" + name
}
