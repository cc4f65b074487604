package site

import (
	"bytes"
	"os"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/docsync/internal/foundation/errors"
)

type frontMatter struct {
	Title string `yaml:"title" toml:"title" json:"title"`
}

// ReadDocument returns the markdown body of a page with any frontmatter
// block removed.
func ReadDocument(n Node) (string, error) {
	if !n.IsPage() {
		return "", nil
	}
	_, body, err := readSource(n.AbsSrcPath())
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func readSource(absPath string) (frontMatter, []byte, error) {
	raw, err := os.ReadFile(absPath)
	if err != nil {
		return frontMatter{}, nil, errors.WrapError(err, errors.CategorySite, "read document").
			WithContext("path", absPath).
			Fatal().
			Build()
	}
	return splitFrontMatter(raw, absPath)
}

func splitFrontMatter(raw []byte, absPath string) (frontMatter, []byte, error) {
	var meta frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
	if err != nil {
		return frontMatter{}, nil, errors.WrapError(err, errors.CategorySite, "parse frontmatter").
			WithContext("path", absPath).
			Fatal().
			Build()
	}
	return meta, body, nil
}

// pageTitle applies frontmatter title, first level-1 heading, then the
// filename derived title.
func pageTitle(absPath, srcPath string) (string, error) {
	meta, body, err := readSource(absPath)
	if err != nil {
		return "", err
	}
	if t := strings.TrimSpace(meta.Title); t != "" {
		return t, nil
	}
	if t := firstHeading(body); t != "" {
		return t, nil
	}
	return titleFromFilename(srcPath), nil
}

func firstHeading(source []byte) string {
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))
	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if h.Level == 1 {
			title = strings.TrimSpace(plainText(h, source))
			return ast.WalkStop, nil
		}
		return ast.WalkSkipChildren, nil
	})
	return title
}

func plainText(n ast.Node, source []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		default:
			sb.WriteString(plainText(c, source))
		}
	}
	return sb.String()
}
