// Package xref resolves the forward references collected while rendering:
// relative links become page links by title and local asset names become
// stable attachment identifiers.
package xref

import (
	"bytes"
	"context"
	"log/slog"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/docsync/internal/logfields"
	"git.home.luguber.info/inful/docsync/internal/metrics"
	"git.home.luguber.info/inful/docsync/internal/observability"
	"git.home.luguber.info/inful/docsync/internal/storage"
	"git.home.luguber.info/inful/docsync/internal/tree"
)

// LinkStats counts the outcome of a link resolution pass.
type LinkStats struct {
	Resolved int
	Dangling int
}

// Resolver rewrites relative link placeholders into page links.
type Resolver struct {
	recorder metrics.Recorder
}

// NewResolver returns a Resolver without metrics.
func NewResolver() *Resolver {
	return &Resolver{recorder: metrics.NoopRecorder{}}
}

// WithRecorder sets the metrics recorder.
func (r *Resolver) WithRecorder(rec metrics.Recorder) *Resolver {
	if rec != nil {
		r.recorder = rec
	}
	return r
}

// ResolveTarget joins link against the directory of srcPath.
func ResolveTarget(srcPath, link string) string {
	return norm.NFC.String(path.Clean(path.Join(path.Dir(srcPath), link)))
}

type pageLink struct {
	title    string
	fragment string
}

// ResolveLinks rewrites, on every page, each anchor whose href is a
// recorded placeholder into a link to the target page by display name.
// Links without a matching page are left as they are. Display names must
// already be assigned.
func (r *Resolver) ResolveLinks(ctx context.Context, pages []*tree.Page) LinkStats {
	bySrc := make(map[string]*tree.Page, len(pages))
	for _, p := range pages {
		if p.IsSection() {
			continue
		}
		if _, dup := bySrc[p.SrcPath()]; !dup {
			bySrc[p.SrcPath()] = p
		}
	}

	var stats LinkStats
	for _, p := range pages {
		if len(p.Links) == 0 {
			continue
		}
		targets := make(map[string]pageLink, len(p.Links))
		for i := range p.Links {
			l := &p.Links[i]
			l.Resolved = ResolveTarget(p.SrcPath(), l.Path)
			target, ok := bySrc[l.Resolved]
			if !ok {
				stats.Dangling++
				r.recorder.IncLinkDangling()
				observability.DebugContext(ctx, "Unresolved relative link",
					logfields.Page(p.DisplayName),
					logfields.Link(l.Path),
					slog.String("resolved", l.Resolved))
				continue
			}
			stats.Resolved++
			r.recorder.IncLinkResolved()
			targets[l.Href()] = pageLink{title: target.DisplayName, fragment: l.Fragment}
		}
		if len(targets) > 0 {
			p.Markup = rewriteAnchors(p.Markup, targets)
		}
	}
	return stats
}

// rewriteAnchors replaces each <a> element whose href is a key of targets
// with a structural page link, keeping the anchor body verbatim. Byte
// offsets come from the tokenizer's raw spans so everything outside the
// replaced elements is copied unchanged.
func rewriteAnchors(markup string, targets map[string]pageLink) string {
	z := html.NewTokenizer(strings.NewReader(markup))
	z.AllowCDATA(true)

	var (
		out       bytes.Buffer
		offset    int
		copied    int
		open      *pageLink
		openStart int
		bodyStart int
		depth     int
	)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// EOF, or input the tokenizer cannot read; the rest is copied as is.
			break
		}
		start := offset
		offset += len(z.Raw())

		switch tt {
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" {
				continue
			}
			if open != nil {
				depth++
				continue
			}
			if !hasAttr {
				continue
			}
			href := hrefOf(z)
			if !storage.IsPlaceholder(href) {
				continue
			}
			if t, ok := targets[href]; ok {
				open = &t
				openStart, bodyStart, depth = start, offset, 0
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) != "a" || open == nil {
				continue
			}
			if depth > 0 {
				depth--
				continue
			}
			out.WriteString(markup[copied:openStart])
			out.WriteString(pageLinkMarkup(*open, markup[bodyStart:start]))
			copied = offset
			open = nil
		}
	}
	out.WriteString(markup[copied:])
	return out.String()
}

func hrefOf(z *html.Tokenizer) string {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "href" {
			return string(val)
		}
		if !more {
			return ""
		}
	}
}

func pageLinkMarkup(t pageLink, body string) string {
	var sb strings.Builder
	sb.WriteString("<ac:link")
	if t.fragment != "" {
		sb.WriteString(` ac:anchor="`)
		sb.WriteString(storage.AttrValue(t.fragment))
		sb.WriteByte('"')
	}
	sb.WriteString(`><ri:page ri:content-title="`)
	sb.WriteString(storage.AttrValue(t.title))
	sb.WriteString(`" /><ac:link-body>`)
	sb.WriteString(body)
	sb.WriteString("</ac:link-body></ac:link>")
	return sb.String()
}
