package xref

import (
	"crypto/md5" //nolint:gosec // attachment names must match previously uploaded ones
	"encoding/hex"
	"strings"

	"git.home.luguber.info/inful/docsync/internal/storage"
	"git.home.luguber.info/inful/docsync/internal/tree"
)

// AssetID is the attachment name for a local asset: the hex md5 of the
// filename as written in the source.
func AssetID(filename string) string {
	sum := md5.Sum([]byte(filename)) //nolint:gosec // naming only
	return hex.EncodeToString(sum[:])
}

// RewriteAssets points every attachment reference in the pages' markup at
// the AssetID of its filename. Code block bodies are left alone, and already
// rewritten markup is unchanged.
func RewriteAssets(pages []*tree.Page) {
	for _, p := range pages {
		if len(p.Assets) == 0 {
			continue
		}
		pairs := make([]string, 0, 2*len(p.Assets))
		for _, a := range p.Assets {
			pairs = append(pairs, attachmentRef(storage.AttrValue(a.Filename)), attachmentRef(AssetID(a.Filename)))
		}
		p.Markup = outsideCDATA(p.Markup, strings.NewReplacer(pairs...).Replace)
	}
}

func attachmentRef(filename string) string {
	return `<ri:attachment ri:filename="` + filename + `"`
}

const (
	cdataOpen  = "<![CDATA["
	cdataClose = "]]>"
)

// outsideCDATA applies f to the parts of s that are not CDATA sections.
// An unterminated section runs to the end of s.
func outsideCDATA(s string, f func(string) string) string {
	var sb strings.Builder
	for {
		i := strings.Index(s, cdataOpen)
		if i < 0 {
			sb.WriteString(f(s))
			return sb.String()
		}
		sb.WriteString(f(s[:i]))
		s = s[i:]
		j := strings.Index(s, cdataClose)
		if j < 0 {
			sb.WriteString(s)
			return sb.String()
		}
		j += len(cdataClose)
		sb.WriteString(s[:j])
		s = s[j:]
	}
}
